package collcomm

import "fmt"

// SendAll sends the same tagged vector to every other
// worker.
func (c *Comms) SendAll(tag int, data []int) error {
	for i := range c.Ports {
		if i == c.index {
			continue
		}
		if err := c.Send(i, tag, data); err != nil {
			return err
		}
	}
	return nil
}

// Barrier blocks until every worker has entered the same
// Barrier call.
func (c *Comms) Barrier() error {
	tag := c.NextCollectiveTag()
	if err := c.SendAll(tag, nil); err != nil {
		return fmt.Errorf("barrier: %w", err)
	}
	for i := range c.Ports {
		if i != c.index {
			c.Recv(i, tag)
		}
	}
	return nil
}

// Bcast distributes worker 0's vector down a binary tree.
// Every worker returns worker 0's data; the argument is
// ignored on other workers.
func (c *Comms) Bcast(data []int) ([]int, error) {
	tag := c.NextCollectiveTag()
	parent, children := positionInTree(c.index, c.Size())
	if parent >= 0 {
		data = c.Recv(parent, tag)
	}
	for _, child := range children {
		if err := c.Send(child, tag, data); err != nil {
			return nil, fmt.Errorf("bcast: %w", err)
		}
	}
	return data, nil
}

// Gather collects every worker's vector on worker 0,
// indexed by rank. Other workers get a nil result.
func (c *Comms) Gather(data []int) ([][]int, error) {
	tag := c.NextCollectiveTag()
	parent, children := positionInTree(c.index, c.Size())

	// Each subtree is forwarded as a sequence of
	// (rank, length, values...) records.
	records := appendRecord(nil, c.index, data)
	for _, child := range children {
		records = append(records, c.Recv(child, tag)...)
	}
	if parent >= 0 {
		if err := c.Send(parent, tag, records); err != nil {
			return nil, fmt.Errorf("gather: %w", err)
		}
		return nil, nil
	}
	return DecodeRecords(records, c.Size())
}

// EncodeRecords packs one vector per rank into the record
// format used by Gather.
func EncodeRecords(vecs [][]int) []int {
	var res []int
	for rank, vec := range vecs {
		res = appendRecord(res, rank, vec)
	}
	return res
}

// DecodeRecords unpacks (rank, length, values...) records
// into one vector per rank.
func DecodeRecords(records []int, size int) ([][]int, error) {
	res := make([][]int, size)
	seen := make([]bool, size)
	for i := 0; i < len(records); {
		if i+2 > len(records) {
			return nil, fmt.Errorf("truncated record header at %d", i)
		}
		rank, length := records[i], records[i+1]
		i += 2
		if rank < 0 || rank >= size || seen[rank] {
			return nil, fmt.Errorf("bad record rank %d", rank)
		}
		if length < 0 || i+length > len(records) {
			return nil, fmt.Errorf("bad record length %d for rank %d", length, rank)
		}
		res[rank] = append([]int{}, records[i:i+length]...)
		seen[rank] = true
		i += length
	}
	for rank, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("missing record for rank %d", rank)
		}
	}
	return res, nil
}

func appendRecord(records []int, rank int, data []int) []int {
	records = append(records, rank, len(data))
	return append(records, data...)
}

// positionInTree returns the parent rank (-1 for the root)
// and child ranks of a worker in a binary tree laid out
// breadth-first, rooted at rank 0.
func positionInTree(idx, size int) (parent int, children []int) {
	parent = -1
	if idx > 0 {
		parent = (idx - 1) / 2
	}
	for _, child := range []int{2*idx + 1, 2*idx + 2} {
		if child < size {
			children = append(children, child)
		}
	}
	return
}
