package allgather

import "github.com/unixpickle/dist-sssp/collcomm"

// A TreeAllgatherer gathers every vector up a binary tree
// to worker 0, then broadcasts the result back down the
// same tree.
//
// It sends 2(n-1) messages where the naive approach sends
// n(n-1), at the price of a longer critical path.
type TreeAllgatherer struct{}

// Allgather returns all workers' vectors on every worker.
func (t TreeAllgatherer) Allgather(c *collcomm.Comms, data []int) ([][]int, error) {
	gathered, err := c.Gather(data)
	if err != nil {
		return nil, err
	}
	var records []int
	if c.Index() == 0 {
		records = collcomm.EncodeRecords(gathered)
	}
	records, err = c.Bcast(records)
	if err != nil {
		return nil, err
	}
	return collcomm.DecodeRecords(records, c.Size())
}
