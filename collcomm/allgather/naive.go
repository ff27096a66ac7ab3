package allgather

import (
	"fmt"

	"github.com/unixpickle/dist-sssp/collcomm"
)

// A NaiveAllgatherer sends every worker's vector directly
// to every other worker.
type NaiveAllgatherer struct{}

// Allgather returns all workers' vectors on every worker.
func (n NaiveAllgatherer) Allgather(c *collcomm.Comms, data []int) ([][]int, error) {
	tag := c.NextCollectiveTag()
	if err := c.SendAll(tag, data); err != nil {
		return nil, fmt.Errorf("allgather: %w", err)
	}

	gathered := make([][]int, c.Size())
	for i := range gathered {
		if i == c.Index() {
			gathered[i] = append([]int{}, data...)
		} else {
			gathered[i] = c.Recv(i, tag)
		}
	}
	return gathered, nil
}
