// Package allgather implements collectives where every
// worker contributes a vector and every worker receives
// all of them.
package allgather

import "github.com/unixpickle/dist-sssp/collcomm"

// An Allgatherer exchanges one vector per worker so that
// every worker ends up with all of them, indexed by rank.
//
// Every worker must call Allgather the same number of
// times and in the same order relative to the other
// collectives on its Comms.
type Allgatherer interface {
	Allgather(c *collcomm.Comms, data []int) ([][]int, error)
}

// ByName returns the Allgatherer called "naive" or "tree".
func ByName(name string) (Allgatherer, bool) {
	switch name {
	case "", "naive":
		return NaiveAllgatherer{}, true
	case "tree":
		return TreeAllgatherer{}, true
	}
	return nil, false
}
