// Package results persists shortest-path results so that
// separate runs on the same graph can be compared.
package results

import (
	"errors"
	"fmt"

	"github.com/unixpickle/dist-sssp/sssp"
)

var (
	// ErrExists is returned by StoreSoft when a result is
	// already stored under the key.
	ErrExists = errors.New("result already exists")

	ErrNotFound = errors.New("result not found")
)

// A Key identifies the graph a result was computed on and
// the algorithm that computed it.
type Key struct {
	Seed      int64
	NumNodes  int
	NumEdges  int
	MaxWeight int
	Algorithm sssp.Algorithm
}

func (k Key) String() string {
	return fmt.Sprintf("%d_%d_%d_%d_%d", k.NumNodes, k.NumEdges, k.MaxWeight, k.Seed,
		int(k.Algorithm))
}

// A Record is one stored result.
type Record struct {
	// RunID may be empty for stores that do not keep it.
	RunID string

	Distances    []int
	Predecessors []int
}

// NewRecord creates a Record from a run's result.
func NewRecord(res *sssp.Result) *Record {
	return &Record{
		RunID:        res.RunID.String(),
		Distances:    res.Distances,
		Predecessors: res.Predecessors,
	}
}

// A Store saves and loads Records.
type Store interface {
	// StoreSoft saves r unless something is already stored
	// under key, in which case it returns ErrExists.
	StoreSoft(key Key, r *Record) error

	// StoreHard saves r, replacing any previous record.
	StoreHard(key Key, r *Record) error

	// Read loads a record or returns ErrNotFound.
	Read(key Key) (*Record, error)
}

func checkRecord(r *Record) error {
	if len(r.Distances) != len(r.Predecessors) {
		return fmt.Errorf("record has %d distances but %d predecessors", len(r.Distances),
			len(r.Predecessors))
	}
	return nil
}
