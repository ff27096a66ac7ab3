package graph

import (
	"errors"
	"fmt"
	"math/rand"
)

// DefaultSeed is the generator seed used when none is
// configured.
const DefaultSeed = 12345

// ErrTooManyEdges is returned when more edges are requested
// than a simple graph on the vertices can hold.
var ErrTooManyEdges = errors.New("too many edges for this vertex count")

// MaxEdges gets the number of edges in a complete graph on
// n vertices.
func MaxEdges(n int) int {
	return n * (n - 1) / 2
}

// Generate creates a random graph with exactly nEdges
// edges whose weights are uniform in [1, maxWeight].
//
// The same arguments always produce the same graph.
func Generate(nNodes, nEdges, maxWeight int, seed int64) (*Graph, error) {
	if nNodes <= 0 {
		return nil, fmt.Errorf("generate graph: invalid vertex count %d", nNodes)
	}
	if nEdges < 0 || nEdges > MaxEdges(nNodes) {
		return nil, fmt.Errorf("generate graph: %w (%d edges, %d vertices)", ErrTooManyEdges,
			nEdges, nNodes)
	}
	if maxWeight < 1 && nEdges > 0 {
		return nil, fmt.Errorf("generate graph: invalid max weight %d", maxWeight)
	}
	gen := rand.New(rand.NewSource(seed))
	g := New(nNodes)
	for e := 0; e < nEdges; {
		n1, n2 := gen.Intn(nNodes), gen.Intn(nNodes)
		if n1 == n2 || g.HasEdge(n1, n2) {
			continue
		}
		if err := g.SetEdge(n1, n2, gen.Intn(maxWeight)+1); err != nil {
			return nil, err
		}
		e++
	}
	return g, nil
}
