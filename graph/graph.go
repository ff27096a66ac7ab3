// Package graph stores weighted undirected graphs as dense
// adjacency matrices and provides the serial shortest-path
// algorithms used to check distributed results.
package graph

import (
	"errors"
	"fmt"
	"math"
)

// Infinity is the distance of a vertex that cannot be
// reached from the source.
const Infinity = math.MaxInt64

// NoPredecessor marks a vertex without a known path.
const NoPredecessor = -1

var (
	ErrSelfLoop       = errors.New("self-loops are not allowed")
	ErrNegativeWeight = errors.New("negative edge weights are not allowed")
)

// A Graph is a symmetric matrix of non-negative weights.
// A weight of 0 means there is no edge.
type Graph struct {
	n       int
	weights []int
}

// New creates a graph with n vertices and no edges.
func New(n int) *Graph {
	return &Graph{n: n, weights: make([]int, n*n)}
}

// FromFlat creates a graph from a row-major n*n matrix,
// as produced by Flat.
func FromFlat(n int, data []int) (*Graph, error) {
	if len(data) != n*n {
		return nil, fmt.Errorf("matrix has %d entries, expected %d", len(data), n*n)
	}
	g := New(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			w := data[i*n+j]
			if w != data[j*n+i] {
				return nil, fmt.Errorf("matrix is not symmetric at (%d, %d)", i, j)
			}
			if i == j && w != 0 {
				return nil, ErrSelfLoop
			}
			if w < 0 {
				return nil, ErrNegativeWeight
			}
		}
	}
	copy(g.weights, data)
	return g, nil
}

// NumNodes gets the number of vertices.
func (g *Graph) NumNodes() int {
	return g.n
}

// NumEdges counts the undirected edges.
func (g *Graph) NumEdges() int {
	var count int
	for i := 0; i < g.n; i++ {
		for j := i + 1; j < g.n; j++ {
			if g.weights[i*g.n+j] != 0 {
				count++
			}
		}
	}
	return count
}

// Weight gets the weight between i and j, or 0.
func (g *Graph) Weight(i, j int) int {
	return g.weights[i*g.n+j]
}

// HasEdge checks if i and j are adjacent.
func (g *Graph) HasEdge(i, j int) bool {
	return g.Weight(i, j) != 0
}

// SetEdge sets the weight of the edge between i and j in
// both directions. A weight of 0 removes the edge.
func (g *Graph) SetEdge(i, j, w int) error {
	if i == j {
		return ErrSelfLoop
	}
	if w < 0 {
		return ErrNegativeWeight
	}
	if i < 0 || j < 0 || i >= g.n || j >= g.n {
		return fmt.Errorf("edge (%d, %d) out of range for %d vertices", i, j, g.n)
	}
	g.weights[i*g.n+j] = w
	g.weights[j*g.n+i] = w
	return nil
}

// Row gets the weights of every edge touching i. The
// result must not be modified.
func (g *Graph) Row(i int) []int {
	return g.weights[i*g.n : (i+1)*g.n]
}

// Flat gets a copy of the row-major weight matrix.
func (g *Graph) Flat() []int {
	return append([]int{}, g.weights...)
}

// Path follows predecessors back from v, returning the
// vertices from the source to v.
//
// An unreachable v yields just []int{v}. A predecessor
// cycle yields nil.
func Path(pred []int, v int) []int {
	var rev []int
	for v != NoPredecessor {
		if len(rev) > len(pred) {
			// A cycle; the predecessors are inconsistent.
			return nil
		}
		rev = append(rev, v)
		v = pred[v]
	}
	res := make([]int, len(rev))
	for i, x := range rev {
		res[len(rev)-1-i] = x
	}
	return res
}
