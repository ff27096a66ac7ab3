// Package partition splits a graph's vertices into equal
// contiguous blocks, one per worker.
package partition

import (
	"errors"
	"fmt"

	"github.com/unixpickle/dist-sssp/graph"
)

// ErrUneven is returned when the workers cannot each own
// the same number of vertices.
var ErrUneven = errors.New("worker count must evenly divide vertex count")

// A Partition assigns worker w the global vertex ids in
// [w*NodesPerWorker, (w+1)*NodesPerWorker).
type Partition struct {
	NumNodes       int
	NumWorkers     int
	NodesPerWorker int
}

// New creates a partition of numNodes vertices over
// numWorkers workers.
func New(numNodes, numWorkers int) (*Partition, error) {
	if numNodes <= 0 || numWorkers <= 0 || numNodes%numWorkers != 0 {
		return nil, fmt.Errorf("partition %d vertices over %d workers: %w", numNodes,
			numWorkers, ErrUneven)
	}
	return &Partition{
		NumNodes:       numNodes,
		NumWorkers:     numWorkers,
		NodesPerWorker: numNodes / numWorkers,
	}, nil
}

// Offset gets the first global id owned by worker w.
func (p *Partition) Offset(w int) int {
	return w * p.NodesPerWorker
}

// Owner gets the worker that owns global vertex v.
func (p *Partition) Owner(v int) int {
	return v / p.NodesPerWorker
}

// Local gets v's index within its owner's block.
func (p *Partition) Local(v int) int {
	return v % p.NodesPerWorker
}

// Global converts worker w's local index i to a global id.
func (p *Partition) Global(w, i int) int {
	return p.Offset(w) + i
}

// Owns checks if worker w owns global vertex v.
func (p *Partition) Owns(w, v int) bool {
	return p.Owner(v) == w
}

// SyncTag gets the message tag for an estimate sent from
// vertex src to vertex dst during a synchronous round.
//
// It depends only on local indices, so it is unique per
// pair of workers rather than globally.
func (p *Partition) SyncTag(src, dst int) int {
	return p.Local(src) + p.NodesPerWorker*p.Local(dst)
}

// PairTag gets a globally unique tag for messages sent
// from vertex src to vertex dst.
func (p *Partition) PairTag(src, dst int) int {
	return dst + p.NumNodes*src
}

// A View is one worker's neighbor lists, built once before
// any messages are exchanged and never modified.
//
// Since graphs are undirected, In[i] and Out[i] hold the
// same vertices; they are kept apart because the protocols
// use them in different directions. A vertex receives
// estimates from its out-neighbors and pushes its own
// estimate to its in-neighbors.
type View struct {
	Partition *Partition
	Graph     *graph.Graph
	Worker    int

	// Indexed by local vertex; entries are global ids.
	In  [][]int
	Out [][]int
}

// NewView scans the row and column of every vertex owned
// by worker w.
func NewView(g *graph.Graph, p *Partition, w int) *View {
	if g.NumNodes() != p.NumNodes {
		panic(fmt.Sprintf("graph has %d vertices but partition has %d", g.NumNodes(),
			p.NumNodes))
	}
	v := &View{
		Partition: p,
		Graph:     g,
		Worker:    w,
		In:        make([][]int, p.NodesPerWorker),
		Out:       make([][]int, p.NodesPerWorker),
	}
	for i := range v.In {
		global := p.Global(w, i)
		for j := 0; j < p.NumNodes; j++ {
			if g.Weight(j, global) != 0 {
				v.In[i] = append(v.In[i], j)
			}
			if g.Weight(global, j) != 0 {
				v.Out[i] = append(v.Out[i], j)
			}
		}
	}
	return v
}

// Global gets the global id of local vertex i.
func (v *View) Global(i int) int {
	return v.Partition.Global(v.Worker, i)
}

// InDegree gets the number of in-neighbors of local vertex
// i.
func (v *View) InDegree(i int) int {
	return len(v.In[i])
}

// OutDegree gets the number of out-neighbors of local
// vertex i.
func (v *View) OutDegree(i int) int {
	return len(v.Out[i])
}

// Local checks if global vertex u belongs to this view's
// worker.
func (v *View) Local(u int) bool {
	return v.Partition.Owns(v.Worker, u)
}
