package graph

import (
	"math"

	"github.com/unixpickle/dist-sssp/minqueue"
	"github.com/unixpickle/essentials"
)

// Dijkstra computes shortest-path distances and
// predecessors from src on a single machine.
func Dijkstra(g *Graph, src int) (dist, pred []int) {
	dist, pred = initialEstimates(g.n, src)
	queue := minqueue.New(g.n)
	nodes := make([]*minqueue.Node, g.n)
	for v := range nodes {
		nodes[v] = minqueue.NewNode(v, dist[v])
		essentials.Must(queue.Insert(nodes[v]))
	}
	for !queue.IsEmpty() {
		v := queue.PopMin().Key
		if dist[v] == Infinity {
			// Everything left is unreachable.
			break
		}
		for u, w := range g.Row(v) {
			if w == 0 || !queue.Contains(nodes[u]) {
				continue
			}
			if alt := dist[v] + w; alt < dist[u] {
				dist[u] = alt
				pred[u] = v
				queue.Update(nodes[u], alt)
			}
		}
	}
	return dist, pred
}

// BellmanFord computes the same result as Dijkstra by
// relaxing every directed edge n times.
func BellmanFord(g *Graph, src int) (dist, pred []int) {
	type edge struct {
		u, v, w int
	}
	var edges []edge
	for u := 0; u < g.n; u++ {
		for v, w := range g.Row(u) {
			if w != 0 {
				edges = append(edges, edge{u, v, w})
			}
		}
	}

	dist, pred = initialEstimates(g.n, src)
	for i := 0; i < g.n; i++ {
		for _, e := range edges {
			// Can u get to the source through v?
			if dist[e.v] != Infinity && dist[e.v]+e.w < dist[e.u] {
				dist[e.u] = dist[e.v] + e.w
				pred[e.u] = e.v
			}
		}
	}
	return dist, pred
}

// L2Norm gets the Euclidean distance between two distance
// vectors. Matching entries, including two Infinity
// entries, contribute nothing.
func L2Norm(a, b []int) float64 {
	if len(a) != len(b) {
		panic("vector lengths do not match")
	}
	var sum float64
	for i, x := range a {
		if x == b[i] {
			continue
		}
		diff := float64(x) - float64(b[i])
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

// Compare gets the indices at which two distance vectors
// disagree.
func Compare(a, b []int) []int {
	if len(a) != len(b) {
		panic("vector lengths do not match")
	}
	var res []int
	for i, x := range a {
		if x != b[i] {
			res = append(res, i)
		}
	}
	return res
}

func initialEstimates(n, src int) (dist, pred []int) {
	dist = make([]int, n)
	pred = make([]int, n)
	for i := range dist {
		dist[i] = Infinity
		pred[i] = NoPredecessor
	}
	dist[src] = 0
	return dist, pred
}
