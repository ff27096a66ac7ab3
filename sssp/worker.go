package sssp

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/unixpickle/dist-sssp/collcomm"
	"github.com/unixpickle/dist-sssp/graph"
	"github.com/unixpickle/dist-sssp/partition"
)

// A worker is one simulated process. It owns the estimates
// of a contiguous block of vertices and nothing else.
type worker struct {
	comms     *collcomm.Comms
	view      *partition.View
	partition *partition.Partition
	algorithm Algorithm
	opts      *Options
	log       zerolog.Logger

	// Indexed by local vertex.
	dist []int
	pred []int

	rounds int
}

// runWorker is the body of every worker Goroutine.
//
// Worker 0 passes the graph, and every other worker passes
// nil and receives the graph by broadcast. The gathered
// distances and predecessors are only returned on worker
// 0.
func runWorker(c *collcomm.Comms, g *graph.Graph, p *partition.Partition, alg Algorithm,
	opts *Options) (dist, pred []int, rounds int, err error) {
	var flat []int
	if c.Index() == 0 {
		flat = g.Flat()
	}
	flat, err = c.Bcast(flat)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("broadcast graph: %w", err)
	}
	if c.Index() != 0 {
		g, err = graph.FromFlat(p.NumNodes, flat)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("decode graph: %w", err)
		}
	}

	w := &worker{
		comms:     c,
		view:      partition.NewView(g, p, c.Index()),
		partition: p,
		algorithm: alg,
		opts:      opts,
		log:       c.Log.With().Str("algorithm", alg.String()).Logger(),
	}
	w.initEstimates()
	w.log.Debug().Int("offset", p.Offset(c.Index())).Int("vertices", p.NodesPerWorker).
		Msg("worker started")

	switch alg {
	case CoopDijkstra:
		err = w.coopDijkstra()
	case SyncBellmanFord:
		err = w.syncBellmanFord()
	case AsyncBellmanFord:
		err = w.asyncBellmanFord()
	default:
		err = fmt.Errorf("algorithm %s cannot run on workers", alg)
	}
	if err != nil {
		w.log.Error().Err(err).Int("round", w.rounds).Msg("protocol aborted")
		return nil, nil, 0, err
	}

	dist, pred, err = w.gatherResults()
	return dist, pred, w.rounds, err
}

func (w *worker) initEstimates() {
	n := w.partition.NodesPerWorker
	w.dist = make([]int, n)
	w.pred = make([]int, n)
	for i := range w.dist {
		w.dist[i] = graph.Infinity
		w.pred[i] = graph.NoPredecessor
	}
	if w.view.Local(w.opts.Source) {
		w.dist[w.partition.Local(w.opts.Source)] = 0
	}
}

// relax lowers the estimate of local vertex i to
// estimate+weight via neighbor u if that is shorter.
func (w *worker) relax(i, u, estimate, weight int) bool {
	if estimate == graph.Infinity {
		return false
	}
	alt := estimate + weight
	if alt >= w.dist[i] {
		return false
	}
	w.log.Debug().Int("vertex", w.view.Global(i)).Int("via", u).Int("old", w.dist[i]).
		Int("new", alt).Msg("relaxed")
	w.dist[i] = alt
	w.pred[i] = u
	w.opts.Metrics.Relaxation(w.algorithm.String())
	return true
}

func (w *worker) endRound() {
	w.rounds++
	w.opts.Metrics.Round(w.algorithm.String())
}

// pace waits for every message this worker sent, then for
// every other worker to do the same.
func (w *worker) pace() error {
	w.comms.Flush()
	return w.comms.Barrier()
}

func (w *worker) gatherResults() (dist, pred []int, err error) {
	local := append(append([]int{}, w.dist...), w.pred...)
	gathered, err := w.comms.Gather(local)
	if err != nil {
		return nil, nil, fmt.Errorf("gather results: %w", err)
	}
	if gathered == nil {
		return nil, nil, nil
	}
	npp := w.partition.NodesPerWorker
	dist = make([]int, 0, w.partition.NumNodes)
	pred = make([]int, 0, w.partition.NumNodes)
	for rank, vec := range gathered {
		if len(vec) != 2*npp {
			return nil, nil, fmt.Errorf("gather results: worker %d sent %d values", rank, len(vec))
		}
		dist = append(dist, vec[:npp]...)
		pred = append(pred, vec[npp:]...)
	}
	return dist, pred, nil
}
