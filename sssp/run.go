package sssp

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/unixpickle/dist-sssp/collcomm"
	"github.com/unixpickle/dist-sssp/graph"
	"github.com/unixpickle/dist-sssp/partition"
	"github.com/unixpickle/dist-sssp/simulator"
	"golang.org/x/sync/errgroup"
)

// A Result is the outcome of one shortest-path run.
type Result struct {
	RunID     uuid.UUID
	Algorithm Algorithm
	Source    int

	Distances    []int
	Predecessors []int

	// VirtualTime is the simulated time the run took. It is
	// zero for serial algorithms.
	VirtualTime float64

	// Rounds counts the protocol rounds of worker 0.
	Rounds int
}

// Path gets the vertices on the shortest path from the
// source to v.
func (r *Result) Path(v int) []int {
	return graph.Path(r.Predecessors, v)
}

// Run computes shortest paths from opts.Source with the
// given algorithm.
//
// Distributed algorithms run on opts.Workers simulated
// workers. The partition is checked before any worker
// starts, so an uneven split fails without exchanging a
// message.
func Run(g *graph.Graph, alg Algorithm, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	if err := opts.validate(g.NumNodes()); err != nil {
		return nil, fmt.Errorf("run %s: %w", alg, err)
	}
	if !alg.Distributed() {
		return RunSerial(g, alg, opts.Source)
	}
	p, err := partition.New(g.NumNodes(), opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", alg, err)
	}

	runID := uuid.New()
	log := opts.Log.With().Str("run", runID.String()).Logger()
	log.Info().Str("algorithm", alg.String()).Int("vertices", p.NumNodes).
		Int("workers", p.NumWorkers).Msg("starting run")

	loop := simulator.NewEventLoop()
	nodes := make([]*simulator.Node, p.NumWorkers)
	for i := range nodes {
		nodes[i] = simulator.NewNode()
	}
	commsOpts := collcomm.Options{
		Log:         &log,
		Metrics:     opts.Metrics,
		Retry:       opts.Retry,
		OutboxSlots: opts.OutboxSlots,
	}

	result := &Result{RunID: runID, Algorithm: alg, Source: opts.Source}
	workerErrs := make([]error, p.NumWorkers)
	collcomm.SpawnComms(loop, opts.Network(nodes), nodes, commsOpts, func(c *collcomm.Comms) {
		var local *graph.Graph
		if c.Index() == 0 {
			local = g
		}
		dist, pred, rounds, err := runWorker(c, local, p, alg, &opts)
		workerErrs[c.Index()] = err
		if c.Index() == 0 && err == nil {
			result.Distances = dist
			result.Predecessors = pred
			result.Rounds = rounds
		}
	})
	loopErr := loop.Run()

	// A failed worker usually leaves the others blocked, so
	// its error explains the deadlock that follows.
	for rank, err := range workerErrs {
		if err != nil {
			return nil, fmt.Errorf("run %s: worker %d: %w", alg, rank, err)
		}
	}
	if loopErr != nil {
		return nil, fmt.Errorf("run %s: %w", alg, loopErr)
	}
	result.VirtualTime = loop.Time()
	log.Info().Str("algorithm", alg.String()).Float64("virtual_time", result.VirtualTime).
		Int("rounds", result.Rounds).Msg("finished run")
	return result, nil
}

// RunSerial computes shortest paths on one machine with a
// serial algorithm.
func RunSerial(g *graph.Graph, alg Algorithm, source int) (*Result, error) {
	if source < 0 || source >= g.NumNodes() {
		return nil, fmt.Errorf("run %s: source %d out of range for %d vertices", alg, source,
			g.NumNodes())
	}
	res := &Result{RunID: uuid.New(), Algorithm: alg, Source: source}
	switch alg {
	case SerialDijkstra:
		res.Distances, res.Predecessors = graph.Dijkstra(g, source)
	case SerialBellmanFord:
		res.Distances, res.Predecessors = graph.BellmanFord(g, source)
	default:
		return nil, fmt.Errorf("run %s: not a serial algorithm", alg)
	}
	return res, nil
}

// RunAll runs several algorithms on the same graph
// concurrently, each in its own simulation. Results are
// in the order of algs.
func RunAll(g *graph.Graph, algs []Algorithm, opts Options) ([]*Result, error) {
	results := make([]*Result, len(algs))
	var group errgroup.Group
	for i, alg := range algs {
		i, alg := i, alg
		group.Go(func() error {
			res, err := Run(g, alg, opts)
			results[i] = res
			return err
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// A Report compares a result against an oracle.
type Report struct {
	Algorithm Algorithm
	L2Norm    float64

	// Mismatches lists the vertices whose distances differ.
	Mismatches []int
}

// OK checks if the distances matched exactly.
func (r *Report) OK() bool {
	return len(r.Mismatches) == 0
}

// Verify compares res's distances to oracle distances.
func Verify(res *Result, oracle []int) *Report {
	return &Report{
		Algorithm:  res.Algorithm,
		L2Norm:     graph.L2Norm(res.Distances, oracle),
		Mismatches: graph.Compare(res.Distances, oracle),
	}
}
