package sssp

import (
	"fmt"

	"github.com/unixpickle/dist-sssp/graph"
	"github.com/unixpickle/dist-sssp/minqueue"
)

// coopDijkstra elects one global minimum per round.
//
// Every worker keeps a queue of its own unfinished
// vertices. Each round the workers all-gather their local
// minimum, all of them pick the same winner, its owner pops
// it, and every worker relaxes its own vertices through the
// winner. The run ends on the first round whose winner is
// the Empty sentinel, which all workers see together.
func (w *worker) coopDijkstra() error {
	npp := w.partition.NodesPerWorker
	queue := minqueue.New(npp)
	nodes := make([]*minqueue.Node, npp)
	for i := range nodes {
		nodes[i] = minqueue.NewNode(w.view.Global(i), w.dist[i])
		if err := queue.Insert(nodes[i]); err != nil {
			return err
		}
	}

	for {
		local := queue.PeekMin()
		all, err := w.opts.Allgatherer.Allgather(w.comms, []int{local.Key, local.Value})
		if err != nil {
			return fmt.Errorf("round %d: exchange minimum: %w", w.rounds, err)
		}
		winner, err := electWinner(all)
		if err != nil {
			return fmt.Errorf("round %d: %w", w.rounds, err)
		}
		if winner == minqueue.Empty {
			return nil
		}

		if w.view.Local(winner.Key) {
			if popped := queue.PopMin(); popped.Key != winner.Key {
				// The queue has not changed since PeekMin.
				return fmt.Errorf("round %d: popped %d but %d won", w.rounds, popped.Key,
					winner.Key)
			}
			w.log.Debug().Int("round", w.rounds).Int("vertex", winner.Key).
				Int("distance", winner.Value).Msg("committed vertex")
		}

		// An unreachable winner has nothing to offer.
		if winner.Value != graph.Infinity {
			for i, node := range nodes {
				if !queue.Contains(node) {
					continue
				}
				weight := w.view.Graph.Weight(node.Key, winner.Key)
				if weight != 0 && w.relax(i, winner.Key, winner.Value, weight) {
					queue.Update(node, w.dist[i])
				}
			}
		}
		w.endRound()
	}
}

// electWinner picks the smallest (key, value) pair, with
// ties going to the lowest rank. Every worker runs it on
// the same input, so they all agree.
func electWinner(all [][]int) (minqueue.Entry, error) {
	winner := minqueue.Empty
	for rank, vec := range all {
		if len(vec) != 2 {
			return minqueue.Empty, fmt.Errorf("worker %d sent %d values for its minimum", rank,
				len(vec))
		}
		candidate := minqueue.Entry{Key: vec[0], Value: vec[1]}
		if candidate == minqueue.Empty {
			continue
		}
		if winner == minqueue.Empty || candidate.Value < winner.Value {
			winner = candidate
		}
	}
	return winner, nil
}
