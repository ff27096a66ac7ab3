package sssp

import "fmt"

// syncBellmanFord runs lock-step rounds.
//
// After an initial send, each round waits for all of the
// previous round's messages to land, then every vertex
// reads each out-neighbor's previous estimate, relaxes,
// and sends its own estimate to its in-neighbors. A simple
// path has fewer than n hops, so n rounds always suffice.
//
// Estimates of vertices on the same worker are read from a
// copy of the previous round's estimates instead of being
// sent.
func (w *worker) syncBellmanFord() error {
	previous := w.sendEstimates()
	if err := w.sendPhase(); err != nil {
		return fmt.Errorf("initial send: %w", err)
	}
	for round := 1; round <= w.partition.NumNodes; round++ {
		if err := w.pace(); err != nil {
			return fmt.Errorf("round %d: %w", round, err)
		}
		w.receivePhase(previous)
		if round < w.partition.NumNodes {
			previous = w.sendEstimates()
			if err := w.sendPhase(); err != nil {
				return fmt.Errorf("round %d: %w", round, err)
			}
		}
		w.endRound()
	}
	return nil
}

// sendEstimates snapshots the local estimates for the
// same-worker half of the next receive phase.
func (w *worker) sendEstimates() []int {
	return append([]int{}, w.dist...)
}

func (w *worker) sendPhase() error {
	p := w.partition
	for i, inNeighbors := range w.view.In {
		v := w.view.Global(i)
		for _, u := range inNeighbors {
			if w.view.Local(u) {
				continue
			}
			if err := w.comms.SendInt(p.Owner(u), p.SyncTag(v, u), w.dist[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *worker) receivePhase(previous []int) {
	p := w.partition
	for i, outNeighbors := range w.view.Out {
		v := w.view.Global(i)
		for _, u := range outNeighbors {
			var estimate int
			if w.view.Local(u) {
				estimate = previous[p.Local(u)]
			} else {
				estimate = w.comms.RecvInt(p.Owner(u), p.SyncTag(u, v))
			}
			w.relax(i, u, estimate, w.view.Graph.Weight(v, u))
		}
	}
}
