package sssp

import "fmt"

// asyncBellmanFord relaxes estimates as soon as they
// arrive.
//
// Every vertex polls one slot per out-neighbor without
// blocking and pushes its estimate to all of its
// in-neighbors whenever it improves. Iterations are only
// paced by a sleep and a barrier.
//
// The run stops after n iterations: every message sent in
// one iteration is delivered before the next begins, so an
// estimate travels one hop per iteration, and a shortest
// path of positive weights has fewer than n hops.
func (w *worker) asyncBellmanFord() error {
	p := w.partition
	updated := make([]bool, len(w.dist))
	if w.view.Local(w.opts.Source) {
		updated[p.Local(w.opts.Source)] = true
	}

	for iter := 0; iter < p.NumNodes; iter++ {
		for i, outNeighbors := range w.view.Out {
			v := w.view.Global(i)
			for _, u := range outNeighbors {
				weight := w.view.Graph.Weight(v, u)
				for {
					estimate, ok := w.comms.TryRecvInt(p.Owner(u), p.PairTag(u, v))
					if !ok {
						break
					}
					if w.relax(i, u, estimate, weight) {
						updated[i] = true
					}
				}
			}
		}

		for i, inNeighbors := range w.view.In {
			if !updated[i] {
				continue
			}
			updated[i] = false
			v := w.view.Global(i)
			for _, u := range inNeighbors {
				if err := w.comms.SendInt(p.Owner(u), p.PairTag(v, u), w.dist[i]); err != nil {
					return fmt.Errorf("iteration %d: %w", iter, err)
				}
			}
		}

		w.comms.Handle.Sleep(w.opts.Pacing)
		if err := w.pace(); err != nil {
			return fmt.Errorf("iteration %d: %w", iter, err)
		}
		w.endRound()
	}
	return nil
}
