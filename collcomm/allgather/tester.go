package allgather

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/unixpickle/dist-sssp/collcomm"
	"github.com/unixpickle/dist-sssp/simulator"
)

// RunAllgathererTests runs a battery of tests on an
// Allgatherer.
//
// Each run performs several back-to-back gathers, which
// exercises tag separation between consecutive calls on a
// network that reorders messages.
func RunAllgathererTests(t *testing.T, gatherer Allgatherer) {
	const numCalls = 3
	for _, numNodes := range []int{1, 2, 5, 15, 16, 17} {
		for _, size := range []int{0, 1, 37} {
			for _, networkName := range []string{"random", "ordered"} {
				testName := fmt.Sprintf("Nodes=%d,Size=%d,Network=%s", numNodes, size, networkName)
				t.Run(testName, func(t *testing.T) {
					loop := simulator.NewEventLoop()
					nodes := make([]*simulator.Node, numNodes)
					vectors := make([][][]int, numCalls)
					for call := range vectors {
						vectors[call] = make([][]int, numNodes)
						for i := range nodes {
							vectors[call][i] = make([]int, size)
							for j := range vectors[call][i] {
								vectors[call][i][j] = rand.Intn(1000)
							}
						}
					}
					for i := range nodes {
						nodes[i] = simulator.NewNode()
					}

					var network simulator.Network
					if networkName == "random" {
						network = simulator.RandomNetwork{}
					} else {
						network = simulator.NewOrderedNetwork(1e3, 0.1)
					}

					results := make([][][][]int, numCalls)
					for call := range results {
						results[call] = make([][][]int, numNodes)
					}
					errs := make([]error, numNodes)
					collcomm.SpawnComms(loop, network, nodes, collcomm.Options{}, func(c *collcomm.Comms) {
						for call := 0; call < numCalls; call++ {
							res, err := gatherer.Allgather(c, vectors[call][c.Index()])
							if err != nil {
								errs[c.Index()] = err
								return
							}
							results[call][c.Index()] = res
						}
					})

					if err := loop.Run(); err != nil {
						t.Fatal(err)
					}
					for i, err := range errs {
						if err != nil {
							t.Fatalf("worker %d: %v", i, err)
						}
					}
					for call := range results {
						verifyGatherResults(t, results[call], vectors[call])
					}
				})
			}
		}
	}
}

func verifyGatherResults(t *testing.T, results [][][]int, expected [][]int) {
	for worker, res := range results {
		if len(res) != len(expected) {
			t.Errorf("worker %d got %d vectors but expected %d", worker, len(res), len(expected))
			continue
		}
		for rank, vec := range res {
			if len(vec) != len(expected[rank]) {
				t.Errorf("worker %d: vector %d has length %d but expected %d",
					worker, rank, len(vec), len(expected[rank]))
				continue
			}
			for j, x := range vec {
				if x != expected[rank][j] {
					t.Errorf("worker %d: vector %d differs at component %d (%d vs %d)",
						worker, rank, j, x, expected[rank][j])
					break
				}
			}
		}
	}
}
