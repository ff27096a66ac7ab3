package sssp

import (
	"fmt"
	"strings"
)

// An Algorithm identifies a shortest-path implementation.
//
// The numeric values are stable; they appear in stored
// result file names.
type Algorithm int

const (
	SerialDijkstra Algorithm = iota
	SerialBellmanFord
	CoopDijkstra
	AsyncBellmanFord
	SyncBellmanFord
)

var algorithmNames = []string{
	SerialDijkstra:    "serial-dijkstra",
	SerialBellmanFord: "serial-bf",
	CoopDijkstra:      "coop-dijkstra",
	AsyncBellmanFord:  "async-bf",
	SyncBellmanFord:   "sync-bf",
}

// AllAlgorithms lists every algorithm in id order.
func AllAlgorithms() []Algorithm {
	return []Algorithm{SerialDijkstra, SerialBellmanFord, CoopDijkstra, AsyncBellmanFord,
		SyncBellmanFord}
}

// DistributedAlgorithms lists the algorithms that run on
// simulated workers.
func DistributedAlgorithms() []Algorithm {
	return []Algorithm{CoopDijkstra, AsyncBellmanFord, SyncBellmanFord}
}

// ParseAlgorithm finds an algorithm by its String() name.
func ParseAlgorithm(name string) (Algorithm, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range algorithmNames {
		if n == name {
			return Algorithm(i), nil
		}
	}
	return 0, fmt.Errorf("unknown algorithm: %q", name)
}

// ParseAlgorithms parses a comma-separated list.
func ParseAlgorithms(list string) ([]Algorithm, error) {
	var res []Algorithm
	for _, name := range strings.Split(list, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		alg, err := ParseAlgorithm(name)
		if err != nil {
			return nil, err
		}
		res = append(res, alg)
	}
	return res, nil
}

func (a Algorithm) String() string {
	if a < 0 || int(a) >= len(algorithmNames) {
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
	return algorithmNames[a]
}

// Distributed checks if the algorithm runs on workers.
func (a Algorithm) Distributed() bool {
	return a == CoopDijkstra || a == AsyncBellmanFord || a == SyncBellmanFord
}
