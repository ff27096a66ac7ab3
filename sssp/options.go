package sssp

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/unixpickle/dist-sssp/collcomm"
	"github.com/unixpickle/dist-sssp/collcomm/allgather"
	"github.com/unixpickle/dist-sssp/metrics"
	"github.com/unixpickle/dist-sssp/simulator"
)

// DefaultPacing is the virtual time each asynchronous
// iteration waits before its pacing barrier.
const DefaultPacing = 0.1

// A NetworkFactory connects the nodes of one run.
type NetworkFactory func(nodes []*simulator.Node) simulator.Network

// RandomNetwork delivers messages after a random delay
// in (0, maxLatency], so they may arrive out of order.
func RandomNetwork(maxLatency float64) NetworkFactory {
	return func(nodes []*simulator.Node) simulator.Network {
		return simulator.RandomNetwork{MaxLatency: maxLatency}
	}
}

// ConstantNetwork delivers every message after the same
// latency.
func ConstantNetwork(latency float64) NetworkFactory {
	return func(nodes []*simulator.Node) simulator.Network {
		return simulator.ConstantNetwork{Latency: latency}
	}
}

// OrderedNetwork delivers messages between each pair of
// nodes in order, limited by a per-node transfer rate.
func OrderedNetwork(rate, maxLatency float64) NetworkFactory {
	return func(nodes []*simulator.Node) simulator.Network {
		return simulator.NewOrderedNetwork(rate, maxLatency)
	}
}

// NetworkByName creates a factory for "random",
// "constant" or "ordered" networks with the given latency.
func NetworkByName(name string, latency float64) (NetworkFactory, error) {
	switch name {
	case "", "random":
		return RandomNetwork(latency), nil
	case "constant":
		return ConstantNetwork(latency), nil
	case "ordered":
		return OrderedNetwork(1e6, latency), nil
	}
	return nil, fmt.Errorf("unknown network: %q", name)
}

// Options configures a distributed run.
type Options struct {
	// Workers is the number of simulated workers.
	// It must divide the number of vertices.
	Workers int

	// Source is the vertex distances are measured from.
	Source int

	// Network defaults to RandomNetwork(1).
	Network NetworkFactory

	// Allgatherer is used by the cooperative Dijkstra
	// exchange. Defaults to allgather.NaiveAllgatherer.
	Allgatherer allgather.Allgatherer

	// Pacing defaults to DefaultPacing.
	Pacing float64

	Retry       collcomm.RetryPolicy
	OutboxSlots int

	// Log defaults to a disabled logger.
	Log *zerolog.Logger

	// Metrics may be nil.
	Metrics *metrics.Metrics
}

func (o Options) withDefaults() Options {
	if o.Workers == 0 {
		o.Workers = 1
	}
	if o.Network == nil {
		o.Network = RandomNetwork(1)
	}
	if o.Allgatherer == nil {
		o.Allgatherer = allgather.NaiveAllgatherer{}
	}
	if o.Pacing == 0 {
		o.Pacing = DefaultPacing
	}
	if o.Log == nil {
		nop := zerolog.Nop()
		o.Log = &nop
	}
	return o
}

func (o Options) validate(numNodes int) error {
	if o.Source < 0 || o.Source >= numNodes {
		return fmt.Errorf("source %d out of range for %d vertices", o.Source, numNodes)
	}
	if o.Pacing < 0 {
		return errors.New("pacing must not be negative")
	}
	return nil
}
