package sssp

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unixpickle/dist-sssp/collcomm"
	"github.com/unixpickle/dist-sssp/collcomm/allgather"
	"github.com/unixpickle/dist-sssp/graph"
	"github.com/unixpickle/dist-sssp/metrics"
	"github.com/unixpickle/dist-sssp/partition"
	"github.com/unixpickle/dist-sssp/simulator"
)

func scenarioGraph(t *testing.T) *graph.Graph {
	g := graph.New(4)
	require.NoError(t, g.SetEdge(0, 1, 2))
	require.NoError(t, g.SetEdge(1, 2, 3))
	require.NoError(t, g.SetEdge(0, 2, 10))
	require.NoError(t, g.SetEdge(2, 3, 1))
	return g
}

func testNetworks() map[string]NetworkFactory {
	return map[string]NetworkFactory{
		"Random":   RandomNetwork(0.5),
		"Ordered":  OrderedNetwork(1e4, 0.1),
		"Constant": ConstantNetwork(0.2),
	}
}

func TestRunScenario(t *testing.T) {
	g := scenarioGraph(t)
	for _, alg := range AllAlgorithms() {
		t.Run(alg.String(), func(t *testing.T) {
			res, err := Run(g, alg, Options{Workers: 2})
			require.NoError(t, err)
			assert.Equal(t, []int{0, 2, 5, 6}, res.Distances)
			assert.Equal(t, []int{-1, 0, 1, 2}, res.Predecessors)
			assert.Equal(t, []int{0, 1, 2, 3}, res.Path(3))
			assert.Equal(t, alg, res.Algorithm)
		})
	}
}

func TestRunMatchesOracle(t *testing.T) {
	for _, numNodes := range []int{1, 6, 12} {
		g, err := graph.Generate(numNodes, numNodes*(numNodes-1)/4, 15, int64(numNodes))
		require.NoError(t, err)
		oracle, _ := graph.Dijkstra(g, numNodes/2)
		for _, workers := range []int{1, 2, 3, 6} {
			if numNodes%workers != 0 {
				continue
			}
			for netName, network := range testNetworks() {
				for _, alg := range DistributedAlgorithms() {
					name := fmt.Sprintf("%s/N%d/W%d/%s", alg, numNodes, workers, netName)
					t.Run(name, func(t *testing.T) {
						opts := Options{
							Workers: workers,
							Source:  numNodes / 2,
							Network: network,
						}
						res, err := Run(g, alg, opts)
						require.NoError(t, err)
						report := Verify(res, oracle)
						assert.True(t, report.OK(), "mismatches: %v", report.Mismatches)
						assert.Zero(t, report.L2Norm)
						checkPredecessors(t, g, res)
					})
				}
			}
		}
	}
}

func TestRunTreeAllgather(t *testing.T) {
	g, err := graph.Generate(16, 40, 9, graph.DefaultSeed)
	require.NoError(t, err)
	oracle, _ := graph.Dijkstra(g, 0)
	res, err := Run(g, CoopDijkstra, Options{
		Workers:     4,
		Allgatherer: allgather.TreeAllgatherer{},
	})
	require.NoError(t, err)
	assert.Equal(t, oracle, res.Distances)
	checkPredecessors(t, g, res)
}

func TestRunUnreachable(t *testing.T) {
	g := graph.New(6)
	require.NoError(t, g.SetEdge(0, 1, 3))
	require.NoError(t, g.SetEdge(1, 4, 2))
	require.NoError(t, g.SetEdge(2, 5, 7))
	for _, alg := range AllAlgorithms() {
		res, err := Run(g, alg, Options{Workers: 3})
		require.NoError(t, err, alg.String())
		inf := graph.Infinity
		assert.Equal(t, []int{0, 3, inf, inf, 5, inf}, res.Distances, alg.String())
		assert.Equal(t, []int{-1, 0, -1, -1, 1, -1}, res.Predecessors, alg.String())
	}
}

// countingNetwork counts how many sends reach it.
type countingNetwork struct {
	sends int
	inner simulator.Network
}

func (c *countingNetwork) Send(h *simulator.Handle, msgs ...*simulator.Message) ([]*simulator.Timer, error) {
	c.sends++
	return c.inner.Send(h, msgs...)
}

func TestRunUnevenPartition(t *testing.T) {
	g := scenarioGraph(t)
	network := &countingNetwork{inner: simulator.RandomNetwork{}}
	factory := func(nodes []*simulator.Node) simulator.Network {
		return network
	}
	for _, alg := range DistributedAlgorithms() {
		_, err := Run(g, alg, Options{Workers: 3, Network: factory})
		assert.ErrorIs(t, err, partition.ErrUneven)
	}
	assert.Zero(t, network.sends)

	_, err := Run(g, SyncBellmanFord, Options{Workers: 2, Source: 4})
	assert.Error(t, err)
}

// failingNetwork refuses every message to or from one
// node.
type failingNetwork struct {
	victim *simulator.Node
	inner  simulator.Network
}

func (f *failingNetwork) Send(h *simulator.Handle, msgs ...*simulator.Message) ([]*simulator.Timer, error) {
	for _, msg := range msgs {
		if msg.Source.Node == f.victim || msg.Dest.Node == f.victim {
			return nil, simulator.ErrNodeDown
		}
	}
	return f.inner.Send(h, msgs...)
}

func TestRunTransportFailure(t *testing.T) {
	g := scenarioGraph(t)
	factory := func(nodes []*simulator.Node) simulator.Network {
		return &failingNetwork{victim: nodes[1], inner: simulator.RandomNetwork{}}
	}
	m := metrics.New(prometheus.NewRegistry())
	for _, alg := range DistributedAlgorithms() {
		_, err := Run(g, alg, Options{
			Workers: 2,
			Network: factory,
			Retry:   collcomm.RetryPolicy{MaxAttempts: 3},
			Metrics: m,
		})
		require.Error(t, err, alg.String())
		assert.ErrorIs(t, err, collcomm.ErrSendFailed, alg.String())
	}
	// Each failed send was retried twice.
	assert.Equal(t, 2.0*3, testutil.ToFloat64(m.SendRetries))
}

func TestRunMetrics(t *testing.T) {
	g := scenarioGraph(t)
	m := metrics.New(prometheus.NewRegistry())
	res, err := Run(g, SyncBellmanFord, Options{Workers: 2, Metrics: m})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Rounds)
	assert.Equal(t, 8.0, testutil.ToFloat64(m.Rounds.WithLabelValues("sync-bf")))
	assert.Greater(t, testutil.ToFloat64(m.MessagesSent.WithLabelValues(metrics.KindData)), 0.0)
	assert.Greater(t, testutil.ToFloat64(m.Relaxations.WithLabelValues("sync-bf")), 0.0)
	assert.Greater(t, res.VirtualTime, 0.0)
}

func TestRunAll(t *testing.T) {
	g, err := graph.Generate(12, 30, 20, 3)
	require.NoError(t, err)
	results, err := RunAll(g, AllAlgorithms(), Options{Workers: 4})
	require.NoError(t, err)
	require.Len(t, results, len(AllAlgorithms()))
	for i, res := range results {
		assert.Equal(t, AllAlgorithms()[i], res.Algorithm)
		assert.Equal(t, results[0].Distances, res.Distances)
	}
	assert.NotEqual(t, results[0].RunID, results[1].RunID)
}

func TestParseAlgorithm(t *testing.T) {
	for _, alg := range AllAlgorithms() {
		parsed, err := ParseAlgorithm(alg.String())
		require.NoError(t, err)
		assert.Equal(t, alg, parsed)
	}
	_, err := ParseAlgorithm("bogus")
	assert.Error(t, err)

	algs, err := ParseAlgorithms("sync-bf, coop-dijkstra,")
	require.NoError(t, err)
	assert.Equal(t, []Algorithm{SyncBellmanFord, CoopDijkstra}, algs)
	assert.Equal(t, 4, int(SyncBellmanFord))
}

func TestElectWinnerTies(t *testing.T) {
	winner, err := electWinner([][]int{{-1, -1}, {5, 7}, {9, 7}, {2, 8}})
	require.NoError(t, err)
	assert.Equal(t, 5, winner.Key)

	winner, err = electWinner([][]int{{-1, -1}, {-1, -1}})
	require.NoError(t, err)
	assert.Equal(t, -1, winner.Key)

	_, err = electWinner([][]int{{1}})
	assert.Error(t, err)
}

// checkPredecessors makes sure every predecessor lies on
// a shortest path, since ties may pick different ones.
func checkPredecessors(t *testing.T, g *graph.Graph, res *Result) {
	for v, p := range res.Predecessors {
		if p == graph.NoPredecessor {
			assert.True(t, v == res.Source || res.Distances[v] == graph.Infinity,
				"vertex %d has no predecessor", v)
			continue
		}
		require.NotZero(t, g.Weight(p, v), "predecessor %d of %d is not adjacent", p, v)
		assert.Equal(t, res.Distances[p]+g.Weight(p, v), res.Distances[v])
	}
}
