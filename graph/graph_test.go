package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenarioGraph is the four-vertex graph
// 0 -2- 1 -3- 2 -1- 3 with a long 0 -10- 2 edge.
func scenarioGraph(t *testing.T) *Graph {
	g := New(4)
	require.NoError(t, g.SetEdge(0, 1, 2))
	require.NoError(t, g.SetEdge(1, 2, 3))
	require.NoError(t, g.SetEdge(0, 2, 10))
	require.NoError(t, g.SetEdge(2, 3, 1))
	return g
}

func TestGraphEdges(t *testing.T) {
	g := scenarioGraph(t)
	assert.Equal(t, 4, g.NumNodes())
	assert.Equal(t, 4, g.NumEdges())
	assert.Equal(t, 3, g.Weight(2, 1))
	assert.Equal(t, 3, g.Weight(1, 2))
	assert.Equal(t, 0, g.Weight(1, 3))
	assert.Equal(t, []int{10, 3, 0, 1}, g.Row(2))

	assert.ErrorIs(t, g.SetEdge(1, 1, 4), ErrSelfLoop)
	assert.ErrorIs(t, g.SetEdge(0, 3, -1), ErrNegativeWeight)
	assert.Error(t, g.SetEdge(0, 4, 1))
}

func TestGraphFlat(t *testing.T) {
	g := scenarioGraph(t)
	flat := g.Flat()
	g1, err := FromFlat(4, flat)
	require.NoError(t, err)
	assert.Equal(t, g, g1)

	flat[1] = 7
	_, err = FromFlat(4, flat)
	assert.Error(t, err, "asymmetric matrix")
	_, err = FromFlat(3, flat)
	assert.Error(t, err, "wrong size")
}

func TestGenerate(t *testing.T) {
	g, err := Generate(20, 50, 9, DefaultSeed)
	require.NoError(t, err)
	assert.Equal(t, 50, g.NumEdges())
	for i := 0; i < 20; i++ {
		assert.Equal(t, 0, g.Weight(i, i))
		for j := 0; j < 20; j++ {
			w := g.Weight(i, j)
			assert.Equal(t, w, g.Weight(j, i))
			assert.True(t, w >= 0 && w <= 9)
		}
	}

	g1, err := Generate(20, 50, 9, DefaultSeed)
	require.NoError(t, err)
	assert.Equal(t, g, g1, "same seed, same graph")

	full, err := Generate(6, MaxEdges(6), 3, 1)
	require.NoError(t, err)
	assert.Equal(t, 15, full.NumEdges())

	_, err = Generate(6, 16, 3, 1)
	assert.ErrorIs(t, err, ErrTooManyEdges)
}

func TestOracleScenario(t *testing.T) {
	g := scenarioGraph(t)
	for name, alg := range map[string]func(*Graph, int) ([]int, []int){
		"Dijkstra":    Dijkstra,
		"BellmanFord": BellmanFord,
	} {
		t.Run(name, func(t *testing.T) {
			dist, pred := alg(g, 0)
			assert.Equal(t, []int{0, 2, 5, 6}, dist)
			assert.Equal(t, []int{-1, 0, 1, 2}, pred)
			assert.Equal(t, []int{0, 1, 2, 3}, Path(pred, 3))
		})
	}
}

func TestOracleUnreachable(t *testing.T) {
	g := New(5)
	require.NoError(t, g.SetEdge(0, 1, 4))
	require.NoError(t, g.SetEdge(3, 4, 1))
	for _, alg := range []func(*Graph, int) ([]int, []int){Dijkstra, BellmanFord} {
		dist, pred := alg(g, 1)
		assert.Equal(t, []int{4, 0, Infinity, Infinity, Infinity}, dist)
		assert.Equal(t, []int{1, -1, -1, -1, -1}, pred)
		assert.Equal(t, []int{3}, Path(pred, 3))
	}
}

func TestOracleAgreement(t *testing.T) {
	for _, seed := range []int64{1, 2, 3, 4, 5} {
		g, err := Generate(30, 60, 20, seed)
		require.NoError(t, err)
		d1, _ := Dijkstra(g, 0)
		d2, _ := BellmanFord(g, 0)
		assert.Equal(t, d1, d2)
		assert.Zero(t, L2Norm(d1, d2))
		assert.Empty(t, Compare(d1, d2))
	}
}

func TestL2Norm(t *testing.T) {
	assert.Equal(t, 5.0, L2Norm([]int{0, 3, 4}, []int{0, 0, 0}))
	assert.Equal(t, 0.0, L2Norm([]int{Infinity, 1}, []int{Infinity, 1}))
	assert.Equal(t, []int{1, 2}, Compare([]int{0, 3, 4}, []int{0, 0, 0}))
}
