package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unixpickle/dist-sssp/graph"
)

func TestNewUneven(t *testing.T) {
	for _, c := range [][2]int{{10, 3}, {4, 0}, {0, 2}, {5, 10}} {
		_, err := New(c[0], c[1])
		assert.ErrorIs(t, err, ErrUneven, "%d vertices, %d workers", c[0], c[1])
	}
}

func TestPartitionBijection(t *testing.T) {
	for _, c := range [][2]int{{1, 1}, {12, 1}, {12, 3}, {12, 12}, {64, 8}} {
		p, err := New(c[0], c[1])
		require.NoError(t, err)
		seen := map[[2]int]bool{}
		for v := 0; v < p.NumNodes; v++ {
			w, i := p.Owner(v), p.Local(v)
			require.True(t, w >= 0 && w < p.NumWorkers)
			require.True(t, i >= 0 && i < p.NodesPerWorker)
			require.True(t, p.Owns(w, v))
			require.Equal(t, v, p.Global(w, i))
			require.False(t, seen[[2]int{w, i}], "duplicate slot for %d", v)
			seen[[2]int{w, i}] = true
		}
		assert.Len(t, seen, p.NumNodes)
	}
}

func TestTags(t *testing.T) {
	p, err := New(6, 2)
	require.NoError(t, err)

	// Pair tags are unique across every ordered pair.
	pairTags := map[int]bool{}
	for src := 0; src < 6; src++ {
		for dst := 0; dst < 6; dst++ {
			tag := p.PairTag(src, dst)
			assert.False(t, pairTags[tag])
			pairTags[tag] = true
		}
	}

	// Sync tags are unique for a given pair of workers.
	syncTags := map[int]bool{}
	for src := 0; src < 3; src++ {
		for dst := 3; dst < 6; dst++ {
			tag := p.SyncTag(src, dst)
			assert.GreaterOrEqual(t, tag, 0)
			assert.False(t, syncTags[tag])
			syncTags[tag] = true
		}
	}
	assert.Equal(t, 1+3*2, p.SyncTag(1, 5))
}

func TestNewView(t *testing.T) {
	g := graph.New(4)
	require.NoError(t, g.SetEdge(0, 1, 2))
	require.NoError(t, g.SetEdge(1, 2, 3))
	require.NoError(t, g.SetEdge(0, 2, 10))
	require.NoError(t, g.SetEdge(2, 3, 1))
	p, err := New(4, 2)
	require.NoError(t, err)

	v := NewView(g, p, 1)
	assert.Equal(t, 2, v.Global(0))
	assert.Equal(t, [][]int{{0, 1, 3}, {2}}, v.In)
	assert.Equal(t, v.In, v.Out)
	assert.Equal(t, 3, v.InDegree(0))
	assert.Equal(t, 1, v.OutDegree(1))
	assert.True(t, v.Local(3))
	assert.False(t, v.Local(1))
}
