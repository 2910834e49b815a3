package pagerank_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Tencent/kgsearch/internal/pagerank"
)

func TestPersonalized_SeedDominatesIsolatedGraph(t *testing.T) {
	g := pagerank.Graph{
		Nodes: []string{"a", "b", "c"},
		Edges: map[string][]string{},
	}
	ranks := pagerank.Personalized(g, map[string]float64{"a": 1})

	assert.Greater(t, ranks["a"], ranks["b"])
	assert.Equal(t, ranks["b"], ranks["c"])
}

func TestPersonalized_RanksSumToOne(t *testing.T) {
	g := pagerank.Graph{
		Nodes: []string{"a", "b", "c"},
		Edges: map[string][]string{
			"a": {"b"},
			"b": {"c"},
			"c": {"a"},
		},
	}
	ranks := pagerank.Personalized(g, map[string]float64{"a": 1, "b": 1, "c": 1})

	total := 0.0
	for _, r := range ranks {
		total += r
	}
	assert.InDelta(t, 1.0, total, 1e-6)
}

func TestPersonalized_EmptyGraph(t *testing.T) {
	ranks := pagerank.Personalized(pagerank.Graph{}, nil)
	assert.Empty(t, ranks)
}

func TestPersonalized_UnseededFallsBackToUniform(t *testing.T) {
	g := pagerank.Graph{Nodes: []string{"a", "b"}, Edges: map[string][]string{}}
	ranks := pagerank.Personalized(g, nil)
	assert.InDelta(t, ranks["a"], ranks["b"], 1e-9)
}
