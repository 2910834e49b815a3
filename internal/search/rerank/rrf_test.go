package rerank_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tencent/kgsearch/internal/search/rerank"
	"github.com/Tencent/kgsearch/internal/store/memory"
	"github.com/Tencent/kgsearch/internal/tracker"
	"github.com/Tencent/kgsearch/internal/types"
)

// fixture wires one entity to two events: ev1 matches the query densely and
// lexically, ev2 matches on neither, so RunRRF should rank ev1 first and
// may drop ev2 entirely.
func fixture() *memory.Store {
	s := memory.New()
	s.Entities["e1"] = types.Entity{ID: "e1", SourceConfigID: "src1", Type: "animal", Name: "gopher"}
	s.Events["ev1"] = types.Event{ID: "ev1", SourceConfigID: "src1", ArticleID: "a1", Title: "Gopher tunnels"}
	s.Events["ev2"] = types.Event{ID: "ev2", SourceConfigID: "src1", ArticleID: "a2", Title: "Unrelated"}
	s.EntityEvent = append(s.EntityEvent,
		types.EntityEventLink{EventID: "ev1", EntityID: "e1", Weight: 1},
		types.EntityEventLink{EventID: "ev2", EntityID: "e1", Weight: 1},
	)
	s.EventVectors["ev1"] = []float32{1, 0, 0}
	s.EventVectors["ev2"] = []float32{0, 1, 0}
	s.EventTokens["ev1"] = []string{"gopher", "tunnels"}
	s.EventTokens["ev2"] = []string{"unrelated"}
	return s
}

func baseConfig() *types.SearchConfig {
	cfg := types.NewSearchConfig()
	cfg.OriginalQuery = "gopher tunnels"
	cfg.Query = cfg.OriginalQuery
	cfg.SourceConfigIDs = []string{"src1"}
	cfg.QueryEmbedding = []float32{1, 0, 0}
	return cfg
}

func TestRunRRF_RanksStrongMatchFirst(t *testing.T) {
	store := fixture()
	cfg := baseConfig()
	tr := tracker.New()
	finalEntities := []types.WeightedEntity{{EntityID: "e1", Weight: 1}}

	ranked, stats, err := rerank.RunRRF(context.Background(), cfg, tr, queryNode(tr), finalEntities, store, store)
	require.NoError(t, err)
	require.NotEmpty(t, ranked)
	assert.Equal(t, "ev1", ranked[0].EventID)
	assert.Equal(t, types.RerankStrategyRRF, stats.Strategy)
}

func TestRunRRF_NoEntitiesYieldsEmptyResult(t *testing.T) {
	store := fixture()
	cfg := baseConfig()
	tr := tracker.New()

	ranked, _, err := rerank.RunRRF(context.Background(), cfg, tr, queryNode(tr), nil, store, store)
	require.NoError(t, err)
	assert.Empty(t, ranked)
}

func queryNode(tr *tracker.Tracker) types.EndpointNode {
	return tr.MustGetOrCreateNode(types.NodeQuery, "q1", "origin", "gopher tunnels", "")
}
