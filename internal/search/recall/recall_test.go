package recall_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tencent/kgsearch/internal/search/recall"
	"github.com/Tencent/kgsearch/internal/store/memory"
	"github.com/Tencent/kgsearch/internal/tracker"
	"github.com/Tencent/kgsearch/internal/types"
)

// fixture builds a two-entity, one-event corpus where "gopher" is a strong
// match for both the query and an event, and "raccoon" is a weak, unrelated
// match that should be pruned by the similarity threshold.
func fixture() *memory.Store {
	s := memory.New()
	s.Entities["e_gopher"] = types.Entity{ID: "e_gopher", SourceConfigID: "src1", Type: "animal", Name: "gopher"}
	s.Entities["e_raccoon"] = types.Entity{ID: "e_raccoon", SourceConfigID: "src1", Type: "animal", Name: "raccoon"}
	s.Events["ev1"] = types.Event{ID: "ev1", SourceConfigID: "src1", ArticleID: "a1", Title: "Gopher tunnels"}
	s.EntityEvent = append(s.EntityEvent, types.EntityEventLink{EventID: "ev1", EntityID: "e_gopher", Weight: 1})

	s.QueryEntitySim["e_gopher"] = 0.9
	s.QueryEntitySim["e_raccoon"] = 0.1
	s.QueryEventSim["ev1"] = 0.8
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

func TestRun_KeepsStrongMatchDropsWeakMatch(t *testing.T) {
	store := fixture()
	cfg := baseConfig()
	tr := tracker.New()
	qNode := tr.MustGetOrCreateNode(types.NodeQuery, "q1", "origin", cfg.Query, "")

	result, err := recall.Run(context.Background(), cfg, tr, qNode, store, store)
	require.NoError(t, err)

	ids := make([]string, 0, len(result.Entities))
	for _, e := range result.Entities {
		ids = append(ids, e.EntityID)
	}
	assert.Contains(t, ids, "e_gopher")
	assert.NotContains(t, ids, "e_raccoon")
	assert.Equal(t, 2, result.Stats.EntitiesFound)
}

func TestRun_DisabledReturnsEmptyResult(t *testing.T) {
	store := fixture()
	cfg := baseConfig()
	cfg.Recall.Enabled = false
	tr := tracker.New()
	qNode := tr.MustGetOrCreateNode(types.NodeQuery, "q1", "origin", cfg.Query, "")

	result, err := recall.Run(context.Background(), cfg, tr, qNode, store, store)
	require.NoError(t, err)
	assert.Empty(t, result.Entities)
}

func TestRun_NoCandidatesAboveThresholdYieldsEmptyPassed(t *testing.T) {
	store := memory.New()
	store.Entities["e1"] = types.Entity{ID: "e1", SourceConfigID: "src1", Type: "animal", Name: "x"}
	store.QueryEntitySim["e1"] = 0.01

	cfg := baseConfig()
	tr := tracker.New()
	qNode := tr.MustGetOrCreateNode(types.NodeQuery, "q1", "origin", cfg.Query, "")

	result, err := recall.Run(context.Background(), cfg, tr, qNode, store, store)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Stats.EntitiesPassed)
}
