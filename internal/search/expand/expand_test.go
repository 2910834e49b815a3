package expand_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tencent/kgsearch/internal/search/expand"
	"github.com/Tencent/kgsearch/internal/store/memory"
	"github.com/Tencent/kgsearch/internal/tracker"
	"github.com/Tencent/kgsearch/internal/types"
)

func baseConfig() *types.SearchConfig {
	cfg := types.NewSearchConfig()
	cfg.OriginalQuery = "gopher tunnels"
	cfg.Query = cfg.OriginalQuery
	cfg.SourceConfigIDs = []string{"src1"}
	cfg.QueryEmbedding = []float32{1, 0, 0}
	return cfg
}

func TestRun_EmptySeedIsNoop(t *testing.T) {
	cfg := baseConfig()
	tr := tracker.New()
	qNode := tr.MustGetOrCreateNode(types.NodeQuery, "q1", "origin", cfg.Query, "")
	store := memory.New()

	final, stats, err := expand.Run(context.Background(), cfg, tr, qNode, nil, store, store)
	require.NoError(t, err)
	assert.Empty(t, final)
	assert.True(t, stats.Converged)
}

func TestRun_DisabledReturnsSeedUnchanged(t *testing.T) {
	cfg := baseConfig()
	cfg.Expand.Enabled = false
	tr := tracker.New()
	qNode := tr.MustGetOrCreateNode(types.NodeQuery, "q1", "origin", cfg.Query, "")
	store := memory.New()

	seed := []types.WeightedEntity{{EntityID: "e_gopher", Name: "gopher", Weight: 0.9}}
	final, stats, err := expand.Run(context.Background(), cfg, tr, qNode, seed, store, store)
	require.NoError(t, err)
	assert.Equal(t, seed, final)
	assert.True(t, stats.Converged)
}

func TestRun_DiscoversNeighborViaBridgingEvent(t *testing.T) {
	store := memory.New()
	store.Events["ev1"] = types.Event{ID: "ev1", SourceConfigID: "src1", ArticleID: "a1"}
	store.EntityEvent = append(store.EntityEvent,
		types.EntityEventLink{EventID: "ev1", EntityID: "e_gopher", Weight: 1},
		types.EntityEventLink{EventID: "ev1", EntityID: "e_raccoon", Weight: 1},
	)
	store.EventVectors["ev1"] = []float32{1, 0, 0}

	cfg := baseConfig()
	cfg.Expand.MinEventsPerHop = 1
	tr := tracker.New()
	qNode := tr.MustGetOrCreateNode(types.NodeQuery, "q1", "origin", cfg.Query, "")

	seed := []types.WeightedEntity{{EntityID: "e_gopher", Name: "gopher", Type: "animal", Weight: 0.9}}
	final, _, err := expand.Run(context.Background(), cfg, tr, qNode, seed, store, store)
	require.NoError(t, err)

	ids := make([]string, 0, len(final))
	for _, e := range final {
		ids = append(ids, e.EntityID)
	}
	assert.Contains(t, ids, "e_raccoon")

	var expandClue *types.Clue
	for _, c := range tr.Clues() {
		if c.Stage == types.StageExpand {
			cc := c
			expandClue = &cc
		}
	}
	require.NotNil(t, expandClue, "expected one expand clue for the newly discovered entity")
	assert.Equal(t, "e_gopher", expandClue.From.ID, "expand clue must run parent_entity -> child_entity, not query -> child")
	assert.Equal(t, "e_raccoon", expandClue.To.ID)
}

// TestRun_HopsExecutedCountsSpecHopLabel pins down the hops_executed
// interpretation: the loop's hop variable already is the spec's own hop
// label (recall's output is implicitly "hop 1"), so a single loop
// iteration that converges immediately reports hops_executed == 2, per
// spec §8.1 Scenario C.
func TestRun_HopsExecutedCountsSpecHopLabel(t *testing.T) {
	store := memory.New()
	store.Events["ev1"] = types.Event{ID: "ev1", SourceConfigID: "src1", ArticleID: "a1"}
	store.EntityEvent = append(store.EntityEvent,
		types.EntityEventLink{EventID: "ev1", EntityID: "e_gopher", Weight: 1},
	)
	// Below EventSimilarityThreshold so the hop contributes no weight at
	// all: total weight is unchanged, converging on the first iteration.
	store.EventVectors["ev1"] = []float32{0.01, 0.9999, 0}

	cfg := baseConfig()
	cfg.Expand.MinEventsPerHop = 1
	tr := tracker.New()
	qNode := tr.MustGetOrCreateNode(types.NodeQuery, "q1", "origin", cfg.Query, "")

	seed := []types.WeightedEntity{{EntityID: "e_gopher", Name: "gopher", Type: "animal", Weight: 10.0}}
	_, stats, err := expand.Run(context.Background(), cfg, tr, qNode, seed, store, store)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.HopsExecuted)
	assert.True(t, stats.Converged)
	assert.Equal(t, 0, stats.EntitiesDiscovered)
}
