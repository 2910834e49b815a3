package search_test

import (
	"context"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tencent/kgsearch/internal/models/chat"
	"github.com/Tencent/kgsearch/internal/search"
	"github.com/Tencent/kgsearch/internal/search/pipeline"
	"github.com/Tencent/kgsearch/internal/store/memory"
	"github.com/Tencent/kgsearch/internal/types"
)

// stubEmbedder returns a fixed unit vector regardless of input, so recall's
// vector search runs against memory.Store's similarity oracles rather than
// a real embedding space.
type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

// noRewriteChat never rewrites, matching EnableQueryRewrite defaulting to
// false in types.NewSearchConfig — it exists only so PluginQueryPrepare has
// a non-nil chat.Chat to hold.
type noRewriteChat struct{}

func (noRewriteChat) Complete(ctx context.Context, messages []chat.Message) (string, error) {
	return "", nil
}

func (noRewriteChat) CompleteStructured(ctx context.Context, messages []chat.Message, schema *jsonschema.Schema, out any) error {
	return nil
}

func fixture() *memory.Store {
	s := memory.New()
	s.Entities["e_gopher"] = types.Entity{ID: "e_gopher", SourceConfigID: "src1", Type: "animal", Name: "gopher"}
	s.Events["ev1"] = types.Event{ID: "ev1", SourceConfigID: "src1", ArticleID: "a1", Title: "Gopher tunnels", Content: "gophers dig tunnels"}
	s.EntityEvent = append(s.EntityEvent, types.EntityEventLink{EventID: "ev1", EntityID: "e_gopher", Weight: 1})
	s.EventTokens["ev1"] = []string{"gopher", "tunnels"}
	s.QueryEntitySim["e_gopher"] = 0.9
	s.QueryEventSim["ev1"] = 0.8
	return s
}

func buildSearcher(store *memory.Store) *search.Searcher {
	manager := pipeline.NewEventManager()
	pipeline.NewPluginQueryPrepare(manager, noRewriteChat{}, stubEmbedder{}, store)
	pipeline.NewPluginRecall(manager, store, store)
	pipeline.NewPluginExpand(manager, store, store)
	pipeline.NewPluginRerank(manager, store, store, store)
	return search.New(manager, store, store, store)
}

func TestSearch_EndToEndReturnsEventsAndClues(t *testing.T) {
	store := fixture()
	searcher := buildSearcher(store)

	cfg := types.NewSearchConfig()
	cfg.OriginalQuery = "gopher tunnels"
	cfg.Query = cfg.OriginalQuery
	cfg.SourceConfigIDs = []string{"src1"}

	result, err := searcher.Search(context.Background(), cfg)
	require.NoError(t, err)

	assert.NotEmpty(t, result.Events)
	assert.NotEmpty(t, result.Clues)
	assert.True(t, result.Query.EmbeddingGenerated)
}

func TestSearch_RejectsMissingSourceConfigIDs(t *testing.T) {
	store := fixture()
	searcher := buildSearcher(store)

	cfg := types.NewSearchConfig()
	cfg.OriginalQuery = "gopher tunnels"
	cfg.Query = cfg.OriginalQuery

	_, err := searcher.Search(context.Background(), cfg)
	assert.Error(t, err)
}
