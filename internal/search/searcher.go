// Package search exposes the Searcher facade (spec §4.8): the single
// asynchronous operation that composes Query Preparer, Recall, Expand, and
// Rerank into one `search(config) -> SearchResult` call.
package search

import (
	"context"

	"go.opentelemetry.io/otel"

	"github.com/Tencent/kgsearch/internal/apperr"
	"github.com/Tencent/kgsearch/internal/common"
	"github.com/Tencent/kgsearch/internal/search/pipeline"
	"github.com/Tencent/kgsearch/internal/store"
	"github.com/Tencent/kgsearch/internal/tracker"
	"github.com/Tencent/kgsearch/internal/types"
)

var searchTracer = otel.Tracer("github.com/Tencent/kgsearch/internal/search")

// Searcher composes the pipeline stages registered on an EventManager.
type Searcher struct {
	manager     *pipeline.EventManager
	entityStore store.EntityStore
	eventStore  store.EventStore
	sectionStore store.SectionStore
}

// New builds a Searcher over an already-wired EventManager (plugins
// registered by internal/container's wiring, spec's component
// composition happening once at startup, not per call).
func New(manager *pipeline.EventManager, entityStore store.EntityStore, eventStore store.EventStore, sectionStore store.SectionStore) *Searcher {
	return &Searcher{manager: manager, entityStore: entityStore, eventStore: eventStore, sectionStore: sectionStore}
}

// Search runs one pipeline call end to end (spec §4.8). Each Searcher.Search
// call is independent: a fresh Tracker and SearchConfig runtime state, no
// shared mutable state across concurrent calls (spec §5).
func (s *Searcher) Search(ctx context.Context, cfg *types.SearchConfig) (*types.SearchResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, apperr.Configuration(err.Error())
	}

	ctx, span := searchTracer.Start(ctx, "search")
	defer span.End()

	ctx, warnings := common.NewWarningContext(ctx)

	tr := tracker.New()
	state := &pipeline.State{Config: cfg}
	state.Tracker = tr

	stages := []pipeline.EventType{pipeline.EventPrepare, pipeline.EventRecall, pipeline.EventExpand, pipeline.EventRerank}
	for _, stage := range stages {
		if ctx.Err() != nil {
			return nil, apperr.Timeout(string(stage))
		}
		if pe := s.trigger(ctx, stage, state); pe != nil {
			return nil, apperr.SearchFailure(pe)
		}
	}

	result := &types.SearchResult{
		Clues: tr.Clues(),
		Stats: types.SearchStats{
			Recall:   state.Recall.Stats,
			Expand:   state.Expand.Stats,
			Rerank:   state.Rerank.Stats,
			Warnings: warnings.Messages(),
		},
		Query: types.QueryInfo{
			Original:           cfg.OriginalQuery,
			Current:            cfg.Query,
			Rewritten:          cfg.Query != cfg.OriginalQuery,
			EmbeddingGenerated: len(cfg.QueryEmbedding) > 0,
		},
	}

	if cfg.ReturnType == types.ReturnTypeSection {
		sections, err := s.hydrateSections(ctx, state.Rerank.SectionIDs)
		if err != nil {
			return nil, err
		}
		result.Sections = sections
	} else {
		events, err := s.hydrateEvents(ctx, state.Rerank.EventIDs)
		if err != nil {
			return nil, err
		}
		result.Events = events
	}

	return result, nil
}

func (s *Searcher) trigger(ctx context.Context, event pipeline.EventType, state *pipeline.State) *pipeline.PluginError {
	_, span := searchTracer.Start(ctx, string(event))
	defer span.End()
	return s.manager.Trigger(ctx, event, state)
}

// hydrateEvents preserves rerank order (spec §5 "Event ordering in the
// response is the rerank stage's final ordering"), ties already broken by
// event_id ascending inside the rerank stages.
func (s *Searcher) hydrateEvents(ctx context.Context, eventIDs []string) ([]*types.Event, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}
	records, err := s.eventStore.BatchGetEvents(ctx, eventIDs)
	if err != nil {
		return nil, apperr.StoreTransport("batch_get_events", err)
	}
	out := make([]*types.Event, 0, len(eventIDs))
	for _, id := range eventIDs {
		r, ok := records[id]
		if !ok {
			continue
		}
		out = append(out, &types.Event{
			ID: r.ID, ArticleID: r.ArticleID, Title: r.Title, Summary: r.Summary,
			Content: r.Content, Category: r.Category, References: r.References,
		})
	}
	return out, nil
}

func (s *Searcher) hydrateSections(ctx context.Context, sectionIDs []string) ([]*types.ArticleSection, error) {
	if len(sectionIDs) == 0 {
		return nil, nil
	}
	records, err := s.sectionStore.BatchGetSections(ctx, sectionIDs)
	if err != nil {
		return nil, apperr.StoreTransport("batch_get_sections", err)
	}
	out := make([]*types.ArticleSection, 0, len(sectionIDs))
	for _, id := range sectionIDs {
		r, ok := records[id]
		if !ok {
			continue
		}
		out = append(out, &types.ArticleSection{ID: r.ID, ArticleID: r.ArticleID, Heading: r.Heading, Content: r.Content, Rank: r.Rank})
	}
	return out, nil
}
