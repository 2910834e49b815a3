package pipeline

import (
	"context"
	"time"

	"github.com/Tencent/kgsearch/internal/common"
	"github.com/Tencent/kgsearch/internal/search/rerank"
	"github.com/Tencent/kgsearch/internal/store"
	"github.com/Tencent/kgsearch/internal/types"
)

// PluginRerank implements spec §4.6/§4.7 as a single pipeline stage,
// dispatching to the RRF or PageRank strategy by config.rerank.strategy.
type PluginRerank struct {
	entityStore  store.EntityStore
	eventStore   store.EventStore
	sectionStore store.SectionStore
}

// NewPluginRerank registers the Rerank stage with manager.
func NewPluginRerank(manager *EventManager, entityStore store.EntityStore, eventStore store.EventStore, sectionStore store.SectionStore) *PluginRerank {
	p := &PluginRerank{entityStore: entityStore, eventStore: eventStore, sectionStore: sectionStore}
	manager.Register(p)
	return p
}

func (p *PluginRerank) ActivationEvents() []EventType { return []EventType{EventRerank} }

func (p *PluginRerank) OnEvent(ctx context.Context, eventType EventType, state *State, next func() *PluginError) *PluginError {
	start := time.Now()
	cfg := state.Config
	finalEntities := state.Expand.Entities

	common.PipelineInfo(ctx, "rerank", "input", map[string]any{
		"strategy":       cfg.Rerank.Strategy,
		"final_entities": len(finalEntities),
	})

	var eventIDs, sectionIDs []string
	var stats types.RerankStats
	var err error

	switch cfg.Rerank.Strategy {
	case types.RerankStrategyPageRank:
		var ranked []rerank.Ranked
		var rankedSections []rerank.RankedSection
		ranked, rankedSections, stats, err = rerank.RunPageRank(ctx, cfg, state.Tracker, state.QueryNode, finalEntities, p.entityStore, p.eventStore, p.sectionStore)
		eventIDs = eventIDsOf(ranked)
		sectionIDs = sectionIDsOf(rankedSections)
	default:
		var ranked []rerank.Ranked
		ranked, stats, err = rerank.RunRRF(ctx, cfg, state.Tracker, state.QueryNode, finalEntities, p.entityStore, p.eventStore)
		eventIDs = eventIDsOf(ranked)
	}
	if err != nil {
		return &PluginError{Stage: "rerank", Message: "rerank failed", Err: err}
	}

	stats.DurationMS = float64(time.Since(start).Microseconds()) / 1000.0
	state.Rerank = RerankOutcome{EventIDs: eventIDs, SectionIDs: sectionIDs, Stats: stats}

	common.PipelineInfo(ctx, "rerank", "output", map[string]any{
		"events_ranked": stats.EventsRanked,
	})

	return next()
}

func eventIDsOf(ranked []rerank.Ranked) []string {
	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.EventID
	}
	return ids
}

func sectionIDsOf(ranked []rerank.RankedSection) []string {
	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.SectionID
	}
	return ids
}
