package pipeline

import (
	"context"
	"time"

	"github.com/Tencent/kgsearch/internal/common"
	"github.com/Tencent/kgsearch/internal/search/expand"
	"github.com/Tencent/kgsearch/internal/store"
)

// PluginExpand implements spec §4.5 as a pipeline stage.
type PluginExpand struct {
	entityStore store.EntityStore
	eventStore  store.EventStore
}

// NewPluginExpand registers the Expand stage with manager.
func NewPluginExpand(manager *EventManager, entityStore store.EntityStore, eventStore store.EventStore) *PluginExpand {
	p := &PluginExpand{entityStore: entityStore, eventStore: eventStore}
	manager.Register(p)
	return p
}

func (p *PluginExpand) ActivationEvents() []EventType { return []EventType{EventExpand} }

func (p *PluginExpand) OnEvent(ctx context.Context, eventType EventType, state *State, next func() *PluginError) *PluginError {
	start := time.Now()
	common.PipelineInfo(ctx, "expand", "input", map[string]any{"recall_entities": len(state.Recall.Entities)})

	entities, stats, err := expand.Run(ctx, state.Config, state.Tracker, state.QueryNode, state.Recall.Entities, p.entityStore, p.eventStore)
	if err != nil {
		return &PluginError{Stage: "expand", Message: "expand failed", Err: err}
	}

	stats.DurationMS = float64(time.Since(start).Microseconds()) / 1000.0
	state.Expand = ExpandOutcome{Entities: entities, Stats: stats}

	common.PipelineInfo(ctx, "expand", "output", map[string]any{
		"hops_executed":       stats.HopsExecuted,
		"entities_discovered": stats.EntitiesDiscovered,
		"converged":           stats.Converged,
	})

	return next()
}
