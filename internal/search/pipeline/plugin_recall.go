package pipeline

import (
	"context"
	"time"

	"github.com/Tencent/kgsearch/internal/common"
	"github.com/Tencent/kgsearch/internal/search/recall"
	"github.com/Tencent/kgsearch/internal/store"
)

// PluginRecall implements spec §4.4 as a pipeline stage.
type PluginRecall struct {
	entityStore store.EntityStore
	eventStore  store.EventStore
}

// NewPluginRecall registers the Recall stage with manager.
func NewPluginRecall(manager *EventManager, entityStore store.EntityStore, eventStore store.EventStore) *PluginRecall {
	p := &PluginRecall{entityStore: entityStore, eventStore: eventStore}
	manager.Register(p)
	return p
}

func (p *PluginRecall) ActivationEvents() []EventType { return []EventType{EventRecall} }

func (p *PluginRecall) OnEvent(ctx context.Context, eventType EventType, state *State, next func() *PluginError) *PluginError {
	start := time.Now()
	common.PipelineInfo(ctx, "recall", "input", map[string]any{"query": state.Config.Query})

	result, err := recall.Run(ctx, state.Config, state.Tracker, state.QueryNode, p.entityStore, p.eventStore)
	if err != nil {
		return &PluginError{Stage: "recall", Message: "recall failed", Err: err}
	}

	result.Stats.DurationMS = float64(time.Since(start).Microseconds()) / 1000.0
	state.Recall = RecallOutcome{Entities: result.Entities, Stats: result.Stats}

	common.PipelineInfo(ctx, "recall", "output", map[string]any{
		"entities_found":  result.Stats.EntitiesFound,
		"entities_passed": result.Stats.EntitiesPassed,
	})

	return next()
}
