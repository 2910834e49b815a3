// Package pipeline composes the Query Preparer, Recall, Expand, and Rerank
// stages as an event-driven chain of responsibility, following the
// teacher's chat_pipline package: plugins register for the event types they
// handle, and an EventManager triggers each stage's chain in order.
package pipeline

import (
	"context"
	"fmt"

	"github.com/Tencent/kgsearch/internal/tracker"
	"github.com/Tencent/kgsearch/internal/types"
)

// EventType enumerates the pipeline stages a Plugin can activate on.
type EventType string

const (
	EventPrepare EventType = "prepare"
	EventRecall  EventType = "recall"
	EventExpand  EventType = "expand"
	EventRerank  EventType = "rerank"
)

// PluginError carries a stage-scoped error through the OnEvent chain. A nil
// *PluginError means the chain continues without incident.
type PluginError struct {
	Stage   string
	Message string
	Err     error
}

func (e *PluginError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func (e *PluginError) Unwrap() error { return e.Err }

// WithError returns a copy of e carrying the underlying cause.
func (e *PluginError) WithError(err error) *PluginError {
	return &PluginError{Stage: e.Stage, Message: e.Message, Err: err}
}

// Plugin is one unit of pipeline work, activated on the event types it
// declares and chained via next().
type Plugin interface {
	ActivationEvents() []EventType
	OnEvent(ctx context.Context, eventType EventType, state *State, next func() *PluginError) *PluginError
}

// State is the mutable record threaded through one search call's pipeline,
// analogous to the teacher's *types.ChatManage for the chat pipeline.
type State struct {
	Config    *types.SearchConfig
	Tracker   *tracker.Tracker
	QueryNode types.EndpointNode

	Recall RecallOutcome
	Expand ExpandOutcome
	Rerank RerankOutcome
}

// RecallOutcome, ExpandOutcome, and RerankOutcome are filled in by their
// respective plugins and read by the next stage in the chain.
type RecallOutcome struct {
	Entities []types.WeightedEntity
	Stats    types.RecallStats
}

type ExpandOutcome struct {
	Entities []types.WeightedEntity
	Stats    types.ExpandStats
}

type RerankOutcome struct {
	EventIDs   []string
	SectionIDs []string
	Stats      types.RerankStats
}

// EventManager registers plugins per event type and triggers their chain in
// registration order (spec §5 "Stages themselves are strictly ordered").
type EventManager struct {
	plugins map[EventType][]Plugin
}

// NewEventManager creates an empty manager.
func NewEventManager() *EventManager {
	return &EventManager{plugins: make(map[EventType][]Plugin)}
}

// Register adds a plugin to every event type it activates on.
func (m *EventManager) Register(p Plugin) {
	for _, et := range p.ActivationEvents() {
		m.plugins[et] = append(m.plugins[et], p)
	}
}

// Trigger runs the chain of plugins registered for eventType, each calling
// next() to continue. The terminal next() (past the last plugin) is a no-op
// returning nil.
func (m *EventManager) Trigger(ctx context.Context, eventType EventType, state *State) *PluginError {
	chain := m.plugins[eventType]
	return runChain(ctx, eventType, chain, 0, state)
}

func runChain(ctx context.Context, eventType EventType, chain []Plugin, i int, state *State) *PluginError {
	if i >= len(chain) {
		return nil
	}
	return chain[i].OnEvent(ctx, eventType, state, func() *PluginError {
		return runChain(ctx, eventType, chain, i+1, state)
	})
}
