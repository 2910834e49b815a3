package pipeline

import (
	"context"

	"github.com/Tencent/kgsearch/internal/common"
	"github.com/Tencent/kgsearch/internal/models/chat"
	"github.com/Tencent/kgsearch/internal/models/embedding"
	"github.com/Tencent/kgsearch/internal/store"
	"github.com/Tencent/kgsearch/internal/tracker"
	"github.com/Tencent/kgsearch/internal/types"
)

// PluginQueryPrepare implements spec §4.3: optional LLM rewrite,
// embedding, and (outside fast mode) structured attribute extraction.
type PluginQueryPrepare struct {
	chat        chat.Chat
	embedder    embedding.Embedder
	entityStore store.EntityStore
}

// NewPluginQueryPrepare registers the Query Preparer with manager.
func NewPluginQueryPrepare(manager *EventManager, chatClient chat.Chat, embedder embedding.Embedder, entityStore store.EntityStore) *PluginQueryPrepare {
	p := &PluginQueryPrepare{chat: chatClient, embedder: embedder, entityStore: entityStore}
	manager.Register(p)
	return p
}

func (p *PluginQueryPrepare) ActivationEvents() []EventType {
	return []EventType{EventPrepare}
}

type rewriteOutput struct {
	Query string `json:"query"`
}

type attributeOutput struct {
	Attributes []types.ExtractedAttribute `json:"attributes"`
}

func (p *PluginQueryPrepare) OnEvent(ctx context.Context, eventType EventType, state *State, next func() *PluginError) *PluginError {
	cfg := state.Config
	cfg.Query = cfg.OriginalQuery

	common.PipelineInfo(ctx, "prepare", "input", map[string]any{
		"original_query":       cfg.OriginalQuery,
		"enable_query_rewrite": cfg.EnableQueryRewrite,
		"use_fast_mode":        cfg.Recall.UseFastMode,
	})

	if cfg.EnableQueryRewrite && p.chat != nil {
		rewritten, ok := p.rewrite(ctx, cfg)
		if ok && rewritten != "" {
			cfg.Query = rewritten
		}
	}

	queryNode := state.Tracker.BuildQueryNode(cfg.OriginalQuery, cfg.Query)
	state.QueryNode = queryNode
	if cfg.Query != cfg.OriginalQuery {
		originalNode := state.Tracker.MustGetOrCreateNode(types.NodeQuery, tracker.QueryNodeID(cfg.OriginalQuery), "origin", cfg.OriginalQuery, "")
		state.Tracker.AddClue(types.StagePrepare, originalNode, queryNode, 1.0, "query rewrite", nil, types.DisplayFinal)
	}

	embeddingGenerated := false
	if p.embedder != nil {
		vec, err := p.embedder.Embed(ctx, cfg.Query)
		if err != nil {
			common.PipelineWarn(ctx, "prepare", "embed_failed", map[string]any{"error": err.Error()})
		} else {
			cfg.QueryEmbedding = vec
			embeddingGenerated = true
		}
	}

	if !cfg.Recall.UseFastMode && p.chat != nil {
		p.extractAttributes(ctx, cfg, state, queryNode)
	}

	common.PipelineInfo(ctx, "prepare", "output", map[string]any{
		"query":                cfg.Query,
		"rewritten":            cfg.Query != cfg.OriginalQuery,
		"embedding_generated":  embeddingGenerated,
		"attributes_extracted": len(cfg.ExtractedAttributes),
	})

	return next()
}

func (p *PluginQueryPrepare) rewrite(ctx context.Context, cfg *types.SearchConfig) (string, bool) {
	messages := []chat.Message{
		{Role: "system", Content: "Rewrite the user query to remove ambiguity. Do not introduce facts not present in the query. Respond with JSON {\"query\": \"...\"}."},
	}
	if cfg.Background != "" {
		messages = append(messages, chat.Message{Role: "system", Content: "Background: " + cfg.Background})
	}
	for _, turn := range cfg.History {
		messages = append(messages, chat.Message{Role: "user", Content: turn.Query}, chat.Message{Role: "assistant", Content: turn.Answer})
	}
	messages = append(messages, chat.Message{Role: "user", Content: cfg.OriginalQuery})

	schema, err := chat.SchemaFor[rewriteOutput]()
	if err != nil {
		common.PipelineWarn(ctx, "prepare", "rewrite_schema_failed", map[string]any{"error": err.Error()})
		return "", false
	}
	var out rewriteOutput
	if err := p.chat.CompleteStructured(ctx, messages, schema, &out); err != nil {
		common.PipelineWarn(ctx, "prepare", "rewrite_failed", map[string]any{"error": err.Error()})
		return "", false
	}
	return out.Query, true
}

func (p *PluginQueryPrepare) extractAttributes(ctx context.Context, cfg *types.SearchConfig, state *State, queryNode types.EndpointNode) {
	entityTypes, err := p.entityStore.GetEntityTypes(ctx, cfg.SourceConfigIDs)
	if err != nil {
		common.PipelineWarn(ctx, "prepare", "get_entity_types_failed", map[string]any{"error": err.Error()})
		return
	}
	allowedTypes := make([]string, 0, len(entityTypes))
	for _, t := range entityTypes {
		allowedTypes = append(allowedTypes, t.Type)
	}

	messages := []chat.Message{
		{Role: "system", Content: "Extract entity hints from the query. Each attribute's type must be one of the allowed types. Respond with JSON {\"attributes\": [{\"name\":...,\"type\":...}]}."},
		{Role: "user", Content: cfg.Query},
	}
	schema, err := chat.SchemaFor[attributeOutput]()
	if err != nil {
		common.PipelineWarn(ctx, "prepare", "attribute_schema_failed", map[string]any{"error": err.Error()})
		return
	}
	var out attributeOutput
	if err := p.chat.CompleteStructured(ctx, messages, schema, &out); err != nil {
		common.PipelineWarn(ctx, "prepare", "attribute_extraction_failed", map[string]any{"error": err.Error()})
		return
	}

	allowed := toSet(allowedTypes)
	attrs := make([]types.ExtractedAttribute, 0, len(out.Attributes))
	for _, a := range out.Attributes {
		if _, ok := allowed[a.Type]; !ok {
			continue
		}
		if a.Weight == 0 {
			a.Weight = 1.0
		}
		attrs = append(attrs, a)

		entityNode := state.Tracker.MustGetOrCreateNode(types.NodeEntity, "candidate:"+a.Name, a.Type, a.Name, "")
		state.Tracker.AddClue(types.StagePrepare, queryNode, entityNode, 1.0, "attribute extraction",
			map[string]any{"type": a.Type}, types.DisplayIntermediate)
	}
	cfg.ExtractedAttributes = attrs
}

func toSet(ids []string) map[string]struct{} {
	s := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}
