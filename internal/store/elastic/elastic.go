// Package elastic implements the full-text half of the store contracts
// (spec §4.2 "text match") against Elasticsearch: SearchEntitiesByName's
// name matching and the analyzed-token fetch BM25 reranking consumes
// (BatchGetEventTokens). It mirrors the teacher's go-elasticsearch/v8
// client usage: a raw JSON request body built with encoding/json, executed
// through esapi, decoded back into typed rows.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/Tencent/kgsearch/internal/apperr"
	"github.com/Tencent/kgsearch/internal/store"
)

// Store implements the text-search portion of store.EntityStore and
// store.EventStore.
type Store struct {
	client          *elasticsearch.Client
	entityIndex     string
	eventIndex      string
}

// New wraps an already-connected Elasticsearch client.
func New(client *elasticsearch.Client, entityIndex, eventIndex string) *Store {
	return &Store{client: client, entityIndex: entityIndex, eventIndex: eventIndex}
}

type matchQuery struct {
	Query struct {
		Bool struct {
			Must   []map[string]any `json:"must"`
			Filter []map[string]any `json:"filter,omitempty"`
		} `json:"bool"`
	} `json:"query"`
	Size int `json:"size"`
}

type entityHitSource struct {
	EntityID       string `json:"entity_id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	EntityTypeID   string `json:"entity_type_id"`
	Description    string `json:"description"`
	SourceConfigID string `json:"source_config_id"`
}

type esHit[T any] struct {
	Source T       `json:"_source"`
	Score  float64 `json:"_score"`
}

type esSearchResponse[T any] struct {
	Hits struct {
		MaxScore float64    `json:"max_score"`
		Hits     []esHit[T] `json:"hits"`
	} `json:"hits"`
}

// SearchEntitiesByName runs a `match` query over the entity name field,
// scoped to the requested sources, normalizing BM25 scores to [0,1] by
// dividing by the top hit's score (spec §3.4 invariant 6).
func (s *Store) SearchEntitiesByName(ctx context.Context, name string, sourceConfigIDs []string,
	topK int,
) ([]store.EntityCandidate, error) {
	body := matchQuery{Size: topK}
	body.Query.Bool.Must = []map[string]any{{"match": map[string]any{"name": name}}}
	body.Query.Bool.Filter = []map[string]any{{"terms": map[string]any{"source_config_id": sourceConfigIDs}}}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, apperr.StoreTransport("encode search_entities_by_name request", err)
	}

	res, err := esapi.SearchRequest{Index: []string{s.entityIndex}, Body: &buf}.Do(ctx, s.client)
	if err != nil {
		return nil, apperr.StoreTransport("search_entities_by_name", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, apperr.StoreTransport("search_entities_by_name", fmt.Errorf("elasticsearch status %s", res.Status()))
	}

	var parsed esSearchResponse[entityHitSource]
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperr.StoreTransport("decode search_entities_by_name response", err)
	}

	top := parsed.Hits.MaxScore
	out := make([]store.EntityCandidate, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		sim := 0.0
		if top > 0 {
			sim = hit.Score / top
		}
		out = append(out, store.EntityCandidate{
			EntityID: hit.Source.EntityID, Name: hit.Source.Name, Type: hit.Source.Type,
			EntityTypeID: hit.Source.EntityTypeID, Description: hit.Source.Description,
			Similarity: clamp01(sim),
		})
	}
	return out, nil
}

type eventTokenSource struct {
	EventID      string `json:"event_id"`
	AnalyzedText string `json:"content_analyzed"`
}

// BatchGetEventTokens fetches the already-analyzed (tokenized) event
// content stored in each document's content_analyzed field and splits it
// on whitespace, used by the RRF stage's
// BM25 ranking (spec §4.2, §4.6). Missing IDs are silently absent.
func (s *Store) BatchGetEventTokens(ctx context.Context, eventIDs []string) (map[string][]string, error) {
	if len(eventIDs) == 0 {
		return map[string][]string{}, nil
	}
	body := map[string]any{
		"query": map[string]any{"ids": map[string]any{"values": eventIDs}},
		"size":  len(eventIDs),
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, apperr.StoreTransport("encode batch_get_event_tokens request", err)
	}
	res, err := esapi.SearchRequest{Index: []string{s.eventIndex}, Body: &buf}.Do(ctx, s.client)
	if err != nil {
		return nil, apperr.StoreTransport("batch_get_event_tokens", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, apperr.StoreTransport("batch_get_event_tokens", fmt.Errorf("elasticsearch status %s", res.Status()))
	}
	var parsed esSearchResponse[eventTokenSource]
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperr.StoreTransport("decode batch_get_event_tokens response", err)
	}
	out := make(map[string][]string, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		out[hit.Source.EventID] = strings.Fields(hit.Source.AnalyzedText)
	}
	return out, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
