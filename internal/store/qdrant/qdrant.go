// Package qdrant implements dense-vector KNN (spec §3.2) against a Qdrant
// collection per vector index (entity_vectors, event_vectors,
// article_sections), following the teacher's qdrant repository shape
// (internal/application/repository/retriever/qdrant/structs.go): a thin
// struct wrapping *qdrant.Client plus per-collection point payloads.
package qdrant

import (
	"context"

	"github.com/qdrant/go-client/qdrant"

	"github.com/Tencent/kgsearch/internal/apperr"
	"github.com/Tencent/kgsearch/internal/store"
)

// Collection names, one per vector index declared in spec §3.2.
const (
	CollectionEntityVectors   = "entity_vectors"
	CollectionEventVectors    = "event_vectors"
	CollectionArticleSections = "article_sections"
)

// Store implements the Search*ByVector half of the store contracts.
type Store struct {
	client             *qdrant.Client
	collectionBaseName string
}

// New wraps an already-connected Qdrant client.
func New(client *qdrant.Client, collectionBaseName string) *Store {
	return &Store{client: client, collectionBaseName: collectionBaseName}
}

func (s *Store) collection(name string) string {
	if s.collectionBaseName == "" {
		return name
	}
	return s.collectionBaseName + "_" + name
}

func sourceFilter(sourceConfigIDs []string) *qdrant.Filter {
	if len(sourceConfigIDs) == 0 {
		return nil
	}
	values := make([]string, len(sourceConfigIDs))
	copy(values, sourceConfigIDs)
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatchKeywords("source_config_id", values...),
		},
	}
}

// SearchEntitiesByVector queries the entity_vectors collection, optionally
// filtering to one entity type (spec §3.2, §4.2).
func (s *Store) SearchEntitiesByVector(ctx context.Context, queryVec []float32, sourceConfigIDs []string,
	k, numCandidates int, entityType string,
) ([]store.EntityCandidate, error) {
	filter := sourceFilter(sourceConfigIDs)
	if entityType != "" {
		if filter == nil {
			filter = &qdrant.Filter{}
		}
		filter.Must = append(filter.Must, qdrant.NewMatch("type", entityType))
	}
	ef := uint64(numCandidates)
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection(CollectionEntityVectors),
		Query:          qdrant.NewQuery(queryVec...),
		Filter:         filter,
		Limit:          qptr(uint64(k)),
		Params:         &qdrant.SearchParams{HnswEf: &ef},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, apperr.StoreTransport("qdrant search_entities_by_vector", err)
	}
	out := make([]store.EntityCandidate, 0, len(points))
	for _, p := range points {
		payload := p.GetPayload()
		out = append(out, store.EntityCandidate{
			EntityID:   p.GetId().GetUuid(),
			Name:       stringField(payload, "name"),
			Type:       stringField(payload, "type"),
			Similarity: clamp01(float64(p.GetScore())),
		})
	}
	return out, nil
}

// SearchEventsByVector queries event_vectors using either the title or
// content vector field, selected by a named vector (spec §3.2).
func (s *Store) SearchEventsByVector(ctx context.Context, queryVec []float32, sourceConfigIDs []string,
	k int, useContentVector bool,
) ([]store.EventCandidate, error) {
	vectorName := "title_vector"
	if useContentVector {
		vectorName = "content_vector"
	}
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection(CollectionEventVectors),
		Query:          qdrant.NewQuery(queryVec...),
		Using:          qptrStr(vectorName),
		Filter:         sourceFilter(sourceConfigIDs),
		Limit:          qptr(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, apperr.StoreTransport("qdrant search_events_by_vector", err)
	}
	out := make([]store.EventCandidate, 0, len(points))
	for _, p := range points {
		payload := p.GetPayload()
		out = append(out, store.EventCandidate{
			EventID:    p.GetId().GetUuid(),
			Similarity: clamp01(float64(p.GetScore())),
			ArticleID:  stringField(payload, "article_id"),
			Title:      stringField(payload, "title"),
			Content:    stringField(payload, "content"),
			Category:   stringField(payload, "category"),
		})
	}
	return out, nil
}

// SearchSectionsByVector queries article_sections by content_vector,
// optionally scoped to one article (spec §4.2).
func (s *Store) SearchSectionsByVector(ctx context.Context, queryVec []float32, sourceConfigIDs []string,
	k int, articleID string,
) ([]store.SectionCandidate, error) {
	filter := sourceFilter(sourceConfigIDs)
	if articleID != "" {
		if filter == nil {
			filter = &qdrant.Filter{}
		}
		filter.Must = append(filter.Must, qdrant.NewMatch("article_id", articleID))
	}
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection(CollectionArticleSections),
		Query:          qdrant.NewQuery(queryVec...),
		Using:          qptrStr("content_vector"),
		Filter:         filter,
		Limit:          qptr(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, apperr.StoreTransport("qdrant search_sections_by_vector", err)
	}
	out := make([]store.SectionCandidate, 0, len(points))
	for _, p := range points {
		payload := p.GetPayload()
		out = append(out, store.SectionCandidate{
			SectionID:  p.GetId().GetUuid(),
			ArticleID:  stringField(payload, "article_id"),
			Similarity: clamp01(float64(p.GetScore())),
			Heading:    stringField(payload, "heading"),
			Content:    stringField(payload, "content"),
		})
	}
	return out, nil
}

// BatchGetEventVectors fetches stored content vectors by point ID, used by
// the RRF rerank stage's embedding ranking (spec §4.6 step 2).
func (s *Store) BatchGetEventVectors(ctx context.Context, eventIDs []string) (map[string][]float32, error) {
	if len(eventIDs) == 0 {
		return map[string][]float32{}, nil
	}
	ids := make([]*qdrant.PointId, len(eventIDs))
	for i, id := range eventIDs {
		ids[i] = qdrant.NewIDUUID(id)
	}
	points, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.collection(CollectionEventVectors),
		Ids:            ids,
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, apperr.StoreTransport("qdrant batch_get_event_vectors", err)
	}
	out := make(map[string][]float32, len(points))
	for _, p := range points {
		if v := p.GetVectors().GetVector(); v != nil {
			out[p.GetId().GetUuid()] = v.GetData()
		}
	}
	return out, nil
}

func stringField(payload map[string]*qdrant.Value, key string) string {
	if payload == nil {
		return ""
	}
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

func qptr(v uint64) *uint64    { return &v }
func qptrStr(v string) *string { return &v }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
