// Package memory provides a deterministic in-memory implementation of the
// three store contracts (store.EntityStore, store.EventStore,
// store.SectionStore), used by the search pipeline's own tests the way the
// teacher's provider_test.go stubs out HTTP providers: no network, fully
// reproducible, and injectable through the same interfaces production code
// uses (spec §9 "Determinism in tests is achieved by injecting a stub
// oracle").
package memory

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/Tencent/kgsearch/internal/store"
	"github.com/Tencent/kgsearch/internal/types"
)

// Store is an in-memory fixture implementing EntityStore, EventStore, and
// SectionStore against a fixed corpus plus a caller-supplied similarity
// oracle, so tests can script exact recall/expand/rerank scenarios.
type Store struct {
	Entities     map[string]types.Entity
	EntityTypes  []types.EntityType
	Events       map[string]types.Event
	Sections     map[string]types.ArticleSection
	EntityEvent  []types.EntityEventLink // entity<->event join rows
	EventTokens  map[string][]string
	EventVectors map[string][]float32

	// Similarity oracles: tests set these to fixed maps so every stage's
	// behavior is fully reproducible (spec §9, spec §8.1 P9).
	QueryEntitySim  map[string]float64 // entity_id -> sim(query, entity)
	QueryEventSim   map[string]float64 // event_id -> sim(query, event)
	QuerySectionSim map[string]float64 // section_id -> sim(query, section)
}

// New returns an empty fixture ready for a test to populate.
func New() *Store {
	return &Store{
		Entities:        map[string]types.Entity{},
		Events:          map[string]types.Event{},
		Sections:        map[string]types.ArticleSection{},
		EventTokens:     map[string][]string{},
		EventVectors:    map[string][]float32{},
		QueryEntitySim:  map[string]float64{},
		QueryEventSim:   map[string]float64{},
		QuerySectionSim: map[string]float64{},
	}
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return len(haystack) == 0 // empty source filter list matches everything in tests
}

// SearchEntitiesByVector ranks all entities of the fixture by the query's
// similarity oracle, descending, filtered by source and optional type.
func (s *Store) SearchEntitiesByVector(ctx context.Context, _ []float32, sourceConfigIDs []string,
	k, numCandidates int, entityType string,
) ([]store.EntityCandidate, error) {
	var out []store.EntityCandidate
	for id, e := range s.Entities {
		if !contains(sourceConfigIDs, e.SourceConfigID) {
			continue
		}
		if entityType != "" && e.Type != entityType {
			continue
		}
		sim, ok := s.QueryEntitySim[id]
		if !ok {
			continue
		}
		out = append(out, store.EntityCandidate{
			EntityID: id, Name: e.Name, Type: e.Type, EntityTypeID: e.EntityTypeID,
			Similarity: clamp01(sim), Description: e.Description,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	return truncate(out, k), nil
}

// SearchEntitiesByName performs a case-insensitive substring match, falling
// back to the same similarity oracle for ranking (spec §4.2 "text match +
// optional per-type similarity override using name vectors").
func (s *Store) SearchEntitiesByName(ctx context.Context, name string, sourceConfigIDs []string,
	topK int,
) ([]store.EntityCandidate, error) {
	var out []store.EntityCandidate
	lower := strings.ToLower(name)
	for id, e := range s.Entities {
		if !contains(sourceConfigIDs, e.SourceConfigID) {
			continue
		}
		if !strings.Contains(strings.ToLower(e.Name), lower) {
			continue
		}
		sim := s.QueryEntitySim[id]
		out = append(out, store.EntityCandidate{
			EntityID: id, Name: e.Name, Type: e.Type, EntityTypeID: e.EntityTypeID,
			Similarity: clamp01(sim), Description: e.Description,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	return truncate(out, topK), nil
}

func (s *Store) GetEntityTypes(ctx context.Context, sourceConfigIDs []string) ([]store.EntityTypeRow, error) {
	var out []store.EntityTypeRow
	for _, et := range s.EntityTypes {
		if et.SourceConfigID != "" && !contains(sourceConfigIDs, et.SourceConfigID) {
			continue
		}
		out = append(out, store.EntityTypeRow{
			ID: et.ID, Type: et.Type, SimilarityThreshold: et.SimilarityThreshold, Weight: et.Weight,
		})
	}
	return out, nil
}

func (s *Store) GetEventsByEntityIDs(ctx context.Context, entityIDs, sourceConfigIDs []string,
) ([]store.EntityEventLink, error) {
	want := toSet(entityIDs)
	var out []store.EntityEventLink
	for _, link := range s.EntityEvent {
		if _, ok := want[link.EntityID]; !ok {
			continue
		}
		ev, ok := s.Events[link.EventID]
		if !ok || !contains(sourceConfigIDs, ev.SourceConfigID) {
			continue
		}
		out = append(out, store.EntityEventLink{EventID: link.EventID, EntityID: link.EntityID, LinkWeight: link.Weight})
	}
	return out, nil
}

func (s *Store) GetEntitiesByEventIDs(ctx context.Context, eventIDs, sourceConfigIDs []string,
) ([]store.EntityEventLink, error) {
	want := toSet(eventIDs)
	var out []store.EntityEventLink
	for _, link := range s.EntityEvent {
		if _, ok := want[link.EventID]; !ok {
			continue
		}
		e, ok := s.Entities[link.EntityID]
		if !ok || !contains(sourceConfigIDs, e.SourceConfigID) {
			continue
		}
		out = append(out, store.EntityEventLink{EventID: link.EventID, EntityID: link.EntityID, LinkWeight: link.Weight})
	}
	return out, nil
}

func (s *Store) SearchEventsByVector(ctx context.Context, _ []float32, sourceConfigIDs []string,
	k int, useContentVector bool,
) ([]store.EventCandidate, error) {
	var out []store.EventCandidate
	for id, ev := range s.Events {
		if !contains(sourceConfigIDs, ev.SourceConfigID) {
			continue
		}
		sim, ok := s.QueryEventSim[id]
		if !ok {
			continue
		}
		out = append(out, store.EventCandidate{
			EventID: id, Similarity: clamp01(sim), ArticleID: ev.ArticleID,
			Title: ev.Title, Content: ev.Content, Category: ev.Category,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	return truncate(out, k), nil
}

func (s *Store) BatchGetEvents(ctx context.Context, eventIDs []string) (map[string]*store.EventRecord, error) {
	out := make(map[string]*store.EventRecord, len(eventIDs))
	for _, id := range eventIDs {
		ev, ok := s.Events[id]
		if !ok {
			continue
		}
		out[id] = &store.EventRecord{
			ID: ev.ID, ArticleID: ev.ArticleID, Title: ev.Title, Summary: ev.Summary,
			Content: ev.Content, Category: ev.Category, References: ev.References,
		}
	}
	return out, nil
}

func (s *Store) BatchGetEventVectors(ctx context.Context, eventIDs []string) (map[string][]float32, error) {
	out := make(map[string][]float32, len(eventIDs))
	for _, id := range eventIDs {
		if v, ok := s.EventVectors[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (s *Store) BatchGetEventTokens(ctx context.Context, eventIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(eventIDs))
	for _, id := range eventIDs {
		if toks, ok := s.EventTokens[id]; ok {
			out[id] = toks
			continue
		}
		if ev, ok := s.Events[id]; ok {
			out[id] = strings.Fields(ev.Content)
		}
	}
	return out, nil
}

func (s *Store) SearchSectionsByVector(ctx context.Context, _ []float32, sourceConfigIDs []string,
	k int, articleID string,
) ([]store.SectionCandidate, error) {
	var out []store.SectionCandidate
	for id, sec := range s.Sections {
		sim, ok := s.QuerySectionSim[id]
		if !ok {
			continue
		}
		if articleID != "" && sec.ArticleID != articleID {
			continue
		}
		_ = sourceConfigIDs // sections in this fixture are not source-scoped individually
		out = append(out, store.SectionCandidate{
			SectionID: id, ArticleID: sec.ArticleID, Similarity: clamp01(sim),
			Heading: sec.Heading, Content: sec.Content, Rank: sec.Rank,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	return truncate(out, k), nil
}

func (s *Store) GetSectionsByEventIDs(ctx context.Context, eventIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(eventIDs))
	for _, id := range eventIDs {
		if ev, ok := s.Events[id]; ok {
			out[id] = ev.References
		}
	}
	return out, nil
}

func (s *Store) BatchGetSections(ctx context.Context, sectionIDs []string) (map[string]*store.SectionRecord, error) {
	out := make(map[string]*store.SectionRecord, len(sectionIDs))
	for _, id := range sectionIDs {
		if sec, ok := s.Sections[id]; ok {
			out[id] = &store.SectionRecord{ID: sec.ID, ArticleID: sec.ArticleID, Heading: sec.Heading, Content: sec.Content, Rank: sec.Rank}
		}
	}
	return out, nil
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func truncate[T any](items []T, n int) []T {
	if n <= 0 || n >= len(items) {
		return items
	}
	return items[:n]
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
