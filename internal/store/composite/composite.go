// Package composite joins the three backend-specific store implementations
// (postgres for SQL joins and hydration, qdrant for dense-vector KNN,
// elastic for name/token text search) into the single EntityStore,
// EventStore, and SectionStore contracts the search core depends on (spec
// §4.2: "store-agnostic... the core never knows which backend answered").
// Each backend only ever implements the methods it is actually good at;
// this package is the seam where they are recombined. internal/container
// plugs the backends into these structs, so the search stages see only the
// three contracts and never the three-way split.
package composite

import (
	"context"

	"github.com/Tencent/kgsearch/internal/store"
)

// entityVectorSearcher, entityNameSearcher, and entityJoinStore factor the
// EntityStore contract into the three capability slices the backends each
// cover, so Entities can be constructed from any combination of
// implementers (useful in tests, which often stub just one).
type entityVectorSearcher interface {
	SearchEntitiesByVector(ctx context.Context, queryVec []float32, sourceConfigIDs []string,
		k, numCandidates int, entityType string) ([]store.EntityCandidate, error)
}

type entityNameSearcher interface {
	SearchEntitiesByName(ctx context.Context, name string, sourceConfigIDs []string,
		topK int) ([]store.EntityCandidate, error)
}

type entityJoinStore interface {
	GetEntityTypes(ctx context.Context, sourceConfigIDs []string) ([]store.EntityTypeRow, error)
	GetEventsByEntityIDs(ctx context.Context, entityIDs, sourceConfigIDs []string) ([]store.EntityEventLink, error)
	GetEntitiesByEventIDs(ctx context.Context, eventIDs, sourceConfigIDs []string) ([]store.EntityEventLink, error)
}

// Entities composes an EntityStore from a vector backend (qdrant), a text
// backend (elastic), and a SQL join backend (postgres).
type Entities struct {
	Vector entityVectorSearcher
	Name   entityNameSearcher
	Join   entityJoinStore
}

func (e *Entities) SearchEntitiesByVector(ctx context.Context, queryVec []float32, sourceConfigIDs []string,
	k, numCandidates int, entityType string,
) ([]store.EntityCandidate, error) {
	return e.Vector.SearchEntitiesByVector(ctx, queryVec, sourceConfigIDs, k, numCandidates, entityType)
}

func (e *Entities) SearchEntitiesByName(ctx context.Context, name string, sourceConfigIDs []string,
	topK int,
) ([]store.EntityCandidate, error) {
	return e.Name.SearchEntitiesByName(ctx, name, sourceConfigIDs, topK)
}

func (e *Entities) GetEntityTypes(ctx context.Context, sourceConfigIDs []string) ([]store.EntityTypeRow, error) {
	return e.Join.GetEntityTypes(ctx, sourceConfigIDs)
}

func (e *Entities) GetEventsByEntityIDs(ctx context.Context, entityIDs, sourceConfigIDs []string,
) ([]store.EntityEventLink, error) {
	return e.Join.GetEventsByEntityIDs(ctx, entityIDs, sourceConfigIDs)
}

func (e *Entities) GetEntitiesByEventIDs(ctx context.Context, eventIDs, sourceConfigIDs []string,
) ([]store.EntityEventLink, error) {
	return e.Join.GetEntitiesByEventIDs(ctx, eventIDs, sourceConfigIDs)
}

type eventVectorSearcher interface {
	SearchEventsByVector(ctx context.Context, queryVec []float32, sourceConfigIDs []string,
		k int, useContentVector bool) ([]store.EventCandidate, error)
	BatchGetEventVectors(ctx context.Context, eventIDs []string) (map[string][]float32, error)
}

type eventHydrateStore interface {
	BatchGetEvents(ctx context.Context, eventIDs []string) (map[string]*store.EventRecord, error)
}

type eventTokenStore interface {
	BatchGetEventTokens(ctx context.Context, eventIDs []string) (map[string][]string, error)
}

// Events composes an EventStore from a vector backend (qdrant), a
// hydration backend (postgres), and a token backend (elastic).
type Events struct {
	Vector   eventVectorSearcher
	Hydrate  eventHydrateStore
	Tokens   eventTokenStore
}

func (e *Events) SearchEventsByVector(ctx context.Context, queryVec []float32, sourceConfigIDs []string,
	k int, useContentVector bool,
) ([]store.EventCandidate, error) {
	return e.Vector.SearchEventsByVector(ctx, queryVec, sourceConfigIDs, k, useContentVector)
}

func (e *Events) BatchGetEventVectors(ctx context.Context, eventIDs []string) (map[string][]float32, error) {
	return e.Vector.BatchGetEventVectors(ctx, eventIDs)
}

func (e *Events) BatchGetEvents(ctx context.Context, eventIDs []string) (map[string]*store.EventRecord, error) {
	return e.Hydrate.BatchGetEvents(ctx, eventIDs)
}

func (e *Events) BatchGetEventTokens(ctx context.Context, eventIDs []string) (map[string][]string, error) {
	return e.Tokens.BatchGetEventTokens(ctx, eventIDs)
}

type sectionVectorSearcher interface {
	SearchSectionsByVector(ctx context.Context, queryVec []float32, sourceConfigIDs []string,
		k int, articleID string) ([]store.SectionCandidate, error)
}

type sectionHydrateStore interface {
	GetSectionsByEventIDs(ctx context.Context, eventIDs []string) (map[string][]string, error)
	BatchGetSections(ctx context.Context, sectionIDs []string) (map[string]*store.SectionRecord, error)
}

// Sections composes a SectionStore from a vector backend (qdrant) and a
// hydration backend (postgres).
type Sections struct {
	Vector  sectionVectorSearcher
	Hydrate sectionHydrateStore
}

func (s *Sections) SearchSectionsByVector(ctx context.Context, queryVec []float32, sourceConfigIDs []string,
	k int, articleID string,
) ([]store.SectionCandidate, error) {
	return s.Vector.SearchSectionsByVector(ctx, queryVec, sourceConfigIDs, k, articleID)
}

func (s *Sections) GetSectionsByEventIDs(ctx context.Context, eventIDs []string) (map[string][]string, error) {
	return s.Hydrate.GetSectionsByEventIDs(ctx, eventIDs)
}

func (s *Sections) BatchGetSections(ctx context.Context, sectionIDs []string) (map[string]*store.SectionRecord, error) {
	return s.Hydrate.BatchGetSections(ctx, sectionIDs)
}
