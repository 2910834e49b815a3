// Package store declares the three adapter contracts the core consumes
// (spec §4.2). Concrete implementations route to SQL or to a vector/text
// index; the core is indifferent to which. All methods are asynchronous in
// spirit (accept a context, may be called concurrently) and batch calls
// return the same cardinality as their input IDs with missing IDs silently
// absent (spec §4.2 "no error").
package store

import "context"

// EntityCandidate is one hit from a semantic or name-based entity search.
type EntityCandidate struct {
	EntityID     string
	Name         string
	Type         string
	EntityTypeID string
	Similarity   float64 // in [0,1]
	Description  string
}

// EntityEventLink is one row of the entity<->event join.
type EntityEventLink struct {
	EventID    string
	EntityID   string
	LinkWeight float64
}

// EntityTypeRow is one entity_type configuration row (spec §3.1).
type EntityTypeRow struct {
	ID                  string
	Type                string
	SimilarityThreshold float64
	Weight              float64
}

// EntityStore implements the Entity Store adapter contract (spec §4.2).
type EntityStore interface {
	SearchEntitiesByVector(ctx context.Context, queryVec []float32, sourceConfigIDs []string,
		k, numCandidates int, entityType string) ([]EntityCandidate, error)
	SearchEntitiesByName(ctx context.Context, name string, sourceConfigIDs []string,
		topK int) ([]EntityCandidate, error)
	GetEntityTypes(ctx context.Context, sourceConfigIDs []string) ([]EntityTypeRow, error)
	GetEventsByEntityIDs(ctx context.Context, entityIDs, sourceConfigIDs []string) ([]EntityEventLink, error)
	GetEntitiesByEventIDs(ctx context.Context, eventIDs, sourceConfigIDs []string) ([]EntityEventLink, error)
}

// EventCandidate is one hit from a semantic event search.
type EventCandidate struct {
	EventID    string
	Similarity float64
	ArticleID  string
	Title      string
	Content    string
	Category   string
}

// EventStore implements the Event Store adapter contract (spec §4.2).
type EventStore interface {
	SearchEventsByVector(ctx context.Context, queryVec []float32, sourceConfigIDs []string,
		k int, useContentVector bool) ([]EventCandidate, error)
	BatchGetEvents(ctx context.Context, eventIDs []string) (map[string]*EventRecord, error)
	BatchGetEventVectors(ctx context.Context, eventIDs []string) (map[string][]float32, error)
	BatchGetEventTokens(ctx context.Context, eventIDs []string) (map[string][]string, error)
}

// EventRecord is a hydrated Event plus the fields the rerank stages need.
type EventRecord struct {
	ID         string
	ArticleID  string
	Title      string
	Summary    string
	Content    string
	Category   string
	References []string
}

// SectionCandidate is one hit from a semantic section search.
type SectionCandidate struct {
	SectionID  string
	ArticleID  string
	Similarity float64
	Heading    string
	Content    string
	Rank       int
}

// SectionStore implements the Section Store adapter contract (spec §4.2).
type SectionStore interface {
	SearchSectionsByVector(ctx context.Context, queryVec []float32, sourceConfigIDs []string,
		k int, articleID string) ([]SectionCandidate, error)
	GetSectionsByEventIDs(ctx context.Context, eventIDs []string) (map[string][]string, error)
	// BatchGetSections hydrates full section records by primary key, the
	// section-granularity analogue of EventStore.BatchGetEvents, needed to
	// materialize the final response when config.return_type == "section".
	BatchGetSections(ctx context.Context, sectionIDs []string) (map[string]*SectionRecord, error)
}

// SectionRecord is a hydrated ArticleSection.
type SectionRecord struct {
	ID        string
	ArticleID string
	Heading   string
	Content   string
	Rank      int
}
