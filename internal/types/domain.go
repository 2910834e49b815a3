// Package types holds the data model shared across the search core: the
// persistent records the stores hydrate, and the runtime records a single
// search call creates and discards.
package types

import "time"

// InformationSource scopes every other record. The core never creates or
// mutates one; it only filters queries by SourceConfigID.
type InformationSource struct {
	SourceConfigID string `json:"source_config_id"`
}

// Event is a structured record extracted from an article. One event belongs
// to exactly one source and one article.
type Event struct {
	ID             string         `json:"id"`
	SourceConfigID string         `json:"source_config_id"`
	ArticleID      string         `json:"article_id"`
	Title          string         `json:"title"`
	Summary        string         `json:"summary,omitempty"`
	Content        string         `json:"content"`
	Rank           int            `json:"rank"`
	References     []string       `json:"references"` // ordered section IDs
	StartTime      *time.Time     `json:"start_time,omitempty"`
	EndTime        *time.Time     `json:"end_time,omitempty"`
	Category       string         `json:"category,omitempty"`
	ExtraData      map[string]any `json:"extra_data,omitempty"`
}

// Entity is a named thing extracted from one or more articles.
type Entity struct {
	ID             string         `json:"id"`
	SourceConfigID string         `json:"source_config_id"`
	EntityTypeID   string         `json:"entity_type_id"`
	Type           string         `json:"type"` // denormalized EntityType.Type
	Name           string         `json:"name"`
	NormalizedName string         `json:"normalized_name"`
	Description    string         `json:"description,omitempty"`
	ExtraData      map[string]any `json:"extra_data,omitempty"`
}

// EntityEventLink is the many-to-many join record between Entity and Event.
type EntityEventLink struct {
	EventID  string  `json:"event_id"`
	EntityID string  `json:"entity_id"`
	Weight   float64 `json:"weight"` // in [0, 9.99]
}

// EntityType is a configuration row, not a subclass: adding a type is a data
// change, not a code change. SourceConfigID nil/empty means system default.
type EntityType struct {
	ID                  string  `json:"id"`
	SourceConfigID      string  `json:"source_config_id,omitempty"`
	Type                string  `json:"type"`
	Name                string  `json:"name"`
	Weight              float64 `json:"weight"`
	SimilarityThreshold float64 `json:"similarity_threshold"` // in [0,1]
}

// ArticleSection is one heading-scoped slice of an article's content.
type ArticleSection struct {
	ID        string `json:"id"`
	ArticleID string `json:"article_id"`
	Rank      int    `json:"rank"`
	Heading   string `json:"heading"`
	Content   string `json:"content"`
}

// ReturnType selects whether a search response carries events or sections.
type ReturnType string

const (
	ReturnTypeEvent   ReturnType = "event"
	ReturnTypeSection ReturnType = "section"
)

// RerankStrategy selects which Rerank stage implementation runs.
type RerankStrategy string

const (
	RerankStrategyRRF      RerankStrategy = "rrf"
	RerankStrategyPageRank RerankStrategy = "pagerank"
)
