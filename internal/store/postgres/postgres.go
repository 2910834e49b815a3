// Package postgres implements the SQL-join portions of the store contracts
// against the relational store (spec §3.1) using gorm, following the
// teacher's repository style (internal/application/repository/custom_agent.go):
// a thin struct wrapping *gorm.DB, one method per logical operation, errors
// wrapped rather than stringly-matched.
package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/Tencent/kgsearch/internal/apperr"
	"github.com/Tencent/kgsearch/internal/store"
	"github.com/Tencent/kgsearch/internal/store/postgres/sqlguard"
)

// entityRow, eventRow, sectionRow mirror the persistent schema (spec §3.1).
type entityRow struct {
	ID             string `gorm:"column:id"`
	SourceConfigID string `gorm:"column:source_config_id"`
	EntityTypeID   string `gorm:"column:entity_type_id"`
	Type           string `gorm:"column:type"`
	Name           string `gorm:"column:name"`
	Description    string `gorm:"column:description"`
}

type eventRow struct {
	ID             string `gorm:"column:id"`
	SourceConfigID string `gorm:"column:source_config_id"`
	ArticleID      string `gorm:"column:article_id"`
	Title          string `gorm:"column:title"`
	Summary        string `gorm:"column:summary"`
	Content        string `gorm:"column:content"`
	Category       string `gorm:"column:category"`
	References     string `gorm:"column:reference_section_ids"` // comma-joined, ordered
}

type entityEventLinkRow struct {
	EventID  string  `gorm:"column:event_id"`
	EntityID string  `gorm:"column:entity_id"`
	Weight   float64 `gorm:"column:weight"`
}

type entityTypeRow struct {
	ID                  string  `gorm:"column:id"`
	SourceConfigID      string  `gorm:"column:source_config_id"`
	Type                string  `gorm:"column:type"`
	Weight              float64 `gorm:"column:weight"`
	SimilarityThreshold float64 `gorm:"column:similarity_threshold"`
}

// SQLStore implements the SQL-join subset of store.EntityStore,
// store.EventStore and store.SectionStore: entity_types lookups, the
// entity<->event link joins, and event/section hydration. Dense-vector KNN
// is delegated to store/qdrant or store/postgres's pgvector variant.
type SQLStore struct {
	db *gorm.DB
}

// New wraps an already-connected gorm handle.
func New(db *gorm.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) GetEntityTypes(ctx context.Context, sourceConfigIDs []string) ([]store.EntityTypeRow, error) {
	var rows []entityTypeRow
	q := s.db.WithContext(ctx).Table("entity_types").
		Where("source_config_id IS NULL OR source_config_id IN ?", sourceConfigIDs)
	if err := q.Find(&rows).Error; err != nil {
		return nil, apperr.StoreTransport("get_entity_types", err)
	}
	out := make([]store.EntityTypeRow, len(rows))
	for i, r := range rows {
		out[i] = store.EntityTypeRow{ID: r.ID, Type: r.Type, SimilarityThreshold: r.SimilarityThreshold, Weight: r.Weight}
	}
	return out, nil
}

// GetEventsByEntityIDs joins entity_event_links -> events, scoped to the
// requested sources (spec §4.4 Step 2).
func (s *SQLStore) GetEventsByEntityIDs(ctx context.Context, entityIDs, sourceConfigIDs []string,
) ([]store.EntityEventLink, error) {
	if len(entityIDs) == 0 {
		return nil, nil
	}
	var rows []entityEventLinkRow
	err := s.db.WithContext(ctx).Table("entity_event_links AS l").
		Select("l.event_id, l.entity_id, l.weight").
		Joins("JOIN events e ON e.id = l.event_id").
		Where("l.entity_id IN ? AND e.source_config_id IN ?", entityIDs, sourceConfigIDs).
		Find(&rows).Error
	if err != nil {
		return nil, apperr.StoreTransport("get_events_by_entity_ids", err)
	}
	return convertLinks(rows), nil
}

// GetEntitiesByEventIDs is the symmetric join of GetEventsByEntityIDs, part
// of the EntityStore contract; the pipeline stages do not call it.
func (s *SQLStore) GetEntitiesByEventIDs(ctx context.Context, eventIDs, sourceConfigIDs []string,
) ([]store.EntityEventLink, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}
	var rows []entityEventLinkRow
	err := s.db.WithContext(ctx).Table("entity_event_links AS l").
		Select("l.event_id, l.entity_id, l.weight").
		Joins("JOIN entities n ON n.id = l.entity_id").
		Where("l.event_id IN ? AND n.source_config_id IN ?", eventIDs, sourceConfigIDs).
		Find(&rows).Error
	if err != nil {
		return nil, apperr.StoreTransport("get_entities_by_event_ids", err)
	}
	return convertLinks(rows), nil
}

func convertLinks(rows []entityEventLinkRow) []store.EntityEventLink {
	out := make([]store.EntityEventLink, len(rows))
	for i, r := range rows {
		out[i] = store.EntityEventLink{EventID: r.EventID, EntityID: r.EntityID, LinkWeight: r.Weight}
	}
	return out
}

// BatchGetEvents hydrates full event records by primary key (spec §4.2).
// Missing IDs are silently absent from the result, never an error.
func (s *SQLStore) BatchGetEvents(ctx context.Context, eventIDs []string) (map[string]*store.EventRecord, error) {
	if len(eventIDs) == 0 {
		return map[string]*store.EventRecord{}, nil
	}
	var rows []eventRow
	if err := s.db.WithContext(ctx).Table("events").Where("id IN ?", eventIDs).Find(&rows).Error; err != nil {
		return nil, apperr.StoreTransport("batch_get_events", err)
	}
	out := make(map[string]*store.EventRecord, len(rows))
	for _, r := range rows {
		out[r.ID] = &store.EventRecord{
			ID: r.ID, ArticleID: r.ArticleID, Title: r.Title, Summary: r.Summary,
			Content: r.Content, Category: r.Category, References: splitRefs(r.References),
		}
	}
	return out, nil
}

// GetSectionsByEventIDs reads Event.References for the requested events
// (spec §4.2).
func (s *SQLStore) GetSectionsByEventIDs(ctx context.Context, eventIDs []string) (map[string][]string, error) {
	if len(eventIDs) == 0 {
		return map[string][]string{}, nil
	}
	var rows []eventRow
	err := s.db.WithContext(ctx).Table("events").
		Select("id, reference_section_ids").
		Where("id IN ?", eventIDs).Find(&rows).Error
	if err != nil {
		return nil, apperr.StoreTransport("get_sections_by_event_ids", err)
	}
	out := make(map[string][]string, len(rows))
	for _, r := range rows {
		out[r.ID] = splitRefs(r.References)
	}
	return out, nil
}

type sectionRow struct {
	ID        string `gorm:"column:id"`
	ArticleID string `gorm:"column:article_id"`
	Heading   string `gorm:"column:heading"`
	Content   string `gorm:"column:content"`
	Rank      int    `gorm:"column:rank"`
}

// BatchGetSections hydrates full section records by primary key (spec §4.2
// extension: the section-granularity analogue of BatchGetEvents).
func (s *SQLStore) BatchGetSections(ctx context.Context, sectionIDs []string) (map[string]*store.SectionRecord, error) {
	if len(sectionIDs) == 0 {
		return map[string]*store.SectionRecord{}, nil
	}
	var rows []sectionRow
	if err := s.db.WithContext(ctx).Table("article_sections").Where("id IN ?", sectionIDs).Find(&rows).Error; err != nil {
		return nil, apperr.StoreTransport("batch_get_sections", err)
	}
	out := make(map[string]*store.SectionRecord, len(rows))
	for _, r := range rows {
		out[r.ID] = &store.SectionRecord{ID: r.ID, ArticleID: r.ArticleID, Heading: r.Heading, Content: r.Content, Rank: r.Rank}
	}
	return out, nil
}

// DebugQuery runs an operator-supplied, read-only SQL query against the
// allowlisted tables after sqlguard.Validate has checked it; Validate
// requires a non-empty sourceConfigIDs but does not add it to the query.
// For incident debugging, not the search path.
func (s *SQLStore) DebugQuery(ctx context.Context, rawSQL string, sourceConfigIDs []string) ([]map[string]any, error) {
	normalized, err := sqlguard.Validate(rawSQL, sourceConfigIDs)
	if err != nil {
		return nil, apperr.Configuration(err.Error())
	}

	rows, err := s.db.WithContext(ctx).Raw(normalized).Rows()
	if err != nil {
		return nil, apperr.StoreTransport("debug_query", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, apperr.StoreTransport("debug_query_columns", err)
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		pointers := make([]any, len(cols))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, apperr.StoreTransport("debug_query_scan", err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}
		out = append(out, row)
	}
	return out, nil
}

func splitRefs(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
