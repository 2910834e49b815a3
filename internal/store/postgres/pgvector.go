package postgres

import (
	"context"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/Tencent/kgsearch/internal/apperr"
	"github.com/Tencent/kgsearch/internal/store"
)

// VectorStore implements dense-vector KNN (spec §3.2) directly against
// Postgres using the pgvector extension's `<=>` cosine-distance operator,
// as an alternative to store/qdrant for deployments that co-locate vectors
// with the relational store instead of running a separate vector engine.
// It satisfies the same three Search*ByVector methods qdrant.Store does.
type VectorStore struct {
	db *gorm.DB
}

// NewVectorStore wraps a gorm handle whose database has pgvector installed.
func NewVectorStore(db *gorm.DB) *VectorStore { return &VectorStore{db: db} }

type entityVectorHit struct {
	EntityID     string  `gorm:"column:entity_id"`
	Name         string  `gorm:"column:name"`
	Type         string  `gorm:"column:type"`
	EntityTypeID string  `gorm:"column:entity_type_id"`
	Distance     float64 `gorm:"column:distance"`
}

// SearchEntitiesByVector ranks entity_vectors by cosine distance, converting
// pgvector's `<=>` distance (0=identical, 2=opposite) into the [0,1]
// similarity space every clue confidence uses (spec §3.4 invariant 6).
func (v *VectorStore) SearchEntitiesByVector(ctx context.Context, queryVec []float32, sourceConfigIDs []string,
	k, numCandidates int, entityType string,
) ([]store.EntityCandidate, error) {
	vec := pgvector.NewVector(queryVec)
	q := v.db.WithContext(ctx).Table("entity_vectors").
		Select("entity_id, name, type, vector <=> ? AS distance", vec).
		Where("source_config_id IN ?", sourceConfigIDs)
	if entityType != "" {
		q = q.Where("type = ?", entityType)
	}
	if numCandidates > 0 {
		q = q.Limit(numCandidates)
	}
	var rows []entityVectorHit
	if err := q.Order("distance ASC").Limit(k).Find(&rows).Error; err != nil {
		return nil, apperr.StoreTransport("search_entities_by_vector", err)
	}
	out := make([]store.EntityCandidate, len(rows))
	for i, r := range rows {
		out[i] = store.EntityCandidate{
			EntityID: r.EntityID, Name: r.Name, Type: r.Type,
			EntityTypeID: r.EntityTypeID, Similarity: distanceToSimilarity(r.Distance),
		}
	}
	return out, nil
}

type eventVectorHit struct {
	EventID   string  `gorm:"column:event_id"`
	ArticleID string  `gorm:"column:article_id"`
	Title     string  `gorm:"column:title"`
	Content   string  `gorm:"column:content"`
	Category  string  `gorm:"column:category"`
	Distance  float64 `gorm:"column:distance"`
}

// SearchEventsByVector ranks event_vectors by title_vector or content_vector
// distance depending on useContentVector (spec §4.2).
func (v *VectorStore) SearchEventsByVector(ctx context.Context, queryVec []float32, sourceConfigIDs []string,
	k int, useContentVector bool,
) ([]store.EventCandidate, error) {
	column := "title_vector"
	if useContentVector {
		column = "content_vector"
	}
	vec := pgvector.NewVector(queryVec)
	var rows []eventVectorHit
	err := v.db.WithContext(ctx).Table("event_vectors").
		Select(column+" <=> ? AS distance, event_id, article_id, title, content, category", vec).
		Where("source_config_id IN ?", sourceConfigIDs).
		Order("distance ASC").Limit(k).Find(&rows).Error
	if err != nil {
		return nil, apperr.StoreTransport("search_events_by_vector", err)
	}
	out := make([]store.EventCandidate, len(rows))
	for i, r := range rows {
		out[i] = store.EventCandidate{
			EventID: r.EventID, Similarity: distanceToSimilarity(r.Distance),
			ArticleID: r.ArticleID, Title: r.Title, Content: r.Content, Category: r.Category,
		}
	}
	return out, nil
}

type sectionVectorHit struct {
	SectionID string  `gorm:"column:section_id"`
	ArticleID string  `gorm:"column:article_id"`
	Heading   string  `gorm:"column:heading"`
	Content   string  `gorm:"column:content"`
	Rank      int     `gorm:"column:rank"`
	Distance  float64 `gorm:"column:distance"`
}

// SearchSectionsByVector ranks article_sections by content_vector distance,
// optionally scoped to one article (spec §4.2).
func (v *VectorStore) SearchSectionsByVector(ctx context.Context, queryVec []float32, sourceConfigIDs []string,
	k int, articleID string,
) ([]store.SectionCandidate, error) {
	vec := pgvector.NewVector(queryVec)
	q := v.db.WithContext(ctx).Table("article_sections").
		Select("content_vector <=> ? AS distance, section_id, article_id, heading, content, rank", vec).
		Where("source_config_id IN ?", sourceConfigIDs)
	if articleID != "" {
		q = q.Where("article_id = ?", articleID)
	}
	var rows []sectionVectorHit
	if err := q.Order("distance ASC").Limit(k).Find(&rows).Error; err != nil {
		return nil, apperr.StoreTransport("search_sections_by_vector", err)
	}
	out := make([]store.SectionCandidate, len(rows))
	for i, r := range rows {
		out[i] = store.SectionCandidate{
			SectionID: r.SectionID, ArticleID: r.ArticleID, Similarity: distanceToSimilarity(r.Distance),
			Heading: r.Heading, Content: r.Content, Rank: r.Rank,
		}
	}
	return out, nil
}

type eventVectorRow struct {
	EventID string           `gorm:"column:event_id"`
	Vector  pgvector.Vector  `gorm:"column:content_vector"`
}

// BatchGetEventVectors hydrates raw content vectors by event ID, completing
// the same eventVectorSearcher surface store/qdrant.Store implements so
// VectorStore can substitute for it when config.Vector.Driver == "pgvector"
// (spec §3.2 deployments that co-locate vectors with the relational store).
func (v *VectorStore) BatchGetEventVectors(ctx context.Context, eventIDs []string) (map[string][]float32, error) {
	if len(eventIDs) == 0 {
		return map[string][]float32{}, nil
	}
	var rows []eventVectorRow
	err := v.db.WithContext(ctx).Table("event_vectors").
		Select("event_id, content_vector").
		Where("event_id IN ?", eventIDs).Find(&rows).Error
	if err != nil {
		return nil, apperr.StoreTransport("batch_get_event_vectors", err)
	}
	out := make(map[string][]float32, len(rows))
	for _, r := range rows {
		out[r.EventID] = r.Vector.Slice()
	}
	return out, nil
}

// distanceToSimilarity converts pgvector cosine distance in [0,2] to a
// [0,1] similarity, clamping quantization overshoot (spec §9 "Numerical
// stability").
func distanceToSimilarity(distance float64) float64 {
	sim := 1 - distance/2
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}
