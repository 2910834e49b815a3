// Package recall implements the eight-step Recall algorithm (spec §4.4):
// query -> candidate entities -> events -> back-projected entity weights.
package recall

import (
	"context"
	"math"

	"github.com/Tencent/kgsearch/internal/apperr"
	"github.com/Tencent/kgsearch/internal/store"
	"github.com/Tencent/kgsearch/internal/tracker"
	"github.com/Tencent/kgsearch/internal/types"
)

// Result is recall_entities plus the stats the Searcher facade reports.
type Result struct {
	Entities []types.WeightedEntity
	Stats    types.RecallStats
}

// Run executes the eight-step algorithm. queryNode is the already-built
// query endpoint node (spec §4.3 runs before Recall and owns node creation
// for the query).
func Run(
	ctx context.Context, cfg *types.SearchConfig, tr *tracker.Tracker,
	queryNode types.EndpointNode, entityStore store.EntityStore, eventStore store.EventStore,
) (Result, error) {
	cfg2 := cfg.Recall
	if !cfg2.Enabled {
		return Result{}, nil
	}

	entityTypes, err := entityStore.GetEntityTypes(ctx, cfg.SourceConfigIDs)
	if err != nil {
		return Result{}, apperr.StoreTransport("get_entity_types", err)
	}
	thresholdByType := make(map[string]float64, len(entityTypes))
	for _, t := range entityTypes {
		thresholdByType[t.Type] = t.SimilarityThreshold
	}

	// Step 1: query -> candidate entities (K_q), per attribute or whole
	// query in fast mode.
	attrs := cfg.ExtractedAttributes
	if cfg2.UseFastMode || len(attrs) == 0 {
		attrs = []types.ExtractedAttribute{{Name: "", Type: "", Weight: 1.0}}
	}

	type kqEntry struct {
		types.WeightedEntity
		attrName string
	}
	kq := make(map[string]kqEntry)
	entitiesFound := 0
	for _, attr := range attrs {
		candidates, err := entityStore.SearchEntitiesByVector(
			ctx, cfg.QueryEmbedding, cfg.SourceConfigIDs,
			cfg2.VectorTopK, cfg2.VectorCandidates, attr.Type,
		)
		if err != nil {
			return Result{}, apperr.StoreTransport("search_entities_by_vector", err)
		}
		entitiesFound += len(candidates)
		for _, c := range candidates {
			effectiveThreshold := math.Max(cfg2.EntitySimilarityThreshold, thresholdByType[c.Type])
			if c.Similarity < effectiveThreshold {
				continue
			}
			entityNode := tr.MustGetOrCreateNode(types.NodeEntity, c.EntityID, c.Type, c.Name, c.Description)
			tr.AddClue(types.StageRecall, queryNode, entityNode, c.Similarity, "semantic similarity",
				map[string]any{"method": "vector_search", "attribute": attr.Name}, types.DisplayIntermediate)

			if existing, ok := kq[c.EntityID]; !ok || c.Similarity > existing.Weight {
				kq[c.EntityID] = kqEntry{
					WeightedEntity: types.WeightedEntity{
						EntityID: c.EntityID, Name: c.Name, Type: c.Type, Weight: c.Similarity,
					},
					attrName: attr.Name,
				}
			}
		}
	}
	if len(kq) == 0 {
		return Result{Stats: types.RecallStats{EntitiesFound: entitiesFound, EntitiesPassed: 0}}, nil
	}

	kqIDs := make([]string, 0, len(kq))
	k1 := make(map[string]float64, len(kq))
	for id, e := range kq {
		kqIDs = append(kqIDs, id)
		k1[id] = e.Weight
	}
	if len(kqIDs) > cfg2.MaxEntities {
		kqIDs = topNByWeight(kqIDs, k1, cfg2.MaxEntities)
	}
	kqSet := toSet(kqIDs)

	// Step 2: candidate entities -> events via SQL join (E_k).
	ekLinks, err := entityStore.GetEventsByEntityIDs(ctx, kqIDs, cfg.SourceConfigIDs)
	if err != nil {
		return Result{}, apperr.StoreTransport("get_events_by_entity_ids", err)
	}
	ekSet := make(map[string]struct{})
	entitiesOfEvent := make(map[string]map[string]struct{})
	for _, link := range ekLinks {
		ekSet[link.EventID] = struct{}{}
		if entitiesOfEvent[link.EventID] == nil {
			entitiesOfEvent[link.EventID] = make(map[string]struct{})
		}
		entitiesOfEvent[link.EventID][link.EntityID] = struct{}{}
	}

	// Step 3: query -> events via semantic search (E_q).
	eqCandidates, err := eventStore.SearchEventsByVector(ctx, cfg.QueryEmbedding, cfg.SourceConfigIDs, cfg2.VectorTopK, true)
	if err != nil {
		return Result{}, apperr.StoreTransport("search_events_by_vector", err)
	}
	e1 := make(map[string]float64)
	for _, c := range eqCandidates {
		if c.Similarity < cfg2.EventSimilarityThreshold {
			continue
		}
		e1[c.EventID] = c.Similarity
	}

	// Step 4: E_related = E_q ∩ E_k; K_related = entities appearing in E_related.
	eRelated := make([]string, 0)
	for eventID := range e1 {
		if _, ok := ekSet[eventID]; ok {
			eRelated = append(eRelated, eventID)
		}
	}
	kRelated := make(map[string]struct{})
	for _, eventID := range eRelated {
		for entityID := range entitiesOfEvent[eventID] {
			if _, ok := kqSet[entityID]; ok {
				kRelated[entityID] = struct{}{}
			}
		}
	}

	// Step 5-6: W_event_key, then W_e2.
	wEvent := make(map[string]float64, len(eRelated))
	for _, eventID := range eRelated {
		sum := 0.0
		for entityID := range entitiesOfEvent[eventID] {
			if _, ok := kRelated[entityID]; ok {
				sum += k1[entityID]
			}
		}
		wEvent[eventID] = sum * e1[eventID]
	}

	// Step 7: back-project to entities (W_key_event).
	wKeyEvent := make(map[string]float64, len(kRelated))
	for entityID := range kRelated {
		sum := 0.0
		for _, eventID := range eRelated {
			if _, ok := entitiesOfEvent[eventID][entityID]; ok {
				sum += wEvent[eventID]
			}
		}
		wKeyEvent[entityID] = sum
	}

	// Step 8: pruning, by threshold and/or top_n (smaller wins if both set).
	kept := make([]string, 0, len(wKeyEvent))
	for id, w := range wKeyEvent {
		if cfg2.FinalEntityWeightThreshold > 0 && w < cfg2.FinalEntityWeightThreshold {
			continue
		}
		kept = append(kept, id)
	}
	if cfg2.TopN > 0 && len(kept) > cfg2.TopN {
		kept = topNByWeight(kept, wKeyEvent, cfg2.TopN)
	}

	result := make([]types.WeightedEntity, 0, len(kept))
	for _, id := range kept {
		e := kq[id]
		result = append(result, types.WeightedEntity{
			EntityID: id, Name: e.Name, Type: e.Type, Weight: wKeyEvent[id], Steps: []int{1},
		})
	}

	return Result{
		Entities: result,
		Stats:    types.RecallStats{EntitiesFound: entitiesFound, EntitiesPassed: len(result)},
	}, nil
}

func toSet(ids []string) map[string]struct{} {
	s := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// topNByWeight returns the n highest-weighted IDs, descending, ties broken
// by ID ascending for determinism.
func topNByWeight(ids []string, weight map[string]float64, n int) []string {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0; j-- {
			a, b := sorted[j-1], sorted[j]
			if weight[a] > weight[b] || (weight[a] == weight[b] && a <= b) {
				break
			}
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
