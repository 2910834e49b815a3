// Package expand implements the Expand stage's multi-hop loop (spec §4.5):
// iteratively enriching recall_entities while anchoring on the original
// query embedding to prevent topic drift.
package expand

import (
	"context"
	"math"
	"strconv"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/Tencent/kgsearch/internal/common"
	"github.com/Tencent/kgsearch/internal/store"
	"github.com/Tencent/kgsearch/internal/tracker"
	"github.com/Tencent/kgsearch/internal/types"
)

// Run executes the multi-hop loop starting from recallEntities, returning
// final_entities.
func Run(
	ctx context.Context, cfg *types.SearchConfig, tr *tracker.Tracker,
	queryNode types.EndpointNode, recallEntities []types.WeightedEntity,
	entityStore store.EntityStore, eventStore store.EventStore,
) ([]types.WeightedEntity, types.ExpandStats, error) {
	cfg2 := cfg.Expand

	if len(recallEntities) == 0 {
		return nil, types.ExpandStats{Converged: true}, nil
	}
	if !cfg2.Enabled {
		return recallEntities, types.ExpandStats{Converged: true}, nil
	}

	current := make(map[string]*types.WeightedEntity, len(recallEntities))
	for i := range recallEntities {
		e := recallEntities[i]
		current[e.EntityID] = &e
	}
	maxTotal := cfg.Recall.MaxEntities * 2

	totalWeightPrev := sumWeights(current)
	hopsExecuted := 0
	converged := true
	discovered := 0

	for hop := 2; hop <= cfg2.MaxHops+1; hop++ {
		currentIDs := make([]string, 0, len(current))
		for id := range current {
			currentIDs = append(currentIDs, id)
		}

		links, err := entityStore.GetEventsByEntityIDs(ctx, currentIDs, cfg.SourceConfigIDs)
		if err != nil {
			common.PipelineWarn(ctx, "expand", "get_events_by_entity_ids_failed", map[string]any{"hop": hop, "error": err.Error()})
			converged = false
			break
		}
		eventEntities := make(map[string]map[string]struct{})
		for _, l := range links {
			if eventEntities[l.EventID] == nil {
				eventEntities[l.EventID] = make(map[string]struct{})
			}
			eventEntities[l.EventID][l.EntityID] = struct{}{}
		}
		eventIDs := clipEvents(keysOf(eventEntities), cfg2.MinEventsPerHop, cfg2.MaxEventsPerHop)
		if len(eventIDs) == 0 {
			converged = true // no new events (edge case, spec §4.5)
			break
		}

		vectors, err := eventStore.BatchGetEventVectors(ctx, eventIDs)
		if err != nil {
			common.PipelineWarn(ctx, "expand", "batch_get_event_vectors_failed", map[string]any{"hop": hop, "error": err.Error()})
			converged = false
			break
		}

		// Step 2: cosine similarity against query embedding, computed
		// concurrently across the hop's event set (CPU-bound, spec §5
		// "must run to completion without yielding" but independent per
		// event, so a bounded worker pool parallelizes it across cores).
		sims := make(map[string]float64, len(vectors))
		var simsMu sync.Mutex
		pool, poolErr := ants.NewPool(8)
		if poolErr == nil {
			var wg sync.WaitGroup
			for id, vec := range vectors {
				id, vec := id, vec
				wg.Add(1)
				_ = pool.Submit(func() {
					defer wg.Done()
					s := cosineSimilarity(cfg.QueryEmbedding, vec)
					if s >= cfg2.EventSimilarityThreshold {
						simsMu.Lock()
						sims[id] = s
						simsMu.Unlock()
					}
				})
			}
			wg.Wait()
			pool.Release()
		} else {
			for id, vec := range vectors {
				if s := cosineSimilarity(cfg.QueryEmbedding, vec); s >= cfg2.EventSimilarityThreshold {
					sims[id] = s
				}
			}
		}

		// Step 3-4: W_event_key_h, W_jump_h.
		wJump := make(map[string]float64, len(sims))
		for eventID, sim := range sims {
			wEventKey := 0.0
			for entityID := range eventEntities[eventID] {
				if e, ok := current[entityID]; ok {
					wEventKey += e.Weight
				}
			}
			wJump[eventID] = wEventKey * sim
		}

		// Step 5: W_new per reachable entity.
		wNew := make(map[string]float64)
		bridgingEvent := make(map[string]string)
		for eventID, w := range wJump {
			for entityID := range eventEntities[eventID] {
				wNew[entityID] += w
				if _, ok := bridgingEvent[entityID]; !ok {
					bridgingEvent[entityID] = eventID
				}
			}
		}

		newcomers := make([]string, 0)
		for entityID := range wNew {
			if _, exists := current[entityID]; !exists {
				newcomers = append(newcomers, entityID)
			}
		}
		top := topNByWeight(newcomers, wNew, cfg2.EntitiesPerHop)
		topSet := toSet(top)

		// Apply weight updates: existing entities always absorb W_new and
		// append the hop index, no clue emitted since they are not a new
		// discovery; only top-N newcomers are admitted, each emitting one
		// expand clue from the parent entity that discovered it (spec §4.5
		// step 6: one clue per newly discovered entity, parent -> child).
		for entityID, w := range wNew {
			if existing, ok := current[entityID]; ok {
				existing.Weight += w
				existing.Steps = append(existing.Steps, hop)
				continue
			}
			if _, ok := topSet[entityID]; ok {
				current[entityID] = &types.WeightedEntity{EntityID: entityID, Weight: w, Steps: []int{hop}}
				discovered++
				bridgingID := bridgingEvent[entityID]
				if parentID := parentEntity(eventEntities[bridgingID], current, entityID); parentID != "" {
					emitExpandClue(tr, current[parentID], *current[entityID], w, hop, bridgingID, wJump)
				}
			}
		}

		if len(current) > maxTotal {
			trimToCap(current, maxTotal)
		}

		// hop is already the spec's own hop label (the loop starts at 2
		// because recall's output is implicitly "hop 1"), so hops_executed
		// tracks the label of the last hop that ran, not the number of loop
		// iterations: a single iteration with hop==2 reports hops_executed
		// == 2, matching the two-hop convergence scenario in spec §8.1.
		hopsExecuted = hop
		totalWeightNow := sumWeights(current)
		denom := math.Max(totalWeightPrev, 1)
		if math.Abs(totalWeightNow-totalWeightPrev)/denom < cfg2.WeightChangeThreshold {
			converged = true
			break
		}
		totalWeightPrev = totalWeightNow
		converged = false
	}

	final := make([]types.WeightedEntity, 0, len(current))
	for _, e := range current {
		final = append(final, *e)
	}
	return final, types.ExpandStats{
		HopsExecuted:       hopsExecuted,
		EntitiesDiscovered: discovered,
		Converged:          converged,
	}, nil
}

// parentEntity picks the discovering parent for a newcomer: the
// highest-weighted entity (other than the newcomer itself) already in
// current that shares the bridging event, ties broken by entity_id
// ascending. Returns "" if no such entity is found (shouldn't happen in
// practice since the newcomer was only reachable through one).
func parentEntity(eventEntities map[string]struct{}, current map[string]*types.WeightedEntity, self string) string {
	best := ""
	bestWeight := -1.0
	for id := range eventEntities {
		if id == self {
			continue
		}
		e, ok := current[id]
		if !ok {
			continue
		}
		if e.Weight > bestWeight || (e.Weight == bestWeight && (best == "" || id < best)) {
			best = id
			bestWeight = e.Weight
		}
	}
	return best
}

func emitExpandClue(
	tr *tracker.Tracker, parent *types.WeightedEntity, child types.WeightedEntity,
	wJumpForEvent float64, hop int, bridgingEventID string, wJump map[string]float64,
) {
	parentNode := tr.MustGetOrCreateNode(types.NodeEntity, parent.EntityID, parent.Type, parent.Name, "")
	childNode := tr.MustGetOrCreateNode(types.NodeEntity, child.EntityID, child.Type, child.Name, "")
	confidence := normalizedJump(wJumpForEvent, wJump)
	tr.AddClue(types.StageExpand, parentNode, childNode, confidence,
		relationForHop(hop), map[string]any{"hop": hop, "bridging_event_id": bridgingEventID}, types.DisplayIntermediate)
}

func relationForHop(hop int) string {
	return "hop-" + strconv.Itoa(hop) + " expansion"
}

func normalizedJump(w float64, all map[string]float64) float64 {
	max := 0.0
	for _, v := range all {
		if v > max {
			max = v
		}
	}
	if max <= 0 {
		return 0
	}
	return w / max
}

func sumWeights(m map[string]*types.WeightedEntity) float64 {
	sum := 0.0
	for _, e := range m {
		sum += e.Weight
	}
	return sum
}

func keysOf(m map[string]map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func clipEvents(ids []string, min, max int) []string {
	if max > 0 && len(ids) > max {
		ids = ids[:max]
	}
	if len(ids) < min {
		return []string{}
	}
	return ids
}

func toSet(ids []string) map[string]struct{} {
	s := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

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

func trimToCap(m map[string]*types.WeightedEntity, cap int) {
	if len(m) <= cap {
		return
	}
	ids := make([]string, 0, len(m))
	weight := make(map[string]float64, len(m))
	for id, e := range m {
		ids = append(ids, id)
		weight[id] = e.Weight
	}
	keep := toSet(topNByWeight(ids, weight, cap))
	for id := range m {
		if _, ok := keep[id]; !ok {
			delete(m, id)
		}
	}
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
