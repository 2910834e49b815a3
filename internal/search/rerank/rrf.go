// Package rerank implements the two Rerank stage strategies: RRF (fast
// path, spec §4.6) and PageRank (precise path, spec §4.7).
package rerank

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Tencent/kgsearch/internal/bm25"
	"github.com/Tencent/kgsearch/internal/bm25/tokenizer"
	"github.com/Tencent/kgsearch/internal/common"
	"github.com/Tencent/kgsearch/internal/rrf"
	"github.com/Tencent/kgsearch/internal/store"
	"github.com/Tencent/kgsearch/internal/tracker"
	"github.com/Tencent/kgsearch/internal/types"
)

// Ranked is one event surviving the Rerank stage, with its fused score.
type Ranked struct {
	EventID string
	Score   float64
}

// RunRRF implements spec §4.6: entity-driven candidate collection, two
// independent rankings (dense-vector cosine, BM25), fused by Reciprocal
// Rank Fusion.
func RunRRF(
	ctx context.Context, cfg *types.SearchConfig, tr *tracker.Tracker, queryNode types.EndpointNode,
	finalEntities []types.WeightedEntity, entityStore store.EntityStore, eventStore store.EventStore,
) ([]Ranked, types.RerankStats, error) {
	weightByEntity := make(map[string]float64, len(finalEntities))
	typeByEntity := make(map[string]string, len(finalEntities))
	nameByEntity := make(map[string]string, len(finalEntities))
	entityIDs := make([]string, 0, len(finalEntities))
	for _, e := range finalEntities {
		weightByEntity[e.EntityID] = e.Weight
		typeByEntity[e.EntityID] = e.Type
		nameByEntity[e.EntityID] = e.Name
		entityIDs = append(entityIDs, e.EntityID)
	}

	// Step 1: entity-driven candidates.
	links, err := entityStore.GetEventsByEntityIDs(ctx, entityIDs, cfg.SourceConfigIDs)
	if err != nil {
		common.PipelineWarn(ctx, "rerank", "get_events_by_entity_ids_failed", map[string]any{"error": err.Error()})
		return nil, types.RerankStats{Strategy: types.RerankStrategyRRF}, nil
	}
	entitiesOfEvent := make(map[string]map[string]struct{})
	eventIDs := make([]string, 0)
	seen := make(map[string]struct{})
	for _, l := range links {
		if entitiesOfEvent[l.EventID] == nil {
			entitiesOfEvent[l.EventID] = make(map[string]struct{})
			eventIDs = append(eventIDs, l.EventID)
			seen[l.EventID] = struct{}{}
		}
		entitiesOfEvent[l.EventID][l.EntityID] = struct{}{}
	}

	// Step 2 and Step 3's fetches are independent reads against different
	// adapters (vector store vs. token store) over the same eventIDs, so
	// they run concurrently rather than back to back.
	var vectors map[string][]float32
	var tokens map[string][]string
	var vecErr, tokErr error
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vectors, vecErr = eventStore.BatchGetEventVectors(gCtx, eventIDs)
		return nil
	})
	g.Go(func() error {
		tokens, tokErr = eventStore.BatchGetEventTokens(gCtx, eventIDs)
		return nil
	})
	_ = g.Wait()

	// Step 2: dense-vector ranking.
	embedDegraded := vecErr != nil
	if embedDegraded {
		common.PipelineWarn(ctx, "rerank", "batch_get_event_vectors_failed", map[string]any{"error": vecErr.Error()})
	}
	embedScore := make(map[string]float64)
	embedRanking := make([]string, 0)
	for _, id := range eventIDs {
		vec, ok := vectors[id]
		if !ok {
			continue
		}
		s := cosineSimilarity(cfg.QueryEmbedding, vec)
		if s < cfg.Rerank.ScoreThreshold {
			continue
		}
		embedScore[id] = s
		embedRanking = append(embedRanking, id)
	}
	sort.Slice(embedRanking, func(i, j int) bool {
		if embedScore[embedRanking[i]] != embedScore[embedRanking[j]] {
			return embedScore[embedRanking[i]] > embedScore[embedRanking[j]]
		}
		return embedRanking[i] < embedRanking[j]
	})

	// Step 3: BM25 ranking, built per-call over the candidate set only.
	bm25Degraded := tokErr != nil
	if bm25Degraded {
		common.PipelineWarn(ctx, "rerank", "batch_get_event_tokens_failed", map[string]any{"error": tokErr.Error()})
	}
	bm25Score := make(map[string]float64)
	var bm25Ranking []string
	if len(tokens) > 0 {
		idx := bm25.New(tokens, bm25.DefaultParams)
		queryTokens := tokenizer.Default()(cfg.Query)
		ranked := idx.RankAll(queryTokens)
		bm25Ranking = make([]string, 0, len(ranked))
		for _, r := range ranked {
			if r.Score <= 0 {
				continue
			}
			bm25Score[r.ID] = r.Score
			bm25Ranking = append(bm25Ranking, r.ID)
		}
	}

	if embedDegraded && bm25Degraded {
		common.PipelineWarn(ctx, "rerank", "both_rankings_failed_degrading_to_entity_weight", nil)
		return degradeToEntityWeight(eventIDs, entitiesOfEvent, weightByEntity, cfg.Rerank.MaxResults), types.RerankStats{Strategy: types.RerankStrategyRRF, EventsRanked: len(eventIDs)}, nil
	}

	rankEmbed := rankPositions(embedRanking)
	rankBM25 := rankPositions(bm25Ranking)

	scores := rrf.Fuse([]rrf.Ranking{embedRanking, bm25Ranking}, cfg.Rerank.RRFK)
	sortedIDs := rrf.Sorted(scores)
	if len(sortedIDs) > cfg.Rerank.MaxResults {
		sortedIDs = sortedIDs[:cfg.Rerank.MaxResults]
	}

	maxScore := 0.0
	for _, s := range scores {
		if s > maxScore {
			maxScore = s
		}
	}

	out := make([]Ranked, 0, len(sortedIDs))
	for _, eventID := range sortedIDs {
		out = append(out, Ranked{EventID: eventID, Score: scores[eventID]})
		confidence := 0.0
		if maxScore > 0 {
			confidence = scores[eventID] / maxScore
		}
		eventNode := tr.MustGetOrCreateNode(types.NodeEvent, eventID, "ranked", "", "")
		for _, entityID := range topContributingEntities(entitiesOfEvent[eventID], weightByEntity, 3) {
			entityNode := tr.MustGetOrCreateNode(types.NodeEntity, entityID, typeByEntity[entityID], nameByEntity[entityID], "")
			tr.AddClue(types.StageRerank, entityNode, eventNode, confidence, "rrf fusion", map[string]any{
				"rank_embed":  rankEmbed[eventID],
				"rank_bm25":   rankBM25[eventID],
				"embed_score": embedScore[eventID],
				"bm25_score":  bm25Score[eventID],
				"rrf_score":   scores[eventID],
			}, types.DisplayFinal)
		}
	}

	return out, types.RerankStats{Strategy: types.RerankStrategyRRF, EventsRanked: len(out)}, nil
}

func degradeToEntityWeight(
	eventIDs []string, entitiesOfEvent map[string]map[string]struct{},
	weightByEntity map[string]float64, maxResults int,
) []Ranked {
	scores := make(map[string]float64, len(eventIDs))
	for _, id := range eventIDs {
		sum := 0.0
		for entityID := range entitiesOfEvent[id] {
			sum += weightByEntity[entityID]
		}
		scores[id] = sum
	}
	sort.Slice(eventIDs, func(i, j int) bool {
		if scores[eventIDs[i]] != scores[eventIDs[j]] {
			return scores[eventIDs[i]] > scores[eventIDs[j]]
		}
		return eventIDs[i] < eventIDs[j]
	})
	if len(eventIDs) > maxResults {
		eventIDs = eventIDs[:maxResults]
	}
	out := make([]Ranked, 0, len(eventIDs))
	for _, id := range eventIDs {
		out = append(out, Ranked{EventID: id, Score: scores[id]})
	}
	return out
}

func rankPositions(ranking []string) map[string]int {
	pos := make(map[string]int, len(ranking))
	for i, id := range ranking {
		pos[id] = i + 1
	}
	return pos
}

func topContributingEntities(entities map[string]struct{}, weight map[string]float64, n int) []string {
	ids := make([]string, 0, len(entities))
	for id := range entities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if weight[ids[i]] != weight[ids[j]] {
			return weight[ids[i]] > weight[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids
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
