package rerank

import (
	"context"
	"math"
	"sort"

	"github.com/Tencent/kgsearch/internal/common"
	pr "github.com/Tencent/kgsearch/internal/pagerank"
	"github.com/Tencent/kgsearch/internal/store"
	"github.com/Tencent/kgsearch/internal/tracker"
	"github.com/Tencent/kgsearch/internal/types"
)

// RankedSection mirrors Ranked for the section-granularity output used when
// config.return_type == "section" (spec §4.7 step 6).
type RankedSection struct {
	SectionID string
	Score     float64
}

// RunPageRank implements spec §4.7: section collection from two sources,
// personalized PageRank over a section co-reference graph, aggregation
// back to events.
func RunPageRank(
	ctx context.Context, cfg *types.SearchConfig, tr *tracker.Tracker, queryNode types.EndpointNode,
	finalEntities []types.WeightedEntity, entityStore store.EntityStore, eventStore store.EventStore, sectionStore store.SectionStore,
) ([]Ranked, []RankedSection, types.RerankStats, error) {
	weightByEntity := make(map[string]float64, len(finalEntities))
	stepsByEntity := make(map[string]float64, len(finalEntities))
	typeByEntity := make(map[string]string, len(finalEntities))
	nameByEntity := make(map[string]string, len(finalEntities))
	entityIDs := make([]string, 0, len(finalEntities))
	for _, e := range finalEntities {
		weightByEntity[e.EntityID] = e.Weight
		stepsByEntity[e.EntityID] = e.AvgSteps()
		typeByEntity[e.EntityID] = e.Type
		nameByEntity[e.EntityID] = e.Name
		entityIDs = append(entityIDs, e.EntityID)
	}

	// Source 1: SECT_k -- sections reachable from final_entities via events.
	links, err := entityStore.GetEventsByEntityIDs(ctx, entityIDs, cfg.SourceConfigIDs)
	if err != nil {
		common.PipelineWarn(ctx, "rerank", "get_events_by_entity_ids_failed", map[string]any{"error": err.Error()})
		return nil, nil, types.RerankStats{Strategy: types.RerankStrategyPageRank}, nil
	}
	eventEntities := make(map[string]map[string]struct{})
	eventIDs := make([]string, 0)
	for _, l := range links {
		if eventEntities[l.EventID] == nil {
			eventEntities[l.EventID] = make(map[string]struct{})
			eventIDs = append(eventIDs, l.EventID)
		}
		eventEntities[l.EventID][l.EntityID] = struct{}{}
	}
	sectionsByEvent, err := sectionStore.GetSectionsByEventIDs(ctx, eventIDs)
	if err != nil {
		common.PipelineWarn(ctx, "rerank", "get_sections_by_event_ids_failed", map[string]any{"error": err.Error()})
		sectionsByEvent = map[string][]string{}
	}

	keyScore := make(map[string]float64)
	sectionCount := make(map[string]map[string]int) // section -> entity -> count
	for eventID, sectionIDs := range sectionsByEvent {
		for entityID := range eventEntities[eventID] {
			w := weightByEntity[entityID]
			for _, sectionID := range sectionIDs {
				keyScore[sectionID] += w
				if sectionCount[sectionID] == nil {
					sectionCount[sectionID] = make(map[string]int)
				}
				sectionCount[sectionID][entityID]++
			}
		}
	}

	// Source 2: SECT_q -- direct semantic search over sections.
	sectionCandidates, err := sectionStore.SearchSectionsByVector(
		ctx, cfg.QueryEmbedding, cfg.SourceConfigIDs, cfg.Rerank.PageRankSectionTopK, cfg.ArticleID,
	)
	if err != nil {
		common.PipelineWarn(ctx, "rerank", "search_sections_by_vector_failed", map[string]any{"error": err.Error()})
		sectionCandidates = nil
	}
	queryScore := make(map[string]float64, len(sectionCandidates))
	for _, c := range sectionCandidates {
		queryScore[c.SectionID] = c.Similarity
	}

	sectSet := make(map[string]struct{})
	for id := range keyScore {
		sectSet[id] = struct{}{}
	}
	for id := range queryScore {
		sectSet[id] = struct{}{}
	}
	sections := make([]string, 0, len(sectSet))
	for id := range sectSet {
		sections = append(sections, id)
	}

	if len(sections) < 2 {
		return finalizeWithoutGraph(tr, queryNode, cfg, sections, queryScore, keyScore, sectionCount, weightByEntity, stepsByEntity, typeByEntity, nameByEntity, eventEntities, eventIDs, sectionsByEvent)
	}

	// w0 initial weight (spec §4.7 step 2).
	w0 := make(map[string]float64, len(sections))
	for _, s := range sections {
		entityTerm := 0.0
		for entityID, count := range sectionCount[s] {
			avgSteps := math.Max(1, stepsByEntity[entityID])
			entityTerm += weightByEntity[entityID] * math.Log(1+float64(count)) / avgSteps
		}
		w0[s] = 0.5*queryScore[s] + math.Log(1+entityTerm)
	}

	// Graph: undirected edge if sections share an entity from final_entities.
	sectionEntities := make(map[string]map[string]struct{}, len(sections))
	for s := range sectionCount {
		m := make(map[string]struct{}, len(sectionCount[s]))
		for entityID := range sectionCount[s] {
			m[entityID] = struct{}{}
		}
		sectionEntities[s] = m
	}
	edges := make(map[string][]string, len(sections))
	for i, a := range sections {
		for j := i + 1; j < len(sections); j++ {
			b := sections[j]
			if shareEntity(sectionEntities[a], sectionEntities[b]) {
				edges[a] = append(edges[a], b)
				edges[b] = append(edges[b], a)
			}
		}
	}

	graph := pr.Graph{Nodes: sections, Edges: edges}
	stationary := pr.Personalized(graph, w0)

	return finalizeWithGraph(tr, queryNode, cfg, stationary, weightByEntity, typeByEntity, nameByEntity, eventEntities, eventIDs, sectionsByEvent, sections)
}

func shareEntity(a, b map[string]struct{}) bool {
	for id := range a {
		if _, ok := b[id]; ok {
			return true
		}
	}
	return false
}

// finalizeWithoutGraph handles the "fewer than two sections" edge case
// (spec §4.7 "Edge cases"): use w0-equivalent scores directly as ranking.
func finalizeWithoutGraph(
	tr *tracker.Tracker, queryNode types.EndpointNode, cfg *types.SearchConfig,
	sections []string, queryScore, keyScore map[string]float64, sectionCount map[string]map[string]int,
	weightByEntity, stepsByEntity map[string]float64, typeByEntity, nameByEntity map[string]string,
	eventEntities map[string]map[string]struct{}, eventIDs []string, sectionsByEvent map[string][]string,
) ([]Ranked, []RankedSection, types.RerankStats, error) {
	scores := make(map[string]float64, len(sections))
	for _, s := range sections {
		entityTerm := 0.0
		for entityID, count := range sectionCount[s] {
			avgSteps := math.Max(1, stepsByEntity[entityID])
			entityTerm += weightByEntity[entityID] * math.Log(1+float64(count)) / avgSteps
		}
		scores[s] = 0.5*queryScore[s] + math.Log(1+entityTerm)
	}
	return finalizeWithGraph(tr, queryNode, cfg, scores, weightByEntity, typeByEntity, nameByEntity, eventEntities, eventIDs, sectionsByEvent, sections)
}

func finalizeWithGraph(
	tr *tracker.Tracker, queryNode types.EndpointNode, cfg *types.SearchConfig,
	sectionScore map[string]float64, weightByEntity map[string]float64, typeByEntity, nameByEntity map[string]string,
	eventEntities map[string]map[string]struct{}, eventIDs []string, sectionsByEvent map[string][]string,
	allSections []string,
) ([]Ranked, []RankedSection, types.RerankStats, error) {
	eventScore := make(map[string]float64, len(eventIDs))
	for _, eventID := range eventIDs {
		sum := 0.0
		for _, sectionID := range sectionsByEvent[eventID] {
			sum += sectionScore[sectionID]
		}
		eventScore[eventID] = sum
	}
	sort.Slice(eventIDs, func(i, j int) bool {
		if eventScore[eventIDs[i]] != eventScore[eventIDs[j]] {
			return eventScore[eventIDs[i]] > eventScore[eventIDs[j]]
		}
		return eventIDs[i] < eventIDs[j]
	})
	if len(eventIDs) > cfg.Rerank.MaxResults {
		eventIDs = eventIDs[:cfg.Rerank.MaxResults]
	}

	maxEventScore := 0.0
	for _, s := range eventScore {
		if s > maxEventScore {
			maxEventScore = s
		}
	}

	out := make([]Ranked, 0, len(eventIDs))
	for _, eventID := range eventIDs {
		out = append(out, Ranked{EventID: eventID, Score: eventScore[eventID]})
		confidence := 0.0
		if maxEventScore > 0 {
			confidence = eventScore[eventID] / maxEventScore
		}
		eventNode := tr.MustGetOrCreateNode(types.NodeEvent, eventID, "ranked", "", "")
		contributingSections := sectionsByEvent[eventID]
		for _, entityID := range topContributingEntities(eventEntities[eventID], weightByEntity, 3) {
			entityNode := tr.MustGetOrCreateNode(types.NodeEntity, entityID, typeByEntity[entityID], nameByEntity[entityID], "")
			tr.AddClue(types.StageRerank, entityNode, eventNode, confidence, "pagerank", map[string]any{
				"pagerank_score":        eventScore[eventID],
				"contributing_sections": contributingSections,
			}, types.DisplayFinal)
		}
	}

	rankedSections := make([]RankedSection, 0)
	if cfg.ReturnType == types.ReturnTypeSection {
		sort.Slice(allSections, func(i, j int) bool {
			if sectionScore[allSections[i]] != sectionScore[allSections[j]] {
				return sectionScore[allSections[i]] > sectionScore[allSections[j]]
			}
			return allSections[i] < allSections[j]
		})
		if len(allSections) > cfg.Rerank.MaxResults {
			allSections = allSections[:cfg.Rerank.MaxResults]
		}
		for _, sectionID := range allSections {
			rankedSections = append(rankedSections, RankedSection{SectionID: sectionID, Score: sectionScore[sectionID]})
			sectionNode := tr.MustGetOrCreateNode(types.NodeSection, sectionID, "ranked", "", "")
			tr.AddClue(types.StageRerank, queryNode, sectionNode, sectionScore[sectionID], "pagerank",
				map[string]any{"pagerank_score": sectionScore[sectionID]}, types.DisplayFinal)
		}
	}

	return out, rankedSections, types.RerankStats{Strategy: types.RerankStrategyPageRank, EventsRanked: len(out)}, nil
}
