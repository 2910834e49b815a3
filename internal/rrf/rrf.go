// Package rrf implements Reciprocal Rank Fusion, combining multiple ranked
// lists of the same candidate set into a single fused ranking (spec §4.6
// step 4: "fuse the lexical and vector rankings with RRF").
package rrf

// Ranking is one ranked list: IDs ordered best-first. Ties in the source
// ranking are broken by the caller before handing the list here.
type Ranking []string

// Fuse combines rankings with the standard RRF formula
// score(d) = sum_over_rankings( 1 / (k + rank(d)) ), rank is 1-based.
// Documents absent from a ranking contribute 0 for that ranking.
func Fuse(rankings []Ranking, k int) map[string]float64 {
	scores := make(map[string]float64)
	for _, ranking := range rankings {
		for i, id := range ranking {
			rank := i + 1
			scores[id] += 1.0 / float64(k+rank)
		}
	}
	return scores
}

// Sorted returns document IDs ordered by descending fused score, breaking
// ties by ascending ID for determinism (spec §4.8 "tie-break by event_id
// ascending").
func Sorted(scores map[string]float64) []string {
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0; j-- {
			a, b := ids[j-1], ids[j]
			if scores[a] > scores[b] || (scores[a] == scores[b] && a <= b) {
				break
			}
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}
