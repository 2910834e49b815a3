// Package bm25 implements standard Okapi BM25 scoring built fresh from the
// candidate set on every call (spec §4.6: "The BM25 index is built per-call
// from the candidate events, not from the global corpus").
package bm25

import "math"

// Params holds the two standard BM25 tuning constants (spec §4.6).
type Params struct {
	K1 float64
	B  float64
}

// DefaultParams matches spec §4.6's fixed constants.
var DefaultParams = Params{K1: 1.5, B: 0.75}

// Index is a BM25 index over a fixed, small document set.
type Index struct {
	params  Params
	docs    map[string][]string
	docLens map[string]int
	avgLen  float64
	df      map[string]int // document frequency per term
	n       int
}

// New builds a BM25 index over docs (id -> tokenized content).
func New(docs map[string][]string, params Params) *Index {
	idx := &Index{params: params, docs: docs, docLens: map[string]int{}, df: map[string]int{}, n: len(docs)}
	total := 0
	for id, tokens := range docs {
		idx.docLens[id] = len(tokens)
		total += len(tokens)
		seen := map[string]struct{}{}
		for _, t := range tokens {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			idx.df[t]++
		}
	}
	if idx.n > 0 {
		idx.avgLen = float64(total) / float64(idx.n)
	}
	return idx
}

// idf is the standard BM25 inverse document frequency with the +1 floor so
// terms present in every document never go negative.
func (idx *Index) idf(term string) float64 {
	df := idx.df[term]
	return math.Log(1 + (float64(idx.n)-float64(df)+0.5)/(float64(df)+0.5))
}

func termFreqs(tokens []string) map[string]int {
	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	return tf
}

// Score returns the BM25 score of docID against queryTokens.
func (idx *Index) Score(docID string, queryTokens []string) float64 {
	tokens, ok := idx.docs[docID]
	if !ok {
		return 0
	}
	tf := termFreqs(tokens)
	docLen := float64(idx.docLens[docID])
	score := 0.0
	for _, term := range queryTokens {
		f, ok := tf[term]
		if !ok {
			continue
		}
		num := float64(f) * (idx.params.K1 + 1)
		denom := float64(f) + idx.params.K1*(1-idx.params.B+idx.params.B*docLen/idx.avgLen)
		score += idx.idf(term) * num / denom
	}
	return score
}

// RankAll scores every document in the index against queryTokens and
// returns IDs sorted by descending score.
func (idx *Index) RankAll(queryTokens []string) []ScoredDoc {
	out := make([]ScoredDoc, 0, len(idx.docs))
	for id := range idx.docs {
		out = append(out, ScoredDoc{ID: id, Score: idx.Score(id, queryTokens)})
	}
	sortDescending(out)
	return out
}

// ScoredDoc pairs a document ID with its BM25 score.
type ScoredDoc struct {
	ID    string
	Score float64
}

func sortDescending(docs []ScoredDoc) {
	// Insertion sort is fine: candidate sets here are bounded by
	// config.recall.max_entities * a small constant, never corpus-sized.
	for i := 1; i < len(docs); i++ {
		for j := i; j > 0 && docs[j].Score > docs[j-1].Score; j-- {
			docs[j], docs[j-1] = docs[j-1], docs[j]
		}
	}
}
