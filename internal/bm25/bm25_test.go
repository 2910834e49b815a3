package bm25_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Tencent/kgsearch/internal/bm25"
)

func docs() map[string][]string {
	return map[string][]string{
		"d1": {"machine", "learning", "basics"},
		"d2": {"deep", "learning", "networks"},
		"d3": {"gardening", "tips"},
	}
}

func TestScore_RewardsTermOverlap(t *testing.T) {
	idx := bm25.New(docs(), bm25.DefaultParams)

	s1 := idx.Score("d1", []string{"machine", "learning"})
	s2 := idx.Score("d2", []string{"machine", "learning"})
	s3 := idx.Score("d3", []string{"machine", "learning"})

	assert.Greater(t, s1, s2)
	assert.Greater(t, s2, s3)
	assert.Equal(t, 0.0, s3)
}

func TestScore_UnknownDocumentIsZero(t *testing.T) {
	idx := bm25.New(docs(), bm25.DefaultParams)
	assert.Equal(t, 0.0, idx.Score("missing", []string{"machine"}))
}

func TestRankAll_DescendingOrder(t *testing.T) {
	idx := bm25.New(docs(), bm25.DefaultParams)
	ranked := idx.RankAll([]string{"learning"})

	require := assert.New(t)
	require.Len(ranked, 3)
	for i := 1; i < len(ranked); i++ {
		require.GreaterOrEqual(ranked[i-1].Score, ranked[i].Score)
	}
}

func TestRankAll_EmptyIndex(t *testing.T) {
	idx := bm25.New(map[string][]string{}, bm25.DefaultParams)
	assert.Empty(t, idx.RankAll([]string{"anything"}))
}
