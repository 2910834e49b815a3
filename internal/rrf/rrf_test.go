package rrf_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Tencent/kgsearch/internal/rrf"
)

func TestFuse_SumsReciprocalRanks(t *testing.T) {
	scores := rrf.Fuse([]rrf.Ranking{
		{"a", "b", "c"},
		{"b", "a"},
	}, 60)

	assert.InDelta(t, 1.0/61+1.0/62, scores["a"], 1e-9)
	assert.InDelta(t, 1.0/62+1.0/61, scores["b"], 1e-9)
	assert.InDelta(t, 1.0/63, scores["c"], 1e-9)
}

func TestFuse_AbsentDocumentContributesZero(t *testing.T) {
	scores := rrf.Fuse([]rrf.Ranking{{"a"}}, 60)
	assert.Equal(t, 0.0, scores["missing"])
}

func TestSorted_DescendingByScoreThenAscendingID(t *testing.T) {
	scores := map[string]float64{"z": 0.5, "a": 0.5, "m": 0.9}
	assert.Equal(t, []string{"m", "a", "z"}, rrf.Sorted(scores))
}

func TestSorted_Empty(t *testing.T) {
	assert.Empty(t, rrf.Sorted(map[string]float64{}))
}
