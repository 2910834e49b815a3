package tracker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tencent/kgsearch/internal/tracker"
	"github.com/Tencent/kgsearch/internal/types"
)

func TestBuildQueryNode_DeterministicID(t *testing.T) {
	t1 := tracker.New()
	t2 := tracker.New()

	n1 := t1.BuildQueryNode("", "machine learning")
	n2 := t2.BuildQueryNode("", "machine learning")

	assert.Equal(t, n1.ID, n2.ID, "P3: identical queries must produce identical query node IDs")
	assert.Equal(t, "origin", n1.Category)
}

func TestBuildQueryNode_RewriteCategory(t *testing.T) {
	tr := tracker.New()
	n := tr.BuildQueryNode("ml", "machine learning basics")
	assert.Equal(t, "rewrite", n.Category)
}

func TestGetOrCreateNode_Idempotent(t *testing.T) {
	tr := tracker.New()
	n1, err := tr.GetOrCreateNode(types.NodeEntity, "ent_1", "topic", "machine learning", "")
	require.NoError(t, err)
	n2, err := tr.GetOrCreateNode(types.NodeEntity, "ent_1", "topic", "machine learning", "")
	require.NoError(t, err)
	assert.Equal(t, n1, n2)
}

func TestGetOrCreateNode_ConflictingContentIsInvariantViolation(t *testing.T) {
	tr := tracker.New()
	_, err := tr.GetOrCreateNode(types.NodeEntity, "ent_1", "topic", "machine learning", "")
	require.NoError(t, err)
	_, err = tr.GetOrCreateNode(types.NodeEntity, "ent_1", "topic", "deep learning", "")
	require.Error(t, err)
}

func TestAddClue_ConfidenceClamped(t *testing.T) {
	tr := tracker.New()
	from := tr.MustGetOrCreateNode(types.NodeQuery, "q1", "origin", "query", "")
	to := tr.MustGetOrCreateNode(types.NodeEntity, "e1", "topic", "entity", "")

	c := tr.AddClue(types.StageRecall, from, to, 1.5, "semantic similarity", nil, types.DisplayFinal)
	assert.Equal(t, 1.0, c.Confidence)

	c2 := tr.AddClue(types.StageRecall, from, to, -0.2, "semantic similarity", nil, types.DisplayFinal)
	assert.Equal(t, 0.0, c2.Confidence)
}

func TestClues_InsertionOrderPreserved(t *testing.T) {
	tr := tracker.New()
	q := tr.MustGetOrCreateNode(types.NodeQuery, "q1", "origin", "query", "")
	e1 := tr.MustGetOrCreateNode(types.NodeEntity, "e1", "topic", "a", "")
	e2 := tr.MustGetOrCreateNode(types.NodeEntity, "e2", "topic", "b", "")

	tr.AddClue(types.StageRecall, q, e1, 0.9, "semantic similarity", nil, types.DisplayFinal)
	tr.AddClue(types.StageRecall, q, e2, 0.8, "semantic similarity", nil, types.DisplayFinal)

	clues := tr.Clues()
	require.Len(t, clues, 2)
	assert.Equal(t, "e1", clues[0].To.ID)
	assert.Equal(t, "e2", clues[1].To.ID)
}
