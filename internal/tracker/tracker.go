// Package tracker implements the Tracker component from spec §4.1: it
// accumulates clues, deduplicates endpoint nodes, and assigns stable IDs
// for one search call. A Tracker is created at the start of Searcher.Search
// and discarded at its end (spec §3.5); it has a single owner and needs no
// locking per call, matching the teacher's per-request ChatManage lifecycle.
package tracker

import (
	"github.com/google/uuid"

	"github.com/Tencent/kgsearch/internal/apperr"
	"github.com/Tencent/kgsearch/internal/types"
)

// dnsNamespace is the fixed uuid5 namespace used for deterministic query
// node IDs (spec §3.4 invariant 2: "uuid5(DNS_NAMESPACE, query_text)").
var dnsNamespace = uuid.NameSpaceDNS

type nodeKey struct {
	typ types.NodeType
	id  string
}

// Tracker accumulates the clue list and node cache for one search call.
type Tracker struct {
	clues []types.Clue
	nodes map[nodeKey]types.EndpointNode
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{nodes: make(map[nodeKey]types.EndpointNode)}
}

// GetOrCreateNode is idempotent in (type, id): spec §4.1. A second call with
// the same (type, id) but different content/category is a programming
// error and is rejected with an InvariantViolation (spec §5 "Node cache").
func (t *Tracker) GetOrCreateNode(
	typ types.NodeType, id, category, content, description string,
) (types.EndpointNode, error) {
	key := nodeKey{typ: typ, id: id}
	if existing, ok := t.nodes[key]; ok {
		if existing.Content != content || existing.Category != category {
			return types.EndpointNode{}, apperr.Invariant(
				"conflicting content for existing node",
				map[string]any{"type": typ, "id": id},
			)
		}
		return existing, nil
	}
	node := types.EndpointNode{
		ID: id, Type: typ, Category: category, Content: content, Description: description,
	}
	t.nodes[key] = node
	return node, nil
}

// MustGetOrCreateNode panics on InvariantViolation. Used at call sites that
// pass the same category and content on every call for a given (type, id),
// so a conflicting second call panics instead of returning an error.
func (t *Tracker) MustGetOrCreateNode(
	typ types.NodeType, id, category, content, description string,
) types.EndpointNode {
	node, err := t.GetOrCreateNode(typ, id, category, content, description)
	if err != nil {
		panic(err)
	}
	return node
}

// BuildQueryNode builds (or reuses) the query endpoint node. Category is
// "rewrite" iff original differs from current, else "origin" (spec §4.1).
func (t *Tracker) BuildQueryNode(original, current string) types.EndpointNode {
	id := uuid.NewSHA1(dnsNamespace, []byte(current)).String()
	category := "origin"
	if original != "" && original != current {
		category = "rewrite"
	}
	return t.MustGetOrCreateNode(types.NodeQuery, id, category, current, "")
}

// AddClue appends a new clue with a random uuid4 ID in insertion order
// (spec §4.1, §5 "Ordering guarantees").
func (t *Tracker) AddClue(
	stage types.Stage, from, to types.EndpointNode, confidence float64,
	relation string, metadata map[string]any, display types.DisplayLevel,
) types.Clue {
	confidence = clamp01(confidence)
	clue := types.Clue{
		ID:           uuid.NewString(),
		Stage:        stage,
		From:         from,
		To:           to,
		Confidence:   confidence,
		Relation:     relation,
		Metadata:     metadata,
		DisplayLevel: display,
	}
	t.clues = append(t.clues, clue)
	return clue
}

// Clues returns the ordered clue list (spec §4.1).
func (t *Tracker) Clues() []types.Clue {
	out := make([]types.Clue, len(t.clues))
	copy(out, t.clues)
	return out
}

// StageCounts returns the number of clues emitted per stage, used for
// lightweight diagnostics (spec §4.1 "stats() -> per-stage counts").
func (t *Tracker) StageCounts() map[types.Stage]int {
	counts := make(map[types.Stage]int, 4)
	for _, c := range t.clues {
		counts[c.Stage]++
	}
	return counts
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// QueryNodeID returns the deterministic ID that BuildQueryNode would assign,
// without mutating the node cache. Exposed for tests exercising P3.
func QueryNodeID(query string) string {
	return uuid.NewSHA1(dnsNamespace, []byte(query)).String()
}
