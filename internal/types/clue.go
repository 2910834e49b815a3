package types

// NodeType enumerates the endpoint kinds a Clue can connect (spec §3.3).
type NodeType string

const (
	NodeQuery  NodeType = "query"
	NodeEntity NodeType = "entity"
	NodeEvent  NodeType = "event"
	NodeSection NodeType = "section"
)

// Stage enumerates the pipeline stage that emitted a Clue (spec §3.3).
type Stage string

const (
	StagePrepare Stage = "prepare"
	StageRecall  Stage = "recall"
	StageExpand  Stage = "expand"
	StageRerank  Stage = "rerank"
)

// DisplayLevel advises downstream visualization whether to render a clue by
// default (spec §3.3, GLOSSARY).
type DisplayLevel string

const (
	DisplayFinal        DisplayLevel = "final"
	DisplayIntermediate DisplayLevel = "intermediate"
	DisplayDebug        DisplayLevel = "debug"
)

// EndpointNode is a uniform record identifying the query, an entity, an
// event, or a section (spec §3.3). Nodes are singletons within one search
// call: the Tracker enforces this via its node cache.
type EndpointNode struct {
	ID          string   `json:"id"`
	Type        NodeType `json:"type"`
	Category    string   `json:"category"`
	Content     string   `json:"content"`
	Description string   `json:"description,omitempty"`
}

// Clue is one edge in the provenance graph (spec §3.3).
type Clue struct {
	ID           string         `json:"id"`
	Stage        Stage          `json:"stage"`
	From         EndpointNode   `json:"from"`
	To           EndpointNode   `json:"to"`
	Confidence   float64        `json:"confidence"`
	Relation     string         `json:"relation"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	DisplayLevel DisplayLevel   `json:"display_level"`
}

// WeightedEntity is a scored entity threaded through Recall and Expand
// (spec §3.3). Steps records the hop indices at which it was touched.
type WeightedEntity struct {
	EntityID string  `json:"entity_id"`
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Weight   float64 `json:"weight"`
	Steps    []int   `json:"steps"`
}

// AvgSteps returns the mean of Steps, or 1 if empty, used by the PageRank
// strategy's w0 damping term (spec §4.7 step 2).
func (w *WeightedEntity) AvgSteps() float64 {
	if len(w.Steps) == 0 {
		return 1
	}
	sum := 0
	for _, s := range w.Steps {
		sum += s
	}
	return float64(sum) / float64(len(w.Steps))
}

// RecallStats reports per-stage counters for the search response (spec §6.1).
type RecallStats struct {
	EntitiesFound  int     `json:"entities_found"`
	EntitiesPassed int     `json:"entities_passed"`
	DurationMS     float64 `json:"duration_ms"`
}

// ExpandStats reports per-stage counters for the search response (spec §6.1).
type ExpandStats struct {
	HopsExecuted       int     `json:"hops_executed"`
	EntitiesDiscovered int     `json:"entities_discovered"`
	Converged          bool    `json:"converged"`
	DurationMS         float64 `json:"duration_ms"`
}

// RerankStats reports per-stage counters for the search response (spec §6.1).
type RerankStats struct {
	Strategy    RerankStrategy `json:"strategy"`
	EventsRanked int           `json:"events_ranked"`
	DurationMS   float64       `json:"duration_ms"`
}

// SearchStats aggregates the three stage stats plus degraded-mode warnings
// (spec §7 "a populated data.stats.warnings array on degraded paths").
type SearchStats struct {
	Recall   RecallStats   `json:"recall"`
	Expand   ExpandStats   `json:"expand"`
	Rerank   RerankStats   `json:"rerank"`
	Warnings []string      `json:"warnings,omitempty"`
}

// QueryInfo reports what the Query Preparer did (spec §6.1).
type QueryInfo struct {
	Original           string `json:"original"`
	Current            string `json:"current"`
	Rewritten          bool   `json:"rewritten"`
	EmbeddingGenerated bool   `json:"embedding_generated"`
}

// SearchResult is the top-level payload returned by Searcher.Search (spec §4.8).
type SearchResult struct {
	Events   []*Event        `json:"events,omitempty"`
	Sections []*ArticleSection `json:"sections,omitempty"`
	Clues    []Clue          `json:"clues"`
	Stats    SearchStats     `json:"stats"`
	Query    QueryInfo       `json:"query"`
}
