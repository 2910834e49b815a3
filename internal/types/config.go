package types

// RecallConfig holds the static tuning parameters for the Recall stage
// (spec §4.4). NewSearchConfig supplies the default values.
type RecallConfig struct {
	Enabled                    bool    `json:"enabled"`
	MaxEntities                int     `json:"max_entities"`
	EntitySimilarityThreshold  float64 `json:"entity_similarity_threshold"`
	EventSimilarityThreshold   float64 `json:"event_similarity_threshold"`
	VectorTopK                 int     `json:"vector_top_k"`
	VectorCandidates           int     `json:"vector_candidates"`
	UseFastMode                bool    `json:"use_fast_mode"`
	FinalEntityWeightThreshold float64 `json:"final_entity_weight_threshold"`
	TopN                       int     `json:"top_n"`
}

// ExpandConfig holds the static tuning parameters for the Expand stage
// (spec §4.5).
type ExpandConfig struct {
	Enabled                bool    `json:"enabled"`
	MaxHops                int     `json:"max_hops"`
	EntitiesPerHop         int     `json:"entities_per_hop"`
	WeightChangeThreshold  float64 `json:"weight_change_threshold"`
	EventSimilarityThreshold float64 `json:"event_similarity_threshold"`
	MinEventsPerHop        int     `json:"min_events_per_hop"`
	MaxEventsPerHop        int     `json:"max_events_per_hop"`
}

// RerankConfig holds the static tuning parameters shared by both Rerank
// strategies (spec §4.6, §4.7).
type RerankConfig struct {
	Strategy             RerankStrategy `json:"strategy"`
	ScoreThreshold       float64        `json:"score_threshold"`
	MaxResults           int            `json:"max_results"`
	PageRankSectionTopK  int            `json:"pagerank_section_top_k"`
	PageRankDamping      float64        `json:"pagerank_damping"`
	RRFK                 int            `json:"rrf_k"`
}

// FAQBoostConfig is an off-by-default supplement (SPEC_FULL.md §D.1). It is
// accepted on the request and carried on SearchConfig, but neither Rerank
// strategy reads it: no FAQ score boost is applied.
type FAQBoostConfig struct {
	Enabled   bool    `json:"enabled"`
	Threshold float64 `json:"threshold"`
	Boost     float64 `json:"boost"`
}

// HistoryTurn is one prior query/answer pair; the Query Preparer replays the
// turns as user/assistant messages in its rewrite prompt (SPEC_FULL.md §D.2).
// Optional; empty by default.
type HistoryTurn struct {
	Query  string `json:"query"`
	Answer string `json:"answer"`
}

// ExtractedAttribute is one LLM-proposed entity hint produced by the Query
// Preparer in non-fast mode (spec §4.3 step 3).
type ExtractedAttribute struct {
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Weight float64 `json:"weight"`
}

// SearchConfig is the runtime entity owned by a single search call: the
// three static sub-configs plus the query/runtime context (spec §3.3).
// It is created once per call and discarded at the end of the call.
type SearchConfig struct {
	Recall RecallConfig `json:"recall"`
	Expand ExpandConfig `json:"expand"`
	Rerank RerankConfig `json:"rerank"`
	FAQ    FAQBoostConfig `json:"faq,omitempty"`

	OriginalQuery      string   `json:"original_query"`
	Query              string   `json:"query"` // current, possibly rewritten
	SourceConfigIDs    []string `json:"source_config_ids"`
	ArticleID          string   `json:"article_id,omitempty"`
	Background         string   `json:"background,omitempty"`
	ReturnType         ReturnType `json:"return_type"`
	EnableQueryRewrite bool     `json:"enable_query_rewrite"`
	History            []HistoryTurn `json:"history,omitempty"`

	// Runtime fields populated by the Query Preparer.
	QueryEmbedding      []float32             `json:"-"`
	ExtractedAttributes []ExtractedAttribute  `json:"-"`
}

// Validate implements the ConfigurationError checks from spec §7.
func (c *SearchConfig) Validate() error {
	if c.OriginalQuery == "" && c.Query == "" {
		return errConfig("query is required")
	}
	if len(c.SourceConfigIDs) == 0 {
		return errConfig("source_config_ids is required and must contain at least one id")
	}
	return nil
}

type configError string

func (e configError) Error() string { return string(e) }

func errConfig(msg string) error { return configError(msg) }

// NewSearchConfig returns a fresh SearchConfig holding the documented
// defaults from spec §6.1, including the booleans that default to true.
// Callers fill in the query fields and override tunables on the result.
func NewSearchConfig() *SearchConfig {
	return &SearchConfig{
		Recall: RecallConfig{
			Enabled:                   true,
			MaxEntities:               25,
			EntitySimilarityThreshold: 0.4,
			EventSimilarityThreshold:  0.3,
			VectorTopK:                15,
			VectorCandidates:          20,
			UseFastMode:               true,
		},
		Expand: ExpandConfig{
			Enabled:                  true,
			MaxHops:                  3,
			EntitiesPerHop:           10,
			WeightChangeThreshold:    0.1,
			EventSimilarityThreshold: 0.3,
			MinEventsPerHop:          5,
			MaxEventsPerHop:          100,
		},
		Rerank: RerankConfig{
			Strategy:            RerankStrategyRRF,
			ScoreThreshold:      0.5,
			MaxResults:          10,
			PageRankSectionTopK: 15,
			PageRankDamping:     0.85,
			RRFK:                60,
		},
		ReturnType: ReturnTypeEvent,
	}
}
