package client

import (
	"context"
	"net/http"
)

// SearchRequest mirrors the server's POST /api/v1/search wire shape. Request
// types are duplicated here rather than imported from internal/types so this
// package stays usable as a standalone SDK, independent of the server's
// package layout.
type SearchRequest struct {
	Query              string         `json:"query"`
	SourceConfigIDs    []string       `json:"source_config_ids"`
	ArticleID          string         `json:"article_id,omitempty"`
	Background         string         `json:"background,omitempty"`
	ReturnType         string         `json:"return_type,omitempty"`
	EnableQueryRewrite *bool          `json:"enable_query_rewrite,omitempty"`
	History            []HistoryTurn  `json:"history,omitempty"`
}

// HistoryTurn is one prior query/answer pair given to the Query Preparer's
// rewrite prompt.
type HistoryTurn struct {
	Query  string `json:"query"`
	Answer string `json:"answer"`
}

// Event is a search hit hydrated from the event store.
type Event struct {
	ID         string   `json:"id"`
	ArticleID  string   `json:"article_id"`
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	Content    string   `json:"content"`
	Category   string   `json:"category"`
	References []string `json:"references,omitempty"`
}

// ArticleSection is a search hit hydrated from the section store.
type ArticleSection struct {
	ID        string `json:"id"`
	ArticleID string `json:"article_id"`
	Heading   string `json:"heading"`
	Content   string `json:"content"`
	Rank      int    `json:"rank"`
}

// Clue is one provenance edge recorded by the Tracker.
type Clue struct {
	Type       string         `json:"type"`
	SourceID   string         `json:"source_id,omitempty"`
	TargetID   string         `json:"target_id"`
	Stage      string         `json:"stage"`
	Weight     float64        `json:"weight,omitempty"`
	Reason     string         `json:"reason,omitempty"`
}

// SearchStats reports per-stage counters and any degraded-path warnings.
type SearchStats struct {
	Recall   map[string]any `json:"recall"`
	Expand   map[string]any `json:"expand"`
	Rerank   map[string]any `json:"rerank"`
	Warnings []string       `json:"warnings,omitempty"`
}

// QueryInfo reports what the Query Preparer did to the request's query.
type QueryInfo struct {
	Original           string `json:"original"`
	Current            string `json:"current"`
	Rewritten          bool   `json:"rewritten"`
	EmbeddingGenerated bool   `json:"embedding_generated"`
}

// SearchResult is the top-level payload of a successful search.
type SearchResult struct {
	Events   []Event          `json:"events,omitempty"`
	Sections []ArticleSection `json:"sections,omitempty"`
	Clues    []Clue           `json:"clues"`
	Stats    SearchStats      `json:"stats"`
	Query    QueryInfo        `json:"query"`
}

type searchResponse struct {
	Success bool         `json:"success"`
	Data    SearchResult `json:"data"`
}

// Search runs one Recall/Expand/Rerank pipeline call against the server.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/v1/search", req)
	if err != nil {
		return nil, err
	}
	var out searchResponse
	if err := parseResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

type systemInfoResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Version      string `json:"version"`
		VectorDriver string `json:"vector_driver"`
		StoreReady   bool   `json:"store_ready"`
	} `json:"data"`
}

// SystemInfo reports the server's build version and backend configuration.
func (c *Client) SystemInfo(ctx context.Context) (version, vectorDriver string, storeReady bool, err error) {
	resp, reqErr := c.doRequest(ctx, http.MethodGet, "/api/v1/system/info", nil)
	if reqErr != nil {
		return "", "", false, reqErr
	}
	var out systemInfoResponse
	if err := parseResponse(resp, &out); err != nil {
		return "", "", false, err
	}
	return out.Data.Version, out.Data.VectorDriver, out.Data.StoreReady, nil
}
