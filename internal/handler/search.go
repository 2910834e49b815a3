// Package handler implements the HTTP surface over the search core,
// following the teacher's handler package: one constructor-injected struct
// per resource, gin.Context-bound methods, swaggo doc-comment annotations.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Tencent/kgsearch/internal/apperr"
	"github.com/Tencent/kgsearch/internal/logger"
	"github.com/Tencent/kgsearch/internal/search"
	"github.com/Tencent/kgsearch/internal/types"
)

// SearchHandler exposes the Recall/Expand/Rerank pipeline over HTTP.
type SearchHandler struct {
	searcher *search.Searcher
}

// NewSearchHandler wraps an already-wired Searcher facade.
func NewSearchHandler(searcher *search.Searcher) *SearchHandler {
	return &SearchHandler{searcher: searcher}
}

// searchRequest is the wire shape of POST /api/v1/search, mapped onto
// types.SearchConfig by buildConfig (spec §6.1 "Request fields").
type searchRequest struct {
	Query              string              `json:"query" binding:"required"`
	SourceConfigIDs    []string            `json:"source_config_ids" binding:"required"`
	ArticleID          string              `json:"article_id,omitempty"`
	Background         string              `json:"background,omitempty"`
	ReturnType         types.ReturnType    `json:"return_type,omitempty"`
	EnableQueryRewrite *bool               `json:"enable_query_rewrite,omitempty"`
	History            []types.HistoryTurn `json:"history,omitempty"`

	Recall *types.RecallConfig `json:"recall,omitempty"`
	Expand *types.ExpandConfig `json:"expand,omitempty"`
	Rerank *types.RerankConfig `json:"rerank,omitempty"`
	FAQ    *types.FAQBoostConfig `json:"faq,omitempty"`
}

// buildConfig layers the request's overrides on top of the documented
// defaults (spec §6.1), leaving any sub-config the caller omitted untouched.
// Search binds the request into sub-configs pre-filled with the defaults, so
// a field omitted inside a supplied sub-config also keeps its default.
func (r *searchRequest) buildConfig() *types.SearchConfig {
	cfg := types.NewSearchConfig()
	cfg.OriginalQuery = r.Query
	cfg.Query = r.Query
	cfg.SourceConfigIDs = r.SourceConfigIDs
	cfg.ArticleID = r.ArticleID
	cfg.Background = r.Background
	cfg.History = r.History
	if r.ReturnType != "" {
		cfg.ReturnType = r.ReturnType
	}
	if r.EnableQueryRewrite != nil {
		cfg.EnableQueryRewrite = *r.EnableQueryRewrite
	}
	if r.Recall != nil {
		cfg.Recall = *r.Recall
	}
	if r.Expand != nil {
		cfg.Expand = *r.Expand
	}
	if r.Rerank != nil {
		cfg.Rerank = *r.Rerank
	}
	if r.FAQ != nil {
		cfg.FAQ = *r.FAQ
	}
	return cfg
}

// Search godoc
// @Summary      Run a Recall/Expand/Rerank search
// @Description  Executes the knowledge-graph search pipeline for one query
// @Tags         search
// @Accept       json
// @Produce      json
// @Param        request body searchRequest true "search parameters"
// @Success      200 {object} map[string]any
// @Failure      400 {object} map[string]any
// @Failure      502 {object} map[string]any
// @Failure      504 {object} map[string]any
// @Router       /api/v1/search [post]
func (h *SearchHandler) Search(c *gin.Context) {
	ctx := logger.CloneContext(c.Request.Context())

	defaults := types.NewSearchConfig()
	req := searchRequest{Recall: &defaults.Recall, Expand: &defaults.Expand, Rerank: &defaults.Rerank}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.Configuration(err.Error()))
		return
	}

	result, err := h.searcher.Search(ctx, req.buildConfig())
	if err != nil {
		logger.Errorf(ctx, "search failed: %v", err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

// writeError renders the {success, data, error} envelope (spec §6.1), using
// apperr.Kind.HTTPStatus to pick the status code.
func writeError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Invariant(err.Error(), nil)
	}
	c.JSON(appErr.Kind.HTTPStatus(), gin.H{
		"success": false,
		"error": gin.H{
			"code":    string(appErr.Kind),
			"message": appErr.Message,
			"details": appErr.Details,
		},
	})
}
