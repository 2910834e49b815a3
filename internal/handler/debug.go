package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Tencent/kgsearch/internal/apperr"
	"github.com/Tencent/kgsearch/internal/store/postgres"
)

// DebugHandler exposes sqlguard-validated, read-only SQL queries against
// the relational store for incident debugging — an operator tool, not
// part of the search path.
type DebugHandler struct {
	store *postgres.SQLStore
}

// NewDebugHandler wraps the relational store's DebugQuery.
func NewDebugHandler(store *postgres.SQLStore) *DebugHandler {
	return &DebugHandler{store: store}
}

type debugQueryRequest struct {
	SQL             string   `json:"sql" binding:"required"`
	SourceConfigIDs []string `json:"source_config_ids" binding:"required"`
}

// RunQuery godoc
// @Summary      Run an allowlisted read-only SQL debug query
// @Tags         debug
// @Accept       json
// @Produce      json
// @Param        request body debugQueryRequest true "debug query"
// @Success      200 {object} map[string]any
// @Failure      400 {object} map[string]any
// @Router       /api/v1/debug/query [post]
func (h *DebugHandler) RunQuery(c *gin.Context) {
	var req debugQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.Configuration(err.Error()))
		return
	}

	rows, err := h.store.DebugQuery(c.Request.Context(), req.SQL, req.SourceConfigIDs)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": rows})
}
