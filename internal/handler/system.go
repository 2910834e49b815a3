package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Tencent/kgsearch/internal/config"
)

// SystemHandler reports build/version and backend configuration, following
// the teacher's handler/system.go GetSystemInfo shape (SPEC_FULL.md §D.4).
type SystemHandler struct {
	cfg *config.Config
}

// NewSystemHandler wraps the loaded configuration.
func NewSystemHandler(cfg *config.Config) *SystemHandler {
	return &SystemHandler{cfg: cfg}
}

// Build-time version metadata, set via -ldflags in the release build, as
// in the teacher's handler.Version/CommitID/BuildTime vars.
var (
	Version   = "dev"
	CommitID  = "unknown"
	BuildTime = "unknown"
)

type systemInfoResponse struct {
	Version       string `json:"version"`
	CommitID      string `json:"commit_id,omitempty"`
	BuildTime     string `json:"build_time,omitempty"`
	VectorDriver  string `json:"vector_driver"`
	StoreReady    bool   `json:"store_ready"`
}

// GetSystemInfo godoc
// @Summary      Report build version and backend configuration
// @Tags         system
// @Produce      json
// @Success      200 {object} map[string]any
// @Router       /api/v1/system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": systemInfoResponse{
			Version:      Version,
			CommitID:     CommitID,
			BuildTime:    BuildTime,
			VectorDriver: h.cfg.Vector.Driver,
			StoreReady:   h.cfg.Postgres.DSN != "",
		},
	})
}
