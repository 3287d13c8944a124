package handlers

import (
	"context"
	"net/http"

	"github.com/andresuchdata/budget-engine/backend-go/internal/pipeline"
	"github.com/gin-gonic/gin"
)

// Poller runs one pass over the remote movement source.
type Poller interface {
	Poll(ctx context.Context) ([]string, error)
}

// RunLister lists recent ingest runs.
type RunLister interface {
	RecentRuns(ctx context.Context, limit int) ([]*pipeline.PipelineRun, error)
}

type IngestHandler struct {
	poller Poller
	runs   RunLister
}

// NewIngestHandler accepts a nil poller when no remote source is configured.
func NewIngestHandler(poller Poller, runs RunLister) *IngestHandler {
	return &IngestHandler{poller: poller, runs: runs}
}

func (h *IngestHandler) Sync(c *gin.Context) {
	if h.poller == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no remote source configured"})
		return
	}
	files, err := h.poller.Poll(c.Request.Context())
	if err != nil {
		respondError(c, "failed to sync movements", err)
		return
	}
	if files == nil {
		files = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"files": files, "count": len(files)})
}

func (h *IngestHandler) GetRuns(c *gin.Context) {
	runs, err := h.runs.RecentRuns(c.Request.Context(), parsePositiveIntWithDefault(c.Query("limit"), 20))
	if err != nil {
		respondError(c, "failed to fetch ingest runs", err)
		return
	}
	if runs == nil {
		runs = []*pipeline.PipelineRun{}
	}
	c.JSON(http.StatusOK, runs)
}
