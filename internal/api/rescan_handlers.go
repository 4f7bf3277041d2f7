package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rawblock/fraudnet-engine/internal/graph"
)

// POST /api/v1/rescan
// Launches a background rescan of stored analysis runs, typically after a
// legitimacy keyword list changes. Body {"run_ids": [...]} rescans just
// those runs; an empty or omitted list rescans every stored run.
func (h *APIHandler) handleStartRescan(c *gin.Context) {
	if h.rescanner == nil || h.dbStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "rescanner not initialized"})
		return
	}

	var req struct {
		RunIDs []string `json:"run_ids"`
	}
	_ = c.ShouldBindJSON(&req)

	runIDs := req.RunIDs
	if len(runIDs) == 0 {
		ids, err := h.dbStore.ListRunIDs(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs: " + err.Error()})
			return
		}
		runIDs = ids
	}

	previousCounts := make(map[string]int, len(runIDs))
	for _, id := range runIDs {
		if count, err := h.dbStore.CountRings(c.Request.Context(), id); err == nil {
			previousCounts[id] = count
		}
	}

	h.rescanner.ScanRuns(context.Background(), runIDs, graph.DefaultLegitimacyConfig(), previousCounts)

	c.JSON(http.StatusOK, gin.H{"status": "rescan_started", "run_count": len(runIDs)})
}

// GET /api/v1/rescan/progress
func (h *APIHandler) handleRescanProgress(c *gin.Context) {
	if h.rescanner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "rescanner not initialized"})
		return
	}
	c.JSON(http.StatusOK, h.rescanner.GetProgress())
}
