package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rawblock/fraudnet-engine/internal/casework"
	"github.com/rawblock/fraudnet-engine/internal/graph"
	"github.com/rawblock/fraudnet-engine/pkg/models"
)

// POST /api/v1/investigation
// Opens a new investigation case scoped to a prior analysis run, seeded
// from a set of accounts (typically one ring's members).
func (h *APIHandler) handleCreateInvestigation(c *gin.Context) {
	var req createInvestigationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	caseID := fmt.Sprintf("CASE-%d", time.Now().UnixNano())
	inv := h.invManager.Create(caseID, req.RunID, req.Name, req.Description, req.SeedAccounts)

	if h.dbStore != nil {
		if err := h.dbStore.SaveInvestigation(c.Request.Context(), caseID, req.RunID, req.Name, req.Description); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist investigation: " + err.Error()})
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{"status": "created", "investigation": inv})
}

// GET /api/v1/investigation/:id
func (h *APIHandler) handleGetInvestigation(c *gin.Context) {
	inv := h.invManager.Get(c.Param("id"))
	if inv == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "investigation not found"})
		return
	}
	c.JSON(http.StatusOK, inv)
}

// POST /api/v1/investigation/:id/trace
// Runs a fund-flow trace from the case's seed accounts over the case's
// analysis run, using that run's persisted transaction batch.
func (h *APIHandler) handleRunTrace(c *gin.Context) {
	caseID := c.Param("id")
	inv := h.invManager.Get(caseID)
	if inv == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "investigation not found"})
		return
	}
	if h.dbStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not connected"})
		return
	}

	var req traceRequest
	_ = c.ShouldBindJSON(&req)
	cfg := graph.DefaultTraceConfig()
	if req.MaxHops > 0 {
		cfg.MaxHops = req.MaxHops
	}

	txns, err := h.dbStore.LoadRunTransactions(c.Request.Context(), inv.RunID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load run: " + err.Error()})
		return
	}

	idx := graph.BuildIndex(txns)
	legitResult := graph.FilterLegitimate(graph.DefaultLegitimacyConfig(), txns, idx.Stats)

	casework.RunTrace(inv, idx.Adjacency, idx.Stats, legitResult.LegitimateAccounts, cfg)

	c.JSON(http.StatusOK, gin.H{
		"status":  "trace_complete",
		"case_id": caseID,
		"graph":   inv.FlowGraph,
	})
}

// GET /api/v1/investigation/:id/graph
func (h *APIHandler) handleGetFlowGraph(c *gin.Context) {
	inv := h.invManager.Get(c.Param("id"))
	if inv == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "investigation not found"})
		return
	}
	if inv.FlowGraph == nil {
		c.JSON(http.StatusOK, gin.H{
			"message": "no trace has been run yet, POST to .../trace first",
			"nodes":   []models.FlowNode{},
			"edges":   []models.FlowEdge{},
		})
		return
	}
	c.JSON(http.StatusOK, inv.FlowGraph)
}

// POST /api/v1/investigation/:id/tag
func (h *APIHandler) handleTagAccount(c *gin.Context) {
	caseID := c.Param("id")
	inv := h.invManager.Get(caseID)
	if inv == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "investigation not found"})
		return
	}

	var req tagAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	casework.TagAccount(inv, req.AccountID, req.Label, req.Role, req.Notes, req.TaggedBy)

	if h.dbStore != nil {
		if err := h.dbStore.SaveInvestigationAccount(c.Request.Context(), caseID, req.AccountID, req.Label, req.Role, req.Notes, req.TaggedBy); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist tag: " + err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "tagged", "account_id": req.AccountID, "label": req.Label, "role": req.Role})
}

// GET /api/v1/investigation/:id/timeline
func (h *APIHandler) handleGetTimeline(c *gin.Context) {
	caseID := c.Param("id")
	inv := h.invManager.Get(caseID)
	if inv == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "investigation not found"})
		return
	}

	var rings []models.Ring
	if h.dbStore != nil {
		if txns, err := h.dbStore.LoadRunTransactions(c.Request.Context(), inv.RunID); err == nil {
			rings = graph.Analyze(txns).FraudRings
		}
	}

	timeline := casework.Timeline(inv, rings)
	if timeline == nil {
		timeline = []models.TimelineEvent{}
	}

	c.JSON(http.StatusOK, gin.H{"case_id": caseID, "events": timeline, "total": len(timeline)})
}

// GET /api/v1/investigation/:id/exits
// Returns every flow-graph node reached at a legitimate business — the
// evidence trail a compliance investigator would file with a report.
func (h *APIHandler) handleGetExitPoints(c *gin.Context) {
	inv := h.invManager.Get(c.Param("id"))
	if inv == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "investigation not found"})
		return
	}

	exits := casework.ExitPoints(inv)
	if exits == nil {
		exits = []models.FlowNode{}
	}

	c.JSON(http.StatusOK, gin.H{"case_id": inv.ID, "exit_points": exits, "total": len(exits)})
}
