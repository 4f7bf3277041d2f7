package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rawblock/fraudnet-engine/internal/graph"
	"github.com/rawblock/fraudnet-engine/internal/shadow"
	"github.com/rawblock/fraudnet-engine/pkg/models"
	"github.com/shopspring/decimal"
)

// POST /api/v1/analyze
// Accepts a transaction batch, runs detection, persists the result if a
// database is configured, and returns the same JSON shape Analyze produces.
func (h *APIHandler) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	runID := req.RunID
	if runID == "" {
		runID = fmt.Sprintf("RUN-%d", time.Now().UnixNano())
	}

	txns := make([]models.Transaction, 0, len(req.Transactions))
	var skipped int
	for _, dto := range req.Transactions {
		amt, err := decimal.NewFromString(dto.Amount)
		if err != nil {
			skipped++
			continue
		}
		txns = append(txns, models.Transaction{
			TransactionID:  dto.TransactionID,
			SenderID:       dto.SenderID,
			ReceiverID:     dto.ReceiverID,
			Amount:         amt,
			Timestamp:      dto.Timestamp,
			TimestampValid: !dto.Timestamp.IsZero(),
		})
	}

	result := graph.Analyze(txns)

	if h.dbStore != nil {
		if err := h.dbStore.SaveAnalysisResult(c.Request.Context(), runID, txns, result); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist analysis result: " + err.Error()})
			return
		}
	}

	if h.alerts != nil {
		for _, ring := range result.FraudRings {
			h.alerts.EmitForRing(ring)
		}
	}

	resp := gin.H{
		"run_id":              runID,
		"suspicious_accounts": result.SuspiciousAccounts,
		"fraud_rings":         result.FraudRings,
		"summary":             result.Summary,
		"nodes":               result.Nodes,
		"edges":               result.Edges,
	}
	if skipped > 0 {
		resp["rows_skipped"] = skipped
	}
	c.JSON(http.StatusOK, resp)
}

// GET /api/v1/analyze/:runID
// Reloads a run's persisted transaction batch and re-runs detection.
// Analyze is deterministic (idempotent on identical input), so this
// reproduces the originally persisted rings and suspicious accounts without
// a second denormalized result snapshot.
func (h *APIHandler) handleGetAnalysis(c *gin.Context) {
	if h.dbStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not connected"})
		return
	}
	runID := c.Param("runID")

	txns, err := h.dbStore.LoadRunTransactions(c.Request.Context(), runID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load run: " + err.Error()})
		return
	}
	if len(txns) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	result := graph.Analyze(txns)
	c.JSON(http.StatusOK, gin.H{
		"run_id":              runID,
		"suspicious_accounts": result.SuspiciousAccounts,
		"fraud_rings":         result.FraudRings,
		"summary":             result.Summary,
		"nodes":               result.Nodes,
		"edges":               result.Edges,
	})
}

// GET /api/v1/networks/:runID
// Returns the fraud networks (post-projection clustering) for a run.
func (h *APIHandler) handleGetNetworks(c *gin.Context) {
	if h.dbStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not connected"})
		return
	}
	runID := c.Param("runID")

	txns, err := h.dbStore.LoadRunTransactions(c.Request.Context(), runID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load run: " + err.Error()})
		return
	}
	if len(txns) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	result := graph.Analyze(txns)
	networks := graph.ClusterNetworks(result.FraudRings)
	c.JSON(http.StatusOK, gin.H{"run_id": runID, "networks": networks})
}

// POST /api/v1/shadow/:runID
// Runs the shadow comparison against a run's persisted input batch using
// the production legitimacy config and one experimental variant, and
// persists only the comparison summary.
func (h *APIHandler) handleShadow(c *gin.Context) {
	if h.dbStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not connected"})
		return
	}
	runID := c.Param("runID")

	var req struct {
		ExtraKeywords []string `json:"extra_legitimacy_keywords"`
	}
	_ = c.ShouldBindJSON(&req)

	txns, err := h.dbStore.LoadRunTransactions(c.Request.Context(), runID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load run: " + err.Error()})
		return
	}
	if len(txns) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	prodCfg := graph.DefaultLegitimacyConfig()
	shadowCfg := graph.DefaultLegitimacyConfig()
	shadowCfg.Keywords = append(append([]string{}, shadowCfg.Keywords...), req.ExtraKeywords...)

	result := shadow.Run(runID, txns, prodCfg, shadowCfg)

	if err := h.dbStore.SaveShadowResult(c.Request.Context(), result); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist shadow result: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GET /api/v1/health
func (h *APIHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "operational",
		"engine": "fraudnet-engine",
		"capabilities": gin.H{
			"cycle_detection":     true,
			"smurfing_detection":  true,
			"shell_detection":     true,
			"network_clustering":  true,
			"fund_flow_tracing":   true,
			"shadow_comparison":   true,
			"investigation_cases": true,
		},
		"dbConnected": h.dbStore != nil,
	})
}
