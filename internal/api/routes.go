package api

import (
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rawblock/fraudnet-engine/internal/alerting"
	"github.com/rawblock/fraudnet-engine/internal/batch"
	"github.com/rawblock/fraudnet-engine/internal/casework"
	"github.com/rawblock/fraudnet-engine/internal/db"
)

// APIHandler bundles the dependencies every route handler needs.
type APIHandler struct {
	dbStore    *db.PostgresStore
	invManager *casework.Manager
	alerts     *alerting.Manager
	wsHub      *Hub
	rescanner  *batch.Rescanner
}

// SetupRouter wires the HTTP surface for the fraud-ring analysis engine.
// dbStore, alerts, and rescanner may be nil — every handler that needs one
// degrades to a 503 rather than panicking.
func SetupRouter(dbStore *db.PostgresStore, alerts *alerting.Manager, wsHub *Hub, rescanner *batch.Rescanner) *gin.Engine {
	r := gin.Default()

	// Enable CORS — configurable via ALLOWED_ORIGINS env var
	// Production: ALLOWED_ORIGINS=https://example.com
	// Development: leave empty for *
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	handler := &APIHandler{
		dbStore:    dbStore,
		invManager: casework.NewManager(),
		alerts:     alerts,
		wsHub:      wsHub,
		rescanner:  rescanner,
	}

	rl := NewRateLimiter(120, 30)

	api := r.Group("/api/v1")
	api.Use(AuthMiddleware(), rl.Middleware())
	{
		api.POST("/analyze", handler.handleAnalyze)
		api.GET("/analyze/:runID", handler.handleGetAnalysis)
		api.GET("/networks/:runID", handler.handleGetNetworks)
		api.POST("/shadow/:runID", handler.handleShadow)
		api.GET("/health", handler.handleHealth)
		api.GET("/stream", wsHub.Subscribe)

		api.POST("/investigation", handler.handleCreateInvestigation)
		api.GET("/investigation/:id", handler.handleGetInvestigation)
		api.POST("/investigation/:id/trace", handler.handleRunTrace)
		api.GET("/investigation/:id/graph", handler.handleGetFlowGraph)
		api.POST("/investigation/:id/tag", handler.handleTagAccount)
		api.GET("/investigation/:id/timeline", handler.handleGetTimeline)
		api.GET("/investigation/:id/exits", handler.handleGetExitPoints)

		api.POST("/rescan", handler.handleStartRescan)
		api.GET("/rescan/progress", handler.handleRescanProgress)
	}

	r.Static("/dashboard", "./public")

	return r
}
