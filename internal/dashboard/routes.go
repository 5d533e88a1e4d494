package dashboard

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feralforge/matchpractice/internal/store"
)

type handlers struct {
	store *store.Store
	loc   *time.Location
	log   *zap.Logger
}

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, h *handlers) {
	api := router.Group("/api")

	api.GET("/health", h.handleHealth)

	api.GET("/rounds", h.handleListRounds)
	api.POST("/rounds", h.handleCreateRound)
	api.GET("/rounds/:id", h.handleGetRound)
	api.PATCH("/rounds/:id", h.handlePatchRound)
	api.DELETE("/rounds/:id", h.handleDeleteRound)

	api.POST("/cycles", h.handleCreateCycle)
	api.PATCH("/cycles/:id", h.handlePatchCycle)

	api.GET("/stats", h.handleStats)
	api.GET("/export", h.handleExport)
}

func (h *handlers) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeError maps store errors onto HTTP status codes: missing ids are 404,
// rejected input is 400, everything else is 500.
func (h *handlers) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNoFields):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// parseDate parses a YYYY-MM-DD query value in the server timezone.
func (h *handlers) parseDate(value string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", value, h.loc)
}
