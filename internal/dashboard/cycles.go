package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feralforge/matchpractice/internal/match"
	"github.com/feralforge/matchpractice/internal/models"
	"github.com/feralforge/matchpractice/internal/store"
)

type createCycleRequest struct {
	RoundID     string       `json:"roundId"`
	CycleNumber int          `json:"cycleNumber"`
	Duration    int64        `json:"duration"`
	Hits        int          `json:"hits"`
	Misses      int          `json:"misses"`
	Timestamp   int64        `json:"timestamp"`
	Zone        *models.Zone `json:"zone"`
	IsFullMatch bool         `json:"isFullMatch"`
}

// handleCreateCycle stores a cycle. Interval and autonomous classification
// are derived server-side from the timestamp so clients cannot disagree with
// the timing rules.
func (h *handlers) handleCreateCycle(c *gin.Context) {
	var req createCycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.RoundID == "" {
		badRequest(c, "roundId is required")
		return
	}
	if req.CycleNumber < 1 {
		badRequest(c, "cycleNumber must be at least 1")
		return
	}

	cycle, err := h.store.CreateCycle(c.Request.Context(), store.CreateCycleParams{
		RoundID:      req.RoundID,
		CycleNumber:  req.CycleNumber,
		Duration:     req.Duration,
		Hits:         req.Hits,
		Misses:       req.Misses,
		Timestamp:    req.Timestamp,
		TimeInterval: match.IntervalFor(req.Timestamp, req.IsFullMatch),
		Zone:         req.Zone,
		IsAutonomous: match.IsAutonomous(req.Timestamp, req.IsFullMatch),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cycle)
}

type patchCycleRequest struct {
	Hits   *int         `json:"hits"`
	Misses *int         `json:"misses"`
	Zone   *models.Zone `json:"zone"`
}

func (h *handlers) handlePatchCycle(c *gin.Context) {
	var req patchCycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	cycle, err := h.store.PatchCycle(c.Request.Context(), c.Param("id"), store.CyclePatch{
		Hits:   req.Hits,
		Misses: req.Misses,
		Zone:   req.Zone,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cycle)
}
