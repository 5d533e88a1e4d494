package dashboard

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feralforge/matchpractice/internal/match"
	"github.com/feralforge/matchpractice/internal/models"
	"github.com/feralforge/matchpractice/internal/store"
)

type createRoundRequest struct {
	StartTime    *time.Time      `json:"startTime"`
	RoundType    match.RoundType `json:"roundType"`
	BatteryName  *string         `json:"batteryName"`
	BatteryVolts *float64        `json:"batteryVolts"`
}

func (h *handlers) handleCreateRound(c *gin.Context) {
	var req createRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	start := time.Now()
	if req.StartTime != nil {
		start = *req.StartTime
	}
	if req.RoundType == "" {
		req.RoundType = match.TeleopOnly
	}
	if !req.RoundType.Valid() {
		badRequest(c, "invalid roundType")
		return
	}

	round, err := h.store.CreateRound(c.Request.Context(), store.CreateRoundParams{
		StartTime:    start,
		RoundType:    req.RoundType,
		BatteryName:  req.BatteryName,
		BatteryVolts: req.BatteryVolts,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, round)
}

func (h *handlers) handleListRounds(c *gin.Context) {
	var filter store.RoundFilter
	if date := c.Query("date"); date != "" {
		day, err := h.parseDate(date)
		if err != nil {
			badRequest(c, "invalid date, want YYYY-MM-DD")
			return
		}
		filter.StartDate = &day
		filter.EndDate = &day
	}

	rounds, err := h.store.ListRounds(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rounds)
}

func (h *handlers) handleGetRound(c *gin.Context) {
	round, err := h.store.GetRound(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, round)
}

type patchRoundRequest struct {
	EndTime       *time.Time       `json:"endTime"`
	Observations  *string          `json:"observations"`
	TotalDuration *int64           `json:"totalDuration"`
	Strategy      *models.Strategy `json:"strategy"`
}

func (h *handlers) handlePatchRound(c *gin.Context) {
	var req patchRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	round, err := h.store.PatchRound(c.Request.Context(), c.Param("id"), store.RoundPatch{
		EndTime:       req.EndTime,
		Observations:  req.Observations,
		TotalDuration: req.TotalDuration,
		Strategy:      req.Strategy,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, round)
}

func (h *handlers) handleDeleteRound(c *gin.Context) {
	if err := h.store.DeleteRound(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
