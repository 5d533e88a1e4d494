package dashboard

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feralforge/matchpractice/internal/export"
	"github.com/feralforge/matchpractice/internal/stats"
	"github.com/feralforge/matchpractice/internal/store"
)

// handleStats computes the aggregate report over the optionally
// date-filtered round set. The general block is rounded for display here;
// the aggregator itself stays exact.
func (h *handlers) handleStats(c *gin.Context) {
	var filter store.RoundFilter
	if v := c.Query("startDate"); v != "" {
		day, err := h.parseDate(v)
		if err != nil {
			badRequest(c, "invalid startDate, want YYYY-MM-DD")
			return
		}
		filter.StartDate = &day
	}
	if v := c.Query("endDate"); v != "" {
		day, err := h.parseDate(v)
		if err != nil {
			badRequest(c, "invalid endDate, want YYYY-MM-DD")
			return
		}
		filter.EndDate = &day
	}

	rounds, err := h.store.ListRounds(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}

	report := stats.Compute(rounds, h.loc)
	report.General = report.General.Rounded()
	c.JSON(http.StatusOK, report)
}

// handleExport streams every round as CSV, newest first, as a download.
func (h *handlers) handleExport(c *gin.Context) {
	rounds, err := h.store.ListRounds(c.Request.Context(), store.RoundFilter{})
	if err != nil {
		h.writeError(c, err)
		return
	}

	filename := export.Filename(time.Now().In(h.loc))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)

	if err := export.Write(c.Writer, rounds, h.loc); err != nil {
		// Headers are gone; all we can do is log.
		h.log.Error("csv export failed mid-stream", zap.Error(err))
	}
}
