package stats

import "github.com/feralforge/matchpractice/internal/models"

// strategyThreshold is the fraction of zoned cycles one zone must reach for
// the round to count as committed to that zone.
const strategyThreshold = 0.7

// ClassifyStrategy derives a round's zone strategy from its confirmed
// cycles. Cycles without a zone are ignored; if none carry a zone the
// strategy is unknown and nil is returned. Neither zone reaching the
// threshold means the round mixed zones, so the result is hybrid.
func ClassifyStrategy(cycles []models.Cycle) *models.Strategy {
	var near, far int
	for _, c := range cycles {
		if c.Zone == nil {
			continue
		}
		switch *c.Zone {
		case models.ZoneNear:
			near++
		case models.ZoneFar:
			far++
		}
	}

	total := near + far
	if total == 0 {
		return nil
	}

	strategy := models.StrategyHybrid
	if float64(near)/float64(total) >= strategyThreshold {
		strategy = models.StrategyNear
	} else if float64(far)/float64(total) >= strategyThreshold {
		strategy = models.StrategyFar
	}
	return &strategy
}
