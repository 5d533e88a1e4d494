// Package stats computes the aggregate report rendered by the dashboard:
// general totals, per-interval and per-day breakdowns, and the per-round
// evolution series. Everything here is a pure function over already-persisted
// rounds; values are returned un-rounded so display rounding can be tested
// separately.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/feralforge/matchpractice/internal/match"
	"github.com/feralforge/matchpractice/internal/models"
)

// General holds the headline aggregates over completed rounds.
type General struct {
	TotalRounds       int     `json:"totalRounds"`
	TotalCycles       int     `json:"totalCycles"`
	AvgCyclesPerRound float64 `json:"avgCyclesPerRound"`
	AvgCycleTime      float64 `json:"avgCycleTime"`
	MinCycleTime      int64   `json:"minCycleTime"`
	MaxCycleTime      int64   `json:"maxCycleTime"`
	TotalHits         int     `json:"totalHits"`
	TotalMisses       int     `json:"totalMisses"`
	HitRate           float64 `json:"hitRate"`
	PersonalBest      int     `json:"personalBest"`
}

// IntervalStats is the breakdown for one canonical teleop interval.
type IntervalStats struct {
	Interval match.Interval `json:"interval"`
	Count    int            `json:"count"`
	AvgTime  float64        `json:"avgTime"`
	Hits     int            `json:"hits"`
	Misses   int            `json:"misses"`
}

// DayStats groups completed rounds by the calendar date of their start time.
type DayStats struct {
	Date         string  `json:"date"`
	Rounds       int     `json:"rounds"`
	TotalCycles  int     `json:"totalCycles"`
	AvgCycleTime float64 `json:"avgCycleTime"`
	TotalHits    int     `json:"totalHits"`
	TotalMisses  int     `json:"totalMisses"`
}

// EvolutionPoint is one completed round in chronological order. The earliest
// completed round is number 1.
type EvolutionPoint struct {
	RoundNumber int     `json:"roundNumber"`
	Date        string  `json:"date"`
	AvgTime     float64 `json:"avgTime"`
	CycleCount  int     `json:"cycleCount"`
	Hits        int     `json:"hits"`
	Misses      int     `json:"misses"`
}

// Report is the full aggregate output.
type Report struct {
	General    General          `json:"general"`
	ByInterval []IntervalStats  `json:"statsByInterval"`
	Daily      []DayStats       `json:"dailyStats"`
	Evolution  []EvolutionPoint `json:"evolutionData"`
}

// FilterByDate keeps rounds whose start time falls on a calendar date within
// [from, to], both ends inclusive and optional, evaluated in loc.
func FilterByDate(rounds []models.Round, from, to *time.Time, loc *time.Location) []models.Round {
	if from == nil && to == nil {
		return rounds
	}
	var out []models.Round
	for _, r := range rounds {
		day := dateOf(r.StartTime, loc)
		if from != nil && day.Before(dateOf(*from, loc)) {
			continue
		}
		if to != nil && day.After(dateOf(*to, loc)) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Compute builds the full report over the given rounds. Only completed
// rounds (those with an end time) contribute, including to the cycle pool;
// an in-progress round is invisible to every aggregate. Daily grouping uses
// calendar dates in loc.
func Compute(rounds []models.Round, loc *time.Location) Report {
	if loc == nil {
		loc = time.Local
	}

	completed := make([]models.Round, 0, len(rounds))
	for _, r := range rounds {
		if r.Completed() {
			completed = append(completed, r)
		}
	}
	// Oldest first; evolution numbering and daily grouping both read this
	// order.
	sort.Slice(completed, func(i, j int) bool {
		return completed[i].StartTime.Before(completed[j].StartTime)
	})

	var allCycles []models.Cycle
	for _, r := range completed {
		allCycles = append(allCycles, r.Cycles...)
	}

	return Report{
		General:    computeGeneral(completed, allCycles),
		ByInterval: computeByInterval(allCycles),
		Daily:      computeDaily(completed, loc),
		Evolution:  computeEvolution(completed, loc),
	}
}

func computeGeneral(completed []models.Round, allCycles []models.Cycle) General {
	g := General{
		TotalRounds: len(completed),
		TotalCycles: len(allCycles),
	}

	if g.TotalRounds > 0 {
		g.AvgCyclesPerRound = float64(g.TotalCycles) / float64(g.TotalRounds)
	}

	var durationSum int64
	for i, c := range allCycles {
		durationSum += c.Duration
		if i == 0 || c.Duration < g.MinCycleTime {
			g.MinCycleTime = c.Duration
		}
		if c.Duration > g.MaxCycleTime {
			g.MaxCycleTime = c.Duration
		}
		g.TotalHits += c.Hits
		g.TotalMisses += c.Misses
	}
	if len(allCycles) > 0 {
		g.AvgCycleTime = float64(durationSum) / float64(len(allCycles))
	}
	if attempts := g.TotalHits + g.TotalMisses; attempts > 0 {
		g.HitRate = 100 * float64(g.TotalHits) / float64(attempts)
	}

	for _, r := range completed {
		if hits := r.TotalHits(); hits > g.PersonalBest {
			g.PersonalBest = hits
		}
	}
	return g
}

// computeByInterval buckets cycles into the four canonical teleop intervals.
// Auto and transition cycles do not belong to any bucket.
func computeByInterval(allCycles []models.Cycle) []IntervalStats {
	out := make([]IntervalStats, len(match.TeleopIntervals))
	for i, interval := range match.TeleopIntervals {
		row := IntervalStats{Interval: interval}
		var durationSum int64
		for _, c := range allCycles {
			if c.TimeInterval != interval {
				continue
			}
			row.Count++
			durationSum += c.Duration
			row.Hits += c.Hits
			row.Misses += c.Misses
		}
		if row.Count > 0 {
			row.AvgTime = float64(durationSum) / float64(row.Count)
		}
		out[i] = row
	}
	return out
}

func computeDaily(completed []models.Round, loc *time.Location) []DayStats {
	type acc struct {
		rounds      int
		cycles      int
		durationSum int64
		hits        int
		misses      int
	}
	byDay := map[string]*acc{}
	for _, r := range completed {
		key := r.StartTime.In(loc).Format("2006-01-02")
		a, ok := byDay[key]
		if !ok {
			a = &acc{}
			byDay[key] = a
		}
		a.rounds++
		a.cycles += len(r.Cycles)
		for _, c := range r.Cycles {
			a.durationSum += c.Duration
			a.hits += c.Hits
			a.misses += c.Misses
		}
	}

	out := make([]DayStats, 0, len(byDay))
	for date, a := range byDay {
		row := DayStats{
			Date:        date,
			Rounds:      a.rounds,
			TotalCycles: a.cycles,
			TotalHits:   a.hits,
			TotalMisses: a.misses,
		}
		if a.cycles > 0 {
			row.AvgCycleTime = float64(a.durationSum) / float64(a.cycles)
		}
		out = append(out, row)
	}
	// Newest day first.
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// computeEvolution walks completed rounds oldest to newest; the earliest
// completed round is roundNumber 1.
func computeEvolution(completed []models.Round, loc *time.Location) []EvolutionPoint {
	out := make([]EvolutionPoint, 0, len(completed))
	for i, r := range completed {
		point := EvolutionPoint{
			RoundNumber: i + 1,
			Date:        r.StartTime.In(loc).Format("02/01"),
			CycleCount:  len(r.Cycles),
		}
		var durationSum int64
		for _, c := range r.Cycles {
			durationSum += c.Duration
			point.Hits += c.Hits
			point.Misses += c.Misses
		}
		if point.CycleCount > 0 {
			point.AvgTime = float64(durationSum) / float64(point.CycleCount)
		}
		out = append(out, point)
	}
	return out
}

// Rounded returns a copy with the display rounding applied: cycles per round
// and hit rate to one decimal, average cycle time to the nearest
// millisecond. Breakdowns are left exact.
func (g General) Rounded() General {
	g.AvgCyclesPerRound = math.Round(g.AvgCyclesPerRound*10) / 10
	g.HitRate = math.Round(g.HitRate*10) / 10
	g.AvgCycleTime = math.Round(g.AvgCycleTime)
	return g
}

func dateOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
