// Package export renders rounds and cycles as the semicolon-delimited CSV
// consumed by the team's spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/feralforge/matchpractice/internal/models"
)

// header is the fixed column set. Round-level columns are filled only on the
// first row of each round's group.
var header = []string{
	"Round ID",
	"Start Date",
	"Total Duration (s)",
	"Observations",
	"Cycle #",
	"Cycle Time (s)",
	"Hits",
	"Misses",
	"Timestamp (s)",
	"Interval",
}

// utf8BOM keeps Excel from misreading accented observation text.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Filename returns the download name for an export taken at now.
func Filename(now time.Time) string {
	return fmt.Sprintf("ftc_cycles_%s.csv", now.Format("2006-01-02"))
}

// Write renders rounds in the given order, one row per cycle. A round
// without cycles still gets a single row with blank cycle columns. Start
// dates are formatted in loc.
func Write(w io.Writer, rounds []models.Round, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("export: write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}

	for _, round := range rounds {
		if err := writeRound(cw, round, loc); err != nil {
			return err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: flush: %w", err)
	}
	return nil
}

func writeRound(cw *csv.Writer, round models.Round, loc *time.Location) error {
	roundCols := []string{
		round.ID,
		round.StartTime.In(loc).Format("2006-01-02 15:04:05"),
		totalDurationSecs(round),
		round.Observations,
	}
	blankCols := []string{"", "", "", ""}

	if len(round.Cycles) == 0 {
		row := append(append([]string{}, roundCols...), "", "", "", "", "", "")
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: round %s: %w", round.ID, err)
		}
		return nil
	}

	for i, c := range round.Cycles {
		lead := blankCols
		if i == 0 {
			lead = roundCols
		}
		row := append(append([]string{}, lead...),
			strconv.Itoa(c.CycleNumber),
			secs(c.Duration),
			strconv.Itoa(c.Hits),
			strconv.Itoa(c.Misses),
			secs(c.Timestamp),
			string(c.TimeInterval),
		)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: round %s cycle %d: %w", round.ID, c.CycleNumber, err)
		}
	}
	return nil
}

func totalDurationSecs(round models.Round) string {
	if round.TotalDuration == nil {
		return ""
	}
	return secs(*round.TotalDuration)
}

// secs renders milliseconds as seconds with two decimals.
func secs(ms int64) string {
	return strconv.FormatFloat(float64(ms)/1000, 'f', 2, 64)
}
