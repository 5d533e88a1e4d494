package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/feralforge/matchpractice/internal/match"
	"github.com/feralforge/matchpractice/internal/models"
)

func exportRows(t *testing.T, rounds []models.Round) [][]string {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, rounds, time.UTC); err != nil {
		t.Fatalf("Write: %v", err)
	}

	out := buf.Bytes()
	if len(out) < 3 || out[0] != 0xEF || out[1] != 0xBB || out[2] != 0xBF {
		t.Fatal("output missing UTF-8 BOM")
	}

	r := csv.NewReader(bytes.NewReader(out[3:]))
	r.Comma = ';'
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	return rows
}

func TestWrite_GroupedRows(t *testing.T) {
	start := time.Date(2026, 5, 2, 14, 30, 0, 0, time.UTC)
	end := start.Add(2 * time.Minute)
	total := int64(121500)
	round := models.Round{
		ID:            "round-1",
		StartTime:     start,
		EndTime:       &end,
		TotalDuration: &total,
		Observations:  "steady pace",
		Cycles: []models.Cycle{
			{CycleNumber: 1, Duration: 10000, Hits: 3, Misses: 1, Timestamp: 10000, TimeInterval: match.Interval0to30},
			{CycleNumber: 2, Duration: 12500, Hits: 2, Misses: 0, Timestamp: 22500, TimeInterval: match.Interval0to30},
		},
	}

	rows := exportRows(t, []models.Round{round})
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[0][0] != "Round ID" || rows[0][9] != "Interval" {
		t.Errorf("header = %v", rows[0])
	}

	first := rows[1]
	if first[0] != "round-1" || first[1] != "2026-05-02 14:30:00" || first[2] != "121.50" || first[3] != "steady pace" {
		t.Errorf("first row round columns = %v", first[:4])
	}
	if first[4] != "1" || first[5] != "10.00" || first[6] != "3" || first[7] != "1" || first[8] != "10.00" || first[9] != "0-30s" {
		t.Errorf("first row cycle columns = %v", first[4:])
	}

	// Round columns blank on subsequent rows of the group.
	second := rows[2]
	for i := 0; i < 4; i++ {
		if second[i] != "" {
			t.Errorf("row 2 col %d = %q, want blank", i, second[i])
		}
	}
	if second[4] != "2" || second[5] != "12.50" || second[8] != "22.50" {
		t.Errorf("second row cycle columns = %v", second[4:])
	}
}

func TestWrite_RoundWithoutCycles(t *testing.T) {
	round := models.Round{
		ID:        "empty-round",
		StartTime: time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC),
	}

	rows := exportRows(t, []models.Round{round})
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want header + 1", len(rows))
	}
	row := rows[1]
	if row[0] != "empty-round" {
		t.Errorf("round id = %q", row[0])
	}
	if row[2] != "" {
		t.Errorf("total duration = %q, want blank for unfinished round", row[2])
	}
	for i := 4; i < 10; i++ {
		if row[i] != "" {
			t.Errorf("cycle col %d = %q, want blank", i, row[i])
		}
	}
}

func TestWrite_SemicolonDelimited(t *testing.T) {
	round := models.Round{
		ID:        "r",
		StartTime: time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC),
	}
	var buf bytes.Buffer
	if err := Write(&buf, []models.Round{round}, time.UTC); err != nil {
		t.Fatal(err)
	}
	headerLine, _, _ := strings.Cut(buf.String()[3:], "\n")
	if strings.Count(headerLine, ";") != 9 {
		t.Errorf("header has %d semicolons, want 9: %q", strings.Count(headerLine, ";"), headerLine)
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2026, 5, 2, 18, 45, 0, 0, time.UTC)
	if got := Filename(now); got != "ftc_cycles_2026-05-02.csv" {
		t.Errorf("Filename = %q", got)
	}
}
