package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/feralforge/matchpractice/internal/db"
	"github.com/feralforge/matchpractice/internal/models"
	"github.com/feralforge/matchpractice/internal/store"
)

func testRouter(t *testing.T) (*gin.Engine, *store.Store) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	st := store.New(gdb)
	return NewRouter(st, time.UTC, zap.NewNop()), st
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeRound(t *testing.T, w *httptest.ResponseRecorder) models.Round {
	t.Helper()
	var round models.Round
	if err := json.Unmarshal(w.Body.Bytes(), &round); err != nil {
		t.Fatalf("decode round: %v (%s)", err, w.Body.String())
	}
	return round
}

func TestHealth(t *testing.T) {
	router, _ := testRouter(t)
	w := doJSON(t, router, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestRoundLifecycleOverHTTP(t *testing.T) {
	router, _ := testRouter(t)

	// Create.
	w := doJSON(t, router, http.MethodPost, "/api/rounds", map[string]interface{}{
		"startTime": "2026-05-02T14:00:00Z",
		"roundType": "full_match",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}
	round := decodeRound(t, w)
	if round.ID == "" || round.RoundType != "full_match" {
		t.Fatalf("round = %+v", round)
	}

	// Add a cycle; interval and autonomous flags computed server-side.
	w = doJSON(t, router, http.MethodPost, "/api/cycles", map[string]interface{}{
		"roundId":     round.ID,
		"cycleNumber": 1,
		"duration":    12000,
		"hits":        3,
		"misses":      1,
		"timestamp":   12000,
		"isFullMatch": true,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create cycle status = %d: %s", w.Code, w.Body.String())
	}
	var cycle models.Cycle
	if err := json.Unmarshal(w.Body.Bytes(), &cycle); err != nil {
		t.Fatal(err)
	}
	if cycle.TimeInterval != "auto" || !cycle.IsAutonomous {
		t.Errorf("cycle classification = %q/%v", cycle.TimeInterval, cycle.IsAutonomous)
	}

	// Finish via patch.
	w = doJSON(t, router, http.MethodPatch, "/api/rounds/"+round.ID, map[string]interface{}{
		"endTime":       "2026-05-02T14:02:40Z",
		"totalDuration": 158000,
		"observations":  "clean run",
		"strategy":      "near",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("patch status = %d: %s", w.Code, w.Body.String())
	}
	patched := decodeRound(t, w)
	if !patched.Completed() || patched.Observations != "clean run" {
		t.Errorf("patched = %+v", patched)
	}
	if len(patched.Cycles) != 1 {
		t.Errorf("patched cycles = %d", len(patched.Cycles))
	}

	// Fetch.
	w = doJSON(t, router, http.MethodGet, "/api/rounds/"+round.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}

	// Delete cascades.
	w = doJSON(t, router, http.MethodDelete, "/api/rounds/"+round.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = doJSON(t, router, http.MethodGet, "/api/rounds/"+round.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", w.Code)
	}
}

func TestCreateCycle_Validation(t *testing.T) {
	router, _ := testRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/cycles", map[string]interface{}{
		"cycleNumber": 1,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing roundId status = %d", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/cycles", map[string]interface{}{
		"roundId":     "missing",
		"cycleNumber": 1,
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown round status = %d: %s", w.Code, w.Body.String())
	}
}

func TestPatchCycle_EmptyBody(t *testing.T) {
	router, _ := testRouter(t)
	w := doJSON(t, router, http.MethodPatch, "/api/cycles/some-id", map[string]interface{}{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty patch status = %d: %s", w.Code, w.Body.String())
	}
}

func TestListRounds_DateFilter(t *testing.T) {
	router, _ := testRouter(t)
	for _, day := range []string{"2026-05-01", "2026-05-02"} {
		w := doJSON(t, router, http.MethodPost, "/api/rounds", map[string]interface{}{
			"startTime": day + "T10:00:00Z",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("seed round: %d", w.Code)
		}
	}

	w := doJSON(t, router, http.MethodGet, "/api/rounds?date=2026-05-02", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var rounds []models.Round
	if err := json.Unmarshal(w.Body.Bytes(), &rounds); err != nil {
		t.Fatal(err)
	}
	if len(rounds) != 1 {
		t.Errorf("filtered rounds = %d, want 1", len(rounds))
	}

	w = doJSON(t, router, http.MethodGet, "/api/rounds?date=02-05-2026", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d", w.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	router, st := testRouter(t)

	// One completed round with two cycles, one in-progress round that must
	// not count.
	seedCompletedRound(t, st, "2026-05-02T10:00:00Z")
	w := doJSON(t, router, http.MethodPost, "/api/rounds", map[string]interface{}{
		"startTime": "2026-05-03T10:00:00Z",
	})
	if w.Code != http.StatusCreated {
		t.Fatal("seed in-progress round")
	}

	w = doJSON(t, router, http.MethodGet, "/api/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d: %s", w.Code, w.Body.String())
	}

	var report struct {
		General struct {
			TotalRounds  int     `json:"totalRounds"`
			TotalCycles  int     `json:"totalCycles"`
			HitRate      float64 `json:"hitRate"`
			AvgCycleTime float64 `json:"avgCycleTime"`
		} `json:"general"`
		ByInterval []struct {
			Interval string `json:"interval"`
			Count    int    `json:"count"`
		} `json:"statsByInterval"`
		Daily     []json.RawMessage `json:"dailyStats"`
		Evolution []json.RawMessage `json:"evolutionData"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if report.General.TotalRounds != 1 || report.General.TotalCycles != 2 {
		t.Errorf("general = %+v", report.General)
	}
	// 5 hits, 1 miss -> 83.333... rounded to one decimal for display.
	if report.General.HitRate != 83.3 {
		t.Errorf("hitRate = %v, want 83.3", report.General.HitRate)
	}
	if len(report.ByInterval) != 4 {
		t.Errorf("intervals = %d", len(report.ByInterval))
	}
	if len(report.Daily) != 1 || len(report.Evolution) != 1 {
		t.Errorf("daily = %d evolution = %d", len(report.Daily), len(report.Evolution))
	}
}

func TestExportEndpoint(t *testing.T) {
	router, st := testRouter(t)
	seedCompletedRound(t, st, "2026-05-02T10:00:00Z")

	w := doJSON(t, router, http.MethodGet, "/api/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "ftc_cycles_") {
		t.Errorf("content disposition = %q", cd)
	}
	if !strings.Contains(w.Body.String(), "Round ID") {
		t.Error("body missing CSV header")
	}
}

func seedCompletedRound(t *testing.T, st *store.Store, startRFC3339 string) {
	t.Helper()
	start, err := time.Parse(time.RFC3339, startRFC3339)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	round, err := st.CreateRound(ctx, store.CreateRoundParams{StartTime: start, RoundType: "teleop_only"})
	if err != nil {
		t.Fatal(err)
	}
	for i, spec := range []struct {
		ts, dur      int64
		hits, misses int
	}{
		{10000, 10000, 3, 0},
		{25000, 15000, 2, 1},
	} {
		if _, err := st.CreateCycle(ctx, store.CreateCycleParams{
			RoundID:      round.ID,
			CycleNumber:  i + 1,
			Duration:     spec.dur,
			Hits:         spec.hits,
			Misses:       spec.misses,
			Timestamp:    spec.ts,
			TimeInterval: "0-30s",
		}); err != nil {
			t.Fatal(err)
		}
	}
	end := start.Add(2 * time.Minute)
	total := int64(120000)
	if _, err := st.PatchRound(ctx, round.ID, store.RoundPatch{EndTime: &end, TotalDuration: &total}); err != nil {
		t.Fatal(err)
	}
}
