package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil): %v", err)
	}
	if cfg.Database.Path != "practice.db" {
		t.Errorf("database.path = %q, want practice.db", cfg.Database.Path)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Timer.TickMs != 10 {
		t.Errorf("timer.tick_ms = %d, want 10", cfg.Timer.TickMs)
	}
	if cfg.TickInterval() != 10*time.Millisecond {
		t.Errorf("TickInterval() = %v, want 10ms", cfg.TickInterval())
	}
	if cfg.Backup.Enabled {
		t.Error("backup should be disabled by default")
	}
	if cfg.Backup.Cron != "0 3 * * *" {
		t.Errorf("backup.cron = %q", cfg.Backup.Cron)
	}
}

func TestParse_Full(t *testing.T) {
	yaml := `
database:
  path: /var/lib/mpt/data.db
server:
  port: 9090
timer:
  tick_ms: 25
backup:
  enabled: true
  cron: "30 2 * * *"
  dir: /var/backups/mpt
timezone: America/Sao_Paulo
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Database.Path != "/var/lib/mpt/data.db" {
		t.Errorf("database.path = %q", cfg.Database.Path)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d", cfg.Server.Port)
	}
	if cfg.TickInterval() != 25*time.Millisecond {
		t.Errorf("TickInterval() = %v", cfg.TickInterval())
	}
	if !cfg.Backup.Enabled || cfg.Backup.Dir != "/var/backups/mpt" {
		t.Errorf("backup = %+v", cfg.Backup)
	}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location: %v", err)
	}
	if loc.String() != "America/Sao_Paulo" {
		t.Errorf("location = %q", loc)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"bad yaml", "database: [", "parse"},
		{"tick too small", "timer:\n  tick_ms: -5\n", "tick_ms"},
		{"tick too large", "timer:\n  tick_ms: 5000\n", "tick_ms"},
		{"bad timezone", "timezone: Mars/Olympus\n", "timezone"},
		{"bad port", "server:\n  port: 99999\n", "port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want default 8080", cfg.Server.Port)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matchpractice.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 7000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("server.port = %d, want 7000", cfg.Server.Port)
	}
}
