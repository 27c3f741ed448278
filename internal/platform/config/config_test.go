package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samwiegames/overheat/internal/domain/popup"
	"github.com/samwiegames/overheat/internal/engine"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.StoreBackend != "sqlite" || cfg.WireFormat != "json" {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
	if cfg.TickInterval() != time.Second/60 {
		t.Errorf("Expected 60Hz tick, got %v", cfg.TickInterval())
	}
	if cfg.RedisAddr() != "localhost:6379" {
		t.Errorf("Expected localhost:6379, got %s", cfg.RedisAddr())
	}
}

func TestLoadFromEnvAndDotenv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envFile, []byte("PROFILE_ID=from-file\nREDIS_PORT=6380\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BEST_TIME_STORE", "redis")
	t.Setenv("REDIS_PORT", "7000")
	t.Cleanup(func() { os.Unsetenv("PROFILE_ID") })

	cfg, err := Load(envFile)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StoreBackend != "redis" {
		t.Errorf("Expected redis store, got %s", cfg.StoreBackend)
	}
	if cfg.ProfileID != "from-file" {
		t.Errorf("Expected profile from .env file, got %s", cfg.ProfileID)
	}
	if cfg.RedisPort != "7000" {
		t.Errorf("Expected process env to win over .env, got %s", cfg.RedisPort)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			StoreBackend: "memory", WireFormat: "json", ProfileID: "p",
			TickRateHz: 60, SnapshotRateHz: 20,
			InputBuffer: 1, EventChannelBuffer: 1, BroadcastChannelBuffer: 1,
			ClientSendBuffer: 1, MaxMessagesPerSecond: 1, MaxClients: 1, RedisPoolSize: 1,
		}
	}
	if err := base().Validate(); err != nil {
		t.Fatalf("Expected valid config, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown store", func(c *Config) { c.StoreBackend = "postgres" }},
		{"sqlite without path", func(c *Config) { c.StoreBackend = "sqlite"; c.SQLitePath = "" }},
		{"unknown wire format", func(c *Config) { c.WireFormat = "xml" }},
		{"zero tick rate", func(c *Config) { c.TickRateHz = 0 }},
		{"snapshots faster than ticks", func(c *Config) { c.SnapshotRateHz = 120 }},
		{"empty profile", func(c *Config) { c.ProfileID = "" }},
		{"zero send buffer", func(c *Config) { c.ClientSendBuffer = 0 }},
		{"negative max clients", func(c *Config) { c.MaxClients = -1 }},
		{"negative message rate", func(c *Config) { c.MaxMessagesPerSecond = -5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestValidateAllowsUnlimitedClients(t *testing.T) {
	c := &Config{
		StoreBackend: "memory", WireFormat: "json", ProfileID: "p",
		TickRateHz: 60, SnapshotRateHz: 20,
		InputBuffer: 1, EventChannelBuffer: 1, BroadcastChannelBuffer: 1,
		ClientSendBuffer: 1, RedisPoolSize: 1,
		MaxClients: 0, MaxMessagesPerSecond: 0,
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Expected MAX_CLIENTS=0 and MAX_MESSAGES_PER_SECOND=0 to mean unlimited, got %v", err)
	}
}

func TestLoadTuningEmptyPath(t *testing.T) {
	tun, err := LoadTuning("")
	if err != nil {
		t.Fatal(err)
	}
	if tun.MaxHeat != 100 || len(tun.PopupKinds) != len(engine.DefaultTuning().PopupKinds) {
		t.Errorf("Expected default tuning, got %+v", tun)
	}
}

func TestParseTuningOverlaysDefaults(t *testing.T) {
	tun, err := ParseTuning([]byte(`
base_heat_per_second: 2
freeze_duration: 8
popup_kinds:
  - kind: BOMB
    half_width: 50
    half_height: 40
    lifetime: 3
`))
	if err != nil {
		t.Fatalf("ParseTuning: %v", err)
	}
	if tun.BaseHeatPerSecond != 2 || tun.FreezeDuration != 8 {
		t.Errorf("Expected overrides applied, got %+v", tun)
	}
	if tun.MaxHeat != 100 || tun.HeatPerPopup != 0.15 {
		t.Errorf("Expected untouched keys to keep defaults, got %+v", tun)
	}
	if len(tun.PopupKinds) != 1 || tun.PopupKinds[0].Kind != popup.KindBomb {
		t.Errorf("Expected popup kinds replaced, got %+v", tun.PopupKinds)
	}
}

func TestParseTuningRejectsInvalid(t *testing.T) {
	_, err := ParseTuning([]byte("min_spawn_interval: 5\nbase_spawn_interval: 1\n"))
	if !errors.Is(err, engine.ErrInvalidTuning) {
		t.Errorf("Expected ErrInvalidTuning, got %v", err)
	}

	if _, err := ParseTuning([]byte("max_heat: [1, 2")); err == nil {
		t.Error("Expected YAML syntax error")
	}

	for _, doc := range []string{
		"max_heat: .nan\n",
		"base_heat_per_second: .inf\n",
		"cool_amount: -.inf\n",
		"start_heat: 100\n",
	} {
		if _, err := ParseTuning([]byte(doc)); !errors.Is(err, engine.ErrInvalidTuning) {
			t.Errorf("ParseTuning(%q): expected ErrInvalidTuning, got %v", doc, err)
		}
	}
}

func TestLoadTuningExpandsEnv(t *testing.T) {
	t.Setenv("OVERHEAT_COOL", "25")
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("cool_amount: ${OVERHEAT_COOL}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tun, err := LoadTuning(path)
	if err != nil {
		t.Fatalf("LoadTuning: %v", err)
	}
	if tun.CoolAmount != 25 {
		t.Errorf("Expected cool amount 25, got %v", tun.CoolAmount)
	}

	if _, err := LoadTuning(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
