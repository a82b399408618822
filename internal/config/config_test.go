package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/totegamma/lobbywatch"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	config, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.App.CycleInterval != 10*time.Second {
		t.Fatalf("unexpected cycle interval: %v", config.App.CycleInterval)
	}
	if config.Server.Listen != ":3621" {
		t.Fatalf("unexpected listen: %s", config.Server.Listen)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
app:
  steamUser: "[U:1:22202]"
  cycleInterval: 5s
server:
  postgresDsn: "host=db"
  redisDB: 2
steam:
  apiKey: fromfile
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("STEAM_API_KEY", "fromenv")
	t.Setenv("LOBBYWATCH_LISTEN", ":9000")

	config, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.App.CycleInterval != 5*time.Second {
		t.Fatalf("unexpected cycle interval: %v", config.App.CycleInterval)
	}
	if config.Server.PostgresDsn != "host=db" || config.Server.RedisDB != 2 {
		t.Fatalf("unexpected server config: %+v", config.Server)
	}
	if config.Steam.APIKey != "fromenv" {
		t.Fatalf("env should override file, got %s", config.Steam.APIKey)
	}
	if config.Server.Listen != ":9000" {
		t.Fatalf("unexpected listen: %s", config.Server.Listen)
	}

	user, err := config.User()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user == nil || *user != lobbywatch.SteamID(76561197960287930) {
		t.Fatalf("unexpected user: %v", user)
	}
}

func TestLoadRejectsBadInterval(t *testing.T) {
	t.Setenv("LOBBYWATCH_CYCLE_INTERVAL", "0s")
	if _, err := Load(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Fatal("expected error for zero interval")
	}
}
