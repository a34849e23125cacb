package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// Run in a directory without config.yaml so env defaults apply.
	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8787" {
		t.Errorf("Port = %q, want 8787", cfg.Port)
	}
	if cfg.Database.Database != "dailies_engine" {
		t.Errorf("Database = %q, want dailies_engine", cfg.Database.Database)
	}
	if cfg.Providers.Enabled {
		t.Error("Providers.Enabled default = true, want false")
	}
	if cfg.Version != "test" {
		t.Errorf("Version = %q, want test", cfg.Version)
	}
	if cfg.Database.MaxConnLifetime != time.Hour {
		t.Errorf("MaxConnLifetime = %v, want 1h", cfg.Database.MaxConnLifetime)
	}
	if cfg.Database.MaxConnIdleTime != 30*time.Minute {
		t.Errorf("MaxConnIdleTime = %v, want 30m", cfg.Database.MaxConnIdleTime)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("PORT", "9999")
	t.Setenv("STORAGE_ROOT", "/tmp/dailies")
	t.Setenv("PROVIDER_ENABLED", "true")
	t.Setenv("PGMAX_CONN_IDLE_TIME", "5m")

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "9999" {
		t.Errorf("Port = %q, want 9999", cfg.Port)
	}
	if cfg.Storage.Root != "/tmp/dailies" {
		t.Errorf("Storage.Root = %q, want /tmp/dailies", cfg.Storage.Root)
	}
	if !cfg.Providers.Enabled {
		t.Error("Providers.Enabled = false, want true")
	}
	if cfg.Database.MaxConnIdleTime != 5*time.Minute {
		t.Errorf("MaxConnIdleTime = %v, want 5m", cfg.Database.MaxConnIdleTime)
	}
}

func TestConnectionString(t *testing.T) {
	dc := &DatabaseConfig{
		Host: "db", Port: 5433, User: "u", Password: "p", Database: "d", SSLMode: "disable",
	}
	want := "host=db port=5433 user=u password=p dbname=d sslmode=disable"
	if got := dc.ConnectionString(); got != want {
		t.Errorf("ConnectionString() = %q, want %q", got, want)
	}
}
