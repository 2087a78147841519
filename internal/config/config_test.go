package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func configDir(t *testing.T) string {
	t.Helper()

	projectRoot, err := filepath.Abs("../../")
	if err != nil {
		t.Fatalf("failed to get project root: %v", err)
	}

	return filepath.Join(projectRoot, "etc") + string(filepath.Separator)
}

func TestReadConfig(t *testing.T) {
	cfg, err := ReadConfig(configDir(t))
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	if cfg.Title == "" {
		t.Error("Config.Title should not be empty")
	}

	if cfg.Webserver.Port == 0 {
		t.Error("Webserver.Port should not be 0")
	}

	if cfg.Webserver.URL == "" {
		t.Error("Webserver.URL should not be empty")
	}

	if cfg.DB.Host == "" {
		t.Error("DB.Host should not be empty")
	}

	if cfg.DB.GormEngine != "mysql" && cfg.DB.GormEngine != "postgres" {
		t.Errorf("DB.GormEngine = %q, want mysql or postgres", cfg.DB.GormEngine)
	}

	if cfg.Webserver.Session.ExpiryTime <= 0 {
		t.Error("Webserver.Session.ExpiryTime should be positive")
	}
}

func TestReadConfigEnvOverride(t *testing.T) {
	t.Setenv("ROSTERBASE_CONFIG_JSON", `{"Webserver": {"Port": 9999}}`)

	cfg, err := ReadConfig(configDir(t))
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	if cfg.Webserver.Port != 9999 {
		t.Errorf("Webserver.Port = %d, want 9999 from env override", cfg.Webserver.Port)
	}

	// fields not named in the override keep their file values
	if cfg.Webserver.URL == "" {
		t.Error("Webserver.URL should survive a partial env override")
	}
}

func TestReadConfigMissingFile(t *testing.T) {
	_, err := ReadConfig(t.TempDir() + string(filepath.Separator))
	if err == nil {
		t.Fatal("ReadConfig() with missing file should error")
	}

	if !strings.Contains(err.Error(), "failed to read main config file") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDumpConfig(t *testing.T) {
	cfg, err := ReadConfig(configDir(t))
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	out, err := DumpConfig(cfg)
	if err != nil {
		t.Fatalf("DumpConfig() error = %v", err)
	}

	if !strings.Contains(out, "Title") {
		t.Error("DumpConfig() output should contain the Title key")
	}

	jsonOut, err := DumpConfigJSON(cfg)
	if err != nil {
		t.Fatalf("DumpConfigJSON() error = %v", err)
	}

	if !strings.Contains(jsonOut, "\"Webserver\"") {
		t.Error("DumpConfigJSON() output should contain the Webserver key")
	}
}
