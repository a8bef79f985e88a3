package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/conduit-lang/criteria/internal/orm/dialect"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(oldWd) })
}

func TestLoad(t *testing.T) {
	// No config file: defaults apply
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error loading defaults, got %v", err)
	}

	if cfg.Metamodel != "metamodel.yaml" {
		t.Errorf("expected default metamodel 'metamodel.yaml', got %s", cfg.Metamodel)
	}
	if cfg.Database.Driver != "sqlite3" {
		t.Errorf("expected default driver 'sqlite3', got %s", cfg.Database.Driver)
	}
	if cfg.Database.URL != "" {
		t.Errorf("expected empty database url, got %s", cfg.Database.URL)
	}
	if cfg.Log.Verbose {
		t.Error("expected verbose to default to false")
	}
	if cfg.Dialect() != dialect.SQLite {
		t.Errorf("expected sqlite dialect")
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	chdir(t, t.TempDir())

	configContent := `
metamodel: model/entities.yaml
database:
  driver: pgx
  url: postgresql://localhost/testdb
log:
  verbose: true
`
	os.WriteFile("criteria.yaml", []byte(configContent), 0644)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}

	if cfg.Database.URL != "postgresql://localhost/testdb" {
		t.Errorf("unexpected url %s", cfg.Database.URL)
	}
	if cfg.DriverName() != "pgx" || cfg.Dialect() != dialect.Postgres {
		t.Errorf("expected pgx driver, got %s", cfg.DriverName())
	}
	if !cfg.Log.Verbose {
		t.Error("expected verbose")
	}
	if cfg.MetamodelPath() != filepath.Join("model", "entities.yaml") {
		t.Errorf("unexpected metamodel path %s", cfg.MetamodelPath())
	}
}

func TestLoadFile_ResolvesMetamodelRelativeToConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	os.WriteFile(path, []byte("metamodel: entities.yaml\n"), 0644)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MetamodelPath() != filepath.Join(dir, "entities.yaml") {
		t.Errorf("unexpected metamodel path %s", cfg.MetamodelPath())
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for a missing explicit config file")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	os.WriteFile("criteria.yaml", []byte("database:\n  url: file.db\n"), 0644)

	t.Setenv("CRITERIA_DATABASE_URL", "from-env.db")
	t.Setenv("CRITERIA_METAMODEL", "/abs/model.yaml")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.URL != "from-env.db" {
		t.Errorf("expected env url, got %s", cfg.Database.URL)
	}
	if cfg.MetamodelPath() != "/abs/model.yaml" {
		t.Errorf("absolute metamodel path should be kept, got %s", cfg.MetamodelPath())
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"sqlite", Config{Metamodel: "m.yaml", Database: DatabaseConfig{Driver: "sqlite3"}}, ""},
		{"postgres alias", Config{Metamodel: "m.yaml", Database: DatabaseConfig{Driver: "postgres"}}, ""},
		{"unknown driver", Config{Metamodel: "m.yaml", Database: DatabaseConfig{Driver: "mysql"}}, "database.driver"},
		{"no metamodel", Config{Database: DatabaseConfig{Driver: "sqlite3"}}, "metamodel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfig(&tt.cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoad_InvalidDriverInFile(t *testing.T) {
	chdir(t, t.TempDir())
	os.WriteFile("criteria.yaml", []byte("database:\n  driver: oracle\n"), 0644)

	if _, err := Load(); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestNewLogger(t *testing.T) {
	for _, verbose := range []bool{true, false} {
		cfg := &Config{Log: LogConfig{Verbose: verbose}}
		logger, err := cfg.NewLogger()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if logger == nil {
			t.Fatal("expected logger")
		}
		if !verbose && logger.Core().Enabled(-1) {
			t.Error("debug logging should be disabled unless verbose")
		}
	}
}
