package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BartekS5/flightetl/pkg/models"
)

var configKeys = []string{
	"APP_ENV", "LOG_LEVEL",
	"AVIATIONSTACK_BASE_URL", "AVIATIONSTACK_API_KEY", "API_FLIGHT_STATUS", "API_LIMIT", "API_TIMEOUT",
	"DB_DRIVER", "DB_HOST", "DB_NAME", "DB_USER", "DB_PASSWORD", "DB_PORT", "DB_SSLMODE", "DB_TABLE", "SQLITE_PATH",
	"LOAD_ATTEMPTS", "LOAD_RETRY_DELAY", "LOAD_CHUNK_SIZE",
	"QUALITY_ENGINE", "QUALITY_DATA_DIR", "QUALITY_SUITE", "MONGO_URI", "MONGO_DB",
	"PUSHGATEWAY_URL", "METRICS_JOB",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.DB.Host != "postgres" || cfg.DB.Name != "testfligoo" || cfg.DB.User != "airflow" ||
		cfg.DB.Password != "airflow" || cfg.DB.Port != 5432 {
		t.Errorf("unexpected DB defaults: %+v", cfg.DB)
	}
	if cfg.Load.Attempts != 3 || cfg.Load.RetryDelay != 5*time.Second || cfg.Load.ChunkSize != 100 {
		t.Errorf("unexpected load defaults: %+v", cfg.Load)
	}
	if cfg.API.FlightStatus != "active" || cfg.API.Limit != 100 {
		t.Errorf("unexpected API defaults: %+v", cfg.API)
	}
	if cfg.API.AccessKey != "" {
		t.Errorf("expected empty access key, got %q", cfg.API.AccessKey)
	}
	if cfg.Quality.Engine != EngineContext {
		t.Errorf("expected context engine, got %s", cfg.Quality.Engine)
	}
	if cfg.DB.Table != "" {
		t.Errorf("DB_TABLE unset should leave the table to the mapping, got %q", cfg.DB.Table)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("AVIATIONSTACK_API_KEY", "secret")
	t.Setenv("DB_DRIVER", "sqlserver")
	t.Setenv("DB_PORT", "1433")
	t.Setenv("LOAD_RETRY_DELAY", "250ms")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.API.AccessKey != "secret" {
		t.Errorf("access key not read")
	}
	if cfg.DB.Driver != DriverSQLServer || cfg.DB.Port != 1433 {
		t.Errorf("unexpected DB config: %+v", cfg.DB)
	}
	if cfg.Load.RetryDelay != 250*time.Millisecond {
		t.Errorf("unexpected retry delay %s", cfg.Load.RetryDelay)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"DB_PORT", "abc", "DB_PORT"},
		{"API_TIMEOUT", "soon", "API_TIMEOUT"},
		{"DB_DRIVER", "oracle", "DB_DRIVER"},
		{"QUALITY_ENGINE", "gx", "QUALITY_ENGINE"},
		{"LOAD_ATTEMPTS", "0", "LOAD_ATTEMPTS"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := LoadConfig()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %s", err, tt.want)
			}
		})
	}
}

func TestDSNs(t *testing.T) {
	d := DBConfig{Host: "db", Port: 5432, Name: "testfligoo", User: "airflow", Password: "p@ss", SSLMode: "disable"}
	if got := d.PostgresDSN(); got != "postgres://airflow:p%40ss@db:5432/testfligoo?sslmode=disable" {
		t.Errorf("unexpected postgres DSN %s", got)
	}
	if got := d.SQLServerDSN(); got != "sqlserver://airflow:p%40ss@db:5432?database=testfligoo" {
		t.Errorf("unexpected sqlserver DSN %s", got)
	}
}

func TestLoadMapping(t *testing.T) {
	m, err := LoadMapping("", "flights_daily")
	if err != nil {
		t.Fatalf("default mapping: %v", err)
	}
	if m.Table != "flights_daily" || len(m.Fields) != 9 {
		t.Errorf("unexpected mapping %+v", m)
	}

	if _, err := LoadMapping(filepath.Join(t.TempDir(), "missing.json"), ""); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte(`{"fields":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadMapping(bad, ""); err == nil {
		t.Error("expected validation error")
	}
}

func TestLoadMappingTableOverride(t *testing.T) {
	mapping := models.DefaultFlightMapping()
	mapping.Table = "flights_archive"
	doc, err := json.Marshal(mapping)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "mapping.json")
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		t.Fatal(err)
	}

	clearEnv(t)
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	m, err := LoadMapping(path, cfg.DB.Table)
	if err != nil {
		t.Fatalf("LoadMapping: %v", err)
	}
	if m.Table != "flights_archive" {
		t.Errorf("table = %q, want the mapping file's flights_archive", m.Table)
	}

	t.Setenv("DB_TABLE", "flights_override")
	cfg, err = LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	m, err = LoadMapping(path, cfg.DB.Table)
	if err != nil {
		t.Fatalf("LoadMapping: %v", err)
	}
	if m.Table != "flights_override" {
		t.Errorf("table = %q, want DB_TABLE override", m.Table)
	}

	m, err = LoadMapping("", "")
	if err != nil {
		t.Fatalf("LoadMapping default: %v", err)
	}
	if m.Table != "flights" {
		t.Errorf("default table = %q, want flights", m.Table)
	}
}

func TestLoadConfigSQLServerChunkLimit(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "sqlserver")
	t.Setenv("LOAD_CHUNK_SIZE", "500")
	_, err := LoadConfig()
	if err == nil {
		t.Fatal("expected error for a chunk over the SQL Server parameter limit")
	}
	if !strings.Contains(err.Error(), "LOAD_CHUNK_SIZE") {
		t.Errorf("error %q does not mention LOAD_CHUNK_SIZE", err)
	}

	t.Setenv("LOAD_CHUNK_SIZE", "233")
	if _, err := LoadConfig(); err != nil {
		t.Errorf("233 rows should fit: %v", err)
	}

	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("LOAD_CHUNK_SIZE", "500")
	if _, err := LoadConfig(); err != nil {
		t.Errorf("postgres has no parameter limit: %v", err)
	}
}
