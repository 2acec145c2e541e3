// Package config assembles the application settings once, from environment
// variables (populated from .env in main.go) and an optional mapping file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/BartekS5/flightetl/pkg/models"
	"github.com/BartekS5/flightetl/pkg/utils"
)

// sqlServerMaxParams is the SQL Server limit on parameters in one request.
const sqlServerMaxParams = 2100

// Database drivers accepted in DB_DRIVER.
const (
	DriverPostgres  = "postgres"
	DriverSQLServer = "sqlserver"
	DriverORM       = "orm"
	DriverSQLite    = "sqlite"
)

// Quality engines accepted in QUALITY_ENGINE.
const (
	EngineContext = "context"
	EngineDirect  = "direct"
	EngineNone    = "none"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv   string
	LogLevel string

	API     APIConfig
	DB      DBConfig
	Load    LoaderConfig
	Quality QualityConfig
	Metrics MetricsConfig
}

// APIConfig configures the flights endpoint.
type APIConfig struct {
	BaseURL      string
	AccessKey    string
	FlightStatus string
	Limit        int
	Timeout      time.Duration
}

// DBConfig configures the destination database. Connection settings default
// to the local docker-compose stack.
type DBConfig struct {
	Driver     string
	Host       string
	Name       string
	User       string
	Password   string
	Port       int
	SSLMode    string
	// Table overrides the mapping's destination table when DB_TABLE is set.
	Table      string
	SQLitePath string
}

// LoaderConfig configures the loader retry policy and insert chunking.
type LoaderConfig struct {
	Attempts   int
	RetryDelay time.Duration
	ChunkSize  int
}

// QualityConfig configures the validation engine.
type QualityConfig struct {
	Engine    string
	DataDir   string
	SuiteName string
	MongoURI  string
	MongoDB   string
}

// MetricsConfig configures the Pushgateway backend. An empty URL disables it.
type MetricsConfig struct {
	PushgatewayURL string
	Job            string
}

// LoadConfig loads application settings from environment variables.
func LoadConfig() (*Config, error) {
	var errs []error
	intVar := func(key string, def int) int {
		v, err := getEnvAsInt(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	durVar := func(key string, def time.Duration) time.Duration {
		v, err := getEnvAsDuration(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", ""),
		API: APIConfig{
			BaseURL:      getEnv("AVIATIONSTACK_BASE_URL", "http://api.aviationstack.com/v1/flights"),
			AccessKey:    os.Getenv("AVIATIONSTACK_API_KEY"),
			FlightStatus: getEnv("API_FLIGHT_STATUS", "active"),
			Limit:        intVar("API_LIMIT", 100),
			Timeout:      durVar("API_TIMEOUT", 30*time.Second),
		},
		DB: DBConfig{
			Driver:     getEnv("DB_DRIVER", DriverPostgres),
			Host:       getEnv("DB_HOST", "postgres"),
			Name:       getEnv("DB_NAME", "testfligoo"),
			User:       getEnv("DB_USER", "airflow"),
			Password:   getEnv("DB_PASSWORD", "airflow"),
			Port:       intVar("DB_PORT", 5432),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			Table:      os.Getenv("DB_TABLE"),
			SQLitePath: getEnv("SQLITE_PATH", "flights.db"),
		},
		Load: LoaderConfig{
			Attempts:   intVar("LOAD_ATTEMPTS", 3),
			RetryDelay: durVar("LOAD_RETRY_DELAY", 5*time.Second),
			ChunkSize:  intVar("LOAD_CHUNK_SIZE", 100),
		},
		Quality: QualityConfig{
			Engine:    getEnv("QUALITY_ENGINE", EngineContext),
			DataDir:   getEnv("QUALITY_DATA_DIR", "data/great_expectations"),
			SuiteName: getEnv("QUALITY_SUITE", "flight_data_suite"),
			MongoURI:  os.Getenv("MONGO_URI"),
			MongoDB:   getEnv("MONGO_DB", "flightetl"),
		},
		Metrics: MetricsConfig{
			PushgatewayURL: os.Getenv("PUSHGATEWAY_URL"),
			Job:            getEnv("METRICS_JOB", "flightetl"),
		},
	}

	if len(errs) > 0 {
		return nil, errs[0]
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations. A missing API key is not an
// error here; the extractor reports it when it runs.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case DriverPostgres, DriverSQLServer, DriverORM, DriverSQLite:
	default:
		return fmt.Errorf("DB_DRIVER %q is not one of postgres, sqlserver, orm, sqlite", c.DB.Driver)
	}
	switch c.Quality.Engine {
	case EngineContext, EngineDirect, EngineNone:
	default:
		return fmt.Errorf("QUALITY_ENGINE %q is not one of context, direct, none", c.Quality.Engine)
	}
	if c.Load.Attempts < 1 {
		return fmt.Errorf("LOAD_ATTEMPTS must be at least 1, got %d", c.Load.Attempts)
	}
	if c.Load.RetryDelay < 0 {
		return fmt.Errorf("LOAD_RETRY_DELAY must not be negative")
	}
	if c.Load.ChunkSize < 1 {
		return fmt.Errorf("LOAD_CHUNK_SIZE must be at least 1, got %d", c.Load.ChunkSize)
	}
	if c.DB.Driver == DriverSQLServer {
		if limit := (sqlServerMaxParams - 1) / len(models.FlightColumns); c.Load.ChunkSize > limit {
			return fmt.Errorf("LOAD_CHUNK_SIZE %d exceeds the sqlserver limit of %d rows per insert", c.Load.ChunkSize, limit)
		}
	}
	if c.API.Limit < 1 {
		return fmt.Errorf("API_LIMIT must be at least 1, got %d", c.API.Limit)
	}
	return nil
}

// PostgresDSN renders the pgx / gorm connection string.
func (d DBConfig) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// SQLServerDSN renders the go-mssqldb connection string.
func (d DBConfig) SQLServerDSN() string {
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		RawQuery: url.Values{"database": {d.Name}}.Encode(),
	}
	return u.String()
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := utils.ConvertToInt(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, raw)
	}
	return v, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, raw)
	}
	return v, nil
}
