package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Data sources for the listing catalog.
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Env      string
	HTTPAddr string
	LogLevel string

	DatasetPath   string
	DataSource    string
	SchemaPath    string
	CSVOutputPath string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	FeatureColumns []string
	DisplayColumns []string
	NumSimilar     int
	SamplesPerCity int

	SessionSecret   string
	SessionTTL      time.Duration
	LoginRatePerMin int

	MaxConcurrency int
	MaxRetries     int
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatasetPath:   getEnv("DATASET_PATH", "./data/House_Rent_Dataset.csv"),
		DataSource:    strings.ToLower(getEnv("DATA_SOURCE", SourceCSV)),
		SchemaPath:    getEnv("SCHEMA_PATH", ""),
		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/clean_listings.csv"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "recommender"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "recommender123"),
		PostgresDB:       getEnv("POSTGRES_DB", "property_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		FeatureColumns: getEnvList("FEATURE_COLUMNS", []string{"BHK", "Rent", "Size", "City", "Bathroom"}),
		DisplayColumns: getEnvList("DISPLAY_COLUMNS",
			[]string{"City", "BHK", "Size", "Rent", "Bathroom", "Image Link", "Posted On"}),
		NumSimilar:     getEnvInt("NUM_SIMILAR", 5),
		SamplesPerCity: getEnvInt("SAMPLES_PER_CITY", 5),

		SessionSecret:   getEnv("SESSION_SECRET", ""),
		SessionTTL:      getEnvDuration("SESSION_TTL", 24*time.Hour),
		LoginRatePerMin: getEnvInt("LOGIN_RATE_PER_MIN", 10),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
	}
}

// Production reports whether the service runs outside development.
func (c *Config) Production() bool {
	return c.Env != "development"
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if len(c.FeatureColumns) == 0 {
		errs = append(errs, errors.New("FEATURE_COLUMNS must name at least one column"))
	}
	if c.NumSimilar < 0 {
		errs = append(errs, fmt.Errorf("NUM_SIMILAR must not be negative, got %d", c.NumSimilar))
	}
	if c.SamplesPerCity < 0 {
		errs = append(errs, fmt.Errorf("SAMPLES_PER_CITY must not be negative, got %d", c.SamplesPerCity))
	}
	if c.DataSource != SourceCSV && c.DataSource != SourcePostgres {
		errs = append(errs, fmt.Errorf("DATA_SOURCE must be %q or %q, got %q", SourceCSV, SourcePostgres, c.DataSource))
	}
	if c.SessionSecret == "" && c.Production() {
		errs = append(errs, errors.New("SESSION_SECRET is required outside development"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

// getEnvList splits a comma-separated value, dropping blank entries.
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}
