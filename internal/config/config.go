// Package config provides application configuration management.
// It loads settings from environment variables and provides defaults for
// the server, storage, scraper, geocoder, and all matching/scoring
// thresholds. Thresholds live in config (not package constants) so that
// callers construct matchers and comparators from explicit, immutable
// values and tests can vary them freely.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Metrics Authentication
	MetricsUsername string // Username for /metrics endpoint Basic Auth (default: "prometheus")
	MetricsPassword string // Password for /metrics endpoint Basic Auth (empty = no auth)

	// Better Stack log shipping (optional)
	BetterStackToken    string
	BetterStackEndpoint string

	// Data Configuration
	DataDir     string // Data directory for the SQLite database
	MyCollegeID string // Identifier for the home college row (default: "my_college")

	// Scraper Configuration
	ScraperTimeout    time.Duration
	ScraperMaxRetries int

	// Geocoder Configuration
	GeocoderBaseURL string        // Nominatim-compatible search endpoint
	GeocoderDelay   time.Duration // Minimum delay between geocoding requests

	// Matching Configuration (embedded)
	Matching MatchingConfig
}

// MatchingConfig holds the course-matching and competition-scoring policy.
// These are deliberate policy values with env overrides for tuning, not
// values derived from data.
type MatchingConfig struct {
	// Close-match detection
	CloseMatchThreshold float64 // Token Jaccard ratio must strictly exceed this (default: 0.4)

	// Course-level scoring
	ExactMatchWeight float64 // Weight of an exact match (default: 2)
	CloseMatchWeight float64 // Weight of a close match (default: 1)

	// Course-level classification thresholds (five-tier)
	VeryHighScore float64 // score >= this -> VERY_HIGH (default: 0.7)
	HighScore     float64 // score >= this -> HIGH (default: 0.5)
	MediumScore   float64 // score >= this -> MEDIUM (default: 0.3)
	LowScore      float64 // score >= this -> LOW (default: 0.1)

	// College-level comparator weights
	ProgramWeight    float64 // default: 0.70
	AcademicWeight   float64 // default: 0.20
	EnrollmentWeight float64 // default: 0.10

	// College-level gate: program similarity below this forces score 0.0
	ProgramGate float64 // default: 0.1

	// College-level classification (four-tier, joint overlap and score)
	CollegeHighOverlap   float64 // overlap > this AND score > CollegeHighScore -> HIGH (default: 0.6)
	CollegeHighScore     float64 // default: 0.65
	CollegeMediumOverlap float64 // overlap > this AND score > CollegeMediumScore -> MEDIUM (default: 0.3)
	CollegeMediumScore   float64 // default: 0.45

	// Report limits
	MaxUniquePrograms  int // Unique-program list length per competitor in reports (default: 10)
	TopCompetitors     int // Biggest-competitor list length in summaries (default: 5)
	MaxProgramsPerPage int // Maximum programs extracted per scraped page (default: 50)
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		// Server Configuration
		Port:            getEnv("PORT", "10000"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),

		// Metrics Authentication
		MetricsUsername: getEnv("METRICS_USERNAME", "prometheus"),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),

		// Better Stack log shipping
		BetterStackToken:    getEnv("BETTERSTACK_TOKEN", ""),
		BetterStackEndpoint: getEnv("BETTERSTACK_ENDPOINT", ""),

		// Data Configuration
		DataDir:     getEnv("DATA_DIR", "./data"),
		MyCollegeID: getEnv("MY_COLLEGE_ID", "my_college"),

		// Scraper Configuration
		ScraperTimeout:    getDurationEnv("SCRAPER_TIMEOUT", 30*time.Second),
		ScraperMaxRetries: getIntEnv("SCRAPER_MAX_RETRIES", 3),

		// Geocoder Configuration
		GeocoderBaseURL: getEnv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org/search"),
		GeocoderDelay:   getDurationEnv("GEOCODER_DELAY", 100*time.Millisecond),

		Matching: MatchingConfig{
			CloseMatchThreshold:  getFloatEnv("CLOSE_MATCH_THRESHOLD", 0.4),
			ExactMatchWeight:     getFloatEnv("EXACT_MATCH_WEIGHT", 2.0),
			CloseMatchWeight:     getFloatEnv("CLOSE_MATCH_WEIGHT", 1.0),
			VeryHighScore:        getFloatEnv("VERY_HIGH_SCORE", 0.7),
			HighScore:            getFloatEnv("HIGH_SCORE", 0.5),
			MediumScore:          getFloatEnv("MEDIUM_SCORE", 0.3),
			LowScore:             getFloatEnv("LOW_SCORE", 0.1),
			ProgramWeight:        getFloatEnv("PROGRAM_WEIGHT", 0.70),
			AcademicWeight:       getFloatEnv("ACADEMIC_WEIGHT", 0.20),
			EnrollmentWeight:     getFloatEnv("ENROLLMENT_WEIGHT", 0.10),
			ProgramGate:          getFloatEnv("PROGRAM_GATE", 0.1),
			CollegeHighOverlap:   getFloatEnv("COLLEGE_HIGH_OVERLAP", 0.6),
			CollegeHighScore:     getFloatEnv("COLLEGE_HIGH_SCORE", 0.65),
			CollegeMediumOverlap: getFloatEnv("COLLEGE_MEDIUM_OVERLAP", 0.3),
			CollegeMediumScore:   getFloatEnv("COLLEGE_MEDIUM_SCORE", 0.45),
			MaxUniquePrograms:    getIntEnv("MAX_UNIQUE_PROGRAMS", 10),
			TopCompetitors:       getIntEnv("TOP_COMPETITORS", 5),
			MaxProgramsPerPage:   getIntEnv("MAX_PROGRAMS_PER_PAGE", 50),
		},
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT must not be empty")
	}
	if c.ScraperMaxRetries < 0 {
		return fmt.Errorf("SCRAPER_MAX_RETRIES must be >= 0, got %d", c.ScraperMaxRetries)
	}
	if c.GeocoderBaseURL == "" {
		return errors.New("GEOCODER_BASE_URL must not be empty")
	}
	return c.Matching.Validate()
}

// Validate checks that matching thresholds are internally consistent
func (m *MatchingConfig) Validate() error {
	if m.CloseMatchThreshold < 0 || m.CloseMatchThreshold >= 1 {
		return fmt.Errorf("CLOSE_MATCH_THRESHOLD must be in [0, 1), got %v", m.CloseMatchThreshold)
	}
	if m.ExactMatchWeight < m.CloseMatchWeight {
		return fmt.Errorf("EXACT_MATCH_WEIGHT (%v) must be >= CLOSE_MATCH_WEIGHT (%v)",
			m.ExactMatchWeight, m.CloseMatchWeight)
	}
	weights := m.ProgramWeight + m.AcademicWeight + m.EnrollmentWeight
	if weights < 0.999 || weights > 1.001 {
		return fmt.Errorf("comparator weights must sum to 1.0, got %v", weights)
	}
	if !(m.VeryHighScore >= m.HighScore && m.HighScore >= m.MediumScore && m.MediumScore >= m.LowScore) {
		return errors.New("course-level classification thresholds must be non-increasing")
	}
	if m.CollegeHighOverlap < m.CollegeMediumOverlap || m.CollegeHighScore < m.CollegeMediumScore {
		return errors.New("college-level HIGH thresholds must not be below MEDIUM thresholds")
	}
	return nil
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "collegeradar.db")
}

// getEnv gets an environment variable with a fallback default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable with a fallback default
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getFloatEnv gets a float environment variable with a fallback default
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable with a fallback default
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
