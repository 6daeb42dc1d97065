package services

import (
	"log"
	"os"
	"strconv"
	"time"

	"matchmaking_server/models"
)

// Config holds the process-level matchmaking settings. Values come from the
// environment with coded defaults; none of them are request parameters.
type Config struct {
	BucketWidth   int           // Rating span of one bucket
	GroupSize     int           // Tickets per claimed group, must be even
	TeamSize      int           // GroupSize / 2
	MinRating     int           // Inclusive lower bound for valid ratings
	MaxRating     int           // Inclusive upper bound for valid ratings
	SessionTTL    time.Duration // Lifetime of a session record
	MatchMode     string        // Fixed mode label stamped on every match
	MatchRegion   string        // Fixed region label stamped on every match
	QueueWorkers  int           // Concurrent enqueue-consumer goroutines
	SessionsTable string        // DynamoDB table for session records
}

// LoadConfig reads the matchmaking configuration from the environment.
// Unparseable or invalid values fall back to their defaults with a warning.
func LoadConfig() Config {
	cfg := Config{
		BucketWidth:   envInt("BUCKET_WIDTH", 100),
		GroupSize:     envInt("GROUP_SIZE", 8),
		MinRating:     envInt("MIN_RATING", 0),
		MaxRating:     envInt("MAX_RATING", 10000),
		SessionTTL:    envDuration("SESSION_TTL", 24*time.Hour),
		MatchMode:     envString("MATCH_MODE", "standard"),
		MatchRegion:   envString("MATCH_REGION", "global"),
		QueueWorkers:  envInt("QUEUE_WORKERS", 2),
		SessionsTable: envString("SESSIONS_TABLE", models.SessionsTable),
	}

	if cfg.BucketWidth <= 0 {
		log.Printf("⚠️ Invalid BUCKET_WIDTH %d, falling back to 100", cfg.BucketWidth)
		cfg.BucketWidth = 100
	}
	if cfg.GroupSize <= 0 || cfg.GroupSize%2 != 0 {
		log.Printf("⚠️ GROUP_SIZE must be a positive even number, got %d, falling back to 8", cfg.GroupSize)
		cfg.GroupSize = 8
	}
	cfg.TeamSize = cfg.GroupSize / 2
	if cfg.QueueWorkers <= 0 {
		cfg.QueueWorkers = 2
	}
	return cfg
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️ Could not parse %s=%q as integer, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("⚠️ Could not parse %s=%q as duration, using default %s", key, v, fallback)
		return fallback
	}
	return d
}
