package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"FaceRegistry/pkg/matcher"
	"FaceRegistry/pkg/utils"
)

const (
	MatchIndexLinear = "linear"
	MatchIndexHNSW   = "hnsw"
)

// Settings holds the process configuration read from the environment.
type Settings struct {
	Port           string
	Env            string
	Policy         matcher.Policy
	MatchIndex     string
	MatchTopK      int
	UploadDriver   string
	UploadDir      string
	UploadMaxBytes int64
	ModelsDir      string
	CORSOrigins    string
	RateLimitRPS   float64
	RateLimitBurst int
	CacheTTL       time.Duration
}

func LoadSettings() (Settings, error) {
	s := Settings{
		Port:         getenv("APP_PORT", "3000"),
		Env:          getenv("APP_ENV", "development"),
		MatchIndex:   strings.ToLower(getenv("MATCH_INDEX", MatchIndexLinear)),
		UploadDriver: strings.ToLower(os.Getenv("UPLOAD_DRIVER")),
		UploadDir:    getenv("UPLOAD_DIR", "./uploads"),
		ModelsDir:    getenv("MODELS_DIR", "./models"),
		CORSOrigins:  getenv("CORS_ORIGINS", "http://localhost:5173"),
	}

	var err error
	if s.Policy.BaseThreshold, err = floatEnv("MATCH_BASE_THRESHOLD", matcher.DefaultBaseThreshold); err != nil {
		return Settings{}, err
	}
	if s.Policy.DetectionWeight, err = floatEnv("MATCH_DETECTION_WEIGHT", matcher.DefaultDetectionWeight); err != nil {
		return Settings{}, err
	}
	if s.MatchTopK, err = intEnv("MATCH_TOP_K", matcher.DefaultTopK); err != nil {
		return Settings{}, err
	}
	if s.RateLimitRPS, err = floatEnv("RATE_LIMIT_RPS", 50); err != nil {
		return Settings{}, err
	}
	if s.RateLimitBurst, err = intEnv("RATE_LIMIT_BURST", 100); err != nil {
		return Settings{}, err
	}

	maxBytes, err := intEnv("UPLOAD_MAX_BYTES", int(utils.DefaultMaxFileSize))
	if err != nil {
		return Settings{}, err
	}
	s.UploadMaxBytes = int64(maxBytes)

	if s.CacheTTL, err = time.ParseDuration(getenv("CACHE_TTL", "5m")); err != nil {
		return Settings{}, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}

	if s.MatchIndex != MatchIndexLinear && s.MatchIndex != MatchIndexHNSW {
		return Settings{}, fmt.Errorf("invalid MATCH_INDEX %q: want %s or %s", s.MatchIndex, MatchIndexLinear, MatchIndexHNSW)
	}
	if s.Policy.DetectionWeight < 0 {
		return Settings{}, fmt.Errorf("invalid MATCH_DETECTION_WEIGHT: must not be negative")
	}

	return s, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func floatEnv(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
