package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/Fepozopo/rasterops/pkg/logger"
)

// Config holds the runtime settings read from .env and the environment.
type Config struct {
	LogLevel    zerolog.Level
	Workers     int // GOMAXPROCS override; 0 leaves the runtime default
	JPEGQuality int
	NoFzf       bool
	Preview     bool
	UpdateRepo  string
}

const (
	defaultJPEGQuality = 92
	defaultUpdateRepo  = "Fepozopo/rasterops"
)

// LoadConfig loads the given .env files (".env" when none are named) and
// then reads RASTEROPS_* variables. Variables already set in the environment
// win over .env entries. Missing .env files are not an error.
func LoadConfig(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Config{
		LogLevel:    zerolog.InfoLevel,
		JPEGQuality: defaultJPEGQuality,
		Preview:     true,
		UpdateRepo:  defaultUpdateRepo,
	}
	if v := os.Getenv("RASTEROPS_LOG_LEVEL"); v != "" {
		lvl, ok := logger.ParseLevel(v)
		if !ok {
			return cfg, fmt.Errorf("invalid RASTEROPS_LOG_LEVEL %q", v)
		}
		cfg.LogLevel = lvl
	}
	if v := os.Getenv("RASTEROPS_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("invalid RASTEROPS_WORKERS %q", v)
		}
		cfg.Workers = n
	}
	if v := os.Getenv("RASTEROPS_JPEG_QUALITY"); v != "" {
		q, err := strconv.Atoi(v)
		if err != nil || q < 1 || q > 100 {
			return cfg, fmt.Errorf("invalid RASTEROPS_JPEG_QUALITY %q (want 1-100)", v)
		}
		cfg.JPEGQuality = q
	}
	if v := os.Getenv("RASTEROPS_NO_FZF"); v != "" {
		b, err := parseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid RASTEROPS_NO_FZF: %w", err)
		}
		cfg.NoFzf = b
	}
	if v := os.Getenv("RASTEROPS_PREVIEW"); v != "" {
		b, err := parseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid RASTEROPS_PREVIEW: %w", err)
		}
		cfg.Preview = b
	}
	if v := strings.TrimSpace(os.Getenv("RASTEROPS_UPDATE_REPO")); v != "" {
		if strings.Count(v, "/") != 1 || strings.HasPrefix(v, "/") || strings.HasSuffix(v, "/") {
			return cfg, fmt.Errorf("invalid RASTEROPS_UPDATE_REPO %q (want owner/name)", v)
		}
		cfg.UpdateRepo = v
	}
	return cfg, nil
}

// parseBool accepts common truthy/falsy forms.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, nil
	case "0", "f", "false", "n", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean: %q", s)
	}
}
