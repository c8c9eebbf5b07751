package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	imagepkg "github.com/youruser/socialcard/internal/image"
)

type config struct {
	Port             string
	TemplateFile     string
	AssetTimeout     time.Duration
	PreviewSize      int
	SkipFailedLayers bool
	LogLevel         slog.Level
}

// loadDotEnv reads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// loadConfig resolves settings through getenv; unset or malformed values
// fall back to defaults.
func loadConfig(getenv func(string) string) config {
	cfg := config{
		Port:         getenv("PORT"),
		TemplateFile: getenv("TEMPLATE_FILE"),
		AssetTimeout: imagepkg.DefaultLoadTimeout,
		LogLevel:     slog.LevelInfo,
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if d, err := time.ParseDuration(getenv("ASSET_TIMEOUT")); err == nil && d > 0 {
		cfg.AssetTimeout = d
	}
	if v, err := strconv.Atoi(getenv("PREVIEW_SIZE")); err == nil && v > 0 {
		cfg.PreviewSize = v
	}
	cfg.SkipFailedLayers, _ = strconv.ParseBool(getenv("SKIP_FAILED_LAYERS"))
	var l slog.Level
	if err := l.UnmarshalText([]byte(getenv("LOG_LEVEL"))); err == nil {
		cfg.LogLevel = l
	}
	return cfg
}
