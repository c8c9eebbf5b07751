package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/youruser/socialcard/internal/api"
	"github.com/youruser/socialcard/internal/editor"
	imagepkg "github.com/youruser/socialcard/internal/image"
	"github.com/youruser/socialcard/internal/template"
)

func main() {
	dotEnvErr := loadDotEnv(".env")
	cfg := loadConfig(os.Getenv)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	imagepkg.SetLogger(logger)
	if dotEnvErr != nil {
		logger.Warn("ignoring .env", "err", dotEnvErr)
	}

	tmpl := template.Default()
	if cfg.TemplateFile != "" {
		t, err := template.LoadFile(cfg.TemplateFile)
		if err != nil {
			logger.Error("loading template", "path", cfg.TemplateFile, "err", err)
			os.Exit(1)
		}
		tmpl = t
	}

	opts := []imagepkg.Option{}
	if cfg.SkipFailedLayers {
		opts = append(opts, imagepkg.WithFailurePolicy(imagepkg.SkipOnLoadError))
	}
	renderer, err := imagepkg.NewRenderer(imagepkg.NewLoader(cfg.AssetTimeout), opts...)
	if err != nil {
		logger.Error("creating renderer", "err", err)
		os.Exit(1)
	}

	ed := editor.New(renderer, tmpl, editor.WithLogger(logger))
	defer ed.Close()

	h := api.NewHandler(ed)
	if cfg.PreviewSize > 0 {
		h.PreviewSize = cfg.PreviewSize
	}

	r := gin.Default()
	api.RegisterRoutes(r, h)

	logger.Info("starting server", "addr", "http://localhost:"+cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
