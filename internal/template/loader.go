package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrInvalidTemplate = errors.New("invalid template")

// LoadFile reads a template descriptor from a YAML or JSON file. Fields the
// file leaves out keep their Default() values.
func LoadFile(path string) (Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Template{}, fmt.Errorf("template: read %s: %w", path, err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes a descriptor. ext selects the format (".json" or
// ".yaml"/".yml"); anything else is parsed as YAML, which also accepts JSON.
func Parse(data []byte, ext string) (Template, error) {
	t := Default()
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &t); err != nil {
			return Template{}, fmt.Errorf("template: decode json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &t); err != nil {
			return Template{}, fmt.Errorf("template: decode yaml: %w", err)
		}
	}
	if err := t.Validate(); err != nil {
		return Template{}, err
	}
	return t, nil
}

// Validate checks geometry, colors and asset references.
func (t Template) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	c := t.Caption
	if c.Position.X < 0 || c.Position.Y < 0 {
		add("caption position must be non-negative")
	}
	if c.MaxCharactersPerLine <= 0 {
		add("caption max_characters_per_line must be positive")
	}
	if c.FontSize <= 0 {
		add("caption font_size must be positive")
	}
	switch c.Alignment {
	case "", "left", "center", "right":
	default:
		add("caption alignment %q is not one of left, center, right", c.Alignment)
	}
	if _, err := ParseColor(c.TextColor); err != nil {
		add("caption text_color: %v", err)
	}

	if t.CTA.Position.X < 0 || t.CTA.Position.Y < 0 {
		add("cta position must be non-negative")
	}
	if t.CTA.FontSize < 0 {
		add("cta font_size must be non-negative")
	}
	if _, err := ParseColor(t.CTA.TextColor); err != nil {
		add("cta text_color: %v", err)
	}
	if _, err := ParseColor(t.CTA.BackgroundColor); err != nil {
		add("cta background_color: %v", err)
	}

	m := t.ImageMask
	if m.X < 0 || m.Y < 0 || m.Width <= 0 || m.Height <= 0 {
		add("image_mask must have a non-negative origin and a positive size")
	} else if m.X+m.Width > CanvasWidth || m.Y+m.Height > CanvasHeight {
		add("image_mask %dx%d+%d+%d exceeds the %dx%d canvas", m.Width, m.Height, m.X, m.Y, CanvasWidth, CanvasHeight)
	}

	if t.URLs.Mask == "" || t.URLs.Stroke == "" || t.URLs.DesignPattern == "" {
		add("urls.mask, urls.stroke and urls.design_pattern are required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTemplate, strings.Join(problems, "; "))
	}
	return nil
}
