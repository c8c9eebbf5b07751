package imagepkg

import "strings"

// MeasureFunc returns the rendered width of s in pixels.
type MeasureFunc func(s string) float64

// Wrap splits text into lines for a caption box. A line breaks once its
// measured width would exceed maxCharsPerLine*(fontSize/2) pixels, i.e. the
// character budget at an assumed average glyph width of half the font size.
// Words are never split, so a single over-long word gets a line of its own.
//
// Wrap always returns at least one line; empty input yields [""].
func Wrap(text string, maxCharsPerLine int, fontSize float64, measure MeasureFunc) []string {
	limit := float64(maxCharsPerLine) * (fontSize / 2)

	var lines []string
	emit := func(line string) {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	line := ""
	for _, word := range strings.Split(text, " ") {
		candidate := line + word + " "
		if measure(candidate) > limit && len(line) > 0 {
			emit(line)
			line = word + " "
			continue
		}
		line = candidate
	}
	emit(line)

	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
