package imagepkg

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Alignment mirrors the horizontal text anchors of the caption.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// Typeface is a parsed font shared across render passes. Faces created from
// it are not safe for concurrent use, so every pass opens its own.
type Typeface struct {
	font *opentype.Font
}

// GoRegular returns the bundled Go Regular typeface.
func GoRegular() (*Typeface, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &Typeface{font: f}, nil
}

// faceSet caches one face per pixel size for the duration of a pass.
type faceSet struct {
	tf    *Typeface
	faces map[int]font.Face
}

func (tf *Typeface) newFaceSet() *faceSet {
	return &faceSet{tf: tf, faces: make(map[int]font.Face)}
}

func (s *faceSet) face(size int) (font.Face, error) {
	if f, ok := s.faces[size]; ok {
		return f, nil
	}
	// DPI 72 makes Size a pixel size, matching CSS "44px".
	f, err := opentype.NewFace(s.tf.font, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("open face %dpx: %w", size, err)
	}
	s.faces[size] = f
	return f, nil
}

func (s *faceSet) close() {
	for _, f := range s.faces {
		f.Close()
	}
}

func measureWith(face font.Face) MeasureFunc {
	return func(s string) float64 {
		return fixedToFloat(font.MeasureString(face, s))
	}
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

// drawText draws s with its alphabetic baseline at y. x is interpreted per
// align.
func drawText(dst draw.Image, face font.Face, c color.Color, s string, x, y float64, align Alignment) {
	if s == "" {
		return
	}
	width := fixedToFloat(font.MeasureString(face, s))
	switch align {
	case AlignCenter:
		x -= width / 2
	case AlignRight:
		x -= width
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: floatToFixed(x), Y: floatToFixed(y)},
	}
	d.DrawString(s)
}

// middleBaseline converts a vertical middle at y into a baseline, the
// equivalent of textBaseline "middle".
func middleBaseline(face font.Face, y float64) float64 {
	m := face.Metrics()
	return y + (fixedToFloat(m.Ascent)-fixedToFloat(m.Descent))/2
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}
