package imagepkg

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"

	"github.com/youruser/socialcard/internal/template"
)

// CTA chip geometry around the label.
const (
	ctaPaddingX   = 12
	ctaChipHeight = 60
)

// ImageLoader resolves an asset reference to a decoded image.
type ImageLoader interface {
	Load(ctx context.Context, ref string) (image.Image, error)
}

// FailurePolicy decides what a pass does when an asset cannot be loaded.
type FailurePolicy int

const (
	// AbortOnLoadError stops the pass and returns the load error.
	AbortOnLoadError FailurePolicy = iota
	// SkipOnLoadError logs the failure and renders without that layer.
	SkipOnLoadError
)

// RenderInputs are the user-editable values of a card. Image is nil when no
// photo has been uploaded.
type RenderInputs struct {
	BackgroundColor string
	Caption         string
	CTA             string
	Image           image.Image
}

type Renderer struct {
	loader   ImageLoader
	typeface *Typeface
	policy   FailurePolicy
}

type Option func(*Renderer)

func WithFailurePolicy(p FailurePolicy) Option {
	return func(r *Renderer) { r.policy = p }
}

func WithTypeface(tf *Typeface) Option {
	return func(r *Renderer) { r.typeface = tf }
}

func NewRenderer(loader ImageLoader, opts ...Option) (*Renderer, error) {
	r := &Renderer{loader: loader}
	for _, opt := range opts {
		opt(r)
	}
	if r.typeface == nil {
		tf, err := GoRegular()
		if err != nil {
			return nil, err
		}
		r.typeface = tf
	}
	return r, nil
}

// Render composes a fresh canvas from t and in. Layers are drawn in a fixed
// order: background, design pattern, masked photo, stroke, caption, CTA.
// Asset fetches start concurrently up front; each draw step waits only for
// the asset it needs.
func (r *Renderer) Render(ctx context.Context, t template.Template, in RenderInputs) (*image.NRGBA, error) {
	bg, err := template.ParseColor(in.BackgroundColor)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	captionColor, err := template.ParseColor(t.Caption.TextColor)
	if err != nil {
		return nil, fmt.Errorf("caption: %w", err)
	}
	ctaColor, err := template.ParseColor(t.CTA.TextColor)
	if err != nil {
		return nil, fmt.Errorf("cta: %w", err)
	}
	ctaBackground, err := template.ParseColor(t.CTA.BackgroundColor)
	if err != nil {
		return nil, fmt.Errorf("cta: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pattern := r.fetch(ctx, t.URLs.DesignPattern)
	var mask *pendingAsset
	if in.Image != nil {
		mask = r.fetch(ctx, t.URLs.Mask)
	}
	stroke := r.fetch(ctx, t.URLs.Stroke)

	full := image.Rect(0, 0, template.CanvasWidth, template.CanvasHeight)
	maskRect := image.Rect(t.ImageMask.X, t.ImageMask.Y, t.ImageMask.X+t.ImageMask.Width, t.ImageMask.Y+t.ImageMask.Height)

	canvas := imaging.New(full.Dx(), full.Dy(), color.NRGBA{})
	draw.Draw(canvas, full, image.NewUniform(bg), image.Point{}, draw.Over)

	img, err := r.await(ctx, pattern, "design pattern")
	if err != nil {
		return nil, err
	}
	if img != nil {
		canvas = overlayStretched(canvas, img, full)
	}

	if in.Image != nil {
		maskImg, err := r.await(ctx, mask, "mask")
		if err != nil {
			return nil, err
		}
		if maskImg != nil {
			clipped := clipToMask(in.Image, maskImg, maskRect.Dx(), maskRect.Dy())
			canvas = imaging.Overlay(canvas, clipped, maskRect.Min, 1.0)
		}
	}

	img, err = r.await(ctx, stroke, "stroke")
	if err != nil {
		return nil, err
	}
	if img != nil {
		canvas = overlayStretched(canvas, img, maskRect)
	}

	faces := r.typeface.newFaceSet()
	defer faces.close()

	captionFace, err := faces.face(t.Caption.FontSize)
	if err != nil {
		return nil, err
	}
	lines := Wrap(in.Caption, t.Caption.MaxCharactersPerLine, float64(t.Caption.FontSize), measureWith(captionFace))
	align := Alignment(t.Caption.Alignment)
	for i, line := range lines {
		y := float64(t.Caption.Position.Y + i*t.Caption.FontSize)
		drawText(canvas, captionFace, captionColor, line, float64(t.Caption.Position.X), y, align)
	}

	ctaFace, err := faces.face(t.CTAFontSize())
	if err != nil {
		return nil, err
	}
	width := measureWith(ctaFace)(in.CTA)
	x, y := float64(t.CTA.Position.X), float64(t.CTA.Position.Y)
	draw.Draw(canvas, ctaChipRect(t.CTA.Position, width), image.NewUniform(ctaBackground), image.Point{}, draw.Over)
	drawText(canvas, ctaFace, ctaColor, in.CTA, x+width/2, middleBaseline(ctaFace, y), AlignCenter)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return canvas, nil
}

// ctaChipRect is the chip behind a CTA label of the given width: 12px of
// padding either side and 60px tall, vertically centered on pos.
func ctaChipRect(pos template.Point, textWidth float64) image.Rectangle {
	w := int(math.Ceil(textWidth)) + 2*ctaPaddingX
	x0 := pos.X - ctaPaddingX
	y0 := pos.Y - ctaChipHeight/2
	return image.Rect(x0, y0, x0+w, y0+ctaChipHeight)
}

// overlayStretched scales img to rect, ignoring aspect ratio, and draws it
// source-over.
func overlayStretched(canvas *image.NRGBA, img image.Image, rect image.Rectangle) *image.NRGBA {
	fitted := imaging.Resize(img, rect.Dx(), rect.Dy(), imaging.Lanczos)
	return imaging.Overlay(canvas, fitted, rect.Min, 1.0)
}

// clipToMask scales photo and mask to w×h and keeps the photo only where the
// mask is opaque (destination-in). The result is composited on its own so
// the rest of the canvas is unaffected.
func clipToMask(photo, mask image.Image, w, h int) *image.NRGBA {
	src := imaging.Resize(photo, w, h, imaging.Lanczos)
	alpha := imaging.Resize(mask, w, h, imaging.Lanczos)
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.DrawMask(out, out.Bounds(), src, image.Point{}, alpha, image.Point{}, draw.Src)
	return imaging.Clone(out)
}

type pendingAsset struct {
	ref  string
	done chan struct{}
	img  image.Image
	err  error
}

func (r *Renderer) fetch(ctx context.Context, ref string) *pendingAsset {
	p := &pendingAsset{ref: ref, done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.img, p.err = r.loader.Load(ctx, ref)
	}()
	return p
}

// await blocks until p resolves. Under SkipOnLoadError a failed asset yields
// (nil, nil).
func (r *Renderer) await(ctx context.Context, p *pendingAsset, layer string) (image.Image, error) {
	select {
	case <-p.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if p.err == nil {
		return p.img, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if r.policy == SkipOnLoadError {
		logger().Warn("skipping layer", "layer", layer, "ref", p.ref, "err", p.err)
		return nil, nil
	}
	return nil, fmt.Errorf("load %s layer: %w", layer, p.err)
}
