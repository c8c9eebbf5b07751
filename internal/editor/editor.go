package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	imagepkg "github.com/youruser/socialcard/internal/image"
	"github.com/youruser/socialcard/internal/template"
	"github.com/youruser/socialcard/internal/util"
)

var (
	ErrUnsupportedMedia = errors.New("invalid file type, please upload an image file")
	ErrNoFrame          = errors.New("no frame rendered yet")
)

// DefaultBackground is the background color a fresh editor starts with.
const DefaultBackground = "#0369A1"

// Renderer produces a finished canvas for one set of inputs.
type Renderer interface {
	Render(ctx context.Context, t template.Template, in imagepkg.RenderInputs) (*image.NRGBA, error)
}

// Editor owns the current inputs of a single card and keeps a rendered frame
// in sync with them. Every edit replaces the inputs wholesale, cancels the
// pass still running for the previous inputs and starts a new one; only the
// newest pass may publish its frame.
type Editor struct {
	renderer Renderer
	tmpl     template.Template
	log      *slog.Logger

	mu       sync.Mutex
	inputs   imagepkg.RenderInputs
	gen      uint64
	current  *pass
	frame    *image.NRGBA
	frameGen uint64
	lastErr  error
	closed   bool
}

type pass struct {
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Editor)

func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.log = l
		}
	}
}

// New returns an editor for t and starts rendering the initial inputs.
func New(r Renderer, t template.Template, opts ...Option) *Editor {
	e := &Editor{
		renderer: r,
		tmpl:     t,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.Replace(imagepkg.RenderInputs{
		BackgroundColor: DefaultBackground,
		Caption:         t.Caption.Text,
		CTA:             t.CTA.Text,
	})
	return e
}

func (e *Editor) Template() template.Template { return e.tmpl }

// Inputs returns a copy of the current inputs.
func (e *Editor) Inputs() imagepkg.RenderInputs {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inputs
}

// SetText replaces the text inputs, keeping the current photo.
func (e *Editor) SetText(background, caption, cta string) error {
	if _, err := template.ParseColor(background); err != nil {
		return err
	}
	e.update(func(in imagepkg.RenderInputs) (imagepkg.RenderInputs, bool) {
		in.BackgroundColor = background
		in.Caption = caption
		in.CTA = cta
		return in, true
	})
	return nil
}

// Upload validates and decodes a user photo. Files that are not images are
// logged and ignored; the current inputs stay untouched.
func (e *Editor) Upload(data []byte, mimeType string) error {
	if !util.IsImageMIME(mimeType) {
		e.log.Error("rejected upload", "mime", mimeType, "err", ErrUnsupportedMedia)
		return fmt.Errorf("%w: %s", ErrUnsupportedMedia, mimeType)
	}
	img, err := imagepkg.DecodeBytes(data)
	if err != nil {
		e.log.Error("rejected upload", "mime", mimeType, "err", err)
		return err
	}

	e.update(func(in imagepkg.RenderInputs) (imagepkg.RenderInputs, bool) {
		in.Image = img
		return in, true
	})
	return nil
}

// ClearImage removes the uploaded photo.
func (e *Editor) ClearImage() {
	e.update(func(in imagepkg.RenderInputs) (imagepkg.RenderInputs, bool) {
		if in.Image == nil {
			return in, false
		}
		in.Image = nil
		return in, true
	})
}

// Frame returns the most recent successfully rendered canvas and the input
// generation it belongs to. The canvas must not be modified.
func (e *Editor) Frame() (*image.NRGBA, uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.frame == nil {
		return nil, 0, ErrNoFrame
	}
	return e.frame, e.frameGen, nil
}

// Status reports the current input generation, the generation of the
// published frame and the error of the latest finished pass.
func (e *Editor) Status() (gen, frameGen uint64, lastErr error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gen, e.frameGen, e.lastErr
}

// Wait blocks until the pass for the current inputs has finished and returns
// its error. Edits made while waiting extend the wait.
func (e *Editor) Wait(ctx context.Context) error {
	for {
		e.mu.Lock()
		p := e.current
		e.mu.Unlock()
		if p == nil {
			return ErrNoFrame
		}

		select {
		case <-p.done:
		case <-ctx.Done():
			return ctx.Err()
		}

		e.mu.Lock()
		latest := e.current == p
		err := e.lastErr
		e.mu.Unlock()
		if latest {
			return err
		}
	}
}

// Close cancels any pass in flight. Later edits are ignored.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	if e.current != nil {
		e.current.cancel()
	}
}

// Replace swaps in a complete set of inputs and re-renders.
func (e *Editor) Replace(in imagepkg.RenderInputs) {
	e.update(func(imagepkg.RenderInputs) (imagepkg.RenderInputs, bool) { return in, true })
}

// update derives the next inputs from the current ones under the lock, so
// concurrent edits never drop each other's fields. fn reports false to leave
// everything as is.
func (e *Editor) update(fn func(imagepkg.RenderInputs) (imagepkg.RenderInputs, bool)) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	in, changed := fn(e.inputs)
	if !changed {
		e.mu.Unlock()
		return
	}
	if e.current != nil {
		e.current.cancel()
	}
	e.gen++
	ctx, cancel := context.WithCancel(context.Background())
	p := &pass{gen: e.gen, cancel: cancel, done: make(chan struct{})}
	e.current = p
	e.inputs = in
	e.mu.Unlock()

	go e.run(ctx, p, in)
}

func (e *Editor) run(ctx context.Context, p *pass, in imagepkg.RenderInputs) {
	defer close(p.done)
	defer p.cancel()

	frame, err := e.renderer.Render(ctx, e.tmpl, in)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != p {
		// Superseded; the newer pass owns publication.
		return
	}
	e.lastErr = err
	if err != nil {
		e.log.Error("render failed", "generation", p.gen, "err", err)
		return
	}
	e.frame = frame
	e.frameGen = p.gen
	e.log.Debug("frame published", "generation", p.gen)
}
