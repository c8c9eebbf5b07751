package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"

	"github.com/youruser/socialcard/internal/editor"
	imagepkg "github.com/youruser/socialcard/internal/image"
	"github.com/youruser/socialcard/internal/template"
)

type solidRenderer struct{}

func (solidRenderer) Render(ctx context.Context, t template.Template, in imagepkg.RenderInputs) (*image.NRGBA, error) {
	bg, err := template.ParseColor(in.BackgroundColor)
	if err != nil {
		return nil, err
	}
	return imaging.New(template.CanvasWidth, template.CanvasHeight, bg), nil
}

// stalledRenderer never finishes until its context is canceled.
type stalledRenderer struct{}

func (stalledRenderer) Render(ctx context.Context, t template.Template, in imagepkg.RenderInputs) (*image.NRGBA, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func newTestServer(t *testing.T) (*gin.Engine, *editor.Editor) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ed := editor.New(solidRenderer{}, template.Default(),
		editor.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	t.Cleanup(ed.Close)

	r := gin.New()
	h := NewHandler(ed)
	h.RenderWait = 5 * time.Second
	RegisterRoutes(r, h)
	return r, ed
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _ := newTestServer(t)
	w := do(r, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestTemplateEndpoint(t *testing.T) {
	r, _ := newTestServer(t)
	w := do(r, httptest.NewRequest(http.MethodGet, "/api/template", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got template.Template
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(template.Default(), got); diff != "" {
		t.Fatalf("unexpected template (-want +got):\n%s", diff)
	}
}

func TestSetInputs(t *testing.T) {
	r, ed := newTestServer(t)
	body := `{"background_color":"#FF0000","caption":"Summer sale","cta":"Shop Now"}`
	req := httptest.NewRequest(http.MethodPut, "/api/inputs", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := do(r, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var got inputsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := inputsResponse{BackgroundColor: "#FF0000", Caption: "Summer sale", CTA: "Shop Now"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected inputs (-want +got):\n%s", diff)
	}
	if ed.Inputs().Caption != "Summer sale" {
		t.Fatalf("editor not updated")
	}
}

func TestSetInputs_BadColor(t *testing.T) {
	r, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPut, "/api/inputs", bytes.NewBufferString(`{"background_color":"red"}`))
	req.Header.Set("Content-Type", "application/json")
	if w := do(r, req); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func multipartUpload(t *testing.T, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="upload"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	part.Write(data)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadImage(t *testing.T) {
	r, ed := newTestServer(t)
	var img bytes.Buffer
	png.Encode(&img, imaging.New(4, 4, color.NRGBA{B: 255, A: 255}))

	if w := do(r, multipartUpload(t, "image/png", img.Bytes())); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}
	if ed.Inputs().Image == nil {
		t.Fatalf("expected photo to be set")
	}

	if w := do(r, httptest.NewRequest(http.MethodDelete, "/api/image", nil)); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if ed.Inputs().Image != nil {
		t.Fatalf("expected photo to be cleared")
	}
}

func TestUploadImage_RejectsText(t *testing.T) {
	r, ed := newTestServer(t)
	w := do(r, multipartUpload(t, "text/plain", []byte("hello")))
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", w.Code)
	}
	if ed.Inputs().Image != nil {
		t.Fatalf("expected no photo")
	}
}

func TestPreview(t *testing.T) {
	r, _ := newTestServer(t)
	w := do(r, httptest.NewRequest(http.MethodGet, "/api/preview", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("unexpected content type %q", ct)
	}
	img, err := png.Decode(w.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != DefaultPreviewSize || b.Dy() != DefaultPreviewSize {
		t.Fatalf("unexpected preview bounds %v", b)
	}
	if got := w.Header().Get("X-Frame-Generation"); got != "1" {
		t.Fatalf("unexpected generation header %q", got)
	}
}

func TestPreview_LogsUnfinishedPass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ed := editor.New(stalledRenderer{}, template.Default(),
		editor.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	t.Cleanup(ed.Close)

	var logs bytes.Buffer
	h := NewHandler(ed)
	h.Log = slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h.RenderWait = 20 * time.Millisecond
	r := gin.New()
	RegisterRoutes(r, h)

	w := do(r, httptest.NewRequest(http.MethodGet, "/api/preview", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without any frame, got %d", w.Code)
	}
	out := logs.String()
	if !strings.Contains(out, "level=DEBUG") || !strings.Contains(out, "deadline exceeded") {
		t.Fatalf("expected a debug log for the unfinished pass, got %q", out)
	}
}

func TestStatus(t *testing.T) {
	r, ed := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ed.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}

	w := do(r, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	var got map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{"generation": float64(1), "frame_generation": float64(1)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected status (-want +got):\n%s", diff)
	}
}
