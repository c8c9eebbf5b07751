package api

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"

	"github.com/youruser/socialcard/internal/editor"
	"github.com/youruser/socialcard/internal/template"
	"github.com/youruser/socialcard/internal/util"
)

const (
	DefaultPreviewSize = 400
	maxUploadBytes     = 20 << 20
)

// Handler exposes one editor over HTTP.
type Handler struct {
	Editor *editor.Editor
	Log    *slog.Logger
	// PreviewSize is the edge length of the scaled-down preview.
	PreviewSize int
	// RenderWait bounds how long /preview waits for a pending pass before
	// serving the last finished frame.
	RenderWait time.Duration
}

func NewHandler(ed *editor.Editor) *Handler {
	return &Handler{Editor: ed, Log: slog.Default(), PreviewSize: DefaultPreviewSize, RenderWait: 15 * time.Second}
}

type inputsRequest struct {
	BackgroundColor string `json:"background_color" binding:"required"`
	Caption         string `json:"caption"`
	CTA             string `json:"cta"`
}

type inputsResponse struct {
	BackgroundColor string `json:"background_color"`
	Caption         string `json:"caption"`
	CTA             string `json:"cta"`
	HasImage        bool   `json:"has_image"`
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getTemplate(c *gin.Context) {
	c.JSON(http.StatusOK, h.Editor.Template())
}

func (h *Handler) inputs(c *gin.Context) {
	in := h.Editor.Inputs()
	c.JSON(http.StatusOK, inputsResponse{
		BackgroundColor: in.BackgroundColor,
		Caption:         in.Caption,
		CTA:             in.CTA,
		HasImage:        in.Image != nil,
	})
}

func (h *Handler) setInputs(c *gin.Context) {
	var req inputsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Editor.SetText(req.BackgroundColor, req.Caption, req.CTA); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, template.ErrInvalidColor) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	h.inputs(c)
}

// uploadImage accepts a multipart "file" field.
func (h *Handler) uploadImage(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	data, mimeType, err := util.ReadUpload(fh, maxUploadBytes)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Editor.Upload(data, mimeType); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, editor.ErrUnsupportedMedia) {
			status = http.StatusUnsupportedMediaType
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) clearImage(c *gin.Context) {
	h.Editor.ClearImage()
	c.Status(http.StatusNoContent)
}

// preview returns the latest frame scaled to PreviewSize×PreviewSize.
func (h *Handler) preview(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.RenderWait)
	defer cancel()
	// A failed or slow pass still leaves the previous frame to show.
	if err := h.Editor.Wait(ctx); err != nil && h.Log != nil {
		h.Log.Debug("serving previous frame", "err", err)
	}

	frame, gen, err := h.Editor.Frame()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	size := h.PreviewSize
	if size <= 0 {
		size = DefaultPreviewSize
	}
	scaled := imaging.Resize(frame, size, size, imaging.Lanczos)

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, scaled); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("X-Frame-Generation", strconv.FormatUint(gen, 10))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (h *Handler) status(c *gin.Context) {
	gen, frameGen, lastErr := h.Editor.Status()
	resp := gin.H{"generation": gen, "frame_generation": frameGen}
	if lastErr != nil {
		resp["error"] = lastErr.Error()
	}
	c.JSON(http.StatusOK, resp)
}
