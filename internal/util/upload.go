package util

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// ReadUpload reads a multipart file up to limit bytes and reports its MIME
// type. The client-declared Content-Type wins; the body is sniffed only when
// the header is missing.
func ReadUpload(fh *multipart.FileHeader, limit int64) ([]byte, string, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > limit {
		return nil, "", fmt.Errorf("upload %s exceeds %d bytes", fh.Filename, limit)
	}

	mimeType := strings.TrimSpace(fh.Header.Get("Content-Type"))
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, nil
}

// IsImageMIME reports whether mimeType names an image.
func IsImageMIME(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(mimeType), "image/")
}
