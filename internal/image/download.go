package imagepkg

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/youruser/socialcard/internal/util"
)

var ErrUnsupportedSource = errors.New("unsupported image source")

// DefaultLoadTimeout bounds a single remote fetch.
const DefaultLoadTimeout = 10 * time.Second

// Loader fetches and decodes template assets. It accepts http(s) URLs and
// data: URIs.
type Loader struct {
	Client  *http.Client
	Timeout time.Duration

	// random produces the cache-busting value; tests replace it.
	random func() float64
}

func NewLoader(timeout time.Duration) *Loader {
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	return &Loader{
		Client:  &http.Client{},
		Timeout: timeout,
		random:  rand.Float64,
	}
}

// Load resolves ref to a fully decoded image.
func (l *Loader) Load(ctx context.Context, ref string) (image.Image, error) {
	switch {
	case strings.HasPrefix(ref, "data:"):
		data, err := decodeDataURI(ref)
		if err != nil {
			return nil, err
		}
		return DecodeBytes(data)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return l.fetch(ctx, ref)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, ref)
	}
}

func (l *Loader) fetch(ctx context.Context, ref string) (image.Image, error) {
	random := l.random
	if random == nil {
		random = rand.Float64
	}
	busted, err := cacheBust(ref, random())
	if err != nil {
		return nil, err
	}

	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	start := time.Now()
	body, err := util.GetBytes(ctx, l.Client, busted)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ref, err)
	}
	img, err := DecodeBytes(body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ref, err)
	}
	logger().Debug("asset loaded", "url", ref, "bytes", len(body), "elapsed", time.Since(start))
	return img, nil
}

// DecodeBytes decodes an in-memory image buffer, honoring EXIF orientation.
func DecodeBytes(b []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(b), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// cacheBust appends random=<r> to the query so intermediaries never serve a
// stale asset.
func cacheBust(ref string, r float64) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", ref, err)
	}
	q := u.Query()
	q.Set("random", strconv.FormatFloat(r, 'f', -1, 64))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// decodeDataURI handles data:[<mediatype>][;base64],<data>.
func decodeDataURI(ref string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("%w: malformed data URI", ErrUnsupportedSource)
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("data URI: %w", err)
		}
		return data, nil
	}
	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("data URI: %w", err)
	}
	return []byte(data), nil
}
