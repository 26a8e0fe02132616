// Package loader resolves image references into decoded dimensions and a lazily
// decodable pixel handle.
//
// Dimensions come from image.DecodeConfig so images that already fit the display box
// never pay for a full decode. Registered formats: JPEG, PNG, GIF, WebP and BMP.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/hashicorp/go-cleanhttp"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/krisalay/showcase-imagecache/types"
)

// DefaultMaxBytes caps how much of a single image body is read.
const DefaultMaxBytes int64 = 32 << 20

var errTooLarge = errors.New("image body exceeds size limit")

// ErrNoBaseURL is returned for relative refs when the loader has no base URL. Bare paths
// are never read from disk, local files need an explicit file:// URL.
var ErrNoBaseURL = errors.New("relative image reference without base url")

// Loader is the contract between the engine and wherever images live.
type Loader interface {

	// Load fetches url and reads its dimensions. Any failure is a *types.LoadError.
	// There are no retries here, one failed attempt is terminal for the request.
	Load(ctx context.Context, url string) (*Image, error)
}

// Image is a fetched but not necessarily decoded image.
type Image struct {
	// URL is the reference as given by the caller.
	URL string

	// Resolved is the absolute location actually fetched.
	Resolved string

	Width  int
	Height int
	Format string

	data []byte
}

// NewImage wraps raw bytes. Used by tests and by loaders that already hold the body.
func NewImage(ref string, data []byte) (*Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &types.LoadError{URL: ref, Err: err}
	}
	return &Image{
		URL:      ref,
		Resolved: ref,
		Width:    cfg.Width,
		Height:   cfg.Height,
		Format:   format,
		data:     data,
	}, nil
}

// Size is the encoded size of the source in bytes.
func (i *Image) Size() int { return len(i.data) }

// Decode decodes the full pixel data.
func (i *Image) Decode() (image.Image, error) {
	src, _, err := image.Decode(bytes.NewReader(i.data))
	if err != nil {
		return nil, &types.LoadError{URL: i.URL, Err: err}
	}
	return src, nil
}

/*
HTTPLoader loads http(s) URLs with a pooled client and file:// URLs (or bare paths)
from disk. Relative references are resolved against Base when one is set.
*/
type HTTPLoader struct {
	client   *http.Client
	base     *url.URL
	maxBytes int64
}

// NewHTTPLoader creates a loader. client may be nil, a cleanhttp pooled client is used then.
func NewHTTPLoader(base string, client *http.Client, maxBytes int64) (*HTTPLoader, error) {
	l := &HTTPLoader{client: client, maxBytes: maxBytes}
	if l.client == nil {
		l.client = cleanhttp.DefaultPooledClient()
	}
	if l.maxBytes <= 0 {
		l.maxBytes = DefaultMaxBytes
	}
	if base != "" {
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		l.base = u
	}
	return l, nil
}

// Resolve turns an image ref into an absolute URL (or file path).
func (l *HTTPLoader) Resolve(ref string) (*url.URL, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() && l.base != nil {
		u = l.base.ResolveReference(u)
	}
	return u, nil
}

func (l *HTTPLoader) Load(ctx context.Context, ref string) (*Image, error) {
	u, err := l.Resolve(ref)
	if err != nil {
		return nil, &types.LoadError{URL: ref, Err: err}
	}

	var data []byte
	switch u.Scheme {
	case "http", "https":
		data, err = l.fetch(ctx, u.String())
	case "file":
		data, err = l.readFile(u)
	case "":
		err = ErrNoBaseURL
	default:
		err = fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if err != nil {
		return nil, &types.LoadError{URL: ref, Err: err}
	}

	img, err := NewImage(ref, data)
	if err != nil {
		return nil, err
	}
	img.Resolved = u.String()

	log.WithFields(log.Fields{
		"url":    ref,
		"format": img.Format,
		"width":  img.Width,
		"height": img.Height,
	}).Debug("image loaded")

	return img, nil
}

func (l *HTTPLoader) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/*")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return l.readAll(resp.Body)
}

func (l *HTTPLoader) readFile(u *url.URL) ([]byte, error) {
	f, err := os.Open(filepath.FromSlash(u.Path))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return l.readAll(f)
}

func (l *HTTPLoader) readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > l.maxBytes {
		return nil, errTooLarge
	}
	return data, nil
}
