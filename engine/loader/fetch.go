package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"folio/gltf"
	"folio/internal/buildinfo"
)

// DefaultMaxBytes bounds the size of a fetched file.
const DefaultMaxBytes = 256 << 20

// Fetcher reads sources from the file system, HTTP(S) or data URIs.
//
// Concurrent fetches of the same source share one read. The returned bytes
// are shared between those callers and must not be modified.
type Fetcher struct {
	// Root is the directory relative paths are resolved against. When set,
	// relative paths cannot escape it.
	Root string

	Client    *http.Client
	UserAgent string
	MaxBytes  int64

	group singleflight.Group
}

// NewFetcher creates a fetcher rooted at root.
func NewFetcher(root string) *Fetcher {
	return &Fetcher{
		Root:      root,
		Client:    &http.Client{Timeout: 60 * time.Second},
		UserAgent: buildinfo.UserAgent(),
		MaxBytes:  DefaultMaxBytes,
	}
}

// Fetch returns the contents of src. It returns early with ctx's error when
// ctx is done, even if a shared read is still running.
func (f *Fetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.HasPrefix(src, "data:") {
		return decodeData(src)
	}

	ch := f.group.DoChan(src, func() (any, error) {
		// The shared read must not die with the first caller's context.
		return f.read(context.WithoutCancel(ctx), src)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		if r.Shared {
			Logger().Debug("fetch shared", zap.String("src", src))
		}
		return r.Val.([]byte), nil
	}
}

// Ref resolves ref, found inside the model at base, to a source. When Root
// is set the source must stay within base's origin: file URLs are refused,
// and URL references must share base's scheme and host.
func (f *Fetcher) Ref(base, ref string) (string, error) {
	src := ResolveRef(base, ref)
	if f.Root == "" || strings.HasPrefix(src, "data:") {
		return src, nil
	}
	if strings.HasPrefix(src, "file://") || origin(src) != origin(base) {
		return "", fmt.Errorf("%s in %s: %w", ref, base, ErrForbidden)
	}
	return src, nil
}

// origin is scheme://host for HTTP sources and "" for local ones.
func origin(src string) string {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return ""
	}
	u, err := url.Parse(src)
	if err != nil {
		return src
	}
	return u.Scheme + "://" + u.Host
}

func (f *Fetcher) read(ctx context.Context, src string) ([]byte, error) {
	switch {
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return f.readHTTP(ctx, src)
	case strings.HasPrefix(src, "file://"):
		u, err := url.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", src, err)
		}
		return f.readFile(filepath.FromSlash(u.Path))
	default:
		return f.readFile(f.localPath(src))
	}
}

func (f *Fetcher) localPath(src string) string {
	if f.Root == "" {
		return filepath.FromSlash(src)
	}
	clean := path.Clean("/" + filepath.ToSlash(src))
	return filepath.Join(f.Root, filepath.FromSlash(clean))
}

func (f *Fetcher) maxBytes() int64 {
	if f.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return f.MaxBytes
}

func (f *Fetcher) readFile(name string) ([]byte, error) {
	file, err := os.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("open %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return f.readAll(file, name)
}

func (f *Fetcher) readHTTP(ctx context.Context, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("get %s: %s: %w", src, resp.Status, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("get %s: %s", src, resp.Status)
	}
	return f.readAll(resp.Body, src)
}

func (f *Fetcher) readAll(r io.Reader, name string) ([]byte, error) {
	limit := f.maxBytes()
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("read %s: larger than %d bytes", name, limit)
	}
	return data, nil
}

// decodeData decodes base64 data URIs via the gltf helper and falls back to
// percent-encoded text for plain ones.
func decodeData(src string) ([]byte, error) {
	data, _, err := gltf.DecodeDataURI(src)
	if err == nil {
		return data, nil
	}
	meta, payload, ok := strings.Cut(src[len("data:"):], ",")
	if !ok || strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("fetch data URI: %w", err)
	}
	text, uerr := url.PathUnescape(payload)
	if uerr != nil {
		return nil, fmt.Errorf("fetch data URI: %w", uerr)
	}
	return []byte(text), nil
}
