// Package loader fetches model files and decodes them into engine object
// graphs. Wavefront OBJ (with MTL libraries), glTF and GLB are supported.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"go.uber.org/zap"

	"folio/engine"
	"folio/gltf"
)

var (
	// ErrUnsupportedFormat is returned for sources no decoder recognizes.
	ErrUnsupportedFormat = errors.New("loader: unsupported format")
	// ErrNotFound is returned when a source does not exist.
	ErrNotFound = errors.New("loader: not found")
	// ErrForbidden is returned for a reference inside a model that leaves
	// the model's origin.
	ErrForbidden = errors.New("loader: reference outside model origin")
)

// Loader loads the model at src.
//
// Load may be called from any goroutine. The returned graph is owned by the
// caller and shares no state with other results.
type Loader interface {
	Load(ctx context.Context, src string) (*engine.Object, error)
}

// Func adapts a function to the Loader interface.
type Func func(ctx context.Context, src string) (*engine.Object, error)

func (f Func) Load(ctx context.Context, src string) (*engine.Object, error) { return f(ctx, src) }

// Format identifies a model file format.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatOBJ
	FormatGLTF
	FormatGLB
)

func (f Format) String() string {
	switch f {
	case FormatOBJ:
		return "obj"
	case FormatGLTF:
		return "gltf"
	case FormatGLB:
		return "glb"
	}
	return "unknown"
}

// Assets is the default Loader. It fetches sources through a Fetcher and
// picks a decoder by extension, media type or content.
type Assets struct {
	fetcher *Fetcher
}

// New creates a Loader backed by f. A nil f uses a Fetcher with default
// settings.
func New(f *Fetcher) *Assets {
	if f == nil {
		f = NewFetcher("")
	}
	return &Assets{fetcher: f}
}

// Fetcher returns the fetcher used for sources and their dependencies.
func (a *Assets) Fetcher() *Fetcher { return a.fetcher }

func (a *Assets) Load(ctx context.Context, src string) (*engine.Object, error) {
	if src == "" {
		return nil, fmt.Errorf("load: empty source: %w", ErrNotFound)
	}
	if IsBuiltin(src) {
		obj, err := Builtin(src)
		if err != nil {
			return nil, fmt.Errorf("load %w", err)
		}
		return obj, nil
	}
	data, err := a.fetcher.Fetch(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", src, err)
	}

	format := DetectFormat(src, data)
	log := Logger().With(zap.String("src", src), zap.Stringer("format", format))

	res := Resolver(func(ref string) ([]byte, error) {
		dep, err := a.fetcher.Ref(src, ref)
		if err != nil {
			return nil, err
		}
		return a.fetcher.Fetch(ctx, dep)
	})

	var obj *engine.Object
	switch format {
	case FormatOBJ:
		obj, err = DecodeOBJ(ctx, baseName(src), data, res)
	case FormatGLTF:
		var doc *gltf.GLTF
		doc, err = gltf.Decode(bytes.NewReader(data))
		if err == nil {
			obj, err = BuildGLTF(ctx, baseName(src), doc, nil, res)
		}
	case FormatGLB:
		var (
			doc *gltf.GLTF
			bin []byte
		)
		doc, bin, err = gltf.ParseGLB(data)
		if err == nil {
			obj, err = BuildGLTF(ctx, baseName(src), doc, bin, res)
		}
	default:
		err = ErrUnsupportedFormat
	}
	if err != nil {
		log.Debug("decode failed", zap.Error(err))
		return nil, fmt.Errorf("load %s: %w", src, err)
	}
	log.Debug("loaded", zap.Int("bytes", len(data)))
	return obj, nil
}

// DetectFormat guesses the format of data fetched from src.
func DetectFormat(src string, data []byte) Format {
	if bytes.HasPrefix(data, []byte("glTF")) {
		return FormatGLB
	}
	if strings.HasPrefix(src, "data:") {
		meta, _, _ := strings.Cut(src[len("data:"):], ",")
		mime, _, _ := strings.Cut(meta, ";")
		switch strings.ToLower(mime) {
		case "model/obj", "text/plain":
			return FormatOBJ
		case "model/gltf+json", "application/json":
			return FormatGLTF
		case "model/gltf-binary":
			return FormatGLB
		}
	} else {
		switch strings.ToLower(path.Ext(stripQuery(src))) {
		case ".obj":
			return FormatOBJ
		case ".gltf":
			return FormatGLTF
		case ".glb":
			return FormatGLB
		}
	}
	if t := bytes.TrimSpace(data); len(t) > 0 && t[0] == '{' {
		return FormatGLTF
	}
	return FormatUnknown
}

// ResolveRef resolves ref, found inside the file at base, to a source.
func ResolveRef(base, ref string) string {
	if ref == "" || strings.HasPrefix(ref, "data:") || isURL(ref) {
		return ref
	}
	if isURL(base) {
		b, err := url.Parse(base)
		if err == nil {
			r, err := url.Parse(ref)
			if err == nil {
				return b.ResolveReference(r).String()
			}
		}
	}
	if path.IsAbs(ref) || strings.HasPrefix(base, "data:") {
		return ref
	}
	return path.Join(path.Dir(stripQuery(base)), ref)
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "file://")
}

func stripQuery(s string) string {
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		return s[:i]
	}
	return s
}

func baseName(src string) string {
	if strings.HasPrefix(src, "data:") {
		return "model"
	}
	b := path.Base(stripQuery(src))
	return strings.TrimSuffix(b, path.Ext(b))
}

// Resolver fetches a file referenced by a model, such as an MTL library or
// an external glTF buffer. A nil Resolver fails every reference.
type Resolver func(ref string) ([]byte, error)
