// Package dataset loads the published CSV and JSON files that feed every
// chart. Files come from a Source (a local directory, an fs.FS, or a
// remote base URL) and are parsed once, then cached until invalidated.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/canviz/canadaindata/internal/infra"
)

// Resource names, relative to the data root.
const (
	CPISample            = "cpi_sample.csv"
	InflationMultiSeries = "inflation_multi_series.json"
	AllSubcategories     = "all_subcategories.json"
	BasketWeights        = "basket_weights.json"
	GrainProduction      = "grain_production_by_year.json"
	GrainArea            = "grain_area_by_year.json"
	GrainComponents      = "grain_crop_components.json"
)

// Resources lists every resource the site reads, in page order.
var Resources = []string{
	CPISample,
	InflationMultiSeries,
	AllSubcategories,
	BasketWeights,
	GrainProduction,
	GrainArea,
	GrainComponents,
}

// --- Errors ---

// ErrNotFound is returned when a resource does not exist in the source.
var ErrNotFound = errors.New("dataset: resource not found")

// ParseError reports a resource that was read but could not be decoded.
type ParseError struct {
	Resource string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Resource, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// --- Sources ---

// Source opens named resources.
type Source interface {
	// Name describes the source for logs and status output.
	Name() string

	// Open returns the resource body. Missing resources yield ErrNotFound.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// FSSource reads resources from an fs.FS.
type FSSource struct {
	fsys  fs.FS
	label string
}

// NewFSSource wraps fsys. label is used by Name.
func NewFSSource(fsys fs.FS, label string) *FSSource {
	return &FSSource{fsys: fsys, label: label}
}

// NewDirSource reads resources from a directory on disk.
func NewDirSource(dir string) *FSSource {
	return &FSSource{fsys: os.DirFS(dir), label: dir}
}

func (s *FSSource) Name() string { return "dir:" + s.label }

// FS exposes the underlying filesystem for discovery and passthrough.
func (s *FSSource) FS() fs.FS { return s.fsys }

func (s *FSSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	f, err := s.fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}

// HTTPSource fetches resources relative to a base URL, e.g. the data
// directory of a published copy of the site.
type HTTPSource struct {
	baseURL string
	limiter *infra.RateLimiter
}

// NewHTTPSource creates a source for baseURL. limiter may be nil.
func NewHTTPSource(baseURL string, limiter *infra.RateLimiter) *HTTPSource {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &HTTPSource{baseURL: baseURL, limiter: limiter}
}

func (s *HTTPSource) Name() string { return "http:" + s.baseURL }

func (s *HTTPSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	body, status, err := infra.DoGet(ctx, s.baseURL+strings.TrimPrefix(name, "/"), nil)
	if err != nil {
		if status == http.StatusNotFound {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, err
	}
	return body, nil
}
