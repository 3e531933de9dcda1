package dataset

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/canviz/canadaindata/internal/infra"
	"github.com/canviz/canadaindata/pkg/models"
)

const cachePrefix = "dataset:"

// Store loads and caches parsed resources from a Source.
type Store struct {
	src         Source
	cache       *infra.Cache
	logger      *zap.Logger
	concurrency int
}

// NewStore creates a store over src. A nil cache gets one that never
// expires; a nil logger discards.
func NewStore(src Source, cache *infra.Cache, logger *zap.Logger) *Store {
	if cache == nil {
		cache = infra.NewCache(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{src: src, cache: cache, logger: logger, concurrency: 4}
}

// SetConcurrency bounds the number of parallel loads in LoadAll.
func (s *Store) SetConcurrency(n int) {
	if n > 0 {
		s.concurrency = n
	}
}

// Source returns the underlying source.
func (s *Store) Source() Source { return s.src }

// load returns the cached value for name or parses it with decode.
func (s *Store) load(ctx context.Context, name string, decode func(io.Reader) (any, error)) (any, error) {
	return s.cache.GetOrLoad(ctx, cachePrefix+name, func(ctx context.Context) (any, error) {
		start := time.Now()
		rc, err := s.src.Open(ctx, name)
		if err != nil {
			s.logger.Error("dataset load failed", zap.String("resource", name), zap.String("source", s.src.Name()), zap.Error(err))
			return nil, err
		}
		defer rc.Close()

		v, err := decode(rc)
		if err != nil {
			perr := &ParseError{Resource: name, Err: err}
			s.logger.Error("dataset parse failed", zap.String("resource", name), zap.Error(err))
			return nil, perr
		}
		s.logger.Debug("dataset loaded", zap.String("resource", name), zap.Duration("took", time.Since(start)))
		return v, nil
	})
}

func loadJSON[T any](ctx context.Context, s *Store, name string) (*T, error) {
	v, err := s.load(ctx, name, func(r io.Reader) (any, error) {
		return DecodeJSON[T](r)
	})
	if err != nil {
		return nil, err
	}
	return v.(*T), nil
}

// CPI returns the parsed sample CPI series.
func (s *Store) CPI(ctx context.Context) ([]models.Point, error) {
	v, err := s.load(ctx, CPISample, func(r io.Reader) (any, error) {
		return ParseCPI(r)
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Point), nil
}

// MultiSeries returns the category CPI series for the inflation overview.
func (s *Store) MultiSeries(ctx context.Context) (*models.MultiSeries, error) {
	return loadJSON[models.MultiSeries](ctx, s, InflationMultiSeries)
}

// Subcategories returns the full CPI subcategory series.
func (s *Store) Subcategories(ctx context.Context) (*models.Subcategories, error) {
	return loadJSON[models.Subcategories](ctx, s, AllSubcategories)
}

// Weights returns the CPI basket weights.
func (s *Store) Weights(ctx context.Context) (*models.BasketWeights, error) {
	return loadJSON[models.BasketWeights](ctx, s, BasketWeights)
}

// GrainProduction returns total grain production by year.
func (s *Store) GrainProduction(ctx context.Context) (*models.GrainSeries, error) {
	return loadJSON[models.GrainSeries](ctx, s, GrainProduction)
}

// GrainArea returns total seeded area by year.
func (s *Store) GrainArea(ctx context.Context) (*models.GrainSeries, error) {
	return loadJSON[models.GrainSeries](ctx, s, GrainArea)
}

// GrainComponents returns per-crop production, area and effective yield.
func (s *Store) GrainComponents(ctx context.Context) (*models.CropComponents, error) {
	return loadJSON[models.CropComponents](ctx, s, GrainComponents)
}

// Raw returns the unparsed bytes of a resource. Raw reads are not cached.
func (s *Store) Raw(ctx context.Context, name string) ([]byte, error) {
	rc, err := s.src.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Invalidate drops the cached copy of one resource.
func (s *Store) Invalidate(name string) {
	s.cache.Invalidate(cachePrefix + name)
}

// InvalidateAll drops every cached resource.
func (s *Store) InvalidateAll() int {
	return s.cache.InvalidatePrefix(cachePrefix)
}

// LoadResult reports the outcome of loading one resource.
type LoadResult struct {
	Resource string        `json:"resource"`
	OK       bool          `json:"ok"`
	Error    string        `json:"error,omitempty"`
	Took     time.Duration `json:"took"`
}

// LoadAll loads every resource in parallel. Individual failures are
// non-fatal and reported in the results; only context cancellation
// aborts the whole load.
func (s *Store) LoadAll(ctx context.Context) ([]LoadResult, error) {
	loaders := map[string]func(context.Context) error{
		CPISample:            func(ctx context.Context) error { _, err := s.CPI(ctx); return err },
		InflationMultiSeries: func(ctx context.Context) error { _, err := s.MultiSeries(ctx); return err },
		AllSubcategories:     func(ctx context.Context) error { _, err := s.Subcategories(ctx); return err },
		BasketWeights:        func(ctx context.Context) error { _, err := s.Weights(ctx); return err },
		GrainProduction:      func(ctx context.Context) error { _, err := s.GrainProduction(ctx); return err },
		GrainArea:            func(ctx context.Context) error { _, err := s.GrainArea(ctx); return err },
		GrainComponents:      func(ctx context.Context) error { _, err := s.GrainComponents(ctx); return err },
	}

	results := make([]LoadResult, len(Resources))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, name := range Resources {
		i, name := i, name
		g.Go(func() error {
			start := time.Now()
			err := loaders[name](gctx)
			res := LoadResult{Resource: name, OK: err == nil, Took: time.Since(start)}
			if err != nil {
				res.Error = err.Error()
			}
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("load datasets: %w", err)
	}
	return results, nil
}
