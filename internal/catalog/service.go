package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	refreshKey     = "snapshot"
	refreshTimeout = 30 * time.Second

	cacheFresh        = "fresh"
	cacheStale        = "stale"
	cacheMiss         = "miss"
	cacheStaleOnError = "stale_on_error"
)

type productSource interface {
	Products(ctx context.Context) ([]Product, error)
	Categories(ctx context.Context) ([]string, error)
	ProductsByCategory(ctx context.Context, category string) ([]Product, error)
	Product(ctx context.Context, id int) (Product, error)
}

// ServiceParams groups dependencies for the catalog service.
type ServiceParams struct {
	Source   productSource
	Cache    SnapshotCache
	FreshTTL time.Duration
	StaleTTL time.Duration
	Logger   *logger.Logger
	Metrics  *metrics.CatalogMetrics
	Clock    func() time.Time
}

// BrowseResult is a filtered, sorted product listing.
type BrowseResult struct {
	Category   string    `json:"category,omitempty"`
	Products   []Product `json:"products"`
	Count      int       `json:"count"`
	SnapshotAt time.Time `json:"snapshot_at"`
}

// Service serves catalog views over a cached snapshot of the upstream API.
type Service interface {
	Snapshot(ctx context.Context) (Snapshot, error)
	Browse(ctx context.Context, state QueryState, scope enums.SearchScope) (BrowseResult, error)
	Grouped(ctx context.Context, state QueryState) ([]GroupView, error)
	Suggest(ctx context.Context, text string, limit int) ([]Product, error)
	Categories(ctx context.Context) ([]string, error)
	Product(ctx context.Context, id int) (Product, error)
	ByCategory(ctx context.Context, category string, state QueryState) (BrowseResult, error)
}

type service struct {
	source   productSource
	cache    SnapshotCache
	freshTTL time.Duration
	staleTTL time.Duration
	logg     *logger.Logger
	metrics  *metrics.CatalogMetrics
	now      func() time.Time

	refreshes  singleflight.Group
	background sync.WaitGroup
}

// NewService builds a catalog service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Source == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product source is required")
	}
	if params.Cache == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "snapshot cache is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	if params.FreshTTL <= 0 || params.StaleTTL < params.FreshTTL {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fresh ttl must be positive and not exceed stale ttl")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		source:   params.Source,
		cache:    params.Cache,
		freshTTL: params.FreshTTL,
		staleTTL: params.StaleTTL,
		logg:     params.Logger,
		metrics:  params.Metrics,
		now:      clock,
	}, nil
}

// Snapshot serves the cached catalog when fresh, serves and refreshes it in
// the background when stale, and falls back to any cached copy when the
// upstream fetch fails.
func (s *service) Snapshot(ctx context.Context) (Snapshot, error) {
	cached, storedAt, ok, err := s.cache.Load(ctx)
	if err != nil {
		s.logg.Error(ctx, "catalog.cache_load_failed", err)
		ok = false
	}
	if ok {
		age := s.now().Sub(storedAt)
		switch {
		case age <= s.freshTTL:
			s.metrics.IncCache(cacheFresh)
			return cached, nil
		case age <= s.staleTTL:
			s.metrics.IncCache(cacheStale)
			s.refreshInBackground(ctx)
			return cached, nil
		}
	}

	snapshot, err := s.refresh(ctx)
	if err != nil {
		if ok {
			s.metrics.IncCache(cacheStaleOnError)
			s.logg.Error(s.logg.WithField(ctx, "snapshot_age", s.now().Sub(storedAt).String()), "catalog.serving_stale_after_refresh_failure", err)
			return cached, nil
		}
		return Snapshot{}, err
	}
	s.metrics.IncCache(cacheMiss)
	return snapshot, nil
}

// refresh joins the in-flight fetch, if any. The fetch itself is detached from
// the caller that started it; each caller only stops waiting on its own ctx.
func (s *service) refresh(ctx context.Context) (Snapshot, error) {
	results := s.refreshes.DoChan(refreshKey, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return s.fetch(fetchCtx)
	})
	select {
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return Snapshot{}, res.Err
		}
		return res.Val.(Snapshot), nil
	}
}

func (s *service) refreshInBackground(parent context.Context) {
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		ctx := context.WithoutCancel(parent)
		if _, err := s.refresh(ctx); err != nil {
			s.logg.Error(ctx, "catalog.background_refresh_failed", err)
		}
	}()
}

func (s *service) fetch(ctx context.Context) (Snapshot, error) {
	var (
		products   []Product
		categories []string
	)
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		products, err = s.source.Products(gctx)
		return err
	})
	group.Go(func() error {
		var err error
		categories, err = s.source.Categories(gctx)
		return err
	})
	if err := group.Wait(); err != nil {
		return Snapshot{}, err
	}

	if err := ValidateSources(products, categories); err != nil {
		problems := multierr.Errors(err)
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"problem_count": len(problems),
			"problems":      err.Error(),
		}), "catalog.snapshot_sources_disagree")
	}

	now := s.now()
	snapshot := NewSnapshot(products, categories, now)
	if err := s.cache.Save(ctx, snapshot, now); err != nil {
		s.logg.Error(ctx, "catalog.cache_save_failed", err)
	}
	s.logg.Info(s.logg.WithField(ctx, "product_count", len(snapshot.Products)), "catalog.snapshot_refreshed")
	return snapshot, nil
}

func (s *service) Browse(ctx context.Context, state QueryState, scope enums.SearchScope) (BrowseResult, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return BrowseResult{}, err
	}
	products := Apply(snapshot.Products, state, scope)
	return BrowseResult{Category: state.Category, Products: products, Count: len(products), SnapshotAt: snapshot.FetchedAt}, nil
}

func (s *service) Grouped(ctx context.Context, state QueryState) ([]GroupView, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return Grouped(snapshot.Products, state), nil
}

func (s *service) Suggest(ctx context.Context, text string, limit int) ([]Product, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return Suggest(snapshot.Products, text, limit), nil
}

func (s *service) Categories(ctx context.Context) ([]string, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.Categories, nil
}

// Product looks in the snapshot first and asks upstream only on a miss.
func (s *service) Product(ctx context.Context, id int) (Product, error) {
	if id <= 0 {
		return Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}
	snapshot, err := s.Snapshot(ctx)
	if err == nil {
		if product, ok := snapshot.Find(id); ok {
			return product, nil
		}
	} else {
		s.logg.Warn(s.logg.WithField(ctx, "product_id", id), "catalog.snapshot_unavailable_for_lookup")
	}
	return s.source.Product(ctx, id)
}

// ByCategory backs the category page: products come from the upstream
// category endpoint (falling back to the snapshot when it fails), then search
// over title and description, price and sort apply. A blank category selects
// the first known category.
func (s *service) ByCategory(ctx context.Context, category string, state QueryState) (BrowseResult, error) {
	snapshot, snapErr := s.Snapshot(ctx)
	if category == "" {
		if snapErr != nil {
			return BrowseResult{}, snapErr
		}
		if len(snapshot.Categories) == 0 {
			return BrowseResult{Products: []Product{}}, nil
		}
		category = snapshot.Categories[0]
	}

	products, err := s.source.ProductsByCategory(ctx, category)
	if err != nil {
		if snapErr != nil || !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
			return BrowseResult{}, err
		}
		s.logg.Warn(s.logg.WithField(ctx, "category", category), "catalog.category_fetch_failed_using_snapshot")
		products = FilterByCategory(snapshot.Products, category)
	}

	scoped := state
	scoped.Category = ""
	view := Apply(products, scoped, enums.SearchScopeTitleDescription)
	return BrowseResult{Category: category, Products: view, Count: len(view), SnapshotAt: snapshot.FetchedAt}, nil
}
