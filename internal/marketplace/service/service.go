package service

import (
	"context"
	"errors"
	"time"

	"github.com/carbonchain/carbonchain-backend/internal/marketplace/cache"
	"github.com/carbonchain/carbonchain-backend/internal/marketplace/domain"
	"go.uber.org/zap"
)

const (
	countriesKey  = "countries"
	categoriesKey = "categories"

	projectCacheTTL = 30 * time.Second
)

// Source is anything that can answer marketplace queries: the Carbonmark
// client or the offline catalog.
type Source interface {
	Countries(ctx context.Context) ([]string, error)
	Categories(ctx context.Context) ([]string, error)
	Search(ctx context.Context, f domain.SearchFilter) (*domain.SearchResult, error)
	Project(ctx context.Context, id string) (*domain.Project, error)
}

type MarketplaceService struct {
	source Source
	cache  *cache.ReferenceCache
	log    *zap.Logger
}

// NewMarketplaceService wires a source with an optional Redis cache; a nil
// cache sends every call upstream.
func NewMarketplaceService(source Source, c *cache.ReferenceCache, log *zap.Logger) *MarketplaceService {
	if log == nil {
		log = zap.NewNop()
	}
	return &MarketplaceService{source: source, cache: c, log: log}
}

func (s *MarketplaceService) Countries(ctx context.Context) ([]string, error) {
	return s.cachedList(ctx, countriesKey, s.source.Countries)
}

func (s *MarketplaceService) Categories(ctx context.Context) ([]string, error) {
	return s.cachedList(ctx, categoriesKey, s.source.Categories)
}

func (s *MarketplaceService) Search(ctx context.Context, f domain.SearchFilter) (*domain.SearchResult, error) {
	return s.source.Search(ctx, f)
}

// Project returns project detail, served from cache for a short window.
func (s *MarketplaceService) Project(ctx context.Context, id string) (*domain.Project, error) {
	if s.cache != nil {
		var p domain.Project
		ok, err := s.cache.GetJSON(ctx, id, &p)
		if err != nil {
			s.log.Warn("project cache read failed", zap.String("project_id", id), zap.Error(err))
		} else if ok {
			return &p, nil
		}
	}

	p, err := s.source.Project(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, id, p, projectCacheTTL); err != nil {
			s.log.Warn("project cache write failed", zap.String("project_id", id), zap.Error(err))
		}
	}
	return p, nil
}

// FreshProject bypasses the cache; quoting must price against live supply.
func (s *MarketplaceService) FreshProject(ctx context.Context, id string) (*domain.Project, error) {
	return s.source.Project(ctx, id)
}

// RefreshReferenceData reloads countries and categories into the cache.
func (s *MarketplaceService) RefreshReferenceData(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	var errs []error
	for key, load := range map[string]func(context.Context) ([]string, error){
		countriesKey:  s.source.Countries,
		categoriesKey: s.source.Categories,
	} {
		values, err := load(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.cache.SetList(ctx, key, values); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *MarketplaceService) cachedList(ctx context.Context, key string, load func(context.Context) ([]string, error)) ([]string, error) {
	if s.cache != nil {
		values, ok, err := s.cache.GetList(ctx, key)
		if err != nil {
			s.log.Warn("reference cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			return values, nil
		}
	}

	values, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetList(ctx, key, values); err != nil {
			s.log.Warn("reference cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return values, nil
}
