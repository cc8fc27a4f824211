package service

import (
	"context"
	"errors"
	"sync"

	"github.com/dxb-props/propertyfinder-crawler/internal/config"
	"github.com/dxb-props/propertyfinder-crawler/internal/crawler"
	"github.com/dxb-props/propertyfinder-crawler/internal/logger"
	"github.com/dxb-props/propertyfinder-crawler/internal/repository"
)

// ErrCrawlInProgress is returned when a crawl is triggered while an
// earlier run is still active.
var ErrCrawlInProgress = errors.New("a crawl is already in progress")

// PropertyService sits between the API layer and storage, and owns crawl
// runs triggered over HTTP.
type PropertyService struct {
	repo   repository.PropertyRepository
	config *config.Config
	logger *logger.Logger

	mutex    sync.Mutex
	crawling bool
}

func NewPropertyService(repo repository.PropertyRepository, cfg *config.Config) *PropertyService {
	return &PropertyService{
		repo:   repo,
		config: cfg,
		logger: logger.NewLogger("property_service"),
	}
}

// SaveProperty stores one record after checking the identity invariants.
func (s *PropertyService) SaveProperty(ctx context.Context, record repository.PropertyRecord) error {
	if record.URL == "" {
		return errors.New("property URL cannot be empty")
	}
	if record.Title == "" {
		record.Title = repository.DefaultTitle
	}
	return s.repo.Save(ctx, record)
}

func (s *PropertyService) GetAllProperties(ctx context.Context) ([]repository.PropertyRecord, error) {
	return s.repo.FindAll(ctx)
}

func (s *PropertyService) SearchProperties(ctx context.Context, filter repository.PropertyFilter, pagination repository.PaginationParams) (*repository.PropertySearchResult, error) {
	return s.repo.FindWithFilters(ctx, filter, pagination)
}

// ForceCrawling starts a crawl with the configured criteria in the
// background. Only one run is allowed at a time.
func (s *PropertyService) ForceCrawling(ctx context.Context) error {
	criteria := crawler.CriteriaFromConfig(s.config)
	if err := criteria.Validate(); err != nil {
		return err
	}

	s.mutex.Lock()
	if s.crawling {
		s.mutex.Unlock()
		return ErrCrawlInProgress
	}
	s.crawling = true
	s.mutex.Unlock()

	go func() {
		defer func() {
			s.mutex.Lock()
			s.crawling = false
			s.mutex.Unlock()
		}()

		engine := crawler.NewEngine(s.config, criteria, s.repo)
		saved, err := engine.Run(context.Background())
		if err != nil {
			s.logger.Error("Triggered crawl failed", err)
			return
		}
		s.logger.WithField("records_saved", saved).Info("Triggered crawl finished")
	}()

	return nil
}

// IsCrawling reports whether a triggered run is still active.
func (s *PropertyService) IsCrawling() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.crawling
}
