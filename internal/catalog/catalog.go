// Package catalog keeps the storefront's snapshot of public backend data.
package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/partsline/partsline/internal/models"
)

// Source is the public read side of the backend
type Source interface {
	Settings(ctx context.Context) (*models.Settings, error)
	Products(ctx context.Context) ([]models.Product, error)
	Portfolio(ctx context.Context) ([]models.PortfolioItem, error)
	Testimonials(ctx context.Context) ([]models.Testimonial, error)
}

// Snapshot is everything the public pages render from
type Snapshot struct {
	Settings     models.Settings
	Products     []models.Product
	Portfolio    []models.PortfolioItem
	Testimonials []models.Testimonial
	FetchedAt    time.Time
}

// Featured returns the featured products, or the first few when none are marked
func (s *Snapshot) Featured(limit int) []models.Product {
	var featured []models.Product
	for _, p := range s.Products {
		if p.Featured {
			featured = append(featured, p)
		}
	}
	if len(featured) == 0 {
		featured = s.Products
	}
	if len(featured) > limit {
		featured = featured[:limit]
	}
	return featured
}

// Categories returns product categories in first-seen order
func (s *Snapshot) Categories() []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range s.Products {
		if p.Category != "" && !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	return out
}

// Service refreshes the snapshot on a cron schedule. A failed refresh keeps the
// previous snapshot.
type Service struct {
	source  Source
	logger  zerolog.Logger
	timeout time.Duration

	mu       sync.RWMutex
	snapshot *Snapshot

	// collapses concurrent lazy fetches after an Invalidate
	fetch singleflight.Group

	cron *cron.Cron
}

// NewService creates a catalog service
func NewService(source Source, logger zerolog.Logger) *Service {
	return &Service{
		source:  source,
		logger:  logger,
		timeout: 30 * time.Second,
	}
}

// Start schedules periodic refreshes. schedule is a standard 5-field cron expression.
func (s *Service) Start(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser))

	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.Refresh(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Catalog refresh failed, keeping previous snapshot")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid catalog refresh schedule %q: %w", schedule, err)
	}

	s.cron = c
	c.Start()
	s.logger.Info().Str("schedule", schedule).Msg("Catalog refresh scheduled")
	return nil
}

// Stop halts the scheduler and waits for a running refresh
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Refresh fetches a new snapshot and swaps it in
func (s *Service) Refresh(ctx context.Context) error {
	_, err := s.refresh(ctx)
	return err
}

func (s *Service) refresh(ctx context.Context) (*Snapshot, error) {
	settings, err := s.source.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch settings: %w", err)
	}
	products, err := s.source.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	portfolio, err := s.source.Portfolio(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch portfolio: %w", err)
	}
	testimonials, err := s.source.Testimonials(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch testimonials: %w", err)
	}

	published := testimonials[:0:0]
	for _, t := range testimonials {
		if t.Published {
			published = append(published, t)
		}
	}

	snap := &Snapshot{
		Settings:     *settings,
		Products:     products,
		Portfolio:    portfolio,
		Testimonials: published,
		FetchedAt:    time.Now(),
	}

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	s.logger.Debug().
		Int("products", len(products)).
		Int("portfolio", len(portfolio)).
		Int("testimonials", len(published)).
		Msg("Catalog refreshed")
	return snap, nil
}

// Snapshot returns the current snapshot, fetching one first if none exists yet.
// The returned snapshot is the one this call fetched or found, even if an
// Invalidate lands right after.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}

	v, err, _ := s.fetch.Do("snapshot", func() (any, error) {
		return s.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Invalidate drops the snapshot so the next read refetches. Admin writes call it.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.snapshot = nil
	s.mu.Unlock()
}
