package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/suwandre/odette/internal/analytics"
	"github.com/suwandre/odette/internal/models"
)

// Scheduler refreshes key levels for every configured currency on an
// interval and caches the latest result for the API to serve. Currencies
// are isolated: one failing run is logged and skipped, the rest proceed.
type Scheduler struct {
	engine     *analytics.Engine
	currencies []string
	interval   time.Duration
	cache      map[string]*models.Result
	mu         sync.RWMutex
	stopCh     chan struct{}
}

func NewScheduler(engine *analytics.Engine, currencies []string, interval time.Duration) *Scheduler {
	return &Scheduler{
		engine:     engine,
		currencies: currencies,
		interval:   interval,
		cache:      make(map[string]*models.Result),
		stopCh:     make(chan struct{}),
	}
}

// Begins the polling loop in a background goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	// Run once immediately so the cache isn't empty on first request
	s.refresh(ctx)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.refresh(ctx)
			case <-ctx.Done():
				log.Info().Msg("scheduler stopped")
				return
			case <-s.stopCh:
				log.Info().Msg("scheduler stopped")
				return
			}
		}
	}()

	log.Info().
		Stringer("interval", s.interval).
		Strs("currencies", s.currencies).
		Msg("scheduler started")
}

// Signals the background goroutine to exit cleanly.
func (s *Scheduler) Stop() {
	close(s.stopCh)
}

// GetResult returns the latest cached result for a currency.
func (s *Scheduler) GetResult(currency string) (*models.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.cache[currency]
	return result, ok
}

// Generates fresh key levels for all currencies and updates the cache.
func (s *Scheduler) refresh(ctx context.Context) {
	for _, currency := range s.currencies {
		result, err := s.engine.GenerateKeyLevels(ctx, currency)
		if err != nil {
			log.Error().Err(err).Str("currency", currency).Msg("scheduler refresh failed")
			continue
		}

		s.mu.Lock()
		s.cache[currency] = result
		s.mu.Unlock()

		log.Info().
			Str("currency", currency).
			Int("levels", len(result.KeyLevels)).
			Msg("cache refreshed")
	}
}
