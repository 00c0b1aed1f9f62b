package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"storefront-pricing/internal/pricing"
)

// Snapshot holds the most recently loaded offers.
// Pricing always runs against whatever snapshot is current.
type Snapshot struct {
	source Source
	logger *slog.Logger

	mu        sync.RWMutex
	offers    []pricing.Offer
	loadedAt  time.Time
	hasLoaded bool
}

// NewSnapshot creates an empty snapshot. Call Refresh or Run to load it.
func NewSnapshot(source Source, logger *slog.Logger) *Snapshot {
	return &Snapshot{source: source, logger: logger}
}

// Refresh reloads offers from the source. Rows that fail to decode are logged and
// skipped. On error the previous offers stay in place.
func (s *Snapshot) Refresh(ctx context.Context) error {
	records, err := s.source.ActiveOffers(ctx)
	if err != nil {
		return err
	}

	offers := make([]pricing.Offer, 0, len(records))
	for _, r := range records {
		o, err := DecodeOffer(r)
		if err != nil {
			level := slog.LevelWarn
			if errors.Is(err, ErrUnknownOfferType) {
				level = slog.LevelError
			}
			s.logger.Log(ctx, level, "skipping offer",
				slog.String("offer_id", r.ID),
				slog.String("type", r.Type),
				slog.String("error", err.Error()))
			continue
		}
		offers = append(offers, o)
	}

	s.mu.Lock()
	s.offers = offers
	s.loadedAt = time.Now()
	s.hasLoaded = true
	s.mu.Unlock()

	s.logger.Debug("offer catalog refreshed", slog.Int("offers", len(offers)))
	return nil
}

// Offers returns a copy of the current offers and whether any load has succeeded.
func (s *Snapshot) Offers() ([]pricing.Offer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]pricing.Offer, len(s.offers))
	copy(out, s.offers)
	return out, s.hasLoaded
}

// LoadedAt reports when the current offers were loaded.
func (s *Snapshot) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Run refreshes on every change signal and every interval until ctx is done.
// A nil changes channel means polling only.
func (s *Snapshot) Run(ctx context.Context, changes <-chan struct{}, interval time.Duration) {
	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-changes:
		case <-tick:
		}
		if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("offer catalog refresh failed", slog.String("error", err.Error()))
		}
	}
}
