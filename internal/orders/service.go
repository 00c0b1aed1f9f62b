// Package orders places orders from priced carts.
//
// Placement runs in a fixed order: claim the idempotency key, persist, publish
// the order.placed event, then notify. Only the first two can fail a request.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"storefront-pricing/internal/model"
	"storefront-pricing/internal/pricing"
	"storefront-pricing/internal/summary"
)

var (
	// ErrEmptyCart is returned when there is nothing to order.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrKeyConflict is returned when an idempotency key was used for another cart
	// or the first request with that key is still running.
	ErrKeyConflict = errors.New("idempotency key conflict")
	// ErrOrderNotFound is returned by Repository.Get.
	ErrOrderNotFound = errors.New("order not found")
)

// Repository persists orders.
type Repository interface {
	Save(ctx context.Context, o model.Order, idempotencyKey string) error
	Get(ctx context.Context, id string) (model.Order, error)
}

// Idempotency reserves request keys.
type Idempotency interface {
	// Claim associates key with orderID. When the key is already held it returns
	// the order ID stored with it and claimed=false.
	Claim(ctx context.Context, key, orderID string) (existing string, claimed bool, err error)
	// Release frees a key whose order could not be saved.
	Release(ctx context.Context, key string) error
}

// Publisher emits order events.
type Publisher interface {
	Publish(ctx context.Context, o model.Order) error
}

// Notifier sends a human-readable message.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// PlaceOrder is a priced cart ready to become an order.
type PlaceOrder struct {
	CartID         string
	IdempotencyKey string
	Lines          []pricing.CartLine
	Calculation    pricing.CartCalculation
}

// Result is the outcome of Place.
type Result struct {
	Order    model.Order
	Summary  string
	Replayed bool
}

// Service places orders. Publisher and Notifier are optional.
type Service struct {
	repo      Repository
	idem      Idempotency
	publisher Publisher
	notifier  Notifier
	summary   summary.Options
	logger    *slog.Logger

	now   func() time.Time
	newID func() string
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher enables order events.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithNotifier enables summary notifications.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithSummaryOptions sets how summaries are rendered.
func WithSummaryOptions(opts summary.Options) Option {
	return func(s *Service) { s.summary = opts }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates an order service.
func NewService(repo Repository, idem Idempotency, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		idem:   idem,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Place turns a priced cart into an order. Repeating a request with the same
// idempotency key returns the original order with Replayed set.
func (s *Service) Place(ctx context.Context, req PlaceOrder) (*Result, error) {
	orderID := s.newID()
	if req.IdempotencyKey != "" {
		existing, claimed, err := s.idem.Claim(ctx, req.IdempotencyKey, orderID)
		if err != nil {
			return nil, fmt.Errorf("claim idempotency key: %w", err)
		}
		if !claimed {
			// The cart is usually gone by the time a client retries, so replay
			// is checked before the cart contents.
			return s.replay(ctx, req, existing)
		}
	}
	if len(req.Lines) == 0 {
		s.release(ctx, req.IdempotencyKey, orderID)
		return nil, ErrEmptyCart
	}

	order := model.NewOrder(orderID, req.CartID, req.Lines, req.Calculation, s.now())
	if err := s.repo.Save(ctx, order, req.IdempotencyKey); err != nil {
		s.release(ctx, req.IdempotencyKey, orderID)
		return nil, fmt.Errorf("save order: %w", err)
	}

	s.logger.Info("order placed",
		slog.String("order_id", order.ID),
		slog.String("cart_id", order.CartID),
		slog.Int("offers", len(order.AppliedOffers)),
		slog.Float64("total", order.Total))

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, order); err != nil {
			s.logger.Error("failed to publish order event",
				slog.String("order_id", order.ID),
				slog.String("error", err.Error()))
		}
	}

	text := summary.Format(order, s.summary)
	if s.notifier != nil {
		if err := s.notifier.Send(ctx, text); err != nil {
			s.logger.Warn("failed to send order notification",
				slog.String("order_id", order.ID),
				slog.String("error", err.Error()))
		}
	}

	return &Result{Order: order, Summary: text}, nil
}

func (s *Service) release(ctx context.Context, key, orderID string) {
	if key == "" {
		return
	}
	if err := s.idem.Release(ctx, key); err != nil {
		s.logger.Warn("failed to release idempotency key",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()))
	}
}

func (s *Service) replay(ctx context.Context, req PlaceOrder, orderID string) (*Result, error) {
	order, err := s.repo.Get(ctx, orderID)
	if errors.Is(err, ErrOrderNotFound) {
		return nil, fmt.Errorf("%w: order %s is still being placed", ErrKeyConflict, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("load order %s: %w", orderID, err)
	}
	if order.CartID != req.CartID {
		return nil, fmt.Errorf("%w: key belongs to cart %s", ErrKeyConflict, order.CartID)
	}

	s.logger.Info("order replayed", slog.String("order_id", orderID))
	return &Result{Order: order, Summary: summary.Format(order, s.summary), Replayed: true}, nil
}
