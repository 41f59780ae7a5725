package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/SergeyBogomolovv/storefront-orders/internal/entities"
	"github.com/SergeyBogomolovv/storefront-orders/pkg/trm"
	"github.com/SergeyBogomolovv/storefront-orders/pkg/utils"

	"golang.org/x/sync/singleflight"
)

type OrderRepo interface {
	CreateOrder(ctx context.Context, o entities.Order) (entities.Order, error)
	GetOrder(ctx context.Context, id int64) (entities.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, key string) (entities.Order, error)
	ListOrders(ctx context.Context, filter entities.OrderFilter) ([]entities.Order, error)
	ListCustomers(ctx context.Context) ([]entities.CustomerProfile, error)
	UpdateStatus(ctx context.Context, id int64, status entities.Status, updatedAt time.Time) error
	Stats(ctx context.Context) (entities.Stats, error)
}

type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Delete(key string)
}

type orderService struct {
	logger    *slog.Logger
	txManager trm.Manager
	repo      OrderRepo
	cache     Cache
	cacheMu   sync.Mutex
	group     singleflight.Group
	now       func() time.Time
}

func NewOrderService(logger *slog.Logger, txManager trm.Manager, repo OrderRepo, cache Cache) *orderService {
	return &orderService{
		logger:    logger.With(slog.String("service", "order")),
		txManager: txManager,
		repo:      repo,
		cache:     cache,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrder persists a new pending order and returns it with its id.
// A request carrying an idempotency key that was already stored returns the
// stored order instead of creating a second one.
func (s *orderService) CreateOrder(ctx context.Context, order entities.Order) (entities.Order, error) {
	order, err := normalizeOrder(order)
	if err != nil {
		return entities.Order{}, err
	}

	total := entities.ItemsTotal(order.Items)
	if !order.TotalAmount.IsZero() && !order.TotalAmount.Equal(total) {
		s.logger.Warn("client total does not match items",
			slog.String("client_total", order.TotalAmount.String()),
			slog.String("total", total.String()),
		)
	}
	order.TotalAmount = total

	now := s.now()
	order.ID = 0
	order.Status = entities.StatusPending
	order.CreatedAt = now
	order.UpdatedAt = now

	var created entities.Order
	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		if order.IdempotencyKey != "" {
			existing, err := s.repo.GetOrderByIdempotencyKey(ctx, order.IdempotencyKey)
			if err == nil {
				s.logger.Info("replaying order", slog.Int64("order_id", existing.ID), slog.String("idempotency_key", order.IdempotencyKey))
				created = existing
				return nil
			}
			if !errors.Is(err, entities.ErrOrderNotFound) {
				return fmt.Errorf("failed to look up idempotency key: %w", err)
			}
		}

		var err error
		created, err = s.repo.CreateOrder(ctx, order)
		return err
	})

	if errors.Is(err, entities.ErrDuplicateSubmission) {
		created, err = s.resolveDuplicate(ctx, order.IdempotencyKey)
		if err != nil {
			return entities.Order{}, err
		}
	} else if err != nil {
		s.logger.Error("failed to create order", slog.Any("error", err))
		return entities.Order{}, fmt.Errorf("%w: %w", entities.ErrPersistence, err)
	}

	s.logger.Debug("order created", slog.Int64("order_id", created.ID))
	s.cacheOrder(created)
	return created, nil
}

// resolveDuplicate returns the order that won a concurrent insert with the
// same idempotency key.
func (s *orderService) resolveDuplicate(ctx context.Context, key string) (entities.Order, error) {
	if key == "" {
		return entities.Order{}, entities.ErrDuplicateSubmission
	}
	existing, err := s.repo.GetOrderByIdempotencyKey(ctx, key)
	if err != nil {
		s.logger.Error("failed to resolve duplicate submission", slog.String("idempotency_key", key), slog.Any("error", err))
		return entities.Order{}, entities.ErrDuplicateSubmission
	}
	return existing, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter entities.OrderFilter) ([]entities.Order, error) {
	orders, err := s.repo.ListOrders(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list orders", slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", entities.ErrPersistence, err)
	}
	return orders, nil
}

func (s *orderService) GetOrder(ctx context.Context, id int64) (entities.Order, error) {
	if id <= 0 {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	key := cacheKey(id)

	if data, ok := s.cache.Get(key); ok {
		var order entities.Order
		err := order.Unmarshal(data)
		if err == nil {
			return order, nil
		}
		s.logger.Error("failed to unmarshal cached order", slog.Int64("order_id", id), slog.Any("error", err))
		s.cache.Delete(key)
	}

	// the store read outlives any single caller
	ch := s.group.DoChan(key, func() (any, error) {
		return s.repo.GetOrder(context.WithoutCancel(ctx), id)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return entities.Order{}, ctx.Err()
	}

	if errors.Is(res.Err, entities.ErrOrderNotFound) {
		return entities.Order{}, res.Err
	}
	if res.Err != nil {
		s.logger.Error("failed to get order", slog.Int64("order_id", id), slog.Any("error", res.Err))
		return entities.Order{}, fmt.Errorf("%w: %w", entities.ErrPersistence, res.Err)
	}

	order := res.Val.(entities.Order)
	s.cacheOrder(order)
	return order, nil
}

func (s *orderService) ListCustomers(ctx context.Context) ([]entities.CustomerProfile, error) {
	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		s.logger.Error("failed to list customers", slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", entities.ErrPersistence, err)
	}
	return customers, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, id int64, status entities.Status) (entities.Order, error) {
	if err := validateStatus(status); err != nil {
		return entities.Order{}, err
	}
	if id <= 0 {
		return entities.Order{}, entities.ErrOrderNotFound
	}

	s.cache.Delete(cacheKey(id))

	var updated entities.Order
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateStatus(ctx, id, status, s.now()); err != nil {
			return err
		}
		var err error
		updated, err = s.repo.GetOrder(ctx, id)
		return err
	})
	if errors.Is(err, entities.ErrOrderNotFound) {
		return entities.Order{}, err
	}
	if err != nil {
		s.logger.Error("failed to update status", slog.Int64("order_id", id), slog.Any("error", err))
		return entities.Order{}, fmt.Errorf("%w: %w", entities.ErrPersistence, err)
	}

	s.logger.Debug("order status updated", slog.Int64("order_id", id), slog.String("status", string(status)))
	s.cacheOrder(updated)
	return updated, nil
}

func (s *orderService) Stats(ctx context.Context) (entities.Stats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		s.logger.Error("failed to get stats", slog.Any("error", err))
		return entities.Stats{}, fmt.Errorf("%w: %w", entities.ErrPersistence, err)
	}
	return stats, nil
}

var warmUpRetry = utils.RetryConfig{
	InitialDelay: 100 * time.Millisecond,
	MaxAttempts:  5,
	Multiplier:   2,
}

// WarmUpCache loads the newest count orders into the cache.
func (s *orderService) WarmUpCache(ctx context.Context, count int) error {
	if count <= 0 {
		return nil
	}

	var orders []entities.Order
	err := utils.Retry(ctx, warmUpRetry, func() error {
		var err error
		orders, err = s.repo.ListOrders(ctx, entities.OrderFilter{Limit: count})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to warm up cache: %w", err)
	}

	for _, o := range orders {
		s.cacheOrder(o)
	}
	s.logger.Info("cache warmed up", slog.Int("orders", len(orders)))
	return nil
}

// cacheOrder stores order unless the cache already holds a later version of
// it. Reads and status updates race to fill the same key.
func (s *orderService) cacheOrder(order entities.Order) {
	data, err := order.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal order", slog.Int64("order_id", order.ID), slog.Any("error", err))
		return
	}

	key := cacheKey(order.ID)

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if cached, ok := s.cache.Get(key); ok {
		var current entities.Order
		if err := current.Unmarshal(cached); err == nil && current.UpdatedAt.After(order.UpdatedAt) {
			return
		}
	}
	s.cache.Set(key, data)
}

func cacheKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
