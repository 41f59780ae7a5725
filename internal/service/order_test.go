package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SergeyBogomolovv/storefront-orders/internal/entities"
	"github.com/SergeyBogomolovv/storefront-orders/internal/repo"
	"github.com/SergeyBogomolovv/storefront-orders/internal/service"
	mocks "github.com/SergeyBogomolovv/storefront-orders/internal/service/mocks"
	"github.com/SergeyBogomolovv/storefront-orders/pkg/cache"
	txMocks "github.com/SergeyBogomolovv/storefront-orders/pkg/trm/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newOrder() entities.Order {
	return entities.Order{
		Customer: entities.Customer{
			Name:    "Ann",
			Phone:   "+1000000",
			Address: "Main st 1",
		},
		Items: []entities.Item{
			{Name: "Margherita", Price: decimal.NewFromInt(250), Quantity: 2},
		},
	}
}

func passThroughTx(t *testing.T) *txMocks.MockManager {
	tx := txMocks.NewMockManager(t)
	tx.EXPECT().
		Do(mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, cb func(ctx context.Context) error) error {
			return cb(ctx)
		}).
		Maybe()
	return tx
}

func TestOrderService_CreateOrder(t *testing.T) {
	type MockBehavior func(orderRepo *mocks.MockOrderRepo, cache *mocks.MockCache)

	dbError := errors.New("db error")
	stored := newOrder()
	stored.ID = 7
	stored.IdempotencyKey = "key-1"

	testCases := []struct {
		name         string
		order        func() entities.Order
		mockBehavior MockBehavior
		wantErr      error
		wantID       int64
	}{
		{
			name:  "OK",
			order: newOrder,
			mockBehavior: func(orderRepo *mocks.MockOrderRepo, cache *mocks.MockCache) {
				orderRepo.EXPECT().
					CreateOrder(mock.Anything, mock.MatchedBy(func(o entities.Order) bool {
						return o.Status == entities.StatusPending &&
							o.PaymentMethod == entities.DefaultPaymentMethod &&
							o.TotalAmount.Equal(decimal.NewFromInt(500)) &&
							!o.CreatedAt.IsZero() && o.CreatedAt.Equal(o.UpdatedAt)
					})).
					RunAndReturn(func(_ context.Context, o entities.Order) (entities.Order, error) {
						o.ID = 1
						return o, nil
					}).Once()
				cache.EXPECT().Get("1").Return(nil, false).Once()
				cache.EXPECT().Set("1", mock.Anything).Return().Once()
			},
			wantID: 1,
		},
		{
			name: "client total is ignored",
			order: func() entities.Order {
				o := newOrder()
				o.TotalAmount = decimal.NewFromInt(1)
				return o
			},
			mockBehavior: func(orderRepo *mocks.MockOrderRepo, cache *mocks.MockCache) {
				orderRepo.EXPECT().
					CreateOrder(mock.Anything, mock.MatchedBy(func(o entities.Order) bool {
						return o.TotalAmount.Equal(decimal.NewFromInt(500))
					})).
					RunAndReturn(func(_ context.Context, o entities.Order) (entities.Order, error) {
						o.ID = 2
						return o, nil
					}).Once()
				cache.EXPECT().Get("2").Return(nil, false).Once()
				cache.EXPECT().Set("2", mock.Anything).Return().Once()
			},
			wantID: 2,
		},
		{
			name: "empty items",
			order: func() entities.Order {
				o := newOrder()
				o.Items = nil
				return o
			},
			mockBehavior: func(_ *mocks.MockOrderRepo, _ *mocks.MockCache) {},
			wantErr:      entities.ErrValidation,
		},
		{
			name: "blank customer name",
			order: func() entities.Order {
				o := newOrder()
				o.Customer.Name = "   "
				return o
			},
			mockBehavior: func(_ *mocks.MockOrderRepo, _ *mocks.MockCache) {},
			wantErr:      entities.ErrValidation,
		},
		{
			name: "replay by idempotency key",
			order: func() entities.Order {
				o := newOrder()
				o.IdempotencyKey = "key-1"
				return o
			},
			mockBehavior: func(orderRepo *mocks.MockOrderRepo, cache *mocks.MockCache) {
				orderRepo.EXPECT().
					GetOrderByIdempotencyKey(mock.Anything, "key-1").
					Return(stored, nil).Once()
				cache.EXPECT().Get("7").Return(nil, false).Once()
				cache.EXPECT().Set("7", mock.Anything).Return().Once()
			},
			wantID: 7,
		},
		{
			name: "concurrent duplicate resolved to winner",
			order: func() entities.Order {
				o := newOrder()
				o.IdempotencyKey = "key-1"
				return o
			},
			mockBehavior: func(orderRepo *mocks.MockOrderRepo, cache *mocks.MockCache) {
				orderRepo.EXPECT().
					GetOrderByIdempotencyKey(mock.Anything, "key-1").
					Return(entities.Order{}, entities.ErrOrderNotFound).Once()
				orderRepo.EXPECT().
					CreateOrder(mock.Anything, mock.Anything).
					Return(entities.Order{}, entities.ErrDuplicateSubmission).Once()
				orderRepo.EXPECT().
					GetOrderByIdempotencyKey(mock.Anything, "key-1").
					Return(stored, nil).Once()
				cache.EXPECT().Get("7").Return(nil, false).Once()
				cache.EXPECT().Set("7", mock.Anything).Return().Once()
			},
			wantID: 7,
		},
		{
			name: "duplicate that cannot be re-read",
			order: func() entities.Order {
				o := newOrder()
				o.IdempotencyKey = "key-1"
				return o
			},
			mockBehavior: func(orderRepo *mocks.MockOrderRepo, _ *mocks.MockCache) {
				orderRepo.EXPECT().
					GetOrderByIdempotencyKey(mock.Anything, "key-1").
					Return(entities.Order{}, entities.ErrOrderNotFound).Once()
				orderRepo.EXPECT().
					CreateOrder(mock.Anything, mock.Anything).
					Return(entities.Order{}, entities.ErrDuplicateSubmission).Once()
				orderRepo.EXPECT().
					GetOrderByIdempotencyKey(mock.Anything, "key-1").
					Return(entities.Order{}, dbError).Once()
			},
			wantErr: entities.ErrDuplicateSubmission,
		},
		{
			name:  "store failure",
			order: newOrder,
			mockBehavior: func(orderRepo *mocks.MockOrderRepo, _ *mocks.MockCache) {
				orderRepo.EXPECT().
					CreateOrder(mock.Anything, mock.Anything).
					Return(entities.Order{}, dbError).Once()
			},
			wantErr: entities.ErrPersistence,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			orderRepo := mocks.NewMockOrderRepo(t)
			cache := mocks.NewMockCache(t)
			tx := passThroughTx(t)

			tc.mockBehavior(orderRepo, cache)

			svc := service.NewOrderService(newLogger(), tx, orderRepo, cache)

			got, err := svc.CreateOrder(context.Background(), tc.order())
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantID, got.ID)
		})
	}
}

func TestOrderService_CreateOrder_ValidationFields(t *testing.T) {
	svc := service.NewOrderService(newLogger(), passThroughTx(t), mocks.NewMockOrderRepo(t), mocks.NewMockCache(t))

	order := entities.Order{
		Customer: entities.Customer{Email: "not-an-email"},
		Items: []entities.Item{
			{Name: "", Price: decimal.NewFromInt(-1), Quantity: 0},
		},
	}

	_, err := svc.CreateOrder(context.Background(), order)

	var verr *entities.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, map[string]string{
		"customer_name":     "required",
		"customer_phone":    "required",
		"customer_address":  "required",
		"customer_email":    "email",
		"items[0].name":     "required",
		"items[0].price":    "gte=0",
		"items[0].quantity": "min=1",
	}, verr.Fields)
}

func TestOrderService_GetOrder(t *testing.T) {
	type MockBehavior func(orderRepo *mocks.MockOrderRepo, cache *mocks.MockCache)

	validOrder := newOrder()
	validOrder.ID = 123
	validData, err := validOrder.Marshal()
	require.NoError(t, err)

	testCases := []struct {
		name         string
		id           int64
		mockBehavior MockBehavior
		wantErr      error
		want         entities.Order
	}{
		{
			name: "success from cache",
			id:   123,
			mockBehavior: func(_ *mocks.MockOrderRepo, cache *mocks.MockCache) {
				cache.EXPECT().
					Get("123").
					Return(validData, true).Once()
			},
			want: validOrder,
		},
		{
			name: "broken cache entry falls back to repo",
			id:   123,
			mockBehavior: func(orderRepo *mocks.MockOrderRepo, cache *mocks.MockCache) {
				cache.EXPECT().
					Get("123").
					Return([]byte("broken"), true).Once()
				cache.EXPECT().Delete("123").Return().Once()
				orderRepo.EXPECT().
					GetOrder(mock.Anything, int64(123)).
					Return(validOrder, nil).Once()
				cache.EXPECT().
					Get("123").
					Return(nil, false).Once()
				cache.EXPECT().
					Set("123", validData).
					Return().Once()
			},
			want: validOrder,
		},
		{
			name: "success from repo and set to cache",
			id:   123,
			mockBehavior: func(orderRepo *mocks.MockOrderRepo, cache *mocks.MockCache) {
				cache.EXPECT().
					Get("123").
					Return(nil, false).Twice()
				orderRepo.EXPECT().
					GetOrder(mock.Anything, int64(123)).
					Return(validOrder, nil).Once()
				cache.EXPECT().
					Set("123", validData).
					Return().Once()
			},
			want: validOrder,
		},
		{
			name: "not found in repo",
			id:   404,
			mockBehavior: func(orderRepo *mocks.MockOrderRepo, cache *mocks.MockCache) {
				cache.EXPECT().
					Get("404").
					Return(nil, false).Once()
				orderRepo.EXPECT().
					GetOrder(mock.Anything, int64(404)).
					Return(entities.Order{}, entities.ErrOrderNotFound).Once()
			},
			wantErr: entities.ErrOrderNotFound,
		},
		{
			name:         "non positive id",
			id:           0,
			mockBehavior: func(_ *mocks.MockOrderRepo, _ *mocks.MockCache) {},
			wantErr:      entities.ErrOrderNotFound,
		},
		{
			name: "repo failure",
			id:   123,
			mockBehavior: func(orderRepo *mocks.MockOrderRepo, cache *mocks.MockCache) {
				cache.EXPECT().
					Get("123").
					Return(nil, false).Once()
				orderRepo.EXPECT().
					GetOrder(mock.Anything, int64(123)).
					Return(entities.Order{}, errors.New("some error")).Once()
			},
			wantErr: entities.ErrPersistence,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			orderRepo := mocks.NewMockOrderRepo(t)
			cache := mocks.NewMockCache(t)
			tx := txMocks.NewMockManager(t)

			tc.mockBehavior(orderRepo, cache)

			svc := service.NewOrderService(newLogger(), tx, orderRepo, cache)

			got, err := svc.GetOrder(context.Background(), tc.id)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want.ID, got.ID)
			assert.Equal(t, tc.want.Customer, got.Customer)
			assert.True(t, tc.want.TotalAmount.Equal(got.TotalAmount))
		})
	}
}

func TestOrderService_UpdateStatus(t *testing.T) {
	type MockBehavior func(orderRepo *mocks.MockOrderRepo, cache *mocks.MockCache)

	updated := newOrder()
	updated.ID = 5
	updated.Status = entities.StatusDelivered

	testCases := []struct {
		name         string
		id           int64
		status       entities.Status
		mockBehavior MockBehavior
		wantErr      error
	}{
		{
			name:   "OK",
			id:     5,
			status: entities.StatusDelivered,
			mockBehavior: func(orderRepo *mocks.MockOrderRepo, cache *mocks.MockCache) {
				cache.EXPECT().Delete("5").Return().Once()
				orderRepo.EXPECT().
					UpdateStatus(mock.Anything, int64(5), entities.StatusDelivered, mock.Anything).
					Return(nil).Once()
				orderRepo.EXPECT().
					GetOrder(mock.Anything, int64(5)).
					Return(updated, nil).Once()
				cache.EXPECT().Get("5").Return(nil, false).Once()
				cache.EXPECT().Set("5", mock.Anything).Return().Once()
			},
		},
		{
			name:         "unknown status",
			id:           5,
			status:       "shipped",
			mockBehavior: func(_ *mocks.MockOrderRepo, _ *mocks.MockCache) {},
			wantErr:      entities.ErrValidation,
		},
		{
			name:   "order not found",
			id:     6,
			status: entities.StatusConfirmed,
			mockBehavior: func(orderRepo *mocks.MockOrderRepo, cache *mocks.MockCache) {
				cache.EXPECT().Delete("6").Return().Once()
				orderRepo.EXPECT().
					UpdateStatus(mock.Anything, int64(6), entities.StatusConfirmed, mock.Anything).
					Return(entities.ErrOrderNotFound).Once()
			},
			wantErr: entities.ErrOrderNotFound,
		},
		{
			name:   "store failure",
			id:     5,
			status: entities.StatusConfirmed,
			mockBehavior: func(orderRepo *mocks.MockOrderRepo, cache *mocks.MockCache) {
				cache.EXPECT().Delete("5").Return().Once()
				orderRepo.EXPECT().
					UpdateStatus(mock.Anything, int64(5), entities.StatusConfirmed, mock.Anything).
					Return(errors.New("db error")).Once()
			},
			wantErr: entities.ErrPersistence,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			orderRepo := mocks.NewMockOrderRepo(t)
			cache := mocks.NewMockCache(t)

			tc.mockBehavior(orderRepo, cache)

			svc := service.NewOrderService(newLogger(), passThroughTx(t), orderRepo, cache)

			got, err := svc.UpdateStatus(context.Background(), tc.id, tc.status)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.status, got.Status)
		})
	}
}

func TestOrderService_Stats(t *testing.T) {
	orderRepo := mocks.NewMockOrderRepo(t)
	orderRepo.EXPECT().Stats(mock.Anything).Return(entities.Stats{}, errors.New("db error")).Once()

	svc := service.NewOrderService(newLogger(), txMocks.NewMockManager(t), orderRepo, mocks.NewMockCache(t))

	_, err := svc.Stats(context.Background())
	assert.ErrorIs(t, err, entities.ErrPersistence)
}

func TestOrderService_WarmUpCache(t *testing.T) {
	orderRepo := mocks.NewMockOrderRepo(t)
	cache := mocks.NewMockCache(t)

	first, second := newOrder(), newOrder()
	first.ID, second.ID = 2, 1

	orderRepo.EXPECT().
		ListOrders(mock.Anything, entities.OrderFilter{Limit: 2}).
		Return([]entities.Order{first, second}, nil).Once()
	cache.EXPECT().Get("2").Return(nil, false).Once()
	cache.EXPECT().Set("2", mock.Anything).Return().Once()
	cache.EXPECT().Get("1").Return(nil, false).Once()
	cache.EXPECT().Set("1", mock.Anything).Return().Once()

	svc := service.NewOrderService(newLogger(), txMocks.NewMockManager(t), orderRepo, cache)

	require.NoError(t, svc.WarmUpCache(context.Background(), 2))
}

func newFileBackedService(t *testing.T) interface {
	CreateOrder(ctx context.Context, order entities.Order) (entities.Order, error)
	GetOrder(ctx context.Context, id int64) (entities.Order, error)
	ListOrders(ctx context.Context, filter entities.OrderFilter) ([]entities.Order, error)
} {
	t.Helper()

	store, err := repo.NewFileRepo(filepath.Join(t.TempDir(), "orders.json"))
	require.NoError(t, err)

	return service.NewOrderService(newLogger(), store, store, cache.NewLRUCache(100, time.Minute))
}

func TestOrderService_ConcurrentCreates(t *testing.T) {
	svc := newFileBackedService(t)

	const n = 20
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o := newOrder()
			o.Customer.Phone = fmt.Sprintf("+%d", i)
			created, err := svc.CreateOrder(context.Background(), o)
			assert.NoError(t, err)
			ids <- created.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]struct{})
	for id := range ids {
		assert.Positive(t, id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, n)

	orders, err := svc.ListOrders(context.Background(), entities.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, orders, n)
}

func TestOrderService_ConcurrentRetriesWithSameKey(t *testing.T) {
	svc := newFileBackedService(t)

	const n = 10
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o := newOrder()
			o.IdempotencyKey = "same-key"
			created, err := svc.CreateOrder(context.Background(), o)
			assert.NoError(t, err)
			ids <- created.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]struct{})
	for id := range ids {
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 1)

	orders, err := svc.ListOrders(context.Background(), entities.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestOrderService_GetAfterCreate(t *testing.T) {
	svc := newFileBackedService(t)

	o := newOrder()
	o.Items = append(o.Items, entities.Item{Name: "Cola", Price: decimal.RequireFromString("1.99"), Quantity: 3})

	created, err := svc.CreateOrder(context.Background(), o)
	require.NoError(t, err)

	got, err := svc.GetOrder(context.Background(), created.ID)
	require.NoError(t, err)

	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, entities.StatusPending, got.Status)
	assert.True(t, decimal.RequireFromString("505.97").Equal(got.TotalAmount))
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Cola", got.Items[1].Name)
	assert.Equal(t, 3, got.Items[1].Quantity)
	assert.True(t, decimal.RequireFromString("1.99").Equal(got.Items[1].Price))
}

func TestOrderService_ListCustomers(t *testing.T) {
	ann := entities.CustomerProfile{Customer: newOrder().Customer, Orders: 2}

	testCases := []struct {
		name    string
		repoErr error
		want    []entities.CustomerProfile
		wantErr error
	}{
		{
			name: "OK",
			want: []entities.CustomerProfile{ann},
		},
		{
			name:    "store failure",
			repoErr: errors.New("db error"),
			wantErr: entities.ErrPersistence,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			orderRepo := mocks.NewMockOrderRepo(t)
			orderRepo.EXPECT().ListCustomers(mock.Anything).Return(tc.want, tc.repoErr).Once()

			svc := service.NewOrderService(newLogger(), txMocks.NewMockManager(t), orderRepo, mocks.NewMockCache(t))

			got, err := svc.ListCustomers(context.Background())
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestOrderService_CacheKeepsNewerVersion(t *testing.T) {
	stale := newOrder()
	stale.ID = 9
	stale.UpdatedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	newer := stale
	newer.Status = entities.StatusDelivered
	newer.UpdatedAt = stale.UpdatedAt.Add(time.Minute)
	newerData, err := newer.Marshal()
	require.NoError(t, err)

	orderRepo := mocks.NewMockOrderRepo(t)
	cache := mocks.NewMockCache(t)

	cache.EXPECT().Get("9").Return(nil, false).Once()
	orderRepo.EXPECT().
		GetOrder(mock.Anything, int64(9)).
		Return(stale, nil).Once()
	cache.EXPECT().Get("9").Return(newerData, true).Once()

	svc := service.NewOrderService(newLogger(), txMocks.NewMockManager(t), orderRepo, cache)

	got, err := svc.GetOrder(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusPending, got.Status)
	cache.AssertNotCalled(t, "Set", "9", mock.Anything)
}

// stallingRepo holds the first GetOrder, after the order has been read,
// until release is closed.
type stallingRepo struct {
	service.OrderRepo
	stalled atomic.Bool
	read    chan struct{}
	release chan struct{}
}

func newStallingRepo(inner service.OrderRepo) *stallingRepo {
	return &stallingRepo{
		OrderRepo: inner,
		read:      make(chan struct{}),
		release:   make(chan struct{}),
	}
}

func (r *stallingRepo) GetOrder(ctx context.Context, id int64) (entities.Order, error) {
	o, err := r.OrderRepo.GetOrder(ctx, id)
	if r.stalled.CompareAndSwap(false, true) {
		close(r.read)
		<-r.release
		if ctxErr := ctx.Err(); ctxErr != nil {
			return entities.Order{}, ctxErr
		}
	}
	return o, err
}

func storedOrder(t *testing.T) (entities.Order, *stallingRepo, interface {
	GetOrder(ctx context.Context, id int64) (entities.Order, error)
	UpdateStatus(ctx context.Context, id int64, status entities.Status) (entities.Order, error)
}) {
	t.Helper()

	store, err := repo.NewFileRepo(filepath.Join(t.TempDir(), "orders.json"))
	require.NoError(t, err)

	o := newOrder()
	o.PaymentMethod = entities.DefaultPaymentMethod
	o.TotalAmount = entities.ItemsTotal(o.Items)
	o.Status = entities.StatusPending
	o.CreatedAt = time.Now().UTC().Add(-time.Minute)
	o.UpdatedAt = o.CreatedAt

	created, err := store.CreateOrder(context.Background(), o)
	require.NoError(t, err)

	stalling := newStallingRepo(store)
	svc := service.NewOrderService(newLogger(), store, stalling, cache.NewLRUCache(100, time.Minute))
	return created, stalling, svc
}

func TestOrderService_StatusUpdateDuringRead(t *testing.T) {
	ctx := context.Background()
	created, stalling, svc := storedOrder(t)

	read := make(chan entities.Order)
	go func() {
		o, err := svc.GetOrder(ctx, created.ID)
		assert.NoError(t, err)
		read <- o
	}()
	<-stalling.read

	_, err := svc.UpdateStatus(ctx, created.ID, entities.StatusDelivered)
	require.NoError(t, err)

	close(stalling.release)
	assert.Equal(t, entities.StatusPending, (<-read).Status)

	got, err := svc.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusDelivered, got.Status)
}

func TestOrderService_SharedReadSurvivesCancel(t *testing.T) {
	created, stalling, svc := storedOrder(t)

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error)
	go func() {
		_, err := svc.GetOrder(firstCtx, created.ID)
		firstErr <- err
	}()
	<-stalling.read

	second := make(chan entities.Order)
	go func() {
		o, err := svc.GetOrder(context.Background(), created.ID)
		assert.NoError(t, err)
		second <- o
	}()
	// give the second caller time to join the in-flight read
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(stalling.release)
	got := <-second
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, entities.StatusPending, got.Status)
}
