package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/SergeyBogomolovv/storefront-orders/internal/entities"
	"github.com/shopspring/decimal"
)

type fileTxKey struct{}

type fileTx struct {
	orders []fileOrder
	dirty  bool
}

type fileOrder struct {
	ID              int64           `json:"id"`
	CustomerName    string          `json:"customer_name"`
	CustomerPhone   string          `json:"customer_phone"`
	CustomerAddress string          `json:"customer_address"`
	CustomerEmail   string          `json:"customer_email,omitempty"`
	PaymentMethod   string          `json:"payment_method"`
	Items           []Item          `json:"items"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          string          `json:"status"`
	IdempotencyKey  string          `json:"idempotency_key,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type fileRepo struct {
	mu   sync.RWMutex
	path string
}

// NewFileRepo keeps every order in a single JSON document. Writes replace
// the document atomically, so readers never see a partial file.
func NewFileRepo(path string) (*fileRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store dir: %w", err)
	}
	return &fileRepo{path: path}, nil
}

// Do runs fn with the document locked for writing. Mutations made inside fn
// are persisted once, after fn returns without error. Nested calls join the
// outer one.
func (r *fileRepo) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if extractFileTx(ctx) != nil {
		return fn(ctx)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	orders, err := r.load()
	if err != nil {
		return err
	}

	tx := &fileTx{orders: orders}
	if err := fn(context.WithValue(ctx, fileTxKey{}, tx)); err != nil {
		return err
	}
	if !tx.dirty {
		return nil
	}
	return r.save(tx.orders)
}

func (r *fileRepo) CreateOrder(ctx context.Context, o entities.Order) (entities.Order, error) {
	err := r.update(ctx, func(tx *fileTx) error {
		var nextID int64 = 1
		for _, existing := range tx.orders {
			if o.IdempotencyKey != "" && existing.IdempotencyKey == o.IdempotencyKey {
				return entities.ErrDuplicateSubmission
			}
			nextID = max(nextID, existing.ID+1)
		}
		o.ID = nextID
		tx.orders = append(tx.orders, toFileOrder(o))
		return nil
	})
	if err != nil {
		return entities.Order{}, err
	}
	return o, nil
}

func (r *fileRepo) GetOrder(ctx context.Context, id int64) (entities.Order, error) {
	return r.findOrder(ctx, func(o fileOrder) bool { return o.ID == id })
}

func (r *fileRepo) GetOrderByIdempotencyKey(ctx context.Context, key string) (entities.Order, error) {
	if key == "" {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	return r.findOrder(ctx, func(o fileOrder) bool { return o.IdempotencyKey == key })
}

func (r *fileRepo) findOrder(ctx context.Context, match func(fileOrder) bool) (entities.Order, error) {
	var found entities.Order
	err := r.view(ctx, func(orders []fileOrder) error {
		idx := slices.IndexFunc(orders, match)
		if idx < 0 {
			return entities.ErrOrderNotFound
		}
		found = fromFileOrder(orders[idx])
		return nil
	})
	return found, err
}

func (r *fileRepo) ListOrders(ctx context.Context, filter entities.OrderFilter) ([]entities.Order, error) {
	var result []entities.Order
	err := r.view(ctx, func(orders []fileOrder) error {
		result = make([]entities.Order, 0, len(orders))
		for _, o := range orders {
			if filter.Status != "" && o.Status != string(filter.Status) {
				continue
			}
			if filter.CustomerPhone != "" && o.CustomerPhone != filter.CustomerPhone {
				continue
			}
			if filter.CustomerName != "" && o.CustomerName != filter.CustomerName {
				continue
			}
			result = append(result, fromFileOrder(o))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(result, func(a, b entities.Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *fileRepo) UpdateStatus(ctx context.Context, id int64, status entities.Status, updatedAt time.Time) error {
	return r.update(ctx, func(tx *fileTx) error {
		idx := slices.IndexFunc(tx.orders, func(o fileOrder) bool { return o.ID == id })
		if idx < 0 {
			return entities.ErrOrderNotFound
		}
		tx.orders[idx].Status = string(status)
		tx.orders[idx].UpdatedAt = updatedAt
		return nil
	})
}

func (r *fileRepo) ListCustomers(ctx context.Context) ([]entities.CustomerProfile, error) {
	var customers []entities.CustomerProfile
	err := r.view(ctx, func(orders []fileOrder) error {
		first := make(map[string]fileOrder)
		counts := make(map[string]int)
		for _, o := range orders {
			counts[o.CustomerPhone]++
			if f, ok := first[o.CustomerPhone]; !ok || o.ID < f.ID {
				first[o.CustomerPhone] = o
			}
		}

		customers = make([]entities.CustomerProfile, 0, len(first))
		for phone, o := range first {
			customers = append(customers, entities.CustomerProfile{
				Customer:     fromFileOrder(o).Customer,
				Orders:       counts[phone],
				FirstOrderAt: o.CreatedAt.UTC(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(customers, func(a, b entities.CustomerProfile) int {
		if c := b.FirstOrderAt.Compare(a.FirstOrderAt); c != 0 {
			return c
		}
		return strings.Compare(b.Customer.Phone, a.Customer.Phone)
	})
	return customers, nil
}

func (r *fileRepo) Stats(ctx context.Context) (entities.Stats, error) {
	var stats entities.Stats
	err := r.view(ctx, func(orders []fileOrder) error {
		customers := make(map[string]struct{})
		stats.TotalRevenue = decimal.Zero
		for _, o := range orders {
			stats.TotalOrders++
			customers[o.CustomerPhone] = struct{}{}
			if o.Status == string(entities.StatusPending) {
				stats.PendingOrders++
			}
			stats.TotalRevenue = stats.TotalRevenue.Add(o.TotalAmount)
		}
		stats.TotalCustomers = len(customers)
		return nil
	})
	return stats, err
}

func (r *fileRepo) view(ctx context.Context, fn func(orders []fileOrder) error) error {
	if tx := extractFileTx(ctx); tx != nil {
		return fn(tx.orders)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	orders, err := r.load()
	if err != nil {
		return err
	}
	return fn(orders)
}

func (r *fileRepo) update(ctx context.Context, fn func(tx *fileTx) error) error {
	return r.Do(ctx, func(ctx context.Context) error {
		tx := extractFileTx(ctx)
		if err := fn(tx); err != nil {
			return err
		}
		tx.dirty = true
		return nil
	})
}

func (r *fileRepo) load() ([]fileOrder, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var orders []fileOrder
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode store: %w", err)
	}
	return orders, nil
}

func (r *fileRepo) save(orders []fileOrder) error {
	if orders == nil {
		orders = []fileOrder{}
	}
	data, err := json.MarshalIndent(orders, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to replace store: %w", err)
	}
	return nil
}

func extractFileTx(ctx context.Context) *fileTx {
	tx, _ := ctx.Value(fileTxKey{}).(*fileTx)
	return tx
}

func toFileOrder(o entities.Order) fileOrder {
	return fileOrder{
		ID:              o.ID,
		CustomerName:    o.Customer.Name,
		CustomerPhone:   o.Customer.Phone,
		CustomerAddress: o.Customer.Address,
		CustomerEmail:   o.Customer.Email,
		PaymentMethod:   o.PaymentMethod,
		Items:           ItemsFromEntity(o.Items),
		TotalAmount:     o.TotalAmount,
		Status:          string(o.Status),
		IdempotencyKey:  o.IdempotencyKey,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func fromFileOrder(o fileOrder) entities.Order {
	return entities.Order{
		ID: o.ID,
		Customer: entities.Customer{
			Name:    o.CustomerName,
			Phone:   o.CustomerPhone,
			Address: o.CustomerAddress,
			Email:   o.CustomerEmail,
		},
		PaymentMethod:  o.PaymentMethod,
		Items:          ItemsToEntity(o.Items),
		TotalAmount:    o.TotalAmount,
		Status:         entities.Status(o.Status),
		IdempotencyKey: o.IdempotencyKey,
		CreatedAt:      o.CreatedAt.UTC(),
		UpdatedAt:      o.UpdatedAt.UTC(),
	}
}
