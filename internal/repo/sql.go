package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SergeyBogomolovv/storefront-orders/internal/entities"
	"github.com/SergeyBogomolovv/storefront-orders/pkg/trm"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

var orderColumns = []string{
	"id", "customer_name", "customer_phone", "customer_address", "customer_email",
	"payment_method", "items", "total_amount", "status", "idempotency_key",
	"created_at", "updated_at",
}

type sqlRepo struct {
	db      *sqlx.DB
	qb      sq.StatementBuilderType
	dialect Dialect
}

// NewSQLRepo stores one order per row with the items serialized as JSON.
// Both dialects accept $N placeholders and RETURNING.
func NewSQLRepo(db *sqlx.DB, dialect Dialect) *sqlRepo {
	return &sqlRepo{
		db:      db,
		qb:      sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		dialect: dialect,
	}
}

func (r *sqlRepo) CreateOrder(ctx context.Context, o entities.Order) (entities.Order, error) {
	items, err := marshalItems(o.Items)
	if err != nil {
		return entities.Order{}, err
	}

	query, args := r.qb.Insert("orders").
		Columns(
			"customer_name", "customer_phone", "customer_address", "customer_email",
			"payment_method", "items", "total_amount", "status", "idempotency_key",
			"created_at", "updated_at",
		).
		Values(
			o.Customer.Name, o.Customer.Phone, o.Customer.Address, nullString(o.Customer.Email),
			o.PaymentMethod, items, o.TotalAmount, string(o.Status), nullString(o.IdempotencyKey),
			o.CreatedAt, o.UpdatedAt,
		).
		Suffix("RETURNING id").
		MustSql()

	var id int64
	err = r.getContext(ctx, &id, query, args...)
	if r.isUniqueViolation(err) {
		return entities.Order{}, entities.ErrDuplicateSubmission
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to save order: %w", err)
	}

	o.ID = id
	return o, nil
}

func (r *sqlRepo) GetOrder(ctx context.Context, id int64) (entities.Order, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": id}).
		MustSql()

	return r.getOrder(ctx, query, args...)
}

func (r *sqlRepo) GetOrderByIdempotencyKey(ctx context.Context, key string) (entities.Order, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"idempotency_key": key}).
		MustSql()

	return r.getOrder(ctx, query, args...)
}

func (r *sqlRepo) getOrder(ctx context.Context, query string, args ...any) (entities.Order, error) {
	var order Order
	err := r.getContext(ctx, &order, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order: %w", err)
	}
	return OrderToEntity(order)
}

func (r *sqlRepo) ListOrders(ctx context.Context, filter entities.OrderFilter) ([]entities.Order, error) {
	eq := sq.Eq{}
	if filter.Status != "" {
		eq["status"] = string(filter.Status)
	}
	if filter.CustomerPhone != "" {
		eq["customer_phone"] = filter.CustomerPhone
	}
	if filter.CustomerName != "" {
		eq["customer_name"] = filter.CustomerName
	}

	q := r.qb.Select(orderColumns...).
		From("orders").
		OrderBy("created_at DESC", "id DESC")
	if len(eq) > 0 {
		q = q.Where(eq)
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	query, args := q.MustSql()

	var rows []Order
	if err := r.selectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select orders: %w", err)
	}

	orders := make([]entities.Order, 0, len(rows))
	for _, row := range rows {
		o, err := OrderToEntity(row)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (r *sqlRepo) UpdateStatus(ctx context.Context, id int64, status entities.Status, updatedAt time.Time) error {
	query, args := r.qb.Update("orders").
		Set("status", string(status)).
		Set("updated_at", updatedAt).
		Where(sq.Eq{"id": id}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	if n == 0 {
		return entities.ErrOrderNotFound
	}
	return nil
}

// ListCustomers groups orders by phone; the earliest order supplies the
// contact details.
func (r *sqlRepo) ListCustomers(ctx context.Context) ([]entities.CustomerProfile, error) {
	query, args := r.qb.Select(
		"o.customer_name", "o.customer_phone", "o.customer_address", "o.customer_email",
		"c.order_count", "o.created_at AS first_order_at",
	).
		From("orders o").
		Join("(SELECT customer_phone, MIN(id) AS first_id, COUNT(*) AS order_count FROM orders GROUP BY customer_phone) c ON c.first_id = o.id").
		OrderBy("o.created_at DESC", "o.id DESC").
		MustSql()

	var rows []Customer
	if err := r.selectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select customers: %w", err)
	}

	customers := make([]entities.CustomerProfile, 0, len(rows))
	for _, row := range rows {
		customers = append(customers, CustomerToEntity(row))
	}
	return customers, nil
}

func (r *sqlRepo) Stats(ctx context.Context) (entities.Stats, error) {
	query, args := r.qb.Select(
		"COUNT(*) AS total_orders",
		"COUNT(DISTINCT customer_phone) AS total_customers",
	).
		Column(sq.Alias(sq.Expr("COUNT(CASE WHEN status = ? THEN 1 END)", string(entities.StatusPending)), "pending_orders")).
		Column("COALESCE(SUM(total_amount), 0) AS total_revenue").
		From("orders").
		MustSql()

	var stats Stats
	if err := r.getContext(ctx, &stats, query, args...); err != nil {
		return entities.Stats{}, fmt.Errorf("failed to get stats: %w", err)
	}
	return StatsToEntity(stats), nil
}

func (r *sqlRepo) isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	switch r.dialect {
	case DialectPostgres:
		var pqErr *pq.Error
		return errors.As(err, &pqErr) && pqErr.Code == "23505"
	case DialectSQLite:
		var liteErr *sqlite.Error
		return errors.As(err, &liteErr) && liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

func (r *sqlRepo) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.ExecContext(ctx, query, args...)
	}
	return r.db.ExecContext(ctx, query, args...)
}

func (r *sqlRepo) getContext(ctx context.Context, dest any, query string, args ...any) error {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.GetContext(ctx, dest, query, args...)
	}
	return r.db.GetContext(ctx, dest, query, args...)
}

func (r *sqlRepo) selectContext(ctx context.Context, dest any, query string, args ...any) error {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.SelectContext(ctx, dest, query, args...)
	}
	return r.db.SelectContext(ctx, dest, query, args...)
}
