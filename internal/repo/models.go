package repo

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SergeyBogomolovv/storefront-orders/internal/entities"
	"github.com/shopspring/decimal"
)

type Order struct {
	ID              int64           `db:"id"`
	CustomerName    string          `db:"customer_name"`
	CustomerPhone   string          `db:"customer_phone"`
	CustomerAddress string          `db:"customer_address"`
	CustomerEmail   sql.NullString  `db:"customer_email"`
	PaymentMethod   string          `db:"payment_method"`
	Items           []byte          `db:"items"`
	TotalAmount     decimal.Decimal `db:"total_amount"`
	Status          string          `db:"status"`
	IdempotencyKey  sql.NullString  `db:"idempotency_key"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

// Item is the serialized form of an order line. The store treats the list as
// an opaque blob.
type Item struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type Customer struct {
	Name         string         `db:"customer_name"`
	Phone        string         `db:"customer_phone"`
	Address      string         `db:"customer_address"`
	Email        sql.NullString `db:"customer_email"`
	Orders       int            `db:"order_count"`
	FirstOrderAt time.Time      `db:"first_order_at"`
}

type Stats struct {
	TotalOrders    int             `db:"total_orders"`
	TotalCustomers int             `db:"total_customers"`
	PendingOrders  int             `db:"pending_orders"`
	TotalRevenue   decimal.Decimal `db:"total_revenue"`
}

func ItemsFromEntity(items []entities.Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		out = append(out, Item{Name: it.Name, Price: it.Price, Quantity: it.Quantity})
	}
	return out
}

func ItemsToEntity(items []Item) []entities.Item {
	out := make([]entities.Item, 0, len(items))
	for _, it := range items {
		out = append(out, entities.Item{Name: it.Name, Price: it.Price, Quantity: it.Quantity})
	}
	return out
}

func marshalItems(items []entities.Item) (string, error) {
	data, err := json.Marshal(ItemsFromEntity(items))
	if err != nil {
		return "", fmt.Errorf("failed to marshal items: %w", err)
	}
	return string(data), nil
}

func OrderToEntity(o Order) (entities.Order, error) {
	var items []Item
	if err := json.Unmarshal(o.Items, &items); err != nil {
		return entities.Order{}, fmt.Errorf("failed to unmarshal items of order %d: %w", o.ID, err)
	}

	return entities.Order{
		ID: o.ID,
		Customer: entities.Customer{
			Name:    o.CustomerName,
			Phone:   o.CustomerPhone,
			Address: o.CustomerAddress,
			Email:   nullStringToString(o.CustomerEmail),
		},
		PaymentMethod:  o.PaymentMethod,
		Items:          ItemsToEntity(items),
		TotalAmount:    o.TotalAmount,
		Status:         entities.Status(o.Status),
		IdempotencyKey: nullStringToString(o.IdempotencyKey),
		CreatedAt:      o.CreatedAt.UTC(),
		UpdatedAt:      o.UpdatedAt.UTC(),
	}, nil
}

func CustomerToEntity(c Customer) entities.CustomerProfile {
	return entities.CustomerProfile{
		Customer: entities.Customer{
			Name:    c.Name,
			Phone:   c.Phone,
			Address: c.Address,
			Email:   nullStringToString(c.Email),
		},
		Orders:       c.Orders,
		FirstOrderAt: c.FirstOrderAt.UTC(),
	}
}

func StatsToEntity(s Stats) entities.Stats {
	return entities.Stats{
		TotalOrders:    s.TotalOrders,
		TotalCustomers: s.TotalCustomers,
		PendingOrders:  s.PendingOrders,
		TotalRevenue:   s.TotalRevenue,
	}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}
