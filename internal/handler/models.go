package handler

import (
	"time"

	"github.com/SergeyBogomolovv/storefront-orders/internal/entities"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest is the checkout payload sent by the storefront
type CreateOrderRequest struct {
	CustomerName    string          `json:"customer_name" validate:"required"`
	CustomerPhone   string          `json:"customer_phone" validate:"required"`
	CustomerAddress string          `json:"customer_address" validate:"required"`
	CustomerEmail   string          `json:"customer_email,omitempty" validate:"omitempty,email"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	Items           []ItemRequest   `json:"items" validate:"required,min=1,dive"`
	TotalAmount     decimal.Decimal `json:"total_amount,omitempty" swaggertype:"number"`
}

// ItemRequest is one cart line
type ItemRequest struct {
	Name     string          `json:"name" validate:"required"`
	Price    decimal.Decimal `json:"price" swaggertype:"number"`
	Quantity int             `json:"quantity" validate:"min=1"`
}

// CreateOrderResponse acknowledges a stored order
type CreateOrderResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

// UpdateStatusRequest changes the status of an order
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatusResponse carries the updated order
type UpdateStatusResponse struct {
	Message string `json:"message"`
	Order   Order  `json:"order"`
}

// Order is a stored order
type Order struct {
	ID              int64     `json:"id"`
	CustomerName    string    `json:"customer_name"`
	CustomerPhone   string    `json:"customer_phone"`
	CustomerAddress string    `json:"customer_address"`
	CustomerEmail   string    `json:"customer_email,omitempty"`
	PaymentMethod   string    `json:"payment_method"`
	Items           []Item    `json:"items"`
	TotalAmount     float64   `json:"total_amount"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Item is an order line
type Item struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Customer is someone who has placed at least one order
type Customer struct {
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	Email        string    `json:"email,omitempty"`
	Orders       int       `json:"orders"`
	FirstOrderAt time.Time `json:"first_order_at"`
}

type CustomersResponse struct {
	Customers []Customer `json:"customers"`
	Count     int        `json:"count"`
}

// Stats summarizes all stored orders
type Stats struct {
	TotalOrders    int     `json:"total_orders"`
	TotalCustomers int     `json:"total_customers"`
	PendingOrders  int     `json:"pending_orders"`
	TotalRevenue   float64 `json:"total_revenue"`
}

func CreateOrderRequestToEntity(r CreateOrderRequest) entities.Order {
	items := make([]entities.Item, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, entities.Item{Name: it.Name, Price: it.Price, Quantity: it.Quantity})
	}

	return entities.Order{
		Customer: entities.Customer{
			Name:    r.CustomerName,
			Phone:   r.CustomerPhone,
			Address: r.CustomerAddress,
			Email:   r.CustomerEmail,
		},
		PaymentMethod: r.PaymentMethod,
		Items:         items,
		TotalAmount:   r.TotalAmount,
	}
}

func OrderEntityToJSON(o entities.Order) Order {
	items := make([]Item, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, Item{Name: it.Name, Price: it.Price.InexactFloat64(), Quantity: it.Quantity})
	}

	return Order{
		ID:              o.ID,
		CustomerName:    o.Customer.Name,
		CustomerPhone:   o.Customer.Phone,
		CustomerAddress: o.Customer.Address,
		CustomerEmail:   o.Customer.Email,
		PaymentMethod:   o.PaymentMethod,
		Items:           items,
		TotalAmount:     o.TotalAmount.InexactFloat64(),
		Status:          string(o.Status),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func OrdersEntityToJSON(orders []entities.Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, OrderEntityToJSON(o))
	}
	return out
}

func CustomersEntityToJSON(customers []entities.CustomerProfile) CustomersResponse {
	out := make([]Customer, 0, len(customers))
	for _, c := range customers {
		out = append(out, Customer{
			Name:         c.Customer.Name,
			Phone:        c.Customer.Phone,
			Address:      c.Customer.Address,
			Email:        c.Customer.Email,
			Orders:       c.Orders,
			FirstOrderAt: c.FirstOrderAt,
		})
	}
	return CustomersResponse{Customers: out, Count: len(out)}
}

func StatsEntityToJSON(s entities.Stats) Stats {
	return Stats{
		TotalOrders:    s.TotalOrders,
		TotalCustomers: s.TotalCustomers,
		PendingOrders:  s.PendingOrders,
		TotalRevenue:   s.TotalRevenue.InexactFloat64(),
	}
}
