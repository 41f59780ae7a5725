package entities

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusDelivered Status = "delivered"
)

const DefaultPaymentMethod = "cash"

var statuses = []Status{StatusPending, StatusConfirmed, StatusPreparing, StatusDelivered}

func Statuses() []Status {
	out := make([]Status, len(statuses))
	copy(out, statuses)
	return out
}

func (s Status) Valid() bool {
	for _, st := range statuses {
		if s == st {
			return true
		}
	}
	return false
}

type Customer struct {
	Name    string
	Phone   string
	Address string
	Email   string
}

// Item is a snapshot of a cart line taken at submission time.
type Item struct {
	Name     string
	Price    decimal.Decimal
	Quantity int
}

func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID             int64
	Customer       Customer
	PaymentMethod  string
	Items          []Item
	TotalAmount    decimal.Decimal
	Status         Status
	IdempotencyKey string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func ItemsTotal(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// OrderFilter holds equality filters; zero values are ignored.
type OrderFilter struct {
	Status        Status
	CustomerPhone string
	CustomerName  string
	Limit         int
}

// CustomerProfile is a customer as seen through their orders. Contact details
// come from the first order placed with the phone number.
type CustomerProfile struct {
	Customer     Customer
	Orders       int
	FirstOrderAt time.Time
}

type Stats struct {
	TotalOrders    int
	TotalCustomers int
	PendingOrders  int
	TotalRevenue   decimal.Decimal
}

func (o *Order) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (o *Order) Unmarshal(data []byte) error {
	buf := bytes.NewBuffer(data)
	dec := gob.NewDecoder(buf)
	if err := dec.Decode(o); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOrder, err)
	}
	return nil
}

func init() {
	gob.Register(Order{})
	gob.Register(Item{})
	gob.Register(Customer{})
}
