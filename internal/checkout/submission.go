// Package checkout turns a cart and the customer's details into the payload
// submitted to the order API.
package checkout

import (
	"encoding/json"
	"strings"

	"github.com/SergeyBogomolovv/storefront-orders/internal/cart"
	"github.com/SergeyBogomolovv/storefront-orders/internal/entities"
	"github.com/SergeyBogomolovv/storefront-orders/pkg/utils"
	"github.com/shopspring/decimal"
)

type Customer struct {
	Name          string
	Phone         string
	Address       string
	Email         string
	PaymentMethod string
}

type customerFields struct {
	Name    string `json:"customer_name" validate:"required"`
	Phone   string `json:"customer_phone" validate:"required"`
	Address string `json:"customer_address" validate:"required"`
	Email   string `json:"customer_email" validate:"omitempty,email"`
}

var validate = utils.NewValidator()

// Submission is an immutable checkout payload. Accessors return copies.
type Submission struct {
	customer Customer
	items    []cart.Line
	total    decimal.Decimal
}

// BuildSubmission validates the customer fields and the cart. An empty cart is
// rejected before the customer fields are looked at.
func BuildSubmission(customer Customer, c *cart.Cart) (Submission, error) {
	if c == nil || c.IsEmpty() {
		return Submission{}, entities.NewValidationError("items", "required")
	}

	customer = Customer{
		Name:          strings.TrimSpace(customer.Name),
		Phone:         strings.TrimSpace(customer.Phone),
		Address:       strings.TrimSpace(customer.Address),
		Email:         strings.TrimSpace(customer.Email),
		PaymentMethod: strings.TrimSpace(customer.PaymentMethod),
	}

	err := validate.Struct(customerFields{
		Name:    customer.Name,
		Phone:   customer.Phone,
		Address: customer.Address,
		Email:   customer.Email,
	})
	if err != nil {
		return Submission{}, toValidationError(err)
	}

	items := c.Lines()
	total := decimal.Zero
	for _, l := range items {
		total = total.Add(l.Subtotal())
	}

	return Submission{customer: customer, items: items, total: total}, nil
}

func (s Submission) Customer() Customer {
	return s.customer
}

func (s Submission) Items() []cart.Line {
	out := make([]cart.Line, len(s.items))
	copy(out, s.items)
	return out
}

func (s Submission) Total() decimal.Decimal {
	return s.total
}

type payloadItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type payload struct {
	CustomerName    string        `json:"customer_name"`
	CustomerPhone   string        `json:"customer_phone"`
	CustomerAddress string        `json:"customer_address"`
	CustomerEmail   string        `json:"customer_email,omitempty"`
	PaymentMethod   string        `json:"payment_method,omitempty"`
	Items           []payloadItem `json:"items"`
	TotalAmount     float64       `json:"total_amount"`
}

// MarshalJSON renders the body accepted by POST /api/orders.
func (s Submission) MarshalJSON() ([]byte, error) {
	items := make([]payloadItem, 0, len(s.items))
	for _, l := range s.items {
		items = append(items, payloadItem{
			Name:     l.Name,
			Price:    l.UnitPrice.InexactFloat64(),
			Quantity: l.Quantity,
		})
	}

	return json.Marshal(payload{
		CustomerName:    s.customer.Name,
		CustomerPhone:   s.customer.Phone,
		CustomerAddress: s.customer.Address,
		CustomerEmail:   s.customer.Email,
		PaymentMethod:   s.customer.PaymentMethod,
		Items:           items,
		TotalAmount:     s.total.InexactFloat64(),
	})
}

func toValidationError(err error) error {
	fields := utils.FieldErrors(err)
	if len(fields) == 0 {
		return err
	}
	return &entities.ValidationError{Fields: fields}
}
