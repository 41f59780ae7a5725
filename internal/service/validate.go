package service

import (
	"fmt"
	"slices"
	"strings"

	"github.com/SergeyBogomolovv/storefront-orders/internal/entities"
	"github.com/SergeyBogomolovv/storefront-orders/pkg/utils"
)

var validate = utils.NewValidator()

// normalizeOrder trims customer fields, fills defaults and checks the order
// the same way the storefront does before sending it.
func normalizeOrder(o entities.Order) (entities.Order, error) {
	o.Items = slices.Clone(o.Items)
	o.Customer.Name = strings.TrimSpace(o.Customer.Name)
	o.Customer.Phone = strings.TrimSpace(o.Customer.Phone)
	o.Customer.Address = strings.TrimSpace(o.Customer.Address)
	o.Customer.Email = strings.TrimSpace(o.Customer.Email)
	o.PaymentMethod = strings.TrimSpace(o.PaymentMethod)
	if o.PaymentMethod == "" {
		o.PaymentMethod = entities.DefaultPaymentMethod
	}

	verr := &entities.ValidationError{}
	if o.Customer.Name == "" {
		verr.Add("customer_name", "required")
	}
	if o.Customer.Phone == "" {
		verr.Add("customer_phone", "required")
	}
	if o.Customer.Address == "" {
		verr.Add("customer_address", "required")
	}
	if o.Customer.Email != "" && validate.Var(o.Customer.Email, "email") != nil {
		verr.Add("customer_email", "email")
	}

	if len(o.Items) == 0 {
		verr.Add("items", "required")
	}
	for i, it := range o.Items {
		o.Items[i].Name = strings.TrimSpace(it.Name)
		if o.Items[i].Name == "" {
			verr.Add(fmt.Sprintf("items[%d].name", i), "required")
		}
		if it.Quantity < 1 {
			verr.Add(fmt.Sprintf("items[%d].quantity", i), "min=1")
		}
		if it.Price.IsNegative() {
			verr.Add(fmt.Sprintf("items[%d].price", i), "gte=0")
		}
	}

	if !verr.Empty() {
		return entities.Order{}, verr
	}
	return o, nil
}

func validateStatus(status entities.Status) error {
	if status.Valid() {
		return nil
	}
	names := make([]string, 0, len(entities.Statuses()))
	for _, s := range entities.Statuses() {
		names = append(names, string(s))
	}
	return entities.NewValidationError("status", "oneof="+strings.Join(names, " "))
}
