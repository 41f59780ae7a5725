// Package storefront drives a shopper's cart through checkout: it keeps the
// cart in a cart.Store between actions and sends the finished submission to
// the order API.
package storefront

import (
	"context"
	"errors"
	"fmt"

	"github.com/SergeyBogomolovv/storefront-orders/internal/cart"
	"github.com/SergeyBogomolovv/storefront-orders/internal/checkout"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Submitter interface {
	Submit(ctx context.Context, sub checkout.Submission, idempotencyKey string) (Ack, error)
}

// Session is one shopper's cart. It is not safe for concurrent use.
type Session struct {
	id        string
	cart      *cart.Cart
	store     cart.Store
	submitter Submitter

	// pendingKey identifies the submission of the current cart contents.
	// It survives failed checkouts and is reset by any cart change.
	pendingKey string
}

// Open restores the session's cart from store, starting empty when nothing
// was saved.
func Open(ctx context.Context, id string, store cart.Store, submitter Submitter) (*Session, error) {
	c, err := store.Load(ctx, id)
	if errors.Is(err, cart.ErrCartNotFound) {
		c = cart.New()
	} else if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	return &Session{
		id:        id,
		cart:      c,
		store:     store,
		submitter: submitter,
	}, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) AddItem(ctx context.Context, name string, unitPrice decimal.Decimal) error {
	s.cart.AddItem(name, unitPrice)
	return s.changed(ctx)
}

func (s *Session) SetQuantity(ctx context.Context, name string, quantity int) error {
	s.cart.SetQuantity(name, quantity)
	return s.changed(ctx)
}

func (s *Session) AdjustQuantity(ctx context.Context, name string, delta int) error {
	s.cart.AdjustQuantity(name, delta)
	return s.changed(ctx)
}

func (s *Session) RemoveItem(ctx context.Context, name string) error {
	s.cart.RemoveItem(name)
	return s.changed(ctx)
}

// Clear empties the cart. It returns cart.ErrAlreadyEmpty when there was
// nothing to clear.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.cart.Clear(); err != nil {
		return err
	}
	return s.changed(ctx)
}

func (s *Session) Lines() []cart.Line {
	return s.cart.Lines()
}

func (s *Session) Total() decimal.Decimal {
	return s.cart.Total()
}

func (s *Session) ItemCount() int {
	return s.cart.Len()
}

// Checkout submits the cart. On success the cart is emptied and the saved
// snapshot deleted. On any failure the cart is left as it was, and the next
// Checkout reuses the same idempotency key.
func (s *Session) Checkout(ctx context.Context, customer checkout.Customer) (Ack, error) {
	sub, err := checkout.BuildSubmission(customer, s.cart)
	if err != nil {
		return Ack{}, err
	}

	if s.pendingKey == "" {
		s.pendingKey = uuid.NewString()
	}

	ack, err := s.submitter.Submit(ctx, sub, s.pendingKey)
	if err != nil {
		return Ack{}, err
	}

	s.cart = cart.New()
	s.pendingKey = ""
	if err := s.store.Delete(ctx, s.id); err != nil {
		return ack, fmt.Errorf("order %d stored but saved cart not deleted: %w", ack.ID, err)
	}
	return ack, nil
}

func (s *Session) changed(ctx context.Context) error {
	s.pendingKey = ""
	if err := s.store.Save(ctx, s.id, s.cart); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}
