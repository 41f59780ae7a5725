package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/SergeyBogomolovv/storefront-orders/internal/checkout"
	"github.com/SergeyBogomolovv/storefront-orders/internal/entities"
	"github.com/SergeyBogomolovv/storefront-orders/internal/handler"
)

var ErrTransport = errors.New("order transport failed")

// TransportError reports a request that did not reach the order API or was
// answered with a non-2xx status. StatusCode is zero for network failures.
type TransportError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d: %s", ErrTransport, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s", ErrTransport, e.Err)
	}
	return ErrTransport.Error()
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Ack confirms that an order was stored.
type Ack struct {
	ID      int64
	Message string
}

// Client talks to the order API over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Submit(ctx context.Context, sub checkout.Submission, idempotencyKey string) (Ack, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return Ack{}, fmt.Errorf("failed to encode submission: %w", err)
	}

	header := http.Header{}
	if idempotencyKey != "" {
		header.Set(handler.IdempotencyKeyHeader, idempotencyKey)
	}

	var resp handler.CreateOrderResponse
	if err := c.do(ctx, http.MethodPost, "/api/orders", header, body, &resp); err != nil {
		return Ack{}, err
	}
	return Ack{ID: resp.ID, Message: resp.Message}, nil
}

func (c *Client) GetOrder(ctx context.Context, id int64) (handler.Order, error) {
	var order handler.Order
	err := c.do(ctx, http.MethodGet, "/api/orders/"+strconv.FormatInt(id, 10), nil, nil, &order)
	return order, err
}

func (c *Client) ListOrders(ctx context.Context, filter entities.OrderFilter) ([]handler.Order, error) {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	if filter.CustomerPhone != "" {
		q.Set("customer_phone", filter.CustomerPhone)
	}
	if filter.CustomerName != "" {
		q.Set("customer_name", filter.CustomerName)
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}

	path := "/api/orders"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var orders []handler.Order
	err := c.do(ctx, http.MethodGet, path, nil, nil, &orders)
	return orders, err
}

func (c *Client) UpdateStatus(ctx context.Context, id int64, status entities.Status) (handler.Order, error) {
	body, err := json.Marshal(handler.UpdateStatusRequest{Status: string(status)})
	if err != nil {
		return handler.Order{}, fmt.Errorf("failed to encode status: %w", err)
	}

	var resp handler.UpdateStatusResponse
	err = c.do(ctx, http.MethodPut, "/api/orders/"+strconv.FormatInt(id, 10)+"/status", nil, body, &resp)
	return resp.Order, err
}

func (c *Client) ListCustomers(ctx context.Context) ([]handler.Customer, error) {
	var resp handler.CustomersResponse
	err := c.do(ctx, http.MethodGet, "/api/customers", nil, nil, &resp)
	return resp.Customers, err
}

func (c *Client) Stats(ctx context.Context) (handler.Stats, error) {
	var stats handler.Stats
	err := c.do(ctx, http.MethodGet, "/api/dashboard/stats", nil, nil, &stats)
	return stats, err
}

func (c *Client) do(ctx context.Context, method, path string, header http.Header, body []byte, dest any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return &TransportError{StatusCode: res.StatusCode, Err: err}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return replyError(res.StatusCode, data)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return &TransportError{StatusCode: res.StatusCode, Message: "malformed response", Err: err}
	}
	return nil
}

func replyError(status int, data []byte) *TransportError {
	var reply struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(data, &reply); err != nil || reply.Error == "" {
		reply.Error = http.StatusText(status)
	}
	return &TransportError{StatusCode: status, Message: reply.Error, Fields: reply.Fields}
}
