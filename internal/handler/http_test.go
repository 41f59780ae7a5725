package handler_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SergeyBogomolovv/storefront-orders/internal/entities"
	"github.com/SergeyBogomolovv/storefront-orders/internal/handler"
	mocks "github.com/SergeyBogomolovv/storefront-orders/internal/handler/mocks"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func storedOrder() entities.Order {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return entities.Order{
		ID: 123,
		Customer: entities.Customer{
			Name:    "Ann",
			Phone:   "+1000000",
			Address: "Main st 1",
		},
		PaymentMethod: "cash",
		Items: []entities.Item{
			{Name: "Margherita", Price: decimal.NewFromInt(250), Quantity: 2},
		},
		TotalAmount: decimal.NewFromInt(500),
		Status:      entities.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func serve(t *testing.T, svc handler.OrderService, req *http.Request) (int, string) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handler.NewHTTPHandler(logger, svc)

	r := chi.NewRouter()
	h.Init(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	res := rr.Result()
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, string(body)
}

func TestHTTPHandler_CreateOrder(t *testing.T) {
	const validBody = `{
		"customer_name": "Ann",
		"customer_phone": "+1000000",
		"customer_address": "Main st 1",
		"items": [{"name": "Margherita", "price": 250, "quantity": 2}],
		"total_amount": 500
	}`

	testCases := []struct {
		name           string
		body           string
		idempotencyKey string
		mockBehavior   func(svc *mocks.MockOrderService)
		wantStatus     int
		wantBody       string
	}{
		{
			name:           "success",
			body:           validBody,
			idempotencyKey: "key-1",
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().
					CreateOrder(mock.Anything, mock.MatchedBy(func(o entities.Order) bool {
						return o.IdempotencyKey == "key-1" &&
							o.Customer.Name == "Ann" &&
							len(o.Items) == 1 &&
							o.Items[0].Price.Equal(decimal.NewFromInt(250)) &&
							o.Items[0].Quantity == 2
					})).
					Return(storedOrder(), nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"message":"Order saved successfully","id":123}`,
		},
		{
			name:         "malformed body",
			body:         `{"customer_name":`,
			mockBehavior: func(_ *mocks.MockOrderService) {},
			wantStatus:   http.StatusBadRequest,
			wantBody:     `{"error":"invalid request body"}`,
		},
		{
			name:         "empty items",
			body:         `{"customer_name":"Ann","customer_phone":"1","customer_address":"a","items":[]}`,
			mockBehavior: func(_ *mocks.MockOrderService) {},
			wantStatus:   http.StatusBadRequest,
			wantBody:     `{"error":"invalid request","fields":{"items":"min"}}`,
		},
		{
			name:         "missing customer fields",
			body:         `{"items":[{"name":"Margherita","price":250,"quantity":1}]}`,
			mockBehavior: func(_ *mocks.MockOrderService) {},
			wantStatus:   http.StatusBadRequest,
			wantBody: `{"error":"invalid request","fields":{
				"customer_name":"required","customer_phone":"required","customer_address":"required"}}`,
		},
		{
			name: "service validation error",
			body: validBody,
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().
					CreateOrder(mock.Anything, mock.Anything).
					Return(entities.Order{}, entities.NewValidationError("customer_name", "required")).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"invalid request","fields":{"customer_name":"required"}}`,
		},
		{
			name: "duplicate submission",
			body: validBody,
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().
					CreateOrder(mock.Anything, mock.Anything).
					Return(entities.Order{}, entities.ErrDuplicateSubmission).Once()
			},
			wantStatus: http.StatusConflict,
			wantBody:   `{"error":"duplicate submission"}`,
		},
		{
			name: "store failure",
			body: validBody,
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().
					CreateOrder(mock.Anything, mock.Anything).
					Return(entities.Order{}, errors.Join(entities.ErrPersistence, errors.New("disk full"))).Once()
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"internal server error"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := mocks.NewMockOrderService(t)
			tc.mockBehavior(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(tc.body))
			if tc.idempotencyKey != "" {
				req.Header.Set(handler.IdempotencyKeyHeader, tc.idempotencyKey)
			}

			status, body := serve(t, svc, req)

			assert.Equal(t, tc.wantStatus, status)
			assert.JSONEq(t, tc.wantBody, body)
		})
	}
}

func TestHTTPHandler_ListOrders(t *testing.T) {
	testCases := []struct {
		name         string
		query        string
		mockBehavior func(svc *mocks.MockOrderService)
		wantStatus   int
		wantLen      int
	}{
		{
			name:  "filters passed through",
			query: "?status=pending&customer_phone=%2B1000000&limit=5&unknown=1",
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().
					ListOrders(mock.Anything, entities.OrderFilter{
						Status:        entities.StatusPending,
						CustomerPhone: "+1000000",
						Limit:         5,
					}).
					Return([]entities.Order{storedOrder()}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantLen:    1,
		},
		{
			name: "empty store",
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().
					ListOrders(mock.Anything, entities.OrderFilter{}).
					Return(nil, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantLen:    0,
		},
		{
			name: "store failure",
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().
					ListOrders(mock.Anything, entities.OrderFilter{}).
					Return(nil, entities.ErrPersistence).Once()
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := mocks.NewMockOrderService(t)
			tc.mockBehavior(svc)

			status, body := serve(t, svc, httptest.NewRequest(http.MethodGet, "/api/orders"+tc.query, nil))

			assert.Equal(t, tc.wantStatus, status)
			if tc.wantStatus != http.StatusOK {
				return
			}
			var orders []map[string]any
			require.NoError(t, json.Unmarshal([]byte(body), &orders))
			assert.Len(t, orders, tc.wantLen)
		})
	}
}

func TestHTTPHandler_GetOrder(t *testing.T) {
	testCases := []struct {
		name         string
		id           string
		mockBehavior func(svc *mocks.MockOrderService)
		wantStatus   int
		wantBody     string
	}{
		{
			name: "success",
			id:   "123",
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().
					GetOrder(mock.Anything, int64(123)).
					Return(storedOrder(), nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody: `{
				"id": 123,
				"customer_name": "Ann",
				"customer_phone": "+1000000",
				"customer_address": "Main st 1",
				"payment_method": "cash",
				"items": [{"name": "Margherita", "price": 250, "quantity": 2}],
				"total_amount": 500,
				"status": "pending",
				"created_at": "2026-01-02T03:04:05Z",
				"updated_at": "2026-01-02T03:04:05Z"
			}`,
		},
		{
			name: "not found",
			id:   "404",
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().
					GetOrder(mock.Anything, int64(404)).
					Return(entities.Order{}, entities.ErrOrderNotFound).Once()
			},
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"order not found"}`,
		},
		{
			name:         "non numeric id",
			id:           "abc",
			mockBehavior: func(_ *mocks.MockOrderService) {},
			wantStatus:   http.StatusNotFound,
			wantBody:     `{"error":"order not found"}`,
		},
		{
			name: "internal error",
			id:   "123",
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().
					GetOrder(mock.Anything, int64(123)).
					Return(entities.Order{}, errors.New("db error")).Once()
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"internal server error"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := mocks.NewMockOrderService(t)
			tc.mockBehavior(svc)

			status, body := serve(t, svc, httptest.NewRequest(http.MethodGet, "/api/orders/"+tc.id, nil))

			assert.Equal(t, tc.wantStatus, status)
			assert.JSONEq(t, tc.wantBody, body)
		})
	}
}

func TestHTTPHandler_UpdateStatus(t *testing.T) {
	delivered := storedOrder()
	delivered.Status = entities.StatusDelivered

	testCases := []struct {
		name         string
		id           string
		body         string
		mockBehavior func(svc *mocks.MockOrderService)
		wantStatus   int
		wantContains string
	}{
		{
			name: "success",
			id:   "123",
			body: `{"status":"delivered"}`,
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().
					UpdateStatus(mock.Anything, int64(123), entities.StatusDelivered).
					Return(delivered, nil).Once()
			},
			wantStatus:   http.StatusOK,
			wantContains: `"message":"Order status updated successfully"`,
		},
		{
			name:         "missing status",
			id:           "123",
			body:         `{}`,
			mockBehavior: func(_ *mocks.MockOrderService) {},
			wantStatus:   http.StatusBadRequest,
			wantContains: `"status":"required"`,
		},
		{
			name: "unknown status",
			id:   "123",
			body: `{"status":"shipped"}`,
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().
					UpdateStatus(mock.Anything, int64(123), entities.Status("shipped")).
					Return(entities.Order{}, entities.NewValidationError("status", "oneof")).Once()
			},
			wantStatus:   http.StatusBadRequest,
			wantContains: `"status":"oneof"`,
		},
		{
			name: "not found",
			id:   "9",
			body: `{"status":"confirmed"}`,
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().
					UpdateStatus(mock.Anything, int64(9), entities.StatusConfirmed).
					Return(entities.Order{}, entities.ErrOrderNotFound).Once()
			},
			wantStatus:   http.StatusNotFound,
			wantContains: `"order not found"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := mocks.NewMockOrderService(t)
			tc.mockBehavior(svc)

			req := httptest.NewRequest(http.MethodPut, "/api/orders/"+tc.id+"/status", strings.NewReader(tc.body))
			status, body := serve(t, svc, req)

			assert.Equal(t, tc.wantStatus, status)
			assert.Contains(t, body, tc.wantContains)
		})
	}
}

func TestHTTPHandler_Stats(t *testing.T) {
	svc := mocks.NewMockOrderService(t)
	svc.EXPECT().
		Stats(mock.Anything).
		Return(entities.Stats{
			TotalOrders:    3,
			TotalCustomers: 2,
			PendingOrders:  1,
			TotalRevenue:   decimal.RequireFromString("1250.50"),
		}, nil).Once()

	status, body := serve(t, svc, httptest.NewRequest(http.MethodGet, "/api/dashboard/stats", nil))

	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"total_orders":3,"total_customers":2,"pending_orders":1,"total_revenue":1250.5}`, body)
}

func TestHTTPHandler_ListCustomers(t *testing.T) {
	firstOrderAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name       string
		customers  []entities.CustomerProfile
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name: "OK",
			customers: []entities.CustomerProfile{
				{
					Customer:     entities.Customer{Name: "Ann", Phone: "+1000000", Address: "Main st 1", Email: "ann@example.com"},
					Orders:       2,
					FirstOrderAt: firstOrderAt,
				},
			},
			wantStatus: http.StatusOK,
			wantBody: `{"count":1,"customers":[{"name":"Ann","phone":"+1000000","address":"Main st 1",
				"email":"ann@example.com","orders":2,"first_order_at":"2026-03-01T12:00:00Z"}]}`,
		},
		{
			name:       "no customers",
			customers:  []entities.CustomerProfile{},
			wantStatus: http.StatusOK,
			wantBody:   `{"count":0,"customers":[]}`,
		},
		{
			name:       "store failure",
			err:        entities.ErrPersistence,
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"internal server error"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := mocks.NewMockOrderService(t)
			svc.EXPECT().ListCustomers(mock.Anything).Return(tc.customers, tc.err).Once()

			status, body := serve(t, svc, httptest.NewRequest(http.MethodGet, "/api/customers", nil))

			assert.Equal(t, tc.wantStatus, status)
			assert.JSONEq(t, tc.wantBody, body)
		})
	}
}
