package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/SergeyBogomolovv/storefront-orders/internal/entities"
	"github.com/SergeyBogomolovv/storefront-orders/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type OrderService interface {
	CreateOrder(ctx context.Context, order entities.Order) (entities.Order, error)
	ListOrders(ctx context.Context, filter entities.OrderFilter) ([]entities.Order, error)
	GetOrder(ctx context.Context, id int64) (entities.Order, error)
	UpdateStatus(ctx context.Context, id int64, status entities.Status) (entities.Order, error)
	ListCustomers(ctx context.Context) ([]entities.CustomerProfile, error)
	Stats(ctx context.Context) (entities.Stats, error)
}

type HTTPHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      OrderService
}

func NewHTTPHandler(logger *slog.Logger, svc OrderService) *HTTPHandler {
	return &HTTPHandler{
		logger:   logger.With(slog.String("handler", "http")),
		validate: utils.NewValidator(),
		svc:      svc,
	}
}

func (h *HTTPHandler) Init(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/orders", h.CreateOrder)
		r.Get("/orders", h.ListOrders)
		r.Get("/orders/{id}", h.GetOrder)
		r.Put("/orders/{id}/status", h.UpdateStatus)
		r.Get("/customers", h.ListCustomers)
		r.Get("/dashboard/stats", h.Stats)
	})
}

// CreateOrder stores a checkout submission.
// @Summary      Create order
// @Description  Stores a checkout submission. Repeating a request with the same Idempotency-Key returns the order stored by the first one.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string              false  "Client generated key, stable across retries"
// @Param        order            body    CreateOrderRequest  true   "Order"
// @Success      200  {object}  CreateOrderResponse
// @Failure      400  {object}  utils.ValidationErrorResponse "Validation error"
// @Failure      409  {object}  utils.ErrorResponse "Duplicate submission"
// @Failure      500  {object}  utils.ErrorResponse "Internal server error"
// @Router       /api/orders [post]
func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	var req CreateOrderRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, utils.FieldErrors(err))
		return
	}

	order := CreateOrderRequestToEntity(req)
	order.IdempotencyKey = r.Header.Get(IdempotencyKeyHeader)

	created, err := h.svc.CreateOrder(ctx, order)
	if err != nil {
		ordersCreated.WithLabelValues(sourceHTTP, resultFailed).Inc()
		h.writeError(ctx, w, err)
		return
	}

	ordersCreated.WithLabelValues(sourceHTTP, resultCreated).Inc()
	orderCreateDuration.WithLabelValues(sourceHTTP).Observe(time.Since(start).Seconds())

	utils.WriteJSON(w, CreateOrderResponse{Message: "Order saved successfully", ID: created.ID}, http.StatusOK)
}

// ListOrders returns stored orders, newest first.
// @Summary      List orders
// @Tags         orders
// @Produce      json
// @Param        status          query  string  false  "Status filter"
// @Param        customer_phone  query  string  false  "Customer phone filter"
// @Param        customer_name   query  string  false  "Customer name filter"
// @Param        limit           query  int     false  "Maximum number of orders"
// @Success      200  {array}   Order
// @Failure      500  {object}  utils.ErrorResponse "Internal server error"
// @Router       /api/orders [get]
func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filter := entities.OrderFilter{
		Status:        entities.Status(q.Get("status")),
		CustomerPhone: q.Get("customer_phone"),
		CustomerName:  q.Get("customer_name"),
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}

	orders, err := h.svc.ListOrders(ctx, filter)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, OrdersEntityToJSON(orders), http.StatusOK)
}

// GetOrder returns an order by id.
// @Summary      Get order
// @Tags         orders
// @Produce      json
// @Param        id   path      int  true  "Order id"
// @Success      200  {object}  Order
// @Failure      404  {object}  utils.ErrorResponse "Order not found"
// @Failure      500  {object}  utils.ErrorResponse "Internal server error"
// @Router       /api/orders/{id} [get]
func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := orderID(r)
	if !ok {
		utils.WriteError(w, "order not found", http.StatusNotFound)
		return
	}

	order, err := h.svc.GetOrder(ctx, id)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

// UpdateStatus changes the status of an order.
// @Summary      Update order status
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id      path  int                  true  "Order id"
// @Param        status  body  UpdateStatusRequest  true  "New status: pending, confirmed, preparing or delivered"
// @Success      200  {object}  UpdateStatusResponse
// @Failure      400  {object}  utils.ValidationErrorResponse "Validation error"
// @Failure      404  {object}  utils.ErrorResponse "Order not found"
// @Failure      500  {object}  utils.ErrorResponse "Internal server error"
// @Router       /api/orders/{id}/status [put]
func (h *HTTPHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := orderID(r)
	if !ok {
		utils.WriteError(w, "order not found", http.StatusNotFound)
		return
	}

	var req UpdateStatusRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, utils.FieldErrors(err))
		return
	}

	order, err := h.svc.UpdateStatus(ctx, id, entities.Status(req.Status))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	statusUpdates.WithLabelValues(string(order.Status)).Inc()
	utils.WriteJSON(w, UpdateStatusResponse{
		Message: "Order status updated successfully",
		Order:   OrderEntityToJSON(order),
	}, http.StatusOK)
}

// ListCustomers returns everyone who has placed an order, newest first.
// @Summary      List customers
// @Description  Customers are grouped by phone; contact details come from their first order.
// @Tags         customers
// @Produce      json
// @Success      200  {object}  CustomersResponse
// @Failure      500  {object}  utils.ErrorResponse "Internal server error"
// @Router       /api/customers [get]
func (h *HTTPHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customers, err := h.svc.ListCustomers(ctx)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, CustomersEntityToJSON(customers), http.StatusOK)
}

// Stats returns dashboard counters.
// @Summary      Dashboard stats
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  Stats
// @Failure      500  {object}  utils.ErrorResponse "Internal server error"
// @Router       /api/dashboard/stats [get]
func (h *HTTPHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.svc.Stats(ctx)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, StatsEntityToJSON(stats), http.StatusOK)
}

func (h *HTTPHandler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var verr *entities.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.WriteValidationError(w, verr.Fields)
	case errors.Is(err, entities.ErrOrderNotFound):
		utils.WriteError(w, "order not found", http.StatusNotFound)
	case errors.Is(err, entities.ErrDuplicateSubmission):
		utils.WriteError(w, "duplicate submission", http.StatusConflict)
	default:
		h.logger.ErrorContext(ctx, "request failed", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
	}
}

func orderID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
