package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shopadmin/internal/domain"
	"github.com/vladislavdragonenkov/shopadmin/internal/service/coordinator"
)

// OrdersHandler обслуживает административные операции над заказами.
type OrdersHandler struct {
	repo        domain.OrderRepository
	coordinator *coordinator.Coordinator
	logger      *log.Entry
}

// NewOrdersHandler создаёт handler заказов.
func NewOrdersHandler(repo domain.OrderRepository, c *coordinator.Coordinator, logger *log.Entry) *OrdersHandler {
	if logger == nil {
		logger = log.WithField("component", "orders-handler")
	}
	return &OrdersHandler{repo: repo, coordinator: c, logger: logger}
}

// Register подключает маршруты заказов к роутеру.
func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/transition", h.transitionOrder)
}

type orderItemInput struct {
	ProductID  string `json:"product_id"`
	Qty        int64  `json:"qty"`
	PriceMinor int64  `json:"price_minor"`
}

type createOrderRequest struct {
	CustomerID string           `json:"customer_id"`
	Items      []orderItemInput `json:"items"`
}

type orderItemResponse struct {
	ID         string `json:"id"`
	ProductID  string `json:"product_id"`
	Qty        int64  `json:"qty"`
	PriceMinor int64  `json:"price_minor"`
}

type orderResponse struct {
	ID         string              `json:"id"`
	CustomerID string              `json:"customer_id"`
	Status     string              `json:"status"`
	Items      []orderItemResponse `json:"items"`
	Version    int64               `json:"version"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

func toOrderResponse(order domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ID:         item.ID,
			ProductID:  item.ProductID,
			Qty:        item.Qty,
			PriceMinor: item.PriceMinor,
		})
	}
	return orderResponse{
		ID:         order.ID,
		CustomerID: order.CustomerID,
		Status:     string(order.Status),
		Items:      items,
		Version:    order.Version,
		CreatedAt:  order.CreatedAt,
		UpdatedAt:  order.UpdatedAt,
	}
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:         uuid.NewString(),
		CustomerID: req.CustomerID,
		Status:     domain.OrderStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, item := range req.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ID:         uuid.NewString(),
			ProductID:  item.ProductID,
			Qty:        item.Qty,
			PriceMinor: item.PriceMinor,
			CreatedAt:  now,
		})
	}

	if issues := order.ValidateInvariants(); len(issues) > 0 {
		writeDomainError(w, issues[0])
		return
	}

	if err := h.repo.Create(order); err != nil {
		h.logger.WithError(err).WithField("order_id", order.ID).Error("failed to create order")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.repo.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	customerID := r.URL.Query().Get("customer_id")
	if customerID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "customer_id is required"})
		return
	}
	limit := parseLimit(r, 50)

	orders, err := h.repo.ListByCustomer(customerID, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		out = append(out, toOrderResponse(order))
	}
	writeJSON(w, http.StatusOK, out)
}

type transitionRequest struct {
	To string `json:"to"`
}

func (h *OrdersHandler) transitionOrder(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}

	to := domain.OrderStatus(req.To)
	if !to.Valid() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown status: " + req.To})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := h.coordinator.TransitionOrder(ctx, chi.URLParam(r, "id"), to)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}
