package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shopadmin/internal/domain"
	"github.com/vladislavdragonenkov/shopadmin/internal/service/ledger"
)

// ProductsHandler обслуживает каталог и журнал складских движений.
type ProductsHandler struct {
	repo   domain.ProductRepository
	ledger *ledger.Ledger
	logger *log.Entry
}

// NewProductsHandler создаёт handler товаров.
func NewProductsHandler(repo domain.ProductRepository, l *ledger.Ledger, logger *log.Entry) *ProductsHandler {
	if logger == nil {
		logger = log.WithField("component", "products-handler")
	}
	return &ProductsHandler{repo: repo, ledger: l, logger: logger}
}

// Register подключает маршруты товаров к роутеру.
func (h *ProductsHandler) Register(r chi.Router) {
	r.Post("/products", h.createProduct)
	r.Get("/products/{id}", h.getProduct)
	r.Post("/products/{id}/movements", h.recordMovement)
	r.Get("/products/{id}/movements", h.listMovements)
}

type createProductRequest struct {
	ID   string `json:"id"`
	SKU  string `json:"sku"`
	Name string `json:"name"`
}

type productResponse struct {
	ID        string    `json:"id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Quantity  int64     `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toProductResponse(product domain.Product) productResponse {
	return productResponse{
		ID:        product.ID,
		SKU:       product.SKU,
		Name:      product.Name,
		Quantity:  product.Quantity,
		CreatedAt: product.CreatedAt,
		UpdatedAt: product.UpdatedAt,
	}
}

// createProduct заводит товар с нулевым остатком. Начальный остаток
// оформляется отдельным inbound-движением, чтобы сумма журнала всегда
// совпадала с Quantity.
func (h *ProductsHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}

	now := time.Now().UTC()
	product := domain.Product{
		ID:        req.ID,
		SKU:       req.SKU,
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if product.ID == "" {
		product.ID = uuid.NewString()
	}

	if issues := product.Validate(); len(issues) > 0 {
		writeDomainError(w, issues[0])
		return
	}

	if err := h.repo.Create(product); err != nil {
		h.logger.WithError(err).WithField("product_id", product.ID).Error("failed to create product")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProductResponse(product))
}

func (h *ProductsHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.repo.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}

type recordMovementRequest struct {
	Kind      string `json:"kind"`
	Quantity  int64  `json:"quantity"`
	Direction string `json:"direction,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RefType   string `json:"ref_type,omitempty"`
	RefID     string `json:"ref_id,omitempty"`
}

type movementResponse struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Kind      string    `json:"kind"`
	Quantity  int64     `json:"quantity"`
	Direction string    `json:"direction,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	RefType   string    `json:"ref_type,omitempty"`
	RefID     string    `json:"ref_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toMovementResponse(movement domain.StockMovement) movementResponse {
	out := movementResponse{
		ID:        movement.ID,
		ProductID: movement.ProductID,
		Kind:      string(movement.Kind),
		Quantity:  movement.Quantity,
		Direction: string(movement.Direction),
		Reason:    movement.Reason,
		CreatedAt: movement.CreatedAt,
	}
	if movement.Ref != nil {
		out.RefType = movement.Ref.Type
		out.RefID = movement.Ref.ID
	}
	return out
}

func (h *ProductsHandler) recordMovement(w http.ResponseWriter, r *http.Request) {
	var req recordMovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}

	input := ledger.MovementInput{
		ProductID: chi.URLParam(r, "id"),
		Kind:      domain.MovementKind(req.Kind),
		Quantity:  req.Quantity,
		Direction: domain.MovementDirection(req.Direction),
		Reason:    req.Reason,
	}
	if req.RefType != "" || req.RefID != "" {
		input.Ref = &domain.MovementRef{Type: req.RefType, ID: req.RefID}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	movement, err := h.ledger.Record(ctx, input)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMovementResponse(movement))
}

func (h *ProductsHandler) listMovements(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	if _, err := h.repo.Get(productID); err != nil {
		writeDomainError(w, err)
		return
	}

	movements, err := h.repo.ListMovements(productID, parseLimit(r, 100))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]movementResponse, 0, len(movements))
	for _, movement := range movements {
		out = append(out, toMovementResponse(movement))
	}
	writeJSON(w, http.StatusOK, out)
}
