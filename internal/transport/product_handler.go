package transport

import (
	"net/http"

	"shopkeeper/internal/middleware"
	"shopkeeper/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductRequest is the create/update payload for a product
type ProductRequest struct {
	Name         string          `json:"name" validate:"required,max=200"`
	Category     string          `json:"category" validate:"required,max=100"`
	Brand        string          `json:"brand" validate:"max=100"`
	Unit         string          `json:"unit" validate:"required,max=50"`
	CostPrice    decimal.Decimal `json:"costPrice" validate:"gte=0,lte=9999999999.99"`
	SellingPrice decimal.Decimal `json:"sellingPrice" validate:"gte=0,lte=9999999999.99"`
	Stock        int             `json:"stock" validate:"gte=0,lte=2147483647"`
	MinStock     *int            `json:"minStock" validate:"omitempty,gte=0,lte=2147483647"`
}

// StockAdjustmentRequest moves a product's stock by Delta
type StockAdjustmentRequest struct {
	Delta int `json:"delta" validate:"required,gte=-2147483647,lte=2147483647"`
}

// ProductHandler handles catalog endpoints
type ProductHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(catalog service.CatalogService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// RegisterRoutes registers all product routes. Deleting is owner-only.
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.ListProducts)
		r.Post("/", h.CreateProduct)
		r.Get("/{id}", h.GetProduct)
		r.Put("/{id}", h.UpdateProduct)
		r.Post("/{id}/stock", h.AdjustStock)
		r.With(adminMiddleware).Delete("/{id}", h.DeleteProduct)
	})
}

// ListProducts handles GET /api/products?keyword=
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context(), r.URL.Query().Get("keyword"))
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithRequestError(w, err)
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), req.toInput())
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithRequestError(w, err)
		return
	}

	product, err := h.catalog.UpdateProduct(r.Context(), id, req.toInput())
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// AdjustStock handles manual stock corrections
func (h *ProductHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req StockAdjustmentRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithRequestError(w, err)
		return
	}

	product, err := h.catalog.AdjustStock(r.Context(), id, req.Delta)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Product removed"})
}

func (req ProductRequest) toInput() service.ProductInput {
	return service.ProductInput{
		Name:         req.Name,
		Category:     req.Category,
		Brand:        req.Brand,
		Unit:         req.Unit,
		CostPrice:    req.CostPrice,
		SellingPrice: req.SellingPrice,
		Stock:        req.Stock,
		MinStock:     req.MinStock,
	}
}
