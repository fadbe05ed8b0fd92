package transport

import (
	"net/http"
	"time"

	"shopkeeper/internal/domain"
	"shopkeeper/internal/middleware"
	"shopkeeper/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SaleItemRequest is one requested bill line
type SaleItemRequest struct {
	ProductID string          `json:"product" validate:"required,uuid"`
	Quantity  int             `json:"quantity" validate:"gt=0,lte=2147483647"`
	Price     decimal.Decimal `json:"price" validate:"gte=0,lte=9999999999.99"`
}

// CreateSaleRequest is the payload of POST /api/sales. An empty item list is
// reported by the ledger, not by validation.
type CreateSaleRequest struct {
	CustomerName  string            `json:"customerName" validate:"max=200"`
	Items         []SaleItemRequest `json:"items" validate:"dive"`
	Discount      decimal.Decimal   `json:"discount" validate:"gte=0,lte=9999999999.99"`
	PaymentMethod string            `json:"paymentMethod" validate:"omitempty,oneof=Cash Card UPI Credit"`
}

// PurchaseItemRequest is one requested purchase line
type PurchaseItemRequest struct {
	ProductID string          `json:"product" validate:"required,uuid"`
	Quantity  int             `json:"quantity" validate:"gt=0,lte=2147483647"`
	CostPrice decimal.Decimal `json:"costPrice" validate:"gte=0,lte=9999999999.99"`
}

// CreatePurchaseRequest is the payload of POST /api/purchases
type CreatePurchaseRequest struct {
	SupplierName string                `json:"supplierName" validate:"max=200"`
	Items        []PurchaseItemRequest `json:"items" validate:"dive"`
	TotalAmount  *decimal.Decimal      `json:"totalAmount" validate:"omitempty,gte=0,lte=9999999999.99"`
	Date         *time.Time            `json:"date"`
}

// LedgerHandler handles sale and purchase endpoints
type LedgerHandler struct {
	ledger service.LedgerService
	logger *zap.Logger
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledger service.LedgerService, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{
		ledger: ledger,
		logger: logger,
	}
}

// RegisterRoutes registers the sale and purchase routes
func (h *LedgerHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/sales", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.CreateSale)
		r.Get("/", h.ListSales)
		r.Get("/{id}", h.GetSale)
	})

	r.Route("/api/purchases", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.CreatePurchase)
		r.Get("/", h.ListPurchases)
		r.Get("/{id}", h.GetPurchase)
	})
}

// CreateSale records a bill
func (h *LedgerHandler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithRequestError(w, err)
		return
	}

	input := service.SaleInput{
		CustomerName:  req.CustomerName,
		Items:         make([]service.SaleLineInput, 0, len(req.Items)),
		Discount:      req.Discount,
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
	}
	if userID, ok := middleware.GetUserID(r.Context()); ok {
		input.ActorID = &userID
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, service.SaleLineInput{
			ProductID: uuid.MustParse(item.ProductID),
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
		})
	}

	sale, err := h.ledger.RecordSale(r.Context(), input)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, sale)
}

func (h *LedgerHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.ledger.ListSales(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, sales)
}

func (h *LedgerHandler) GetSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	sale, err := h.ledger.GetSale(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, sale)
}

// CreatePurchase records stock bought from a supplier
func (h *LedgerHandler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req CreatePurchaseRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithRequestError(w, err)
		return
	}

	input := service.PurchaseInput{
		SupplierName: req.SupplierName,
		Items:        make([]service.PurchaseLineInput, 0, len(req.Items)),
		TotalAmount:  req.TotalAmount,
		Date:         req.Date,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, service.PurchaseLineInput{
			ProductID: uuid.MustParse(item.ProductID),
			Quantity:  item.Quantity,
			CostPrice: item.CostPrice,
		})
	}

	purchase, err := h.ledger.RecordPurchase(r.Context(), input)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, purchase)
}

func (h *LedgerHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.ledger.ListPurchases(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, purchases)
}

func (h *LedgerHandler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	purchase, err := h.ledger.GetPurchase(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, purchase)
}
