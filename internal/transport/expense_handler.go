package transport

import (
	"net/http"
	"time"

	"shopkeeper/internal/domain"
	"shopkeeper/internal/middleware"
	"shopkeeper/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateExpenseRequest is the payload of POST /api/expenses
type CreateExpenseRequest struct {
	Title    string          `json:"title" validate:"required,max=200"`
	Category string          `json:"category" validate:"required,oneof=Rent Electricity Salary Transport Miscellaneous"`
	Amount   decimal.Decimal `json:"amount" validate:"gte=0,lte=9999999999.99"`
	Date     *time.Time      `json:"date"`
	Note     string          `json:"note" validate:"max=1000"`
}

// ExpenseHandler handles expense log endpoints
type ExpenseHandler struct {
	expenses service.ExpenseService
	logger   *zap.Logger
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(expenses service.ExpenseService, logger *zap.Logger) *ExpenseHandler {
	return &ExpenseHandler{
		expenses: expenses,
		logger:   logger,
	}
}

// RegisterRoutes registers the expense routes. Deleting is owner-only.
func (h *ExpenseHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/expenses", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.CreateExpense)
		r.Get("/", h.ListExpenses)
		r.Get("/{id}", h.GetExpense)
		r.With(adminMiddleware).Delete("/{id}", h.DeleteExpense)
	})
}

func (h *ExpenseHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req CreateExpenseRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithRequestError(w, err)
		return
	}

	expense, err := h.expenses.CreateExpense(r.Context(), service.ExpenseInput{
		Title:    req.Title,
		Category: domain.ExpenseCategory(req.Category),
		Amount:   req.Amount,
		Date:     req.Date,
		Note:     req.Note,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, expense)
}

func (h *ExpenseHandler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.expenses.ListExpenses(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, expenses)
}

func (h *ExpenseHandler) GetExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	expense, err := h.expenses.GetExpense(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, expense)
}

func (h *ExpenseHandler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.expenses.DeleteExpense(r.Context(), id); err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Expense removed"})
}
