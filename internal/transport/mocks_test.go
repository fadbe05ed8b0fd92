package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"shopkeeper/internal/domain"
	"shopkeeper/internal/middleware"
	"shopkeeper/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// testAuth trusts the X-Test-Role and X-Test-User headers instead of a JWT
func testAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role := r.Header.Get("X-Test-Role")
		if role == "" {
			middleware.RespondWithErrorCode(w, http.StatusUnauthorized, "unauthorized", "missing authorization header", nil)
			return
		}
		userID, err := uuid.Parse(r.Header.Get("X-Test-User"))
		if err != nil {
			userID = uuid.New()
		}
		next.ServeHTTP(w, r.WithContext(middleware.WithUser(r.Context(), userID, role)))
	})
}

func testAdmin() func(http.Handler) http.Handler {
	return middleware.RequireAdmin(zap.NewNop())
}

func doRequest(t *testing.T, router chi.Router, method, path, role string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorDetail {
	t.Helper()
	var response middleware.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("response is not an error envelope: %v (%s)", err, w.Body.String())
	}
	return response.Error
}

type stubLedger struct {
	recordSale     func(ctx context.Context, input service.SaleInput) (*domain.Sale, error)
	recordPurchase func(ctx context.Context, input service.PurchaseInput) (*domain.Purchase, error)
	sales          []*domain.Sale
	purchases      []*domain.Purchase
}

func (s *stubLedger) RecordSale(ctx context.Context, input service.SaleInput) (*domain.Sale, error) {
	return s.recordSale(ctx, input)
}

func (s *stubLedger) RecordPurchase(ctx context.Context, input service.PurchaseInput) (*domain.Purchase, error) {
	return s.recordPurchase(ctx, input)
}

func (s *stubLedger) ListSales(ctx context.Context) ([]*domain.Sale, error) {
	return s.sales, nil
}

func (s *stubLedger) GetSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	for _, sale := range s.sales {
		if sale.ID == id {
			return sale, nil
		}
	}
	return nil, &service.Error{Kind: service.KindNotFound, Message: "sale not found"}
}

func (s *stubLedger) ListPurchases(ctx context.Context) ([]*domain.Purchase, error) {
	return s.purchases, nil
}

func (s *stubLedger) GetPurchase(ctx context.Context, id uuid.UUID) (*domain.Purchase, error) {
	for _, purchase := range s.purchases {
		if purchase.ID == id {
			return purchase, nil
		}
	}
	return nil, &service.Error{Kind: service.KindNotFound, Message: "purchase not found"}
}

type stubCatalog struct {
	products    map[uuid.UUID]*domain.Product
	lastKeyword string
}

func newStubCatalog(products ...*domain.Product) *stubCatalog {
	c := &stubCatalog{products: make(map[uuid.UUID]*domain.Product)}
	for _, product := range products {
		c.products[product.ID] = product
	}
	return c
}

func (c *stubCatalog) notFound() error {
	return &service.Error{Kind: service.KindNotFound, Message: "product not found"}
}

func (c *stubCatalog) CreateProduct(ctx context.Context, input service.ProductInput) (*domain.Product, error) {
	product := &domain.Product{ID: uuid.New(), Name: input.Name, Category: input.Category, Unit: input.Unit, Stock: input.Stock}
	c.products[product.ID] = product
	return product, nil
}

func (c *stubCatalog) UpdateProduct(ctx context.Context, id uuid.UUID, input service.ProductInput) (*domain.Product, error) {
	if _, ok := c.products[id]; !ok {
		return nil, c.notFound()
	}
	product := &domain.Product{ID: id, Name: input.Name, Category: input.Category, Unit: input.Unit, Stock: input.Stock}
	c.products[id] = product
	return product, nil
}

func (c *stubCatalog) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if _, ok := c.products[id]; !ok {
		return c.notFound()
	}
	delete(c.products, id)
	return nil
}

func (c *stubCatalog) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, ok := c.products[id]
	if !ok {
		return nil, c.notFound()
	}
	return product, nil
}

func (c *stubCatalog) ListProducts(ctx context.Context, keyword string) ([]*domain.Product, error) {
	c.lastKeyword = keyword
	products := []*domain.Product{}
	for _, product := range c.products {
		products = append(products, product)
	}
	return products, nil
}

func (c *stubCatalog) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*domain.Product, error) {
	product, ok := c.products[id]
	if !ok {
		return nil, c.notFound()
	}
	if product.Stock+delta < 0 {
		return nil, &service.Error{Kind: service.KindValidation, Message: "stock adjustment would go negative", Available: product.Stock}
	}
	product.Stock += delta
	return product, nil
}
