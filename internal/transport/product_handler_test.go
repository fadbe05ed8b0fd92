package transport

import (
	"encoding/json"
	"net/http"
	"testing"

	"shopkeeper/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newProductRouter(catalog *stubCatalog) chi.Router {
	r := chi.NewRouter()
	NewProductHandler(catalog, zap.NewNop()).RegisterRoutes(r, testAuth, testAdmin())
	return r
}

func TestProducts_CreateAndList(t *testing.T) {
	catalog := newStubCatalog()
	router := newProductRouter(catalog)

	w := doRequest(t, router, "POST", "/api/products", domain.RoleStaff, map[string]interface{}{
		"name":         "PVC Pipe 4 inch",
		"category":     "Pipe",
		"brand":        "Supreme",
		"unit":         "meter",
		"costPrice":    150,
		"sellingPrice": 200,
		"stock":        100,
		"minStock":     20,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doRequest(t, router, "GET", "/api/products?keyword=pvc", domain.RoleStaff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pvc", catalog.lastKeyword)

	var products []domain.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	assert.Len(t, products, 1)
}

func TestProducts_CreateValidation(t *testing.T) {
	router := newProductRouter(newStubCatalog())

	w := doRequest(t, router, "POST", "/api/products", domain.RoleStaff, map[string]interface{}{
		"name":      "Pipe",
		"unit":      "meter",
		"costPrice": -1,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	detail := decodeError(t, w)
	assert.Equal(t, "validation_error", detail.Code)
	assert.Contains(t, detail.Details, "validation_errors")
}

func TestProducts_DeleteIsAdminOnly(t *testing.T) {
	product := &domain.Product{ID: uuid.New(), Name: "Bulb"}
	catalog := newStubCatalog(product)
	router := newProductRouter(catalog)
	path := "/api/products/" + product.ID.String()

	w := doRequest(t, router, "DELETE", path, domain.RoleStaff, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, catalog.products, product.ID)

	w = doRequest(t, router, "DELETE", path, domain.RoleAdmin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, catalog.products, product.ID)

	w = doRequest(t, router, "DELETE", path, domain.RoleAdmin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProducts_AdjustStock(t *testing.T) {
	product := &domain.Product{ID: uuid.New(), Name: "Bulb", Stock: 4}
	router := newProductRouter(newStubCatalog(product))
	path := "/api/products/" + product.ID.String() + "/stock"

	w := doRequest(t, router, "POST", path, domain.RoleStaff, map[string]int{"delta": 6})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, product.Stock)

	w = doRequest(t, router, "POST", path, domain.RoleStaff, map[string]int{"delta": -11})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 10, product.Stock)

	w = doRequest(t, router, "POST", path, domain.RoleStaff, map[string]int{"delta": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, router, "POST", path, domain.RoleStaff, map[string]int64{"delta": 3000000000})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 10, product.Stock)
}

func TestProducts_CreateRejectsOutOfRangeValues(t *testing.T) {
	catalog := newStubCatalog()
	router := newProductRouter(catalog)

	tests := map[string]map[string]interface{}{
		"huge stock":     {"stock": 3000000000},
		"huge min stock": {"minStock": 3000000000},
		"huge price":     {"sellingPrice": 100000000000},
	}

	for name, override := range tests {
		t.Run(name, func(t *testing.T) {
			body := map[string]interface{}{"name": "Pipe", "category": "Pipe", "unit": "meter"}
			for key, value := range override {
				body[key] = value
			}
			w := doRequest(t, router, "POST", "/api/products", domain.RoleStaff, body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "validation_error", decodeError(t, w).Code)
		})
	}
	assert.Empty(t, catalog.products)
}

func TestProducts_UpdateUnknown(t *testing.T) {
	router := newProductRouter(newStubCatalog())

	w := doRequest(t, router, "PUT", "/api/products/"+uuid.NewString(), domain.RoleStaff, map[string]interface{}{
		"name": "Pipe", "category": "Pipe", "unit": "meter",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeError(t, w).Code)
}
