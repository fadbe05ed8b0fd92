package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"shopkeeper/internal/domain"
	"shopkeeper/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAnalytics struct {
	stats  *service.DashboardStats
	charts *service.ChartsData
	err    error
}

func (s *stubAnalytics) DashboardStats(ctx context.Context) (*service.DashboardStats, error) {
	return s.stats, s.err
}

func (s *stubAnalytics) ChartsData(ctx context.Context) (*service.ChartsData, error) {
	return s.charts, s.err
}

func (s *stubAnalytics) LowStockProducts(ctx context.Context) ([]*domain.Product, error) {
	if s.stats == nil {
		return nil, s.err
	}
	return s.stats.LowStockProducts, s.err
}

func newAnalyticsRouter(analytics service.AnalyticsService) chi.Router {
	r := chi.NewRouter()
	NewAnalyticsHandler(analytics, zap.NewNop()).RegisterRoutes(r, testAuth)
	return r
}

func TestDashboard(t *testing.T) {
	analytics := &stubAnalytics{stats: &service.DashboardStats{
		TotalStockValue:     decimal.NewFromInt(1500),
		LowStockCount:       1,
		LowStockProducts:    []*domain.Product{{Name: "MCB", Stock: 2, MinStock: 5}},
		TodaySalesTotal:     decimal.NewFromInt(300),
		TodayProfit:         decimal.NewFromInt(60),
		MonthlyExpenseTotal: decimal.NewFromInt(350),
	}}

	w := doRequest(t, newAnalyticsRouter(analytics), "GET", "/api/analytics/dashboard", domain.RoleStaff, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "totalStockValue")
	assert.EqualValues(t, 1, body["lowStockCount"])
	assert.Len(t, body["lowStockProducts"], 1)
}

func TestCharts_KeepsChartKeys(t *testing.T) {
	analytics := &stubAnalytics{charts: &service.ChartsData{
		BarChartData: []service.MonthlyPoint{{Name: "Mar", Sales: decimal.NewFromInt(30), Expenses: decimal.Zero}},
		PieChartData: []service.CategorySlice{{Name: "Wires", Value: decimal.NewFromInt(55)}},
	}}

	w := doRequest(t, newAnalyticsRouter(analytics), "GET", "/api/analytics/charts", domain.RoleStaff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Sales"`)
	assert.Contains(t, w.Body.String(), `"Expenses"`)
	assert.Contains(t, w.Body.String(), `"name":"Mar"`)
}

func TestAnalytics_HidesInternalErrors(t *testing.T) {
	analytics := &stubAnalytics{err: &service.Error{Kind: service.KindInternal, Message: "failed", Err: errors.New("pq: connection refused")}}

	w := doRequest(t, newAnalyticsRouter(analytics), "GET", "/api/analytics/dashboard", domain.RoleAdmin, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}
