package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"shopkeeper/internal/domain"
	"shopkeeper/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ChartMonths is the number of calendar months in the sales/expense series
const ChartMonths = 6

// CostBasis selects which cost price profit is computed against
type CostBasis string

const (
	// CostBasisLive values sold lines at the product's current cost price
	CostBasisLive CostBasis = "live"
	// CostBasisSnapshot values sold lines at the cost captured on the line
	CostBasisSnapshot CostBasis = "snapshot"
)

// ParseCostBasis validates a configured cost basis
func ParseCostBasis(s string) (CostBasis, error) {
	switch basis := CostBasis(s); basis {
	case CostBasisLive, CostBasisSnapshot:
		return basis, nil
	}
	return "", fmt.Errorf("unknown profit cost basis %q", s)
}

// AnalyticsConfig tunes calendar and profit calculations. A nil Location
// means time.Local and a nil Now means time.Now.
type AnalyticsConfig struct {
	CostBasis CostBasis
	Location  *time.Location
	Now       func() time.Time
}

// DashboardStats is the headline view of the shop
type DashboardStats struct {
	TotalStockValue     decimal.Decimal   `json:"totalStockValue"`
	LowStockCount       int               `json:"lowStockCount"`
	LowStockProducts    []*domain.Product `json:"lowStockProducts"`
	TodaySalesTotal     decimal.Decimal   `json:"todaySalesTotal"`
	TodayProfit         decimal.Decimal   `json:"todayProfit"`
	MonthlyExpenseTotal decimal.Decimal   `json:"monthlyExpenseTotal"`
}

// MonthlyPoint is one month of the sales/expense series
type MonthlyPoint struct {
	Name     string          `json:"name"`
	Sales    decimal.Decimal `json:"Sales"`
	Expenses decimal.Decimal `json:"Expenses"`
}

// CategorySlice is the revenue attributed to one product category
type CategorySlice struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

// ChartsData holds the report series
type ChartsData struct {
	BarChartData []MonthlyPoint  `json:"barChartData"`
	PieChartData []CategorySlice `json:"pieChartData"`
}

// AnalyticsService derives read-only metrics from the catalog and ledger.
// Nothing is cached: every call reflects the current state.
type AnalyticsService interface {
	DashboardStats(ctx context.Context) (*DashboardStats, error)
	ChartsData(ctx context.Context) (*ChartsData, error)
	LowStockProducts(ctx context.Context) ([]*domain.Product, error)
}

type analyticsService struct {
	repos  repository.Repositories
	cfg    AnalyticsConfig
	logger *zap.Logger
}

// NewAnalyticsService creates a new instance of AnalyticsService
func NewAnalyticsService(repos repository.Repositories, cfg AnalyticsConfig, logger *zap.Logger) AnalyticsService {
	if cfg.CostBasis == "" {
		cfg.CostBasis = CostBasisLive
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &analyticsService{
		repos:  repos,
		cfg:    cfg,
		logger: logger,
	}
}

func (s *analyticsService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	products, err := s.repos.Products.List(ctx, "")
	if err != nil {
		return nil, s.readError("failed to load products", err)
	}

	stats := &DashboardStats{
		TotalStockValue:     decimal.Zero,
		LowStockProducts:    []*domain.Product{},
		TodaySalesTotal:     decimal.Zero,
		MonthlyExpenseTotal: decimal.Zero,
	}

	costs := make(map[uuid.UUID]decimal.Decimal, len(products))
	for _, product := range products {
		costs[product.ID] = product.CostPrice
		stats.TotalStockValue = stats.TotalStockValue.Add(product.StockValue())
		if product.IsLowStock() {
			stats.LowStockProducts = append(stats.LowStockProducts, product)
		}
	}
	stats.LowStockCount = len(stats.LowStockProducts)

	now := s.cfg.Now().In(s.cfg.Location)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.cfg.Location)
	sales, err := s.repos.Sales.ListBetween(ctx, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, s.readError("failed to load today's sales", err)
	}

	costOfGoods := decimal.Zero
	for _, sale := range sales {
		stats.TodaySalesTotal = stats.TodaySalesTotal.Add(sale.FinalAmount)
		for _, item := range sale.Items {
			cost := item.CostPrice
			if s.cfg.CostBasis == CostBasisLive {
				// Lines of deleted products cost nothing
				cost = costs[item.ProductID]
			}
			costOfGoods = costOfGoods.Add(lineTotal(item.Quantity, cost))
		}
	}
	stats.TodayProfit = stats.TodaySalesTotal.Sub(costOfGoods)

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.cfg.Location)
	expenses, err := s.repos.Expenses.ListSince(ctx, monthStart)
	if err != nil {
		return nil, s.readError("failed to load this month's expenses", err)
	}
	for _, expense := range expenses {
		stats.MonthlyExpenseTotal = stats.MonthlyExpenseTotal.Add(expense.Amount)
	}

	return stats, nil
}

type monthKey struct {
	year  int
	month time.Month
}

func (s *analyticsService) ChartsData(ctx context.Context) (*ChartsData, error) {
	now := s.cfg.Now().In(s.cfg.Location)
	currentMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.cfg.Location)
	start := currentMonth.AddDate(0, -(ChartMonths - 1), 0)
	end := currentMonth.AddDate(0, 1, 0)

	sales, err := s.repos.Sales.ListBetween(ctx, start, end)
	if err != nil {
		return nil, s.readError("failed to load sales for charts", err)
	}
	expenses, err := s.repos.Expenses.ListSince(ctx, start)
	if err != nil {
		return nil, s.readError("failed to load expenses for charts", err)
	}

	salesByMonth := make(map[monthKey]decimal.Decimal)
	for _, sale := range sales {
		key := s.monthOf(sale.CreatedAt)
		salesByMonth[key] = salesByMonth[key].Add(sale.FinalAmount)
	}
	expensesByMonth := make(map[monthKey]decimal.Decimal)
	for _, expense := range expenses {
		key := s.monthOf(expense.Date)
		expensesByMonth[key] = expensesByMonth[key].Add(expense.Amount)
	}

	charts := &ChartsData{BarChartData: make([]MonthlyPoint, 0, ChartMonths)}
	for i := 0; i < ChartMonths; i++ {
		month := start.AddDate(0, i, 0)
		key := monthKey{year: month.Year(), month: month.Month()}
		charts.BarChartData = append(charts.BarChartData, MonthlyPoint{
			Name:     month.Month().String()[:3],
			Sales:    salesByMonth[key],
			Expenses: expensesByMonth[key],
		})
	}

	charts.PieChartData, err = s.categoryBreakdown(ctx)
	if err != nil {
		return nil, err
	}

	return charts, nil
}

// categoryBreakdown sums sale line totals per current product category
func (s *analyticsService) categoryBreakdown(ctx context.Context) ([]CategorySlice, error) {
	products, err := s.repos.Products.List(ctx, "")
	if err != nil {
		return nil, s.readError("failed to load products", err)
	}
	categories := make(map[uuid.UUID]string, len(products))
	for _, product := range products {
		categories[product.ID] = product.Category
	}

	items, err := s.repos.Sales.ListItems(ctx)
	if err != nil {
		return nil, s.readError("failed to load sale items", err)
	}

	totals := make(map[string]decimal.Decimal)
	for _, item := range items {
		category, ok := categories[item.ProductID]
		if !ok {
			continue
		}
		totals[category] = totals[category].Add(item.Total)
	}

	slices := make([]CategorySlice, 0, len(totals))
	for name, value := range totals {
		slices = append(slices, CategorySlice{Name: name, Value: value})
	}
	sort.Slice(slices, func(i, j int) bool { return slices[i].Name < slices[j].Name })
	return slices, nil
}

func (s *analyticsService) LowStockProducts(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.repos.Products.List(ctx, "")
	if err != nil {
		return nil, s.readError("failed to load products", err)
	}

	low := []*domain.Product{}
	for _, product := range products {
		if product.IsLowStock() {
			low = append(low, product)
		}
	}
	return low, nil
}

func (s *analyticsService) monthOf(t time.Time) monthKey {
	local := t.In(s.cfg.Location)
	return monthKey{year: local.Year(), month: local.Month()}
}

func (s *analyticsService) readError(message string, err error) error {
	s.logger.Error(message, zap.Error(err))
	return internal(message, err)
}
