package jobs

import (
	"context"
	"fmt"
	"time"

	"shopkeeper/internal/service"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// runTimeout bounds a single low-stock scan
const runTimeout = 30 * time.Second

// LowStockReporter periodically logs every product whose stock is strictly below
// its minimum stock
type LowStockReporter struct {
	analytics service.AnalyticsService
	logger    *zap.Logger
	sched     *cron.Cron
}

// NewLowStockReporter schedules the report on spec. An empty spec returns a
// reporter whose Start and Stop are no-ops.
func NewLowStockReporter(spec string, loc *time.Location, analytics service.AnalyticsService, logger *zap.Logger) (*LowStockReporter, error) {
	r := &LowStockReporter{
		analytics: analytics,
		logger:    logger,
	}
	if spec == "" {
		return r, nil
	}
	if loc == nil {
		loc = time.UTC
	}

	r.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))
	if _, err := r.sched.AddFunc(spec, r.run); err != nil {
		return nil, fmt.Errorf("invalid low stock schedule %q: %w", spec, err)
	}
	return r, nil
}

// Start begins running the schedule in the background
func (r *LowStockReporter) Start() {
	if r.sched == nil {
		r.logger.Info("Low stock report disabled")
		return
	}
	r.sched.Start()
	r.logger.Info("Low stock report scheduled", zap.Int("entries", len(r.sched.Entries())))
}

// Stop halts the schedule and waits for a running report to finish
func (r *LowStockReporter) Stop() {
	if r.sched == nil {
		return
	}
	<-r.sched.Stop().Done()
}

func (r *LowStockReporter) run() {
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("Low stock report panicked", zap.Any("panic", err))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if _, err := r.Report(ctx); err != nil {
		r.logger.Error("Low stock report failed", zap.Error(err))
	}
}

// Report logs one warning per low-stock product and returns how many were found
func (r *LowStockReporter) Report(ctx context.Context) (int, error) {
	products, err := r.analytics.LowStockProducts(ctx)
	if err != nil {
		return 0, err
	}

	for _, p := range products {
		r.logger.Warn("Product low on stock",
			zap.String("product_id", p.ID.String()),
			zap.String("name", p.Name),
			zap.Int("stock", p.Stock),
			zap.Int("min_stock", p.MinStock),
		)
	}
	return len(products), nil
}
