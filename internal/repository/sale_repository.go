package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shopkeeper/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrSaleNotFound = errors.New("sale not found")
)

// SaleRepository defines the interface for sale data access. Sales are
// append-only: there is no update or delete.
type SaleRepository interface {
	Create(ctx context.Context, sale *domain.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
	List(ctx context.Context) ([]*domain.Sale, error)
	// ListBetween returns sales created in [start, end), newest first
	ListBetween(ctx context.Context, start, end time.Time) ([]*domain.Sale, error)
	// ListItems returns every sale line ever recorded
	ListItems(ctx context.Context) ([]domain.SaleItem, error)
}

type saleRepository struct {
	db Querier
}

// NewSaleRepository creates a new instance of SaleRepository
func NewSaleRepository(db Querier) SaleRepository {
	return &saleRepository{db: db}
}

// saleSelect reads sales together with the name of the user who recorded
// them. Filters must qualify sale columns with s.
const saleSelect = `
	SELECT s.id, s.customer_name, s.total_amount, s.discount, s.final_amount,
	       s.payment_method, s.created_by, COALESCE(u.name, ''), s.created_at, s.updated_at
	FROM sales s
	LEFT JOIN users u ON u.id = s.created_by
`

const saleItemColumns = `product_id, name, quantity, price, cost_price, total`

// Create inserts the sale header and its lines in input order. Callers that
// need the header and lines to land together run it inside a transaction.
func (r *saleRepository) Create(ctx context.Context, sale *domain.Sale) error {
	query := `
		INSERT INTO sales (id, customer_name, total_amount, discount, final_amount, payment_method, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		sale.ID,
		sale.CustomerName,
		sale.TotalAmount,
		sale.Discount,
		sale.FinalAmount,
		string(sale.PaymentMethod),
		sale.CreatedBy,
	).Scan(&sale.CreatedAt, &sale.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create sale: %w", err)
	}

	itemQuery := `
		INSERT INTO sale_items (sale_id, position, ` + saleItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for i, item := range sale.Items {
		_, err := r.db.ExecContext(
			ctx,
			itemQuery,
			sale.ID,
			i,
			item.ProductID,
			item.Name,
			item.Quantity,
			item.Price,
			item.CostPrice,
			item.Total,
		)
		if err != nil {
			return fmt.Errorf("failed to create sale item %d: %w", i, err)
		}
	}

	return nil
}

// FindByID retrieves a sale and its lines
func (r *saleRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	sale, err := scanSale(r.db.QueryRowContext(ctx, saleSelect+`WHERE s.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to find sale by ID: %w", err)
	}

	items, err := r.loadItems(ctx, `WHERE sale_id = $1`, id)
	if err != nil {
		return nil, err
	}
	sale.Items = items[sale.ID]
	if sale.Items == nil {
		sale.Items = []domain.SaleItem{}
	}

	return sale, nil
}

// List returns all sales newest first
func (r *saleRepository) List(ctx context.Context) ([]*domain.Sale, error) {
	return r.list(ctx, ``)
}

func (r *saleRepository) ListBetween(ctx context.Context, start, end time.Time) ([]*domain.Sale, error) {
	return r.list(ctx, `WHERE s.created_at >= $1 AND s.created_at < $2`, start, end)
}

func (r *saleRepository) list(ctx context.Context, where string, args ...interface{}) ([]*domain.Sale, error) {
	query := saleSelect + where + ` ORDER BY s.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	sales := []*domain.Sale{}
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sales: %w", err)
	}

	if len(sales) == 0 {
		return sales, nil
	}

	items, err := r.loadItems(ctx, `WHERE sale_id IN (SELECT s.id FROM sales s `+where+`)`, args...)
	if err != nil {
		return nil, err
	}
	for _, sale := range sales {
		sale.Items = items[sale.ID]
		if sale.Items == nil {
			sale.Items = []domain.SaleItem{}
		}
	}

	return sales, nil
}

func (r *saleRepository) ListItems(ctx context.Context) ([]domain.SaleItem, error) {
	grouped, err := r.loadItems(ctx, ``)
	if err != nil {
		return nil, err
	}

	items := []domain.SaleItem{}
	for _, lines := range grouped {
		items = append(items, lines...)
	}
	return items, nil
}

// loadItems fetches sale lines matching where, grouped by sale and kept in
// their recorded order
func (r *saleRepository) loadItems(ctx context.Context, where string, args ...interface{}) (map[uuid.UUID][]domain.SaleItem, error) {
	query := `SELECT sale_id, ` + saleItemColumns + ` FROM sale_items ` + where + ` ORDER BY sale_id, position`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sale items: %w", err)
	}
	defer rows.Close()

	items := make(map[uuid.UUID][]domain.SaleItem)
	for rows.Next() {
		var saleID uuid.UUID
		var item domain.SaleItem
		err := rows.Scan(
			&saleID,
			&item.ProductID,
			&item.Name,
			&item.Quantity,
			&item.Price,
			&item.CostPrice,
			&item.Total,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale item: %w", err)
		}
		items[saleID] = append(items[saleID], item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sale items: %w", err)
	}

	return items, nil
}

func scanSale(row rowScanner) (*domain.Sale, error) {
	sale := &domain.Sale{}
	var paymentMethod string
	var createdBy uuid.NullUUID
	err := row.Scan(
		&sale.ID,
		&sale.CustomerName,
		&sale.TotalAmount,
		&sale.Discount,
		&sale.FinalAmount,
		&paymentMethod,
		&createdBy,
		&sale.CreatedByName,
		&sale.CreatedAt,
		&sale.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sale.PaymentMethod = domain.PaymentMethod(paymentMethod)
	if createdBy.Valid {
		sale.CreatedBy = &createdBy.UUID
	}
	return sale, nil
}
