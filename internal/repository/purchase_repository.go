package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shopkeeper/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrPurchaseNotFound = errors.New("purchase not found")
)

// PurchaseRepository defines the interface for purchase data access
type PurchaseRepository interface {
	Create(ctx context.Context, purchase *domain.Purchase) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Purchase, error)
	List(ctx context.Context) ([]*domain.Purchase, error)
}

type purchaseRepository struct {
	db Querier
}

// NewPurchaseRepository creates a new instance of PurchaseRepository
func NewPurchaseRepository(db Querier) PurchaseRepository {
	return &purchaseRepository{db: db}
}

const purchaseColumns = `id, supplier_name, total_amount, date, created_at, updated_at`

// Create inserts the purchase header and its lines in input order
func (r *purchaseRepository) Create(ctx context.Context, purchase *domain.Purchase) error {
	query := `
		INSERT INTO purchases (id, supplier_name, total_amount, date)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		purchase.ID,
		purchase.SupplierName,
		purchase.TotalAmount,
		purchase.Date,
	).Scan(&purchase.CreatedAt, &purchase.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create purchase: %w", err)
	}

	itemQuery := `
		INSERT INTO purchase_items (purchase_id, position, product_id, name, quantity, cost_price, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for i, item := range purchase.Items {
		_, err := r.db.ExecContext(ctx, itemQuery, purchase.ID, i, item.ProductID, item.Name, item.Quantity, item.CostPrice, item.Total)
		if err != nil {
			return fmt.Errorf("failed to create purchase item %d: %w", i, err)
		}
	}

	return nil
}

// FindByID retrieves a purchase and its lines
func (r *purchaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Purchase, error) {
	purchase := &domain.Purchase{}
	err := r.db.QueryRowContext(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id = $1`, id).Scan(
		&purchase.ID,
		&purchase.SupplierName,
		&purchase.TotalAmount,
		&purchase.Date,
		&purchase.CreatedAt,
		&purchase.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("failed to find purchase by ID: %w", err)
	}

	items, err := r.loadItems(ctx, `WHERE purchase_id = $1`, id)
	if err != nil {
		return nil, err
	}
	purchase.Items = items[purchase.ID]
	if purchase.Items == nil {
		purchase.Items = []domain.PurchaseItem{}
	}

	return purchase, nil
}

// List returns all purchases, most recent purchase date first
func (r *purchaseRepository) List(ctx context.Context) ([]*domain.Purchase, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+purchaseColumns+` FROM purchases ORDER BY date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	purchases := []*domain.Purchase{}
	for rows.Next() {
		purchase := &domain.Purchase{}
		err := rows.Scan(
			&purchase.ID,
			&purchase.SupplierName,
			&purchase.TotalAmount,
			&purchase.Date,
			&purchase.CreatedAt,
			&purchase.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		purchases = append(purchases, purchase)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchases: %w", err)
	}

	items, err := r.loadItems(ctx, ``)
	if err != nil {
		return nil, err
	}
	for _, purchase := range purchases {
		purchase.Items = items[purchase.ID]
		if purchase.Items == nil {
			purchase.Items = []domain.PurchaseItem{}
		}
	}

	return purchases, nil
}

func (r *purchaseRepository) loadItems(ctx context.Context, where string, args ...interface{}) (map[uuid.UUID][]domain.PurchaseItem, error) {
	query := `SELECT purchase_id, product_id, name, quantity, cost_price, total FROM purchase_items ` + where + ` ORDER BY purchase_id, position`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase items: %w", err)
	}
	defer rows.Close()

	items := make(map[uuid.UUID][]domain.PurchaseItem)
	for rows.Next() {
		var purchaseID uuid.UUID
		var item domain.PurchaseItem
		if err := rows.Scan(&purchaseID, &item.ProductID, &item.Name, &item.Quantity, &item.CostPrice, &item.Total); err != nil {
			return nil, fmt.Errorf("failed to scan purchase item: %w", err)
		}
		items[purchaseID] = append(items[purchaseID], item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchase items: %w", err)
	}

	return items, nil
}
