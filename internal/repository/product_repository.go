package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"shopkeeper/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrStockWouldGoNegative = errors.New("stock adjustment would go negative")
	// ErrValueOutOfRange is returned when a stock or money value does not fit
	// its column.
	ErrValueOutOfRange = errors.New("value out of range")
)

// StockShortfallError is returned by AdjustStock when the requested delta
// would take the product's stock below zero. Available is the stock that was
// on hand when the adjustment was refused.
type StockShortfallError struct {
	ProductID uuid.UUID
	Name      string
	Available int
	Delta     int
}

func (e *StockShortfallError) Error() string {
	return fmt.Sprintf("cannot adjust stock of %s by %d: %d available", e.Name, e.Delta, e.Available)
}

func (e *StockShortfallError) Unwrap() error {
	return ErrStockWouldGoNegative
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	// FindByIDForUpdate locks the product row until the surrounding
	// transaction ends. Outside a transaction it behaves like FindByID.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, keyword string) ([]*domain.Product, error)
	// AdjustStock atomically adds delta to the product's stock. It fails with
	// a *StockShortfallError instead of letting stock go negative and with
	// ErrValueOutOfRange when the result does not fit the stock column.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*domain.Product, error)
}

type productRepository struct {
	db Querier
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db Querier) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, name, category, brand, unit, cost_price, selling_price, stock, min_stock, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Category,
		&product.Brand,
		&product.Unit,
		&product.CostPrice,
		&product.SellingPrice,
		&product.Stock,
		&product.MinStock,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return product, nil
}

// Create inserts a new product. The store sets the timestamps.
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, name, category, brand, unit, cost_price, selling_price, stock, min_stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Category,
		product.Brand,
		product.Unit,
		product.CostPrice,
		product.SellingPrice,
		product.Stock,
		product.MinStock,
	).Scan(&product.CreatedAt, &product.UpdatedAt)

	if err != nil {
		if isOutOfRange(err) {
			return fmt.Errorf("failed to create product: %w", ErrValueOutOfRange)
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update replaces every editable field of an existing product, stock included
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, category = $3, brand = $4, unit = $5, cost_price = $6,
		    selling_price = $7, stock = $8, min_stock = $9
		WHERE id = $1
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Category,
		product.Brand,
		product.Unit,
		product.CostPrice,
		product.SellingPrice,
		product.Stock,
		product.MinStock,
	).Scan(&product.CreatedAt, &product.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		if isOutOfRange(err) {
			return fmt.Errorf("failed to update product: %w", ErrValueOutOfRange)
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// Delete removes a product. Sales and purchases that reference it are kept.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product by ID
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return r.findOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

func (r *productRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return r.findOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

func (r *productRepository) findOne(ctx context.Context, query string, id uuid.UUID) (*domain.Product, error) {
	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return product, nil
}

// List returns products newest first, optionally filtered by a
// case-insensitive keyword on the name
func (r *productRepository) List(ctx context.Context, keyword string) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	args := []interface{}{}

	if keyword = strings.TrimSpace(keyword); keyword != "" {
		query += ` WHERE name ILIKE $1`
		args = append(args, "%"+keyword+"%")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// AdjustStock applies delta in a single conditional UPDATE so concurrent
// adjustments of the same product serialize on its row lock.
func (r *productRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*domain.Product, error) {
	query := `
		UPDATE products
		SET stock = stock + $2
		WHERE id = $1 AND stock + $2 >= 0
		RETURNING ` + productColumns

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id, delta))
	if err == nil {
		return product, nil
	}
	if isOutOfRange(err) {
		return nil, fmt.Errorf("failed to adjust stock by %d: %w", delta, ErrValueOutOfRange)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}

	// Either the product is gone or the guard refused the change
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, &StockShortfallError{
		ProductID: id,
		Name:      current.Name,
		Available: current.Stock,
		Delta:     delta,
	}
}
