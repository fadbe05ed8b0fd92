package service

import (
	"context"
	"errors"
	"strings"

	"shopkeeper/internal/domain"
	"shopkeeper/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductInput carries the editable fields of a product. MinStock falls back
// to domain.DefaultMinStock when nil.
type ProductInput struct {
	Name         string
	Category     string
	Brand        string
	Unit         string
	CostPrice    decimal.Decimal
	SellingPrice decimal.Decimal
	Stock        int
	MinStock     *int
}

// CatalogService manages products. Besides plain CRUD it exposes the stock
// adjustment primitive used for manual stock corrections.
type CatalogService interface {
	CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ListProducts(ctx context.Context, keyword string) ([]*domain.Product, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*domain.Product, error)
}

type catalogService struct {
	products repository.ProductRepository
	logger   *zap.Logger
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(products repository.ProductRepository, logger *zap.Logger) CatalogService {
	return &catalogService{
		products: products,
		logger:   logger,
	}
}

func (s *catalogService) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	product := &domain.Product{ID: uuid.New()}
	if err := applyProductInput(product, input); err != nil {
		return nil, err
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, s.productError("failed to create product", product.ID, err)
	}

	s.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	return product, nil
}

// UpdateProduct replaces the product's fields, stock included. Direct stock
// edits are catalog corrections and are not recorded in the ledger.
func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error) {
	product := &domain.Product{ID: id}
	if err := applyProductInput(product, input); err != nil {
		return nil, err
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, s.productError("failed to update product", id, err)
	}

	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return s.productError("failed to delete product", id, err)
	}

	s.logger.Info("Product deleted", zap.String("product_id", id.String()))
	return nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, s.productError("failed to get product", id, err)
	}
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context, keyword string) ([]*domain.Product, error) {
	products, err := s.products.List(ctx, keyword)
	if err != nil {
		s.logger.Error("Failed to list products", zap.Error(err))
		return nil, internal("failed to list products", err)
	}
	return products, nil
}

func (s *catalogService) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*domain.Product, error) {
	if delta == 0 {
		return nil, validation("stock delta must not be zero")
	}
	if delta > domain.MaxQuantity || delta < -domain.MaxQuantity {
		return nil, validation("stock delta %d is out of range", delta)
	}

	product, err := s.products.AdjustStock(ctx, id, delta)
	if err != nil {
		var shortfall *repository.StockShortfallError
		if errors.As(err, &shortfall) {
			return nil, &Error{
				Kind:        KindValidation,
				Message:     "stock adjustment would go negative for " + shortfall.Name,
				ProductID:   id,
				ProductName: shortfall.Name,
				Requested:   -delta,
				Available:   shortfall.Available,
				Err:         err,
			}
		}
		return nil, s.productError("failed to adjust stock", id, err)
	}

	s.logger.Info("Stock adjusted",
		zap.String("product_id", id.String()),
		zap.Int("delta", delta),
		zap.Int("stock", product.Stock),
	)
	return product, nil
}

func (s *catalogService) productError(message string, id uuid.UUID, err error) error {
	if errors.Is(err, repository.ErrProductNotFound) {
		return &Error{Kind: KindNotFound, Message: "product not found", ProductID: id}
	}
	if errors.Is(err, repository.ErrValueOutOfRange) {
		return &Error{Kind: KindValidation, Message: "stock or price is out of range", ProductID: id, Err: err}
	}
	s.logger.Error(message, zap.String("product_id", id.String()), zap.Error(err))
	return internal(message, err)
}

func applyProductInput(product *domain.Product, input ProductInput) error {
	product.Name = strings.TrimSpace(input.Name)
	product.Category = strings.TrimSpace(input.Category)
	product.Brand = strings.TrimSpace(input.Brand)
	product.Unit = strings.TrimSpace(input.Unit)
	product.CostPrice = input.CostPrice
	product.SellingPrice = input.SellingPrice
	product.Stock = input.Stock
	product.MinStock = domain.DefaultMinStock
	if input.MinStock != nil {
		product.MinStock = *input.MinStock
	}

	switch {
	case product.Name == "":
		return validation("name is required")
	case product.Category == "":
		return validation("category is required")
	case product.Unit == "":
		return validation("unit is required")
	case product.Stock < 0:
		return validation("stock must not be negative")
	case product.MinStock < 0:
		return validation("minimum stock must not be negative")
	}
	if err := checkMoney("cost price", product.CostPrice); err != nil {
		return err
	}
	if err := checkMoney("selling price", product.SellingPrice); err != nil {
		return err
	}
	if err := checkQuantity("stock", product.Stock); err != nil {
		return err
	}
	if err := checkQuantity("minimum stock", product.MinStock); err != nil {
		return err
	}
	return nil
}
