package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopkeeper/internal/domain"
	"shopkeeper/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CommitMode selects how a multi-line sale or purchase commits its stock
// changes.
type CommitMode string

const (
	// CommitAtomic applies every line and the ledger record in one database
	// transaction. Any failure leaves stock untouched.
	CommitAtomic CommitMode = "atomic"
	// CommitPerLine commits each line's stock change as it is processed. A
	// failure at line k leaves lines before k applied and reports how many
	// through Error.Applied.
	CommitPerLine CommitMode = "per_line"
)

// ParseCommitMode validates a configured commit mode
func ParseCommitMode(s string) (CommitMode, error) {
	switch mode := CommitMode(s); mode {
	case CommitAtomic, CommitPerLine:
		return mode, nil
	}
	return "", fmt.Errorf("unknown ledger commit mode %q", s)
}

// SaleLineInput is one requested sale line
type SaleLineInput struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

// SaleInput is a bill to record. PaymentMethod defaults to Cash.
type SaleInput struct {
	CustomerName  string
	Items         []SaleLineInput
	Discount      decimal.Decimal
	PaymentMethod domain.PaymentMethod
	ActorID       *uuid.UUID
}

// PurchaseLineInput is one requested purchase line
type PurchaseLineInput struct {
	ProductID uuid.UUID
	Quantity  int
	CostPrice decimal.Decimal
}

// PurchaseInput is a supplier purchase to record. When TotalAmount is set it
// must match the total computed from the lines. Date defaults to now.
type PurchaseInput struct {
	SupplierName string
	Items        []PurchaseLineInput
	TotalAmount  *decimal.Decimal
	Date         *time.Time
}

// LedgerService records sales and purchases and keeps product stock in step
// with them.
type LedgerService interface {
	RecordSale(ctx context.Context, input SaleInput) (*domain.Sale, error)
	RecordPurchase(ctx context.Context, input PurchaseInput) (*domain.Purchase, error)
	ListSales(ctx context.Context) ([]*domain.Sale, error)
	GetSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
	ListPurchases(ctx context.Context) ([]*domain.Purchase, error)
	GetPurchase(ctx context.Context, id uuid.UUID) (*domain.Purchase, error)
}

type ledgerService struct {
	repos  repository.Repositories
	tx     repository.Transactor
	mode   CommitMode
	logger *zap.Logger
	now    func() time.Time
}

// NewLedgerService creates a LedgerService. repos is used for reads and for
// per-line commits; tx scopes atomic commits.
func NewLedgerService(
	repos repository.Repositories,
	tx repository.Transactor,
	mode CommitMode,
	logger *zap.Logger,
) LedgerService {
	return &ledgerService{
		repos:  repos,
		tx:     tx,
		mode:   mode,
		logger: logger,
		now:    time.Now,
	}
}

// RecordSale validates the bill, then decrements stock line by line in input
// order and stores an immutable snapshot of the sale.
func (s *ledgerService) RecordSale(ctx context.Context, input SaleInput) (*domain.Sale, error) {
	if len(input.Items) == 0 {
		return nil, &Error{Kind: KindEmptyCart, Message: "no items in sale"}
	}

	paymentMethod := input.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = domain.PaymentCash
	}
	if !paymentMethod.Valid() {
		return nil, validation("unknown payment method %q", paymentMethod)
	}

	totalAmount := decimal.Zero
	for i, line := range input.Items {
		if err := checkLine(i, line.Quantity, "price", line.UnitPrice); err != nil {
			return nil, err
		}
		totalAmount = totalAmount.Add(lineTotal(line.Quantity, line.UnitPrice))
	}
	if err := checkMoney("sale total", totalAmount); err != nil {
		return nil, err
	}

	if err := checkMoney("discount", input.Discount); err != nil {
		return nil, err
	}
	if input.Discount.GreaterThan(totalAmount) {
		return nil, validation("discount %s exceeds sale total %s", input.Discount, totalAmount)
	}

	sale := &domain.Sale{
		ID:            uuid.New(),
		CustomerName:  input.CustomerName,
		Items:         make([]domain.SaleItem, 0, len(input.Items)),
		TotalAmount:   totalAmount,
		Discount:      input.Discount,
		FinalAmount:   totalAmount.Sub(input.Discount),
		PaymentMethod: paymentMethod,
		CreatedBy:     input.ActorID,
	}
	if input.ActorID != nil {
		actor, err := s.repos.Users.FindByID(ctx, *input.ActorID)
		if err != nil {
			s.logger.Warn("Failed to resolve sale creator", zap.String("user_id", input.ActorID.String()), zap.Error(err))
		} else {
			sale.CreatedByName = actor.Name
		}
	}

	err := s.commit(ctx, len(input.Items),
		func(repos repository.Repositories, i int) error {
			item, err := s.sellLine(ctx, repos.Products, input.Items[i])
			if err != nil {
				return err
			}
			sale.Items = append(sale.Items, *item)
			return nil
		},
		func(repos repository.Repositories) error {
			return repos.Sales.Create(ctx, sale)
		},
	)
	if err != nil {
		return nil, s.ledgerError("failed to record sale", err)
	}

	s.logger.Info("Sale recorded",
		zap.String("sale_id", sale.ID.String()),
		zap.Int("items", len(sale.Items)),
		zap.String("final_amount", sale.FinalAmount.String()),
	)
	return sale, nil
}

// sellLine checks availability against a fresh (locked, in atomic mode) read
// of the product and then decrements its stock.
func (s *ledgerService) sellLine(ctx context.Context, products repository.ProductRepository, line SaleLineInput) (*domain.SaleItem, error) {
	product, err := products.FindByIDForUpdate(ctx, line.ProductID)
	if err != nil {
		return nil, productLookupError(line.ProductID, err)
	}

	if product.Stock < line.Quantity {
		return nil, insufficientStock(product.ID, product.Name, line.Quantity, product.Stock, nil)
	}

	if _, err := products.AdjustStock(ctx, product.ID, -line.Quantity); err != nil {
		var shortfall *repository.StockShortfallError
		if errors.As(err, &shortfall) {
			return nil, insufficientStock(product.ID, shortfall.Name, line.Quantity, shortfall.Available, err)
		}
		return nil, productLookupError(line.ProductID, err)
	}

	return &domain.SaleItem{
		ProductID: product.ID,
		Name:      product.Name,
		Quantity:  line.Quantity,
		Price:     line.UnitPrice,
		CostPrice: product.CostPrice,
		Total:     lineTotal(line.Quantity, line.UnitPrice),
	}, nil
}

// RecordPurchase increments stock line by line in input order and stores an
// immutable snapshot of the purchase. Totals are always recomputed.
func (s *ledgerService) RecordPurchase(ctx context.Context, input PurchaseInput) (*domain.Purchase, error) {
	if len(input.Items) == 0 {
		return nil, &Error{Kind: KindEmptyCart, Message: "no items in purchase"}
	}

	purchase := &domain.Purchase{
		ID:           uuid.New(),
		SupplierName: input.SupplierName,
		Items:        make([]domain.PurchaseItem, 0, len(input.Items)),
		TotalAmount:  decimal.Zero,
		Date:         s.now(),
	}
	if input.Date != nil && !input.Date.IsZero() {
		purchase.Date = *input.Date
	}

	for i, line := range input.Items {
		if err := checkLine(i, line.Quantity, "cost price", line.CostPrice); err != nil {
			return nil, err
		}
		purchase.TotalAmount = purchase.TotalAmount.Add(lineTotal(line.Quantity, line.CostPrice))
	}
	if err := checkMoney("purchase total", purchase.TotalAmount); err != nil {
		return nil, err
	}

	if input.TotalAmount != nil {
		if err := checkMoney("total amount", *input.TotalAmount); err != nil {
			return nil, err
		}
	}
	if input.TotalAmount != nil && !input.TotalAmount.Equal(purchase.TotalAmount) {
		return nil, validation("total amount %s does not match item total %s", input.TotalAmount, purchase.TotalAmount)
	}

	err := s.commit(ctx, len(input.Items),
		func(repos repository.Repositories, i int) error {
			line := input.Items[i]
			product, err := repos.Products.AdjustStock(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return productLookupError(line.ProductID, err)
			}
			purchase.Items = append(purchase.Items, domain.PurchaseItem{
				ProductID: line.ProductID,
				Name:      product.Name,
				Quantity:  line.Quantity,
				CostPrice: line.CostPrice,
				Total:     lineTotal(line.Quantity, line.CostPrice),
			})
			return nil
		},
		func(repos repository.Repositories) error {
			return repos.Purchases.Create(ctx, purchase)
		},
	)
	if err != nil {
		return nil, s.ledgerError("failed to record purchase", err)
	}

	s.logger.Info("Purchase recorded",
		zap.String("purchase_id", purchase.ID.String()),
		zap.Int("items", len(purchase.Items)),
		zap.String("total_amount", purchase.TotalAmount.String()),
	)
	return purchase, nil
}

// commit runs applyLine for lines 0..n-1 in order and then record, either
// inside one transaction or line by line depending on the commit mode.
func (s *ledgerService) commit(
	ctx context.Context,
	n int,
	applyLine func(repos repository.Repositories, i int) error,
	record func(repos repository.Repositories) error,
) error {
	if s.mode == CommitPerLine {
		for i := 0; i < n; i++ {
			if err := applyLine(s.repos, i); err != nil {
				return withApplied(err, i)
			}
		}
		// The record spans several statements, so it commits as a unit even
		// when the stock changes do not.
		if err := s.tx.WithinTx(ctx, record); err != nil {
			return withApplied(internal("failed to store ledger record", err), n)
		}
		return nil
	}

	return s.tx.WithinTx(ctx, func(repos repository.Repositories) error {
		for i := 0; i < n; i++ {
			if err := applyLine(repos, i); err != nil {
				return err
			}
		}
		if err := record(repos); err != nil {
			return internal("failed to store ledger record", err)
		}
		return nil
	})
}

func (s *ledgerService) ListSales(ctx context.Context) ([]*domain.Sale, error) {
	sales, err := s.repos.Sales.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list sales", zap.Error(err))
		return nil, internal("failed to list sales", err)
	}
	return sales, nil
}

func (s *ledgerService) GetSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	sale, err := s.repos.Sales.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSaleNotFound) {
			return nil, notFound("sale not found")
		}
		s.logger.Error("Failed to get sale", zap.String("sale_id", id.String()), zap.Error(err))
		return nil, internal("failed to get sale", err)
	}
	return sale, nil
}

func (s *ledgerService) ListPurchases(ctx context.Context) ([]*domain.Purchase, error) {
	purchases, err := s.repos.Purchases.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list purchases", zap.Error(err))
		return nil, internal("failed to list purchases", err)
	}
	return purchases, nil
}

func (s *ledgerService) GetPurchase(ctx context.Context, id uuid.UUID) (*domain.Purchase, error) {
	purchase, err := s.repos.Purchases.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPurchaseNotFound) {
			return nil, notFound("purchase not found")
		}
		s.logger.Error("Failed to get purchase", zap.String("purchase_id", id.String()), zap.Error(err))
		return nil, internal("failed to get purchase", err)
	}
	return purchase, nil
}

// ledgerError logs err at a level matching its kind and makes sure the
// caller always receives a typed *Error.
func (s *ledgerService) ledgerError(message string, err error) error {
	var svcErr *Error
	if !errors.As(err, &svcErr) {
		svcErr = internal(message, err)
	}

	fields := []zap.Field{
		zap.String("kind", string(svcErr.Kind)),
		zap.String("commit_mode", string(s.mode)),
		zap.Int("applied_lines", svcErr.Applied),
	}
	if svcErr.Kind == KindInternal {
		s.logger.Error(message, append(fields, zap.Error(err))...)
	} else {
		s.logger.Warn(message, append(fields, zap.String("reason", svcErr.Message))...)
	}
	return svcErr
}

func productLookupError(id uuid.UUID, err error) error {
	if errors.Is(err, repository.ErrProductNotFound) {
		return &Error{
			Kind:      KindNotFound,
			Message:   "product not found: " + id.String(),
			ProductID: id,
		}
	}
	if errors.Is(err, repository.ErrValueOutOfRange) {
		return &Error{
			Kind:      KindValidation,
			Message:   "stock out of range for product " + id.String(),
			ProductID: id,
			Err:       err,
		}
	}
	return internal("failed to update product stock", err)
}

func insufficientStock(id uuid.UUID, name string, requested, available int, cause error) *Error {
	return &Error{
		Kind:        KindInsufficientStock,
		Message:     fmt.Sprintf("insufficient stock for %s. Available: %d", name, available),
		ProductID:   id,
		ProductName: name,
		Requested:   requested,
		Available:   available,
		Err:         cause,
	}
}

func withApplied(err error, applied int) error {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		svcErr.Applied = applied
		return svcErr
	}
	return &Error{Kind: KindInternal, Message: "ledger operation failed", Applied: applied, Err: err}
}

// checkLine validates the quantity and unit amount of the line at index i,
// including that their product still fits a stored money column.
func checkLine(i, quantity int, field string, amount decimal.Decimal) *Error {
	if quantity <= 0 {
		return validation("item %d: quantity must be greater than 0", i+1)
	}
	if err := checkQuantity(fmt.Sprintf("item %d: quantity", i+1), quantity); err != nil {
		return err
	}
	if err := checkMoney(fmt.Sprintf("item %d: %s", i+1, field), amount); err != nil {
		return err
	}
	return checkMoney(fmt.Sprintf("item %d: total", i+1), lineTotal(quantity, amount))
}

func lineTotal(quantity int, price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}
