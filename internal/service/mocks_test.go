package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"shopkeeper/internal/domain"
	"shopkeeper/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory stand-in for the database shared by the fake
// repositories below
type memStore struct {
	mu        sync.Mutex
	txMu      sync.Mutex
	products  map[uuid.UUID]*domain.Product
	sales     []*domain.Sale
	purchases []*domain.Purchase
	expenses  []*domain.Expense
	users     map[string]*domain.User

	// failSaleCreate makes the next Sales.Create fail
	failSaleCreate error
	// failSaleItems makes the next Sales.Create fail after the sale header
	// has been written, like a failed item insert
	failSaleItems error
}

func newMemStore() *memStore {
	return &memStore{
		products: make(map[uuid.UUID]*domain.Product),
		users:    make(map[string]*domain.User),
	}
}

func (s *memStore) repos() repository.Repositories {
	return repository.Repositories{
		Products:  &memProductRepository{store: s},
		Sales:     &memSaleRepository{store: s},
		Purchases: &memPurchaseRepository{store: s},
		Expenses:  &memExpenseRepository{store: s},
		Users:     &memUserRepository{store: s},
	}
}

func (s *memStore) addProduct(name, category string, costPrice, sellingPrice int64, stock, minStock int) *domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	product := &domain.Product{
		ID:           uuid.New(),
		Name:         name,
		Category:     category,
		Unit:         "piece",
		CostPrice:    decimal.NewFromInt(costPrice),
		SellingPrice: decimal.NewFromInt(sellingPrice),
		Stock:        stock,
		MinStock:     minStock,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	s.products[product.ID] = product
	copied := *product
	return &copied
}

func (s *memStore) stockOf(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Stock
}

func (s *memStore) removeProduct(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
}

// memTransactor emulates a database transaction by snapshotting the store
// and restoring it when fn fails
type memTransactor struct {
	store *memStore
}

func (t *memTransactor) WithinTx(ctx context.Context, fn func(repos repository.Repositories) error) error {
	t.store.txMu.Lock()
	defer t.store.txMu.Unlock()

	t.store.mu.Lock()
	products := make(map[uuid.UUID]domain.Product, len(t.store.products))
	for id, product := range t.store.products {
		products[id] = *product
	}
	sales := len(t.store.sales)
	purchases := len(t.store.purchases)
	t.store.mu.Unlock()

	if err := fn(t.store.repos()); err != nil {
		t.store.mu.Lock()
		t.store.products = make(map[uuid.UUID]*domain.Product, len(products))
		for id, product := range products {
			restored := product
			t.store.products[id] = &restored
		}
		t.store.sales = t.store.sales[:sales]
		t.store.purchases = t.store.purchases[:purchases]
		t.store.mu.Unlock()
		return err
	}
	return nil
}

type memProductRepository struct {
	store *memStore
}

func (r *memProductRepository) Create(ctx context.Context, product *domain.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt
	copied := *product
	r.store.products[product.ID] = &copied
	return nil
}

func (r *memProductRepository) Update(ctx context.Context, product *domain.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	existing, ok := r.store.products[product.ID]
	if !ok {
		return repository.ErrProductNotFound
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now()
	copied := *product
	r.store.products[product.ID] = &copied
	return nil
}

func (r *memProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(r.store.products, id)
	return nil
}

func (r *memProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	product, ok := r.store.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	copied := *product
	return &copied, nil
}

func (r *memProductRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return r.FindByID(ctx, id)
}

func (r *memProductRepository) List(ctx context.Context, keyword string) ([]*domain.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	products := []*domain.Product{}
	for _, product := range r.store.products {
		copied := *product
		products = append(products, &copied)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].CreatedAt.After(products[j].CreatedAt) })
	return products, nil
}

func (r *memProductRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*domain.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	product, ok := r.store.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	if product.Stock+delta > domain.MaxQuantity {
		return nil, repository.ErrValueOutOfRange
	}
	if product.Stock+delta < 0 {
		return nil, &repository.StockShortfallError{
			ProductID: id,
			Name:      product.Name,
			Available: product.Stock,
			Delta:     delta,
		}
	}
	product.Stock += delta
	copied := *product
	return &copied, nil
}

type memSaleRepository struct {
	store *memStore
}

func (r *memSaleRepository) Create(ctx context.Context, sale *domain.Sale) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.failSaleCreate; err != nil {
		r.store.failSaleCreate = nil
		return err
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now()
	}
	sale.UpdatedAt = sale.CreatedAt
	copied := *sale
	r.store.sales = append(r.store.sales, &copied)
	if err := r.store.failSaleItems; err != nil {
		r.store.failSaleItems = nil
		return err
	}
	return nil
}

func (r *memSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, sale := range r.store.sales {
		if sale.ID == id {
			return sale, nil
		}
	}
	return nil, repository.ErrSaleNotFound
}

func (r *memSaleRepository) List(ctx context.Context) ([]*domain.Sale, error) {
	return r.filter(func(*domain.Sale) bool { return true }), nil
}

func (r *memSaleRepository) ListBetween(ctx context.Context, start, end time.Time) ([]*domain.Sale, error) {
	return r.filter(func(sale *domain.Sale) bool {
		return !sale.CreatedAt.Before(start) && sale.CreatedAt.Before(end)
	}), nil
}

func (r *memSaleRepository) ListItems(ctx context.Context) ([]domain.SaleItem, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	items := []domain.SaleItem{}
	for _, sale := range r.store.sales {
		items = append(items, sale.Items...)
	}
	return items, nil
}

func (r *memSaleRepository) filter(keep func(*domain.Sale) bool) []*domain.Sale {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	sales := []*domain.Sale{}
	for i := len(r.store.sales) - 1; i >= 0; i-- {
		if keep(r.store.sales[i]) {
			sales = append(sales, r.store.sales[i])
		}
	}
	return sales
}

type memPurchaseRepository struct {
	store *memStore
}

func (r *memPurchaseRepository) Create(ctx context.Context, purchase *domain.Purchase) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	purchase.CreatedAt = time.Now()
	purchase.UpdatedAt = purchase.CreatedAt
	copied := *purchase
	r.store.purchases = append(r.store.purchases, &copied)
	return nil
}

func (r *memPurchaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Purchase, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, purchase := range r.store.purchases {
		if purchase.ID == id {
			return purchase, nil
		}
	}
	return nil, repository.ErrPurchaseNotFound
}

func (r *memPurchaseRepository) List(ctx context.Context) ([]*domain.Purchase, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	purchases := make([]*domain.Purchase, 0, len(r.store.purchases))
	for i := len(r.store.purchases) - 1; i >= 0; i-- {
		purchases = append(purchases, r.store.purchases[i])
	}
	return purchases, nil
}

type memExpenseRepository struct {
	store *memStore
}

func (r *memExpenseRepository) Create(ctx context.Context, expense *domain.Expense) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	expense.CreatedAt = time.Now()
	expense.UpdatedAt = expense.CreatedAt
	copied := *expense
	r.store.expenses = append(r.store.expenses, &copied)
	return nil
}

func (r *memExpenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Expense, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, expense := range r.store.expenses {
		if expense.ID == id {
			return expense, nil
		}
	}
	return nil, repository.ErrExpenseNotFound
}

func (r *memExpenseRepository) List(ctx context.Context) ([]*domain.Expense, error) {
	return r.ListSince(ctx, time.Time{})
}

func (r *memExpenseRepository) ListSince(ctx context.Context, since time.Time) ([]*domain.Expense, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	expenses := []*domain.Expense{}
	for _, expense := range r.store.expenses {
		if !expense.Date.Before(since) {
			expenses = append(expenses, expense)
		}
	}
	sort.Slice(expenses, func(i, j int) bool { return expenses[i].Date.After(expenses[j].Date) })
	return expenses, nil
}

func (r *memExpenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i, expense := range r.store.expenses {
		if expense.ID == id {
			r.store.expenses = append(r.store.expenses[:i], r.store.expenses[i+1:]...)
			return nil
		}
	}
	return repository.ErrExpenseNotFound
}

type memUserRepository struct {
	store *memStore
}

func (r *memUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	r.store.users[user.Email] = user
	return nil
}

func (r *memUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user, exists := r.store.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (r *memUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, user := range r.store.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}
