package order

import (
	"context"

	"github.com/desoftlabs/babyshop/internal/domain"
	"gorm.io/gorm"
)

// ProductRepository handles product data access for order placement.
type ProductRepository interface {
	// GetByID retrieves a product by primary key
	GetByID(ctx context.Context, id int64) (*domain.Product, error)

	// DecrementStock atomically decreases stock by qty only when enough
	// stock remains. It returns the number of rows updated: zero means the
	// conditional guard rejected the decrement.
	DecrementStock(ctx context.Context, id int64, qty int) (int64, error)
}

// CartRepository handles cart rows owned by a user.
type CartRepository interface {
	// ListByUser retrieves all cart rows for a user
	ListByUser(ctx context.Context, userId string) ([]*domain.CartItem, error)

	// DeleteByUser removes every cart row for a user
	DeleteByUser(ctx context.Context, userId string) error
}

// OrderRepository handles persisted orders.
type OrderRepository interface {
	// Create inserts a new order
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by primary key
	GetByID(ctx context.Context, id int64) (*domain.Order, error)

	// GetByOrderId retrieves an order by its human-readable order number
	GetByOrderId(ctx context.Context, orderId string) (*domain.Order, error)

	// ListByUser retrieves a user's orders, newest first
	ListByUser(ctx context.Context, userId string) ([]*domain.Order, error)

	// ListAll retrieves all orders system-wide, newest first
	ListAll(ctx context.Context) ([]*domain.Order, error)

	// UpdateStatus sets the status field of one order
	UpdateStatus(ctx context.Context, id int64, status string) error

	// Count returns the number of orders, optionally restricted to a status
	Count(ctx context.Context, status string) (int64, error)

	// TotalsByStatus returns the totalAmount of every order in a status
	TotalsByStatus(ctx context.Context, status string) ([]float64, error)
}

// GormProductRepository is the GORM implementation of ProductRepository
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormProductRepository) DecrementStock(ctx context.Context, id int64, qty int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	return res.RowsAffected, res.Error
}

// GormCartRepository is the GORM implementation of CartRepository
type GormCartRepository struct {
	db *gorm.DB
}

func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

func (r *GormCartRepository) ListByUser(ctx context.Context, userId string) ([]*domain.CartItem, error) {
	var items []*domain.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userId).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *GormCartRepository) DeleteByUser(ctx context.Context, userId string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userId).
		Delete(&domain.CartItem{}).Error
}

// GormOrderRepository is the GORM implementation of OrderRepository
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *GormOrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	var o domain.Order
	err := r.db.WithContext(ctx).First(&o, id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormOrderRepository) GetByOrderId(ctx context.Context, orderId string) (*domain.Order, error) {
	var o domain.Order
	err := r.db.WithContext(ctx).Where("order_id = ?", orderId).First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormOrderRepository) ListByUser(ctx context.Context, userId string) ([]*domain.Order, error) {
	var orders []*domain.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userId).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *GormOrderRepository) ListAll(ctx context.Context) ([]*domain.Order, error) {
	var orders []*domain.Order
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *GormOrderRepository) Count(ctx context.Context, status string) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.Order{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Count(&count).Error
	return count, err
}

func (r *GormOrderRepository) TotalsByStatus(ctx context.Context, status string) ([]float64, error) {
	var totals []float64
	err := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("status = ?", status).
		Pluck("total_amount", &totals).Error
	return totals, err
}
