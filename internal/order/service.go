package order

import (
	"context"
	"errors"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/asaskevich/EventBus"
	"github.com/desoftlabs/babyshop/internal/domain"
	"github.com/desoftlabs/babyshop/internal/notify"
	"github.com/desoftlabs/babyshop/pkg/common"
	"github.com/desoftlabs/babyshop/pkg/metrics"
	"github.com/montanaflynn/stats"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CheckoutItem is one cart line submitted at checkout.
type CheckoutItem struct {
	ProductId int64  `json:"productId,string"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	Count     string `json:"count"`
}

// PlaceOrderRequest is the checkout payload.
type PlaceOrderRequest struct {
	CustomerInfo  domain.CustomerInfo `json:"customerInfo"`
	Delivery      domain.DeliveryInfo `json:"delivery"`
	PaymentMethod string              `json:"paymentMethod"`
	CartItems     []CheckoutItem      `json:"cartItems"`
	TotalAmount   float64             `json:"totalAmount"`
}

// Stats aggregates the admin dashboard numbers. TotalSales sums the
// totalAmount of delivered orders only.
type Stats struct {
	TotalOrders       int64   `json:"totalOrders"`
	DeliveredOrders   int64   `json:"deliveredOrders"`
	TotalSales        float64 `json:"totalSales"`
	AverageOrderValue float64 `json:"averageOrderValue"`
}

// Service implements order placement, status queries and the admin status
// update path.
type Service struct {
	db          *gorm.DB
	orderRepo   OrderRepository
	productRepo ProductRepository
	cartRepo    CartRepository
	bus         EventBus.Bus
	notifiers   []notify.OrderNotifier
}

// NewService wires the order service. bus may be nil (no push channel);
// notifiers are best-effort outbound channels.
func NewService(db *gorm.DB, bus EventBus.Bus, notifiers ...notify.OrderNotifier) *Service {
	return &Service{
		db:          db,
		orderRepo:   NewGormOrderRepository(db),
		productRepo: NewGormProductRepository(db),
		cartRepo:    NewGormCartRepository(db),
		bus:         bus,
		notifiers:   notifiers,
	}
}

func (s *Service) validatePlacement(req *PlaceOrderRequest) error {
	ci := req.CustomerInfo
	if strings.TrimSpace(ci.Name) == "" || strings.TrimSpace(ci.Phone) == "" || strings.TrimSpace(ci.Address) == "" {
		return validationErrorf("Customer information is required")
	}
	if strings.TrimSpace(req.Delivery.Date) == "" {
		return validationErrorf("Delivery date required")
	}
	if _, err := dateparse.ParseAny(req.Delivery.Date); err != nil {
		return validationErrorf("Valid delivery date required")
	}
	if len(req.CartItems) == 0 {
		return validationErrorf("Cart is empty")
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return validationErrorf("Payment method is required")
	}
	if req.TotalAmount <= 0 {
		return validationErrorf("Valid total amount is required")
	}
	return nil
}

// PlaceOrder converts a checkout payload into a persisted order. The stock
// check, order insert, conditional stock decrements and cart wipe run in
// one transaction so a rejected item leaves no partial state behind.
func (s *Service) PlaceOrder(ctx context.Context, userId string, req *PlaceOrderRequest) (*domain.Order, error) {
	if strings.TrimSpace(userId) == "" {
		return nil, validationErrorf("User id is required")
	}
	if err := s.validatePlacement(req); err != nil {
		return nil, err
	}

	newOrder := &domain.Order{
		ID:            common.UUIDint64(),
		OrderId:       common.GenerateOrderID(),
		UserId:        userId,
		CustomerInfo:  req.CustomerInfo,
		Delivery:      req.Delivery,
		PaymentMethod: req.PaymentMethod,
		TotalAmount:   req.TotalAmount,
		Status:        domain.OrderStatusPending,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		productRepo := NewGormProductRepository(tx)
		orderRepo := NewGormOrderRepository(tx)
		cartRepo := NewGormCartRepository(tx)

		// Check pass: resolve every product and verify stock before any
		// mutation, so the caller gets the first offending item.
		products := make(map[int64]*domain.Product, len(req.CartItems))
		for _, item := range req.CartItems {
			if item.Quantity < 1 {
				return validationErrorf("Valid quantity is required")
			}
			product, err := productRepo.GetByID(ctx, item.ProductId)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundErrorf("Product %d not found", item.ProductId)
			} else if err != nil {
				return err
			}
			if product.Stock < item.Quantity {
				return &InsufficientStockError{
					ProductName: product.Name,
					Available:   product.Stock,
					Requested:   item.Quantity,
				}
			}
			products[product.ID] = product

			size := item.Size
			if size == "" {
				size = product.Size
			}
			if size == "" {
				size = "NB"
			}
			count := item.Count
			if count == "" {
				count = product.Count
			}
			if count == "" {
				count = "1"
			}
			newOrder.Items = append(newOrder.Items, domain.OrderItem{
				ProductId: product.ID,
				Quantity:  item.Quantity,
				Price:     product.Price,
				Size:      size,
				Count:     count,
			})
		}

		if err := orderRepo.Create(ctx, newOrder); err != nil {
			return err
		}

		// Mutation pass: conditional decrements; a concurrent checkout can
		// still win the race, in which case the guard aborts this order.
		for _, item := range req.CartItems {
			affected, err := productRepo.DecrementStock(ctx, item.ProductId, item.Quantity)
			if err != nil {
				return err
			}
			if affected == 0 {
				product := products[item.ProductId]
				metrics.IncrCounter("orders_stock_conflict", 1)
				return &InsufficientStockError{
					ProductName: product.Name,
					Available:   product.Stock,
					Requested:   item.Quantity,
				}
			}
		}

		if err := cartRepo.DeleteByUser(ctx, userId); err != nil {
			// A surviving cart row is an annoyance, not a broken order.
			zap.L().Warn("order: failed to clear cart after placement",
				zap.String("user_id", userId), zap.Error(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncrCounter("orders_placed", 1)
	zap.L().Info("order: placed",
		zap.String("order", newOrder.OrderId),
		zap.String("user_id", userId),
		zap.Float64("total", newOrder.TotalAmount))

	s.notifyStoreOps(newOrder)

	return newOrder, nil
}

// notifyStoreOps pushes the new order to the configured outbound channels.
// Failures are logged and never surfaced to the placing customer.
func (s *Service) notifyStoreOps(o *domain.Order) {
	for _, n := range s.notifiers {
		notifier := n
		go func() {
			if err := notifier.NotifyOrder(context.Background(), o); err != nil {
				zap.L().Warn("order: store notification failed",
					zap.String("order", o.OrderId), zap.Error(err))
			}
		}()
	}
}

// UserOrders returns a user's orders, newest first, with line items
// resolved to current product detail.
func (s *Service) UserOrders(ctx context.Context, userId string) ([]*domain.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	return orders, s.resolveItems(ctx, orders)
}

// AllOrders returns every order system-wide, newest first, item-resolved.
func (s *Service) AllOrders(ctx context.Context) ([]*domain.Order, error) {
	orders, err := s.orderRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return orders, s.resolveItems(ctx, orders)
}

// GetByOrderNumber looks an order up by its human-readable number.
func (s *Service) GetByOrderNumber(ctx context.Context, orderId string) (*domain.Order, error) {
	o, err := s.orderRepo.GetByOrderId(ctx, orderId)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundErrorf("Order not found")
	} else if err != nil {
		return nil, err
	}
	orders := []*domain.Order{o}
	return o, s.resolveItems(ctx, orders)
}

// OrderStats computes the admin dashboard aggregate.
func (s *Service) OrderStats(ctx context.Context) (*Stats, error) {
	total, err := s.orderRepo.Count(ctx, "")
	if err != nil {
		return nil, err
	}
	delivered, err := s.orderRepo.Count(ctx, domain.OrderStatusDelivered)
	if err != nil {
		return nil, err
	}
	totals, err := s.orderRepo.TotalsByStatus(ctx, domain.OrderStatusDelivered)
	if err != nil {
		return nil, err
	}

	result := &Stats{TotalOrders: total, DeliveredOrders: delivered}
	if len(totals) > 0 {
		if sum, err := stats.Sum(totals); err == nil {
			result.TotalSales = sum
		}
		if mean, err := stats.Mean(totals); err == nil {
			result.AverageOrderValue = mean
		}
	}
	return result, nil
}

// UpdateStatus transitions an order to any of the enumerated statuses and
// publishes the change to the owning user's notification room. There is no
// transition graph: any status may move to any other.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*domain.Order, error) {
	if !domain.IsValidOrderStatus(status) {
		return nil, validationErrorf("Invalid status. Must be one of: %s",
			strings.Join(domain.ValidOrderStatuses, ", "))
	}

	o, err := s.orderRepo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundErrorf("Order not found")
	} else if err != nil {
		return nil, err
	}

	if err := s.orderRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	o, err = s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.resolveItems(ctx, []*domain.Order{o}); err != nil {
		zap.L().Warn("order: item resolution failed after status update", zap.Error(err))
	}

	zap.L().Info("order: status updated",
		zap.String("order", o.OrderId),
		zap.String("status", status),
		zap.String("user_id", o.UserId))

	// Push is best-effort; polling is the correctness fallback.
	if s.bus != nil {
		s.bus.Publish(notify.TopicOrderStatus, notify.StatusUpdateEvent{
			UserId:      o.UserId,
			OrderId:     o.ID,
			OrderNumber: o.OrderId,
			NewStatus:   status,
			Order:       o,
		})
	}
	return o, nil
}

// resolveItems attaches current product detail to every line item of the
// given orders in one batch query. Items whose product was deleted keep a
// nil product.
func (s *Service) resolveItems(ctx context.Context, orders []*domain.Order) error {
	idSet := make(map[int64]struct{})
	for _, o := range orders {
		for _, item := range o.Items {
			idSet[item.ProductId] = struct{}{}
		}
	}
	if len(idSet) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	var products []*domain.Product
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return err
	}
	byID := make(map[int64]*domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	for _, o := range orders {
		for i := range o.Items {
			o.Items[i].Product = byID[o.Items[i].ProductId]
		}
	}
	return nil
}
