package order

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/desoftlabs/babyshop/internal/domain"
	"github.com/desoftlabs/babyshop/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(domain.Tables...))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, id int64, name string, price float64, stock int) {
	t.Helper()
	require.NoError(t, db.Create(&domain.Product{
		ID:    id,
		Name:  name,
		Price: price,
		Stock: stock,
		Size:  "NB",
		Count: "30",
	}).Error)
}

func validRequest(items ...CheckoutItem) *PlaceOrderRequest {
	total := 0.0
	for _, item := range items {
		total += float64(item.Quantity) * 100
	}
	if total == 0 {
		total = 100
	}
	return &PlaceOrderRequest{
		CustomerInfo: domain.CustomerInfo{
			Name:    "Asha",
			Phone:   "9900112233",
			Address: "12 MG Road",
		},
		Delivery:      domain.DeliveryInfo{Date: "2026-09-01", Comment: "morning"},
		PaymentMethod: "cod",
		CartItems:     items,
		TotalAmount:   total,
	}
}

func productStock(t *testing.T, db *gorm.DB, id int64) int {
	t.Helper()
	var p domain.Product
	require.NoError(t, db.First(&p, id).Error)
	return p.Stock
}

func orderCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&domain.Order{}).Count(&n).Error)
	return n
}

func TestPlaceOrderSuccess(t *testing.T) {
	db := setupDB(t)
	seedProduct(t, db, 1001, "Diaper Pack", 399, 10)
	svc := NewService(db, nil)

	require.NoError(t, db.Create(&domain.CartItem{
		ID: 1, UserId: "u1", ProductId: 1001, Quantity: 2,
	}).Error)

	o, err := svc.PlaceOrder(context.Background(), "u1", validRequest(
		CheckoutItem{ProductId: 1001, Quantity: 2},
	))
	require.NoError(t, err)

	assert.Regexp(t, `^ORD-\d+-[0-9a-z]{9}$`, o.OrderId)
	assert.Equal(t, domain.OrderStatusPending, o.Status)
	assert.Equal(t, "u1", o.UserId)
	require.Len(t, o.Items, 1)
	assert.Equal(t, int64(1001), o.Items[0].ProductId)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.Equal(t, 399.0, o.Items[0].Price)

	assert.Equal(t, 8, productStock(t, db, 1001))

	var cartRows int64
	require.NoError(t, db.Model(&domain.CartItem{}).Where("user_id = ?", "u1").Count(&cartRows).Error)
	assert.Zero(t, cartRows, "cart should be cleared after placement")
}

func TestPlaceOrderTotalMatchesLineItems(t *testing.T) {
	db := setupDB(t)
	seedProduct(t, db, 2001, "Baby Wipes", 75, 10)
	svc := NewService(db, nil)

	req := validRequest(CheckoutItem{ProductId: 2001, Quantity: 2})
	req.TotalAmount = 150

	o, err := svc.PlaceOrder(context.Background(), "u1", req)
	require.NoError(t, err)

	sum := 0.0
	for _, item := range o.Items {
		sum += item.Price * float64(item.Quantity)
	}
	assert.Equal(t, req.TotalAmount, sum, "line items should add up to the submitted total")
	assert.Equal(t, req.TotalAmount, o.TotalAmount)
}

func TestPlaceOrderValidation(t *testing.T) {
	db := setupDB(t)
	seedProduct(t, db, 1001, "Diaper Pack", 399, 10)
	svc := NewService(db, nil)

	cases := []struct {
		name   string
		mutate func(*PlaceOrderRequest)
		errMsg string
	}{
		{"missing customer info", func(r *PlaceOrderRequest) { r.CustomerInfo.Phone = "" },
			"Customer information is required"},
		{"missing delivery date", func(r *PlaceOrderRequest) { r.Delivery.Date = "" },
			"Delivery date required"},
		{"unparseable delivery date", func(r *PlaceOrderRequest) { r.Delivery.Date = "not-a-date" },
			"Valid delivery date required"},
		{"empty cart", func(r *PlaceOrderRequest) { r.CartItems = nil },
			"Cart is empty"},
		{"missing payment method", func(r *PlaceOrderRequest) { r.PaymentMethod = " " },
			"Payment method is required"},
		{"non-positive total", func(r *PlaceOrderRequest) { r.TotalAmount = 0 },
			"Valid total amount is required"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest(CheckoutItem{ProductId: 1001, Quantity: 1})
			tc.mutate(req)

			_, err := svc.PlaceOrder(context.Background(), "u1", req)
			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.errMsg, verr.Error())
		})
	}

	assert.Zero(t, orderCount(t, db), "no rejected order may persist")
	assert.Equal(t, 10, productStock(t, db, 1001), "stock must be untouched")
}

func TestPlaceOrderUnknownProduct(t *testing.T) {
	db := setupDB(t)
	seedProduct(t, db, 1001, "Diaper Pack", 399, 10)
	svc := NewService(db, nil)

	_, err := svc.PlaceOrder(context.Background(), "u1", validRequest(
		CheckoutItem{ProductId: 1001, Quantity: 1},
		CheckoutItem{ProductId: 4242, Quantity: 1},
	))
	require.Error(t, err)
	var nfe *NotFoundError
	require.ErrorAs(t, err, &nfe)

	assert.Zero(t, orderCount(t, db))
	assert.Equal(t, 10, productStock(t, db, 1001), "partial decrement must roll back")
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	db := setupDB(t)
	seedProduct(t, db, 1001, "Feeding Bottle", 299, 1)
	svc := NewService(db, nil)

	require.NoError(t, db.Create(&domain.CartItem{
		ID: 1, UserId: "u1", ProductId: 1001, Quantity: 2,
	}).Error)

	_, err := svc.PlaceOrder(context.Background(), "u1", validRequest(
		CheckoutItem{ProductId: 1001, Quantity: 2},
	))
	require.Error(t, err)

	var ise *InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "Feeding Bottle", ise.ProductName)
	assert.Equal(t, 1, ise.Available)
	assert.Equal(t, 2, ise.Requested)
	assert.Equal(t, "Insufficient stock for Feeding Bottle. Available: 1, Requested: 2", ise.Error())

	assert.Zero(t, orderCount(t, db))
	assert.Equal(t, 1, productStock(t, db, 1001))

	var cartRows int64
	require.NoError(t, db.Model(&domain.CartItem{}).Where("user_id = ?", "u1").Count(&cartRows).Error)
	assert.Equal(t, int64(1), cartRows, "rejected placement must not clear the cart")
}

func TestDecrementStockGuard(t *testing.T) {
	db := setupDB(t)
	seedProduct(t, db, 1001, "Wipes", 149, 10)
	repo := NewGormProductRepository(db)

	affected, err := repo.DecrementStock(context.Background(), 1001, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.Equal(t, 3, productStock(t, db, 1001))

	// Guard rejects the decrement that would go negative.
	affected, err = repo.DecrementStock(context.Background(), 1001, 4)
	require.NoError(t, err)
	assert.Zero(t, affected)
	assert.Equal(t, 3, productStock(t, db, 1001))
}

func TestPlaceOrderUniqueOrderIds(t *testing.T) {
	db := setupDB(t)
	seedProduct(t, db, 1001, "Diaper Pack", 399, 100)
	svc := NewService(db, nil)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		o, err := svc.PlaceOrder(context.Background(), "u1", validRequest(
			CheckoutItem{ProductId: 1001, Quantity: 1},
		))
		require.NoError(t, err)
		assert.False(t, seen[o.OrderId], "order id %s repeated", o.OrderId)
		seen[o.OrderId] = true
	}
}

func TestUserOrdersNewestFirstAndStable(t *testing.T) {
	db := setupDB(t)
	seedProduct(t, db, 1001, "Diaper Pack", 399, 100)
	svc := NewService(db, nil)

	var placed []string
	for i := 0; i < 3; i++ {
		o, err := svc.PlaceOrder(context.Background(), "u1", validRequest(
			CheckoutItem{ProductId: 1001, Quantity: 1},
		))
		require.NoError(t, err)
		placed = append(placed, o.OrderId)
		// created_at must differ for a deterministic sort
		require.NoError(t, db.Model(&domain.Order{}).Where("order_id = ?", o.OrderId).
			Update("created_at", time.Now().Add(time.Duration(i)*time.Second)).Error)
	}

	first, err := svc.UserOrders(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, placed[2], first[0].OrderId)
	assert.Equal(t, placed[0], first[2].OrderId)

	for _, o := range first {
		require.Len(t, o.Items, 1)
		require.NotNil(t, o.Items[0].Product, "items must carry product detail")
		assert.Equal(t, "Diaper Pack", o.Items[0].Product.Name)
	}

	// Reading again without updates yields the identical sequence.
	second, err := svc.UserOrders(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, second, 3)
	for i := range first {
		assert.Equal(t, first[i].OrderId, second[i].OrderId)
		assert.Equal(t, first[i].Status, second[i].Status)
		assert.Equal(t, first[i].TotalAmount, second[i].TotalAmount)
	}
}

func TestUpdateStatus(t *testing.T) {
	db := setupDB(t)
	seedProduct(t, db, 1001, "Diaper Pack", 399, 100)

	bus := EventBus.New()
	var got []notify.StatusUpdateEvent
	require.NoError(t, bus.Subscribe(notify.TopicOrderStatus, func(evt notify.StatusUpdateEvent) {
		got = append(got, evt)
	}))

	svc := NewService(db, bus)
	o, err := svc.PlaceOrder(context.Background(), "u7", validRequest(
		CheckoutItem{ProductId: 1001, Quantity: 1},
	))
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(context.Background(), o.ID, domain.OrderStatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, updated.Status)

	require.Len(t, got, 1)
	assert.Equal(t, "u7", got[0].UserId)
	assert.Equal(t, o.ID, got[0].OrderId)
	assert.Equal(t, o.OrderId, got[0].OrderNumber)
	assert.Equal(t, domain.OrderStatusProcessing, got[0].NewStatus)
	require.NotNil(t, got[0].Order)

	// Every enumerated status is accepted, from any other status.
	for _, status := range domain.ValidOrderStatuses {
		_, err := svc.UpdateStatus(context.Background(), o.ID, status)
		require.NoError(t, err, "status %s must be accepted", status)
	}
}

func TestUpdateStatusRejectsUnknown(t *testing.T) {
	db := setupDB(t)
	seedProduct(t, db, 1001, "Diaper Pack", 399, 100)
	svc := NewService(db, nil)

	o, err := svc.PlaceOrder(context.Background(), "u1", validRequest(
		CheckoutItem{ProductId: 1001, Quantity: 1},
	))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), o.ID, "shipped")
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	var stored domain.Order
	require.NoError(t, db.First(&stored, o.ID).Error)
	assert.Equal(t, domain.OrderStatusPending, stored.Status, "rejected update must not change the order")
}

func TestUpdateStatusMissingOrder(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db, nil)

	_, err := svc.UpdateStatus(context.Background(), 12345, domain.OrderStatusDelivered)
	require.Error(t, err)
	var nfe *NotFoundError
	require.ErrorAs(t, err, &nfe)
}

func TestOrderStats(t *testing.T) {
	db := setupDB(t)
	seedProduct(t, db, 1001, "Diaper Pack", 100, 100)
	svc := NewService(db, nil)

	var ids []int64
	for i := 0; i < 4; i++ {
		o, err := svc.PlaceOrder(context.Background(), "u1", validRequest(
			CheckoutItem{ProductId: 1001, Quantity: 1},
		))
		require.NoError(t, err)
		ids = append(ids, o.ID)
	}

	// Two delivered, one cancelled, one left pending.
	_, err := svc.UpdateStatus(context.Background(), ids[0], domain.OrderStatusDelivered)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), ids[1], domain.OrderStatusDelivered)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), ids[2], domain.OrderStatusCancelled)
	require.NoError(t, err)

	stats, err := svc.OrderStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalOrders)
	assert.Equal(t, int64(2), stats.DeliveredOrders)
	assert.InDelta(t, 200.0, stats.TotalSales, 0.001, "only delivered orders count toward sales")
	assert.InDelta(t, 100.0, stats.AverageOrderValue, 0.001)
}

func TestGetByOrderNumber(t *testing.T) {
	db := setupDB(t)
	seedProduct(t, db, 1001, "Diaper Pack", 399, 100)
	svc := NewService(db, nil)

	o, err := svc.PlaceOrder(context.Background(), "u1", validRequest(
		CheckoutItem{ProductId: 1001, Quantity: 1},
	))
	require.NoError(t, err)

	found, err := svc.GetByOrderNumber(context.Background(), o.OrderId)
	require.NoError(t, err)
	assert.Equal(t, o.ID, found.ID)

	_, err = svc.GetByOrderNumber(context.Background(), "ORD-0-missing00")
	var nfe *NotFoundError
	require.ErrorAs(t, err, &nfe)
}
