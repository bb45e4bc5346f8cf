package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Order statuses. Any status may transition to any other via the admin
// update path.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// ValidOrderStatuses enumerates the accepted order statuses in display order.
var ValidOrderStatuses = []string{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// IsValidOrderStatus reports whether s is one of the enumerated statuses.
func IsValidOrderStatus(s string) bool {
	for _, v := range ValidOrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// OrderItem snapshots one product line at purchase time. Price, size and
// count are copied in so later catalog edits do not alter past orders.
type OrderItem struct {
	ProductId int64   `json:"product_id,string"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Size      string  `json:"size"`
	Count     string  `json:"count"`

	// Product carries the current catalog detail when the order is read
	// back with item resolution; it is not persisted.
	Product *Product `json:"product,omitempty" gorm:"-"`
}

// OrderItems is stored as a JSON column.
type OrderItems []OrderItem

func (o OrderItems) Value() (driver.Value, error) {
	return json.Marshal(o)
}

func (o *OrderItems) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, o)
	case string:
		return json.Unmarshal([]byte(v), o)
	case nil:
		*o = nil
		return nil
	default:
		return fmt.Errorf("unsupported order items column type %T", src)
	}
}

// CustomerInfo is copied into the order at checkout, not referenced.
type CustomerInfo struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (c CustomerInfo) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *CustomerInfo) Scan(src interface{}) error {
	return scanJSON(src, c)
}

type DeliveryInfo struct {
	Date    string `json:"date"`
	Comment string `json:"comment,omitempty"`
}

func (d DeliveryInfo) Value() (driver.Value, error) {
	return json.Marshal(d)
}

func (d *DeliveryInfo) Scan(src interface{}) error {
	return scanJSON(src, d)
}

func scanJSON(src, dst interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
}

// Order is an immutable purchase snapshot; only Status is mutated after
// creation, via the admin update path.
type Order struct {
	ID            int64        `json:"id,string" form:"id"`
	OrderId       string       `gorm:"uniqueIndex;size:64" json:"order_id"`
	UserId        string       `gorm:"index;size:64" json:"user_id"`
	Items         OrderItems   `gorm:"type:text" json:"items"`
	CustomerInfo  CustomerInfo `gorm:"type:text" json:"customer_info"`
	Delivery      DeliveryInfo `gorm:"type:text" json:"delivery"`
	PaymentMethod string       `gorm:"size:32" json:"payment_method"`
	TotalAmount   float64      `json:"total_amount"`
	Status        string       `gorm:"index;size:16" json:"status"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func (Order) TableName() string {
	return "shop_order"
}
