// Package notify owns the real-time order notification channel: an
// in-process event bus bridged to per-user websocket rooms, plus the
// best-effort outbound channels to store operations.
package notify

import (
	"context"

	"github.com/desoftlabs/babyshop/internal/domain"
)

// TopicOrderStatus is the event bus topic carrying order status changes
// from the order service to the websocket hub.
const TopicOrderStatus = "order:status:updated"

// StatusUpdateEvent is published when an admin changes an order's status.
// It is addressed to the room of the order's owning user.
type StatusUpdateEvent struct {
	UserId      string        `json:"-"`
	OrderId     int64         `json:"orderId,string"`
	OrderNumber string        `json:"orderNumber"`
	NewStatus   string        `json:"newStatus"`
	Order       *domain.Order `json:"order"`
}

// OrderNotifier delivers an outbound order notification to store
// operations. Implementations are best-effort: callers log and ignore
// returned errors.
type OrderNotifier interface {
	NotifyOrder(ctx context.Context, order *domain.Order) error
}
