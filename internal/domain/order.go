package domain

import (
	"strings"
	"time"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusUnknown    OrderStatus = "unknown"
)

var validOrderStatuses = map[OrderStatus]bool{
	OrderStatusPending:    true,
	OrderStatusProcessing: true,
	OrderStatusShipped:    true,
	OrderStatusDelivered:  true,
	OrderStatusCancelled:  true,
}

// ParseOrderStatus maps a raw status onto a known status.
// Missing and unrecognised values map to unknown, which is never cancellable.
func ParseOrderStatus(raw string) OrderStatus {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	if status == "canceled" {
		return OrderStatusCancelled
	}
	if validOrderStatuses[status] {
		return status
	}
	return OrderStatusUnknown
}

// Cancellable reports whether the customer may cancel an order in this status
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending
}

// Order represents a placed order
type Order struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	Status      OrderStatus `json:"status"`
	TotalAmount float64     `json:"totalAmount"`
	CreatedAt   time.Time   `json:"createdAt"`
	Items       []OrderItem `json:"items"`
}

// OrderItem is a single line of an order with the product snapshot taken at purchase time
type OrderItem struct {
	ProductID string  `json:"productId"`
	Title     string  `json:"title"`
	Image     string  `json:"image,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}
