package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/retailops/core/internal/domain/shared"
	"github.com/retailops/core/internal/domain/staff"
)

// Aggregate type constant
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderCreated         = "OrderCreated"
	EventTypeOrderPaymentRecorded = "OrderPaymentRecorded"
	EventTypeOrderStatusAdvanced  = "OrderStatusAdvanced"
)

// OrderCreatedEvent is raised when a new order is created
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	ReceiptID    string          `json:"receipt_id"`
	CustomerName string          `json:"customer_name"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	ItemCount    int             `json:"item_count"`
	Attendee     staff.Ref       `json:"attendee"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypeOrder, o.ID),
		ReceiptID:       o.ReceiptID,
		CustomerName:    o.Customer.Name,
		TotalAmount:     o.TotalAmount,
		ItemCount:       len(o.Items),
		Attendee:        o.Attendee,
	}
}

// OrderPaymentRecordedEvent is raised when a payment is appended to the history
type OrderPaymentRecordedEvent struct {
	shared.BaseDomainEvent
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"method"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	BalanceAmount decimal.Decimal `json:"balance_amount"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	RecordedBy    staff.Ref       `json:"recorded_by"`
	RecordedAt    time.Time       `json:"recorded_at"`
}

// NewOrderPaymentRecordedEvent creates a new OrderPaymentRecordedEvent
func NewOrderPaymentRecordedEvent(o *Order, record PaymentRecord) *OrderPaymentRecordedEvent {
	return &OrderPaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPaymentRecorded, AggregateTypeOrder, o.ID),
		Amount:          record.Amount,
		Method:          record.Method,
		PaidAmount:      o.PaidAmount,
		BalanceAmount:   o.BalanceAmount,
		PaymentStatus:   o.PaymentStatus,
		RecordedBy:      record.RecordedBy,
		RecordedAt:      record.RecordedAt,
	}
}

// OrderStatusAdvancedEvent is raised whenever the fulfillment status changes,
// including the cancelled/refunded escapes
type OrderStatusAdvancedEvent struct {
	shared.BaseDomainEvent
	ReceiptID      string `json:"receipt_id"`
	PreviousStatus Status `json:"previous_status"`
	NewStatus      Status `json:"new_status"`
}

// NewOrderStatusAdvancedEvent creates a new OrderStatusAdvancedEvent
func NewOrderStatusAdvancedEvent(o *Order, previous Status) *OrderStatusAdvancedEvent {
	return &OrderStatusAdvancedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusAdvanced, AggregateTypeOrder, o.ID),
		ReceiptID:       o.ReceiptID,
		PreviousStatus:  previous,
		NewStatus:       o.Status,
	}
}
