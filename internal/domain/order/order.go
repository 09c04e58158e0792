package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailops/core/internal/domain/shared"
	"github.com/retailops/core/internal/domain/shared/valueobject"
	"github.com/retailops/core/internal/domain/staff"
)

// DefaultMinimumPaymentPercentage is the share of the total that must be paid
// before fulfillment may begin while the payment is still partial.
const DefaultMinimumPaymentPercentage = 70

// Item represents a line item in an order. Unit price and name are snapshots
// taken at order-creation time; the total is never recomputed from the catalog.
type Item struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Amount      decimal.Decimal `json:"amount"` // UnitPrice * Quantity
}

// NewItem creates a new order line item
func NewItem(productID uuid.UUID, productName string, unitPrice valueobject.Money, quantity int) (Item, error) {
	if productID == uuid.Nil {
		return Item{}, shared.NewValidationError("Product ID cannot be empty")
	}
	if strings.TrimSpace(productName) == "" {
		return Item{}, shared.NewValidationError("Product name cannot be empty")
	}
	if unitPrice.IsNegative() {
		return Item{}, shared.NewValidationError("Unit price cannot be negative")
	}
	if quantity < 1 {
		return Item{}, shared.NewValidationError("Quantity must be at least 1")
	}

	return Item{
		ProductID:   productID,
		ProductName: productName,
		UnitPrice:   unitPrice.Amount(),
		Quantity:    quantity,
		Amount:      unitPrice.Amount().Mul(decimal.NewFromInt(int64(quantity))),
	}, nil
}

// GetAmountMoney returns the line amount as Money
func (i Item) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyNGN(i.Amount)
}

// Customer holds the customer details captured on the order
type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// DraftItem is a line item of an order draft before validation
type DraftItem struct {
	ProductID   uuid.UUID
	ProductName string
	UnitPrice   valueobject.Money
	Quantity    int
}

// Draft is the input for creating an order
type Draft struct {
	Customer                 Customer
	Items                    []DraftItem
	Attendee                 staff.Ref
	MinimumPaymentPercentage int // 0 means use the default
}

// Order represents the central order aggregate. It moves through the payment
// and fulfillment state machines and is only ever mutated through ApplyPatch.
type Order struct {
	shared.BaseAggregateRoot
	ReceiptID string   `json:"receipt_id"` // human-facing, assigned by the backend
	Customer  Customer `json:"customer"`
	Items     []Item   `json:"items"`

	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	BalanceAmount  decimal.Decimal `json:"balance_amount"` // TotalAmount - PaidAmount; negative means overpaid
	PaymentHistory []PaymentRecord `json:"payment_history"`

	MinimumPaymentPercentage int           `json:"minimum_payment_percentage"`
	PaymentStatus            PaymentStatus `json:"payment_status"`
	Status                   Status        `json:"status"`

	Attendee     staff.Ref `json:"attendee"`
	Receptionist staff.Ref `json:"receptionist,omitempty"`
	Packager     staff.Ref `json:"packager,omitempty"`
	Storekeeper  staff.Ref `json:"storekeeper,omitempty"`

	PaymentConfirmedAt *time.Time `json:"payment_confirmed_at,omitempty"`
	AssignedAt         *time.Time `json:"assigned_at,omitempty"`
	PackagingStartedAt *time.Time `json:"packaging_started_at,omitempty"`
	PackagedAt         *time.Time `json:"packaged_at,omitempty"`
	DeliveredAt        *time.Time `json:"delivered_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	RefundedAt         *time.Time `json:"refunded_at,omitempty"`
	Reason             string     `json:"reason,omitempty"` // cancellation/refund reason
}

// NewOrder validates a draft and creates an order with financial defaults.
// The local ID is provisional; the backend assigns the persisted identity and
// receipt number on creation.
func NewOrder(draft Draft) (*Order, error) {
	if strings.TrimSpace(draft.Customer.Name) == "" {
		return nil, shared.NewValidationError("Customer name cannot be blank")
	}
	if len(draft.Items) == 0 {
		return nil, shared.NewValidationError("Order must have at least one item")
	}
	if draft.Attendee.IsZero() {
		return nil, shared.NewValidationError("Order attendee is required")
	}
	minPct := draft.MinimumPaymentPercentage
	if minPct == 0 {
		minPct = DefaultMinimumPaymentPercentage
	}
	if minPct < 0 || minPct > 100 {
		return nil, shared.NewValidationError("Minimum payment percentage must be between 0 and 100")
	}

	items := make([]Item, 0, len(draft.Items))
	total := decimal.Zero
	for _, di := range draft.Items {
		item, err := NewItem(di.ProductID, di.ProductName, di.UnitPrice, di.Quantity)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		total = total.Add(item.Amount)
	}

	o := &Order{
		BaseAggregateRoot:        shared.NewBaseAggregateRoot(),
		Customer:                 draft.Customer,
		Items:                    items,
		TotalAmount:              total,
		PaidAmount:               decimal.Zero,
		BalanceAmount:            total,
		PaymentHistory:           make([]PaymentRecord, 0),
		MinimumPaymentPercentage: minPct,
		PaymentStatus:            PaymentStatusPending,
		Status:                   StatusPendingPayment,
		Attendee:                 draft.Attendee,
	}

	o.AddDomainEvent(NewOrderCreatedEvent(o))

	return o, nil
}

// Patch is a validated partial update produced by the payment engine or the
// fulfillment workflow. The ledger applies it atomically through ApplyPatch,
// the single mutation choke-point.
type Patch struct {
	Status        *Status
	PaymentStatus *PaymentStatus
	PaidAmount    *decimal.Decimal
	AppendPayment *PaymentRecord

	Receptionist *staff.Ref
	Packager     *staff.Ref
	Storekeeper  *staff.Ref

	PaymentConfirmedAt *time.Time
	AssignedAt         *time.Time
	PackagingStartedAt *time.Time
	PackagedAt         *time.Time
	DeliveredAt        *time.Time
	CompletedAt        *time.Time
	CancelledAt        *time.Time
	RefundedAt         *time.Time
	Reason             *string
}

// IsZero returns true if the patch carries no changes
func (p Patch) IsZero() bool {
	return p == Patch{}
}

// ApplyPatch merges the patch into the order. It recomputes the balance when
// the paid amount changes, enforces the forward-only status graph, keeps the
// payment history append-only, and bumps UpdatedAt and the version.
func (o *Order) ApplyPatch(p Patch) error {
	if p.Status != nil && *p.Status != o.Status {
		if !o.Status.CanTransitionTo(*p.Status) {
			return shared.NewIllegalTransitionError(
				fmt.Sprintf("Order cannot move from %s to %s", o.Status, *p.Status))
		}
	}

	if p.PaidAmount != nil {
		o.PaidAmount = *p.PaidAmount
		o.BalanceAmount = o.TotalAmount.Sub(o.PaidAmount)
	}
	if p.PaymentStatus != nil {
		o.PaymentStatus = *p.PaymentStatus
	}
	if p.AppendPayment != nil {
		o.PaymentHistory = append(o.PaymentHistory, *p.AppendPayment)
		o.AddDomainEvent(NewOrderPaymentRecordedEvent(o, *p.AppendPayment))
	}
	if p.Status != nil && *p.Status != o.Status {
		previous := o.Status
		o.Status = *p.Status
		o.AddDomainEvent(NewOrderStatusAdvancedEvent(o, previous))
	}

	if p.Receptionist != nil {
		o.Receptionist = *p.Receptionist
	}
	if p.Packager != nil {
		o.Packager = *p.Packager
	}
	if p.Storekeeper != nil {
		o.Storekeeper = *p.Storekeeper
	}

	// Per-transition timestamps are set exactly once
	setOnce(&o.PaymentConfirmedAt, p.PaymentConfirmedAt)
	setOnce(&o.AssignedAt, p.AssignedAt)
	setOnce(&o.PackagingStartedAt, p.PackagingStartedAt)
	setOnce(&o.PackagedAt, p.PackagedAt)
	setOnce(&o.DeliveredAt, p.DeliveredAt)
	setOnce(&o.CompletedAt, p.CompletedAt)
	setOnce(&o.CancelledAt, p.CancelledAt)
	setOnce(&o.RefundedAt, p.RefundedAt)
	if p.Reason != nil {
		o.Reason = *p.Reason
	}

	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	return nil
}

func setOnce(dst **time.Time, src *time.Time) {
	if src != nil && *dst == nil {
		*dst = src
	}
}

// Clone returns a deep copy of the order so that callers can hold snapshots
// without racing with ledger mutations. Pending domain events do not travel
// with the copy.
func (o *Order) Clone() *Order {
	dup := *o
	dup.ClearDomainEvents()
	dup.Items = make([]Item, len(o.Items))
	copy(dup.Items, o.Items)
	dup.PaymentHistory = make([]PaymentRecord, len(o.PaymentHistory))
	copy(dup.PaymentHistory, o.PaymentHistory)
	dup.PaymentConfirmedAt = cloneTime(o.PaymentConfirmedAt)
	dup.AssignedAt = cloneTime(o.AssignedAt)
	dup.PackagingStartedAt = cloneTime(o.PackagingStartedAt)
	dup.PackagedAt = cloneTime(o.PackagedAt)
	dup.DeliveredAt = cloneTime(o.DeliveredAt)
	dup.CompletedAt = cloneTime(o.CompletedAt)
	dup.CancelledAt = cloneTime(o.CancelledAt)
	dup.RefundedAt = cloneTime(o.RefundedAt)
	return &dup
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	dup := *t
	return &dup
}

// GetTotalAmountMoney returns the total amount as Money
func (o *Order) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyNGN(o.TotalAmount)
}

// GetPaidAmountMoney returns the paid amount as Money
func (o *Order) GetPaidAmountMoney() valueobject.Money {
	return valueobject.NewMoneyNGN(o.PaidAmount)
}

// GetBalanceAmountMoney returns the balance as Money
func (o *Order) GetBalanceAmountMoney() valueobject.Money {
	return valueobject.NewMoneyNGN(o.BalanceAmount)
}

// ItemCount returns the number of line items
func (o *Order) ItemCount() int {
	return len(o.Items)
}

// IsTerminal returns true if the order reached a terminal status
func (o *Order) IsTerminal() bool {
	return o.Status.IsTerminal()
}

// IsOverpaid returns true if payments exceed the total
func (o *Order) IsOverpaid() bool {
	return o.BalanceAmount.IsNegative()
}
