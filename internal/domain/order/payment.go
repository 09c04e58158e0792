package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailops/core/internal/domain/shared"
	"github.com/retailops/core/internal/domain/shared/valueobject"
	"github.com/retailops/core/internal/domain/staff"
)

// PaymentMethod represents how a payment was made
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodPOS          PaymentMethod = "pos"
)

// IsValid checks if the payment method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodPOS:
		return true
	}
	return false
}

// String returns the string representation of the payment method
func (m PaymentMethod) String() string {
	return string(m)
}

// PaymentRecord is one entry of an order's payment history. Records are
// immutable once created and owned exclusively by their order; the history is
// append-only.
type PaymentRecord struct {
	ID         uuid.UUID       `json:"id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     PaymentMethod   `json:"method"`
	Reference  string          `json:"reference,omitempty"`
	Notes      string          `json:"notes,omitempty"`
	RecordedBy staff.Ref       `json:"recorded_by"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// NewPaymentRecord creates a new payment history entry
func NewPaymentRecord(amount valueobject.Money, method PaymentMethod, reference, notes string, recordedBy staff.Ref) PaymentRecord {
	return PaymentRecord{
		ID:         uuid.New(),
		Amount:     amount.Amount(),
		Method:     method,
		Reference:  reference,
		Notes:      notes,
		RecordedBy: recordedBy,
		RecordedAt: time.Now(),
	}
}

// GetAmountMoney returns the payment amount as Money
func (r PaymentRecord) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyNGN(r.Amount)
}

// PaymentResult is the financial consequence of recording a payment
type PaymentResult struct {
	PaidAmount    decimal.Decimal
	BalanceAmount decimal.Decimal
	PaymentStatus PaymentStatus
	Record        PaymentRecord
	Patch         Patch
}

// PaymentEngine computes the financial consequences of payments and the
// resulting payment status. It is a pure domain service: it never mutates the
// order it is given, it only produces patches for the ledger to apply.
type PaymentEngine struct{}

// NewPaymentEngine creates a new PaymentEngine
func NewPaymentEngine() *PaymentEngine {
	return &PaymentEngine{}
}

// DerivePaymentStatus derives the payment status from total and paid amounts.
// The checks are ordered: overpaid wins over paid, paid over pending, and
// anything else with money received is partial.
func (e *PaymentEngine) DerivePaymentStatus(total, paid decimal.Decimal) PaymentStatus {
	balance := total.Sub(paid)
	switch {
	case balance.IsNegative():
		return PaymentStatusOverpaid
	case balance.IsZero():
		return PaymentStatusPaid
	case paid.IsZero():
		return PaymentStatusPending
	default:
		return PaymentStatusPartial
	}
}

// RecordPayment computes the consequence of applying a payment to the order.
// Overpayment is permitted and yields the overpaid status. Fails with an
// INVALID_AMOUNT error when the amount is not positive; fails with an
// ILLEGAL_TRANSITION error on terminal orders.
func (e *PaymentEngine) RecordPayment(o *Order, amount valueobject.Money, method PaymentMethod, reference, notes string, recordedBy staff.Ref) (*PaymentResult, error) {
	if !amount.IsPositive() {
		return nil, shared.NewInvalidAmountError("Payment amount must be greater than zero")
	}
	if !method.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("Unknown payment method %q", method))
	}
	if o.IsTerminal() {
		return nil, shared.NewIllegalTransitionError(
			fmt.Sprintf("Cannot record payment on order in %s status", o.Status))
	}

	newPaid := o.PaidAmount.Add(amount.Amount())
	newBalance := o.TotalAmount.Sub(newPaid)
	newStatus := e.DerivePaymentStatus(o.TotalAmount, newPaid)
	record := NewPaymentRecord(amount, method, reference, notes, recordedBy)

	patch := Patch{
		PaidAmount:    &newPaid,
		PaymentStatus: &newStatus,
		AppendPayment: &record,
	}

	// While the order is still in the pre-confirmation stage the fulfillment
	// status tracks the payment status; after confirmation it does not.
	if fulfillment := paymentStageStatus(o.Status, newStatus); fulfillment != nil {
		patch.Status = fulfillment
	}

	return &PaymentResult{
		PaidAmount:    newPaid,
		BalanceAmount: newBalance,
		PaymentStatus: newStatus,
		Record:        record,
		Patch:         patch,
	}, nil
}

// paymentStageStatus maps a derived payment status onto the fulfillment
// status while the order has not yet been confirmed
func paymentStageStatus(current Status, derived PaymentStatus) *Status {
	if current != StatusPendingPayment && current != StatusPartialPayment && current != StatusPaid {
		return nil
	}
	var next Status
	switch derived {
	case PaymentStatusPartial:
		next = StatusPartialPayment
	case PaymentStatusPaid, PaymentStatusOverpaid:
		next = StatusPaid
	default:
		return nil
	}
	if next == current {
		return nil
	}
	return &next
}

// CanProceedWithPartial reports whether the paid share of the total meets the
// order's minimum payment percentage. An order with a zero total owes
// nothing, so it always passes.
func (e *PaymentEngine) CanProceedWithPartial(o *Order) bool {
	if o.TotalAmount.IsZero() {
		return true
	}
	// paid * 100 >= total * minPct, avoiding division
	paidShare := o.PaidAmount.Mul(decimal.NewFromInt(100))
	required := o.TotalAmount.Mul(decimal.NewFromInt(int64(o.MinimumPaymentPercentage)))
	return paidShare.GreaterThanOrEqual(required)
}

// PaymentProgress returns the paid percentage of the total, rounded to two
// decimal places, for dashboard display
func (e *PaymentEngine) PaymentProgress(o *Order) decimal.Decimal {
	if o.TotalAmount.IsZero() {
		return decimal.NewFromInt(100)
	}
	return o.PaidAmount.Div(o.TotalAmount).Mul(decimal.NewFromInt(100)).Round(2)
}

// CanConfirm reports whether the explicit payment confirmation step is legal
// for the order's current payment state. Confirmation is a human check on top
// of the arithmetic: full (or over-) payment always qualifies, a partial
// payment qualifies once it clears the minimum percentage.
func (e *PaymentEngine) CanConfirm(o *Order) error {
	switch o.PaymentStatus {
	case PaymentStatusPaid, PaymentStatusOverpaid:
		return nil
	case PaymentStatusPartial:
		if e.CanProceedWithPartial(o) {
			return nil
		}
		return shared.NewIllegalTransitionError(
			fmt.Sprintf("Paid amount is below the minimum %d%% required to proceed", o.MinimumPaymentPercentage))
	case PaymentStatusConfirmed:
		return shared.NewIllegalTransitionError("Payment is already confirmed")
	default:
		return shared.NewIllegalTransitionError(
			fmt.Sprintf("Cannot confirm payment while payment status is %s", o.PaymentStatus))
	}
}

// ConfirmPayment produces the patch for the explicit confirmation step
// performed by a receptionist or admin
func (e *PaymentEngine) ConfirmPayment(o *Order, confirmedBy staff.Ref) (Patch, error) {
	if err := e.CanConfirm(o); err != nil {
		return Patch{}, err
	}
	now := time.Now()
	confirmed := PaymentStatusConfirmed
	return Patch{
		PaymentStatus:      &confirmed,
		PaymentConfirmedAt: &now,
		Receptionist:       &confirmedBy,
	}, nil
}
