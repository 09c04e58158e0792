package order

// Status represents the fulfillment stage of an order. It is correlated with
// but independent of PaymentStatus: the payment side tracks money received,
// the fulfillment side tracks physical progress.
type Status string

const (
	StatusPendingPayment   Status = "pending_payment"
	StatusPartialPayment   Status = "partial_payment"
	StatusPaid             Status = "paid"
	StatusConfirmed        Status = "confirmed"
	StatusAssignedPackager Status = "assigned_packager"
	StatusPackaging        Status = "packaging"
	StatusPackaged         Status = "packaged"
	StatusReadyForPickup   Status = "ready_for_pickup"
	StatusAssignedDelivery Status = "assigned_delivery"
	StatusPickedUp         Status = "picked_up"
	StatusOutForDelivery   Status = "out_for_delivery"
	StatusDelivered        Status = "delivered"
	StatusCompleted        Status = "completed"
	StatusCancelled        Status = "cancelled"
	StatusRefunded         Status = "refunded"
)

// IsValid checks if the status is a valid order Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPendingPayment, StatusPartialPayment, StatusPaid, StatusConfirmed,
		StatusAssignedPackager, StatusPackaging, StatusPackaged,
		StatusReadyForPickup, StatusAssignedDelivery, StatusPickedUp,
		StatusOutForDelivery, StatusDelivered, StatusCompleted,
		StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true if no further transition leaves this status
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusRefunded
}

// CanCancel returns true if the order may still be cancelled from this
// status. Cancellation is allowed in any state strictly before physical
// packaging starts.
func (s Status) CanCancel() bool {
	switch s {
	case StatusPendingPayment, StatusPartialPayment, StatusPaid, StatusConfirmed, StatusAssignedPackager:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status.
// The graph only moves forward; the terminal escapes cancelled/refunded are
// reachable per CanCancel and from any non-terminal state respectively.
func (s Status) CanTransitionTo(target Status) bool {
	if target == StatusCancelled {
		return s.CanCancel()
	}
	if target == StatusRefunded {
		return !s.IsTerminal()
	}
	switch s {
	case StatusPendingPayment:
		return target == StatusPartialPayment || target == StatusPaid
	case StatusPartialPayment:
		return target == StatusPaid || target == StatusConfirmed
	case StatusPaid:
		return target == StatusConfirmed
	case StatusConfirmed:
		return target == StatusAssignedPackager
	case StatusAssignedPackager:
		return target == StatusPackaging
	case StatusPackaging:
		return target == StatusPackaged
	case StatusPackaged:
		return target == StatusReadyForPickup || target == StatusAssignedDelivery
	case StatusReadyForPickup:
		return target == StatusPickedUp
	case StatusAssignedDelivery:
		return target == StatusOutForDelivery
	case StatusOutForDelivery:
		return target == StatusDelivered
	case StatusPickedUp, StatusDelivered:
		return target == StatusCompleted
	case StatusCompleted, StatusCancelled, StatusRefunded:
		return false // Terminal states
	}
	return false
}

// Label returns the human-facing name for the status
func (s Status) Label() string {
	switch s {
	case StatusPendingPayment:
		return "Pending Payment"
	case StatusPartialPayment:
		return "Partially Paid"
	case StatusPaid:
		return "Paid"
	case StatusConfirmed:
		return "Payment Confirmed"
	case StatusAssignedPackager:
		return "Packager Assigned"
	case StatusPackaging:
		return "Packaging"
	case StatusPackaged:
		return "Packaged"
	case StatusReadyForPickup:
		return "Ready for Pickup"
	case StatusAssignedDelivery:
		return "Delivery Assigned"
	case StatusPickedUp:
		return "Picked Up"
	case StatusOutForDelivery:
		return "Out for Delivery"
	case StatusDelivered:
		return "Delivered"
	case StatusCompleted:
		return "Completed"
	case StatusCancelled:
		return "Cancelled"
	case StatusRefunded:
		return "Refunded"
	}
	return string(s)
}

// Progress returns the fulfillment progress percentage shown on dashboards
func (s Status) Progress() int {
	switch s {
	case StatusPendingPayment:
		return 5
	case StatusPartialPayment:
		return 15
	case StatusPaid:
		return 25
	case StatusConfirmed:
		return 30
	case StatusAssignedPackager:
		return 40
	case StatusPackaging:
		return 50
	case StatusPackaged:
		return 60
	case StatusReadyForPickup, StatusAssignedDelivery:
		return 70
	case StatusPickedUp, StatusOutForDelivery:
		return 85
	case StatusDelivered:
		return 95
	case StatusCompleted:
		return 100
	case StatusCancelled, StatusRefunded:
		return 0
	}
	return 0
}

// PaymentStatus represents the payment side of an order
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPartial   PaymentStatus = "partial"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	PaymentStatusOverpaid  PaymentStatus = "overpaid"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPartial, PaymentStatusPaid,
		PaymentStatusConfirmed, PaymentStatusOverpaid, PaymentStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// IsSettled returns true if no further payment is expected
func (s PaymentStatus) IsSettled() bool {
	return s == PaymentStatusPaid || s == PaymentStatusConfirmed ||
		s == PaymentStatusOverpaid || s == PaymentStatusRefunded
}

// Label returns the human-facing name for the payment status
func (s PaymentStatus) Label() string {
	switch s {
	case PaymentStatusPending:
		return "Pending"
	case PaymentStatusPartial:
		return "Partial"
	case PaymentStatusPaid:
		return "Paid"
	case PaymentStatusConfirmed:
		return "Confirmed"
	case PaymentStatusOverpaid:
		return "Overpaid"
	case PaymentStatusRefunded:
		return "Refunded"
	}
	return string(s)
}
