package remote

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailops/core/internal/domain/order"
	"github.com/retailops/core/internal/domain/shared"
	"github.com/retailops/core/internal/domain/staff"
)

// The backend speaks camelCase JSON with integer amounts in whole Naira and
// ISO-8601 timestamps. These wire types isolate that contract from the
// domain model.

type wireUser struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Phone string    `json:"phone,omitempty"`
	Role  string    `json:"role"`
}

func (u *wireUser) toRef() staff.Ref {
	if u == nil {
		return staff.Ref{}
	}
	return staff.Ref{ID: u.ID, Name: u.Name, Phone: u.Phone, Role: staff.Role(u.Role)}
}

func refToWire(r staff.Ref) *wireUser {
	if r.IsZero() {
		return nil
	}
	return &wireUser{ID: r.ID, Name: r.Name, Phone: r.Phone, Role: r.Role.String()}
}

type wireItem struct {
	ProductID   uuid.UUID `json:"productId"`
	ProductName string    `json:"productName"`
	UnitPrice   int64     `json:"unitPrice"`
	Quantity    int       `json:"quantity"`
	Amount      int64     `json:"amount"`
}

type wirePaymentRecord struct {
	ID         uuid.UUID `json:"id"`
	Amount     int64     `json:"amount"`
	Method     string    `json:"method"`
	Reference  string    `json:"reference,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	RecordedBy *wireUser `json:"recordedBy,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
}

type wireOrder struct {
	ID                       uuid.UUID           `json:"id"`
	ReceiptID                string              `json:"receiptId"`
	CustomerName             string              `json:"customerName"`
	CustomerPhone            string              `json:"customerPhone,omitempty"`
	Items                    []wireItem          `json:"items"`
	TotalAmount              int64               `json:"totalAmount"`
	PaidAmount               int64               `json:"paidAmount"`
	BalanceAmount            int64               `json:"balanceAmount"`
	PaymentHistory           []wirePaymentRecord `json:"paymentHistory"`
	MinimumPaymentPercentage int                 `json:"minimumPaymentPercentage"`
	PaymentStatus            string              `json:"paymentStatus"`
	Status                   string              `json:"status"`
	Attendee                 *wireUser           `json:"attendee,omitempty"`
	Receptionist             *wireUser           `json:"receptionist,omitempty"`
	Packager                 *wireUser           `json:"packager,omitempty"`
	Storekeeper              *wireUser           `json:"storekeeper,omitempty"`
	PaymentConfirmedAt       *time.Time          `json:"paymentConfirmedAt,omitempty"`
	AssignedAt               *time.Time          `json:"assignedAt,omitempty"`
	PackagingStartedAt       *time.Time          `json:"packagingStartedAt,omitempty"`
	PackagedAt               *time.Time          `json:"packagedAt,omitempty"`
	DeliveredAt              *time.Time          `json:"deliveredAt,omitempty"`
	CompletedAt              *time.Time          `json:"completedAt,omitempty"`
	CancelledAt              *time.Time          `json:"cancelledAt,omitempty"`
	RefundedAt               *time.Time          `json:"refundedAt,omitempty"`
	Reason                   string              `json:"reason,omitempty"`
	CreatedAt                time.Time           `json:"createdAt"`
	UpdatedAt                time.Time           `json:"updatedAt"`
}

// toDomain converts a backend order payload into the domain aggregate
func (w *wireOrder) toDomain() (*order.Order, error) {
	status := order.Status(w.Status)
	if !status.IsValid() {
		return nil, shared.NewValidationError("Backend returned unknown order status " + w.Status)
	}
	paymentStatus := order.PaymentStatus(w.PaymentStatus)
	if !paymentStatus.IsValid() {
		return nil, shared.NewValidationError("Backend returned unknown payment status " + w.PaymentStatus)
	}

	items := make([]order.Item, 0, len(w.Items))
	for _, it := range w.Items {
		items = append(items, order.Item{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			UnitPrice:   decimal.NewFromInt(it.UnitPrice),
			Quantity:    it.Quantity,
			Amount:      decimal.NewFromInt(it.Amount),
		})
	}

	history := make([]order.PaymentRecord, 0, len(w.PaymentHistory))
	for _, rec := range w.PaymentHistory {
		history = append(history, order.PaymentRecord{
			ID:         rec.ID,
			Amount:     decimal.NewFromInt(rec.Amount),
			Method:     order.PaymentMethod(rec.Method),
			Reference:  rec.Reference,
			Notes:      rec.Notes,
			RecordedBy: rec.RecordedBy.toRef(),
			RecordedAt: rec.RecordedAt,
		})
	}

	minPct := w.MinimumPaymentPercentage
	if minPct == 0 {
		minPct = order.DefaultMinimumPaymentPercentage
	}

	o := &order.Order{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.NewBaseEntityWithID(w.ID, w.CreatedAt, w.UpdatedAt),
			Version:    1,
		},
		ReceiptID:                w.ReceiptID,
		Customer:                 order.Customer{Name: w.CustomerName, Phone: w.CustomerPhone},
		Items:                    items,
		TotalAmount:              decimal.NewFromInt(w.TotalAmount),
		PaidAmount:               decimal.NewFromInt(w.PaidAmount),
		BalanceAmount:            decimal.NewFromInt(w.BalanceAmount),
		PaymentHistory:           history,
		MinimumPaymentPercentage: minPct,
		PaymentStatus:            paymentStatus,
		Status:                   status,
		Attendee:                 w.Attendee.toRef(),
		Receptionist:             w.Receptionist.toRef(),
		Packager:                 w.Packager.toRef(),
		Storekeeper:              w.Storekeeper.toRef(),
		PaymentConfirmedAt:       w.PaymentConfirmedAt,
		AssignedAt:               w.AssignedAt,
		PackagingStartedAt:       w.PackagingStartedAt,
		PackagedAt:               w.PackagedAt,
		DeliveredAt:              w.DeliveredAt,
		CompletedAt:              w.CompletedAt,
		CancelledAt:              w.CancelledAt,
		RefundedAt:               w.RefundedAt,
		Reason:                   w.Reason,
	}
	return o, nil
}

// createOrderRequest is the POST /orders payload
type createOrderRequest struct {
	CustomerName             string     `json:"customerName"`
	CustomerPhone            string     `json:"customerPhone,omitempty"`
	Items                    []wireItem `json:"items"`
	AttendeeID               uuid.UUID  `json:"attendeeId"`
	MinimumPaymentPercentage int        `json:"minimumPaymentPercentage"`
}

func newCreateOrderRequest(o *order.Order) createOrderRequest {
	items := make([]wireItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, wireItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			UnitPrice:   it.UnitPrice.IntPart(),
			Quantity:    it.Quantity,
			Amount:      it.Amount.IntPart(),
		})
	}
	return createOrderRequest{
		CustomerName:             o.Customer.Name,
		CustomerPhone:            o.Customer.Phone,
		Items:                    items,
		AttendeeID:               o.Attendee.ID,
		MinimumPaymentPercentage: o.MinimumPaymentPercentage,
	}
}

// recordPaymentRequest is the PATCH /orders/{id}/payment payload
type recordPaymentRequest struct {
	PaymentAmount    int64  `json:"paymentAmount"`
	PaymentMethod    string `json:"paymentMethod"`
	PaymentReference string `json:"paymentReference,omitempty"`
	Notes            string `json:"notes,omitempty"`
	RecordedByID     string `json:"recordedById"`
}

// paymentSummary is the backend's response to a payment mutation
type paymentSummary struct {
	PaidAmount    int64  `json:"paidAmount"`
	BalanceAmount int64  `json:"balanceAmount"`
	PaymentStatus string `json:"paymentStatus"`
}

// confirmPaymentRequest is the PATCH /orders/payment/{id} payload, the
// explicit status override for the confirmation step
type confirmPaymentRequest struct {
	Status         string `json:"status"`
	PaymentStatus  string `json:"paymentStatus"`
	PaymentMethod  string `json:"paymentMethod,omitempty"`
	ReceptionistID string `json:"receptionistId"`
}

// assignPackagerRequest is the PATCH /orders/packager/{id} payload
type assignPackagerRequest struct {
	PackagerID string `json:"packagerId"`
}

// updateStatusRequest is the PATCH /orders/{id}/status payload
type updateStatusRequest struct {
	Status  string `json:"status"`
	ActorID string `json:"actorId"`
	Reason  string `json:"reason,omitempty"`
}

// assignDeliveryRequest is the PATCH /orders/{id}/assign-delivery payload
type assignDeliveryRequest struct {
	StorekeeperID string `json:"storekeeperId"`
	ActorID       string `json:"actorId"`
}

// errorResponse is the backend's error body shape
type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e errorResponse) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}
