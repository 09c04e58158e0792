package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/retailops/core/internal/domain/order"
	"github.com/retailops/core/internal/domain/shared"
	"github.com/retailops/core/internal/domain/staff"
	"github.com/retailops/core/internal/infrastructure/ledger"
)

var errBackendDown = errors.New("backend unavailable")

// fakeBackend records mirrored mutations and can be told to fail
type fakeBackend struct {
	fail  bool
	calls []string

	createdID uuid.UUID
}

func (b *fakeBackend) record(call string) error {
	if b.fail {
		return errBackendDown
	}
	b.calls = append(b.calls, call)
	return nil
}

func (b *fakeBackend) CreateOrder(ctx context.Context, draft *order.Order) (*order.Order, error) {
	if err := b.record("create"); err != nil {
		return nil, err
	}
	created := draft.Clone()
	if b.createdID == uuid.Nil {
		b.createdID = uuid.New()
	}
	created.ID = b.createdID
	created.ReceiptID = "RCP-2026-0001"
	return created, nil
}

func (b *fakeBackend) RecordPayment(ctx context.Context, orderID uuid.UUID, rec order.PaymentRecord) error {
	return b.record("payment")
}

func (b *fakeBackend) ConfirmPayment(ctx context.Context, orderID uuid.UUID, status order.Status, paymentStatus order.PaymentStatus, receptionistID uuid.UUID) error {
	return b.record("confirm")
}

func (b *fakeBackend) AssignPackager(ctx context.Context, orderID, packagerID uuid.UUID) error {
	return b.record("assign-packager")
}

func (b *fakeBackend) AssignDelivery(ctx context.Context, orderID, storekeeperID, actorID uuid.UUID) error {
	return b.record("assign-delivery")
}

func (b *fakeBackend) UpdateStatus(ctx context.Context, orderID uuid.UUID, status order.Status, actorID uuid.UUID, reason string) error {
	return b.record("status:" + status.String())
}

func (b *fakeBackend) GetOrder(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	return nil, shared.NewNotFoundError("not on backend either")
}

func (b *fakeBackend) ListOrders(ctx context.Context) ([]*order.Order, error) {
	if b.fail {
		return nil, errBackendDown
	}
	return nil, nil
}

// fakeDirectory resolves staff from a fixed map
type fakeDirectory struct {
	refs map[uuid.UUID]staff.Ref
}

func (d *fakeDirectory) Resolve(ctx context.Context, id uuid.UUID) (staff.Ref, error) {
	if ref, ok := d.refs[id]; ok {
		return ref, nil
	}
	return staff.Ref{}, shared.NewNotFoundError("unknown staff member")
}

type fixture struct {
	service   *OrderService
	ledger    *ledger.MemoryLedger
	backend   *fakeBackend
	directory *fakeDirectory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	l := ledger.NewMemoryLedger()
	b := &fakeBackend{}
	d := &fakeDirectory{refs: make(map[uuid.UUID]staff.Ref)}
	return &fixture{
		service:   NewOrderService(l, b, d, zap.NewNop(), 0),
		ledger:    l,
		backend:   b,
		directory: d,
	}
}

func sessionWith(role staff.Role) staff.Session {
	return staff.Session{UserID: uuid.New(), Name: "Test Staff", Role: role}
}

func defaultInput() CreateOrderInput {
	return CreateOrderInput{
		CustomerName:  "Ngozi Ade",
		CustomerPhone: "+2348012345678",
		Items: []CreateOrderItem{
			{ProductID: uuid.New(), ProductName: "Bag of Rice 50kg", UnitPrice: 5000, Quantity: 2},
			{ProductID: uuid.New(), ProductName: "Groundnut Oil 5L", UnitPrice: 3000, Quantity: 1},
		},
	}
}

// seedOrder creates an order through the service as an attendee
func seedOrder(t *testing.T, f *fixture) *order.Order {
	t.Helper()
	created, err := f.service.CreateOrder(context.Background(), sessionWith(staff.RoleAttendee), defaultInput())
	require.NoError(t, err)
	return created
}

func TestOrderService_CreateOrder(t *testing.T) {
	f := newFixture(t)
	session := sessionWith(staff.RoleAttendee)

	created, err := f.service.CreateOrder(context.Background(), session, defaultInput())
	require.NoError(t, err)

	assert.Equal(t, "RCP-2026-0001", created.ReceiptID)
	assert.True(t, created.TotalAmount.Equal(decimal.NewFromInt(13000)))
	assert.Equal(t, session.UserID, created.Attendee.ID)
	assert.Equal(t, order.DefaultMinimumPaymentPercentage, created.MinimumPaymentPercentage)

	stored, err := f.ledger.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, stored.ID)
}

func TestOrderService_CreateOrder_Forbidden(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CreateOrder(context.Background(), sessionWith(staff.RolePackager), defaultInput())
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeForbidden))
	assert.Empty(t, f.backend.calls)
}

func TestOrderService_CreateOrder_ValidationStopsBeforeBackend(t *testing.T) {
	f := newFixture(t)
	input := defaultInput()
	input.CustomerName = "  "

	_, err := f.service.CreateOrder(context.Background(), sessionWith(staff.RoleAttendee), input)
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeValidation))
	assert.Empty(t, f.backend.calls)
}

func TestOrderService_CreateOrder_BackendFailureLeavesLedgerEmpty(t *testing.T) {
	f := newFixture(t)
	f.backend.fail = true

	_, err := f.service.CreateOrder(context.Background(), sessionWith(staff.RoleAttendee), defaultInput())
	require.Error(t, err)

	all, err := f.ledger.List(context.Background(), order.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestOrderService_RecordPayment(t *testing.T) {
	f := newFixture(t)
	o := seedOrder(t, f)

	updated, err := f.service.RecordPayment(context.Background(), sessionWith(staff.RoleReceptionist), o.ID, RecordPaymentInput{
		Amount: 9100,
		Method: "cash",
	})
	require.NoError(t, err)

	assert.True(t, updated.PaidAmount.Equal(decimal.NewFromInt(9100)))
	assert.True(t, updated.BalanceAmount.Equal(decimal.NewFromInt(3900)))
	assert.Equal(t, order.PaymentStatusPartial, updated.PaymentStatus)
	assert.Equal(t, order.StatusPartialPayment, updated.Status)
	require.Len(t, updated.PaymentHistory, 1)
	assert.Contains(t, f.backend.calls, "payment")
}

func TestOrderService_RecordPayment_Forbidden(t *testing.T) {
	f := newFixture(t)
	o := seedOrder(t, f)
	f.backend.calls = nil

	_, err := f.service.RecordPayment(context.Background(), sessionWith(staff.RoleAttendee), o.ID, RecordPaymentInput{Amount: 100, Method: "cash"})
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeForbidden))
	assert.Empty(t, f.backend.calls)
}

func TestOrderService_RecordPayment_InvalidAmountStopsBeforeBackend(t *testing.T) {
	f := newFixture(t)
	o := seedOrder(t, f)
	f.backend.calls = nil

	_, err := f.service.RecordPayment(context.Background(), sessionWith(staff.RoleReceptionist), o.ID, RecordPaymentInput{Amount: 0, Method: "cash"})
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeInvalidAmount))
	assert.Empty(t, f.backend.calls)
}

func TestOrderService_RecordPayment_BackendFailureLeavesLedgerUntouched(t *testing.T) {
	f := newFixture(t)
	o := seedOrder(t, f)
	f.backend.fail = true

	_, err := f.service.RecordPayment(context.Background(), sessionWith(staff.RoleReceptionist), o.ID, RecordPaymentInput{Amount: 5000, Method: "cash"})
	require.Error(t, err)

	stored, lerr := f.ledger.Get(context.Background(), o.ID)
	require.NoError(t, lerr)
	assert.True(t, stored.PaidAmount.IsZero())
	assert.Empty(t, stored.PaymentHistory)
	assert.Equal(t, order.StatusPendingPayment, stored.Status)
}

func TestOrderService_RecordPayment_UnknownOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.RecordPayment(context.Background(), sessionWith(staff.RoleReceptionist), uuid.New(), RecordPaymentInput{Amount: 100, Method: "cash"})
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeNotFound))
}

func payInFull(t *testing.T, f *fixture, id uuid.UUID) {
	t.Helper()
	_, err := f.service.RecordPayment(context.Background(), sessionWith(staff.RoleReceptionist), id, RecordPaymentInput{Amount: 13000, Method: "bank_transfer"})
	require.NoError(t, err)
}

func TestOrderService_Advance_ConfirmPayment(t *testing.T) {
	f := newFixture(t)
	o := seedOrder(t, f)
	payInFull(t, f, o.ID)

	updated, err := f.service.Advance(context.Background(), sessionWith(staff.RoleReceptionist), o.ID, AdvanceInput{Action: order.ActionConfirmPayment})
	require.NoError(t, err)

	assert.Equal(t, order.StatusConfirmed, updated.Status)
	assert.Equal(t, order.PaymentStatusConfirmed, updated.PaymentStatus)
	assert.NotNil(t, updated.PaymentConfirmedAt)
	assert.Contains(t, f.backend.calls, "confirm")
}

func TestOrderService_Advance_RoleGates(t *testing.T) {
	f := newFixture(t)
	o := seedOrder(t, f)
	payInFull(t, f, o.ID)

	tests := []struct {
		name   string
		role   staff.Role
		action order.Action
	}{
		{"packager cannot confirm payment", staff.RolePackager, order.ActionConfirmPayment},
		{"attendee cannot cancel", staff.RoleAttendee, order.ActionCancelOrder},
		{"receptionist cannot refund", staff.RoleReceptionist, order.ActionRefundOrder},
		{"storekeeper cannot assign packager", staff.RoleStorekeeper, order.ActionAssignPackager},
		{"receptionist cannot start packaging", staff.RoleReceptionist, order.ActionStartPackaging},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Advance(context.Background(), sessionWith(tt.role), o.ID, AdvanceInput{Action: tt.action, Reason: "x"})
			require.Error(t, err)
			assert.True(t, shared.IsCode(err, shared.CodeForbidden))
		})
	}
}

func TestOrderService_Advance_AssignPackager(t *testing.T) {
	f := newFixture(t)
	o := seedOrder(t, f)
	payInFull(t, f, o.ID)
	_, err := f.service.Advance(context.Background(), sessionWith(staff.RoleReceptionist), o.ID, AdvanceInput{Action: order.ActionConfirmPayment})
	require.NoError(t, err)

	packagerID := uuid.New()
	f.directory.refs[packagerID] = staff.Ref{ID: packagerID, Name: "Chidi Okeke", Role: staff.RolePackager}

	updated, err := f.service.Advance(context.Background(), sessionWith(staff.RoleReceptionist), o.ID, AdvanceInput{
		Action:     order.ActionAssignPackager,
		AssigneeID: &packagerID,
	})
	require.NoError(t, err)
	assert.Equal(t, order.StatusAssignedPackager, updated.Status)
	assert.Equal(t, packagerID, updated.Packager.ID)
	assert.Contains(t, f.backend.calls, "assign-packager")
}

func TestOrderService_Advance_AssignPackager_Guards(t *testing.T) {
	f := newFixture(t)
	o := seedOrder(t, f)
	payInFull(t, f, o.ID)
	_, err := f.service.Advance(context.Background(), sessionWith(staff.RoleReceptionist), o.ID, AdvanceInput{Action: order.ActionConfirmPayment})
	require.NoError(t, err)
	callsBefore := len(f.backend.calls)

	t.Run("missing assignee", func(t *testing.T) {
		_, err := f.service.Advance(context.Background(), sessionWith(staff.RoleReceptionist), o.ID, AdvanceInput{Action: order.ActionAssignPackager})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeMissingAssignment))
	})

	t.Run("unknown assignee", func(t *testing.T) {
		unknownID := uuid.New()
		_, err := f.service.Advance(context.Background(), sessionWith(staff.RoleReceptionist), o.ID, AdvanceInput{
			Action:     order.ActionAssignPackager,
			AssigneeID: &unknownID,
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeMissingAssignment))
	})

	t.Run("wrong role assignee", func(t *testing.T) {
		storekeeperID := uuid.New()
		f.directory.refs[storekeeperID] = staff.Ref{ID: storekeeperID, Name: "Dayo Musa", Role: staff.RoleStorekeeper}
		_, err := f.service.Advance(context.Background(), sessionWith(staff.RoleReceptionist), o.ID, AdvanceInput{
			Action:     order.ActionAssignPackager,
			AssigneeID: &storekeeperID,
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeMissingAssignment))
	})

	// none of the failed attempts reached the backend
	assert.Len(t, f.backend.calls, callsBefore)
}

func TestOrderService_Advance_CancelAndRefund(t *testing.T) {
	t.Run("cancel", func(t *testing.T) {
		f := newFixture(t)
		o := seedOrder(t, f)

		updated, err := f.service.Advance(context.Background(), sessionWith(staff.RoleReceptionist), o.ID, AdvanceInput{
			Action: order.ActionCancelOrder,
			Reason: "customer changed their mind",
		})
		require.NoError(t, err)
		assert.Equal(t, order.StatusCancelled, updated.Status)
		assert.Contains(t, f.backend.calls, "status:cancelled")
	})

	t.Run("refund", func(t *testing.T) {
		f := newFixture(t)
		o := seedOrder(t, f)
		payInFull(t, f, o.ID)

		updated, err := f.service.Advance(context.Background(), sessionWith(staff.RoleAdmin), o.ID, AdvanceInput{
			Action: order.ActionRefundOrder,
			Reason: "damaged goods",
		})
		require.NoError(t, err)
		assert.Equal(t, order.StatusRefunded, updated.Status)
		assert.Equal(t, order.PaymentStatusRefunded, updated.PaymentStatus)
		assert.Contains(t, f.backend.calls, "status:refunded")
	})
}

func TestOrderService_Advance_IllegalTransition(t *testing.T) {
	f := newFixture(t)
	o := seedOrder(t, f)

	_, err := f.service.Advance(context.Background(), sessionWith(staff.RoleAdmin), o.ID, AdvanceInput{Action: order.ActionStartPackaging})
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeIllegalTransition))
}

func TestOrderService_NextActions(t *testing.T) {
	f := newFixture(t)
	o := seedOrder(t, f)
	payInFull(t, f, o.ID)

	views, err := f.service.NextActions(context.Background(), sessionWith(staff.RoleReceptionist), o.ID)
	require.NoError(t, err)
	require.NotEmpty(t, views)

	byAction := make(map[order.Action]ActionView)
	for _, v := range views {
		byAction[v.Action] = v
	}
	confirm, ok := byAction[order.ActionConfirmPayment]
	require.True(t, ok)
	assert.True(t, confirm.AllowedForRole)

	refund, ok := byAction[order.ActionRefundOrder]
	require.True(t, ok)
	assert.False(t, refund.AllowedForRole)
}

func TestOrderService_ListOrders(t *testing.T) {
	f := newFixture(t)
	f.backend.createdID = uuid.New()
	first := seedOrder(t, f)
	f.backend.createdID = uuid.New()
	seedOrder(t, f)

	all, err := f.service.ListOrders(context.Background(), sessionWith(staff.RoleReceptionist), order.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending := order.StatusPendingPayment
	filtered, err := f.service.ListOrders(context.Background(), sessionWith(staff.RoleReceptionist), order.ListFilter{Status: &pending})
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	byAttendee, err := f.service.ListOrders(context.Background(), sessionWith(staff.RoleReceptionist), order.ListFilter{AttendeeID: &first.Attendee.ID})
	require.NoError(t, err)
	assert.Len(t, byAttendee, 1)
}

func TestOrderService_GetOrder_UnknownEverywhere(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.GetOrder(context.Background(), sessionWith(staff.RoleReceptionist), uuid.New())
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeNotFound))
}

func TestOrderService_WarmLedger_BackendFailure(t *testing.T) {
	f := newFixture(t)
	f.backend.fail = true

	_, err := f.service.WarmLedger(context.Background())
	require.Error(t, err)
}
