package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retailops/core/internal/domain/order"
	"github.com/retailops/core/internal/domain/shared"
	"github.com/retailops/core/internal/domain/shared/valueobject"
	"github.com/retailops/core/internal/domain/staff"
)

// Backend is the remote retail API, the source of truth for orders. Every
// mutation is sent there first; the local ledger is updated only after the
// backend confirms.
type Backend interface {
	CreateOrder(ctx context.Context, draft *order.Order) (*order.Order, error)
	RecordPayment(ctx context.Context, orderID uuid.UUID, rec order.PaymentRecord) error
	ConfirmPayment(ctx context.Context, orderID uuid.UUID, status order.Status, paymentStatus order.PaymentStatus, receptionistID uuid.UUID) error
	AssignPackager(ctx context.Context, orderID, packagerID uuid.UUID) error
	AssignDelivery(ctx context.Context, orderID, storekeeperID, actorID uuid.UUID) error
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status order.Status, actorID uuid.UUID, reason string) error
	GetOrder(ctx context.Context, orderID uuid.UUID) (*order.Order, error)
	ListOrders(ctx context.Context) ([]*order.Order, error)
}

// actionRoles maps each workflow action to the staff roles allowed to take it
var actionRoles = map[order.Action][]staff.Role{
	order.ActionConfirmPayment:    {staff.RoleReceptionist, staff.RoleAdmin},
	order.ActionAssignPackager:    {staff.RoleReceptionist, staff.RoleAdmin},
	order.ActionStartPackaging:    {staff.RolePackager, staff.RoleAdmin},
	order.ActionCompletePackaging: {staff.RolePackager, staff.RoleAdmin},
	order.ActionReadyForPickup:    {staff.RolePackager, staff.RoleAdmin},
	order.ActionAssignDelivery:    {staff.RoleStorekeeper, staff.RoleWarehouseKeeper, staff.RoleAdmin},
	order.ActionMarkPickedUp:      {staff.RoleStorekeeper, staff.RoleWarehouseKeeper, staff.RoleAdmin},
	order.ActionStartDelivery:     {staff.RoleStorekeeper, staff.RoleWarehouseKeeper, staff.RoleAdmin},
	order.ActionMarkDelivered:     {staff.RoleStorekeeper, staff.RoleWarehouseKeeper, staff.RoleAdmin},
	order.ActionCompleteOrder:     {staff.RoleReceptionist, staff.RoleStorekeeper, staff.RoleAdmin},
	order.ActionCancelOrder:       {staff.RoleReceptionist, staff.RoleAdmin},
	order.ActionRefundOrder:       {staff.RoleAdmin},
}

// CreateOrderItem is one line item of a create request
type CreateOrderItem struct {
	ProductID   uuid.UUID
	ProductName string
	UnitPrice   int64 // whole Naira
	Quantity    int
}

// CreateOrderInput carries a create request into the service
type CreateOrderInput struct {
	CustomerName             string
	CustomerPhone            string
	Items                    []CreateOrderItem
	MinimumPaymentPercentage int
}

// RecordPaymentInput carries a payment into the service
type RecordPaymentInput struct {
	Amount    int64 // whole Naira
	Method    string
	Reference string
	Notes     string
}

// AdvanceInput carries a workflow action into the service
type AdvanceInput struct {
	Action     order.Action
	AssigneeID *uuid.UUID
	Reason     string
}

// OrderService orchestrates the order lifecycle: local validation through the
// payment engine and fulfillment workflow, persistence through the backend,
// and the ledger mirror. A backend failure leaves the ledger untouched.
type OrderService struct {
	ledger     order.Ledger
	backend    Backend
	directory  staff.Directory
	engine     *order.PaymentEngine
	workflow   *order.Workflow
	logger     *zap.Logger
	defaultPct int
}

// NewOrderService creates a new order service
func NewOrderService(ledger order.Ledger, backend Backend, directory staff.Directory, logger *zap.Logger, defaultMinimumPct int) *OrderService {
	engine := order.NewPaymentEngine()
	if defaultMinimumPct <= 0 {
		defaultMinimumPct = order.DefaultMinimumPaymentPercentage
	}
	return &OrderService{
		ledger:     ledger,
		backend:    backend,
		directory:  directory,
		engine:     engine,
		workflow:   order.NewWorkflow(engine),
		logger:     logger,
		defaultPct: defaultMinimumPct,
	}
}

// CreateOrder validates a draft, persists it on the backend and mirrors the
// stored copy into the ledger
func (s *OrderService) CreateOrder(ctx context.Context, session staff.Session, input CreateOrderInput) (*order.Order, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	if !session.HasAnyRole(staff.RoleAttendee, staff.RoleAdmin) {
		return nil, forbidden(session, "create orders")
	}

	items := make([]order.DraftItem, 0, len(input.Items))
	for _, it := range input.Items {
		items = append(items, order.DraftItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			UnitPrice:   valueobject.NewMoneyNGNFromInt(it.UnitPrice),
			Quantity:    it.Quantity,
		})
	}
	minPct := input.MinimumPaymentPercentage
	if minPct == 0 {
		minPct = s.defaultPct
	}

	draft, err := order.NewOrder(order.Draft{
		Customer:                 order.Customer{Name: input.CustomerName, Phone: input.CustomerPhone},
		Items:                    items,
		Attendee:                 session.Actor(),
		MinimumPaymentPercentage: minPct,
	})
	if err != nil {
		return nil, err
	}

	created, err := s.backend.CreateOrder(ctx, draft)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.Put(ctx, created); err != nil {
		return nil, err
	}
	s.drainEvents(draft)

	s.logger.Info("order created",
		zap.String("order_id", created.ID.String()),
		zap.String("receipt_id", created.ReceiptID),
		zap.String("attendee_id", session.UserID.String()))
	return created, nil
}

// GetOrder returns a ledger snapshot, falling back to the backend for orders
// the ledger has not seen yet
func (s *OrderService) GetOrder(ctx context.Context, session staff.Session, id uuid.UUID) (*order.Order, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}

	o, err := s.ledger.Get(ctx, id)
	if err == nil {
		return o, nil
	}
	if !shared.IsCode(err, shared.CodeNotFound) {
		return nil, err
	}

	o, err = s.backend.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.Put(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// ListOrders returns ledger snapshots matching the filter
func (s *OrderService) ListOrders(ctx context.Context, session staff.Session, filter order.ListFilter) ([]*order.Order, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	return s.ledger.List(ctx, filter)
}

// NextActions returns the legal next actions for the order, annotated with
// whether the session's role may take each one
func (s *OrderService) NextActions(ctx context.Context, session staff.Session, id uuid.UUID) ([]ActionView, error) {
	o, err := s.GetOrder(ctx, session, id)
	if err != nil {
		return nil, err
	}

	options := s.workflow.NextActions(o)
	views := make([]ActionView, 0, len(options))
	for _, opt := range options {
		views = append(views, ActionView{
			Action:             opt.Action,
			RequiresAssignment: opt.RequiresAssignment,
			AllowedForRole:     roleMayTake(session, opt.Action),
		})
	}
	return views, nil
}

// ActionView is one legal next action with the session's permission resolved
type ActionView struct {
	Action             order.Action `json:"action"`
	RequiresAssignment bool         `json:"requires_assignment"`
	AllowedForRole     bool         `json:"allowed_for_role"`
}

// RecordPayment validates and records a payment, mirrors it to the backend
// and applies the result to the ledger. Local validation failures never reach
// the backend.
func (s *OrderService) RecordPayment(ctx context.Context, session staff.Session, id uuid.UUID, input RecordPaymentInput) (*order.Order, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	if !session.HasAnyRole(staff.RoleReceptionist, staff.RoleAdmin) {
		return nil, forbidden(session, "record payments")
	}

	o, err := s.ledger.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	res, err := s.engine.RecordPayment(o,
		valueobject.NewMoneyNGNFromInt(input.Amount),
		order.PaymentMethod(input.Method),
		input.Reference, input.Notes, session.Actor())
	if err != nil {
		return nil, err
	}

	if err := s.backend.RecordPayment(ctx, id, res.Record); err != nil {
		return nil, err
	}

	updated, err := s.ledger.Apply(ctx, id, res.Patch)
	if err != nil {
		return nil, err
	}
	s.drainEvents(updated)

	s.logger.Info("payment recorded",
		zap.String("order_id", id.String()),
		zap.String("amount", res.Record.Amount.String()),
		zap.String("method", res.Record.Method.String()),
		zap.String("payment_status", res.PaymentStatus.String()))
	return updated, nil
}

// Advance takes one workflow action on the order: validates it locally,
// mirrors it to the backend and applies the patch to the ledger
func (s *OrderService) Advance(ctx context.Context, session staff.Session, id uuid.UUID, input AdvanceInput) (*order.Order, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	if !input.Action.IsValid() {
		return nil, shared.NewIllegalTransitionError(fmt.Sprintf("Unknown action %q", input.Action))
	}
	if !roleMayTake(session, input.Action) {
		return nil, forbidden(session, input.Action.String())
	}

	o, err := s.ledger.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	assignee, err := s.resolveAssignee(ctx, input)
	if err != nil {
		return nil, err
	}

	patch, err := s.workflow.Apply(o, input.Action, assignee, session.Actor(), input.Reason)
	if err != nil {
		return nil, err
	}

	if err := s.mirrorAction(ctx, session, id, input.Action, assignee, patch, input.Reason); err != nil {
		return nil, err
	}

	updated, err := s.ledger.Apply(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.drainEvents(updated)

	s.logger.Info("order advanced",
		zap.String("order_id", id.String()),
		zap.String("action", input.Action.String()),
		zap.String("status", updated.Status.String()),
		zap.String("actor_id", session.UserID.String()))
	return updated, nil
}

// resolveAssignee looks up the assignee for assignment actions. The workflow
// re-validates the resolved role, so an unknown or wrong-roled ID fails
// before anything reaches the backend.
func (s *OrderService) resolveAssignee(ctx context.Context, input AdvanceInput) (*staff.Ref, error) {
	if input.Action != order.ActionAssignPackager && input.Action != order.ActionAssignDelivery {
		return nil, nil
	}
	if input.AssigneeID == nil || *input.AssigneeID == uuid.Nil {
		return nil, shared.NewMissingAssignmentError("A staff member must be selected for this action")
	}
	ref, err := s.directory.Resolve(ctx, *input.AssigneeID)
	if err != nil {
		if shared.IsCode(err, shared.CodeNotFound) {
			return nil, shared.NewMissingAssignmentError(
				fmt.Sprintf("Staff member %s does not exist", input.AssigneeID))
		}
		return nil, err
	}
	return &ref, nil
}

// mirrorAction sends the action to the backend endpoint that owns it
func (s *OrderService) mirrorAction(ctx context.Context, session staff.Session, id uuid.UUID, action order.Action, assignee *staff.Ref, patch order.Patch, reason string) error {
	switch action {
	case order.ActionConfirmPayment:
		return s.backend.ConfirmPayment(ctx, id, order.StatusConfirmed, order.PaymentStatusConfirmed, session.UserID)
	case order.ActionAssignPackager:
		return s.backend.AssignPackager(ctx, id, assignee.ID)
	case order.ActionAssignDelivery:
		return s.backend.AssignDelivery(ctx, id, assignee.ID, session.UserID)
	default:
		return s.backend.UpdateStatus(ctx, id, *patch.Status, session.UserID, reason)
	}
}

// WarmLedger fills the ledger from the backend's order list, used at startup
func (s *OrderService) WarmLedger(ctx context.Context) (int, error) {
	orders, err := s.backend.ListOrders(ctx)
	if err != nil {
		return 0, err
	}
	for _, o := range orders {
		if err := s.ledger.Put(ctx, o); err != nil {
			return 0, err
		}
	}
	s.logger.Info("ledger warmed from backend", zap.Int("orders", len(orders)))
	return len(orders), nil
}

// drainEvents logs and clears the domain events a mutation raised. There is
// no event bus here; the backend owns cross-system effects.
func (s *OrderService) drainEvents(o *order.Order) {
	for _, event := range o.GetDomainEvents() {
		s.logger.Debug("domain event",
			zap.String("event_type", event.EventType()),
			zap.String("order_id", event.AggregateID().String()))
	}
	o.ClearDomainEvents()
}

func roleMayTake(session staff.Session, action order.Action) bool {
	roles, ok := actionRoles[action]
	if !ok {
		return false
	}
	return session.HasAnyRole(roles...)
}

func forbidden(session staff.Session, what string) error {
	return shared.NewDomainError(shared.CodeForbidden,
		fmt.Sprintf("Role %s is not allowed to %s", session.Role, what))
}
