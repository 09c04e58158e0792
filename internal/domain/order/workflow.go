package order

import (
	"fmt"
	"time"

	"github.com/retailops/core/internal/domain/shared"
	"github.com/retailops/core/internal/domain/staff"
)

// Action represents a workflow action a staff member can take on an order
type Action string

const (
	ActionConfirmPayment    Action = "confirm_payment"
	ActionAssignPackager    Action = "assign_packager"
	ActionStartPackaging    Action = "start_packaging"
	ActionCompletePackaging Action = "complete_packaging"
	ActionReadyForPickup    Action = "ready_for_pickup"
	ActionAssignDelivery    Action = "assign_delivery"
	ActionMarkPickedUp      Action = "mark_picked_up"
	ActionStartDelivery     Action = "start_delivery"
	ActionMarkDelivered     Action = "mark_delivered"
	ActionCompleteOrder     Action = "complete_order"
	ActionCancelOrder       Action = "cancel_order"
	ActionRefundOrder       Action = "refund_order"
)

// IsValid checks if the action is a known workflow action
func (a Action) IsValid() bool {
	switch a {
	case ActionConfirmPayment, ActionAssignPackager, ActionStartPackaging,
		ActionCompletePackaging, ActionReadyForPickup, ActionAssignDelivery,
		ActionMarkPickedUp, ActionStartDelivery, ActionMarkDelivered,
		ActionCompleteOrder, ActionCancelOrder, ActionRefundOrder:
		return true
	}
	return false
}

// String returns the string representation of the action
func (a Action) String() string {
	return string(a)
}

// ActionOption is one legal next action for an order, as presented to the UI
type ActionOption struct {
	Action             Action `json:"action"`
	RequiresAssignment bool   `json:"requires_assignment"`
}

// transition is one row of the fulfillment transition table
type transition struct {
	from         Status
	action       Action
	target       Status
	assigneeRole staff.Role // non-empty means the action binds a staff member with this role
}

// transitionTable is the full forward graph of the fulfillment state machine.
// Cancellation and refund are policy-driven escapes handled separately.
var transitionTable = []transition{
	{from: StatusPartialPayment, action: ActionConfirmPayment, target: StatusConfirmed},
	{from: StatusPaid, action: ActionConfirmPayment, target: StatusConfirmed},
	{from: StatusConfirmed, action: ActionAssignPackager, target: StatusAssignedPackager, assigneeRole: staff.RolePackager},
	{from: StatusAssignedPackager, action: ActionStartPackaging, target: StatusPackaging},
	{from: StatusPackaging, action: ActionCompletePackaging, target: StatusPackaged},
	{from: StatusPackaged, action: ActionReadyForPickup, target: StatusReadyForPickup},
	{from: StatusPackaged, action: ActionAssignDelivery, target: StatusAssignedDelivery, assigneeRole: staff.RoleStorekeeper},
	{from: StatusReadyForPickup, action: ActionMarkPickedUp, target: StatusPickedUp},
	{from: StatusAssignedDelivery, action: ActionStartDelivery, target: StatusOutForDelivery},
	{from: StatusOutForDelivery, action: ActionMarkDelivered, target: StatusDelivered},
	{from: StatusPickedUp, action: ActionCompleteOrder, target: StatusCompleted},
	{from: StatusDelivered, action: ActionCompleteOrder, target: StatusCompleted},
}

// Workflow decides which actions are legal for an order and produces the
// patch each action results in. Like the payment engine it is pure: it
// operates on a snapshot and never mutates the order directly.
type Workflow struct {
	engine *PaymentEngine
}

// NewWorkflow creates a new fulfillment workflow
func NewWorkflow(engine *PaymentEngine) *Workflow {
	return &Workflow{engine: engine}
}

// NextActions returns the legal next actions for the order's current state,
// in table order, with the policy escapes (cancel/refund) appended. A
// terminal order yields no actions.
func (w *Workflow) NextActions(o *Order) []ActionOption {
	options := make([]ActionOption, 0, 4)
	for _, t := range transitionTable {
		if t.from == o.Status {
			options = append(options, ActionOption{
				Action:             t.action,
				RequiresAssignment: t.assigneeRole != "",
			})
		}
	}
	if o.Status.CanCancel() {
		options = append(options, ActionOption{Action: ActionCancelOrder})
	}
	if !o.Status.IsTerminal() && o.PaidAmount.IsPositive() {
		options = append(options, ActionOption{Action: ActionRefundOrder})
	}
	return options
}

// Apply validates the action against the transition table and returns the
// patch to feed into the ledger. The assignee must already be resolved
// against the staff directory; reason is only consulted for cancel/refund.
func (w *Workflow) Apply(o *Order, action Action, assignee *staff.Ref, actor staff.Ref, reason string) (Patch, error) {
	if !action.IsValid() {
		return Patch{}, shared.NewIllegalTransitionError(fmt.Sprintf("Unknown action %q", action))
	}

	switch action {
	case ActionCancelOrder:
		return w.cancel(o, reason)
	case ActionRefundOrder:
		return w.refund(o, reason)
	}

	t, ok := w.lookup(o.Status, action)
	if !ok {
		return Patch{}, shared.NewIllegalTransitionError(
			fmt.Sprintf("Action %s is not valid for order in %s status", action, o.Status))
	}

	now := time.Now()
	target := t.target
	patch := Patch{Status: &target}

	switch action {
	case ActionConfirmPayment:
		enginePatch, err := w.engine.ConfirmPayment(o, actor)
		if err != nil {
			return Patch{}, err
		}
		patch.PaymentStatus = enginePatch.PaymentStatus
		patch.PaymentConfirmedAt = enginePatch.PaymentConfirmedAt
		patch.Receptionist = enginePatch.Receptionist
	case ActionAssignPackager:
		if err := validateAssignee(assignee, t.assigneeRole); err != nil {
			return Patch{}, err
		}
		patch.Packager = assignee
		patch.AssignedAt = &now
	case ActionAssignDelivery:
		if err := validateAssignee(assignee, t.assigneeRole); err != nil {
			return Patch{}, err
		}
		patch.Storekeeper = assignee
		patch.AssignedAt = &now
	case ActionStartPackaging:
		patch.PackagingStartedAt = &now
	case ActionCompletePackaging:
		patch.PackagedAt = &now
	case ActionMarkPickedUp, ActionMarkDelivered:
		patch.DeliveredAt = &now
	case ActionCompleteOrder:
		patch.CompletedAt = &now
	}

	return patch, nil
}

// lookup finds the table row for a (status, action) pair
func (w *Workflow) lookup(from Status, action Action) (transition, bool) {
	for _, t := range transitionTable {
		if t.from == from && t.action == action {
			return t, true
		}
	}
	return transition{}, false
}

func validateAssignee(assignee *staff.Ref, required staff.Role) error {
	if assignee == nil || assignee.IsZero() {
		return shared.NewMissingAssignmentError(
			fmt.Sprintf("A staff member with role %s must be selected", required))
	}
	if assignee.Role != required {
		return shared.NewMissingAssignmentError(
			fmt.Sprintf("Staff member %s holds role %s, not the required %s", assignee.Name, assignee.Role, required))
	}
	return nil
}

// cancel produces the cancellation patch. Orders can be cancelled in any
// state strictly before physical packaging starts.
func (w *Workflow) cancel(o *Order, reason string) (Patch, error) {
	if !o.Status.CanCancel() {
		return Patch{}, shared.NewIllegalTransitionError(
			fmt.Sprintf("Cannot cancel order in %s status", o.Status))
	}
	if reason == "" {
		return Patch{}, shared.NewValidationError("Cancel reason is required")
	}
	now := time.Now()
	cancelled := StatusCancelled
	return Patch{
		Status:      &cancelled,
		CancelledAt: &now,
		Reason:      &reason,
	}, nil
}

// refund produces the refund patch. Any non-terminal order that has received
// money can be refunded; the refund settles both state machines.
func (w *Workflow) refund(o *Order, reason string) (Patch, error) {
	if o.Status.IsTerminal() {
		return Patch{}, shared.NewIllegalTransitionError(
			fmt.Sprintf("Cannot refund order in %s status", o.Status))
	}
	if !o.PaidAmount.IsPositive() {
		return Patch{}, shared.NewIllegalTransitionError("Cannot refund an order with no recorded payments")
	}
	if reason == "" {
		return Patch{}, shared.NewValidationError("Refund reason is required")
	}
	now := time.Now()
	refunded := StatusRefunded
	refundedPayment := PaymentStatusRefunded
	return Patch{
		Status:        &refunded,
		PaymentStatus: &refundedPayment,
		RefundedAt:    &now,
		Reason:        &reason,
	}, nil
}
