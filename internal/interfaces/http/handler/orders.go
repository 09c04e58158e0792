package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	ordersapp "github.com/retailops/core/internal/application/orders"
	"github.com/retailops/core/internal/domain/order"
	"github.com/retailops/core/internal/domain/staff"
	"github.com/retailops/core/internal/interfaces/http/middleware"
)

// OrderHandler handles order lifecycle API endpoints
type OrderHandler struct {
	BaseHandler
	service     *ordersapp.OrderService
	idempotency gin.HandlerFunc
}

// NewOrderHandler creates a new OrderHandler. The idempotency middleware is
// applied to every mutating route.
func NewOrderHandler(service *ordersapp.OrderService, idempotency gin.HandlerFunc) *OrderHandler {
	return &OrderHandler{
		service:     service,
		idempotency: idempotency,
	}
}

// RegisterRoutes registers the order routes on the given group. The group is
// expected to sit behind session authentication already.
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")

	orders.GET("", h.List)
	orders.GET("/:id", h.Get)
	orders.GET("/:id/actions", h.Actions)

	orders.POST("", h.idempotency,
		middleware.RequireRoles(staff.RoleAttendee, staff.RoleAdmin), h.Create)
	orders.POST("/:id/payments", h.idempotency,
		middleware.RequireRoles(staff.RoleReceptionist, staff.RoleAdmin), h.RecordPayment)
	orders.POST("/:id/confirm-payment", h.idempotency,
		middleware.RequireRoles(staff.RoleReceptionist, staff.RoleAdmin), h.ConfirmPayment)
	orders.POST("/:id/assign-packager", h.idempotency,
		middleware.RequireRoles(staff.RoleReceptionist, staff.RoleAdmin), h.AssignPackager)
	orders.POST("/:id/assign-delivery", h.idempotency,
		middleware.RequireRoles(staff.RoleStorekeeper, staff.RoleWarehouseKeeper, staff.RoleAdmin), h.AssignDelivery)
	orders.POST("/:id/advance", h.idempotency, h.Advance)
	orders.POST("/:id/cancel", h.idempotency,
		middleware.RequireRoles(staff.RoleReceptionist, staff.RoleAdmin), h.Cancel)
	orders.POST("/:id/refund", h.idempotency,
		middleware.RequireRoles(staff.RoleAdmin), h.Refund)
}

// CreateOrderItemRequest is one line item of an order creation request
type CreateOrderItemRequest struct {
	ProductID   string `json:"product_id" binding:"required,uuid"`
	ProductName string `json:"product_name" binding:"required"`
	UnitPrice   int64  `json:"unit_price" binding:"min=0"`
	Quantity    int    `json:"quantity" binding:"required,min=1"`
}

// CreateOrderRequest represents a request to create a new order
type CreateOrderRequest struct {
	CustomerName             string                   `json:"customer_name" binding:"required"`
	CustomerPhone            string                   `json:"customer_phone"`
	Items                    []CreateOrderItemRequest `json:"items" binding:"required,min=1,dive"`
	MinimumPaymentPercentage int                      `json:"minimum_payment_percentage" binding:"omitempty,min=1,max=100"`
}

// RecordPaymentRequest represents a request to record a payment
type RecordPaymentRequest struct {
	Amount    int64  `json:"amount" binding:"required"`
	Method    string `json:"method" binding:"required"`
	Reference string `json:"reference"`
	Notes     string `json:"notes"`
}

// AssignRequest represents an assignment request
type AssignRequest struct {
	AssigneeID string `json:"assignee_id" binding:"required,uuid"`
}

// AdvanceRequest represents a generic workflow action request
type AdvanceRequest struct {
	Action     string  `json:"action" binding:"required"`
	AssigneeID *string `json:"assignee_id" binding:"omitempty,uuid"`
	Reason     string  `json:"reason"`
}

// ReasonRequest carries the mandatory reason for cancel and refund
type ReasonRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ItemResponse is one order line item in a response
type ItemResponse struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	UnitPrice   int64     `json:"unit_price"`
	Quantity    int       `json:"quantity"`
	Amount      int64     `json:"amount"`
}

// PaymentRecordResponse is one payment history entry in a response
type PaymentRecordResponse struct {
	ID         uuid.UUID `json:"id"`
	Amount     int64     `json:"amount"`
	Method     string    `json:"method"`
	Reference  string    `json:"reference,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	RecordedBy staff.Ref `json:"recorded_by"`
	RecordedAt time.Time `json:"recorded_at"`
}

// OrderResponse is the API representation of an order. Amounts are whole
// Naira.
type OrderResponse struct {
	ID        uuid.UUID      `json:"id"`
	ReceiptID string         `json:"receipt_id,omitempty"`
	Customer  order.Customer `json:"customer"`
	Items     []ItemResponse `json:"items"`

	TotalAmount    int64                   `json:"total_amount"`
	PaidAmount     int64                   `json:"paid_amount"`
	BalanceAmount  int64                   `json:"balance_amount"`
	PaymentHistory []PaymentRecordResponse `json:"payment_history"`

	MinimumPaymentPercentage int    `json:"minimum_payment_percentage"`
	PaymentStatus            string `json:"payment_status"`
	Status                   string `json:"status"`
	StatusLabel              string `json:"status_label"`
	Progress                 int    `json:"progress"`

	Attendee     staff.Ref  `json:"attendee"`
	Receptionist *staff.Ref `json:"receptionist,omitempty"`
	Packager     *staff.Ref `json:"packager,omitempty"`
	Storekeeper  *staff.Ref `json:"storekeeper,omitempty"`

	PaymentConfirmedAt *time.Time `json:"payment_confirmed_at,omitempty"`
	AssignedAt         *time.Time `json:"assigned_at,omitempty"`
	PackagingStartedAt *time.Time `json:"packaging_started_at,omitempty"`
	PackagedAt         *time.Time `json:"packaged_at,omitempty"`
	DeliveredAt        *time.Time `json:"delivered_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	RefundedAt         *time.Time `json:"refunded_at,omitempty"`
	Reason             string     `json:"reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toOrderResponse(o *order.Order) OrderResponse {
	items := make([]ItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			UnitPrice:   it.UnitPrice.IntPart(),
			Quantity:    it.Quantity,
			Amount:      it.Amount.IntPart(),
		})
	}
	history := make([]PaymentRecordResponse, 0, len(o.PaymentHistory))
	for _, rec := range o.PaymentHistory {
		history = append(history, PaymentRecordResponse{
			ID:         rec.ID,
			Amount:     rec.Amount.IntPart(),
			Method:     rec.Method.String(),
			Reference:  rec.Reference,
			Notes:      rec.Notes,
			RecordedBy: rec.RecordedBy,
			RecordedAt: rec.RecordedAt,
		})
	}

	return OrderResponse{
		ID:                       o.ID,
		ReceiptID:                o.ReceiptID,
		Customer:                 o.Customer,
		Items:                    items,
		TotalAmount:              o.TotalAmount.IntPart(),
		PaidAmount:               o.PaidAmount.IntPart(),
		BalanceAmount:            o.BalanceAmount.IntPart(),
		PaymentHistory:           history,
		MinimumPaymentPercentage: o.MinimumPaymentPercentage,
		PaymentStatus:            o.PaymentStatus.String(),
		Status:                   o.Status.String(),
		StatusLabel:              o.Status.Label(),
		Progress:                 o.Status.Progress(),
		Attendee:                 o.Attendee,
		Receptionist:             optionalRef(o.Receptionist),
		Packager:                 optionalRef(o.Packager),
		Storekeeper:              optionalRef(o.Storekeeper),
		PaymentConfirmedAt:       o.PaymentConfirmedAt,
		AssignedAt:               o.AssignedAt,
		PackagingStartedAt:       o.PackagingStartedAt,
		PackagedAt:               o.PackagedAt,
		DeliveredAt:              o.DeliveredAt,
		CompletedAt:              o.CompletedAt,
		CancelledAt:              o.CancelledAt,
		RefundedAt:               o.RefundedAt,
		Reason:                   o.Reason,
		CreatedAt:                o.CreatedAt,
		UpdatedAt:                o.UpdatedAt,
	}
}

func optionalRef(ref staff.Ref) *staff.Ref {
	if ref.IsZero() {
		return nil
	}
	return &ref
}

// Create handles POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	session, ok := getSession(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	items := make([]ordersapp.CreateOrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		productID, err := uuid.Parse(it.ProductID)
		if err != nil {
			h.BadRequest(c, "Invalid product ID: "+it.ProductID)
			return
		}
		items = append(items, ordersapp.CreateOrderItem{
			ProductID:   productID,
			ProductName: it.ProductName,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
		})
	}

	created, err := h.service.CreateOrder(c.Request.Context(), session, ordersapp.CreateOrderInput{
		CustomerName:             req.CustomerName,
		CustomerPhone:            req.CustomerPhone,
		Items:                    items,
		MinimumPaymentPercentage: req.MinimumPaymentPercentage,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toOrderResponse(created))
}

// List handles GET /orders
func (h *OrderHandler) List(c *gin.Context) {
	session, ok := getSession(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	filter, err := listFilterFromQuery(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	found, err := h.service.ListOrders(c.Request.Context(), session, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]OrderResponse, 0, len(found))
	for _, o := range found {
		responses = append(responses, toOrderResponse(o))
	}
	h.Success(c, responses)
}

// Get handles GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	session, ok := getSession(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	o, err := h.service.GetOrder(c.Request.Context(), session, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toOrderResponse(o))
}

// Actions handles GET /orders/:id/actions
func (h *OrderHandler) Actions(c *gin.Context) {
	session, ok := getSession(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	actions, err := h.service.NextActions(c.Request.Context(), session, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, actions)
}

// RecordPayment handles POST /orders/:id/payments
func (h *OrderHandler) RecordPayment(c *gin.Context) {
	session, ok := getSession(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	updated, err := h.service.RecordPayment(c.Request.Context(), session, id, ordersapp.RecordPaymentInput{
		Amount:    req.Amount,
		Method:    req.Method,
		Reference: req.Reference,
		Notes:     req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toOrderResponse(updated))
}

// ConfirmPayment handles POST /orders/:id/confirm-payment
func (h *OrderHandler) ConfirmPayment(c *gin.Context) {
	h.advanceWith(c, ordersapp.AdvanceInput{Action: order.ActionConfirmPayment})
}

// AssignPackager handles POST /orders/:id/assign-packager
func (h *OrderHandler) AssignPackager(c *gin.Context) {
	h.assign(c, order.ActionAssignPackager)
}

// AssignDelivery handles POST /orders/:id/assign-delivery
func (h *OrderHandler) AssignDelivery(c *gin.Context) {
	h.assign(c, order.ActionAssignDelivery)
}

func (h *OrderHandler) assign(c *gin.Context, action order.Action) {
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	assigneeID, err := uuid.Parse(req.AssigneeID)
	if err != nil {
		h.BadRequest(c, "Invalid assignee ID")
		return
	}

	h.advanceWith(c, ordersapp.AdvanceInput{Action: action, AssigneeID: &assigneeID})
}

// Advance handles POST /orders/:id/advance. The action-to-role mapping is
// enforced by the service, so this route carries no static role gate.
func (h *OrderHandler) Advance(c *gin.Context) {
	var req AdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	input := ordersapp.AdvanceInput{
		Action: order.Action(req.Action),
		Reason: req.Reason,
	}
	if req.AssigneeID != nil {
		assigneeID, err := uuid.Parse(*req.AssigneeID)
		if err != nil {
			h.BadRequest(c, "Invalid assignee ID")
			return
		}
		input.AssigneeID = &assigneeID
	}

	h.advanceWith(c, input)
}

// Cancel handles POST /orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	var req ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	h.advanceWith(c, ordersapp.AdvanceInput{Action: order.ActionCancelOrder, Reason: req.Reason})
}

// Refund handles POST /orders/:id/refund
func (h *OrderHandler) Refund(c *gin.Context) {
	var req ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	h.advanceWith(c, ordersapp.AdvanceInput{Action: order.ActionRefundOrder, Reason: req.Reason})
}

func (h *OrderHandler) advanceWith(c *gin.Context, input ordersapp.AdvanceInput) {
	session, ok := getSession(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	updated, err := h.service.Advance(c.Request.Context(), session, id, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toOrderResponse(updated))
}

// listFilterFromQuery parses the supported list query parameters
func listFilterFromQuery(c *gin.Context) (order.ListFilter, error) {
	var filter order.ListFilter

	if raw := c.Query("status"); raw != "" {
		status := order.Status(raw)
		if !status.IsValid() {
			return filter, errInvalidQuery("status", raw)
		}
		filter.Status = &status
	}
	if raw := c.Query("payment_status"); raw != "" {
		paymentStatus := order.PaymentStatus(raw)
		if !paymentStatus.IsValid() {
			return filter, errInvalidQuery("payment_status", raw)
		}
		filter.PaymentStatus = &paymentStatus
	}
	if raw := c.Query("attendee_id"); raw != "" {
		attendeeID, err := uuid.Parse(raw)
		if err != nil {
			return filter, errInvalidQuery("attendee_id", raw)
		}
		filter.AttendeeID = &attendeeID
	}
	filter.CustomerName = c.Query("customer_name")

	return filter, nil
}

func errInvalidQuery(param, value string) error {
	return fmt.Errorf("invalid %s: %q", param, value)
}
