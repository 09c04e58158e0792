package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retailops/core/internal/domain/order"
	"github.com/retailops/core/internal/domain/shared"
	"github.com/retailops/core/internal/domain/staff"
)

// maxResponseSize bounds how much of a backend response is read (4MB)
const maxResponseSize = 4 * 1024 * 1024

// Config holds the backend connection settings
type Config struct {
	BaseURL        string
	APIToken       string
	TimeoutSeconds int
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return shared.NewValidationError("Backend base URL cannot be empty")
	}
	if c.TimeoutSeconds <= 0 {
		return shared.NewValidationError("Backend timeout must be positive")
	}
	return nil
}

// Client talks to the retail backend, the source of truth for orders and
// staff. Every mutation here mirrors one the ledger applies locally only
// after this client reports success.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a backend client with the given configuration
func NewClient(config Config, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		logger: logger,
	}, nil
}

// CreateOrder persists a locally validated order and returns the stored copy
// with the server-assigned identity and receipt number
func (c *Client) CreateOrder(ctx context.Context, draft *order.Order) (*order.Order, error) {
	const op = "create order"

	var resp wireOrder
	if err := c.do(ctx, http.MethodPost, "/orders", newCreateOrderRequest(draft), &resp); err != nil {
		return nil, err
	}
	created, err := resp.toDomain()
	if err != nil {
		return nil, newDecodeError(op, err)
	}
	c.logger.Info("order created on backend",
		zap.String("order_id", created.ID.String()),
		zap.String("receipt_id", created.ReceiptID))
	return created, nil
}

// RecordPayment mirrors a payment record to the backend
func (c *Client) RecordPayment(ctx context.Context, orderID uuid.UUID, rec order.PaymentRecord) error {
	req := recordPaymentRequest{
		PaymentAmount:    rec.Amount.IntPart(),
		PaymentMethod:    rec.Method.String(),
		PaymentReference: rec.Reference,
		Notes:            rec.Notes,
		RecordedByID:     rec.RecordedBy.ID.String(),
	}
	var summary paymentSummary
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/orders/%s/payment", orderID), req, &summary)
}

// ConfirmPayment applies the explicit confirmation override on the backend
func (c *Client) ConfirmPayment(ctx context.Context, orderID uuid.UUID, status order.Status, paymentStatus order.PaymentStatus, receptionistID uuid.UUID) error {
	req := confirmPaymentRequest{
		Status:         status.String(),
		PaymentStatus:  paymentStatus.String(),
		ReceptionistID: receptionistID.String(),
	}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/orders/payment/%s", orderID), req, nil)
}

// AssignPackager binds a packager to the order on the backend
func (c *Client) AssignPackager(ctx context.Context, orderID, packagerID uuid.UUID) error {
	req := assignPackagerRequest{PackagerID: packagerID.String()}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/orders/packager/%s", orderID), req, nil)
}

// AssignDelivery binds a storekeeper to the order on the backend
func (c *Client) AssignDelivery(ctx context.Context, orderID, storekeeperID, actorID uuid.UUID) error {
	req := assignDeliveryRequest{
		StorekeeperID: storekeeperID.String(),
		ActorID:       actorID.String(),
	}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/orders/%s/assign-delivery", orderID), req, nil)
}

// UpdateStatus advances the fulfillment status on the backend
func (c *Client) UpdateStatus(ctx context.Context, orderID uuid.UUID, status order.Status, actorID uuid.UUID, reason string) error {
	req := updateStatusRequest{
		Status:  status.String(),
		ActorID: actorID.String(),
		Reason:  reason,
	}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/orders/%s/status", orderID), req, nil)
}

// GetOrder fetches a single order, used to reconcile the local ledger when a
// write race is suspected
func (c *Client) GetOrder(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	const op = "get order"

	var resp wireOrder
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/orders/%s", orderID), nil, &resp); err != nil {
		return nil, err
	}
	o, err := resp.toDomain()
	if err != nil {
		return nil, newDecodeError(op, err)
	}
	return o, nil
}

// ListOrders fetches all orders for warming the local ledger at startup
func (c *Client) ListOrders(ctx context.Context) ([]*order.Order, error) {
	const op = "list orders"

	var resp []wireOrder
	if err := c.do(ctx, http.MethodGet, "/orders", nil, &resp); err != nil {
		return nil, err
	}
	orders := make([]*order.Order, 0, len(resp))
	for i := range resp {
		o, err := resp[i].toDomain()
		if err != nil {
			return nil, newDecodeError(op, err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// Resolve looks up a staff member by ID, implementing the staff directory.
// Returns a NOT_FOUND domain error for unknown IDs so assignment guards can
// tell "no such user" apart from a backend outage.
func (c *Client) Resolve(ctx context.Context, id uuid.UUID) (staff.Ref, error) {
	var resp wireUser
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%s", id), nil, &resp)
	if err != nil {
		var re *RemoteError
		if asRemote(err, &re) && re.StatusCode == http.StatusNotFound {
			return staff.Ref{}, shared.NewNotFoundError(fmt.Sprintf("Staff member %s not found", id))
		}
		return staff.Ref{}, err
	}
	return resp.toRef(), nil
}

func asRemote(err error, target **RemoteError) bool {
	re, ok := err.(*RemoteError)
	if ok {
		*target = re
	}
	return ok
}

// do performs one backend round trip. Any transport failure, non-2xx status
// or undecodable body surfaces as a RemoteError; the caller's local state
// must remain untouched in that case.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	op := fmt.Sprintf("%s %s", method, path)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return newTransportError(op, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return newTransportError(op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("backend call failed", zap.String("op", op), zap.Error(err))
		return newTransportError(op, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return newTransportError(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody errorResponse
		_ = json.Unmarshal(payload, &errBody)
		c.logger.Warn("backend rejected request",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.String("message", errBody.text()))
		return newStatusError(op, resp.StatusCode, errBody.text())
	}

	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return newDecodeError(op, err)
		}
	}
	return nil
}

var _ staff.Directory = (*Client)(nil)
