// Package processor talks to the external payment processor. Settlement
// never trusts client-submitted amounts: the capture record fetched here is
// the authoritative source for amount, currency and parties.
package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/evenza/settlement/internal/logger"
	"github.com/evenza/settlement/internal/models"
)

const (
	CodeNotFound = "not-found"
	CodeUnknown  = "unknown"
)

type ProcessorError struct {
	Code string
	Err  error
}

func (e *ProcessorError) Error() string {
	return fmt.Sprintf("code: %s, error: %v", e.Code, e.Err)
}

func (e *ProcessorError) Unwrap() error {
	return e.Err
}

func NewProcessorError(code string, err error) *ProcessorError {
	return &ProcessorError{Code: code, Err: err}
}

type capturedOrder struct {
	OrderID  string    `json:"order_id"`
	BuyerID  uuid.UUID `json:"buyer_id"`
	SellerID uuid.UUID `json:"seller_id"`
	EventID  uuid.UUID `json:"event_id"`
	Amount   int64     `json:"amount"`
	Currency string    `json:"currency"`
	Status   string    `json:"status"`
}

type Client struct {
	ProcessorAddr string

	client *http.Client
	logger logger.Logger
}

func NewClient(addr string, l logger.Logger) *Client {
	return &Client{
		ProcessorAddr: addr,
		client:        &http.Client{},
		logger:        l,
	}
}

// GetAuthorization fetches the capture record for the order id
func (c *Client) GetAuthorization(ctx context.Context, orderID string) (models.PaymentAuthorization, error) {
	var auth models.PaymentAuthorization

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ProcessorAddr+"/api/orders/"+orderID, nil)
	if err != nil {
		return auth, NewProcessorError(CodeUnknown, fmt.Errorf("failed to create request: %w", err))
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return auth, NewProcessorError(CodeUnknown, fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close() // nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK:
		return c.processSuccess(resp)
	case http.StatusNotFound:
		return auth, NewProcessorError(CodeNotFound, fmt.Errorf("no capture record for order %s", orderID))
	default:
		c.logger.Warn("Failed to get capture record", "status_code", resp.StatusCode, "order_id", orderID)
		return auth, NewProcessorError(CodeUnknown, fmt.Errorf("unknown status code %d for order %s", resp.StatusCode, orderID))
	}
}

func (c *Client) processSuccess(resp *http.Response) (models.PaymentAuthorization, error) {
	var o capturedOrder
	err := json.NewDecoder(resp.Body).Decode(&o)
	if err != nil {
		c.logger.Warn("Failed to decode response", "error", err)
		return models.PaymentAuthorization{}, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("Capture record fetched", "order_id", o.OrderID, "status", o.Status, "amount", o.Amount)

	return models.PaymentAuthorization{
		OrderID:  o.OrderID,
		BuyerID:  o.BuyerID,
		SellerID: o.SellerID,
		EventID:  o.EventID,
		Amount:   o.Amount,
		Currency: o.Currency,
		Status:   o.Status,
	}, nil
}
