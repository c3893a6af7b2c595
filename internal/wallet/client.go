// Package wallet is the HTTP client of the remote wallet service.
package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"campuspark/internal/domain"
)

// StatusApproved is the only payment status treated as an approval.
const StatusApproved = "approved"

// ErrWalletNotFound is returned when the user has no remote wallet yet.
var ErrWalletNotFound = fmt.Errorf("%w: wallet not found", domain.ErrRemoteService)

// PaymentRequest is the body of POST /payments.
type PaymentRequest struct {
	UserID    int       `json:"userId"`
	Amount    float64   `json:"amount"`
	Method    string    `json:"method"`
	CreatedAt time.Time `json:"createdAt"`
}

// PaymentResponse is the result of POST /payments.
type PaymentResponse struct {
	Status        string `json:"status"`
	TransactionID string `json:"transactionId,omitempty"`
	Message       string `json:"message,omitempty"`
}

// Approved reports whether the service approved the payment.
func (r *PaymentResponse) Approved() bool {
	return r != nil && r.Status == StatusApproved
}

// Wallet is the remote balance record.
type Wallet struct {
	UserID    int       `json:"userId,omitempty"`
	Balance   float64   `json:"balance"`
	CreatedAt time.Time `json:"createdAt"`
}

// walletRecord is the GET /wallet/{id} answer; Balance is nil when the
// field is absent or null.
type walletRecord struct {
	UserID    int       `json:"userId"`
	Balance   *float64  `json:"balance"`
	CreatedAt time.Time `json:"createdAt"`
}

// balanceUpdate is the body of PUT /wallet/{id}.
type balanceUpdate struct {
	Balance float64 `json:"balance"`
}

// Client talks to the wallet service. Every failure to reach the service or
// any non-2xx answer is returned wrapping domain.ErrRemoteService.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a wallet client. A nil transport uses http.DefaultTransport.
func NewClient(baseURL string, timeout time.Duration, transport http.RoundTripper) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// Pay asks the wallet service to charge amount. An empty answer decodes to a
// zero PaymentResponse, which is not an approval.
func (c *Client) Pay(ctx context.Context, userID int, amount float64, method string) (*PaymentResponse, error) {
	body := PaymentRequest{
		UserID:    userID,
		Amount:    amount,
		Method:    method,
		CreatedAt: time.Now().UTC(),
	}

	var resp PaymentResponse
	if err := c.do(ctx, http.MethodPost, "/payments", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetWallet returns the remote wallet of userID. An answer without a
// balance is treated as ErrWalletNotFound.
func (c *Client) GetWallet(ctx context.Context, userID int) (*Wallet, error) {
	var rec walletRecord
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/wallet/%d", userID), nil, &rec); err != nil {
		return nil, err
	}
	if rec.Balance == nil {
		return nil, ErrWalletNotFound
	}
	return &Wallet{UserID: rec.UserID, Balance: *rec.Balance, CreatedAt: rec.CreatedAt}, nil
}

// UpdateWallet overwrites the remote balance of userID.
func (c *Client) UpdateWallet(ctx context.Context, userID int, balance float64) (*Wallet, error) {
	var w Wallet
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/wallet/%d", userID), balanceUpdate{Balance: balance}, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// CreateWallet creates the remote wallet of userID with an initial balance.
func (c *Client) CreateWallet(ctx context.Context, userID int, balance float64) (*Wallet, error) {
	body := Wallet{UserID: userID, Balance: balance, CreatedAt: time.Now().UTC()}

	var w Wallet
	if err := c.do(ctx, http.MethodPost, "/wallet", body, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal wallet request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create wallet request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", domain.ErrRemoteService, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && method == http.MethodGet {
		return ErrWalletNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s %s: status %d", domain.ErrRemoteService, method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: decode %s %s: %v", domain.ErrRemoteService, method, path, err)
	}
	return nil
}
