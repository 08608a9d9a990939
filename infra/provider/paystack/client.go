// Package paystack implements gateway.Gateway and gateway.Webhooks over the
// Paystack REST API.
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amirasaad/wallet/pkg/config"
	"github.com/amirasaad/wallet/pkg/domain"
	"github.com/amirasaad/wallet/pkg/provider/gateway"
)

// Client talks to the Paystack API with the integration's secret key.
type Client struct {
	secretKey  string
	baseURL    string
	subaccount string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Paystack client. timeout bounds every HTTP round trip;
// callers may impose a shorter deadline through the context.
func New(cfg *config.Paystack, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		secretKey:  cfg.SecretKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		subaccount: cfg.Subaccount,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("provider", "paystack"),
	}
}

// envelope is the shape of every Paystack response.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// apiError is a non-2xx or status=false answer from Paystack.
type apiError struct {
	StatusCode int
	Message    string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("paystack returned status %d: %s", e.StatusCode, e.Message)
}

// rejected reports whether Paystack refused the input, as opposed to failing.
func (e *apiError) rejected() bool {
	return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
}

func (c *Client) do(
	ctx context.Context,
	method, path string,
	query url.Values,
	body any,
	out any,
) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", gateway.ErrOutcomeUnknown, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &apiError{StatusCode: resp.StatusCode, Message: string(raw)}
		}
		return fmt.Errorf("%w: failed to decode response: %w", gateway.ErrOutcomeUnknown, err)
	}
	if resp.StatusCode >= http.StatusBadRequest || !env.Status {
		return &apiError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

type initializeRequest struct {
	Email      string            `json:"email"`
	Amount     int64             `json:"amount"`
	Reference  string            `json:"reference"`
	Currency   string            `json:"currency,omitempty"`
	Subaccount string            `json:"subaccount,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type initializeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// InitiateCheckout calls POST /transaction/initialize.
func (c *Client) InitiateCheckout(
	ctx context.Context,
	params gateway.CheckoutParams,
) (*gateway.Session, error) {
	var out initializeResponse
	err := c.do(ctx, http.MethodPost, "/transaction/initialize", nil, initializeRequest{
		Email:      params.Email,
		Amount:     params.Amount,
		Reference:  params.Reference,
		Currency:   params.Currency,
		Subaccount: c.subaccount,
		Metadata:   params.Metadata,
	}, &out)
	if err != nil {
		return nil, domain.GatewayError("initialize transaction", err)
	}
	c.logger.Debug("checkout initialized", "reference", out.Reference)
	return &gateway.Session{
		Reference:        out.Reference,
		AccessCode:       out.AccessCode,
		AuthorizationURL: out.AuthorizationURL,
	}, nil
}

type verifyResponse struct {
	Reference     string          `json:"reference"`
	Status        string          `json:"status"`
	Amount        int64           `json:"amount"`
	Currency      string          `json:"currency"`
	Fees          *int64          `json:"fees"`
	PaidAt        *time.Time      `json:"paid_at"`
	Authorization json.RawMessage `json:"authorization"`
	FeesSplit     *struct {
		Paystack    int64 `json:"paystack"`
		Integration int64 `json:"integration"`
		Subaccount  int64 `json:"subaccount"`
	} `json:"fees_split"`
}

// VerifyCheckout calls GET /transaction/verify/:reference. With a subaccount
// split the processing fee is the Paystack share plus the subaccount share.
func (c *Client) VerifyCheckout(
	ctx context.Context,
	reference string,
) (*gateway.Verification, error) {
	var out verifyResponse
	path := "/transaction/verify/" + url.PathEscape(reference)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, domain.GatewayError("verify transaction", err)
	}
	if out.Reference == "" || out.Status == "" {
		return nil, domain.GatewayError("verify transaction", fmt.Errorf("empty result for %s", reference))
	}

	fees := map[string]int64{}
	switch {
	case out.FeesSplit != nil:
		fees["paystack"] = out.FeesSplit.Paystack
		fees["subaccount"] = out.FeesSplit.Subaccount
	case out.Fees != nil:
		fees["paystack"] = *out.Fees
	}

	return &gateway.Verification{
		Reference:     out.Reference,
		Status:        out.Status,
		Amount:        out.Amount,
		Currency:      out.Currency,
		Fees:          fees,
		Authorization: out.Authorization,
		PaidAt:        out.PaidAt,
	}, nil
}

// Fees is Paystack's local card schedule.
func (c *Client) Fees() gateway.FeeSchedule {
	return gateway.PaystackLocal
}

// ListBanks calls GET /bank for the given country.
func (c *Client) ListBanks(ctx context.Context, country string) ([]gateway.Bank, error) {
	q := url.Values{}
	q.Set("country", country)
	q.Set("use_cursor", "true")
	q.Set("perPage", "100")
	var out []gateway.Bank
	if err := c.do(ctx, http.MethodGet, "/bank", q, nil, &out); err != nil {
		return nil, domain.GatewayError("list banks", err)
	}
	return out, nil
}

// ResolveAccount calls GET /bank/resolve.
func (c *Client) ResolveAccount(
	ctx context.Context,
	accountNumber, bankCode string,
) (*gateway.ResolvedAccount, error) {
	q := url.Values{}
	q.Set("account_number", accountNumber)
	q.Set("bank_code", bankCode)
	var out gateway.ResolvedAccount
	if err := c.do(ctx, http.MethodGet, "/bank/resolve", q, nil, &out); err != nil {
		return nil, bankError("resolve account", err)
	}
	out.BankCode = bankCode
	return &out, nil
}

type recipientRequest struct {
	Type          string `json:"type"`
	Name          string `json:"name"`
	AccountNumber string `json:"account_number"`
	BankCode      string `json:"bank_code"`
	Currency      string `json:"currency"`
	Description   string `json:"description,omitempty"`
}

type recipientResponse struct {
	RecipientCode string `json:"recipient_code"`
	Name          string `json:"name"`
	Details       struct {
		AccountNumber string `json:"account_number"`
		AccountName   string `json:"account_name"`
		BankCode      string `json:"bank_code"`
		BankName      string `json:"bank_name"`
	} `json:"details"`
}

// CreatePayoutRecipient calls POST /transferrecipient with a NUBAN account.
func (c *Client) CreatePayoutRecipient(
	ctx context.Context,
	params gateway.RecipientParams,
) (*gateway.Recipient, error) {
	var out recipientResponse
	err := c.do(ctx, http.MethodPost, "/transferrecipient", nil, recipientRequest{
		Type:          "nuban",
		Name:          params.Name,
		AccountNumber: params.AccountNumber,
		BankCode:      params.BankCode,
		Currency:      params.Currency,
		Description:   params.Description,
	}, &out)
	if err != nil {
		return nil, bankError("create transfer recipient", err)
	}
	if out.RecipientCode == "" {
		return nil, domain.GatewayError("create transfer recipient", fmt.Errorf("no recipient code returned"))
	}
	details, err := json.Marshal(out.Details)
	if err != nil {
		return nil, fmt.Errorf("failed to encode bank details: %w", err)
	}
	return &gateway.Recipient{
		Code:          out.RecipientCode,
		Name:          out.Name,
		AccountNumber: out.Details.AccountNumber,
		BankCode:      out.Details.BankCode,
		BankName:      out.Details.BankName,
		Details:       details,
	}, nil
}

type transferRequest struct {
	Source    string `json:"source"`
	Amount    int64  `json:"amount"`
	Recipient string `json:"recipient"`
	Reason    string `json:"reason,omitempty"`
	Reference string `json:"reference"`
	Currency  string `json:"currency,omitempty"`
}

type transferResponse struct {
	Reference    string `json:"reference"`
	TransferCode string `json:"transfer_code"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
}

// InitiatePayout calls POST /transfer from the integration balance.
func (c *Client) InitiatePayout(
	ctx context.Context,
	params gateway.PayoutParams,
) (*gateway.Payout, error) {
	var out transferResponse
	err := c.do(ctx, http.MethodPost, "/transfer", nil, transferRequest{
		Source:    "balance",
		Amount:    params.Amount,
		Recipient: params.RecipientCode,
		Reason:    params.Reason,
		Reference: params.Reference,
		Currency:  params.Currency,
	}, &out)
	if err != nil {
		var ae *apiError
		if errors.As(err, &ae) && ae.StatusCode >= http.StatusInternalServerError {
			// Paystack may have queued the transfer before failing
			err = fmt.Errorf("%w: %w", gateway.ErrOutcomeUnknown, err)
		}
		return nil, domain.GatewayError("initiate transfer", err)
	}
	if out.Reference == "" {
		out.Reference = params.Reference
	}
	if out.Amount == 0 {
		out.Amount = params.Amount
	}
	return &gateway.Payout{
		Reference:    out.Reference,
		TransferCode: out.TransferCode,
		Status:       out.Status,
		Amount:       out.Amount,
	}, nil
}

// bankError reports rejected bank details as ErrInvalidBankAccount and
// everything else as a gateway failure.
func bankError(op string, err error) error {
	if ae, ok := err.(*apiError); ok && ae.rejected() {
		return fmt.Errorf("%w: %s", domain.ErrInvalidBankAccount, ae.Message)
	}
	return domain.GatewayError(op, err)
}

var (
	_ gateway.Gateway  = (*Client)(nil)
	_ gateway.Webhooks = (*Client)(nil)
)
