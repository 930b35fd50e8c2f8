package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"marketplace-payments/internal/data/entity"
	"marketplace-payments/pkg/utils"

	"go.uber.org/zap"
)

// checkoutFormGateway talks to the hosted checkout form rail. Initialize
// opens a checkout session and returns a redirect URL; the outcome is
// confirmed by actively calling Verify with the callback token, because the
// rail's callback does not carry the final result itself.
type checkoutFormGateway struct {
	config utils.CheckoutProviderConfig
	client *http.Client
	log    *zap.Logger
}

func NewCheckoutFormGateway(config utils.CheckoutProviderConfig, timeout time.Duration, log *zap.Logger) Gateway {
	return &checkoutFormGateway{
		config: config,
		client: &http.Client{Timeout: timeout},
		log:    log.With(zap.String("gateway", "checkout_form")),
	}
}

func (g *checkoutFormGateway) Name() entity.PaymentProvider {
	return entity.ProviderCheckoutForm
}

func (g *checkoutFormGateway) configured() bool {
	return g.config.APIKey != "" && g.config.SecretKey != "" && g.config.BaseURL != ""
}

type checkoutSessionRequest struct {
	ConversationID string  `json:"conversation_id"`
	OrderNumber    string  `json:"order_number"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	BuyerID        string  `json:"buyer_id"`
	CallbackURL    string  `json:"callback_url"`
}

type checkoutSessionResponse struct {
	Status      string `json:"status"`
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
	Message     string `json:"message"`
}

func (g *checkoutFormGateway) Initialize(ctx context.Context, req *InitializeRequest) (*InitializeResult, error) {
	if !g.configured() {
		return nil, ErrUnavailable
	}

	body := checkoutSessionRequest{
		ConversationID: req.ConversationID,
		OrderNumber:    req.OrderNumber,
		Amount:         req.Amount,
		Currency:       req.Currency,
		BuyerID:        req.BuyerID,
		CallbackURL:    g.config.CallbackURL,
	}

	var resp checkoutSessionResponse
	if err := g.post(ctx, "/v1/checkout/sessions", body, &resp); err != nil {
		return nil, err
	}

	if resp.Status != "success" {
		return nil, &RejectedError{Provider: "checkout_form", Message: resp.Message}
	}

	return &InitializeResult{
		RedirectURL: resp.RedirectURL,
		ProviderRef: resp.Token,
	}, nil
}

type checkoutVerifyResponse struct {
	Status        string  `json:"status"`
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
	Message       string  `json:"message"`
}

// Verify queries the rail for the checkout result. Only an explicit
// "success" or "failure" from the provider is treated as confirmed; anything
// else surfaces as transient so the payment stays pending.
func (g *checkoutFormGateway) Verify(ctx context.Context, token string) (*VerifyResult, error) {
	if !g.configured() {
		return nil, ErrUnavailable
	}

	var resp checkoutVerifyResponse
	err := g.post(ctx, "/v1/checkout/verify", map[string]string{"token": token}, &resp)
	if err != nil {
		return nil, err
	}

	switch resp.Status {
	case "success":
		return &VerifyResult{
			Outcome:               OutcomeSuccess,
			ProviderTransactionID: resp.TransactionID,
			RawAmount:             resp.Amount,
		}, nil
	case "failure":
		return &VerifyResult{
			Outcome:               OutcomeFailure,
			ProviderTransactionID: resp.TransactionID,
		}, nil
	default:
		return nil, &TransientError{
			Provider: "checkout_form",
			Op:       "verify",
			Err:      fmt.Errorf("unexpected status %q: %s", resp.Status, resp.Message),
		}
	}
}

type checkoutRefundResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (g *checkoutFormGateway) Refund(ctx context.Context, transactionID string, amount float64) (*RefundResult, error) {
	if !g.configured() {
		return nil, ErrUnavailable
	}

	body := map[string]any{
		"transaction_id": transactionID,
		"amount":         amount,
	}

	var resp checkoutRefundResponse
	if err := g.post(ctx, "/v1/refunds", body, &resp); err != nil {
		return nil, err
	}

	if resp.Status != "success" {
		if resp.Code == "already_refunded" {
			return &RefundResult{AlreadyRefunded: true}, nil
		}
		return nil, &RejectedError{Provider: "checkout_form", Message: resp.Message}
	}

	return &RefundResult{}, nil
}

func (g *checkoutFormGateway) Cancel(ctx context.Context, providerRef string) error {
	if !g.configured() {
		return ErrUnavailable
	}

	var resp checkoutRefundResponse
	if err := g.post(ctx, "/v1/checkout/cancel", map[string]string{"token": providerRef}, &resp); err != nil {
		return err
	}

	if resp.Status != "success" {
		return &RejectedError{Provider: "checkout_form", Message: resp.Message}
	}

	return nil
}

// post sends a signed JSON request. Network failures and malformed or 5xx
// responses come back as TransientError; they never mean a confirmed outcome.
func (g *checkoutFormGateway) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request for %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", g.config.APIKey)
	req.Header.Set("X-Checkout-Signature", hmacSHA256Hex(g.config.SecretKey, payload))

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Warn("Checkout form request failed", zap.Error(err), zap.String("path", path))
		return &TransientError{Provider: "checkout_form", Op: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return &TransientError{
			Provider: "checkout_form",
			Op:       path,
			Err:      fmt.Errorf("provider returned HTTP %d", resp.StatusCode),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransientError{Provider: "checkout_form", Op: path, Err: fmt.Errorf("decode response: %w", err)}
	}

	return nil
}
