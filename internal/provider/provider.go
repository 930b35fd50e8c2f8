package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"marketplace-payments/internal/data/entity"
)

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// InitializeRequest carries the order data a rail needs to open a checkout
// session. ConversationID is our payment ID and comes back on the callback.
type InitializeRequest struct {
	ConversationID string
	OrderNumber    string
	Amount         float64
	Currency       string
	BuyerID        string
}

// InitializeResult is the renderable target for the buyer. Exactly one of
// RedirectURL or EmbedHTML is set, depending on the rail.
type InitializeResult struct {
	RedirectURL string
	EmbedHTML   string
	ProviderRef string
}

type VerifyResult struct {
	Outcome               Outcome
	ProviderTransactionID string
	RawAmount             float64
}

type RefundResult struct {
	// AlreadyRefunded is set when the provider reports the transaction was
	// refunded before this call. The ledger must not be charged twice.
	AlreadyRefunded bool
}

// Gateway normalizes the two external payment rails into one interface.
// Every method is a network I/O boundary with an explicit timeout; no retry
// policy lives here.
type Gateway interface {
	Name() entity.PaymentProvider
	Initialize(ctx context.Context, req *InitializeRequest) (*InitializeResult, error)
	Verify(ctx context.Context, token string) (*VerifyResult, error)
	Refund(ctx context.Context, transactionID string, amount float64) (*RefundResult, error)
	Cancel(ctx context.Context, providerRef string) error
}

// Registry holds the closed set of configured gateways. Only two rails
// exist; no plugin mechanism is needed.
type Registry struct {
	Checkout Gateway
	Iframe   Gateway
}

func (r *Registry) ForProvider(p entity.PaymentProvider) (Gateway, error) {
	switch p {
	case entity.ProviderCheckoutForm:
		return r.Checkout, nil
	case entity.ProviderIframeToken:
		return r.Iframe, nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", string(p))
	}
}

func decodeJSON(resp *http.Response, out any) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
