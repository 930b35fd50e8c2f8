package provider

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"marketplace-payments/internal/data/entity"
	"marketplace-payments/pkg/utils"

	"go.uber.org/zap"
)

// iframeTokenGateway talks to the embedded iframe rail. Initialize requests a
// one-time token and returns iframe HTML for the storefront to embed; the
// final outcome arrives on the hash-signed callback, so Verify is only a
// status poll used when the callback is in doubt.
type iframeTokenGateway struct {
	config utils.IframeProviderConfig
	client *http.Client
	log    *zap.Logger
}

func NewIframeTokenGateway(config utils.IframeProviderConfig, timeout time.Duration, log *zap.Logger) Gateway {
	return &iframeTokenGateway{
		config: config,
		client: &http.Client{Timeout: timeout},
		log:    log.With(zap.String("gateway", "iframe_token")),
	}
}

func (g *iframeTokenGateway) Name() entity.PaymentProvider {
	return entity.ProviderIframeToken
}

func (g *iframeTokenGateway) configured() bool {
	return g.config.MerchantID != "" && g.config.MerchantKey != "" &&
		g.config.MerchantSalt != "" && g.config.BaseURL != ""
}

func (g *iframeTokenGateway) Initialize(ctx context.Context, req *InitializeRequest) (*InitializeResult, error) {
	if !g.configured() {
		return nil, ErrUnavailable
	}

	amount := strconv.FormatFloat(req.Amount, 'f', 2, 64)
	form := url.Values{}
	form.Set("merchant_id", g.config.MerchantID)
	form.Set("merchant_oid", req.ConversationID)
	form.Set("order_number", req.OrderNumber)
	form.Set("amount", amount)
	form.Set("currency", req.Currency)
	form.Set("buyer_id", req.BuyerID)
	form.Set("callback_url", g.config.CallbackURL)
	form.Set("request_token", CallbackHash(g.config.MerchantID, req.ConversationID, "init", amount,
		g.config.MerchantKey, g.config.MerchantSalt))

	var resp struct {
		Status string `json:"status"`
		Token  string `json:"token"`
		Reason string `json:"reason"`
	}
	if err := g.postForm(ctx, "/api/get-token", form, &resp); err != nil {
		return nil, err
	}

	if resp.Status != "success" {
		return nil, &RejectedError{Provider: "iframe_token", Message: resp.Reason}
	}

	embed := fmt.Sprintf(
		`<iframe src="%s/embed/%s" id="payment-frame" frameborder="0" scrolling="no" style="width:100%%"></iframe>`,
		strings.TrimRight(g.config.BaseURL, "/"), html.EscapeString(resp.Token),
	)

	return &InitializeResult{
		EmbedHTML:   embed,
		ProviderRef: resp.Token,
	}, nil
}

func (g *iframeTokenGateway) Verify(ctx context.Context, token string) (*VerifyResult, error) {
	if !g.configured() {
		return nil, ErrUnavailable
	}

	form := url.Values{}
	form.Set("merchant_id", g.config.MerchantID)
	form.Set("merchant_oid", token)

	var resp struct {
		Status        string `json:"status"`
		TransactionID string `json:"transaction_id"`
		Amount        string `json:"amount"`
		Reason        string `json:"reason"`
	}
	if err := g.postForm(ctx, "/api/status", form, &resp); err != nil {
		return nil, err
	}

	switch resp.Status {
	case "success":
		amount, _ := strconv.ParseFloat(resp.Amount, 64)
		return &VerifyResult{
			Outcome:               OutcomeSuccess,
			ProviderTransactionID: resp.TransactionID,
			RawAmount:             amount,
		}, nil
	case "failed":
		return &VerifyResult{Outcome: OutcomeFailure}, nil
	default:
		return nil, &TransientError{
			Provider: "iframe_token",
			Op:       "status",
			Err:      fmt.Errorf("unexpected status %q: %s", resp.Status, resp.Reason),
		}
	}
}

func (g *iframeTokenGateway) Refund(ctx context.Context, transactionID string, amount float64) (*RefundResult, error) {
	if !g.configured() {
		return nil, ErrUnavailable
	}

	amountStr := strconv.FormatFloat(amount, 'f', 2, 64)
	form := url.Values{}
	form.Set("merchant_id", g.config.MerchantID)
	form.Set("transaction_id", transactionID)
	form.Set("amount", amountStr)
	form.Set("request_token", CallbackHash(g.config.MerchantID, transactionID, "refund", amountStr,
		g.config.MerchantKey, g.config.MerchantSalt))

	var resp struct {
		Status string `json:"status"`
		Code   string `json:"code"`
		Reason string `json:"reason"`
	}
	if err := g.postForm(ctx, "/api/refund", form, &resp); err != nil {
		return nil, err
	}

	if resp.Status != "success" {
		if resp.Code == "already_refunded" {
			return &RefundResult{AlreadyRefunded: true}, nil
		}
		return nil, &RejectedError{Provider: "iframe_token", Message: resp.Reason}
	}

	return &RefundResult{}, nil
}

func (g *iframeTokenGateway) Cancel(ctx context.Context, providerRef string) error {
	if !g.configured() {
		return ErrUnavailable
	}

	form := url.Values{}
	form.Set("merchant_id", g.config.MerchantID)
	form.Set("token", providerRef)

	var resp struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if err := g.postForm(ctx, "/api/cancel", form, &resp); err != nil {
		return err
	}

	if resp.Status != "success" {
		return &RejectedError{Provider: "iframe_token", Message: resp.Reason}
	}

	return nil
}

func (g *iframeTokenGateway) postForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.BaseURL+path,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Warn("Iframe rail request failed", zap.Error(err), zap.String("path", path))
		return &TransientError{Provider: "iframe_token", Op: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return &TransientError{
			Provider: "iframe_token",
			Op:       path,
			Err:      fmt.Errorf("provider returned HTTP %d", resp.StatusCode),
		}
	}

	if err := decodeJSON(resp, out); err != nil {
		return &TransientError{Provider: "iframe_token", Op: path, Err: err}
	}

	return nil
}
