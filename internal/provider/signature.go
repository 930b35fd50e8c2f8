package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"go.uber.org/zap"
)

func hmacSHA256Hex(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// CallbackHash computes the iframe rail's callback hash: an HMAC-SHA256 over
// merchant id, order reference, status and amount, salted and keyed with the
// merchant credentials, base64 encoded.
func CallbackHash(merchantID, orderRef, status, amount, merchantKey, merchantSalt string) string {
	mac := hmac.New(sha256.New, []byte(merchantKey))
	mac.Write([]byte(merchantID + orderRef + status + amount + merchantSalt))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// HMACVerifier authenticates checkout form callbacks: the expected signature
// is an HMAC-SHA256 over the raw request body with the shared secret.
type HMACVerifier struct {
	secret string
	// allowSkip permits unverified callbacks when no secret is configured.
	// This is a development-mode fallback only; with allowSkip false an
	// unset secret fails closed.
	allowSkip bool
	log       *zap.Logger
}

func NewHMACVerifier(secret string, allowSkip bool, log *zap.Logger) *HMACVerifier {
	return &HMACVerifier{
		secret:    secret,
		allowSkip: allowSkip,
		log:       log.With(zap.String("verifier", "hmac")),
	}
}

func (v *HMACVerifier) Verify(body []byte, signature string) error {
	if v.secret == "" {
		if v.allowSkip {
			v.log.Warn("Webhook signature verification skipped: no secret configured")
			return nil
		}
		return ErrIntegrityFailure
	}

	expected := hmacSHA256Hex(v.secret, body)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(signature))) != 1 {
		return ErrIntegrityFailure
	}

	return nil
}

// CallbackHashVerifier authenticates iframe rail callbacks by recomputing the
// hash the provider derived from merchant id, order reference, amount and
// status with the shared key.
type CallbackHashVerifier struct {
	merchantID   string
	merchantKey  string
	merchantSalt string
	allowSkip    bool
	log          *zap.Logger
}

func NewCallbackHashVerifier(merchantID, merchantKey, merchantSalt string, allowSkip bool, log *zap.Logger) *CallbackHashVerifier {
	return &CallbackHashVerifier{
		merchantID:   merchantID,
		merchantKey:  merchantKey,
		merchantSalt: merchantSalt,
		allowSkip:    allowSkip,
		log:          log.With(zap.String("verifier", "callback_hash")),
	}
}

func (v *CallbackHashVerifier) Verify(orderRef, status, amount, hash string) error {
	if v.merchantKey == "" || v.merchantSalt == "" {
		if v.allowSkip {
			v.log.Warn("Callback hash verification skipped: merchant credentials not configured")
			return nil
		}
		return ErrIntegrityFailure
	}

	expected := CallbackHash(v.merchantID, orderRef, status, amount, v.merchantKey, v.merchantSalt)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(hash))) != 1 {
		return ErrIntegrityFailure
	}

	return nil
}
