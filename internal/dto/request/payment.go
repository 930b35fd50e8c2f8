package request

type InitiatePaymentRequest struct {
	OrderID  string `json:"order_id" validate:"required,uuid"`
	Provider string `json:"provider" validate:"required,oneof=checkout_form iframe_token"`
}

type RefundPaymentRequest struct {
	OrderID string `json:"order_id" validate:"required,uuid"`
	// Amount is optional; omitted means a full refund.
	Amount *float64 `json:"amount" validate:"omitempty,gt=0"`
}

// CheckoutCallbackRequest is the JSON body the checkout form rail posts to
// our callback endpoint. The final outcome is not trusted from this body; it
// is confirmed with an active verify call.
type CheckoutCallbackRequest struct {
	ConversationID string `json:"conversation_id" validate:"required,uuid"`
	Token          string `json:"token" validate:"required"`
}
