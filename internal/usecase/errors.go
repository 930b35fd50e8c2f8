package usecase

import "errors"

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrHoldNotFound    = errors.New("hold not found")

	// ErrNotOrderOwner means the requester is not the buyer of the order.
	ErrNotOrderOwner = errors.New("requester is not the buyer of this order")

	// ErrNotOrderParticipant means the requester is neither buyer nor seller.
	ErrNotOrderParticipant = errors.New("requester is not a participant of this order")

	ErrOrderNotAwaitingPayment = errors.New("order is not awaiting payment")

	// ErrActivePaymentExists guards the one-non-terminal-payment-per-order
	// invariant: a new payment cannot start while one is still pending.
	ErrActivePaymentExists = errors.New("order already has a payment in progress")

	ErrInvalidTransition   = errors.New("invalid payment state transition")
	ErrAlreadyRefunded     = errors.New("payment has already been refunded")
	ErrInvalidRefundAmount = errors.New("refund amount exceeds the payment amount")
)
