package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"marketplace-payments/internal/data/entity"
	"marketplace-payments/internal/data/repository"
	"marketplace-payments/internal/dto/request"
	"marketplace-payments/internal/dto/response"
	"marketplace-payments/internal/events"
	"marketplace-payments/internal/provider"
	"marketplace-payments/pkg/cache"
	"marketplace-payments/pkg/database"
	"marketplace-payments/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Fixed failure reasons used by system-driven transitions.
const (
	ReasonTimedOut        = "timed out"
	ReasonCancelledByUser = "cancelled by user"
)

// PaymentService owns the payment lifecycle. It is the only component that
// mutates Payment, Order and PaymentHold rows, and every transition runs in
// a single transaction with a re-read of the current status, so duplicate
// webhook deliveries and racing sweeps collapse into no-ops.
type PaymentService interface {
	Initiate(ctx context.Context, requesterID uuid.UUID, req *request.InitiatePaymentRequest) (*response.InitiatePaymentResponse, error)
	Status(ctx context.Context, requesterID, paymentID uuid.UUID) (*response.PaymentStatusResponse, error)
	Retry(ctx context.Context, requesterID, paymentID uuid.UUID) (*response.InitiatePaymentResponse, error)
	Cancel(ctx context.Context, requesterID, paymentID uuid.UUID) error
	Refund(ctx context.Context, requesterID uuid.UUID, asAdmin bool, req *request.RefundPaymentRequest) error

	// Webhook-driven transitions
	ConfirmCheckout(ctx context.Context, paymentID uuid.UUID, token string) error
	ApplySuccess(ctx context.Context, paymentID uuid.UUID, providerTxID string) error
	ApplyFailure(ctx context.Context, paymentID uuid.UUID, reason string) error

	// Admin
	GetDetail(ctx context.Context, paymentID uuid.UUID) (*response.PaymentDetailResponse, error)
}

type paymentService struct {
	repo        *repository.Repository
	db          database.PgxIface
	tx          database.TxManager
	gateways    *provider.Registry
	emitter     events.Emitter
	statusCache cache.Cache
	config      *utils.Config
	log         *zap.Logger
}

func NewPaymentService(
	repo *repository.Repository,
	db database.PgxIface,
	tx database.TxManager,
	gateways *provider.Registry,
	emitter events.Emitter,
	statusCache cache.Cache,
	config *utils.Config,
	log *zap.Logger,
) PaymentService {
	return &paymentService{
		repo:        repo,
		db:          db,
		tx:          tx,
		gateways:    gateways,
		emitter:     emitter,
		statusCache: statusCache,
		config:      config,
		log:         log.With(zap.String("service", "payment")),
	}
}

func (s *paymentService) Initiate(ctx context.Context, requesterID uuid.UUID, req *request.InitiatePaymentRequest) (*response.InitiatePaymentResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Initiate payment validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("invalid order ID format %s: %w", req.OrderID, err)
	}

	order, err := s.repo.Order.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	if order.BuyerID != requesterID {
		return nil, ErrNotOrderOwner
	}

	if order.Status != entity.OrderStatusPendingPayment {
		return nil, ErrOrderNotAwaitingPayment
	}

	active, err := s.repo.Payment.FindActiveByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("check active payment: %w", err)
	}
	if active != nil {
		return nil, ErrActivePaymentExists
	}

	return s.startPayment(ctx, order, entity.PaymentProvider(req.Provider), nil)
}

// startPayment opens a provider session and records the new pending payment.
// The provider call happens before the row exists so a rejected session
// leaves no payment behind.
func (s *paymentService) startPayment(ctx context.Context, order *entity.Order, providerName entity.PaymentProvider, retryOf *uuid.UUID) (*response.InitiatePaymentResponse, error) {
	gateway, err := s.gateways.ForProvider(providerName)
	if err != nil {
		return nil, err
	}

	paymentID := uuid.New()
	initResult, err := gateway.Initialize(ctx, &provider.InitializeRequest{
		ConversationID: paymentID.String(),
		OrderNumber:    order.OrderNumber,
		Amount:         order.TotalAmount,
		Currency:       order.Currency,
		BuyerID:        order.BuyerID.String(),
	})
	if err != nil {
		s.log.Warn("Provider initialize failed",
			zap.Error(err),
			zap.String("order_id", order.ID.String()),
			zap.String("provider", string(providerName)),
		)
		return nil, err
	}

	now := time.Now()
	payment := &entity.Payment{
		Base: entity.Base{
			ID:        paymentID,
			CreatedAt: now,
			UpdatedAt: now,
		},
		OrderID:                order.ID,
		Amount:                 order.TotalAmount,
		Currency:               order.Currency,
		Provider:               providerName,
		Status:                 entity.PaymentStatusPending,
		ProviderConversationID: paymentID.String(),
		Metadata: entity.PaymentMetadata{
			ProviderToken: initResult.ProviderRef,
			RetryOf:       retryOf,
			Trail: []entity.TrailEntry{{
				Action:    "payment.initiated",
				NewStatus: entity.PaymentStatusPending,
				Timestamp: now,
			}},
		},
	}

	if err := s.repo.Payment.Create(ctx, s.db, payment); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	s.log.Info("Payment initiated",
		zap.String("payment_id", paymentID.String()),
		zap.String("order_id", order.ID.String()),
		zap.String("provider", string(providerName)),
		zap.Float64("amount", order.TotalAmount),
	)

	return &response.InitiatePaymentResponse{
		PaymentID:        paymentID.String(),
		Provider:         string(providerName),
		RedirectURL:      initResult.RedirectURL,
		EmbedHTML:        initResult.EmbedHTML,
		ExpiresInSeconds: s.config.Payment.PendingTimeoutMinutes * 60,
	}, nil
}

// statusProjection is the cached shape of the status endpoint. Participant
// IDs are cached alongside so authorization also works on a cache hit.
type statusProjection struct {
	response.PaymentStatusResponse
	BuyerID  string `json:"buyer_id"`
	SellerID string `json:"seller_id"`
}

func (s *paymentService) statusCacheKey(paymentID uuid.UUID) string {
	return "payment:status:" + paymentID.String()
}

func (s *paymentService) Status(ctx context.Context, requesterID, paymentID uuid.UUID) (*response.PaymentStatusResponse, error) {
	if s.statusCache != nil {
		if cached, ok := s.statusCache.Get(ctx, s.statusCacheKey(paymentID)); ok {
			var projection statusProjection
			if err := json.Unmarshal([]byte(cached), &projection); err == nil {
				if projection.BuyerID != requesterID.String() && projection.SellerID != requesterID.String() {
					return nil, ErrNotOrderParticipant
				}
				return &projection.PaymentStatusResponse, nil
			}
		}
	}

	payment, err := s.repo.Payment.FindByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("find payment: %w", err)
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}

	order, err := s.repo.Order.FindByID(ctx, payment.OrderID)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	if !order.IsParticipant(requesterID) {
		return nil, ErrNotOrderParticipant
	}

	projection := statusProjection{
		PaymentStatusResponse: response.PaymentToStatusResponse(payment),
		BuyerID:               order.BuyerID.String(),
		SellerID:              order.SellerID.String(),
	}

	if s.statusCache != nil {
		if encoded, err := json.Marshal(projection); err == nil {
			ttl := time.Duration(s.config.Redis.StatusTTLSeconds) * time.Second
			s.statusCache.Set(ctx, s.statusCacheKey(paymentID), string(encoded), ttl)
		}
	}

	return &projection.PaymentStatusResponse, nil
}

func (s *paymentService) Retry(ctx context.Context, requesterID, paymentID uuid.UUID) (*response.InitiatePaymentResponse, error) {
	original, err := s.repo.Payment.FindByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("find payment: %w", err)
	}
	if original == nil {
		return nil, ErrPaymentNotFound
	}

	order, err := s.repo.Order.FindByID(ctx, original.OrderID)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	if order.BuyerID != requesterID {
		return nil, ErrNotOrderOwner
	}

	// A retry never mutates the old row; it creates a brand-new payment
	// with a back-link to the failed one.
	if original.Status != entity.PaymentStatusFailed {
		return nil, ErrInvalidTransition
	}
	if order.Status != entity.OrderStatusPendingPayment {
		return nil, ErrOrderNotAwaitingPayment
	}

	resp, err := s.startPayment(ctx, order, original.Provider, &original.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info("Payment retried",
		zap.String("original_payment_id", original.ID.String()),
		zap.String("payment_id", resp.PaymentID),
	)

	return resp, nil
}

func (s *paymentService) Cancel(ctx context.Context, requesterID, paymentID uuid.UUID) error {
	payment, err := s.repo.Payment.FindByID(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("find payment: %w", err)
	}
	if payment == nil {
		return ErrPaymentNotFound
	}

	order, err := s.repo.Order.FindByID(ctx, payment.OrderID)
	if err != nil {
		return fmt.Errorf("find order: %w", err)
	}
	if order == nil {
		return ErrOrderNotFound
	}

	// Cancel is requester-gated: only a participant of the order may abort
	// a pending payment.
	if !order.IsParticipant(requesterID) {
		return ErrNotOrderParticipant
	}

	if payment.Status != entity.PaymentStatusPending {
		return ErrInvalidTransition
	}

	if err := s.applyFailure(ctx, paymentID, ReasonCancelledByUser, &requesterID); err != nil {
		return err
	}

	// Best-effort provider-side session cancel; the local state is already
	// authoritative.
	if gateway, gerr := s.gateways.ForProvider(payment.Provider); gerr == nil {
		if cerr := gateway.Cancel(ctx, payment.Metadata.ProviderToken); cerr != nil {
			s.log.Warn("Provider session cancel failed",
				zap.Error(cerr),
				zap.String("payment_id", paymentID.String()),
			)
		}
	}

	return nil
}

// ConfirmCheckout resolves a checkout form callback by actively verifying
// the token with the provider. A transient verify failure leaves the payment
// pending for the expiry sweep; only a confirmed outcome transitions it.
func (s *paymentService) ConfirmCheckout(ctx context.Context, paymentID uuid.UUID, token string) error {
	payment, err := s.repo.Payment.FindByID(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("find payment: %w", err)
	}
	if payment == nil {
		return ErrPaymentNotFound
	}

	if payment.Status != entity.PaymentStatusPending {
		// Duplicate delivery after the payment resolved; nothing to do.
		s.log.Info("Checkout callback for resolved payment ignored",
			zap.String("payment_id", paymentID.String()),
			zap.String("status", string(payment.Status)),
		)
		return nil
	}

	gateway, err := s.gateways.ForProvider(payment.Provider)
	if err != nil {
		return err
	}

	result, err := gateway.Verify(ctx, token)
	if err != nil {
		// Includes timeouts and unknown responses: not a confirmed failure.
		return fmt.Errorf("verify checkout: %w", err)
	}

	if result.Outcome == provider.OutcomeSuccess {
		if result.RawAmount != 0 && result.RawAmount != payment.Amount {
			s.log.Warn("Provider amount differs from payment amount",
				zap.String("payment_id", paymentID.String()),
				zap.Float64("payment_amount", payment.Amount),
				zap.Float64("provider_amount", result.RawAmount),
			)
		}
		return s.ApplySuccess(ctx, paymentID, result.ProviderTransactionID)
	}

	return s.ApplyFailure(ctx, paymentID, "provider confirmed payment failure")
}

// ApplySuccess moves a pending payment to completed: the payment, its order,
// the product, the escrow hold and the audit entry commit or roll back
// together. The order.paid event is emitted only after the commit.
func (s *paymentService) ApplySuccess(ctx context.Context, paymentID uuid.UUID, providerTxID string) error {
	var committed *entity.Payment
	var order *entity.Order
	var hold *entity.PaymentHold

	err := s.tx.WithinTx(ctx, func(ctx context.Context, q database.Querier) error {
		payment, err := s.repo.Payment.FindByIDForUpdate(ctx, q, paymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return ErrPaymentNotFound
		}

		// Idempotency: a repeated delivery finds the payment already
		// resolved and becomes a no-op.
		if payment.Status != entity.PaymentStatusPending {
			s.log.Info("Success transition skipped: payment already resolved",
				zap.String("payment_id", paymentID.String()),
				zap.String("status", string(payment.Status)),
			)
			return nil
		}

		o, err := s.repo.Order.FindByIDForUpdate(ctx, q, payment.OrderID)
		if err != nil {
			return err
		}
		if o == nil {
			return ErrOrderNotFound
		}

		now := time.Now()

		if err := s.repo.Payment.MarkCompleted(ctx, q, payment.ID, providerTxID, now); err != nil {
			return err
		}

		if err := s.repo.Order.UpdateStatus(ctx, q, o.ID, entity.OrderStatusPaid, o.Version); err != nil {
			return err
		}

		if err := s.repo.Product.MarkSold(ctx, q, o.ProductID); err != nil {
			return err
		}

		h := &entity.PaymentHold{
			BaseNoDelete: entity.BaseNoDelete{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			PaymentID: payment.ID,
			OrderID:   o.ID,
			SellerID:  o.SellerID,
			Amount:    o.TotalAmount - o.CommissionAmount,
			Status:    entity.HoldStatusHeld,
			ReleaseAt: now.AddDate(0, 0, s.config.Payment.HoldDays),
		}
		if err := s.repo.Hold.Create(ctx, q, h); err != nil {
			return err
		}

		if err := s.appendAudit(ctx, q, payment.ID, "payment.completed", nil,
			payment.Status, entity.PaymentStatusCompleted, "provider_tx_id="+providerTxID); err != nil {
			return err
		}

		payment.Metadata.Trail = append(payment.Metadata.Trail, entity.TrailEntry{
			Action:    "payment.completed",
			OldStatus: payment.Status,
			NewStatus: entity.PaymentStatusCompleted,
			Timestamp: now,
			Extra:     "provider_tx_id=" + providerTxID,
		})
		// The metadata trail is a secondary debug record; the audit table is
		// the authoritative one. Its failure must not void the transition.
		if err := s.repo.Payment.UpdateMetadata(ctx, q, payment.ID, payment.Metadata); err != nil {
			s.log.Warn("Failed to append metadata trail", zap.Error(err),
				zap.String("payment_id", payment.ID.String()))
		}

		committed = payment
		order = o
		hold = h
		return nil
	})
	if err != nil {
		return err
	}

	// No-op run: nothing committed, nothing to announce.
	if committed == nil {
		return nil
	}

	s.invalidateStatus(ctx, paymentID)

	s.log.Info("Payment completed",
		zap.String("payment_id", paymentID.String()),
		zap.String("order_id", order.ID.String()),
		zap.String("provider_tx_id", providerTxID),
		zap.Float64("hold_amount", hold.Amount),
	)

	s.emitter.Emit(ctx, events.EventOrderPaid, map[string]any{
		"order_id":     order.ID.String(),
		"order_number": order.OrderNumber,
		"payment_id":   paymentID.String(),
		"buyer_id":     order.BuyerID.String(),
		"seller_id":    order.SellerID.String(),
		"amount":       committed.Amount,
		"currency":     committed.Currency,
	})

	return nil
}

func (s *paymentService) ApplyFailure(ctx context.Context, paymentID uuid.UUID, reason string) error {
	return s.applyFailure(ctx, paymentID, reason, nil)
}

func (s *paymentService) applyFailure(ctx context.Context, paymentID uuid.UUID, reason string, actorID *uuid.UUID) error {
	var committed *entity.Payment

	err := s.tx.WithinTx(ctx, func(ctx context.Context, q database.Querier) error {
		payment, err := s.repo.Payment.FindByIDForUpdate(ctx, q, paymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return ErrPaymentNotFound
		}

		if payment.Status != entity.PaymentStatusPending {
			s.log.Info("Failure transition skipped: payment already resolved",
				zap.String("payment_id", paymentID.String()),
				zap.String("status", string(payment.Status)),
			)
			return nil
		}

		now := time.Now()

		if err := s.repo.Payment.MarkFailed(ctx, q, payment.ID, reason); err != nil {
			return err
		}

		if err := s.appendAudit(ctx, q, payment.ID, "payment.failed", actorID,
			payment.Status, entity.PaymentStatusFailed, reason); err != nil {
			return err
		}

		payment.Metadata.Trail = append(payment.Metadata.Trail, entity.TrailEntry{
			Action:    "payment.failed",
			OldStatus: payment.Status,
			NewStatus: entity.PaymentStatusFailed,
			Timestamp: now,
			Extra:     reason,
		})
		if err := s.repo.Payment.UpdateMetadata(ctx, q, payment.ID, payment.Metadata); err != nil {
			s.log.Warn("Failed to append metadata trail", zap.Error(err),
				zap.String("payment_id", payment.ID.String()))
		}

		committed = payment
		return nil
	})
	if err != nil {
		return err
	}

	if committed == nil {
		return nil
	}

	s.invalidateStatus(ctx, paymentID)

	s.log.Info("Payment failed",
		zap.String("payment_id", paymentID.String()),
		zap.String("reason", reason),
	)

	s.emitter.Emit(ctx, events.EventPaymentFailed, map[string]any{
		"payment_id": paymentID.String(),
		"order_id":   committed.OrderID.String(),
		"reason":     reason,
	})

	return nil
}

// Refund reverses a completed payment. The provider refund runs before the
// transaction because the provider is the source of truth for whether money
// moved; only its success opens the local transition.
func (s *paymentService) Refund(ctx context.Context, requesterID uuid.UUID, asAdmin bool, req *request.RefundPaymentRequest) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Refund validation failed", zap.Any("errors", errs))
		return fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return fmt.Errorf("invalid order ID format %s: %w", req.OrderID, err)
	}

	order, err := s.repo.Order.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("find order: %w", err)
	}
	if order == nil {
		return ErrOrderNotFound
	}

	if !asAdmin && order.SellerID != requesterID {
		return ErrNotOrderParticipant
	}

	payment, err := s.repo.Payment.FindLatestByOrderID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("find payment: %w", err)
	}
	if payment == nil {
		return ErrPaymentNotFound
	}

	switch payment.Status {
	case entity.PaymentStatusCompleted:
		// refundable
	case entity.PaymentStatusRefunded:
		return ErrAlreadyRefunded
	default:
		return ErrInvalidTransition
	}

	amount := payment.Amount
	if req.Amount != nil {
		amount = *req.Amount
	}
	if amount <= 0 || amount > payment.Amount {
		return ErrInvalidRefundAmount
	}

	if payment.ProviderTransactionID == nil {
		return fmt.Errorf("completed payment %s has no provider transaction ID", payment.ID.String())
	}

	gateway, err := s.gateways.ForProvider(payment.Provider)
	if err != nil {
		return err
	}

	refundResult, err := gateway.Refund(ctx, *payment.ProviderTransactionID, amount)
	if err != nil {
		return fmt.Errorf("provider refund: %w", err)
	}
	if refundResult.AlreadyRefunded {
		// Money already moved back on the provider side, e.g. a crash
		// between the provider call and our commit. Proceed so the local
		// books catch up; the transactional re-check keeps this idempotent.
		s.log.Warn("Provider reports transaction already refunded",
			zap.String("payment_id", payment.ID.String()),
		)
	}

	fullRefund := amount >= payment.Amount
	paymentID := payment.ID
	var committed *entity.Payment

	err = s.tx.WithinTx(ctx, func(ctx context.Context, q database.Querier) error {
		locked, err := s.repo.Payment.FindByIDForUpdate(ctx, q, paymentID)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrPaymentNotFound
		}

		if locked.Status == entity.PaymentStatusRefunded {
			return nil
		}
		if locked.Status != entity.PaymentStatusCompleted {
			return ErrInvalidTransition
		}

		now := time.Now()

		if err := s.repo.Payment.MarkRefunded(ctx, q, locked.ID); err != nil {
			return err
		}

		hold, err := s.repo.Hold.FindByPaymentID(ctx, q, locked.ID)
		if err != nil {
			return err
		}
		if hold != nil {
			if err := s.repo.Hold.MarkCancelled(ctx, q, hold.ID); err != nil {
				if err == repository.ErrHoldNotHeld {
					// The hold was already paid out; the refund still
					// proceeds, but this needs eyes.
					s.log.Warn("Refund on payment whose hold already left held status",
						zap.String("payment_id", locked.ID.String()),
						zap.String("hold_id", hold.ID.String()),
						zap.String("hold_status", string(hold.Status)),
					)
				} else {
					return err
				}
			}
		}

		if fullRefund {
			o, err := s.repo.Order.FindByIDForUpdate(ctx, q, locked.OrderID)
			if err != nil {
				return err
			}
			if o == nil {
				return ErrOrderNotFound
			}
			if err := s.repo.Order.UpdateStatus(ctx, q, o.ID, entity.OrderStatusCancelled, o.Version); err != nil {
				return err
			}
		}
		// A partial refund leaves the order status untouched.

		extra := fmt.Sprintf("amount=%.2f", amount)
		if err := s.appendAudit(ctx, q, locked.ID, "payment.refunded", &requesterID,
			locked.Status, entity.PaymentStatusRefunded, extra); err != nil {
			return err
		}

		locked.Metadata.Trail = append(locked.Metadata.Trail, entity.TrailEntry{
			Action:    "payment.refunded",
			OldStatus: locked.Status,
			NewStatus: entity.PaymentStatusRefunded,
			Timestamp: now,
			Extra:     extra,
		})
		if err := s.repo.Payment.UpdateMetadata(ctx, q, locked.ID, locked.Metadata); err != nil {
			s.log.Warn("Failed to append metadata trail", zap.Error(err),
				zap.String("payment_id", locked.ID.String()))
		}

		committed = locked
		return nil
	})
	if err != nil {
		return err
	}

	if committed == nil {
		return nil
	}

	s.invalidateStatus(ctx, paymentID)

	s.log.Info("Payment refunded",
		zap.String("payment_id", paymentID.String()),
		zap.String("order_id", committed.OrderID.String()),
		zap.Float64("amount", amount),
		zap.Bool("full_refund", fullRefund),
	)

	s.emitter.Emit(ctx, events.EventPaymentRefunded, map[string]any{
		"payment_id":  paymentID.String(),
		"order_id":    committed.OrderID.String(),
		"amount":      amount,
		"full_refund": fullRefund,
	})

	return nil
}

func (s *paymentService) GetDetail(ctx context.Context, paymentID uuid.UUID) (*response.PaymentDetailResponse, error) {
	payment, err := s.repo.Payment.FindByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("find payment: %w", err)
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}

	audit, err := s.repo.Audit.ListByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}

	return response.PaymentToDetailResponse(payment, audit), nil
}

func (s *paymentService) appendAudit(ctx context.Context, q database.Querier, paymentID uuid.UUID, action string, actorID *uuid.UUID, oldStatus, newStatus entity.PaymentStatus, extra string) error {
	entry := &entity.AuditEntry{
		ID:        uuid.New(),
		PaymentID: paymentID,
		Action:    action,
		ActorID:   actorID,
		OldStatus: string(oldStatus),
		NewStatus: string(newStatus),
		CreatedAt: time.Now(),
	}
	if extra != "" {
		entry.Extra = &extra
	}
	return s.repo.Audit.Append(ctx, q, entry)
}

func (s *paymentService) invalidateStatus(ctx context.Context, paymentID uuid.UUID) {
	if s.statusCache != nil {
		s.statusCache.Delete(ctx, s.statusCacheKey(paymentID))
	}
}
