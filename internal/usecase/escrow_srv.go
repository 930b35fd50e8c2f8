package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-payments/internal/data/entity"
	"marketplace-payments/internal/data/repository"
	"marketplace-payments/internal/dto/response"
	"marketplace-payments/internal/events"
	"marketplace-payments/pkg/database"
	"marketplace-payments/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EscrowService manages seller payout holds. Funds enter escrow when the
// payment completes (PaymentService creates the hold in the same
// transaction); this service handles the release side.
type EscrowService interface {
	// Release pays out a single hold. An already-released or cancelled hold
	// is a no-op, so the sweep and a manual admin release cannot double-pay.
	Release(ctx context.Context, holdID uuid.UUID, actorID *uuid.UUID) error

	ListHeldForSeller(ctx context.Context, sellerID uuid.UUID, page, perPage int) (*response.PaginatedResponse[response.HoldResponse], error)
}

type escrowService struct {
	repo    *repository.Repository
	tx      database.TxManager
	emitter events.Emitter
	log     *zap.Logger
}

func NewEscrowService(
	repo *repository.Repository,
	tx database.TxManager,
	emitter events.Emitter,
	log *zap.Logger,
) EscrowService {
	return &escrowService{
		repo:    repo,
		tx:      tx,
		emitter: emitter,
		log:     log.With(zap.String("service", "escrow")),
	}
}

func (s *escrowService) Release(ctx context.Context, holdID uuid.UUID, actorID *uuid.UUID) error {
	var released *entity.PaymentHold

	err := s.tx.WithinTx(ctx, func(ctx context.Context, q database.Querier) error {
		hold, err := s.repo.Hold.FindByID(ctx, holdID)
		if err != nil {
			return err
		}
		if hold == nil {
			return ErrHoldNotFound
		}

		now := time.Now()
		if err := s.repo.Hold.MarkReleased(ctx, q, hold.ID, now); err != nil {
			if errors.Is(err, repository.ErrHoldNotHeld) {
				s.log.Info("Release skipped: hold already left held status",
					zap.String("hold_id", hold.ID.String()),
					zap.String("status", string(hold.Status)),
				)
				return nil
			}
			return err
		}

		entry := &entity.AuditEntry{
			ID:        uuid.New(),
			PaymentID: hold.PaymentID,
			Action:    "hold.released",
			ActorID:   actorID,
			OldStatus: string(entity.HoldStatusHeld),
			NewStatus: string(entity.HoldStatusReleased),
			CreatedAt: now,
		}
		if err := s.repo.Audit.Append(ctx, q, entry); err != nil {
			return err
		}

		hold.Status = entity.HoldStatusReleased
		hold.ReleasedAt = &now
		released = hold
		return nil
	})
	if err != nil {
		return err
	}

	if released == nil {
		return nil
	}

	s.log.Info("Hold released",
		zap.String("hold_id", released.ID.String()),
		zap.String("seller_id", released.SellerID.String()),
		zap.Float64("amount", released.Amount),
	)

	s.emitter.Emit(ctx, events.EventEscrowReleased, map[string]any{
		"hold_id":    released.ID.String(),
		"payment_id": released.PaymentID.String(),
		"order_id":   released.OrderID.String(),
		"seller_id":  released.SellerID.String(),
		"amount":     released.Amount,
	})

	return nil
}

func (s *escrowService) ListHeldForSeller(ctx context.Context, sellerID uuid.UUID, page, perPage int) (*response.PaginatedResponse[response.HoldResponse], error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	total, err := s.repo.Hold.CountHeldBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("count seller holds: %w", err)
	}

	holds, err := s.repo.Hold.FindHeldBySeller(ctx, sellerID, perPage, utils.CalculateOffset(page, perPage))
	if err != nil {
		return nil, fmt.Errorf("list seller holds: %w", err)
	}

	data := make([]response.HoldResponse, len(holds))
	for i, hold := range holds {
		data[i] = response.HoldToResponse(hold)
	}

	return response.NewPaginatedResponse(data, page, perPage, total), nil
}
