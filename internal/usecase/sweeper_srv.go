package usecase

import (
	"context"
	"fmt"
	"time"

	"marketplace-payments/internal/data/repository"
	"marketplace-payments/internal/dto/response"
	"marketplace-payments/pkg/utils"

	"go.uber.org/zap"
)

// SweeperService runs the two time-driven resolutions: expiring payments the
// buyer abandoned and releasing escrow holds whose window elapsed. Both walk
// a bounded batch and isolate failures per item, so one bad row cannot stall
// the rest of the batch.
type SweeperService interface {
	ExpirePendingPayments(ctx context.Context) (*response.SweepResponse, error)
	ReleaseDueHolds(ctx context.Context) (*response.SweepResponse, error)
}

type sweeperService struct {
	repo    *repository.Repository
	payment PaymentService
	escrow  EscrowService
	config  *utils.Config
	log     *zap.Logger
}

func NewSweeperService(
	repo *repository.Repository,
	payment PaymentService,
	escrow EscrowService,
	config *utils.Config,
	log *zap.Logger,
) SweeperService {
	return &sweeperService{
		repo:    repo,
		payment: payment,
		escrow:  escrow,
		config:  config,
		log:     log.With(zap.String("service", "sweeper")),
	}
}

func (s *sweeperService) ExpirePendingPayments(ctx context.Context) (*response.SweepResponse, error) {
	cutoff := time.Now().Add(-time.Duration(s.config.Payment.PendingTimeoutMinutes) * time.Minute)

	stale, err := s.repo.Payment.FindStalePending(ctx, cutoff, s.config.Sweep.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("find stale pending payments: %w", err)
	}

	result := &response.SweepResponse{}
	for _, payment := range stale {
		// Each expiry runs in its own transaction with a status re-read, so
		// a payment that resolved between the scan and here is a no-op.
		if err := s.payment.ApplyFailure(ctx, payment.ID, ReasonTimedOut); err != nil {
			s.log.Error("Failed to expire stale payment",
				zap.Error(err),
				zap.String("payment_id", payment.ID.String()),
			)
			result.Failed++
			continue
		}
		result.Processed++
	}

	if result.Processed > 0 || result.Failed > 0 {
		s.log.Info("Pending payment sweep finished",
			zap.Int("processed", result.Processed),
			zap.Int("failed", result.Failed),
		)
	}

	return result, nil
}

func (s *sweeperService) ReleaseDueHolds(ctx context.Context) (*response.SweepResponse, error) {
	due, err := s.repo.Hold.FindDue(ctx, time.Now(), s.config.Sweep.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("find due holds: %w", err)
	}

	result := &response.SweepResponse{}
	for _, hold := range due {
		if err := s.escrow.Release(ctx, hold.ID, nil); err != nil {
			s.log.Error("Failed to release due hold",
				zap.Error(err),
				zap.String("hold_id", hold.ID.String()),
			)
			result.Failed++
			continue
		}
		result.Processed++
	}

	if result.Processed > 0 || result.Failed > 0 {
		s.log.Info("Hold release sweep finished",
			zap.Int("processed", result.Processed),
			zap.Int("failed", result.Failed),
		)
	}

	return result, nil
}
