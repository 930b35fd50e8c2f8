package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketplace-payments/internal/data/entity"
	"marketplace-payments/internal/events"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func newSweeperFixture(t *testing.T) (*paymentFixture, SweeperService) {
	t.Helper()
	f := newPaymentFixture(t)
	escrow := NewEscrowService(f.db.repository(), &fakeTx{db: f.db}, f.emitter, zap.NewNop())
	sweeper := NewSweeperService(f.db.repository(), f.svc, escrow, testConfig(), zap.NewNop())
	return f, sweeper
}

func (f *paymentFixture) seedHold(status entity.HoldStatus, releaseAt time.Time) *entity.PaymentHold {
	hold := &entity.PaymentHold{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		PaymentID: uuid.New(),
		OrderID:   f.order.ID,
		SellerID:  f.sellerID,
		Amount:    920,
		Status:    status,
		ReleaseAt: releaseAt,
	}
	f.db.holds[hold.ID] = hold
	return hold
}

func TestExpirePendingPayments_FailsOnlyStaleOnes(t *testing.T) {
	f, sweeper := newSweeperFixture(t)

	stale := f.seedPayment(entity.PaymentStatusPending, time.Now().Add(-30*time.Minute))
	fresh := f.seedPayment(entity.PaymentStatusPending, time.Now().Add(-5*time.Minute))

	result, err := sweeper.ExpirePendingPayments(context.Background())
	if err != nil {
		t.Fatalf("ExpirePendingPayments returned error: %v", err)
	}

	if result.Processed != 1 || result.Failed != 0 {
		t.Errorf("expected 1 processed / 0 failed, got %d / %d", result.Processed, result.Failed)
	}

	got := f.db.payments[stale.ID]
	if got.Status != entity.PaymentStatusFailed {
		t.Errorf("stale payment must be failed, got %s", got.Status)
	}
	if got.FailureReason == nil || *got.FailureReason != ReasonTimedOut {
		t.Errorf("expected %q reason, got %v", ReasonTimedOut, got.FailureReason)
	}

	if f.db.payments[fresh.ID].Status != entity.PaymentStatusPending {
		t.Error("payment inside the window must stay pending")
	}
	if f.emitter.count(events.EventPaymentFailed) != 1 {
		t.Errorf("expected one payment.failed event, got %d", f.emitter.count(events.EventPaymentFailed))
	}
}

func TestExpirePendingPayments_SkipsResolvedPayments(t *testing.T) {
	f, sweeper := newSweeperFixture(t)

	f.seedPayment(entity.PaymentStatusCompleted, time.Now().Add(-30*time.Minute))
	f.seedPayment(entity.PaymentStatusFailed, time.Now().Add(-30*time.Minute))

	result, err := sweeper.ExpirePendingPayments(context.Background())
	if err != nil {
		t.Fatalf("ExpirePendingPayments returned error: %v", err)
	}
	if result.Processed != 0 || result.Failed != 0 {
		t.Errorf("resolved payments must not be swept, got %d / %d", result.Processed, result.Failed)
	}
}

func TestExpirePendingPayments_IsolatesPerItemFailures(t *testing.T) {
	f, sweeper := newSweeperFixture(t)

	f.seedPayment(entity.PaymentStatusPending, time.Now().Add(-30*time.Minute))
	f.seedPayment(entity.PaymentStatusPending, time.Now().Add(-40*time.Minute))

	f.db.failAuditAppend = errors.New("audit table unavailable")

	result, err := sweeper.ExpirePendingPayments(context.Background())
	if err != nil {
		t.Fatalf("ExpirePendingPayments returned error: %v", err)
	}
	if result.Processed != 0 || result.Failed != 2 {
		t.Errorf("expected 0 processed / 2 failed while audit is down, got %d / %d",
			result.Processed, result.Failed)
	}

	for _, p := range f.db.payments {
		if p.Status != entity.PaymentStatusPending {
			t.Errorf("failed expiry must roll back, payment %s is %s", p.ID, p.Status)
		}
	}

	// Fault clears; the next run drains the batch.
	f.db.failAuditAppend = nil
	result, err = sweeper.ExpirePendingPayments(context.Background())
	if err != nil {
		t.Fatalf("second run returned error: %v", err)
	}
	if result.Processed != 2 || result.Failed != 0 {
		t.Errorf("expected 2 processed after fault cleared, got %d / %d", result.Processed, result.Failed)
	}
}

func TestReleaseDueHolds_ReleasesOnlyDueOnes(t *testing.T) {
	f, sweeper := newSweeperFixture(t)

	due := f.seedHold(entity.HoldStatusHeld, time.Now().Add(-time.Hour))
	notDue := f.seedHold(entity.HoldStatusHeld, time.Now().Add(48*time.Hour))
	cancelled := f.seedHold(entity.HoldStatusCancelled, time.Now().Add(-time.Hour))

	result, err := sweeper.ReleaseDueHolds(context.Background())
	if err != nil {
		t.Fatalf("ReleaseDueHolds returned error: %v", err)
	}

	if result.Processed != 1 || result.Failed != 0 {
		t.Errorf("expected 1 processed / 0 failed, got %d / %d", result.Processed, result.Failed)
	}
	if f.db.holds[due.ID].Status != entity.HoldStatusReleased {
		t.Error("due hold must be released")
	}
	if f.db.holds[notDue.ID].Status != entity.HoldStatusHeld {
		t.Error("hold before its release time must stay held")
	}
	if f.db.holds[cancelled.ID].Status != entity.HoldStatusCancelled {
		t.Error("cancelled hold must not be released")
	}
	if f.emitter.count(events.EventEscrowReleased) != 1 {
		t.Errorf("expected one escrow.released event, got %d", f.emitter.count(events.EventEscrowReleased))
	}
}

func TestReleaseDueHolds_IdempotentAcrossRuns(t *testing.T) {
	f, sweeper := newSweeperFixture(t)

	f.seedHold(entity.HoldStatusHeld, time.Now().Add(-time.Hour))

	if _, err := sweeper.ReleaseDueHolds(context.Background()); err != nil {
		t.Fatalf("first run returned error: %v", err)
	}

	result, err := sweeper.ReleaseDueHolds(context.Background())
	if err != nil {
		t.Fatalf("second run returned error: %v", err)
	}
	if result.Processed != 0 {
		t.Errorf("released hold must not be picked up again, got %d processed", result.Processed)
	}
	if f.emitter.count(events.EventEscrowReleased) != 1 {
		t.Errorf("expected exactly one escrow.released event, got %d", f.emitter.count(events.EventEscrowReleased))
	}
}
