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

type escrowFixture struct {
	db      *memDB
	svc     EscrowService
	emitter *recordingEmitter

	sellerID uuid.UUID
}

func newEscrowFixture(t *testing.T) *escrowFixture {
	t.Helper()

	db := newMemDB()
	f := &escrowFixture{
		db:       db,
		emitter:  &recordingEmitter{},
		sellerID: uuid.New(),
	}
	f.svc = NewEscrowService(db.repository(), &fakeTx{db: db}, f.emitter, zap.NewNop())
	return f
}

func (f *escrowFixture) seedHold(status entity.HoldStatus, releaseAt time.Time) *entity.PaymentHold {
	hold := &entity.PaymentHold{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		PaymentID: uuid.New(),
		OrderID:   uuid.New(),
		SellerID:  f.sellerID,
		Amount:    920,
		Status:    status,
		ReleaseAt: releaseAt,
	}
	f.db.holds[hold.ID] = hold
	return hold
}

func TestRelease_PaysOutHeldHold(t *testing.T) {
	f := newEscrowFixture(t)
	hold := f.seedHold(entity.HoldStatusHeld, time.Now())

	actor := uuid.New()
	if err := f.svc.Release(context.Background(), hold.ID, &actor); err != nil {
		t.Fatalf("Release returned error: %v", err)
	}

	got := f.db.holds[hold.ID]
	if got.Status != entity.HoldStatusReleased {
		t.Errorf("expected released hold, got %s", got.Status)
	}
	if got.ReleasedAt == nil {
		t.Error("released_at not recorded")
	}

	if f.emitter.count(events.EventEscrowReleased) != 1 {
		t.Errorf("expected one escrow.released event, got %d", f.emitter.count(events.EventEscrowReleased))
	}
	if len(f.db.audits) != 1 || f.db.audits[0].Action != "hold.released" {
		t.Errorf("expected one hold.released audit entry, got %+v", f.db.audits)
	}
}

func TestRelease_AlreadyReleasedIsNoOp(t *testing.T) {
	f := newEscrowFixture(t)
	hold := f.seedHold(entity.HoldStatusHeld, time.Now())

	if err := f.svc.Release(context.Background(), hold.ID, nil); err != nil {
		t.Fatalf("first release failed: %v", err)
	}
	if err := f.svc.Release(context.Background(), hold.ID, nil); err != nil {
		t.Fatalf("second release must be a no-op, got %v", err)
	}

	if f.emitter.count(events.EventEscrowReleased) != 1 {
		t.Errorf("duplicate release emitted a second event: %d", f.emitter.count(events.EventEscrowReleased))
	}
	if len(f.db.audits) != 1 {
		t.Errorf("duplicate release appended a second audit entry: %d", len(f.db.audits))
	}
}

func TestRelease_CancelledHoldStaysCancelled(t *testing.T) {
	f := newEscrowFixture(t)
	hold := f.seedHold(entity.HoldStatusCancelled, time.Now())

	if err := f.svc.Release(context.Background(), hold.ID, nil); err != nil {
		t.Fatalf("release of cancelled hold must be a no-op, got %v", err)
	}
	if f.db.holds[hold.ID].Status != entity.HoldStatusCancelled {
		t.Error("cancelled hold must not be paid out")
	}
	if f.emitter.count(events.EventEscrowReleased) != 0 {
		t.Error("no event for a skipped release")
	}
}

func TestRelease_UnknownHold(t *testing.T) {
	f := newEscrowFixture(t)

	err := f.svc.Release(context.Background(), uuid.New(), nil)
	if !errors.Is(err, ErrHoldNotFound) {
		t.Fatalf("expected ErrHoldNotFound, got %v", err)
	}
}

func TestListHeldForSeller_PaginatesHeldOnly(t *testing.T) {
	f := newEscrowFixture(t)

	for i := 0; i < 3; i++ {
		f.seedHold(entity.HoldStatusHeld, time.Now().Add(time.Duration(i)*time.Hour))
	}
	f.seedHold(entity.HoldStatusReleased, time.Now())

	otherSeller := f.sellerID
	f.sellerID = uuid.New()
	f.seedHold(entity.HoldStatusHeld, time.Now())
	f.sellerID = otherSeller

	page, err := f.svc.ListHeldForSeller(context.Background(), f.sellerID, 1, 2)
	if err != nil {
		t.Fatalf("ListHeldForSeller returned error: %v", err)
	}

	if page.Pagination.Total != 3 {
		t.Errorf("expected 3 held holds for seller, got %d", page.Pagination.Total)
	}
	if len(page.Data) != 2 {
		t.Errorf("expected page of 2, got %d", len(page.Data))
	}
	if page.Pagination.TotalPages != 2 {
		t.Errorf("expected 2 pages, got %d", page.Pagination.TotalPages)
	}

	second, err := f.svc.ListHeldForSeller(context.Background(), f.sellerID, 2, 2)
	if err != nil {
		t.Fatalf("second page returned error: %v", err)
	}
	if len(second.Data) != 1 {
		t.Errorf("expected 1 item on second page, got %d", len(second.Data))
	}
}
