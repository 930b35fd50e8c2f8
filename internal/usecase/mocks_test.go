package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"marketplace-payments/internal/data/entity"
	"marketplace-payments/internal/data/repository"
	"marketplace-payments/internal/provider"
	"marketplace-payments/pkg/database"

	"github.com/google/uuid"
)

// memDB is an in-memory stand-in for the Postgres-backed repositories. The
// fake transaction manager snapshots it before each transaction and restores
// the snapshot when the transaction function errors, mirroring rollback.
type memDB struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*entity.Payment
	orders   map[uuid.UUID]*entity.Order
	holds    map[uuid.UUID]*entity.PaymentHold
	sold     map[uuid.UUID]bool
	audits   []*entity.AuditEntry

	failHoldCreate    error
	failMarkCompleted error
	failAuditAppend   error
}

func newMemDB() *memDB {
	return &memDB{
		payments: make(map[uuid.UUID]*entity.Payment),
		orders:   make(map[uuid.UUID]*entity.Order),
		holds:    make(map[uuid.UUID]*entity.PaymentHold),
		sold:     make(map[uuid.UUID]bool),
	}
}

func (m *memDB) repository() *repository.Repository {
	return &repository.Repository{
		Order:   &fakeOrderRepo{db: m},
		Product: &fakeProductRepo{db: m},
		Payment: &fakePaymentRepo{db: m},
		Hold:    &fakeHoldRepo{db: m},
		Audit:   &fakeAuditRepo{db: m},
	}
}

func (m *memDB) snapshot() *memDB {
	snap := newMemDB()
	for id, p := range m.payments {
		cp := *p
		cp.Metadata.Trail = append([]entity.TrailEntry(nil), p.Metadata.Trail...)
		snap.payments[id] = &cp
	}
	for id, o := range m.orders {
		cp := *o
		snap.orders[id] = &cp
	}
	for id, h := range m.holds {
		cp := *h
		snap.holds[id] = &cp
	}
	for id, sold := range m.sold {
		snap.sold[id] = sold
	}
	snap.audits = append([]*entity.AuditEntry(nil), m.audits...)
	return snap
}

func (m *memDB) restore(snap *memDB) {
	m.payments = snap.payments
	m.orders = snap.orders
	m.holds = snap.holds
	m.sold = snap.sold
	m.audits = snap.audits
}

// fakeTx runs the transaction function against the shared memDB and rolls
// the state back on error.
type fakeTx struct {
	db *memDB
}

func (t *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context, q database.Querier) error) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	snap := t.db.snapshot()
	if err := fn(ctx, nil); err != nil {
		t.db.restore(snap)
		return err
	}
	return nil
}

type fakePaymentRepo struct {
	db *memDB
}

func (r *fakePaymentRepo) Create(ctx context.Context, q database.Querier, payment *entity.Payment) error {
	cp := *payment
	r.db.payments[payment.ID] = &cp
	return nil
}

func (r *fakePaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	p, ok := r.db.payments[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakePaymentRepo) FindActiveByOrderID(ctx context.Context, orderID uuid.UUID) (*entity.Payment, error) {
	for _, p := range r.db.payments {
		if p.OrderID == orderID && p.Status == entity.PaymentStatusPending {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakePaymentRepo) FindLatestByOrderID(ctx context.Context, orderID uuid.UUID) (*entity.Payment, error) {
	var latest *entity.Payment
	for _, p := range r.db.payments {
		if p.OrderID != orderID {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (r *fakePaymentRepo) FindByIDForUpdate(ctx context.Context, q database.Querier, id uuid.UUID) (*entity.Payment, error) {
	return r.FindByID(ctx, id)
}

func (r *fakePaymentRepo) MarkCompleted(ctx context.Context, q database.Querier, id uuid.UUID, providerTxID string, paidAt time.Time) error {
	if r.db.failMarkCompleted != nil {
		return r.db.failMarkCompleted
	}
	p := r.db.payments[id]
	p.Status = entity.PaymentStatusCompleted
	p.ProviderTransactionID = &providerTxID
	p.PaidAt = &paidAt
	return nil
}

func (r *fakePaymentRepo) MarkFailed(ctx context.Context, q database.Querier, id uuid.UUID, reason string) error {
	p := r.db.payments[id]
	p.Status = entity.PaymentStatusFailed
	p.FailureReason = &reason
	return nil
}

func (r *fakePaymentRepo) MarkRefunded(ctx context.Context, q database.Querier, id uuid.UUID) error {
	r.db.payments[id].Status = entity.PaymentStatusRefunded
	return nil
}

func (r *fakePaymentRepo) UpdateMetadata(ctx context.Context, q database.Querier, id uuid.UUID, metadata entity.PaymentMetadata) error {
	r.db.payments[id].Metadata = metadata
	return nil
}

func (r *fakePaymentRepo) FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Payment, error) {
	var stale []*entity.Payment
	for _, p := range r.db.payments {
		if p.Status == entity.PaymentStatusPending && p.CreatedAt.Before(cutoff) {
			cp := *p
			stale = append(stale, &cp)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].CreatedAt.Before(stale[j].CreatedAt) })
	if len(stale) > limit {
		stale = stale[:limit]
	}
	return stale, nil
}

type fakeOrderRepo struct {
	db *memDB
}

func (r *fakeOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	o, ok := r.db.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) FindByIDForUpdate(ctx context.Context, q database.Querier, id uuid.UUID) (*entity.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, q database.Querier, id uuid.UUID, status entity.OrderStatus, expectedVersion int) error {
	o := r.db.orders[id]
	if o == nil || o.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	o.Status = status
	o.Version++
	return nil
}

type fakeProductRepo struct {
	db *memDB
}

func (r *fakeProductRepo) MarkSold(ctx context.Context, q database.Querier, id uuid.UUID) error {
	r.db.sold[id] = true
	return nil
}

type fakeHoldRepo struct {
	db *memDB
}

func (r *fakeHoldRepo) Create(ctx context.Context, q database.Querier, hold *entity.PaymentHold) error {
	if r.db.failHoldCreate != nil {
		return r.db.failHoldCreate
	}
	cp := *hold
	r.db.holds[hold.ID] = &cp
	return nil
}

func (r *fakeHoldRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.PaymentHold, error) {
	h, ok := r.db.holds[id]
	if !ok {
		return nil, nil
	}
	cp := *h
	return &cp, nil
}

func (r *fakeHoldRepo) FindByPaymentID(ctx context.Context, q database.Querier, paymentID uuid.UUID) (*entity.PaymentHold, error) {
	for _, h := range r.db.holds {
		if h.PaymentID == paymentID {
			cp := *h
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeHoldRepo) MarkReleased(ctx context.Context, q database.Querier, id uuid.UUID, releasedAt time.Time) error {
	h := r.db.holds[id]
	if h == nil || h.Status != entity.HoldStatusHeld {
		return repository.ErrHoldNotHeld
	}
	h.Status = entity.HoldStatusReleased
	h.ReleasedAt = &releasedAt
	return nil
}

func (r *fakeHoldRepo) MarkCancelled(ctx context.Context, q database.Querier, id uuid.UUID) error {
	h := r.db.holds[id]
	if h == nil || h.Status != entity.HoldStatusHeld {
		return repository.ErrHoldNotHeld
	}
	h.Status = entity.HoldStatusCancelled
	return nil
}

func (r *fakeHoldRepo) FindDue(ctx context.Context, now time.Time, limit int) ([]*entity.PaymentHold, error) {
	var due []*entity.PaymentHold
	for _, h := range r.db.holds {
		if h.Status == entity.HoldStatusHeld && !h.ReleaseAt.After(now) {
			cp := *h
			due = append(due, &cp)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ReleaseAt.Before(due[j].ReleaseAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (r *fakeHoldRepo) FindHeldBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]*entity.PaymentHold, error) {
	var held []*entity.PaymentHold
	for _, h := range r.db.holds {
		if h.SellerID == sellerID && h.Status == entity.HoldStatusHeld {
			cp := *h
			held = append(held, &cp)
		}
	}
	sort.Slice(held, func(i, j int) bool { return held[i].ReleaseAt.Before(held[j].ReleaseAt) })
	if offset >= len(held) {
		return nil, nil
	}
	held = held[offset:]
	if len(held) > limit {
		held = held[:limit]
	}
	return held, nil
}

func (r *fakeHoldRepo) CountHeldBySeller(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	var total int64
	for _, h := range r.db.holds {
		if h.SellerID == sellerID && h.Status == entity.HoldStatusHeld {
			total++
		}
	}
	return total, nil
}

type fakeAuditRepo struct {
	db *memDB
}

func (r *fakeAuditRepo) Append(ctx context.Context, q database.Querier, entry *entity.AuditEntry) error {
	if r.db.failAuditAppend != nil {
		return r.db.failAuditAppend
	}
	cp := *entry
	cp.Sequence = 0
	for _, existing := range r.db.audits {
		if existing.PaymentID == entry.PaymentID && existing.Sequence >= cp.Sequence {
			cp.Sequence = existing.Sequence + 1
		}
	}
	r.db.audits = append(r.db.audits, &cp)
	return nil
}

func (r *fakeAuditRepo) ListByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]*entity.AuditEntry, error) {
	var entries []*entity.AuditEntry
	for _, e := range r.db.audits {
		if e.PaymentID == paymentID {
			cp := *e
			entries = append(entries, &cp)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Sequence < entries[j].Sequence })
	return entries, nil
}

// fakeGateway satisfies provider.Gateway with per-call hooks.
type fakeGateway struct {
	name         entity.PaymentProvider
	initializeFn func(ctx context.Context, req *provider.InitializeRequest) (*provider.InitializeResult, error)
	verifyFn     func(ctx context.Context, token string) (*provider.VerifyResult, error)
	refundFn     func(ctx context.Context, transactionID string, amount float64) (*provider.RefundResult, error)
	cancelFn     func(ctx context.Context, providerRef string) error
	refundCalls  int
	cancelCalls  int
	initCalls    int
}

func (g *fakeGateway) Name() entity.PaymentProvider {
	if g.name == "" {
		return entity.ProviderCheckoutForm
	}
	return g.name
}

func (g *fakeGateway) Initialize(ctx context.Context, req *provider.InitializeRequest) (*provider.InitializeResult, error) {
	g.initCalls++
	if g.initializeFn != nil {
		return g.initializeFn(ctx, req)
	}
	return &provider.InitializeResult{
		RedirectURL: "https://pay.example/session/tok",
		ProviderRef: "tok",
	}, nil
}

func (g *fakeGateway) Verify(ctx context.Context, token string) (*provider.VerifyResult, error) {
	if g.verifyFn != nil {
		return g.verifyFn(ctx, token)
	}
	return &provider.VerifyResult{Outcome: provider.OutcomeSuccess, ProviderTransactionID: "txn"}, nil
}

func (g *fakeGateway) Refund(ctx context.Context, transactionID string, amount float64) (*provider.RefundResult, error) {
	g.refundCalls++
	if g.refundFn != nil {
		return g.refundFn(ctx, transactionID, amount)
	}
	return &provider.RefundResult{}, nil
}

func (g *fakeGateway) Cancel(ctx context.Context, providerRef string) error {
	g.cancelCalls++
	if g.cancelFn != nil {
		return g.cancelFn(ctx, providerRef)
	}
	return nil
}

type emittedEvent struct {
	name    string
	payload map[string]any
}

// recordingEmitter captures emitted events for assertions.
type recordingEmitter struct {
	mu     sync.Mutex
	events []emittedEvent
}

func (e *recordingEmitter) Emit(ctx context.Context, event string, payload map[string]any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, emittedEvent{name: event, payload: payload})
}

func (e *recordingEmitter) count(name string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, ev := range e.events {
		if ev.name == name {
			n++
		}
	}
	return n
}

// fakeCache is an in-memory Cache that records deletes.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
	deletes []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *fakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

func (c *fakeCache) Delete(ctx context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.deletes = append(c.deletes, key)
}
