package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/LavaJover/shvark-payment-service/internal/config"
	"github.com/LavaJover/shvark-payment-service/internal/domain"
	"github.com/LavaJover/shvark-payment-service/internal/gateway"
	"github.com/LavaJover/shvark-payment-service/internal/infrastructure/metrics"
)

// prometheus collectors register globally, one instance serves every test
var testMetrics = metrics.NewPaymentMetrics()

type fakeTxRepo struct {
	mu             sync.Mutex
	rows           map[string]*domain.Transaction
	processedLines map[string]string
}

func newFakeTxRepo() *fakeTxRepo {
	return &fakeTxRepo{
		rows: make(map[string]*domain.Transaction),
		processedLines: make(map[string]string),
	}
}

func copyTx(tx *domain.Transaction) *domain.Transaction {
	clone := *tx
	clone.Metadata = domain.Metadata{}
	for k, v := range tx.Metadata {
		clone.Metadata[k] = v
	}
	return &clone
}

func (r *fakeTxRepo) ReplaceLive(tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ReservationID == tx.ReservationID && row.Status != domain.StatusInvalidated {
			row.Status = domain.StatusInvalidated
		}
	}
	r.rows[tx.ID] = copyTx(tx)
	return nil
}

func (r *fakeTxRepo) GetByID(id string) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return copyTx(row), nil
}

func (r *fakeTxRepo) GetLiveByReservationID(reservationID string) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ReservationID == reservationID && row.Status != domain.StatusInvalidated {
			return copyTx(row), nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (r *fakeTxRepo) GetByGatewayPaymentID(proxy domain.PaymentProxy, gatewayPaymentID string) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.Proxy == proxy && row.GatewayPaymentID == gatewayPaymentID && row.Status != domain.StatusInvalidated {
			return copyTx(row), nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (r *fakeTxRepo) Complete(id, gatewayTransactionID string, gatewayFeeCents int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return false, domain.ErrTransactionNotFound
	}
	if row.Status == domain.StatusComplete {
		return false, nil
	}
	if row.Status == domain.StatusInvalidated {
		return false, domain.ErrTransactionTerminal
	}
	row.Status = domain.StatusComplete
	if gatewayTransactionID != "" {
		row.GatewayTransactionID = gatewayTransactionID
	}
	row.GatewayFeeCents = gatewayFeeCents
	return true, nil
}

func (r *fakeTxRepo) InvalidateLive(reservationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ReservationID == reservationID && row.Status != domain.StatusInvalidated {
			row.Status = domain.StatusInvalidated
		}
	}
	return nil
}

func (r *fakeTxRepo) ApplyMatch(id string, expected, next domain.TransactionStatus, bankLineID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return false, domain.ErrTransactionNotFound
	}
	if row.Status != expected {
		return false, nil
	}
	row.Status = next
	if row.Metadata == nil {
		row.Metadata = domain.Metadata{}
	}
	row.Metadata.SetMatchedBankLineID(bankLineID)
	return true, nil
}

// setStatus is a fixture helper, not part of the repository port.
func (r *fakeTxRepo) setStatus(id string, status domain.TransactionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	row.Status = status
	return nil
}

func (r *fakeTxRepo) UpdateMetadata(id string, metadata domain.Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	row.Metadata = domain.Metadata{}
	for k, v := range metadata {
		row.Metadata[k] = v
	}
	return nil
}

func (r *fakeTxRepo) findByStatus(proxies []domain.PaymentProxy) []*domain.Transaction {
	var out []*domain.Transaction
	for _, row := range r.rows {
		if row.Status != domain.StatusPending && row.Status != domain.StatusOfflinePendingReview {
			continue
		}
		if len(proxies) > 0 {
			match := false
			for _, p := range proxies {
				if row.Proxy == p {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, copyTx(row))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

func (r *fakeTxRepo) FindPendingByProxy(proxies ...domain.PaymentProxy) ([]*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findByStatus(proxies), nil
}

func (r *fakeTxRepo) FindPending() ([]*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findByStatus(nil), nil
}

func (r *fakeTxRepo) MarkBankLineProcessed(lineID, transactionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processedLines[lineID] = transactionID
	return nil
}

func (r *fakeTxRepo) IsBankLineProcessed(lineID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.processedLines[lineID]
	return ok, nil
}

func (r *fakeTxRepo) statusOf(id string) domain.TransactionStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[id].Status
}

type fakeReservations struct {
	mu           sync.Mutex
	reservations map[string]*domain.Reservation
	contexts     map[string]*domain.PurchaseContext
	shortCodes   map[string]string
	confirmed    map[string]int
	reverted     map[string]int
	extended     map[string]time.Time
}

func newFakeReservations() *fakeReservations {
	return &fakeReservations{
		reservations: make(map[string]*domain.Reservation),
		contexts: make(map[string]*domain.PurchaseContext),
		shortCodes: make(map[string]string),
		confirmed: make(map[string]int),
		reverted: make(map[string]int),
		extended: make(map[string]time.Time),
	}
}

func (f *fakeReservations) ReservationByID(ctx context.Context, id string) (*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reservation, ok := f.reservations[id]
	if !ok {
		return nil, domain.ErrReservationNotFound
	}
	clone := *reservation
	return &clone, nil
}

func (f *fakeReservations) PurchaseContextByID(ctx context.Context, id string) (*domain.PurchaseContext, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pc, ok := f.contexts[id]
	if !ok {
		return nil, domain.ErrReservationNotFound
	}
	clone := *pc
	return &clone, nil
}

func (f *fakeReservations) ExtendValidity(ctx context.Context, reservationID string, deadline time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.extended[reservationID] = deadline
	return nil
}

func (f *fakeReservations) ConfirmReservation(ctx context.Context, reservationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed[reservationID]++
	return nil
}

func (f *fakeReservations) RevertToPending(ctx context.Context, reservationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reverted[reservationID]++
	return nil
}

func (f *fakeReservations) ShortCode(ctx context.Context, pc *domain.PurchaseContext, reservationID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shortCodes[reservationID], nil
}

type fakeProvider struct {
	proxy         domain.PaymentProxy
	methods       []domain.PaymentMethod
	accepts       bool
	result        *domain.InitiateResult
	err           error
	initiateCalls int
	mutate        func(tx *domain.Transaction)
}

func (p *fakeProvider) Proxy() domain.PaymentProxy      { return p.proxy }
func (p *fakeProvider) Methods() []domain.PaymentMethod { return p.methods }

func (p *fakeProvider) Accept(ctx context.Context, method domain.PaymentMethod, scope domain.ConfigScope, req *domain.TransactionRequest) bool {
	if !p.accepts {
		return false
	}
	for _, m := range p.methods {
		if m == method {
			return true
		}
	}
	return false
}

func (p *fakeProvider) Initiate(ctx context.Context, spec *domain.PaymentSpecification, tx *domain.Transaction) (*domain.InitiateResult, error) {
	p.initiateCalls++
	if p.mutate != nil {
		p.mutate(tx)
	}
	return p.result, p.err
}

type pollingProvider struct {
	fakeProvider
	pollEvent *domain.WebhookEvent
	pollErr   error
	pollCalls int
}

func (p *pollingProvider) PollStatus(ctx context.Context, tx *domain.Transaction, pc *domain.PurchaseContext) (*domain.WebhookEvent, error) {
	p.pollCalls = p.pollCalls + 1
	return p.pollEvent, p.pollErr
}

type webhookProvider struct {
	fakeProvider
	event *domain.WebhookEvent
	err   error
}

func (p *webhookProvider) ProcessWebhook(ctx context.Context, tx *domain.Transaction, pc *domain.PurchaseContext, payload []byte, signature string) (*domain.WebhookEvent, error) {
	return p.event, p.err
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []domain.Message
}

func (p *fakePublisher) Publish(topic string, msgs ...domain.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msgs...)
	return nil
}

type fakeFeed struct {
	lines []*domain.BankTransactionLine
	err   error
}

func (f *fakeFeed) LinesSince(ctx context.Context, since time.Time) ([]*domain.BankTransactionLine, error) {
	return f.lines, f.err
}

type fixture struct {
	uc           *DefaultPaymentUsecase
	repo         *fakeTxRepo
	reservations *fakeReservations
	publisher    *fakePublisher
	feed         *fakeFeed
}

func newFixture(offline config.OfflineConfig, providers ...domain.PaymentProvider) *fixture {
	repo := newFakeTxRepo()
	reservations := newFakeReservations()
	pub := &fakePublisher{}
	feed := &fakeFeed{}

	uc := NewDefaultPaymentUsecase(
		repo,
		gateway.NewRegistry(providers...),
		reservations,
		pub,
		testMetrics,
		feed,
		offline,
	)
	return &fixture{uc: uc, repo: repo, reservations: reservations, publisher: pub, feed: feed}
}

func (f *fixture) addReservation(id, contextID string, priceCents int64, currency string) {
	f.reservations.reservations[id] = &domain.Reservation{
		ID: id,
		PurchaseContextID: contextID,
		Status: "PENDING",
		PriceCents: priceCents,
		Currency: currency,
		ValidUntil: time.Now().Add(time.Hour),
	}
	if _, ok := f.reservations.contexts[contextID]; !ok {
		f.reservations.contexts[contextID] = &domain.PurchaseContext{
			ID: contextID,
			DisplayName: "Test Event",
			Currency: currency,
			EventBegin: time.Now().Add(30 * 24 * time.Hour),
			EventEnd: time.Now().Add(31 * 24 * time.Hour),
		}
	}
}
