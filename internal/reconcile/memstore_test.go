package reconcile_test

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Africa-Access-Water/afaw-api/internal/donation"
	"github.com/Africa-Access-Water/afaw-api/internal/ledger"
	"github.com/Africa-Access-Water/afaw-api/internal/reconcile"
	"github.com/Africa-Access-Water/afaw-api/internal/subscription"
)

// memStore is an in-memory reconcile.Store. Transactions are serialized and a failed
// transaction restores the state it started from.
type memStore struct {
	mu sync.Mutex

	donations map[uuid.UUID]donation.Donation
	subs      map[uuid.UUID]subscription.Subscription
	customers map[uuid.UUID]string // donor id -> processor customer ref
	raised    map[uuid.UUID]decimal.Decimal
	events    map[string]string // event id -> status

	ledgerErr error
}

func newMemStore() *memStore {
	return &memStore{
		donations: map[uuid.UUID]donation.Donation{},
		subs:      map[uuid.UUID]subscription.Subscription{},
		customers: map[uuid.UUID]string{},
		raised:    map[uuid.UUID]decimal.Decimal{},
		events:    map[string]string{},
	}
}

type memSnapshot struct {
	donations map[uuid.UUID]donation.Donation
	subs      map[uuid.UUID]subscription.Subscription
	raised    map[uuid.UUID]decimal.Decimal
	events    map[string]string
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx reconcile.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := memSnapshot{
		donations: maps.Clone(s.donations),
		subs:      maps.Clone(s.subs),
		raised:    maps.Clone(s.raised),
		events:    maps.Clone(s.events),
	}

	if err := fn(ctx, &memTx{s: s}); err != nil {
		s.donations = snap.donations
		s.subs = snap.subs
		s.raised = snap.raised
		s.events = snap.events

		return err
	}

	return nil
}

func (s *memStore) MarkEventFailed(_ context.Context, eventID, _ string, _ error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.events[eventID] != "processed" {
		s.events[eventID] = "failed"
	}

	return nil
}

func (s *memStore) addProject() uuid.UUID {
	id := uuid.New()
	s.raised[id] = decimal.Zero

	return id
}

func (s *memStore) addDonor(customerRef string) uuid.UUID {
	id := uuid.New()
	s.customers[id] = customerRef

	return id
}

func (s *memStore) addDonation(d donation.Donation) donation.Donation {
	d.ID = uuid.New()
	if d.Status == "" {
		d.Status = donation.StatusInitiated
	}

	s.donations[d.ID] = d

	return d
}

func (s *memStore) addSubscription(sub subscription.Subscription) subscription.Subscription {
	sub.ID = uuid.New()
	if sub.Status == "" {
		sub.Status = subscription.StatusInitiated
	}

	if sub.Interval == "" {
		sub.Interval = subscription.IntervalMonth
	}

	s.subs[sub.ID] = sub

	return sub
}

func (s *memStore) total(projectID uuid.UUID) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.raised[projectID]
}

func (s *memStore) donation(id uuid.UUID) donation.Donation {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.donations[id]
}

func (s *memStore) subscription(id uuid.UUID) subscription.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.subs[id]
}

// donationsFor returns the donations spawned by a processor subscription.
func (s *memStore) donationsFor(subRef string) []donation.Donation {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []donation.Donation

	for _, d := range s.donations {
		if d.SubscriptionRef != nil && *d.SubscriptionRef == subRef {
			out = append(out, d)
		}
	}

	return out
}

// completedSum is the sum of completed donation amounts for a project.
func (s *memStore) completedSum(projectID uuid.UUID) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := decimal.Zero

	for _, d := range s.donations {
		if d.Status == donation.StatusCompleted && d.ProjectID != nil && *d.ProjectID == projectID {
			sum = sum.Add(d.Amount)
		}
	}

	return sum
}

type memTx struct {
	s *memStore
}

func (t *memTx) ClaimEvent(_ context.Context, eventID, _ string) (bool, error) {
	if t.s.events[eventID] == "processed" {
		return false, nil
	}

	t.s.events[eventID] = "processed"

	return true, nil
}

func (t *memTx) Donations() reconcile.DonationStore {
	return memDonations{s: t.s}
}

func (t *memTx) Subscriptions() reconcile.SubscriptionStore {
	return memSubscriptions{s: t.s}
}

func (t *memTx) Ledger() ledger.Writer {
	return memLedger{s: t.s}
}

type memDonations struct {
	s *memStore
}

func (m memDonations) LockBySessionID(_ context.Context, sessionID string) (*donation.Donation, error) {
	for _, d := range m.s.donations {
		if d.CheckoutSessionID != nil && *d.CheckoutSessionID == sessionID {
			return &d, nil
		}
	}

	return nil, donation.ErrNotFound
}

func (m memDonations) LockDonation(_ context.Context, id uuid.UUID) (*donation.Donation, error) {
	d, ok := m.s.donations[id]
	if !ok {
		return nil, donation.ErrNotFound
	}

	return &d, nil
}

func (m memDonations) Transition(_ context.Context, id uuid.UUID, from, to donation.Status, paymentRef *string) (bool, error) {
	d, ok := m.s.donations[id]
	if !ok || d.Status != from {
		return false, nil
	}

	d.Status = to
	if paymentRef != nil {
		d.PaymentRef = paymentRef
	}

	d.UpdatedAt = new(time.Now())
	m.s.donations[id] = d

	return true, nil
}

func (m memDonations) CreateIfAbsent(_ context.Context, d *donation.Donation) (bool, error) {
	for _, existing := range m.s.donations {
		if existing.CheckoutSessionID != nil && d.CheckoutSessionID != nil &&
			*existing.CheckoutSessionID == *d.CheckoutSessionID {
			return false, nil
		}
	}

	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	m.s.donations[d.ID] = *d

	return true, nil
}

type memSubscriptions struct {
	s *memStore
}

func (m memSubscriptions) LockBySessionID(_ context.Context, sessionID string) (*subscription.Subscription, error) {
	for _, sub := range m.s.subs {
		if sub.CheckoutSessionID != nil && *sub.CheckoutSessionID == sessionID {
			return &sub, nil
		}
	}

	return nil, subscription.ErrNotFound
}

func (m memSubscriptions) LockByProcessorRef(_ context.Context, ref string) (*subscription.Subscription, error) {
	for _, sub := range m.s.subs {
		if sub.ProcessorRef != nil && *sub.ProcessorRef == ref {
			return &sub, nil
		}
	}

	return nil, subscription.ErrNotFound
}

func (m memSubscriptions) LockBillableByCustomerRef(_ context.Context, customerRef string) ([]*subscription.Subscription, error) {
	var out []*subscription.Subscription

	for _, sub := range m.s.subs {
		if sub.Status.Billable() && m.s.customers[sub.DonorID] == customerRef {
			out = append(out, &sub)
		}
	}

	return out, nil
}

func (m memSubscriptions) Activate(_ context.Context, id uuid.UUID, processorRef string, nextBillingAt time.Time) (bool, error) {
	sub, ok := m.s.subs[id]
	if !ok || sub.Status != subscription.StatusInitiated {
		return false, nil
	}

	sub.Status = subscription.StatusActive
	sub.ProcessorRef = &processorRef
	sub.NextBillingAt = &nextBillingAt
	m.s.subs[id] = sub

	return true, nil
}

func (m memSubscriptions) Expire(_ context.Context, id uuid.UUID) (bool, error) {
	sub, ok := m.s.subs[id]
	if !ok || sub.Status != subscription.StatusInitiated {
		return false, nil
	}

	sub.Status = subscription.StatusExpired
	m.s.subs[id] = sub

	return true, nil
}

func (m memSubscriptions) UpdateSubscription(_ context.Context, s *subscription.Subscription) error {
	if _, ok := m.s.subs[s.ID]; !ok {
		return subscription.ErrNotFound
	}

	m.s.subs[s.ID] = *s

	return nil
}

type memLedger struct {
	s *memStore
}

func (m memLedger) AddRaised(_ context.Context, projectID uuid.UUID, amount decimal.Decimal) (int64, error) {
	if m.s.ledgerErr != nil {
		return 0, m.s.ledgerErr
	}

	total, ok := m.s.raised[projectID]
	if !ok {
		return 0, nil
	}

	m.s.raised[projectID] = total.Add(amount)

	return 1, nil
}
