package purchasing

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Session is one editing session over a reconciled candidate pool.
// Reconciliation ran exactly once when the session started; every
// interactive edit after that is an in-memory operation on the store.
type Session struct {
	mu        sync.Mutex
	id        string
	location  int64
	order     PurchaseOrder
	store     *SelectionStore
	touchedAt time.Time
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// LocationID returns the scope the session was reconciled against.
func (s *Session) LocationID() int64 {
	return s.location
}

// Order returns the current header. The zero header (ID 0, status
// DRAFT) stands in for a not-yet-created order.
func (s *Session) Order() PurchaseOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order
}

func (s *Session) setOrder(po PurchaseOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = po
}

// Candidates applies the filter and returns the visible view.
func (s *Session) Candidates(f Filter) []Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchedAt = time.Now()
	s.store.SetFilter(f)
	return s.store.Visible()
}

// Aggregate returns the cached derived totals.
func (s *Session) Aggregate() Aggregate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Aggregate()
}

// SetIncluded toggles inclusion for a candidate.
func (s *Session) SetIncluded(key string, included bool) {
	s.mutate(func() { s.store.SetIncluded(key, included) })
}

// SetQuantity updates a candidate quantity.
func (s *Session) SetQuantity(key string, qty int) {
	s.mutate(func() { s.store.SetQuantity(key, qty) })
}

// SetPrice updates a candidate unit price.
func (s *Session) SetPrice(key string, price decimal.Decimal) {
	s.mutate(func() { s.store.SetPrice(key, price) })
}

// SetPriority overrides a candidate priority.
func (s *Session) SetPriority(key string, p Priority) {
	s.mutate(func() { s.store.SetPriority(key, p) })
}

// SelectAll toggles inclusion for the candidates visible under the
// active filter only.
func (s *Session) SelectAll(included bool) {
	s.mutate(func() { s.store.SelectAll(included) })
}

// Selected returns the included candidates in pool order.
func (s *Session) Selected() []Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Selected()
}

func (s *Session) mutate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchedAt = time.Now()
	fn()
}

// SessionManager tracks live editing sessions with idle expiry.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewSessionManager constructs a manager. ttl <= 0 disables expiry.
func NewSessionManager(ttl time.Duration) *SessionManager {
	return &SessionManager{sessions: make(map[string]*Session), ttl: ttl}
}

func (m *SessionManager) add(locationID int64, order PurchaseOrder, store *SelectionStore) *Session {
	sess := &Session{
		id:        uuid.NewString(),
		location:  locationID,
		order:     order,
		store:     store,
		touchedAt: time.Now(),
	}
	m.mu.Lock()
	m.sessions[sess.id] = sess
	m.mu.Unlock()
	return sess
}

// Get returns a live session or ErrNotFound.
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if m.expired(sess) {
		delete(m.sessions, id)
		return nil, ErrNotFound
	}
	return sess, nil
}

// Drop removes a session.
func (m *SessionManager) Drop(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Sweep evicts idle sessions; callers run it on a ticker.
func (m *SessionManager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for id, sess := range m.sessions {
		if m.expired(sess) {
			delete(m.sessions, id)
			evicted++
		}
	}
	return evicted
}

func (m *SessionManager) expired(sess *Session) bool {
	if m.ttl <= 0 {
		return false
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return time.Since(sess.touchedAt) > m.ttl
}
