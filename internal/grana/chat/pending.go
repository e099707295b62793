package chat

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// PendingKind identifies the staged mutation awaiting confirmation.
type PendingKind string

const (
	PendingExpense PendingKind = "expense"
	PendingIncome  PendingKind = "income"
	PendingEdit    PendingKind = "edit"
	PendingDelete  PendingKind = "delete"
)

// DefaultConfirmTTL is how long a staged action remains confirmable.
const DefaultConfirmTTL = 5 * time.Minute

// PendingAction is the single outstanding mutation staged for one
// conversation. Only the fields relevant to Kind are populated.
type PendingAction struct {
	Kind          PendingKind
	Amount        decimal.Decimal
	Category      string
	PaymentMethod string
	Description   string
	TransactionID int64

	// Token is the confirmation code shown to the user in the prompt.
	Token string

	// CreatedAt anchors the expiry window.
	CreatedAt time.Time
}

// ExpiredAt reports whether the action's confirmation window has passed.
func (a PendingAction) ExpiredAt(now time.Time, ttl time.Duration) bool {
	return now.Sub(a.CreatedAt) > ttl
}

// PendingStore maps a conversation key to its staged action. At most one
// action is held per key; Set overwrites unconditionally (last write wins,
// no queueing). Implementations must be safe for concurrent use across
// keys. A multi-instance deployment can swap in a shared store without
// touching the dispatcher.
type PendingStore interface {
	Get(key string) (PendingAction, bool)
	Set(key string, action PendingAction)
	Delete(key string)
}

// MemoryPendingStore is the default in-process PendingStore.
type MemoryPendingStore struct {
	mu      sync.Mutex
	actions map[string]PendingAction
}

// NewMemoryPendingStore creates an empty MemoryPendingStore.
func NewMemoryPendingStore() *MemoryPendingStore {
	return &MemoryPendingStore{actions: make(map[string]PendingAction)}
}

// Get returns the staged action for key, if any.
func (s *MemoryPendingStore) Get(key string) (PendingAction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actions[key]
	return a, ok
}

// Set stages an action for key, replacing any existing one.
func (s *MemoryPendingStore) Set(key string, action PendingAction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions[key] = action
}

// Delete removes the staged action for key. Removing an absent key is a
// no-op.
func (s *MemoryPendingStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.actions, key)
}

// Len returns the number of staged actions.
func (s *MemoryPendingStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.actions)
}

// SweepExpired removes every staged action older than ttl and returns the
// number removed. Expiry is also checked lazily at confirm time, so the
// sweep only bounds memory growth; it is not needed for correctness.
func (s *MemoryPendingStore) SweepExpired(ttl time.Duration) int {
	return s.sweepExpiredAt(time.Now(), ttl)
}

// sweepExpiredAt is the time-injectable core of SweepExpired (for testing).
func (s *MemoryPendingStore) sweepExpiredAt(now time.Time, ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, action := range s.actions {
		if action.ExpiredAt(now, ttl) {
			delete(s.actions, key)
			removed++
		}
	}
	return removed
}
