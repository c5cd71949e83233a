// Package points provides balance metering for the generation method family.
//
// This is not a service of its own but core accounting used by the gateway:
// a user's balance is checked before the provider is invoked and debited by
// the fixed unit cost only when the provider call succeeds. A failed call
// never mutates the balance.
package points

import (
	"context"
	"fmt"
	"sync"

	"github.com/promptdeck/promptdeck/internal/ai"
	"github.com/promptdeck/promptdeck/internal/storage"
)

// CostPerGeneration is the fixed unit cost of one generation call.
const CostPerGeneration int64 = 1

// InsufficientPointsError rejects a metered call before any provider
// activity. The handler maps it to the validation code with the balance
// details attached.
type InsufficientPointsError struct {
	Current  int64 `json:"currentPoints"`
	Required int64 `json:"requiredPoints"`
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("insufficient points: have %d, need %d", e.Current, e.Required)
}

// Ledger wraps a generator with per-user balance metering.
//
// The check-generate-debit sequence runs under a per-user lock, so two
// concurrent calls by the same user cannot both pass the balance check.
// Different users proceed independently.
type Ledger struct {
	store storage.UserStore
	gen   ai.Generator

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLedger creates a ledger over the given store and generator.
func NewLedger(store storage.UserStore, gen ai.Generator) *Ledger {
	return &Ledger{
		store: store,
		gen:   gen,
		locks: make(map[string]*sync.Mutex),
	}
}

// Generate runs one metered generation for the given user and returns the
// generated contents plus the balance remaining after the call.
func (l *Ledger) Generate(ctx context.Context, userID string, parts []ai.Part) ([]ai.Content, int64, error) {
	lock := l.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	u, err := l.store.GetUser(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("read balance: %w", err)
	}

	if u.Points < CostPerGeneration {
		return nil, u.Points, &InsufficientPointsError{
			Current:  u.Points,
			Required: CostPerGeneration,
		}
	}

	contents, err := l.gen.Generate(ctx, parts)
	if err != nil {
		// No charge on failure.
		return nil, u.Points, err
	}

	remaining, err := l.store.SubtractPoints(ctx, userID, CostPerGeneration)
	if err != nil {
		return nil, u.Points, fmt.Errorf("charge points: %w", err)
	}
	return contents, remaining, nil
}

// userLock returns the mutex for one user, creating it on first use.
// Entries are never evicted, so the map holds one mutex per user ever
// seen by this process.
func (l *Ledger) userLock(userID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[userID] = lock
	}
	return lock
}
