// Package payments provides PaymentGateway implementations: an in-memory
// escrow ledger for development and tests, and a Stripe adapter built on
// manual-capture PaymentIntents.
package payments

import (
	"context"
	"sync"

	"campuspool/internal/domain/fault"
	"campuspool/internal/ports"

	"github.com/google/uuid"
)

// escrowEntry tracks one held amount through its life.
type escrowEntry struct {
	amount   float64
	refunded float64 // fraction of amount returned to the passenger
	released bool    // remaining balance paid out to the driver
}

func (e *escrowEntry) settled() bool {
	return e.released || e.refunded >= 1
}

// MockGateway is an in-memory escrow ledger. Release and Refund are
// idempotent: re-issuing them against a settled token is a no-op.
type MockGateway struct {
	mu      sync.Mutex
	ledger  map[string]*escrowEntry
	failure error // when set, every call fails with it
}

var _ ports.PaymentGateway = (*MockGateway)(nil)

// NewMockGateway constructs an empty escrow ledger.
func NewMockGateway() *MockGateway {
	return &MockGateway{ledger: make(map[string]*escrowEntry)}
}

// SetFailure makes all subsequent calls fail with err until cleared with nil.
func (g *MockGateway) SetFailure(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failure = err
}

// Hold places amount in escrow and returns a fresh token.
func (g *MockGateway) Hold(ctx context.Context, amount float64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failure != nil {
		return "", fault.Wrap(fault.KindPayment, "hold funds", g.failure)
	}
	if amount <= 0 {
		return "", fault.New(fault.KindPayment, "hold amount must be positive")
	}

	token := uuid.NewString()
	g.ledger[token] = &escrowEntry{amount: amount}
	return token, nil
}

// Release pays the remaining held balance out to the driver.
func (g *MockGateway) Release(ctx context.Context, token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failure != nil {
		return fault.Wrap(fault.KindPayment, "release funds", g.failure)
	}

	entry, ok := g.ledger[token]
	if !ok {
		return fault.New(fault.KindPayment, "unknown escrow token")
	}
	if entry.settled() {
		return nil // retry after a settled release/refund is safe
	}

	entry.released = true
	return nil
}

// Refund returns the given fraction of the original amount to the passenger.
func (g *MockGateway) Refund(ctx context.Context, token string, fraction float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failure != nil {
		return fault.Wrap(fault.KindPayment, "refund funds", g.failure)
	}
	if fraction <= 0 || fraction > 1 {
		return fault.New(fault.KindPayment, "refund fraction must be in (0, 1]")
	}

	entry, ok := g.ledger[token]
	if !ok {
		return fault.New(fault.KindPayment, "unknown escrow token")
	}
	if entry.settled() {
		return nil
	}

	entry.refunded = fraction
	return nil
}

// Balance reports the held, refunded and released amounts for a token.
// Test helper; the engine never inspects the ledger.
func (g *MockGateway) Balance(token string) (held, refunded, released float64, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, found := g.ledger[token]
	if !found {
		return 0, 0, 0, false
	}

	refunded = entry.amount * entry.refunded
	if entry.released {
		released = entry.amount - refunded
	}
	held = entry.amount - refunded - released
	return held, refunded, released, true
}
