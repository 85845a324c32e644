package ports

import (
	"context"

	"campuspool/internal/general/contracts"
)

// PaymentGateway is the narrow escrow contract the engine depends on. All
// three operations must be idempotent from the engine's perspective: safe to
// re-issue on retry, reporting failure distinctly from success.
type PaymentGateway interface {
	// Hold places amount in escrow and returns an opaque token.
	Hold(ctx context.Context, amount float64) (string, error)
	// Release pays the remaining held balance out to the driver.
	Release(ctx context.Context, token string) error
	// Refund returns the given fraction of the original amount to the passenger.
	Refund(ctx context.Context, token string, fraction float64) error
}

// NotificationSink receives engine events fire-and-forget. Implementations
// must never block the caller on delivery nor surface delivery errors;
// storage and UI delivery are out of scope for the engine.
type NotificationSink interface {
	Emit(ctx context.Context, event contracts.NotificationEvent)
}
