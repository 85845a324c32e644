package payments

import (
	"context"
	"testing"

	"campuspool/internal/domain/fault"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockGateway(t *testing.T) {
	ctx := context.Background()

	t.Run("hold then release pays out the full amount", func(t *testing.T) {
		g := NewMockGateway()
		token, err := g.Hold(ctx, 20.0)
		require.NoError(t, err)

		held, _, _, ok := g.Balance(token)
		require.True(t, ok)
		assert.Equal(t, 20.0, held)

		require.NoError(t, g.Release(ctx, token))
		held, refunded, released, _ := g.Balance(token)
		assert.Zero(t, held)
		assert.Zero(t, refunded)
		assert.Equal(t, 20.0, released)
	})

	t.Run("partial refund then release splits the amount", func(t *testing.T) {
		g := NewMockGateway()
		token, err := g.Hold(ctx, 20.0)
		require.NoError(t, err)

		require.NoError(t, g.Refund(ctx, token, 0.5))
		require.NoError(t, g.Release(ctx, token))

		held, refunded, released, _ := g.Balance(token)
		assert.Zero(t, held)
		assert.Equal(t, 10.0, refunded)
		assert.Equal(t, 10.0, released)
	})

	t.Run("full refund settles the token", func(t *testing.T) {
		g := NewMockGateway()
		token, err := g.Hold(ctx, 20.0)
		require.NoError(t, err)

		require.NoError(t, g.Refund(ctx, token, 1.0))

		// further release is an idempotent no-op, no double payout
		require.NoError(t, g.Release(ctx, token))
		held, refunded, released, _ := g.Balance(token)
		assert.Zero(t, held)
		assert.Equal(t, 20.0, refunded)
		assert.Zero(t, released)
	})

	t.Run("release is idempotent", func(t *testing.T) {
		g := NewMockGateway()
		token, err := g.Hold(ctx, 20.0)
		require.NoError(t, err)

		require.NoError(t, g.Release(ctx, token))
		require.NoError(t, g.Release(ctx, token))
		require.NoError(t, g.Refund(ctx, token, 1.0)) // settled, ignored

		_, refunded, released, _ := g.Balance(token)
		assert.Zero(t, refunded)
		assert.Equal(t, 20.0, released)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		g := NewMockGateway()

		_, err := g.Hold(ctx, 0)
		assert.True(t, fault.IsKind(err, fault.KindPayment))

		assert.True(t, fault.IsKind(g.Release(ctx, "nope"), fault.KindPayment))
		assert.True(t, fault.IsKind(g.Refund(ctx, "nope", 1.0), fault.KindPayment))

		token, err := g.Hold(ctx, 10.0)
		require.NoError(t, err)
		assert.True(t, fault.IsKind(g.Refund(ctx, token, 0), fault.KindPayment))
		assert.True(t, fault.IsKind(g.Refund(ctx, token, 1.5), fault.KindPayment))
	})

	t.Run("failure mode breaks every call until cleared", func(t *testing.T) {
		g := NewMockGateway()
		g.SetFailure(assert.AnError)

		_, err := g.Hold(ctx, 10.0)
		assert.True(t, fault.IsKind(err, fault.KindPayment))

		g.SetFailure(nil)
		_, err = g.Hold(ctx, 10.0)
		assert.NoError(t, err)
	})
}
