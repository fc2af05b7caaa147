package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrderStatusTransitions(t *testing.T) {
	allowed := map[OrderStatus][]OrderStatus{
		StatusPending:         {StatusConfirmed, StatusCancelled},
		StatusConfirmed:       {StatusProcessing, StatusCancelled},
		StatusProcessing:      {StatusPacked, StatusCancelled},
		StatusPacked:          {StatusShipped},
		StatusShipped:         {StatusOutForDelivery},
		StatusOutForDelivery:  {StatusDelivered},
		StatusDelivered:       {StatusRefundRequested},
		StatusRefundRequested: {StatusRefunded},
		StatusCancelled:       {},
		StatusRefunded:        {},
	}

	all := make([]OrderStatus, 0, len(allowed))
	for s := range allowed {
		all = append(all, s)
	}

	for from, nexts := range allowed {
		ok := map[OrderStatus]bool{}
		for _, n := range nexts {
			ok[n] = true
		}
		for _, to := range all {
			require.Equal(t, ok[to], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestOrderStatusNoSkipping(t *testing.T) {
	require.False(t, StatusPending.CanTransitionTo(StatusShipped))
	require.False(t, StatusPending.CanTransitionTo(StatusDelivered))
	require.False(t, StatusConfirmed.CanTransitionTo(StatusDelivered))
	// no going backwards either
	require.False(t, StatusShipped.CanTransitionTo(StatusProcessing))
	require.False(t, StatusDelivered.CanTransitionTo(StatusPending))
}

func TestOrderStatusTerminal(t *testing.T) {
	require.True(t, StatusCancelled.Terminal())
	require.True(t, StatusRefunded.Terminal())
	require.False(t, StatusDelivered.Terminal())
	require.False(t, StatusPending.Terminal())
}

func TestOrderStatusValid(t *testing.T) {
	require.True(t, StatusOutForDelivery.Valid())
	require.False(t, OrderStatus("returned").Valid())
	require.False(t, OrderStatus("").Valid())
}

func TestCancellableByCustomer(t *testing.T) {
	require.True(t, StatusPending.CancellableByCustomer())
	require.True(t, StatusProcessing.CancellableByCustomer())

	for _, s := range []OrderStatus{
		StatusConfirmed, StatusPacked, StatusShipped, StatusOutForDelivery,
		StatusDelivered, StatusCancelled, StatusRefundRequested, StatusRefunded,
	} {
		require.False(t, s.CancellableByCustomer(), "status %s", s)
	}
}
