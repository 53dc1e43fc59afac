package delivery_test

import (
	"testing"

	"fooddelivery/internal/core/domain/model/delivery"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Validate(t *testing.T) {
	valid := []delivery.Status{
		delivery.Created,
		delivery.AwaitingDriver,
		delivery.PickupClaimed,
		delivery.InTransit,
		delivery.Delivered,
		delivery.Cancelled,
	}
	for _, s := range valid {
		require.NoError(t, s.Validate(), s.String())
	}

	require.Error(t, delivery.Unknown.Validate())
	require.Error(t, delivery.Status(42).Validate())
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "Created", delivery.Created.String())
	assert.Equal(t, "AwaitingDriver", delivery.AwaitingDriver.String())
	assert.Equal(t, "PickupClaimed", delivery.PickupClaimed.String())
	assert.Equal(t, "InTransit", delivery.InTransit.String())
	assert.Equal(t, "Delivered", delivery.Delivered.String())
	assert.Equal(t, "Cancelled", delivery.Cancelled.String())
	assert.Equal(t, "Unknown", delivery.Unknown.String())
	assert.Equal(t, "Unknown", delivery.Status(42).String())
}

// TestStatus_TransitionGraph checks every transition method against every
// starting status: transitions succeed exactly along the lifecycle edges and
// fail everywhere else.
func TestStatus_TransitionGraph(t *testing.T) {
	all := []delivery.Status{
		delivery.Created,
		delivery.AwaitingDriver,
		delivery.PickupClaimed,
		delivery.InTransit,
		delivery.Delivered,
		delivery.Cancelled,
	}

	type transition struct {
		name    string
		apply   func(delivery.Status) (delivery.Status, error)
		allowed map[delivery.Status]delivery.Status
	}

	transitions := []transition{
		{
			name:  "AwaitDriver",
			apply: delivery.Status.AwaitDriver,
			allowed: map[delivery.Status]delivery.Status{
				delivery.Created: delivery.AwaitingDriver,
			},
		},
		{
			name:  "Claim",
			apply: delivery.Status.Claim,
			allowed: map[delivery.Status]delivery.Status{
				delivery.Created:        delivery.PickupClaimed,
				delivery.AwaitingDriver: delivery.PickupClaimed,
			},
		},
		{
			name:  "PickUp",
			apply: delivery.Status.PickUp,
			allowed: map[delivery.Status]delivery.Status{
				delivery.PickupClaimed: delivery.InTransit,
			},
		},
		{
			name:  "Complete",
			apply: delivery.Status.Complete,
			allowed: map[delivery.Status]delivery.Status{
				delivery.InTransit: delivery.Delivered,
			},
		},
		{
			name:  "Cancel",
			apply: delivery.Status.Cancel,
			allowed: map[delivery.Status]delivery.Status{
				delivery.Created:        delivery.Cancelled,
				delivery.AwaitingDriver: delivery.Cancelled,
				delivery.PickupClaimed:  delivery.Cancelled,
				delivery.InTransit:      delivery.Cancelled,
			},
		},
	}

	for _, tr := range transitions {
		t.Run(tr.name, func(t *testing.T) {
			for _, from := range all {
				next, err := tr.apply(from)
				if want, ok := tr.allowed[from]; ok {
					require.NoError(t, err, "from %s", from)
					assert.Equal(t, want, next, "from %s", from)
				} else {
					require.Error(t, err, "from %s", from)
				}
			}
		})
	}
}

func TestStatus_Claim_LoserGetsAlreadyClaimed(t *testing.T) {
	_, err := delivery.PickupClaimed.Claim()
	require.ErrorIs(t, err, delivery.ErrAlreadyClaimed)
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.True(t, delivery.Delivered.IsTerminal())
	assert.True(t, delivery.Cancelled.IsTerminal())
	assert.False(t, delivery.Created.IsTerminal())
	assert.False(t, delivery.AwaitingDriver.IsTerminal())
	assert.False(t, delivery.PickupClaimed.IsTerminal())
	assert.False(t, delivery.InTransit.IsTerminal())
}
