package commands_test

import (
	"testing"

	"fooddelivery/internal/core/application/usecases/commands"
	"fooddelivery/internal/core/domain/model/delivery"
	"fooddelivery/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartDeliveryCommandHandler_Handle_ReturnsIdentifiers(t *testing.T) {
	f := newWorkflowFixture(t, nil)

	cmd, err := commands.NewStartDeliveryCommand("order_42", kernel.NewUUID(), testItems(t))
	require.NoError(t, err)

	result, err := f.handler.Handle(t.Context(), cmd)
	require.NoError(t, err)
	assert.NoError(t, result.ExecutionID.Validate())
	assert.NoError(t, result.DeliveryID.Validate())

	stored, err := f.store.Get(t.Context(), result.DeliveryID)
	require.NoError(t, err)
	assert.Equal(t, "order_42", stored.TransactionID())
	assert.Equal(t, delivery.AwaitingDriver, stored.Status())
}

func TestStartDeliveryCommandHandler_Handle_ValidationError(t *testing.T) {
	f := newWorkflowFixture(t, nil)

	_, err := f.handler.Handle(t.Context(), commands.StartDeliveryCommand{})
	require.ErrorIs(t, err, commands.ErrStartDeliveryCommandIsNotConstructed)
}
