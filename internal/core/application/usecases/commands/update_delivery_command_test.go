package commands_test

import (
	"testing"

	"fooddelivery/internal/core/application/usecases/commands"
	"fooddelivery/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUpdateDeliveryCommand_Success(t *testing.T) {
	deliveryID := kernel.NewUUID()

	cmd, err := commands.NewUpdateDeliveryCommand(deliveryID, commands.ActionPickUp, "", "")
	require.NoError(t, err)
	assert.NoError(t, cmd.Validate())
	assert.True(t, deliveryID.IsEqual(cmd.DeliveryID()))
	assert.Equal(t, commands.ActionPickUp, cmd.Action())
	assert.Empty(t, cmd.StepIDToSucceed())
	assert.Empty(t, cmd.StepIDToFail())
}

func TestNewUpdateDeliveryCommand_WithStepDirective(t *testing.T) {
	deliveryID := kernel.NewUUID()
	stepID := commands.AwaitDriverStepID(deliveryID)

	cmd, err := commands.NewUpdateDeliveryCommand(deliveryID, commands.ActionCancel, "", stepID)
	require.NoError(t, err)
	assert.Equal(t, stepID, cmd.StepIDToFail())
}

func TestNewUpdateDeliveryCommand_InvalidAction(t *testing.T) {
	_, err := commands.NewUpdateDeliveryCommand(kernel.NewUUID(), commands.Action("exploded"), "", "")
	require.ErrorIs(t, err, commands.ErrActionIsInvalid)
}

func TestNewUpdateDeliveryCommand_BothDirectivesRejected(t *testing.T) {
	_, err := commands.NewUpdateDeliveryCommand(kernel.NewUUID(), commands.ActionCancel, "a", "b")
	require.ErrorIs(t, err, commands.ErrActionIsInvalid)
}

func TestNewUpdateDeliveryCommand_InvalidDeliveryID(t *testing.T) {
	_, err := commands.NewUpdateDeliveryCommand(kernel.UUID{}, commands.ActionPickUp, "", "")
	require.Error(t, err)
}

func TestUpdateDeliveryCommand_ZeroValueFailsValidation(t *testing.T) {
	var cmd commands.UpdateDeliveryCommand
	require.ErrorIs(t, cmd.Validate(), commands.ErrUpdateDeliveryCommandIsNotConstructed)
}
