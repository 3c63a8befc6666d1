package board

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gearguard/gearguard-api/internal/models"
)

type fakeUpdater struct {
	calls []struct {
		requestID string
		stage     models.Stage
	}
	err error
}

func (f *fakeUpdater) UpdateStage(_ context.Context, requestID string, stage models.Stage) error {
	f.calls = append(f.calls, struct {
		requestID string
		stage     models.Stage
	}{requestID, stage})
	return f.err
}

func TestDragCommitsNonTerminalMove(t *testing.T) {
	updater := &fakeUpdater{}
	controller := NewDragController(updater)

	require.NoError(t, controller.PickUp("r1", models.StageOpen))
	result := controller.Drop(context.Background(), DropEvent{ContainerID: "IN_PROGRESS"})

	assert.Equal(t, DropCommitted, result.Outcome)
	assert.Equal(t, models.StageInProgress, result.Stage)
	require.Len(t, updater.calls, 1)
	assert.Equal(t, "r1", updater.calls[0].requestID)
	assert.Equal(t, models.StageInProgress, updater.calls[0].stage)
}

func TestDragSameColumnMakesNoCall(t *testing.T) {
	updater := &fakeUpdater{}
	controller := NewDragController(updater)

	require.NoError(t, controller.PickUp("r1", models.StageOpen))
	result := controller.Drop(context.Background(), DropEvent{ContainerID: "OPEN"})

	assert.Equal(t, DropIgnored, result.Outcome)
	assert.Empty(t, updater.calls)
}

func TestDragTerminalDestinationAsksForConfirmation(t *testing.T) {
	updater := &fakeUpdater{}
	controller := NewDragController(updater)

	require.NoError(t, controller.PickUp("r1", models.StageInProgress))
	result := controller.Drop(context.Background(), DropEvent{ContainerID: "SCRAP"})

	assert.Equal(t, DropNeedsConfirmation, result.Outcome)
	assert.Equal(t, models.StageCancelled, result.Stage)
	// Nothing committed until the details form confirms.
	assert.Empty(t, updater.calls)

	require.NoError(t, controller.PickUp("r1", models.StageInProgress))
	result = controller.Drop(context.Background(), DropEvent{ContainerID: "REPAIRED"})
	assert.Equal(t, DropNeedsConfirmation, result.Outcome)
	assert.Equal(t, models.StageCompleted, result.Stage)
}

func TestDragDropOnCardResolvesContainer(t *testing.T) {
	updater := &fakeUpdater{}
	controller := NewDragController(updater)

	// Dropping onto another card: OverID is the card, ContainerID is the
	// column that card lives in, and the container wins.
	require.NoError(t, controller.PickUp("r1", models.StageOpen))
	result := controller.Drop(context.Background(), DropEvent{OverID: "r2", ContainerID: "ASSIGNED"})

	assert.Equal(t, DropCommitted, result.Outcome)
	assert.Equal(t, models.StageAssigned, result.Stage)
}

func TestDragUnknownDestinationIgnored(t *testing.T) {
	updater := &fakeUpdater{}
	controller := NewDragController(updater)

	require.NoError(t, controller.PickUp("r1", models.StageOpen))
	result := controller.Drop(context.Background(), DropEvent{OverID: "not-a-column"})

	assert.Equal(t, DropIgnored, result.Outcome)
	assert.Empty(t, updater.calls)
}

func TestDragFailureReverts(t *testing.T) {
	updater := &fakeUpdater{err: errors.New("forbidden")}
	controller := NewDragController(updater)

	require.NoError(t, controller.PickUp("r1", models.StageAssigned))
	result := controller.Drop(context.Background(), DropEvent{ContainerID: "IN_PROGRESS"})

	assert.Equal(t, DropReverted, result.Outcome)
	assert.Equal(t, models.StageAssigned, result.Stage)
	assert.Equal(t, "forbidden", result.Reason)
}

func TestDragSingleInFlightGesture(t *testing.T) {
	updater := &fakeUpdater{}
	controller := NewDragController(updater)

	require.NoError(t, controller.PickUp("r1", models.StageOpen))
	assert.ErrorIs(t, controller.PickUp("r2", models.StageOpen), ErrDragInFlight)

	controller.Drop(context.Background(), DropEvent{ContainerID: "ASSIGNED"})
	// The first gesture resolved, a new one may start.
	require.NoError(t, controller.PickUp("r2", models.StageOpen))
}

func TestDropWithoutPickUpIgnored(t *testing.T) {
	controller := NewDragController(&fakeUpdater{})
	result := controller.Drop(context.Background(), DropEvent{ContainerID: "OPEN"})
	assert.Equal(t, DropIgnored, result.Outcome)
}
