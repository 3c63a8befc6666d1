package board

import (
	"context"
	"errors"
	"sync"

	"github.com/gearguard/gearguard-api/internal/models"
)

// StageUpdater commits a stage transition for a request. In production this
// is the request lifecycle service; tests substitute a fake.
type StageUpdater interface {
	UpdateStage(ctx context.Context, requestID string, stage models.Stage) error
}

// DropOutcome classifies how a drop gesture resolved.
type DropOutcome int

const (
	// DropIgnored means no transition was needed: same column, unknown
	// destination, or a drop without a matching pick-up. No call is made.
	DropIgnored DropOutcome = iota
	// DropCommitted means the transition was sent and succeeded.
	DropCommitted
	// DropNeedsConfirmation means the destination is terminal; the gesture
	// pauses so the details form can collect duration and notes before the
	// irreversible side effects fire.
	DropNeedsConfirmation
	// DropReverted means the transition was sent and failed; the card
	// returns to its origin column.
	DropReverted
)

// DropResult reports the resolution of a drop gesture.
type DropResult struct {
	Outcome   DropOutcome
	RequestID string
	// Stage is the destination stage for committed or to-confirm drops,
	// and the origin stage for reverted ones.
	Stage  models.Stage
	Reason string
}

// DropEvent carries what the gesture surface knows at release time. OverID
// is whatever the pointer landed on; ContainerID identifies the column the
// landed-on element belongs to and wins when present, so dropping onto
// another card still resolves to that card's column.
type DropEvent struct {
	OverID      string
	ContainerID string
}

// ErrDragInFlight is returned by PickUp while another gesture is unresolved.
var ErrDragInFlight = errors.New("another drag is already in flight")

// DragController translates pointer-drag gestures into lifecycle transition
// calls. At most one drag is in flight at a time, matching pointer-capture
// semantics on the interaction surface.
type DragController struct {
	updater StageUpdater

	mu     sync.Mutex
	active *dragState
}

type dragState struct {
	requestID string
	origin    models.Stage
}

// NewDragController constructs a controller committing through updater.
func NewDragController(updater StageUpdater) *DragController {
	return &DragController{updater: updater}
}

// PickUp records the dragged request and its current stage. That pair is the
// only state held for the duration of the gesture.
func (d *DragController) PickUp(requestID string, current models.Stage) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active != nil {
		return ErrDragInFlight
	}
	d.active = &dragState{requestID: requestID, origin: current}
	return nil
}

// Drop resolves the drop event and either ignores it, asks for confirmation,
// or commits the transition. The gesture always ends here: whatever the
// outcome, a new PickUp may follow.
func (d *DragController) Drop(ctx context.Context, event DropEvent) DropResult {
	d.mu.Lock()
	state := d.active
	d.active = nil
	d.mu.Unlock()

	if state == nil {
		return DropResult{Outcome: DropIgnored}
	}

	raw := event.ContainerID
	if raw == "" {
		raw = event.OverID
	}
	destination, ok := models.ParseStage(raw)
	if !ok {
		return DropResult{Outcome: DropIgnored, RequestID: state.requestID}
	}

	if destination == state.origin {
		// Same column: no network round-trip.
		return DropResult{Outcome: DropIgnored, RequestID: state.requestID, Stage: destination}
	}

	if destination.Terminal() {
		return DropResult{
			Outcome:   DropNeedsConfirmation,
			RequestID: state.requestID,
			Stage:     destination,
		}
	}

	if err := d.updater.UpdateStage(ctx, state.requestID, destination); err != nil {
		return DropResult{
			Outcome:   DropReverted,
			RequestID: state.requestID,
			Stage:     state.origin,
			Reason:    err.Error(),
		}
	}
	return DropResult{Outcome: DropCommitted, RequestID: state.requestID, Stage: destination}
}
