package slotfeed

import "fmt"

// Stage identifies the part of a cycle an error came from.
type Stage string

// Cycle stages, in execution order.
const (
	StageList       Stage = "list"
	StageFetch      Stage = "fetch"
	StageDecode     Stage = "decode"
	StageDeliver    Stage = "deliver"
	StageCheckpoint Stage = "checkpoint"
)

// RetryExhaustedError reports that an operation kept failing after its full
// retry budget. Attempts counts every try, so a budget of k retries yields
// k+1 attempts. Err is the error from the final attempt.
type RetryExhaustedError struct {
	Stage    Stage
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("%s: giving up after %d attempts: %v", e.Stage, e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Err }

// SlotError reports the permanent failure of a single slot within a cycle.
// One SlotError aborts the whole cycle: no partial output is delivered and
// the cursor keeps its pre-cycle value.
type SlotError struct {
	Slot  Slot
	Stage Stage
	Err   error
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("slot %s: %v", e.Slot, e.Err)
}

func (e *SlotError) Unwrap() error { return e.Err }
