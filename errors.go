package coupler

import (
	"errors"
	"fmt"
)

// Unrecoverable protocol and lifecycle errors. All of these propagate to the
// simulation driver; the coupler performs no retries of its own.
var (
	// ErrNoCheckpoint indicates a restore was attempted on an empty store.
	ErrNoCheckpoint = errors.New("coupler: no checkpoint saved")

	// ErrFinalized indicates an operation after Finalize.
	ErrFinalized = errors.New("coupler: adapter already finalized")

	// ErrUnsupportedField indicates a field object which does not support point evaluation.
	ErrUnsupportedField = errors.New("coupler: unsupported field type")
)

// ConfigurationError reports a malformed or missing configuration item. Fatal at startup.
type ConfigurationError struct {
	Item   string
	Reason string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("coupler: configuration error on %s: %s", e.Item, e.Reason)
}

// ProtocolConsistencyFault is the panic value raised when the coordinator
// requires a read- and a write-iteration checkpoint in the same advance.
// This cannot happen with a conforming coordinator and is not recoverable.
type ProtocolConsistencyFault struct {
	Msg string
}

func (f ProtocolConsistencyFault) Error() string {
	return "coupler: protocol consistency fault: " + f.Msg
}
