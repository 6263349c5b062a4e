package payloadstate

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrUnknownErrorCode is returned by nothing in this package directly
// (UpdateFailed logs and returns on an unclassified code, per §7's "the
// state machine must not crash on a corrupted store") but is exposed so
// callers wiring their own fault tables can errors.Is against the same
// sentinel this package would raise internally.
var ErrUnknownErrorCode = errors.New("payloadstate: unrecognized error code")

// StorageError wraps a PersistentStore read/write failure. Reads treat
// the field as absent and fall back to its documented default; writes
// are logged and never propagated, since the caller cannot usefully
// recover from a local store outage mid-operation.
type StorageError struct {
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("payloadstate: storage error for key %q: %v", e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// InvalidPersistedValue records a defensive reset applied to a value
// that was present but outside its allowed range: a negative counter, an
// instant far in the future, or a stale fingerprint. The state machine
// resets the offending field and continues rather than propagating this
// as a hard failure.
type InvalidPersistedValue struct {
	Key    string
	Reason string
}

func (e *InvalidPersistedValue) Error() string {
	return fmt.Sprintf("payloadstate: invalid persisted value for key %q: %s", e.Key, e.Reason)
}
