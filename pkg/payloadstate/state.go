package payloadstate

import (
	"log/slog"
	"time"

	"github.com/openota/payloadstated/internal/store"
)

// maxBackoffDays caps the exponential backoff computed in
// updateBackoffExpiry (spec §4.5.2) and bounds how far in the future a
// loaded backoff-expiry value may legitimately sit (spec §4.5
// Initialize).
const maxBackoffDays = 16

// futureSlack bounds how far into the future update_timestamp_start may
// sit, and how far update_duration_uptime may exceed the wall-clock
// duration, before Initialize treats the persisted value as corrupt.
const futureSlack = 10 * time.Minute

// AttemptState is the persistent record spec §3 describes: every field is
// independently durable, and loaded/saved through PersistentStore under
// the stable keys in keys.go.
type AttemptState struct {
	ResponseFingerprint string

	PayloadAttemptNumber uint64
	URLIndex             uint64
	URLFailureCount      uint64
	URLSwitchCount       uint64

	// BackoffExpiry is the zero Time when there is no backoff in effect.
	BackoffExpiry time.Time

	// UpdateTimestampStart is the zero Time before the first response
	// has been observed, and again after UpdateSucceeded clears it.
	UpdateTimestampStart time.Time

	UpdateDurationUptime time.Duration
	// updateDurationUptimeAnchor is in-memory only; Initialize re-seeds
	// it from the clock, it is never itself persisted.
	updateDurationUptimeAnchor time.Time

	NumReboots uint64
}

// loadAttemptState reads every field of AttemptState from s, clamping any
// negative persisted integer to zero and logging the clamp (spec
// Invariant 6). It performs no range validation against the clock;
// that belongs to Controller.Initialize, which has the clock in hand.
func loadAttemptState(s store.Store, log *slog.Logger) AttemptState {
	st := AttemptState{}

	if fp, ok := s.GetString(keyResponseFingerprint); ok {
		st.ResponseFingerprint = fp
	}

	st.PayloadAttemptNumber = loadClampedU64(s, keyPayloadAttemptNumber, log)
	st.URLIndex = loadClampedU64(s, keyURLIndex, log)
	st.URLFailureCount = loadClampedU64(s, keyURLFailureCount, log)
	st.URLSwitchCount = loadClampedU64(s, keyURLSwitchCount, log)
	st.NumReboots = loadClampedU64(s, keyNumReboots, log)

	if v, ok := s.GetI64(keyBackoffExpiry); ok && v > 0 {
		st.BackoffExpiry = time.Unix(v, 0).UTC()
	}
	if v, ok := s.GetI64(keyUpdateTimestampStart); ok && v > 0 {
		st.UpdateTimestampStart = time.Unix(v, 0).UTC()
	}
	if v, ok := s.GetI64(keyUpdateDurationUptime); ok {
		if v < 0 {
			log.Error("persisted value out of range, clamping to 0",
				"err", &InvalidPersistedValue{Key: keyUpdateDurationUptime, Reason: "negative duration"})
			v = 0
		}
		st.UpdateDurationUptime = time.Duration(v) * time.Second
	}

	return st
}

func loadClampedU64(s store.Store, key string, log *slog.Logger) uint64 {
	v, ok := s.GetI64(key)
	if !ok {
		return 0
	}
	if v < 0 {
		log.Error("persisted value out of range, clamping to 0",
			"err", &InvalidPersistedValue{Key: key, Reason: "negative integer"})
		return 0
	}
	return uint64(v)
}

// persistence helpers. Each writes a single key; a failed write is
// logged as a StorageError (spec §7) and never propagated, since the
// caller here cannot usefully recover from a local store outage either.

func logStorageErr(log *slog.Logger, key string, err error) {
	if err == nil {
		return
	}
	log.Warn("failed to persist field", "err", &StorageError{Key: key, Err: err})
}

func persistResponseFingerprint(s store.Store, log *slog.Logger, v string) {
	logStorageErr(log, keyResponseFingerprint, s.SetString(keyResponseFingerprint, v))
}
func persistPayloadAttemptNumber(s store.Store, log *slog.Logger, v uint64) {
	logStorageErr(log, keyPayloadAttemptNumber, s.SetI64(keyPayloadAttemptNumber, int64(v)))
}
func persistURLIndex(s store.Store, log *slog.Logger, v uint64) {
	logStorageErr(log, keyURLIndex, s.SetI64(keyURLIndex, int64(v)))
}
func persistURLFailureCount(s store.Store, log *slog.Logger, v uint64) {
	logStorageErr(log, keyURLFailureCount, s.SetI64(keyURLFailureCount, int64(v)))
}
func persistURLSwitchCount(s store.Store, log *slog.Logger, v uint64) {
	logStorageErr(log, keyURLSwitchCount, s.SetI64(keyURLSwitchCount, int64(v)))
}
func persistNumReboots(s store.Store, log *slog.Logger, v uint64) {
	logStorageErr(log, keyNumReboots, s.SetI64(keyNumReboots, int64(v)))
}

func persistBackoffExpiry(s store.Store, log *slog.Logger, t time.Time) {
	if t.IsZero() {
		logStorageErr(log, keyBackoffExpiry, s.SetI64(keyBackoffExpiry, 0))
		return
	}
	logStorageErr(log, keyBackoffExpiry, s.SetI64(keyBackoffExpiry, t.Unix()))
}

func persistUpdateTimestampStart(s store.Store, log *slog.Logger, t time.Time) {
	if t.IsZero() {
		logStorageErr(log, keyUpdateTimestampStart, s.SetI64(keyUpdateTimestampStart, 0))
		return
	}
	logStorageErr(log, keyUpdateTimestampStart, s.SetI64(keyUpdateTimestampStart, t.Unix()))
}

func persistUpdateDurationUptime(s store.Store, log *slog.Logger, d time.Duration) {
	logStorageErr(log, keyUpdateDurationUptime, s.SetI64(keyUpdateDurationUptime, int64(d/time.Second)))
}

func clearUpdateTimingKeys(s store.Store, log *slog.Logger) {
	logStorageErr(log, keyUpdateTimestampStart, s.Delete(keyUpdateTimestampStart))
	logStorageErr(log, keyUpdateDurationUptime, s.Delete(keyUpdateDurationUptime))
}
