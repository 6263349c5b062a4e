package payloadstate

// BuildKind reports whether the running binary is a production build.
// Backoff is armed only on official builds; a developer or test image
// should keep retrying immediately.
type BuildKind interface {
	IsOfficialBuild() bool
}

// RebootDetector reports whether the system was rebooted since the last
// time it was asked. Implementations must be single-shot per boot: the
// first call after a reboot returns true, every subsequent call within
// the same boot returns false.
type RebootDetector interface {
	SystemJustRebooted() bool
}

// MetricsSink is the fire-and-forget telemetry transport. A failed send
// is logged by the caller and otherwise ignored; the state machine never
// blocks or retries on it.
type MetricsSink interface {
	SendToUMA(name string, sample, min, max int64, buckets int) error
}

// RandomSource supplies the fuzz applied to backoff expiry. Injected so
// tests can pin the sequence instead of depending on a global PRNG.
type RandomSource interface {
	// Uniform returns a value in [lo, hi].
	Uniform(lo, hi int64) int64
}
