// Package payloadstate implements the payload state machine that tracks
// a single in-progress update attempt: which payload URL to try next,
// when to defer a download under exponential backoff, and the
// operational telemetry describing how the attempt went.
//
// Controller is the central type. It owns one AttemptState and
// the small set of collaborators (Clock, PersistentStore, RandomSource,
// BuildKind, RebootDetector, MetricsSink) injected through Deps at
// construction; nothing here is a package-level singleton.
package payloadstate

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/openota/payloadstated/internal/clock"
	"github.com/openota/payloadstated/internal/store"
	"github.com/openota/payloadstated/pkg/download"
	"github.com/openota/payloadstated/pkg/faultcode"
	"github.com/openota/payloadstated/pkg/response"
)

// Deps collects the collaborators Controller is built from. Every field
// is required except Logger, which defaults to slog.Default().
type Deps struct {
	Store   store.Store
	Clock   clock.Clock
	Random  RandomSource
	Build   BuildKind
	Reboot  RebootDetector
	Metrics MetricsSink
	Logger  *slog.Logger
}

// Controller is the state machine from spec §4.5. Every public method
// is called from a single event loop (spec §5): no method suspends
// mid-execution, so each one observes and mutates AttemptState
// atomically from the caller's perspective.
type Controller struct {
	store   store.Store
	clock   clock.Clock
	rand    RandomSource
	build   BuildKind
	reboot  RebootDetector
	metrics MetricsSink
	log     *slog.Logger

	accounting *download.Accounting

	// uptimeLimiter throttles the durable write of UpdateDurationUptime
	// on the download_progress hot path (spec §4.5.3: "persisted but
	// written without logging"). The in-memory accumulator is always
	// updated; only the store write is rate-limited.
	uptimeLimiter *rate.Limiter

	state    AttemptState
	response response.UpdateResponse
	current  download.Source
}

// New constructs a Controller. Call Initialize before any other method.
func New(d Deps) *Controller {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Controller{
		store:         d.Store,
		clock:         d.Clock,
		rand:          d.Random,
		build:         d.Build,
		reboot:        d.Reboot,
		metrics:       d.Metrics,
		log:           d.Logger,
		accounting:    download.NewAccounting(d.Store),
		uptimeLimiter: rate.NewLimiter(rate.Every(time.Second), 1),
		current:       download.Unknown,
	}
}

// State returns a copy of the current AttemptState, for read-only
// inspection (e.g. payloadctl status).
func (c *Controller) State() AttemptState { return c.state }

// CurrentSource returns the DownloadSource derived from the URL the
// controller currently expects downloads to be attributed to.
func (c *Controller) CurrentSource() download.Source { return c.current }

// Accounting exposes the per-source byte counters for read-only use.
func (c *Controller) Accounting() *download.Accounting { return c.accounting }

// Initialize loads AttemptState from the PersistentStore, applying every
// defensive check spec §4.5 and Invariant 6 require, and seeds the
// monotonic anchor used by DownloadProgress's duration accounting.
func (c *Controller) Initialize() {
	st := loadAttemptState(c.store, c.log)
	now := c.clock.WallclockNow()

	if !st.BackoffExpiry.IsZero() {
		if st.BackoffExpiry.After(now.Add(maxBackoffDays * 24 * time.Hour)) {
			c.log.Error("persisted value out of range, resetting",
				"err", &InvalidPersistedValue{Key: keyBackoffExpiry, Reason: "more than 16 days in the future"})
			st.BackoffExpiry = time.Time{}
			persistBackoffExpiry(c.store, c.log, st.BackoffExpiry)
		}
	}

	if !st.UpdateTimestampStart.IsZero() {
		if st.UpdateTimestampStart.After(now.Add(futureSlack)) {
			c.log.Error("persisted value out of range, resetting",
				"err", &InvalidPersistedValue{Key: keyUpdateTimestampStart, Reason: "more than 10 minutes in the future"})
			st.UpdateTimestampStart = now
			persistUpdateTimestampStart(c.store, c.log, now)
		}

		wallDuration := now.Sub(st.UpdateTimestampStart)
		if st.UpdateDurationUptime > wallDuration+futureSlack {
			c.log.Error("persisted value out of range, resetting",
				"err", &InvalidPersistedValue{Key: keyUpdateDurationUptime, Reason: "exceeds wall-clock duration since start"})
			st.UpdateDurationUptime = wallDuration
			persistUpdateDurationUptime(c.store, c.log, wallDuration)
		}
	}

	st.updateDurationUptimeAnchor = c.clock.MonotonicNow()
	c.state = st
	c.current = download.Unknown
}

// SetResponse records a newly received UpdateResponse, per spec §4.5. If
// r.CorrelationID is empty, one is generated. The id is attached to
// SetResponse's own log lines and to the warning logged when the
// metrics sink rejects a sample; metric samples themselves carry no id.
func (c *Controller) SetResponse(r response.UpdateResponse) {
	if r.CorrelationID == "" {
		r.CorrelationID = uuid.NewString()
	}
	fp := response.Fingerprint(r)

	switch {
	case fp != c.state.ResponseFingerprint:
		c.log.Info("new update response observed, resetting attempt state",
			"correlation_id", r.CorrelationID,
			"old_fingerprint_len", len(c.state.ResponseFingerprint), "new_fingerprint_len", len(fp))
		c.response = r
		c.resetPersistentState()
		c.state.ResponseFingerprint = fp
		persistResponseFingerprint(c.store, c.log, fp)
		c.updateCurrentDownloadSource()

	case c.state.URLIndex >= uint64(len(r.URLs)):
		c.log.Error("tampered persisted state, resetting",
			"correlation_id", r.CorrelationID,
			"err", &InvalidPersistedValue{Key: keyURLIndex, Reason: "index out of range for response's URL list"})
		c.response = r
		c.resetPersistentState()
		c.updateCurrentDownloadSource()

	default:
		c.response = r
		c.updateCurrentDownloadSource()
	}
}

// DownloadProgress reports n additional bytes successfully transferred
// toward the current attempt. n == 0 is a no-op.
func (c *Controller) DownloadProgress(n uint64) {
	if n == 0 {
		return
	}

	c.advanceUptime()
	if c.uptimeLimiter.Allow() {
		persistUpdateDurationUptime(c.store, c.log, c.state.UpdateDurationUptime)
	}

	c.accounting.OnBytes(c.current, n)

	if c.state.URLFailureCount > 0 {
		c.state.URLFailureCount = 0
		persistURLFailureCount(c.store, c.log, 0)
	}
}

// advanceUptime folds elapsed monotonic time into UpdateDurationUptime
// and re-anchors. Always run in memory; the durable write is a separate,
// rate-limited step on the download_progress hot path.
func (c *Controller) advanceUptime() {
	now := c.clock.MonotonicNow()
	c.state.UpdateDurationUptime += now.Sub(c.state.updateDurationUptimeAnchor)
	c.state.updateDurationUptimeAnchor = now
}

// DownloadComplete marks one payload download attempt as finished (not
// necessarily successfully applied) and recomputes backoff.
func (c *Controller) DownloadComplete() {
	c.incrementPayloadAttemptNumber()
}

// UpdateResumed is called once when the update agent process (re)starts
// mid-update; it accounts for a possible reboot since the last run.
func (c *Controller) UpdateResumed() {
	c.maybeIncrementRebootCount()
}

// UpdateRestarted is called when the agent explicitly restarts the
// current update attempt from scratch (not a new response).
func (c *Controller) UpdateRestarted() {
	c.accounting.ResetCurrentOnNewUpdate()
	c.state.NumReboots = 0
	persistNumReboots(c.store, c.log, 0)
}

// UpdateSucceeded finalizes duration tracking, emits the terminal
// metrics set, and drains the per-update accounting and timing keys.
func (c *Controller) UpdateSucceeded() {
	c.advanceUptime()
	persistUpdateDurationUptime(c.store, c.log, c.state.UpdateDurationUptime)

	now := c.clock.WallclockNow()
	var wallDuration time.Duration
	if !c.state.UpdateTimestampStart.IsZero() {
		wallDuration = now.Sub(c.state.UpdateTimestampStart)
	}

	c.emitSuccessMetrics(wallDuration, c.state.UpdateDurationUptime)

	c.accounting.DrainOnSuccess()
	clearUpdateTimingKeys(c.store, c.log)
	c.state.UpdateTimestampStart = time.Time{}
	c.state.UpdateDurationUptime = 0
}

// UpdateFailed classifies e (spec §4.5.1) and dispatches the recovery
// action. If no response has been observed yet (len(urls) == 0), every
// classification becomes a no-op (spec's Gate).
func (c *Controller) UpdateFailed(e faultcode.ErrorCode) {
	if len(c.response.URLs) == 0 {
		return
	}

	action, ok := faultcode.Classify(e)
	if !ok {
		c.log.Error("update_failed received an unrecognized error code", "code", int(e))
		return
	}

	switch action {
	case faultcode.ActionIncrementURLIndex:
		c.incrementURLIndex()
	case faultcode.ActionIncrementFailureCount:
		c.incrementFailureCount()
	case faultcode.ActionNoOp:
		// Not attributable to the URL; nothing changes.
	case faultcode.ActionLogUnexpected:
		c.log.Warn("update_failed received a code that should never reach this path", "code", e.String())
	}
}

// ShouldBackoffDownload reports whether the caller should defer starting
// a download rather than attempt it now (spec §4.5).
func (c *Controller) ShouldBackoffDownload() bool {
	if c.response.DisablePayloadBackoff {
		return false
	}
	if c.response.IsDeltaPayload {
		return false
	}
	if !c.build.IsOfficialBuild() {
		return false
	}
	if c.state.BackoffExpiry.IsZero() {
		return false
	}
	return c.state.BackoffExpiry.After(c.clock.WallclockNow())
}
