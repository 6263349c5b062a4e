package payloadstate

import (
	"time"

	"github.com/openota/payloadstated/pkg/download"
)

// fuzzRangeMinutes is the width of the uniform draw updateBackoffExpiry
// takes from RandomSource before centering it to a ±6h fuzz window
// around the base exponential delay (spec §4.5.2).
const fuzzRangeMinutes = 720 // 12h wide, centered to give ±6h

// incrementURLIndex advances to the next URL, wrapping to index 0 and
// bumping the payload attempt number (and therefore backoff) when it
// wraps past the end of the list. Always clears the per-URL failure
// count and recomputes the current download source.
func (c *Controller) incrementURLIndex() {
	numURLs := uint64(len(c.response.URLs))

	next := c.state.URLIndex + 1
	if numURLs > 0 && next < numURLs {
		c.state.URLIndex = next
	} else {
		c.state.URLIndex = 0
		c.incrementPayloadAttemptNumber()
	}

	if numURLs > 1 {
		c.state.URLSwitchCount++
		persistURLSwitchCount(c.store, c.log, c.state.URLSwitchCount)
	}

	c.state.URLFailureCount = 0
	persistURLFailureCount(c.store, c.log, 0)
	persistURLIndex(c.store, c.log, c.state.URLIndex)

	c.updateCurrentDownloadSource()
}

// incrementFailureCount bumps the per-URL failure counter, unless doing
// so would reach the response's max-failures-per-URL threshold, in
// which case the increment is discarded in favor of advancing the URL
// (which itself resets the failure count to 0).
func (c *Controller) incrementFailureCount() {
	next := c.state.URLFailureCount + 1
	if uint64(c.response.MaxFailuresPerURL) > 0 && next >= uint64(c.response.MaxFailuresPerURL) {
		c.incrementURLIndex()
		return
	}
	c.state.URLFailureCount = next
	persistURLFailureCount(c.store, c.log, next)
}

// incrementPayloadAttemptNumber bumps the attempt counter used for
// backoff, unless the response is a delta payload: deltas want fast
// fallback to a full payload, not an exponential stall.
func (c *Controller) incrementPayloadAttemptNumber() {
	if c.response.IsDeltaPayload {
		return
	}
	c.state.PayloadAttemptNumber++
	persistPayloadAttemptNumber(c.store, c.log, c.state.PayloadAttemptNumber)
	c.updateBackoffExpiry()
}

// updateBackoffExpiry recomputes backoff_expiry from the current
// payload attempt number: exponential in the attempt number, capped at
// maxBackoffDays, fuzzed by ±6 hours via the injected RandomSource.
func (c *Controller) updateBackoffExpiry() {
	if c.response.DisablePayloadBackoff || c.state.PayloadAttemptNumber == 0 {
		c.state.BackoffExpiry = time.Time{}
		persistBackoffExpiry(c.store, c.log, c.state.BackoffExpiry)
		return
	}

	shift := c.state.PayloadAttemptNumber - 1
	if shift > 30 {
		shift = 30
	}
	days := int64(1) << shift
	if days > maxBackoffDays {
		days = maxBackoffDays
	}

	rawMinutes := c.rand.Uniform(0, fuzzRangeMinutes)
	fuzz := time.Duration(rawMinutes-fuzzRangeMinutes/2) * time.Minute

	expiry := c.clock.WallclockNow().
		Add(time.Duration(days) * 24 * time.Hour).
		Add(fuzz)
	c.state.BackoffExpiry = expiry
	persistBackoffExpiry(c.store, c.log, expiry)
}

// updateCurrentDownloadSource re-derives c.current from the URL at the
// current index, or download.Unknown when there is no response yet or
// the index doesn't (or no longer) point at a real URL.
func (c *Controller) updateCurrentDownloadSource() {
	if int(c.state.URLIndex) >= len(c.response.URLs) {
		c.current = download.Unknown
		return
	}
	c.current = download.Classify(c.response.URLs[c.state.URLIndex])
}

// maybeIncrementRebootCount bumps num_reboots if the environment
// indicates the system was just rebooted. RebootDetector.SystemJustRebooted
// is single-shot per boot by contract (spec §6), so this is naturally
// idempotent within a boot without any extra state here.
func (c *Controller) maybeIncrementRebootCount() {
	if !c.reboot.SystemJustRebooted() {
		return
	}
	c.state.NumReboots++
	persistNumReboots(c.store, c.log, c.state.NumReboots)
}

// resetPersistentState zeros the attempt number, URL index, failure and
// switch counts, backoff expiry, uptime and current-bytes counters, and
// restarts update_timestamp_start at now (spec §4.5.5). It leaves the
// fingerprint, num_reboots and the lifetime total-bytes-downloaded
// counters, which span the whole update's lifetime across attempts,
// untouched.
func (c *Controller) resetPersistentState() {
	c.state.PayloadAttemptNumber = 0
	persistPayloadAttemptNumber(c.store, c.log, 0)

	c.state.URLIndex = 0
	persistURLIndex(c.store, c.log, 0)

	c.state.URLFailureCount = 0
	persistURLFailureCount(c.store, c.log, 0)

	c.state.URLSwitchCount = 0
	persistURLSwitchCount(c.store, c.log, 0)

	c.updateBackoffExpiry() // payload_attempt_number == 0 => backoff_expiry becomes null

	now := c.clock.WallclockNow()
	c.state.UpdateTimestampStart = now
	persistUpdateTimestampStart(c.store, c.log, now)

	c.state.UpdateDurationUptime = 0
	persistUpdateDurationUptime(c.store, c.log, 0)
	c.state.updateDurationUptimeAnchor = c.clock.MonotonicNow()

	c.accounting.ResetCurrentOnNewUpdate()
}
