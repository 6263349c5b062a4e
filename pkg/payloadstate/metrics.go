package payloadstate

import (
	"time"

	"github.com/openota/payloadstated/pkg/download"
)

// Bucket counts for each metric family. Spec §4.6 pins the min/max range
// of every sample; the bucket count itself is an implementation choice,
// set here to the kind of coarse-enough-to-be-cheap values a UMA-style
// histogram typically uses.
const (
	mbBucketCount          = 50
	overheadBucketCount    = 50
	urlSwitchesBucketCount = 50
	rebootsBucketCount     = 25
	durationBucketCount    = 50
	uptimeBucketCount      = 50

	mebibyte = 1 << 20
)

// emitSuccessMetrics sends the eight sample families from spec §4.6 to
// the injected MetricsSink. Called exactly once, from UpdateSucceeded,
// before the accounting counters it reads are drained.
func (c *Controller) emitSuccessMetrics(wallDuration, uptimeDuration time.Duration) {
	sources := download.Sources()

	var sumSuccessfulMB, sumTotalMB uint64
	var sourcesUsed int64

	for i, s := range sources {
		current := c.accounting.Current(s)
		total := c.accounting.Total(s)

		successfulMB := current / mebibyte
		totalMB := total / mebibyte
		sumSuccessfulMB += successfulMB
		sumTotalMB += totalMB

		if current > 0 {
			sourcesUsed |= 1 << uint(i)
		}

		c.send("SuccessfulMBsDownloadedFrom"+s.String(), int64(successfulMB), 0, 10240, mbBucketCount)
		c.send("TotalMBsDownloadedFrom"+s.String(), int64(totalMB), 0, 10240, mbBucketCount)
	}

	c.send("DownloadSourcesUsed", sourcesUsed, 0, int64(1)<<uint(len(sources)), len(sources)+1)

	if sumSuccessfulMB > 0 {
		overheadPct := int64((sumTotalMB - sumSuccessfulMB) * 100 / sumSuccessfulMB)
		c.send("DownloadOverheadPercentage", overheadPct, 0, 1000, overheadBucketCount)
	}

	c.send("UpdateURLSwitches", int64(c.state.URLSwitchCount), 0, 100, urlSwitchesBucketCount)
	c.send("UpdateNumReboots", int64(c.state.NumReboots), 0, 50, rebootsBucketCount)
	c.send("UpdateDurationMinutes", int64(wallDuration/time.Minute), 1, 525600, durationBucketCount)
	c.send("UpdateDurationUptimeMinutes", int64(uptimeDuration/time.Minute), 1, 43200, uptimeBucketCount)
}

// send is a thin wrapper that logs (but never propagates) a failed
// MetricsSink send, matching spec §6's "fire-and-forget; failures are
// ignored" contract for MetricsSink.
func (c *Controller) send(name string, sample, min, max int64, buckets int) {
	if err := c.metrics.SendToUMA(name, sample, min, max, buckets); err != nil {
		c.log.Warn("metrics sink rejected sample",
			"metric", name, "correlation_id", c.response.CorrelationID, "err", err)
	}
}
