package payloadstate

import (
	"log/slog"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/openota/payloadstated/internal/clock"
	"github.com/openota/payloadstated/internal/store"
	"github.com/openota/payloadstated/pkg/download"
	"github.com/openota/payloadstated/pkg/faultcode"
	"github.com/openota/payloadstated/pkg/response"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func newTestController(t *testing.T) (*Controller, *clock.Fake, *fakeSink) {
	t.Helper()
	fc := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	sink := newFakeSink()
	c := New(Deps{
		Store:   store.NewMemory(),
		Clock:   fc,
		Random:  fakeRandom{value: fuzzRangeMinutes / 2}, // zero fuzz
		Build:   fakeBuild{official: true},
		Reboot:  &fakeReboot{},
		Metrics: sink,
		Logger:  discardLogger(),
	})
	c.Initialize()
	return c, fc, sink
}

func basicResponse(urls []string) response.UpdateResponse {
	return response.UpdateResponse{
		URLs:              urls,
		PayloadSize:       1 << 20,
		PayloadSHA256Hash: "deadbeef",
		MaxFailuresPerURL: 10,
	}
}

// --- End-to-end scenarios (spec §8) ---

func TestScenario_HappyPath(t *testing.T) {
	c, _, sink := newTestController(t)

	c.SetResponse(basicResponse([]string{"https://a"}))
	c.DownloadProgress(1048576)
	c.DownloadComplete()
	c.UpdateSucceeded()

	if c.state.PayloadAttemptNumber != 1 {
		t.Fatalf("payload_attempt_number = %d, want 1", c.state.PayloadAttemptNumber)
	}
	if got := sink.samples["SuccessfulMBsDownloadedFromHttpsServer"]; got != 1 {
		t.Fatalf("SuccessfulMBsDownloadedFromHttpsServer = %d, want 1", got)
	}
	mask, ok := sink.samples["DownloadSourcesUsed"]
	if !ok {
		t.Fatalf("DownloadSourcesUsed not emitted")
	}
	httpsBit := int64(1) << indexOf(download.HTTPS)
	if mask != httpsBit {
		t.Fatalf("DownloadSourcesUsed = %d, want only the HTTPS bit (%d) set", mask, httpsBit)
	}
	if got := sink.samples["UpdateURLSwitches"]; got != 0 {
		t.Fatalf("UpdateURLSwitches = %d, want 0", got)
	}
}

func indexOf(s download.Source) int {
	for i, v := range download.Sources() {
		if v == s {
			return i
		}
	}
	return -1
}

func TestScenario_URLChurnOnCorruption(t *testing.T) {
	c, _, _ := newTestController(t)

	r := basicResponse([]string{"https://a", "http://b"})
	r.MaxFailuresPerURL = 3
	c.SetResponse(r)
	c.UpdateFailed(faultcode.PayloadHashMismatch)

	if c.state.URLIndex != 1 {
		t.Fatalf("url_index = %d, want 1", c.state.URLIndex)
	}
	if c.state.URLFailureCount != 0 {
		t.Fatalf("url_failure_count = %d, want 0", c.state.URLFailureCount)
	}
	if c.state.URLSwitchCount != 1 {
		t.Fatalf("url_switch_count = %d, want 1", c.state.URLSwitchCount)
	}
	if c.current != download.HTTP {
		t.Fatalf("current source = %v, want HTTP", c.current)
	}
}

func TestScenario_FailureCapAndWrap(t *testing.T) {
	c, fc, _ := newTestController(t)

	r := basicResponse([]string{"https://a"})
	r.MaxFailuresPerURL = 3
	c.SetResponse(r)

	for i := 0; i < 3; i++ {
		c.UpdateFailed(faultcode.DownloadTransferError)
	}

	if c.state.URLIndex != 0 {
		t.Fatalf("url_index = %d, want 0 (wrapped)", c.state.URLIndex)
	}
	if c.state.PayloadAttemptNumber != 1 {
		t.Fatalf("payload_attempt_number = %d, want 1", c.state.PayloadAttemptNumber)
	}
	if c.state.BackoffExpiry.IsZero() {
		t.Fatalf("backoff_expiry should be set")
	}
	maxExpiry := fc.WallclockNow().Add(24*time.Hour + 6*time.Hour)
	if c.state.BackoffExpiry.After(maxExpiry) {
		t.Fatalf("backoff_expiry %v exceeds now+1day+6h (%v)", c.state.BackoffExpiry, maxExpiry)
	}
}

func TestScenario_TamperDetection(t *testing.T) {
	s := store.NewMemory()
	r := basicResponse([]string{"https://a", "https://b"})
	_ = s.SetString(keyResponseFingerprint, response.Fingerprint(r))
	_ = s.SetI64(keyURLIndex, 5)

	fc := clock.NewFake(time.Now())
	c := New(Deps{
		Store: s, Clock: fc, Random: fakeRandom{value: 360},
		Build: fakeBuild{official: true}, Reboot: &fakeReboot{},
		Metrics: newFakeSink(), Logger: discardLogger(),
	})
	c.Initialize()
	c.SetResponse(r)

	if c.state.URLIndex != 0 || c.state.URLFailureCount != 0 || c.state.URLSwitchCount != 0 || c.state.PayloadAttemptNumber != 0 {
		t.Fatalf("expected full reset, got %+v", c.state)
	}
}

func TestScenario_DeltaPayloadFastFallback(t *testing.T) {
	c, _, _ := newTestController(t)

	r := basicResponse([]string{"https://a"})
	r.IsDeltaPayload = true
	c.SetResponse(r)
	c.DownloadComplete()

	if c.state.PayloadAttemptNumber != 0 {
		t.Fatalf("payload_attempt_number = %d, want unchanged at 0 for delta payload", c.state.PayloadAttemptNumber)
	}
	if !c.state.BackoffExpiry.IsZero() {
		t.Fatalf("backoff_expiry should remain null for a delta payload")
	}
}

func TestScenario_ClockRewindDefense(t *testing.T) {
	s := store.NewMemory()
	now := time.Now()
	_ = s.SetI64(keyUpdateTimestampStart, now.Add(time.Hour).Unix())

	fc := clock.NewFake(now)
	c := New(Deps{
		Store: s, Clock: fc, Random: fakeRandom{value: 360},
		Build: fakeBuild{official: true}, Reboot: &fakeReboot{},
		Metrics: newFakeSink(), Logger: discardLogger(),
	})
	c.Initialize()

	if c.state.UpdateTimestampStart.Unix() != fc.WallclockNow().Unix() {
		t.Fatalf("update_timestamp_start = %v, want reset to now (%v)", c.state.UpdateTimestampStart, fc.WallclockNow())
	}
}

// --- Boundary behaviors ---

func TestBoundary_MaxFailuresPerURLOne_SingleFailureAdvances(t *testing.T) {
	c, _, _ := newTestController(t)
	r := basicResponse([]string{"https://a", "https://b"})
	r.MaxFailuresPerURL = 1
	c.SetResponse(r)

	c.UpdateFailed(faultcode.DownloadTransferError)

	if c.state.URLIndex != 1 {
		t.Fatalf("url_index = %d, want 1", c.state.URLIndex)
	}
}

func TestBoundary_SingleURLWrapsWithoutSwitchCount(t *testing.T) {
	c, _, _ := newTestController(t)
	r := basicResponse([]string{"https://a"})
	r.MaxFailuresPerURL = 1
	c.SetResponse(r)

	c.UpdateFailed(faultcode.DownloadTransferError)

	if c.state.URLIndex != 0 {
		t.Fatalf("url_index = %d, want 0 (wrapped to the same URL)", c.state.URLIndex)
	}
	if c.state.URLSwitchCount != 0 {
		t.Fatalf("url_switch_count = %d, want 0 for a single-URL list", c.state.URLSwitchCount)
	}
	if c.state.PayloadAttemptNumber != 1 {
		t.Fatalf("payload_attempt_number = %d, want 1", c.state.PayloadAttemptNumber)
	}
}

func TestBoundary_HighAttemptNumberClampsDaysAt16(t *testing.T) {
	c, fc, _ := newTestController(t)
	r := basicResponse([]string{"https://a"})
	c.SetResponse(r)

	c.state.PayloadAttemptNumber = 1000
	c.updateBackoffExpiry()

	maxExpiry := fc.WallclockNow().Add(16*24*time.Hour + 6*time.Hour)
	if c.state.BackoffExpiry.After(maxExpiry) {
		t.Fatalf("backoff_expiry %v exceeds the 16-day cap plus fuzz (%v)", c.state.BackoffExpiry, maxExpiry)
	}
}

// --- Quantified invariants (randomized operation sequences) ---

func TestInvariant_URLIndexAlwaysInRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	c, _, _ := newTestController(t)

	urls := []string{"https://a", "http://b", "https://c"}
	c.SetResponse(basicResponse(urls))

	codes := []faultcode.ErrorCode{
		faultcode.PayloadHashMismatch, faultcode.DownloadTransferError, faultcode.GenericError,
	}
	for i := 0; i < 500; i++ {
		switch rng.IntN(3) {
		case 0:
			c.DownloadProgress(uint64(rng.IntN(1000)))
		case 1:
			c.UpdateFailed(codes[rng.IntN(len(codes))])
		case 2:
			c.DownloadComplete()
		}
		if len(c.response.URLs) > 0 && c.state.URLIndex >= uint64(len(c.response.URLs)) {
			t.Fatalf("INV-1 violated at step %d: url_index=%d, len(urls)=%d", i, c.state.URLIndex, len(c.response.URLs))
		}
	}
}

func TestInvariant_SetResponseDifferentFingerprintResetsAllFields(t *testing.T) {
	c, _, _ := newTestController(t)
	c.SetResponse(basicResponse([]string{"https://a", "https://b"}))
	c.UpdateFailed(faultcode.PayloadHashMismatch)
	c.DownloadProgress(100)

	c.SetResponse(basicResponse([]string{"https://different"}))

	if c.state.PayloadAttemptNumber != 0 || c.state.URLIndex != 0 || c.state.URLFailureCount != 0 || c.state.URLSwitchCount != 0 {
		t.Fatalf("INV-2 violated: fields not reset after fingerprint change: %+v", c.state)
	}
}

func TestInvariant_BackoffNullWhenAttemptNumberZero(t *testing.T) {
	c, _, _ := newTestController(t)
	c.SetResponse(basicResponse([]string{"https://a"}))
	if c.state.PayloadAttemptNumber != 0 {
		t.Fatalf("expected fresh attempt number 0")
	}
	if !c.state.BackoffExpiry.IsZero() {
		t.Fatalf("INV-3 violated: backoff_expiry must be null when payload_attempt_number == 0")
	}
}

func TestInvariant_DownloadProgressClearsFailureCount(t *testing.T) {
	c, _, _ := newTestController(t)
	r := basicResponse([]string{"https://a"})
	r.MaxFailuresPerURL = 10
	c.SetResponse(r)

	c.UpdateFailed(faultcode.DownloadTransferError)
	if c.state.URLFailureCount == 0 {
		t.Fatalf("expected a nonzero failure count before progress")
	}

	c.DownloadProgress(1)
	if c.state.URLFailureCount != 0 {
		t.Fatalf("INV-5 violated: url_failure_count = %d after nonzero download_progress", c.state.URLFailureCount)
	}
}

// --- Round-trip properties ---

func TestRoundTrip_ResetTwiceEqualsOnce(t *testing.T) {
	c, _, _ := newTestController(t)
	c.SetResponse(basicResponse([]string{"https://a"}))
	c.UpdateFailed(faultcode.DownloadTransferError)

	c.resetPersistentState()
	first := c.state

	c.resetPersistentState()
	second := c.state

	if first.PayloadAttemptNumber != second.PayloadAttemptNumber ||
		first.URLIndex != second.URLIndex ||
		first.URLFailureCount != second.URLFailureCount ||
		first.URLSwitchCount != second.URLSwitchCount {
		t.Fatalf("RT-2 violated: reset is not idempotent: %+v vs %+v", first, second)
	}
}

func TestRoundTrip_FingerprintByteIdenticalAcrossRuns(t *testing.T) {
	r := basicResponse([]string{"https://a", "http://b"})
	if response.Fingerprint(r) != response.Fingerprint(r) {
		t.Fatalf("RT-3 violated")
	}
}

func TestRoundTrip_InitializeAfterRestartPreservesState(t *testing.T) {
	s := store.NewMemory()
	fc := clock.NewFake(time.Now())
	build := fakeBuild{official: true}
	reboot := &fakeReboot{}

	c1 := New(Deps{Store: s, Clock: fc, Random: fakeRandom{value: 360}, Build: build, Reboot: reboot, Metrics: newFakeSink(), Logger: discardLogger()})
	c1.Initialize()
	c1.SetResponse(basicResponse([]string{"https://a", "https://b"}))
	c1.UpdateFailed(faultcode.PayloadHashMismatch)

	c2 := New(Deps{Store: s, Clock: fc, Random: fakeRandom{value: 360}, Build: build, Reboot: reboot, Metrics: newFakeSink(), Logger: discardLogger()})
	c2.Initialize()
	c2.SetResponse(basicResponse([]string{"https://a", "https://b"}))

	if c2.state.URLIndex != c1.state.URLIndex || c2.state.URLSwitchCount != c1.state.URLSwitchCount {
		t.Fatalf("RT-1 violated: state after reload (%+v) != state before restart (%+v)", c2.state, c1.state)
	}
}

// --- ShouldBackoffDownload gating ---

func TestShouldBackoffDownload_GatedOnEveryCondition(t *testing.T) {
	c, fc, _ := newTestController(t)
	r := basicResponse([]string{"https://a"})
	c.SetResponse(r)

	if c.ShouldBackoffDownload() {
		t.Fatalf("should not back off with no backoff armed yet")
	}

	c.state.PayloadAttemptNumber = 1
	c.updateBackoffExpiry()
	if !c.ShouldBackoffDownload() {
		t.Fatalf("should back off once backoff_expiry is in the future")
	}

	fc.Advance(17 * 24 * time.Hour)
	if c.ShouldBackoffDownload() {
		t.Fatalf("should not back off once backoff_expiry has passed")
	}
}

func TestShouldBackoffDownload_DisabledOnDeltaPayload(t *testing.T) {
	c, _, _ := newTestController(t)
	r := basicResponse([]string{"https://a"})
	r.IsDeltaPayload = true
	c.SetResponse(r)
	c.state.BackoffExpiry = c.clock.WallclockNow().Add(time.Hour)

	if c.ShouldBackoffDownload() {
		t.Fatalf("delta payloads must never back off")
	}
}

func TestShouldBackoffDownload_DisabledOnNonOfficialBuild(t *testing.T) {
	fc := clock.NewFake(time.Now())
	c := New(Deps{
		Store: store.NewMemory(), Clock: fc, Random: fakeRandom{value: 360},
		Build: fakeBuild{official: false}, Reboot: &fakeReboot{},
		Metrics: newFakeSink(), Logger: discardLogger(),
	})
	c.Initialize()
	c.SetResponse(basicResponse([]string{"https://a"}))
	c.state.BackoffExpiry = fc.WallclockNow().Add(time.Hour)

	if c.ShouldBackoffDownload() {
		t.Fatalf("non-official builds must never back off")
	}
}

func TestUpdateFailed_GateWhenNoURLsYet(t *testing.T) {
	c, _, _ := newTestController(t)
	c.UpdateFailed(faultcode.PayloadHashMismatch)
	if c.state.URLIndex != 0 || c.state.URLFailureCount != 0 {
		t.Fatalf("update_failed before any response must be a no-op")
	}
}

func TestUpdateRestarted_KeepsTotalsResetsCurrentAndReboots(t *testing.T) {
	c, _, _ := newTestController(t)
	c.SetResponse(basicResponse([]string{"https://a"}))
	c.DownloadProgress(1000)
	c.state.NumReboots = 3

	c.UpdateRestarted()

	if c.accounting.Current(download.HTTPS) != 0 {
		t.Fatalf("current bytes should reset on update_restarted")
	}
	if c.accounting.Total(download.HTTPS) != 1000 {
		t.Fatalf("total bytes must survive update_restarted")
	}
	if c.state.NumReboots != 0 {
		t.Fatalf("num_reboots should reset to 0 on update_restarted")
	}
}
