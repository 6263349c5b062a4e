package payloadstate

// fakeBuild is a BuildKind that always reports the configured value.
type fakeBuild struct{ official bool }

func (f fakeBuild) IsOfficialBuild() bool { return f.official }

// fakeReboot is a RebootDetector that fires exactly once, the first
// time SystemJustRebooted is called, then returns false forever (or
// until armed again), mirroring the single-shot-per-boot contract.
type fakeReboot struct{ fired bool }

func (f *fakeReboot) SystemJustRebooted() bool {
	if f.fired {
		return false
	}
	f.fired = true
	return true
}

// fakeRandom is a RandomSource that always returns a fixed value,
// clamped into [lo, hi], for deterministic backoff-fuzz tests.
type fakeRandom struct{ value int64 }

func (f fakeRandom) Uniform(lo, hi int64) int64 {
	if f.value < lo {
		return lo
	}
	if f.value > hi {
		return hi
	}
	return f.value
}

// fakeSink is a MetricsSink that records every sample it's sent.
type fakeSink struct {
	samples map[string]int64
}

func newFakeSink() *fakeSink { return &fakeSink{samples: make(map[string]int64)} }

func (f *fakeSink) SendToUMA(name string, sample, min, max int64, buckets int) error {
	f.samples[name] = sample
	return nil
}
