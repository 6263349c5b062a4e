package download

import (
	"github.com/openota/payloadstated/internal/store"
)

const (
	currentBytesKeyPrefix = "current-bytes-downloaded-from-"
	totalBytesKeyPrefix   = "total-bytes-downloaded-from-"
)

func currentBytesKey(s Source) string { return currentBytesKeyPrefix + s.String() }
func totalBytesKey(s Source) string   { return totalBytesKeyPrefix + s.String() }

// Accounting tracks per-source byte counters: current (bytes applied
// toward the payload actually being applied this attempt) and total
// (every byte transferred, including wasted retries), both persisted.
type Accounting struct {
	s store.Store

	current map[Source]uint64
	total   map[Source]uint64
}

func NewAccounting(s store.Store) *Accounting {
	a := &Accounting{
		s:       s,
		current: make(map[Source]uint64),
		total:   make(map[Source]uint64),
	}
	for _, src := range Sources() {
		a.current[src] = loadClamped(s, currentBytesKey(src))
		a.total[src] = loadClamped(s, totalBytesKey(src))
	}
	return a
}

func loadClamped(s store.Store, key string) uint64 {
	v, ok := s.GetI64(key)
	if !ok {
		return 0
	}
	if v < 0 {
		return 0
	}
	return uint64(v)
}

func (a *Accounting) Current(s Source) uint64 { return a.current[s] }
func (a *Accounting) Total(s Source) uint64   { return a.total[s] }

// OnBytes attributes n bytes transferred over the current source to both
// the current-attempt and lifetime-of-update counters, persisting each.
// A write failure is logged by the Store itself and never propagated:
// the caller cannot usefully recover from it (spec §7, StorageError).
func (a *Accounting) OnBytes(current Source, n uint64) {
	if current == Unknown || n == 0 {
		return
	}
	a.current[current] += n
	a.total[current] += n
	_ = a.s.SetI64(currentBytesKey(current), int64(a.current[current]))
	_ = a.s.SetI64(totalBytesKey(current), int64(a.total[current]))
}

// ResetCurrentOnNewUpdate zeros every source's current-attempt counter
// while leaving lifetime totals untouched; called when a response
// fingerprint changes (reset_persistent_state) or an update restarts.
func (a *Accounting) ResetCurrentOnNewUpdate() {
	for _, src := range Sources() {
		a.current[src] = 0
		_ = a.s.SetI64(currentBytesKey(src), 0)
	}
}

// DrainOnSuccess zeros both current and total counters for every source,
// called after metrics for the successful update have been emitted.
func (a *Accounting) DrainOnSuccess() {
	for _, src := range Sources() {
		a.current[src] = 0
		a.total[src] = 0
		_ = a.s.SetI64(currentBytesKey(src), 0)
		_ = a.s.SetI64(totalBytesKey(src), 0)
	}
}
