// Package reboot provides the RebootDetector collaborator, which tells
// the payload state machine whether the host has rebooted since the
// last time it asked (spec §4.5: UpdateResumed's reboot accounting).
package reboot

import (
	"os"
	"strings"

	"github.com/openota/payloadstated/internal/store"
)

const (
	bootIDPath        = "/proc/sys/kernel/random/boot_id"
	lastSeenBootIDKey = "last-seen-boot-id"
)

// Detector compares the kernel's per-boot random boot_id against the
// last value it persisted. SystemJustRebooted returns true at most once
// per distinct boot_id: the first call after a reboot (including the
// very first call ever, against an empty store) reports true and
// persists the new id; every subsequent call with the same id reports
// false.
type Detector struct {
	store store.Store
	path  string
}

// New returns a Detector reading boot_id from the standard kernel path.
func New(s store.Store) *Detector {
	return &Detector{store: s, path: bootIDPath}
}

func (d *Detector) SystemJustRebooted() bool {
	current, err := readBootID(d.path)
	if err != nil {
		return false
	}

	last, ok := d.store.GetString(lastSeenBootIDKey)
	if ok && last == current {
		return false
	}

	_ = d.store.SetString(lastSeenBootIDKey, current)
	return true
}

func readBootID(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
