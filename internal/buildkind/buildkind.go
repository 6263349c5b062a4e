// Package buildkind provides the BuildKind collaborator that tells the
// payload state machine whether backoff applies to this build at all
// (spec §4.5: backoff is official-build-only).
package buildkind

// FromConfig is a BuildKind whose answer is fixed at construction time
// from agent configuration, rather than probed from the running system.
type FromConfig struct {
	official bool
}

// New returns a FromConfig reporting official for every call.
func New(official bool) FromConfig {
	return FromConfig{official: official}
}

func (f FromConfig) IsOfficialBuild() bool { return f.official }
