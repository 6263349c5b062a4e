// Package response defines the UpdateResponse the payload state machine
// reacts to, and the canonical fingerprint used to decide whether an
// in-progress attempt may continue against a newly received response.
package response

// UpdateResponse carries the fields the core cares about. CorrelationID is
// deliberately excluded from the fingerprint: it exists only so a caller
// (e.g. an Omaha or TUF client) can join this response to its own logs and
// metrics, and varying it alone must never look like a new update.
type UpdateResponse struct {
	URLs                  []string `yaml:"urls"`
	PayloadSize           uint64   `yaml:"payload_size"`
	PayloadSHA256Hash     string   `yaml:"payload_sha256_hash"`
	MetadataSize          uint64   `yaml:"metadata_size"`
	MetadataSignature     string   `yaml:"metadata_signature"`
	IsDeltaPayload        bool     `yaml:"is_delta_payload"`
	MaxFailuresPerURL     uint32   `yaml:"max_failures_per_url"`
	DisablePayloadBackoff bool     `yaml:"disable_payload_backoff"`

	CorrelationID string `yaml:"correlation_id"`
}
