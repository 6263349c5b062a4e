package response

import (
	"fmt"
	"strings"
)

// Fingerprint produces the canonical digest of the eight fields that
// materially change retry behavior. Two responses fingerprint equal iff a
// client may legitimately continue an in-progress attempt against the new
// one. The exact byte form below must never change shape across releases:
// persisted fingerprints from a previous build are compared against it.
func Fingerprint(r UpdateResponse) string {
	var b strings.Builder

	fmt.Fprintf(&b, "NumURLs = %d\n", len(r.URLs))
	for i, url := range r.URLs {
		fmt.Fprintf(&b, "Url%d = %s\n", i, url)
	}
	fmt.Fprintf(&b, "Payload Size = %d\n", r.PayloadSize)
	fmt.Fprintf(&b, "Payload Sha256 Hash = %s\n", r.PayloadSHA256Hash)
	fmt.Fprintf(&b, "Metadata Size = %d\n", r.MetadataSize)
	fmt.Fprintf(&b, "Metadata Signature = %s\n", r.MetadataSignature)
	fmt.Fprintf(&b, "Is Delta Payload = %d\n", boolDigit(r.IsDeltaPayload))
	fmt.Fprintf(&b, "Max Failure Count Per Url = %d\n", r.MaxFailuresPerURL)
	fmt.Fprintf(&b, "Disable Payload Backoff = %d\n", boolDigit(r.DisablePayloadBackoff))

	return b.String()
}

func boolDigit(b bool) int {
	if b {
		return 1
	}
	return 0
}
