package response

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleResponse() UpdateResponse {
	return UpdateResponse{
		URLs:                  []string{"https://a.example/x", "http://b.example/y"},
		PayloadSize:           1048576,
		PayloadSHA256Hash:     "deadbeef",
		MetadataSize:          512,
		MetadataSignature:     "sig",
		IsDeltaPayload:        false,
		MaxFailuresPerURL:     10,
		DisablePayloadBackoff: false,
	}
}

func TestFingerprint_ExactByteForm(t *testing.T) {
	r := sampleResponse()
	want := "NumURLs = 2\n" +
		"Url0 = https://a.example/x\n" +
		"Url1 = http://b.example/y\n" +
		"Payload Size = 1048576\n" +
		"Payload Sha256 Hash = deadbeef\n" +
		"Metadata Size = 512\n" +
		"Metadata Signature = sig\n" +
		"Is Delta Payload = 0\n" +
		"Max Failure Count Per Url = 10\n" +
		"Disable Payload Backoff = 0\n"
	require.Equal(t, want, Fingerprint(r))
}

func TestFingerprint_StableAcrossRuns(t *testing.T) {
	r := sampleResponse()
	require.Equal(t, Fingerprint(r), Fingerprint(r))
}

func TestFingerprint_CorrelationIDExcluded(t *testing.T) {
	r1 := sampleResponse()
	r2 := sampleResponse()
	r2.CorrelationID = "some-other-id"
	require.Equal(t, Fingerprint(r1), Fingerprint(r2), "CorrelationID must not participate in the fingerprint")
}

func TestFingerprint_URLOrderMatters(t *testing.T) {
	r1 := sampleResponse()
	r2 := sampleResponse()
	r2.URLs = []string{r1.URLs[1], r1.URLs[0]}
	require.NotEqual(t, Fingerprint(r1), Fingerprint(r2), "URL order must be significant")
}

func TestFingerprint_ChangesOnFieldDelta(t *testing.T) {
	base := Fingerprint(sampleResponse())

	r := sampleResponse()
	r.PayloadSize++
	require.NotEqual(t, base, Fingerprint(r))

	r = sampleResponse()
	r.IsDeltaPayload = true
	require.NotEqual(t, base, Fingerprint(r))

	r = sampleResponse()
	r.MaxFailuresPerURL++
	require.NotEqual(t, base, Fingerprint(r))

	r = sampleResponse()
	r.DisablePayloadBackoff = true
	require.NotEqual(t, base, Fingerprint(r))
}
