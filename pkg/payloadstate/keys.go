package payloadstate

// Persistent key names, stable across releases (spec §6). Renaming any of
// these orphans whatever a prior build already wrote to the store.
const (
	keyResponseFingerprint    = "current-response-signature"
	keyPayloadAttemptNumber   = "payload-attempt-number"
	keyURLIndex               = "current-url-index"
	keyURLFailureCount        = "current-url-failure-count"
	keyURLSwitchCount         = "url-switch-count"
	keyBackoffExpiry          = "backoff-expiry-time"
	keyUpdateTimestampStart   = "update-timestamp-start"
	keyUpdateDurationUptime   = "update-duration-uptime"
	keyNumReboots             = "num-reboots"
)
