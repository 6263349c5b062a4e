package faultcode

// Action is the single recovery action a Classify result maps an
// ErrorCode to. Exactly one applies per code; there is no combining.
type Action int

const (
	// ActionIncrementURLIndex advances to the next URL in the response's
	// URL list, treating the current URL (or its proxy/server) as the
	// likely culprit rather than the payload itself.
	ActionIncrementURLIndex Action = iota
	// ActionIncrementFailureCount bumps the per-URL failure counter
	// without necessarily moving to a new URL; repeated failures past
	// MaxFailuresPerURL still advance the index.
	ActionIncrementFailureCount
	// ActionNoOp leaves URL index and failure count untouched: the
	// failure isn't attributable to the URL at all.
	ActionNoOp
	// ActionLogUnexpected marks a code that should never reach
	// UpdateFailed in practice (success codes, internal flags). It is
	// handled like ActionNoOp but additionally warned about.
	ActionLogUnexpected
)

// Classify maps an ErrorCode to the single recovery action the
// controller takes in response to it. The switch is written to cover
// every constant in the enum; classify_test.go iterates All() and
// fails if a code falls through unclassified, approximating the
// closed-enum exhaustiveness a sum type would give for free.
func Classify(code ErrorCode) (Action, bool) {
	switch code {
	case PayloadHashMismatch,
		PayloadSizeMismatch,
		DownloadPayloadVerificationError,
		DownloadPayloadPubKeyVerificationError,
		SignedDeltaPayloadExpected,
		DownloadInvalidMetadataMagicString,
		DownloadSignatureMissingInManifest,
		DownloadManifestParseError,
		DownloadMetadataSignatureError,
		DownloadMetadataSignatureVerificationError,
		DownloadMetadataSignatureMismatch,
		DownloadOperationHashVerificationError,
		DownloadOperationExecutionError,
		DownloadOperationHashMismatch,
		DownloadInvalidMetadataSize,
		DownloadInvalidMetadataSignature,
		DownloadOperationHashMissingError,
		DownloadMetadataSignatureMissingError:
		return ActionIncrementURLIndex, true

	case GenericError,
		DownloadTransferError,
		DownloadWriteError,
		DownloadStateInitializationError,
		OmahaErrorInHTTPResponse:
		return ActionIncrementFailureCount, true

	case OmahaRequestError,
		OmahaResponseHandlerError,
		PostinstallRunnerError,
		FilesystemCopierError,
		InstallDeviceOpenError,
		KernelDeviceOpenError,
		DownloadNewPartitionInfoError,
		NewRootfsVerificationError,
		NewKernelVerificationError,
		PostinstallBootedFromFirmwareB,
		OmahaRequestEmptyResponseError,
		OmahaRequestXMLParseError,
		OmahaResponseInvalid,
		OmahaUpdateIgnoredPerPolicy,
		OmahaUpdateDeferredPerPolicy,
		OmahaUpdateDeferredForBackoff,
		PostinstallPowerwashError,
		UpdateCanceledByChannelChange:
		return ActionNoOp, true

	case Success,
		SetBootableFlagError,
		UmaReportedMax,
		OmahaRequestHTTPResponseBase,
		DevModeFlag,
		ResumedFlag,
		TestImageFlag,
		TestOmahaURLFlag,
		SpecialFlags:
		return ActionLogUnexpected, true

	default:
		return ActionNoOp, false
	}
}

// MustClassify is Classify with a panic on an unrecognized code, for
// call sites that have already validated the code came from this
// package's own constants (e.g. decoding a persisted value is the
// only place an unknown code should ever need the bool form).
func MustClassify(code ErrorCode) Action {
	action, ok := Classify(code)
	if !ok {
		panic("faultcode: unclassified error code " + code.String())
	}
	return action
}
