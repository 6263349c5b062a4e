// Package faultcode enumerates every error code a failed download attempt
// can report and classifies each one into exactly one recovery action.
package faultcode

// ErrorCode is a closed enum mirroring the set of failures the surrounding
// agent (downloader, Omaha client, payload applier, post-install runner)
// can report into update_failed. Names follow the classes from spec §4.5.1.
type ErrorCode int

const (
	// Payload-corruption class: URL/proxy/protocol entity is suspect.
	PayloadHashMismatch ErrorCode = iota
	PayloadSizeMismatch
	DownloadPayloadVerificationError
	DownloadPayloadPubKeyVerificationError
	SignedDeltaPayloadExpected
	DownloadInvalidMetadataMagicString
	DownloadSignatureMissingInManifest
	DownloadManifestParseError
	DownloadMetadataSignatureError
	DownloadMetadataSignatureVerificationError
	DownloadMetadataSignatureMismatch
	DownloadOperationHashVerificationError
	DownloadOperationExecutionError
	DownloadOperationHashMismatch
	DownloadInvalidMetadataSize
	DownloadInvalidMetadataSignature
	DownloadOperationHashMissingError
	DownloadMetadataSignatureMissingError

	// Transient-network class: URL itself may still be best.
	GenericError
	DownloadTransferError
	DownloadWriteError
	DownloadStateInitializationError
	OmahaErrorInHTTPResponse

	// Non-URL-fault class: not attributable to the URL.
	OmahaRequestError
	OmahaResponseHandlerError
	PostinstallRunnerError
	FilesystemCopierError
	InstallDeviceOpenError
	KernelDeviceOpenError
	DownloadNewPartitionInfoError
	NewRootfsVerificationError
	NewKernelVerificationError
	PostinstallBootedFromFirmwareB
	OmahaRequestEmptyResponseError
	OmahaRequestXMLParseError
	OmahaResponseInvalid
	OmahaUpdateIgnoredPerPolicy
	OmahaUpdateDeferredPerPolicy
	OmahaUpdateDeferredForBackoff
	PostinstallPowerwashError
	UpdateCanceledByChannelChange

	// Not-an-error / sentinel class: shouldn't reach update_failed.
	Success
	SetBootableFlagError
	UmaReportedMax
	OmahaRequestHTTPResponseBase
	DevModeFlag
	ResumedFlag
	TestImageFlag
	TestOmahaURLFlag
	SpecialFlags

	numErrorCodes
)

func (e ErrorCode) String() string {
	if name, ok := codeNames[e]; ok {
		return name
	}
	return "UnknownErrorCode"
}

var codeNames = map[ErrorCode]string{
	PayloadHashMismatch:                         "PayloadHashMismatch",
	PayloadSizeMismatch:                         "PayloadSizeMismatch",
	DownloadPayloadVerificationError:            "DownloadPayloadVerificationError",
	DownloadPayloadPubKeyVerificationError:       "DownloadPayloadPubKeyVerificationError",
	SignedDeltaPayloadExpected:                  "SignedDeltaPayloadExpected",
	DownloadInvalidMetadataMagicString:          "DownloadInvalidMetadataMagicString",
	DownloadSignatureMissingInManifest:          "DownloadSignatureMissingInManifest",
	DownloadManifestParseError:                  "DownloadManifestParseError",
	DownloadMetadataSignatureError:              "DownloadMetadataSignatureError",
	DownloadMetadataSignatureVerificationError:  "DownloadMetadataSignatureVerificationError",
	DownloadMetadataSignatureMismatch:           "DownloadMetadataSignatureMismatch",
	DownloadOperationHashVerificationError:      "DownloadOperationHashVerificationError",
	DownloadOperationExecutionError:             "DownloadOperationExecutionError",
	DownloadOperationHashMismatch:               "DownloadOperationHashMismatch",
	DownloadInvalidMetadataSize:                 "DownloadInvalidMetadataSize",
	DownloadInvalidMetadataSignature:            "DownloadInvalidMetadataSignature",
	DownloadOperationHashMissingError:           "DownloadOperationHashMissingError",
	DownloadMetadataSignatureMissingError:       "DownloadMetadataSignatureMissingError",
	GenericError:                      "GenericError",
	DownloadTransferError:             "DownloadTransferError",
	DownloadWriteError:                "DownloadWriteError",
	DownloadStateInitializationError:  "DownloadStateInitializationError",
	OmahaErrorInHTTPResponse:          "OmahaErrorInHTTPResponse",
	OmahaRequestError:                 "OmahaRequestError",
	OmahaResponseHandlerError:         "OmahaResponseHandlerError",
	PostinstallRunnerError:            "PostinstallRunnerError",
	FilesystemCopierError:             "FilesystemCopierError",
	InstallDeviceOpenError:            "InstallDeviceOpenError",
	KernelDeviceOpenError:             "KernelDeviceOpenError",
	DownloadNewPartitionInfoError:     "DownloadNewPartitionInfoError",
	NewRootfsVerificationError:        "NewRootfsVerificationError",
	NewKernelVerificationError:        "NewKernelVerificationError",
	PostinstallBootedFromFirmwareB:    "PostinstallBootedFromFirmwareB",
	OmahaRequestEmptyResponseError:    "OmahaRequestEmptyResponseError",
	OmahaRequestXMLParseError:         "OmahaRequestXMLParseError",
	OmahaResponseInvalid:              "OmahaResponseInvalid",
	OmahaUpdateIgnoredPerPolicy:       "OmahaUpdateIgnoredPerPolicy",
	OmahaUpdateDeferredPerPolicy:      "OmahaUpdateDeferredPerPolicy",
	OmahaUpdateDeferredForBackoff:     "OmahaUpdateDeferredForBackoff",
	PostinstallPowerwashError:         "PostinstallPowerwashError",
	UpdateCanceledByChannelChange:     "UpdateCanceledByChannelChange",
	Success:                       "Success",
	SetBootableFlagError:          "SetBootableFlagError",
	UmaReportedMax:                "UmaReportedMax",
	OmahaRequestHTTPResponseBase:  "OmahaRequestHTTPResponseBase",
	DevModeFlag:                   "DevModeFlag",
	ResumedFlag:                   "ResumedFlag",
	TestImageFlag:                 "TestImageFlag",
	TestOmahaURLFlag:              "TestOmahaURLFlag",
	SpecialFlags:                  "SpecialFlags",
}

// All returns every declared ErrorCode, in declaration order. Used by
// classify_test.go to assert exhaustiveness of Classify.
func All() []ErrorCode {
	codes := make([]ErrorCode, 0, numErrorCodes)
	for c := ErrorCode(0); c < numErrorCodes; c++ {
		codes = append(codes, c)
	}
	return codes
}
