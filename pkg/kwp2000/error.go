package kwp2000

import (
	"fmt"
)

const (
	GENERAL_REJECT                                     = 0x10
	SERVICE_NOT_SUPPORTED                              = 0x11
	SUBFUNCTION_NOT_SUPPORTED_OR_INVALID_FORMAT        = 0x12
	BUSY_REPEAT_REQUEST                                = 0x21
	CONDITIONS_NOT_CORRECT_OR_REQUEST_SEQUENCE_ERROR   = 0x22
	ROUTINE_NOT_COMPLETE_OR_SERVICE_IN_PROGRESS        = 0x23
	REQUEST_OUT_OF_RANGE                               = 0x31
	SECURITY_ACCESS_DENIED_OR_REQUESTED                = 0x33
	INVALID_KEY                                        = 0x35
	EXCEED_NUMBER_OF_ATTEMPTS                          = 0x36
	REQUIRED_TIME_DELAY_NOT_EXPIRED                    = 0x37
	DOWNLOAD_NOT_ACCEPTED                              = 0x40
	UPLOAD_NOT_ACCEPTED                                = 0x50
	TRANSFER_SUSPENDED                                 = 0x71
	TRANSFER_ABORTED                                   = 0x72
	REQUEST_CORRECTLY_RECEIVED_RESPONSE_PENDING        = 0x78
	SERVICE_NOT_SUPPORTED_IN_ACTIVE_DIAGNOSTIC_SESSION = 0x80
)

var (
	ErrGeneralReject                                = &KWP2000Error{GENERAL_REJECT, "General reject"}
	ErrServiceNotSupported                          = &KWP2000Error{SERVICE_NOT_SUPPORTED, "Service not supported"}
	ErrSubFunctionNotSupportedOrInvalidFormat       = &KWP2000Error{SUBFUNCTION_NOT_SUPPORTED_OR_INVALID_FORMAT, "Sub-function not supported or invalid format"}
	ErrBusyRepeatRequest                            = &KWP2000Error{BUSY_REPEAT_REQUEST, "Busy, repeat request"}
	ErrConditionsNotCorrectOrRequestSequenceError   = &KWP2000Error{CONDITIONS_NOT_CORRECT_OR_REQUEST_SEQUENCE_ERROR, "Conditions not correct or request sequence error"}
	ErrRoutineNotCompleteOrServiceInProgress        = &KWP2000Error{ROUTINE_NOT_COMPLETE_OR_SERVICE_IN_PROGRESS, "Routine not completed or service in progress"}
	ErrRequestOutOfRange                            = &KWP2000Error{REQUEST_OUT_OF_RANGE, "Request out of range or session dropped"}
	ErrSecurityAccessDeniedOrRequested              = &KWP2000Error{SECURITY_ACCESS_DENIED_OR_REQUESTED, "Security access denied"}
	ErrInvalidKey                                   = &KWP2000Error{INVALID_KEY, "Invalid key supplied"}
	ErrExceedNumberOfAttempts                       = &KWP2000Error{EXCEED_NUMBER_OF_ATTEMPTS, "Exceeded number of attempts to get security access"}
	ErrRequiredTimeDelayNotExpired                  = &KWP2000Error{REQUIRED_TIME_DELAY_NOT_EXPIRED, "Required time delay not expired"}
	ErrDownloadNotAccepted                          = &KWP2000Error{DOWNLOAD_NOT_ACCEPTED, "Download not accepted"}
	ErrUploadNotAccepted                            = &KWP2000Error{UPLOAD_NOT_ACCEPTED, "Upload not accepted"}
	ErrTransferSuspended                            = &KWP2000Error{TRANSFER_SUSPENDED, "Transfer suspended"}
	ErrTransferAborted                              = &KWP2000Error{TRANSFER_ABORTED, "Transfer aborted"}
	ErrRequestCorrectlyReceivedResponsePending      = &KWP2000Error{REQUEST_CORRECTLY_RECEIVED_RESPONSE_PENDING, "Response pending"}
	ErrServiceNotSupportedInActiveDiagnosticSession = &KWP2000Error{SERVICE_NOT_SUPPORTED_IN_ACTIVE_DIAGNOSTIC_SESSION, "Service not supported in current diagnostics session"}
)

var errorCodes = map[byte]*KWP2000Error{}

func init() {
	for _, e := range []*KWP2000Error{
		ErrGeneralReject, ErrServiceNotSupported, ErrSubFunctionNotSupportedOrInvalidFormat,
		ErrBusyRepeatRequest, ErrConditionsNotCorrectOrRequestSequenceError,
		ErrRoutineNotCompleteOrServiceInProgress, ErrRequestOutOfRange,
		ErrSecurityAccessDeniedOrRequested, ErrInvalidKey, ErrExceedNumberOfAttempts,
		ErrRequiredTimeDelayNotExpired, ErrDownloadNotAccepted, ErrUploadNotAccepted,
		ErrTransferSuspended, ErrTransferAborted, ErrRequestCorrectlyReceivedResponsePending,
		ErrServiceNotSupportedInActiveDiagnosticSession,
	} {
		errorCodes[e.Code] = e
	}
}

type KWP2000Error struct {
	Code byte
	Msg  string
}

func (k *KWP2000Error) Error() string {
	return fmt.Sprintf("%s (0x%02X)", k.Msg, k.Code)
}

// TranslateErrorCode returns the error for a negative response code, nil for 0x00
func TranslateErrorCode(p byte) error {
	if p == 0x00 {
		return nil
	}
	if e, ok := errorCodes[p]; ok {
		return e
	}
	return fmt.Errorf("unknown error %X", p)
}

// NegativeResponse is a 7F reply from the ECU
type NegativeResponse struct {
	Service byte
	Code    byte
}

func (n *NegativeResponse) Error() string {
	return fmt.Sprintf("%s (0x%02X) - %v", TranslateServiceCode(n.Service), n.Service, TranslateErrorCode(n.Code))
}

func (n *NegativeResponse) Unwrap() error {
	return TranslateErrorCode(n.Code)
}
