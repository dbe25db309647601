package spqrerror

import (
	"errors"
	"fmt"
)

const (
	SPQR_UNEXPECTED          = "SPQRU"
	SPQR_ROUTING_ERROR       = "SPQRR"
	SPQR_SHARD_WRITE_ERROR   = "SPQRW"
	SPQR_DISPATCH_ERROR      = "SPQRD"
	SPQR_TASK_PRUNING_ERROR  = "SPQRP"
	SPQR_CONNECTION_ERROR    = "SPQRO"
	SPQR_TRANSACTION_ERROR   = "SPQRT"
	SPQR_LOCK_ERROR          = "SPQRL"
	SPQR_OBJECT_NOT_EXIST    = "SPQRN"
	SPQR_METADATA_CORRUPTION = "SPQRC"
	SPQR_INVALID_REQUEST     = "SPQRI"
	SPQR_CONFIG_ERROR        = "SPQRG"
)

var existingErrorCodeMap = map[string]string{
	SPQR_UNEXPECTED:          "Unexpected error",
	SPQR_ROUTING_ERROR:       "Routing error",
	SPQR_SHARD_WRITE_ERROR:   "Shard write error",
	SPQR_DISPATCH_ERROR:      "Dispatch error",
	SPQR_TASK_PRUNING_ERROR:  "Task pruning inconsistency",
	SPQR_CONNECTION_ERROR:    "Connection error",
	SPQR_TRANSACTION_ERROR:   "Transaction error",
	SPQR_LOCK_ERROR:          "Lock error",
	SPQR_OBJECT_NOT_EXIST:    "Object does not exist",
	SPQR_METADATA_CORRUPTION: "Metadata corruption",
	SPQR_INVALID_REQUEST:     "Invalid request",
	SPQR_CONFIG_ERROR:        "Configuration error",
}

// GetMessageByCode returns the human readable name of errorCode.
func GetMessageByCode(errorCode string) string {
	rep, ok := existingErrorCodeMap[errorCode]
	if ok {
		return rep
	}
	return "Unexpected error"
}

var _ error = &SpqrError{}

type SpqrError struct {
	Err error

	ErrorCode string
}

// New creates a coded error with a fixed description.
func New(errorCode string, errorMsg string) *SpqrError {
	return &SpqrError{
		Err:       errors.New(errorMsg),
		ErrorCode: errorCode,
	}
}

// Newf creates a coded error with a formatted description.
// %w verbs are honoured, so the cause stays reachable with errors.Is / errors.As.
func Newf(errorCode string, format string, a ...any) *SpqrError {
	return &SpqrError{
		Err:       fmt.Errorf(format, a...),
		ErrorCode: errorCode,
	}
}

// NewByCode creates an error whose description is the name of the code.
func NewByCode(errorCode string) *SpqrError {
	return New(errorCode, GetMessageByCode(errorCode))
}

func (er *SpqrError) Error() string {
	return er.Err.Error()
}

func (er *SpqrError) Unwrap() error {
	return er.Err
}

// Is reports whether target is a SpqrError carrying the same code.
func (er *SpqrError) Is(target error) bool {
	t, ok := target.(*SpqrError)
	if !ok {
		return false
	}
	return t.ErrorCode == er.ErrorCode
}

// HasCode reports whether err or any error it wraps is a SpqrError with the given code.
func HasCode(err error, code string) bool {
	return errors.Is(err, &SpqrError{ErrorCode: code})
}
