package providers

import (
	"errors"
	"fmt"

	"dwdcdc/internal/constants"
)

// TransportError is a listing or download failure against the remote archive.
// No local state has been touched when it is returned.
type TransportError struct {
	Code      string
	Message   string
	Path      string
	Status    int
	Retryable bool
	Err       error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err wraps a TransportError
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func newTransportError(code, path string, status int, err error) *TransportError {
	return &TransportError{
		Code:      code,
		Message:   constants.GetErrorMessage(code),
		Path:      path,
		Status:    status,
		Retryable: code == constants.ErrCodeNetworkError || code == constants.ErrCodeRateLimited || (code == constants.ErrCodeRemoteStatus && status >= 500),
		Err:       err,
	}
}
