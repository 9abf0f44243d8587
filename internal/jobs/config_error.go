package jobs

import (
	"errors"
	"fmt"

	"dwdcdc/internal/constants"
)

// ErrRunInProgress is returned when another sync run holds the engine
var ErrRunInProgress = errors.New("a sync run is already in progress")

// ConfigError aborts an invocation before any network call
type ConfigError struct {
	Code    string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsConfigError reports whether err is a ConfigError
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func configErr(code string, detail string) *ConfigError {
	msg := constants.GetErrorMessage(code)
	if detail != "" {
		msg += ": " + detail
	}
	return &ConfigError{Code: code, Message: msg}
}
