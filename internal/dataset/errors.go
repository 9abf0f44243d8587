package dataset

import (
	"fmt"
	"strings"

	"dwdcdc/internal/constants"
)

// MalformedRowError is returned when a raw row does not match its descriptor
type MalformedRowError struct {
	File   string
	Line   int
	Row    []string
	Reason string
	Err    error
}

func (e *MalformedRowError) Error() string {
	loc := e.File
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.File, e.Line)
	}
	msg := fmt.Sprintf("%s: %s: %s", constants.ErrCodeMalformedRow, loc, e.Reason)
	if len(e.Row) > 0 {
		msg += fmt.Sprintf(" [%s]", strings.Join(e.Row, ";"))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedRowError) Unwrap() error {
	return e.Err
}
