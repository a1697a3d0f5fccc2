package service

import (
	"fmt"
	"runtime"
)

type ProcessingError struct {
	DIPID      uint   `json:"dip_id"`
	Identifier string `json:"identifier"`
	IsFatal    bool   `json:"is_fatal"`
	Message    string `json:"message"`
	Source     string `json:"source"`
}

// NewProcessingError returns a new ProcessingError. Param dipID is the
// ID of the DIP being imported when the error occurred. Param
// identifier can be a package UUID, a file UUID, or an event UUID.
// Param isFatal describes whether the error is fatal. Fatal errors are
// those which will prevent a worker from succeeding when it tries to
// reprocess an item: a malformed METS file will still be malformed the
// next time we look at it. Network errors are transient and are likely
// to succeed on future tries, so they are not fatal until the worker
// exhausts its attempts.
func NewProcessingError(dipID uint, identifier, message string, isFatal bool) *ProcessingError {
	_, filename, line, ok := runtime.Caller(1)
	source := "unknown:0"
	if ok {
		source = fmt.Sprintf("%s:%d", filename, line)
	}
	return &ProcessingError{
		DIPID:      dipID,
		Identifier: identifier,
		IsFatal:    isFatal,
		Message:    message,
		Source:     source,
	}
}

func (e *ProcessingError) Error() string {
	severity := "non-fatal"
	if e.IsFatal {
		severity = "fatal"
	}
	return fmt.Sprintf("(dip %d) (message: %s) (severity: %s) "+
		"(identifier: %s) (source: %s)", e.DIPID, e.Message,
		severity, e.Identifier, e.Source)
}
