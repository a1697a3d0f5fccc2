package service

import (
	"encoding/json"
	"os"
	"strings"
	"sync"
	"time"
)

// ImportResult records the outcome of one unit of asynchronous work:
// a DIP import attempt or a search-index fan-out. Results live in
// Redis between attempts so that a requeued task knows how many times
// it has run and what went wrong before.
type ImportResult struct {
	// Attempt is the number of the attempt to do this work.
	Attempt int `json:"attempt"`

	// Operation is the NSQ topic name of the operation: dip_import,
	// search_update_descendants, etc.
	Operation string `json:"operation"`

	// Host is the name of the network host on which the worker is running.
	Host string `json:"host"`

	// Pid is the pid of the worker doing this work.
	Pid int `json:"pid"`

	// StartedAt describes when this attempt started. If
	// StartedAt.IsZero(), the work has not yet been attempted.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt describes when this attempt completed. Note that the
	// attempt may have completed without succeeding. Check the
	// Succeeded() method to see if the work actually succeeded.
	FinishedAt time.Time `json:"finished_at"`

	// Errors is a list of ProcessingError objects describing things
	// that went wrong during the operation. Don't write to this. It's
	// public so we can serialize it to/from JSON, but access is locked
	// internally with a mutex.
	Errors []*ProcessingError `json:"errors"`

	mutex *sync.RWMutex
}

func NewImportResult(operation string) *ImportResult {
	hostname, _ := os.Hostname()
	return &ImportResult{
		Operation: operation,
		Host:      hostname,
		Pid:       os.Getpid(),
		Errors:    make([]*ProcessingError, 0),
		mutex:     &sync.RWMutex{},
	}
}

func (result *ImportResult) Start() {
	result.StartedAt = time.Now().UTC()
}

func (result *ImportResult) Started() bool {
	return !result.StartedAt.IsZero()
}

func (result *ImportResult) Finish() {
	result.FinishedAt = time.Now().UTC()
}

func (result *ImportResult) Finished() bool {
	return !result.FinishedAt.IsZero()
}

func (result *ImportResult) RunTime() time.Duration {
	startTime := result.StartedAt
	if startTime.IsZero() {
		return time.Duration(0)
	}
	endTime := result.FinishedAt
	if endTime.IsZero() {
		endTime = time.Now()
	}
	return endTime.Sub(startTime)
}

func (result *ImportResult) Succeeded() bool {
	result.mutex.RLock()
	succeeded := result.Finished() && len(result.Errors) == 0
	result.mutex.RUnlock()
	return succeeded
}

// AddError adds a ProcessingError to the result. The total number of
// errors is capped at 30, unless the error being added is fatal. The
// cap exists because a network problem will often produce the same
// non-fatal error over and over, and we don't need to serialize
// hundreds of copies of it to JSON. Fatal errors are always added;
// processing stops on the first one, so there will rarely be more
// than one.
func (result *ImportResult) AddError(err *ProcessingError) {
	if len(result.Errors) > 29 && !err.IsFatal {
		return
	}
	result.mutex.Lock()
	result.Errors = append(result.Errors, err)
	result.mutex.Unlock()
}

func (result *ImportResult) ClearErrors() {
	result.mutex.Lock()
	result.Errors = nil
	result.Errors = make([]*ProcessingError, 0)
	result.mutex.Unlock()
}

// Reset clears everything but the attempt number and the operation name.
func (result *ImportResult) Reset() {
	result.Host = ""
	result.Pid = 0
	result.StartedAt = time.Time{}
	result.FinishedAt = time.Time{}
	result.ClearErrors()
}

// HasErrors returns true if this result has any errors, fatal or not.
func (result *ImportResult) HasErrors() bool {
	result.mutex.RLock()
	hasErrors := len(result.Errors) > 0
	result.mutex.RUnlock()
	return hasErrors
}

// FatalErrors returns a list of all of this result's fatal errors.
func (result *ImportResult) FatalErrors() (errors []*ProcessingError) {
	result.mutex.RLock()
	for _, err := range result.Errors {
		if err.IsFatal {
			errors = append(errors, err)
		}
	}
	result.mutex.RUnlock()
	return errors
}

// HasFatalErrors returns true if this result has any fatal errors.
func (result *ImportResult) HasFatalErrors() bool {
	return len(result.FatalErrors()) > 0
}

// FatalErrorMessage returns all fatal error messages as a single
// pipe-delimited string.
func (result *ImportResult) FatalErrorMessage() string {
	errors := result.FatalErrors()
	messages := make([]string, len(errors))
	for i, err := range errors {
		messages[i] = err.Message
	}
	return strings.Join(messages[:], " | ")
}

// FailureMessage returns the message describing why this work failed
// for good: the fatal error messages when there are any, otherwise
// the non-fatal messages that exhausted the attempts. This is what
// lands in DIP.ImportError for display to privileged users.
func (result *ImportResult) FailureMessage() string {
	if result.HasFatalErrors() {
		return result.FatalErrorMessage()
	}
	return result.NonFatalErrorMessage()
}

// NonFatalErrorMessage returns all non-fatal error messages as a
// single pipe-delimited string.
func (result *ImportResult) NonFatalErrorMessage() string {
	messages := make([]string, 0)
	result.mutex.RLock()
	for _, err := range result.Errors {
		if !err.IsFatal {
			messages = append(messages, err.Message)
		}
	}
	result.mutex.RUnlock()
	return strings.Join(messages, " | ")
}

// ImportResultFromJSON converts the JSON representation of an
// ImportResult into a full-fledged object. Note that this involves not
// only deserializing the JSON, but also initializing an internal
// mutex. If you deserialize without this function, you'll eventually
// run into nil pointer exceptions because the mutex won't exist.
func ImportResultFromJSON(jsonData string) (*ImportResult, error) {
	result := &ImportResult{}
	err := json.Unmarshal([]byte(jsonData), result)
	if err != nil {
		return nil, err
	}
	result.mutex = &sync.RWMutex{}
	return result, nil
}

func (result *ImportResult) ToJSON() (string, error) {
	bytes, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}
