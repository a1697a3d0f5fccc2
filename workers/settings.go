package workers

import (
	"encoding/json"
	"time"
)

// Settings contains settings for an import worker.
type Settings struct {
	// ChannelBufferSize is the size of the buffer for the
	// ProcessChannel, SuccessChannel, ErrorChannel,
	// and FatalErrorChannel.
	ChannelBufferSize int

	// MaxAttempts is the maximum number of times the worker should
	// attempt its work before giving up. Note that this applies
	// only to attempts that fail from non-fatal (transient) errors.
	// Workers automatically stop trying after fatal errors.
	MaxAttempts int

	// NSQChannel is the NSQ channel the worker should subscribe
	// to to receive messages.
	NSQChannel string

	// NSQTopic is the NSQ topic the worker should subscribe
	// to to receive messages.
	NSQTopic string

	// NumberOfWorkers is the number of go routines to spin up
	// to handle the main task of the worker.
	NumberOfWorkers int

	// RequeueTimeout describes how long of a timeout to set
	// on the NSQ requeue after an item fails with non-fatal
	// errors.
	RequeueTimeout time.Duration
}

func (settings *Settings) ToJSON() string {
	data, _ := json.Marshal(settings)
	return string(data)
}
