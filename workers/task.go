package workers

import (
	"time"

	"github.com/artefactual-labs/scope-services/models/service"
	"github.com/nsqio/go-nsq"
)

// Processor does the actual work of one task. ingest.Runnable
// satisfies this, and the fan-out workers supply their own.
type Processor interface {
	Run() []*service.ProcessingError
}

// Task encapsulates everything that a worker will need to pass from
// one channel to the next during processing.
type Task struct {
	// Key identifies the Redis record tracking this task's result.
	// An empty Key means the result is not tracked in Redis.
	Key string

	// NSQMessage is the NSQ message the worker is processing.
	NSQMessage *nsq.Message

	// Processor handles whatever phase of the import this worker is
	// responsible for.
	Processor Processor

	// Result describes the result of this worker's work.
	Result *service.ImportResult

	nsqStopChannel chan bool

	// For testing
	nsqStartCalled bool

	// For testing
	tickerStopped bool
}

// NSQStart creates a timer that touches the NSQ message every two
// minutes while the task is in process, so a long METS download or
// parse doesn't time out the message.
func (task *Task) NSQStart() {
	task.NSQMessage.DisableAutoResponse()
	interval := time.Duration(2) * time.Minute
	ticker := time.NewTicker(interval)
	stopChannel := make(chan bool)
	go func() {
		for {
			select {
			case <-ticker.C:
				task.NSQMessage.Touch()
			case <-stopChannel:
				ticker.Stop()
				task.tickerStopped = true
				return
			}
		}
	}()
	task.nsqStartCalled = true
	task.nsqStopChannel = stopChannel
}

// NSQRequeue requeues the message with the specified duration
// and stops sending touches.
func (task *Task) NSQRequeue(delay time.Duration) {
	task.nsqStopChannel <- true
	task.NSQMessage.Requeue(delay)
}

// NSQFinish finishes the message and stops sending touches.
func (task *Task) NSQFinish() {
	task.nsqStopChannel <- true
	task.NSQMessage.Finish()
}

// StartCalled returns true if NSQStart() has been called on this
// object. This method exists for testing purposes.
func (task *Task) StartCalled() bool {
	return task.nsqStartCalled
}

// TickerStopped returns true if either NSQFinish() or NSQRequeue()
// has been called. This method exists for testing purposes.
func (task *Task) TickerStopped() bool {
	return task.tickerStopped
}
