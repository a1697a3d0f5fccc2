package workers

import (
	"fmt"
	"os"
	"time"

	"github.com/artefactual-labs/scope-services/datastore"
	"github.com/artefactual-labs/scope-services/models/common"
	"github.com/artefactual-labs/scope-services/models/service"
	"github.com/nsqio/go-nsq"
)

// ServiceWorker defines the primary interface for service workers.
type ServiceWorker interface {
	RegisterAsNsqConsumer() error
	HandleMessage(*nsq.Message) error
}

// Base contains the fundamental structures common to all workers:
// the NSQ consumer and the channel plumbing that routes every task
// through processing and into exactly one of the success, error, or
// fatal-error handlers. Transient failures are requeued with a delay
// until MaxAttempts is spent, then treated as fatal.
type Base struct {

	// Context contains connections to NSQ, Redis, the database, the
	// search index, and the Storage Service hosts.
	Context *common.Context

	// Store keeps the database and the search indexes in sync.
	Store *datastore.Store

	// ProcessChannel is where the work actually happens.
	ProcessChannel chan *Task

	// SuccessChannel processes items that have gone through the
	// ProcessChannel with no errors.
	SuccessChannel chan *Task

	// ErrorChannel processes items that have gone through the
	// ProcessChannel with one or more non-fatal errors. These items
	// typically should be retried.
	ErrorChannel chan *Task

	// FatalErrorChannel processes items that have gone through the
	// ProcessChannel with one or more fatal errors. These items
	// are never retried.
	FatalErrorChannel chan *Task

	// Settings contains this worker's topic, channel, attempt and
	// requeue settings.
	Settings *Settings

	// MakeTask builds a Task from an incoming NSQ message. It MUST
	// be implemented in structs that derive from Base.
	MakeTask func(*nsq.Message) (*Task, *service.ProcessingError)

	// OnFatal runs exactly once when a task fails for good, either
	// from a fatal error or from spending its attempts. Optional.
	OnFatal func(*Task)

	// NSQConsumer implements HandleMessage to receive messages from NSQ.
	NSQConsumer *nsq.Consumer
}

// NewBase creates the channel plumbing and starts the goroutines
// that service it. The worker does nothing until it's registered as
// an NSQ consumer.
func NewBase(context *common.Context, store *datastore.Store, settings *Settings) *Base {
	base := &Base{
		Context:           context,
		Store:             store,
		Settings:          settings,
		ProcessChannel:    make(chan *Task, settings.ChannelBufferSize),
		SuccessChannel:    make(chan *Task, settings.ChannelBufferSize),
		ErrorChannel:      make(chan *Task, settings.ChannelBufferSize),
		FatalErrorChannel: make(chan *Task, settings.ChannelBufferSize),
	}
	for i := 0; i < settings.NumberOfWorkers; i++ {
		go base.ProcessItem()
	}
	go base.ProcessSuccessChannel()
	go base.ProcessErrorChannel()
	go base.ProcessFatalErrorChannel()
	return base
}

// RegisterAsNsqConsumer registers this worker as an NSQ consumer on
// Settings.NSQTopic and Settings.NSQChannel. Note that as soon as you
// call this, your worker will start handling messages if any are
// available.
func (b *Base) RegisterAsNsqConsumer() error {
	config := nsq.NewConfig()
	config.Set("heartbeat_interval", "10s")
	config.Set("max_in_flight", b.Settings.ChannelBufferSize)
	config.Set("max_attempts", b.Settings.MaxAttempts)
	consumer, err := nsq.NewConsumer(b.Settings.NSQTopic, b.Settings.NSQChannel, config)
	if err != nil {
		return err
	}
	b.NSQConsumer = consumer
	b.NSQConsumer.AddHandler(b)
	err = b.NSQConsumer.ConnectToNSQLookupd(b.Context.Config.NsqLookupd)
	if err != nil {
		return err
	}
	b.Context.Logger.Info("Registered as NSQ consumer")
	return nil
}

// HandleMessage builds the Task for an incoming message and puts it
// into the ProcessChannel.
func (b *Base) HandleMessage(message *nsq.Message) error {
	task, procErr := b.MakeTask(message)
	if procErr != nil {
		b.Context.Logger.Error(procErr.Error())
		if procErr.IsFatal {
			// A message that can never be processed is done.
			return nil
		}
		return fmt.Errorf(procErr.Message)
	}

	b.MarkAsStarted(task)
	b.ProcessChannel <- task

	// Return nil (no error) so NSQ knows we're working on this.
	return nil
}

// ProcessItem runs a task's Processor and routes the task to the
// SuccessChannel, the ErrorChannel, or the FatalErrorChannel,
// depending on the outcome.
func (b *Base) ProcessItem() {
	for task := range b.ProcessChannel {
		errors := task.Processor.Run()
		for _, err := range errors {
			task.Result.AddError(err)
		}
		if task.Result.HasFatalErrors() {
			b.FatalErrorChannel <- task
		} else if task.Result.HasErrors() {
			b.ErrorChannel <- task
		} else {
			b.SuccessChannel <- task
		}
	}
}

func (b *Base) ProcessSuccessChannel() {
	for task := range b.SuccessChannel {
		b.Context.Logger.Infof("Task %s (%s) succeeded on attempt %d",
			task.Key, b.Settings.NSQTopic, task.Result.Attempt)
		task.Result.Finish()
		// Processing is done, don't leave orphan records in Redis.
		b.DeleteImportResult(task)
		task.NSQFinish()
	}
}

func (b *Base) ProcessErrorChannel() {
	for task := range b.ErrorChannel {
		if task.Result.Attempt >= b.Settings.MaxAttempts {
			b.Context.Logger.Errorf(
				"Task %s (%s) failed on attempt %d of %d, giving up: %s",
				task.Key, b.Settings.NSQTopic, task.Result.Attempt,
				b.Settings.MaxAttempts, task.Result.NonFatalErrorMessage())
			b.FatalErrorChannel <- task
			continue
		}
		b.Context.Logger.Warningf(
			"Task %s (%s) failed on attempt %d of %d, will retry: %s",
			task.Key, b.Settings.NSQTopic, task.Result.Attempt,
			b.Settings.MaxAttempts, task.Result.NonFatalErrorMessage())
		task.Result.Finish()
		b.SaveImportResult(task)
		task.NSQRequeue(b.Settings.RequeueTimeout)
	}
}

func (b *Base) ProcessFatalErrorChannel() {
	for task := range b.FatalErrorChannel {
		b.Context.Logger.Errorf("Task %s (%s) failed for good: %s",
			task.Key, b.Settings.NSQTopic, task.Result.FatalErrorMessage())
		task.Result.Finish()
		b.SaveImportResult(task)
		if b.OnFatal != nil {
			b.OnFatal(task)
		}
		task.NSQFinish()
	}
}

// MarkAsStarted records in Redis that work on this task started, and
// tells NSQ we're working on it.
func (b *Base) MarkAsStarted(task *Task) {
	task.Result.Reset()
	task.Result.Attempt = int(task.NSQMessage.Attempts)
	task.Result.Start()
	task.Result.Host, _ = os.Hostname()
	task.Result.Pid = os.Getpid()
	b.SaveImportResult(task)
	task.NSQStart()
}

// GetImportResult returns the ImportResult for the given Redis key.
// If one already exists in Redis, it returns that. If not, it creates
// a new one.
func (b *Base) GetImportResult(key string) *service.ImportResult {
	result, err := b.Context.RedisClient.ImportResultGet(key, b.Settings.NSQTopic)
	if err != nil {
		b.Context.Logger.Infof(
			"No ImportResult in Redis for %s. No problem. Creating a new one.", key)
		result = service.NewImportResult(b.Settings.NSQTopic)
	}
	return result
}

// SaveImportResult saves a task's result to Redis and logs an error
// if any occurs. Will try three times, in case Redis is busy.
func (b *Base) SaveImportResult(task *Task) {
	if task.Key == "" {
		return
	}
	for i := 0; i < 3; i++ {
		err := b.Context.RedisClient.ImportResultSave(task.Key, task.Result)
		if err == nil {
			return
		}
		if i == 2 {
			b.Context.Logger.Errorf("Error saving ImportResult for %s: %v", task.Key, err)
			return
		}
		time.Sleep(time.Duration(250) * time.Millisecond)
	}
}

func (b *Base) DeleteImportResult(task *Task) {
	if task.Key == "" {
		return
	}
	if err := b.Context.RedisClient.ImportResultDelete(task.Key); err != nil {
		b.Context.Logger.Errorf("Error deleting ImportResult for %s: %v", task.Key, err)
	}
}
