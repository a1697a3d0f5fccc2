package workers

import (
	"fmt"

	"github.com/artefactual-labs/scope-services/constants"
	"github.com/artefactual-labs/scope-services/models/common"
	"github.com/artefactual-labs/scope-services/models/service"
	"github.com/nsqio/go-nsq"
)

// DescendantDeleter is the worker behind the
// search_delete_descendants topic. When a Collection or DIP is
// removed, it deletes every search document underneath it. The
// database rows are already gone by the time the message arrives.
type DescendantDeleter struct {
	*Base
}

// NewDescendantDeleter creates a new DescendantDeleter worker. The
// worker starts handling NSQ messages as soon as it's instantiated.
func NewDescendantDeleter(bufSize, numWorkers, maxAttempts int) *DescendantDeleter {
	ctx := common.NewContext()
	settings := &Settings{
		ChannelBufferSize: bufSize,
		MaxAttempts:       maxAttempts,
		NSQChannel:        constants.TopicDeleteDescendants + "_worker_chan",
		NSQTopic:          constants.TopicDeleteDescendants,
		NumberOfWorkers:   numWorkers,
		RequeueTimeout:    ctx.Config.RequeueTimeout,
	}
	worker := &DescendantDeleter{
		Base: NewBase(ctx, newStore(ctx), settings),
	}
	worker.Base.MakeTask = worker.makeTask

	err := worker.Base.RegisterAsNsqConsumer()
	if err != nil {
		panic(fmt.Sprintf("Cannot register NSQ consumer: %v", err))
	}
	return worker
}

func (worker *DescendantDeleter) makeTask(message *nsq.Message) (*Task, *service.ProcessingError) {
	fanout, procErr := parseFanoutMessage(message)
	if procErr != nil {
		return nil, procErr
	}
	return &Task{
		NSQMessage: message,
		Processor: &fanoutProcessor{
			store:  worker.Store,
			task:   fanout,
			update: false,
		},
		Result: service.NewImportResult(worker.Settings.NSQTopic),
	}, nil
}
