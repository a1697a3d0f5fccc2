package workers

import (
	"context"
	"fmt"
	"strings"

	"github.com/artefactual-labs/scope-services/constants"
	"github.com/artefactual-labs/scope-services/datastore"
	"github.com/artefactual-labs/scope-services/models/common"
	"github.com/artefactual-labs/scope-services/models/service"
	"github.com/artefactual-labs/scope-services/search"
	"github.com/nsqio/go-nsq"
)

// DescendantUpdater is the worker behind the
// search_update_descendants topic. When a Collection or DIP changes,
// it rewrites the denormalized ancestor fields on every DigitalFile
// document underneath it.
type DescendantUpdater struct {
	*Base
}

// NewDescendantUpdater creates a new DescendantUpdater worker. The
// worker starts handling NSQ messages as soon as it's instantiated.
func NewDescendantUpdater(bufSize, numWorkers, maxAttempts int) *DescendantUpdater {
	ctx := common.NewContext()
	settings := &Settings{
		ChannelBufferSize: bufSize,
		MaxAttempts:       maxAttempts,
		NSQChannel:        constants.TopicUpdateDescendants + "_worker_chan",
		NSQTopic:          constants.TopicUpdateDescendants,
		NumberOfWorkers:   numWorkers,
		RequeueTimeout:    ctx.Config.RequeueTimeout,
	}
	worker := &DescendantUpdater{
		Base: NewBase(ctx, newStore(ctx), settings),
	}
	worker.Base.MakeTask = worker.makeTask

	err := worker.Base.RegisterAsNsqConsumer()
	if err != nil {
		panic(fmt.Sprintf("Cannot register NSQ consumer: %v", err))
	}
	return worker
}

func (worker *DescendantUpdater) makeTask(message *nsq.Message) (*Task, *service.ProcessingError) {
	fanout, procErr := parseFanoutMessage(message)
	if procErr != nil {
		return nil, procErr
	}
	return &Task{
		NSQMessage: message,
		Processor: &fanoutProcessor{
			store:  worker.Store,
			task:   fanout,
			update: true,
		},
		Result: service.NewImportResult(worker.Settings.NSQTopic),
	}, nil
}

// fanoutProcessor runs one descendant update or delete against the
// search indexes.
type fanoutProcessor struct {
	store  *datastore.Store
	task   *service.FanoutTask
	update bool
}

func (p *fanoutProcessor) Run() []*service.ProcessingError {
	var err error
	if p.update {
		err = p.store.UpdateDescendants(context.Background(), p.task)
	} else {
		err = p.store.DeleteDescendants(context.Background(), p.task)
	}
	if err != nil {
		return []*service.ProcessingError{service.NewProcessingError(
			p.task.ID, p.task.Class, err.Error(), !search.IsTransient(err))}
	}
	return nil
}

func parseFanoutMessage(message *nsq.Message) (*service.FanoutTask, *service.ProcessingError) {
	msgBody := strings.TrimSpace(string(message.Body))
	fanout, err := service.FanoutTaskFromJSON([]byte(msgBody))
	if err != nil {
		fullErr := fmt.Errorf("Could not parse fan-out task from NSQ message body: %v", err)
		return nil, service.NewProcessingError(0, msgBody, fullErr.Error(), true)
	}
	if err = fanout.Validate(); err != nil {
		return nil, service.NewProcessingError(fanout.ID, fanout.Class, err.Error(), true)
	}
	return fanout, nil
}
