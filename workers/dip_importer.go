package workers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/artefactual-labs/scope-services/constants"
	"github.com/artefactual-labs/scope-services/datastore"
	"github.com/artefactual-labs/scope-services/ingest"
	"github.com/artefactual-labs/scope-services/models/common"
	"github.com/artefactual-labs/scope-services/models/service"
	"github.com/artefactual-labs/scope-services/network"
	"github.com/artefactual-labs/scope-services/search"
	"github.com/nsqio/go-nsq"
)

// DIPImporter is the worker behind the dip_import topic. Each message
// carries the id of a DIP to import. When an import fails for good,
// the worker marks the DIP as failed and records the error on it, so
// editors can see what happened.
type DIPImporter struct {
	*Base
}

// NewDIPImporter creates a new DIPImporter worker. The worker starts
// handling NSQ messages as soon as it's instantiated.
func NewDIPImporter(bufSize, numWorkers, maxAttempts int) *DIPImporter {
	ctx := common.NewContext()
	settings := &Settings{
		ChannelBufferSize: bufSize,
		MaxAttempts:       maxAttempts,
		NSQChannel:        constants.TopicDIPImport + "_worker_chan",
		NSQTopic:          constants.TopicDIPImport,
		NumberOfWorkers:   numWorkers,
		RequeueTimeout:    ctx.Config.RequeueTimeout,
	}
	worker := &DIPImporter{
		Base: NewBase(ctx, newStore(ctx), settings),
	}
	worker.Base.MakeTask = worker.makeTask
	worker.Base.OnFatal = worker.markImportFailed

	err := worker.Base.RegisterAsNsqConsumer()
	if err != nil {
		panic(fmt.Sprintf("Cannot register NSQ consumer: %v", err))
	}
	return worker
}

func (worker *DIPImporter) makeTask(message *nsq.Message) (*Task, *service.ProcessingError) {
	msgBody := strings.TrimSpace(string(message.Body))
	worker.Context.Logger.Info("NSQ Message body: ", msgBody)
	dipID, err := strconv.ParseUint(msgBody, 10, 32)
	if err != nil || dipID == 0 {
		fullErr := fmt.Errorf("Could not get DIP id from NSQ message body: %v", err)
		return nil, service.NewProcessingError(0, msgBody, fullErr.Error(), true)
	}
	key := network.WorkKeyForDIP(uint(dipID))
	return &Task{
		Key:        key,
		NSQMessage: message,
		Processor:  ingest.NewDIPImporter(worker.Context, worker.Store, uint(dipID)),
		Result:     worker.GetImportResult(key),
	}, nil
}

// markImportFailed is the compensating handler: whatever stage the
// import died in, the DIP ends up marked as failed with the error
// recorded on it.
func (worker *DIPImporter) markImportFailed(task *Task) {
	runnable, ok := task.Processor.(ingest.Runnable)
	if !ok {
		return
	}
	dip, err := worker.Store.GetDIP(runnable.DIPID())
	if err != nil || dip == nil {
		worker.Context.Logger.Errorf(
			"Could not mark DIP %d as failed: %v", runnable.DIPID(), err)
		return
	}
	dip.ImportStatus = constants.ImportFailure
	dip.ImportError = task.Result.FailureMessage()
	if err = worker.Store.SaveDIP(context.Background(), dip); err != nil {
		worker.Context.Logger.Errorf(
			"Could not mark DIP %d as failed: %v", dip.ID, err)
	}
}

func newStore(ctx *common.Context) *datastore.Store {
	return datastore.NewStore(
		ctx.DB,
		search.NewClient(ctx.ESClient, ctx.Logger),
		ctx.NSQClient,
		ctx.Logger)
}
