package workers_test

import (
	"testing"
	"time"

	"github.com/artefactual-labs/scope-services/constants"
	"github.com/artefactual-labs/scope-services/workers"
	"github.com/stretchr/testify/assert"
)

func TestToJSON(t *testing.T) {
	settings := &workers.Settings{
		ChannelBufferSize: 20,
		MaxAttempts:       3,
		NSQChannel:        constants.TopicDIPImport + "_worker_chan",
		NSQTopic:          constants.TopicDIPImport,
		NumberOfWorkers:   2,
		RequeueTimeout:    (1 * time.Minute),
	}
	assert.Equal(t, expectedJSON, settings.ToJSON())
}

var expectedJSON = `{"ChannelBufferSize":20,"MaxAttempts":3,"NSQChannel":"dip_import_worker_chan","NSQTopic":"dip_import","NumberOfWorkers":2,"RequeueTimeout":60000000000}`
