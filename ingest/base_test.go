package ingest_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/artefactual-labs/scope-services/ingest"
	"github.com/artefactual-labs/scope-services/models/archive"
	"github.com/artefactual-labs/scope-services/models/common"
	"github.com/artefactual-labs/scope-services/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	base := &ingest.Base{}

	// Server-side and throttling responses are worth retrying.
	procErr := base.ClassifyError("", network.NewHttpError(
		"service unavailable", nil, "GET", "http://ss.example.com", 503))
	assert.False(t, procErr.IsFatal)
	procErr = base.ClassifyError("", network.NewHttpError(
		"slow down", nil, "GET", "http://ss.example.com", 429))
	assert.False(t, procErr.IsFatal)

	// Client-side responses read the same on every attempt.
	procErr = base.ClassifyError("", network.NewHttpError(
		"not found", nil, "GET", "http://ss.example.com", 404))
	assert.True(t, procErr.IsFatal)

	procErr = base.ClassifyError("", common.NewError("bad config", nil, true))
	assert.True(t, procErr.IsFatal)
	procErr = base.ClassifyError("", common.NewError("busy", errors.New("busy"), false))
	assert.False(t, procErr.IsFatal)

	valErr := archive.NewValidationError("DigitalFile")
	valErr.Add("uuid", "This field cannot be blank.")
	procErr = base.ClassifyError("", valErr)
	assert.True(t, procErr.IsFatal)

	procErr = base.ClassifyError("", errors.New("something unexpected"))
	assert.True(t, procErr.IsFatal)
}

func TestClassifyErrorMETS(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dip.rar")
	require.Nil(t, os.WriteFile(path, []byte("Rar!"), 0644))
	_, err := ingest.ExtractMETS(path, dir)
	require.NotNil(t, err)

	base := &ingest.Base{}
	procErr := base.ClassifyError("", err)
	assert.True(t, procErr.IsFatal)
}
