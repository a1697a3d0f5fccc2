package ingest

import (
	"errors"

	"github.com/artefactual-labs/scope-services/datastore"
	"github.com/artefactual-labs/scope-services/models/archive"
	"github.com/artefactual-labs/scope-services/models/common"
	"github.com/artefactual-labs/scope-services/models/service"
	"github.com/artefactual-labs/scope-services/network"
	"github.com/artefactual-labs/scope-services/search"
)

// Runnable is the interface for import operations handed to workers.
type Runnable interface {
	Run() []*service.ProcessingError
	DIPID() uint
}

// Base is the base type for operations in the ingest namespace.
type Base struct {
	Context *common.Context
	Store   *datastore.Store
	dipID   uint
}

// DIPID returns the id of the DIP being imported. This satisfies part
// of the Runnable interface.
func (b *Base) DIPID() uint {
	return b.dipID
}

// Error returns a ProcessingError describing something that went
// wrong during the import of this DIP. Param identifier can be a
// package UUID, a file UUID, or empty when the error isn't tied to
// one record.
func (b *Base) Error(identifier string, err error, isFatal bool) *service.ProcessingError {
	return service.NewProcessingError(
		b.dipID,
		identifier,
		err.Error(),
		isFatal,
	)
}

// ClassifyError wraps err in a ProcessingError, deciding whether it
// is fatal. Problems with the METS content, validation failures and
// configuration errors read the same on every attempt; connection
// problems and server-side errors are worth retrying.
func (b *Base) ClassifyError(identifier string, err error) *service.ProcessingError {
	return b.Error(identifier, err, !isTransient(err))
}

func isTransient(err error) bool {
	var metsErr *METSError
	if errors.As(err, &metsErr) {
		return false
	}
	var valErr *archive.ValidationError
	if errors.As(err, &valErr) {
		return false
	}
	var procErr *common.Error
	if errors.As(err, &procErr) {
		return !procErr.IsFatal
	}
	var httpErr *network.HttpError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == 429 || httpErr.StatusCode >= 500
	}
	// Anything unrecognized, database errors included, reads the same
	// on every attempt: the store is a local sqlite file, not a
	// service that can come back.
	return search.IsTransient(err)
}
