package ingest

import (
	"context"
	"fmt"
	"os"

	"github.com/artefactual-labs/scope-services/constants"
	"github.com/artefactual-labs/scope-services/datastore"
	"github.com/artefactual-labs/scope-services/models/archive"
	"github.com/artefactual-labs/scope-services/models/common"
	"github.com/artefactual-labs/scope-services/models/service"
)

// DIPImporter runs the whole import of one DIP: it gets the METS
// file, parses it into the database and the search indexes, and marks
// the DIP as successfully imported. The METS comes from the Storage
// Service when the DIP was registered by webhook, or out of the
// uploaded package otherwise. The failure side lives in the worker:
// when every attempt is spent, the DIP is marked as failed there.
type DIPImporter struct {
	Base
}

func NewDIPImporter(ctx *common.Context, store *datastore.Store, dipID uint) *DIPImporter {
	return &DIPImporter{
		Base: Base{
			Context: ctx,
			Store:   store,
			dipID:   dipID,
		},
	}
}

func (importer *DIPImporter) Run() []*service.ProcessingError {
	ctx := context.Background()
	dip, err := importer.Store.GetDIP(importer.dipID)
	if err != nil {
		return []*service.ProcessingError{importer.ClassifyError("", err)}
	}
	if dip == nil {
		return []*service.ProcessingError{importer.Error("",
			fmt.Errorf("DIP not found [id: %d]", importer.dipID), true)}
	}

	metsPath, procErr := importer.acquireMETS(ctx, dip)
	if procErr != nil {
		return []*service.ProcessingError{procErr}
	}
	// Remove the METS file on error too.
	defer os.Remove(metsPath)

	reader, err := OpenMETS(metsPath)
	if err != nil {
		return []*service.ProcessingError{importer.Error(dip.SSUUID, err, true)}
	}
	parser := NewMETSParser(importer.Store, reader, dip)
	if err = parser.ParseMETS(ctx); err != nil {
		return []*service.ProcessingError{importer.ClassifyError(dip.SSUUID, err)}
	}

	dip.ImportStatus = constants.ImportSuccess
	dip.ImportError = ""
	if err = importer.Store.SaveDIP(ctx, dip); err != nil {
		return []*service.ProcessingError{importer.ClassifyError(dip.SSUUID, err)}
	}
	importer.Context.Logger.Infof("Imported DIP %d (%s)", dip.ID, dip.String())
	return nil
}

// acquireMETS puts the DIP's METS file on local disk and returns its
// path.
func (importer *DIPImporter) acquireMETS(ctx context.Context, dip *archive.DIP) (string, *service.ProcessingError) {
	workDir := importer.Context.Config.MediaDir
	if dip.SSUUID != "" {
		downloader := NewMETSDownloader(importer.Context, importer.Store, workDir)
		metsPath, err := downloader.DownloadMETS(dip)
		if err != nil {
			return "", importer.ClassifyError(dip.SSUUID, err)
		}
		return metsPath, nil
	}

	fetcher := NewPackageFetcher(
		importer.Context.S3Client,
		importer.Context.Config.UploadsBucket,
		workDir,
		importer.Context.Logger)
	packagePath, owned, err := fetcher.Fetch(ctx, dip.ObjectsPath)
	if err != nil {
		return "", importer.ClassifyError("", err)
	}
	if owned {
		defer os.Remove(packagePath)
	}
	metsPath, err := ExtractMETS(packagePath, workDir)
	if err != nil {
		return "", importer.ClassifyError("", err)
	}
	return metsPath, nil
}
