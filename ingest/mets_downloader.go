package ingest

import (
	"fmt"
	"path/filepath"

	"github.com/artefactual-labs/scope-services/datastore"
	"github.com/artefactual-labs/scope-services/models/archive"
	"github.com/artefactual-labs/scope-services/models/common"
	"github.com/artefactual-labs/scope-services/util"
)

// METSDownloader fetches a DIP's METS file straight from the Storage
// Service, without downloading the whole package. The package info
// may list no related AIP yet when the AIP is still being stored, so
// the AIP UUID is taken from the tail of the package's current path
// instead. That holds for now, but may not always be true.
type METSDownloader struct {
	context *common.Context
	store   *datastore.Store
	workDir string
}

func NewMETSDownloader(ctx *common.Context, store *datastore.Store, workDir string) *METSDownloader {
	return &METSDownloader{
		context: ctx,
		store:   store,
		workDir: workDir,
	}
}

// DownloadMETS saves the METS of the DIP's stored package into the
// work directory and returns its path. The DIP's SS directory name
// is recorded along the way; the access app uses it to name bulk
// downloads.
func (downloader *METSDownloader) DownloadMETS(dip *archive.DIP) (string, error) {
	ssClient, err := downloader.context.SSClientFor(dip.SSHostURL)
	if err != nil {
		return "", common.NewError(err.Error(), err, true)
	}
	info, err := ssClient.PackageInfo(dip.SSUUID)
	if err != nil {
		return "", err
	}
	dipDir := filepath.Base(info.CurrentPath)
	aipUUID := util.UUIDSuffix(dipDir)
	dip.SSDirName = dipDir
	if err := downloader.store.UpdateDIPQuiet(dip); err != nil {
		return "", err
	}
	metsPath := filepath.Join(downloader.workDir, fmt.Sprintf("METS.%s.xml", dip.SSUUID))
	relativePath := fmt.Sprintf("%s/METS.%s.xml", dipDir, aipUUID)
	if err := ssClient.DownloadFile(dip.SSUUID, relativePath, metsPath); err != nil {
		return "", err
	}
	return filepath.Abs(metsPath)
}
