package ingest

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/artefactual-labs/scope-services/util"
	"github.com/minio/minio-go/v7"
	"github.com/op/go-logging"
)

// PackageFetcher makes an uploaded DIP package available on local
// disk. A DIP's ObjectsPath is either a path already on this host or
// a key in the uploads bucket. Fetched packages land in workDir and
// the caller removes them when done; packages already on disk are
// used in place and never removed.
type PackageFetcher struct {
	s3Client *minio.Client
	bucket   string
	workDir  string
	logger   *logging.Logger
}

func NewPackageFetcher(s3Client *minio.Client, bucket, workDir string, logger *logging.Logger) *PackageFetcher {
	return &PackageFetcher{
		s3Client: s3Client,
		bucket:   bucket,
		workDir:  workDir,
		logger:   logger,
	}
}

// Fetch returns a local path to the package and whether the caller
// owns (and should delete) the file.
func (fetcher *PackageFetcher) Fetch(ctx context.Context, objectsPath string) (string, bool, error) {
	if util.FileExists(objectsPath) {
		return objectsPath, false, nil
	}
	localPath := filepath.Join(fetcher.workDir, filepath.Base(objectsPath))
	err := fetcher.s3Client.FGetObject(ctx, fetcher.bucket, objectsPath, localPath, minio.GetObjectOptions{})
	if err != nil {
		return "", false, fmt.Errorf("Could not fetch package %s from bucket %s: %v",
			objectsPath, fetcher.bucket, err)
	}
	fetcher.logger.Infof("Fetched %s from bucket %s to %s", objectsPath, fetcher.bucket, localPath)
	return localPath, true, nil
}
