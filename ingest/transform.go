package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/artefactual-labs/scope-services/constants"
	"github.com/artefactual-labs/scope-services/models/archive"
)

var sizeUnits = []string{"bytes", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// ConvertSize turns a byte count into a short human-readable label
// using base 2 units. The value is rounded half to even, so 2.5 KB
// reads as "2 KB" and 3.5 KB as "4 KB".
func ConvertSize(size int64) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("Can not convert size: %d", size)
	}
	exp := int(math.Floor(math.Log(float64(size)) / math.Log(1024)))
	if exp >= len(sizeUnits) {
		exp = len(sizeUnits) - 1
	}
	pow := math.Pow(1024, float64(exp))
	value := math.RoundToEven(float64(size) / pow)
	return fmt.Sprintf("%d %s", int64(value), sizeUnits[exp]), nil
}

// TransformFile turns the raw strings read from the METS techMD into
// a DigitalFile. The caller assigns the owning DIP.
func TransformFile(rec *FileRecord) (*archive.DigitalFile, error) {
	sizeBytes, err := strconv.ParseInt(rec.SizeBytes, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("Invalid size for file %s: %q", rec.UUID, rec.SizeBytes)
	}
	sizeHuman := "0 bytes"
	if sizeBytes != 0 {
		sizeHuman, err = ConvertSize(sizeBytes)
		if err != nil {
			return nil, err
		}
	}
	return &archive.DigitalFile{
		UUID:          rec.UUID,
		FilePath:      strings.ReplaceAll(rec.FilePath, constants.TransferDirPrefix, ""),
		FileFormat:    rec.FileFormat,
		FormatVersion: rec.FormatVersion,
		SizeBytes:     sizeBytes,
		SizeHuman:     sizeHuman,
		DateModified:  parseEpochMillis(rec.DateModified),
		PUID:          rec.PUID,
		AmdSec:        rec.AmdSec,
		HashType:      rec.HashType,
		HashValue:     rec.HashValue,
	}, nil
}

// parseEpochMillis converts the FITS fslastmodified value, an epoch
// timestamp in milliseconds, to UTC. A value that doesn't parse is
// dropped rather than failing the file.
func parseEpochMillis(value string) *time.Time {
	millis, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil
	}
	t := time.Unix(millis/1000, (millis%1000)*int64(time.Millisecond)).UTC()
	return &t
}
