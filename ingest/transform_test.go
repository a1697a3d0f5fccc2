package ingest_test

import (
	"testing"
	"time"

	"github.com/artefactual-labs/scope-services/ingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertSize(t *testing.T) {
	cases := []struct {
		size     int64
		expected string
	}{
		{5, "5 bytes"},
		{1023, "1023 bytes"},
		{1024, "1 KB"},
		{343623, "336 KB"},
		{2620, "3 KB"},
		{2560, "2 KB"},
		{2947251846, "3 GB"},
		{2199023255552, "2 TB"},
	}
	for _, tc := range cases {
		actual, err := ingest.ConvertSize(tc.size)
		require.Nil(t, err)
		assert.Equal(t, tc.expected, actual, "size %d", tc.size)
	}
}

func TestConvertSizeRejectsNonPositive(t *testing.T) {
	_, err := ingest.ConvertSize(0)
	assert.NotNil(t, err)
	_, err = ingest.ConvertSize(-100)
	assert.NotNil(t, err)
}

func TestTransformFile(t *testing.T) {
	rec := &ingest.FileRecord{
		AmdSec:        "amdSec_1",
		UUID:          "07263cdf-d11f-4d24-9e16-ef46f002d037",
		FilePath:      "%transferDirectory%objects/bird.sounds.doc",
		HashType:      "sha256",
		HashValue:     "d9fc1872b9a56c4ea7a198dffff9f78b715f07bbfd654e51e15da4e6ae2b310b",
		SizeBytes:     "2947251846",
		FileFormat:    "Microsoft Word Binary File Format",
		FormatVersion: "97-2003",
		PUID:          "fmt/40",
		DateModified:  "1518098457000",
	}
	file, err := ingest.TransformFile(rec)
	require.Nil(t, err)
	assert.Equal(t, "07263cdf-d11f-4d24-9e16-ef46f002d037", file.UUID)
	assert.Equal(t, "objects/bird.sounds.doc", file.FilePath)
	assert.Equal(t, int64(2947251846), file.SizeBytes)
	assert.Equal(t, "3 GB", file.SizeHuman)
	assert.Equal(t, "amdSec_1", file.AmdSec)
	require.NotNil(t, file.DateModified)
	assert.Equal(t, time.Date(2018, 2, 8, 20, 0, 57, 0, time.UTC), *file.DateModified)
}

func TestTransformFileZeroSize(t *testing.T) {
	rec := &ingest.FileRecord{
		UUID:      "07263cdf-d11f-4d24-9e16-ef46f002d037",
		FilePath:  "objects/empty.txt",
		SizeBytes: "0",
	}
	file, err := ingest.TransformFile(rec)
	require.Nil(t, err)
	assert.Equal(t, int64(0), file.SizeBytes)
	assert.Equal(t, "0 bytes", file.SizeHuman)
}

func TestTransformFileBadSize(t *testing.T) {
	rec := &ingest.FileRecord{
		UUID:      "07263cdf-d11f-4d24-9e16-ef46f002d037",
		SizeBytes: "big",
	}
	_, err := ingest.TransformFile(rec)
	assert.NotNil(t, err)
}

func TestTransformFileBadTimestamp(t *testing.T) {
	rec := &ingest.FileRecord{
		UUID:         "07263cdf-d11f-4d24-9e16-ef46f002d037",
		SizeBytes:    "10",
		DateModified: "not-a-timestamp",
	}
	file, err := ingest.TransformFile(rec)
	require.Nil(t, err)
	assert.Nil(t, file.DateModified)
}
