package ingest

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
)

var metsNameRE = regexp.MustCompile(`.*METS.[0-9a-f\-]{36}.*$`)

// ExtractMETS pulls the METS file out of a packaged DIP into destDir
// and returns its absolute path. Zip and tar packages are supported,
// with or without gzip compression, detected by content rather than
// extension. The METS file lands in destDir under its base name.
func ExtractMETS(dipPath, destDir string) (string, error) {
	kind, err := sniffArchive(dipPath)
	if err != nil {
		return "", err
	}
	var metsPath string
	switch kind {
	case archiveZip:
		metsPath, err = extractMETSFromZip(dipPath, destDir)
	case archiveTar, archiveTarGz:
		metsPath, err = extractMETSFromTar(dipPath, destDir, kind == archiveTarGz)
	default:
		return "", newMETSError(
			"DIP is not a tar or a zip file: %s", filepath.Base(dipPath))
	}
	if err != nil {
		return "", err
	}
	if metsPath == "" {
		return "", newMETSError("METS file not found in DIP file.")
	}
	return filepath.Abs(metsPath)
}

type archiveKind int

const (
	archiveUnknown archiveKind = iota
	archiveZip
	archiveTar
	archiveTarGz
)

func sniffArchive(path string) (archiveKind, error) {
	f, err := os.Open(path)
	if err != nil {
		return archiveUnknown, err
	}
	defer f.Close()
	header := make([]byte, 265)
	n, err := f.Read(header)
	if err != nil && err != io.EOF {
		return archiveUnknown, err
	}
	header = header[:n]
	switch {
	case bytes.HasPrefix(header, []byte("PK\x03\x04")):
		return archiveZip, nil
	case bytes.HasPrefix(header, []byte{0x1f, 0x8b}):
		return archiveTarGz, nil
	case len(header) >= 262 && bytes.Equal(header[257:262], []byte("ustar")):
		return archiveTar, nil
	}
	return archiveUnknown, nil
}

func extractMETSFromZip(dipPath, destDir string) (string, error) {
	reader, err := zip.OpenReader(dipPath)
	if err != nil {
		return "", err
	}
	defer reader.Close()
	metsPath := ""
	for _, entry := range reader.File {
		if !metsNameRE.MatchString(entry.Name) {
			continue
		}
		src, err := entry.Open()
		if err != nil {
			return "", err
		}
		metsPath, err = writeEntry(src, destDir, entry.Name)
		src.Close()
		if err != nil {
			return "", err
		}
	}
	return metsPath, nil
}

func extractMETSFromTar(dipPath string, destDir string, gzipped bool) (string, error) {
	f, err := os.Open(dipPath)
	if err != nil {
		return "", err
	}
	defer f.Close()
	var src io.Reader = f
	if gzipped {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return "", err
		}
		defer gz.Close()
		src = gz
	}
	metsPath := ""
	reader := tar.NewReader(src)
	for {
		header, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if header.Typeflag != tar.TypeReg || !metsNameRE.MatchString(header.Name) {
			continue
		}
		metsPath, err = writeEntry(reader, destDir, header.Name)
		if err != nil {
			return "", err
		}
	}
	return metsPath, nil
}

// writeEntry copies one archive member to destDir under its base
// name, dropping the directories it was packaged under.
func writeEntry(src io.Reader, destDir, name string) (string, error) {
	destPath := filepath.Join(destDir, filepath.Base(name))
	dest, err := os.Create(destPath)
	if err != nil {
		return "", err
	}
	defer dest.Close()
	if _, err := io.Copy(dest, src); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("Could not extract %s: %v", name, err)
	}
	return destPath, nil
}
