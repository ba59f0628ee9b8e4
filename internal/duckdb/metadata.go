package duckdb

import (
	"time"

	"github.com/spf13/afero"
)

// FileFingerprint holds stat-based identity for a dataset file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint for a file. An empty path or "-" yields
// a fingerprint with only the path set.
func StatFile(fs afero.Fs, path string) (FileFingerprint, error) {
	if path == "" || path == "-" {
		return FileFingerprint{Path: path}, nil
	}
	info, err := fs.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}
