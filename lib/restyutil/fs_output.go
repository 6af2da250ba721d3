package restyutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
)

// Output receives named text artifacts (HTTP exchanges, raw pages).
type Output interface {
	Write(id string, contents string)
}

// FilesystemOutput writes every artifact as a file in a directory.
type FilesystemOutput struct {
	directory string
}

// NewFilesystemOutput creates (or clears, if `clear` is set) the directory.
func NewFilesystemOutput(dir string, clear bool) (FilesystemOutput, error) {
	if clear {
		os.RemoveAll(dir)
	}
	err := os.MkdirAll(dir, 0777)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Directory() string {
	return o.directory
}

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func (o FilesystemOutput) Write(id string, contents string) {
	name := unsafeFilename.ReplaceAllString(id, "_")
	err := os.WriteFile(filepath.Join(o.directory, name), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write artifact", "id", id, "err", err)
	}
}
