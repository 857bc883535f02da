package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
)

// FromDisk reads a script from an absolute path.
type FromDisk struct {
	path      string
	sourceURL *url.URL
}

var _ Source = (*FromDisk)(nil)

// NewFromDisk creates a FromDisk. Relative and root paths are rejected.
func NewFromDisk(path string) (*FromDisk, error) {
	if !filepath.IsAbs(path) {
		return nil, fmt.Errorf("%w: relative paths are not supported", ErrScriptNotAvailable)
	}
	path = filepath.Clean(path)
	if path == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: path is empty or invalid", ErrScriptNotAvailable)
	}

	return &FromDisk{
		path:      path,
		sourceURL: &url.URL{Scheme: "file", Path: filepath.ToSlash(path)},
	}, nil
}

func (l *FromDisk) String() string {
	return fmt.Sprintf("source.FromDisk{Path: %s}", l.path)
}

// Open opens the file. ctx is unused; local reads are not cancellable.
func (l *FromDisk) Open(_ context.Context) (io.ReadCloser, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScriptNotAvailable, err)
	}
	return f, nil
}

func (l *FromDisk) URL() *url.URL {
	return l.sourceURL
}
