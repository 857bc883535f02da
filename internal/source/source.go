// Package source fetches script text for the console's :source command from local files
// or HTTP(S) URLs.
package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/robbyt/go-rbridge/internal/helpers"
)

// MaxScriptSize bounds how much text Load accepts from any source.
const MaxScriptSize = 4 << 20

// Source is somewhere a script can be read from.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	URL() *url.URL
}

// Script is the loaded text and where it came from.
type Script struct {
	Text     string
	Checksum string
	URL      *url.URL
}

// ShortChecksum abbreviates the SHA-256 checksum for display.
func (s *Script) ShortChecksum() string {
	return helpers.ShortChecksum(s.Checksum)
}

// Infer picks a Source for location: http and https URLs are fetched, file URLs and plain
// paths are read from disk. Relative paths resolve against the working directory.
func Infer(location string) (Source, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, ErrInputEmpty
	}

	if parsed, err := url.Parse(location); err == nil && parsed.Scheme != "" && len(parsed.Scheme) > 1 {
		switch parsed.Scheme {
		case "http", "https":
			return NewFromHTTP(location)
		case "file":
			return fromPath(parsed.Path)
		default:
			return nil, fmt.Errorf("%w: %s", ErrSchemeUnsupported, parsed.Scheme)
		}
	}
	return fromPath(location)
}

func fromPath(path string) (Source, error) {
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve relative path %q: %w", path, err)
		}
		path = abs
	}
	return NewFromDisk(path)
}

// Load reads the whole script from src.
func Load(ctx context.Context, src Source) (*Script, error) {
	r, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(io.LimitReader(r, MaxScriptSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", src.URL(), err)
	}
	if len(data) > MaxScriptSize {
		return nil, fmt.Errorf("%w: %s", ErrScriptTooLarge, src.URL())
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, fmt.Errorf("%w: %s", ErrInputEmpty, src.URL())
	}

	return &Script{
		Text:     string(data),
		Checksum: helpers.SHA256Bytes(data),
		URL:      src.URL(),
	}, nil
}
