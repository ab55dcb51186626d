package provider

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// ensure interfaces are implemented
var (
	_ Reader = (*LocalProvider)(nil)
	_ Writer = (*LocalProvider)(nil)
)

// LocalProvider streams files on a posix-compliant local filesystem.
// Locators are plain filesystem paths.
type LocalProvider struct{}

// NewLocalProvider creates a new LocalProvider.
func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

// Open opens the file for reading and reports its size from Stat.
func (p *LocalProvider) Open(ctx context.Context, locator string) (io.ReadCloser, int64, error) {
	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	default:
	}

	f, err := os.Open(locator)
	if err != nil {
		return nil, 0, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}

	return f, info.Size(), nil
}

// Create opens the file for writing, truncating any previous content.
// Parent directories are created as needed.
func (p *LocalProvider) Create(ctx context.Context, locator string, size int64) (io.WriteCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := os.MkdirAll(filepath.Dir(locator), 0755); err != nil {
		return nil, err
	}

	return os.OpenFile(locator, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
}
