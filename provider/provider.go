package provider

import (
	"context"
	"io"
)

// SizeUnknown is returned by Open when the source does not advertise a
// total byte length.
const SizeUnknown int64 = -1

// Reader represents a storage backend that can stream objects out.
// A locator is an opaque handle: a signed https URL, an s3:// URL, or a
// local filesystem path depending on the implementation.
type Reader interface {
	// Open opens a streaming read on the given locator and returns the
	// advertised total size in bytes, or SizeUnknown.
	Open(ctx context.Context, locator string) (io.ReadCloser, int64, error)
}

// Writer represents a storage backend that can stream objects in.
type Writer interface {
	// Create opens a streaming write to the given locator. size is the total
	// number of bytes that will be written; implementations that must declare
	// a length up front may rely on it.
	Create(ctx context.Context, locator string, size int64) (io.WriteCloser, error)
}
