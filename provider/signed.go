package provider

import (
	"context"
	"io"
)

// ensure interface is implemented
var _ Writer = (*SignedURLWriter)(nil)

// UploadURLIssuer issues a pre-authorized write URL for a remote path.
type UploadURLIssuer interface {
	SignedUploadURL(ctx context.Context, path string) (string, error)
}

// SignedURLWriter resolves each destination locator to a signed upload URL
// and streams the write through HTTP. It is the write-side counterpart of
// reading platform objects through signed GET URLs.
type SignedURLWriter struct {
	Issuer UploadURLIssuer
	HTTP   *HTTPProvider
}

// Create issues a signed upload URL for the locator and opens a streaming
// PUT against it.
func (w *SignedURLWriter) Create(ctx context.Context, locator string, size int64) (io.WriteCloser, error) {
	url, err := w.Issuer.SignedUploadURL(ctx, locator)
	if err != nil {
		return nil, err
	}
	return w.HTTP.Create(ctx, url, size)
}
