package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ensure interfaces are implemented
var (
	_ Reader = (*HTTPProvider)(nil)
	_ Writer = (*HTTPProvider)(nil)
)

// HTTPProvider streams objects through pre-authorized (signed) URLs. No
// additional authentication is attached: the URL itself grants access.
type HTTPProvider struct {
	client *http.Client
}

// NewHTTPProvider creates an HTTPProvider. If client is nil,
// http.DefaultClient is used.
func NewHTTPProvider(client *http.Client) *HTTPProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProvider{client: client}
}

// Open issues a GET against the signed URL. The advertised size is taken
// from the Content-Length header; SizeUnknown if the server omits it.
func (p *HTTPProvider) Open(ctx context.Context, locator string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, 0, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		msg := strings.TrimSpace(string(payload))
		if msg == "" {
			return nil, 0, fmt.Errorf("remote responded with %s", resp.Status)
		}
		return nil, 0, fmt.Errorf("remote responded with %s: %s", resp.Status, msg)
	}

	return resp.Body, resp.ContentLength, nil
}

// Create issues a streaming PUT against the signed URL. Writes go through a
// pipe so the request body never needs buffering in full; Close blocks until
// the upload response arrives.
func (p *HTTPProvider) Create(ctx context.Context, locator string, size int64) (io.WriteCloser, error) {
	pr, pw := io.Pipe()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, locator, pr)
	if err != nil {
		return nil, err
	}
	req.ContentLength = size

	errChan := make(chan error, 1)
	go func() {
		resp, err := p.client.Do(req)
		if err != nil {
			pr.CloseWithError(err)
			errChan <- err
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			err := fmt.Errorf("remote responded with %s: %s", resp.Status, strings.TrimSpace(string(payload)))
			pr.CloseWithError(err)
			errChan <- err
			return
		}
		errChan <- nil
	}()

	return &httpWriteCloser{pw: pw, errChan: errChan}, nil
}

type httpWriteCloser struct {
	pw      *io.PipeWriter
	errChan chan error
}

func (w *httpWriteCloser) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

func (w *httpWriteCloser) Close() error {
	if err := w.pw.Close(); err != nil {
		return err
	}
	return <-w.errChan
}
