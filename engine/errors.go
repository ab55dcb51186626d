package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingLength indicates a source stream did not advertise a total
	// byte length, which determinate progress rendering requires.
	ErrMissingLength = errors.New("source did not advertise a content length")

	// ErrInvalidDestination indicates the local destination cannot receive
	// the transfer (missing parent, or a file where a directory is needed).
	ErrInvalidDestination = errors.New("invalid transfer destination")

	// ErrNotFound indicates the remote path could not be resolved.
	ErrNotFound = errors.New("remote path not found")
)

// TransferError ties a failure to the destination path of the job that hit
// it, so callers can present which file broke the transfer.
type TransferError struct {
	Path string
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer failed for %s: %v", e.Path, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}
