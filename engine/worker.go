package engine

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/parcelbio/parcel/progress"
)

// result is what one worker reports back for one consumed job.
type result struct {
	job      TransferJob
	bytes    int64
	checksum uint64
	err      error
}

// transferOne executes a single job: stream the source to the destination in
// fixed-size chunks, reporting per-chunk progress through an acquired slot.
//
// The advertised source length is required up front; without it the UI
// cannot render determinate progress and the job fails. The returned byte
// count is that advertised length. The files-completed counter is bumped
// exactly once on every exit path, and the slot is always released.
func (t *Transfer) transferOne(ctx context.Context, job TransferJob, sess *progress.Session) (int64, uint64, error) {
	defer sess.FileDone()

	src, size, err := t.Source.Open(ctx, job.Source)
	if err != nil {
		return 0, 0, &TransferError{Path: job.Dest, Err: err}
	}
	defer src.Close()

	if size < 0 {
		return 0, 0, &TransferError{Path: job.Dest, Err: ErrMissingLength}
	}

	dst, err := t.Dest.Create(ctx, job.Dest, size)
	if err != nil {
		return 0, 0, &TransferError{Path: job.Dest, Err: err}
	}

	slot := sess.Acquire()
	defer slot.Release()
	slot.Start(filepath.Base(job.Dest), size)

	cr := NewChecksumReader(src)

	buf := t.buffers().Get()
	defer t.buffers().Put(buf)

	if err := copyChunks(dst, cr, *buf, slot); err != nil {
		dst.Close()
		return 0, 0, &TransferError{Path: job.Dest, Err: err}
	}
	if err := dst.Close(); err != nil {
		return 0, 0, &TransferError{Path: job.Dest, Err: err}
	}

	// a stream ending before the advertised length means a truncated file
	if got := cr.BytesRead(); got != size {
		return 0, 0, &TransferError{
			Path: job.Dest,
			Err:  fmt.Errorf("stream ended after %d of %d advertised bytes", got, size),
		}
	}

	return size, cr.Checksum(), nil
}

// copyChunks streams r into w one buffer-sized chunk at a time, bumping the
// slot after every chunk write. No retry of partial writes: any fault
// propagates immediately.
func copyChunks(w io.Writer, r io.Reader, buf []byte, slot *progress.Slot) error {
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			slot.Add(int64(n))
		}
		if rerr != nil {
			if rerr == io.EOF {
				return nil
			}
			return rerr
		}
	}
}
