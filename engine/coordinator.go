package engine

import (
	"context"
	"sync"
	"time"

	"github.com/parcelbio/parcel/progress"
	"github.com/parcelbio/parcel/provider"
	"github.com/parcelbio/parcel/store"
)

// Summary is the top-level result of one transfer invocation. Skipped
// carries every destination the planner declined to overwrite, so callers
// can report them.
type Summary struct {
	Files   int
	Bytes   int64
	Skipped []string
	Elapsed time.Duration
}

// Transfer owns one invocation's collaborators: the remote API, the stream
// providers, the bounded worker pool, and the progress session lifecycle.
type Transfer struct {
	Remote Remote
	Source provider.Reader
	Dest   provider.Writer

	// MaxWorkers caps the pool width; 0 means DefaultMaxWorkers. The
	// effective width is further capped by the job count.
	MaxWorkers int

	// ChunkSize is the streaming copy unit; 0 means DefaultChunkSize.
	ChunkSize int

	// Verbosity selects how progress is rendered.
	Verbosity progress.Verbosity

	// Journal, when set, records per-job outcomes and planner skips.
	// Write-only: nothing is ever read back to resume a transfer.
	Journal *store.Journal

	// Confirm decides interactive overwrite prompts during planning.
	Confirm func(path string) bool

	bufferPool *BufferPool
	bufferOnce sync.Once
}

func (t *Transfer) buffers() *BufferPool {
	t.bufferOnce.Do(func() {
		t.bufferPool = NewBufferPool(t.ChunkSize)
	})
	return t.bufferPool
}

func (t *Transfer) maxWorkers() int {
	if t.MaxWorkers > 0 {
		return t.MaxWorkers
	}
	return DefaultMaxWorkers()
}

// Download plans and executes a remote-to-local transfer.
func (t *Transfer) Download(ctx context.Context, src, dest string, policy OverwritePolicy) (*Summary, error) {
	planner := &Planner{Remote: t.Remote, Confirm: t.Confirm}
	plan, err := planner.PlanDownload(ctx, src, dest, policy)
	if err != nil {
		return nil, err
	}
	return t.run(ctx, plan)
}

// Upload plans and executes a local-to-remote transfer.
func (t *Transfer) Upload(ctx context.Context, src, dest string) (*Summary, error) {
	planner := &Planner{Remote: t.Remote, Confirm: t.Confirm}
	plan, err := planner.PlanUpload(ctx, src, dest)
	if err != nil {
		return nil, err
	}
	return t.run(ctx, plan)
}

// run executes a confirmed plan: one progress session per invocation, a
// bounded pool fanning jobs out in submission order, byte counts fanned back
// in. Fail-fast: the first worker error stops dispatch, in-flight jobs are
// awaited, and the error propagates with the failing destination attached.
func (t *Transfer) run(ctx context.Context, plan *Plan) (*Summary, error) {
	jobs := plan.Jobs

	sess, err := progress.NewSession(t.slotCount(len(jobs)), t.Verbosity)
	if err != nil {
		return nil, err
	}
	defer sess.Close()
	sess.SetTotal(len(jobs), "Copying Files")

	for _, skipped := range plan.Skipped {
		t.recordSkip(skipped)
	}

	start := time.Now()
	var total int64

	switch len(jobs) {
	case 0:
		// everything was skipped or the source tree was empty
	case 1:
		// single-object fast path: no pool, same session lifecycle
		bytes, checksum, err := t.transferOne(ctx, jobs[0], sess)
		t.recordJob(jobs[0], bytes, checksum, err)
		if err != nil {
			return nil, err
		}
		total = bytes
	default:
		total, err = t.runPool(ctx, jobs, sess)
		if err != nil {
			return nil, err
		}
	}

	return &Summary{
		Files:   len(jobs),
		Bytes:   total,
		Skipped: plan.Skipped,
		Elapsed: time.Since(start),
	}, nil
}

// runPool fans jobs out to min(maxWorkers, len(jobs)) workers. Submission
// order is deterministic; completion order is not, which is fine because the
// byte total is commutative over job results.
func (t *Transfer) runPool(ctx context.Context, jobs []TransferJob, sess *progress.Session) (int64, error) {
	workers := t.maxWorkers()
	if workers > len(jobs) {
		workers = len(jobs)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobChan := make(JobChannel)
	results := make(chan result, len(jobs))

	// feeder: deterministic submission order, stops on first failure
	go func() {
		defer close(jobChan)
		for _, job := range jobs {
			select {
			case <-ctx.Done():
				return
			case jobChan <- job:
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobChan {
				bytes, checksum, err := t.transferOne(ctx, job, sess)
				results <- result{job: job, bytes: bytes, checksum: checksum, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var total int64
	var firstErr error

	for res := range results {
		t.recordJob(res.job, res.bytes, res.checksum, res.err)
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
				cancel()
			}
			continue
		}
		total += res.bytes
	}

	if firstErr != nil {
		return 0, firstErr
	}
	return total, nil
}

// slotCount decides how many per-file progress bars are visible. Independent
// of (and possibly smaller than) the worker count.
func (t *Transfer) slotCount(jobCount int) int {
	if t.Verbosity != progress.PerFile {
		return 0
	}
	n := t.maxWorkers()
	if n > jobCount {
		n = jobCount
	}
	return n
}

func (t *Transfer) recordJob(job TransferJob, bytes int64, checksum uint64, err error) {
	if t.Journal == nil {
		return
	}

	rec := &store.JobRecord{
		ID:       job.ID,
		Dest:     job.Dest,
		Bytes:    bytes,
		Checksum: checksum,
		Outcome:  store.OutcomeCompleted,
	}
	if err != nil {
		rec.Outcome = store.OutcomeFailed
		rec.Error = err.Error()
	}
	// journaling is best effort; a record failure must not fail the transfer
	_ = t.Journal.RecordJob(rec)
}

func (t *Transfer) recordSkip(path string) {
	if t.Journal == nil {
		return
	}
	_ = t.Journal.RecordSkip(path)
}
