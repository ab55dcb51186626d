package engine

// TransferJob represents a single planned transfer: an opaque source locator
// paired with the destination it will be written to. Jobs are immutable after
// planning and consumed exactly once by exactly one worker.
type TransferJob struct {
	// ID uniquely identifies the job for journaling.
	ID string

	// Source is the locator to read from: a signed URL, an s3:// locator,
	// or a local path for uploads.
	Source string

	// Dest always names the leaf object to be written, never a directory.
	Dest string
}

// JobChannel is a channel used to queue and dispatch TransferJobs to workers
// in the worker pool.
type JobChannel chan TransferJob

// Plan is the conflict-resolved output of the planner: the confirmed jobs in
// submission order plus every destination skipped by overwrite policy.
type Plan struct {
	Jobs    []TransferJob
	Skipped []string
}
