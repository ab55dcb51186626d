package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// ErrRecordNotFound is returned when a record is not found in the journal.
var ErrRecordNotFound = errors.New("record not found")

var (
	jobsBucket  = []byte("jobs")
	skipsBucket = []byte("skips")
)

// Outcome is the terminal state of one transfer job.
type Outcome string

const (
	OutcomeCompleted Outcome = "Completed"
	OutcomeFailed    Outcome = "Failed"
)

// JobRecord is the journaled outcome of one consumed job.
type JobRecord struct {
	ID       string  `json:"id"`
	Dest     string  `json:"dest"`
	Bytes    int64   `json:"bytes"`
	Checksum uint64  `json:"checksum"`
	Outcome  Outcome `json:"outcome"`
	Error    string  `json:"error,omitempty"`
}

// Journal is an append-only record of transfer outcomes and planner skips,
// backed by bbolt. It exists for post-run reporting and auditing; transfers
// never read it back to resume.
type Journal struct {
	db *bbolt.DB
}

// Open opens (or creates) a journal at the given path.
func Open(path string) (*Journal, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(jobsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(skipsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create journal buckets: %w", err)
	}

	return &Journal{db: db}, nil
}

// RecordJob appends the outcome of one job.
func (j *Journal) RecordJob(rec *JobRecord) error {
	return j.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(jobsBucket)

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}

		if err := b.Put([]byte(rec.ID), data); err != nil {
			return fmt.Errorf("failed to put record: %w", err)
		}
		return nil
	})
}

// RecordSkip appends a destination path the planner skipped on conflict.
func (j *Journal) RecordSkip(path string) error {
	return j.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(skipsBucket)
		return b.Put([]byte(path), []byte(time.Now().UTC().Format(time.RFC3339)))
	})
}

// Job retrieves one job record by ID.
func (j *Journal) Job(id string) (*JobRecord, error) {
	var rec JobRecord
	err := j.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(jobsBucket).Get([]byte(id))
		if data == nil {
			return ErrRecordNotFound
		}
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("failed to unmarshal record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Jobs lists every job record in the journal in key order.
func (j *Journal) Jobs() ([]*JobRecord, error) {
	var recs []*JobRecord
	err := j.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(jobsBucket).ForEach(func(k, v []byte) error {
			var rec JobRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to unmarshal record: %w", err)
			}
			recs = append(recs, &rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// Skips lists every skipped destination recorded so far.
func (j *Journal) Skips() ([]string, error) {
	var skips []string
	err := j.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(skipsBucket).ForEach(func(k, v []byte) error {
			skips = append(skips, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return skips, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}
