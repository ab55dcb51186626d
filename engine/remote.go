package engine

import (
	"context"
	"os"
	"runtime"
	"strconv"

	"github.com/parcelbio/parcel/api"
)

// Remote is the platform collaborator the planner consults: node metadata
// resolution and signed transfer URL issuance. api.Client implements it for
// the platform backend, provider.S3Provider for raw s3:// trees.
type Remote interface {
	// NodeData resolves metadata for one or more paths in a single round trip.
	NodeData(ctx context.Context, paths ...string) (map[string]api.Node, error)

	// SignedURL issues a transfer locator for a single object.
	SignedURL(ctx context.Context, path string) (string, error)

	// SignedURLsRecursive issues transfer locators for every leaf object
	// under a container, keyed by relative path. One round trip per subtree.
	SignedURLsRecursive(ctx context.Context, path string) (map[string]string, error)
}

// maxWorkersEnv overrides the worker cap when set to a positive integer.
const maxWorkersEnv = "PARCEL_MAX_WORKERS"

// DefaultMaxWorkers returns the worker-pool cap: the PARCEL_MAX_WORKERS
// environment variable when set, otherwise 4x the host core count bounded
// at 32. Transfers are I/O bound, so oversubscribing cores pays off.
func DefaultMaxWorkers() int {
	if v := os.Getenv(maxWorkersEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}

	n := runtime.NumCPU() * 4
	if n > 32 {
		n = 32
	}
	return n
}
