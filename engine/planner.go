package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// OverwritePolicy governs what happens when a planned destination collides
// with an existing local file.
type OverwritePolicy int

const (
	// OverwriteAsk defers each collision to the planner's Confirm callback.
	OverwriteAsk OverwritePolicy = iota
	// OverwriteSkip silently skips every colliding subtree.
	OverwriteSkip
	// OverwriteForce deletes the colliding file and proceeds.
	OverwriteForce
)

// Planner turns one source path into a concrete, conflict-resolved list of
// transfer jobs. Planning is sequential and happens entirely before any
// bytes move.
type Planner struct {
	Remote Remote

	// Confirm decides interactive overwrite prompts under OverwriteAsk.
	// A nil Confirm declines every prompt.
	Confirm func(path string) bool
}

// PlanDownload maps a remote source onto local destinations under dest.
//
// A single object produces exactly one job. A container node is enumerated
// in one recursive signed-URL call; its tree nests one level under
// dest/sourceName when dest already exists and src has no trailing slash,
// matching conventional copy-tool semantics.
func (p *Planner) PlanDownload(ctx context.Context, src, dest string, policy OverwritePolicy) (*Plan, error) {
	dest = filepath.Clean(dest)

	if _, err := os.Stat(filepath.Dir(dest)); err != nil {
		return nil, fmt.Errorf("%w %s: parent directory %s does not exist",
			ErrInvalidDestination, dest, filepath.Dir(dest))
	}

	nodes, err := p.Remote.NodeData(ctx, src)
	if err != nil {
		return nil, err
	}
	node, ok := nodes[src]
	if !ok || node.IsParent {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, src)
	}

	if !node.Type.Container() {
		url, err := p.Remote.SignedURL(ctx, src)
		if err != nil {
			return nil, err
		}

		target := dest
		if info, err := os.Stat(dest); err == nil && info.IsDir() {
			target = filepath.Join(dest, node.Name)
		}
		return &Plan{Jobs: []TransferJob{{ID: uuid.NewString(), Source: url, Dest: target}}}, nil
	}

	urls, err := p.Remote.SignedURLsRecursive(ctx, src)
	if err != nil {
		return nil, err
	}

	root := dest
	if _, err := os.Stat(dest); err == nil && !strings.HasSuffix(src, "/") {
		root = filepath.Join(dest, node.Name)
	}
	if err := mkdirRoot(root); err != nil {
		return nil, err
	}

	// Go maps carry no order; sort the relative paths so the same listing
	// always plans the same job sequence.
	rels := make([]string, 0, len(urls))
	for rel := range urls {
		rels = append(rels, rel)
	}
	sort.Strings(rels)

	plan := &Plan{}
	rejected := make(map[string]struct{})

	for _, rel := range rels {
		job := TransferJob{
			ID:     uuid.NewString(),
			Source: urls[rel],
			Dest:   filepath.Join(root, filepath.FromSlash(rel)),
		}

		if underRejected(job.Dest, root, rejected) {
			continue
		}

		parent := filepath.Dir(job.Dest)
		if err := os.MkdirAll(parent, 0755); err != nil {
			conflict := firstFileAncestor(parent)
			if conflict == "" {
				return nil, fmt.Errorf("failed to create %s: %w", parent, err)
			}

			overwrite := policy == OverwriteForce ||
				(policy == OverwriteAsk && p.Confirm != nil && p.Confirm(conflict))
			if !overwrite {
				plan.Skipped = append(plan.Skipped, conflict)
				rejected[conflict] = struct{}{}
				continue
			}

			if err := os.Remove(conflict); err != nil {
				return nil, fmt.Errorf("failed to overwrite %s: %w", conflict, err)
			}
			if err := os.MkdirAll(parent, 0755); err != nil {
				return nil, fmt.Errorf("failed to create %s: %w", parent, err)
			}
		}

		plan.Jobs = append(plan.Jobs, job)
	}

	return plan, nil
}

// PlanUpload maps a local source onto remote locators under dest. The local
// tree is walked iteratively to survive very deep directory structures.
func (p *Planner) PlanUpload(ctx context.Context, src, dest string) (*Plan, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("failed to stat source %s: %w", src, err)
	}

	if !info.IsDir() {
		target := dest
		if strings.HasSuffix(dest, "/") {
			target = dest + info.Name()
		}
		return &Plan{Jobs: []TransferJob{{ID: uuid.NewString(), Source: src, Dest: target}}}, nil
	}

	root := strings.TrimSuffix(dest, "/")
	if !strings.HasSuffix(src, string(os.PathSeparator)) {
		root = root + "/" + info.Name()
	}

	plan := &Plan{}
	stack := []string{""}

	for len(stack) > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rel := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(filepath.Join(src, rel))
		if err != nil {
			return nil, fmt.Errorf("failed to list directory %s: %w", filepath.Join(src, rel), err)
		}

		for _, entry := range entries {
			entryRel := entry.Name()
			if rel != "" {
				entryRel = filepath.Join(rel, entry.Name())
			}

			if entry.IsDir() {
				stack = append(stack, entryRel)
				continue
			}

			plan.Jobs = append(plan.Jobs, TransferJob{
				ID:     uuid.NewString(),
				Source: filepath.Join(src, entryRel),
				Dest:   root + "/" + filepath.ToSlash(entryRel),
			})
		}
	}

	return plan, nil
}

// mkdirRoot creates the destination root. Idempotent: an existing directory
// is fine, an existing file or a missing parent is a fatal planning error.
func mkdirRoot(root string) error {
	err := os.Mkdir(root, 0755)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: no such download destination %s", ErrInvalidDestination, root)
	}
	if info, statErr := os.Stat(root); statErr == nil && info.IsDir() {
		return nil
	}
	return fmt.Errorf("%w: %s is not a directory", ErrInvalidDestination, root)
}

// underRejected reports whether any ancestor of dest, up to the planning
// root, has already been rejected. Rejecting one parent prunes the whole
// subtree without re-prompting.
func underRejected(dest, root string, rejected map[string]struct{}) bool {
	for p := filepath.Dir(dest); len(p) >= len(root); p = filepath.Dir(p) {
		if _, ok := rejected[p]; ok {
			return true
		}
		if p == root || p == filepath.Dir(p) {
			break
		}
	}
	return false
}

// firstFileAncestor walks upward from path and returns the first existing
// ancestor that is a plain file, or "" when the creation failure was not a
// file collision.
func firstFileAncestor(path string) string {
	for p := path; ; p = filepath.Dir(p) {
		if info, err := os.Stat(p); err == nil {
			if !info.IsDir() {
				return p
			}
			return ""
		}
		if p == filepath.Dir(p) {
			return ""
		}
	}
}
