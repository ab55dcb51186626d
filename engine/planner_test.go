package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/parcelbio/parcel/api"
	"github.com/parcelbio/parcel/provider"
)

// fakeRemote serves canned node metadata and signed URL mappings.
type fakeRemote struct {
	node api.Node
	url  string
	tree map[string]string
}

func (f *fakeRemote) NodeData(ctx context.Context, paths ...string) (map[string]api.Node, error) {
	out := make(map[string]api.Node, len(paths))
	for _, p := range paths {
		out[p] = f.node
	}
	return out, nil
}

func (f *fakeRemote) SignedURL(ctx context.Context, path string) (string, error) {
	return f.url, nil
}

func (f *fakeRemote) SignedURLsRecursive(ctx context.Context, path string) (map[string]string, error) {
	return f.tree, nil
}

// memSource serves in-memory objects keyed by locator. advertise overrides
// the reported length of an object, independent of its actual bytes.
type memSource struct {
	objects   map[string][]byte
	unsized   map[string]bool
	broken    map[string]error
	advertise map[string]int64
}

func (m *memSource) Open(ctx context.Context, locator string) (io.ReadCloser, int64, error) {
	if err, ok := m.broken[locator]; ok {
		return nil, 0, err
	}
	data, ok := m.objects[locator]
	if !ok {
		return nil, 0, fmt.Errorf("no such object: %s", locator)
	}

	size := int64(len(data))
	if v, ok := m.advertise[locator]; ok {
		size = v
	}
	if m.unsized[locator] {
		size = provider.SizeUnknown
	}
	return io.NopCloser(bytes.NewReader(data)), size, nil
}

func dirRemote(name string, tree map[string]string) *fakeRemote {
	return &fakeRemote{
		node: api.Node{ID: "1", Name: name, Type: api.NodeTypeDir},
		tree: tree,
	}
}

func jobDests(plan *Plan) []string {
	dests := make([]string, len(plan.Jobs))
	for i, j := range plan.Jobs {
		dests[i] = j.Dest
	}
	return dests
}

func TestPlanDownload_SingleObject(t *testing.T) {
	tmp := t.TempDir()
	remote := &fakeRemote{
		node: api.Node{ID: "1", Name: "data.txt", Type: api.NodeTypeObject},
		url:  "mem://data",
	}
	p := &Planner{Remote: remote}

	// destination is an explicit file path
	plan, err := p.PlanDownload(context.Background(), "parcel://x/data.txt", filepath.Join(tmp, "out.txt"), OverwriteSkip)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(plan.Jobs))
	}
	if plan.Jobs[0].Dest != filepath.Join(tmp, "out.txt") {
		t.Errorf("unexpected dest %s", plan.Jobs[0].Dest)
	}

	// destination is an existing directory: nest under the source name
	plan, err = p.PlanDownload(context.Background(), "parcel://x/data.txt", tmp, OverwriteSkip)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Jobs[0].Dest != filepath.Join(tmp, "data.txt") {
		t.Errorf("expected nesting under source name, got %s", plan.Jobs[0].Dest)
	}
}

func TestPlanDownload_Deterministic(t *testing.T) {
	tmp := t.TempDir()
	remote := dirRemote("tree", map[string]string{
		"b/two.txt":   "mem://2",
		"a/one.txt":   "mem://1",
		"c/three.txt": "mem://3",
	})
	p := &Planner{Remote: remote}

	first, err := p.PlanDownload(context.Background(), "parcel://x/tree/", filepath.Join(tmp, "out"), OverwriteSkip)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := p.PlanDownload(context.Background(), "parcel://x/tree/", filepath.Join(tmp, "out"), OverwriteSkip)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(jobDests(first), jobDests(second)) {
		t.Errorf("planning is not deterministic: %v vs %v", jobDests(first), jobDests(second))
	}

	want := []string{
		filepath.Join(tmp, "out", "a", "one.txt"),
		filepath.Join(tmp, "out", "b", "two.txt"),
		filepath.Join(tmp, "out", "c", "three.txt"),
	}
	if !reflect.DeepEqual(jobDests(first), want) {
		t.Errorf("expected sorted job order %v, got %v", want, jobDests(first))
	}
}

func TestPlanDownload_NestsUnderExistingDest(t *testing.T) {
	tmp := t.TempDir()
	remote := dirRemote("tree", map[string]string{"f.txt": "mem://f"})
	p := &Planner{Remote: remote}

	// dest exists, source has no trailing slash: nest one level
	plan, err := p.PlanDownload(context.Background(), "parcel://x/tree", tmp, OverwriteSkip)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := plan.Jobs[0].Dest, filepath.Join(tmp, "tree", "f.txt"); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	// trailing slash requests merge-in: no nesting
	plan, err = p.PlanDownload(context.Background(), "parcel://x/tree/", tmp, OverwriteSkip)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := plan.Jobs[0].Dest, filepath.Join(tmp, "f.txt"); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestPlanDownload_RejectedSubtreePruning(t *testing.T) {
	tmp := t.TempDir()
	dest := filepath.Join(tmp, "out")
	if err := os.Mkdir(dest, 0755); err != nil {
		t.Fatal(err)
	}
	// a plain file where the planner needs a directory
	if err := os.WriteFile(filepath.Join(dest, "blocked"), []byte("in the way"), 0644); err != nil {
		t.Fatal(err)
	}

	remote := dirRemote("tree", map[string]string{
		"blocked/a.txt":     "mem://a",
		"blocked/b.txt":     "mem://b",
		"blocked/sub/c.txt": "mem://c",
		"ok.txt":            "mem://ok",
	})

	var prompts int
	p := &Planner{
		Remote: remote,
		Confirm: func(path string) bool {
			prompts++
			return false
		},
	}

	plan, err := p.PlanDownload(context.Background(), "parcel://x/tree/", dest, OverwriteAsk)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(plan.Jobs) != 1 || plan.Jobs[0].Dest != filepath.Join(dest, "ok.txt") {
		t.Errorf("expected only ok.txt to survive, got %v", jobDests(plan))
	}
	if len(plan.Skipped) != 1 || plan.Skipped[0] != filepath.Join(dest, "blocked") {
		t.Errorf("expected one recorded skip for the blocked parent, got %v", plan.Skipped)
	}
	if prompts != 1 {
		t.Errorf("expected exactly one prompt for the rejected subtree, got %d", prompts)
	}
}

func TestPlanDownload_ForceOverwrite(t *testing.T) {
	tmp := t.TempDir()
	dest := filepath.Join(tmp, "out")
	if err := os.Mkdir(dest, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dest, "sub"), []byte("in the way"), 0644); err != nil {
		t.Fatal(err)
	}

	remote := dirRemote("tree", map[string]string{"sub/f.txt": "mem://f"})
	p := &Planner{Remote: remote}

	plan, err := p.PlanDownload(context.Background(), "parcel://x/tree/", dest, OverwriteForce)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(plan.Jobs) != 1 {
		t.Fatalf("expected 1 confirmed job, got %d", len(plan.Jobs))
	}
	if info, err := os.Stat(filepath.Join(dest, "sub")); err != nil || !info.IsDir() {
		t.Errorf("expected the conflicting file to be replaced by a directory")
	}
}

func TestPlanDownload_InvalidDestinationParent(t *testing.T) {
	tmp := t.TempDir()
	remote := dirRemote("tree", map[string]string{"f.txt": "mem://f"})
	p := &Planner{Remote: remote}

	_, err := p.PlanDownload(context.Background(), "parcel://x/tree", filepath.Join(tmp, "missing", "out"), OverwriteSkip)
	if err == nil {
		t.Fatal("expected an error for a missing destination parent")
	}
	if !errors.Is(err, ErrInvalidDestination) {
		t.Errorf("expected ErrInvalidDestination, got %v", err)
	}
}

func TestPlanUpload_WalksTree(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "data")
	for _, f := range []string{"one.txt", "sub/two.txt", "sub/deep/three.txt"} {
		path := filepath.Join(src, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(f), 0644); err != nil {
			t.Fatal(err)
		}
	}

	p := &Planner{}
	plan, err := p.PlanUpload(context.Background(), src, "parcel://x/up")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(plan.Jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(plan.Jobs))
	}
	for _, job := range plan.Jobs {
		// no trailing slash on the source: tree nests under its own name
		if wantPrefix := "parcel://x/up/data/"; len(job.Dest) < len(wantPrefix) || job.Dest[:len(wantPrefix)] != wantPrefix {
			t.Errorf("expected dest under %s, got %s", wantPrefix, job.Dest)
		}
	}
}
