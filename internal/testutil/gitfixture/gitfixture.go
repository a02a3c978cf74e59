// Package gitfixture builds repositories for tests by writing objects and refs
// straight into a go-git store, so tests control ancestry and committer times
// exactly without a git binary.
package gitfixture

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

type Fixture struct {
	Dir       string
	Repo      *gitlib.Repository
	EmptyTree plumbing.Hash

	t     testing.TB
	clock time.Time
	seq   int
}

// New initializes a non-bare repository at dir.
func New(t testing.TB, dir string) *Fixture {
	t.Helper()
	repo, err := gitlib.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit(%s): %v", dir, err)
	}
	return Wrap(t, dir, repo)
}

// Wrap returns a fixture writing into an already opened repository.
func Wrap(t testing.TB, dir string, repo *gitlib.Repository) *Fixture {
	t.Helper()
	f := &Fixture{
		Dir:   dir,
		Repo:  repo,
		t:     t,
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.EmptyTree = f.Tree(nil)
	return f
}

// Now is the committer time of the most recent commit.
func (f *Fixture) Now() time.Time {
	return f.clock
}

func (f *Fixture) Tree(entries []object.TreeEntry) plumbing.Hash {
	f.t.Helper()
	obj := f.Repo.Storer.NewEncodedObject()
	if err := (&object.Tree{Entries: entries}).Encode(obj); err != nil {
		f.t.Fatalf("encode tree: %v", err)
	}
	hash, err := f.Repo.Storer.SetEncodedObject(obj)
	if err != nil {
		f.t.Fatalf("store tree: %v", err)
	}
	return hash
}

// GitlinkTree builds a root tree holding a single submodule entry at path.
func (f *Fixture) GitlinkTree(path string, target plumbing.Hash) plumbing.Hash {
	f.t.Helper()
	parts := strings.Split(path, "/")
	last := len(parts) - 1
	hash := f.Tree([]object.TreeEntry{{Name: parts[last], Mode: filemode.Submodule, Hash: target}})
	for i := last - 1; i >= 0; i-- {
		hash = f.Tree([]object.TreeEntry{{Name: parts[i], Mode: filemode.Dir, Hash: hash}})
	}
	return hash
}

// Commit stores a commit one minute newer than the previous one.
func (f *Fixture) Commit(tree plumbing.Hash, parents ...plumbing.Hash) plumbing.Hash {
	f.t.Helper()
	f.seq++
	f.clock = f.clock.Add(time.Minute)
	sig := object.Signature{Name: "CI", Email: "ci@example.com", When: f.clock}
	c := &object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      fmt.Sprintf("commit %d\n", f.seq),
		TreeHash:     tree,
		ParentHashes: parents,
	}
	obj := f.Repo.Storer.NewEncodedObject()
	if err := c.Encode(obj); err != nil {
		f.t.Fatalf("encode commit: %v", err)
	}
	hash, err := f.Repo.Storer.SetEncodedObject(obj)
	if err != nil {
		f.t.Fatalf("store commit: %v", err)
	}
	return hash
}

// Chain appends n linear commits on top of parent, or on a new root when
// parent is zero, and returns them oldest first.
func (f *Fixture) Chain(n int, parent plumbing.Hash) []plumbing.Hash {
	f.t.Helper()
	hashes := make([]plumbing.Hash, 0, n)
	for i := 0; i < n; i++ {
		var parents []plumbing.Hash
		if !parent.IsZero() {
			parents = []plumbing.Hash{parent}
		}
		parent = f.Commit(f.EmptyTree, parents...)
		hashes = append(hashes, parent)
	}
	return hashes
}

func (f *Fixture) SetRef(name string, hash plumbing.Hash) {
	f.t.Helper()
	ref := plumbing.NewHashReference(plumbing.ReferenceName(name), hash)
	if err := f.Repo.Storer.SetReference(ref); err != nil {
		f.t.Fatalf("set %s: %v", name, err)
	}
}

func (f *Fixture) DetachHead(hash plumbing.Hash) {
	f.t.Helper()
	f.SetRef(string(plumbing.HEAD), hash)
}

// Superproject is a parent repository with one submodule checked out in place.
type Superproject struct {
	Dir    string
	Path   string
	Parent *Fixture
	Sub    *Fixture
}

// NewSuperproject registers submodule name at path in .gitmodules and
// initializes its checkout.
func NewSuperproject(t testing.TB, name, path string) *Superproject {
	t.Helper()
	dir := t.TempDir()
	parent := New(t, dir)
	WriteGitmodules(t, dir, name, path)
	sub := New(t, filepath.Join(dir, filepath.FromSlash(path)))
	return &Superproject{Dir: dir, Path: path, Parent: parent, Sub: sub}
}

// RecordOnMain commits a parent tree pinning the submodule at target and
// points mainRef at it.
func (s *Superproject) RecordOnMain(mainRef string, target plumbing.Hash) plumbing.Hash {
	hash := s.Parent.Commit(s.Parent.GitlinkTree(s.Path, target))
	s.Parent.SetRef(mainRef, hash)
	return hash
}

func WriteFile(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func WriteGitmodules(t testing.TB, root, name, path string) {
	t.Helper()
	content := fmt.Sprintf("[submodule %q]\n\tpath = %s\n\turl = https://example.com/%s.git\n", name, path, name)
	WriteFile(t, filepath.Join(root, ".gitmodules"), content)
}

// Reversed returns hashes newest first when given oldest first.
func Reversed(hashes []plumbing.Hash) []plumbing.Hash {
	out := make([]plumbing.Hash, len(hashes))
	for i, h := range hashes {
		out[len(hashes)-1-i] = h
	}
	return out
}
