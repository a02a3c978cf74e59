package git

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

var (
	ErrSubmoduleNotFound = errors.New("submodule not registered")
	ErrNotCommit         = errors.New("reference does not point to a commit")
)

// Repo is a read-only handle over a repository on disk. It only resolves
// references and tree paths; nothing here writes to the object store or refs.
type Repo struct {
	repo *gitlib.Repository
	path string
}

// Open opens the repository containing repoPath, walking up to find .git.
func Open(repoPath string) (*Repo, error) {
	return open(repoPath, true)
}

func open(repoPath string, detectDotGit bool) (*Repo, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}
	repo, err := gitlib.PlainOpenWithOptions(abs, &gitlib.PlainOpenOptions{DetectDotGit: detectDotGit})
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", abs, err)
	}
	root := abs
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}
	slog.Debug("repository opened", slog.String("path", root))
	return &Repo{repo: repo, path: root}, nil
}

func (r *Repo) Path() string {
	return r.path
}

// Submodule opens the checkout of the submodule registered under name in
// .gitmodules. The module storage is never initialized; an unpopulated
// submodule directory is reported as an error.
func (r *Repo) Submodule(name string) (*Repo, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	sub, err := wt.Submodule(name)
	if err != nil {
		if errors.Is(err, gitlib.ErrSubmoduleNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrSubmoduleNotFound, name)
		}
		return nil, fmt.Errorf("read submodules: %w", err)
	}
	subPath := filepath.Join(r.path, filepath.FromSlash(sub.Config().Path))
	slog.Debug("submodule located",
		slog.String("name", name),
		slog.String("path", subPath),
	)
	// No DetectDotGit: an empty submodule directory must not resolve to the parent.
	subRepo, err := open(subPath, false)
	if err != nil {
		return nil, fmt.Errorf("open submodule %q: %w", name, err)
	}
	return subRepo, nil
}

// Head returns the commit checked out in the repository.
func (r *Repo) Head() (plumbing.Hash, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolve HEAD: %w", err)
	}
	return ref.Hash(), nil
}

// ResolveCommit resolves a full reference name (e.g. refs/remotes/origin/master)
// and peels it down to a commit.
func (r *Repo) ResolveCommit(name string) (plumbing.Hash, error) {
	ref, err := r.repo.Reference(plumbing.ReferenceName(name), true)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolve %s: %w", name, err)
	}
	hash, err := r.peelCommitHash(ref.Hash())
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolve %s: %w", name, err)
	}
	slog.Debug("reference resolved",
		slog.String("ref", name),
		slog.String("commit", hash.String()),
	)
	return hash, nil
}

func (r *Repo) peelCommitHash(hash plumbing.Hash) (plumbing.Hash, error) {
	// Lightweight tags and branches point directly at a commit; annotated tags point at a tag object.
	if _, err := r.repo.CommitObject(hash); err == nil {
		return hash, nil
	}
	cur := hash
	for i := 0; i < 8; i++ {
		tag, err := r.repo.TagObject(cur)
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("%w: %s", ErrNotCommit, hash)
		}
		switch tag.TargetType {
		case plumbing.CommitObject:
			return tag.Target, nil
		case plumbing.TagObject:
			cur = tag.Target
		default:
			return plumbing.ZeroHash, fmt.Errorf("%w: %s", ErrNotCommit, hash)
		}
	}
	return plumbing.ZeroHash, fmt.Errorf("%w: %s", ErrNotCommit, hash)
}
