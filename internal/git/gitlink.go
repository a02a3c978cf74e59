package git

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
)

var ErrNotSubmoduleEntry = errors.New("tree entry is not a submodule")

// GitlinkAt returns the submodule commit recorded at path in the tree of the
// commit refName resolves to.
func (r *Repo) GitlinkAt(refName, path string) (plumbing.Hash, error) {
	hash, err := r.ResolveCommit(refName)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	commit, err := r.repo.CommitObject(hash)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("read commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("read tree of %s: %w", hash, err)
	}
	entry, err := tree.FindEntry(path)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("find %s in %s: %w", path, refName, err)
	}
	if entry.Mode != filemode.Submodule {
		return plumbing.ZeroHash, fmt.Errorf("%w: %s in %s has mode %s", ErrNotSubmoduleEntry, path, refName, entry.Mode)
	}
	return entry.Hash, nil
}
