package mergeable

import (
	"slices"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/questdb/submodule-mergeable/internal/git"
)

// Window is the newest-first prefix of upstream history the submodule must
// point into. Index 0 is the upstream head.
type Window []plumbing.Hash

// Index returns the position of hash in the window, -1 when absent.
// Lower is newer.
func (w Window) Index(hash plumbing.Hash) int {
	return slices.Index(w, hash)
}

func (w Window) Contains(hash plumbing.Hash) bool {
	return w.Index(hash) >= 0
}

// CollectWindow resolves upstreamRef in repo and takes the first size
// commits of its history.
func CollectWindow(repo *git.Repo, upstreamRef string, size int) (Window, error) {
	head, err := repo.ResolveCommit(upstreamRef)
	if err != nil {
		return nil, err
	}
	history, err := repo.History(head, size)
	if err != nil {
		return nil, err
	}
	hashes, err := history.Collect()
	if err != nil {
		return nil, err
	}
	return Window(hashes), nil
}
