package git

import (
	"fmt"
	"io"
	"log/slog"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// History walks commits backward from a starting point in committer-time
// order (the git log default) and stops after limit commits.
type History struct {
	from plumbing.Hash
	iter object.CommitIter

	limit     int
	returned  int
	exhausted bool
}

func (r *Repo) History(from plumbing.Hash, limit int) (*History, error) {
	iter, err := r.repo.Log(&gitlib.LogOptions{From: from, Order: gitlib.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("read commits: %w", err)
	}
	slog.Debug("history walk started",
		slog.String("from", from.String()),
		slog.Int("limit", limit),
	)
	return &History{from: from, iter: iter, limit: limit}, nil
}

// Next returns the next commit, or io.EOF once the limit is reached or the
// root is passed.
func (h *History) Next() (*object.Commit, error) {
	if h.exhausted {
		return nil, io.EOF
	}
	if h.returned >= h.limit {
		h.Close()
		return nil, io.EOF
	}
	commit, err := h.iter.Next()
	if err != nil {
		if err == io.EOF {
			h.Close()
		}
		return nil, err
	}
	h.returned++
	return commit, nil
}

func (h *History) Close() {
	if h == nil {
		return
	}
	if h.iter != nil {
		h.iter.Close()
	}
	h.iter = nil
	h.exhausted = true
}

// Collect drains the walk into a newest-first list of commit hashes.
func (h *History) Collect() ([]plumbing.Hash, error) {
	defer h.Close()
	hashes := make([]plumbing.Hash, 0, max(h.limit, 0))
	for {
		commit, err := h.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("iterate commits: %w", err)
		}
		hashes = append(hashes, commit.Hash)
	}
	slog.Debug("history walk done",
		slog.String("from", h.from.String()),
		slog.Int("returned", len(hashes)),
	)
	return hashes, nil
}
