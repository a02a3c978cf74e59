// Package mergeable decides whether the submodule pointer in a parent
// repository may be merged: its commit must be among the most recent
// upstream master commits and, optionally, not older than the commit the
// parent's main branch already pins.
package mergeable

import (
	"log/slog"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/questdb/submodule-mergeable/internal/config"
	"github.com/questdb/submodule-mergeable/internal/git"
)

type Checker struct {
	policy config.Policy
}

// Result records what a run looked at. MainCommit is zero unless the
// not-older check ran.
type Result struct {
	Head       plumbing.Hash
	Window     Window
	MainCommit plumbing.Hash
}

func New(policy config.Policy) *Checker {
	return &Checker{policy: policy}
}

// Run opens the submodule of parent and applies the enabled checks. A failed
// check returns a *Violation; lookup failures are returned as they are.
func (c *Checker) Run(parent *git.Repo) (*Result, error) {
	p := c.policy
	sub, err := parent.Submodule(p.Submodule)
	if err != nil {
		return nil, err
	}
	head, err := sub.Head()
	if err != nil {
		return nil, err
	}
	window, err := CollectWindow(sub, p.UpstreamRef, p.WindowSize())
	if err != nil {
		return nil, err
	}
	res := &Result{Head: head, Window: window}
	slog.Debug("checking submodule",
		slog.String("submodule", p.Submodule),
		slog.String("head", head.String()),
		slog.Int("window", len(window)),
	)

	if err := CheckRecency(window, head, p); err != nil {
		return res, err
	}
	if !p.CheckNotOlder {
		return res, nil
	}
	mainCommit, err := parent.GitlinkAt(p.MainRef, p.SubmodulePath)
	if err != nil {
		return res, err
	}
	res.MainCommit = mainCommit
	if err := CheckNotOlder(window, head, mainCommit, p); err != nil {
		return res, err
	}
	return res, nil
}
