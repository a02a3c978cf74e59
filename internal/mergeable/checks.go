package mergeable

import (
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/questdb/submodule-mergeable/internal/clierr"
	"github.com/questdb/submodule-mergeable/internal/config"
)

// Violation is a failed policy check. Its message is the operator-facing
// diagnostic, already formatted for stderr.
type Violation struct {
	Submodule string
	Reason    string
	Details   []string
}

func (v *Violation) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "The `%s` submodule is not mergeable.\n", v.Submodule)
	b.WriteString(v.Reason)
	b.WriteByte('\n')
	for _, d := range v.Details {
		fmt.Fprintf(&b, "  * %s\n", d)
	}
	return b.String()
}

func (v *Violation) ExitCode() int { return clierr.ExitFailure }

// CheckRecency fails unless head is one of the window commits.
func CheckRecency(window Window, head plumbing.Hash, p config.Policy) error {
	if window.Contains(head) {
		slog.Debug("submodule commit is recent",
			slog.String("commit", head.String()),
			slog.Int("index", window.Index(head)),
		)
		return nil
	}
	details := make([]string, 0, len(window))
	for _, c := range window {
		details = append(details, c.String())
	}
	return &Violation{
		Submodule: p.Submodule,
		Reason: fmt.Sprintf("The submodule's commit (%s) is not one of the last %d commits in the `%s` %s branch.",
			head, p.Lag, p.Submodule, branchName(p.UpstreamRef)),
		Details: details,
	}
}

// CheckNotOlder fails when head sits strictly further back in the window
// than mainCommit, the submodule commit recorded on the main branch. When
// mainCommit is outside the window the positions cannot be compared and the
// check passes with a warning.
func CheckNotOlder(window Window, head, mainCommit plumbing.Hash, p config.Policy) error {
	mainBranch := branchName(p.MainRef)
	oldIndex := window.Index(mainCommit)
	if oldIndex < 0 {
		slog.Warn(fmt.Sprintf("The submodule pointed to by `%s` is not in the last %d commits from the `%s` %s branch.",
			mainBranch, p.Lag, p.Submodule, branchName(p.UpstreamRef)),
			slog.String("commit", mainCommit.String()),
		)
		return nil
	}
	newIndex := window.Index(head)
	if newIndex < 0 {
		return CheckRecency(window, head, p)
	}
	if newIndex > oldIndex {
		return &Violation{
			Submodule: p.Submodule,
			Reason: fmt.Sprintf("This branch's `%s` submodule's commit is older than the commit pointed to by the `%s` branch.",
				p.Submodule, mainBranch),
			Details: []string{
				fmt.Sprintf("This branch points to: %s", head),
				fmt.Sprintf("The `%s` branch to:  %s", mainBranch, mainCommit),
			},
		}
	}
	slog.Debug("submodule commit is not older than main",
		slog.Int("index", newIndex),
		slog.Int("main_index", oldIndex),
	)
	return nil
}

// branchName turns refs/remotes/origin/master into master.
func branchName(ref string) string {
	return path.Base(ref)
}
