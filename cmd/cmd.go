package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/questdb/submodule-mergeable/internal/buildinfo"
	"github.com/questdb/submodule-mergeable/internal/clierr"
	"github.com/questdb/submodule-mergeable/internal/config"
	"github.com/questdb/submodule-mergeable/internal/git"
	"github.com/questdb/submodule-mergeable/internal/mergeable"
)

const name = "submodule-mergeable"

type options struct {
	repoPath   string
	configPath string
	verbose    bool
	policy     config.Policy
}

func Run() error {
	return NewRootCmd().Execute()
}

// PrintError writes err for the operator. Policy violations are printed as
// their diagnostic; anything else gets the program name prefix.
func PrintError(w io.Writer, err error) {
	var v *mergeable.Violation
	if errors.As(err, &v) {
		fmt.Fprint(w, v.Error())
		return
	}
	fmt.Fprintf(w, "%s: %v\n", name, err)
}

func NewRootCmd() *cobra.Command {
	opts := &options{policy: config.Default()}
	cmd := &cobra.Command{
		Use:   name,
		Short: "Check that a submodule pointer is mergeable",
		Long: `Check that the submodule checked out in a parent repository points to one
of the most recent commits of its upstream master branch and, optionally,
is not older than the commit already pinned by the parent's main branch.

Run from the parent repository after fetching both repositories:

    git fetch
    (cd e2e/questdb && git fetch)
    submodule-mergeable

Nothing in either repository is modified.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.NoArgs(cmd, args); err != nil {
				return clierr.Wrap(clierr.ExitUsage, "invalid arguments", err)
			}
			return nil
		},
		Version:       buildinfo.VersionWithTags(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return clierr.Wrap(clierr.ExitUsage, "invalid arguments", err)
	})

	flags := cmd.Flags()
	flags.StringVarP(&opts.repoPath, "repo", "C", ".", "path to the parent repository")
	flags.StringVar(&opts.configPath, "config", "", "YAML policy file")
	flags.IntVar(&opts.policy.Lag, "lag", config.DefaultLag, "number of commits the submodule may be behind upstream master")
	flags.StringVar(&opts.policy.Submodule, "submodule", config.DefaultSubmodule, "submodule name in .gitmodules")
	flags.StringVar(&opts.policy.SubmodulePath, "submodule-path", config.DefaultSubmodulePath, "submodule path in the main branch tree")
	flags.StringVar(&opts.policy.UpstreamRef, "upstream-ref", config.DefaultUpstreamRef, "upstream master reference in the submodule")
	flags.StringVar(&opts.policy.MainRef, "main-ref", config.DefaultMainRef, "main branch reference in the parent repository")
	flags.BoolVar(&opts.policy.CheckNotOlder, "check-not-older", false, "also fail when the submodule is older than the one pinned on main")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")
	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

	policy, err := resolvePolicy(cmd, opts)
	if err != nil {
		return err
	}
	parent, err := git.Open(opts.repoPath)
	if err != nil {
		return err
	}
	res, err := mergeable.New(policy).Run(parent)
	if err != nil {
		return err
	}
	slog.Debug("submodule is mergeable",
		slog.String("submodule", policy.Submodule),
		slog.String("commit", res.Head.String()),
	)
	return nil
}

// resolvePolicy layers defaults, the policy file, and explicitly set flags.
func resolvePolicy(cmd *cobra.Command, opts *options) (config.Policy, error) {
	policy := opts.policy
	if opts.configPath != "" {
		fromFile, err := config.Load(opts.configPath)
		if err != nil {
			return config.Policy{}, clierr.Wrap(clierr.ExitUsage, "load policy", err)
		}
		policy = overlayFlags(cmd, fromFile, opts.policy)
	}
	if err := policy.Validate(); err != nil {
		return config.Policy{}, clierr.Wrap(clierr.ExitUsage, "invalid policy", err)
	}
	slog.Debug("policy resolved",
		slog.Int("lag", policy.Lag),
		slog.String("submodule", policy.Submodule),
		slog.String("upstream_ref", policy.UpstreamRef),
		slog.Bool("check_not_older", policy.CheckNotOlder),
	)
	return policy, nil
}

func overlayFlags(cmd *cobra.Command, base, flagged config.Policy) config.Policy {
	flags := cmd.Flags()
	if flags.Changed("lag") {
		base.Lag = flagged.Lag
	}
	if flags.Changed("submodule") {
		base.Submodule = flagged.Submodule
	}
	if flags.Changed("submodule-path") {
		base.SubmodulePath = flagged.SubmodulePath
	}
	if flags.Changed("upstream-ref") {
		base.UpstreamRef = flagged.UpstreamRef
	}
	if flags.Changed("main-ref") {
		base.MainRef = flagged.MainRef
	}
	if flags.Changed("check-not-older") {
		base.CheckNotOlder = flagged.CheckNotOlder
	}
	return base
}
