// Package config holds the merge policy: how far a submodule may lag behind
// upstream and where to find the refs and paths the checks read.
//
// Every field has a default, so the tool runs with no configuration at all.
// A YAML policy file can override any subset:
//
//	acceptable_lag: 5
//	submodule: questdb
//	submodule_path: e2e/questdb
//	upstream_ref: refs/remotes/origin/master
//	main_ref: refs/remotes/origin/main
//	check_not_older: false
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultLag is the number of commits the submodule may be behind
	// upstream master. Older than this, it really ought to be updated.
	DefaultLag = 5

	DefaultSubmodule     = "questdb"
	DefaultSubmodulePath = "e2e/questdb"
	DefaultUpstreamRef   = "refs/remotes/origin/master"
	DefaultMainRef       = "refs/remotes/origin/main"
)

var ErrInvalidPolicy = errors.New("invalid policy")

type Policy struct {
	Lag           int    `yaml:"acceptable_lag"`
	Submodule     string `yaml:"submodule"`
	SubmodulePath string `yaml:"submodule_path"`
	UpstreamRef   string `yaml:"upstream_ref"`
	MainRef       string `yaml:"main_ref"`
	CheckNotOlder bool   `yaml:"check_not_older"`
}

func Default() Policy {
	return Policy{
		Lag:           DefaultLag,
		Submodule:     DefaultSubmodule,
		SubmodulePath: DefaultSubmodulePath,
		UpstreamRef:   DefaultUpstreamRef,
		MainRef:       DefaultMainRef,
	}
}

// WindowSize is the number of upstream commits collected, newest first.
func (p Policy) WindowSize() int {
	return p.Lag + 2
}

func (p Policy) Validate() error {
	if p.Lag < 0 {
		return fmt.Errorf("%w: acceptable_lag must not be negative, got %d", ErrInvalidPolicy, p.Lag)
	}
	fields := []struct {
		name  string
		value string
	}{
		{"submodule", p.Submodule},
		{"submodule_path", p.SubmodulePath},
		{"upstream_ref", p.UpstreamRef},
		{"main_ref", p.MainRef},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s must not be empty", ErrInvalidPolicy, f.name)
		}
	}
	if !strings.HasPrefix(p.UpstreamRef, "refs/") || !strings.HasPrefix(p.MainRef, "refs/") {
		return fmt.Errorf("%w: refs must be full names starting with refs/", ErrInvalidPolicy)
	}
	return nil
}

// Load reads a policy file on top of the defaults.
func Load(path string) (Policy, error) {
	f, err := os.Open(path)
	if err != nil {
		return Policy{}, fmt.Errorf("open policy: %w", err)
	}
	defer f.Close()
	p, err := Parse(f)
	if err != nil {
		return Policy{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes YAML on top of the defaults. Unknown keys are rejected.
func Parse(r io.Reader) (Policy, error) {
	p := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Policy{}, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	return p, nil
}
