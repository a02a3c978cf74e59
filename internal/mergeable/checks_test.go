package mergeable

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questdb/submodule-mergeable/internal/clierr"
	"github.com/questdb/submodule-mergeable/internal/config"
)

func hash(i int) plumbing.Hash {
	return plumbing.NewHash(fmt.Sprintf("%040x", i))
}

// testWindow mirrors upstream master [C5 C4 C3 C2 C1 C0 Cm1].
func testWindow() Window {
	w := make(Window, 0, 7)
	for i := 7; i >= 1; i-- {
		w = append(w, hash(i))
	}
	return w
}

func TestWindowIndex(t *testing.T) {
	w := testWindow()

	assert.Equal(t, 0, w.Index(hash(7)))
	assert.Equal(t, 6, w.Index(hash(1)))
	assert.Equal(t, -1, w.Index(hash(42)))
	assert.True(t, w.Contains(hash(4)))
	assert.False(t, w.Contains(plumbing.ZeroHash))
}

func TestCheckRecency(t *testing.T) {
	w := testWindow()
	p := config.Default()

	tests := []struct {
		name    string
		head    plumbing.Hash
		wantErr bool
	}{
		{name: "upstream head", head: w[0], wantErr: false},
		{name: "lag commits behind", head: w[p.Lag], wantErr: false},
		{name: "last window entry", head: w[len(w)-1], wantErr: false},
		{name: "outside window", head: hash(0), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRecency(w, tt.head, p)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			var v *Violation
			require.ErrorAs(t, err, &v)
			assert.Len(t, v.Details, len(w))
		})
	}
}

func TestCheckRecencyMessage(t *testing.T) {
	w := testWindow()
	head := hash(0)

	err := CheckRecency(w, head, config.Default())
	require.Error(t, err)

	var b strings.Builder
	b.WriteString("The `questdb` submodule is not mergeable.\n")
	fmt.Fprintf(&b, "The submodule's commit (%s) is not one of the last 5 commits in the `questdb` master branch.\n", head)
	for _, c := range w {
		fmt.Fprintf(&b, "  * %s\n", c)
	}
	assert.Equal(t, b.String(), err.Error())
	assert.Equal(t, clierr.ExitFailure, clierr.ExitCodeOf(err))
}

func TestCheckRecencyEmptyWindow(t *testing.T) {
	err := CheckRecency(nil, hash(1), config.Default())

	var v *Violation
	require.ErrorAs(t, err, &v)
	assert.Empty(t, v.Details)
}

func TestCheckRecencyIsIdempotent(t *testing.T) {
	w := testWindow()
	p := config.Default()

	first := CheckRecency(w, hash(0), p)
	second := CheckRecency(w, hash(0), p)
	require.Error(t, first)
	require.Error(t, second)
	assert.Equal(t, first.Error(), second.Error())
}

func TestCheckNotOlder(t *testing.T) {
	w := testWindow()
	p := config.Default()

	tests := []struct {
		name    string
		head    plumbing.Hash
		main    plumbing.Hash
		wantErr bool
	}{
		{name: "same commit", head: w[2], main: w[2], wantErr: false},
		{name: "newer than main", head: w[1], main: w[4], wantErr: false},
		{name: "older than main", head: w[4], main: w[1], wantErr: true},
		{name: "main outside window", head: w[6], main: hash(0), wantErr: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckNotOlder(w, tt.head, tt.main, p)
			if tt.wantErr {
				var v *Violation
				require.ErrorAs(t, err, &v)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCheckNotOlderMessage(t *testing.T) {
	w := testWindow()
	head, mainCommit := w[5], w[3]

	err := CheckNotOlder(w, head, mainCommit, config.Default())
	require.Error(t, err)

	want := "The `questdb` submodule is not mergeable.\n" +
		"This branch's `questdb` submodule's commit is older than the commit pointed to by the `main` branch.\n" +
		fmt.Sprintf("  * This branch points to: %s\n", head) +
		fmt.Sprintf("  * The `main` branch to:  %s\n", mainCommit)
	assert.Equal(t, want, err.Error())
}

func TestCheckNotOlderHeadOutsideWindow(t *testing.T) {
	w := testWindow()

	err := CheckNotOlder(w, hash(0), w[3], config.Default())

	var v *Violation
	require.True(t, errors.As(err, &v))
	assert.Contains(t, v.Reason, "is not one of the last 5 commits")
}

func TestViolationUsesPolicyNames(t *testing.T) {
	p := config.Default()
	p.Submodule = "core"
	p.UpstreamRef = "refs/remotes/upstream/trunk"
	p.Lag = 1

	err := CheckRecency(Window{hash(1), hash(2), hash(3)}, hash(9), p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "The `core` submodule is not mergeable.")
	assert.Contains(t, err.Error(), "last 1 commits in the `core` trunk branch.")
}
