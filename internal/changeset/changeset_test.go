package changeset

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	out  string
	err  error
	name string
	args []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.name = name
	f.args = args
	return []byte(f.out), f.err
}

func TestLister_List(t *testing.T) {
	runner := &fakeRunner{out: "entries/a/a.com.json\n\nentries/b/b.com.json\r\n  \n"}
	lister := NewLister(DefaultBase, DefaultHead, DefaultDir, runner)

	paths, err := lister.List(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"entries/a/a.com.json", "entries/b/b.com.json"}, paths)
	assert.Equal(t, "git", runner.name)
	assert.Equal(t, []string{"diff", "--name-only", "--diff-filter=AM", "origin/master...HEAD", "--", "entries/"}, runner.args)
}

func TestLister_ListEmpty(t *testing.T) {
	lister := NewLister("main", "feature", "entries/", &fakeRunner{})

	paths, err := lister.List(context.Background())

	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestLister_ListError(t *testing.T) {
	cause := errors.New("exit status 128: fatal: bad revision")
	lister := NewLister("origin/master", "HEAD", "entries/", &fakeRunner{err: cause})

	paths, err := lister.List(context.Background())

	assert.Nil(t, paths)
	assert.ErrorIs(t, err, ErrGit)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "origin/master...HEAD")
}

func TestNewLister_DefaultRunner(t *testing.T) {
	lister := NewLister(DefaultBase, DefaultHead, DefaultDir, nil)

	assert.IsType(t, ExecRunner{}, lister.runner)
}

func TestExecRunner_Run(t *testing.T) {
	out, err := ExecRunner{}.Run(context.Background(), "go", "env", "GOOS")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}
