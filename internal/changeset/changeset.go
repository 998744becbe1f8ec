// Package changeset lists the entry files touched by a proposed update.
package changeset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

const (
	DefaultBase = "origin/master"
	DefaultHead = "HEAD"
	DefaultDir  = "entries/"
)

var ErrGit = errors.New("git diff failed")

// Runner executes a command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec in the current working directory.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", err, msg)
	}

	return out, nil
}

// Lister finds files added or modified under Dir between Base and Head.
type Lister struct {
	Base   string
	Head   string
	Dir    string
	runner Runner
}

func NewLister(base, head, dir string, runner Runner) *Lister {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Lister{
		Base:   base,
		Head:   head,
		Dir:    dir,
		runner: runner,
	}
}

// Args returns the git arguments used by List.
func (l *Lister) Args() []string {
	return []string{
		"diff",
		"--name-only",
		"--diff-filter=AM",
		l.Base + "..." + l.Head,
		"--",
		l.Dir,
	}
}

// List returns the changed paths in the order git reports them.
func (l *Lister) List(ctx context.Context) ([]string, error) {
	out, err := l.runner.Run(ctx, "git", l.Args()...)
	if err != nil {
		return nil, fmt.Errorf("%w (%s...%s %s): %w", ErrGit, l.Base, l.Head, l.Dir, err)
	}

	return parsePaths(out), nil
}

func parsePaths(out []byte) []string {
	var paths []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			paths = append(paths, line)
		}
	}
	return paths
}
