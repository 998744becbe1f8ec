// Package annotation turns check results into CI output.
package annotation

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sudosantos27/entry-url-validator/internal/checker"
	"github.com/sudosantos27/entry-url-validator/internal/entry"
)

const (
	FormatGitHub = "github"
	FormatJSON   = "json"
)

var ErrUnknownFormat = errors.New("unknown output format")

// Reporter receives every check result and every entry that could not be read.
// Implementations must be safe for concurrent use.
type Reporter interface {
	Result(target entry.Target, res checker.Result)
	EntryError(path string, err error)
	Close() error
}

// New returns the reporter for format, writing to w.
func New(format string, w io.Writer) (Reporter, error) {
	switch format {
	case FormatGitHub:
		return NewGitHub(w), nil
	case FormatJSON:
		return NewJSON(w), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Warning formats a workflow warning attached to file.
func Warning(file, message string) string {
	return fmt.Sprintf("::warning file=%s:: %s", file, message)
}

// Debug formats a workflow debug message.
func Debug(message string) string {
	return fmt.Sprintf("::debug:: %s", message)
}

// Lines returns the annotation lines for one check result, none on success.
func Lines(path string, res checker.Result) []string {
	switch res.Kind {
	case checker.KindSuccess:
		return nil
	case checker.KindHTTPError:
		return []string{Warning(path, fmt.Sprintf("Unexpected response from %s (%d)", res.URL, res.StatusCode))}
	}

	lines := []string{Warning(path, "Unable to reach "+res.URL)}
	// A URL without a host only means the entry lacks a domain; the schema
	// check reports that already.
	if res.Err != nil && !errors.Is(res.Err, checker.ErrMissingHost) {
		lines = append(lines, Debug(oneLine(res.Err.Error())))
	}
	return lines
}

// GitHub writes GitHub Actions workflow commands as results arrive.
type GitHub struct {
	mu sync.Mutex
	w  io.Writer
}

func NewGitHub(w io.Writer) *GitHub {
	return &GitHub{w: w}
}

func (g *GitHub) Result(target entry.Target, res checker.Result) {
	g.write(Lines(target.Path, res))
}

func (g *GitHub) EntryError(path string, err error) {
	g.write([]string{
		Warning(path, "Unable to parse entry"),
		Debug(oneLine(err.Error())),
	})
}

func (g *GitHub) Close() error {
	return nil
}

func (g *GitHub) write(lines []string) {
	if len(lines) == 0 {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	// One write per result so lines from parallel workers never interleave.
	_, _ = io.WriteString(g.w, strings.Join(lines, "\n")+"\n")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
