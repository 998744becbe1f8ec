package annotation

import (
	"encoding/json"
	"io"
	"sort"
	"sync"

	"github.com/sudosantos27/entry-url-validator/internal/checker"
	"github.com/sudosantos27/entry-url-validator/internal/entry"
)

// Record is one checked URL in the JSON report.
type Record struct {
	Path   string      `json:"path"`
	Field  entry.Field `json:"field"`
	Status string      `json:"status"`
	checker.Result
}

// EntryFailure is an entry file that could not be read.
type EntryFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Summary counts the outcomes of a run.
type Summary struct {
	Total   int `json:"total"`
	OK      int `json:"ok"`
	Fail    int `json:"fail"`
	Entries int `json:"entries_failed"`
}

type document struct {
	Results []Record       `json:"results"`
	Entries []EntryFailure `json:"entry_errors,omitempty"`
	Summary Summary        `json:"summary"`
}

// JSON collects results and prints them as one document on Close.
type JSON struct {
	mu  sync.Mutex
	w   io.Writer
	doc document
}

func NewJSON(w io.Writer) *JSON {
	return &JSON{w: w, doc: document{Results: []Record{}}}
}

func (j *JSON) Result(target entry.Target, res checker.Result) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.doc.Results = append(j.doc.Results, Record{
		Path:   target.Path,
		Field:  target.Field,
		Status: res.Kind.String(),
		Result: res,
	})
	j.doc.Summary.Total++
	if res.OK() {
		j.doc.Summary.OK++
	} else {
		j.doc.Summary.Fail++
	}
}

func (j *JSON) EntryError(path string, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.doc.Entries = append(j.doc.Entries, EntryFailure{Path: path, Error: err.Error()})
	j.doc.Summary.Entries++
}

// Close writes the document. Results are sorted by path so output does not
// depend on worker scheduling; order within a path is check order.
func (j *JSON) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	sort.SliceStable(j.doc.Results, func(a, b int) bool {
		return j.doc.Results[a].Path < j.doc.Results[b].Path
	})
	sort.SliceStable(j.doc.Entries, func(a, b int) bool {
		return j.doc.Entries[a].Path < j.doc.Entries[b].Path
	})

	encoder := json.NewEncoder(j.w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(j.doc)
}
