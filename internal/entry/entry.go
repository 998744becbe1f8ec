// Package entry reads 2FA directory entry files and derives the URLs that
// must be reachable.
package entry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var ErrMalformedEntry = errors.New("malformed entry")

// Field names an entry key that contributes a check target.
type Field string

const (
	FieldURL               Field = "url"
	FieldDomain            Field = "domain"
	FieldAdditionalDomains Field = "additional-domains"
	FieldDocumentation     Field = "documentation"
	FieldRecovery          Field = "recovery"
)

// Optional is a string key that may be absent. A key set to null is present
// with an empty value.
type Optional struct {
	Set   bool
	Value string
}

func (o *Optional) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = ""
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// Entry is the value under the single top-level key of an entry file.
type Entry struct {
	Name              string   `json:"-"`
	URL               Optional `json:"url"`
	Domain            string   `json:"domain"`
	AdditionalDomains []string `json:"additional-domains"`
	Documentation     Optional `json:"documentation"`
	Recovery          Optional `json:"recovery"`
}

// Target is a URL to check together with the file it was found in.
type Target struct {
	Path  string
	Field Field
	URL   string
}

// Parse decodes an entry document. The document must be an object with
// exactly one key, the service name.
func Parse(data []byte) (*Entry, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEntry, err)
	}
	if len(doc) != 1 {
		return nil, fmt.Errorf("%w: expected 1 top-level key, got %d", ErrMalformedEntry, len(doc))
	}

	for name, raw := range doc {
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformedEntry, name, err)
		}
		e.Name = name
		return &e, nil
	}

	return nil, ErrMalformedEntry
}

// Load reads and parses the entry file at path.
func Load(path string) (*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read entry %s: %w", path, err)
	}

	e, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("cannot parse entry %s: %w", path, err)
	}

	return e, nil
}

// Targets lists the URLs to check for this entry, in check order: the site
// itself, additional domains, then documentation and recovery pages.
func (e *Entry) Targets(path string) []Target {
	targets := make([]Target, 0, 3+len(e.AdditionalDomains))

	if e.URL.Set {
		targets = append(targets, Target{Path: path, Field: FieldURL, URL: e.URL.Value})
	} else {
		targets = append(targets, Target{Path: path, Field: FieldDomain, URL: DomainURL(e.Domain)})
	}

	for _, domain := range e.AdditionalDomains {
		targets = append(targets, Target{Path: path, Field: FieldAdditionalDomains, URL: DomainURL(domain)})
	}

	if e.Documentation.Set {
		targets = append(targets, Target{Path: path, Field: FieldDocumentation, URL: e.Documentation.Value})
	}
	if e.Recovery.Set {
		targets = append(targets, Target{Path: path, Field: FieldRecovery, URL: e.Recovery.Value})
	}

	return targets
}

// DomainURL returns the https root URL of a bare domain.
func DomainURL(domain string) string {
	return "https://" + domain + "/"
}
