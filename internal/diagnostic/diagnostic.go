// Package diagnostic records the non-fatal conditions met while resolving a
// machine: missing or malformed documents, duplicate quality keys and
// inheritance cycles.
package diagnostic

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"curaextract/internal/definition"
	"curaextract/internal/profile"
)

// Kind classifies a diagnostic.
type Kind string

const (
	KindNotFound  Kind = "not_found"
	KindMalformed Kind = "malformed"
	KindAmbiguous Kind = "ambiguous"
	KindCycle     Kind = "cycle"
)

// Diagnostic is one recorded condition.
type Diagnostic struct {
	Kind    Kind   `json:"kind"`
	Subject string `json:"subject"`
	Path    string `json:"path,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Path != "" {
		return fmt.Sprintf("%s %s (%s): %s", d.Kind, d.Subject, d.Path, d.Detail)
	}
	return fmt.Sprintf("%s %s: %s", d.Kind, d.Subject, d.Detail)
}

// KindOf maps a load error onto a diagnostic kind. Errors outside the known
// taxonomy (permission problems and the like) count as malformed.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, definition.ErrNotFound), errors.Is(err, profile.ErrNotFound):
		return KindNotFound
	default:
		return KindMalformed
	}
}

// FromError builds a diagnostic for a failed load.
func FromError(subject, path string, err error) Diagnostic {
	return Diagnostic{Kind: KindOf(err), Subject: subject, Path: path, Detail: err.Error()}
}

// List accumulates diagnostics. The zero value is ready to use and safe
// for concurrent use.
type List struct {
	mu    sync.Mutex
	items []Diagnostic
}

// Add appends diagnostics.
func (l *List) Add(items ...Diagnostic) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, items...)
}

// Items returns a copy in insertion order.
func (l *List) Items() []Diagnostic {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Diagnostic, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of diagnostics.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// CountByKind tallies items per kind.
func CountByKind(items []Diagnostic) map[Kind]int {
	counts := make(map[Kind]int)
	for _, item := range items {
		counts[item.Kind]++
	}
	return counts
}

// Kinds returns the kinds present in items, sorted.
func Kinds(items []Diagnostic) []Kind {
	counts := CountByKind(items)
	out := make([]Kind, 0, len(counts))
	for kind := range counts {
		out = append(out, kind)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
