// Package inheritance resolves definition inheritance chains.
//
// A chain runs from the leaf definition a machine points at up to the
// generic root. Missing or malformed parents truncate the chain instead of
// failing, and a repeated name stops the walk with ErrCycle. Chains are
// memoized per leaf name for the lifetime of a Builder.
package inheritance

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"curaextract/internal/definition"
	"curaextract/internal/logging"
)

// ErrCycle reports that a definition inherits from itself, directly or
// through other definitions.
var ErrCycle = errors.New("inheritance cycle")

// Chain is an ordered leaf-to-root sequence of definitions.
type Chain struct {
	Leaf      string
	Documents []*definition.Document

	// Truncated names the definition that could not be loaded, if any.
	Truncated string
	// TruncatedErr carries the load failure (wraps definition.ErrNotFound
	// or definition.ErrMalformed).
	TruncatedErr error
	// Cycle names the definition that closed a loop, if any.
	Cycle string
}

// Len returns the number of resolved documents.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Documents)
}

// Names returns the document names leaf first.
func (c *Chain) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, len(c.Documents))
	for i, doc := range c.Documents {
		names[i] = doc.Name
	}
	return names
}

// RootToLeaf returns the documents in merge order.
func (c *Chain) RootToLeaf() []*definition.Document {
	if c == nil {
		return nil
	}
	out := make([]*definition.Document, len(c.Documents))
	for i, doc := range c.Documents {
		out[len(c.Documents)-1-i] = doc
	}
	return out
}

// Complete reports whether the walk ended at a document without a parent.
func (c *Chain) Complete() bool {
	return c != nil && c.Truncated == "" && c.Cycle == "" && len(c.Documents) > 0
}

// Err summarizes why the chain is shorter than its references imply.
func (c *Chain) Err() error {
	if c == nil {
		return nil
	}
	if c.Cycle != "" {
		return fmt.Errorf("%w: %s -> %s", ErrCycle, strings.Join(c.Names(), " -> "), c.Cycle)
	}
	if c.TruncatedErr != nil {
		return fmt.Errorf("chain for %s truncated at %s: %w", c.Leaf, c.Truncated, c.TruncatedErr)
	}
	return nil
}

// Builder walks parent references and caches the result per leaf name.
// It is safe for concurrent use.
type Builder struct {
	reader definition.Reader
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]*Chain
}

// NewBuilder returns a Builder reading through reader.
func NewBuilder(reader definition.Reader, logger *slog.Logger) *Builder {
	return &Builder{
		reader: reader,
		logger: logging.NewComponentLogger(logger, "inheritance"),
		cache:  make(map[string]*Chain),
	}
}

// Resolve returns the chain for leaf. Repeated calls return the same *Chain
// without touching the reader again.
func (b *Builder) Resolve(leaf string) *Chain {
	leaf = strings.TrimSpace(leaf)

	b.mu.Lock()
	defer b.mu.Unlock()

	if chain, ok := b.cache[leaf]; ok {
		return chain
	}
	chain := b.walk(leaf)
	b.cache[leaf] = chain
	return chain
}

// Cached reports whether leaf has already been resolved.
func (b *Builder) Cached(leaf string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.cache[strings.TrimSpace(leaf)]
	return ok
}

func (b *Builder) walk(leaf string) *Chain {
	chain := &Chain{Leaf: leaf}
	visited := make(map[string]struct{})

	for current := leaf; current != ""; {
		if _, seen := visited[current]; seen {
			chain.Cycle = current
			logging.WarnWithContext(b.logger, "definition inheritance cycle detected", "definition_cycle",
				logging.String(logging.FieldDefinition, current),
				logging.Strings("chain", chain.Names()),
				logging.String(logging.FieldErrorHint, "fix the inherits field of the listed definitions"),
				logging.String(logging.FieldImpact, "chain stops before the repeated definition"))
			break
		}
		visited[current] = struct{}{}

		doc, err := b.reader.Load(current)
		if err != nil {
			chain.Truncated = current
			chain.TruncatedErr = err
			eventType := "definition_unreadable"
			switch {
			case errors.Is(err, definition.ErrNotFound):
				eventType = "definition_not_found"
			case errors.Is(err, definition.ErrMalformed):
				eventType = "definition_malformed"
			}
			logging.WarnWithContext(b.logger, "definition chain truncated", eventType,
				logging.String(logging.FieldDefinition, current),
				logging.String("leaf", leaf),
				logging.Int("resolved", len(chain.Documents)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "verify install_dir points at a complete slicer install"),
				logging.String(logging.FieldImpact, "settings from the missing ancestors are not merged"))
			break
		}
		chain.Documents = append(chain.Documents, doc)
		current = doc.Parent
	}

	b.logger.Debug("resolved definition chain",
		logging.String("leaf", leaf),
		logging.Strings("chain", chain.Names()),
		logging.Bool("complete", chain.Complete()))
	return chain
}
