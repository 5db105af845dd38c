// Package manufacturer classifies the manufacturer that owns a machine from the
// names in its definition chain.
package manufacturer

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// BaseSuffix marks vendor base definitions such as creality_base.
const BaseSuffix = "_base"

// GenericSentinel is the prefix of the generic root (fdmprinter) which never
// names a vendor.
const GenericSentinel = "fdm"

// KnownVendors is the built-in prefix list.
var KnownVendors = []string{
	"creality",
	"prusa",
	"anycubic",
	"elegoo",
	"artillery",
	"flashforge",
	"lulzbot",
	"ultimaker",
	"makerbot",
	"voron",
}

// Rule maps one definition name to a vendor tag. Names are case-folded
// before matching.
type Rule interface {
	Name() string
	Match(definition string) (string, bool)
}

// SuffixRule matches names containing Suffix and returns the prefix before
// it, unless that prefix is empty or Reserved.
type SuffixRule struct {
	Suffix   string
	Reserved string
}

func (r SuffixRule) Name() string { return "suffix" }

func (r SuffixRule) Match(definition string) (string, bool) {
	idx := strings.Index(definition, r.Suffix)
	if idx <= 0 {
		return "", false
	}
	prefix := definition[:idx]
	if prefix == r.Reserved {
		return "", false
	}
	return prefix, true
}

// PrefixRule matches names starting with one of Vendors, in list order.
type PrefixRule struct {
	Vendors []string
}

func (r PrefixRule) Name() string { return "prefix" }

func (r PrefixRule) Match(definition string) (string, bool) {
	for _, known := range r.Vendors {
		if known != "" && strings.HasPrefix(definition, known) {
			return known, true
		}
	}
	return "", false
}

// DefaultRules returns the suffix rule followed by a prefix rule over the
// built-in vendors plus extra.
func DefaultRules(extra []string) []Rule {
	vendors := make([]string, 0, len(KnownVendors)+len(extra))
	vendors = append(vendors, KnownVendors...)
	for _, name := range extra {
		if name = fold(name); name != "" {
			vendors = append(vendors, name)
		}
	}
	return []Rule{
		SuffixRule{Suffix: BaseSuffix, Reserved: GenericSentinel},
		PrefixRule{Vendors: vendors},
	}
}

// Classifier applies an ordered rule list to a chain. It caches results per
// machine and is safe for concurrent use.
type Classifier struct {
	rules []Rule

	mu    sync.Mutex
	cache map[string]string
}

// NewClassifier returns a Classifier using DefaultRules(extra).
func NewClassifier(extra []string) *Classifier {
	return NewClassifierWithRules(DefaultRules(extra))
}

// NewClassifierWithRules returns a Classifier applying rules in order.
func NewClassifierWithRules(rules []Rule) *Classifier {
	copied := make([]Rule, len(rules))
	copy(copied, rules)
	return &Classifier{rules: copied, cache: make(map[string]string)}
}

// Classify returns the vendor tag for a leaf-to-root list of definition
// names, or "" when nothing matches. A non-empty override always wins and is
// returned as given, since it names a directory. For each name, every rule is
// tried before moving towards the root.
func (c *Classifier) Classify(names []string, override string) string {
	if tag := strings.TrimSpace(override); tag != "" {
		return tag
	}
	for _, name := range names {
		folded := fold(name)
		for _, rule := range c.rules {
			if tag, ok := rule.Match(folded); ok {
				return tag
			}
		}
	}
	return ""
}

// ForMachine classifies once per machine name and returns the cached tag on
// later calls.
func (c *Classifier) ForMachine(machine string, names []string, override string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if tag, ok := c.cache[machine]; ok {
		return tag
	}
	tag := c.Classify(names, override)
	c.cache[machine] = tag
	return tag
}

// Cached returns the stored tag for machine.
func (c *Classifier) Cached(machine string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tag, ok := c.cache[machine]
	return tag, ok
}

// DisplayName renders a tag for humans, e.g. "flashforge" -> "Flashforge".
func DisplayName(tag string) string {
	if tag == "" {
		return "none"
	}
	return cases.Title(language.English).String(strings.ReplaceAll(tag, "_", " "))
}

func fold(value string) string {
	return cases.Fold().String(strings.TrimSpace(value))
}
