// Package settings folds an inheritance chain into one effective settings map.
package settings

import (
	"encoding/json"
	"sort"

	"curaextract/internal/definition"
	"curaextract/internal/inheritance"
)

const (
	// EffectiveValue is the attribute written by the override layer.
	EffectiveValue = "effective_value"
	// OverrideSource is the provenance marker of the override layer.
	OverrideSource = "definition_changes"
)

// Descriptor is the merged view of one setting key.
type Descriptor struct {
	Key        string
	Attributes definition.Attributes
	Provenance []string
	PatchedBy  string
}

// MarshalJSON renders the attributes flat next to provenance and patched_by.
func (d *Descriptor) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Attributes)+2)
	for name, value := range d.Attributes {
		out[name] = value
	}
	provenance := d.Provenance
	if provenance == nil {
		provenance = []string{}
	}
	out["provenance"] = provenance
	if d.PatchedBy != "" {
		out["patched_by"] = d.PatchedBy
	}
	return json.Marshal(out)
}

// Value returns the most specific value: effective_value, then value, then
// default_value.
func (d *Descriptor) Value() (any, bool) {
	if d == nil {
		return nil, false
	}
	for _, name := range []string{EffectiveValue, definition.AttrValue, definition.AttrDefaultValue} {
		if value, ok := d.Attributes[name]; ok {
			return value, true
		}
	}
	return nil, false
}

// Source returns the last provenance entry.
func (d *Descriptor) Source() string {
	if d == nil || len(d.Provenance) == 0 {
		return ""
	}
	return d.Provenance[len(d.Provenance)-1]
}

func (d *Descriptor) clone() *Descriptor {
	out := &Descriptor{
		Key:        d.Key,
		Attributes: d.Attributes.Clone(),
		PatchedBy:  d.PatchedBy,
	}
	out.Provenance = append([]string(nil), d.Provenance...)
	return out
}

// Map is the effective settings map keyed by setting key.
type Map map[string]*Descriptor

// Keys returns the setting keys in lexical order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// OverrideLayer holds user customization values keyed by setting key.
type OverrideLayer map[string]string

// Merge folds chain root to leaf and applies layer. A nil chain or layer is
// treated as empty.
//
// Each document a key passes through overwrites its attributes and is
// appended to its provenance, root first. An overrides block only moves
// PatchedBy. The layer goes last, so definition_changes is always the final
// provenance entry.
func Merge(chain *inheritance.Chain, layer OverrideLayer) Map {
	return MergeDocuments(chain.RootToLeaf(), layer)
}

// MergeDocuments is Merge over an explicit root-to-leaf document list.
func MergeDocuments(rootToLeaf []*definition.Document, layer OverrideLayer) Map {
	effective := make(Map)
	for _, doc := range rootToLeaf {
		for key, local := range documentSettings(doc) {
			current, ok := effective[key]
			if !ok {
				effective[key] = local
				continue
			}
			for name, value := range local.Attributes {
				current.Attributes[name] = value
			}
			current.Provenance = append(current.Provenance, local.Provenance...)
			if local.PatchedBy != "" {
				current.PatchedBy = local.PatchedBy
			}
		}
	}
	applyLayer(effective, layer)
	return effective
}

// documentSettings captures one document's contribution: its setting nodes
// followed by its overrides block.
func documentSettings(doc *definition.Document) Map {
	local := make(Map)
	doc.VisitSettings(func(node *definition.Node) {
		local[node.Key] = &Descriptor{
			Key:        node.Key,
			Attributes: node.Attributes.Clone(),
			Provenance: []string{doc.Name},
		}
	})
	for _, key := range doc.OverrideKeys() {
		entry, ok := local[key]
		if !ok {
			entry = &Descriptor{
				Key:        key,
				Attributes: make(definition.Attributes),
				Provenance: []string{doc.Name},
			}
			local[key] = entry
		}
		for name, value := range doc.Overrides[key] {
			entry.Attributes[name] = value
		}
		entry.PatchedBy = doc.Name
	}
	return local
}

func applyLayer(effective Map, layer OverrideLayer) {
	keys := make([]string, 0, len(layer))
	for key := range layer {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		entry, ok := effective[key]
		if !ok {
			entry = &Descriptor{Key: key, Attributes: make(definition.Attributes)}
			effective[key] = entry
		}
		entry.Attributes[EffectiveValue] = layer[key]
		entry.Provenance = append(entry.Provenance, OverrideSource)
	}
}

// Clone returns a deep copy of m.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for key, desc := range m {
		out[key] = desc.clone()
	}
	return out
}
