package definition

import (
	"sort"
)

// Kind distinguishes pure grouping nodes from settings.
type Kind uint8

const (
	KindCategory Kind = iota
	KindSetting
)

func (k Kind) String() string {
	if k == KindSetting {
		return "setting"
	}
	return "category"
}

// Attribute names captured for every setting node.
const (
	AttrDefaultValue        = "default_value"
	AttrValue               = "value"
	AttrType                = "type"
	AttrDescription         = "description"
	AttrUnit                = "unit"
	AttrMinimumValue        = "minimum_value"
	AttrMaximumValue        = "maximum_value"
	AttrEnabled             = "enabled"
	AttrSettablePerMesh     = "settable_per_mesh"
	AttrSettablePerExtruder = "settable_per_extruder"
	AttrOptions             = "options"
)

// CategoryType is the type marker of a pure grouping node.
const CategoryType = "category"

var allowedAttributes = []string{
	AttrDefaultValue,
	AttrValue,
	AttrType,
	AttrDescription,
	AttrUnit,
	AttrMinimumValue,
	AttrMaximumValue,
	AttrEnabled,
	AttrSettablePerMesh,
	AttrSettablePerExtruder,
	AttrOptions,
}

// AllowedAttributes returns the attribute allow-list in canonical order.
func AllowedAttributes() []string {
	out := make([]string, len(allowedAttributes))
	copy(out, allowedAttributes)
	return out
}

// IsAllowedAttribute reports whether name is captured from definitions.
func IsAllowedAttribute(name string) bool {
	for _, allowed := range allowedAttributes {
		if allowed == name {
			return true
		}
	}
	return false
}

// Attributes maps attribute names to their JSON-decoded values. Numbers are
// kept as json.Number so values round-trip exactly.
type Attributes map[string]any

// Clone returns a shallow copy.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Node is one entry of the setting tree.
type Node struct {
	Key        string
	Kind       Kind
	Attributes Attributes
	Children   []*Node
}

// Document is one parsed definition. It is immutable once loaded.
type Document struct {
	Name        string
	DisplayName string
	Parent      string
	Path        string
	Metadata    map[string]any
	Settings    []*Node
	Overrides   map[string]Attributes
}

// HasParent reports whether the document inherits from another definition.
func (d *Document) HasParent() bool {
	return d != nil && d.Parent != ""
}

// VisitSettings walks the tree depth-first in key order and calls fn for
// every setting node. Category nodes are descended into but not visited.
func (d *Document) VisitSettings(fn func(*Node)) {
	if d == nil {
		return
	}
	for _, node := range d.Settings {
		visit(node, fn)
	}
}

func visit(node *Node, fn func(*Node)) {
	for _, child := range node.Children {
		visit(child, fn)
	}
	if node.Kind == KindSetting {
		fn(node)
	}
}

// OverrideKeys returns the keys of the overrides block in sorted order.
func (d *Document) OverrideKeys() []string {
	if d == nil {
		return nil
	}
	keys := make([]string, 0, len(d.Overrides))
	for key := range d.Overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
