package definition

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

type rawDocument struct {
	Name      string                    `json:"name"`
	Inherits  string                    `json:"inherits"`
	Metadata  map[string]any            `json:"metadata"`
	Settings  map[string]any            `json:"settings"`
	Overrides map[string]map[string]any `json:"overrides"`
}

// Parse decodes one definition document. name is the document identifier
// (file name without the .def.json suffix) and path its location, recorded
// for diagnostics.
func Parse(name, path string, data []byte) (*Document, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var raw rawDocument
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, name, err)
	}

	doc := &Document{
		Name:        name,
		DisplayName: raw.Name,
		Parent:      raw.Inherits,
		Path:        path,
		Metadata:    raw.Metadata,
		Overrides:   make(map[string]Attributes, len(raw.Overrides)),
	}
	if doc.Metadata == nil {
		doc.Metadata = map[string]any{}
	}

	for _, key := range sortedKeys(raw.Settings) {
		child, ok := raw.Settings[key].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s: settings.%s is not an object", ErrMalformed, name, key)
		}
		node, err := buildNode(key, child)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, name, err)
		}
		doc.Settings = append(doc.Settings, node)
	}

	for key, attrs := range raw.Overrides {
		doc.Overrides[key] = captureAttributes(attrs)
	}

	return doc, nil
}

var errNotObject = errors.New("children entry is not an object")

func buildNode(key string, raw map[string]any) (*Node, error) {
	node := &Node{Key: key, Kind: KindCategory}
	if typ, ok := raw[AttrType].(string); ok && typ != CategoryType {
		node.Kind = KindSetting
		node.Attributes = captureAttributes(raw)
	}

	children, _ := raw["children"].(map[string]any)
	for _, childKey := range sortedKeys(children) {
		childRaw, ok := children[childKey].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s.%s: %w", key, childKey, errNotObject)
		}
		child, err := buildNode(childKey, childRaw)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

func captureAttributes(raw map[string]any) Attributes {
	attrs := make(Attributes)
	for _, name := range allowedAttributes {
		if value, ok := raw[name]; ok {
			attrs[name] = value
		}
	}
	return attrs
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
