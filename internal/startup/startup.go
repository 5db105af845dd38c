// Package startup resolves the start and end g-code text for a machine.
//
// Each key is looked up on its own: first in the machine's settings override
// document, then in the overrides blocks of the definition chain from leaf to
// root. The two keys may therefore come from different sources.
package startup

import (
	"fmt"

	"curaextract/internal/definition"
	"curaextract/internal/inheritance"
	"curaextract/internal/profile"
)

// Source kinds.
const (
	SourceOverride   = "definition_changes"
	SourceDefinition = "definition"
	SourceNone       = "none"
)

// Source describes where a sequence was found.
type Source struct {
	Kind string `json:"kind"`
	Name string `json:"name,omitempty"`
	Path string `json:"path,omitempty"`
}

// Sequence is one resolved key.
type Sequence struct {
	Key    string `json:"key"`
	Text   string `json:"text"`
	Found  bool   `json:"found"`
	Source Source `json:"source"`
}

// Resolution holds both sequences.
type Resolution struct {
	Start Sequence `json:"start"`
	End   Sequence `json:"end"`
}

// Resolve looks up startKey and endKey. overrideDoc may be nil. Empty values
// do not count as found.
func Resolve(chain *inheritance.Chain, overrideDoc *profile.Document, startKey, endKey string) Resolution {
	return Resolution{
		Start: resolveKey(chain, overrideDoc, startKey),
		End:   resolveKey(chain, overrideDoc, endKey),
	}
}

func resolveKey(chain *inheritance.Chain, overrideDoc *profile.Document, key string) Sequence {
	seq := Sequence{Key: key, Source: Source{Kind: SourceNone}}
	if key == "" {
		return seq
	}

	if overrideDoc != nil {
		if text, ok := overrideDoc.Get(profile.SectionValues, key); ok && text != "" {
			seq.Text = text
			seq.Found = true
			seq.Source = Source{Kind: SourceOverride, Name: overrideDoc.Name(), Path: overrideDoc.Path}
			return seq
		}
	}

	if chain == nil {
		return seq
	}
	for _, doc := range chain.Documents {
		attrs, ok := doc.Overrides[key]
		if !ok {
			continue
		}
		value, ok := attrs[definition.AttrDefaultValue]
		if !ok {
			continue
		}
		text := textOf(value)
		if text == "" {
			continue
		}
		seq.Text = text
		seq.Found = true
		seq.Source = Source{Kind: SourceDefinition, Name: doc.Name, Path: doc.Path}
		return seq
	}
	return seq
}

func textOf(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
