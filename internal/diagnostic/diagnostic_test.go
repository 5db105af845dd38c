package diagnostic_test

import (
	"fmt"
	"testing"

	"curaextract/internal/definition"
	"curaextract/internal/diagnostic"
	"curaextract/internal/profile"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want diagnostic.Kind
	}{
		{fmt.Errorf("wrap: %w", definition.ErrNotFound), diagnostic.KindNotFound},
		{fmt.Errorf("wrap: %w", profile.ErrNotFound), diagnostic.KindNotFound},
		{fmt.Errorf("wrap: %w", definition.ErrMalformed), diagnostic.KindMalformed},
		{fmt.Errorf("permission denied"), diagnostic.KindMalformed},
	}
	for _, tt := range tests {
		if got := diagnostic.KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestListAccumulates(t *testing.T) {
	var list diagnostic.List
	list.Add(diagnostic.Diagnostic{Kind: diagnostic.KindCycle, Subject: "a"})
	list.Add(
		diagnostic.FromError("b", "/defs/b.def.json", definition.ErrNotFound),
		diagnostic.Diagnostic{Kind: diagnostic.KindCycle, Subject: "c"},
	)

	items := list.Items()
	if list.Len() != 3 || items[1].Kind != diagnostic.KindNotFound || items[1].Path != "/defs/b.def.json" {
		t.Fatalf("unexpected items %+v", items)
	}
	items[0].Subject = "mutated"
	if list.Items()[0].Subject != "a" {
		t.Fatal("Items must return a copy")
	}
	if counts := diagnostic.CountByKind(items); counts[diagnostic.KindCycle] != 2 {
		t.Fatalf("unexpected counts %v", counts)
	}
	if kinds := diagnostic.Kinds(items); len(kinds) != 2 || kinds[0] != diagnostic.KindCycle {
		t.Fatalf("unexpected kinds %v", kinds)
	}
}
