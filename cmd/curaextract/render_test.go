package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"curaextract/internal/definition"
	"curaextract/internal/diagnostic"
	"curaextract/internal/inheritance"
)

func chainOf(names ...string) *inheritance.Chain {
	chain := &inheritance.Chain{Leaf: names[0]}
	for _, name := range names {
		chain.Documents = append(chain.Documents, &definition.Document{Name: name})
	}
	return chain
}

func TestChainRole(t *testing.T) {
	complete := chainOf("creality_ender3pro", "creality_base", "fdmprinter")
	want := []string{"leaf", "parent", "root"}
	for i, role := range want {
		if got := chainRole(complete, i); got != role {
			t.Errorf("complete chain role %d = %q, want %q", i, got, role)
		}
	}

	if got := chainRole(chainOf("fdmprinter"), 0); got != "leaf/root" {
		t.Errorf("single document role = %q", got)
	}

	truncated := chainOf("orphan_leaf", "orphan_parent")
	truncated.Truncated = "missing_base"
	if got := chainRole(truncated, 1); got != "truncated" {
		t.Errorf("truncated tail role = %q", got)
	}

	looped := chainOf("loop_a", "loop_b")
	looped.Cycle = "loop_a"
	if got := chainRole(looped, 1); got != "cycle" {
		t.Errorf("cyclic tail role = %q", got)
	}
}

func TestDisplayPath(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "cura", "definitions")
	inside := filepath.Join(root, "creality_base.def.json")
	outside := filepath.Join(string(filepath.Separator), "elsewhere", "x.def.json")

	if got := displayPath(root, inside); got != "creality_base.def.json" {
		t.Fatalf("expected relative path, got %q", got)
	}
	if got := displayPath(root, outside); got != outside {
		t.Fatalf("paths outside the root must stay absolute, got %q", got)
	}
	if got := displayPath("", inside); got != inside {
		t.Fatalf("empty root must keep the path, got %q", got)
	}
}

func TestTableViewPadsAndTrimsRows(t *testing.T) {
	view := newTableView(left("Type"), right("Settings"))
	view.add("standard")
	view.add("draft", "4", "surplus")

	var buf bytes.Buffer
	view.render(&buf)
	out := buf.String()
	for _, want := range []string{"Type", "Settings", "standard", "draft", "4"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in table, got %q", want, out)
		}
	}
	if strings.Contains(out, "surplus") {
		t.Fatalf("surplus cells must be dropped, got %q", out)
	}
}

func TestPrinterDiagnosticsWithoutColor(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf)
	p.diagnostics([]diagnostic.Diagnostic{
		{Kind: diagnostic.KindAmbiguous, Subject: "standard", Detail: "shadowed"},
		{Kind: diagnostic.KindCycle, Subject: "loop_a", Detail: "loop"},
	})

	out := buf.String()
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("non-terminal output must not be colored, got %q", out)
	}
	requireContains(t, out, "== Diagnostics ==")
	requireContains(t, out, "[WARN] standard: shadowed")
	requireContains(t, out, "[ERROR] loop_a: loop")
}
