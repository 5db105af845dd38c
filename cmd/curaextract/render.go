package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"curaextract/internal/diagnostic"
	"curaextract/internal/inheritance"
)

type column struct {
	title string
	align text.Align
}

func left(title string) column  { return column{title: title, align: text.AlignLeft} }
func right(title string) column { return column{title: title, align: text.AlignRight} }

// tableView collects rows for one rounded table. Missing cells render empty
// and surplus cells are dropped.
type tableView struct {
	tw    table.Writer
	width int
}

func newTableView(columns ...column) *tableView {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.title
		configs[i] = table.ColumnConfig{Number: i + 1, Align: col.align, AlignHeader: text.AlignLeft}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)
	return &tableView{tw: tw, width: len(columns)}
}

func (v *tableView) add(cells ...string) {
	row := make(table.Row, v.width)
	for i := range row {
		row[i] = ""
		if i < len(cells) {
			row[i] = cells[i]
		}
	}
	v.tw.AppendRow(row)
}

func (v *tableView) render(w io.Writer) {
	fmt.Fprintln(w, v.tw.Render())
}

// chainRole labels a chain position. A truncated or cyclic chain never has
// a root row.
func chainRole(chain *inheritance.Chain, index int) string {
	last := index == chain.Len()-1
	switch {
	case index == 0 && last && chain.Complete():
		return "leaf/root"
	case index == 0:
		return "leaf"
	case last && chain.Complete():
		return "root"
	case last && chain.Cycle != "":
		return "cycle"
	case last:
		return "truncated"
	default:
		return "parent"
	}
}

// displayPath shortens path to be relative to root when it lies inside it.
func displayPath(root, path string) string {
	if root == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

type status int

const (
	statusInfo status = iota
	statusOK
	statusWarn
	statusError
)

var statusStyles = map[status]struct {
	label string
	color text.Colors
}{
	statusInfo:  {"INFO", text.Colors{text.FgBlue}},
	statusOK:    {"OK", text.Colors{text.FgGreen}},
	statusWarn:  {"WARN", text.Colors{text.FgYellow}},
	statusError: {"ERROR", text.Colors{text.FgRed}},
}

// diagnosticStatus maps a diagnostic onto a status. Broken documents are
// errors; anything the run could work around is a warning.
func diagnosticStatus(kind diagnostic.Kind) status {
	switch kind {
	case diagnostic.KindMalformed, diagnostic.KindCycle:
		return statusError
	default:
		return statusWarn
	}
}

const statusLabelWidth = 20

// printer writes status lines and sections, colored only on a terminal.
type printer struct {
	out      io.Writer
	colorize bool
}

func newPrinter(out io.Writer) *printer {
	colorize := false
	if file, ok := out.(*os.File); ok {
		fd := file.Fd()
		colorize = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	return &printer{out: out, colorize: colorize}
}

func (p *printer) paint(colors text.Colors, line string) string {
	if !p.colorize {
		return line
	}
	return colors.Sprint(line)
}

func (p *printer) status(label string, s status, message string) {
	style := statusStyles[s]
	line := fmt.Sprintf("  %-*s [%s]", statusLabelWidth, label+":", style.label)
	if message != "" {
		line += " " + message
	}
	fmt.Fprintln(p.out, p.paint(style.color, line))
}

func (p *printer) section(title string) {
	heading := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	fmt.Fprintln(p.out, p.paint(text.Colors{text.FgBlue}, heading))
	fmt.Fprintln(p.out, p.paint(text.Colors{text.FgBlue}, strings.Repeat("-", len(heading))))
}

func (p *printer) list(title string, items []string) {
	p.section(fmt.Sprintf("%s (%d)", title, len(items)))
	for _, item := range items {
		fmt.Fprintf(p.out, "  %s\n", item)
	}
	fmt.Fprintln(p.out)
}

func (p *printer) diagnostics(items []diagnostic.Diagnostic) {
	if len(items) == 0 {
		return
	}
	p.section("Diagnostics")
	for _, item := range items {
		p.status(string(item.Kind), diagnosticStatus(item.Kind), item.Subject+": "+item.Detail)
	}
}
