package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"rvabi/internal/driver"
)

type palette struct {
	path, fn, fail, faint *color.Color
	rewrite               map[string]*color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		path:  color.New(color.Bold),
		fn:    color.New(color.FgBlue, color.Bold),
		fail:  color.New(color.FgRed, color.Bold),
		faint: color.New(color.Faint),
		rewrite: map[string]*color.Color{
			"hardfloat":      color.New(color.FgCyan),
			"indirect-byval": color.New(color.FgMagenta),
			"integer":        color.New(color.FgYellow),
			"integer2":       color.New(color.FgYellow, color.Bold),
			"none":           color.New(color.Faint),
		},
	}
	for _, c := range append([]*color.Color{p.path, p.fn, p.fail, p.faint}, mapValues(p.rewrite)...) {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func mapValues(m map[string]*color.Color) []*color.Color {
	out := make([]*color.Color, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}

// writePretty renders the report as one aligned table per function.
func writePretty(w io.Writer, rep *driver.Report, enabled bool) error {
	p := newPalette(enabled)
	var sb strings.Builder
	for i, f := range rep.Files {
		if i > 0 {
			sb.WriteByte('\n')
		}
		if f.Error != "" {
			fmt.Fprintf(&sb, "%s %s\n", p.fail.Sprint("error:"), f.Error)
			continue
		}
		fmt.Fprintf(&sb, "%s  %s\n", p.path.Sprint(f.Path),
			p.faint.Sprintf("%s real=%d unwind=%s va_list=%s", f.Triple, f.RealSize, f.Unwind, f.VaList))
		for _, fn := range f.Funcs {
			writeFunc(&sb, p, fn)
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeFunc(sb *strings.Builder, p palette, fn driver.FuncReport) {
	fmt.Fprintf(sb, "  %s\n", p.fn.Sprint(fn.Name))
	rows := []driver.ArgReport{fn.Ret}
	if fn.SRet != nil {
		rows = append(rows, *fn.SRet)
	}
	rows = append(rows, fn.Params...)
	rows = append(rows, fn.Varargs...)

	var nameW, typeW, rewriteW, irW int
	for _, r := range rows {
		nameW = max(nameW, runewidth.StringWidth(r.Name))
		typeW = max(typeW, runewidth.StringWidth(r.Type))
		rewriteW = max(rewriteW, runewidth.StringWidth(r.Rewrite))
		irW = max(irW, runewidth.StringWidth(r.IRType))
	}
	for _, r := range rows {
		rw := p.rewrite[r.Rewrite]
		if rw == nil {
			rw = p.faint
		}
		line := "    " + runewidth.FillRight(r.Name, nameW) +
			"  " + runewidth.FillRight(r.Type, typeW) +
			"  " + rw.Sprint(runewidth.FillRight(r.Rewrite, rewriteW)) +
			"  " + runewidth.FillRight(r.IRType, irW) +
			"  " + p.faint.Sprintf("size=%d align=%d", r.Size, r.Align)
		if r.Attrs != "" {
			line += "  " + r.Attrs
		}
		sb.WriteString(strings.TrimRight(line, " ") + "\n")
	}
	sb.WriteString("    " + p.faint.Sprint(fn.Declare) + "\n")
}
