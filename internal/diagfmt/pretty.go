package diagfmt

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"nullcheck/internal/diag"
)

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
//
//	<SEV>[<ID>] <Rule>: <Message>
//	  --> <assembly>
//	  = key: <identity key>
//	  = note: <note>
//
// Цвет включается опцией.
func Pretty(w io.Writer, bag *diag.Bag, opts PrettyOpts) {
	if bag == nil {
		return
	}
	p := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		head := fmt.Sprintf("%s[%s]", d.Severity.Label(), d.Code.ID())
		title := d.Code.RuleName()
		if title == "" {
			title = d.Code.Title()
		}
		msg := d.Message
		if opts.Width > 0 {
			// ширина считается по сырому тексту, без escape-последовательностей
			room := int(opts.Width) - runewidth.StringWidth(head+" "+title+": ")
			msg = truncate(msg, max(room, 4))
		}
		fmt.Fprintf(w, "%s %s %s\n", p.severity(d.Severity).Sprint(head), p.rule.Sprint(title+":"), msg)

		if loc := formatPath(d.Location, opts.PathMode, opts.BaseDir); loc != "" {
			fmt.Fprintf(w, "  %s %s\n", p.arrow.Sprint("-->"), truncate(loc, int(opts.Width)-6))
		}
		if !opts.ShowNotes {
			continue
		}
		if d.Key != "" {
			fmt.Fprintf(w, "  %s key: %s\n", p.arrow.Sprint("="), d.Key)
		}
		for _, n := range d.Notes {
			fmt.Fprintf(w, "  %s note: %s\n", p.arrow.Sprint("="), n.Msg)
		}
	}
	if opts.Summary {
		if bag.Len() > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, summaryLine(bag))
	}
}

func summaryLine(bag *diag.Bag) string {
	counts := bag.CountByCode()
	if len(counts) == 0 {
		return "no diagnostics"
	}
	dropped := ""
	if n := bag.Dropped(); n > 0 {
		dropped = fmt.Sprintf("; %d more over the limit", n)
	}
	codes := make([]diag.Code, 0, len(counts))
	for c := range counts {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	parts := make([]string, 0, len(codes))
	for _, c := range codes {
		parts = append(parts, fmt.Sprintf("%s=%d", c.ID(), counts[c]))
	}
	noun := "diagnostics"
	if bag.Len() == 1 {
		noun = "diagnostic"
	}
	return fmt.Sprintf("%d %s (%s)%s", bag.Len(), noun, strings.Join(parts, ", "), dropped)
}

type palette struct {
	errColor  *color.Color
	warnColor *color.Color
	infoColor *color.Color
	rule      *color.Color
	arrow     *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		errColor:  color.New(color.FgRed, color.Bold),
		warnColor: color.New(color.FgYellow, color.Bold),
		infoColor: color.New(color.FgCyan),
		rule:      color.New(color.Bold),
		arrow:     color.New(color.FgBlue),
	}
	for _, c := range []*color.Color{p.errColor, p.warnColor, p.infoColor, p.rule, p.arrow} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.errColor
	case diag.SevWarning:
		return p.warnColor
	default:
		return p.infoColor
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
