package diag

import (
	"fmt"
	"sort"
	"strings"
)

type goldenDiagnostic struct {
	Severity string
	Code     string
	Key      string
	Message  string
}

// FormatGoldenDiagnostics renders diagnostics into a stable, single-line-per-entry
// representation suitable for golden files: "<severity> <code> <key> <message>".
// Entries are sorted by key, then severity, code and message.
func FormatGoldenDiagnostics(diags []Diagnostic, includeNotes bool) string {
	if len(diags) == 0 {
		return ""
	}

	rendered := make([]goldenDiagnostic, 0, len(diags))
	for i := range diags {
		d := &diags[i]
		rendered = append(rendered, goldenDiagnostic{
			Severity: d.Severity.Label(),
			Code:     d.Code.ID(),
			Key:      d.Key,
			Message:  sanitizeMessage(d.Message),
		})
		if !includeNotes {
			continue
		}
		for _, note := range d.Notes {
			rendered = append(rendered, goldenDiagnostic{
				Severity: "note",
				Code:     d.Code.ID(),
				Key:      d.Key,
				Message:  sanitizeMessage(note.Msg),
			})
		}
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.Key != dj.Key {
			return di.Key < dj.Key
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		if di.Code != dj.Code {
			return di.Code < dj.Code
		}
		return di.Message < dj.Message
	})

	var b strings.Builder
	for i, d := range rendered {
		fmt.Fprintf(&b, "%s %s %s %s", d.Severity, d.Code, d.Key, d.Message)
		if i < len(rendered)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
