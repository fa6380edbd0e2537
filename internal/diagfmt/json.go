package diagfmt

import (
	"encoding/json"
	"io"

	"nullcheck/internal/diag"
)

// DiagnosticJSON представляет диагностику в JSON формате
type DiagnosticJSON struct {
	Severity string   `json:"severity"`
	Code     string   `json:"code"`
	Rule     string   `json:"rule,omitempty"`
	Key      string   `json:"key"`
	Kind     string   `json:"kind,omitempty"`
	Symbol   string   `json:"symbol,omitempty"`
	Location string   `json:"location,omitempty"`
	Message  string   `json:"message"`
	Notes    []string `json:"notes,omitempty"`
}

// DiagnosticsOutput представляет корневую структуру JSON вывода
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
	// Truncated is set when Max or the bag limit cut the list short.
	Truncated bool `json:"truncated,omitempty"`
	// Dropped counts diagnostics the bag limit rejected.
	Dropped int `json:"dropped,omitempty"`
}

// BuildDiagnosticsOutput формирует структуру JSON-вывода без сериализации.
func BuildDiagnosticsOutput(bag *diag.Bag, opts JSONOpts) DiagnosticsOutput {
	var items []diag.Diagnostic
	if bag != nil {
		items = bag.Items()
	}
	maxItems := len(items)
	if opts.Max > 0 && opts.Max < maxItems {
		maxItems = opts.Max
	}

	diagnostics := make([]DiagnosticJSON, 0, maxItems)
	for i := range maxItems {
		d := items[i]
		dj := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Rule:     d.Code.RuleName(),
			Key:      d.Key,
			Kind:     d.Kind,
			Symbol:   d.Symbol,
			Location: formatPath(d.Location, opts.PathMode, opts.BaseDir),
			Message:  d.Message,
		}
		if opts.IncludeNotes && len(d.Notes) > 0 {
			dj.Notes = make([]string, len(d.Notes))
			for j, n := range d.Notes {
				dj.Notes[j] = n.Msg
			}
		}
		diagnostics = append(diagnostics, dj)
	}
	dropped := 0
	if bag != nil {
		dropped = bag.Dropped()
	}
	return DiagnosticsOutput{
		Diagnostics: diagnostics,
		Count:       len(diagnostics),
		Truncated:   maxItems < len(items) || dropped > 0,
		Dropped:     dropped,
	}
}

// JSON форматирует диагностики в JSON формат.
func JSON(w io.Writer, bag *diag.Bag, opts JSONOpts) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildDiagnosticsOutput(bag, opts))
}
