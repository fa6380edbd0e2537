package diag

// Severity of a diagnostic. Both nullability rules report warnings.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

var severityNames = [...]struct{ upper, lower string }{
	SevInfo:    {"INFO", "info"},
	SevWarning: {"WARNING", "warning"},
	SevError:   {"ERROR", "error"},
}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s].upper
	}
	return "UNKNOWN"
}

// Label is the lower-case name used in rendered output.
func (s Severity) Label() string {
	if int(s) < len(severityNames) {
		return severityNames[s].lower
	}
	return "info"
}

type Note struct {
	Msg string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Key      string
	Symbol   string
	Kind     string
	Location string
	Message  string
	Notes    []Note
}

func New(sev Severity, code Code, key, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Key:      key,
		Message:  msg,
	}
}

func (d Diagnostic) WithNote(msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Msg: msg})
	return d
}

func (d Diagnostic) WithSymbol(kind, name string) Diagnostic {
	d.Kind = kind
	d.Symbol = name
	return d
}

func (d Diagnostic) WithLocation(loc string) Diagnostic {
	d.Location = loc
	return d
}
