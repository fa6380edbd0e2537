package diagfmt

// PathMode specifies how assembly paths are displayed.
type PathMode uint8

const (
	// PathModeAuto prints paths relative to BaseDir when they are inside it.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color    bool
	PathMode PathMode
	BaseDir  string
	Width    uint16 // максимальная ширина строки, 0 - не ограничено
	// ShowNotes prints notes and the identity key under each diagnostic.
	ShowNotes bool
	// Summary appends a per-code count line.
	Summary bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	PathMode     PathMode
	BaseDir      string
	Max          int // обрезка вывода, не Bag
	IncludeNotes bool
}

// SarifRunMeta provides metadata for SARIF output.
type SarifRunMeta struct {
	ToolName       string
	ToolVersion    string
	InformationURI string
	InvocationArgs []string
	BaseDir        string
}
