package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"nullcheck/internal/diag"
)

func sampleBag() *diag.Bag {
	bag := diag.NewBag(10)
	bag.Add(diag.New(diag.SevWarning, diag.NullabilityDecorate, "F:Lib.Widget.text",
		"Field 'Lib.Widget.text' is of nullable type and must be decorated with [NotNull] or [CanBeNull].").
		WithSymbol("Field", "Lib.Widget.text").
		WithLocation("/home/user/project/bin/Lib.dll"))
	bag.Add(diag.New(diag.SevWarning, diag.ItemNullabilityDecorate, "P:Lib.Table.Item(System.String):row",
		"Property 'Lib.Table.Item' has nullable item type and must be decorated with [ItemNotNull] or [ItemCanBeNull].").
		WithSymbol("Property", "Lib.Table.Item").
		WithLocation("/opt/other/Lib.dll").
		WithNote("index parameter 'row'"))
	return bag
}

// TestPathModes проверяет различные режимы форматирования путей
func TestPathModes(t *testing.T) {
	tests := []struct {
		name string
		mode PathMode
		want string
	}{
		{"Absolute path", PathModeAbsolute, "--> /home/user/project/bin/Lib.dll"},
		{"Relative path", PathModeRelative, "--> bin/Lib.dll"},
		{"Basename only", PathModeBasename, "--> Lib.dll"},
		{"Auto inside base", PathModeAuto, "--> bin/Lib.dll"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, sampleBag(), PrettyOpts{PathMode: tt.mode, BaseDir: "/home/user/project"})
			if !strings.Contains(buf.String(), tt.want) {
				t.Fatalf("output %q does not contain %q", buf.String(), tt.want)
			}
		})
	}

	var buf bytes.Buffer
	Pretty(&buf, sampleBag(), PrettyOpts{PathMode: PathModeAuto, BaseDir: "/home/user/project"})
	if !strings.Contains(buf.String(), "--> /opt/other/Lib.dll") {
		t.Fatalf("auto mode should keep paths outside the base dir absolute:\n%s", buf.String())
	}
}

func TestPrettyHeaderNotesAndSummary(t *testing.T) {
	var buf bytes.Buffer
	Pretty(&buf, sampleBag(), PrettyOpts{ShowNotes: true, Summary: true})
	out := buf.String()

	for _, want := range []string{
		"warning[CC1001] NullabilityRule: Field 'Lib.Widget.text'",
		"warning[CC1002] ItemNullabilityRule:",
		"= key: P:Lib.Table.Item(System.String):row",
		"= note: index parameter 'row'",
		"2 diagnostics (CC1001=1, CC1002=1)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("unexpected escape sequences with Color=false")
	}
}

func TestPrettyWidthTruncates(t *testing.T) {
	var buf bytes.Buffer
	Pretty(&buf, sampleBag(), PrettyOpts{Width: 60})
	first := strings.SplitN(buf.String(), "\n", 2)[0]
	if len(first) > 60 {
		t.Fatalf("line wider than 60: %q (%d)", first, len(first))
	}
	if !strings.HasSuffix(first, "...") {
		t.Fatalf("expected ellipsis, got %q", first)
	}
}

func TestPrettyColor(t *testing.T) {
	var buf bytes.Buffer
	Pretty(&buf, sampleBag(), PrettyOpts{Color: true})
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected escape sequences with Color=true")
	}
}

func TestPrettyEmptySummary(t *testing.T) {
	var buf bytes.Buffer
	Pretty(&buf, diag.NewBag(1), PrettyOpts{Summary: true})
	if got := strings.TrimSpace(buf.String()); got != "no diagnostics" {
		t.Fatalf("got %q", got)
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sampleBag(), JSONOpts{IncludeNotes: true, PathMode: PathModeBasename}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Count != 2 || len(out.Diagnostics) != 2 || out.Truncated {
		t.Fatalf("unexpected output: %+v", out)
	}
	d := out.Diagnostics[1]
	if d.Code != "CC1002" || d.Rule != "ItemNullabilityRule" || d.Location != "Lib.dll" {
		t.Fatalf("unexpected diagnostic: %+v", d)
	}
	if len(d.Notes) != 1 || d.Notes[0] != "index parameter 'row'" {
		t.Fatalf("unexpected notes: %v", d.Notes)
	}
}

func TestJSONMaxTruncates(t *testing.T) {
	out := BuildDiagnosticsOutput(sampleBag(), JSONOpts{Max: 1})
	if out.Count != 1 || !out.Truncated {
		t.Fatalf("expected one truncated entry, got %+v", out)
	}
	if out.Diagnostics[0].Notes != nil {
		t.Fatalf("notes should be omitted without IncludeNotes")
	}
}

func TestSarifOutput(t *testing.T) {
	var buf bytes.Buffer
	meta := SarifRunMeta{ToolVersion: "0.1.0", InvocationArgs: []string{"check", "lib.yaml"}, BaseDir: "/home/user/project"}
	if err := Sarif(&buf, sampleBag(), meta); err != nil {
		t.Fatalf("Sarif: %v", err)
	}
	var log sarifLog
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if log.Version != sarifVersion || len(log.Runs) != 1 {
		t.Fatalf("unexpected log header: %+v", log)
	}
	run := log.Runs[0]
	if run.Tool.Driver.Name != "nullcheck" || len(run.Tool.Driver.Rules) != 2 {
		t.Fatalf("unexpected driver: %+v", run.Tool.Driver)
	}
	if len(run.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(run.Results))
	}

	first, second := run.Results[0], run.Results[1]
	if first.Level != "warning" || first.RuleIndex != 0 || second.RuleIndex != 1 {
		t.Fatalf("unexpected results: %+v", run.Results)
	}
	if uri := first.Locations[0].PhysicalLocation.ArtifactLocation.URI; uri != "bin/Lib.dll" {
		t.Fatalf("relative uri = %q", uri)
	}
	if uri := second.Locations[0].PhysicalLocation.ArtifactLocation.URI; uri != "file:///opt/other/Lib.dll" {
		t.Fatalf("absolute uri = %q", uri)
	}
	if got := second.PartialFingerprints[fingerprintKey]; got != "P:Lib.Table.Item(System.String):row" {
		t.Fatalf("fingerprint = %q", got)
	}
	if ll := second.Locations[0].LogicalLocations; len(ll) != 1 || ll[0].Kind != "member" {
		t.Fatalf("logical locations = %+v", ll)
	}
}

func TestLimitDropsAreVisible(t *testing.T) {
	bag := diag.NewBag(1)
	for _, d := range sampleBag().Items() {
		bag.Add(d)
	}

	var buf bytes.Buffer
	Pretty(&buf, bag, PrettyOpts{Summary: true})
	if !strings.Contains(buf.String(), "1 diagnostic (CC1001=1); 1 more over the limit") {
		t.Fatalf("summary does not mention the dropped diagnostic:\n%s", buf.String())
	}

	out := BuildDiagnosticsOutput(bag, JSONOpts{})
	if out.Count != 1 || out.Dropped != 1 || !out.Truncated {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestSarifAnnotationsMissingRecord(t *testing.T) {
	bag := diag.NewBag(0)
	bag.Add(diag.New(diag.SevError, diag.AnnotationsMissing, "", "Failed to load Resharper external annotations").
		WithNote("scanned folder /pf/JetBrains"))

	var buf bytes.Buffer
	if err := Sarif(&buf, bag, SarifRunMeta{}); err != nil {
		t.Fatalf("Sarif: %v", err)
	}
	var log sarifLog
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	run := log.Runs[0]
	if len(run.Results) != 1 || run.Results[0].RuleID != "EXT2001" || run.Results[0].Level != "error" {
		t.Fatalf("unexpected results: %+v", run.Results)
	}
	if run.Results[0].Locations != nil || run.Results[0].PartialFingerprints != nil {
		t.Fatalf("a run-level failure has no location or fingerprint: %+v", run.Results[0])
	}
	if rule := run.Tool.Driver.Rules[0]; rule.Name != "" || rule.ShortDescription.Text != "External annotations could not be loaded" {
		t.Fatalf("unexpected rule: %+v", rule)
	}
}
