package diagfmt

import (
	"encoding/json"
	"io"
	"net/url"
	"path/filepath"
	"sort"

	"nullcheck/internal/diag"
)

const (
	sarifVersion = "2.1.0"
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
	// fingerprintKey carries the identity key so a viewer can match results
	// across runs.
	fingerprintKey = "nullcheckIdentity/v1"
)

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool         `json:"tool"`
	Invocations []sarifInvocation `json:"invocations,omitempty"`
	Results     []sarifResult     `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version,omitempty"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	Name             string       `json:"name,omitempty"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifInvocation struct {
	Arguments           []string `json:"arguments,omitempty"`
	ExecutionSuccessful bool     `json:"executionSuccessful"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           int               `json:"ruleIndex"`
	Level               string            `json:"level"`
	Message             sarifMessage      `json:"message"`
	Locations           []sarifLocation   `json:"locations,omitempty"`
	PartialFingerprints map[string]string `json:"partialFingerprints,omitempty"`
}

type sarifLocation struct {
	PhysicalLocation *sarifPhysicalLocation `json:"physicalLocation,omitempty"`
	LogicalLocations []sarifLogicalLocation `json:"logicalLocations,omitempty"`
	Message          *sarifMessage          `json:"message,omitempty"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifLogicalLocation struct {
	FullyQualifiedName string `json:"fullyQualifiedName"`
	Kind               string `json:"kind,omitempty"`
}

// Sarif форматирует диагностики в SARIF формат (v2.1.0)
func Sarif(w io.Writer, bag *diag.Bag, meta SarifRunMeta) error {
	var items []diag.Diagnostic
	if bag != nil {
		items = bag.Items()
	}
	name := meta.ToolName
	if name == "" {
		name = "nullcheck"
	}

	codes := make(map[diag.Code]struct{})
	for _, d := range items {
		codes[d.Code] = struct{}{}
	}
	ordered := make([]diag.Code, 0, len(codes))
	for c := range codes {
		ordered = append(ordered, c)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })
	ruleIndex := make(map[diag.Code]int, len(ordered))
	rules := make([]sarifRule, 0, len(ordered))
	for i, c := range ordered {
		ruleIndex[c] = i
		rules = append(rules, sarifRule{
			ID:               c.ID(),
			Name:             c.RuleName(),
			ShortDescription: sarifMessage{Text: c.Title()},
		})
	}

	results := make([]sarifResult, 0, len(items))
	for _, d := range items {
		res := sarifResult{
			RuleID:    d.Code.ID(),
			RuleIndex: ruleIndex[d.Code],
			Level:     sarifLevel(d.Severity),
			Message:   sarifMessage{Text: d.Message},
		}
		var loc sarifLocation
		if d.Location != "" {
			loc.PhysicalLocation = &sarifPhysicalLocation{
				ArtifactLocation: sarifArtifactLocation{URI: artifactURI(d.Location, meta.BaseDir)},
			}
		}
		if d.Symbol != "" {
			loc.LogicalLocations = []sarifLogicalLocation{{
				FullyQualifiedName: d.Symbol,
				Kind:               logicalKind(d.Kind),
			}}
		}
		if len(d.Notes) > 0 {
			loc.Message = &sarifMessage{Text: d.Notes[0].Msg}
		}
		if loc.PhysicalLocation != nil || loc.LogicalLocations != nil {
			res.Locations = []sarifLocation{loc}
		}
		if d.Key != "" {
			res.PartialFingerprints = map[string]string{fingerprintKey: d.Key}
		}
		results = append(results, res)
	}

	run := sarifRun{
		Tool: sarifTool{Driver: sarifDriver{
			Name:           name,
			Version:        meta.ToolVersion,
			InformationURI: meta.InformationURI,
			Rules:          rules,
		}},
		Results: results,
	}
	if len(meta.InvocationArgs) > 0 {
		run.Invocations = []sarifInvocation{{Arguments: meta.InvocationArgs, ExecutionSuccessful: true}}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sarifLog{Schema: sarifSchema, Version: sarifVersion, Runs: []sarifRun{run}})
}

func sarifLevel(s diag.Severity) string {
	switch s {
	case diag.SevError:
		return "error"
	case diag.SevWarning:
		return "warning"
	default:
		return "note"
	}
}

func logicalKind(kind string) string {
	switch kind {
	case "Parameter":
		return "parameter"
	case "Field", "Property", "Method":
		return "member"
	case "Type":
		return "type"
	}
	return ""
}

// artifactURI keeps paths inside baseDir relative and turns the rest into
// file URIs.
func artifactURI(path, baseDir string) string {
	if baseDir != "" {
		rel := relativeTo(path, baseDir, false)
		if !filepath.IsAbs(filepath.FromSlash(rel)) {
			return rel
		}
	}
	if filepath.IsAbs(path) {
		return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
	}
	return filepath.ToSlash(path)
}
