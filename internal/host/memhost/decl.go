package memhost

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

type dumpFile struct {
	Assembly string     `yaml:"assembly"`
	Types    []typeDecl `yaml:"types"`
}

type typeDecl struct {
	Namespace          string       `yaml:"namespace"`
	Name               string       `yaml:"name"`
	Kind               string       `yaml:"kind"`
	TypeParams         []string     `yaml:"type_params"`
	Base               string       `yaml:"base"`
	Interfaces         []string     `yaml:"interfaces"`
	Attributes         []attrDecl   `yaml:"attributes"`
	CompilerControlled bool         `yaml:"compiler_controlled"`
	Fields             []fieldDecl  `yaml:"fields"`
	Properties         []propDecl   `yaml:"properties"`
	Methods            []methodDecl `yaml:"methods"`
	Nested             []typeDecl   `yaml:"nested"`
}

type fieldDecl struct {
	Name       string     `yaml:"name"`
	Type       string     `yaml:"type"`
	Attributes []attrDecl `yaml:"attributes"`
	Static     bool       `yaml:"static"`
	Literal    bool       `yaml:"literal"`
	HasDefault bool       `yaml:"has_default"`
}

type propDecl struct {
	Name       string      `yaml:"name"`
	Type       string      `yaml:"type"`
	Params     []paramDecl `yaml:"params"`
	Attributes []attrDecl  `yaml:"attributes"`
	// Get and Set default to true.
	Get        *bool    `yaml:"get"`
	Set        *bool    `yaml:"set"`
	Override   bool     `yaml:"override"`
	Implements []string `yaml:"implements"`
}

type methodDecl struct {
	Name               string      `yaml:"name"`
	Returns            string      `yaml:"returns"`
	TypeParams         []string    `yaml:"type_params"`
	Params             []paramDecl `yaml:"params"`
	Attributes         []attrDecl  `yaml:"attributes"`
	Override           bool        `yaml:"override"`
	Implements         []string    `yaml:"implements"`
	CompilerControlled bool        `yaml:"compiler_controlled"`
	Async              bool        `yaml:"async"`
}

type paramDecl struct {
	Name       string     `yaml:"name"`
	Type       string     `yaml:"type"`
	Attributes []attrDecl `yaml:"attributes"`
}

// attrDecl accepts either a bare name ("NotNull") or a mapping
// ({name: Conditional, args: [JETBRAINS_ANNOTATIONS]}).
type attrDecl struct {
	Name string   `yaml:"name"`
	Args []string `yaml:"args"`
}

func (a *attrDecl) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		a.Name = node.Value
		a.Args = nil
		return nil
	}
	type plain attrDecl
	var p plain
	if err := node.Decode(&p); err != nil {
		return fmt.Errorf("attribute at line %d: %w", node.Line, err)
	}
	*a = attrDecl(p)
	return nil
}

// attributeName appends the conventional suffix so dumps may say NotNull
// instead of NotNullAttribute.
func attributeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.HasSuffix(name, "Attribute") {
		return name
	}
	return name + "Attribute"
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
