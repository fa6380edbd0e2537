// Package xmldoc reads external annotation files in the JetBrains XML format:
//
//	<assembly name="mscorlib">
//	  <member name="M:System.String.Format(System.String,System.Object)">
//	    <attribute ctor="M:JetBrains.Annotations.NotNullAttribute.#ctor" />
//	    <parameter name="format">
//	      <attribute ctor="M:JetBrains.Annotations.NotNullAttribute.#ctor" />
//	    </parameter>
//	  </member>
//	</assembly>
//
// Only NotNull/CanBeNull facts are extracted; every other attribute is
// ignored. Member names are normalized to Unicode NFC.
package xmldoc

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"

	"nullcheck/internal/annotations"
)

type assemblyXML struct {
	XMLName xml.Name    `xml:"assembly"`
	Name    string      `xml:"name,attr"`
	Members []memberXML `xml:"member"`
}

type memberXML struct {
	Name       string     `xml:"name,attr"`
	Attributes []attrXML  `xml:"attribute"`
	Parameters []paramXML `xml:"parameter"`
}

type paramXML struct {
	Name       string    `xml:"name,attr"`
	Attributes []attrXML `xml:"attribute"`
}

type attrXML struct {
	Ctor string `xml:"ctor,attr"`
}

// ErrNotAnnotationFile is returned when the document root is not <assembly>.
var ErrNotAnnotationFile = errors.New("not an external annotation document")

// ParseFile parses one annotation file into a new map.
func ParseFile(path string) (annotations.Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m := make(annotations.Map)
	if err := ParseInto(f, m); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse parses one document into a new map.
func Parse(r io.Reader) (annotations.Map, error) {
	m := make(annotations.Map)
	if err := ParseInto(r, m); err != nil {
		return nil, err
	}
	return m, nil
}

// ParseInto adds the facts of one document to m. The map is not compacted.
func ParseInto(r io.Reader, m annotations.Map) error {
	var doc assemblyXML
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		var unexpected xml.UnmarshalError
		if errors.As(err, &unexpected) {
			return fmt.Errorf("%w: %v", ErrNotAnnotationFile, err)
		}
		return err
	}

	for _, member := range doc.Members {
		id := norm.NFC.String(strings.TrimSpace(member.Name))
		info := m.Entry(id)
		if info == nil {
			continue
		}
		if hasNullability(member.Attributes) {
			info.HasNullabilityDefined = true
		}
		for _, p := range member.Parameters {
			if hasNullability(p.Attributes) {
				m.SetParameter(id, norm.NFC.String(p.Name), true)
			}
		}
	}
	return nil
}

func hasNullability(attrs []attrXML) bool {
	for _, a := range attrs {
		switch attributeTypeName(a.Ctor) {
		case "NotNullAttribute", "CanBeNullAttribute":
			return true
		}
	}
	return false
}

// attributeTypeName extracts "NotNullAttribute" from
// "M:JetBrains.Annotations.NotNullAttribute.#ctor(System.String)".
func attributeTypeName(ctor string) string {
	ctor = strings.TrimPrefix(strings.TrimSpace(ctor), "M:")
	if i := strings.IndexByte(ctor, '('); i >= 0 {
		ctor = ctor[:i]
	}
	ctor = strings.TrimSuffix(ctor, ".#ctor")
	if i := strings.LastIndexByte(ctor, '.'); i >= 0 {
		ctor = ctor[i+1:]
	}
	return ctor
}
