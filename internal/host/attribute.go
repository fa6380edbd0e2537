package host

// Attribute is a custom attribute applied to a node. Name is the attribute
// type's simple name (for example "NotNullAttribute"); Args holds positional
// constructor arguments rendered as plain strings.
type Attribute struct {
	Name string
	Args []string
}

// Arg returns the positional argument at i, or "" when absent.
func (a Attribute) Arg(i int) string {
	if i < 0 || i >= len(a.Args) {
		return ""
	}
	return a.Args[i]
}

// HasAttribute reports whether attrs contains an attribute named name.
func HasAttribute(attrs []Attribute, name string) bool {
	for _, a := range attrs {
		if a.Name == name {
			return true
		}
	}
	return false
}
