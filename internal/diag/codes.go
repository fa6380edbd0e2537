package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Правила аннотаций
	NullabilityDecorate     Code = 1001
	ItemNullabilityDecorate Code = 1002

	// Внешние аннотации
	AnnotationsMissing       Code = 2001
	AnnotationsSideBySideBad Code = 2002
)

var codeDescription = map[Code]string{
	UnknownCode:              "Unknown error",
	NullabilityDecorate:      "Member or parameter must be decorated with NotNull or CanBeNull",
	ItemNullabilityDecorate:  "Member or parameter must be decorated with ItemNotNull or ItemCanBeNull",
	AnnotationsMissing:       "External annotations could not be loaded",
	AnnotationsSideBySideBad: "Side-by-side external annotation file is malformed",
}

var codeRuleName = map[Code]string{
	NullabilityDecorate:     "NullabilityRule",
	ItemNullabilityDecorate: "ItemNullabilityRule",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("CC%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("EXT%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

// RuleName returns the rule type name for rule codes and "" otherwise.
func (c Code) RuleName() string {
	return codeRuleName[c]
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
