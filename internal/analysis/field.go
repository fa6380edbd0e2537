package analysis

import (
	"strings"

	"nullcheck/internal/symbols"
)

const (
	eventHandlerName        = "System.EventHandler"
	genericEventHandlerName = "System.EventHandler`1<"
	winFormsControlName     = "System.Windows.Forms.Control"
	containerInterfaceName  = "System.ComponentModel.IContainer"
	componentInterfaceName  = "System.ComponentModel.IComponent"
	designerContainerField  = "components"
)

type fieldAnalyzer struct {
	checker
	field *symbols.Field
}

func (a fieldAnalyzer) requiresAnnotation() Requirement {
	if a.field.IsConstant() {
		return notRequired
	}
	if isEventHandler(a.field.Type()) {
		return notRequired
	}
	if isWinFormsDesignerField(a.field) {
		return notRequired
	}
	return required
}

func isEventHandler(t *symbols.Type) bool {
	if t == nil {
		return false
	}
	name := t.FullName()
	return name == eventHandlerName || strings.HasPrefix(name, genericEventHandlerName)
}

// isWinFormsDesignerField recognizes fields the forms designer writes into
// controls: the components container and every component it places.
func isWinFormsDesignerField(f *symbols.Field) bool {
	owner := f.ContainingType()
	if owner == nil || !owner.IsOrDerivesFrom(winFormsControlName) {
		return false
	}
	ft := f.Type()
	if ft == nil {
		return false
	}
	if f.Name() == designerContainerField && ft.IsOrDerivesFrom(containerInterfaceName) {
		return true
	}
	return ft.ImplementsInterface(componentInterfaceName)
}
