package resolver

import (
	"errors"
	"strings"

	"nullcheck/internal/diag"
)

var (
	errNoAnnotationFiles = errors.New("no external annotation files found")
	errNoNullabilityData = errors.New("external annotation files carry no nullability facts")
)

// MissingAnnotationsError is fatal for a run: without the global store every
// symbol would look unannotated.
type MissingAnnotationsError struct {
	Folders []string
	Cause   error
}

func (e *MissingAnnotationsError) Error() string {
	quoted := make([]string, len(e.Folders))
	for i, folder := range e.Folders {
		quoted[i] = `"` + folder + `"`
	}
	return "Failed to load Resharper external annotations. Scanned folders: " + strings.Join(quoted, ";")
}

func (e *MissingAnnotationsError) Unwrap() error { return e.Cause }

// Diagnostic renders the error as an AnnotationsMissing record, one note per
// scanned folder, for machine-readable output.
func (e *MissingAnnotationsError) Diagnostic() diag.Diagnostic {
	d := diag.New(diag.SevError, diag.AnnotationsMissing, "", "Failed to load Resharper external annotations")
	for _, folder := range e.Folders {
		d = d.WithNote("scanned folder " + folder)
	}
	if e.Cause != nil {
		d = d.WithNote(e.Cause.Error())
	}
	return d
}
