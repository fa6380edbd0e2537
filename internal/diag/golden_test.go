package diag

import (
	"fmt"
	"testing"
)

func TestFormatGoldenDiagnostics(t *testing.T) {
	diags := []Diagnostic{
		New(SevWarning, NullabilityDecorate, "P:Lib.Widget.Name", "Property 'Name' is of nullable type\nand must be decorated.").
			WithNote("declared in Lib"),
		New(SevWarning, ItemNullabilityDecorate, "M:Lib.Widget.Items", "Method 'Items' has nullable item type"),
	}

	expected := "warning CC1002 M:Lib.Widget.Items Method 'Items' has nullable item type\n" +
		"warning CC1001 P:Lib.Widget.Name Property 'Name' is of nullable type and must be decorated.\n" +
		"note CC1001 P:Lib.Widget.Name declared in Lib"

	if got := FormatGoldenDiagnostics(diags, true); got != expected {
		t.Fatalf("unexpected golden diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}

func TestDedupReporterForwardsFirstPerKey(t *testing.T) {
	bag := NewBag(10)
	dedup := NewDedupReporter(&BagReporter{Bag: bag})

	dedup.Report(New(SevWarning, NullabilityDecorate, "P:A.Item:key", "first"))
	dedup.Report(New(SevWarning, NullabilityDecorate, "P:A.Item:key", "second"))
	dedup.Report(New(SevWarning, NullabilityDecorate, "P:A.Item:other", "third"))

	if bag.Len() != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", bag.Len())
	}
	if bag.Items()[0].Message != "first" {
		t.Fatalf("expected first report to win, got %q", bag.Items()[0].Message)
	}
	if !dedup.Seen("P:A.Item:key") || dedup.Len() != 2 {
		t.Fatalf("unexpected seen set state: len=%d", dedup.Len())
	}
}

func TestBagLimitAndSort(t *testing.T) {
	bag := NewBag(2)
	if !bag.Add(New(SevWarning, NullabilityDecorate, "P:B", "b")) {
		t.Fatalf("first add rejected")
	}
	bag.Add(New(SevWarning, NullabilityDecorate, "F:A", "a"))
	if bag.Add(New(SevWarning, NullabilityDecorate, "F:C", "c")) {
		t.Fatalf("expected limit to reject third diagnostic")
	}
	if bag.Dropped() != 1 {
		t.Fatalf("expected 1 dropped diagnostic, got %d", bag.Dropped())
	}
	bag.Sort()
	if bag.Items()[0].Key != "F:A" {
		t.Fatalf("expected F:A first, got %s", bag.Items()[0].Key)
	}
}

func TestCodeIDs(t *testing.T) {
	if NullabilityDecorate.ID() != "CC1001" {
		t.Fatalf("unexpected id %s", NullabilityDecorate.ID())
	}
	if ItemNullabilityDecorate.RuleName() != "ItemNullabilityRule" {
		t.Fatalf("unexpected rule name %s", ItemNullabilityDecorate.RuleName())
	}
}

func TestUnlimitedBagKeepsEverything(t *testing.T) {
	const n = 70000
	bag := NewBag(0)
	for i := range n {
		if !bag.Add(New(SevWarning, NullabilityDecorate, fmt.Sprintf("F:Lib.Wide.f%d", i), "m")) {
			t.Fatalf("unlimited bag rejected diagnostic %d", i)
		}
	}
	if bag.Len() != n || bag.Dropped() != 0 {
		t.Fatalf("expected %d diagnostics and none dropped, got %d/%d", n, bag.Len(), bag.Dropped())
	}
}

func TestAnnotationCodeIDs(t *testing.T) {
	if AnnotationsMissing.ID() != "EXT2001" {
		t.Fatalf("unexpected id %s", AnnotationsMissing.ID())
	}
	if AnnotationsSideBySideBad.RuleName() != "" {
		t.Fatalf("annotation codes are not rules, got %q", AnnotationsSideBySideBad.RuleName())
	}
}
