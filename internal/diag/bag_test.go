package diag

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBagLimitAndSort(t *testing.T) {
	bag := NewBag(3)
	bag.Add(Diagnostic{Script: "b", Severity: SevWarning, Code: SemaScriptResultUnknown})
	bag.Add(Diagnostic{Script: "a", Severity: SevWarning, Code: SemaScriptResultUnknown})
	bag.Add(Diagnostic{Script: "a", Severity: SevError, Code: SemaInvariantViolation})
	if bag.Add(Diagnostic{Script: "c"}) {
		t.Fatalf("bag accepted a diagnostic past its limit")
	}
	if !bag.HasErrors() {
		t.Fatalf("expected HasErrors")
	}

	bag.Sort()
	got := make([]string, 0, bag.Len())
	for _, d := range bag.Items() {
		got = append(got, d.Script+":"+d.Severity.String())
	}
	want := []string{"a:ERROR", "a:WARNING", "b:WARNING"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sorted order (-want +got):\n%s", diff)
	}
}

func TestCodeString(t *testing.T) {
	if SemaInvariantViolation.String() != "sema-invariant-violation" {
		t.Fatalf("unexpected name %q", SemaInvariantViolation.String())
	}
	if Code(4242).String() != "E4242" {
		t.Fatalf("unnamed code must fall back to its id, got %q", Code(4242).String())
	}
}

func TestCodeSeverity(t *testing.T) {
	cases := map[Code]Severity{
		UnknownCode:             SevInfo,
		IOLoadFileError:         SevError,
		LoadBadScriptFile:       SevError,
		LoadUnknownType:         SevError,
		LoadDuplicateName:       SevError,
		SemaScriptResultUnknown: SevWarning,
		SemaInvariantViolation:  SevError,
	}
	for code, want := range cases {
		if got := code.Severity(); got != want {
			t.Errorf("%s.Severity() = %s, want %s", code, got, want)
		}
	}
	if SevWarning.Fails() || !SevError.Fails() {
		t.Errorf("only errors fail a run")
	}
	if got := Severity(9).String(); got != "UNKNOWN" {
		t.Errorf("out of range severity = %q", got)
	}
}
