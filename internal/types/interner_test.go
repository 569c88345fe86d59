package types

import "testing"

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Unit == NoTypeID || b.Int == NoTypeID || b.String == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	unit, _ := in.Lookup(b.Unit)
	if unit.Kind != KindUnit {
		t.Fatalf("expected unit kind, got %v", unit.Kind)
	}
	if got, ok := in.Named("Int"); !ok || got != b.Int {
		t.Fatalf("Named(Int) = %v, %v", got, ok)
	}
	if in.Label(b.Long) != "Long" {
		t.Fatalf("unexpected label %q", in.Label(b.Long))
	}
}

func TestIntWidthsAreDistinct(t *testing.T) {
	in := NewInterner()
	if in.Intern(MakeInt(Width32)) != in.Builtins().Int {
		t.Fatalf("Int must be deduplicated against the builtin")
	}
	if in.Builtins().Int == in.Builtins().Long {
		t.Fatalf("Int and Long must differ")
	}
}

func TestErrorTypeCarriesMessage(t *testing.T) {
	in := NewInterner()
	a := in.ErrorType("first")
	b := in.ErrorType("second")
	if a == NoTypeID || a == b {
		t.Fatalf("expected distinct error types, got %v and %v", a, b)
	}
	if again := in.ErrorType("first"); again != a {
		t.Fatalf("same message must reuse the type, got %v want %v", again, a)
	}
	msg, ok := in.ErrorMessage(b)
	if !ok || msg != "second" {
		t.Fatalf("ErrorMessage = %q, %v", msg, ok)
	}
	if !in.IsError(a) || in.IsError(in.Builtins().Int) {
		t.Fatalf("IsError misclassified types")
	}
}

func TestRegisterClassNeverDeduplicates(t *testing.T) {
	in := NewInterner()
	a := in.RegisterClass("Script", true)
	b := in.RegisterClass("Script", true)
	if a == b {
		t.Fatalf("synthetic classes must be distinct")
	}
	info, ok := in.ClassInfo(a)
	if !ok || !info.Synthetic || info.Name != "Script" {
		t.Fatalf("unexpected class info %+v", info)
	}
	if _, ok := in.Named("Script"); ok {
		t.Fatalf("synthetic classes must not be nameable from annotations")
	}
	user := in.RegisterClass("Point", false)
	if got, ok := in.Named("Point"); !ok || got != user {
		t.Fatalf("user class not registered by name")
	}
}
