package symbol

import (
	"errors"
	"testing"
)

func TestRegistry_Order(t *testing.T) {
	r, err := New("x", "y", "t")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if r.Len() != 3 {
		t.Fatalf("Len: got %d, want 3", r.Len())
	}

	// Indices follow declaration order, starting at 1.
	want := map[string]int{"x": 1, "y": 2, "t": 3}
	for name, idx := range want {
		got, ok := r.Index(name)
		if !ok || got != idx {
			t.Errorf("Index(%q): got %d/%v, want %d", name, got, ok, idx)
		}
		if r.At(idx) != name {
			t.Errorf("At(%d): got %q, want %q", idx, r.At(idx), name)
		}
	}
}

func TestRegistry_Duplicate(t *testing.T) {
	_, err := New("x", "y", "x")
	if err == nil {
		t.Fatal("expected error for duplicate name")
	}

	var dup *DuplicateVariableError
	if !errors.As(err, &dup) {
		t.Fatalf("error type: got %T, want *DuplicateVariableError", err)
	}
	if dup.Name != "x" {
		t.Errorf("duplicate name: got %q, want %q", dup.Name, "x")
	}
}

func TestRegistry_Unknown(t *testing.T) {
	r, _ := New("t")
	if _, ok := r.Index("u"); ok {
		t.Error("Index returned ok for unregistered name")
	}
	if r.Contains("u") {
		t.Error("Contains returned true for unregistered name")
	}
}

func TestRegistry_Empty(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len: got %d, want 0", r.Len())
	}
}
