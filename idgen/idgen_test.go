package idgen

import "testing"

func TestUUIDv7_Uniqueness(t *testing.T) {
	gen := UUIDv7()
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		id := gen()
		if _, ok := seen[id]; ok {
			t.Fatalf("UUIDv7: duplicate at iteration %d", i)
		}
		seen[id] = struct{}{}
	}
}

func TestPrefixed(t *testing.T) {
	gen := Prefixed("pass_", Sequence())
	for _, want := range []string{"pass_1", "pass_2"} {
		if got := gen(); got != want {
			t.Fatalf("Prefixed: got %q, want %q", got, want)
		}
	}
}

func TestSequence(t *testing.T) {
	gen := Sequence()
	for _, want := range []string{"1", "2", "3"} {
		if got := gen(); got != want {
			t.Fatalf("Sequence: got %q, want %q", got, want)
		}
	}
}

func TestDefault_IsUUID(t *testing.T) {
	id := New()
	if len(id) != 36 {
		t.Fatalf("New: expected length 36, got %d for %q", len(id), id)
	}
	if _, err := Parse(id); err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := Parse("not-a-uuid"); err == nil {
		t.Fatal("Parse: expected error for invalid UUID")
	}
}
