package search

import "testing"

func TestEmailPivot(t *testing.T) {
	tests := []struct {
		q    string
		want bool
	}{
		{"user@example.com", true},
		{"user@", true},
		{"@domain", true},
		{"john doe", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := EmailPivot(tt.q); got != tt.want {
			t.Errorf("EmailPivot(%q) = %v, want %v", tt.q, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		q         string
		wantField string
		wantPfx   string
	}{
		{"name", "Alice", FieldName, "alice"},
		{"name trimmed", "  Bob  ", FieldName, "bob"},
		{"email lowercased", "Bob@Example.COM", FieldEmail, "bob@example.com"},
		{"empty", "", FieldName, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.q)
			if got.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", got.Field, tt.wantField)
			}
			if got.Prefix != tt.wantPfx {
				t.Errorf("Prefix = %q, want %q", got.Prefix, tt.wantPfx)
			}
		})
	}
}

func TestBounds(t *testing.T) {
	if _, _, ok := Parse("  ").Bounds(); ok {
		t.Error("blank query should have no bounds")
	}
	lo, hi, ok := Parse("Bo").Bounds()
	if !ok || lo != "bo" || hi != "bo\uffff" {
		t.Errorf("Bounds = (%q, %q, %v)", lo, hi, ok)
	}
	if !(lo <= "bob" && "bob" < hi) {
		t.Error("bob should fall inside the bounds")
	}
	if "bz" < hi {
		t.Error("bz should fall outside the bounds")
	}
}
