package cartstore

import "testing"

func TestParseLines(t *testing.T) {
	lines, err := parseLines(map[string]string{
		"P2":    "1",
		"P1:L":  "3",
		"P1":    "2",
		"P3:XL": "5",
	})
	if err != nil {
		t.Fatalf("parseLines() error = %v", err)
	}

	want := []struct {
		product, variant string
		qty              int
	}{
		{"P1", "", 2},
		{"P1", "L", 3},
		{"P2", "", 1},
		{"P3", "XL", 5},
	}
	if len(lines) != len(want) {
		t.Fatalf("len = %d, want %d", len(lines), len(want))
	}
	for i, w := range want {
		if lines[i].ProductID != w.product || lines[i].VariantID != w.variant || lines[i].Quantity != w.qty {
			t.Errorf("lines[%d] = %+v, want %+v", i, lines[i], w)
		}
	}
}

func TestParseLinesInvalidQuantity(t *testing.T) {
	if _, err := parseLines(map[string]string{"P1": "two"}); err == nil {
		t.Error("expected error for non-numeric quantity")
	}
}

func TestParseLinesEmpty(t *testing.T) {
	lines, err := parseLines(nil)
	if err != nil {
		t.Fatalf("parseLines() error = %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("len = %d, want 0", len(lines))
	}
}

func TestKey(t *testing.T) {
	if got := Key("abc"); got != "cart:abc" {
		t.Errorf("Key() = %q, want cart:abc", got)
	}
}
