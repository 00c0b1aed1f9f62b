package reconcile

import (
	"testing"
)

func TestDiffLines_EmptyToItems(t *testing.T) {
	// Empty current, items in desired → all adds
	current := []Line{}
	desired := []Line{
		{ProductID: "prod-1", Quantity: 2},
		{ProductID: "prod-2", Quantity: 1},
	}

	diff := DiffLines(current, desired)

	if len(diff.ToAdd) != 2 {
		t.Errorf("ToAdd = %d, want 2", len(diff.ToAdd))
	}
	if len(diff.ToRemove) != 0 {
		t.Errorf("ToRemove = %d, want 0", len(diff.ToRemove))
	}
	if len(diff.ToUpdate) != 0 {
		t.Errorf("ToUpdate = %d, want 0", len(diff.ToUpdate))
	}
	if diff.ToAdd[0].ProductID != "prod-1" || diff.ToAdd[1].ProductID != "prod-2" {
		t.Errorf("ToAdd order = %+v, want desired order", diff.ToAdd)
	}
}

func TestDiffLines_ItemsToEmpty(t *testing.T) {
	// Items in current, empty desired → all removes
	current := []Line{
		{ProductID: "prod-1", Quantity: 2},
		{ProductID: "prod-2", VariantID: "red", Quantity: 1},
	}

	diff := DiffLines(current, nil)

	if len(diff.ToAdd) != 0 {
		t.Errorf("ToAdd = %d, want 0", len(diff.ToAdd))
	}
	if len(diff.ToRemove) != 2 {
		t.Fatalf("ToRemove = %d, want 2", len(diff.ToRemove))
	}
	if diff.ToRemove[1].Key() != "prod-2:red" {
		t.Errorf("ToRemove[1] key = %q, want prod-2:red", diff.ToRemove[1].Key())
	}
}

func TestDiffLines_QuantityUpdate(t *testing.T) {
	current := []Line{{ProductID: "prod-1", Quantity: 2}}
	desired := []Line{{ProductID: "prod-1", Quantity: 5}}

	diff := DiffLines(current, desired)

	if len(diff.ToAdd) != 0 || len(diff.ToRemove) != 0 {
		t.Errorf("unexpected adds/removes: %+v", diff)
	}
	if len(diff.ToUpdate) != 1 {
		t.Fatalf("ToUpdate = %d, want 1", len(diff.ToUpdate))
	}
	if diff.ToUpdate[0].Quantity != 5 {
		t.Errorf("new quantity = %d, want 5", diff.ToUpdate[0].Quantity)
	}
}

func TestDiffLines_NoChange(t *testing.T) {
	lines := []Line{
		{ProductID: "prod-1", Quantity: 2},
		{ProductID: "prod-1", VariantID: "L", Quantity: 1},
	}

	diff := DiffLines(lines, lines)

	if !diff.IsEmpty() {
		t.Errorf("diff should be empty, got %+v", diff)
	}
}

func TestDiffLines_VariantsAreDistinct(t *testing.T) {
	// Same product, different variant → remove old variant, add new
	current := []Line{{ProductID: "shirt", VariantID: "M", Quantity: 1}}
	desired := []Line{{ProductID: "shirt", VariantID: "L", Quantity: 1}}

	diff := DiffLines(current, desired)

	if len(diff.ToAdd) != 1 || diff.ToAdd[0].VariantID != "L" {
		t.Errorf("ToAdd = %+v, want shirt:L", diff.ToAdd)
	}
	if len(diff.ToRemove) != 1 || diff.ToRemove[0].VariantID != "M" {
		t.Errorf("ToRemove = %+v, want shirt:M", diff.ToRemove)
	}
}

func TestDiffLines_NonPositiveQuantityRemoves(t *testing.T) {
	current := []Line{
		{ProductID: "prod-1", Quantity: 2},
		{ProductID: "prod-2", Quantity: 1},
	}
	desired := []Line{
		{ProductID: "prod-1", Quantity: 0},
		{ProductID: "prod-2", Quantity: 1},
		{ProductID: "prod-3", Quantity: -4},
	}

	diff := DiffLines(current, desired)

	if len(diff.ToAdd) != 0 {
		t.Errorf("negative quantity should not add: %+v", diff.ToAdd)
	}
	if len(diff.ToRemove) != 1 || diff.ToRemove[0].ProductID != "prod-1" {
		t.Errorf("ToRemove = %+v, want prod-1", diff.ToRemove)
	}
}

func TestDiffLines_Mixed(t *testing.T) {
	current := []Line{
		{ProductID: "keep", Quantity: 1},
		{ProductID: "change", Quantity: 1},
		{ProductID: "drop", Quantity: 3},
	}
	desired := []Line{
		{ProductID: "new", Quantity: 2},
		{ProductID: "change", Quantity: 4},
		{ProductID: "keep", Quantity: 1},
	}

	diff := DiffLines(current, desired)

	if len(diff.ToAdd) != 1 || diff.ToAdd[0].ProductID != "new" {
		t.Errorf("ToAdd = %+v", diff.ToAdd)
	}
	if len(diff.ToUpdate) != 1 || diff.ToUpdate[0].ProductID != "change" {
		t.Errorf("ToUpdate = %+v", diff.ToUpdate)
	}
	if len(diff.ToRemove) != 1 || diff.ToRemove[0].ProductID != "drop" {
		t.Errorf("ToRemove = %+v", diff.ToRemove)
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize([]Line{
		{ProductID: "a", Quantity: 1},
		{ProductID: "b", Quantity: 2},
		{ProductID: "a", Quantity: 2},
		{ProductID: "c", Quantity: 1},
		{ProductID: "c", Quantity: -1},
	})

	if len(got) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(got), got)
	}
	if got[0].ProductID != "a" || got[0].Quantity != 3 {
		t.Errorf("got[0] = %+v, want a x3", got[0])
	}
	if got[1].ProductID != "b" {
		t.Errorf("got[1] = %+v, want b", got[1])
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		product, variant, want string
	}{
		{"prod-1", "", "prod-1"},
		{"prod-1", "L", "prod-1:L"},
	}

	for _, tt := range tests {
		key := Key(tt.product, tt.variant)
		if key != tt.want {
			t.Errorf("Key(%q, %q) = %q, want %q", tt.product, tt.variant, key, tt.want)
		}
		p, v := ParseKey(key)
		if p != tt.product || v != tt.variant {
			t.Errorf("ParseKey(%q) = %q, %q", key, p, v)
		}
	}
}
