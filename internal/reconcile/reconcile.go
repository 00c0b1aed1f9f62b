// Package reconcile computes the delta between a stored cart and the cart a client
// wants. It enables full-replace PUT semantics: the store reads the current lines,
// diffs, and executes only the necessary mutations.
package reconcile

import "strings"

// Line is one cart line, identified by product and optional variant.
type Line struct {
	ProductID string
	VariantID string
	Quantity  int
}

// Key returns the line identity used for matching.
// ProductID alone if no variant, or ProductID:VariantID if variant present.
func (l Line) Key() string {
	return Key(l.ProductID, l.VariantID)
}

// Key creates the composite identity of a product/variant pair.
func Key(productID, variantID string) string {
	if variantID == "" {
		return productID
	}
	return productID + ":" + variantID
}

// ParseKey splits a key produced by Key. Product IDs must not contain ':'.
func ParseKey(key string) (productID, variantID string) {
	productID, variantID, _ = strings.Cut(key, ":")
	return productID, variantID
}

// LineDiff describes the mutations needed to reconcile cart lines.
// Apply in order: Remove → Update → Add.
type LineDiff struct {
	ToAdd    []Line // In desired but not current
	ToUpdate []Line // In both with different quantities; Quantity is the new value
	ToRemove []Line // In current but not desired, or desired with quantity <= 0
}

// IsEmpty returns true if no line changes are needed.
func (d *LineDiff) IsEmpty() bool {
	return len(d.ToAdd) == 0 && len(d.ToRemove) == 0 && len(d.ToUpdate) == 0
}

// Normalize merges lines with the same key by summing quantities and drops lines
// whose resulting quantity is not positive. First-seen order is kept.
func Normalize(lines []Line) []Line {
	index := make(map[string]int, len(lines))
	var out []Line
	for _, l := range lines {
		if i, ok := index[l.Key()]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.Key()] = len(out)
		out = append(out, l)
	}

	kept := out[:0]
	for _, l := range out {
		if l.Quantity > 0 {
			kept = append(kept, l)
		}
	}
	return kept
}

// DiffLines computes the delta between current and desired lines.
// Desired lines are normalized first. Results follow desired order for adds and
// updates and current order for removes, so the diff is deterministic.
func DiffLines(current, desired []Line) *LineDiff {
	diff := &LineDiff{}
	desired = Normalize(desired)

	currentByKey := make(map[string]Line, len(current))
	for _, l := range current {
		currentByKey[l.Key()] = l
	}
	desiredByKey := make(map[string]bool, len(desired))

	for _, want := range desired {
		desiredByKey[want.Key()] = true
		have, exists := currentByKey[want.Key()]
		switch {
		case !exists:
			diff.ToAdd = append(diff.ToAdd, want)
		case have.Quantity != want.Quantity:
			diff.ToUpdate = append(diff.ToUpdate, want)
		}
	}

	for _, have := range current {
		if !desiredByKey[have.Key()] {
			diff.ToRemove = append(diff.ToRemove, have)
		}
	}
	return diff
}
