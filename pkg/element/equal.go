package element

// Equal reports structural equality over identity and attributes.
// Children and handlers are not compared, which keeps the top-level check
// cheap; the layout compares children itself while diffing.
func Equal(a, b *Element) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.kind != b.kind || a.tag != b.tag || a.comp != b.comp {
		return false
	}
	if a.key != b.key || a.text != b.text {
		return false
	}
	if len(a.attrs) != len(b.attrs) {
		return false
	}
	for name, av := range a.attrs {
		bv, ok := b.attrs[name]
		if !ok || !valuesEqual(av, bv) {
			return false
		}
	}
	return true
}

// SameIdentity reports whether b can be reconciled in place of a:
// same kind, same tag or component definition.
func SameIdentity(a, b *Element) bool {
	if a == nil || b == nil {
		return false
	}
	return a.kind == b.kind && a.tag == b.tag && a.comp == b.comp
}
