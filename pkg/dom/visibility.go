package dom

// IsVisible reports whether el can be clicked: not hidden by its inline
// style, not hidden by its computed style, and rendered with a non-zero box.
// Style read failures are ignored; a box that cannot be measured counts as
// not visible.
func IsVisible(el Element) bool {
	if el == nil {
		return false
	}

	if inline, err := el.InlineStyle(); err == nil && inline.Hidden() {
		return false
	}

	if computed, err := el.ComputedStyle(); err == nil && computed.Hidden() {
		return false
	}

	size, err := el.Size()
	if err != nil || size.Empty() {
		return false
	}

	return true
}
