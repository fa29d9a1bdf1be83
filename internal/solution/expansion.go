package solution

// Expansion tracks which step indices are expanded in the solution view.
// The zero value has every step collapsed.
type Expansion struct {
	open map[int]struct{}
}

// Toggle flips the expanded state of step i.
func (e *Expansion) Toggle(i int) {
	if e.open == nil {
		e.open = make(map[int]struct{})
	}
	if _, ok := e.open[i]; ok {
		delete(e.open, i)
		return
	}
	e.open[i] = struct{}{}
}

// IsExpanded reports whether step i is expanded.
func (e *Expansion) IsExpanded(i int) bool {
	_, ok := e.open[i]
	return ok
}

// Len returns the number of expanded steps.
func (e *Expansion) Len() int {
	return len(e.open)
}
