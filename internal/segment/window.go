package segment

// WindowSize is the number of recent comparisons that must be unchanged
// before a change is accepted as a boundary.
const WindowSize = 5

// StabilityWindow is a fixed-size ring of the most recent change flags.
// A fresh window counts as stable: every slot starts out unchanged.
type StabilityWindow struct {
	flags [WindowSize]bool
	next  int
}

// Push records a comparison result, evicting the oldest entry
func (w *StabilityWindow) Push(changed bool) {
	w.flags[w.next] = changed
	w.next = (w.next + 1) % WindowSize
}

// Stable reports whether none of the recorded comparisons changed
func (w *StabilityWindow) Stable() bool {
	for _, f := range w.flags {
		if f {
			return false
		}
	}
	return true
}
