package canvas

// DefaultUndoDepth is the number of prior canvas states kept for undo.
const DefaultUndoDepth = 10

// History is a bounded undo stack of canvas states. When full, pushing
// drops the oldest state. History is not safe for concurrent use; callers
// hold the owning session's lock.
type History struct {
	depth  int
	states []string
}

// NewHistory returns an empty History holding at most depth states.
// depth <= 0 selects DefaultUndoDepth.
func NewHistory(depth int) *History {
	if depth <= 0 {
		depth = DefaultUndoDepth
	}
	return &History{depth: depth}
}

// RestoreHistory rebuilds a History from states ordered oldest first, as
// returned by States. Excess old states are discarded.
func RestoreHistory(depth int, states []string) *History {
	h := NewHistory(depth)
	for _, s := range states {
		h.Push(s)
	}
	return h
}

// Push records s as the most recent prior state.
func (h *History) Push(s string) {
	h.states = append(h.states, s)
	if over := len(h.states) - h.depth; over > 0 {
		h.states = append([]string(nil), h.states[over:]...)
	}
}

// Pop removes and returns the most recent state.
func (h *History) Pop() (string, bool) {
	if len(h.states) == 0 {
		return "", false
	}
	last := h.states[len(h.states)-1]
	h.states = h.states[:len(h.states)-1]
	return last, true
}

func (h *History) Len() int { return len(h.states) }

func (h *History) Depth() int { return h.depth }

// States returns a copy of the stack, oldest first.
func (h *History) States() []string {
	return append([]string(nil), h.states...)
}

// Clear drops every recorded state.
func (h *History) Clear() {
	h.states = nil
}
