package engine

import "github.com/roach88/kiln/internal/ir"

// ActiveStack tracks the reps currently mid-compilation.
//
// The stack gives the diagnostic path for cycle reports; the companion set
// gives O(1) membership checks before each recursive compile.
//
// Example cycle:
//
//	compile(A) → A reads B → compile(B) → B reads A → compile(A)
//	→ A is already on the stack ← RECURSIVE_COMPILATION [A B A]
//
// Not safe for concurrent use; owned by the compiler's control loop.
type ActiveStack struct {
	stack []ir.RepKey
	set   map[ir.RepKey]bool
}

// NewActiveStack creates an empty stack.
func NewActiveStack() *ActiveStack {
	return &ActiveStack{set: make(map[ir.RepKey]bool)}
}

// Push adds rep to the top of the stack.
func (s *ActiveStack) Push(rep ir.RepKey) {
	s.stack = append(s.stack, rep)
	s.set[rep] = true
}

// Pop removes the top of the stack.
func (s *ActiveStack) Pop() {
	if len(s.stack) == 0 {
		return
	}
	top := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	delete(s.set, top)
}

// Contains reports whether rep is on the stack.
func (s *ActiveStack) Contains(rep ir.RepKey) bool {
	return s.set[rep]
}

// Len returns the stack depth.
func (s *ActiveStack) Len() int {
	return len(s.stack)
}

// Path returns a copy of the stack, bottom first.
func (s *ActiveStack) Path() []ir.RepKey {
	return append([]ir.RepKey(nil), s.stack...)
}

// CycleFrom returns the cycle closed by re-entering rep: the stack suffix
// starting at rep, followed by rep again. Returns nil if rep is not on the
// stack.
func (s *ActiveStack) CycleFrom(rep ir.RepKey) []ir.RepKey {
	if !s.set[rep] {
		return nil
	}
	for i, k := range s.stack {
		if k == rep {
			cycle := append([]ir.RepKey(nil), s.stack[i:]...)
			return append(cycle, rep)
		}
	}
	return nil
}
