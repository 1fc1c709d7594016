package pixeldust

import (
	"github.com/enetx/g"
	"github.com/enetx/g/cmp"
)

// mw is one link in a middleware chain.
type mw[T any] struct {
	fn       func(T) error
	priority int // lower runs earlier
	order    int // insertion order breaks ties
}

// middleware runs functions over a T in priority order. It backs both the
// builder options applied to a Fetcher and the per-hop request decorators.
type middleware[T any] struct {
	heap    *g.Heap[mw[T]]
	counter int
}

func newMiddleware[T any]() *middleware[T] {
	return &middleware[T]{
		heap: g.NewHeap(func(a, b mw[T]) cmp.Ordering {
			switch {
			case a.priority < b.priority:
				return cmp.Less
			case a.priority > b.priority:
				return cmp.Greater
			case a.order < b.order:
				return cmp.Less
			case a.order > b.order:
				return cmp.Greater
			default:
				return cmp.Equal
			}
		}),
	}
}

func (m *middleware[T]) add(priority int, fn func(T) error) {
	m.heap.Push(mw[T]{fn, priority, m.counter})
	m.counter++
}

// run stops at the first error. The chain itself is left intact.
func (m *middleware[T]) run(v T) error {
	clone := m.heap.Clone()

	for !clone.Empty() {
		if err := clone.Pop().Some().fn(v); err != nil {
			return err
		}
	}

	return nil
}
