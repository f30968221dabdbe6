package queue

import "errors"

// Queue is a FIFO worklist. An element that is already waiting in the queue
// is not enqueued a second time, so re-pushing a basic block whose input
// keeps changing costs a single visit.
type Queue[E comparable] struct {
	elements []E
	waiting  map[E]bool
}

func (q *Queue[E]) Push(e E) {
	if q.waiting[e] {
		return
	}
	if q.waiting == nil {
		q.waiting = make(map[E]bool)
	}
	q.waiting[e] = true
	q.elements = append(q.elements, e)
}

func (q *Queue[E]) Empty() bool {
	return len(q.elements) == 0
}

func (q *Queue[E]) Len() int {
	return len(q.elements)
}

var ErrEmpty = errors.New("Queue is empty")

func (q *Queue[E]) Pop() E {
	if q.Empty() {
		panic(ErrEmpty)
	}

	e := q.elements[0]
	q.elements = q.elements[1:]
	delete(q.waiting, e)
	return e
}
