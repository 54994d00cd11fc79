package schedule

import "sync"

// Dispatcher defers a task to a later scheduling turn. Tasks dispatched to
// the same Dispatcher run one at a time in dispatch order.
type Dispatcher interface {
	Dispatch(task func())
}

// DispatcherFunc adapts a function into a Dispatcher.
type DispatcherFunc func(task func())

// Dispatch delegates to the underlying function.
func (fn DispatcherFunc) Dispatch(task func()) {
	fn(task)
}

// Queue is a manual FIFO of pending tasks.
type Queue struct {
	mu    sync.Mutex
	tasks []func()
	// serialises Drain callers so tasks never overlap
	running sync.Mutex
}

// NewQueue constructs an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Dispatch appends task to the queue.
func (q *Queue) Dispatch(task func()) {
	if task == nil {
		return
	}
	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()
}

// Len reports the number of pending tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Drain runs pending tasks until the queue is empty, including tasks
// dispatched by the tasks themselves, and returns how many ran.
func (q *Queue) Drain() int {
	q.running.Lock()
	defer q.running.Unlock()

	ran := 0
	for {
		task, ok := q.pop()
		if !ok {
			return ran
		}
		task()
		ran++
	}
}

// Step runs a single pending task and reports whether one ran.
func (q *Queue) Step() bool {
	q.running.Lock()
	defer q.running.Unlock()

	task, ok := q.pop()
	if !ok {
		return false
	}
	task()
	return true
}

func (q *Queue) pop() (func(), bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return nil, false
	}
	task := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	return task, true
}

// Go runs every task on a new goroutine. Tasks dispatched to Go are not
// serialised; it is meant for work that blocks, such as network fetches.
var Go Dispatcher = DispatcherFunc(func(task func()) {
	go task()
})
