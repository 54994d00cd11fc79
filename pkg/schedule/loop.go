package schedule

import "sync"

// Loop runs dispatched tasks serially on its own goroutine. The zero value is
// not usable; construct with NewLoop.
type Loop struct {
	mu      sync.Mutex
	cond    *sync.Cond
	tasks   []func()
	closed  bool
	done    chan struct{}
	onPanic func(any)
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithPanicHandler installs a handler for panics raised by tasks. Without a
// handler a panicking task crashes the process, matching a plain goroutine.
func WithPanicHandler(fn func(recovered any)) LoopOption {
	return func(l *Loop) {
		l.onPanic = fn
	}
}

// NewLoop starts a loop goroutine.
func NewLoop(options ...LoopOption) *Loop {
	l := &Loop{done: make(chan struct{})}
	l.cond = sync.NewCond(&l.mu)
	for _, opt := range options {
		if opt != nil {
			opt(l)
		}
	}
	go l.run()
	return l
}

// Dispatch queues task. Tasks dispatched after Close are dropped.
func (l *Loop) Dispatch(task func()) {
	if task == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.tasks = append(l.tasks, task)
	l.cond.Signal()
}

// Stop stops accepting tasks without waiting. Tasks already queued still run
// and the goroutine exits after the last one. Stop is safe to call from a
// task running on the loop.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		l.cond.Signal()
	}
	l.mu.Unlock()
}

// Close is Stop followed by waiting for the pending tasks to finish. It must
// not be called from a task running on the loop; use Stop there.
func (l *Loop) Close() {
	l.Stop()
	<-l.done
}

// Done is closed once the loop goroutine exits.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		for len(l.tasks) == 0 && !l.closed {
			l.cond.Wait()
		}
		if len(l.tasks) == 0 && l.closed {
			l.mu.Unlock()
			return
		}
		task := l.tasks[0]
		l.tasks[0] = nil
		l.tasks = l.tasks[1:]
		l.mu.Unlock()

		l.execute(task)
	}
}

func (l *Loop) execute(task func()) {
	if l.onPanic != nil {
		defer func() {
			if recovered := recover(); recovered != nil {
				l.onPanic(recovered)
			}
		}()
	}
	task()
}
