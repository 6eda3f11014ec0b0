package updater

import (
	"sync"
)

// Dispatcher decides on which goroutine listener callbacks run.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(fn func())

func (f DispatcherFunc) Dispatch(fn func()) {
	f(fn)
}

// Direct runs callbacks on the goroutine that produced them.
var Direct Dispatcher = DispatcherFunc(func(fn func()) { fn() })

// Serial runs callbacks one at a time, in order, on a single goroutine.
type Serial struct {
	queue chan func()
	once  sync.Once
	done  chan struct{}
}

// NewSerial starts a Serial dispatcher. Close it to stop its goroutine.
func NewSerial() *Serial {
	s := &Serial{
		queue: make(chan func(), 64),
		done:  make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		for fn := range s.queue {
			fn()
		}
	}()
	return s
}

func (s *Serial) Dispatch(fn func()) {
	s.queue <- fn
}

// Close stops accepting callbacks and waits for queued ones to run.
func (s *Serial) Close() {
	s.once.Do(func() {
		close(s.queue)
	})
	<-s.done
}
