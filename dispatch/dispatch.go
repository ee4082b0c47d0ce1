//
// Date: 2025-12-20
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Delivery of asynchronous callbacks onto one designated context.
//

package dispatch

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Dispatcher runs callbacks on the context that owns UI state.
type Dispatcher interface {
	Dispatch(fn func())
}

// Inline runs every callback on the calling goroutine.
type Inline struct{}

// Dispatch runs fn immediately.
func (Inline) Dispatch(fn func()) {
	fn()
}

// Loop runs callbacks one at a time, in order, on a single goroutine.
// Dispatch never blocks, so callbacks may dispatch further callbacks.
type Loop struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []func()
	closed  bool
	done    chan struct{}
}

// NewLoop starts a loop.
func NewLoop() *Loop {
	l := &Loop{done: make(chan struct{})}
	l.cond = sync.NewCond(&l.mu)
	go l.run()
	return l
}

// run drains the queue until Close.
func (l *Loop) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		for len(l.pending) == 0 && !l.closed {
			l.cond.Wait()
		}
		if len(l.pending) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.pending[0]
		l.pending[0] = nil
		l.pending = l.pending[1:]
		l.mu.Unlock()

		l.call(fn)
	}
}

// call runs fn and keeps the loop alive if it panics.
func (l *Loop) call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("[Dispatch] Callback panicked: %v", r)
		}
	}()
	fn()
}

// Dispatch queues fn. Callbacks queued after Close are dropped.
func (l *Loop) Dispatch(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		log.Debug("[Dispatch] Dropping callback on closed loop")
		return
	}
	l.pending = append(l.pending, fn)
	l.cond.Signal()
}

// Close stops accepting callbacks and waits for the queued ones to run.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.cond.Signal()
	l.mu.Unlock()
	<-l.done
}
