package activity

import (
	"context"
	"log"
	"sync"
	"time"
)

// DefaultEffectTimeout bounds each queued effect.
const DefaultEffectTimeout = 10 * time.Second

type effect struct {
	name string
	run  func(ctx context.Context) error
}

// Dispatcher runs side effects one at a time in the order they were queued.
// Effects never report back to the code that queued them; failures are
// logged.
type Dispatcher struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []effect
	busy    bool
	closed  bool
	done    chan struct{}
	timeout time.Duration
}

func NewDispatcher(timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultEffectTimeout
	}
	d := &Dispatcher{done: make(chan struct{}), timeout: timeout}
	d.cond = sync.NewCond(&d.mu)
	go d.loop()
	return d
}

// Dispatch queues fn. It returns false once the dispatcher is closed.
func (d *Dispatcher) Dispatch(name string, fn func(ctx context.Context) error) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		log.Printf("activity: dropped %s, dispatcher closed", name)
		return false
	}
	d.queue = append(d.queue, effect{name: name, run: fn})
	d.cond.Broadcast()
	return true
}

// Flush blocks until every effect queued so far has run.
func (d *Dispatcher) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for len(d.queue) > 0 || d.busy {
		d.cond.Wait()
	}
}

// Close stops accepting effects, drains the queue and waits for the worker.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		d.cond.Broadcast()
	}
	d.mu.Unlock()
	<-d.done
}

func (d *Dispatcher) loop() {
	defer close(d.done)
	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.closed {
			d.cond.Wait()
		}
		if len(d.queue) == 0 {
			d.mu.Unlock()
			return
		}
		next := d.queue[0]
		d.queue[0] = effect{}
		d.queue = d.queue[1:]
		d.busy = true
		d.mu.Unlock()

		d.run(next)

		d.mu.Lock()
		d.busy = false
		d.cond.Broadcast()
		d.mu.Unlock()
	}
}

func (d *Dispatcher) run(e effect) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("activity: %s panicked: %v", e.name, r)
		}
	}()
	if err := e.run(ctx); err != nil {
		log.Printf("activity: %s failed: %v", e.name, err)
	}
}
