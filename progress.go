package edgefilter

import "sync/atomic"

// ProgressSink receives the cumulative number of pixels processed during a
// pass. Calls arrive one at a time with strictly increasing counts. The
// engine makes no assumption about which goroutine the sink belongs to;
// a sink that must run elsewhere should hand the count off and return.
type ProgressSink interface {
	Progress(processed int)
}

// ProgressFunc adapts an ordinary function to a ProgressSink.
type ProgressFunc func(processed int)

// Progress calls f(processed).
func (f ProgressFunc) Progress(processed int) {
	f(processed)
}

// progressRelay decouples a worker from a slow sink. The worker stores the
// latest count and posts a wake-up without blocking; loop delivers counts
// to the sink on its own goroutine. Intermediate counts may be coalesced,
// but deliveries stay strictly increasing and the last count stored before
// stop is closed is always delivered.
type progressRelay struct {
	sink   ProgressSink
	latest atomic.Int64
	wake   chan struct{}
	stop   chan struct{}
	exited chan struct{}
}

func newProgressRelay(sink ProgressSink) *progressRelay {
	return &progressRelay{
		sink:   sink,
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		exited: make(chan struct{}),
	}
}

// Progress is called by the worker.
func (r *progressRelay) Progress(processed int) {
	r.latest.Store(int64(processed))
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *progressRelay) loop() {
	defer close(r.exited)

	var delivered int64
	deliver := func() {
		if n := r.latest.Load(); n > delivered {
			delivered = n
			r.sink.Progress(int(n))
		}
	}

	for {
		select {
		case <-r.wake:
			deliver()
		case <-r.stop:
			deliver()
			return
		}
	}
}

// close stops the relay and waits until the final count was delivered.
func (r *progressRelay) close() {
	close(r.stop)
	<-r.exited
}
