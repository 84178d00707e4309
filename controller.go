package edgefilter

import (
	"context"
	"errors"
	"sync"

	"github.com/wbrown/edgefilter/imageutil"
)

// ErrPassInFlight is returned by Controller.Start while an earlier pass
// has not finished.
var ErrPassInFlight = errors.New("a filter pass is already running")

// Controller runs filter passes on a background goroutine, one at a time.
// Each pass gets a fresh CancelSignal, and progress is relayed to the
// caller's sink without ever blocking the worker.
type Controller struct {
	filter Filter

	mu   sync.Mutex
	pass *Pass
}

// NewController creates a controller for filter.
func NewController(filter Filter) *Controller {
	return &Controller{filter: filter}
}

// Start begins a pass over src and returns immediately. src must not be
// modified until the pass is done. sink may be nil; otherwise it is called
// from a goroutine owned by the pass, never concurrently with itself, with
// strictly increasing counts. On success the last count equals the number
// of pixels in src.
func (c *Controller) Start(src *imageutil.PixelBuffer, sink ProgressSink) (*Pass, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pass != nil {
		Logger().Warn("filter pass rejected, another pass is running")
		return nil, ErrPassInFlight
	}

	p := &Pass{
		signal: NewCancelSignal(),
		done:   make(chan struct{}),
	}
	if sink != nil {
		p.relay = newProgressRelay(sink)
	}
	c.pass = p

	go p.run(c.filter, src, func() { c.release(p) })
	return p, nil
}

// Run starts a pass and waits for it. The pass is cancelled if ctx is done
// first; cancellation is reported through Result.Cancelled, not as an
// error.
func (c *Controller) Run(ctx context.Context, src *imageutil.PixelBuffer, sink ProgressSink) (Result, error) {
	p, err := c.Start(src, sink)
	if err != nil {
		return Result{}, err
	}
	stop := p.signal.Watch(ctx)
	defer stop()
	return p.Wait()
}

// Busy reports whether a pass is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pass != nil
}

// Cancel requests cancellation of the pass in flight, if any.
func (c *Controller) Cancel() {
	c.mu.Lock()
	p := c.pass
	c.mu.Unlock()
	if p != nil {
		p.Cancel()
	}
}

func (c *Controller) release(p *Pass) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pass == p {
		c.pass = nil
	}
}

// Pass is one running or finished filter pass started by a Controller.
type Pass struct {
	signal *CancelSignal
	relay  *progressRelay
	done   chan struct{}

	result Result
	err    error
}

func (p *Pass) run(filter Filter, src *imageutil.PixelBuffer, release func()) {
	var sink ProgressSink
	if p.relay != nil {
		go p.relay.loop()
		sink = p.relay
	}

	p.result, p.err = filter.Run(src, p.signal, sink)

	if p.relay != nil {
		p.relay.close()
	}
	release()
	close(p.done)
}

// Cancel asks the pass to stop before its next pixel. Calling it more than
// once, or after the pass finished, has no effect.
func (p *Pass) Cancel() {
	if p.signal.Cancel() {
		Logger().Debug("filter pass cancellation requested")
	}
}

// Done returns a channel that is closed when the pass has finished and
// every progress notification has been delivered.
func (p *Pass) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the pass finishes and returns its outcome. The
// Result's Buffer belongs to the caller once Wait returns.
func (p *Pass) Wait() (Result, error) {
	<-p.done
	return p.result, p.err
}
