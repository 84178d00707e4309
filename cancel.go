package edgefilter

import (
	"context"
	"sync/atomic"
)

// CancelSignal is a cooperative cancellation flag shared between the
// goroutine that requests cancellation and the engine that polls it.
// It can be raised once; later calls to Cancel have no effect. A raised
// signal is visible to every subsequent Cancelled call on any goroutine.
//
// A nil *CancelSignal is valid and never reports cancellation.
type CancelSignal struct {
	raised atomic.Bool
}

// NewCancelSignal returns a signal that has not been raised.
func NewCancelSignal() *CancelSignal {
	return &CancelSignal{}
}

// Cancel raises the signal. It reports whether this call was the one that
// raised it.
func (s *CancelSignal) Cancel() bool {
	if s == nil {
		return false
	}
	return s.raised.CompareAndSwap(false, true)
}

// Cancelled reports whether the signal has been raised.
func (s *CancelSignal) Cancelled() bool {
	return s != nil && s.raised.Load()
}

// Watch raises the signal when ctx is done. The returned stop function
// detaches the signal from ctx; call it once the pass is over.
func (s *CancelSignal) Watch(ctx context.Context) (stop func()) {
	detach := context.AfterFunc(ctx, func() { s.Cancel() })
	return func() { detach() }
}
