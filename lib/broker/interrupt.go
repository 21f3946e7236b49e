package broker

import (
	"context"
	"os"
	"os/signal"
	"time"
)

// --------------------------------------------------------------------------
// Interrupt Handling
// --------------------------------------------------------------------------

type signalHandler struct {
	ch   chan os.Signal
	done chan struct{}
}

// Interrupted reports whether an interrupt has arrived. Once set the flag
// stays set for the lifetime of the broker.
func (b *Broker) Interrupted() bool {
	return b.interrupted.Load()
}

// Interrupt sets the interrupt flag as if SIGINT had been received.
func (b *Broker) Interrupt() {
	b.interrupted.Store(true)
}

// HandleInterrupts routes SIGINT to the interrupt flag. The handler only
// sets the flag; callers poll Interrupted between operations and call Exit
// themselves. Calling it twice has no effect.
func (b *Broker) HandleInterrupts() {
	if b.signals != nil {
		return
	}

	h := &signalHandler{
		ch:   make(chan os.Signal, 1),
		done: make(chan struct{}),
	}
	signal.Notify(h.ch, os.Interrupt)

	go func() {
		for {
			select {
			case <-h.ch:
				b.interrupted.Store(true)
			case <-h.done:
				return
			}
		}
	}()

	b.signals = h
	Logger.Debugf("broker %s handles interrupts", b.name)
}

// StopInterrupts restores the default SIGINT behaviour. The interrupt flag
// keeps its value.
func (b *Broker) StopInterrupts() {
	if b.signals == nil {
		return
	}
	signal.Stop(b.signals.ch)
	close(b.signals.done)
	b.signals = nil
}

// WaitForInterrupt blocks until the interrupt flag is set, polling it every
// interval, or until ctx is done.
func (b *Broker) WaitForInterrupt(ctx context.Context, interval time.Duration) error {
	if b.Interrupted() {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if b.Interrupted() {
				return nil
			}
		}
	}
}
