// Package icp dispatches pulse width capture events to a registered
// handler. It is a library for an external capture source: the source
// reads Config to program its timer (edge sequence and clock selection)
// and reports events through Captured, Failed and Overflowed. No binary
// in this module drives one.
package icp

import (
	"sync"
	"sync/atomic"
	"time"
)

// Mode selects which pulse is measured.
type Mode int

// Capture modes.
const (
	ModeHighLowHigh Mode = iota
	ModeLowHighLow
)

// Prescale is the timer clock selection.
type Prescale byte

// Timer clock selections.
const (
	Prescale1         Prescale = 0x01
	Prescale8         Prescale = 0x02
	Prescale64        Prescale = 0x03
	Prescale256       Prescale = 0x04
	Prescale1024      Prescale = 0x05
	PrescaleT1Falling Prescale = 0x06
	PrescaleT1Rising  Prescale = 0x07
)

// Defaults.
const (
	DefaultMode     = ModeLowHighLow
	DefaultPrescale = Prescale1
)

// Divider returns the clock divider, 0 for external clocks.
func (p Prescale) Divider() uint32 {
	switch p {
	case Prescale1:
		return 1
	case Prescale8:
		return 8
	case Prescale64:
		return 64
	case Prescale256:
		return 256
	case Prescale1024:
		return 1024
	}
	return 0
}

// Handler receives capture events. Calls are synchronous from the
// reporting context and must not block.
type Handler interface {
	OnCapture(timerTicks uint16)
	OnCaptureFailure()
	OnOverflow()
}

// Funcs adapts optional funcs to Handler.
type Funcs struct {
	Capture        func(timerTicks uint16)
	CaptureFailure func()
	Overflow       func()
}

// OnCapture implements Handler.
func (f Funcs) OnCapture(timerTicks uint16) {
	if f.Capture != nil {
		f.Capture(timerTicks)
	}
}

// OnCaptureFailure implements Handler.
func (f Funcs) OnCaptureFailure() {
	if f.CaptureFailure != nil {
		f.CaptureFailure()
	}
}

// OnOverflow implements Handler.
func (f Funcs) OnOverflow() {
	if f.Overflow != nil {
		f.Overflow()
	}
}

type handlerBox struct {
	h Handler
}

// Capture keeps the configuration and the latest pulse width and
// forwards events to the attached handler.
type Capture struct {
	lock     sync.Mutex
	mode     Mode
	prescale Prescale

	handler atomic.Value // handlerBox
	width   atomic.Uint32
	valid   atomic.Bool
}

// New creates a Capture with default mode and prescaler.
func New() *Capture {
	return &Capture{mode: DefaultMode, prescale: DefaultPrescale}
}

// SetMode sets the capture mode.
func (c *Capture) SetMode(mode Mode) {
	c.lock.Lock()
	c.mode = mode
	c.lock.Unlock()
}

// SetPrescaler sets the timer clock selection.
func (c *Capture) SetPrescaler(prescale Prescale) {
	c.lock.Lock()
	c.prescale = prescale
	c.lock.Unlock()
}

// Config returns mode and prescaler.
func (c *Capture) Config() (Mode, Prescale) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.mode, c.prescale
}

// Attach registers the handler, nil detaches.
func (c *Capture) Attach(h Handler) {
	c.handler.Store(handlerBox{h: h})
}

func (c *Capture) current() Handler {
	if box, ok := c.handler.Load().(handlerBox); ok {
		return box.h
	}
	return nil
}

// Captured records a measured pulse and notifies the handler.
func (c *Capture) Captured(timerTicks uint16) {
	c.width.Store(uint32(timerTicks))
	c.valid.Store(true)
	if h := c.current(); h != nil {
		h.OnCapture(timerTicks)
	}
}

// Failed reports a capture failure.
func (c *Capture) Failed() {
	c.valid.Store(false)
	if h := c.current(); h != nil {
		h.OnCaptureFailure()
	}
}

// Overflowed reports a timer overflow.
func (c *Capture) Overflowed() {
	if h := c.current(); h != nil {
		h.OnOverflow()
	}
}

// PulseWidth returns the latest measurement in timer ticks, false if the
// last capture failed or none happened yet.
func (c *Capture) PulseWidth() (uint16, bool) {
	if !c.valid.Load() {
		return 0, false
	}
	return uint16(c.width.Load()), true
}

// PulseDuration converts the latest measurement to time, given the timer
// input clock in Hz. It returns false without a valid measurement or when
// the prescaler selects an external clock.
func (c *Capture) PulseDuration(clockHz uint32) (time.Duration, bool) {
	ticks, ok := c.PulseWidth()
	if !ok || clockHz == 0 {
		return 0, false
	}
	_, prescale := c.Config()
	div := prescale.Divider()
	if div == 0 {
		return 0, false
	}
	return time.Duration(uint64(ticks) * uint64(div) * uint64(time.Second) / uint64(clockHz)), true
}
