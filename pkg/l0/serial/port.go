// Package serial implements comm.Driver on top of a serial port.
package serial

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"
	"go.bug.st/serial"

	fx "github.com/robotalks/zolink/pkg/framework"
	"github.com/robotalks/zolink/pkg/l0/comm"
)

// Queue sizes stand in for the UART FIFOs of the MCU.
const (
	DefaultRxQueueLen = 64
	DefaultTxQueueLen = 64
	DefaultBitrate    = 57600
)

// ErrNotOpen indicates the port is used before Configure.
var ErrNotOpen = errors.New("serial port not open")

// OpenFunc opens a serial port.
type OpenFunc func(path string, mode *serial.Mode) (serial.Port, error)

// Port implements comm.Driver. Received bytes are pumped into a bounded
// queue by a reader goroutine; PutByte only queues for the writer
// goroutine so neither side blocks the polling loop.
type Port struct {
	Path string
	Open OpenFunc

	lock    sync.Mutex
	port    serial.Port
	mode    serial.Mode
	hw      comm.HWType
	rx      chan byte
	tx      chan byte
	overrun atomic.Uint64
}

// New creates a Port for the device path.
func New(path string) *Port {
	return NewWithQueues(path, DefaultRxQueueLen, DefaultTxQueueLen)
}

// NewWithQueues creates a Port with specified queue sizes.
func NewWithQueues(path string, rxLen, txLen int) *Port {
	return &Port{
		Path: path,
		Open: serial.Open,
		mode: serial.Mode{
			BaudRate: DefaultBitrate,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		},
		rx: make(chan byte, rxLen),
		tx: make(chan byte, txLen),
	}
}

// Configure implements comm.Driver. The port is opened on first use.
func (p *Port) Configure(hw comm.HWType) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.port == nil {
		mode := p.mode
		port, err := p.Open(p.Path, &mode)
		if err != nil {
			return err
		}
		p.port = port
		glog.Infof("opened %s at %d baud (%s)", p.Path, p.mode.BaudRate, hw)
	}
	p.hw = hw
	if hw == comm.HWRS485HalfDuplex {
		// RTS drives the transceiver direction, start listening.
		return p.port.SetRTS(false)
	}
	return nil
}

// SetBitrate implements comm.Driver.
func (p *Port) SetBitrate(bitsPerSecond uint32) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.mode.BaudRate = int(bitsPerSecond)
	if p.port == nil {
		return nil
	}
	mode := p.mode
	return p.port.SetMode(&mode)
}

// PutByte implements comm.Driver.
func (p *Port) PutByte(b byte) error {
	select {
	case p.tx <- b:
		return nil
	default:
		return comm.ErrTxBusy
	}
}

// GetByte implements comm.Driver.
func (p *Port) GetByte() (byte, bool) {
	select {
	case b := <-p.rx:
		return b, true
	default:
		return 0, false
	}
}

// Overruns counts bytes dropped because the receive queue was full.
func (p *Port) Overruns() uint64 {
	return p.overrun.Load()
}

// Close implements io.Closer.
func (p *Port) Close() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.port == nil {
		return nil
	}
	err := p.port.Close()
	p.port = nil
	return err
}

// Name implements Named.
func (p *Port) Name() string {
	return "serial:" + p.Path
}

// Run implements Runnable and pumps bytes until ctx is canceled or the
// port fails. Bytes already queued by PutByte are written before the port
// is closed.
func (p *Port) Run(ctx context.Context) error {
	p.lock.Lock()
	port, hw := p.port, p.hw
	p.lock.Unlock()
	if port == nil {
		return ErrNotOpen
	}
	writeCtx, cancel := context.WithCancel(ctx)
	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		p.writeLoop(writeCtx, port, hw)
	}()
	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			<-writeDone
			p.Close()
		})
	}
	defer stop()
	return fx.RunWithContextCancel(ctx, stop, func() error {
		return p.readLoop(port)
	})
}

func (p *Port) readLoop(port serial.Port) error {
	buf := make([]byte, 16)
	for {
		n, err := port.Read(buf)
		if err != nil {
			return err
		}
		for _, b := range buf[:n] {
			select {
			case p.rx <- b:
			default:
				p.overrun.Add(1)
				glog.V(2).Infof("%s: rx overrun", p.Path)
			}
		}
	}
}

func (p *Port) writeLoop(ctx context.Context, port serial.Port, hw comm.HWType) {
	buf := make([]byte, 0, cap(p.tx))
	for {
		select {
		case <-ctx.Done():
			p.flush(port, hw, buf)
			return
		case b := <-p.tx:
			buf = append(buf[:0], b)
		}
		buf = p.takeQueued(buf)
		if err := p.write(port, hw, buf); err != nil {
			glog.Warningf("%s: write error: %v", p.Path, err)
		}
	}
}

// takeQueued appends whatever is queued without blocking.
func (p *Port) takeQueued(buf []byte) []byte {
	for len(buf) < cap(buf) {
		select {
		case b := <-p.tx:
			buf = append(buf, b)
		default:
			return buf
		}
	}
	return buf
}

// flush writes out the transmit queue on shutdown.
func (p *Port) flush(port serial.Port, hw comm.HWType, buf []byte) {
	for {
		buf = p.takeQueued(buf[:0])
		if len(buf) == 0 {
			return
		}
		if err := p.write(port, hw, buf); err != nil {
			glog.Warningf("%s: write error on close, %d bytes dropped: %v", p.Path, len(buf), err)
			return
		}
	}
}

func (p *Port) write(port serial.Port, hw comm.HWType, buf []byte) error {
	if hw != comm.HWRS485HalfDuplex {
		_, err := port.Write(buf)
		return err
	}
	if err := port.SetRTS(true); err != nil {
		return err
	}
	_, err := port.Write(buf)
	if err == nil {
		err = port.Drain()
	}
	if rtsErr := port.SetRTS(false); err == nil {
		err = rtsErr
	}
	return err
}

// Ports lists the serial ports available on the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
