package comm

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/zolink/pkg/framework"
)

// PacketHandler is called when a packet is received.
type PacketHandler interface {
	HandlePacket(context.Context, *Packet)
}

// HandlePacketFunc is func type of PacketHandler.
type HandlePacketFunc func(context.Context, *Packet)

// HandlePacket implements PacketHandler.
func (f HandlePacketFunc) HandlePacket(ctx context.Context, pkt *Packet) {
	f(ctx, pkt)
}

// DefaultPollInterval is how often Run polls an idle driver.
const DefaultPollInterval = time.Millisecond

// Link is one serial link: the node identity, a decoder and an encoder
// sharing a driver.
type Link struct {
	Driver       Driver
	Handler      PacketHandler
	Reporter     ErrorReporter
	PollInterval time.Duration
	// VerifyLRC drops received packets whose LRC doesn't match.
	VerifyLRC bool

	identity    Identity
	decoder     *Decoder
	encoder     *Encoder
	sendLock    sync.Mutex
	initialized atomic.Bool
}

// NewLink creates a Link over the driver.
func NewLink(drv Driver) *Link {
	l := &Link{
		Driver:       drv,
		PollInterval: DefaultPollInterval,
		encoder:      NewEncoder(drv),
	}
	l.identity.Set(0, DefaultLAM)
	l.decoder = NewDecoder(&l.identity)
	l.decoder.Reporter = ReportErrorFunc(l.reportError)
	return l
}

// Init configures the driver and the local node ID. The node ID isn't
// validated. Every step is attempted and the failures are aggregated.
// Init resets the decoder and must be called before Run.
func (l *Link) Init(hw HWType, ownNodeID byte, bitrate uint32) error {
	var errs fx.AggregatedError
	l.identity.SetNodeID(ownNodeID)
	errs.Add(l.Driver.Configure(hw), l.Driver.SetBitrate(bitrate))
	l.decoder.Reset()
	l.decoder.guard().Arm()
	l.initialized.Store(true)
	glog.V(2).Infof("link init hw=%s node=%02x bitrate=%d", hw, ownNodeID, bitrate)
	return errs.Aggregate()
}

// Identity returns the node identity.
func (l *Link) Identity() *Identity {
	return &l.identity
}

// Decoder exposes the decoder, mostly for inspection.
func (l *Link) Decoder() *Decoder {
	return l.decoder
}

// SetLAM sets the Local Acceptance Mask.
func (l *Link) SetLAM(mask byte) {
	l.identity.SetLAM(mask)
}

// SetBitrate changes the line speed.
func (l *Link) SetBitrate(bitsPerSecond uint32) error {
	return l.Driver.SetBitrate(bitsPerSecond)
}

// SetClock replaces the time source of the character timeout.
// It must be called before Run.
func (l *Link) SetClock(clock fx.TimeSource, window time.Duration) {
	l.decoder.Guard = &TimeoutGuard{Clock: clock, Window: window}
}

// Send encodes a packet to the driver.
func (l *Link) Send(pkt *Packet) error {
	if !l.initialized.Load() {
		return ErrNotInitialized
	}
	l.sendLock.Lock()
	defer l.sendLock.Unlock()
	return l.encoder.Encode(pkt)
}

// Poll runs one step: the timeout check, then at most one byte.
func (l *Link) Poll() (*Packet, error) {
	if !l.initialized.Load() {
		return nil, ErrNotInitialized
	}
	pkt, _, err := l.poll()
	return pkt, err
}

func (l *Link) poll() (pkt *Packet, consumed bool, err error) {
	l.decoder.CheckTimeout()
	b, ok := l.Driver.GetByte()
	if !ok {
		return nil, false, nil
	}
	if pkt, err = l.decoder.Feed(b); err != nil || pkt == nil {
		return nil, true, err
	}
	if l.VerifyLRC && !pkt.ValidLRC() {
		return nil, true, ErrLRCMismatch
	}
	return pkt, true, nil
}

// Run processes the link in the background.
func (l *Link) Run(ctx context.Context) error {
	if !l.initialized.Load() {
		return ErrNotInitialized
	}
	interval := l.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		// drain whatever arrived before sleeping again.
		for {
			pkt, consumed, err := l.poll()
			if err != nil {
				l.reportError(err)
			}
			if pkt != nil {
				if h := l.Handler; h != nil {
					h.HandlePacket(ctx, pkt)
				}
			}
			if !consumed {
				break
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *Link) reportError(err error) {
	if r := l.Reporter; r != nil {
		r.ReportError(err)
		return
	}
	glog.Warningf("link error: %v", err)
}
