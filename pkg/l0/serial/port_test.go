package serial

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"github.com/robotalks/zolink/pkg/l0/comm"
)

type fakePort struct {
	serial.Port

	lock    sync.Mutex
	readCh  chan []byte
	closed  chan struct{}
	once    sync.Once
	writes  [][]byte
	events  []string
	mode    serial.Mode
	writeCh chan struct{}
}

func newFakePort() *fakePort {
	return &fakePort{
		readCh:  make(chan []byte, 4),
		closed:  make(chan struct{}),
		writeCh: make(chan struct{}, 16),
	}
}

func (f *fakePort) Read(p []byte) (int, error) {
	select {
	case data := <-f.readCh:
		return copy(p, data), nil
	case <-f.closed:
		return 0, io.EOF
	}
}

func (f *fakePort) Write(p []byte) (int, error) {
	f.lock.Lock()
	f.writes = append(f.writes, append([]byte(nil), p...))
	f.events = append(f.events, "write")
	f.lock.Unlock()
	f.writeCh <- struct{}{}
	return len(p), nil
}

func (f *fakePort) SetRTS(rts bool) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if rts {
		f.events = append(f.events, "rts+")
	} else {
		f.events = append(f.events, "rts-")
	}
	return nil
}

func (f *fakePort) Drain() error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.events = append(f.events, "drain")
	return nil
}

func (f *fakePort) SetMode(mode *serial.Mode) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.mode = *mode
	return nil
}

func (f *fakePort) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakePort) written() []byte {
	f.lock.Lock()
	defer f.lock.Unlock()
	var out []byte
	for _, w := range f.writes {
		out = append(out, w...)
	}
	return out
}

func (f *fakePort) eventLog() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]string(nil), f.events...)
}

func newTestPort(t *testing.T, fake *fakePort, rxLen, txLen int) *Port {
	p := NewWithQueues("/dev/ttyTEST", rxLen, txLen)
	p.Open = func(path string, mode *serial.Mode) (serial.Port, error) {
		require.Equal(t, "/dev/ttyTEST", path)
		fake.mode = *mode
		return fake, nil
	}
	return p
}

func TestPortNotOpen(t *testing.T) {
	p := New("/dev/null")
	require.Equal(t, ErrNotOpen, p.Run(context.Background()))
	require.NoError(t, p.SetBitrate(9600))
	require.NoError(t, p.Close())
}

func TestPortOpenError(t *testing.T) {
	p := New("/dev/ttyNONE")
	p.Open = func(string, *serial.Mode) (serial.Port, error) {
		return nil, errors.New("no such device")
	}
	require.Error(t, p.Configure(comm.HWUart))
}

func TestPortBitrate(t *testing.T) {
	fake := newFakePort()
	p := newTestPort(t, fake, 4, 4)
	require.NoError(t, p.SetBitrate(115200))
	require.NoError(t, p.Configure(comm.HWUart))
	require.Equal(t, 115200, fake.mode.BaudRate)
	require.Equal(t, 8, fake.mode.DataBits)
	require.NoError(t, p.SetBitrate(9600))
	require.Equal(t, 9600, fake.mode.BaudRate)
}

func TestPortPutByteBusy(t *testing.T) {
	p := newTestPort(t, newFakePort(), 1, 2)
	require.NoError(t, p.PutByte(1))
	require.NoError(t, p.PutByte(2))
	require.Equal(t, comm.ErrTxBusy, p.PutByte(3))
	_, ok := p.GetByte()
	require.False(t, ok)
}

func TestPortRun(t *testing.T) {
	fake := newFakePort()
	p := newTestPort(t, fake, 2, 16)
	require.NoError(t, p.Configure(comm.HWUart))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()

	fake.readCh <- []byte{0xaa, 0x55, 0x01}
	var got []byte
	deadline := time.After(500 * time.Millisecond)
	for len(got) < 2 {
		if b, ok := p.GetByte(); ok {
			got = append(got, b)
			continue
		}
		select {
		case <-deadline:
			t.Fatal("rx timeout")
		case <-time.After(time.Millisecond):
		}
	}
	require.Equal(t, []byte{0xaa, 0x55}, got)

	require.NoError(t, p.PutByte(0x10))
	select {
	case <-fake.writeCh:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("tx timeout")
	}
	require.Equal(t, []byte{0x10}, fake.written())

	cancel()
	require.Equal(t, context.Canceled, <-errCh)
}

func TestPortRS485Direction(t *testing.T) {
	fake := newFakePort()
	p := newTestPort(t, fake, 4, 16)
	require.NoError(t, p.Configure(comm.HWRS485HalfDuplex))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	enc := comm.NewEncoder(p)
	require.NoError(t, enc.Encode(comm.NewPacket(1, 2, 3)))
	// wait for the whole frame and the direction to be released.
	deadline := time.Now().Add(500 * time.Millisecond)
	for {
		events := fake.eventLog()
		if len(fake.written()) >= 7 && events[len(events)-1] == "rts-" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("tx timeout")
		}
		time.Sleep(time.Millisecond)
	}
	events := fake.eventLog()
	require.Equal(t, "rts-", events[0])
	require.Equal(t, "rts+", events[1])
	require.Equal(t, "rts-", events[len(events)-1])
	require.Contains(t, events, "drain")
	require.Equal(t, []byte{0xaa, 0x55, 1, 2, 3, 0, 0}, fake.written())
}

func TestPortFlushesQueueOnStop(t *testing.T) {
	frame := comm.NewPacket(1, 2, 3, 4, 5).Bytes()
	for i := 0; i < 50; i++ {
		fake := newFakePort()
		fake.writeCh = make(chan struct{}, len(frame))
		p := newTestPort(t, fake, 4, 16)
		require.NoError(t, p.Configure(comm.HWUart))

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- p.Run(ctx) }()
		for _, b := range frame {
			require.NoError(t, p.PutByte(b))
		}
		cancel()
		require.Equal(t, context.Canceled, <-errCh)
		require.Equal(t, frame, fake.written(), "iteration %d", i)
	}
}

func TestPortFlushesQueueOnReadError(t *testing.T) {
	fake := newFakePort()
	p := newTestPort(t, fake, 4, 16)
	require.NoError(t, p.Configure(comm.HWUart))
	require.NoError(t, p.PutByte(0x10))
	require.NoError(t, p.PutByte(0x11))

	// the reader fails right away.
	fake.Close()
	require.Equal(t, io.EOF, p.Run(context.Background()))
	require.Equal(t, []byte{0x10, 0x11}, fake.written())
}
