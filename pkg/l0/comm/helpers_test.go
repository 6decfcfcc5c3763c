package comm

import (
	"sync"
	"time"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1000, 0)}
}

func (c *fakeClock) Time() time.Time {
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type fakeDriver struct {
	lock sync.Mutex

	rx    []byte
	tx    []byte
	txCap int

	hw         HWType
	bitrate    uint32
	configErr  error
	bitrateErr error
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{txCap: -1}
}

func (d *fakeDriver) Configure(hw HWType) error {
	d.hw = hw
	return d.configErr
}

func (d *fakeDriver) SetBitrate(bps uint32) error {
	if d.bitrateErr != nil {
		return d.bitrateErr
	}
	d.bitrate = bps
	return nil
}

func (d *fakeDriver) PutByte(b byte) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.txCap >= 0 && len(d.tx) >= d.txCap {
		return ErrTxBusy
	}
	d.tx = append(d.tx, b)
	return nil
}

func (d *fakeDriver) GetByte() (byte, bool) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if len(d.rx) == 0 {
		return 0, false
	}
	b := d.rx[0]
	d.rx = d.rx[1:]
	return b, true
}

func (d *fakeDriver) inject(bs ...byte) {
	d.lock.Lock()
	d.rx = append(d.rx, bs...)
	d.lock.Unlock()
}

func (d *fakeDriver) written() []byte {
	d.lock.Lock()
	defer d.lock.Unlock()
	return append([]byte(nil), d.tx...)
}

type errorRecorder struct {
	lock sync.Mutex
	errs []error
}

func (r *errorRecorder) ReportError(err error) {
	r.lock.Lock()
	r.errs = append(r.errs, err)
	r.lock.Unlock()
}

func (r *errorRecorder) reported() []error {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]error(nil), r.errs...)
}
