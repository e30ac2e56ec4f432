package iso14230

import (
	"errors"
	"time"
)

var errFakeTimeout = errors.New("fake: read timeout")

type write struct {
	data    []byte
	timeout time.Duration
	flags   uint32
}

// fakeDriver is a scripted pass-thru device. Reads are served from queues,
// every call is recorded by name.
type fakeDriver struct {
	calls []string
	fail  map[string]error

	connectFlags uint32
	baudRate     uint32
	configSets   [][]ConfigItem
	config       map[Param]uint32
	hideConfig   bool
	p3Sets       []uint32

	writes    []write
	reads     [][]byte // ReadMsg
	replies   [][]byte // ReadMsgs with minLen > 0
	drain     [][]byte // ReadMsgs with minLen <= 0
	drainAll  bool     // every drain read returns stale data
	drainHits int

	fastInitFrames [][]byte
	timing         []byte
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		fail:   make(map[string]error),
		config: make(map[Param]uint32),
		timing: []byte{0xC1, 0xEF, 0x8F},
	}
}

func (d *fakeDriver) record(op string) error {
	d.calls = append(d.calls, op)
	return d.fail[op]
}

func (d *fakeDriver) count(op string) int {
	n := 0
	for _, c := range d.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (d *fakeDriver) Open() (uint32, error) {
	if err := d.record("Open"); err != nil {
		return 0, err
	}
	return 7, nil
}

func (d *fakeDriver) ReadVersion(deviceID uint32) (Version, error) {
	if err := d.record("ReadVersion"); err != nil {
		return Version{}, err
	}
	return Version{Firmware: "1.0", DLL: "2.0", API: "04.04"}, nil
}

func (d *fakeDriver) Connect(deviceID, flags, baudRate uint32) (uint32, error) {
	if err := d.record("Connect"); err != nil {
		return 0, err
	}
	d.connectFlags = flags
	d.baudRate = baudRate
	return 3, nil
}

func (d *fakeDriver) SetConfig(channelID uint32, items ...ConfigItem) error {
	if err := d.record("SetConfig"); err != nil {
		return err
	}
	d.configSets = append(d.configSets, items)
	for _, item := range items {
		d.config[item.Param] = item.Value
		if item.Param == P3Min {
			d.p3Sets = append(d.p3Sets, item.Value)
		}
	}
	return nil
}

func (d *fakeDriver) GetConfig(channelID uint32, params ...Param) ([]ConfigItem, error) {
	if err := d.record("GetConfig"); err != nil {
		return nil, err
	}
	if d.hideConfig {
		return nil, nil
	}
	var out []ConfigItem
	for _, p := range params {
		if v, ok := d.config[p]; ok {
			out = append(out, ConfigItem{p, v})
		}
	}
	return out, nil
}

func (d *fakeDriver) StartPassFilter(channelID uint32, mask, pattern byte) (uint32, error) {
	if err := d.record("StartPassFilter"); err != nil {
		return 0, err
	}
	return 11, nil
}

func (d *fakeDriver) StopFilter(channelID, filterID uint32) error {
	return d.record("StopFilter")
}

func (d *fakeDriver) WriteMsg(channelID uint32, data []byte, timeout time.Duration, txFlags uint32) error {
	if err := d.record("WriteMsg"); err != nil {
		return err
	}
	d.writes = append(d.writes, write{append([]byte(nil), data...), timeout, txFlags})
	return nil
}

func (d *fakeDriver) ReadMsg(channelID uint32, buf []byte, timeout time.Duration) (int, error) {
	if err := d.record("ReadMsg"); err != nil {
		return 0, err
	}
	if len(d.reads) == 0 {
		return 0, errFakeTimeout
	}
	next := d.reads[0]
	d.reads = d.reads[1:]
	n := copy(buf, next)
	if n < len(buf) {
		return n, errFakeTimeout
	}
	return n, nil
}

func (d *fakeDriver) ReadMsgs(channelID uint32, minLen int, timeout time.Duration) ([]byte, error) {
	if minLen <= 0 {
		d.calls = append(d.calls, "Drain")
		d.drainHits++
		if err := d.fail["Drain"]; err != nil {
			return nil, err
		}
		if d.drainAll {
			return []byte{0xAA, 0x55}, nil
		}
		if len(d.drain) == 0 {
			return nil, nil
		}
		next := d.drain[0]
		d.drain = d.drain[1:]
		return next, nil
	}
	if err := d.record("ReadMsgs"); err != nil {
		return nil, err
	}
	if len(d.replies) == 0 {
		return nil, errFakeTimeout
	}
	next := d.replies[0]
	d.replies = d.replies[1:]
	return next, nil
}

func (d *fakeDriver) ClearBuffers(channelID uint32) error {
	return d.record("ClearBuffers")
}

func (d *fakeDriver) FastInit(channelID uint32, start []byte) ([]byte, error) {
	if err := d.record("FastInit"); err != nil {
		return nil, err
	}
	d.fastInitFrames = append(d.fastInitFrames, append([]byte(nil), start...))
	return d.timing, nil
}

func (d *fakeDriver) Disconnect(channelID uint32) error {
	return d.record("Disconnect")
}

func (d *fakeDriver) Close(deviceID uint32) error {
	return d.record("Close")
}
