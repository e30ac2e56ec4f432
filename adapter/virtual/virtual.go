// Package virtual simulates a K-line ECU behind a pass-thru device.
//
// The ECU answers every query with a length framed reply and, like a real
// ECU in fast poll mode, keeps answering the last query until it is stopped
// with a line break. Faults can be injected through Config. Timeouts are not
// simulated, a read that cannot be satisfied fails immediately.
package virtual

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/roffe/gokwp"
	"github.com/roffe/gokwp/pkg/iso14230"
)

const Name = "Virtual K-line"

const (
	deviceID  = 1
	channelID = 1

	sidStartCommunication = 0x81
	sidStopCommunication  = 0x82
	positiveResponse      = 0x40
)

var (
	ErrNotOpen        = errors.New("virtual: device not open")
	ErrInvalidChannel = errors.New("virtual: invalid channel")
	ErrInvalidFilter  = errors.New("virtual: invalid filter")
	ErrNoResponse     = errors.New("virtual: no response from ecu")
	ErrTimeout        = errors.New("virtual: read timeout")
)

func init() {
	if err := gokwp.RegisterAdapter(&gokwp.AdapterInfo{
		Name:         Name,
		Description:  "Simulated ECU",
		Capabilities: gokwp.AdapterCapabilities{ISO14230: true},
		New: func(cfg *gokwp.AdapterConfig) (iso14230.Driver, error) {
			c, err := ParseConfig(cfg.AdditionalConfig)
			if err != nil {
				return nil, err
			}
			return New(c), nil
		},
	}); err != nil {
		panic(err)
	}
}

type Config struct {
	// CorruptEvery flips the checksum of every n:th reply
	CorruptEvery int
	// TruncateEvery drops the last byte of every n:th reply
	TruncateEvery int
	// StaleReads is how many drain reads still see data after a line break,
	// negative keeps the line noisy forever
	StaleReads   int
	FailFastInit bool
	// Dead makes the ECU ignore everything
	Dead bool
	// Payload returns the data answered for reply number seq, it must always be the same length
	Payload func(seq int) []byte
}

// ParseConfig reads a Config from adapter settings
func ParseConfig(m map[string]string) (Config, error) {
	var cfg Config
	ints := map[string]*int{
		"corrupt_every":  &cfg.CorruptEvery,
		"truncate_every": &cfg.TruncateEvery,
		"stale_reads":    &cfg.StaleReads,
	}
	bools := map[string]*bool{
		"fail_fast_init": &cfg.FailFastInit,
		"dead":           &cfg.Dead,
	}
	for k, v := range m {
		if p, ok := ints[k]; ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return cfg, fmt.Errorf("virtual: %s: %w", k, err)
			}
			*p = n
			continue
		}
		if p, ok := bools[k]; ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return cfg, fmt.Errorf("virtual: %s: %w", k, err)
			}
			*p = b
			continue
		}
		return cfg, fmt.Errorf("virtual: unknown setting %q", k)
	}
	return cfg, nil
}

func counter(seq int) []byte {
	return []byte{0x01, byte(seq >> 8), byte(seq), 0x00}
}

var _ iso14230.Driver = (*ECU)(nil)

// ECU is an in-memory K-line ECU that answers polls like real hardware.
type ECU struct {
	mu  sync.Mutex
	cfg Config

	deviceOpen  bool
	channelOpen bool
	filters     map[uint32]struct{}
	nextFilter  uint32
	params      map[iso14230.Param]uint32

	awake  bool
	query  []byte
	rx     []byte
	noise  int
	seq    int
	breaks int
	writes [][]byte
}

func New(cfg Config) *ECU {
	if cfg.Payload == nil {
		cfg.Payload = counter
	}
	return &ECU{
		cfg:     cfg,
		filters: make(map[uint32]struct{}),
		params:  make(map[iso14230.Param]uint32),
	}
}

func (e *ECU) Open() (uint32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deviceOpen = true
	return deviceID, nil
}

func (e *ECU) ReadVersion(id uint32) (iso14230.Version, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.deviceOpen || id != deviceID {
		return iso14230.Version{}, ErrNotOpen
	}
	return iso14230.Version{Firmware: "virtual", DLL: "1.0", API: "04.04"}, nil
}

func (e *ECU) Connect(id, flags, baudRate uint32) (uint32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.deviceOpen || id != deviceID {
		return 0, ErrNotOpen
	}
	e.channelOpen = true
	return channelID, nil
}

func (e *ECU) checkChannel(id uint32) error {
	if !e.channelOpen || id != channelID {
		return ErrInvalidChannel
	}
	return nil
}

func (e *ECU) SetConfig(ch uint32, items ...iso14230.ConfigItem) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkChannel(ch); err != nil {
		return err
	}
	for _, item := range items {
		e.params[item.Param] = item.Value
	}
	return nil
}

func (e *ECU) GetConfig(ch uint32, params ...iso14230.Param) ([]iso14230.ConfigItem, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkChannel(ch); err != nil {
		return nil, err
	}
	out := make([]iso14230.ConfigItem, len(params))
	for i, p := range params {
		out[i] = iso14230.ConfigItem{Param: p, Value: e.params[p]}
	}
	return out, nil
}

func (e *ECU) StartPassFilter(ch uint32, mask, pattern byte) (uint32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkChannel(ch); err != nil {
		return 0, err
	}
	id := e.nextFilter
	e.nextFilter++
	e.filters[id] = struct{}{}
	return id, nil
}

func (e *ECU) StopFilter(ch, filterID uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkChannel(ch); err != nil {
		return err
	}
	if _, ok := e.filters[filterID]; !ok {
		return ErrInvalidFilter
	}
	delete(e.filters, filterID)
	return nil
}

func (e *ECU) WriteMsg(ch uint32, data []byte, timeout time.Duration, txFlags uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkChannel(ch); err != nil {
		return err
	}
	e.writes = append(e.writes, append([]byte(nil), data...))
	if !e.awake || e.cfg.Dead {
		return nil
	}

	sid, ok := serviceID(data)
	if !ok {
		return nil
	}
	if sid == sidStopCommunication {
		e.awake = false
		e.query = nil
		if txFlags&iso14230.TxWaitP3MinOnly != 0 {
			e.breaks++
			e.noise = e.cfg.StaleReads
			return nil
		}
		frame, _ := iso14230.BuildFrame([]byte{sidStopCommunication + positiveResponse, 0xF1, 0x10})
		e.rx = append(e.rx, frame...)
		return nil
	}
	e.query = append(e.query[:0], data...)
	e.rx = append(e.rx, e.reply(sid)...)
	return nil
}

// reply builds the next answer to a query for sid with the configured faults applied
func (e *ECU) reply(sid byte) []byte {
	e.seq++
	frame, err := iso14230.BuildFrame(append([]byte{sid + positiveResponse}, e.cfg.Payload(e.seq)...))
	if err != nil {
		return nil
	}
	if e.cfg.CorruptEvery > 0 && e.seq%e.cfg.CorruptEvery == 0 {
		frame[len(frame)-1] ^= 0xFF
	}
	if e.cfg.TruncateEvery > 0 && e.seq%e.cfg.TruncateEvery == 0 {
		frame = frame[:len(frame)-1]
	}
	return frame
}

// stream queues another answer to the running query while fewer than n bytes are pending
func (e *ECU) stream(n int) {
	if !e.awake || e.query == nil || len(e.rx) >= n {
		return
	}
	sid, _ := serviceID(e.query)
	e.rx = append(e.rx, e.reply(sid)...)
}

func (e *ECU) ReadMsg(ch uint32, buf []byte, timeout time.Duration) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkChannel(ch); err != nil {
		return 0, err
	}
	e.stream(len(buf))
	n := copy(buf, e.rx)
	e.rx = e.rx[n:]
	if n < len(buf) {
		return n, ErrTimeout
	}
	return n, nil
}

func (e *ECU) ReadMsgs(ch uint32, minLen int, timeout time.Duration) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkChannel(ch); err != nil {
		return nil, err
	}
	if minLen <= 0 {
		if len(e.rx) == 0 && e.noise != 0 {
			if e.noise > 0 {
				e.noise--
			}
			return []byte{0x55, 0x00, 0xFF}, nil
		}
		out := e.rx
		e.rx = nil
		return out, nil
	}
	e.stream(minLen)
	out := e.rx
	e.rx = nil
	if len(out) < minLen {
		return out, ErrTimeout
	}
	return out, nil
}

func (e *ECU) ClearBuffers(ch uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkChannel(ch); err != nil {
		return err
	}
	e.rx = nil
	return nil
}

func (e *ECU) FastInit(ch uint32, start []byte) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkChannel(ch); err != nil {
		return nil, err
	}
	if e.cfg.Dead || e.cfg.FailFastInit {
		return nil, ErrNoResponse
	}
	if sid, ok := serviceID(start); !ok || sid != sidStartCommunication {
		return nil, fmt.Errorf("virtual: unexpected fast init request % X", start)
	}
	e.awake = true
	e.query = nil
	return iso14230.BuildFrame([]byte{sidStartCommunication + positiveResponse, 0xEF, 0x8F})
}

func (e *ECU) Disconnect(ch uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkChannel(ch); err != nil {
		return err
	}
	e.channelOpen = false
	e.awake = false
	e.query = nil
	e.rx = nil
	clear(e.filters)
	return nil
}

func (e *ECU) Close(id uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.deviceOpen || id != deviceID {
		return ErrNotOpen
	}
	e.deviceOpen = false
	e.channelOpen = false
	return nil
}

// Writes returns a copy of every frame written to the ECU
func (e *ECU) Writes() [][]byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]byte, len(e.writes))
	for i, w := range e.writes {
		out[i] = append([]byte(nil), w...)
	}
	return out
}

// Breaks returns the number of line breaks seen while the ECU was awake
func (e *ECU) Breaks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.breaks
}

func (e *ECU) Param(p iso14230.Param) uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params[p]
}

// InUse reports if a device or channel is still open
func (e *ECU) InUse() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deviceOpen || e.channelOpen
}

// ReplyLen is the length of a reply carrying payload bytes
func ReplyLen(payload int) int {
	return payload + 3
}

// serviceID finds the service id of a request in either the format byte
// header layout or the length byte layout
func serviceID(req []byte) (byte, bool) {
	if len(req) == 0 {
		return 0, false
	}
	if req[0]&0x80 == 0 {
		if len(req) < 2 {
			return 0, false
		}
		return req[1], true
	}
	idx := 3
	if req[0]&0x3F == 0 {
		idx = 4
	}
	if len(req) <= idx {
		return 0, false
	}
	return req[idx], true
}
