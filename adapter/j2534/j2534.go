//go:build (linux && amd64) || windows

package j2534

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/roffe/gokwp"
	"github.com/roffe/gokwp/pkg/iso14230"
	"github.com/roffe/gokwp/pkg/passthru"
	"github.com/sirupsen/logrus"
)

func init() {
	prefix, dlls := passthru.FindDLLs()
	for i, dll := range dlls {
		if !dll.Capabilities.KLine() {
			continue
		}
		name := fmt.Sprintf("%sJ2534 #%d %s", prefix, i, dll.Name)
		if err := gokwp.RegisterAdapter(&gokwp.AdapterInfo{
			Name:        name,
			Description: "J2534 Interface",
			Capabilities: gokwp.AdapterCapabilities{
				ISO9141:  dll.Capabilities.ISO9141,
				ISO14230: dll.Capabilities.ISO14230,
			},
			New: NewFromDLLName(name, dll.FunctionLibrary),
		}); err != nil {
			panic(err)
		}
	}
}

var _ iso14230.Driver = (*J2534)(nil)

// J2534 drives an ISO14230 channel through a pass-thru library
type J2534 struct {
	name string
	cfg  *gokwp.AdapterConfig
	h    *passthru.PassThru
	mu   sync.Mutex
}

func NewFromDLLName(name, dllPath string) func(cfg *gokwp.AdapterConfig) (iso14230.Driver, error) {
	return func(cfg *gokwp.AdapterConfig) (iso14230.Driver, error) {
		if cfg.Port == "" {
			cfg.Port = dllPath
		}
		ma, err := New(name, cfg)
		if err != nil {
			return nil, err
		}
		return ma, nil
	}
}

func New(name string, cfg *gokwp.AdapterConfig) (*J2534, error) {
	if cfg.Port == "" {
		return nil, errors.New("no J2534 library given")
	}
	if cfg.OnMessage == nil {
		cfg.OnMessage = func(msg string) {
			logrus.WithField("adapter", name).Info(msg)
		}
	}
	return &J2534{name: name, cfg: cfg}, nil
}

func (ma *J2534) Name() string {
	return ma.name
}

func (ma *J2534) Open() (uint32, error) {
	ma.mu.Lock()
	defer ma.mu.Unlock()
	if ma.cfg.Debug {
		ma.cfg.OnMessage("loading J2534 library " + ma.cfg.Port)
	}
	h, err := passthru.New(ma.cfg.Port)
	if err != nil {
		return 0, err
	}
	var deviceID uint32
	if err := h.PassThruOpen("", &deviceID); err != nil {
		if str, err2 := h.PassThruGetLastError(); err2 == nil && str != "" {
			ma.cfg.OnMessage("PassThruOpen: " + str)
		}
		if errg := h.Close(); errg != nil {
			ma.cfg.OnMessage(errg.Error())
		}
		return 0, fmt.Errorf("PassThruOpen: %w", err)
	}
	ma.h = h
	return deviceID, nil
}

func (ma *J2534) ReadVersion(deviceID uint32) (iso14230.Version, error) {
	firmware, dll, api, err := ma.h.PassThruReadVersion(deviceID)
	if err != nil {
		return iso14230.Version{}, fmt.Errorf("PassThruReadVersion: %w", err)
	}
	return iso14230.Version{Firmware: firmware, DLL: dll, API: api}, nil
}

func (ma *J2534) Connect(deviceID, flags, baudRate uint32) (uint32, error) {
	var channelID uint32
	if err := ma.h.PassThruConnect(deviceID, passthru.ISO14230, flags, baudRate, &channelID); err != nil {
		return 0, fmt.Errorf("PassThruConnect: %w", err)
	}
	return channelID, nil
}

func (ma *J2534) SetConfig(channelID uint32, items ...iso14230.ConfigItem) error {
	params := make([]passthru.SCONFIG, len(items))
	for i, item := range items {
		params[i] = passthru.SCONFIG{Parameter: uint32(item.Param), Value: item.Value}
	}
	if err := ma.h.PassThruIoctl(channelID, passthru.SET_CONFIG, passthru.NewConfigList(params...)); err != nil {
		return fmt.Errorf("PassThruIoctl set config: %w", err)
	}
	return nil
}

func (ma *J2534) GetConfig(channelID uint32, params ...iso14230.Param) ([]iso14230.ConfigItem, error) {
	list := make([]passthru.SCONFIG, len(params))
	for i, p := range params {
		list[i].Parameter = uint32(p)
	}
	if err := ma.h.PassThruIoctl(channelID, passthru.GET_CONFIG, passthru.NewConfigList(list...)); err != nil {
		return nil, fmt.Errorf("PassThruIoctl get config: %w", err)
	}
	out := make([]iso14230.ConfigItem, len(list))
	for i, sc := range list {
		out[i] = iso14230.ConfigItem{Param: iso14230.Param(sc.Parameter), Value: sc.Value}
	}
	return out, nil
}

func (ma *J2534) StartPassFilter(channelID uint32, mask, pattern byte) (uint32, error) {
	var filterID uint32
	maskMsg := passthru.NewMsg(passthru.ISO14230, []byte{mask}, 0)
	patternMsg := passthru.NewMsg(passthru.ISO14230, []byte{pattern}, 0)
	if err := ma.h.PassThruStartMsgFilter(channelID, passthru.PASS_FILTER, maskMsg, patternMsg, nil, &filterID); err != nil {
		return 0, fmt.Errorf("PassThruStartMsgFilter: %w", err)
	}
	return filterID, nil
}

func (ma *J2534) StopFilter(channelID, filterID uint32) error {
	if err := ma.h.PassThruStopMsgFilter(channelID, filterID); err != nil {
		return fmt.Errorf("PassThruStopMsgFilter: %w", err)
	}
	return nil
}

func (ma *J2534) WriteMsg(channelID uint32, data []byte, timeout time.Duration, txFlags uint32) error {
	msg := passthru.NewMsg(passthru.ISO14230, data, txFlags)
	numMsgs := uint32(1)
	if err := ma.h.PassThruWriteMsgs(channelID, msg, &numMsgs, millis(timeout)); err != nil {
		return fmt.Errorf("PassThruWriteMsgs: %w", err)
	}
	return nil
}

func (ma *J2534) ReadMsg(channelID uint32, buf []byte, timeout time.Duration) (int, error) {
	deadline := time.Now().Add(timeout)
	var n int
	for n < len(buf) {
		data, err := ma.readData(channelID, time.Until(deadline))
		if err != nil {
			return n, err
		}
		n += copy(buf[n:], data)
	}
	return n, nil
}

func (ma *J2534) ReadMsgs(channelID uint32, minLen int, timeout time.Duration) ([]byte, error) {
	return collect(func(d time.Duration) ([]byte, error) {
		return ma.readData(channelID, d)
	}, minLen, timeout)
}

// collect concatenates reads until minLen bytes arrived, or with minLen <= 0
// until the line is quiet or timeout has passed
func collect(read func(time.Duration) ([]byte, error), minLen int, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	var out []byte
	for {
		data, err := read(time.Until(deadline))
		if err != nil {
			if passthru.IsEmpty(err) && (minLen <= 0 || len(out) >= minLen) {
				return out, nil
			}
			return out, err
		}
		out = append(out, data...)
		if minLen > 0 && len(out) >= minLen {
			return out, nil
		}
		if minLen <= 0 && !time.Now().Before(deadline) {
			return out, nil
		}
	}
}

// readData returns the payload of the next received message, loopback
// echoes and start of message indications are dropped
func (ma *J2534) readData(channelID uint32, timeout time.Duration) ([]byte, error) {
	for {
		if timeout < 0 {
			timeout = 0
		}
		start := time.Now()
		msg := &passthru.PassThruMsg{ProtocolID: passthru.ISO14230}
		n, err := ma.h.PassThruReadMsg(channelID, msg, millis(timeout))
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, passthru.ErrBufferEmpty
		}
		if msg.RxStatus&(passthru.TX_MSG_TYPE|passthru.START_OF_MESSAGE) == 0 && msg.DataSize > 0 {
			return msg.Bytes(), nil
		}
		timeout -= time.Since(start)
	}
}

func (ma *J2534) ClearBuffers(channelID uint32) error {
	if err := ma.h.PassThruIoctl(channelID, passthru.CLEAR_TX_BUFFER); err != nil {
		return fmt.Errorf("PassThruIoctl clear tx buffer: %w", err)
	}
	if err := ma.h.PassThruIoctl(channelID, passthru.CLEAR_RX_BUFFER); err != nil {
		return fmt.Errorf("PassThruIoctl clear rx buffer: %w", err)
	}
	return nil
}

func (ma *J2534) FastInit(channelID uint32, start []byte) ([]byte, error) {
	in := passthru.NewMsg(passthru.ISO14230, start, 0)
	out := &passthru.PassThruMsg{ProtocolID: passthru.ISO14230}
	if err := ma.h.PassThruIoctl(channelID, passthru.FAST_INIT, in, out); err != nil {
		return nil, fmt.Errorf("PassThruIoctl fast init: %w", err)
	}
	return append([]byte(nil), out.Bytes()...), nil
}

func (ma *J2534) Disconnect(channelID uint32) error {
	if err := ma.h.PassThruDisconnect(channelID); err != nil {
		return fmt.Errorf("PassThruDisconnect: %w", err)
	}
	return nil
}

// Close closes the device and unloads the library
func (ma *J2534) Close(deviceID uint32) error {
	ma.mu.Lock()
	defer ma.mu.Unlock()
	if ma.h == nil {
		return nil
	}
	err := ma.h.PassThruClose(deviceID)
	if errg := ma.h.Close(); errg != nil && err == nil {
		err = errg
	}
	ma.h = nil
	if err != nil {
		return fmt.Errorf("PassThruClose: %w", err)
	}
	return nil
}

func millis(d time.Duration) uint32 {
	if d <= 0 {
		return 0
	}
	return uint32(d / time.Millisecond)
}
