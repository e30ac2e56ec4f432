package iso14230

import (
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultLineClearAttempts = 3
	defaultDrainReads        = 3
	defaultDrainTimeout      = 700 * time.Millisecond
)

// Conn is an ISO14230 link over a pass-thru channel.
// It is not safe for concurrent use, callers must serialize Send and Close.
type Conn struct {
	drv     Driver
	props   Properties
	log     logrus.Ext1FieldLogger
	timeout time.Duration

	deviceID  uint32
	channelID uint32
	filterID  uint32

	deviceOpen   bool
	channelOpen  bool
	filterSet    bool
	commsStarted bool

	lastResponse []byte
	timing       []byte

	printVersion      bool
	lineClearAttempts int
	drainReads        int
	drainTimeout      time.Duration
}

type Opt func(*Conn)

func WithLogger(l logrus.Ext1FieldLogger) Opt {
	return func(c *Conn) {
		if l != nil {
			c.log = l
		}
	}
}

// WithVersionInfo logs the firmware, driver and API versions after the device is opened
func WithVersionInfo(enabled bool) Opt {
	return func(c *Conn) {
		c.printVersion = enabled
	}
}

// WithLineClearAttempts caps how many line breaks are sent before the bus is considered dead
func WithLineClearAttempts(n int) Opt {
	return func(c *Conn) {
		if n > 0 {
			c.lineClearAttempts = n
		}
	}
}

// WithDrain sets how many stale reads are tolerated per line break and the timeout of each read
func WithDrain(reads int, timeout time.Duration) Opt {
	return func(c *Conn) {
		if reads > 0 {
			c.drainReads = reads
		}
		if timeout > 0 {
			c.drainTimeout = timeout
		}
	}
}

// Open brings up the link: open device, connect channel, push timing,
// install a pass-all filter and fast init the ECU. On failure everything
// acquired so far is released and a *LinkInitError is returned.
func Open(props Properties, drv Driver, opts ...Opt) (*Conn, error) {
	c := &Conn{
		drv:               drv,
		props:             props,
		log:               logrus.StandardLogger(),
		timeout:           props.ConnectTimeout,
		lineClearAttempts: defaultLineClearAttempts,
		drainReads:        defaultDrainReads,
		drainTimeout:      defaultDrainTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithField("proto", "iso14230")

	if err := c.init(); err != nil {
		c.log.Debugf("exception: deviceId:%d, channelId:%d, filterId:%d", c.deviceID, c.channelID, c.filterID)
		c.Close()
		return nil, err
	}
	c.log.Info("connection initialised")
	return c, nil
}

func (c *Conn) init() error {
	deviceID, err := c.drv.Open()
	if err != nil {
		return &LinkInitError{StageOpen, err}
	}
	c.deviceID = deviceID
	c.deviceOpen = true
	c.log = c.log.WithField("device", deviceID)

	if c.printVersion {
		c.version()
	}

	channelID, err := c.drv.Connect(c.deviceID, ConnectNoChecksum, c.props.BaudRate)
	if err != nil {
		return &LinkInitError{StageConnect, err}
	}
	c.channelID = channelID
	c.channelOpen = true
	c.log = c.log.WithField("channel", channelID)

	if err := c.SetConfig(c.props.configItems()...); err != nil {
		return &LinkInitError{StageConfig, err}
	}
	c.log.Debugf("connection properties: %s", c.props)

	filterID, err := c.drv.StartPassFilter(c.channelID, 0x00, 0x00)
	if err != nil {
		return &LinkInitError{StageFilter, err}
	}
	c.filterID = filterID
	c.filterSet = true
	c.log.Debugf("connection success: deviceId:%d, channelId:%d, filterId:%d, baud:%d",
		c.deviceID, c.channelID, c.filterID, c.props.BaudRate)

	if err := c.fastInit(); err != nil {
		return &LinkInitError{StageFastInit, err}
	}
	c.commsStarted = true
	return nil
}

func (c *Conn) version() {
	v, err := c.drv.ReadVersion(c.deviceID)
	if err != nil {
		c.log.Warnf("read version: %v", err)
		return
	}
	c.log.Infof("J2534 version => firmware: %s, dll: %s, api: %s", v.Firmware, v.DLL, v.API)
}

func (c *Conn) fastInit() error {
	timing, err := c.drv.FastInit(c.channelID, startReq)
	if err != nil {
		return err
	}
	c.timing = timing
	c.log.Debugf("fast init: deviceId:%d, channelId:%d, timing:% X", c.deviceID, c.channelID, timing)
	return nil
}

func (c *Conn) stopComms() error {
	resp, err := c.SendRecv(stopReq)
	if err != nil {
		return err
	}
	c.log.Debugf("stop comms response = % X", resp)
	return nil
}

// Close stops communication and releases filter, channel and device.
// Every step is attempted even if an earlier one failed; failures are only logged.
// Calling Close more than once is a no-op.
func (c *Conn) Close() {
	if c.commsStarted {
		if err := c.stopComms(); err != nil {
			c.log.Errorf("error stopping communications: %v", err)
		}
		c.commsStarted = false
	}
	if c.filterSet {
		if err := c.drv.StopFilter(c.channelID, c.filterID); err != nil {
			c.log.Warnf("error stopping msg filter: %v", err)
		} else {
			c.log.Debugf("stopped message filter: %d", c.filterID)
		}
		c.filterSet = false
	}
	if c.channelOpen {
		if err := c.drv.Disconnect(c.channelID); err != nil {
			c.log.Warnf("error disconnecting channel: %v", err)
		} else {
			c.log.Debugf("disconnected channel: %d", c.channelID)
		}
		c.channelOpen = false
	}
	if c.deviceOpen {
		if err := c.drv.Close(c.deviceID); err != nil {
			c.log.Warnf("error closing device: %v", err)
		} else {
			c.log.Infof("closed connection to device: %d", c.deviceID)
		}
		c.deviceOpen = false
	}
	c.lastResponse = nil
}

// Timing returns the key bytes the ECU sent in reply to the last fast init
func (c *Conn) Timing() []byte {
	return append([]byte(nil), c.timing...)
}

// LastResponse returns a copy of the last frame that passed validation in a repeat read
func (c *Conn) LastResponse() []byte {
	if c.lastResponse == nil {
		return nil
	}
	return append([]byte(nil), c.lastResponse...)
}
