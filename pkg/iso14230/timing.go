package iso14230

import (
	"fmt"
	"time"
)

// Param identifies a channel configuration parameter
type Param uint32

const (
	Loopback Param = 0x03
	P1Max    Param = 0x07
	P3Min    Param = 0x0A
	P4Min    Param = 0x0C
	Parity   Param = 0x16
	DataBits Param = 0x20
)

func (p Param) String() string {
	switch p {
	case Loopback:
		return "LOOPBACK"
	case P1Max:
		return "P1_MAX"
	case P3Min:
		return "P3_MIN"
	case P4Min:
		return "P4_MIN"
	case Parity:
		return "PARITY"
	case DataBits:
		return "DATA_BITS"
	default:
		return fmt.Sprintf("PARAM_0x%02X", uint32(p))
	}
}

type ConfigItem struct {
	Param Param
	Value uint32
}

func (c ConfigItem) String() string {
	return fmt.Sprintf("%s=%d", c.Param, c.Value)
}

// DefaultConfigValue stands in for a parameter the driver did not report.
// It is a fallback to keep P3_MIN restorable, not a verified hardware default.
const DefaultConfigValue = 10

// p3MinBreak is the P3_MIN used while sending a line break, in half milliseconds
const p3MinBreak = 2

// Properties are the K-line settings supplied by the caller
type Properties struct {
	ConnectTimeout time.Duration
	BaudRate       uint32
	DataBits       int
	Parity         uint32
	P1Max          time.Duration
	P3Min          time.Duration
	P4Min          time.Duration
}

func (p Properties) String() string {
	return fmt.Sprintf("timeout=%s baud=%d databits=%d parity=%d p1max=%s p3min=%s p4min=%s",
		p.ConnectTimeout, p.BaudRate, p.DataBits, p.Parity, p.P1Max, p.P3Min, p.P4Min)
}

// configItems returns the channel configuration in the order it is pushed to the driver.
// Timings are in driver units of half a millisecond.
func (p Properties) configItems() []ConfigItem {
	dataBits := uint32(1)
	if p.DataBits == 8 {
		dataBits = 0
	}
	return []ConfigItem{
		{DataBits, dataBits},
		{Parity, p.Parity},
		{P1Max, halfMillis(p.P1Max)},
		{P3Min, halfMillis(p.P3Min)},
		{P4Min, halfMillis(p.P4Min)},
		{Loopback, 0},
	}
}

func halfMillis(d time.Duration) uint32 {
	return uint32(d / (500 * time.Microsecond))
}

// SetConfig pushes items to the channel in one call
func (c *Conn) SetConfig(items ...ConfigItem) error {
	if err := c.drv.SetConfig(c.channelID, items...); err != nil {
		return fmt.Errorf("set config %v: %w", items, err)
	}
	for _, item := range items {
		c.log.Tracef("config set %s value = %d", item.Param, item.Value)
	}
	return nil
}

// GetConfig returns the current value of p. When the driver fails or does not
// report p, DefaultConfigValue is returned and ok is false.
func (c *Conn) GetConfig(p Param) (value uint32, ok bool) {
	items, err := c.drv.GetConfig(c.channelID, p)
	if err != nil {
		c.log.Warnf("config get %s failed, value unknown, using fallback %d: %v", p, DefaultConfigValue, err)
		return DefaultConfigValue, false
	}
	for _, item := range items {
		if item.Param == p {
			c.log.Tracef("config get %s value = %d", p, item.Value)
			return item.Value, true
		}
	}
	c.log.Warnf("config get %s not reported by driver, value unknown, using fallback %d", p, DefaultConfigValue)
	return DefaultConfigValue, false
}
