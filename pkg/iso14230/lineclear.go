package iso14230

import (
	"fmt"

	"github.com/avast/retry-go/v4"
)

// clearLine resynchronises with an ECU that may still be streaming answers to
// the previous query: send a break, drain the bus and fast init again.
// A dead bus or a failing fast init is logged, never returned.
func (c *Conn) clearLine() {
	err := retry.Do(
		c.lineBreak,
		retry.Attempts(uint(c.lineClearAttempts)),
		retry.Delay(0),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.log.Debugf("clearing line, attempt %d: %v", n+1, err)
		}),
	)
	if err != nil {
		c.log.Errorf("%v: gave up clearing line after %d attempts: %v", ErrECUUnresponsive, c.lineClearAttempts, err)
		return
	}
	if err := c.fastInit(); err != nil {
		c.log.Errorf("error performing fast initialization after clearing line: %v", fmt.Errorf("%w: %w", ErrECUUnresponsive, err))
	}
}

// lineBreak sends stop communication with a shortened P3_MIN, flushes the
// driver and drains what is left on the line
func (c *Conn) lineBreak() error {
	c.log.Debug("sending line break")

	p3Min, _ := c.GetConfig(P3Min)
	if err := c.SetConfig(ConfigItem{P3Min, p3MinBreak}); err != nil {
		c.log.Warnf("line break: %v", err)
	}
	if err := c.drv.WriteMsg(c.channelID, stopReq, 0, TxWaitP3MinOnly); err != nil {
		c.log.Debugf("line break write: %v", err)
	}
	if err := c.SetConfig(ConfigItem{P3Min, p3Min}); err != nil {
		c.log.Warnf("line break restore: %v", err)
	}

	if err := c.drv.ClearBuffers(c.channelID); err != nil {
		c.log.Warnf("clear buffers: %v", err)
	}
	return c.drain()
}

// drain reads until the line is quiet, at most drainReads times
func (c *Conn) drain() error {
	for i := 1; i <= c.drainReads; i++ {
		stale, err := c.drv.ReadMsgs(c.channelID, 0, c.drainTimeout)
		if err != nil {
			c.log.Debugf("clearing line (read %d): %v", i, err)
			return fmt.Errorf("drain: %w", err)
		}
		if len(stale) == 0 {
			return nil
		}
		c.log.Debugf("clearing line (stale data %d): % X", i, stale)
	}
	return errStaleData
}
