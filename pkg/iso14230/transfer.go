package iso14230

import "fmt"

// Send exchanges a fixed length frame. response must be sized for the expected reply.
//
// In the Fresh state request is written before reading; in the Repeat state only
// a read is done and the frame is validated. A bad frame is replaced by the last
// good one and poll is told to start a new query. Going from Repeat back to
// Fresh clears the line before the request goes out.
func (c *Conn) Send(request, response []byte, poll Poller) error {
	if !c.channelOpen {
		return ErrNotOpen
	}
	if needsLineClear(poll) {
		c.clearLine()
	}

	state := poll.Current()
	if state == Fresh {
		if err := c.drv.WriteMsg(c.channelID, request, c.timeout, TxNoFlags); err != nil {
			return fmt.Errorf("write: %w", err)
		}
	}

	_, err := c.drv.ReadMsg(c.channelID, response, c.timeout)
	if state != Repeat {
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		return nil
	}

	if err == nil && Valid(response) {
		c.lastResponse = append(c.lastResponse[:0], response...)
		return nil
	}

	c.log.Errorf("bad data response: % X", response)
	c.mask(response)
	poll.RequestNewQuery()
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	return nil
}

// mask overwrites response with the last good frame, zero filling what it does not cover
func (c *Conn) mask(response []byte) {
	n := copy(response, c.lastResponse)
	clear(response[n:])
}

// SendRecv writes request and returns whatever the ECU answered within the timeout,
// for replies whose length is known by the caller rather than framed.
func (c *Conn) SendRecv(request []byte) ([]byte, error) {
	if !c.channelOpen {
		return nil, ErrNotOpen
	}
	if err := c.drv.WriteMsg(c.channelID, request, c.timeout, TxNoFlags); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	resp, err := c.drv.ReadMsgs(c.channelID, 1, c.timeout)
	if err != nil {
		return resp, fmt.Errorf("read: %w", err)
	}
	return resp, nil
}
