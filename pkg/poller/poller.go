// Package poller runs a polling session over an ISO14230 connection,
// owning the fresh/repeat state machine the connection reads from.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/roffe/gokwp/pkg/iso14230"
	"github.com/sirupsen/logrus"
)

// Transport is the steady state half of *iso14230.Conn
type Transport interface {
	Send(request, response []byte, poll iso14230.Poller) error
}

type Config struct {
	Request        []byte
	ResponseLength int
	// Interval between cycles, 0 polls back to back
	Interval time.Duration
	// FastPoll sends the request once and keeps reading the ECU's repeated answers
	FastPoll bool
	// ClearFirst clears the line before the first request, for when the ECU
	// may still be answering an earlier query
	ClearFirst bool
}

type Result struct {
	Time  time.Time
	State iso14230.State
	Data  []byte
	// Stale is set when Data was backfilled from the last good frame
	Stale bool
	Err   error
}

func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s %-6s error: %v", r.Time.Format("15:04:05.000"), r.State, r.Err)
	}
	return fmt.Sprintf("%s %-6s % X", r.Time.Format("15:04:05.000"), r.State, r.Data)
}

type Stats struct {
	Cycles  uint64
	Fresh   uint64
	Repeats uint64
	Stale   uint64
	Errors  uint64
}

func (st Stats) String() string {
	return fmt.Sprintf("cycles: %d fresh: %d repeat: %d stale: %d errors: %d", st.Cycles, st.Fresh, st.Repeats, st.Stale, st.Errors)
}

type Poller struct {
	cfg Config
	t   Transport
	log logrus.FieldLogger

	state   iso14230.PollState
	started bool
	restart bool

	mu    sync.Mutex
	stats Stats
}

func New(cfg Config, t Transport, log logrus.FieldLogger) (*Poller, error) {
	if len(cfg.Request) == 0 {
		return nil, errors.New("poller: empty request")
	}
	if cfg.ResponseLength <= 0 {
		return nil, fmt.Errorf("poller: invalid response length %d", cfg.ResponseLength)
	}
	if t == nil {
		return nil, errors.New("poller: no transport")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	p := &Poller{
		cfg: cfg,
		t:   t,
		log: log.WithField("component", "poller"),
	}
	if cfg.ClearFirst {
		p.state.Next(iso14230.Repeat)
	}
	return p, nil
}

func (p *Poller) next() iso14230.State {
	if !p.started || p.restart || !p.cfg.FastPoll {
		return iso14230.Fresh
	}
	return iso14230.Repeat
}

// PollOnce runs a single cycle
func (p *Poller) PollOnce() Result {
	s := p.next()
	p.state.Next(s)
	p.started = true
	p.restart = false

	res := Result{
		State: s,
		Data:  make([]byte, p.cfg.ResponseLength),
	}
	res.Err = p.t.Send(p.cfg.Request, res.Data, &p.state)
	res.Time = time.Now()

	if p.state.TakeNewQuery() {
		res.Stale = true
		p.restart = true
		p.log.Warn("bad frame from ECU, restarting query")
	}
	if res.Err != nil {
		p.restart = true
		p.log.Debugf("cycle failed: %v", res.Err)
	}

	p.mu.Lock()
	p.stats.Cycles++
	if s == iso14230.Fresh {
		p.stats.Fresh++
	} else {
		p.stats.Repeats++
	}
	if res.Stale {
		p.stats.Stale++
	}
	if res.Err != nil {
		p.stats.Errors++
	}
	p.mu.Unlock()
	return res
}

// Run polls until ctx is done, every result is delivered on out
func (p *Poller) Run(ctx context.Context, out chan<- Result) error {
	var tick <-chan time.Time
	if p.cfg.Interval > 0 {
		t := time.NewTicker(p.cfg.Interval)
		defer t.Stop()
		tick = t.C
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		res := p.PollOnce()
		select {
		case out <- res:
		case <-ctx.Done():
			return ctx.Err()
		}
		if tick != nil {
			select {
			case <-tick:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (p *Poller) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
