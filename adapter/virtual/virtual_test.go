package virtual

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/roffe/gokwp"
	"github.com/roffe/gokwp/pkg/iso14230"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

var query = iso14230.AppendChecksum([]byte{0x82, 0x10, 0xF1, 0x21, 0x01})

func props() iso14230.Properties {
	return iso14230.Properties{
		ConnectTimeout: 50 * time.Millisecond,
		BaudRate:       10400,
		DataBits:       8,
		P1Max:          time.Millisecond,
		P3Min:          5 * time.Millisecond,
	}
}

func open(t *testing.T, cfg Config) (*iso14230.Conn, *ECU, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.TraceLevel)
	ecu := New(cfg)
	c, err := iso14230.Open(props(), ecu, iso14230.WithLogger(logger), iso14230.WithDrain(3, time.Millisecond))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(c.Close)
	return c, ecu, hook
}

func entries(hook *test.Hook, level logrus.Level, substr string) int {
	var n int
	for _, e := range hook.AllEntries() {
		if e.Level == level && strings.Contains(e.Message, substr) {
			n++
		}
	}
	return n
}

func TestFastPoll(t *testing.T) {
	c, ecu, _ := open(t, Config{})
	var ps iso14230.PollState
	resp := make([]byte, ReplyLen(4))

	ps.Next(iso14230.Fresh)
	for seq := 1; seq <= 5; seq++ {
		if err := c.Send(query, resp, &ps); err != nil {
			t.Fatalf("cycle %d: Send() error = %v", seq, err)
		}
		if !iso14230.Valid(resp) {
			t.Fatalf("cycle %d: invalid frame % X", seq, resp)
		}
		if resp[1] != 0x61 || resp[4] != byte(seq) {
			t.Errorf("cycle %d: got % X", seq, resp)
		}
		ps.Next(iso14230.Repeat)
	}
	if n := len(ecu.Writes()); n != 1 {
		t.Errorf("query written %d times, want 1", n)
	}
	if ps.NewQuery() {
		t.Error("new query requested on a clean stream")
	}
}

func TestCorruptFrameMasked(t *testing.T) {
	c, ecu, hook := open(t, Config{CorruptEvery: 3})
	var ps iso14230.PollState
	resp := make([]byte, ReplyLen(4))

	ps.Next(iso14230.Fresh)
	if err := c.Send(query, resp, &ps); err != nil {
		t.Fatal(err)
	}
	ps.Next(iso14230.Repeat)
	if err := c.Send(query, resp, &ps); err != nil {
		t.Fatal(err)
	}
	good := append([]byte(nil), resp...)

	if err := c.Send(query, resp, &ps); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if !bytes.Equal(resp, good) {
		t.Errorf("corrupt frame not masked: got % X, want % X", resp, good)
	}
	if !ps.TakeNewQuery() {
		t.Error("new query not requested")
	}
	if entries(hook, logrus.ErrorLevel, "bad data response") != 1 {
		t.Error("bad frame not logged")
	}

	ps.Next(iso14230.Fresh)
	if err := c.Send(query, resp, &ps); err != nil {
		t.Fatalf("Send() after line clear error = %v", err)
	}
	if !iso14230.Valid(resp) || resp[4] != 4 {
		t.Errorf("got % X after restart", resp)
	}
	if ecu.Breaks() != 1 {
		t.Errorf("breaks = %d, want 1", ecu.Breaks())
	}
	if p3 := ecu.Param(iso14230.P3Min); p3 != 10 {
		t.Errorf("P3_MIN = %d after line clear, want 10", p3)
	}
}

func TestTruncatedFrame(t *testing.T) {
	c, _, _ := open(t, Config{TruncateEvery: 3})
	var ps iso14230.PollState
	resp := make([]byte, ReplyLen(4))

	ps.Next(iso14230.Fresh)
	if err := c.Send(query, resp, &ps); err != nil {
		t.Fatal(err)
	}
	ps.Next(iso14230.Repeat)
	if err := c.Send(query, resp, &ps); err != nil {
		t.Fatal(err)
	}
	good := append([]byte(nil), resp...)

	err := c.Send(query, resp, &ps)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Send() error = %v, want %v", err, ErrTimeout)
	}
	if !bytes.Equal(resp, good) {
		t.Errorf("short frame not masked: % X", resp)
	}
	if !ps.NewQuery() {
		t.Error("new query not requested")
	}
}

func TestStaleLine(t *testing.T) {
	c, ecu, hook := open(t, Config{StaleReads: 2})
	var ps iso14230.PollState
	resp := make([]byte, ReplyLen(4))

	ps.Next(iso14230.Repeat)
	ps.Next(iso14230.Fresh)
	if err := c.Send(query, resp, &ps); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got := entries(hook, logrus.DebugLevel, "stale data"); got != 2 {
		t.Errorf("stale reads logged = %d, want 2", got)
	}
	if ecu.Breaks() != 1 {
		t.Errorf("breaks = %d, want 1", ecu.Breaks())
	}
	if !iso14230.Valid(resp) {
		t.Errorf("invalid frame % X", resp)
	}
}

func TestNoisyLineGivesUp(t *testing.T) {
	c, ecu, hook := open(t, Config{StaleReads: -1})
	var ps iso14230.PollState
	resp := make([]byte, ReplyLen(4))

	ps.Next(iso14230.Repeat)
	ps.Next(iso14230.Fresh)
	err := c.Send(query, resp, &ps)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Send() error = %v, want %v", err, ErrTimeout)
	}
	if entries(hook, logrus.ErrorLevel, "gave up clearing line") != 1 {
		t.Error("giving up not logged")
	}
	// three breaks, then the query nobody answers
	if n := len(ecu.Writes()); n != 4 {
		t.Errorf("writes = %d, want 4", n)
	}
}

func TestDeadECU(t *testing.T) {
	ecu := New(Config{Dead: true})
	logger, _ := test.NewNullLogger()
	_, err := iso14230.Open(props(), ecu, iso14230.WithLogger(logger))
	if !errors.Is(err, iso14230.ErrLinkInitFailed) {
		t.Fatalf("Open() error = %v", err)
	}
	var lie *iso14230.LinkInitError
	if !errors.As(err, &lie) || lie.Stage != iso14230.StageFastInit {
		t.Errorf("Open() error = %#v, want fast init stage", err)
	}
	if !errors.Is(err, ErrNoResponse) {
		t.Errorf("cause not kept: %v", err)
	}
	if ecu.InUse() {
		t.Error("device left open")
	}
}

func TestCloseStopsComms(t *testing.T) {
	logger, _ := test.NewNullLogger()
	ecu := New(Config{})
	c, err := iso14230.Open(props(), ecu, iso14230.WithLogger(logger))
	if err != nil {
		t.Fatal(err)
	}
	c.Close()
	c.Close()
	writes := ecu.Writes()
	if len(writes) != 1 || !bytes.Equal(writes[0], []byte{0x81, 0x10, 0xFC, 0x82, 0x0F}) {
		t.Errorf("writes = % X", writes)
	}
	if ecu.InUse() {
		t.Error("device left open")
	}
}

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name    string
		in      map[string]string
		want    Config
		wantErr bool
	}{
		{"empty", nil, Config{}, false},
		{"all", map[string]string{
			"corrupt_every":  "5",
			"truncate_every": "7",
			"stale_reads":    "-1",
			"fail_fast_init": "true",
			"dead":           "false",
		}, Config{CorruptEvery: 5, TruncateEvery: 7, StaleReads: -1, FailFastInit: true}, false},
		{"bad int", map[string]string{"corrupt_every": "x"}, Config{}, true},
		{"bad bool", map[string]string{"dead": "maybe"}, Config{}, true},
		{"unknown", map[string]string{"speed": "1"}, Config{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfig(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.CorruptEvery != tt.want.CorruptEvery || got.TruncateEvery != tt.want.TruncateEvery ||
				got.StaleReads != tt.want.StaleReads || got.FailFastInit != tt.want.FailFastInit || got.Dead != tt.want.Dead {
				t.Errorf("ParseConfig() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRegistered(t *testing.T) {
	drv, err := gokwp.NewAdapter(Name, &gokwp.AdapterConfig{AdditionalConfig: map[string]string{"dead": "true"}})
	if err != nil {
		t.Fatalf("NewAdapter() error = %v", err)
	}
	ecu, ok := drv.(*ECU)
	if !ok || !ecu.cfg.Dead {
		t.Errorf("NewAdapter() = %#v", drv)
	}
	if _, err := gokwp.NewAdapter(Name, &gokwp.AdapterConfig{AdditionalConfig: map[string]string{"x": "1"}}); err == nil {
		t.Error("NewAdapter() accepted an unknown setting")
	}
}
