package poller

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/roffe/gokwp/adapter/virtual"
	"github.com/roffe/gokwp/pkg/iso14230"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

type transition struct {
	current, last iso14230.State
}

type fakeTransport struct {
	seen     []transition
	badOn    map[int]bool
	errOn    map[int]error
	requests [][]byte
}

func (f *fakeTransport) Send(request, response []byte, poll iso14230.Poller) error {
	f.seen = append(f.seen, transition{poll.Current(), poll.Last()})
	f.requests = append(f.requests, request)
	n := len(f.seen)
	response[0] = byte(n)
	if f.badOn[n] {
		poll.RequestNewQuery()
	}
	return f.errOn[n]
}

func newTest(t *testing.T, cfg Config, tr Transport) *Poller {
	t.Helper()
	logger, _ := test.NewNullLogger()
	if cfg.Request == nil {
		cfg.Request = []byte{0x82, 0x10, 0xF1, 0x21, 0x01, 0xA5}
	}
	if cfg.ResponseLength == 0 {
		cfg.ResponseLength = 7
	}
	p, err := New(cfg, tr, logger)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

const (
	F = iso14230.Fresh
	R = iso14230.Repeat
)

func TestNew(t *testing.T) {
	tr := &fakeTransport{}
	if _, err := New(Config{ResponseLength: 7}, tr, nil); err == nil {
		t.Error("accepted empty request")
	}
	if _, err := New(Config{Request: []byte{1}}, tr, nil); err == nil {
		t.Error("accepted zero response length")
	}
	if _, err := New(Config{Request: []byte{1}, ResponseLength: 1}, nil, nil); err == nil {
		t.Error("accepted nil transport")
	}
}

func TestPollStates(t *testing.T) {
	tests := []struct {
		name  string
		fast  bool
		badOn map[int]bool
		errOn map[int]error
		want  []transition
	}{
		{
			name: "fast poll",
			fast: true,
			want: []transition{{F, F}, {R, F}, {R, R}, {R, R}},
		},
		{
			name: "slow poll",
			want: []transition{{F, F}, {F, F}, {F, F}, {F, F}},
		},
		{
			name:  "bad frame restarts",
			fast:  true,
			badOn: map[int]bool{3: true},
			want:  []transition{{F, F}, {R, F}, {R, R}, {F, R}, {R, F}},
		},
		{
			name:  "error restarts",
			fast:  true,
			errOn: map[int]error{2: errors.New("read: timeout")},
			want:  []transition{{F, F}, {R, F}, {F, R}, {R, F}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeTransport{badOn: tt.badOn, errOn: tt.errOn}
			p := newTest(t, Config{FastPoll: tt.fast}, tr)
			for i := range tt.want {
				res := p.PollOnce()
				if res.State != tt.want[i].current {
					t.Errorf("cycle %d: state = %s, want %s", i+1, res.State, tt.want[i].current)
				}
				if res.Data[0] != byte(i+1) {
					t.Errorf("cycle %d: data not passed through: % X", i+1, res.Data)
				}
				if res.Stale != tt.badOn[i+1] {
					t.Errorf("cycle %d: stale = %v", i+1, res.Stale)
				}
			}
			for i, got := range tr.seen {
				if got != tt.want[i] {
					t.Errorf("cycle %d: got %+v, want %+v", i+1, got, tt.want[i])
				}
			}
		})
	}
}

func TestClearFirst(t *testing.T) {
	tr := &fakeTransport{}
	p := newTest(t, Config{FastPoll: true, ClearFirst: true}, tr)
	p.PollOnce()
	p.PollOnce()
	want := []transition{{F, R}, {R, F}}
	for i, got := range tr.seen {
		if got != want[i] {
			t.Errorf("cycle %d: got %+v, want %+v", i+1, got, want[i])
		}
	}
}

func TestStats(t *testing.T) {
	tr := &fakeTransport{
		badOn: map[int]bool{3: true},
		errOn: map[int]error{5: errors.New("boom")},
	}
	p := newTest(t, Config{FastPoll: true}, tr)
	for i := 0; i < 6; i++ {
		p.PollOnce()
	}
	want := Stats{Cycles: 6, Fresh: 3, Repeats: 3, Stale: 1, Errors: 1}
	if got := p.Stats(); got != want {
		t.Errorf("Stats() = %s, want %s", got, want)
	}
}

func TestRun(t *testing.T) {
	tr := &fakeTransport{}
	p := newTest(t, Config{FastPoll: true, Interval: time.Millisecond}, tr)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan Result)
	errc := make(chan error, 1)
	go func() {
		errc <- p.Run(ctx, out)
	}()
	for i := 0; i < 5; i++ {
		select {
		case res := <-out:
			if res.Err != nil {
				t.Fatalf("result %d: %v", i, res.Err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for result")
		}
	}
	cancel()
	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestPollVirtualECU(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	ecu := virtual.New(virtual.Config{CorruptEvery: 4})
	conn, err := iso14230.Open(iso14230.Properties{
		ConnectTimeout: 50 * time.Millisecond,
		BaudRate:       10400,
		DataBits:       8,
		P3Min:          5 * time.Millisecond,
	}, ecu, iso14230.WithLogger(logger), iso14230.WithDrain(3, time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	p := newTest(t, Config{FastPoll: true, ResponseLength: virtual.ReplyLen(4)}, conn)
	var results []Result
	for i := 0; i < 6; i++ {
		results = append(results, p.PollOnce())
	}
	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("cycle %d: %v", i+1, r.Err)
		}
		if !iso14230.Valid(r.Data) {
			t.Errorf("cycle %d: corrupt data reached caller: % X", i+1, r.Data)
		}
	}
	if !results[3].Stale || !bytes.Equal(results[3].Data, results[2].Data) {
		t.Errorf("cycle 4 not backfilled: %+v", results[3])
	}
	if results[4].State != iso14230.Fresh || results[5].State != iso14230.Repeat {
		t.Errorf("no restart after bad frame: %s, %s", results[4].State, results[5].State)
	}
	if ecu.Breaks() != 1 {
		t.Errorf("breaks = %d, want 1", ecu.Breaks())
	}
	if len(hook.AllEntries()) == 0 {
		t.Error("nothing logged")
	}
}
