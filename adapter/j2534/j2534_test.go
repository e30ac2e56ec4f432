//go:build (linux && amd64) || windows

package j2534

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/roffe/gokwp"
	"github.com/roffe/gokwp/pkg/passthru"
)

func TestNew(t *testing.T) {
	if _, err := New("x", &gokwp.AdapterConfig{}); err == nil {
		t.Error("New() without library should fail")
	}
	cfg := &gokwp.AdapterConfig{Port: "/nonexistent/j2534.so"}
	ma, err := New("x", cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if ma.Name() != "x" {
		t.Errorf("Name() = %q", ma.Name())
	}
	if cfg.OnMessage == nil {
		t.Fatal("OnMessage not defaulted")
	}
	cfg.OnMessage("no panic")
}

func TestNewFromDLLNameKeepsPort(t *testing.T) {
	cfg := &gokwp.AdapterConfig{Port: "/custom/lib.so"}
	if _, err := NewFromDLLName("x", "/registry/lib.so")(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "/custom/lib.so" {
		t.Errorf("Port = %q, want /custom/lib.so", cfg.Port)
	}

	cfg = &gokwp.AdapterConfig{}
	if _, err := NewFromDLLName("x", "/registry/lib.so")(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "/registry/lib.so" {
		t.Errorf("Port = %q, want /registry/lib.so", cfg.Port)
	}
}

func TestOpenDebugLogsLibrary(t *testing.T) {
	var msgs []string
	ma, err := New("x", &gokwp.AdapterConfig{
		Debug:     true,
		Port:      "/nonexistent/j2534.so",
		OnMessage: func(msg string) { msgs = append(msgs, msg) },
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ma.Open(); err == nil {
		t.Fatal("Open() of a missing library should fail")
	}
	if len(msgs) == 0 || !strings.Contains(msgs[0], "/nonexistent/j2534.so") {
		t.Errorf("messages = %q, want library path", msgs)
	}
}

func TestCollect(t *testing.T) {
	tests := []struct {
		name    string
		reads   [][]byte
		minLen  int
		want    []byte
		wantErr bool
	}{
		{"quiet", nil, 0, nil, false},
		{"drain", [][]byte{{1}, {2, 3}}, 0, []byte{1, 2, 3}, false},
		{"min length", [][]byte{{1, 2}, {3, 4}, {5}}, 3, []byte{1, 2, 3, 4}, false},
		{"short", [][]byte{{1}}, 3, []byte{1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reads := tt.reads
			read := func(time.Duration) ([]byte, error) {
				if len(reads) == 0 {
					return nil, passthru.ErrBufferEmpty
				}
				next := reads[0]
				reads = reads[1:]
				return next, nil
			}
			got, err := collect(read, tt.minLen, 50*time.Millisecond)
			if (err != nil) != tt.wantErr {
				t.Fatalf("collect() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("collect() = % X, want % X", got, tt.want)
			}
		})
	}
}

func TestCollectStopsAtDeadline(t *testing.T) {
	reads := 0
	read := func(time.Duration) ([]byte, error) {
		reads++
		time.Sleep(time.Millisecond)
		return []byte{0x55}, nil
	}
	start := time.Now()
	got, err := collect(read, 0, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("collect() error = %v", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("collect() on a busy line took %s", time.Since(start))
	}
	if len(got) != reads || reads == 0 {
		t.Errorf("collect() = %d bytes after %d reads", len(got), reads)
	}
}

func TestCollectReadError(t *testing.T) {
	boom := errors.New("device gone")
	_, err := collect(func(time.Duration) ([]byte, error) { return nil, boom }, 0, 10*time.Millisecond)
	if !errors.Is(err, boom) {
		t.Errorf("collect() error = %v, want %v", err, boom)
	}
}
