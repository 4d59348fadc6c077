package device

import (
	"bytes"
	"math"
	"strings"
	"sync"
	"testing"
)

// scriptPort implements Porter with a command/response script. Each write is
// one command line; the scripted responder supplies the reply that the next
// read returns.
type scriptPort struct {
	mu      sync.Mutex
	respond func(cmd string) string
	pending bytes.Buffer
	writes  []string
	closed  bool
}

func (p *scriptPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cmd := strings.TrimRight(string(b), "\r\n")
	p.writes = append(p.writes, cmd)
	p.pending.WriteString(p.respond(cmd) + "\r\n")
	return len(b), nil
}

func (p *scriptPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending.Read(b)
}

func (p *scriptPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func TestStagePort_Position(t *testing.T) {
	port := &scriptPort{respond: func(cmd string) string {
		if cmd == ":GP?" {
			return ":P 2.5e-13"
		}
		return ":E 1"
	}}
	stage := NewStagePort(port, 4)

	pos, err := stage.Position()
	if err != nil {
		t.Fatalf("Position failed: %v", err)
	}
	// 4 bounces scale 2.5e-13 motor seconds to 1e-12 of optical delay
	if math.Abs(pos-1e-12) > 1e-18 {
		t.Fatalf("Position = %g, want 1e-12", pos)
	}
}

func TestStagePort_MoveBlocksUntilIdle(t *testing.T) {
	statusPolls := 0
	port := &scriptPort{respond: func(cmd string) string {
		switch {
		case strings.HasPrefix(cmd, ":MPA "):
			return ":OK"
		case cmd == ":STA?":
			statusPolls++
			if statusPolls < 3 {
				return ":S 1"
			}
			return ":S 0"
		}
		return ":E 1"
	}}
	stage := NewStagePort(port, 4)

	if err := stage.Move(4e-12, true); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if statusPolls != 3 {
		t.Errorf("status polls = %d, want 3", statusPolls)
	}

	// The commanded motor value carries the inverse bounce scaling
	var moveCmd string
	for _, w := range port.writes {
		if strings.HasPrefix(w, ":MPA ") {
			moveCmd = w
		}
	}
	if moveCmd == "" {
		t.Fatal("no :MPA command written")
	}
	if !strings.Contains(moveCmd, "1.0000") {
		t.Errorf("move command = %q, want motor target 1e-12 (4e-12 delay / 4 bounces)", moveCmd)
	}
}

func TestStagePort_NonBlockingMoveSkipsStatus(t *testing.T) {
	port := &scriptPort{respond: func(cmd string) string {
		if strings.HasPrefix(cmd, ":MPR ") {
			return ":OK"
		}
		return ":E 1"
	}}
	stage := NewStagePort(port, 1)

	if err := stage.MoveRelative(1e-12, false); err != nil {
		t.Fatalf("MoveRelative failed: %v", err)
	}
	for _, w := range port.writes {
		if w == ":STA?" {
			t.Fatal("non-blocking move polled motion status")
		}
	}
}

func TestStagePort_RejectedMove(t *testing.T) {
	port := &scriptPort{respond: func(cmd string) string {
		return ":E 12"
	}}
	stage := NewStagePort(port, 1)

	err := stage.Move(1e-12, true)
	if err == nil {
		t.Fatal("expected error for rejected move, got nil")
	}
	if !strings.Contains(err.Error(), ":E 12") {
		t.Errorf("error %q does not carry the controller response", err)
	}
}

func TestStagePort_MalformedPosition(t *testing.T) {
	port := &scriptPort{respond: func(cmd string) string {
		return ":P not-a-number"
	}}
	stage := NewStagePort(port, 1)

	if _, err := stage.Position(); err == nil {
		t.Fatal("expected error for malformed position, got nil")
	}
}

func TestDigitizerPort_ChannelRead(t *testing.T) {
	port := &scriptPort{respond: func(cmd string) string {
		switch cmd {
		case "?W0":
			return "1.0, 2.5, 3.25, 4.0"
		case "?L":
			return "4"
		}
		return ""
	}}
	digi := NewDigitizerPort(port)

	n, err := digi.UsefulLength()
	if err != nil {
		t.Fatalf("UsefulLength failed: %v", err)
	}
	if n != 4 {
		t.Fatalf("UsefulLength = %d, want 4", n)
	}

	samples, err := digi.Channel(0).Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	want := []float64{1.0, 2.5, 3.25, 4.0}
	if len(samples) != len(want) {
		t.Fatalf("Read returned %d samples, want %d", len(samples), len(want))
	}
	for i := range want {
		if samples[i] != want[i] {
			t.Errorf("sample[%d] = %g, want %g", i, samples[i], want[i])
		}
	}
}

func TestDigitizerPort_BadSample(t *testing.T) {
	port := &scriptPort{respond: func(cmd string) string {
		return "1.0, garbage, 3.0"
	}}
	digi := NewDigitizerPort(port)

	if _, err := digi.Channel(1).Read(); err == nil {
		t.Fatal("expected error for malformed sample line, got nil")
	}
}

func TestParseSampleLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    int
		wantErr bool
	}{
		{"plain values", "1,2,3", 3, false},
		{"spaced values", " 1.5 , 2.5 ", 2, false},
		{"empty line", "", 0, false},
		{"bad value", "1,x,3", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSampleLine(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSampleLine(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			}
			if err == nil && len(got) != tt.want {
				t.Errorf("parseSampleLine(%q) returned %d values, want %d", tt.line, len(got), tt.want)
			}
		})
	}
}
