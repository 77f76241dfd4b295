package board

import (
	"errors"
	"testing"
	"time"
)

// busOp is one recorded bus transaction.
type busOp struct {
	addr  uint16
	data  []byte // for block writes: command byte followed by data
	block bool
}

// fakeBus records every write.
type fakeBus struct {
	ops    []busOp
	closed bool
	err    error
}

func (f *fakeBus) SendByte(addr uint16, b byte) error {
	if f.err != nil {
		return f.err
	}
	f.ops = append(f.ops, busOp{addr: addr, data: []byte{b}})
	return nil
}

func (f *fakeBus) SendBlock(addr uint16, cmd byte, data []byte) error {
	if f.err != nil {
		return f.err
	}
	buf := append([]byte{cmd}, data...)
	f.ops = append(f.ops, busOp{addr: addr, data: buf, block: true})
	return nil
}

func (f *fakeBus) Close() error {
	f.closed = true
	return nil
}

// opsTo returns the recorded transactions to addr.
func (f *fakeBus) opsTo(addr uint16) []busOp {
	var out []busOp
	for _, op := range f.ops {
		if op.addr == addr {
			out = append(out, op)
		}
	}
	return out
}

// fakeLine records every level it is driven to.
type fakeLine struct {
	pin      int
	levels   []bool
	released bool
	err      error
}

func (l *fakeLine) Out(high bool) error {
	if l.err != nil {
		return l.err
	}
	l.levels = append(l.levels, high)
	return nil
}

func (l *fakeLine) Release() error {
	l.released = true
	return nil
}

func (l *fakeLine) level() bool {
	if len(l.levels) == 0 {
		return false
	}
	return l.levels[len(l.levels)-1]
}

// fakePlatform hands out a fakeBus and fakeLines keyed by pin.
type fakePlatform struct {
	bus       *fakeBus
	lines     map[int]*fakeLine
	busName   string
	numbering Numbering
	busErr    error
	lineErr   map[int]error
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		bus:     &fakeBus{},
		lines:   make(map[int]*fakeLine),
		lineErr: make(map[int]error),
	}
}

func (p *fakePlatform) OpenBus(name string) (Bus, error) {
	if p.busErr != nil {
		return nil, p.busErr
	}
	p.busName = name
	return p.bus, nil
}

func (p *fakePlatform) OpenLine(pin int, numbering Numbering, initial bool) (Line, error) {
	if err := p.lineErr[pin]; err != nil {
		return nil, err
	}
	p.numbering = numbering
	l := &fakeLine{pin: pin, levels: []bool{initial}}
	p.lines[pin] = l
	return l, nil
}

// sleepRecorder records requested delays without sleeping.
type sleepRecorder struct {
	calls []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) {
	s.calls = append(s.calls, d)
}

// recordingWriter is a Writer for testing controllers without a Board.
type recordingWriter struct {
	writes []busOp
	err    error
}

func (w *recordingWriter) Write(addr uint16, data []byte) error {
	if w.err != nil {
		return w.err
	}
	w.writes = append(w.writes, busOp{addr: addr, data: append([]byte(nil), data...)})
	return nil
}

func (w *recordingWriter) reset() { w.writes = nil }

var errTransport = errors.New("transport failure")

const (
	testEnablePin  = 17
	testStandbyPin = 27
)

// newTestBoard creates a Board on a fake platform with recorded sleeps.
func newTestBoard(t *testing.T) (*Board, *fakePlatform, *sleepRecorder) {
	t.Helper()
	p := newFakePlatform()
	s := &sleepRecorder{}
	b, err := New(p, Options{
		Bus:        "1",
		EnablePin:  testEnablePin,
		StandbyPin: testStandbyPin,
		Numbering:  NumberingBCM,
		Sleep:      s.sleep,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return b, p, s
}

func ptr[T any](v T) *T { return &v }
