package radio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/headunit-core/internal/board"
	"github.com/nerrad567/headunit-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/headunit-core/internal/settings"
)

var errTransport = errors.New("transport failure")

type fakeBus struct {
	mu     sync.Mutex
	writes int
	err    error
}

func (b *fakeBus) SendByte(uint16, byte) error { return b.send() }

func (b *fakeBus) SendBlock(uint16, byte, []byte) error { return b.send() }

func (b *fakeBus) send() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.writes++
	return nil
}

func (b *fakeBus) Close() error { return nil }

func (b *fakeBus) fail(err error) {
	b.mu.Lock()
	b.err = err
	b.mu.Unlock()
}

func (b *fakeBus) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}

type fakeLine struct {
	mu   sync.Mutex
	high bool
}

func (l *fakeLine) Out(high bool) error {
	l.mu.Lock()
	l.high = high
	l.mu.Unlock()
	return nil
}

func (l *fakeLine) Release() error { return nil }

type fakePlatform struct {
	bus   *fakeBus
	lines map[int]*fakeLine
}

func (p *fakePlatform) OpenBus(string) (board.Bus, error) { return p.bus, nil }

func (p *fakePlatform) OpenLine(pin int, _ board.Numbering, initial bool) (board.Line, error) {
	l := &fakeLine{high: initial}
	p.lines[pin] = l
	return l, nil
}

// memoryStore is an in-memory Store.
type memoryStore struct {
	mu      sync.Mutex
	saved   map[string]settings.State
	history []settings.HistoryEntry
	loadErr error
	saveErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{saved: make(map[string]settings.State)}
}

func (m *memoryStore) Save(_ context.Context, boardID string, st settings.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved[boardID] = st
	return nil
}

func (m *memoryStore) Load(_ context.Context, boardID string) (settings.State, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return settings.State{}, time.Time{}, m.loadErr
	}
	st, ok := m.saved[boardID]
	if !ok {
		return settings.State{}, time.Time{}, settings.ErrNotFound
	}
	return st, time.Now(), nil
}

func (m *memoryStore) RecordStateChange(_ context.Context, boardID string, st settings.State, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, settings.HistoryEntry{
		ID:      int64(len(m.history) + 1),
		BoardID: boardID,
		State:   st,
		Source:  source,
	})
	return nil
}

func (m *memoryStore) GetHistory(_ context.Context, boardID string, limit int) ([]settings.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []settings.HistoryEntry
	for i := len(m.history) - 1; i >= 0 && len(out) < limit; i-- {
		if m.history[i].BoardID == boardID {
			out = append(out, m.history[i])
		}
	}
	return out, nil
}

func (m *memoryStore) historyLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history)
}

// fakeTelemetry records samples and bus errors.
type fakeTelemetry struct {
	mu        sync.Mutex
	samples   []influxdb.BoardSample
	sources   []string
	busErrors []string
}

func (f *fakeTelemetry) WriteBoardState(_, source string, s influxdb.BoardSample) {
	f.mu.Lock()
	f.samples = append(f.samples, s)
	f.sources = append(f.sources, source)
	f.mu.Unlock()
}

func (f *fakeTelemetry) WriteBusError(_, op string) {
	f.mu.Lock()
	f.busErrors = append(f.busErrors, op)
	f.mu.Unlock()
}

type testRig struct {
	svc       *Service
	platform  *fakePlatform
	store     *memoryStore
	telemetry *fakeTelemetry
}

const (
	testEnablePin  = 17
	testStandbyPin = 27
)

// newRig builds a Service on a fake platform. The board starts off and muted.
func newRig(t *testing.T, mutate func(*Options)) *testRig {
	t.Helper()
	p := &fakePlatform{bus: &fakeBus{}, lines: make(map[int]*fakeLine)}
	b, err := board.New(p, board.Options{
		Bus:        "1",
		EnablePin:  testEnablePin,
		StandbyPin: testStandbyPin,
		Numbering:  board.NumberingBCM,
		Sleep:      func(time.Duration) {},
	})
	if err != nil {
		t.Fatalf("board.New() error = %v", err)
	}

	r := &testRig{platform: p, store: newMemoryStore(), telemetry: &fakeTelemetry{}}
	opts := Options{
		BoardID:   "main",
		Store:     r.store,
		Telemetry: r.telemetry,
	}
	if mutate != nil {
		mutate(&opts)
	}
	r.svc, err = New(b, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { r.svc.Close() })
	return r
}

func (r *testRig) line(pin int) bool {
	l := r.platform.lines[pin]
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.high
}
