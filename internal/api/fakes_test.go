package api

import (
	"sync"

	"github.com/nerrad567/headunit-core/internal/board"
)

type fakeBus struct {
	mu  sync.Mutex
	err error
}

func (b *fakeBus) SendByte(uint16, byte) error { return b.send() }

func (b *fakeBus) SendBlock(uint16, byte, []byte) error { return b.send() }

func (b *fakeBus) send() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

func (b *fakeBus) Close() error { return nil }

func (b *fakeBus) fail(err error) {
	b.mu.Lock()
	b.err = err
	b.mu.Unlock()
}

type fakeLine struct{}

func (fakeLine) Out(bool) error  { return nil }
func (fakeLine) Release() error { return nil }

type fakePlatform struct {
	bus *fakeBus
}

func (p *fakePlatform) OpenBus(string) (board.Bus, error) { return p.bus, nil }

func (p *fakePlatform) OpenLine(int, board.Numbering, bool) (board.Line, error) {
	return fakeLine{}, nil
}
