package platform

// txCloser is the part of periph's i2c.BusCloser the board uses.
type txCloser interface {
	Tx(addr uint16, w, r []byte) error
	Close() error
}

// i2cBus adapts a periph bus to board.Bus. Every write is a single
// write-only transaction.
type i2cBus struct {
	bus txCloser
}

func (b *i2cBus) SendByte(addr uint16, v byte) error {
	return b.bus.Tx(addr, []byte{v}, nil)
}

func (b *i2cBus) SendBlock(addr uint16, cmd byte, data []byte) error {
	w := make([]byte, 0, len(data)+1)
	w = append(w, cmd)
	w = append(w, data...)
	return b.bus.Tx(addr, w, nil)
}

func (b *i2cBus) Close() error {
	return b.bus.Close()
}
