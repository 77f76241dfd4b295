// Package board drives the car-radio amplifier/tuner board.
//
// The board carries three I2C devices and two digital control lines:
//
//	┌──────────────┐   I2C    ┌───────────────────────────┐
//	│              │◄────────►│ TDA7313 DSP        (0x44) │
//	│    Board     │◄────────►│ TEA6825 backend    (0x61) │
//	│  (this pkg)  │          │   └─► TEA6810 front (0x62)│
//	│              │   EN ───►│ voltage regulators        │
//	│              │ ST-BY ──►│ power amplifier stand-by  │
//	└──────────────┘          └───────────────────────────┘
//
// # Layers
//
//   - encoder.go: decibel and level values to clamped register values
//   - packer.go: chip state to the exact byte image each chip expects
//   - dsp.go, tuner.go: chip controllers owning chip state
//   - board.go: power and mute sequencing plus the write gate
//
// Every setter re-sends the complete register image of its chip. Writes
// issued while the board is powered off are dropped, and powering on
// re-sends every chip's image because the chips lose their registers
// with the supply.
//
// # Thread Safety
//
// Board and the chip controllers are not safe for concurrent use. Callers
// serialise access themselves (see internal/radio).
//
// # Usage
//
//	b, err := board.New(host, board.Options{
//	    Bus:        "1",
//	    EnablePin:  17,
//	    StandbyPin: 27,
//	    Numbering:  board.NumberingBCM,
//	})
//	if err != nil {
//	    return err
//	}
//	defer b.Close()
//
//	if err := b.SetPower(true); err != nil {
//	    return err
//	}
//	b.SetMute(false)
//	b.DSP().SetVolume(-20, board.Decibel)
//	b.Tuner().Tune(101.1)
package board
