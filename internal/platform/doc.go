// Package platform connects the board to real hardware.
//
// The I2C bus is opened through periph's bus registry. Output lines come
// from one of two drivers:
//
//   - "periph": periph's GPIO registry (memory-mapped on the Raspberry Pi)
//   - "chardev": the Linux GPIO character device (/dev/gpiochipN)
//
// Physical header pin numbers are translated to BCM numbers with the
// Raspberry Pi 40-pin header table before either driver sees them.
//
// Usage:
//
//	host, err := platform.Open(platform.Config{GPIODriver: platform.DriverPeriph})
//	if err != nil {
//	    return err
//	}
//	b, err := board.New(host, board.Options{Bus: "1", EnablePin: 11, StandbyPin: 13})
package platform
