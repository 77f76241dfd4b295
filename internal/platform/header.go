package platform

import (
	"fmt"

	"github.com/nerrad567/headunit-core/internal/board"
)

// headerToBCM maps Raspberry Pi 40-pin header positions to BCM GPIO
// numbers. Power and ground pins are absent.
var headerToBCM = map[int]int{
	3: 2, 5: 3, 7: 4, 8: 14, 10: 15,
	11: 17, 12: 18, 13: 27, 15: 22, 16: 23,
	18: 24, 19: 10, 21: 9, 22: 25, 23: 11,
	24: 8, 26: 7, 27: 0, 28: 1, 29: 5,
	31: 6, 32: 12, 33: 13, 35: 19, 36: 16,
	37: 26, 38: 20, 40: 21,
}

// maxBCM is the highest GPIO number exposed on the header.
const maxBCM = 27

// ResolveBCM translates pin under numbering n to a BCM GPIO number.
//
// Parameters:
//   - pin: Pin number as configured
//   - n: How pin is interpreted
//
// Returns:
//   - int: BCM GPIO number
//   - error: ErrInvalidPin if the pin is not a GPIO
func ResolveBCM(pin int, n board.Numbering) (int, error) {
	if n == board.NumberingBCM {
		if pin < 0 || pin > maxBCM {
			return 0, fmt.Errorf("%w: bcm %d", ErrInvalidPin, pin)
		}
		return pin, nil
	}
	bcm, ok := headerToBCM[pin]
	if !ok {
		return 0, fmt.Errorf("%w: header pin %d is not a gpio", ErrInvalidPin, pin)
	}
	return bcm, nil
}
