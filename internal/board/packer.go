package board

import "math"

// I2C addresses of the chips on the board (7-bit).
const (
	DSPAddress           uint16 = 0x44
	TunerBackendAddress  uint16 = 0x61
	TunerFrontendAddress uint16 = 0x62
)

// TDA7313 sub-address tags. Balance uses two attenuators per channel.
const (
	tagVolume       = 0b000 << 5
	tagLeftFront    = 0b100 << 5
	tagLeftRear     = 0b110 << 5
	tagRightFront   = 0b101 << 5
	tagRightRear    = 0b111 << 5
	tagInput        = 0b010 << 5
	tagBass         = 0b0110 << 4
	tagTreble       = 0b0111 << 4
	loudnessOffBit  = 1 << 2
	toneBoostBit    = 1 << 3
	inputGainShift  = 3
	toneCutOffset   = 7
	dspImageLength  = 8
	maxRegisterGain = 3
)

// TEA6825 backend bits.
const (
	backendMonoBit        = 1 << 0
	backendStepShift      = 1
	backendNoTuneMuteBit  = 1 << 4
	backendNoHoldBit      = 1 << 5
	backendNoMuteBit      = 1 << 6
	backendFrontendI2CBit = 1 << 7

	backendFMBit          = 1 << 0
	backendSDRBit         = 1 << 3
	backendSensitivityBit = 1 << 5
	backendTempCompBit    = 1 << 6
	backendNoiseBlankBit  = 1 << 7
)

// TEA6810 frontend constants.
const (
	// synthOffset is added to twice the frequency in 100 kHz units.
	synthOffset = 1442

	frontendFMBit    = 1 << 0
	frontendFixed    = 0b11<<1 | 1<<4 | 1<<5
	frontendReserved = 0x00
	byteMask         = 0xFF
	byteShift        = 8
)

// Image lengths accepted by the tuner packers.
const (
	BackendShort  = 1
	BackendFull   = 2
	FrontendShort = 2
	FrontendFull  = 4
)

// synthesizerSteps lists the supported tuning steps in kHz. The backend
// encodes a step as its index in this list.
var synthesizerSteps = [...]int{3, 5, 10, 15, 25, 50}

// DSPState is the register-level state of the TDA7313.
type DSPState struct {
	Volume       int  `json:"volume"`
	BalanceLeft  int  `json:"balance_left"`
	BalanceRight int  `json:"balance_right"`
	Input        int  `json:"input"`
	Loudness     bool `json:"loudness"`
	Gain         int  `json:"gain"`
	Bass         int  `json:"bass"`
	Treble       int  `json:"treble"`
}

// DefaultDSPState returns the power-on defaults: volume fully down,
// balance centred, input 0 with loudness, flat tone.
func DefaultDSPState() DSPState {
	return DSPState{
		Volume:       VolumeScale.Min,
		BalanceLeft:  BalanceScale.Max,
		BalanceRight: BalanceScale.Max,
		Input:        minInput,
		Loudness:     true,
		Gain:         GainScale.Min,
		Bass:         0,
		Treble:       0,
	}
}

// TunerState is the state of the TEA6825 backend and TEA6810 frontend.
type TunerState struct {
	Freq                    float64 `json:"freq"`
	StepKHz                 int     `json:"step_khz"`
	Stereo                  bool    `json:"stereo"`
	TuningMute              bool    `json:"tuning_mute"`
	Hold                    bool    `json:"sds_sdr_hold"`
	Mute                    bool    `json:"mute"`
	FrontendI2C             bool    `json:"frontend_i2c_enabled"`
	ModeFM                  bool    `json:"mode_fm"`
	SDR                     bool    `json:"sdr"`
	SensitivityChanged      bool    `json:"sensitivity_changed"`
	TemperatureCompensation bool    `json:"temperature_compensation"`
	NoiseBlanker            bool    `json:"noise_blanker"`
}

// DefaultTunerState returns the tuner defaults: FM stereo at 95.0 MHz
// with 50 kHz steps.
func DefaultTunerState() TunerState {
	return TunerState{
		Freq:    DefaultFrequency,
		StepKHz: 50,
		Stereo:  true,
		ModeFM:  true,
	}
}

// PackDSP builds the 8-byte register image of the TDA7313:
// volume, left front, left rear, right front, right rear, input, bass, treble.
//
// Parameters:
//   - s: DSP state in register units (assumed within range)
//
// Returns:
//   - [8]byte: Register image in transmission order
func PackDSP(s DSPState) [dspImageLength]byte {
	left := byte(BalanceScale.Max - s.BalanceLeft)
	right := byte(BalanceScale.Max - s.BalanceRight)

	input := byte(tagInput)
	input |= byte(maxRegisterGain-s.Gain) << inputGainShift
	if !s.Loudness {
		input |= loudnessOffBit
	}
	input |= byte(s.Input)

	return [dspImageLength]byte{
		tagVolume | byte(VolumeScale.Max-s.Volume),
		tagLeftFront | left,
		tagLeftRear | left,
		tagRightFront | right,
		tagRightRear | right,
		input,
		packTone(tagBass, s.Bass),
		packTone(tagTreble, s.Treble),
	}
}

// packTone encodes a tone level in the TDA7313's cut/boost format.
// Cuts (-7..-1) map to 0..6; boosts (0..7) set bit 3 with the magnitude
// inverted, so 0 and +7 give 0x0F and 0x08.
func packTone(tag byte, level int) byte {
	if level < 0 {
		return tag | byte(level+toneCutOffset)
	}
	return tag | toneBoostBit | byte(toneCutOffset-level)
}

// StepIndex returns the backend encoding of a synthesizer step in kHz.
func StepIndex(kHz int) (int, bool) {
	for i, s := range synthesizerSteps {
		if s == kHz {
			return i, true
		}
	}
	return 0, false
}

// PackBackend builds the TEA6825 image. n selects the 1-byte (control) or
// 2-byte (control + mode) form and is clamped to that range.
//
// Parameters:
//   - s: Tuner state
//   - n: Number of bytes to build (BackendShort or BackendFull)
//
// Returns:
//   - []byte: Image of length 1 or 2
func PackBackend(s TunerState, n int) []byte {
	n = clampInt(n, BackendShort, BackendFull)

	var b1 byte
	if !s.Stereo {
		b1 |= backendMonoBit
	}
	idx, ok := StepIndex(s.StepKHz)
	if !ok {
		idx, _ = StepIndex(DefaultTunerState().StepKHz)
	}
	b1 |= byte(idx) << backendStepShift
	if !s.TuningMute {
		b1 |= backendNoTuneMuteBit
	}
	if !s.Hold {
		b1 |= backendNoHoldBit
	}
	if !s.Mute {
		b1 |= backendNoMuteBit
	}
	if s.FrontendI2C {
		b1 |= backendFrontendI2CBit
	}

	if n == BackendShort {
		return []byte{b1}
	}

	var b2 byte
	if s.ModeFM {
		b2 |= backendFMBit
	}
	if s.SDR {
		b2 |= backendSDRBit
	}
	if s.SensitivityChanged {
		b2 |= backendSensitivityBit
	}
	if s.TemperatureCompensation {
		b2 |= backendTempCompBit
	}
	if s.NoiseBlanker {
		b2 |= backendNoiseBlankBit
	}
	return []byte{b1, b2}
}

// SynthesizerWord returns the TEA6810 divider word for a frequency in MHz:
// round(freq*10)*2 + 1442.
func SynthesizerWord(freqMHz float64) uint16 {
	return uint16(int(math.Round(freqMHz*10))*2 + synthOffset) //nolint:gosec // G115: freq is clamped to 30.4..108.1
}

// PackFrontend builds the TEA6810 image. n is clamped to 2..4: the divider
// word, then the mode byte, then the reserved byte.
//
// Parameters:
//   - s: Tuner state
//   - n: Number of bytes to build (FrontendShort to FrontendFull)
//
// Returns:
//   - []byte: Image of length 2, 3 or 4
func PackFrontend(s TunerState, n int) []byte {
	n = clampInt(n, FrontendShort, FrontendFull)

	word := SynthesizerWord(s.Freq)
	out := make([]byte, 0, FrontendFull)
	out = append(out, byte(word&byteMask), byte(word>>byteShift&byteMask))

	if n > FrontendShort {
		mode := byte(frontendFixed)
		if s.ModeFM {
			mode |= frontendFMBit
		}
		out = append(out, mode)
	}
	if n == FrontendFull {
		out = append(out, frontendReserved)
	}
	return out
}
