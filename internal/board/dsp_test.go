package board

import (
	"errors"
	"testing"
)

func newTestDSP(t *testing.T) (*DSP, *recordingWriter) {
	t.Helper()
	w := &recordingWriter{}
	d, err := NewDSP(w)
	if err != nil {
		t.Fatalf("NewDSP() error = %v", err)
	}
	w.reset()
	return d, w
}

func TestNewDSP_NilBoard(t *testing.T) {
	if _, err := NewDSP(nil); !errors.Is(err, ErrNoBoard) {
		t.Errorf("NewDSP(nil) error = %v, want ErrNoBoard", err)
	}
}

func TestNewDSP_PushesDefaults(t *testing.T) {
	w := &recordingWriter{}
	if _, err := NewDSP(w); err != nil {
		t.Fatalf("NewDSP() error = %v", err)
	}
	if len(w.writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(w.writes))
	}
	want := PackDSP(DefaultDSPState())
	if w.writes[0].addr != DSPAddress || string(w.writes[0].data) != string(want[:]) {
		t.Errorf("initial write = %#x % X, want %#x % X", w.writes[0].addr, w.writes[0].data, DSPAddress, want)
	}
}

func TestDSP_SetVolume(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		unit     Unit
		wantView float64
		wantReg  int
	}{
		{"level", 40, Level, 40, 40},
		{"decibel", -20, Decibel, -20, 47},
		{"decibel below range", -100, Decibel, -78.75, 0},
		{"decibel above range", 50, Decibel, 0, 63},
		{"level above range", 99, Level, 63, 63},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, w := newTestDSP(t)
			got, err := d.SetVolume(tt.value, tt.unit)
			if err != nil {
				t.Fatalf("SetVolume() error = %v", err)
			}
			if got != tt.wantView {
				t.Errorf("SetVolume() = %v, want %v", got, tt.wantView)
			}
			if d.State().Volume != tt.wantReg {
				t.Errorf("state volume = %d, want %d", d.State().Volume, tt.wantReg)
			}
			if len(w.writes) != 1 || len(w.writes[0].data) != 8 {
				t.Errorf("expected one full 8-byte push, got %v", w.writes)
			}
		})
	}
}

func TestDSP_SetBalance(t *testing.T) {
	t.Run("left only", func(t *testing.T) {
		d, w := newTestDSP(t)
		got, err := d.SetBalance(BalanceUpdate{Left: ptr(20.0)}, Level)
		if err != nil {
			t.Fatalf("SetBalance() error = %v", err)
		}
		if got.Left != 20 || got.Right != 31 {
			t.Errorf("SetBalance() = %+v, want {20 31}", got)
		}
		if len(w.writes) != 1 {
			t.Errorf("writes = %d, want 1", len(w.writes))
		}
	})

	t.Run("both in dB", func(t *testing.T) {
		d, _ := newTestDSP(t)
		got, err := d.SetBalance(BalanceUpdate{Left: ptr(-2.5), Right: ptr(-50.0)}, Decibel)
		if err != nil {
			t.Fatalf("SetBalance() error = %v", err)
		}
		if got.Left != -2.5 || got.Right != -38.75 {
			t.Errorf("SetBalance() = %+v, want {-2.5 -38.75}", got)
		}
		if s := d.State(); s.BalanceLeft != 29 || s.BalanceRight != 0 {
			t.Errorf("state = %d/%d, want 29/0", s.BalanceLeft, s.BalanceRight)
		}
	})

	t.Run("empty update does not push", func(t *testing.T) {
		d, w := newTestDSP(t)
		got, err := d.SetBalance(BalanceUpdate{}, Level)
		if err != nil {
			t.Fatalf("SetBalance() error = %v", err)
		}
		if got.Left != 31 || got.Right != 31 {
			t.Errorf("SetBalance() = %+v", got)
		}
		if len(w.writes) != 0 {
			t.Errorf("writes = %d, want 0", len(w.writes))
		}
	})
}

func TestDSP_SetInput(t *testing.T) {
	t.Run("partial update keeps other fields", func(t *testing.T) {
		d, _ := newTestDSP(t)
		got, err := d.SetInput(InputUpdate{Input: ptr(5)}, Level)
		if err != nil {
			t.Fatalf("SetInput() error = %v", err)
		}
		want := InputSettings{Input: 2, Loudness: true, Gain: 0}
		if got != want {
			t.Errorf("SetInput() = %+v, want %+v", got, want)
		}
	})

	t.Run("loudness and gain in dB", func(t *testing.T) {
		d, w := newTestDSP(t)
		got, err := d.SetInput(InputUpdate{Loudness: ptr(false), Gain: ptr(7.0)}, Decibel)
		if err != nil {
			t.Fatalf("SetInput() error = %v", err)
		}
		want := InputSettings{Input: 0, Loudness: false, Gain: 7.5}
		if got != want {
			t.Errorf("SetInput() = %+v, want %+v", got, want)
		}
		// gain 2 -> (3-2)<<3 = 0x08, loudness off -> 0x04
		if b := w.writes[0].data[5]; b != 0x4C {
			t.Errorf("input byte = %#02x, want 0x4c", b)
		}
	})

	t.Run("empty update does not push", func(t *testing.T) {
		d, w := newTestDSP(t)
		if _, err := d.SetInput(InputUpdate{}, Level); err != nil {
			t.Fatalf("SetInput() error = %v", err)
		}
		if len(w.writes) != 0 {
			t.Errorf("writes = %d, want 0", len(w.writes))
		}
	})
}

func TestDSP_Tone(t *testing.T) {
	d, w := newTestDSP(t)

	if got, _ := d.SetBass(10, Level); got != 7 {
		t.Errorf("SetBass(10) = %v, want 7", got)
	}
	if got, _ := d.SetBass(-2, Decibel); got != -2 {
		t.Errorf("SetBass(-2 dB) = %v, want -2", got)
	}
	if d.Bass(Level) != -1 {
		t.Errorf("Bass(Level) = %v, want -1", d.Bass(Level))
	}
	if got, _ := d.SetTreble(-14, Decibel); got != -14 {
		t.Errorf("SetTreble(-14 dB) = %v, want -14", got)
	}
	if d.Treble(Level) != -7 {
		t.Errorf("Treble(Level) = %v, want -7", d.Treble(Level))
	}
	if len(w.writes) != 3 {
		t.Errorf("writes = %d, want 3", len(w.writes))
	}
	last := w.writes[len(w.writes)-1].data
	if last[6] != 0x66 || last[7] != 0x70 {
		t.Errorf("tone bytes = %#02x %#02x, want 0x66 0x70", last[6], last[7])
	}
}

func TestDSP_WriteErrorKeepsState(t *testing.T) {
	d, w := newTestDSP(t)
	w.err = errTransport

	got, err := d.SetVolume(10, Level)
	if !errors.Is(err, errTransport) {
		t.Fatalf("SetVolume() error = %v, want transport error", err)
	}
	if got != 10 || d.State().Volume != 10 {
		t.Errorf("volume = %v / %d, want 10", got, d.State().Volume)
	}
}

func TestDSP_Restore(t *testing.T) {
	d, w := newTestDSP(t)
	err := d.Restore(DSPState{Volume: 99, BalanceLeft: -1, BalanceRight: 10, Input: 1, Gain: 9, Bass: -9, Treble: 3})
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	want := DSPState{Volume: 63, BalanceLeft: 0, BalanceRight: 10, Input: 1, Gain: 3, Bass: -7, Treble: 3}
	if d.State() != want {
		t.Errorf("State() = %+v, want %+v", d.State(), want)
	}
	if len(w.writes) != 1 {
		t.Errorf("writes = %d, want 1", len(w.writes))
	}
}

func TestDSP_Identity(t *testing.T) {
	d, _ := newTestDSP(t)
	if d.Name() != "TDA7313" || d.Description() == "" {
		t.Errorf("identity = %q / %q", d.Name(), d.Description())
	}
	if err := d.BeforePowerOff(); err != nil {
		t.Errorf("BeforePowerOff() error = %v", err)
	}
}
