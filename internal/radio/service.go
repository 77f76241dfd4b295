package radio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/headunit-core/internal/board"
	"github.com/nerrad567/headunit-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/headunit-core/internal/settings"
)

// Logger is satisfied by *logging.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Store persists board state. *settings.Store implements it.
type Store interface {
	Save(ctx context.Context, boardID string, state settings.State) error
	Load(ctx context.Context, boardID string) (settings.State, time.Time, error)
	RecordStateChange(ctx context.Context, boardID string, state settings.State, source string) error
	GetHistory(ctx context.Context, boardID string, limit int) ([]settings.HistoryEntry, error)
}

// Telemetry records board samples. *influxdb.Client implements it.
type Telemetry interface {
	WriteBoardState(boardID, source string, s influxdb.BoardSample)
	WriteBusError(boardID, operation string)
}

// Options configures a Service. Store, Telemetry and Logger are optional.
type Options struct {
	BoardID   string
	Store     Store
	Telemetry Telemetry
	Logger    Logger

	// RestoreOnStart applies the persisted state in Restore.
	RestoreOnStart bool

	// PowerOnStart powers the board on in Restore even when it was saved off.
	PowerOnStart bool
}

// Service serialises access to a Board and fans every applied change out
// to the settings store, telemetry and registered listeners.
//
// All public methods are thread-safe.
type Service struct {
	mu     sync.Mutex
	board  *board.Board
	closed bool

	boardID   string
	store     Store
	telemetry Telemetry
	logger    Logger
	opts      Options

	// seq numbers applied changes under mu. deliverMu orders their
	// delivery; a change older than the last delivered one is dropped.
	seq       uint64
	deliverMu sync.Mutex
	delivered uint64

	listenersMu sync.RWMutex
	listeners   []StateListener
}

// New wraps b. The service takes ownership of b and closes it in Close.
func New(b *board.Board, opts Options) (*Service, error) {
	if b == nil {
		return nil, ErrNoBoard
	}
	if opts.BoardID == "" {
		return nil, ErrBoardIDRequired
	}
	s := &Service{
		board:     b,
		boardID:   opts.BoardID,
		store:     opts.Store,
		telemetry: opts.Telemetry,
		logger:    opts.Logger,
		opts:      opts,
	}
	if s.logger == nil {
		s.logger = noopLogger{}
	}
	return s, nil
}

// BoardID returns the identifier used for persistence, topics and tags.
func (s *Service) BoardID() string { return s.boardID }

// AddListener registers l for every future change.
func (s *Service) AddListener(l StateListener) {
	if l == nil {
		return
	}
	s.listenersMu.Lock()
	s.listeners = append(s.listeners, l)
	s.listenersMu.Unlock()
}

// Snapshot returns the current state with DSP values in unit u.
func (s *Service) Snapshot(u board.Unit) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(u)
}

// History returns the most recent persisted changes, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]settings.HistoryEntry, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.GetHistory(ctx, s.boardID, limit)
}

// ─── Board ───

// SetPower switches the board on or off.
func (s *Service) SetPower(ctx context.Context, source string, on bool) error {
	_, err := apply(ctx, s, source, "power", func(b *board.Board) (struct{}, error) {
		return struct{}{}, b.SetPower(on)
	})
	return err
}

// SetMute puts the amplifier in or out of stand-by. Un-muting while the
// board is off has no effect and is not an error.
func (s *Service) SetMute(ctx context.Context, source string, on bool) error {
	_, err := apply(ctx, s, source, "mute", func(b *board.Board) (struct{}, error) {
		return struct{}{}, b.SetMute(on)
	})
	return err
}

// Reset power-cycles the board. The call blocks for the reset delay and
// every other operation waits for it.
func (s *Service) Reset(ctx context.Context, source string) error {
	_, err := apply(ctx, s, source, "reset", func(b *board.Board) (struct{}, error) {
		return struct{}{}, b.Reset()
	})
	return err
}

// ─── DSP ───

// Volume returns the master volume in unit u.
func (s *Service) Volume(u board.Unit) float64 {
	return s.Snapshot(u).Volume
}

// SetVolume sets the master volume and returns the effective value.
func (s *Service) SetVolume(ctx context.Context, source string, v float64, u board.Unit) (float64, error) {
	return apply(ctx, s, source, "volume", func(b *board.Board) (float64, error) {
		return b.DSP().SetVolume(v, u)
	})
}

// Balance returns both channel attenuations in unit u.
func (s *Service) Balance(u board.Unit) board.Balance {
	return s.Snapshot(u).Balance
}

// SetBalance changes one or both channel attenuators.
func (s *Service) SetBalance(ctx context.Context, source string, upd board.BalanceUpdate, u board.Unit) (board.Balance, error) {
	return apply(ctx, s, source, "balance", func(b *board.Board) (board.Balance, error) {
		return b.DSP().SetBalance(upd, u)
	})
}

// Input returns the input selector settings with gain in unit u.
func (s *Service) Input(u board.Unit) board.InputSettings {
	return s.Snapshot(u).Input
}

// SetInput changes the input, loudness and/or gain.
func (s *Service) SetInput(ctx context.Context, source string, upd board.InputUpdate, u board.Unit) (board.InputSettings, error) {
	return apply(ctx, s, source, "input", func(b *board.Board) (board.InputSettings, error) {
		return b.DSP().SetInput(upd, u)
	})
}

// Bass returns the bass level in unit u.
func (s *Service) Bass(u board.Unit) float64 {
	return s.Snapshot(u).Bass
}

// SetBass sets the bass level.
func (s *Service) SetBass(ctx context.Context, source string, v float64, u board.Unit) (float64, error) {
	return apply(ctx, s, source, "bass", func(b *board.Board) (float64, error) {
		return b.DSP().SetBass(v, u)
	})
}

// Treble returns the treble level in unit u.
func (s *Service) Treble(u board.Unit) float64 {
	return s.Snapshot(u).Treble
}

// SetTreble sets the treble level.
func (s *Service) SetTreble(ctx context.Context, source string, v float64, u board.Unit) (float64, error) {
	return apply(ctx, s, source, "treble", func(b *board.Board) (float64, error) {
		return b.DSP().SetTreble(v, u)
	})
}

// ─── Tuner ───

// Tuning returns the tuned frequency and step.
func (s *Service) Tuning() board.Tuning {
	return s.Snapshot(board.Level).Tuning
}

// Tune sets the frequency in MHz.
func (s *Service) Tune(ctx context.Context, source string, freq float64) (board.Tuning, error) {
	return apply(ctx, s, source, "tune", func(b *board.Board) (board.Tuning, error) {
		return b.Tuner().Tune(freq)
	})
}

// SetStep always fails with board.ErrUnsupportedStep.
func (s *Service) SetStep(ctx context.Context, source string, kHz int) (board.Tuning, error) {
	return apply(ctx, s, source, "step", func(b *board.Board) (board.Tuning, error) {
		return b.Tuner().SetStep(kHz)
	})
}

// ─── Lifecycle ───

// Restore applies the persisted state and power settings at start-up.
//
// With RestoreOnStart the DSP registers and tuner frequency are loaded
// from the store; they reach the chips when the board powers on. The
// board powers on when it was saved on or PowerOnStart is set, and is
// un-muted only when it was saved on and un-muted.
//
// A missing saved state is not an error.
func (s *Service) Restore(ctx context.Context) error {
	_, err := apply(ctx, s, settings.SourceStartup, "restore", func(b *board.Board) (struct{}, error) {
		return struct{}{}, s.restoreLocked(ctx, b)
	})
	return err
}

func (s *Service) restoreLocked(ctx context.Context, b *board.Board) error {
	var saved settings.State
	found := false

	if s.opts.RestoreOnStart && s.store != nil {
		st, updatedAt, err := s.store.Load(ctx, s.boardID)
		switch {
		case err == nil:
			saved, found = st, true
			s.logger.Info("restoring board state", "board_id", s.boardID, "saved_at", updatedAt)
		case errors.Is(err, settings.ErrNotFound):
			s.logger.Info("no saved board state", "board_id", s.boardID)
		default:
			return fmt.Errorf("loading saved state: %w", err)
		}
	}

	if found {
		if err := b.DSP().Restore(saved.DSP); err != nil {
			return err
		}
		if err := b.Tuner().Restore(saved.Tuner); err != nil {
			return err
		}
	}

	if s.opts.PowerOnStart || (found && saved.Power) {
		if err := b.SetPower(true); err != nil {
			return err
		}
		if found && saved.Power && !saved.Mute {
			return b.SetMute(false)
		}
	}
	return nil
}

// Close powers the board off and releases it. Later calls return nil.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.board.Close()
}

// apply runs fn under the service lock and, when it succeeds, persists and
// publishes the new state. Listeners run after the lock is released, in the
// order the changes were applied.
func apply[T any](ctx context.Context, s *Service, source, op string, fn func(*board.Board) (T, error)) (T, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		var zero T
		return zero, ErrClosed
	}

	v, err := fn(s.board)
	if err != nil {
		s.recordFailure(op, err)
		s.mu.Unlock()
		return v, err
	}

	s.seq++
	change := Change{
		Source:  source,
		Level:   s.snapshotLocked(board.Level),
		Decibel: s.snapshotLocked(board.Decibel),
		seq:     s.seq,
	}
	s.persistLocked(ctx, source, op)
	s.mu.Unlock()

	s.publish(change)
	return v, nil
}

// publish writes telemetry and notifies listeners for c unless a later
// change has already been published. Listeners must not change the board.
func (s *Service) publish(c Change) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	if c.seq <= s.delivered {
		s.logger.Debug("skipping superseded state change", "board_id", s.boardID, "seq", c.seq, "delivered", s.delivered)
		return
	}
	s.delivered = c.seq

	if s.telemetry != nil {
		s.telemetry.WriteBoardState(s.boardID, c.Source, sample(c.Decibel))
	}
	s.notify(c)
}

// recordFailure logs a failed operation and counts bus and line failures.
func (s *Service) recordFailure(op string, err error) {
	if errors.Is(err, board.ErrUnsupportedStep) {
		s.logger.Debug("unsupported board operation", "operation", op, "error", err)
		return
	}
	s.logger.Error("board operation failed", "board_id", s.boardID, "operation", op, "error", err)
	if s.telemetry != nil && (errors.Is(err, board.ErrWriteFailed) || errors.Is(err, board.ErrLineFailed)) {
		s.telemetry.WriteBusError(s.boardID, op)
	}
}

// persistLocked saves the state and a history entry. Store failures are
// logged; the hardware has already changed.
func (s *Service) persistLocked(ctx context.Context, source, op string) {
	if s.store == nil {
		return
	}
	st := s.persistedLocked()
	if err := s.store.Save(ctx, s.boardID, st); err != nil {
		s.logger.Warn("saving board state failed", "board_id", s.boardID, "operation", op, "error", err)
		return
	}
	if err := s.store.RecordStateChange(ctx, s.boardID, st, source); err != nil {
		s.logger.Warn("recording state history failed", "board_id", s.boardID, "operation", op, "error", err)
	}
}

func (s *Service) notify(c Change) {
	s.listenersMu.RLock()
	listeners := make([]StateListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.listenersMu.RUnlock()

	for _, l := range listeners {
		l(c)
	}
}
