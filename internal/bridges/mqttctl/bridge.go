package mqttctl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/headunit-core/internal/board"
	"github.com/nerrad567/headunit-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/headunit-core/internal/radio"
	"github.com/nerrad567/headunit-core/internal/settings"
)

// commandTimeout bounds one command. Reset alone waits for the reset delay.
const commandTimeout = 10 * time.Second

// MQTTClient is the part of *mqtt.Client the bridge uses.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	IsConnected() bool
}

// Radio is the part of *radio.Service the bridge drives.
type Radio interface {
	BoardID() string
	Snapshot(u board.Unit) radio.Snapshot
	SetPower(ctx context.Context, source string, on bool) error
	SetMute(ctx context.Context, source string, on bool) error
	Reset(ctx context.Context, source string) error
	SetVolume(ctx context.Context, source string, v float64, u board.Unit) (float64, error)
	SetBalance(ctx context.Context, source string, upd board.BalanceUpdate, u board.Unit) (board.Balance, error)
	SetInput(ctx context.Context, source string, upd board.InputUpdate, u board.Unit) (board.InputSettings, error)
	SetBass(ctx context.Context, source string, v float64, u board.Unit) (float64, error)
	SetTreble(ctx context.Context, source string, v float64, u board.Unit) (float64, error)
	Tune(ctx context.Context, source string, freq float64) (board.Tuning, error)
	SetStep(ctx context.Context, source string, kHz int) (board.Tuning, error)
}

// Logger is satisfied by *logging.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options configures a Bridge.
type Options struct {
	Client MQTTClient
	Radio  Radio

	// Version is reported in health messages.
	Version string

	// HealthInterval defaults to 30 seconds.
	HealthInterval time.Duration

	Logger Logger
}

// Bridge exposes one board over MQTT: commands in, acknowledgements,
// state and health out.
type Bridge struct {
	mqtt    MQTTClient
	radio   Radio
	boardID string
	topics  mqtt.Topics
	health  *HealthReporter
	logger  Logger

	commandsReceived atomic.Uint64
	commandsFailed   atomic.Uint64

	ctx       context.Context
	ctxCancel context.CancelFunc
	stopOnce  sync.Once
}

// New creates a bridge. Call Start to subscribe.
func New(opts Options) (*Bridge, error) {
	if opts.Client == nil {
		return nil, errors.New("MQTT client is required")
	}
	if opts.Radio == nil {
		return nil, errors.New("radio service is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &Bridge{
		mqtt:      opts.Client,
		radio:     opts.Radio,
		boardID:   opts.Radio.BoardID(),
		logger:    opts.Logger,
		ctx:       ctx,
		ctxCancel: cancel,
	}
	b.health = NewHealthReporter(HealthReporterConfig{
		BoardID:   b.boardID,
		Version:   opts.Version,
		Interval:  opts.HealthInterval,
		Publisher: opts.Client,
		Board:     opts.Radio,
		Stats:     b.Statistics,
	})
	if opts.Logger != nil {
		b.health.SetLogger(opts.Logger)
	}
	return b, nil
}

// Start subscribes to the board's command topic, publishes the current
// state and starts health reporting.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.health.PublishStarting(); err != nil {
		b.logError("failed to publish starting status", err)
	}

	topic := b.topics.Command(b.boardID)
	if err := b.mqtt.Subscribe(topic, 1, b.handleMessage); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	b.logInfo("subscribed to commands", "topic", topic)

	b.publishState(b.currentState())
	b.health.Start(ctx)
	b.logInfo("mqtt bridge started", "board_id", b.boardID)
	return nil
}

// Stop cancels in-flight commands and publishes a stopping status.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.ctxCancel()
		b.health.Stop()
		b.logInfo("mqtt bridge stopped")
	})
}

// OnStateChange publishes every radio change. Register it with
// radio.Service.AddListener.
func (b *Bridge) OnStateChange(c radio.Change) {
	b.publishState(NewStateMessage(c))
}

// Statistics returns the command counters.
func (b *Bridge) Statistics() BridgeStatistics {
	return BridgeStatistics{
		CommandsReceived: b.commandsReceived.Load(),
		CommandsFailed:   b.commandsFailed.Load(),
	}
}

// handleMessage is the subscription handler for the command topic.
func (b *Bridge) handleMessage(_ string, payload []byte) error {
	var cmd CommandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		b.commandsReceived.Add(1)
		b.publishAckError(cmd, ErrCodeInvalidCommand, fmt.Sprintf("malformed command: %v", err))
		return fmt.Errorf("parsing command: %w", err)
	}
	b.handleCommand(cmd)
	return nil
}

// handleCommand executes cmd and publishes its acknowledgement.
func (b *Bridge) handleCommand(cmd CommandMessage) {
	b.commandsReceived.Add(1)
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}
	if cmd.Parameters == nil {
		cmd.Parameters = map[string]any{}
	}
	b.logDebug("received command", "command_id", cmd.ID, "command", cmd.Command)

	ctx, cancel := context.WithTimeout(b.ctx, commandTimeout)
	defer cancel()

	result, code, err := b.execute(ctx, cmd)
	if err != nil {
		b.publishAckError(cmd, code, err.Error())
		return
	}
	b.publishAck(cmd, result)
}

// execute runs one command. On failure it returns the ack error code.
func (b *Bridge) execute(ctx context.Context, cmd CommandMessage) (any, string, error) {
	p := cmd.Parameters
	src := settings.SourceMQTT

	switch cmd.Command {
	case "state":
		b.publishState(b.currentState())
		return b.radio.Snapshot(board.Level), "", nil

	case "power", "mute":
		on, err := requiredBool(p, "on")
		if err != nil {
			return nil, ErrCodeInvalidParameters, err
		}
		if cmd.Command == "power" {
			err = b.radio.SetPower(ctx, src, on)
		} else {
			err = b.radio.SetMute(ctx, src, on)
		}
		return b.outcome(b.radio.Snapshot(board.Level), err)

	case "reset":
		err := b.radio.Reset(ctx, src)
		return b.outcome(b.radio.Snapshot(board.Level), err)

	case "volume", "bass", "treble":
		u, err := unitParam(p)
		if err != nil {
			return nil, ErrCodeInvalidParameters, err
		}
		v, err := requiredFloat(p, "value")
		if err != nil {
			return nil, ErrCodeInvalidParameters, err
		}
		var got float64
		switch cmd.Command {
		case "volume":
			got, err = b.radio.SetVolume(ctx, src, v, u)
		case "bass":
			got, err = b.radio.SetBass(ctx, src, v, u)
		default:
			got, err = b.radio.SetTreble(ctx, src, v, u)
		}
		return b.outcome(map[string]any{"value": got, "unit": u.String()}, err)

	case "balance":
		return b.executeBalance(ctx, p)

	case "input":
		return b.executeInput(ctx, p)

	case "tune":
		freq, err := requiredFloat(p, "frequency")
		if err != nil {
			return nil, ErrCodeInvalidParameters, err
		}
		tuning, err := b.radio.Tune(ctx, src, freq)
		return b.outcome(tuning, err)

	case "step":
		kHz, ok, err := intParam(p, "step_khz")
		if err != nil {
			return nil, ErrCodeInvalidParameters, err
		}
		if !ok {
			return nil, ErrCodeInvalidParameters, errors.New("missing 'step_khz' parameter")
		}
		tuning, err := b.radio.SetStep(ctx, src, kHz)
		return b.outcome(tuning, err)

	default:
		return nil, ErrCodeInvalidCommand, fmt.Errorf("unknown command: %q", cmd.Command)
	}
}

func (b *Bridge) executeBalance(ctx context.Context, p map[string]any) (any, string, error) {
	u, err := unitParam(p)
	if err != nil {
		return nil, ErrCodeInvalidParameters, err
	}
	var upd board.BalanceUpdate
	left, ok, err := floatParam(p, "left")
	if err != nil {
		return nil, ErrCodeInvalidParameters, err
	}
	if ok {
		upd.Left = &left
	}
	right, ok, err := floatParam(p, "right")
	if err != nil {
		return nil, ErrCodeInvalidParameters, err
	}
	if ok {
		upd.Right = &right
	}
	if upd.Left == nil && upd.Right == nil {
		return nil, ErrCodeInvalidParameters, errors.New("balance needs 'left' and/or 'right'")
	}

	bal, err := b.radio.SetBalance(ctx, settings.SourceMQTT, upd, u)
	return b.outcome(bal, err)
}

func (b *Bridge) executeInput(ctx context.Context, p map[string]any) (any, string, error) {
	u, err := unitParam(p)
	if err != nil {
		return nil, ErrCodeInvalidParameters, err
	}
	var upd board.InputUpdate
	input, ok, err := intParam(p, "input")
	if err != nil {
		return nil, ErrCodeInvalidParameters, err
	}
	if ok {
		upd.Input = &input
	}
	loudness, ok, err := boolParam(p, "loudness")
	if err != nil {
		return nil, ErrCodeInvalidParameters, err
	}
	if ok {
		upd.Loudness = &loudness
	}
	gain, ok, err := floatParam(p, "gain")
	if err != nil {
		return nil, ErrCodeInvalidParameters, err
	}
	if ok {
		upd.Gain = &gain
	}
	if upd.Input == nil && upd.Loudness == nil && upd.Gain == nil {
		return nil, ErrCodeInvalidParameters, errors.New("input needs 'input', 'loudness' and/or 'gain'")
	}

	settingsOut, err := b.radio.SetInput(ctx, settings.SourceMQTT, upd, u)
	return b.outcome(settingsOut, err)
}

// outcome maps a radio error to an ack error code.
func (b *Bridge) outcome(result any, err error) (any, string, error) {
	if err == nil {
		return result, "", nil
	}
	return nil, errorCode(err), err
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, board.ErrUnsupportedStep):
		return ErrCodeUnsupported
	case errors.Is(err, board.ErrWriteFailed), errors.Is(err, board.ErrLineFailed):
		return ErrCodeBusError
	case errors.Is(err, radio.ErrClosed), errors.Is(err, board.ErrClosed):
		return ErrCodeUnavailable
	default:
		return ErrCodeInternal
	}
}

func (b *Bridge) currentState() StateMessage {
	return StateMessage{
		BoardID:   b.boardID,
		Timestamp: time.Now().UTC(),
		Level:     b.radio.Snapshot(board.Level),
		Decibel:   b.radio.Snapshot(board.Decibel),
	}
}

func (b *Bridge) publishState(msg StateMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		b.logError("failed to marshal state", err)
		return
	}
	if err := b.mqtt.Publish(b.topics.State(b.boardID), payload, 1, true); err != nil {
		b.logError("failed to publish state", err)
	}
}

func (b *Bridge) publishAck(cmd CommandMessage, result any) {
	b.publishAckMessage(NewAckMessage(b.boardID, cmd, result))
}

func (b *Bridge) publishAckError(cmd CommandMessage, code, message string) {
	b.commandsFailed.Add(1)
	b.logWarn("command failed", "command_id", cmd.ID, "command", cmd.Command, "code", code, "message", message)
	b.publishAckMessage(NewAckError(b.boardID, cmd, code, message))
}

func (b *Bridge) publishAckMessage(ack AckMessage) {
	payload, err := json.Marshal(ack)
	if err != nil {
		b.logError("failed to marshal ack", err)
		return
	}
	if err := b.mqtt.Publish(b.topics.Ack(b.boardID), payload, 1, false); err != nil {
		b.logError("failed to publish ack", err)
	}
}

func (b *Bridge) logInfo(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Info(msg, args...)
	}
}

func (b *Bridge) logDebug(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Debug(msg, args...)
	}
}

func (b *Bridge) logWarn(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Warn(msg, args...)
	}
}

func (b *Bridge) logError(msg string, err error) {
	if b.logger != nil {
		b.logger.Error(msg, "error", err)
	}
}
