package mqttctl

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/nerrad567/headunit-core/internal/board"
	"github.com/nerrad567/headunit-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/headunit-core/internal/radio"
)

type published struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// fakeMQTT records publishes and keeps subscription handlers.
type fakeMQTT struct {
	mu        sync.Mutex
	connected bool
	messages  []published
	handlers  map[string]mqtt.MessageHandler
	subErr    error
}

func newFakeMQTT() *fakeMQTT {
	return &fakeMQTT{connected: true, handlers: make(map[string]mqtt.MessageHandler)}
}

func (f *fakeMQTT) Publish(topic string, payload []byte, qos byte, retained bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, published{topic, append([]byte(nil), payload...), qos, retained})
	return nil
}

func (f *fakeMQTT) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subErr != nil {
		return f.subErr
	}
	f.handlers[topic] = handler
	return nil
}

func (f *fakeMQTT) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

// deliver sends payload to the handler subscribed on topic.
func (f *fakeMQTT) deliver(t *testing.T, topic string, payload string) error {
	t.Helper()
	f.mu.Lock()
	h := f.handlers[topic]
	f.mu.Unlock()
	if h == nil {
		t.Fatalf("no subscription on %s", topic)
	}
	return h(topic, []byte(payload))
}

// on returns the messages published to topic.
func (f *fakeMQTT) on(topic string) []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []published
	for _, m := range f.messages {
		if m.topic == topic {
			out = append(out, m)
		}
	}
	return out
}

// lastAck decodes the most recent acknowledgement.
func (f *fakeMQTT) lastAck(t *testing.T) AckMessage {
	t.Helper()
	acks := f.on("headunit/ack/main")
	if len(acks) == 0 {
		t.Fatal("no ack published")
	}
	var ack AckMessage
	if err := json.Unmarshal(acks[len(acks)-1].payload, &ack); err != nil {
		t.Fatalf("decoding ack: %v", err)
	}
	return ack
}

// call is one recorded radio call.
type call struct {
	op     string
	source string
	args   []any
}

// fakeRadio records calls and returns canned results.
type fakeRadio struct {
	mu    sync.Mutex
	calls []call
	err   error
	power bool
}

func (r *fakeRadio) record(op, source string, args ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{op, source, args})
	return r.err
}

func (r *fakeRadio) lastCall() call {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return call{}
	}
	return r.calls[len(r.calls)-1]
}

func (r *fakeRadio) BoardID() string { return "main" }

func (r *fakeRadio) Snapshot(u board.Unit) radio.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return radio.Snapshot{BoardID: "main", Unit: u.String(), Power: r.power, Mute: true}
}

func (r *fakeRadio) SetPower(_ context.Context, src string, on bool) error {
	err := r.record("power", src, on)
	if err == nil {
		r.mu.Lock()
		r.power = on
		r.mu.Unlock()
	}
	return err
}

func (r *fakeRadio) SetMute(_ context.Context, src string, on bool) error {
	return r.record("mute", src, on)
}

func (r *fakeRadio) Reset(_ context.Context, src string) error {
	return r.record("reset", src)
}

func (r *fakeRadio) SetVolume(_ context.Context, src string, v float64, u board.Unit) (float64, error) {
	return v, r.record("volume", src, v, u)
}

func (r *fakeRadio) SetBalance(_ context.Context, src string, upd board.BalanceUpdate, u board.Unit) (board.Balance, error) {
	var bal board.Balance
	if upd.Left != nil {
		bal.Left = *upd.Left
	}
	if upd.Right != nil {
		bal.Right = *upd.Right
	}
	return bal, r.record("balance", src, upd, u)
}

func (r *fakeRadio) SetInput(_ context.Context, src string, upd board.InputUpdate, u board.Unit) (board.InputSettings, error) {
	var in board.InputSettings
	if upd.Input != nil {
		in.Input = *upd.Input
	}
	return in, r.record("input", src, upd, u)
}

func (r *fakeRadio) SetBass(_ context.Context, src string, v float64, u board.Unit) (float64, error) {
	return v, r.record("bass", src, v, u)
}

func (r *fakeRadio) SetTreble(_ context.Context, src string, v float64, u board.Unit) (float64, error) {
	return v, r.record("treble", src, v, u)
}

func (r *fakeRadio) Tune(_ context.Context, src string, freq float64) (board.Tuning, error) {
	return board.Tuning{Freq: freq, StepKHz: 50}, r.record("tune", src, freq)
}

func (r *fakeRadio) SetStep(_ context.Context, src string, kHz int) (board.Tuning, error) {
	r.record("step", src, kHz) //nolint:errcheck // Always unsupported
	return board.Tuning{Freq: 95, StepKHz: 50}, board.ErrUnsupportedStep
}

// newTestBridge starts a bridge on fakes.
func newTestBridge(t *testing.T) (*Bridge, *fakeMQTT, *fakeRadio) {
	t.Helper()
	client := newFakeMQTT()
	r := &fakeRadio{}
	b, err := New(Options{Client: client, Radio: r, Version: "test"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := b.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		cancel()
		b.Stop()
	})
	return b, client, r
}
