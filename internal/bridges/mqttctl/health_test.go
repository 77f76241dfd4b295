package mqttctl

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func decodeHealth(t *testing.T, p published) HealthMessage {
	t.Helper()
	var msg HealthMessage
	if err := json.Unmarshal(p.payload, &msg); err != nil {
		t.Fatalf("decoding health: %v", err)
	}
	return msg
}

func TestHealthReporter_Status(t *testing.T) {
	client := newFakeMQTT()
	r := &fakeRadio{power: true}
	h := NewHealthReporter(HealthReporterConfig{
		BoardID:   "main",
		Version:   "1.2.3",
		Publisher: client,
		Board:     r,
		Stats:     func() BridgeStatistics { return BridgeStatistics{CommandsReceived: 7} },
	})

	if err := h.PublishNow(); err != nil {
		t.Fatalf("PublishNow() error = %v", err)
	}
	client.mu.Lock()
	client.connected = false
	client.mu.Unlock()
	if err := h.PublishNow(); err != nil {
		t.Fatalf("PublishNow() error = %v", err)
	}

	msgs := client.on("headunit/health/main")
	if len(msgs) != 2 {
		t.Fatalf("health messages = %d, want 2", len(msgs))
	}

	first := decodeHealth(t, msgs[0])
	if first.Status != HealthHealthy || first.Version != "1.2.3" || !first.BoardPowered {
		t.Errorf("first = %+v", first)
	}
	if first.Statistics == nil || first.Statistics.CommandsReceived != 7 {
		t.Errorf("Statistics = %+v", first.Statistics)
	}

	second := decodeHealth(t, msgs[1])
	if second.Status != HealthDegraded || second.Reason != "MQTT disconnected" {
		t.Errorf("second = %+v", second)
	}
}

func TestHealthReporter_StartStop(t *testing.T) {
	client := newFakeMQTT()
	h := NewHealthReporter(HealthReporterConfig{
		BoardID:   "main",
		Interval:  10 * time.Millisecond,
		Publisher: client,
	})

	h.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for len(client.on("headunit/health/main")) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	h.Stop()
	h.Stop()

	msgs := client.on("headunit/health/main")
	if len(msgs) < 3 {
		t.Fatalf("health messages = %d, want at least 3", len(msgs))
	}
	if last := decodeHealth(t, msgs[len(msgs)-1]); last.Status != HealthStopping {
		t.Errorf("last status = %q, want stopping", last.Status)
	}
}

func TestHealthReporter_LWT(t *testing.T) {
	h := NewHealthReporter(HealthReporterConfig{BoardID: "rear"})

	if got := h.LWTTopic(); got != "headunit/health/rear" {
		t.Errorf("LWTTopic() = %q", got)
	}
	var msg HealthMessage
	if err := json.Unmarshal(h.LWTPayload(), &msg); err != nil {
		t.Fatalf("decoding LWT: %v", err)
	}
	if msg.Status != HealthOffline || msg.BoardID != "rear" {
		t.Errorf("LWT = %+v", msg)
	}
}

func TestHealthReporter_NoPublisher(t *testing.T) {
	h := NewHealthReporter(HealthReporterConfig{BoardID: "main"})
	if err := h.PublishNow(); err != nil {
		t.Errorf("PublishNow() without publisher = %v, want nil", err)
	}
}
