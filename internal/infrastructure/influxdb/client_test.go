package influxdb_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/headunit-core/internal/infrastructure/config"
	"github.com/nerrad567/headunit-core/internal/infrastructure/influxdb"
)

// testConfig points at a local development InfluxDB.
func testConfig() config.InfluxDBConfig {
	url := os.Getenv("HEADUNIT_TEST_INFLUXDB_URL")
	if url == "" {
		url = "http://127.0.0.1:8086"
	}
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           url,
		Token:         os.Getenv("HEADUNIT_TEST_INFLUXDB_TOKEN"),
		Org:           "headunit",
		Bucket:        "telemetry",
		BatchSize:     10,
		FlushInterval: 1,
	}
}

// connectOrSkip connects to the test server or skips the test.
func connectOrSkip(t *testing.T) *influxdb.Client {
	t.Helper()
	client, err := influxdb.Connect(testConfig())
	if err != nil {
		t.Skipf("InfluxDB not available, skipping integration test: %v", err)
	}
	t.Cleanup(func() { client.Close() }) //nolint:errcheck // Test cleanup
	return client
}

// ─── Connection ────────────────────────────────────────────────────

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	client, err := influxdb.Connect(cfg)
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
	if client != nil {
		t.Error("Connect() returned a client while disabled")
	}
}

func TestConnect_Unreachable(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:1"

	if _, err := influxdb.Connect(cfg); !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnect_HealthCheck(t *testing.T) {
	client := connectOrSkip(t)

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestClient_WriteAndClose(t *testing.T) {
	client := connectOrSkip(t)

	client.WriteBoardState("test-board", "api", influxdb.BoardSample{Power: true, VolumeDB: -20, FrequencyMHz: 101.1})
	client.WriteBusError("test-board", "volume")
	client.Flush()

	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() after Close() error = %v, want ErrNotConnected", err)
	}

	// Writes and Close after Close are no-ops.
	client.WriteBoardState("test-board", "api", influxdb.BoardSample{})
	client.Flush()
	if err := client.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestClient_ZeroValue(t *testing.T) {
	var client influxdb.Client

	client.WriteBoardState("b", "api", influxdb.BoardSample{})
	client.WriteBusError("b", "power")
	client.Flush()
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

// ─── Points ────────────────────────────────────────────────────────

func TestBoardStatePoint(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := influxdb.BoardStatePoint("main", "mqtt", influxdb.BoardSample{
		Power:        true,
		VolumeDB:     -20,
		Input:        2,
		BassDB:       -4,
		FrequencyMHz: 101.1,
		Stereo:       true,
	}, ts)

	line := write.PointToLineProtocol(p, time.Millisecond)

	if !strings.HasPrefix(line, "board_state,board_id=main,source=mqtt ") {
		t.Errorf("line = %q, want board_state with sorted tags", line)
	}
	for _, field := range []string{
		"power=true",
		"mute=false",
		"volume_db=-20",
		"input=2i",
		"bass_db=-4",
		"frequency_mhz=101.1",
		"stereo=true",
	} {
		if !strings.Contains(line, field) {
			t.Errorf("line = %q, missing %s", line, field)
		}
	}
	if !strings.HasSuffix(strings.TrimSpace(line), " 1772366400000") {
		t.Errorf("line = %q, want millisecond timestamp", line)
	}
}

func TestBusErrorPoint(t *testing.T) {
	p := influxdb.BusErrorPoint("main", "tune", time.Unix(0, 0))
	line := write.PointToLineProtocol(p, time.Second)

	if !strings.HasPrefix(line, "bus_errors,board_id=main,operation=tune count=1i") {
		t.Errorf("line = %q", line)
	}
}
