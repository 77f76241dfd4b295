package mqttctl

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nerrad567/headunit-core/internal/board"
	"github.com/nerrad567/headunit-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/headunit-core/internal/radio"
)

const defaultHealthInterval = 30 * time.Second

// HealthPublisher publishes health messages. *mqtt.Client implements it.
type HealthPublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// BoardStatus reports the board's current state.
type BoardStatus interface {
	Snapshot(u board.Unit) radio.Snapshot
}

// HealthReporterConfig configures a HealthReporter.
type HealthReporterConfig struct {
	BoardID   string
	Version   string
	Interval  time.Duration
	Publisher HealthPublisher
	Board     BoardStatus

	// Stats supplies command counters. Optional.
	Stats func() BridgeStatistics
}

// HealthReporter publishes a retained health message on an interval.
type HealthReporter struct {
	boardID   string
	version   string
	startTime time.Time
	interval  time.Duration
	publisher HealthPublisher
	board     BoardStatus
	stats     func() BridgeStatistics

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger   Logger
	loggerMu sync.RWMutex
}

// NewHealthReporter creates a reporter. Call Start to begin reporting.
func NewHealthReporter(cfg HealthReporterConfig) *HealthReporter {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultHealthInterval
	}
	return &HealthReporter{
		boardID:   cfg.BoardID,
		version:   cfg.Version,
		startTime: time.Now(),
		interval:  interval,
		publisher: cfg.Publisher,
		board:     cfg.Board,
		stats:     cfg.Stats,
		done:      make(chan struct{}),
	}
}

// Start publishes immediately and then every interval until ctx is done
// or Stop is called.
func (h *HealthReporter) Start(ctx context.Context) {
	h.wg.Add(1)
	go h.reportLoop(ctx)
}

// Stop ends reporting and publishes a final "stopping" status. Safe to
// call more than once.
func (h *HealthReporter) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.wg.Wait()
		//nolint:errcheck // Best effort during shutdown
		h.publishStatus(HealthStopping, "")
	})
}

// SetLogger sets the logger for publish failures.
func (h *HealthReporter) SetLogger(logger Logger) {
	h.loggerMu.Lock()
	h.logger = logger
	h.loggerMu.Unlock()
}

// PublishStarting publishes a "starting" status.
func (h *HealthReporter) PublishStarting() error {
	return h.publishStatus(HealthStarting, "bridge starting")
}

// PublishNow publishes the current status immediately.
func (h *HealthReporter) PublishNow() error {
	status, reason := h.determineStatus()
	return h.publishStatus(status, reason)
}

// LWTTopic is the topic to pass to mqtt.WithWill.
func (h *HealthReporter) LWTTopic() string {
	return mqtt.Topics{}.Health(h.boardID)
}

// LWTPayload is the payload to pass to mqtt.WithWill.
func (h *HealthReporter) LWTPayload() []byte {
	return LWTPayload(h.boardID)
}

func (h *HealthReporter) reportLoop(ctx context.Context) {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	if err := h.PublishNow(); err != nil {
		h.logError("failed to publish initial health", err)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case <-ticker.C:
			if err := h.PublishNow(); err != nil {
				h.logError("failed to publish health", err)
			}
		}
	}
}

// determineStatus is degraded while the broker is unreachable.
func (h *HealthReporter) determineStatus() (HealthStatus, string) {
	if h.publisher == nil || !h.publisher.IsConnected() {
		return HealthDegraded, "MQTT disconnected"
	}
	return HealthHealthy, ""
}

func (h *HealthReporter) message(status HealthStatus, reason string) HealthMessage {
	msg := HealthMessage{
		BoardID:       h.boardID,
		Timestamp:     time.Now().UTC(),
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Reason:        reason,
	}
	if h.board != nil {
		msg.BoardPowered = h.board.Snapshot(board.Level).Power
	}
	if h.stats != nil {
		stats := h.stats()
		msg.Statistics = &stats
	}
	return msg
}

func (h *HealthReporter) publishStatus(status HealthStatus, reason string) error {
	if h.publisher == nil {
		return nil
	}
	payload, err := json.Marshal(h.message(status, reason))
	if err != nil {
		return err
	}
	return h.publisher.Publish(mqtt.Topics{}.Health(h.boardID), payload, 1, true)
}

func (h *HealthReporter) logError(msg string, err error) {
	h.loggerMu.RLock()
	logger := h.logger
	h.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, "error", err)
	}
}
