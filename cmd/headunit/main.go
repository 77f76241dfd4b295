// headunit-core drives a car-radio amplifier/tuner board (TDA7313 audio
// processor, TEA6825/TEA6810 tuner) over I2C and GPIO and exposes it over
// MQTT and an HTTP API.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nerrad567/headunit-core/internal/api"
	"github.com/nerrad567/headunit-core/internal/auth"
	"github.com/nerrad567/headunit-core/internal/board"
	"github.com/nerrad567/headunit-core/internal/bridges/mqttctl"
	"github.com/nerrad567/headunit-core/internal/infrastructure/config"
	"github.com/nerrad567/headunit-core/internal/infrastructure/database"
	"github.com/nerrad567/headunit-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/headunit-core/internal/infrastructure/logging"
	"github.com/nerrad567/headunit-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/headunit-core/internal/platform"
	"github.com/nerrad567/headunit-core/internal/radio"
	"github.com/nerrad567/headunit-core/internal/settings"
	"github.com/nerrad567/headunit-core/migrations"
)

// Version information, set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

// historyPruneInterval is how often old state history is removed.
const historyPruneInterval = time.Hour

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	hashPassword := flag.Bool("hash-password", false, "read a password from stdin and print its Argon2id hash")
	flag.Parse()

	switch {
	case *showVersion:
		fmt.Printf("headunit %s (commit %s, built %s)\n", version, commit, date)
		return
	case *hashPassword:
		if err := printPasswordHash(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and blocks until ctx is cancelled. Deferred
// teardown runs in reverse order: API, MQTT bridge, board (powered off),
// telemetry, database.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting headunit",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath, "board_id", cfg.Board.ID)

	// Database and settings store
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)
	store := settings.NewStore(db.DB)

	radioOpts := radio.Options{
		BoardID:        cfg.Board.ID,
		Store:          store,
		Logger:         log.Component("radio"),
		RestoreOnStart: cfg.Board.RestoreOnStart,
		PowerOnStart:   cfg.Board.PowerOnStart,
	}

	// InfluxDB (optional)
	influx, err := influxdb.Connect(cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		log.Warn("InfluxDB unavailable, continuing without telemetry", "error", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influx.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influx.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		radioOpts.Telemetry = influx
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	// Board
	b, err := openBoard(cfg, log)
	if err != nil {
		return err
	}
	svc, err := newRadio(b, radioOpts, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("powering board off")
		if closeErr := svc.Close(); closeErr != nil {
			log.Error("error closing board", "error", closeErr)
		}
	}()
	if restoreErr := svc.Restore(ctx); restoreErr != nil {
		// The board stays usable; the next change re-sends the registers.
		log.Error("restoring board state", "error", restoreErr)
	}

	go pruneHistory(ctx, store, cfg.Board.HistoryRetentionDays, log)

	// MQTT (optional)
	if stop := startMQTT(ctx, cfg, svc, log); stop != nil {
		defer stop()
	}

	// HTTP API
	srv, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Security: cfg.Security,
		Logger:   log.Component("api"),
		Radio:    svc,
		Operator: auth.NewOperator(cfg.Security.Operator),
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	svc.AddListener(srv.OnStateChange)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := srv.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")
	return nil
}

// openBoard opens the host platform and the board on it. The board starts
// powered off and muted.
// newRadio wraps b in a service. On failure b is closed, since no service
// owns it yet.
func newRadio(b *board.Board, opts radio.Options, log *logging.Logger) (*radio.Service, error) {
	svc, err := radio.New(b, opts)
	if err != nil {
		if closeErr := b.Close(); closeErr != nil {
			log.Error("error closing board", "error", closeErr)
		}
		return nil, fmt.Errorf("creating radio service: %w", err)
	}
	return svc, nil
}

func openBoard(cfg *config.Config, log *logging.Logger) (*board.Board, error) {
	numbering, err := board.ParseNumbering(cfg.Hardware.PinNumbering)
	if err != nil {
		return nil, fmt.Errorf("hardware.pin_numbering: %w", err)
	}
	host, err := platform.Open(platform.Config{
		GPIODriver: cfg.Hardware.GPIODriver,
		GPIOChip:   cfg.Hardware.GPIOChip,
	})
	if err != nil {
		return nil, fmt.Errorf("opening platform: %w", err)
	}

	b, err := board.New(host, board.Options{
		Bus:             cfg.Hardware.I2CBus,
		EnablePin:       cfg.Hardware.EnablePin,
		StandbyPin:      cfg.Hardware.StandbyPin,
		Numbering:       numbering,
		OpenSettle:      cfg.GetOpenSettle(),
		PowerUpSettle:   cfg.GetPowerUpSettle(),
		PowerDownSettle: cfg.GetPowerDownSettle(),
		ResetDelay:      cfg.GetResetDelay(),
	})
	if err != nil {
		return nil, fmt.Errorf("opening board: %w", err)
	}
	log.Info("board opened",
		"i2c_bus", cfg.Hardware.I2CBus,
		"gpio_driver", host.Driver(),
		"numbering", numbering.String(),
	)
	return b, nil
}

// startMQTT connects to the broker and starts the command bridge. MQTT is
// optional: with no broker host, or when the broker is unreachable, the
// head unit runs on the HTTP API alone and nil is returned.
//
// Returns:
//   - func(): Stops the bridge and disconnects, or nil
func startMQTT(ctx context.Context, cfg *config.Config, svc *radio.Service, log *logging.Logger) func() {
	if cfg.MQTT.Broker.Host == "" {
		log.Info("MQTT disabled")
		return nil
	}

	boardID := cfg.Board.ID
	client, err := mqtt.Connect(cfg.MQTT, mqtt.WithWill(mqtt.Topics{}.Health(boardID), mqttctl.LWTPayload(boardID)))
	if err != nil {
		log.Warn("MQTT unavailable, continuing without it", "error", err)
		return nil
	}
	mqttLog := log.Component("mqtt")
	client.SetLogger(mqttLog)
	client.SetOnConnect(func() { mqttLog.Info("MQTT reconnected") })
	client.SetOnDisconnect(func(err error) { mqttLog.Warn("MQTT disconnected", "error", err) })
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	bridge, err := mqttctl.New(mqttctl.Options{
		Client:  client,
		Radio:   svc,
		Version: version,
		Logger:  log.Component("mqttctl"),
	})
	if err == nil {
		err = bridge.Start(ctx)
	}
	if err != nil {
		log.Error("MQTT bridge failed to start", "error", err)
		client.Close()
		return nil
	}
	svc.AddListener(bridge.OnStateChange)
	log.Info("MQTT bridge started", "command_topic", mqtt.Topics{}.Command(boardID))

	return func() {
		log.Info("stopping MQTT bridge")
		bridge.Stop()
		if closeErr := client.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}
}

// pruneHistory removes state history older than retentionDays every hour
// until ctx is cancelled. Zero or negative retention keeps everything.
func pruneHistory(ctx context.Context, store *settings.Store, retentionDays int, log *logging.Logger) {
	if retentionDays <= 0 {
		return
	}
	retention := time.Duration(retentionDays) * 24 * time.Hour

	prune := func() {
		n, err := store.PruneHistory(ctx, retention)
		switch {
		case err != nil && ctx.Err() == nil:
			log.Warn("pruning state history", "error", err)
		case n > 0:
			log.Info("pruned state history", "rows", n)
		}
	}

	prune()
	ticker := time.NewTicker(historyPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}

// getConfigPath returns HEADUNIT_CONFIG if set, otherwise the default path.
func getConfigPath() string {
	if path := os.Getenv("HEADUNIT_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// printPasswordHash reads one line from stdin and prints its PHC hash for
// security.operator.password_hash.
func printPasswordHash() error {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("reading password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return fmt.Errorf("empty password")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}
