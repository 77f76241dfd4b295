package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/headunit-core/internal/auth"
	"github.com/nerrad567/headunit-core/internal/board"
	"github.com/nerrad567/headunit-core/internal/infrastructure/config"
	"github.com/nerrad567/headunit-core/internal/infrastructure/logging"
	"github.com/nerrad567/headunit-core/internal/radio"
	"github.com/nerrad567/headunit-core/internal/settings"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Radio is the part of *radio.Service the API drives.
type Radio interface {
	BoardID() string
	Snapshot(u board.Unit) radio.Snapshot
	History(ctx context.Context, limit int) ([]settings.HistoryEntry, error)

	SetPower(ctx context.Context, source string, on bool) error
	SetMute(ctx context.Context, source string, on bool) error
	Reset(ctx context.Context, source string) error

	Volume(u board.Unit) float64
	SetVolume(ctx context.Context, source string, v float64, u board.Unit) (float64, error)
	Balance(u board.Unit) board.Balance
	SetBalance(ctx context.Context, source string, upd board.BalanceUpdate, u board.Unit) (board.Balance, error)
	Input(u board.Unit) board.InputSettings
	SetInput(ctx context.Context, source string, upd board.InputUpdate, u board.Unit) (board.InputSettings, error)
	Bass(u board.Unit) float64
	SetBass(ctx context.Context, source string, v float64, u board.Unit) (float64, error)
	Treble(u board.Unit) float64
	SetTreble(ctx context.Context, source string, v float64, u board.Unit) (float64, error)

	Tuning() board.Tuning
	Tune(ctx context.Context, source string, freq float64) (board.Tuning, error)
	SetStep(ctx context.Context, source string, kHz int) (board.Tuning, error)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Security config.SecurityConfig
	Logger   *logging.Logger
	Radio    Radio
	Operator *auth.Operator
	Version  string
}

// Server is the HTTP API server for the head unit.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg      config.APIConfig
	secCfg   config.SecurityConfig
	logger   *logging.Logger
	radio    Radio
	operator *auth.Operator
	version  string
	server   *http.Server
	hub      *Hub
	tickets  *ticketStore
	cancel   context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The hub exists from here on, so OnStateChange can be registered as a
// radio listener before Start.
//
// Parameters:
//   - deps: Required dependencies (config, logger, radio, operator)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Radio == nil {
		return nil, fmt.Errorf("radio service is required")
	}
	if deps.Operator == nil {
		return nil, fmt.Errorf("operator is required")
	}

	s := &Server{
		cfg:      deps.Config,
		secCfg:   deps.Security,
		logger:   deps.Logger,
		radio:    deps.Radio,
		operator: deps.Operator,
		version:  deps.Version,
		hub:      NewHub(deps.WS, deps.Logger),
		tickets:  newTicketStore(),
	}
	s.hub.initial = s.currentState
	return s, nil
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub and the ticket cleanup loop, builds the
// router and launches the HTTP listener in a background goroutine. The
// server can be stopped with Close().
//
// Parameters:
//   - ctx: Parent context for the background goroutines
//
// Returns:
//   - error: Always nil; listener errors are logged
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.hub.Run(srvCtx)
	go s.tickets.cleanLoop(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// OnStateChange broadcasts a change to WebSocket clients subscribed to
// EventBoardStateChanged. It is a radio.StateListener.
func (s *Server) OnStateChange(c radio.Change) {
	s.hub.Broadcast(EventBoardStateChanged, newStateEvent(c))
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
