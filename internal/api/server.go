package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/laudos/laudos-core/internal/audit"
	"github.com/laudos/laudos-core/internal/auth"
	"github.com/laudos/laudos-core/internal/cases"
	"github.com/laudos/laudos-core/internal/evidence"
	"github.com/laudos/laudos-core/internal/infrastructure/config"
	"github.com/laudos/laudos-core/internal/infrastructure/database"
	"github.com/laudos/laudos-core/internal/infrastructure/influxdb"
	"github.com/laudos/laudos-core/internal/infrastructure/logging"
	"github.com/laudos/laudos-core/internal/infrastructure/mqtt"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// defaultAuditBuffer applies when Deps.AuditBuffer is not positive.
const defaultAuditBuffer = 256

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config      config.APIConfig
	WS          config.WebSocketConfig
	Security    config.SecurityConfig
	ServiceID   string
	AuditBuffer int
	Logger      *logging.Logger
	DB          *database.DB
	Accounts    *auth.Service
	Cases       cases.Repository
	Evidence    evidence.Repository
	AuditRepo   audit.Repository
	MQTT        *mqtt.Client     // optional event bus
	Influx      *influxdb.Client // optional telemetry
	Version     string
}

// Server is the HTTP API server for Laudos Core.
//
// It is created with New and started with Start.
type Server struct {
	cfg       config.APIConfig
	serviceID string
	logger    *logging.Logger
	db        *database.DB
	accounts  *auth.Service
	tokens    *auth.TokenService
	cases     cases.Repository
	evidence  evidence.Repository
	auditRepo audit.Repository
	auditCh   chan *audit.AuditLog
	mqtt      *mqtt.Client
	influx    *influxdb.Client
	version   string
	startTime time.Time

	hub     *Hub
	tickets *ticketStore
	limiter *ipRateLimiter

	server *http.Server
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a new API server. The server is not started until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Accounts == nil {
		return nil, fmt.Errorf("account service is required")
	}
	if deps.Cases == nil || deps.Evidence == nil {
		return nil, fmt.Errorf("case and evidence repositories are required")
	}

	bufSize := deps.AuditBuffer
	if bufSize <= 0 {
		bufSize = defaultAuditBuffer
	}

	s := &Server{
		cfg:       deps.Config,
		serviceID: deps.ServiceID,
		logger:    deps.Logger,
		db:        deps.DB,
		accounts:  deps.Accounts,
		tokens:    deps.Accounts.Tokens(),
		cases:     deps.Cases,
		evidence:  deps.Evidence,
		auditRepo: deps.AuditRepo,
		mqtt:      deps.MQTT,
		influx:    deps.Influx,
		version:   deps.Version,
		startTime: time.Now(),
		hub:       NewHub(deps.WS, deps.Logger),
		tickets:   newTicketStore(),
	}
	if deps.AuditRepo != nil {
		s.auditCh = make(chan *audit.AuditLog, bufSize)
	}
	if rl := deps.Security.RateLimit; rl.Enabled {
		s.limiter = newIPRateLimiter(rl.RequestsPerMinute, rl.Burst)
	}

	return s, nil
}

// Start launches background workers and the HTTP listener. The listener runs
// in its own goroutine; Close stops it.
func (s *Server) Start(ctx context.Context) error {
	s.startBackground(ctx)

	if err := s.relayRemoteEvents(); err != nil {
		s.logger.Warn("failed to subscribe to remote events", "error", err)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.ReadTimeout(),
		ReadHeaderTimeout: s.cfg.ReadTimeout(),
		WriteTimeout:      s.cfg.WriteTimeout(),
		IdleTimeout:       s.cfg.IdleTimeout(),
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS", "address", s.server.Addr, "cert", s.cfg.TLS.CertFile)
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

// startBackground runs the hub, the audit drain and the ticket and limiter
// sweepers until Close. They outlive cancellation of ctx so requests still
// in flight during shutdown are audited.
func (s *Server) startBackground(ctx context.Context) {
	var bgCtx context.Context
	bgCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.done = make(chan struct{})

	go s.hub.Run(bgCtx)
	go s.sweepLoop(bgCtx)
	if s.auditCh != nil {
		go func() {
			defer close(s.done)
			s.drainAuditLog(bgCtx)
		}()
	} else {
		close(s.done)
	}
}

// sweepLoop expires WebSocket tickets and idle rate limiters.
func (s *Server) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(ticketTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.tickets.sweep(now)
			if s.limiter != nil {
				s.limiter.sweep(now)
			}
		}
	}
}

// Close shuts the listener down gracefully, then stops background workers
// once the audit queue has drained.
func (s *Server) Close() error {
	var shutdownErr error
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		s.logger.Info("API server shutting down")
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("shutting down API server: %w", err)
		}
	}

	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	return shutdownErr
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
