package relay

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/grandcat/zeroconf"
	"github.com/muurk/mc6sysex/internal/logging"
	"github.com/muurk/mc6sysex/internal/transport"
	"go.uber.org/zap"
)

const (
	// DefaultPort is the relay listen port
	DefaultPort = 8765

	// DefaultPath is the websocket endpoint
	DefaultPath = "/sysex"

	// shutdownTimeout bounds graceful shutdown
	shutdownTimeout = 10 * time.Second
)

// Config holds the relay server configuration
type Config struct {
	Host         string
	Port         int    // 0 picks a free port
	Path         string // Websocket endpoint path (default /sysex)
	Advertise    bool   // Register the relay over mDNS
	InstanceName string // mDNS instance name (default mc6-relay-<hostname>)
	CertPath     string // TLS certificate; with KeyPath, serves wss://
	KeyPath      string
}

// Server forwards sysex frames between one websocket client and a device.
type Server struct {
	config   Config
	device   transport.Device
	upgrader websocket.Upgrader

	listener   net.Listener
	httpServer *http.Server
	mdns       *zeroconf.Server
	ready      chan struct{}

	wg       sync.WaitGroup
	mu       sync.Mutex
	busy     bool
	client   *client
	cancel   context.CancelFunc
	shutdown sync.Once
}

// New creates a relay server. Zero values in config take the defaults.
func New(config Config) *Server {
	if config.Path == "" {
		config.Path = DefaultPath
	}
	return &Server{
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		ready: make(chan struct{}),
	}
}

// Ready is closed once the server is listening.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the listen address. Valid after Ready.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start serves the relay until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, device transport.Device) error {
	s.device = device
	ctx, s.cancel = context.WithCancel(ctx)

	addr := net.JoinHostPort(s.config.Host, fmt.Sprintf("%d", s.config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if s.config.TLSEnabled() {
		tlsConfig, err := newTLSConfig(s.config.CertPath, s.config.KeyPath)
		if err != nil {
			s.cancel()
			_ = listener.Close()
			return err
		}
		listener = tls.NewListener(listener, tlsConfig)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc(s.config.Path, s.handleWebSocket)
	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	logging.Info("Relay listening",
		zap.String("addr", listener.Addr().String()),
		zap.String("path", s.config.Path),
		zap.Bool("tls", s.config.TLSEnabled()),
	)

	if s.config.Advertise {
		port := listener.Addr().(*net.TCPAddr).Port
		mdns, err := advertise(s.config, port)
		if err != nil {
			s.cancel()
			_ = listener.Close()
			return err
		}
		s.mdns = mdns
	}

	close(s.ready)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.pumpDevice(ctx)
	}()

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		logging.Info("Shutdown requested, stopping relay...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("relay server failed: %w", err)
	}
}

// pumpDevice forwards frames from the device to the connected client.
func (s *Server) pumpDevice(ctx context.Context) {
	for {
		frame, err := s.device.Receive(ctx)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, transport.ErrClosed) {
				logging.Error("Device receive failed", zap.Error(err))
			}
			return
		}

		s.mu.Lock()
		c := s.client
		s.mu.Unlock()

		if c == nil {
			logging.Warn("No relay client connected, dropping device frame",
				zap.Int("length", len(frame)),
			)
			continue
		}
		if err := c.send(frame); err != nil {
			logging.Error("Failed to forward device frame",
				zap.String("remote_addr", c.remoteAddr),
				zap.Error(err),
			)
		}
	}
}

// handleWebSocket accepts one client at a time.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	remoteAddr := r.RemoteAddr

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		logging.Warn("Rejecting relay client, another client is connected",
			zap.String("remote_addr", remoteAddr),
		)
		http.Error(w, "relay busy", http.StatusConflict)
		return
	}
	s.busy = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.client = nil
		s.mu.Unlock()
	}()

	id := uuid.New().String()
	conn, err := s.upgrader.Upgrade(w, r, http.Header{SessionHeader: {id}})
	if err != nil {
		logging.Error("Websocket upgrade failed",
			zap.String("remote_addr", remoteAddr),
			zap.Error(err),
		)
		return
	}

	c := newClient(id, conn, remoteAddr)
	s.mu.Lock()
	s.client = c
	s.mu.Unlock()

	s.wg.Add(1)
	defer s.wg.Done()

	if err := c.serve(r.Context(), s.device); err != nil {
		logging.Error("Relay client error",
			zap.String("remote_addr", remoteAddr),
			zap.Error(err),
		)
	}
}

// Shutdown stops accepting clients, closes the active one and the mDNS
// registration, and waits for handlers to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdown.Do(func() {
		logging.Info("Shutting down relay...")

		if s.cancel != nil {
			s.cancel()
		}

		if s.mdns != nil {
			s.mdns.Shutdown()
		}

		if s.httpServer != nil {
			if serr := s.httpServer.Shutdown(ctx); serr != nil {
				logging.Error("Error stopping HTTP server", zap.Error(serr))
				err = serr
			}
		}

		s.mu.Lock()
		if s.client != nil {
			logging.Info("Closing active client", zap.String("remote_addr", s.client.remoteAddr))
			s.client.close()
		}
		s.mu.Unlock()

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			logging.Info("Relay stopped")
		case <-ctx.Done():
			logging.Warn("Shutdown timeout, forcing close")
		}

		logging.Sync()
	})
	return err
}

// ActiveClients returns the number of connected clients (0 or 1).
func (s *Server) ActiveClients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return 1
	}
	return 0
}
