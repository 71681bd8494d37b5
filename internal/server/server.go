// Package server runs the OVNT listener. Each accepted connection gets its own
// goroutine running a strictly half-duplex loop: read one frame, embed, write
// exactly one reply, repeat. A fixed number of permits caps concurrent
// connections; a connection arriving with no permit left is closed at once.
package server

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"embedd/internal/config"
)

const acceptRetryDelay = 100 * time.Millisecond

// Embedder is the part of the model manager the server needs.
type Embedder interface {
	EmbedTextWithModel(ctx context.Context, text, model string) ([]float32, error)
}

// Server accepts OVNT connections and answers embedding requests.
type Server struct {
	emb    Embedder
	cfg    config.NetworkConfig
	log    zerolog.Logger
	id     uuid.UUID
	sem    *semaphore.Weighted
	active atomic.Int64
}

// New returns a server answering with emb. Zero limits in cfg fall back to
// the package defaults.
func New(emb Embedder, cfg config.NetworkConfig, log zerolog.Logger) *Server {
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = config.DefaultMaxConnections
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = config.DefaultMaxMessageSize
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = config.DefaultBufferSize
	}
	return &Server{
		emb: emb,
		cfg: cfg,
		log: log.With().Str("component", "server").Logger(),
		id:  uuid.New(),
		sem: semaphore.NewWeighted(int64(cfg.MaxConnections)),
	}
}

// ID is the sender id stamped on every reply.
func (s *Server) ID() uuid.UUID { return s.id }

// ActiveConnections returns the number of connections currently handled.
func (s *Server) ActiveConnections() int { return int(s.active.Load()) }

// ListenAndServe listens on cfg.BindAddress and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.BindAddress)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then closes ln and
// returns nil. Handlers already running are not waited for.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	s.log.Info().Str("addr", ln.Addr().String()).Str("server_id", s.id.String()).Int("max_connections", s.cfg.MaxConnections).Msg("ovnt listener started")
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.log.Info().Msg("ovnt listener stopped")
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			acceptErrorsTotal.Inc()
			s.log.Warn().Err(err).Msg("accept failed")
			select {
			case <-time.After(acceptRetryDelay):
			case <-ctx.Done():
			}
			continue
		}
		if !s.sem.TryAcquire(1) {
			connectionsTotal.WithLabelValues("rejected").Inc()
			s.log.Warn().Str("remote", conn.RemoteAddr().String()).Msg("connection limit reached, dropping connection")
			_ = conn.Close()
			continue
		}
		connectionsTotal.WithLabelValues("accepted").Inc()
		go func() {
			defer s.sem.Release(1)
			s.handle(ctx, conn)
		}()
	}
}
