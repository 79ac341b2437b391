package tcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/transport/session"
)

var ErrNotListening = errors.New("tcp server is not listening")

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

type sessions interface {
	Serve(ctx context.Context, conn session.Conn)
}

// Server accepts game clients on a TCP port, one goroutine per connection.
type Server struct {
	logger   *slog.Logger
	sessions sessions

	mu       sync.Mutex
	listener net.Listener
}

func New(logger *slog.Logger, sessions sessions) *Server {
	return &Server{
		logger:   logger.With("component", "tcp_server"),
		sessions: sessions,
	}
}

// Start - listens on port and serves until ctx is cancelled.
func (that *Server) Start(ctx context.Context, port string) error {
	if err := that.Listen(":" + port); err != nil {
		return err
	}

	return that.Serve(ctx)
}

func (that *Server) Listen(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	that.mu.Lock()
	that.listener = listener
	that.mu.Unlock()

	return nil
}

// Addr - the bound address once Listen succeeded.
func (that *Server) Addr() net.Addr {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.listener == nil {
		return nil
	}

	return that.listener.Addr()
}

// Serve runs the accept loop. It returns nil when ctx is cancelled or Close is called.
func (that *Server) Serve(ctx context.Context) error {
	log := that.logger.With("method", "Serve")

	that.mu.Lock()
	listener := that.listener
	that.mu.Unlock()

	if listener == nil {
		return ErrNotListening
	}

	stop := context.AfterFunc(ctx, func() {
		_ = that.Close()
	})
	defer stop()

	log.Info("accepting connections", "addr", listener.Addr().String())

	var retryDelay time.Duration

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				log.Info("listener closed")
				return nil
			}

			retryDelay = nextAcceptDelay(retryDelay)
			log.Error("failed to accept connection", "error", err, "retry_in", retryDelay)

			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return nil
			}

			continue
		}

		retryDelay = 0

		go that.sessions.Serve(ctx, newLineConn(conn))
	}
}

func (that *Server) Close() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.listener == nil {
		return nil
	}

	if err := that.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("failed to close listener: %w", err)
	}

	return nil
}

// nextAcceptDelay doubles the wait after each consecutive Accept failure, up to maxAcceptDelay.
func nextAcceptDelay(previous time.Duration) time.Duration {
	if previous == 0 {
		return minAcceptDelay
	}

	return min(2*previous, maxAcceptDelay)
}
