package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/handler"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/usecase"
)

type registry interface {
	AddClient(client usecase.Client)
	RemoveClient(clientID string)
}

type dispatcher interface {
	Dispatch(ctx context.Context, session handler.Session, line string)
}

// Manager runs sessions for every transport and tracks them for shutdown.
type Manager struct {
	logger      *slog.Logger
	registry    registry
	dispatcher  dispatcher
	readTimeout time.Duration
	outboxSize  int

	mu       sync.Mutex
	sessions map[string]*Session
	wg       sync.WaitGroup
}

func NewManager(logger *slog.Logger, registry registry, dispatcher dispatcher, readTimeout time.Duration, outboxSize int) *Manager {
	return &Manager{
		logger:      logger.With("component", "session_manager"),
		registry:    registry,
		dispatcher:  dispatcher,
		readTimeout: readTimeout,
		outboxSize:  outboxSize,
		sessions:    make(map[string]*Session),
	}
}

// Serve runs conn until it ends. The session is removed from the registry before its connection
// is released, on every exit path.
func (that *Manager) Serve(ctx context.Context, conn Conn) {
	session := New(that.logger, conn, that.outboxSize)
	log := that.logger.With("method", "Serve", "session_id", session.ID(), "remote_addr", session.RemoteAddr())

	that.mu.Lock()
	that.sessions[session.ID()] = session
	that.wg.Add(1)
	that.mu.Unlock()

	defer func() {
		that.mu.Lock()
		delete(that.sessions, session.ID())
		that.mu.Unlock()

		that.wg.Done()
	}()

	defer session.Close()
	defer that.registry.RemoveClient(session.ID())

	go session.writeLoop()

	log.Info("session started")

	that.registry.AddClient(session)

	for line := range session.Lines(that.readTimeout) {
		that.dispatcher.Dispatch(ctx, session, line)
	}

	log.Info("session ended")
}

func (that *Manager) Count() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.sessions)
}

// CloseAll disconnects every session and waits for their cleanup.
func (that *Manager) CloseAll() {
	that.mu.Lock()
	for _, session := range that.sessions {
		session.Close()
	}
	that.mu.Unlock()

	that.wg.Wait()
}
