// Package session runs one client connection: a blocking read loop feeding the dispatcher and a
// single writer goroutine draining the outbound queue.
package session

import (
	"iter"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
)

// Conn is a line-oriented connection. Only one goroutine reads and only one writes.
type Conn interface {
	ReadLine() (string, error)
	WriteLine(line string) error
	SetReadDeadline(t time.Time) error
	RemoteAddr() string
	Close() error
}

type Session struct {
	logger     *slog.Logger
	id         string
	remoteAddr string
	host       string
	conn       Conn

	mu       sync.RWMutex
	nickname string

	outbox    chan string
	done      chan struct{}
	closeOnce sync.Once
}

func New(logger *slog.Logger, conn Conn, outboxSize int) *Session {
	id := pkg.GenerateSessionID()
	remoteAddr := conn.RemoteAddr()

	return &Session{
		logger:     logger.With("component", "session", "session_id", id, "remote_addr", remoteAddr),
		id:         id,
		remoteAddr: remoteAddr,
		host:       hostOf(remoteAddr),
		conn:       conn,
		outbox:     make(chan string, outboxSize),
		done:       make(chan struct{}),
	}
}

func (that *Session) ID() string {
	return that.id
}

// Name - the nickname when one was set, otherwise the remote IP, so anonymous results from one machine add up.
func (that *Session) Name() string {
	that.mu.RLock()
	defer that.mu.RUnlock()

	if that.nickname != "" {
		return that.nickname
	}

	return that.host
}

func (that *Session) SetNickname(name string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.nickname = name
}

func (that *Session) RemoteAddr() string {
	return that.remoteAddr
}

// Send queues a line for the writer. It never blocks: a peer that lets its queue fill up is disconnected,
// and lines sent after Close are dropped.
func (that *Session) Send(line string) {
	select {
	case <-that.done:
		return
	default:
	}

	select {
	case that.outbox <- line:
	case <-that.done:
	default:
		that.logger.Warn("outbound queue is full, closing session", "queued", len(that.outbox))
		that.Close()
	}
}

// Close is safe to call from any goroutine, any number of times.
func (that *Session) Close() {
	that.closeOnce.Do(func() {
		close(that.done)

		if err := that.conn.Close(); err != nil {
			that.logger.Debug("failed to close connection", "error", err)
		}
	})
}

func (that *Session) Done() <-chan struct{} {
	return that.done
}

// Lines yields inbound lines until the peer disconnects, the read fails or readTimeout passes without input.
// A zero readTimeout waits forever.
func (that *Session) Lines(readTimeout time.Duration) iter.Seq[string] {
	return func(yield func(string) bool) {
		log := that.logger.With("method", "Lines")

		for {
			if readTimeout > 0 {
				if err := that.conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
					log.Debug("failed to set read deadline", "error", err)
					return
				}
			}

			line, err := that.conn.ReadLine()
			if err != nil {
				log.Debug("read loop finished", "error", err)
				return
			}

			if !yield(line) {
				return
			}
		}
	}
}

// writeLoop owns every write to the connection, so each line goes out whole.
func (that *Session) writeLoop() {
	log := that.logger.With("method", "writeLoop")

	for {
		select {
		case line := <-that.outbox:
			if err := that.conn.WriteLine(line); err != nil {
				log.Info("failed to write to peer", "error", err)
				that.Close()
				return
			}
		case <-that.done:
			return
		}
	}
}

func hostOf(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}

	return host
}
