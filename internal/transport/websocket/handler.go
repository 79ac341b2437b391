package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/transport/session"
)

const writeWait = 10 * time.Second

type sessions interface {
	Serve(ctx context.Context, conn session.Conn)
}

// Handler upgrades HTTP requests and runs them as game sessions. Each text frame carries one protocol line.
type Handler struct {
	logger   *slog.Logger
	sessions sessions
	upgrader websocket.Upgrader
}

func New(logger *slog.Logger, sessions sessions) *Handler {
	return &Handler{
		logger:   logger.With("component", "websocket"),
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (that *Handler) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Info("failed to upgrade connection", "error", err, "remote_addr", req.RemoteAddr)
		return
	}

	that.sessions.Serve(req.Context(), &frameConn{conn: conn})
}

type frameConn struct {
	conn *websocket.Conn
}

func (that *frameConn) ReadLine() (string, error) {
	for {
		messageType, data, err := that.conn.ReadMessage()
		if err != nil {
			return "", err
		}

		if messageType == websocket.TextMessage || messageType == websocket.BinaryMessage {
			return strings.TrimRight(string(data), "\r\n"), nil
		}
	}
}

func (that *frameConn) WriteLine(line string) error {
	if err := that.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}

	return that.conn.WriteMessage(websocket.TextMessage, []byte(line))
}

func (that *frameConn) SetReadDeadline(t time.Time) error {
	return that.conn.SetReadDeadline(t)
}

func (that *frameConn) RemoteAddr() string {
	return that.conn.RemoteAddr().String()
}

func (that *frameConn) Close() error {
	return that.conn.Close()
}
