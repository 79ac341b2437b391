package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/usecase"
)

type roomLister interface {
	Rooms() []usecase.RoomInfo
}

type standings interface {
	TopN(n int) []entity.LeaderboardEntry
}

// Server exposes status endpoints and, when a handler is given, the WebSocket endpoint at /ws.
type Server struct {
	logger *slog.Logger
	echo   *echo.Echo
}

func New(logger *slog.Logger, rooms roomLister, leaderboard standings, defaultTop int, ws http.Handler) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.IdleTimeout = 30 * time.Second

	handlers := NewHandlers(logger, rooms, leaderboard, defaultTop)

	e.GET("/ping", handlers.Ping)
	e.GET("/rooms", handlers.Rooms)
	e.GET("/leaderboard", handlers.Leaderboard)

	if ws != nil {
		e.GET("/ws", echo.WrapHandler(ws))
	}

	return &Server{
		logger: logger.With("component", "http_server"),
		echo:   e,
	}
}

// Start - serves on port until Shutdown is called.
func (that *Server) Start(port string) error {
	that.logger.Info("starting HTTP server", "port", port)

	if err := that.echo.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) Shutdown(ctx context.Context) error {
	if err := that.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}

func (that *Server) Handler() http.Handler {
	return that.echo
}
