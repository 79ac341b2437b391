package rest

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

const maxLeaderboardLimit = 100

type Handlers interface {
	Ping(ctx echo.Context) error
	Rooms(ctx echo.Context) error
	Leaderboard(ctx echo.Context) error
}

type handlers struct {
	logger      *slog.Logger
	rooms       roomLister
	leaderboard standings
	defaultTop  int
}

func NewHandlers(logger *slog.Logger, rooms roomLister, leaderboard standings, defaultTop int) Handlers {
	return &handlers{
		logger:      logger.With("component", "rest"),
		rooms:       rooms,
		leaderboard: leaderboard,
		defaultTop:  defaultTop,
	}
}

func (that *handlers) Ping(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "pong")
}

func (that *handlers) Rooms(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, that.rooms.Rooms())
}

// Leaderboard - ranked standings, limited by the optional "limit" query parameter.
func (that *handlers) Leaderboard(ctx echo.Context) error {
	log := that.logger.With("method", "Leaderboard")

	limit := that.defaultTop
	if raw := ctx.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLeaderboardLimit {
			log.Debug("bad limit", "limit", raw)
			return ctx.JSON(http.StatusBadRequest, map[string]string{
				"error": "limit must be between 1 and " + strconv.Itoa(maxLeaderboardLimit),
			})
		}
		limit = n
	}

	return ctx.JSON(http.StatusOK, that.leaderboard.TopN(limit))
}
