package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/config"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/handler"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/service"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/transport/rest"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/transport/session"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/transport/tcp"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/transport/websocket"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

var ErrUnknownBackend = errors.New("unknown leaderboard backend")

type leaderboardRepo interface {
	Load(ctx context.Context) ([]entity.LeaderboardEntry, error)
	Save(ctx context.Context, entries []entity.LeaderboardEntry) error
}

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	repo, closeRepo, err := newLeaderboardRepo(ctx, conf)
	if err != nil {
		return fmt.Errorf("could not open leaderboard storage: %w", err)
	}
	defer closeRepo()

	leaderboard := service.NewLeaderboard(logger, repo)
	if err = leaderboard.Load(ctx); err != nil {
		log.Error("could not load leaderboard, starting empty", "error", err)
	}

	rooms := usecase.NewRoomManager(logger, leaderboard, conf.Board.MaxSize)
	dispatcher := handler.NewDispatcher(logger, rooms, leaderboard, conf.Leaderboard.Top)
	sessions := session.NewManager(logger, rooms, dispatcher, conf.ReadTimeout, conf.OutboxSize)

	// run TCP game server
	tcpServer := tcp.New(logger, sessions)
	tcpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting TCP server", "port", conf.TCPPort)
		if tcpErr := tcpServer.Start(ctx, conf.TCPPort); tcpErr != nil {
			log.Error("TCP server error", "error", tcpErr)
			tcpErrCh <- tcpErr
		}
	}()

	// run HTTP status + WebSocket server
	var httpServer *rest.Server
	httpErrCh := make(chan error, 1)
	if conf.HTTPPort != "" {
		httpServer = rest.New(logger, rooms, leaderboard, conf.Leaderboard.Top, websocket.New(logger, sessions))
		go func() {
			if httpErr := httpServer.Start(conf.HTTPPort); httpErr != nil {
				log.Error("HTTP server error", "error", httpErr)
				httpErrCh <- httpErr
			}
		}()
	}

	select {
	case err = <-tcpErrCh:
		err = fmt.Errorf("TCP server error: %w", err)
	case err = <-httpErrCh:
		err = fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
	}

	shutdown(log, tcpServer, httpServer, sessions, leaderboard)

	return err
}

func shutdown(log *slog.Logger, tcpServer *tcp.Server, httpServer *rest.Server, sessions *session.Manager, leaderboard *service.Leaderboard) {
	if err := tcpServer.Close(); err != nil {
		log.Error("could not close TCP server", "error", err)
	}

	if httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			log.Error("could not shutdown HTTP server", "error", err)
		}
	}

	sessions.CloseAll()

	leaderboard.Persist(context.Background())
	log.Info("Shutdown complete")
}

// newLeaderboardRepo opens the configured backend and returns a func releasing it.
func newLeaderboardRepo(ctx context.Context, conf *config.Config) (leaderboardRepo, func(), error) {
	switch conf.Leaderboard.Backend {
	case "file":
		return repository.NewFileLeaderboard(conf.Leaderboard.Path), func() {}, nil

	case "redis":
		redisStorage, err := storage.NewRedisStorage(ctx, conf.Redis.Host, conf.Redis.Port)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		return repository.NewRedisLeaderboard(redisStorage.Connection), func() { _ = redisStorage.Close() }, nil

	case "sqlite":
		sqliteStorage, err := storage.NewSQLiteStorage(ctx, conf.Leaderboard.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open sqlite storage: %w", err)
		}

		repo := repository.NewSQLiteLeaderboard(sqliteStorage.Connection)
		if err = repo.Init(ctx); err != nil {
			_ = sqliteStorage.Close()
			return nil, nil, err
		}

		return repo, func() { _ = sqliteStorage.Close() }, nil

	case "postgres":
		pgStorage, err := storage.NewPostgresStorage(ctx, storage.PostgresConfig{
			Host:     conf.Postgres.Host,
			Port:     conf.Postgres.Port,
			User:     conf.Postgres.User,
			Password: conf.Postgres.Password,
			DBName:   conf.Postgres.DBName,
			SSLMode:  conf.Postgres.SSLMode,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to postgres storage: %w", err)
		}

		repo := repository.NewPostgresLeaderboard(pgStorage.Connection)
		if err = repo.Init(ctx); err != nil {
			_ = pgStorage.Close()
			return nil, nil, err
		}

		return repo, func() { _ = pgStorage.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBackend, conf.Leaderboard.Backend)
	}
}
