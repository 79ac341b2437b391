package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/protocol"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/usecase"
)

const maxNicknameLength = 32

// Session is a client whose display name can be changed by SET_NAME.
type Session interface {
	usecase.Client
	SetNickname(name string)
}

type roomManager interface {
	CreateRoom(client usecase.Client, name string, size int) error
	JoinRoom(client usecase.Client, name string) error
	LeaveRoom(client usecase.Client) error
	ListRooms() []string
	MakeMove(ctx context.Context, clientID string, position int) error
	Chat(client usecase.Client, text string) error
	Rematch(clientID string) error
}

type leaderboard interface {
	TopN(n int) []entity.LeaderboardEntry
}

type handlerFunc func(ctx context.Context, session Session, cmd protocol.Command) error

// Dispatcher turns protocol lines into registry, game and leaderboard calls.
type Dispatcher struct {
	logger      *slog.Logger
	rooms       roomManager
	leaderboard leaderboard
	topN        int

	handlers map[protocol.CommandType]handlerFunc
}

func NewDispatcher(logger *slog.Logger, rooms roomManager, leaderboard leaderboard, topN int) *Dispatcher {
	dispatcher := &Dispatcher{
		logger:      logger.With("component", "dispatcher"),
		rooms:       rooms,
		leaderboard: leaderboard,
		topN:        topN,
	}

	dispatcher.handlers = map[protocol.CommandType]handlerFunc{
		protocol.CmdCreateRoom:     dispatcher.handleCreateRoom,
		protocol.CmdJoinRoom:       dispatcher.handleJoinRoom,
		protocol.CmdLeaveRoom:      dispatcher.handleLeaveRoom,
		protocol.CmdListRooms:      dispatcher.handleListRooms,
		protocol.CmdMove:           dispatcher.handleMove,
		protocol.CmdChat:           dispatcher.handleChat,
		protocol.CmdRematch:        dispatcher.handleRematch,
		protocol.CmdGetLeaderboard: dispatcher.handleGetLeaderboard,
		protocol.CmdSetName:        dispatcher.handleSetName,
		protocol.CmdPing:           dispatcher.handlePing,
	}

	return dispatcher
}

// Dispatch handles one line from session. Failures are answered with ERROR to that session only;
// rejected moves are dropped without a reply.
func (that *Dispatcher) Dispatch(ctx context.Context, session Session, line string) {
	log := that.logger.With("method", "Dispatch", "session_id", session.ID())

	if strings.TrimSpace(line) == "" {
		return
	}

	err := that.process(ctx, session, line)
	switch {
	case err == nil:
	case errors.Is(err, apperror.ErrInvalidMove):
		log.Debug("move ignored", "reason", err)
	default:
		log.Info("request rejected", "line", line, "error", err)
		session.Send(protocol.Error(err.Error()))
	}
}

func (that *Dispatcher) process(ctx context.Context, session Session, line string) error {
	cmd, err := protocol.Parse(line)
	if err != nil {
		return err
	}

	handler, ok := that.handlers[cmd.Type]
	if !ok {
		return fmt.Errorf("%w: %s", apperror.ErrUnknownCommand, cmd.Type)
	}

	return handler(ctx, session, cmd)
}

func (that *Dispatcher) handleCreateRoom(_ context.Context, session Session, cmd protocol.Command) error {
	return that.rooms.CreateRoom(session, cmd.Room, cmd.Size)
}

func (that *Dispatcher) handleJoinRoom(_ context.Context, session Session, cmd protocol.Command) error {
	return that.rooms.JoinRoom(session, cmd.Room)
}

func (that *Dispatcher) handleLeaveRoom(_ context.Context, session Session, _ protocol.Command) error {
	return that.rooms.LeaveRoom(session)
}

func (that *Dispatcher) handleListRooms(_ context.Context, session Session, _ protocol.Command) error {
	session.Send(protocol.RoomList(that.rooms.ListRooms()))
	return nil
}

func (that *Dispatcher) handleMove(ctx context.Context, session Session, cmd protocol.Command) error {
	return that.rooms.MakeMove(ctx, session.ID(), cmd.Position)
}

func (that *Dispatcher) handleChat(_ context.Context, session Session, cmd protocol.Command) error {
	return that.rooms.Chat(session, cmd.Text)
}

func (that *Dispatcher) handleRematch(_ context.Context, session Session, _ protocol.Command) error {
	return that.rooms.Rematch(session.ID())
}

func (that *Dispatcher) handleGetLeaderboard(_ context.Context, session Session, _ protocol.Command) error {
	session.Send(protocol.Leaderboard(that.leaderboard.TopN(that.topN)))
	return nil
}

func (that *Dispatcher) handleSetName(_ context.Context, session Session, cmd protocol.Command) error {
	name := cmd.Text
	if name == "" || utf8.RuneCountInString(name) > maxNicknameLength {
		return fmt.Errorf("%w: must be 1 to %d characters", apperror.ErrInvalidNickname, maxNicknameLength)
	}

	if strings.Contains(name, protocol.Separator) {
		return fmt.Errorf("%w: must not contain the field separator", apperror.ErrInvalidNickname)
	}

	session.SetNickname(name)
	session.Send(protocol.NameOK(name))

	return nil
}

func (that *Dispatcher) handlePing(_ context.Context, session Session, _ protocol.Command) error {
	session.Send(protocol.EventPong)
	return nil
}
