package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/protocol"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

const maxRoomNameLength = 32

// RoomManager is the registry of connected clients and rooms.
// Every table mutation, including starting and abandoning games, happens under mu.
// Clients only enqueue outbound lines, so nothing here waits on a socket.
type RoomManager struct {
	logger       *slog.Logger
	recorder     tictactoe.ResultRecorder
	maxBoardSize int
	gameOpts     []tictactoe.Option

	mu      sync.RWMutex
	clients map[string]Client
	rooms   map[string]*Room
	members map[string]*Room
}

func NewRoomManager(logger *slog.Logger, recorder tictactoe.ResultRecorder, maxBoardSize int, gameOpts ...tictactoe.Option) *RoomManager {
	return &RoomManager{
		logger:       logger.With("component", "room_manager"),
		recorder:     recorder,
		maxBoardSize: maxBoardSize,
		gameOpts:     gameOpts,
		clients:      make(map[string]Client),
		rooms:        make(map[string]*Room),
		members:      make(map[string]*Room),
	}
}

// AddClient registers a new connection and sends it the current room list.
func (that *RoomManager) AddClient(client Client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.clients[client.ID()] = client
	client.Send(protocol.RoomList(that.joinableLocked()))

	that.logger.Info("client connected", "client_id", client.ID(), "clients", len(that.clients))
}

// RemoveClient drops a connection and vacates its seat. Calling it again for the same client does nothing.
func (that *RoomManager) RemoveClient(clientID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.clients[clientID]; !ok {
		return
	}

	delete(that.clients, clientID)

	if that.leaveLocked(clientID) != nil {
		that.broadcastRoomListLocked()
	}

	that.logger.Info("client disconnected", "client_id", clientID, "clients", len(that.clients))
}

func (that *RoomManager) CreateRoom(client Client, name string, size int) error {
	log := that.logger.With("method", "CreateRoom")

	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxRoomNameLength {
		return fmt.Errorf("%w: %q", apperror.ErrInvalidRoomName, name)
	}

	if !entity.ValidBoardSize(size, that.maxBoardSize) {
		return fmt.Errorf("%w: %d", apperror.ErrInvalidBoardSize, size)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.members[client.ID()]; ok {
		return apperror.ErrAlreadyInRoom
	}

	if _, ok := that.rooms[name]; ok {
		return fmt.Errorf("%w: %s", apperror.ErrRoomAlreadyExists, name)
	}

	id, err := that.newRoomIDLocked()
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	room := NewRoom(that.logger, that.recorder, id, name, size, that.gameOpts...)
	if _, err = room.AddPlayer(client); err != nil {
		return fmt.Errorf("failed to seat host: %w", err)
	}

	that.rooms[name] = room
	that.members[client.ID()] = room

	client.Send(protocol.EventWaitingForOpponent)
	that.broadcastRoomListLocked()

	log.Info("room created", "room", name, "room_id", id, "size", size, "host", client.ID())

	return nil
}

func (that *RoomManager) JoinRoom(client Client, name string) error {
	log := that.logger.With("method", "JoinRoom")

	name = strings.TrimSpace(name)

	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.members[client.ID()]; ok {
		return apperror.ErrAlreadyInRoom
	}

	room, ok := that.rooms[name]
	if !ok {
		return fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, name)
	}

	game, err := room.AddPlayer(client)
	if err != nil {
		return fmt.Errorf("%w: %s", err, name)
	}

	that.members[client.ID()] = room

	if game != nil {
		game.Start()
	} else {
		client.Send(protocol.EventWaitingForOpponent)
	}

	that.broadcastRoomListLocked()

	log.Info("client joined room", "room", name, "client_id", client.ID(), "started", game != nil)

	return nil
}

// LeaveRoom takes the client out of its room without disconnecting it.
func (that *RoomManager) LeaveRoom(client Client) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.leaveLocked(client.ID()) == nil {
		return apperror.ErrNotInRoom
	}

	client.Send(protocol.EventReturnHome)
	that.broadcastRoomListLocked()

	return nil
}

// MakeMove forwards a move to the client's game. Every failure wraps apperror.ErrInvalidMove.
func (that *RoomManager) MakeMove(ctx context.Context, clientID string, position int) error {
	room := that.RoomOf(clientID)
	if room == nil {
		return fmt.Errorf("%w: %w", apperror.ErrInvalidMove, apperror.ErrNotInRoom)
	}

	game := room.Game()
	if game == nil {
		return fmt.Errorf("%w: no game in room %s", apperror.ErrInvalidMove, room.Name())
	}

	return game.MakeMove(ctx, clientID, position)
}

// Chat relays text to everyone in the sender's room, the sender included.
func (that *RoomManager) Chat(client Client, text string) error {
	room := that.RoomOf(client.ID())
	if room == nil {
		return apperror.ErrNotInRoom
	}

	room.Broadcast(protocol.Chat(client.Name(), text))

	return nil
}

func (that *RoomManager) Rematch(clientID string) error {
	room := that.RoomOf(clientID)
	if room == nil {
		return apperror.ErrNotInRoom
	}

	if err := room.ResetGame(); err != nil {
		return fmt.Errorf("failed to start rematch: %w", err)
	}

	return nil
}

func (that *RoomManager) RoomOf(clientID string) *Room {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.members[clientID]
}

// ListRooms - names of rooms with a free seat, sorted.
func (that *RoomManager) ListRooms() []string {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.joinableLocked()
}

// Rooms describes every room, sorted by name.
func (that *RoomManager) Rooms() []RoomInfo {
	that.mu.RLock()
	defer that.mu.RUnlock()

	infos := make([]RoomInfo, 0, len(that.rooms))
	for _, room := range that.rooms {
		infos = append(infos, room.Info())
	}

	slices.SortFunc(infos, func(a, b RoomInfo) int {
		return strings.Compare(a.Name, b.Name)
	})

	return infos
}

func (that *RoomManager) ClientCount() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.clients)
}

// leaveLocked vacates the client's seat and returns the room it left, or nil.
func (that *RoomManager) leaveLocked(clientID string) *Room {
	room, ok := that.members[clientID]
	if !ok {
		return nil
	}

	delete(that.members, clientID)
	room.RemovePlayer(clientID)

	if room.IsEmpty() {
		delete(that.rooms, room.Name())
		that.logger.Info("room closed", "room", room.Name(), "room_id", room.ID())

		return room
	}

	room.Broadcast(protocol.EventWaitingForOpponent)

	return room
}

func (that *RoomManager) joinableLocked() []string {
	names := make([]string, 0, len(that.rooms))
	for name, room := range that.rooms {
		if !room.IsFull() {
			names = append(names, name)
		}
	}

	slices.Sort(names)

	return names
}

func (that *RoomManager) broadcastRoomListLocked() {
	line := protocol.RoomList(that.joinableLocked())
	for _, client := range that.clients {
		client.Send(line)
	}
}

func (that *RoomManager) newRoomIDLocked() (string, error) {
	for {
		id, err := pkg.GenerateRoomID()
		if err != nil {
			return "", err
		}

		taken := false
		for _, room := range that.rooms {
			if room.ID() == id {
				taken = true
				break
			}
		}

		if !taken {
			return id, nil
		}
	}
}
