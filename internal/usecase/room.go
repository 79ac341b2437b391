package usecase

import (
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

// RoomCapacity - a room always seats a host and a guest.
const RoomCapacity = 2

// Client is a connected session as seen by rooms and the registry.
// Send must never block and must be safe for concurrent use.
type Client interface {
	ID() string
	Name() string
	Send(line string)
}

type RoomInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Size     int    `json:"size"`
	Players  int    `json:"players"`
	Capacity int    `json:"capacity"`
	InGame   bool   `json:"in_game"`
}

// Room pairs two clients and owns the game they play.
// The room lock is never held while calling into the game: the game reports back through Notify.
type Room struct {
	logger   *slog.Logger
	recorder tictactoe.ResultRecorder
	gameOpts []tictactoe.Option

	id   string
	name string
	size int

	mu    sync.RWMutex
	host  Client
	guest Client
	game  *tictactoe.Game
}

func NewRoom(logger *slog.Logger, recorder tictactoe.ResultRecorder, id, name string, size int, gameOpts ...tictactoe.Option) *Room {
	return &Room{
		logger:   logger.With("component", "room", "room", name, "room_id", id),
		recorder: recorder,
		gameOpts: gameOpts,
		id:       id,
		name:     name,
		size:     size,
	}
}

func (that *Room) ID() string {
	return that.id
}

func (that *Room) Name() string {
	return that.name
}

func (that *Room) Size() int {
	return that.size
}

// AddPlayer seats the client as host, or as guest when the host seat is taken.
// Filling the guest seat creates a new game which the caller starts once the room lock is released.
func (that *Room) AddPlayer(client Client) (*tictactoe.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	switch {
	case that.host == nil:
		that.host = client
		return nil, nil
	case that.guest == nil:
		that.guest = client
	default:
		return nil, apperror.ErrRoomFull
	}

	host := entity.Player{ID: that.host.ID(), Name: that.host.Name()}
	guest := entity.Player{ID: that.guest.ID(), Name: that.guest.Name()}

	that.game = tictactoe.NewGame(that.logger, that, that.recorder, that.size, host, guest, that.gameOpts...)

	return that.game, nil
}

// RemovePlayer frees the client's seat and discards the game, telling it about the disconnect.
// A guest left alone is promoted to host so the next arrival starts a fresh game.
// It reports whether the client was seated here.
func (that *Room) RemovePlayer(clientID string) bool {
	log := that.logger.With("method", "RemovePlayer")

	that.mu.Lock()

	switch {
	case that.host != nil && that.host.ID() == clientID:
		that.host, that.guest = that.guest, nil
	case that.guest != nil && that.guest.ID() == clientID:
		that.guest = nil
	default:
		that.mu.Unlock()
		return false
	}

	game := that.game
	that.game = nil

	that.mu.Unlock()

	if game != nil {
		game.HandleDisconnect(clientID)
	}

	log.Info("player left the room", "player_id", clientID)

	return true
}

// ResetGame starts a rematch for the current pairing; without a game it does nothing.
func (that *Room) ResetGame() error {
	game := that.Game()
	if game == nil {
		return nil
	}

	return game.Reset()
}

func (that *Room) Game() *tictactoe.Game {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.game
}

// Broadcast sends a line to every seated client.
func (that *Room) Broadcast(line string) {
	for _, client := range that.occupants() {
		client.Send(line)
	}
}

// Notify delivers a line to the seated client with the given id; unknown ids are dropped.
func (that *Room) Notify(playerID, line string) {
	for _, client := range that.occupants() {
		if client.ID() == playerID {
			client.Send(line)
			return
		}
	}
}

func (that *Room) HasPlayer(clientID string) bool {
	for _, client := range that.occupants() {
		if client.ID() == clientID {
			return true
		}
	}

	return false
}

func (that *Room) Occupancy() int {
	return len(that.occupants())
}

func (that *Room) IsFull() bool {
	return that.Occupancy() >= RoomCapacity
}

func (that *Room) IsEmpty() bool {
	return that.Occupancy() == 0
}

func (that *Room) Info() RoomInfo {
	that.mu.RLock()
	defer that.mu.RUnlock()

	players := 0
	if that.host != nil {
		players++
	}
	if that.guest != nil {
		players++
	}

	return RoomInfo{
		ID:       that.id,
		Name:     that.name,
		Size:     that.size,
		Players:  players,
		Capacity: RoomCapacity,
		InGame:   that.game != nil,
	}
}

func (that *Room) occupants() []Client {
	that.mu.RLock()
	defer that.mu.RUnlock()

	clients := make([]Client, 0, RoomCapacity)
	if that.host != nil {
		clients = append(clients, that.host)
	}
	if that.guest != nil {
		clients = append(clients, that.guest)
	}

	return clients
}
