package tictactoe

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/protocol"
)

type State int

const (
	StateNotStarted State = iota
	StateInProgress
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateInProgress:
		return "in_progress"
	case StateEnded:
		return "ended"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const (
	hostSeat  = 0
	guestSeat = 1
)

// Notifier delivers a protocol line to the session behind a player id.
type Notifier interface {
	Notify(playerID, line string)
}

// ResultRecorder receives exactly one result per player when a game completes.
type ResultRecorder interface {
	RecordWin(name string)
	RecordLoss(name string)
	RecordDraw(name string)
	Persist(ctx context.Context)
}

type Option func(*Game)

// WithCoin replaces the clock-seeded coin that decides whether X moves first.
func WithCoin(coin func() bool) Option {
	return func(g *Game) {
		g.coin = coin
	}
}

func clockCoin() bool {
	return rand.New(rand.NewSource(time.Now().UnixNano())).Intn(2) == 0 //nolint: gosec // fairness, not secrecy
}

// Game is one match between a host (always X) and a guest (always O).
// All state transitions happen under mu, so moves are applied one at a time.
type Game struct {
	logger   *slog.Logger
	notifier Notifier
	recorder ResultRecorder
	coin     func() bool

	mu        sync.Mutex
	board     *entity.Board
	players   [2]entity.Player
	current   int
	state     State
	winLine   []int
	abandoned bool
}

func NewGame(logger *slog.Logger, notifier Notifier, recorder ResultRecorder, size int, host, guest entity.Player, opts ...Option) *Game {
	host.Mark = entity.MarkX
	guest.Mark = entity.MarkO

	game := &Game{
		logger:   logger.With("component", "game"),
		notifier: notifier,
		recorder: recorder,
		coin:     clockCoin,
		board:    entity.NewBoard(size),
		players:  [2]entity.Player{host, guest},
		state:    StateNotStarted,
	}

	for _, opt := range opts {
		opt(game)
	}

	return game
}

// Start - announces marks, flips the coin for the first mover and sends the first turn notices.
func (that *Game) Start() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.abandoned || that.state != StateNotStarted {
		return
	}

	that.startLocked()
}

func (that *Game) startLocked() {
	size := that.board.Size

	that.notifier.Notify(that.players[hostSeat].ID, protocol.GameStart(entity.MarkX, size))
	that.notifier.Notify(that.players[guestSeat].ID, protocol.GameStart(entity.MarkO, size))

	if that.coin() {
		that.current = hostSeat
	} else {
		that.current = guestSeat
	}

	that.state = StateInProgress

	that.logger.Info("game started", "size", size, "first", that.players[that.current].Mark,
		"host", that.players[hostSeat].Name, "guest", that.players[guestSeat].Name)

	that.notifyTurn()
}

// MakeMove applies a move for playerID. Every rejection wraps apperror.ErrInvalidMove and leaves the game untouched.
func (that *Game) MakeMove(ctx context.Context, playerID string, position int) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.state != StateInProgress {
		return fmt.Errorf("%w: game is %s", apperror.ErrInvalidMove, that.state)
	}

	seat := that.seatOf(playerID)
	if seat < 0 {
		return fmt.Errorf("%w: not a player of this game", apperror.ErrInvalidMove)
	}

	if seat != that.current {
		return fmt.Errorf("%w: not your turn", apperror.ErrInvalidMove)
	}

	mark := that.players[seat].Mark
	if err := that.board.Place(position, mark); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrInvalidMove, err)
	}

	that.broadcast(protocol.Move(position, mark))

	if line := that.board.WinningLine(mark); line != nil {
		that.finish(ctx, mark, line)
		return nil
	}

	if that.board.IsFull() {
		that.finish(ctx, protocol.ResultDraw, nil)
		return nil
	}

	that.current = 1 - that.current
	that.notifyTurn()

	return nil
}

func (that *Game) finish(ctx context.Context, result string, line []int) {
	that.state = StateEnded
	that.winLine = line

	that.broadcast(protocol.GameOver(result))
	if line != nil {
		that.broadcast(protocol.WinLine(line))
	}

	host, guest := that.players[hostSeat], that.players[guestSeat]

	switch result {
	case protocol.ResultDraw:
		that.recorder.RecordDraw(host.Name)
		that.recorder.RecordDraw(guest.Name)
	case host.Mark:
		that.recorder.RecordWin(host.Name)
		that.recorder.RecordLoss(guest.Name)
	default:
		that.recorder.RecordWin(guest.Name)
		that.recorder.RecordLoss(host.Name)
	}

	that.recorder.Persist(ctx)

	that.logger.Info("game over", "result", result, "line", line)
}

// HandleDisconnect ends the game without recording a result and tells the other player once.
// Later calls for the same game are no-ops and return false.
func (that *Game) HandleDisconnect(playerID string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.abandoned {
		return false
	}

	that.abandoned = true
	wasLive := that.state == StateInProgress
	that.state = StateEnded

	for _, player := range that.players {
		if player.ID != playerID {
			that.notifier.Notify(player.ID, protocol.EventOpponentLeft)
		}
	}

	that.logger.Info("player left the game", "player_id", playerID, "was_live", wasLive)

	return true
}

// Reset starts a rematch on a cleared board with a fresh coin flip.
func (that *Game) Reset() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.abandoned {
		return apperror.ErrGameAbandoned
	}

	that.board.Clear()
	that.winLine = nil
	that.state = StateNotStarted

	that.startLocked()

	return nil
}

func (that *Game) State() State {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.state
}

// Cells returns a copy of the board.
func (that *Game) Cells() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return slices.Clone(that.board.Cells)
}

func (that *Game) WinLine() []int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return slices.Clone(that.winLine)
}

// CurrentPlayer - id of the player expected to move.
func (that *Game) CurrentPlayer() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.players[that.current].ID
}

func (that *Game) Players() [2]entity.Player {
	return that.players
}

func (that *Game) Size() int {
	return that.board.Size
}

func (that *Game) seatOf(playerID string) int {
	for seat, player := range that.players {
		if player.ID == playerID {
			return seat
		}
	}
	return -1
}

func (that *Game) broadcast(line string) {
	for _, player := range that.players {
		that.notifier.Notify(player.ID, line)
	}
}

func (that *Game) notifyTurn() {
	for seat, player := range that.players {
		if seat == that.current {
			that.notifier.Notify(player.ID, protocol.EventYourTurn)
		} else {
			that.notifier.Notify(player.ID, protocol.EventOpponentTurn)
		}
	}
}
