package handler

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/service"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	id string

	mu       sync.Mutex
	nickname string
	lines    []string
}

func (that *fakeSession) ID() string { return that.id }

func (that *fakeSession) Name() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.nickname != "" {
		return that.nickname
	}
	return "127.0.0.1:5555"
}

func (that *fakeSession) SetNickname(name string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.nickname = name
}

func (that *fakeSession) Send(line string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.lines = append(that.lines, line)
}

func (that *fakeSession) Take() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	lines := slices.Clone(that.lines)
	that.lines = nil

	return lines
}

type memoryRepo struct {
	mu      sync.Mutex
	entries []entity.LeaderboardEntry
}

func (that *memoryRepo) Load(context.Context) ([]entity.LeaderboardEntry, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return slices.Clone(that.entries), nil
}

func (that *memoryRepo) Save(_ context.Context, entries []entity.LeaderboardEntry) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.entries = slices.Clone(entries)
	return nil
}

type fixture struct {
	dispatcher  *Dispatcher
	rooms       *usecase.RoomManager
	leaderboard *service.Leaderboard
	repo        *memoryRepo
}

func newFixture() *fixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := &memoryRepo{}
	leaderboard := service.NewLeaderboard(logger, repo)
	rooms := usecase.NewRoomManager(logger, leaderboard, 15, tictactoe.WithCoin(func() bool { return true }))

	return &fixture{
		dispatcher:  NewDispatcher(logger, rooms, leaderboard, 10),
		rooms:       rooms,
		leaderboard: leaderboard,
		repo:        repo,
	}
}

func (that *fixture) connect(id string) *fakeSession {
	session := &fakeSession{id: id}
	that.rooms.AddClient(session)
	session.Take()

	return session
}

func TestDispatcher_RoomLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	host, guest := f.connect("host"), f.connect("guest")

	// Given: the host created Alpha
	f.dispatcher.Dispatch(ctx, host, "CREATE_ROOM|Alpha")
	assert.Equal(t, []string{"WAITING_FOR_OPPONENT", "ROOM_LIST|Alpha"}, host.Take())
	assert.Equal(t, []string{"ROOM_LIST|Alpha"}, guest.Take())

	// When: the guest joins it
	f.dispatcher.Dispatch(ctx, guest, "JOIN_ROOM|Alpha")

	// Then: both start with complementary marks
	assert.Equal(t, []string{"GAME_START|X", "YOUR_TURN", "ROOM_LIST|"}, host.Take())
	assert.Equal(t, []string{"GAME_START|O", "OPPONENT_TURN", "ROOM_LIST|"}, guest.Take())

	// And: Alpha is no longer listed
	f.dispatcher.Dispatch(ctx, guest, "LIST_ROOMS")
	assert.Equal(t, []string{"ROOM_LIST|"}, guest.Take())
}

func TestDispatcher_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	alice, bob := f.connect("alice"), f.connect("bob")

	f.dispatcher.Dispatch(ctx, alice, "CREATE_ROOM|Alpha")
	alice.Take()
	bob.Take()

	cases := []struct {
		name     string
		line     string
		expected string
	}{
		{"unknown command", "DANCE", `ERROR|unknown command: "DANCE"`},
		{"malformed move", "MOVE|left", "ERROR|malformed command: MOVE position must be an integer"},
		{"duplicate room", "CREATE_ROOM|Alpha", "ERROR|room already exists: Alpha"},
		{"missing room", "JOIN_ROOM|Beta", "ERROR|room not found: Beta"},
		{"bad board size", "CREATE_ROOM|Beta|4", "ERROR|unsupported board size: 4"},
		{"chat outside a room", "CHAT|hello", "ERROR|you are not in a room"},
		{"rematch outside a room", "REMATCH", "ERROR|you are not in a room"},
		{"leave outside a room", "LEAVE_ROOM", "ERROR|you are not in a room"},
		{"blank nickname", "SET_NAME|  ", "ERROR|invalid nickname: must be 1 to 32 characters"},
		{"nickname with a separator", "SET_NAME|evil|name", "ERROR|invalid nickname: must not contain the field separator"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f.dispatcher.Dispatch(ctx, bob, tc.line)

			assert.Equal(t, []string{tc.expected}, bob.Take())
			assert.Empty(t, alice.Take(), "errors go to the sender only")
		})
	}
}

func TestDispatcher_SilentMoves(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	host, guest := f.connect("host"), f.connect("guest")

	// Given: a started game with X (host) to move
	f.dispatcher.Dispatch(ctx, host, "CREATE_ROOM|Alpha")
	f.dispatcher.Dispatch(ctx, guest, "JOIN_ROOM|Alpha")
	host.Take()
	guest.Take()

	// When: invalid moves arrive
	f.dispatcher.Dispatch(ctx, guest, "MOVE|0")
	f.dispatcher.Dispatch(ctx, host, "MOVE|9")
	f.dispatcher.Dispatch(ctx, host, "MOVE|-1")

	// Then: nobody hears anything
	assert.Empty(t, host.Take())
	assert.Empty(t, guest.Take())

	// And: a move outside any room is silent too
	stranger := f.connect("stranger")
	f.dispatcher.Dispatch(ctx, stranger, "MOVE|0")
	assert.Empty(t, stranger.Take())
}

func TestDispatcher_GameToLeaderboard(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	host, guest := f.connect("host"), f.connect("guest")

	// Given: both players picked nicknames before pairing
	f.dispatcher.Dispatch(ctx, host, "SET_NAME|neo")
	f.dispatcher.Dispatch(ctx, guest, "SET_NAME|smith, agent")
	assert.Equal(t, []string{"NAME_OK|neo"}, host.Take())
	assert.Equal(t, []string{"NAME_OK|smith, agent"}, guest.Take())

	f.dispatcher.Dispatch(ctx, host, "CREATE_ROOM|Alpha")
	f.dispatcher.Dispatch(ctx, guest, "JOIN_ROOM|Alpha")

	// When: X takes the left column
	for _, step := range []struct {
		session *fakeSession
		line    string
	}{
		{host, "MOVE|0"}, {guest, "MOVE|1"}, {host, "MOVE|3"}, {guest, "MOVE|2"}, {host, "MOVE|6"},
	} {
		f.dispatcher.Dispatch(ctx, step.session, step.line)
	}

	// Then: the result is announced and persisted
	lines := guest.Take()
	assert.Equal(t, []string{"GAME_OVER|X", "WIN_LINE|0,3,6"}, lines[len(lines)-2:])
	assert.Equal(t, []entity.LeaderboardEntry{
		{Name: "neo", Wins: 1},
		{Name: "smith; agent", Losses: 1},
	}, f.repo.entries)

	// And: the standings are served under the stored name
	f.dispatcher.Dispatch(ctx, guest, "GET_LEADERBOARD")
	assert.Equal(t, []string{"LEADERBOARD|neo|1|0|0|smith; agent|0|1|0"}, guest.Take())
}

func TestDispatcher_Misc(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	session := f.connect("solo")

	t.Run("Ping", func(t *testing.T) {
		f.dispatcher.Dispatch(ctx, session, "PING")
		assert.Equal(t, []string{"PONG"}, session.Take())
	})

	t.Run("Blank lines are ignored", func(t *testing.T) {
		f.dispatcher.Dispatch(ctx, session, "   ")
		f.dispatcher.Dispatch(ctx, session, "")
		assert.Empty(t, session.Take())
	})

	t.Run("Empty leaderboard", func(t *testing.T) {
		f.dispatcher.Dispatch(ctx, session, "GET_LEADERBOARD")
		assert.Equal(t, []string{"LEADERBOARD"}, session.Take())
	})

	t.Run("Nickname too long", func(t *testing.T) {
		f.dispatcher.Dispatch(ctx, session, "SET_NAME|abcdefghijklmnopqrstuvwxyz0123456789")

		lines := session.Take()
		require.Len(t, lines, 1)
		assert.Contains(t, lines[0], "ERROR|invalid nickname")
		assert.Equal(t, "127.0.0.1:5555", session.Name())
	})

	t.Run("Nickname with a separator is rejected", func(t *testing.T) {
		// Given: a client without a nickname
		// When: the requested nickname contains the field separator
		f.dispatcher.Dispatch(ctx, session, "SET_NAME|evil|name")

		// Then: the client keeps its address as the name and hears an error
		lines := session.Take()
		require.Len(t, lines, 1)
		assert.Contains(t, lines[0], "ERROR|invalid nickname")
		assert.Equal(t, "127.0.0.1:5555", session.Name())
	})

	t.Run("Leave room sends the client home", func(t *testing.T) {
		f.dispatcher.Dispatch(ctx, session, "CREATE_ROOM|Lonely|5")
		session.Take()

		f.dispatcher.Dispatch(ctx, session, "LEAVE_ROOM")

		assert.Equal(t, []string{"RETURN_HOME", "ROOM_LIST|"}, session.Take())
	})
}
