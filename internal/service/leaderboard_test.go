package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mock.Mock
}

func (that *mockRepo) Load(ctx context.Context) ([]entity.LeaderboardEntry, error) {
	args := that.Called(ctx)
	entries, _ := args.Get(0).([]entity.LeaderboardEntry)
	return entries, args.Error(1)
}

func (that *mockRepo) Save(ctx context.Context, entries []entity.LeaderboardEntry) error {
	return that.Called(ctx, entries).Error(0)
}

func newTestLeaderboard(repo leaderboardRepo) *Leaderboard {
	return NewLeaderboard(slog.New(slog.NewTextHandler(io.Discard, nil)), repo)
}

func TestLeaderboard_TopN(t *testing.T) {
	t.Run("Two wins and a draw outrank two losses and a draw", func(t *testing.T) {
		// Given: A wins twice and draws once, B loses twice and draws once
		board := newTestLeaderboard(&mockRepo{})
		board.RecordWin("A")
		board.RecordLoss("B")
		board.RecordWin("A")
		board.RecordLoss("B")
		board.RecordDraw("A")
		board.RecordDraw("B")

		// When: the top entry is requested
		top := board.TopN(1)

		// Then: A leads with a score of 7
		require.Len(t, top, 1)
		assert.Equal(t, entity.LeaderboardEntry{Name: "A", Wins: 2, Draws: 1}, top[0])
		assert.Equal(t, 7, top[0].Score())
	})

	t.Run("Ties are ordered by name and n caps the result", func(t *testing.T) {
		board := newTestLeaderboard(&mockRepo{})
		board.RecordDraw("zed")
		board.RecordDraw("amy")
		board.RecordDraw("amy")
		board.RecordDraw("bob")
		board.RecordDraw("bob")
		board.RecordLoss("carl")

		top := board.TopN(3)

		assert.Equal(t, []string{"amy", "bob", "zed"}, names(top))
		assert.Len(t, board.TopN(10), 4)
		assert.Empty(t, board.TopN(0))
	})
}

func TestLeaderboard_Persist(t *testing.T) {
	ctx := context.Background()

	t.Run("Writes the full table sorted by name", func(t *testing.T) {
		// Given: two players with results
		repo := &mockRepo{}
		repo.On("Save", ctx, []entity.LeaderboardEntry{
			{Name: "alice", Wins: 1},
			{Name: "bob", Losses: 1},
		}).Return(nil).Once()

		board := newTestLeaderboard(repo)
		board.RecordWin("alice")
		board.RecordLoss("bob")

		// When: the table is persisted
		board.Persist(ctx)

		// Then: the repository received every entry
		repo.AssertExpectations(t)
	})

	t.Run("Failure keeps the table in memory", func(t *testing.T) {
		repo := &mockRepo{}
		repo.On("Save", ctx, mock.Anything).Return(errors.New("disk full"))

		board := newTestLeaderboard(repo)
		board.RecordWin("alice")

		assert.NotPanics(t, func() { board.Persist(ctx) })

		board.RecordWin("alice")
		entry, ok := board.Entry("alice")
		require.True(t, ok)
		assert.Equal(t, 2, entry.Wins)
	})
}

func TestLeaderboard_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("Counters continue from the stored values", func(t *testing.T) {
		repo := &mockRepo{}
		repo.On("Load", ctx).Return([]entity.LeaderboardEntry{
			{Name: "alice", Wins: 3, Losses: 1, Draws: 2},
		}, nil)

		board := newTestLeaderboard(repo)
		require.NoError(t, board.Load(ctx))

		board.RecordWin("alice")

		entry, ok := board.Entry("alice")
		require.True(t, ok)
		assert.Equal(t, entity.LeaderboardEntry{Name: "alice", Wins: 4, Losses: 1, Draws: 2}, entry)
	})

	t.Run("Duplicate names are merged into one entry", func(t *testing.T) {
		repo := &mockRepo{}
		repo.On("Load", ctx).Return([]entity.LeaderboardEntry{
			{Name: "a;b", Wins: 1},
			{Name: "a;b", Draws: 1},
		}, nil)

		board := newTestLeaderboard(repo)
		require.NoError(t, board.Load(ctx))

		assert.Equal(t, []entity.LeaderboardEntry{{Name: "a;b", Wins: 1, Draws: 1}}, board.Snapshot())
	})

	t.Run("Repository error is returned and the table stays empty", func(t *testing.T) {
		repo := &mockRepo{}
		repo.On("Load", ctx).Return(nil, errors.New("connection refused"))

		board := newTestLeaderboard(repo)

		require.Error(t, board.Load(ctx))
		assert.Empty(t, board.Snapshot())
	})
}

func TestLeaderboard_Restart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "leaderboard.csv")

	// Given: a player with a comma in the nickname wins and the table is saved
	before := newTestLeaderboard(repository.NewFileLeaderboard(path))
	before.RecordWin("Smith, J")
	before.Persist(ctx)

	// When: a fresh leaderboard loads the file and the same player wins again
	after := newTestLeaderboard(repository.NewFileLeaderboard(path))
	require.NoError(t, after.Load(ctx))
	after.RecordWin("Smith, J")

	// Then: both wins count towards one entry
	assert.Equal(t, []entity.LeaderboardEntry{{Name: "Smith; J", Wins: 2}}, after.TopN(10))
	assert.Equal(t, before.Snapshot()[0].Name, after.Snapshot()[0].Name)

	entry, ok := after.Entry("Smith, J")
	require.True(t, ok)
	assert.Equal(t, 2, entry.Wins)
}

func TestLeaderboard_ConcurrentResults(t *testing.T) {
	// Given: many games finishing at the same time
	repo := &mockRepo{}
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	board := newTestLeaderboard(repo)

	// When: each records a result pair and persists
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			board.RecordWin("winner")
			board.RecordLoss(fmt.Sprintf("loser-%d", i%5))
			board.Persist(context.Background())
		}(i)
	}
	wg.Wait()

	// Then: no increment is lost
	entry, ok := board.Entry("winner")
	require.True(t, ok)
	assert.Equal(t, 50, entry.Wins)
	assert.Len(t, board.Snapshot(), 6)
	repo.AssertNumberOfCalls(t, "Save", 50)
}

func names(entries []entity.LeaderboardEntry) []string {
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry.Name)
	}
	return out
}
