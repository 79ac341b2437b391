package repository

import (
	"testing"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLeaderboard_SaveLoad(t *testing.T) {
	t.Run("SaveLoad_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		repo := NewRedisLeaderboard(st.Storage)

		// Given: two entries, one with a comma in the name
		entries := []entity.LeaderboardEntry{
			{Name: "alice", Wins: 2, Draws: 1},
			{Name: "smith, john", Losses: 2, Draws: 1},
		}

		// When: the table is saved and loaded
		require.NoError(t, repo.Save(ctx, entries))
		loaded, err := repo.Load(ctx)

		// Then: Redis keeps names verbatim
		require.NoError(t, err)
		assert.ElementsMatch(t, entries, loaded)
	})

	t.Run("Save_ReplacesTable", func(t *testing.T) {
		ctx, st := suite.New(t)

		repo := NewRedisLeaderboard(st.Storage)

		require.NoError(t, repo.Save(ctx, []entity.LeaderboardEntry{{Name: "old", Wins: 1}}))
		require.NoError(t, repo.Save(ctx, []entity.LeaderboardEntry{}))

		loaded, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, loaded)
	})

	t.Run("Load_Empty", func(t *testing.T) {
		ctx, st := suite.New(t)

		loaded, err := NewRedisLeaderboard(st.Storage).Load(ctx)

		require.NoError(t, err)
		assert.Empty(t, loaded)
	})
}
