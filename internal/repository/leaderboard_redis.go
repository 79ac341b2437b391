package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const leaderboardKey = "leaderboard"

// RedisLeaderboard keeps the table in one hash: field = player name, value = JSON entry.
type RedisLeaderboard struct {
	client *redis.Client
}

func NewRedisLeaderboard(client *redis.Client) *RedisLeaderboard {
	return &RedisLeaderboard{
		client: client,
	}
}

func (that *RedisLeaderboard) Load(ctx context.Context) ([]entity.LeaderboardEntry, error) {
	values, err := that.client.HGetAll(ctx, leaderboardKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}

	entries := make([]entity.LeaderboardEntry, 0, len(values))
	for name, value := range values {
		var entry entity.LeaderboardEntry
		if err = json.Unmarshal([]byte(value), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entry %q: %w", name, err)
		}

		entry.Name = name
		entries = append(entries, entry)
	}

	return entries, nil
}

// Save replaces the hash in a single transaction.
func (that *RedisLeaderboard) Save(ctx context.Context, entries []entity.LeaderboardEntry) error {
	fields := make([]any, 0, 2*len(entries))
	for _, entry := range entries {
		entryJSON, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("could not marshal entry: %w", err)
		}

		fields = append(fields, entry.Name, entryJSON)
	}

	_, err := that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, leaderboardKey)
		if len(fields) > 0 {
			pipe.HSet(ctx, leaderboardKey, fields...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save leaderboard: %w", err)
	}

	return nil
}
