package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

type leaderboardRepo interface {
	Load(ctx context.Context) ([]entity.LeaderboardEntry, error)
	Save(ctx context.Context, entries []entity.LeaderboardEntry) error
}

// Leaderboard keeps win/loss/draw counters in memory and writes the whole table through the repository.
// A failing repository never stops the in-memory table from working.
type Leaderboard struct {
	logger *slog.Logger
	repo   leaderboardRepo

	mu      sync.Mutex
	entries map[string]*entity.LeaderboardEntry

	// persistMu keeps two finishing games from interleaving writes.
	persistMu sync.Mutex
}

func NewLeaderboard(logger *slog.Logger, repo leaderboardRepo) *Leaderboard {
	return &Leaderboard{
		logger:  logger.With("component", "leaderboard"),
		repo:    repo,
		entries: make(map[string]*entity.LeaderboardEntry),
	}
}

// Load replaces the in-memory table with the stored one.
func (that *Leaderboard) Load(ctx context.Context) error {
	entries, err := that.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load leaderboard: %w", err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	that.entries = make(map[string]*entity.LeaderboardEntry, len(entries))
	for _, entry := range entries {
		entry.Name = entity.NormalizeName(entry.Name)
		if existing, ok := that.entries[entry.Name]; ok {
			existing.Wins += entry.Wins
			existing.Losses += entry.Losses
			existing.Draws += entry.Draws
			continue
		}

		loaded := entry
		that.entries[entry.Name] = &loaded
	}

	that.logger.Info("leaderboard loaded", "entries", len(that.entries))

	return nil
}

func (that *Leaderboard) RecordWin(name string) {
	that.update(name, func(entry *entity.LeaderboardEntry) { entry.Wins++ })
}

func (that *Leaderboard) RecordLoss(name string) {
	that.update(name, func(entry *entity.LeaderboardEntry) { entry.Losses++ })
}

func (that *Leaderboard) RecordDraw(name string) {
	that.update(name, func(entry *entity.LeaderboardEntry) { entry.Draws++ })
}

// Persist writes the full table. Failures are logged only.
func (that *Leaderboard) Persist(ctx context.Context) {
	log := that.logger.With("method", "Persist")

	that.persistMu.Lock()
	defer that.persistMu.Unlock()

	entries := that.Snapshot()
	if err := that.repo.Save(ctx, entries); err != nil {
		log.Error("failed to persist leaderboard", "error", err, "entries", len(entries))
		return
	}

	log.Debug("leaderboard persisted", "entries", len(entries))
}

// TopN - up to n entries ranked by 3*wins + draws, ties by name.
func (that *Leaderboard) TopN(n int) []entity.LeaderboardEntry {
	if n <= 0 {
		return []entity.LeaderboardEntry{}
	}

	entries := that.Snapshot()
	entity.RankEntries(entries)

	if len(entries) > n {
		entries = entries[:n]
	}

	return entries
}

// Snapshot returns a copy of every entry, sorted by name.
func (that *Leaderboard) Snapshot() []entity.LeaderboardEntry {
	that.mu.Lock()
	defer that.mu.Unlock()

	entries := make([]entity.LeaderboardEntry, 0, len(that.entries))
	for _, entry := range that.entries {
		entries = append(entries, *entry)
	}

	slices.SortFunc(entries, func(a, b entity.LeaderboardEntry) int {
		return strings.Compare(a.Name, b.Name)
	})

	return entries
}

func (that *Leaderboard) Entry(name string) (entity.LeaderboardEntry, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	entry, ok := that.entries[entity.NormalizeName(name)]
	if !ok {
		return entity.LeaderboardEntry{}, false
	}

	return *entry, true
}

// update keys by the normalized name so the in-memory table matches what a restart reads back.
func (that *Leaderboard) update(name string, apply func(entry *entity.LeaderboardEntry)) {
	name = entity.NormalizeName(name)

	that.mu.Lock()
	defer that.mu.Unlock()

	entry, ok := that.entries[name]
	if !ok {
		entry = &entity.LeaderboardEntry{Name: name}
		that.entries[name] = entry
	}

	apply(entry)
}
