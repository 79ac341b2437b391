package repository

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const fileFields = 4

// FileLeaderboard stores one "name,wins,losses,draws" line per player in a flat file.
type FileLeaderboard struct {
	path string
}

func NewFileLeaderboard(path string) *FileLeaderboard {
	return &FileLeaderboard{path: path}
}

// Load reads every well-formed line. A missing file is an empty leaderboard.
func (that *FileLeaderboard) Load(_ context.Context) ([]entity.LeaderboardEntry, error) {
	file, err := os.Open(that.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []entity.LeaderboardEntry{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open leaderboard file: %w", err)
	}
	defer file.Close()

	entries := make([]entity.LeaderboardEntry, 0)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		entry, ok := parseLine(scanner.Text())
		if ok {
			entries = append(entries, entry)
		}
	}

	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read leaderboard file: %w", err)
	}

	return entries, nil
}

// Save rewrites the whole file through a temporary file and a rename, so readers never see a partial table.
func (that *FileLeaderboard) Save(_ context.Context, entries []entity.LeaderboardEntry) error {
	dir, base := filepath.Split(that.path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary leaderboard file: %w", err)
	}
	defer os.Remove(tmp.Name())

	writer := bufio.NewWriter(tmp)
	for _, entry := range entries {
		fmt.Fprintf(writer, "%s,%d,%d,%d\n", entity.NormalizeName(entry.Name), entry.Wins, entry.Losses, entry.Draws)
	}

	if err = writer.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write leaderboard file: %w", err)
	}

	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync leaderboard file: %w", err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close leaderboard file: %w", err)
	}

	if err = os.Rename(tmp.Name(), that.path); err != nil {
		return fmt.Errorf("failed to replace leaderboard file: %w", err)
	}

	return nil
}

func parseLine(line string) (entity.LeaderboardEntry, bool) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != fileFields || fields[0] == "" {
		return entity.LeaderboardEntry{}, false
	}

	var counts [fileFields - 1]int
	for i, field := range fields[1:] {
		n, err := strconv.Atoi(field)
		if err != nil || n < 0 {
			return entity.LeaderboardEntry{}, false
		}
		counts[i] = n
	}

	return entity.LeaderboardEntry{
		Name:   fields[0],
		Wins:   counts[0],
		Losses: counts[1],
		Draws:  counts[2],
	}, true
}
