package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const (
	createLeaderboardTable = `CREATE TABLE IF NOT EXISTS leaderboard (
	name   TEXT PRIMARY KEY,
	wins   INTEGER NOT NULL DEFAULT 0,
	losses INTEGER NOT NULL DEFAULT 0,
	draws  INTEGER NOT NULL DEFAULT 0
)`
	selectLeaderboard = `SELECT name, wins, losses, draws FROM leaderboard ORDER BY name`
	deleteLeaderboard = `DELETE FROM leaderboard`

	sqliteInsertEntry   = `INSERT INTO leaderboard (name, wins, losses, draws) VALUES (?, ?, ?, ?)`
	postgresInsertEntry = `INSERT INTO leaderboard (name, wins, losses, draws) VALUES ($1, $2, $3, $4)`
)

// SQLLeaderboard stores the table in a "leaderboard" table; SQLite and Postgres differ only in placeholders.
type SQLLeaderboard struct {
	db          *sql.DB
	insertQuery string
}

func NewSQLiteLeaderboard(db *sql.DB) *SQLLeaderboard {
	return &SQLLeaderboard{db: db, insertQuery: sqliteInsertEntry}
}

func NewPostgresLeaderboard(db *sql.DB) *SQLLeaderboard {
	return &SQLLeaderboard{db: db, insertQuery: postgresInsertEntry}
}

func (that *SQLLeaderboard) Init(ctx context.Context) error {
	if _, err := that.db.ExecContext(ctx, createLeaderboardTable); err != nil {
		return fmt.Errorf("can't create table: %w", err)
	}

	return nil
}

func (that *SQLLeaderboard) Load(ctx context.Context) ([]entity.LeaderboardEntry, error) {
	rows, err := that.db.QueryContext(ctx, selectLeaderboard)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]entity.LeaderboardEntry, 0)
	for rows.Next() {
		var entry entity.LeaderboardEntry
		if err = rows.Scan(&entry.Name, &entry.Wins, &entry.Losses, &entry.Draws); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	return entries, nil
}

// Save rewrites the table inside one transaction.
func (that *SQLLeaderboard) Save(ctx context.Context, entries []entity.LeaderboardEntry) error {
	tx, err := that.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint: errcheck // no-op after commit

	if _, err = tx.ExecContext(ctx, deleteLeaderboard); err != nil {
		return fmt.Errorf("failed to clear leaderboard: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, that.insertQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		if _, err = stmt.ExecContext(ctx, entry.Name, entry.Wins, entry.Losses, entry.Draws); err != nil {
			return fmt.Errorf("failed to insert entry %q: %w", entry.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit leaderboard: %w", err)
	}

	return nil
}
