package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"penguin/internal/game"
)

// maxUpdateAttempts bounds the optimistic-concurrency retry loop.
const maxUpdateAttempts = 5

// Store persists game documents in SQLite and fans committed snapshots out to
// watchers. Each game is one JSON document plus status/created_at columns for
// lobby queries and a version column for optimistic concurrency.
type Store struct {
	db       *sql.DB
	notifier *notifier
}

// New opens (or creates) the database and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	s := &Store{db: db, notifier: newNotifier()}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS games (
			id         TEXT PRIMARY KEY,
			status     TEXT NOT NULL,
			doc        TEXT NOT NULL,
			version    INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS games_status_created ON games (status, created_at);
	`)
	return err
}

// Create inserts a new game document.
func (s *Store) Create(ctx context.Context, g *game.Game) error {
	if err := g.Validate(); err != nil {
		return err
	}
	doc, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal game %s: %w", g.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO games (id, status, doc, version, created_at) VALUES (?, ?, ?, 1, ?)",
		g.ID, string(g.Status), string(doc), g.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert game %s: %w", g.ID, err)
	}
	s.publish(g)
	s.publishLobby(ctx)
	return nil
}

// Get loads and validates one game document.
func (s *Store) Get(ctx context.Context, id string) (*game.Game, error) {
	g, _, err := s.load(ctx, id)
	return g, err
}

func (s *Store) load(ctx context.Context, id string) (*game.Game, int64, error) {
	var doc string
	var version int64
	err := s.db.QueryRowContext(ctx,
		"SELECT doc, version FROM games WHERE id = ?", id,
	).Scan(&doc, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, fmt.Errorf("game %s: %w", id, game.ErrNotFound)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load game %s: %w", id, err)
	}
	g, err := decode(doc)
	if err != nil {
		return nil, 0, fmt.Errorf("game %s: %w", id, err)
	}
	return g, version, nil
}

// decode parses and validates a stored document. A document that fails
// validation is rejected outright rather than partially interpreted.
func decode(doc string) (*game.Game, error) {
	var g game.Game
	if err := json.Unmarshal([]byte(doc), &g); err != nil {
		return nil, fmt.Errorf("%w: malformed document: %v", game.ErrValidation, err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// Update runs mutate against a fresh snapshot and writes the result back only
// if no other writer committed in between. On a version conflict the whole
// read-mutate-write cycle reruns against the new snapshot, so mutate must be
// safe to call more than once. A mutate error aborts without retrying.
func (s *Store) Update(ctx context.Context, id string, mutate func(*game.Game) error) (*game.Game, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		g, version, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		prevStatus := g.Status
		if err := mutate(g); err != nil {
			return nil, err
		}
		if err := g.Validate(); err != nil {
			return nil, err
		}
		doc, err := json.Marshal(g)
		if err != nil {
			return nil, fmt.Errorf("marshal game %s: %w", id, err)
		}
		res, err := s.db.ExecContext(ctx,
			"UPDATE games SET status = ?, doc = ?, version = version + 1 WHERE id = ? AND version = ?",
			string(g.Status), string(doc), id, version,
		)
		if err != nil {
			return nil, fmt.Errorf("write game %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("write game %s: %w", id, err)
		}
		if n == 0 {
			continue // lost the race, re-read and rerun mutate
		}
		s.publish(g)
		if prevStatus == game.StatusWaiting || g.Status == game.StatusWaiting {
			s.publishLobby(ctx)
		}
		return g, nil
	}
	return nil, fmt.Errorf("update game %s: %w", id, game.ErrConflict)
}

// LobbyEntry is the discovery projection of a joinable game.
type LobbyEntry struct {
	ID        string    `json:"id"`
	HostName  string    `json:"hostName"`
	Alias     string    `json:"alias"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListWaiting returns joinable games, oldest first.
func (s *Store) ListWaiting(ctx context.Context) ([]LobbyEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT doc FROM games WHERE status = ? ORDER BY created_at ASC, rowid ASC",
		string(game.StatusWaiting),
	)
	if err != nil {
		return nil, fmt.Errorf("list waiting games: %w", err)
	}
	defer rows.Close()

	var entries []LobbyEntry
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		g, err := decode(doc)
		if err != nil {
			return nil, err
		}
		entries = append(entries, LobbyEntry{
			ID:        g.ID,
			HostName:  g.Players[0].Name,
			Alias:     g.Alias,
			CreatedAt: g.CreatedAt,
		})
	}
	return entries, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
