package history

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"wordrush/internal/game"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const saveTimeout = 5 * time.Second

// Store persists finished games to PostgreSQL. It implements game.Recorder;
// writes are asynchronous and best-effort so a slow or dead database never
// stalls a room's loop.
type Store struct {
	conn *sql.DB
}

func Connect(dsn string) (*Store, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	log.Info().Msg("connected to PostgreSQL")
	return &Store{conn: conn}, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) Ping() error {
	return s.conn.Ping()
}

func (s *Store) Migrate() error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations dir: %w", err)
	}

	for _, entry := range entries {
		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}
		if _, err := s.conn.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", entry.Name(), err)
		}
		log.Info().Str("migration", entry.Name()).Msg("applied migration")
	}
	return nil
}

// SaveGame writes the record in the background. Failures are logged and
// dropped; game history is not worth blocking gameplay over.
func (s *Store) SaveGame(rec game.GameRecord) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := s.insert(ctx, rec); err != nil {
			log.Warn().Err(err).Str("room", rec.RoomCode).Msg("saving game history failed")
		}
	}()
}

func (s *Store) insert(ctx context.Context, rec game.GameRecord) error {
	teams, err := json.Marshal(rec.Teams)
	if err != nil {
		return fmt.Errorf("encoding teams: %w", err)
	}
	scores, err := json.Marshal(rec.FinalScores)
	if err != nil {
		return fmt.Errorf("encoding scores: %w", err)
	}
	words, err := json.Marshal(rec.GuessedWords)
	if err != nil {
		return fmt.Errorf("encoding guessed words: %w", err)
	}

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO game_history (id, room_code, played_at, winner, reason, teams, final_scores, guessed_words)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.NewString(), rec.RoomCode, rec.PlayedAt, rec.Winner, rec.Reason, teams, scores, words)
	if err != nil {
		return fmt.Errorf("inserting game record: %w", err)
	}
	return nil
}

// GamesForRoom returns a room's finished games, newest first.
func (s *Store) GamesForRoom(roomCode string, limit int) ([]game.GameRecord, error) {
	rows, err := s.conn.Query(`
		SELECT room_code, played_at, winner, reason, teams, final_scores, guessed_words
		FROM game_history
		WHERE room_code = $1
		ORDER BY played_at DESC
		LIMIT $2
	`, roomCode, limit)
	if err != nil {
		return nil, fmt.Errorf("querying game history: %w", err)
	}
	defer rows.Close()

	var records []game.GameRecord
	for rows.Next() {
		var rec game.GameRecord
		var teams, scores, words []byte
		if err := rows.Scan(&rec.RoomCode, &rec.PlayedAt, &rec.Winner, &rec.Reason, &teams, &scores, &words); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(teams, &rec.Teams); err != nil {
			return nil, fmt.Errorf("decoding teams: %w", err)
		}
		if err := json.Unmarshal(scores, &rec.FinalScores); err != nil {
			return nil, fmt.Errorf("decoding scores: %w", err)
		}
		if err := json.Unmarshal(words, &rec.GuessedWords); err != nil {
			return nil, fmt.Errorf("decoding guessed words: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
