package game

import (
	"time"
)

type Mode string

const (
	ModeAlias Mode = "alias"
	ModeTaboo Mode = "taboo"
)

type Status string

const (
	StatusLobby   Status = "lobby"
	StatusPlaying Status = "playing"
	StatusEnded   Status = "ended"
)

// DefaultTabooPenalty is the points deducted per taboo violation when the
// room settings do not override it.
const DefaultTabooPenalty = 1.0

// Settings are fixed at room creation.
type Settings struct {
	Timed                   bool    `json:"timed"`
	RoundSeconds            int     `json:"round_seconds"`
	Difficulty              string  `json:"difficulty"`
	Language                string  `json:"language"`
	ScoreToWin              int     `json:"score_to_win"`
	TeamCount               int     `json:"team_count"`
	ShowTranslations        bool    `json:"show_translations"`
	MaxTranslationsPerRound int     `json:"max_translations_per_round,omitempty"`
	SoloDevice              bool    `json:"solo_device,omitempty"`
	TabooPenalty            float64 `json:"taboo_penalty,omitempty"`
}

func (s Settings) tabooPenalty() float64 {
	if s.TabooPenalty > 0 {
		return s.TabooPenalty
	}
	return DefaultTabooPenalty
}

// Unlimited reports whether rounds run without a timer.
func (s Settings) Unlimited() bool {
	return !s.Timed || s.RoundSeconds == 0
}

type Player struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	IsExplaining bool   `json:"is_explaining"`
}

type Team struct {
	ID      int       `json:"id"`
	Name    string    `json:"name"`
	Score   float64   `json:"score"`
	Players []*Player `json:"players"`
}

func (t *Team) player(userID string) *Player {
	for _, p := range t.Players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// GuessedWord is one entry in a round's guessed log. TeamID is set only when
// the word was attributed to a team explicitly via team_selected.
type GuessedWord struct {
	Word            string   `json:"word"`
	TabooWords      []string `json:"taboo_words,omitempty"`
	Translation     string   `json:"translation,omitempty"`
	UsedTranslation bool     `json:"used_translation,omitempty"`
	Timestamp       float64  `json:"timestamp"`
	TeamID          int      `json:"team_id,omitempty"`
}

// GameRecord is the summary handed to the history sink when a game ends.
type GameRecord struct {
	RoomCode     string
	PlayedAt     time.Time
	Winner       string
	Reason       string
	FinalScores  map[string]float64
	Teams        []TeamSummary
	GuessedWords []GuessedWord
}

type TeamSummary struct {
	ID      int      `json:"id"`
	Name    string   `json:"name"`
	Score   float64  `json:"score"`
	Players []string `json:"players"`
}

// Sender fans outbound events to a room's connections. The hub implements it;
// tests substitute a recorder.
type Sender interface {
	Broadcast(v any)
	SendTo(userID string, v any)
}

// Recorder receives a finished game for persistence. Implementations must not
// block; delivery is best-effort.
type Recorder interface {
	SaveGame(rec GameRecord)
}

// NoopRecorder is used when no history backend is configured.
type NoopRecorder struct{}

func (NoopRecorder) SaveGame(GameRecord) {}
