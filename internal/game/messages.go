package game

// Inbound message types.
const (
	TypeJoinTeam          = "join_team"
	TypeStartGame         = "start_game"
	TypeStartRound        = "start_round"
	TypeWordGuessed       = "word_guessed"
	TypeWordSkip          = "word_skip"
	TypeWordTaboo         = "word_taboo"
	TypeRevealTranslation = "reveal_translation"
	TypePauseGame         = "pause_game"
	TypeResumeGame        = "resume_game"
	TypeRemoveWord        = "remove_word"
	TypeTeamSelected      = "team_selected"
	TypeRoundEnd          = "round_end"
	TypeEndRound          = "end_round"
)

// Outbound message types. TypeRoundEnd doubles as the commit acknowledgement.
const (
	TypeGameState    = "game_state"
	TypeNewWord      = "new_word"
	TypeTimerStart   = "timer_start"
	TypeTimerUpdate  = "timer_update"
	TypeTimerEnded   = "timer_ended"
	TypeRoundSummary = "round_summary"
	TypeGamePaused   = "game_paused"
	TypeGameResumed  = "game_resumed"
	TypeWordRemoved  = "word_removed"
	TypeRoundCleared = "round_cleared"
	TypeSelectTeam   = "select_team"
	TypeGameEnd      = "game_end"
	TypeTranslation  = "translation"
	TypeError        = "error"
)

// ClientMessage is the JSON structure received from clients. Fields beyond
// Type are populated per message type.
type ClientMessage struct {
	Type            string   `json:"type"`
	UserID          string   `json:"user_id,omitempty"`
	Username        string   `json:"username,omitempty"`
	Team            int      `json:"team,omitempty"`
	Word            string   `json:"word,omitempty"`
	TabooWords      []string `json:"taboo_words,omitempty"`
	UsedTranslation bool     `json:"used_translation,omitempty"`
}

type GameStateMessage struct {
	Type string    `json:"type"`
	Data GameState `json:"data"`
}

// GameState is the full room snapshot, re-broadcast on every mutation.
// The engine is the sole source of truth for it.
type GameState struct {
	RoomCode         string   `json:"room_code"`
	Mode             Mode     `json:"mode"`
	Status           Status   `json:"status"`
	HostID           string   `json:"host_id"`
	Teams            []*Team  `json:"teams"`
	CurrentRound     int      `json:"current_round"`
	CurrentTeamIndex int      `json:"current_team_index"`
	Settings         Settings `json:"settings"`
	IsPaused         bool     `json:"is_paused"`
	RoundActive      bool     `json:"round_active"`
	GracePhase       bool     `json:"grace_phase,omitempty"`
	TimeLeft         int      `json:"time_left"`
	RoundPoints      float64  `json:"round_points"`
}

type NewWordMessage struct {
	Type        string   `json:"type"`
	Word        string   `json:"word"`
	Taboo       []string `json:"taboo,omitempty"`
	Translation string   `json:"translation,omitempty"`
}

type TimerStartMessage struct {
	Type     string `json:"type"`
	Duration int    `json:"duration"` // -1 means unlimited
}

type TimerUpdateMessage struct {
	Type     string `json:"type"`
	TimeLeft int    `json:"time_left"`
}

type TimerEndedMessage struct {
	Type string `json:"type"`
}

type RoundSummaryMessage struct {
	Type         string        `json:"type"`
	Reason       string        `json:"reason"`
	GuessedWords []GuessedWord `json:"guessed_words"`
}

type PauseStateMessage struct {
	Type     string `json:"type"`
	IsPaused bool   `json:"is_paused"`
}

type WordRemovedMessage struct {
	Type         string        `json:"type"`
	Word         string        `json:"word"`
	GuessedWords []GuessedWord `json:"guessed_words"`
}

type RoundClearedMessage struct {
	Type string `json:"type"`
}

// TeamRef identifies a team in a select_team prompt.
type TeamRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type SelectTeamMessage struct {
	Type     string    `json:"type"`
	Teams    []TeamRef `json:"teams"`
	LastWord string    `json:"last_word"`
}

type RoundEndMessage struct {
	Type   string  `json:"type"`
	TeamID int     `json:"team_id"`
	Team   string  `json:"team"`
	Points float64 `json:"points"`
}

type GameEndMessage struct {
	Type   string             `json:"type"`
	Winner string             `json:"winner"`
	Reason string             `json:"reason"`
	Scores map[string]float64 `json:"scores"`
}

type TranslationMessage struct {
	Type        string `json:"type"`
	Word        string `json:"word"`
	Translation string `json:"translation"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Fatal   bool   `json:"fatal,omitempty"`
}
