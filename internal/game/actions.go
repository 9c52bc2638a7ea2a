package game

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"wordrush/internal/metrics"
)

func (s *Session) handleJoinTeam(userID string, msg ClientMessage) {
	if s.status == StatusEnded {
		s.reject(userID, "game is over")
		return
	}
	if s.status == StatusPlaying && s.round != nil {
		s.reject(userID, "cannot join during an active round")
		return
	}
	team := s.teamByID(msg.Team)
	if team == nil {
		s.reject(userID, fmt.Sprintf("unknown team: %d", msg.Team))
		return
	}

	// Idempotent move: drop the player everywhere, then add to the target.
	for _, t := range s.teams {
		for i, p := range t.Players {
			if p.UserID == userID {
				t.Players = append(t.Players[:i], t.Players[i+1:]...)
				break
			}
		}
	}
	team.Players = append(team.Players, &Player{UserID: userID, Username: msg.Username})

	s.send.Broadcast(s.stateMessage())
}

func (s *Session) handleStartGame(userID string) {
	if userID != s.hostID {
		s.reject(userID, "only the host can start the game")
		return
	}
	if s.status != StatusLobby {
		s.reject(userID, "game already started")
		return
	}
	occupied := false
	for _, t := range s.teams {
		if len(t.Players) > 0 {
			occupied = true
			break
		}
	}
	if !occupied {
		s.reject(userID, "need at least one player on a team")
		return
	}

	s.setStatus(StatusPlaying)
	s.currentTeamIndex = 0
	s.send.Broadcast(s.stateMessage())
}

func (s *Session) handleStartRound(userID string) {
	if s.status != StatusPlaying {
		s.reject(userID, "game is not in progress")
		return
	}
	if s.round != nil {
		s.reject(userID, "round already active")
		return
	}
	team := s.activeTeam()
	if !s.onActiveTeam(userID) {
		s.reject(userID, fmt.Sprintf("only %s can start the round", team.Name))
		return
	}
	if len(team.Players) == 0 {
		s.reject(userID, fmt.Sprintf("%s has no players", team.Name))
		return
	}

	// Explainer duty rotates within the team across its turns.
	s.clearExplaining()
	turn := s.turnsStarted[s.currentTeamIndex]
	team.Players[turn%len(team.Players)].IsExplaining = true
	s.turnsStarted[s.currentTeamIndex]++

	w, err := s.words.Draw()
	if err != nil {
		s.fatal("word deck exhausted")
		return
	}

	s.roundSeq++
	r := &round{seq: s.roundSeq, current: w}
	s.round = r

	duration := -1
	if !s.settings.Unlimited() {
		duration = s.settings.RoundSeconds
		r.remaining = s.settings.RoundSeconds
		r.stopTick = make(chan struct{})
		s.startTicker(r.seq, r.stopTick)
	} else {
		r.unlimited = true
	}

	s.send.Broadcast(s.stateMessage())
	s.send.Broadcast(s.newWordMessage(w))
	s.send.Broadcast(TimerStartMessage{Type: TypeTimerStart, Duration: duration})
}

func (s *Session) handleWordGuessed(userID string, msg ClientMessage) {
	r := s.round
	if s.status != StatusPlaying || r == nil {
		s.reject(userID, "no active round")
		return
	}
	if s.isPaused {
		s.reject(userID, "game is paused")
		return
	}
	if !s.onActiveTeam(userID) {
		s.reject(userID, "not your team's turn")
		return
	}
	if msg.Word != r.current.Word {
		s.reject(userID, fmt.Sprintf("stale word: %s", msg.Word))
		return
	}

	if r.grace {
		// The buzzer and the "got it" raced; attribution goes to a vote.
		if r.pending != nil {
			s.reject(userID, "team selection already pending")
			return
		}
		gw := s.guessedEntry(msg)
		r.pending = &gw
		s.send.Broadcast(SelectTeamMessage{
			Type:     TypeSelectTeam,
			Teams:    s.teamRefs(),
			LastWord: gw.Word,
		})
		return
	}

	if msg.UsedTranslation && !r.revealed {
		r.translationsUsed++
	}
	r.guessed = append(r.guessed, s.guessedEntry(msg))

	if !s.advanceWord() {
		return
	}
	s.send.Broadcast(s.stateMessage())
}

// guessedEntry builds the log entry for the word currently on screen.
func (s *Session) guessedEntry(msg ClientMessage) GuessedWord {
	r := s.round
	return GuessedWord{
		Word:            r.current.Word,
		TabooWords:      r.current.TabooWords,
		Translation:     r.current.Translation,
		UsedTranslation: msg.UsedTranslation || r.revealed,
		Timestamp:       s.now(),
	}
}

func (s *Session) handleWordSkip(userID string) {
	r := s.round
	if s.status != StatusPlaying || r == nil {
		s.reject(userID, "no active round")
		return
	}
	if s.isPaused {
		s.reject(userID, "game is paused")
		return
	}
	if r.grace {
		s.reject(userID, "cannot skip after time is up")
		return
	}
	if !s.onActiveTeam(userID) {
		s.reject(userID, "not your team's turn")
		return
	}
	s.advanceWord()
}

func (s *Session) handleWordTaboo(userID string) {
	if s.mode != ModeTaboo {
		s.reject(userID, "not a taboo game")
		return
	}
	r := s.round
	if s.status != StatusPlaying || r == nil {
		s.reject(userID, "no active round")
		return
	}
	if s.isPaused {
		s.reject(userID, "game is paused")
		return
	}
	if r.grace {
		s.reject(userID, "round is over")
		return
	}
	if !s.onActiveTeam(userID) {
		s.reject(userID, "not your team's turn")
		return
	}

	r.tabooViolations++
	if !s.advanceWord() {
		return
	}
	s.send.Broadcast(s.stateMessage())
}

func (s *Session) handleRevealTranslation(userID string) {
	r := s.round
	if s.status != StatusPlaying || r == nil {
		s.reject(userID, "no active round")
		return
	}
	if s.isPaused || r.grace {
		s.reject(userID, "cannot reveal translation now")
		return
	}
	if s.mode != ModeAlias || !s.settings.ShowTranslations {
		s.reject(userID, "translations are disabled")
		return
	}
	if r.current.Translation == "" {
		s.reject(userID, "no translation available")
		return
	}
	if max := s.settings.MaxTranslationsPerRound; max > 0 && r.translationsUsed >= max {
		s.reject(userID, "translation limit reached for this round")
		return
	}

	r.translationsUsed++
	r.revealed = true
	s.send.SendTo(userID, TranslationMessage{
		Type:        TypeTranslation,
		Word:        r.current.Word,
		Translation: r.current.Translation,
	})
}

func (s *Session) handlePauseGame(userID string) {
	r := s.round
	if s.status != StatusPlaying || r == nil || r.grace {
		s.reject(userID, "no active round to pause")
		return
	}
	if s.isPaused {
		s.reject(userID, "game is already paused")
		return
	}
	s.isPaused = true
	s.send.Broadcast(PauseStateMessage{Type: TypeGamePaused, IsPaused: true})
}

func (s *Session) handleResumeGame(userID string) {
	r := s.round
	if s.status != StatusPlaying || r == nil || r.grace {
		s.reject(userID, "no paused round")
		return
	}
	if !s.isPaused {
		s.reject(userID, "game is not paused")
		return
	}
	s.isPaused = false
	s.send.Broadcast(PauseStateMessage{Type: TypeGameResumed, IsPaused: false})
	if !r.unlimited {
		// Resync clients with the frozen remaining time.
		s.send.Broadcast(TimerUpdateMessage{Type: TypeTimerUpdate, TimeLeft: r.remaining})
	}
}

func (s *Session) handleRemoveWord(userID string, msg ClientMessage) {
	r := s.round
	if r == nil || !r.grace {
		s.reject(userID, "words can only be removed after the round ends")
		return
	}
	if !r.removeLast(msg.Word) {
		s.reject(userID, fmt.Sprintf("word not found: %s", msg.Word))
		return
	}
	s.send.Broadcast(WordRemovedMessage{
		Type:         TypeWordRemoved,
		Word:         msg.Word,
		GuessedWords: r.guessed,
	})
	s.send.Broadcast(s.stateMessage())
}

func (s *Session) handleTeamSelected(userID string, msg ClientMessage) {
	r := s.round
	if r == nil || !r.grace || r.pending == nil {
		s.reject(userID, "no team selection pending")
		return
	}
	team := s.teamByID(msg.Team)
	if team == nil {
		s.reject(userID, fmt.Sprintf("unknown team: %d", msg.Team))
		return
	}

	gw := *r.pending
	gw.TeamID = team.ID
	r.guessed = append(r.guessed, gw)
	r.pending = nil

	s.send.Broadcast(RoundSummaryMessage{
		Type:         TypeRoundSummary,
		Reason:       graceReasonTimeout,
		GuessedWords: r.guessed,
	})
}

// handleEndRound is the manual buzzer for unlimited rounds.
func (s *Session) handleEndRound(userID string) {
	r := s.round
	if s.status != StatusPlaying || r == nil || r.grace {
		s.reject(userID, "no active round")
		return
	}
	if !r.unlimited {
		s.reject(userID, "timed rounds end on their own")
		return
	}
	if userID != s.hostID && !s.onActiveTeam(userID) {
		s.reject(userID, "not your team's turn")
		return
	}
	s.enterGrace(graceReasonManual)
}

// handleRoundEnd commits the reviewed round: scores are applied, the turn
// rotates, and the win condition is checked.
func (s *Session) handleRoundEnd(userID string) {
	r := s.round
	if r == nil || !r.grace {
		s.reject(userID, "round is not finished")
		return
	}
	if r.pending != nil {
		s.reject(userID, "team selection still pending")
		return
	}

	active := s.activeTeam()
	points := r.tally(active.ID, s.settings.tabooPenalty())
	for id, p := range points {
		if t := s.teamByID(id); t != nil {
			t.Score += p
		}
	}
	s.gameLog = append(s.gameLog, r.guessed...)

	s.clearExplaining()
	r.stopTicker()
	s.round = nil
	s.isPaused = false

	s.send.Broadcast(RoundEndMessage{
		Type:   TypeRoundEnd,
		TeamID: active.ID,
		Team:   active.Name,
		Points: points[active.ID],
	})

	// The committing team takes precedence if attribution pushed another team
	// over the threshold in the same commit.
	var winner *Team
	if active.Score >= float64(s.settings.ScoreToWin) {
		winner = active
	} else {
		for _, t := range s.teams {
			if t.Score >= float64(s.settings.ScoreToWin) {
				winner = t
				break
			}
		}
	}
	if winner != nil {
		s.finishGame(winner.Name, "score_reached")
		return
	}

	s.currentTeamIndex = (s.currentTeamIndex + 1) % len(s.teams)
	s.currentRound++
	s.send.Broadcast(RoundClearedMessage{Type: TypeRoundCleared})
	s.send.Broadcast(s.stateMessage())
}

// fatal kills the room: everyone is notified and the game ends with no winner.
func (s *Session) fatal(message string) {
	log.Warn().Str("room", s.code).Str("reason", message).Msg("fatal room error")
	s.send.Broadcast(ErrorMessage{Type: TypeError, Message: message, Fatal: true})
	s.finishGame("", "deck_exhausted")
}

func (s *Session) finishGame(winner, reason string) {
	if r := s.round; r != nil {
		r.stopTicker()
		s.round = nil
	}
	s.isPaused = false
	s.setStatus(StatusEnded)
	metrics.GamesFinished.Inc()

	scores := s.scores()
	s.send.Broadcast(GameEndMessage{
		Type:   TypeGameEnd,
		Winner: winner,
		Reason: reason,
		Scores: scores,
	})
	s.send.Broadcast(s.stateMessage())

	teams := make([]TeamSummary, len(s.teams))
	for i, t := range s.teams {
		names := make([]string, len(t.Players))
		for j, p := range t.Players {
			names[j] = p.Username
		}
		teams[i] = TeamSummary{ID: t.ID, Name: t.Name, Score: t.Score, Players: names}
	}
	s.history.SaveGame(GameRecord{
		RoomCode:     s.code,
		PlayedAt:     s.clock.Now(),
		Winner:       winner,
		Reason:       reason,
		FinalScores:  scores,
		Teams:        teams,
		GuessedWords: s.gameLog,
	})
}
