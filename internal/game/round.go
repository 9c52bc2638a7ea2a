package game

import (
	"wordrush/internal/deck"
)

const (
	graceReasonTimeout = "timeout"
	graceReasonManual  = "manual"
)

// round is the ephemeral state of one team's explaining turn.
type round struct {
	seq              int
	current          deck.Word
	revealed         bool // translation revealed for the current word
	guessed          []GuessedWord
	tabooViolations  int
	translationsUsed int
	remaining        int
	unlimited        bool
	grace            bool
	pending          *GuessedWord
	stopTick         chan struct{}
}

func (r *round) stopTicker() {
	if r.stopTick != nil {
		close(r.stopTick)
		r.stopTick = nil
	}
}

// removeLast drops the most recent guessed entry matching word. Reports
// whether anything was removed.
func (r *round) removeLast(word string) bool {
	for i := len(r.guessed) - 1; i >= 0; i-- {
		if r.guessed[i].Word == word {
			r.guessed = append(r.guessed[:i], r.guessed[i+1:]...)
			return true
		}
	}
	return false
}

// tally computes the points each team earns if the round commits now.
// Guessed words credit the active team unless attributed elsewhere; the
// first-translation and taboo penalties always land on the active team.
func (r *round) tally(activeTeamID int, tabooPenalty float64) map[int]float64 {
	points := make(map[int]float64)
	penalized := false
	for _, gw := range r.guessed {
		target := activeTeamID
		if gw.TeamID != 0 {
			target = gw.TeamID
		}
		points[target]++
		if gw.UsedTranslation && !penalized {
			points[activeTeamID] -= 0.5
			penalized = true
		}
	}
	if r.tabooViolations > 0 {
		points[activeTeamID] -= tabooPenalty * float64(r.tabooViolations)
	}
	return points
}

// enterGrace freezes the round: the timer stops, the current word stays
// visible, and guesses no longer score directly (see handleWordGuessed).
func (s *Session) enterGrace(reason string) {
	r := s.round
	if r == nil || r.grace {
		return
	}
	r.grace = true
	r.remaining = 0
	r.stopTicker()
	s.send.Broadcast(TimerEndedMessage{Type: TypeTimerEnded})
	s.send.Broadcast(RoundSummaryMessage{
		Type:         TypeRoundSummary,
		Reason:       reason,
		GuessedWords: r.guessed,
	})
}

// advanceWord draws the next word and broadcasts it. On deck exhaustion the
// room dies (spec: resource exhaustion is fatal). Reports whether play can
// continue.
func (s *Session) advanceWord() bool {
	w, err := s.words.Draw()
	if err != nil {
		s.fatal("word deck exhausted")
		return false
	}
	s.round.current = w
	s.round.revealed = false
	s.send.Broadcast(s.newWordMessage(w))
	return true
}

// newWordMessage hides the translation when reveals are capped; the explainer
// must then request each one through reveal_translation.
func (s *Session) newWordMessage(w deck.Word) NewWordMessage {
	msg := NewWordMessage{Type: TypeNewWord, Word: w.Word, Taboo: w.TabooWords}
	if s.mode == ModeAlias && s.settings.ShowTranslations && s.settings.MaxTranslationsPerRound == 0 {
		msg.Translation = w.Translation
	}
	return msg
}

func (s *Session) activeTeam() *Team {
	return s.teams[s.currentTeamIndex]
}

func (s *Session) teamByID(id int) *Team {
	for _, t := range s.teams {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// onActiveTeam reports whether the user may act for the explaining team.
// Solo-device rooms share one screen, so the check is waived.
func (s *Session) onActiveTeam(userID string) bool {
	if s.settings.SoloDevice {
		return true
	}
	return s.activeTeam().player(userID) != nil
}

func (s *Session) clearExplaining() {
	for _, t := range s.teams {
		for _, p := range t.Players {
			p.IsExplaining = false
		}
	}
}

func (s *Session) teamRefs() []TeamRef {
	refs := make([]TeamRef, len(s.teams))
	for i, t := range s.teams {
		refs[i] = TeamRef{ID: t.ID, Name: t.Name}
	}
	return refs
}

func (s *Session) scores() map[string]float64 {
	scores := make(map[string]float64, len(s.teams))
	for _, t := range s.teams {
		scores[t.Name] = t.Score
	}
	return scores
}
