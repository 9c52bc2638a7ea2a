package game

// stateMessage builds the authoritative game_state snapshot. Clients derive
// every UI flag from this; nothing they hold locally is trusted back.
func (s *Session) stateMessage() GameStateMessage {
	state := GameState{
		RoomCode:         s.code,
		Mode:             s.mode,
		Status:           s.status,
		HostID:           s.hostID,
		Teams:            s.teams,
		CurrentRound:     s.currentRound,
		CurrentTeamIndex: s.currentTeamIndex,
		Settings:         s.settings,
		IsPaused:         s.isPaused,
	}
	if r := s.round; r != nil {
		state.RoundActive = true
		state.GracePhase = r.grace
		if r.unlimited {
			state.TimeLeft = -1
		} else {
			state.TimeLeft = r.remaining
		}
		state.RoundPoints = r.tally(s.activeTeam().ID, s.settings.tabooPenalty())[s.activeTeam().ID]
	}
	return GameStateMessage{Type: TypeGameState, Data: state}
}
