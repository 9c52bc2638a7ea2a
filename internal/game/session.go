package game

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"wordrush/internal/deck"
	"wordrush/internal/metrics"
)

// WordSource supplies the next word for a session's mode/language/difficulty.
type WordSource interface {
	Draw() (deck.Word, error)
}

// SessionConfig carries everything a session needs at creation.
type SessionConfig struct {
	Code     string
	Mode     Mode
	Settings Settings
	HostID   string
	Teams    []*Team
	Words    WordSource
	Send     Sender
	History  Recorder
	Clock    clockwork.Clock
}

// Session owns one room's truth. All mutations flow through the inbox channel
// and are applied by the Run goroutine, one at a time; timer ticks are queued
// into the same stream, so tick-vs-action ordering is by arrival.
type Session struct {
	code     string
	mode     Mode
	settings Settings
	hostID   string

	status           Status
	teams            []*Team
	currentRound     int
	currentTeamIndex int
	isPaused         bool
	round            *round
	turnsStarted     []int
	roundSeq         int
	gameLog          []GuessedWord

	words   WordSource
	send    Sender
	history Recorder
	clock   clockwork.Clock

	inbox    chan command
	quit     chan struct{}
	stopOnce sync.Once

	// mirrors for the session directory, which must not enter the serial loop
	statusMirror atomic.Value // Status
	lastActive   atomic.Int64 // unix seconds
	endedAt      atomic.Int64 // unix seconds, 0 until ended
}

// command is one inbox entry: a player message, a timer tick, or a snapshot
// request from a freshly attached connection.
type command struct {
	from        string
	msg         *ClientMessage
	tick        int // round sequence the tick belongs to; 0 = not a tick
	snapshotFor string
}

func NewSession(cfg SessionConfig) *Session {
	s := &Session{
		code:         cfg.Code,
		mode:         cfg.Mode,
		settings:     cfg.Settings,
		hostID:       cfg.HostID,
		status:       StatusLobby,
		teams:        cfg.Teams,
		turnsStarted: make([]int, len(cfg.Teams)),
		words:        cfg.Words,
		send:         cfg.Send,
		history:      cfg.History,
		clock:        cfg.Clock,
		inbox:        make(chan command, 256),
		quit:         make(chan struct{}),
	}
	if s.history == nil {
		s.history = NoopRecorder{}
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	s.statusMirror.Store(StatusLobby)
	s.lastActive.Store(s.clock.Now().Unix())
	return s
}

// Run processes the inbox until the context is cancelled or Stop is called.
func (s *Session) Run(ctx context.Context) {
	log.Debug().Str("room", s.code).Msg("session started")
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.quit:
			return
		case cmd := <-s.inbox:
			s.lastActive.Store(s.clock.Now().Unix())
			s.handle(cmd)
		}
	}
}

// Stop terminates the Run loop and marks the session ended. Safe to call more
// than once.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.statusMirror.Store(StatusEnded)
		s.endedAt.CompareAndSwap(0, s.clock.Now().Unix())
		close(s.quit)
	})
}

// Dispatch enqueues a player message. from identifies the connection the
// message arrived on; error events go back to it.
func (s *Session) Dispatch(from string, msg ClientMessage) {
	select {
	case s.inbox <- command{from: from, msg: &msg}:
	case <-s.quit:
	}
}

// RequestSnapshot asks the session to send the current game state to one user.
func (s *Session) RequestSnapshot(userID string) {
	select {
	case s.inbox <- command{snapshotFor: userID}:
	case <-s.quit:
	}
}

// Code returns the immutable room code.
func (s *Session) Code() string { return s.code }

// Mode returns the room's game mode.
func (s *Session) Mode() Mode { return s.mode }

// Settings returns the room settings, fixed at creation.
func (s *Session) Settings() Settings { return s.settings }

// Teams returns the room's teams. The slice, team IDs and names never change;
// membership and scores belong to the Run goroutine.
func (s *Session) Teams() []*Team { return s.teams }

// CurrentStatus is safe to call from outside the loop; the directory uses it
// for lifecycle sweeps.
func (s *Session) CurrentStatus() Status {
	return s.statusMirror.Load().(Status)
}

// LastActive reports when the session last processed a command.
func (s *Session) LastActive() time.Time {
	return time.Unix(s.lastActive.Load(), 0)
}

// EndedAt reports when the session ended, if it has.
func (s *Session) EndedAt() (time.Time, bool) {
	ts := s.endedAt.Load()
	if ts == 0 {
		return time.Time{}, false
	}
	return time.Unix(ts, 0), true
}

func (s *Session) handle(cmd command) {
	switch {
	case cmd.tick > 0:
		s.handleTick(cmd.tick)
	case cmd.snapshotFor != "":
		s.send.SendTo(cmd.snapshotFor, s.stateMessage())
	case cmd.msg != nil:
		s.handleMessage(cmd.from, *cmd.msg)
	}
}

func (s *Session) handleMessage(from string, msg ClientMessage) {
	metrics.MessagesIn.WithLabelValues(msg.Type).Inc()

	uid := msg.UserID
	if uid == "" {
		uid = from
	}

	switch msg.Type {
	case TypeJoinTeam:
		s.handleJoinTeam(uid, msg)
	case TypeStartGame:
		s.handleStartGame(uid)
	case TypeStartRound:
		s.handleStartRound(uid)
	case TypeWordGuessed:
		s.handleWordGuessed(uid, msg)
	case TypeWordSkip:
		s.handleWordSkip(uid)
	case TypeWordTaboo:
		s.handleWordTaboo(uid)
	case TypeRevealTranslation:
		s.handleRevealTranslation(uid)
	case TypePauseGame:
		s.handlePauseGame(uid)
	case TypeResumeGame:
		s.handleResumeGame(uid)
	case TypeRemoveWord:
		s.handleRemoveWord(uid, msg)
	case TypeTeamSelected:
		s.handleTeamSelected(uid, msg)
	case TypeRoundEnd:
		s.handleRoundEnd(uid)
	case TypeEndRound:
		s.handleEndRound(uid)
	default:
		s.reject(uid, "unknown message type: "+msg.Type)
	}
}

// reject reports a recoverable error to the offending user only.
func (s *Session) reject(userID, message string) {
	log.Debug().Str("room", s.code).Str("user", userID).Str("reason", message).Msg("action rejected")
	s.send.SendTo(userID, ErrorMessage{Type: TypeError, Message: message})
}

func (s *Session) setStatus(st Status) {
	s.status = st
	s.statusMirror.Store(st)
	if st == StatusEnded {
		s.endedAt.Store(s.clock.Now().Unix())
	}
}

// startTicker feeds one tick per second into the inbox until the round's stop
// channel closes. Ticks carry the round sequence so stale ones are discarded.
func (s *Session) startTicker(seq int, stop chan struct{}) {
	ticker := s.clock.NewTicker(time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				select {
				case s.inbox <- command{tick: seq}:
				case <-stop:
					return
				case <-s.quit:
					return
				}
			case <-stop:
				return
			case <-s.quit:
				return
			}
		}
	}()
}

func (s *Session) handleTick(seq int) {
	r := s.round
	if r == nil || r.seq != seq || r.grace || r.unlimited || s.isPaused {
		return
	}
	r.remaining--
	s.send.Broadcast(TimerUpdateMessage{Type: TypeTimerUpdate, TimeLeft: r.remaining})
	if r.remaining <= 0 {
		s.enterGrace(graceReasonTimeout)
	}
}

func (s *Session) now() float64 {
	return float64(s.clock.Now().UnixNano()) / float64(time.Second)
}
