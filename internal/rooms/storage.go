package rooms

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"wordrush/internal/deck"
	"wordrush/internal/game"
	"wordrush/internal/metrics"
	"wordrush/internal/wshub"
)

// Options tune the directory's lifecycle sweeps and per-room defaults.
type Options struct {
	LobbyTTL      time.Duration // rooms idle in lobby this long are closed
	EndedGrace    time.Duration // ended rooms linger this long before the code recycles
	SweepInterval time.Duration
	TabooPenalty  float64 // server default, overridable per room
}

func DefaultOptions() Options {
	return Options{
		LobbyTTL:      30 * time.Minute,
		EndedGrace:    5 * time.Minute,
		SweepInterval: 1 * time.Minute,
		TabooPenalty:  game.DefaultTabooPenalty,
	}
}

// Store is the process-wide session directory: one Room Session per code.
type Store struct {
	mu    sync.Mutex
	rooms map[string]*Room

	deck    *deck.Deck
	history game.Recorder
	clock   clockwork.Clock
	opts    Options
}

func NewStore(d *deck.Deck, history game.Recorder, clock clockwork.Clock, opts Options) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	s := &Store{
		rooms:   make(map[string]*Room),
		deck:    d,
		history: history,
		clock:   clock,
		opts:    opts,
	}
	go s.sweepStale()
	return s
}

// Create builds a room: code, teams, hub, session, and starts the session's
// serial loop.
func (s *Store) Create(mode game.Mode, hostID string, settings game.Settings) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Try up to 10 times to generate a unique code
	for range 10 {
		code, err := GenerateCode()
		if err != nil {
			return nil, fmt.Errorf("generating room code: %w", err)
		}
		if _, exists := s.rooms[code]; exists {
			continue
		}

		if settings.TabooPenalty == 0 {
			settings.TabooPenalty = s.opts.TabooPenalty
		}

		names := teamNames(settings.TeamCount)
		teams := make([]*game.Team, settings.TeamCount)
		for i := range teams {
			teams[i] = &game.Team{ID: i + 1, Name: names[i]}
		}

		hub := wshub.NewHub()
		session := game.NewSession(game.SessionConfig{
			Code:     code,
			Mode:     mode,
			Settings: settings,
			HostID:   hostID,
			Teams:    teams,
			Words:    s.deck.ForRoom(code, string(mode), settings.Language, settings.Difficulty),
			Send:     hub,
			History:  s.history,
			Clock:    s.clock,
		})

		ctx, cancel := context.WithCancel(context.Background())
		go session.Run(ctx)

		room := &Room{
			Code:      code,
			Session:   session,
			Hub:       hub,
			CreatedAt: s.clock.Now(),
			HostID:    hostID,
			cancel:    cancel,
		}
		s.rooms[code] = room
		metrics.RoomsActive.Set(float64(len(s.rooms)))
		log.Info().Str("room", code).Str("mode", string(mode)).Msg("room created")
		return room, nil
	}
	return nil, fmt.Errorf("failed to generate unique room code after 10 attempts")
}

func (s *Store) Get(code string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[code]
}

// Delete tears a room down: the session loop stops, connections close, and
// the deck forgets the room's served words.
func (s *Store) Delete(code string) {
	s.mu.Lock()
	room := s.rooms[code]
	delete(s.rooms, code)
	metrics.RoomsActive.Set(float64(len(s.rooms)))
	s.mu.Unlock()

	if room != nil {
		s.teardown(room)
	}
}

func (s *Store) List() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		list = append(list, r)
	}
	return list
}

func (s *Store) teardown(room *Room) {
	room.Session.Stop()
	room.cancel()
	room.Hub.CloseAll()
	s.deck.Release(room.Code)
	log.Info().Str("room", room.Code).Msg("room closed")
}

func (s *Store) sweepStale() {
	ticker := s.clock.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()
	for range ticker.Chan() {
		s.sweepOnce()
	}
}

// sweepOnce closes rooms that sat idle in lobby past LobbyTTL and ended rooms
// whose grace period lapsed. Teardown is the only cancellation path a session
// has besides finishing.
func (s *Store) sweepOnce() {
	now := s.clock.Now()

	s.mu.Lock()
	var stale []*Room
	for code, room := range s.rooms {
		var dead bool
		switch room.Session.CurrentStatus() {
		case game.StatusLobby:
			dead = now.Sub(room.Session.LastActive()) > s.opts.LobbyTTL
		case game.StatusEnded:
			if endedAt, ok := room.Session.EndedAt(); ok {
				dead = now.Sub(endedAt) > s.opts.EndedGrace
			}
		}
		if dead {
			stale = append(stale, room)
			delete(s.rooms, code)
		}
	}
	metrics.RoomsActive.Set(float64(len(s.rooms)))
	s.mu.Unlock()

	for _, room := range stale {
		s.teardown(room)
	}
}
