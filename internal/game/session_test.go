package game

import (
	"fmt"
	"sync"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wordrush/internal/deck"
)

// eventSink records everything the session emits so tests can assert on the
// outbound stream without a real hub. Locked so Run-loop tests can poll it.
type eventSink struct {
	mu         sync.Mutex
	broadcasts []any
	direct     map[string][]any
}

func newEventSink() *eventSink {
	return &eventSink{direct: make(map[string][]any)}
}

func (e *eventSink) Broadcast(v any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.broadcasts = append(e.broadcasts, v)
}

func (e *eventSink) SendTo(userID string, v any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.direct[userID] = append(e.direct[userID], v)
}

func (e *eventSink) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.broadcasts = nil
	e.direct = make(map[string][]any)
}

func (e *eventSink) all() []any {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]any, len(e.broadcasts))
	copy(out, e.broadcasts)
	return out
}

func (e *eventSink) sentTo(userID string) []any {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]any, len(e.direct[userID]))
	copy(out, e.direct[userID])
	return out
}

// lastOf returns the most recent broadcast of type T.
func lastOf[T any](e *eventSink) (T, bool) {
	broadcasts := e.all()
	for i := len(broadcasts) - 1; i >= 0; i-- {
		if v, ok := broadcasts[i].(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func allOf[T any](e *eventSink) []T {
	var out []T
	for _, b := range e.all() {
		if v, ok := b.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// lastError returns the most recent error event sent directly to userID.
func (e *eventSink) lastError(userID string) (ErrorMessage, bool) {
	msgs := e.sentTo(userID)
	for i := len(msgs) - 1; i >= 0; i-- {
		if v, ok := msgs[i].(ErrorMessage); ok {
			return v, true
		}
	}
	return ErrorMessage{}, false
}

type fakeWords struct {
	words []deck.Word
	next  int
}

func (f *fakeWords) Draw() (deck.Word, error) {
	if f.next >= len(f.words) {
		return deck.Word{}, deck.ErrExhausted
	}
	w := f.words[f.next]
	f.next++
	return w, nil
}

func wordList(n int) []deck.Word {
	words := make([]deck.Word, n)
	for i := range words {
		words[i] = deck.Word{
			Word:        fmt.Sprintf("word%d", i),
			Translation: fmt.Sprintf("слово%d", i),
		}
	}
	return words
}

type fakeRecorder struct {
	records []GameRecord
}

func (f *fakeRecorder) SaveGame(rec GameRecord) { f.records = append(f.records, rec) }

type testEnv struct {
	s     *Session
	sink  *eventSink
	words *fakeWords
	rec   *fakeRecorder
	clock *clockwork.FakeClock
}

func defaultSettings() Settings {
	return Settings{
		Timed:        true,
		RoundSeconds: 5,
		Difficulty:   "easy",
		Language:     "en",
		ScoreToWin:   30,
		TeamCount:    2,
	}
}

// newTestEnv builds a session with teams Red (a1, a2) and Blue (b1), hosted
// by a1, with 50 scripted words. Handlers are invoked synchronously; the Run
// loop is not started.
func newTestEnv(t *testing.T, mode Mode, settings Settings) *testEnv {
	t.Helper()
	sink := newEventSink()
	words := &fakeWords{words: wordList(50)}
	rec := &fakeRecorder{}
	clock := clockwork.NewFakeClock()

	s := NewSession(SessionConfig{
		Code:     "TEST",
		Mode:     mode,
		Settings: settings,
		HostID:   "a1",
		Teams: []*Team{
			{ID: 1, Name: "Red"},
			{ID: 2, Name: "Blue"},
		},
		Words:   words,
		Send:    sink,
		History: rec,
		Clock:   clock,
	})
	return &testEnv{s: s, sink: sink, words: words, rec: rec, clock: clock}
}

func (e *testEnv) msg(from string, m ClientMessage) {
	if m.UserID == "" {
		m.UserID = from
	}
	e.s.handleMessage(from, m)
}

func (e *testEnv) join(userID, username string, team int) {
	e.msg(userID, ClientMessage{Type: TypeJoinTeam, Username: username, Team: team})
}

// seatEveryone fills both teams and starts the game.
func (e *testEnv) seatEveryone(t *testing.T) {
	t.Helper()
	e.join("a1", "Alice", 1)
	e.join("a2", "Anna", 1)
	e.join("b1", "Bob", 2)
	e.msg("a1", ClientMessage{Type: TypeStartGame})
	require.Equal(t, StatusPlaying, e.s.status)
}

func (e *testEnv) startRound(t *testing.T, userID string) {
	t.Helper()
	e.msg(userID, ClientMessage{Type: TypeStartRound})
	require.NotNil(t, e.s.round, "round should be active")
}

// guess submits the word currently on screen and returns it.
func (e *testEnv) guess(userID string, usedTranslation bool) string {
	w := e.s.round.current.Word
	e.msg(userID, ClientMessage{Type: TypeWordGuessed, Word: w, UsedTranslation: usedTranslation})
	return w
}

// timeUp drains the round's timer by ticking it to zero.
func (e *testEnv) timeUp(t *testing.T) {
	t.Helper()
	require.NotNil(t, e.s.round)
	for !e.s.round.grace {
		e.s.handleTick(e.s.round.seq)
	}
}

func (e *testEnv) commit(t *testing.T, userID string) {
	t.Helper()
	e.msg(userID, ClientMessage{Type: TypeRoundEnd})
}

func TestJoinTeam_LastJoinWins(t *testing.T) {
	e := newTestEnv(t, ModeAlias, defaultSettings())

	e.join("a1", "Alice", 1)
	e.join("a1", "Alice", 2)

	assert.Empty(t, e.s.teams[0].Players, "team 1 should be empty after the move")
	require.Len(t, e.s.teams[1].Players, 1)
	assert.Equal(t, "a1", e.s.teams[1].Players[0].UserID)
}

func TestJoinTeam_Idempotent(t *testing.T) {
	e := newTestEnv(t, ModeAlias, defaultSettings())

	e.join("a1", "Alice", 1)
	e.join("a1", "Alice", 1)

	require.Len(t, e.s.teams[0].Players, 1, "double join must not duplicate the player")
}

func TestJoinTeam_UnknownTeam(t *testing.T) {
	e := newTestEnv(t, ModeAlias, defaultSettings())

	e.join("a1", "Alice", 7)

	errMsg, ok := e.sink.lastError("a1")
	require.True(t, ok, "offender should get an error event")
	assert.Contains(t, errMsg.Message, "unknown team")
	assert.Empty(t, e.sink.all(), "nothing should be broadcast on a rejected join")
}

func TestJoinTeam_BlockedDuringRound(t *testing.T) {
	e := newTestEnv(t, ModeAlias, defaultSettings())
	e.seatEveryone(t)
	e.startRound(t, "a1")

	before := len(e.s.teams[1].Players)
	e.join("c1", "Carol", 2)

	assert.Len(t, e.s.teams[1].Players, before, "joins are blocked while a round runs")
	_, ok := e.sink.lastError("c1")
	assert.True(t, ok)
}

func TestJoinTeam_AllowedBetweenRounds(t *testing.T) {
	e := newTestEnv(t, ModeAlias, defaultSettings())
	e.seatEveryone(t)
	e.startRound(t, "a1")
	e.timeUp(t)
	e.commit(t, "a1")

	e.join("c1", "Carol", 2)
	assert.Len(t, e.s.teams[1].Players, 2, "joins are allowed between rounds")
}

func TestStartGame_HostOnly(t *testing.T) {
	e := newTestEnv(t, ModeAlias, defaultSettings())
	e.join("b1", "Bob", 2)

	e.msg("b1", ClientMessage{Type: TypeStartGame})
	assert.Equal(t, StatusLobby, e.s.status)
	_, ok := e.sink.lastError("b1")
	assert.True(t, ok)

	e.msg("a1", ClientMessage{Type: TypeStartGame})
	assert.Equal(t, StatusPlaying, e.s.status)
}

func TestStartGame_NeedsPlayers(t *testing.T) {
	e := newTestEnv(t, ModeAlias, defaultSettings())

	e.msg("a1", ClientMessage{Type: TypeStartGame})

	assert.Equal(t, StatusLobby, e.s.status)
	errMsg, ok := e.sink.lastError("a1")
	require.True(t, ok)
	assert.Contains(t, errMsg.Message, "at least one player")
}

func TestStartGame_Twice(t *testing.T) {
	e := newTestEnv(t, ModeAlias, defaultSettings())
	e.seatEveryone(t)

	e.sink.reset()
	e.msg("a1", ClientMessage{Type: TypeStartGame})

	_, ok := e.sink.lastError("a1")
	assert.True(t, ok, "second start_game is rejected")
	assert.Empty(t, e.sink.all())
}

func TestStartRound_OnlyActiveTeam(t *testing.T) {
	e := newTestEnv(t, ModeAlias, defaultSettings())
	e.seatEveryone(t)

	e.msg("b1", ClientMessage{Type: TypeStartRound})
	assert.Nil(t, e.s.round, "Blue cannot start Red's round")

	e.startRound(t, "a1")
}

func TestStartRound_DoubleStartRejected(t *testing.T) {
	e := newTestEnv(t, ModeAlias, defaultSettings())
	e.seatEveryone(t)
	e.startRound(t, "a1")

	seq := e.s.round.seq
	e.sink.reset()
	e.msg("a1", ClientMessage{Type: TypeStartRound})

	assert.Equal(t, seq, e.s.round.seq, "second start_round must not restart the round")
	assert.Empty(t, allOf[NewWordMessage](e.sink), "no new word on rejected start")
	_, ok := e.sink.lastError("a1")
	assert.True(t, ok)
}

func TestStartRound_Announcements(t *testing.T) {
	e := newTestEnv(t, ModeAlias, defaultSettings())
	e.seatEveryone(t)
	e.sink.reset()
	e.startRound(t, "a1")

	nw, ok := lastOf[NewWordMessage](e.sink)
	require.True(t, ok)
	assert.Equal(t, "word0", nw.Word)

	ts, ok := lastOf[TimerStartMessage](e.sink)
	require.True(t, ok)
	assert.Equal(t, 5, ts.Duration)

	state, ok := lastOf[GameStateMessage](e.sink)
	require.True(t, ok)
	assert.True(t, state.Data.RoundActive)
	assert.Equal(t, 5, state.Data.TimeLeft)
}

func TestStartRound_UnlimitedDuration(t *testing.T) {
	settings := defaultSettings()
	settings.Timed = false
	e := newTestEnv(t, ModeAlias, settings)
	e.seatEveryone(t)
	e.sink.reset()
	e.startRound(t, "a1")

	ts, ok := lastOf[TimerStartMessage](e.sink)
	require.True(t, ok)
	assert.Equal(t, -1, ts.Duration, "unlimited rounds announce duration -1")

	state, _ := lastOf[GameStateMessage](e.sink)
	assert.Equal(t, -1, state.Data.TimeLeft)
}

func TestExplainerRotation(t *testing.T) {
	e := newTestEnv(t, ModeAlias, defaultSettings())
	e.seatEveryone(t)

	explainer := func() string {
		for _, tm := range e.s.teams {
			for _, p := range tm.Players {
				if p.IsExplaining {
					return p.UserID
				}
			}
		}
		return ""
	}

	e.startRound(t, "a1")
	assert.Equal(t, "a1", explainer(), "first Red turn goes to the first player")
	e.timeUp(t)
	e.commit(t, "a1")

	e.startRound(t, "b1")
	assert.Equal(t, "b1", explainer())
	e.timeUp(t)
	e.commit(t, "b1")

	e.startRound(t, "a2")
	assert.Equal(t, "a2", explainer(), "second Red turn rotates to the next player")
}

func TestTurnRotationAndRoundCounter(t *testing.T) {
	e := newTestEnv(t, ModeAlias, defaultSettings())
	e.seatEveryone(t)

	assert.Equal(t, 0, e.s.currentTeamIndex)
	assert.Equal(t, 0, e.s.currentRound)

	e.startRound(t, "a1")
	e.timeUp(t)
	e.sink.reset()
	e.commit(t, "a1")

	assert.Equal(t, 1, e.s.currentTeamIndex, "turn passes to the next team at commit")
	assert.Equal(t, 1, e.s.currentRound, "round counter advances at commit")
	_, ok := lastOf[RoundClearedMessage](e.sink)
	assert.True(t, ok)
}

func TestSoloDevice_WaivesTeamCheck(t *testing.T) {
	settings := defaultSettings()
	settings.SoloDevice = true
	e := newTestEnv(t, ModeAlias, settings)
	e.seatEveryone(t)

	e.msg("b1", ClientMessage{Type: TypeStartRound})
	require.NotNil(t, e.s.round, "solo-device rooms accept actions from anyone")

	e.guess("b1", false)
	assert.Len(t, e.s.round.guessed, 1)
}

func TestSnapshotRequest(t *testing.T) {
	e := newTestEnv(t, ModeAlias, defaultSettings())
	e.join("a1", "Alice", 1)

	e.s.handle(command{snapshotFor: "late-joiner"})

	msgs := e.sink.sentTo("late-joiner")
	require.Len(t, msgs, 1)
	state, ok := msgs[0].(GameStateMessage)
	require.True(t, ok)
	assert.Equal(t, "TEST", state.Data.RoomCode)
	assert.Equal(t, StatusLobby, state.Data.Status)
}

func TestUnknownMessageType(t *testing.T) {
	e := newTestEnv(t, ModeAlias, defaultSettings())

	e.msg("a1", ClientMessage{Type: "launch_missiles"})

	errMsg, ok := e.sink.lastError("a1")
	require.True(t, ok)
	assert.Contains(t, errMsg.Message, "unknown message type")
}
