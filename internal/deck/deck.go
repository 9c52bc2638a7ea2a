package deck

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
)

//go:embed data/alias.json data/taboo.json
var dataFS embed.FS

// ErrExhausted is returned when no unserved words remain for a room's
// mode/language/difficulty selection. The session treats it as fatal.
var ErrExhausted = errors.New("deck: no words left")

const (
	ModeAlias = "alias"
	ModeTaboo = "taboo"
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
	DifficultyMixed  = "mixed"
)

// Word is a single deck entry. TabooWords is populated in taboo mode,
// Translation in alias mode when the pool carries one.
type Word struct {
	Word        string   `json:"word"`
	TabooWords  []string `json:"taboo_words,omitempty"`
	Translation string   `json:"translation,omitempty"`
}

// pool is language -> difficulty -> words.
type pool map[string]map[string][]Word

// Deck serves words keyed by (mode, language, difficulty) and tracks which
// words each room has already seen, so a room never gets the same word twice.
type Deck struct {
	mu    sync.Mutex
	pools map[string]pool
	used  map[string]map[string]bool
	rng   *rand.Rand
}

// Load parses the embedded word data.
func Load() (*Deck, error) {
	pools := make(map[string]pool, 2)
	for mode, file := range map[string]string{
		ModeAlias: "data/alias.json",
		ModeTaboo: "data/taboo.json",
	} {
		raw, err := dataFS.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		var p pool
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", file, err)
		}
		pools[mode] = p
	}
	return &Deck{
		pools: pools,
		used:  make(map[string]map[string]bool),
		rng:   rand.New(rand.NewSource(rand.Int63())),
	}, nil
}

// Draw returns a random word for the given selection that the room has not
// seen before. Difficulty "mixed" resolves to a random concrete difficulty
// per draw. Returns ErrExhausted when every matching word has been served.
func (d *Deck) Draw(mode, language, difficulty, roomCode string) (Word, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	used, ok := d.used[roomCode]
	if !ok {
		used = make(map[string]bool)
		d.used[roomCode] = used
	}

	candidates := d.availableLocked(mode, language, difficulty, used)
	if len(candidates) == 0 && difficulty == DifficultyMixed {
		// rng may have picked an empty bucket; mixed falls back to any difficulty
		candidates = d.availableLocked(mode, language, "", used)
	}
	if len(candidates) == 0 {
		return Word{}, ErrExhausted
	}

	w := candidates[d.rng.Intn(len(candidates))]
	used[w.Word] = true
	return w, nil
}

func (d *Deck) availableLocked(mode, language, difficulty string, used map[string]bool) []Word {
	langs, ok := d.pools[mode]
	if !ok {
		return nil
	}
	byDifficulty, ok := langs[language]
	if !ok {
		return nil
	}

	var source []Word
	switch difficulty {
	case DifficultyMixed:
		picks := []string{DifficultyEasy, DifficultyMedium, DifficultyHard}
		source = byDifficulty[picks[d.rng.Intn(len(picks))]]
	case "":
		for _, words := range byDifficulty {
			source = append(source, words...)
		}
	default:
		source = byDifficulty[difficulty]
	}

	available := make([]Word, 0, len(source))
	for _, w := range source {
		if !used[w.Word] {
			available = append(available, w)
		}
	}
	return available
}

// Release drops the used-word tracking for a room. Called on room teardown.
func (d *Deck) Release(roomCode string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.used, roomCode)
}

// RoomDeck binds the deck to one room's selection so the session can draw
// without knowing the keying.
type RoomDeck struct {
	deck       *Deck
	mode       string
	language   string
	difficulty string
	roomCode   string
}

// ForRoom returns a draw handle bound to the given room and selection.
func (d *Deck) ForRoom(roomCode, mode, language, difficulty string) *RoomDeck {
	return &RoomDeck{
		deck:       d,
		mode:       mode,
		language:   language,
		difficulty: difficulty,
		roomCode:   roomCode,
	}
}

func (r *RoomDeck) Draw() (Word, error) {
	return r.deck.Draw(r.mode, r.language, r.difficulty, r.roomCode)
}
