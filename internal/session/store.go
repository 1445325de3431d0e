package session

import (
	"sync"
	"time"

	"ai-photo-studio/internal/imageproc"
	"ai-photo-studio/internal/prompt"
	"ai-photo-studio/internal/studio"
)

// Menu names the keyboard page currently shown to the user.
type Menu string

const (
	MenuMain        Menu = "main"
	MenuThemes      Menu = "themes"
	MenuEffects     Menu = "effects"
	MenuAccessories Menu = "accessories"
)

type State struct {
	Settings studio.Settings

	// Source and Reference are the last uploads, reused by the generate button.
	Source    imageproc.Payload
	Reference imageproc.Payload

	// Results holds the images of the last settled generation, by slot.
	// Failed slots are empty.
	Results []imageproc.Payload

	Menu  Menu
	Group int

	MessageID int

	AwaitingNotes     bool
	AwaitingReference bool

	UpdatedAt time.Time
}

func (s State) Images() studio.Images {
	return studio.Images{Source: s.Source, Reference: s.Reference}
}

func (s State) HasSource() bool {
	return len(s.Source.Data) > 0
}

type Options struct {
	DefaultMode prompt.Mode
}

type Store struct {
	mu          sync.Mutex
	m           map[key]*State
	defaultMode prompt.Mode
}

type key struct {
	ChatID int64
	UserID int64
}

func NewStore(opts Options) *Store {
	mode := opts.DefaultMode
	if !mode.Valid() {
		mode = prompt.ModeWedding
	}
	return &Store{
		m:           make(map[key]*State),
		defaultMode: mode,
	}
}

// Get returns a copy of the user's state; slices inside Settings are
// shared with the store and must not be mutated.
func (s *Store) Get(chatID, userID int64) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return *s.getOrCreateLocked(chatID, userID)
}

// Update applies fn under the store lock and returns the new state.
func (s *Store) Update(chatID, userID int64, fn func(*State)) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.getOrCreateLocked(chatID, userID)
	if fn != nil {
		settings := st.Settings
		settings.Themes = append([]string{}, settings.Themes...)
		settings.Effects = append([]prompt.Weighted{}, settings.Effects...)
		settings.Accessories = append([]prompt.Weighted{}, settings.Accessories...)
		st.Settings = settings
		fn(st)
	}
	st.UpdatedAt = time.Now()
	return *st
}

// SetMode switches mode and restores that mode's defaults. Uploaded images
// and the keyboard message are kept.
func (s *Store) SetMode(chatID, userID int64, mode prompt.Mode) State {
	return s.Update(chatID, userID, func(st *State) {
		st.Settings = studio.Defaults(mode)
		st.Menu = MenuMain
		st.Group = 0
		st.AwaitingNotes = false
		st.AwaitingReference = false
	})
}

// Reset forgets settings and uploads but keeps the current mode.
func (s *Store) Reset(chatID, userID int64) State {
	return s.Update(chatID, userID, func(st *State) {
		msgID := st.MessageID
		*st = newState(st.Settings.Mode)
		st.MessageID = msgID
	})
}

// Prune drops states idle for longer than maxIdle and reports how many.
func (s *Store) Prune(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	n := 0
	for k, st := range s.m {
		if st.UpdatedAt.Before(cutoff) {
			delete(s.m, k)
			n++
		}
	}
	return n
}

func (s *Store) getOrCreateLocked(chatID, userID int64) *State {
	k := key{ChatID: chatID, UserID: userID}
	if st, ok := s.m[k]; ok {
		return st
	}
	st := newState(s.defaultMode)
	s.m[k] = &st
	return &st
}

func newState(mode prompt.Mode) State {
	return State{
		Settings:  studio.Defaults(mode),
		Menu:      MenuMain,
		UpdatedAt: time.Now(),
	}
}
