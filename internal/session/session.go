// Package session implements the edit-session controller for one entry.
//
// A session owns the lifecycle of editing a single entry: load it, mutate
// the editable fields in memory, submit a sparse patch, observe the outcome,
// and navigate away. The session is a four-state machine:
//
//	Loading --(fetch ok)-->   Ready --(save)--> Saving --(ok)--> Done
//	Loading --(fetch fail)--> NotFound
//	Saving  --(fail)-->       Ready   (error notice surfaced)
//
// Every asynchronous completion carries a generation token captured when the
// work was dispatched; navigating away bumps the generation, so a stale
// response can never corrupt a later session or trigger a second navigation.
//
// Known limitation: the session enforces no timeouts of its own. A hung
// request leaves it in Loading or Saving until the injected API's transport
// gives up.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mwalters/cuplog/internal/coffee"
	"github.com/mwalters/cuplog/internal/i18n"
)

// State identifies the session's position in its lifecycle.
type State int

const (
	// StateLoading means the initial fetch is outstanding.
	StateLoading State = iota

	// StateNotFound means the fetch failed; the only action left is
	// navigating back to the overview.
	StateNotFound

	// StateReady means the entry is loaded and editable.
	StateReady

	// StateSaving means a submit is in flight. Further saves are rejected
	// until the outcome arrives.
	StateSaving

	// StateDone means the save succeeded; navigation is scheduled.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateNotFound:
		return "not_found"
	case StateReady:
		return "ready"
	case StateSaving:
		return "saving"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// NoticeLevel classifies a user-facing notice.
type NoticeLevel int

const (
	NoticeSuccess NoticeLevel = iota
	NoticeError
)

// Notice is a non-blocking, dismissable user-facing message. Notices are
// never fatal; the session stays interactive after every failure.
type Notice struct {
	Level   NoticeLevel
	Message string
}

// API is the collaborator boundary the session talks through.
type API interface {
	FetchEntry(ctx context.Context, id string) (*coffee.Entry, error)
	SubmitPatch(ctx context.Context, id string, patch *coffee.Patch) (*coffee.Entry, error)
}

// Config tunes session behavior.
type Config struct {
	// NavigateDelay is how long the success notice stays visible before
	// the session navigates back to the overview.
	NavigateDelay time.Duration

	// NoticeTTL is how long a notice stays up before auto-dismissing.
	NoticeTTL time.Duration

	// Translator resolves notice messages. Nil degrades to raw keys.
	Translator *i18n.Translator

	// OnNavigate is invoked exactly once when the session navigates away.
	OnNavigate func()
}

// DefaultConfig returns the standard UI timings.
func DefaultConfig() *Config {
	return &Config{
		NavigateDelay: 1500 * time.Millisecond,
		NoticeTTL:     6 * time.Second,
	}
}

// Session edits one entry. All methods are safe for concurrent use.
type Session struct {
	id  string
	api API
	cfg Config

	mu        sync.Mutex
	state     State
	entry     *coffee.Entry
	rating    *int
	location  string
	loaded    bool
	notice    *Notice
	noticeSeq uint64
	gen       uint64
	navigated bool
}

// New creates a session for the entry with the given id, in StateLoading.
func New(api API, id string, cfg *Config) *Session {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.NoticeTTL <= 0 {
		cfg.NoticeTTL = 6 * time.Second
	}
	return &Session{
		id:    id,
		api:   api,
		cfg:   *cfg,
		state: StateLoading,
	}
}

// Load performs the session's one and only fetch and seeds the editable
// fields from the result. Calling Load again is a no-op: re-fetching is
// never triggered by unrelated state changes.
func (s *Session) Load(ctx context.Context) {
	s.mu.Lock()
	if s.loaded {
		s.mu.Unlock()
		return
	}
	s.loaded = true
	gen := s.gen
	s.mu.Unlock()

	entry, err := s.api.FetchEntry(ctx, s.id)
	s.applyFetch(gen, entry, err)
}

// applyFetch reconciles a fetch outcome into session state. Outcomes from a
// superseded generation are dropped.
func (s *Session) applyFetch(gen uint64, entry *coffee.Entry, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || s.navigated {
		return
	}

	if err != nil {
		s.state = StateNotFound
		if errors.Is(err, coffee.ErrNotFound) {
			s.setNotice(NoticeError, s.t("notifications.notFound"))
		} else {
			s.setNotice(NoticeError, s.t("notifications.loadError"))
		}
		return
	}

	s.entry = entry
	s.rating = copyInt(entry.Rating)
	s.location = ""
	if entry.Location != nil {
		s.location = *entry.Location
	}
	s.state = StateReady
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Entry returns the last entry the server confirmed.
func (s *Session) Entry() *coffee.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entry
}

// Rating returns the editable rating; nil means unset.
func (s *Session) Rating() *int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyInt(s.rating)
}

// Location returns the editable location text.
func (s *Session) Location() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.location
}

// SetRating updates the editable rating.
func (s *Session) SetRating(rating int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rating = &rating
}

// ClearRating marks the editable rating unset. An unset rating is omitted
// from the submitted patch; the pipeline cannot clear a stored rating.
func (s *Session) ClearRating() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rating = nil
}

// SetLocation updates the editable location text. An empty string is a
// legitimate value and is still submitted.
func (s *Session) SetLocation(location string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = location
}

// CanSave reports whether a save may be started. At most one submit is
// outstanding at a time; the UI disables its save control off this.
func (s *Session) CanSave() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateReady
}

// ErrNotEditable is returned by Save outside the Ready state.
var ErrNotEditable = errors.New("session is not ready to save")

// Save submits the current editable fields as a sparse patch.
//
// Location is always present, carrying whatever sits in the editable state
// including an explicitly cleared empty string. Rating is present only when
// set, so a never-rated entry saved untouched does not submit a null that
// would fail range validation.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return ErrNotEditable
	}
	s.state = StateSaving
	gen := s.gen
	location := s.location
	rating := copyInt(s.rating)
	s.mu.Unlock()

	patch := &coffee.Patch{Location: &location, Rating: rating}

	entry, err := s.api.SubmitPatch(ctx, s.id, patch)
	s.applySave(gen, entry, err)
	return nil
}

// applySave reconciles a submit outcome. Outcomes from a superseded
// generation - including a late duplicate response for a session that
// already navigated - are dropped without touching state.
func (s *Session) applySave(gen uint64, entry *coffee.Entry, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || s.navigated {
		return
	}

	if err != nil {
		var ve *coffee.ValidationError
		if errors.As(err, &ve) && ve.Message != "" {
			s.setNotice(NoticeError, ve.Message)
		} else {
			s.setNotice(NoticeError, s.t("notifications.updateError"))
		}
		s.state = StateReady
		return
	}

	s.entry = entry
	s.state = StateDone
	s.setNotice(NoticeSuccess, s.t("notifications.updateSuccess"))

	// Navigation is delayed so the success notice is perceivable. The
	// generation guard makes the deferred navigation a no-op if the user
	// already left.
	if s.cfg.NavigateDelay <= 0 {
		s.navigateLocked()
		return
	}
	time.AfterFunc(s.cfg.NavigateDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.gen {
			return
		}
		s.navigateLocked()
	})
}

// Navigate leaves the session immediately. Allowed in any state; no
// in-flight request is aborted, but the generation bump guarantees its
// late result is discarded.
func (s *Session) Navigate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navigateLocked()
}

func (s *Session) navigateLocked() {
	if s.navigated {
		return
	}
	s.navigated = true
	s.gen++
	if s.cfg.OnNavigate != nil {
		go s.cfg.OnNavigate()
	}
}

// Navigated reports whether the session has navigated away.
func (s *Session) Navigated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.navigated
}

// Notice returns the currently visible notice, or nil.
func (s *Session) Notice() *Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notice
}

// DismissNotice hides the current notice. Notices also auto-dismiss after
// the configured TTL.
func (s *Session) DismissNotice() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = nil
}

// setNotice replaces the visible notice and arms its auto-dismiss timer.
// Callers must hold s.mu.
func (s *Session) setNotice(level NoticeLevel, message string) {
	s.notice = &Notice{Level: level, Message: message}
	s.noticeSeq++
	seq := s.noticeSeq

	time.AfterFunc(s.cfg.NoticeTTL, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.noticeSeq == seq {
			s.notice = nil
		}
	})
}

// t resolves a notice key through the translator, degrading to the raw key.
func (s *Session) t(key string) string {
	return s.cfg.Translator.T(key)
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
