package editor

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nmarks/driftpad/internal/models"
)

// Session is the canonical editor-session object: it owns the current
// title/content, the save status, and the unsaved-changes flag, and it
// schedules every persistence action. All presentation surfaces consume a
// session through its methods rather than duplicating this state.
type Session struct {
	mu sync.Mutex

	noteID  string // empty when no backing record exists yet
	title   string
	content string
	status  models.SaveStatus
	unsaved bool

	saver      Saver
	timings    Timings
	maxRetries int
	onRedirect func()
	logger     *slog.Logger

	debounce *time.Timer // single slot; re-arm replaces
	retry    *time.Timer
	closed   bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithRedirect sets the navigation callback invoked after an explicit
// (shouldRedirect) save succeeds.
func WithRedirect(fn func()) SessionOption {
	return func(s *Session) { s.onRedirect = fn }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// NewSession creates a session for the note with the given id. An empty id
// means no backing record exists; every save path is then a no-op.
func NewSession(noteID string, saver Saver, timings Timings, maxRetries int, opts ...SessionOption) *Session {
	s := &Session{
		noteID:     noteID,
		status:     models.StatusSaved,
		saver:      saver,
		timings:    timings,
		maxRetries: maxRetries,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status returns the current save status and whether unsaved changes exist.
func (s *Session) Status() (models.SaveStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.unsaved
}

// Content returns the session's current title and content.
func (s *Session) Content() (title, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title, s.content
}

// ScheduleAutoSave records a text change and (re)arms the debounce timer.
// Without a backing record, or with both fields blank, it clears the unsaved
// flag and does nothing — a freshly created empty note is never dirty.
func (s *Session) ScheduleAutoSave(title, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.title, s.content = title, content

	if s.noteID == "" || (strings.TrimSpace(content) == "" && strings.TrimSpace(title) == "") {
		s.unsaved = false
		return
	}

	s.unsaved = true
	s.status = models.StatusUnsaved

	if s.debounce != nil {
		s.debounce.Stop()
	}
	s.debounce = time.AfterFunc(s.timings.Debounce, func() {
		s.saveNote(title, content, false, 0)
	})
}

// ForceSave flushes pending changes synchronously, canceling any pending
// debounce so only one save goes out. Used on tab-hide and back-navigation.
// No-op when nothing is unsaved or no record exists.
func (s *Session) ForceSave(title, content string) {
	s.mu.Lock()
	if !s.unsaved || s.noteID == "" || s.closed {
		s.mu.Unlock()
		return
	}
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
	s.mu.Unlock()

	s.saveNote(title, content, false, 0)
}

// Save persists immediately and, on success, invokes the redirect callback.
// This is the explicit "save and leave" affordance.
func (s *Session) Save(title, content string) {
	s.mu.Lock()
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
	s.mu.Unlock()

	s.saveNote(title, content, true, 0)
}

// FlushBeacon issues a single best-effort save for unload-time flushes. It
// bypasses retry and status transitions entirely; failures are only logged.
func (s *Session) FlushBeacon(title, content string) {
	s.mu.Lock()
	id := s.noteID
	s.mu.Unlock()
	if id == "" || (strings.TrimSpace(content) == "" && strings.TrimSpace(title) == "") {
		return
	}
	go func() {
		if err := s.saver.SaveNote(context.Background(), id, SynthesizeTitle(title, content), content); err != nil {
			s.logger.Warn("beacon save failed", slog.String("note_id", id), slog.String("error", err.Error()))
		}
	}()
}

// saveNote is the retrying save routine. Failures are retried with
// exponential backoff (RetryBase << attempt) up to maxRetries; retries are
// serialized, each scheduled only from the prior attempt's failure path.
// After the cap the status becomes "error" and no further automatic retry
// occurs. No error ever propagates to a caller.
func (s *Session) saveNote(title, content string, shouldRedirect bool, attempt int) {
	s.mu.Lock()
	if s.closed || s.noteID == "" || (strings.TrimSpace(content) == "" && strings.TrimSpace(title) == "") {
		s.mu.Unlock()
		return
	}
	id := s.noteID
	s.status = models.StatusSaving
	s.mu.Unlock()

	err := s.saver.SaveNote(context.Background(), id, SynthesizeTitle(title, content), content)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	if err != nil {
		if attempt < s.maxRetries {
			delay := s.timings.RetryBase << attempt
			s.logger.Warn("save failed, retrying",
				slog.String("note_id", id),
				slog.Int("attempt", attempt+1),
				slog.Duration("delay", delay),
				slog.String("error", err.Error()))
			s.retry = time.AfterFunc(delay, func() {
				s.saveNote(title, content, shouldRedirect, attempt+1)
			})
			return
		}
		s.logger.Error("save failed permanently",
			slog.String("note_id", id),
			slog.String("error", err.Error()))
		s.status = models.StatusError
		return
	}

	s.unsaved = false
	s.status = models.StatusSaved
	if shouldRedirect && s.onRedirect != nil {
		go s.onRedirect()
	}
}

// Close cancels all outstanding timers. The session must not be used after.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
	if s.retry != nil {
		s.retry.Stop()
		s.retry = nil
	}
}
