// Package editor implements the editing core: the canonical editor session
// with debounced autosave and retry, and the annotation merge engine that
// splices generated visual notes into a live script with incremental
// playback.
//
// Concurrency model: all deferred work runs through cancelable timers; a
// session holds at most one pending debounce timer (re-arm replaces, never
// stacks) and a playback holds at most one pending tick at a time.
package editor

import (
	"context"
	"strings"
	"time"
)

// Saver persists editor content to the record store.
type Saver interface {
	SaveNote(ctx context.Context, id, title, content string) error
}

// SaverFunc adapts a function to the Saver interface.
type SaverFunc func(ctx context.Context, id, title, content string) error

// SaveNote calls f.
func (f SaverFunc) SaveNote(ctx context.Context, id, title, content string) error {
	return f(ctx, id, title, content)
}

// Timings holds every timer interval the editor core uses. Tests run with
// millisecond values.
type Timings struct {
	// Debounce is the quiet period before an autosave fires.
	Debounce time.Duration
	// RetryBase is the first retry delay; attempt k waits RetryBase << k.
	RetryBase time.Duration
	// TypingInterval is the per-character reveal interval during playback.
	TypingInterval time.Duration
	// NotePause is the pause between consecutive annotation insertions.
	NotePause time.Duration
	// StartDelay is the delay before the first character of each annotation.
	StartDelay time.Duration
}

// DefaultTimings returns the production intervals.
func DefaultTimings() Timings {
	return Timings{
		Debounce:       4000 * time.Millisecond,
		RetryBase:      time.Second,
		TypingInterval: 25 * time.Millisecond,
		NotePause:      500 * time.Millisecond,
		StartDelay:     300 * time.Millisecond,
	}
}

// maxTitleLen is how much of the content is promoted to a title when the
// user left the title blank.
const maxTitleLen = 50

// SynthesizeTitle returns the explicit title when present, otherwise the
// first 50 characters of content with an ellipsis marker when truncated.
func SynthesizeTitle(title, content string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	runes := []rune(content)
	if len(runes) > maxTitleLen {
		return string(runes[:maxTitleLen]) + "..."
	}
	return content
}
