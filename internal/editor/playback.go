package editor

import (
	"strings"
	"sync"
	"time"

	"github.com/nmarks/driftpad/internal/apperr"
)

// Sink receives every displayed-content frame during playback.
type Sink func(content string)

// Playback reveals annotations into a live script one character at a time.
// It operates on a snapshot cursor mutated only by its own insertions;
// concurrent user edits are never re-matched against.
type Playback struct {
	timings Timings
	sink    Sink
	onDone  func(final string)

	mu        sync.Mutex
	active    bool
	pending   *time.Timer // the single outstanding scheduled tick
	current   string      // engine cursor, advanced only on completed insertions
	displayed string      // last frame handed to the sink
}

// NewPlayback creates a playback engine. sink is invoked on every frame;
// onDone (optional) receives the displayed content when playback finishes
// or is stopped.
func NewPlayback(timings Timings, sink Sink, onDone func(final string)) *Playback {
	return &Playback{timings: timings, sink: sink, onDone: onDone}
}

// Active reports whether a playback sequence is running.
func (p *Playback) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Content returns the most recently displayed content.
func (p *Playback) Content() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.displayed
}

// Start begins revealing the enhanced script's annotations into liveScript.
// A second start while one playback is active is rejected rather than
// interleaved.
func (p *Playback) Start(liveScript, enhanced string) error {
	annotations := ParseAnnotations(enhanced)

	p.mu.Lock()
	if p.active {
		p.mu.Unlock()
		return apperr.ErrPlaybackActive
	}
	p.active = true
	p.current = strings.TrimSpace(liveScript)
	p.displayed = p.current
	p.mu.Unlock()

	p.insertNext(annotations, 0)
	return nil
}

// Stop cancels playback immediately: the outstanding tick is cleared and
// whatever partial content was displayed stays as-is — no rollback.
func (p *Playback) Stop() {
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return
	}
	p.active = false
	if p.pending != nil {
		p.pending.Stop()
		p.pending = nil
	}
	final := p.displayed
	done := p.onDone
	p.mu.Unlock()

	if done != nil {
		done(final)
	}
}

// insertNext places annotation i and schedules its reveal, or finishes when
// all annotations are exhausted. Unplaceable annotations are skipped without
// aborting the rest.
func (p *Playback) insertNext(annotations []Annotation, i int) {
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return
	}

	if i >= len(annotations) {
		p.active = false
		p.pending = nil
		final := p.displayed
		done := p.onDone
		p.mu.Unlock()
		if done != nil {
			done(final)
		}
		return
	}

	pos, ok := insertionPoint(p.current, annotations[i].Anchor)
	if !ok {
		p.mu.Unlock()
		p.insertNext(annotations, i+1)
		return
	}

	before := p.current[:pos]
	after := p.current[pos:]
	// The annotation line opens with a bare newline; none of its text is
	// visible until the first typing tick.
	p.current = before + "\n"
	p.displayed = p.current
	frame := p.displayed
	p.pending = time.AfterFunc(p.timings.StartDelay, func() {
		p.typeChar(annotations, i, before, after, 0)
	})
	p.mu.Unlock()

	p.emit(frame)
}

// typeChar reveals character n of annotation i, then schedules the next
// character or, when the annotation is complete, the next insertion after
// the inter-annotation pause.
func (p *Playback) typeChar(annotations []Annotation, i int, before, after string, n int) {
	text := annotations[i].Text

	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return
	}

	if n < len(text) {
		frame := before + "\n" + text[:n+1] + after
		p.displayed = frame
		p.pending = time.AfterFunc(p.timings.TypingInterval, func() {
			p.typeChar(annotations, i, before, after, n+1)
		})
		p.mu.Unlock()
		p.emit(frame)
		return
	}

	p.current = before + "\n" + text + after
	p.displayed = p.current
	p.pending = time.AfterFunc(p.timings.NotePause, func() {
		p.insertNext(annotations, i+1)
	})
	p.mu.Unlock()
}

func (p *Playback) emit(frame string) {
	if p.sink != nil {
		p.sink(frame)
	}
}
