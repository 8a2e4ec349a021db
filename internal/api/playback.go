package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nmarks/driftpad/internal/apperr"
	"github.com/nmarks/driftpad/internal/editor"
)

// StartPlayback handles POST /api/notes/{id}/playback. The merge engine
// reveals the enhanced script's annotations character by character; each
// frame is streamed to SSE subscribers as a playback.reveal event, with
// playback.done carrying whatever was displayed when the reveal finished or
// was canceled.
func (h *Handler) StartPlayback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req PlaybackRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.EnhancedScript) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("enhancedScript is required"))
		return
	}

	entry, err := h.db.GetNote(r.Context(), id)
	if err != nil || entry.UserID != callerID(r) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}

	script := req.Script
	if script == "" {
		script = entry.Content
	}

	h.mu.Lock()
	p, ok := h.playbacks[id]
	if !ok {
		p = editor.NewPlayback(h.timings,
			func(content string) {
				if h.broker != nil {
					h.broker.PublishReveal(id, content)
				}
			},
			func(final string) {
				if h.broker != nil {
					h.broker.PublishPlaybackDone(id, final)
				}
			})
		h.playbacks[id] = p
	}
	h.mu.Unlock()

	if err := p.Start(script, req.EnhancedScript); err != nil {
		if errors.Is(err, apperr.ErrPlaybackActive) {
			writeJSON(w, http.StatusConflict, errorBody("playback already active"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// StopPlayback handles DELETE /api/notes/{id}/playback. Canceling leaves the
// partially revealed content exactly as displayed.
func (h *Handler) StopPlayback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	h.mu.Lock()
	p, ok := h.playbacks[id]
	h.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("no playback for entry"))
		return
	}

	p.Stop()
	w.WriteHeader(http.StatusNoContent)
}
