package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nmarks/driftpad/internal/apperr"
	"github.com/nmarks/driftpad/internal/auth"
	"github.com/nmarks/driftpad/internal/editor"
	"github.com/nmarks/driftpad/internal/llm"
	"github.com/nmarks/driftpad/internal/models"
	"github.com/nmarks/driftpad/internal/session"
	"github.com/nmarks/driftpad/internal/sse"
	"github.com/nmarks/driftpad/internal/store"
)

// Handler holds API route handlers and their collaborators.
type Handler struct {
	db         store.Recorder
	issuer     *auth.Issuer
	sessions   session.Store
	llm        *llm.Client
	broker     *sse.Broker
	timings    editor.Timings
	refreshTTL time.Duration

	mu        sync.Mutex
	playbacks map[string]*editor.Playback
}

// NewHandler creates a new Handler. broker may be nil (no event streaming).
func NewHandler(db store.Recorder, issuer *auth.Issuer, sessions session.Store, gateway *llm.Client, broker *sse.Broker, timings editor.Timings, refreshTTL time.Duration) *Handler {
	return &Handler{
		db:         db,
		issuer:     issuer,
		sessions:   sessions,
		llm:        gateway,
		broker:     broker,
		timings:    timings,
		refreshTTL: refreshTTL,
		playbacks:  make(map[string]*editor.Playback),
	}
}

func (h *Handler) publishEntryEvent(kind, id string) {
	if h.broker != nil {
		h.broker.PublishEntryEvent(kind, id)
	}
}

// CreateNote handles POST /api/notes. A new entry starts empty unless the
// body provides initial fields.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req struct {
		Type    string `json:"type"`
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	// An empty body is fine; the entry is created blank.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Type == "" {
		req.Type = models.EntryTypeIdea
	}

	entry, err := h.db.InsertNote(r.Context(), callerID(r), req.Type, req.Title, req.Content)
	if err != nil {
		slog.Error("create note failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	h.publishEntryEvent("created", entry.ID)
	writeJSON(w, http.StatusCreated, entry)
}

// ListNotes handles GET /api/notes, newest first, caller-scoped.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	entries, err := h.db.ListNotes(r.Context(), callerID(r))
	if err != nil {
		slog.Error("list notes failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if entries == nil {
		entries = []models.JournalEntry{}
	}
	writeJSON(w, http.StatusOK, EntryListResponse{Entries: entries, Total: len(entries)})
}

// GetNote handles GET /api/notes/{id}. Entries owned by other users read as
// not found.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, err := h.db.GetNote(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get note failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	if entry.UserID != callerID(r) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// SaveNote handles POST /api/notes/save, the write path behind both the
// debounced autosave and the unload-time beacon. Beacon bodies arrive as
// text/plain, so the payload is decoded without regard to Content-Type.
func (h *Handler) SaveNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req SaveNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid body"))
		return
	}
	if req.ID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}

	title := editor.SynthesizeTitle(req.Title, req.Content)

	if err := h.db.UpdateNote(r.Context(), req.ID, title, req.Content); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("save note failed", slog.String("id", req.ID), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	h.publishEntryEvent("updated", req.ID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// DeleteNotes handles DELETE /api/notes with either a single {id} or a bulk
// {ids} payload, scoped to the caller.
func (h *Handler) DeleteNotes(w http.ResponseWriter, r *http.Request) {
	var req DeleteNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	ids := req.IDs
	if req.ID != "" {
		ids = append(ids, req.ID)
	}
	if len(ids) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("id or ids is required"))
		return
	}

	deleted, err := h.db.DeleteNotes(r.Context(), callerID(r), ids)
	if err != nil {
		slog.Error("delete notes failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	for _, id := range ids {
		h.publishEntryEvent("deleted", id)
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}
