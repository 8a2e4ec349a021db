package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/nmarks/driftpad/internal/auth"
	"github.com/nmarks/driftpad/internal/editor"
	"github.com/nmarks/driftpad/internal/llm"
	"github.com/nmarks/driftpad/internal/models"
	"github.com/nmarks/driftpad/internal/session"
	"github.com/nmarks/driftpad/internal/store"
)

// testEnv wires a temp SQLite store, in-memory sessions, a fake LLM gateway,
// and the full router.
type testEnv struct {
	router http.Handler
	db     *store.DB
}

// newEnv builds the environment. gatewayStatus/gatewayContent shape every
// fake gateway completion.
func newEnv(t *testing.T, gatewayStatus int, gatewayContent string) *testEnv {
	t.Helper()

	dbFile, err := os.CreateTemp("", "driftpad-api-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(gatewayStatus)
		if gatewayStatus == http.StatusOK {
			resp := map[string]any{
				"choices": []map[string]any{
					{"message": map[string]string{"content": gatewayContent}},
				},
			}
			_ = json.NewEncoder(w).Encode(resp)
		}
	}))
	t.Cleanup(gw.Close)

	issuer := auth.NewIssuer("test-secret-0123456789", time.Hour)
	timings := editor.Timings{
		Debounce:       20 * time.Millisecond,
		RetryBase:      5 * time.Millisecond,
		TypingInterval: time.Millisecond,
		NotePause:      2 * time.Millisecond,
		StartDelay:     50 * time.Millisecond,
	}
	h := NewHandler(db, issuer, session.NewMemoryStore(), llm.New(gw.URL, "test-key", "test-model"), nil, timings, time.Hour)

	return &testEnv{router: NewRouter(h, issuer, nil), db: db}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// signup registers a user and returns the token pair.
func (e *testEnv) signup(t *testing.T, email string) TokenResponse {
	t.Helper()
	w := e.do(t, http.MethodPost, "/auth/signup", "", CredentialsRequest{Email: email, Password: "hunter2hunter2"})
	if w.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body = %s", w.Code, w.Body.String())
	}
	var tokens TokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &tokens); err != nil {
		t.Fatal(err)
	}
	return tokens
}

func TestSignupLoginFlow(t *testing.T) {
	env := newEnv(t, http.StatusOK, "")

	tokens := env.signup(t, "nina@example.com")
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatal("missing tokens in signup response")
	}

	// Duplicate email.
	w := env.do(t, http.MethodPost, "/auth/signup", "", CredentialsRequest{Email: "nina@example.com", Password: "hunter2hunter2"})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate signup = %d, want 409", w.Code)
	}

	// Login.
	w = env.do(t, http.MethodPost, "/auth/login", "", CredentialsRequest{Email: "nina@example.com", Password: "hunter2hunter2"})
	if w.Code != http.StatusOK {
		t.Errorf("login = %d, body = %s", w.Code, w.Body.String())
	}

	// Wrong password.
	w = env.do(t, http.MethodPost, "/auth/login", "", CredentialsRequest{Email: "nina@example.com", Password: "wrong-password"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad login = %d, want 401", w.Code)
	}
}

func TestRefreshRotation(t *testing.T) {
	env := newEnv(t, http.StatusOK, "")
	tokens := env.signup(t, "rot@example.com")

	w := env.do(t, http.MethodPost, "/auth/refresh", "", RefreshRequest{RefreshToken: tokens.RefreshToken})
	if w.Code != http.StatusOK {
		t.Fatalf("refresh = %d, body = %s", w.Code, w.Body.String())
	}
	var next TokenResponse
	_ = json.Unmarshal(w.Body.Bytes(), &next)
	if next.RefreshToken == tokens.RefreshToken {
		t.Error("refresh token not rotated")
	}

	// The old refresh token is dead after rotation.
	w = env.do(t, http.MethodPost, "/auth/refresh", "", RefreshRequest{RefreshToken: tokens.RefreshToken})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("stale refresh = %d, want 401", w.Code)
	}
}

func TestNotesCRUD(t *testing.T) {
	env := newEnv(t, http.StatusOK, "")
	tokens := env.signup(t, "crud@example.com")

	// Create.
	w := env.do(t, http.MethodPost, "/notes", tokens.AccessToken, map[string]string{"content": "first thought"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d, body = %s", w.Code, w.Body.String())
	}
	var entry models.JournalEntry
	_ = json.Unmarshal(w.Body.Bytes(), &entry)
	if entry.ID == "" {
		t.Fatal("created entry has no id")
	}

	// Save.
	w = env.do(t, http.MethodPost, "/notes/save", "", SaveNoteRequest{ID: entry.ID, Title: "My Note", Content: "updated body"})
	if w.Code != http.StatusOK {
		t.Fatalf("save = %d, body = %s", w.Code, w.Body.String())
	}

	// Get reflects the save.
	w = env.do(t, http.MethodGet, "/notes/"+entry.ID, tokens.AccessToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get = %d", w.Code)
	}
	var got models.JournalEntry
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Title != "My Note" || got.Content != "updated body" {
		t.Errorf("entry = %q/%q", got.Title, got.Content)
	}

	// List.
	w = env.do(t, http.MethodGet, "/notes", tokens.AccessToken, nil)
	var list EntryListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if list.Total != 1 {
		t.Errorf("total = %d, want 1", list.Total)
	}
}

func TestGetNoteOtherOwnerHidden(t *testing.T) {
	env := newEnv(t, http.StatusOK, "")
	owner := env.signup(t, "owner@example.com")
	other := env.signup(t, "other@example.com")

	w := env.do(t, http.MethodPost, "/notes", owner.AccessToken, nil)
	var entry models.JournalEntry
	_ = json.Unmarshal(w.Body.Bytes(), &entry)

	w = env.do(t, http.MethodGet, "/notes/"+entry.ID, other.AccessToken, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign get = %d, want 404", w.Code)
	}
}

func TestSaveRequiresID(t *testing.T) {
	env := newEnv(t, http.StatusOK, "")
	w := env.do(t, http.MethodPost, "/notes/save", "", SaveNoteRequest{Content: "no id"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("save without id = %d, want 400", w.Code)
	}
}

func TestSaveUnknownID(t *testing.T) {
	env := newEnv(t, http.StatusOK, "")
	w := env.do(t, http.MethodPost, "/notes/save", "", SaveNoteRequest{ID: "missing", Content: "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("save unknown id = %d, want 404", w.Code)
	}
}

func TestSaveSynthesizesTitle(t *testing.T) {
	env := newEnv(t, http.StatusOK, "")
	tokens := env.signup(t, "title@example.com")

	w := env.do(t, http.MethodPost, "/notes", tokens.AccessToken, nil)
	var entry models.JournalEntry
	_ = json.Unmarshal(w.Body.Bytes(), &entry)

	long := strings.Repeat("a", 60)
	w = env.do(t, http.MethodPost, "/notes/save", "", SaveNoteRequest{ID: entry.ID, Content: long})
	if w.Code != http.StatusOK {
		t.Fatalf("save = %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/notes/"+entry.ID, tokens.AccessToken, nil)
	var got models.JournalEntry
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if want := strings.Repeat("a", 50) + "..."; got.Title != want {
		t.Errorf("title = %q, want %q", got.Title, want)
	}
}

func TestSaveAcceptsPlainTextBeaconBody(t *testing.T) {
	env := newEnv(t, http.StatusOK, "")
	tokens := env.signup(t, "beacon@example.com")

	w := env.do(t, http.MethodPost, "/notes", tokens.AccessToken, nil)
	var entry models.JournalEntry
	_ = json.Unmarshal(w.Body.Bytes(), &entry)

	// sendBeacon ships JSON with a text/plain content type and no auth header.
	body := fmt.Sprintf(`{"id":%q,"title":"t","content":"flushed on unload"}`, entry.ID)
	req := httptest.NewRequest(http.MethodPost, "/notes/save", strings.NewReader(body))
	req.Header.Set("Content-Type", "text/plain;charset=UTF-8")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("beacon save = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteWithoutTokenUnauthorized(t *testing.T) {
	env := newEnv(t, http.StatusOK, "")
	w := env.do(t, http.MethodDelete, "/notes", "", DeleteNotesRequest{ID: "x"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated delete = %d, want 401", w.Code)
	}

	w = env.do(t, http.MethodDelete, "/notes", "not-a-jwt", DeleteNotesRequest{ID: "x"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("garbage token delete = %d, want 401", w.Code)
	}
}

func TestDeleteBulk(t *testing.T) {
	env := newEnv(t, http.StatusOK, "")
	tokens := env.signup(t, "bulk@example.com")

	var ids []string
	for i := 0; i < 3; i++ {
		w := env.do(t, http.MethodPost, "/notes", tokens.AccessToken, nil)
		var entry models.JournalEntry
		_ = json.Unmarshal(w.Body.Bytes(), &entry)
		ids = append(ids, entry.ID)
	}

	w := env.do(t, http.MethodDelete, "/notes", tokens.AccessToken, DeleteNotesRequest{IDs: ids[:2]})
	if w.Code != http.StatusOK {
		t.Fatalf("bulk delete = %d", w.Code)
	}
	var resp struct {
		Deleted int `json:"deleted"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Deleted != 2 {
		t.Errorf("deleted = %d, want 2", resp.Deleted)
	}

	w = env.do(t, http.MethodGet, "/notes", tokens.AccessToken, nil)
	var list EntryListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if list.Total != 1 {
		t.Errorf("remaining = %d, want 1", list.Total)
	}
}

func TestSparksShortContentReturnsEmpty(t *testing.T) {
	env := newEnv(t, http.StatusOK, `["a","b"]`)
	tokens := env.signup(t, "sparks@example.com")

	w := env.do(t, http.MethodPost, "/ai/sparks", tokens.AccessToken, SparksRequest{Content: "too short"})
	if w.Code != http.StatusOK {
		t.Fatalf("sparks = %d", w.Code)
	}
	var resp WordsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Words) != 0 {
		t.Errorf("words = %v, want empty for short content", resp.Words)
	}
}

func TestSparksFallbackOnGatewayFailure(t *testing.T) {
	env := newEnv(t, http.StatusInternalServerError, "")
	tokens := env.signup(t, "sparkfail@example.com")

	content := strings.Repeat("a thought about systems. ", 3)
	w := env.do(t, http.MethodPost, "/ai/sparks", tokens.AccessToken, SparksRequest{Content: content})
	if w.Code != http.StatusOK {
		t.Fatalf("sparks = %d, want 200 even on gateway failure", w.Code)
	}
	var resp WordsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Words) != 3 || resp.Words[0] != "patterns" {
		t.Errorf("words = %v, want fixed fallback triple", resp.Words)
	}
}

func TestConversationFallbackNever500s(t *testing.T) {
	env := newEnv(t, http.StatusInternalServerError, "")
	tokens := env.signup(t, "chat@example.com")

	content := strings.Repeat("an idea worth discussing. ", 3)
	w := env.do(t, http.MethodPost, "/ai/conversation", tokens.AccessToken, ConversationRequest{OriginalContent: content})
	if w.Code != http.StatusOK {
		t.Fatalf("conversation = %d, want 200", w.Code)
	}
	var resp ConversationResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Response == "" {
		t.Error("expected canned reply on gateway failure")
	}
}

func TestCaptionsTooShortRejected(t *testing.T) {
	env := newEnv(t, http.StatusOK, "")
	tokens := env.signup(t, "cap@example.com")

	w := env.do(t, http.MethodPost, "/ai/captions", tokens.AccessToken, CaptionsRequest{Content: "tiny"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("short captions = %d, want 400", w.Code)
	}
}

func TestCaptionsGatewayFailureSurfaced(t *testing.T) {
	env := newEnv(t, http.StatusInternalServerError, "")
	tokens := env.signup(t, "capfail@example.com")

	content := strings.Repeat("caption-worthy material. ", 3)
	w := env.do(t, http.MethodPost, "/ai/captions", tokens.AccessToken, CaptionsRequest{Content: content})
	if w.Code != http.StatusInternalServerError {
		t.Errorf("captions failure = %d, want 500 (no fallback)", w.Code)
	}
}

func TestScriptGeneration(t *testing.T) {
	env := newEnv(t, http.StatusOK, "HOOK: watch this.\nBODY: the whole idea.")
	tokens := env.signup(t, "script@example.com")

	content := strings.Repeat("an idea for a short video. ", 2)
	w := env.do(t, http.MethodPost, "/ai/script", tokens.AccessToken, ScriptRequest{Content: content, VideoType: "educational"})
	if w.Code != http.StatusOK {
		t.Fatalf("script = %d, body = %s", w.Code, w.Body.String())
	}
	var resp ScriptResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !strings.Contains(resp.Script, "HOOK") {
		t.Errorf("script = %q", resp.Script)
	}
}

func TestVisualNotesTooShortRejected(t *testing.T) {
	env := newEnv(t, http.StatusOK, "")
	tokens := env.signup(t, "vis@example.com")

	w := env.do(t, http.MethodPost, "/ai/visual-notes", tokens.AccessToken, VisualNotesRequest{Script: "short"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("short visual notes = %d, want 400", w.Code)
	}
}

func TestPlaybackLifecycle(t *testing.T) {
	env := newEnv(t, http.StatusOK, "")
	tokens := env.signup(t, "play@example.com")

	w := env.do(t, http.MethodPost, "/notes", tokens.AccessToken, map[string]string{"content": "A. B. C."})
	var entry models.JournalEntry
	_ = json.Unmarshal(w.Body.Bytes(), &entry)

	play := PlaybackRequest{Script: "A. B. C.", EnhancedScript: "A. B.\n[VISUAL: wide shot of the scene]\nC."}
	w = env.do(t, http.MethodPost, "/notes/"+entry.ID+"/playback", tokens.AccessToken, play)
	if w.Code != http.StatusAccepted {
		t.Fatalf("start playback = %d, body = %s", w.Code, w.Body.String())
	}

	// Second start while the first is revealing.
	w = env.do(t, http.MethodPost, "/notes/"+entry.ID+"/playback", tokens.AccessToken, play)
	if w.Code != http.StatusConflict {
		t.Errorf("concurrent start = %d, want 409", w.Code)
	}

	w = env.do(t, http.MethodDelete, "/notes/"+entry.ID+"/playback", tokens.AccessToken, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("stop playback = %d, want 204", w.Code)
	}
}
