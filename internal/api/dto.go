package api

import "github.com/nmarks/driftpad/internal/models"

// SaveNoteRequest is the body of POST /api/notes/save. The same shape is
// accepted from the beacon path, where the body arrives as text/plain.
type SaveNoteRequest struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// DeleteNotesRequest deletes a single entry or a batch.
type DeleteNotesRequest struct {
	ID  string   `json:"id,omitempty"`
	IDs []string `json:"ids,omitempty"`
}

// EntryListResponse wraps a user's journal entries.
type EntryListResponse struct {
	Entries []models.JournalEntry `json:"entries"`
	Total   int                   `json:"total"`
}

// CredentialsRequest is the body of signup and login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a fresh access/refresh token pair.
type TokenResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	User         UserSummary `json:"user"`
}

// UserSummary is the public view of a user.
type UserSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// RefreshRequest carries the refresh token for rotation or logout.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// SparksRequest asks for 2-3 thought-spark phrases.
type SparksRequest struct {
	Content       string   `json:"content"`
	PromptHistory []string `json:"promptHistory"`
}

// BackgroundWordsRequest asks for 5-6 educational trigger words.
type BackgroundWordsRequest struct {
	Content       string   `json:"content"`
	PreviousWords []string `json:"previousWords"`
}

// WordsResponse wraps a generated word list.
type WordsResponse struct {
	Words []string `json:"words"`
}

// CaptionsRequest asks for platform-tailored captions.
type CaptionsRequest struct {
	Content string `json:"content"`
}

// CaptionsResponse wraps generated captions.
type CaptionsResponse struct {
	Captions models.Captions `json:"captions"`
}

// ScriptRequest asks for a short-form video script.
type ScriptRequest struct {
	Content   string `json:"content"`
	VideoType string `json:"videoType"`
}

// ScriptResponse wraps a generated script.
type ScriptResponse struct {
	Script string `json:"script"`
}

// VisualNotesRequest asks for [VISUAL: ...] direction lines.
type VisualNotesRequest struct {
	Script string `json:"script"`
}

// VisualNotesResponse wraps the annotated script.
type VisualNotesResponse struct {
	EnhancedScript string `json:"enhancedScript"`
}

// ConversationRequest carries one conversational turn.
type ConversationRequest struct {
	OriginalContent string               `json:"originalContent"`
	BackgroundWords []string             `json:"backgroundWords"`
	Conversation    []models.ChatMessage `json:"conversation"`
}

// ConversationResponse is the single free-text reply.
type ConversationResponse struct {
	Response string `json:"response"`
}

// PlaybackRequest starts an annotation playback for an entry.
type PlaybackRequest struct {
	Script         string `json:"script"`
	EnhancedScript string `json:"enhancedScript"`
}
