// Package models defines the domain types for Driftpad.
package models

import "time"

// EntryTypeIdea is the type assigned to notes created by the "new note" action.
const EntryTypeIdea = "idea"

// JournalEntry is a single note record in the journal.
type JournalEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User is a registered account that owns journal entries.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Captions holds one platform-tailored rewrite per social platform.
type Captions struct {
	Instagram string `json:"instagram"`
	LinkedIn  string `json:"linkedin"`
	X         string `json:"x"`
	TikTok    string `json:"tiktok"`
}

// ChatMessage is one turn in an idea-development conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
