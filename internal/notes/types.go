package notes

import (
	"time"
)

const (
	// MsgFieldsRequired is the client-facing message for a missing or empty title/content.
	MsgFieldsRequired = "Title and content are required"

	// MsgNotFound is the client-facing message for an unknown note id.
	MsgNotFound = "Note not found"
)

// Note represents a stored note with metadata
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NotePatch is the set of fields Store.Update replaces on an existing note.
type NotePatch struct {
	Title     string
	Content   string
	UpdatedAt time.Time
}

// CreateNoteParams contains parameters for creating a note.
// Pointers distinguish an absent or null field from an empty string;
// both are rejected the same way.
type CreateNoteParams struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// UpdateNoteParams contains parameters for a full replace of a note.
// Both fields are mandatory, as on create.
type UpdateNoteParams struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}
