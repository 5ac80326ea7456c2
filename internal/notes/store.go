package notes

import (
	"cmp"
	"slices"
	"sync"
)

type storedNote struct {
	note Note
	seq  uint64 // insertion order, breaks created_at ties in List
}

// Store is the in-memory holder of all notes, keyed by note ID.
// It performs no validation. Every method holds the lock for its whole
// duration, so each operation is atomic and visible to later calls.
type Store struct {
	mu      sync.RWMutex
	notes   map[string]*storedNote
	nextSeq uint64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{notes: make(map[string]*storedNote)}
}

// Insert stores note under note.ID, replacing any existing record.
func (s *Store) Insert(note Note) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSeq++
	s.notes[note.ID] = &storedNote{note: note, seq: s.nextSeq}
}

// Get returns the note with the given ID and whether it exists.
func (s *Store) Get(id string) (Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.notes[id]
	if !ok {
		return Note{}, false
	}
	return entry.note, true
}

// List returns a snapshot of all notes, newest created_at first.
// Notes created at the same instant come back most recent insertion first.
func (s *Store) List() []Note {
	s.mu.RLock()
	entries := make([]*storedNote, 0, len(s.notes))
	for _, entry := range s.notes {
		entries = append(entries, entry)
	}
	out := make([]Note, len(entries))
	slices.SortFunc(entries, func(a, b *storedNote) int {
		if c := b.note.CreatedAt.Compare(a.note.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.seq, a.seq)
	})
	for i, entry := range entries {
		out[i] = entry.note
	}
	s.mu.RUnlock()
	return out
}

// Update replaces title, content and updated_at of an existing note and
// returns the result. updated_at never moves backwards.
func (s *Store) Update(id string, patch NotePatch) (Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.notes[id]
	if !ok {
		return Note{}, false
	}

	updated := entry.note
	updated.Title = patch.Title
	updated.Content = patch.Content
	updated.UpdatedAt = patch.UpdatedAt
	if updated.UpdatedAt.Before(entry.note.UpdatedAt) {
		updated.UpdatedAt = entry.note.UpdatedAt
	}
	entry.note = updated
	return updated, true
}

// Delete removes the note and returns it.
func (s *Store) Delete(id string) (Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.notes[id]
	if !ok {
		return Note{}, false
	}
	delete(s.notes, id)
	return entry.note, true
}

// Len returns the number of stored notes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes)
}
