package notes

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kuitang/memnotes/internal/errs"
	"github.com/kuitang/memnotes/internal/logutil"
	"github.com/kuitang/memnotes/internal/obs"
)

const logTitleChars = 60

// Service validates note requests, stamps identity and timestamps, and
// classifies store outcomes into coded errors.
type Service struct {
	store *Store
	newID func() string
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithIDGenerator overrides how note IDs are generated (useful in tests).
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithClock overrides the time source used for created_at/updated_at.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService creates a notes service backed by store.
func NewService(store *Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func logger(ctx context.Context) *slog.Logger {
	return obs.FromPkg(ctx, "notes")
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// Store returns the backing store.
func (s *Service) Store() *Store {
	return s.store
}

// requireFields returns the dereferenced title and content, or the
// validation error when either is absent or empty.
func requireFields(title, content *string) (string, string, error) {
	if title == nil || content == nil || *title == "" || *content == "" {
		return "", "", errs.New(errs.InvalidArgument, MsgFieldsRequired)
	}
	return *title, *content, nil
}

// Create creates a new note.
func (s *Service) Create(ctx context.Context, params CreateNoteParams) (Note, error) {
	title, content, err := requireFields(params.Title, params.Content)
	if err != nil {
		return Note{}, err
	}

	now := s.clock()
	note := Note{
		ID:        s.newID(),
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.store.Insert(note)

	logger(ctx).Debug("note_created", "note_id", note.ID, "title", logutil.TruncateForLog(title, logTitleChars))
	return note, nil
}

// List returns all notes, newest first. It never fails.
func (s *Service) List(ctx context.Context) []Note {
	return s.store.List()
}

// Read retrieves a note by ID.
func (s *Service) Read(ctx context.Context, id string) (Note, error) {
	note, ok := s.store.Get(id)
	if !ok {
		return Note{}, errs.New(errs.NotFound, MsgNotFound)
	}
	return note, nil
}

// Update replaces the title and content of an existing note.
// Validation runs before the store is consulted.
func (s *Service) Update(ctx context.Context, id string, params UpdateNoteParams) (Note, error) {
	title, content, err := requireFields(params.Title, params.Content)
	if err != nil {
		return Note{}, err
	}

	note, ok := s.store.Update(id, NotePatch{
		Title:     title,
		Content:   content,
		UpdatedAt: s.clock(),
	})
	if !ok {
		return Note{}, errs.New(errs.NotFound, MsgNotFound)
	}

	logger(ctx).Debug("note_updated", "note_id", id, "title", logutil.TruncateForLog(title, logTitleChars))
	return note, nil
}

// Delete removes a note and returns what was deleted.
func (s *Service) Delete(ctx context.Context, id string) (Note, error) {
	note, ok := s.store.Delete(id)
	if !ok {
		return Note{}, errs.New(errs.NotFound, MsgNotFound)
	}

	logger(ctx).Debug("note_deleted", "note_id", id)
	return note, nil
}

// Preview renders a note's content as sanitized HTML.
func (s *Service) Preview(ctx context.Context, id string) ([]byte, error) {
	note, err := s.Read(ctx, id)
	if err != nil {
		return nil, err
	}
	return RenderHTML(note.Content), nil
}
