package notes

import (
	"context"
	"fmt"

	"github.com/kuitang/memnotes/internal/errs"
	"gopkg.in/yaml.v3"
)

// SeedNote is one boot note, as listed in a seed file.
type SeedNote struct {
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
}

// DefaultSeedNotes returns the two notes inserted at boot so the first
// listing is not empty.
func DefaultSeedNotes() []SeedNote {
	return []SeedNote{
		{Title: "First Note", Content: "This is the content of the first note. It's a great day for coding!"},
		{Title: "Second Note", Content: "Remember to buy groceries later."},
	}
}

// seedFile is the on-disk YAML shape:
//
//	notes:
//	  - title: Groceries
//	    content: milk, eggs
type seedFile struct {
	Notes []SeedNote `yaml:"notes"`
}

// ParseSeedYAML decodes a seed file. Every entry needs a non-empty title
// and content, the same rule the API enforces.
func ParseSeedYAML(data []byte) ([]SeedNote, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "invalid seed file", err)
	}
	for i, n := range f.Notes {
		if n.Title == "" || n.Content == "" {
			return nil, errs.New(errs.InvalidArgument, fmt.Sprintf("seed note %d: %s", i+1, MsgFieldsRequired))
		}
	}
	return f.Notes, nil
}

// Seed inserts the default boot notes.
func (s *Service) Seed(ctx context.Context) []Note {
	return s.SeedWith(ctx, DefaultSeedNotes())
}

// SeedWith inserts seeds, all stamped with the same instant.
func (s *Service) SeedWith(ctx context.Context, seeds []SeedNote) []Note {
	now := s.clock()
	out := make([]Note, 0, len(seeds))
	for _, seed := range seeds {
		note := Note{
			ID:        s.newID(),
			Title:     seed.Title,
			Content:   seed.Content,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.store.Insert(note)
		out = append(out, note)
	}
	return out
}
