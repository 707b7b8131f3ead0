package workflows

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/kanuka-notes/internal/audit"
	kerrors "github.com/PolarWolf314/kanuka-notes/internal/errors"
)

// Note is a decrypted note.
type Note struct {
	ID   uint64
	Text string

	// Err is set when the note could not be decrypted; Text is empty then.
	Err error
}

// AddNoteOptions configures the add workflow.
type AddNoteOptions struct {
	SessionOptions
	Text string
}

// AddNoteResult contains the outcome of adding a note.
type AddNoteResult struct {
	ID uint64
}

// AddNote encrypts text with the account key and stores it.
func AddNote(ctx context.Context, opts AddNoteOptions) (*AddNoteResult, error) {
	s, err := syncedSession(ctx, opts.SessionOptions)
	if err != nil {
		return nil, err
	}
	defer s.close()

	data, err := s.Coordinator.Encrypt(opts.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt note: %w", err)
	}
	id, err := s.Backend.AddNote(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store note: %w", err)
	}

	audit.Log(audit.LogWithDevice("add").WithNote(id))
	return &AddNoteResult{ID: id}, nil
}

// ListNotesResult contains every note of the account.
type ListNotesResult struct {
	Notes []Note

	// Failed counts notes that could not be decrypted.
	Failed int
}

// ListNotes fetches and decrypts all notes. A note that fails to decrypt is
// reported in its Err field and does not fail the listing.
func ListNotes(ctx context.Context, opts SessionOptions) (*ListNotesResult, error) {
	s, err := syncedSession(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer s.close()

	stored, err := s.Backend.GetNotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notes: %w", err)
	}

	result := &ListNotesResult{Notes: make([]Note, 0, len(stored))}
	for _, n := range stored {
		text, err := s.Coordinator.Decrypt(n.Data)
		if err != nil {
			opts.Log.Warnf("Failed to decrypt note %d: %v", n.ID, err)
			result.Failed++
		}
		result.Notes = append(result.Notes, Note{ID: n.ID, Text: text, Err: err})
	}

	audit.Log(audit.LogWithDevice("list"))
	return result, nil
}

// NoteOptions names one note.
type NoteOptions struct {
	SessionOptions
	ID uint64
}

// ShowNote fetches and decrypts one note.
func ShowNote(ctx context.Context, opts NoteOptions) (*Note, error) {
	s, err := syncedSession(ctx, opts.SessionOptions)
	if err != nil {
		return nil, err
	}
	defer s.close()

	stored, err := s.Backend.GetNotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notes: %w", err)
	}
	for _, n := range stored {
		if n.ID != opts.ID {
			continue
		}
		text, err := s.Coordinator.Decrypt(n.Data)
		if err != nil {
			return nil, fmt.Errorf("note %d: %w", n.ID, err)
		}
		audit.Log(audit.LogWithDevice("show").WithNote(n.ID))
		return &Note{ID: n.ID, Text: text}, nil
	}
	return nil, fmt.Errorf("note %d: %w", opts.ID, kerrors.ErrNoteNotFound)
}

// EditNoteOptions configures the edit workflow.
type EditNoteOptions struct {
	SessionOptions
	ID   uint64
	Text string
}

// EditNote replaces the content of an existing note.
func EditNote(ctx context.Context, opts EditNoteOptions) error {
	s, err := syncedSession(ctx, opts.SessionOptions)
	if err != nil {
		return err
	}
	defer s.close()

	data, err := s.Coordinator.Encrypt(opts.Text)
	if err != nil {
		return fmt.Errorf("failed to encrypt note: %w", err)
	}
	if err := s.Backend.UpdateNote(ctx, opts.ID, data); err != nil {
		return fmt.Errorf("note %d: %w", opts.ID, err)
	}

	audit.Log(audit.LogWithDevice("edit").WithNote(opts.ID))
	return nil
}

// RemoveNote deletes a note.
func RemoveNote(ctx context.Context, opts NoteOptions) error {
	s, err := syncedSession(ctx, opts.SessionOptions)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.Backend.DeleteNote(ctx, opts.ID); err != nil {
		return fmt.Errorf("note %d: %w", opts.ID, err)
	}

	audit.Log(audit.LogWithDevice("rm").WithNote(opts.ID))
	return nil
}
