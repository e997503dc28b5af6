package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/domain"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/dto"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/observability/metrics"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/store"
)

const (
	NoteCreated = "created"
	NoteUpdated = "updated"
	NoteCleared = "cleared"
	NoteDeleted = "deleted"
)

var noteHistoryType = map[string]string{
	NoteCreated: domain.HistoryNoteCreated,
	NoteUpdated: domain.HistoryNoteUpdated,
	NoteCleared: domain.HistoryNoteCleared,
	NoteDeleted: domain.HistoryNoteDeleted,
}

func checkNoteLength(text string) error {
	if utf8.RuneCountInString(text) > domain.MaxNoteLength {
		return domain.Invalid(fmt.Sprintf("Note is too long (maximum is %d characters)", domain.MaxNoteLength))
	}
	return nil
}

// SaveNote writes the single note kept for a user. Blank text clears an
// existing note; with no note present it is a no-op.
func (s *Service) SaveNote(ctx context.Context, actor *domain.User, userID domain.UserID, req dto.CreateNoteRequest) (dto.NoteResponse, error) {
	if !s.access.CanManage(ctx, actor) {
		return dto.NoteResponse{}, domain.ErrUnauthorized
	}
	text := strings.TrimSpace(req.Note)
	if err := checkNoteLength(text); err != nil {
		return dto.NoteResponse{}, err
	}

	var (
		action string
		note   *domain.Note
	)
	err := s.store.WithTx(ctx, func(tx *store.Store) error {
		if _, err := tx.Users().GetByID(ctx, userID); err != nil {
			return notFound(err, "user", userID)
		}
		current, err := tx.Notes().CurrentForUser(ctx, userID)
		if err != nil && !errors.Is(err, store.ErrRecordNotFound) {
			return fmt.Errorf("load note: %w", err)
		}

		if text == "" {
			if current == nil {
				return nil
			}
			if _, err := tx.Notes().DeleteAllForUser(ctx, userID); err != nil {
				return fmt.Errorf("clear note: %w", err)
			}
			action = NoteCleared
			return s.recordHistory(ctx, tx, actor.ID, domain.HistoryNoteCleared, userID, &current.ID)
		}

		now := s.now().UTC()
		note = current
		action = NoteUpdated
		if note == nil {
			note = &domain.Note{UserID: userID, CreatedAt: now}
			action = NoteCreated
		}
		note.Note = text
		note.CreatedByID = actor.ID
		if req.Pinned != nil {
			note.Pinned = *req.Pinned
		}
		note.UpdatedAt = now
		if err := tx.Notes().Save(ctx, note); err != nil {
			return fmt.Errorf("save note: %w", err)
		}
		if n, err := tx.Notes().DeleteOthersForUser(ctx, userID, note.ID); err != nil {
			return fmt.Errorf("remove duplicate notes: %w", err)
		} else if n > 0 {
			s.log.WarnContext(ctx, "removed duplicate notes", "user_id", userID, "count", n)
		}
		return s.recordHistory(ctx, tx, actor.ID, noteHistoryType[action], userID, &note.ID)
	})
	if err != nil {
		return dto.NoteResponse{}, err
	}
	if action == "" {
		return dto.NoteResponse{}, nil
	}

	s.afterNoteAction(ctx, action, actor, userID)
	return dto.NoteResponse{Note: noteView(note, actor), Action: action, Changed: true}, nil
}

// UpdateNote patches the fields present in req. Present but blank text is
// rejected; clearing goes through SaveNote or DeleteNote.
func (s *Service) UpdateNote(ctx context.Context, actor *domain.User, noteID domain.NoteID, req dto.UpdateNoteRequest) (dto.NoteResponse, error) {
	if !s.access.CanManage(ctx, actor) {
		return dto.NoteResponse{}, domain.ErrUnauthorized
	}
	var text string
	if req.Note != nil {
		text = strings.TrimSpace(*req.Note)
		if text == "" {
			return dto.NoteResponse{}, domain.Invalid("Note can't be blank")
		}
		if err := checkNoteLength(text); err != nil {
			return dto.NoteResponse{}, err
		}
	}

	var note *domain.Note
	changed := false
	err := s.store.WithTx(ctx, func(tx *store.Store) error {
		var err error
		note, err = tx.Notes().GetByID(ctx, noteID)
		if err != nil {
			return notFound(err, "note", noteID)
		}
		if (req.Note == nil || text == note.Note) && (req.Pinned == nil || *req.Pinned == note.Pinned) {
			return nil
		}
		changed = true
		if req.Note != nil {
			note.Note = text
			note.CreatedByID = actor.ID
		}
		if req.Pinned != nil {
			note.Pinned = *req.Pinned
		}
		note.UpdatedAt = s.now().UTC()
		if err := tx.Notes().Save(ctx, note); err != nil {
			return fmt.Errorf("save note: %w", err)
		}
		return s.recordHistory(ctx, tx, actor.ID, domain.HistoryNoteUpdated, note.UserID, &note.ID)
	})
	if err != nil {
		return dto.NoteResponse{}, err
	}

	if changed {
		s.afterNoteAction(ctx, NoteUpdated, actor, note.UserID)
	}
	author, err := s.noteAuthor(ctx, note)
	if err != nil {
		return dto.NoteResponse{}, err
	}
	res := dto.NoteResponse{Note: noteView(note, author)}
	if changed {
		res.Action = NoteUpdated
		res.Changed = true
	}
	return res, nil
}

// noteAuthor loads the note's author. A missing account yields nil so the
// note still renders as written by a deleted user.
func (s *Service) noteAuthor(ctx context.Context, note *domain.Note) (*domain.User, error) {
	author, err := s.store.Users().GetByID(ctx, note.CreatedByID)
	switch {
	case errors.Is(err, store.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("load note author: %w", err)
	}
	return author, nil
}

func (s *Service) DeleteNote(ctx context.Context, actor *domain.User, noteID domain.NoteID) (dto.NoteResponse, error) {
	if !s.access.CanManage(ctx, actor) {
		return dto.NoteResponse{}, domain.ErrUnauthorized
	}
	var userID domain.UserID
	err := s.store.WithTx(ctx, func(tx *store.Store) error {
		note, err := tx.Notes().GetByID(ctx, noteID)
		if err != nil {
			return notFound(err, "note", noteID)
		}
		userID = note.UserID
		if err := tx.Notes().Delete(ctx, note.ID); err != nil {
			return fmt.Errorf("delete note: %w", err)
		}
		return s.recordHistory(ctx, tx, actor.ID, domain.HistoryNoteDeleted, note.UserID, &note.ID)
	})
	if err != nil {
		return dto.NoteResponse{}, err
	}

	s.afterNoteAction(ctx, NoteDeleted, actor, userID)
	return dto.NoteResponse{Action: NoteDeleted, Changed: true}, nil
}

// Notes lists the note rows held for a user. Normally there is at most one.
func (s *Service) Notes(ctx context.Context, actor *domain.User, userID domain.UserID) ([]dto.Note, error) {
	if !s.access.CanView(ctx, actor) {
		return nil, domain.ErrUnauthorized
	}
	if _, err := s.store.Users().GetByID(ctx, userID); err != nil {
		return nil, notFound(err, "user", userID)
	}
	rows, err := s.store.Notes().ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	ids := make([]domain.UserID, 0, len(rows))
	for _, n := range rows {
		ids = append(ids, n.CreatedByID)
	}
	authors, err := s.users(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]dto.Note, 0, len(rows))
	for _, n := range rows {
		out = append(out, *noteView(n, authors[n.CreatedByID]))
	}
	return out, nil
}

// NoteHistory returns the note and manual-tracking events for a user.
func (s *Service) NoteHistory(ctx context.Context, userID domain.UserID) ([]dto.HistoryEvent, error) {
	rows, err := s.store.Histories().ForTarget(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load note history: %w", err)
	}
	ids := make([]domain.UserID, 0, len(rows))
	for _, h := range rows {
		ids = append(ids, h.ActingUserID)
	}
	actors, err := s.users(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]dto.HistoryEvent, 0, len(rows))
	for _, h := range rows {
		out = append(out, dto.HistoryEvent{
			ID:        h.ID,
			Action:    domain.HistoryAction(h.CustomType),
			Actor:     userRef(actors[h.ActingUserID]),
			NoteID:    h.NoteID,
			CreatedAt: h.CreatedAt,
		})
	}
	return out, nil
}

func (s *Service) afterNoteAction(ctx context.Context, action string, actor *domain.User, userID domain.UserID) {
	metrics.NoteActionsTotal.WithLabelValues(action).Inc()
	s.log.InfoContext(ctx, "recruit note "+action, "user_id", userID, "actor_id", actor.ID)
	s.trim(ctx)
}
