package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/auditlog"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/domain"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/dto"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/store"
)

func (s *Service) UserDetail(ctx context.Context, actor *domain.User, userID domain.UserID) (dto.UserDetail, error) {
	if !s.access.CanView(ctx, actor) {
		return dto.UserDetail{}, domain.ErrUnauthorized
	}
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return dto.UserDetail{}, notFound(err, "user", userID)
	}
	status, err := s.effectiveStatus(ctx, s.store, user)
	if err != nil {
		return dto.UserDetail{}, err
	}

	out := dto.UserDetail{
		User:           *userRef(user),
		Status:         optional(status),
		StatusLabel:    s.labels.Label(status),
		Neighbors:      s.options(status),
		ManualTracking: user.ManualTracking,
		CanManage:      s.access.CanManage(ctx, actor),
	}
	if s.caps.JoinDate {
		out.JoinedAt = user.JoinedAt
	}

	note, err := s.store.Notes().CurrentForUser(ctx, userID)
	switch {
	case errors.Is(err, store.ErrRecordNotFound):
	case err != nil:
		return dto.UserDetail{}, fmt.Errorf("load note: %w", err)
	default:
		author, err := s.noteAuthor(ctx, note)
		if err != nil {
			return dto.UserDetail{}, err
		}
		out.Note = noteView(note, author)
	}

	if out.StatusHistory, err = s.StatusHistory(ctx, userID); err != nil {
		return dto.UserDetail{}, err
	}
	if out.NoteHistory, err = s.NoteHistory(ctx, userID); err != nil {
		return dto.UserDetail{}, err
	}
	return out, nil
}

// Audit returns the full retained audit feed, newest first.
func (s *Service) Audit(ctx context.Context, actor *domain.User) (dto.AuditResponse, error) {
	if !s.access.CanManage(ctx, actor) {
		return dto.AuditResponse{}, domain.ErrUnauthorized
	}
	entries, err := s.AuditFeed(ctx, auditlog.MaxEntries)
	if err != nil {
		return dto.AuditResponse{}, err
	}
	return dto.AuditResponse{Entries: entries}, nil
}

// AuditFeed renders up to limit entries without an access check. Used by
// the admin CLI.
func (s *Service) AuditFeed(ctx context.Context, limit int) ([]dto.AuditEntry, error) {
	return s.auditEntries(ctx, limit)
}

func (s *Service) auditEntries(ctx context.Context, limit int) ([]dto.AuditEntry, error) {
	entries, err := auditlog.Recent(ctx, s.store, limit)
	if err != nil {
		return nil, fmt.Errorf("load audit log: %w", err)
	}

	var ids []domain.UserID
	for _, e := range entries {
		switch e.Kind {
		case auditlog.KindStatus:
			ids = append(ids, e.Status.UserID, e.Status.ChangedByID)
		case auditlog.KindNote:
			ids = append(ids, e.History.ActingUserID)
			if e.History.TargetUserID != nil {
				ids = append(ids, *e.History.TargetUserID)
			}
		}
	}
	users, err := s.users(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]dto.AuditEntry, 0, len(entries))
	for _, e := range entries {
		row := dto.AuditEntry{Kind: string(e.Kind), CreatedAt: e.CreatedAt}
		switch e.Kind {
		case auditlog.KindStatus:
			c := e.Status
			row.ID = c.ID
			row.Action = "status_changed"
			row.User = userRef(users[c.UserID])
			row.Actor = userRef(users[c.ChangedByID])
			row.UserPrefix = c.UserRankPrefix
			row.ActorPrefix = c.ChangedByRankPrefix
			row.PreviousStatus = c.PreviousStatus
			row.PreviousLabel = s.labels.Label(deref(c.PreviousStatus))
			row.NewStatus = c.NewStatus
			row.NewLabel = s.labels.Label(deref(c.NewStatus))
		case auditlog.KindNote:
			h := e.History
			row.ID = h.ID
			row.Action = domain.HistoryAction(h.CustomType)
			row.Actor = userRef(users[h.ActingUserID])
			if h.TargetUserID != nil {
				row.User = userRef(users[*h.TargetUserID])
			}
			row.NoteID = h.NoteID
		}
		out = append(out, row)
	}
	return out, nil
}
