package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/domain"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/dto"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/notify"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/observability/metrics"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/store"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/taxonomy"
)

// UpdateStatus moves a recruit to the requested status. A blank status
// removes the recruit from tracking. Requests that match the effective
// current status write nothing and report Changed=false.
func (s *Service) UpdateStatus(ctx context.Context, actor *domain.User, userID domain.UserID, req dto.UpdateStatusRequest) (dto.UpdateStatusResponse, error) {
	if !s.access.CanManage(ctx, actor) {
		metrics.StatusChangesTotal.WithLabelValues("rejected").Inc()
		return dto.UpdateStatusResponse{}, domain.ErrUnauthorized
	}

	next := strings.TrimSpace(deref(req.Status))
	if !taxonomy.Valid(next) {
		metrics.StatusChangesTotal.WithLabelValues("rejected").Inc()
		return dto.UpdateStatusResponse{}, domain.Invalid("Status is not a valid recruit status")
	}

	// Prefixes are snapshotted before the transaction opens.
	userPrefix, actorPrefix := s.prefix(ctx, userID), s.prefix(ctx, actor.ID)

	var (
		prev   string
		change *domain.StatusChange
	)
	err := s.store.WithTx(ctx, func(tx *store.Store) error {
		user, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return notFound(err, "user", userID)
		}
		prev, err = s.effectiveStatus(ctx, tx, user)
		if err != nil {
			return err
		}
		if prev == next {
			return nil
		}

		if err := tx.Users().SetStatus(ctx, user.ID, optional(next)); err != nil {
			return fmt.Errorf("set status: %w", err)
		}
		change = &domain.StatusChange{
			UserID:              user.ID,
			ChangedByID:         actor.ID,
			PreviousStatus:      optional(prev),
			NewStatus:           optional(next),
			UserRankPrefix:      userPrefix,
			ChangedByRankPrefix: actorPrefix,
			CreatedAt:           s.now().UTC(),
		}
		if err := tx.StatusChanges().Create(ctx, change); err != nil {
			return fmt.Errorf("record status change: %w", err)
		}
		return nil
	})
	if err != nil {
		metrics.StatusChangesTotal.WithLabelValues("rejected").Inc()
		return dto.UpdateStatusResponse{}, err
	}

	res := dto.UpdateStatusResponse{
		UserID:         userID,
		PreviousStatus: optional(prev),
		PreviousLabel:  s.labels.Label(prev),
	}
	if change == nil {
		metrics.StatusChangesTotal.WithLabelValues("unchanged").Inc()
		res.Status = optional(prev)
		res.StatusLabel = s.labels.Label(prev)
		res.Neighbors = s.options(prev)
		return res, nil
	}

	metrics.StatusChangesTotal.WithLabelValues("changed").Inc()
	s.log.InfoContext(ctx, "recruit status changed",
		"user_id", userID,
		"actor_id", actor.ID,
		"previous_status", prev,
		"new_status", next,
	)

	s.trim(ctx)
	if s.notifier != nil {
		s.notifier.StatusChanged(ctx, notify.StatusChange{
			UserID:         userID,
			ActorID:        actor.ID,
			PreviousStatus: prev,
			NewStatus:      next,
		})
	}

	res.Status = optional(next)
	res.StatusLabel = s.labels.Label(next)
	res.Neighbors = s.options(next)
	res.Changed = true
	res.ChangeID = &change.ID
	return res, nil
}

// StatusHistory returns every recorded change for a user, newest first.
func (s *Service) StatusHistory(ctx context.Context, userID domain.UserID) ([]dto.StatusChange, error) {
	changes, err := s.store.StatusChanges().ForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load status history: %w", err)
	}
	ids := make([]domain.UserID, 0, len(changes))
	for _, c := range changes {
		ids = append(ids, c.ChangedByID)
	}
	actors, err := s.users(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StatusChange, 0, len(changes))
	for _, c := range changes {
		out = append(out, dto.StatusChange{
			ID:                  c.ID,
			PreviousStatus:      c.PreviousStatus,
			PreviousLabel:       s.labels.Label(deref(c.PreviousStatus)),
			NewStatus:           c.NewStatus,
			NewLabel:            s.labels.Label(deref(c.NewStatus)),
			ChangedBy:           userRef(actors[c.ChangedByID]),
			UserRankPrefix:      c.UserRankPrefix,
			ChangedByRankPrefix: c.ChangedByRankPrefix,
			CreatedAt:           c.CreatedAt,
		})
	}
	return out, nil
}
