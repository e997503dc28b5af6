package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/domain"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/dto"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/settings"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/store"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/taxonomy"
)

// SetManualTracking adds or removes a user from tracking outside the recruit
// group. Recruit group members are governed by membership and cannot be
// toggled.
func (s *Service) SetManualTracking(ctx context.Context, actor *domain.User, req dto.ManualTrackingRequest, enabled bool) (dto.ManualTrackingResponse, error) {
	if !s.access.CanManage(ctx, actor) {
		return dto.ManualTrackingResponse{}, domain.ErrUnauthorized
	}
	if !s.caps.ManualTracking {
		return dto.ManualTrackingResponse{}, domain.RuleFailed("Manual tracking is not enabled")
	}
	username := strings.TrimSpace(req.Username)
	if req.UserID == nil && username == "" {
		return dto.ManualTrackingResponse{}, domain.Invalid("A user id or username is required")
	}

	var (
		res     dto.ManualTrackingResponse
		changed bool
	)
	err := s.store.WithTx(ctx, func(tx *store.Store) error {
		user, err := s.findUser(ctx, tx, req.UserID, username)
		if err != nil {
			return err
		}
		res.UserID = user.ID

		recruit, err := s.isRecruit(ctx, tx, user.ID)
		if err != nil {
			return err
		}

		if enabled {
			changed, err = s.enableManual(ctx, tx, user, recruit)
		} else {
			changed, err = s.disableManual(ctx, tx, user, recruit)
		}
		if err != nil {
			return err
		}
		res.ManualTracking = user.ManualTracking
		res.Status = user.RecruitStatus
		if !changed {
			return nil
		}

		kind := domain.HistoryManualRemoved
		if enabled {
			kind = domain.HistoryManualAdded
		}
		return s.recordHistory(ctx, tx, actor.ID, kind, user.ID, nil)
	})
	if err != nil {
		return dto.ManualTrackingResponse{}, err
	}

	res.Changed = changed
	if changed {
		s.log.InfoContext(ctx, "manual tracking updated", "user_id", res.UserID, "actor_id", actor.ID, "enabled", enabled)
		s.trim(ctx)
	}
	return res, nil
}

func (s *Service) findUser(ctx context.Context, tx *store.Store, id *domain.UserID, username string) (*domain.User, error) {
	if id != nil {
		u, err := tx.Users().GetByID(ctx, *id)
		if err != nil {
			return nil, notFound(err, "user", *id)
		}
		return u, nil
	}
	u, err := tx.Users().GetByUsername(ctx, username)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %q", domain.ErrNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("load user %q: %w", username, err)
	}
	return u, nil
}

func (s *Service) enableManual(ctx context.Context, tx *store.Store, u *domain.User, recruit bool) (bool, error) {
	allowed, err := s.manualAllowed(ctx, tx, u.ID)
	if err != nil {
		return false, err
	}
	if !allowed {
		return false, domain.RuleFailed("User is not in a group that can be tracked manually")
	}
	if recruit {
		return false, domain.RuleFailed("User is already tracked through the recruit group")
	}
	if u.ManualTracking {
		return false, nil
	}

	if err := tx.Users().SetManualTracking(ctx, u.ID, true); err != nil {
		return false, fmt.Errorf("set manual tracking: %w", err)
	}
	u.ManualTracking = true
	if u.Status() == "" {
		u.SetStatus(taxonomy.First())
		if err := tx.Users().SetStatus(ctx, u.ID, u.RecruitStatus); err != nil {
			return false, fmt.Errorf("set initial status: %w", err)
		}
	}
	return true, nil
}

func (s *Service) disableManual(ctx context.Context, tx *store.Store, u *domain.User, recruit bool) (bool, error) {
	if recruit {
		return false, domain.RuleFailed("Recruit group members cannot be removed from tracking")
	}
	if !u.ManualTracking {
		return false, domain.RuleFailed("User is not manually tracked")
	}
	if err := tx.Users().SetManualTracking(ctx, u.ID, false); err != nil {
		return false, fmt.Errorf("clear manual tracking: %w", err)
	}
	u.ManualTracking = false
	return true, nil
}

// manualAllowed reports whether u may be added manually. An empty
// manual_add_groups setting allows anyone.
func (s *Service) manualAllowed(ctx context.Context, tx *store.Store, userID domain.UserID) (bool, error) {
	raw := s.settings.IntList(settings.ManualAddGroups)
	if len(raw) == 0 {
		return true, nil
	}
	ids := make([]domain.GroupID, len(raw))
	for i, id := range raw {
		ids[i] = domain.GroupID(id)
	}
	ok, err := tx.Groups().UserInAny(ctx, userID, ids)
	if err != nil {
		return false, fmt.Errorf("check manual add groups: %w", err)
	}
	return ok, nil
}
