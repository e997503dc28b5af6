package store

import (
	"context"
	"time"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/domain"

	"gorm.io/gorm"
)

type UserStore struct{ db *gorm.DB }

func (s *Store) Users() *UserStore { return &UserStore{db: s.DB} }

func (u *UserStore) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	var user domain.User
	if err := u.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (u *UserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	if err := u.db.WithContext(ctx).First(&user, "LOWER(username) = LOWER(?)", username).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// ListByIDs returns users keyed by id; missing ids are absent from the map.
func (u *UserStore) ListByIDs(ctx context.Context, ids []domain.UserID) (map[domain.UserID]*domain.User, error) {
	out := make(map[domain.UserID]*domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []*domain.User
	if err := u.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, usr := range users {
		out[usr.ID] = usr
	}
	return out, nil
}

// Tracked returns users whose status is one of keys, plus users listed in
// extraIDs or flagged for manual tracking that have no status yet.
func (u *UserStore) Tracked(ctx context.Context, keys []string, extraIDs []domain.UserID) ([]*domain.User, error) {
	q := u.db.WithContext(ctx).
		Where("recruit_status IN ?", keys).
		Or("((recruit_status IS NULL OR recruit_status = '') AND recruit_manual_tracking = ?)", true)
	if len(extraIDs) > 0 {
		q = q.Or("((recruit_status IS NULL OR recruit_status = '') AND id IN ?)", extraIDs)
	}
	var users []*domain.User
	if err := q.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (u *UserStore) SetStatus(ctx context.Context, id domain.UserID, status *string) error {
	return u.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Update("recruit_status", status).Error
}

func (u *UserStore) SetManualTracking(ctx context.Context, id domain.UserID, enabled bool) error {
	return u.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Update("recruit_manual_tracking", enabled).Error
}

// JoinDates reads users.joined_at for ids that have one.
func (u *UserStore) JoinDates(ctx context.Context, ids []domain.UserID) (map[domain.UserID]time.Time, error) {
	out := make(map[domain.UserID]time.Time, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		ID       domain.UserID
		JoinedAt *time.Time
	}
	if err := u.db.WithContext(ctx).Model(&domain.User{}).
		Select("id, joined_at").
		Where("id IN ? AND joined_at IS NOT NULL", ids).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		if r.JoinedAt != nil {
			out[r.ID] = *r.JoinedAt
		}
	}
	return out, nil
}
