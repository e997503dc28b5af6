package store

import (
	"context"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/domain"

	"gorm.io/gorm"
)

type StatusChangeStore struct{ db *gorm.DB }

func (s *Store) StatusChanges() *StatusChangeStore { return &StatusChangeStore{db: s.DB} }

func (sc *StatusChangeStore) Create(ctx context.Context, c *domain.StatusChange) error {
	return sc.db.WithContext(ctx).Create(c).Error
}

func (sc *StatusChangeStore) ForUser(ctx context.Context, userID domain.UserID) ([]*domain.StatusChange, error) {
	var out []*domain.StatusChange
	err := sc.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Find(&out).Error
	return out, err
}

// LatestByUser returns the most recent change per user.
func (sc *StatusChangeStore) LatestByUser(ctx context.Context, userIDs []domain.UserID) (map[domain.UserID]*domain.StatusChange, error) {
	out := make(map[domain.UserID]*domain.StatusChange, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var rows []*domain.StatusChange
	if err := sc.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Order("created_at desc, id desc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		if _, seen := out[r.UserID]; !seen {
			out[r.UserID] = r
		}
	}
	return out, nil
}

// Recent returns up to limit changes, newest first.
func (sc *StatusChangeStore) Recent(ctx context.Context, limit int) ([]*domain.StatusChange, error) {
	var out []*domain.StatusChange
	err := sc.db.WithContext(ctx).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (sc *StatusChangeStore) ByIDs(ctx context.Context, ids []domain.StatusChangeID) ([]*domain.StatusChange, error) {
	var out []*domain.StatusChange
	if len(ids) == 0 {
		return out, nil
	}
	err := sc.db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

func (sc *StatusChangeStore) Count(ctx context.Context) (int64, error) {
	var total int64
	err := sc.db.WithContext(ctx).Model(&domain.StatusChange{}).Count(&total).Error
	return total, err
}

// DeleteExcept removes every change whose id is not in keep. An empty keep
// deletes all rows.
func (sc *StatusChangeStore) DeleteExcept(ctx context.Context, keep []domain.StatusChangeID) (int64, error) {
	db := sc.db.WithContext(ctx)
	var tx *gorm.DB
	if len(keep) == 0 {
		tx = db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&domain.StatusChange{})
	} else {
		tx = db.Where("id NOT IN ?", keep).Delete(&domain.StatusChange{})
	}
	return tx.RowsAffected, tx.Error
}

// Newest returns the id and timestamp of up to limit most recent changes.
func (sc *StatusChangeStore) Newest(ctx context.Context, limit int) ([]Stamp, error) {
	var out []Stamp
	err := sc.db.WithContext(ctx).Model(&domain.StatusChange{}).
		Select("id, created_at").
		Order("created_at desc, id desc").
		Limit(limit).
		Scan(&out).Error
	return out, err
}
