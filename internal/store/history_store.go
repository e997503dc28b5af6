package store

import (
	"context"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/domain"

	"gorm.io/gorm"
)

// HistoryStore writes to the shared staff-action history, scoped to the
// custom types in domain.TrackedHistoryTypes.
type HistoryStore struct{ db *gorm.DB }

func (s *Store) Histories() *HistoryStore { return &HistoryStore{db: s.DB} }

func (h *HistoryStore) tracked() *gorm.DB {
	return h.db.Model(&domain.UserHistory{}).
		Where("action = ? AND custom_type IN ?", domain.ActionCustomStaff, domain.TrackedHistoryTypes)
}

func (h *HistoryStore) Create(ctx context.Context, e *domain.UserHistory) error {
	if e.Action == 0 {
		e.Action = domain.ActionCustomStaff
	}
	return h.db.WithContext(ctx).Create(e).Error
}

func (h *HistoryStore) ForTarget(ctx context.Context, userID domain.UserID) ([]*domain.UserHistory, error) {
	var out []*domain.UserHistory
	err := h.tracked().WithContext(ctx).
		Where("target_user_id = ?", userID).
		Order("created_at desc, id desc").
		Find(&out).Error
	return out, err
}

func (h *HistoryStore) Recent(ctx context.Context, limit int) ([]*domain.UserHistory, error) {
	var out []*domain.UserHistory
	err := h.tracked().WithContext(ctx).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (h *HistoryStore) ByIDs(ctx context.Context, ids []domain.HistoryID) ([]*domain.UserHistory, error) {
	var out []*domain.UserHistory
	if len(ids) == 0 {
		return out, nil
	}
	err := h.db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

func (h *HistoryStore) Count(ctx context.Context) (int64, error) {
	var total int64
	err := h.tracked().WithContext(ctx).Count(&total).Error
	return total, err
}

// DeleteExcept removes tracked rows whose id is not in keep. Rows of other
// custom types are never touched.
func (h *HistoryStore) DeleteExcept(ctx context.Context, keep []domain.HistoryID) (int64, error) {
	q := h.db.WithContext(ctx).
		Where("action = ? AND custom_type IN ?", domain.ActionCustomStaff, domain.TrackedHistoryTypes)
	if len(keep) > 0 {
		q = q.Where("id NOT IN ?", keep)
	}
	tx := q.Delete(&domain.UserHistory{})
	return tx.RowsAffected, tx.Error
}

func (h *HistoryStore) Newest(ctx context.Context, limit int) ([]Stamp, error) {
	var out []Stamp
	err := h.tracked().WithContext(ctx).
		Select("id, created_at").
		Order("created_at desc, id desc").
		Limit(limit).
		Scan(&out).Error
	return out, err
}
