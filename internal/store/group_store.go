package store

import (
	"context"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/domain"

	"gorm.io/gorm"
)

// GroupStore reads group membership owned by the identity system.
type GroupStore struct{ db *gorm.DB }

func (s *Store) Groups() *GroupStore { return &GroupStore{db: s.DB} }

func (g *GroupStore) UserInAny(ctx context.Context, userID domain.UserID, groupIDs []domain.GroupID) (bool, error) {
	if len(groupIDs) == 0 {
		return false, nil
	}
	var total int64
	err := g.db.WithContext(ctx).Model(&domain.GroupUser{}).
		Where("user_id = ? AND group_id IN ?", userID, groupIDs).
		Count(&total).Error
	return total > 0, err
}

func (g *GroupStore) UserInNamed(ctx context.Context, userID domain.UserID, name string) (bool, error) {
	var total int64
	err := g.db.WithContext(ctx).Model(&domain.GroupUser{}).
		Joins("JOIN groups ON groups.id = group_users.group_id").
		Where("group_users.user_id = ? AND groups.name = ?", userID, name).
		Count(&total).Error
	return total > 0, err
}

func (g *GroupStore) MembersOfNamed(ctx context.Context, name string) ([]domain.UserID, error) {
	var ids []domain.UserID
	err := g.db.WithContext(ctx).Model(&domain.GroupUser{}).
		Joins("JOIN groups ON groups.id = group_users.group_id").
		Where("groups.name = ?", name).
		Pluck("group_users.user_id", &ids).Error
	return ids, err
}
