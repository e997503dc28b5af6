package store

import (
	"context"
	"errors"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/domain"

	"gorm.io/gorm"
)

// RankPrefixStore reads display prefixes written by the ranking integration.
type RankPrefixStore struct{ db *gorm.DB }

func (s *Store) RankPrefixes() *RankPrefixStore { return &RankPrefixStore{db: s.DB} }

// PrefixFor returns "" when the user has no prefix.
func (r *RankPrefixStore) PrefixFor(ctx context.Context, userID domain.UserID) (string, error) {
	var rp domain.RankPrefix
	err := r.db.WithContext(ctx).First(&rp, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return rp.Prefix, nil
}

// PrefixesFor returns prefixes keyed by user id; users without one are absent.
func (r *RankPrefixStore) PrefixesFor(ctx context.Context, userIDs []domain.UserID) (map[domain.UserID]string, error) {
	out := make(map[domain.UserID]string, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var rows []domain.RankPrefix
	if err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, rp := range rows {
		if rp.Prefix != "" {
			out[rp.UserID] = rp.Prefix
		}
	}
	return out, nil
}
