package store

import (
	"context"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/domain"

	"gorm.io/gorm"
)

type NoteStore struct{ db *gorm.DB }

func (s *Store) Notes() *NoteStore { return &NoteStore{db: s.DB} }

func (n *NoteStore) GetByID(ctx context.Context, id domain.NoteID) (*domain.Note, error) {
	var note domain.Note
	if err := n.db.WithContext(ctx).First(&note, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &note, nil
}

// CurrentForUser returns the newest note row for a user.
func (n *NoteStore) CurrentForUser(ctx context.Context, userID domain.UserID) (*domain.Note, error) {
	var note domain.Note
	err := n.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at desc, id desc").
		First(&note).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &note, nil
}

// CurrentByUser returns the newest note per user.
func (n *NoteStore) CurrentByUser(ctx context.Context, userIDs []domain.UserID) (map[domain.UserID]*domain.Note, error) {
	out := make(map[domain.UserID]*domain.Note, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var rows []*domain.Note
	if err := n.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Order("updated_at desc, id desc").
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

func (n *NoteStore) ListForUser(ctx context.Context, userID domain.UserID) ([]*domain.Note, error) {
	var out []*domain.Note
	err := n.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("pinned desc, created_at desc").
		Find(&out).Error
	return out, err
}

func (n *NoteStore) Save(ctx context.Context, note *domain.Note) error {
	return n.db.WithContext(ctx).Save(note).Error
}

func (n *NoteStore) Delete(ctx context.Context, id domain.NoteID) error {
	return n.db.WithContext(ctx).Delete(&domain.Note{}, "id = ?", id).Error
}

// DeleteOthersForUser removes stray rows for userID other than keep.
func (n *NoteStore) DeleteOthersForUser(ctx context.Context, userID domain.UserID, keep domain.NoteID) (int64, error) {
	tx := n.db.WithContext(ctx).
		Where("user_id = ? AND id <> ?", userID, keep).
		Delete(&domain.Note{})
	return tx.RowsAffected, tx.Error
}

func (n *NoteStore) DeleteAllForUser(ctx context.Context, userID domain.UserID) (int64, error) {
	tx := n.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.Note{})
	return tx.RowsAffected, tx.Error
}
