package store

import (
	"context"
	"errors"
	"time"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/domain"

	"gorm.io/gorm"
)

var ErrRecordNotFound = errors.New("record not found")

type Store struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Store { return &Store{DB: db} }

func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{DB: tx})
	})
}

// AutoMigrate creates the tables owned by this service. When external is true
// the collaborator tables (users, groups, memberships, history, rank
// prefixes) are created as well, which is only wanted for local sqlite runs
// and tests.
func (s *Store) AutoMigrate(ctx context.Context, external bool) error {
	models := []any{&domain.StatusChange{}, &domain.Note{}}
	if external {
		models = append(models, &domain.User{}, &domain.Group{}, &domain.GroupUser{}, &domain.UserHistory{}, &domain.RankPrefix{})
	}
	return s.DB.WithContext(ctx).AutoMigrate(models...)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	return err
}

// Stamp is the id and creation time of an audit row.
type Stamp struct {
	ID        int64
	CreatedAt time.Time
}
