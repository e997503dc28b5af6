// Package storetest opens throwaway sqlite stores for tests.
package storetest

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/domain"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/store"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var opened atomic.Int64

// Open returns a migrated in-memory store private to t.
func Open(t *testing.T) *store.Store {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, opened.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	st := store.New(db)
	if err := st.AutoMigrate(context.Background(), true); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return st
}

// Fixture seeds collaborator rows.
type Fixture struct {
	t  *testing.T
	st *store.Store
}

func NewFixture(t *testing.T, st *store.Store) *Fixture { return &Fixture{t: t, st: st} }

func (f *Fixture) User(id domain.UserID, username string, createdAt time.Time) *domain.User {
	f.t.Helper()
	u := &domain.User{ID: id, Username: username, Name: strings.ToUpper(username[:1]) + username[1:], CreatedAt: createdAt}
	if err := f.st.DB.Create(u).Error; err != nil {
		f.t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func (f *Fixture) Group(id domain.GroupID, name string, members ...domain.UserID) {
	f.t.Helper()
	if err := f.st.DB.Create(&domain.Group{ID: id, Name: name}).Error; err != nil {
		f.t.Fatalf("create group %s: %v", name, err)
	}
	for _, uid := range members {
		if err := f.st.DB.Create(&domain.GroupUser{GroupID: id, UserID: uid}).Error; err != nil {
			f.t.Fatalf("add member %d: %v", uid, err)
		}
	}
}

func (f *Fixture) RankPrefix(id domain.UserID, prefix string) {
	f.t.Helper()
	if err := f.st.DB.Create(&domain.RankPrefix{UserID: id, Prefix: prefix}).Error; err != nil {
		f.t.Fatalf("create rank prefix: %v", err)
	}
}
