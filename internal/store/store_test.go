package store_test

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/domain"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/store"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/store/storetest"
)

func strp(s string) *string { return &s }

func TestTrackedUsers(t *testing.T) {
	st := storetest.Open(t)
	fx := storetest.NewFixture(t, st)
	ctx := context.Background()
	now := time.Now().UTC()

	fx.User(1, "withstatus", now)
	fx.User(2, "manual", now)
	fx.User(3, "grouped", now)
	fx.User(4, "unrelated", now)
	fx.User(5, "oldstatus", now)

	users := st.Users()
	if err := users.SetStatus(ctx, 1, strp("attended_recruit_training")); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if err := users.SetManualTracking(ctx, 2, true); err != nil {
		t.Fatalf("set manual: %v", err)
	}
	if err := users.SetStatus(ctx, 5, strp("retired_status")); err != nil {
		t.Fatalf("set status: %v", err)
	}

	got, err := users.Tracked(ctx, []string{"attended_recruit_training"}, []domain.UserID{3, 5})
	if err != nil {
		t.Fatalf("tracked: %v", err)
	}
	var ids []int
	for _, u := range got {
		ids = append(ids, int(u.ID))
	}
	sort.Ints(ids)
	if len(ids) != 3 || ids[0] != 1 || ids[1] != 2 || ids[2] != 3 {
		t.Fatalf("tracked ids = %v", ids)
	}
}

func TestManualTrackingColumnRoundTrip(t *testing.T) {
	st := storetest.Open(t)
	fx := storetest.NewFixture(t, st)
	ctx := context.Background()
	fx.User(9, "blank", time.Now().UTC())

	for _, col := range []string{"recruit_status", "recruit_manual_tracking"} {
		if !st.DB.Migrator().HasColumn(&domain.User{}, col) {
			t.Fatalf("users table is missing column %s", col)
		}
	}

	users := st.Users()
	if err := users.SetManualTracking(ctx, 9, true); err != nil {
		t.Fatalf("set manual: %v", err)
	}
	u, err := users.GetByID(ctx, 9)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !u.ManualTracking || u.RecruitStatus != nil {
		t.Fatalf("unexpected user after flagging: %+v", u)
	}

	got, err := users.Tracked(ctx, nil, nil)
	if err != nil {
		t.Fatalf("tracked: %v", err)
	}
	if len(got) != 1 || got[0].ID != 9 {
		t.Fatalf("manually flagged user with blank status not tracked: %+v", got)
	}

	if err := users.SetManualTracking(ctx, 9, false); err != nil {
		t.Fatalf("clear manual: %v", err)
	}
	if got, err = users.Tracked(ctx, nil, nil); err != nil || len(got) != 0 {
		t.Fatalf("expected nothing tracked, got %v %+v", err, got)
	}
}

func TestGetByUsernameIsCaseInsensitive(t *testing.T) {
	st := storetest.Open(t)
	storetest.NewFixture(t, st).User(7, "Recruit", time.Now())

	u, err := st.Users().GetByUsername(context.Background(), "rEcRuIt")
	if err != nil || u.ID != 7 {
		t.Fatalf("lookup: %v %+v", err, u)
	}
	if _, err := st.Users().GetByUsername(context.Background(), "nobody"); !errors.Is(err, store.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestLatestChangePerUser(t *testing.T) {
	st := storetest.Open(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, c := range []struct {
		user domain.UserID
		to   string
	}{{1, "a"}, {1, "b"}, {2, "c"}} {
		row := &domain.StatusChange{UserID: c.user, ChangedByID: 9, NewStatus: strp(c.to), CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := st.StatusChanges().Create(ctx, row); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	latest, err := st.StatusChanges().LatestByUser(ctx, []domain.UserID{1, 2, 3})
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(latest) != 2 || *latest[1].NewStatus != "b" || *latest[2].NewStatus != "c" {
		t.Fatalf("unexpected latest: %+v", latest)
	}
}

func TestWithTxRollsBack(t *testing.T) {
	st := storetest.Open(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := st.WithTx(ctx, func(tx *store.Store) error {
		if err := tx.StatusChanges().Create(ctx, &domain.StatusChange{UserID: 1, ChangedByID: 2, NewStatus: strp("x"), CreatedAt: time.Now()}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if n, _ := st.StatusChanges().Count(ctx); n != 0 {
		t.Fatalf("rolled back insert survived: %d rows", n)
	}
}

func TestNoteDedupeHelpers(t *testing.T) {
	st := storetest.Open(t)
	ctx := context.Background()
	now := time.Now().UTC()

	var keep domain.NoteID
	for i := 0; i < 3; i++ {
		n := &domain.Note{UserID: 1, CreatedByID: 2, Note: "n", CreatedAt: now, UpdatedAt: now.Add(time.Duration(i) * time.Second)}
		if err := st.Notes().Save(ctx, n); err != nil {
			t.Fatalf("save: %v", err)
		}
		keep = n.ID
	}

	cur, err := st.Notes().CurrentForUser(ctx, 1)
	if err != nil || cur.ID != keep {
		t.Fatalf("current = %+v, %v", cur, err)
	}
	removed, err := st.Notes().DeleteOthersForUser(ctx, 1, keep)
	if err != nil || removed != 2 {
		t.Fatalf("delete others: %d, %v", removed, err)
	}
	if _, err := st.Notes().GetByID(ctx, keep); err != nil {
		t.Fatalf("kept note missing: %v", err)
	}
}
