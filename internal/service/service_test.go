package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/auditlog"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/domain"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/dto"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/notify"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/service"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/settings"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/store"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/store/storetest"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/taxonomy"
)

const (
	recruitID  domain.UserID = 1
	managerID  domain.UserID = 2
	viewerID   domain.UserID = 3
	outsiderID domain.UserID = 4
)

type recordingNotifier struct {
	calls []notify.StatusChange
}

func (r *recordingNotifier) StatusChanged(_ context.Context, c notify.StatusChange) bool {
	r.calls = append(r.calls, c)
	return true
}

type harness struct {
	st       *store.Store
	fx       *storetest.Fixture
	svc      *service.Service
	notifier *recordingNotifier
	users    map[domain.UserID]*domain.User
}

func setup(t *testing.T, caps service.Capabilities) *harness {
	t.Helper()
	st := storetest.Open(t)
	fx := storetest.NewFixture(t, st)

	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	h := &harness{st: st, fx: fx, notifier: &recordingNotifier{}, users: map[domain.UserID]*domain.User{}}
	for id, name := range map[domain.UserID]string{
		recruitID:  "recruit",
		managerID:  "sergeant",
		viewerID:   "corporal",
		outsiderID: "civilian",
	} {
		h.users[id] = fx.User(id, name, base.Add(time.Duration(id)*time.Hour))
	}
	fx.Group(10, "Viewers", viewerID)
	fx.Group(20, "Staff", managerID)
	fx.Group(30, settings.DefaultRecruitGroup, recruitID)

	tick := base.Add(24 * time.Hour)
	h.svc = service.New(service.Options{
		Store: st,
		Settings: settings.Static{
			settings.ViewGroups:   []int64{10},
			settings.ManageGroups: []int64{20},
		},
		Trimmer:      auditlog.NewTrimmer(st, nil),
		Notifier:     h.notifier,
		Ranks:        st.RankPrefixes(),
		Capabilities: caps,
		Now: func() time.Time {
			tick = tick.Add(time.Second)
			return tick
		},
	})
	return h
}

func status(s string) dto.UpdateStatusRequest { return dto.UpdateStatusRequest{Status: &s} }

func countChanges(t *testing.T, st *store.Store) int64 {
	t.Helper()
	n, err := st.StatusChanges().Count(context.Background())
	if err != nil {
		t.Fatalf("count changes: %v", err)
	}
	return n
}

func countNotes(t *testing.T, st *store.Store, userID domain.UserID) int {
	t.Helper()
	rows, err := st.Notes().ListForUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("list notes: %v", err)
	}
	return len(rows)
}

func TestUpdateStatusSameTwiceIsNoOp(t *testing.T) {
	h := setup(t, service.Capabilities{})
	ctx := context.Background()
	mgr := h.users[managerID]

	res, err := h.svc.UpdateStatus(ctx, mgr, recruitID, status(taxonomy.AttendedRecruitTraining))
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	if !res.Changed || deref(res.PreviousStatus) != taxonomy.PendingRecruitTraining {
		t.Fatalf("unexpected first result: %+v", res)
	}
	if res.StatusLabel != "Attended Recruit Training" {
		t.Fatalf("status label = %q", res.StatusLabel)
	}

	res, err = h.svc.UpdateStatus(ctx, mgr, recruitID, status(taxonomy.AttendedRecruitTraining))
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if res.Changed {
		t.Fatalf("second update should not change anything")
	}
	if got := countChanges(t, h.st); got != 1 {
		t.Fatalf("expected 1 status change, got %d", got)
	}
	if len(h.notifier.calls) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(h.notifier.calls))
	}
}

func TestUpdateStatusBackAndForthRecordsEachChange(t *testing.T) {
	h := setup(t, service.Capabilities{})
	ctx := context.Background()
	mgr := h.users[managerID]

	a, b := taxonomy.AttendedRecruitTraining, taxonomy.EligibleForAssessment
	if err := h.st.Users().SetStatus(ctx, recruitID, &a); err != nil {
		t.Fatalf("seed status: %v", err)
	}
	for _, next := range []string{a, b, a} {
		if _, err := h.svc.UpdateStatus(ctx, mgr, recruitID, status(next)); err != nil {
			t.Fatalf("update to %s: %v", next, err)
		}
	}

	changes, err := h.st.StatusChanges().ForUser(ctx, recruitID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}
	// newest first
	if deref(changes[0].PreviousStatus) != b || deref(changes[0].NewStatus) != a {
		t.Fatalf("unexpected newest change: %+v", changes[0])
	}
	if deref(changes[1].PreviousStatus) != a || deref(changes[1].NewStatus) != b {
		t.Fatalf("unexpected oldest change: %+v", changes[1])
	}
}

func TestUpdateStatusImplicitFirstStatusForRecruits(t *testing.T) {
	h := setup(t, service.Capabilities{})
	res, err := h.svc.UpdateStatus(context.Background(), h.users[managerID], recruitID, status(taxonomy.PendingRecruitTraining))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if res.Changed {
		t.Fatalf("recruit without status already counts as %s", taxonomy.PendingRecruitTraining)
	}
	if res.Neighbors.Previous != nil || res.Neighbors.Next == nil || res.Neighbors.Next.ID != taxonomy.AttendedRecruitTraining {
		t.Fatalf("unexpected neighbours: %+v", res.Neighbors)
	}
	if countChanges(t, h.st) != 0 {
		t.Fatalf("no-op wrote a status change")
	}
}

func TestUpdateStatusBlankRemovesFromTracking(t *testing.T) {
	h := setup(t, service.Capabilities{})
	ctx := context.Background()
	res, err := h.svc.UpdateStatus(ctx, h.users[managerID], recruitID, status("  "))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !res.Changed || res.Status != nil || res.StatusLabel != "None" {
		t.Fatalf("unexpected result: %+v", res)
	}
	u, err := h.st.Users().GetByID(ctx, recruitID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if u.RecruitStatus != nil {
		t.Fatalf("status should be cleared, got %q", *u.RecruitStatus)
	}
	changes, _ := h.st.StatusChanges().ForUser(ctx, recruitID)
	if len(changes) != 1 || changes[0].NewStatus != nil {
		t.Fatalf("expected one change to nil, got %+v", changes)
	}
}

func TestUpdateStatusRejections(t *testing.T) {
	h := setup(t, service.Capabilities{})
	ctx := context.Background()

	cases := []struct {
		name  string
		actor *domain.User
		user  domain.UserID
		to    string
		want  error
	}{
		{"no actor", nil, recruitID, taxonomy.AttendedRecruitTraining, domain.ErrUnauthorized},
		{"viewer", h.users[viewerID], recruitID, taxonomy.AttendedRecruitTraining, domain.ErrUnauthorized},
		{"outsider", h.users[outsiderID], recruitID, taxonomy.AttendedRecruitTraining, domain.ErrUnauthorized},
		{"bogus status", h.users[managerID], recruitID, "bogus", domain.ErrValidation},
		{"unknown user", h.users[managerID], 999, taxonomy.AttendedRecruitTraining, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.svc.UpdateStatus(ctx, tc.actor, tc.user, status(tc.to))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if got := countChanges(t, h.st); got != 0 {
		t.Fatalf("rejected updates wrote %d rows", got)
	}
	if len(h.notifier.calls) != 0 {
		t.Fatalf("rejected updates notified")
	}
}

func TestUpdateStatusSnapshotsRankPrefixes(t *testing.T) {
	h := setup(t, service.Capabilities{RankPrefix: true})
	ctx := context.Background()
	h.fx.RankPrefix(recruitID, "Rec.")
	h.fx.RankPrefix(managerID, "Sgt.")

	if _, err := h.svc.UpdateStatus(ctx, h.users[managerID], recruitID, status(taxonomy.AttendedRecruitTraining)); err != nil {
		t.Fatalf("update: %v", err)
	}
	changes, _ := h.st.StatusChanges().ForUser(ctx, recruitID)
	if len(changes) != 1 {
		t.Fatalf("expected one change")
	}
	if deref(changes[0].UserRankPrefix) != "Rec." || deref(changes[0].ChangedByRankPrefix) != "Sgt." {
		t.Fatalf("unexpected prefixes: %+v", changes[0])
	}
}

func TestUpdateStatusWithoutRankCapabilityOmitsPrefix(t *testing.T) {
	h := setup(t, service.Capabilities{})
	ctx := context.Background()
	h.fx.RankPrefix(recruitID, "Rec.")

	if _, err := h.svc.UpdateStatus(ctx, h.users[managerID], recruitID, status(taxonomy.AttendedRecruitTraining)); err != nil {
		t.Fatalf("update: %v", err)
	}
	changes, _ := h.st.StatusChanges().ForUser(ctx, recruitID)
	if changes[0].UserRankPrefix != nil || changes[0].ChangedByRankPrefix != nil {
		t.Fatalf("prefixes should be omitted: %+v", changes[0])
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
