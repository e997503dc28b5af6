package access

import (
	"context"
	"errors"
	"testing"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/domain"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/settings"
)

type fakeDirectory struct {
	members map[domain.UserID][]domain.GroupID
	err     error
}

func (f fakeDirectory) UserInAny(_ context.Context, userID domain.UserID, groupIDs []domain.GroupID) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, have := range f.members[userID] {
		for _, want := range groupIDs {
			if have == want {
				return true, nil
			}
		}
	}
	return false, nil
}

func TestPolicy(t *testing.T) {
	dir := fakeDirectory{members: map[domain.UserID][]domain.GroupID{
		1: {10},
		2: {20},
		3: {30},
	}}
	p := NewPolicy(settings.Static{
		settings.ViewGroups:   []int64{10},
		settings.ManageGroups: []int64{20},
	}, dir, nil)

	cases := []struct {
		name       string
		actor      *domain.User
		view, mgmt bool
	}{
		{"viewer", &domain.User{ID: 1}, true, false},
		{"manager views too", &domain.User{ID: 2}, true, true},
		{"outsider", &domain.User{ID: 3}, false, false},
		{"absent actor", nil, false, false},
	}
	ctx := context.Background()
	for _, tc := range cases {
		if got := p.CanView(ctx, tc.actor); got != tc.view {
			t.Fatalf("%s: CanView = %v, want %v", tc.name, got, tc.view)
		}
		if got := p.CanManage(ctx, tc.actor); got != tc.mgmt {
			t.Fatalf("%s: CanManage = %v, want %v", tc.name, got, tc.mgmt)
		}
	}
}

func TestPolicyEmptyGroupsDenies(t *testing.T) {
	dir := fakeDirectory{members: map[domain.UserID][]domain.GroupID{1: {10}}}
	p := NewPolicy(settings.Static{}, dir, nil)
	if p.CanView(context.Background(), &domain.User{ID: 1}) {
		t.Fatalf("expected view denied with no configured groups")
	}
}

func TestPolicyLookupErrorDenies(t *testing.T) {
	dir := fakeDirectory{err: errors.New("db down")}
	p := NewPolicy(settings.Static{settings.ManageGroups: []int64{20}}, dir, nil)
	if p.CanManage(context.Background(), &domain.User{ID: 2}) {
		t.Fatalf("expected manage denied on lookup error")
	}
}
