package access

import (
	"context"
	"log/slog"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/domain"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/settings"
)

// GroupDirectory answers membership questions against the identity system.
type GroupDirectory interface {
	UserInAny(ctx context.Context, userID domain.UserID, groupIDs []domain.GroupID) (bool, error)
}

type Policy struct {
	settings settings.Provider
	groups   GroupDirectory
	log      *slog.Logger
}

func NewPolicy(p settings.Provider, groups GroupDirectory, log *slog.Logger) *Policy {
	if log == nil {
		log = slog.Default()
	}
	return &Policy{settings: p, groups: groups, log: log}
}

// CanView allows members of view_groups or manage_groups, so every manager
// can also view.
func (p *Policy) CanView(ctx context.Context, actor *domain.User) bool {
	ids := union(p.settings.IntList(settings.ViewGroups), p.settings.IntList(settings.ManageGroups))
	return p.member(ctx, actor, ids, "view")
}

func (p *Policy) CanManage(ctx context.Context, actor *domain.User) bool {
	return p.member(ctx, actor, toGroupIDs(p.settings.IntList(settings.ManageGroups)), "manage")
}

func (p *Policy) member(ctx context.Context, actor *domain.User, ids []domain.GroupID, check string) bool {
	if actor == nil || len(ids) == 0 {
		return false
	}
	ok, err := p.groups.UserInAny(ctx, actor.ID, ids)
	if err != nil {
		p.log.WarnContext(ctx, "access check failed", "check", check, "user_id", actor.ID, "err", err)
		return false
	}
	return ok
}

func union(a, b []int64) []domain.GroupID {
	seen := make(map[int64]struct{}, len(a)+len(b))
	out := make([]domain.GroupID, 0, len(a)+len(b))
	for _, list := range [][]int64{a, b} {
		for _, id := range list {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, domain.GroupID(id))
		}
	}
	return out
}

func toGroupIDs(in []int64) []domain.GroupID {
	out := make([]domain.GroupID, len(in))
	for i, id := range in {
		out[i] = domain.GroupID(id)
	}
	return out
}
