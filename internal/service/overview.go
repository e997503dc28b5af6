package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/auditlog"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/domain"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/dto"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/taxonomy"
)

// Overview groups every tracked recruit into taxonomy-ordered columns.
// Managers also receive the most recent slice of the audit feed.
func (s *Service) Overview(ctx context.Context, actor *domain.User) (dto.Overview, error) {
	if !s.access.CanView(ctx, actor) {
		return dto.Overview{}, domain.ErrUnauthorized
	}

	recruits, err := s.store.Groups().MembersOfNamed(ctx, s.recruitGroup())
	if err != nil {
		return dto.Overview{}, fmt.Errorf("load recruit group: %w", err)
	}
	users, err := s.store.Users().Tracked(ctx, taxonomy.Keys, recruits)
	if err != nil {
		return dto.Overview{}, fmt.Errorf("load tracked users: %w", err)
	}

	ids := make([]domain.UserID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	changes, err := s.store.StatusChanges().LatestByUser(ctx, ids)
	if err != nil {
		return dto.Overview{}, fmt.Errorf("load last changes: %w", err)
	}
	notes, err := s.store.Notes().CurrentByUser(ctx, ids)
	if err != nil {
		return dto.Overview{}, fmt.Errorf("load notes: %w", err)
	}
	var joined map[domain.UserID]time.Time
	if s.caps.JoinDate {
		if joined, err = s.store.Users().JoinDates(ctx, ids); err != nil {
			return dto.Overview{}, fmt.Errorf("load join dates: %w", err)
		}
	}
	var prefixes map[domain.UserID]string
	if s.ranks != nil {
		if prefixes, err = s.ranks.PrefixesFor(ctx, ids); err != nil {
			s.log.WarnContext(ctx, "rank prefix lookup failed", "err", err)
			prefixes = nil
		}
	}

	authorIDs := make([]domain.UserID, 0, len(notes))
	for _, n := range notes {
		authorIDs = append(authorIDs, n.CreatedByID)
	}
	authors, err := s.users(ctx, authorIDs)
	if err != nil {
		return dto.Overview{}, err
	}

	byStatus := make(map[string][]dto.OverviewRecruit, len(taxonomy.Keys))
	for _, u := range users {
		status := u.Status()
		if status == "" {
			status = taxonomy.First()
		}
		if !taxonomy.Known(status) {
			continue
		}
		r := dto.OverviewRecruit{
			ID:          u.ID,
			Username:    u.Username,
			Name:        u.Name,
			Status:      status,
			StatusLabel: s.labels.Label(status),
			Manual:      u.ManualTracking,
			CreatedAt:   u.CreatedAt,
		}
		if t, ok := joined[u.ID]; ok {
			r.JoinedAt = &t
		}
		if c, ok := changes[u.ID]; ok {
			at := c.CreatedAt
			r.LastChangedAt = &at
		}
		if p, ok := prefixes[u.ID]; ok {
			r.RankPrefix = optional(p)
		}
		if n, ok := notes[u.ID]; ok {
			r.Note = noteView(n, authors[n.CreatedByID])
		}
		byStatus[status] = append(byStatus[status], r)
	}

	out := dto.Overview{Columns: make([]dto.OverviewColumn, 0, len(taxonomy.Keys))}
	for _, key := range taxonomy.Keys {
		col := byStatus[key]
		SortRecruits(col)
		if col == nil {
			col = []dto.OverviewRecruit{}
		}
		opts := s.options(key)
		out.Columns = append(out.Columns, dto.OverviewColumn{
			ID:       key,
			Name:     s.labels.Label(key),
			Previous: opts.Previous,
			Next:     opts.Next,
			Users:    col,
		})
	}

	if s.access.CanManage(ctx, actor) {
		out.CanManage = true
		entries, err := s.auditEntries(ctx, auditlog.OverviewLimit)
		if err != nil {
			return dto.Overview{}, err
		}
		out.AuditLog = entries
	}
	return out, nil
}

// SortRecruits orders a column for onboarding: recruits with a join date
// first, earliest join date first, then by account creation time.
func SortRecruits(rs []dto.OverviewRecruit) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		switch {
		case a.JoinedAt != nil && b.JoinedAt == nil:
			return true
		case a.JoinedAt == nil && b.JoinedAt != nil:
			return false
		case a.JoinedAt != nil && !a.JoinedAt.Equal(*b.JoinedAt):
			return a.JoinedAt.Before(*b.JoinedAt)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
