// Package auditlog keeps the combined status-change and note-history trail
// bounded and exposes the merged, newest-first feed.
package auditlog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/domain"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/observability/metrics"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/store"
)

const (
	MaxEntries    = 500
	OverviewLimit = 20
)

type Kind string

const (
	KindStatus Kind = "status"
	KindNote   Kind = "note"
)

type stamp struct {
	kind      Kind
	id        int64
	createdAt time.Time
}

// Result reports what a trim pass kept and removed.
type Result struct {
	Kept           int
	StatusDeleted  int64
	HistoryDeleted int64
}

type Trimmer struct {
	st  *store.Store
	max int
	log *slog.Logger
}

func NewTrimmer(st *store.Store, log *slog.Logger) *Trimmer {
	if log == nil {
		log = slog.Default()
	}
	return &Trimmer{st: st, max: MaxEntries, log: log}
}

// WithLimit returns a copy retaining at most n entries.
func (t *Trimmer) WithLimit(n int) *Trimmer {
	c := *t
	c.max = n
	return &c
}

// Trim deletes every audit row outside the newest max entries across both
// kinds. It is safe to call after any mutation.
func (t *Trimmer) Trim(ctx context.Context) (Result, error) {
	keep, err := newest(ctx, t.st, t.max)
	if err != nil {
		return Result{}, err
	}

	var statusKeep, historyKeep []int64
	for _, s := range keep {
		switch s.kind {
		case KindStatus:
			statusKeep = append(statusKeep, s.id)
		case KindNote:
			historyKeep = append(historyKeep, s.id)
		}
	}

	res := Result{Kept: len(keep)}
	res.StatusDeleted, err = t.st.StatusChanges().DeleteExcept(ctx, statusKeep)
	if err != nil {
		return res, fmt.Errorf("trim status changes: %w", err)
	}
	res.HistoryDeleted, err = t.st.Histories().DeleteExcept(ctx, historyKeep)
	if err != nil {
		return res, fmt.Errorf("trim note history: %w", err)
	}

	if res.StatusDeleted > 0 {
		metrics.AuditTrimmedTotal.WithLabelValues(string(KindStatus)).Add(float64(res.StatusDeleted))
	}
	if res.HistoryDeleted > 0 {
		metrics.AuditTrimmedTotal.WithLabelValues(string(KindNote)).Add(float64(res.HistoryDeleted))
	}
	return res, nil
}

// TrimQuietly runs Trim and logs any failure.
func (t *Trimmer) TrimQuietly(ctx context.Context) {
	res, err := t.Trim(ctx)
	if err != nil {
		t.log.WarnContext(ctx, "audit trim failed", "err", err)
		return
	}
	if res.StatusDeleted+res.HistoryDeleted > 0 {
		t.log.DebugContext(ctx, "audit trimmed",
			"kept", res.Kept,
			"status_deleted", res.StatusDeleted,
			"history_deleted", res.HistoryDeleted,
		)
	}
}

// newest merges the top limit rows of each kind and keeps the overall top limit.
func newest(ctx context.Context, st *store.Store, limit int) ([]stamp, error) {
	if limit <= 0 {
		return nil, nil
	}
	sc, err := st.StatusChanges().Newest(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("load status stamps: %w", err)
	}
	hs, err := st.Histories().Newest(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("load history stamps: %w", err)
	}

	all := make([]stamp, 0, len(sc)+len(hs))
	for _, s := range sc {
		all = append(all, stamp{kind: KindStatus, id: s.ID, createdAt: s.CreatedAt})
	}
	for _, s := range hs {
		all = append(all, stamp{kind: KindNote, id: s.ID, createdAt: s.CreatedAt})
	}
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].createdAt.Equal(all[j].createdAt) {
			return all[i].createdAt.After(all[j].createdAt)
		}
		return all[i].id > all[j].id
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// Entry is one row of the merged feed. Exactly one of Status or History is set.
type Entry struct {
	Kind      Kind
	CreatedAt time.Time
	Status    *domain.StatusChange
	History   *domain.UserHistory
}

// Recent returns up to limit entries of the merged feed, newest first.
func Recent(ctx context.Context, st *store.Store, limit int) ([]Entry, error) {
	stamps, err := newest(ctx, st, limit)
	if err != nil {
		return nil, err
	}

	var statusIDs, historyIDs []int64
	for _, s := range stamps {
		if s.kind == KindStatus {
			statusIDs = append(statusIDs, s.id)
		} else {
			historyIDs = append(historyIDs, s.id)
		}
	}
	changes, err := st.StatusChanges().ByIDs(ctx, statusIDs)
	if err != nil {
		return nil, fmt.Errorf("load status changes: %w", err)
	}
	histories, err := st.Histories().ByIDs(ctx, historyIDs)
	if err != nil {
		return nil, fmt.Errorf("load note history: %w", err)
	}
	byStatus := make(map[int64]*domain.StatusChange, len(changes))
	for _, c := range changes {
		byStatus[c.ID] = c
	}
	byHistory := make(map[int64]*domain.UserHistory, len(histories))
	for _, h := range histories {
		byHistory[h.ID] = h
	}

	out := make([]Entry, 0, len(stamps))
	for _, s := range stamps {
		switch s.kind {
		case KindStatus:
			if c, ok := byStatus[s.id]; ok {
				out = append(out, Entry{Kind: KindStatus, CreatedAt: c.CreatedAt, Status: c})
			}
		case KindNote:
			if h, ok := byHistory[s.id]; ok {
				out = append(out, Entry{Kind: KindNote, CreatedAt: h.CreatedAt, History: h})
			}
		}
	}
	return out, nil
}
