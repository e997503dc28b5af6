// Package service implements the recruit tracking workflows: status
// transitions, notes, manual tracking and the read projections.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/access"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/domain"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/dto"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/notify"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/settings"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/store"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/taxonomy"
)

// Trimmer bounds the audit trail after each audit-producing mutation.
type Trimmer interface {
	TrimQuietly(ctx context.Context)
}

// Notifier is told about committed, real status transitions.
type Notifier interface {
	StatusChanged(ctx context.Context, c notify.StatusChange) bool
}

// RankDecorator supplies display prefixes from the ranking integration.
type RankDecorator interface {
	PrefixFor(ctx context.Context, userID domain.UserID) (string, error)
	PrefixesFor(ctx context.Context, userIDs []domain.UserID) (map[domain.UserID]string, error)
}

// Capabilities are the optional collaborators resolved once at startup.
type Capabilities struct {
	RankPrefix     bool
	JoinDate       bool
	ManualTracking bool
}

func CapabilitiesFrom(p settings.Provider) Capabilities {
	return Capabilities{
		RankPrefix:     p.Bool(settings.RankPrefixEnabled),
		JoinDate:       p.Bool(settings.JoinDateEnabled),
		ManualTracking: p.Bool(settings.ManualTrackingEnabled),
	}
}

type Options struct {
	Store    *store.Store
	Settings settings.Provider
	Access   *access.Policy
	Trimmer  Trimmer
	Notifier Notifier
	// Ranks is consulted only when Capabilities.RankPrefix is set.
	Ranks        RankDecorator
	Capabilities Capabilities
	Logger       *slog.Logger
	Now          func() time.Time
}

type Service struct {
	store    *store.Store
	settings settings.Provider
	access   *access.Policy
	labels   *taxonomy.Labeler
	trimmer  Trimmer
	notifier Notifier
	ranks    RankDecorator
	caps     Capabilities
	log      *slog.Logger
	now      func() time.Time
}

func New(opts Options) *Service {
	s := &Service{
		store:    opts.Store,
		settings: opts.Settings,
		access:   opts.Access,
		labels:   taxonomy.NewLabeler(opts.Settings),
		trimmer:  opts.Trimmer,
		notifier: opts.Notifier,
		ranks:    opts.Ranks,
		caps:     opts.Capabilities,
		log:      opts.Logger,
		now:      opts.Now,
	}
	if s.settings == nil {
		s.settings = settings.Static{}
	}
	if s.access == nil {
		s.access = access.NewPolicy(s.settings, opts.Store.Groups(), opts.Logger)
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if !s.caps.RankPrefix {
		s.ranks = nil
	}
	return s
}

// Labels exposes the label resolver used for responses.
func (s *Service) Labels() *taxonomy.Labeler { return s.labels }

func (s *Service) CanView(ctx context.Context, actor *domain.User) bool {
	return s.access.CanView(ctx, actor)
}

func (s *Service) CanManage(ctx context.Context, actor *domain.User) bool {
	return s.access.CanManage(ctx, actor)
}

func (s *Service) recruitGroup() string {
	if name := strings.TrimSpace(s.settings.String(settings.RecruitGroup)); name != "" {
		return name
	}
	return settings.DefaultRecruitGroup
}

func (s *Service) isRecruit(ctx context.Context, tx *store.Store, userID domain.UserID) (bool, error) {
	ok, err := tx.Groups().UserInNamed(ctx, userID, s.recruitGroup())
	if err != nil {
		return false, fmt.Errorf("check recruit group: %w", err)
	}
	return ok, nil
}

// effectiveStatus returns the stored status, or the first status for tracked
// users that have none yet.
func (s *Service) effectiveStatus(ctx context.Context, tx *store.Store, u *domain.User) (string, error) {
	if st := u.Status(); st != "" {
		return st, nil
	}
	if u.ManualTracking {
		return taxonomy.First(), nil
	}
	recruit, err := s.isRecruit(ctx, tx, u.ID)
	if err != nil {
		return "", err
	}
	if recruit {
		return taxonomy.First(), nil
	}
	return "", nil
}

// prefix resolves a rank prefix snapshot. Failures are logged and treated as
// no prefix.
func (s *Service) prefix(ctx context.Context, userID domain.UserID) *string {
	if s.ranks == nil {
		return nil
	}
	p, err := s.ranks.PrefixFor(ctx, userID)
	if err != nil {
		s.log.WarnContext(ctx, "rank prefix lookup failed", "user_id", userID, "err", err)
		return nil
	}
	return optional(p)
}

func (s *Service) trim(ctx context.Context) {
	if s.trimmer != nil {
		s.trimmer.TrimQuietly(ctx)
	}
}

func (s *Service) recordHistory(ctx context.Context, tx *store.Store, actorID domain.UserID, customType string, target domain.UserID, noteID *domain.NoteID) error {
	details := fmt.Sprintf("target_user_id: %d", target)
	if noteID != nil {
		details += fmt.Sprintf("\nnote_id: %d", *noteID)
	}
	e := &domain.UserHistory{
		Action:       domain.ActionCustomStaff,
		CustomType:   customType,
		ActingUserID: actorID,
		TargetUserID: &target,
		NoteID:       noteID,
		Details:      details,
		CreatedAt:    s.now().UTC(),
	}
	if err := tx.Histories().Create(ctx, e); err != nil {
		return fmt.Errorf("write %s history: %w", customType, err)
	}
	return nil
}

func (s *Service) options(status string) dto.StatusOptions {
	n := taxonomy.NeighborsOf(status)
	var out dto.StatusOptions
	if n.Previous != nil {
		out.Previous = &dto.StatusOption{ID: *n.Previous, Name: s.labels.Label(*n.Previous)}
	}
	if n.Next != nil {
		out.Next = &dto.StatusOption{ID: *n.Next, Name: s.labels.Label(*n.Next)}
	}
	return out
}

func (s *Service) users(ctx context.Context, ids []domain.UserID) (map[domain.UserID]*domain.User, error) {
	out, err := s.store.Users().ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	return out, nil
}

func userRef(u *domain.User) *dto.UserRef {
	if u == nil {
		return nil
	}
	return &dto.UserRef{ID: u.ID, Username: u.Username, Name: u.Name}
}

func noteView(n *domain.Note, author *domain.User) *dto.Note {
	if n == nil {
		return nil
	}
	return &dto.Note{
		ID:        n.ID,
		UserID:    n.UserID,
		Note:      n.Note,
		Pinned:    n.Pinned,
		CreatedBy: userRef(author),
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func notFound(err error, what string, id int64) error {
	if errors.Is(err, store.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %d", domain.ErrNotFound, what, id)
	}
	return fmt.Errorf("load %s %d: %w", what, id, err)
}
