package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/domain"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/jobs"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/observability/metrics"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/settings"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/store"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/taxonomy"
)

// Enqueuer is satisfied by *jobs.Queue.
type Enqueuer interface {
	Enqueue(job jobs.Job) bool
}

// UserLookup loads users when the job runs.
type UserLookup interface {
	GetByID(ctx context.Context, id domain.UserID) (*domain.User, error)
}

// Poster delivers a payload to a webhook URL.
type Poster interface {
	Post(ctx context.Context, url string, p Payload) error
}

// StatusChange is the data carried from a committed transition to the job.
type StatusChange struct {
	UserID         domain.UserID
	ActorID        domain.UserID
	PreviousStatus string
	NewStatus      string
}

type Dispatcher struct {
	policy   *Policy
	settings settings.Provider
	queue    Enqueuer
	users    UserLookup
	labels   *taxonomy.Labeler
	poster   Poster
	log      *slog.Logger
}

func NewDispatcher(p settings.Provider, queue Enqueuer, users UserLookup, poster Poster, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		policy:   NewPolicy(p),
		settings: p,
		queue:    queue,
		users:    users,
		labels:   taxonomy.NewLabeler(p),
		poster:   poster,
		log:      log,
	}
}

// StatusChanged enqueues an announcement when policy allows it. It reports
// whether a job was queued and never blocks on delivery.
func (d *Dispatcher) StatusChanged(ctx context.Context, c StatusChange) bool {
	if !d.policy.ShouldAnnounce(c.PreviousStatus, c.NewStatus) {
		return false
	}
	if !d.queue.Enqueue(&StatusChangeJob{change: c, d: d}) {
		metrics.NotificationsTotal.WithLabelValues("dropped").Inc()
		d.log.WarnContext(ctx, "status notification dropped", "user_id", c.UserID)
		return false
	}
	return true
}

// StatusChangeJob resolves labels and posts the announcement.
type StatusChangeJob struct {
	change StatusChange
	d      *Dispatcher
}

func (j *StatusChangeJob) Name() string { return "notify_status_change" }

func (j *StatusChangeJob) Run(ctx context.Context) error {
	d := j.d
	if !d.policy.Configured() {
		metrics.NotificationsTotal.WithLabelValues("skipped").Inc()
		return nil
	}
	user, err := d.users.GetByID(ctx, j.change.UserID)
	if err != nil {
		return skipMissing(err, "user")
	}
	actor, err := d.users.GetByID(ctx, j.change.ActorID)
	if err != nil {
		return skipMissing(err, "actor")
	}

	payload := d.Build(user, actor, j.change.PreviousStatus, j.change.NewStatus)
	url := strings.TrimSpace(d.settings.String(settings.DiscordWebhookURL))
	if err := d.poster.Post(ctx, url, payload); err != nil {
		metrics.NotificationsTotal.WithLabelValues("failure").Inc()
		d.log.WarnContext(ctx, "status notification failed", "user_id", user.ID, "err", err)
		return err
	}
	metrics.NotificationsTotal.WithLabelValues("success").Inc()
	d.log.InfoContext(ctx, "status notification sent", "user_id", user.ID, "actor_id", actor.ID)
	return nil
}

// Build renders the webhook payload for a transition.
func (d *Dispatcher) Build(user, actor *domain.User, prev, next string) Payload {
	content := Message(d.settings.String(settings.DiscordMessageTemplate), map[string]string{
		"actor":    actor.Username,
		"user":     user.Username,
		"previous": d.labels.Label(prev),
		"current":  d.labels.Label(next),
	})
	return Payload{
		Content:   content,
		Username:  strings.TrimSpace(d.settings.String(settings.DiscordWebhookUsername)),
		AvatarURL: strings.TrimSpace(d.settings.String(settings.DiscordWebhookAvatar)),
	}
}

func skipMissing(err error, who string) error {
	if errors.Is(err, store.ErrRecordNotFound) {
		metrics.NotificationsTotal.WithLabelValues("skipped").Inc()
		return nil
	}
	return fmt.Errorf("load %s: %w", who, err)
}
