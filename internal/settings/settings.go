// Package settings exposes the site settings that drive recruit tracking
// policy. Components receive a Provider and never read process state.
package settings

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	Enabled         = "enabled"
	ViewGroups      = "view_groups"
	ManageGroups    = "manage_groups"
	ManualAddGroups = "manual_add_groups"
	RecruitGroup    = "recruit_group_name"

	StatusPendingLabel   = "status_pending_label"
	StatusAttendedLabel  = "status_attended_label"
	StatusEligibleLabel  = "status_eligible_label"
	StatusPromotionLabel = "status_promotion_label"
	StatusNoneLabel      = "status_none_label"

	DiscordEnabled         = "discord_notifications_enabled"
	DiscordWebhookURL      = "discord_webhook_url"
	DiscordWebhookUsername = "discord_webhook_username"
	DiscordWebhookAvatar   = "discord_webhook_avatar_url"
	DiscordMessageTemplate = "discord_message_template"
	DiscordMilestoneOnly   = "discord_milestone_only"

	RankPrefixEnabled     = "rank_prefix_enabled"
	JoinDateEnabled       = "join_date_enabled"
	ManualTrackingEnabled = "manual_tracking_enabled"
)

// EnvPrefix is prepended to the upper-cased key when reading the environment.
const EnvPrefix = "RECRUIT_TRACKER_"

// DefaultRecruitGroup is used when recruit_group_name is unset.
const DefaultRecruitGroup = "Recruits"

type Provider interface {
	Bool(key string) bool
	String(key string) string
	IntList(key string) []int64
}

// Static is a map-backed Provider. Values may be bool, string, int, int64,
// []int64, []int or a "1|2|3" string.
type Static map[string]any

func (s Static) Bool(key string) bool {
	switch v := s[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	}
	return false
}

func (s Static) String(key string) string {
	switch v := s[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (s Static) IntList(key string) []int64 {
	switch v := s[key].(type) {
	case []int64:
		return v
	case []int:
		out := make([]int64, 0, len(v))
		for _, n := range v {
			out = append(out, int64(n))
		}
		return out
	case []any:
		out := make([]int64, 0, len(v))
		for _, n := range v {
			if id, ok := toInt64(n); ok {
				out = append(out, id)
			}
		}
		return out
	case int, int64:
		id, _ := toInt64(v)
		return []int64{id}
	case string:
		return ParseIntList(v)
	}
	return nil
}

// ParseIntList parses "1|2|3" or "1,2,3", skipping malformed entries.
func ParseIntList(raw string) []int64 {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == '|' || r == ',' })
	out := make([]int64, 0, len(fields))
	for _, f := range fields {
		if n, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64); err == nil {
			out = append(out, n)
		}
	}
	return out
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return id, err == nil
	}
	return 0, false
}

// Layered resolves keys from the environment first, then the wrapped provider.
type Layered struct {
	base   Provider
	lookup func(string) (string, bool)
}

func (l *Layered) env(key string) (string, bool) {
	return l.lookup(EnvPrefix + strings.ToUpper(key))
}

func (l *Layered) Bool(key string) bool {
	if v, ok := l.env(key); ok {
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	}
	return l.base.Bool(key)
}

func (l *Layered) String(key string) string {
	if v, ok := l.env(key); ok {
		return v
	}
	return l.base.String(key)
}

func (l *Layered) IntList(key string) []int64 {
	if v, ok := l.env(key); ok {
		return ParseIntList(v)
	}
	return l.base.IntList(key)
}

// Load reads an optional YAML file at path and overlays the environment.
func Load(path string) (Provider, error) {
	base := Static{}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("settings: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &base); err != nil {
			return nil, fmt.Errorf("settings: parse %s: %w", path, err)
		}
	}
	return &Layered{base: base, lookup: os.LookupEnv}, nil
}

// WithLookup overlays lookup on base. Used by tests.
func WithLookup(base Provider, lookup func(string) (string, bool)) Provider {
	return &Layered{base: base, lookup: lookup}
}
