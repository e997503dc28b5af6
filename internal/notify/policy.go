// Package notify decides whether a status change is announced and delivers
// the announcement to a Discord-compatible webhook.
package notify

import (
	"strings"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/settings"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/taxonomy"
)

type Policy struct {
	settings settings.Provider
}

func NewPolicy(p settings.Provider) *Policy { return &Policy{settings: p} }

// Configured reports whether notifications are enabled and have a
// destination.
func (p *Policy) Configured() bool {
	return p.settings.Bool(settings.DiscordEnabled) &&
		strings.TrimSpace(p.settings.String(settings.DiscordWebhookURL)) != ""
}

// ShouldAnnounce decides for a committed change from prev to next. With
// discord_milestone_only set only attended -> eligible is announced.
func (p *Policy) ShouldAnnounce(prev, next string) bool {
	if prev == next || !p.Configured() {
		return false
	}
	if p.settings.Bool(settings.DiscordMilestoneOnly) {
		return prev == taxonomy.AttendedRecruitTraining && next == taxonomy.EligibleForAssessment
	}
	return true
}
