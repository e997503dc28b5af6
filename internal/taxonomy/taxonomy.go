// Package taxonomy holds the fixed, ordered list of onboarding statuses.
package taxonomy

import "github.com/16AA-Milsim/discourse-recruit-tracker/internal/settings"

const (
	PendingRecruitTraining   = "pending_recruit_training"
	AttendedRecruitTraining  = "attended_recruit_training"
	EligibleForAssessment    = "eligible_for_assessment"
	PendingPromotionDecision = "pending_promotion_decision"
)

// Keys is ordered; position defines previous/next and the onboarding default.
var Keys = []string{
	PendingRecruitTraining,
	AttendedRecruitTraining,
	EligibleForAssessment,
	PendingPromotionDecision,
}

var defaultLabels = map[string]string{
	PendingRecruitTraining:   "Pending Recruit Training",
	AttendedRecruitTraining:  "Attended Recruit Training",
	EligibleForAssessment:    "Eligible for Assessment",
	PendingPromotionDecision: "Pending Promotion Decision",
}

var labelSettings = map[string]string{
	PendingRecruitTraining:   settings.StatusPendingLabel,
	AttendedRecruitTraining:  settings.StatusAttendedLabel,
	EligibleForAssessment:    settings.StatusEligibleLabel,
	PendingPromotionDecision: settings.StatusPromotionLabel,
}

const defaultNoneLabel = "None"

// First is the status assigned to recruits that have none yet.
func First() string { return Keys[0] }

// Valid reports whether status is blank or a known key.
func Valid(status string) bool {
	return status == "" || index(status) >= 0
}

// Known reports whether status is a non-blank known key.
func Known(status string) bool { return index(status) >= 0 }

func index(status string) int {
	for i, k := range Keys {
		if k == status {
			return i
		}
	}
	return -1
}

// Neighbors holds the positional predecessor and successor of a status.
// A nil pointer marks a boundary or an unknown status.
type Neighbors struct {
	Previous *string `json:"previous"`
	Next     *string `json:"next"`
}

func NeighborsOf(status string) Neighbors {
	i := index(status)
	if i < 0 {
		return Neighbors{}
	}
	var n Neighbors
	if i > 0 {
		p := Keys[i-1]
		n.Previous = &p
	}
	if i < len(Keys)-1 {
		nx := Keys[i+1]
		n.Next = &nx
	}
	return n
}

// Labeler resolves display labels from settings with hardcoded fallbacks.
type Labeler struct {
	settings settings.Provider
}

func NewLabeler(p settings.Provider) *Labeler {
	if p == nil {
		p = settings.Static{}
	}
	return &Labeler{settings: p}
}

// Label returns the "none" label for blank input and "" for unknown keys.
func (l *Labeler) Label(status string) string {
	if status == "" {
		if v := l.settings.String(settings.StatusNoneLabel); v != "" {
			return v
		}
		return defaultNoneLabel
	}
	key, ok := labelSettings[status]
	if !ok {
		return ""
	}
	if v := l.settings.String(key); v != "" {
		return v
	}
	return defaultLabels[status]
}

type Option struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (l *Labeler) Options() []Option {
	out := make([]Option, 0, len(Keys))
	for _, k := range Keys {
		out = append(out, Option{ID: k, Name: l.Label(k)})
	}
	return out
}
