package domain

import (
	"strings"
	"time"
)

// ActionCustomStaff mirrors the generic staff-action store's action code
// for plugin-defined entries.
const ActionCustomStaff = 21

const (
	HistoryNoteCreated   = "recruit_tracker_note_created"
	HistoryNoteUpdated   = "recruit_tracker_note_updated"
	HistoryNoteCleared   = "recruit_tracker_note_cleared"
	HistoryNoteDeleted   = "recruit_tracker_note_deleted"
	HistoryManualAdded   = "recruit_tracker_manual_added"
	HistoryManualRemoved = "recruit_tracker_manual_removed"
)

// TrackedHistoryTypes lists every custom type this feature writes. The audit
// trimmer treats them as one kind.
var TrackedHistoryTypes = []string{
	HistoryNoteCreated,
	HistoryNoteUpdated,
	HistoryNoteCleared,
	HistoryNoteDeleted,
	HistoryManualAdded,
	HistoryManualRemoved,
}

// UserHistory is a row of the shared staff-action history store.
type UserHistory struct {
	ID           HistoryID `gorm:"primaryKey" db:"id" json:"id"`
	Action       int       `gorm:"not null;index:idx_uh_action_type,priority:1" db:"action" json:"action"`
	CustomType   string    `gorm:"type:text;index:idx_uh_action_type,priority:2" db:"custom_type" json:"customType"`
	ActingUserID UserID    `gorm:"not null" db:"acting_user_id" json:"actingUserId"`
	TargetUserID *UserID   `gorm:"index" db:"target_user_id" json:"targetUserId"`
	NoteID       *NoteID   `db:"note_id" json:"noteId,omitempty"`
	Details      string    `gorm:"type:text" db:"details" json:"details"`
	CreatedAt    time.Time `gorm:"not null;index" db:"created_at" json:"createdAt"`
}

func (UserHistory) TableName() string { return "user_histories" }

// HistoryAction returns the short action kind ("created", "manual_added", ...)
// for a tracked custom type.
func HistoryAction(customType string) string {
	rest, ok := strings.CutPrefix(customType, "recruit_tracker_")
	if !ok || rest == "" {
		return customType
	}
	if action, ok := strings.CutPrefix(rest, "note_"); ok && action != "" {
		return action
	}
	return rest
}
