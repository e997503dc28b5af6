package domain

import "time"

const MaxNoteLength = 2000

// Note holds at most one live row per user; writes replace the existing row.
type Note struct {
	ID          NoteID    `gorm:"primaryKey" db:"id" json:"id"`
	UserID      UserID    `gorm:"not null;index;index:idx_rtn_user_pinned_created_at,priority:1" db:"user_id" json:"userId"`
	CreatedByID UserID    `gorm:"not null;index" db:"created_by_id" json:"createdById"`
	Note        string    `gorm:"type:text;not null" db:"note" json:"note"`
	Pinned      bool      `gorm:"not null;default:false;index:idx_rtn_user_pinned_created_at,priority:2" db:"pinned" json:"pinned"`
	CreatedAt   time.Time `gorm:"not null;index:idx_rtn_user_pinned_created_at,priority:3" db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"not null" db:"updated_at" json:"updatedAt"`
}

func (Note) TableName() string { return "recruit_tracker_notes" }
