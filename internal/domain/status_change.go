package domain

import "time"

// StatusChange is append-only. PreviousStatus never equals NewStatus.
type StatusChange struct {
	ID                  StatusChangeID `gorm:"primaryKey" db:"id" json:"id"`
	UserID              UserID         `gorm:"not null;index;index:idx_rtsc_user_created_at,priority:1" db:"user_id" json:"userId"`
	ChangedByID         UserID         `gorm:"not null;index" db:"changed_by_id" json:"changedById"`
	PreviousStatus      *string        `gorm:"type:varchar(100)" db:"previous_status" json:"previousStatus"`
	NewStatus           *string        `gorm:"type:varchar(100)" db:"new_status" json:"newStatus"`
	UserRankPrefix      *string        `gorm:"type:varchar(50)" db:"user_rank_prefix" json:"userRankPrefix,omitempty"`
	ChangedByRankPrefix *string        `gorm:"type:varchar(50)" db:"changed_by_rank_prefix" json:"changedByRankPrefix,omitempty"`
	CreatedAt           time.Time      `gorm:"not null;index;index:idx_rtsc_user_created_at,priority:2" db:"created_at" json:"createdAt"`
}

func (StatusChange) TableName() string { return "recruit_tracker_status_changes" }
