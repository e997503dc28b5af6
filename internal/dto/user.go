package dto

import "time"

type UserRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
}

type UserDetail struct {
	User           UserRef        `json:"user"`
	Status         *string        `json:"status"`
	StatusLabel    string         `json:"statusLabel"`
	Neighbors      StatusOptions  `json:"neighbors"`
	ManualTracking bool           `json:"manualTracking"`
	JoinedAt       *time.Time     `json:"joinedAt,omitempty"`
	Note           *Note          `json:"note"`
	StatusHistory  []StatusChange `json:"statusHistory"`
	NoteHistory    []HistoryEvent `json:"noteHistory"`
	CanManage      bool           `json:"canManage"`
}

type ManualTrackingRequest struct {
	UserID   *int64 `json:"userId"`
	Username string `json:"username"`
}

type ManualTrackingResponse struct {
	UserID         int64   `json:"userId"`
	ManualTracking bool    `json:"manualTracking"`
	Status         *string `json:"status"`
	Changed        bool    `json:"changed"`
}
