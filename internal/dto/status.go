package dto

import "time"

type UpdateStatusRequest struct {
	Status *string `json:"status"`
}

type UpdateStatusResponse struct {
	UserID         int64         `json:"userId"`
	Status         *string       `json:"status"`
	StatusLabel    string        `json:"statusLabel"`
	PreviousStatus *string       `json:"previousStatus"`
	PreviousLabel  string        `json:"previousStatusLabel"`
	Neighbors      StatusOptions `json:"neighbors"`
	Changed        bool          `json:"changed"`
	ChangeID       *int64        `json:"changeId,omitempty"`
}

type StatusOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// StatusOptions holds the positional neighbours of a status with labels.
type StatusOptions struct {
	Previous *StatusOption `json:"previous"`
	Next     *StatusOption `json:"next"`
}

type StatusChange struct {
	ID                  int64     `json:"id"`
	PreviousStatus      *string   `json:"previousStatus"`
	PreviousLabel       string    `json:"previousStatusLabel"`
	NewStatus           *string   `json:"newStatus"`
	NewLabel            string    `json:"newStatusLabel"`
	ChangedBy           *UserRef  `json:"changedBy,omitempty"`
	UserRankPrefix      *string   `json:"userRankPrefix,omitempty"`
	ChangedByRankPrefix *string   `json:"changedByRankPrefix,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
}
