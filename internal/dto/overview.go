package dto

import "time"

type OverviewRecruit struct {
	ID            int64      `json:"id"`
	Username      string     `json:"username"`
	Name          string     `json:"name"`
	Status        string     `json:"status"`
	StatusLabel   string     `json:"statusLabel"`
	Manual        bool       `json:"manualTracking"`
	JoinedAt      *time.Time `json:"joinedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastChangedAt *time.Time `json:"lastChangedAt"`
	RankPrefix    *string    `json:"rankPrefix,omitempty"`
	Note          *Note      `json:"note"`
}

type OverviewColumn struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Previous *StatusOption     `json:"previous"`
	Next     *StatusOption     `json:"next"`
	Users    []OverviewRecruit `json:"users"`
}

type Overview struct {
	Columns   []OverviewColumn `json:"columns"`
	CanManage bool             `json:"canManage"`
	AuditLog  []AuditEntry     `json:"auditLog,omitempty"`
}

// AuditEntry is one row of the merged status/note audit feed.
type AuditEntry struct {
	Kind           string    `json:"kind"`
	ID             int64     `json:"id"`
	Action         string    `json:"action"`
	User           *UserRef  `json:"user,omitempty"`
	Actor          *UserRef  `json:"actor,omitempty"`
	UserPrefix     *string   `json:"userRankPrefix,omitempty"`
	ActorPrefix    *string   `json:"actorRankPrefix,omitempty"`
	PreviousStatus *string   `json:"previousStatus,omitempty"`
	PreviousLabel  string    `json:"previousStatusLabel,omitempty"`
	NewStatus      *string   `json:"newStatus,omitempty"`
	NewLabel       string    `json:"newStatusLabel,omitempty"`
	NoteID         *int64    `json:"noteId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

type AuditResponse struct {
	Entries []AuditEntry `json:"entries"`
}
