package dto

import "time"

type CreateNoteRequest struct {
	Note   string `json:"note"`
	Pinned *bool  `json:"pinned"`
}

// UpdateNoteRequest is a partial patch; nil fields are left unchanged.
type UpdateNoteRequest struct {
	Note   *string `json:"note"`
	Pinned *bool   `json:"pinned"`
}

type Note struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Note      string    `json:"note"`
	Pinned    bool      `json:"pinned"`
	CreatedBy *UserRef  `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NoteResponse carries the live note, nil after a clear or delete.
type NoteResponse struct {
	Note    *Note  `json:"note"`
	Action  string `json:"action,omitempty"`
	Changed bool   `json:"changed"`
}

type HistoryEvent struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	Actor     *UserRef  `json:"actor,omitempty"`
	NoteID    *int64    `json:"noteId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
