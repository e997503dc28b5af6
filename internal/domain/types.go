package domain

type UserID = int64
type GroupID = int64
type NoteID = int64
type StatusChangeID = int64
type HistoryID = int64
