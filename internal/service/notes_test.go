package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/domain"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/dto"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/service"
)

func historyActions(t *testing.T, h *harness, userID domain.UserID) []string {
	t.Helper()
	events, err := h.svc.NoteHistory(context.Background(), userID)
	if err != nil {
		t.Fatalf("note history: %v", err)
	}
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Action)
	}
	return out
}

func TestSaveNoteReplacesExisting(t *testing.T) {
	h := setup(t, service.Capabilities{})
	ctx := context.Background()
	mgr := h.users[managerID]

	first, err := h.svc.SaveNote(ctx, mgr, recruitID, dto.CreateNoteRequest{Note: "  hello "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.Action != service.NoteCreated || first.Note == nil || first.Note.Note != "hello" {
		t.Fatalf("unexpected create result: %+v", first)
	}

	second, err := h.svc.SaveNote(ctx, mgr, recruitID, dto.CreateNoteRequest{Note: "world"})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if second.Action != service.NoteUpdated || second.Note.ID != first.Note.ID {
		t.Fatalf("expected in-place update, got %+v", second)
	}

	notes, err := h.svc.Notes(ctx, mgr, recruitID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(notes) != 1 || notes[0].Note != "world" {
		t.Fatalf("expected a single note 'world', got %+v", notes)
	}
	if notes[0].CreatedBy == nil || notes[0].CreatedBy.Username != "sergeant" {
		t.Fatalf("unexpected author: %+v", notes[0].CreatedBy)
	}

	got := historyActions(t, h, recruitID)
	if strings.Join(got, ",") != "updated,created" {
		t.Fatalf("history = %v", got)
	}
}

func TestSaveNoteRemovesStrayDuplicates(t *testing.T) {
	h := setup(t, service.Capabilities{})
	ctx := context.Background()
	now := time.Now().UTC()
	for i, text := range []string{"one", "two"} {
		n := &domain.Note{UserID: recruitID, CreatedByID: managerID, Note: text, CreatedAt: now, UpdatedAt: now.Add(time.Duration(i) * time.Second)}
		if err := h.st.DB.Create(n).Error; err != nil {
			t.Fatalf("seed note: %v", err)
		}
	}

	if _, err := h.svc.SaveNote(ctx, h.users[managerID], recruitID, dto.CreateNoteRequest{Note: "three"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := countNotes(t, h.st, recruitID); got != 1 {
		t.Fatalf("expected duplicates to be removed, got %d rows", got)
	}
}

func TestSaveBlankNoteWithoutNoteIsNoOp(t *testing.T) {
	h := setup(t, service.Capabilities{})
	res, err := h.svc.SaveNote(context.Background(), h.users[managerID], recruitID, dto.CreateNoteRequest{Note: "   "})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if res.Changed || res.Note != nil || res.Action != "" {
		t.Fatalf("expected no-op, got %+v", res)
	}
	if countNotes(t, h.st, recruitID) != 0 || len(historyActions(t, h, recruitID)) != 0 {
		t.Fatalf("blank note wrote rows")
	}
}

func TestSaveBlankNoteClearsExisting(t *testing.T) {
	h := setup(t, service.Capabilities{})
	ctx := context.Background()
	mgr := h.users[managerID]
	if _, err := h.svc.SaveNote(ctx, mgr, recruitID, dto.CreateNoteRequest{Note: "hello"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := h.svc.SaveNote(ctx, mgr, recruitID, dto.CreateNoteRequest{Note: ""})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !res.Changed || res.Action != service.NoteCleared || res.Note != nil {
		t.Fatalf("unexpected clear result: %+v", res)
	}
	if countNotes(t, h.st, recruitID) != 0 {
		t.Fatalf("note row survived clear")
	}
	if got := historyActions(t, h, recruitID); got[0] != "cleared" {
		t.Fatalf("history = %v", got)
	}
}

func TestSaveNoteValidation(t *testing.T) {
	h := setup(t, service.Capabilities{})
	ctx := context.Background()

	_, err := h.svc.SaveNote(ctx, h.users[managerID], recruitID, dto.CreateNoteRequest{Note: strings.Repeat("x", domain.MaxNoteLength+1)})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = h.svc.SaveNote(ctx, h.users[managerID], 999, dto.CreateNoteRequest{Note: "hi"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	_, err = h.svc.SaveNote(ctx, h.users[viewerID], recruitID, dto.CreateNoteRequest{Note: "hi"})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if countNotes(t, h.st, recruitID) != 0 {
		t.Fatalf("rejected saves wrote rows")
	}
}

func TestUpdateNotePatchesPresentFields(t *testing.T) {
	h := setup(t, service.Capabilities{})
	ctx := context.Background()
	mgr := h.users[managerID]
	created, err := h.svc.SaveNote(ctx, mgr, recruitID, dto.CreateNoteRequest{Note: "hello"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := created.Note.ID

	pinned := true
	res, err := h.svc.UpdateNote(ctx, mgr, id, dto.UpdateNoteRequest{Pinned: &pinned})
	if err != nil {
		t.Fatalf("pin: %v", err)
	}
	if res.Note.Note != "hello" || !res.Note.Pinned {
		t.Fatalf("pin should keep text: %+v", res.Note)
	}

	text := " updated "
	res, err = h.svc.UpdateNote(ctx, mgr, id, dto.UpdateNoteRequest{Note: &text})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if res.Note.Note != "updated" || !res.Note.Pinned {
		t.Fatalf("edit should keep pinned: %+v", res.Note)
	}

	blank := "  "
	if _, err := h.svc.UpdateNote(ctx, mgr, id, dto.UpdateNoteRequest{Note: &blank}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("blank update should fail validation, got %v", err)
	}
	if _, err := h.svc.UpdateNote(ctx, mgr, id+100, dto.UpdateNoteRequest{Pinned: &pinned}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteNote(t *testing.T) {
	h := setup(t, service.Capabilities{})
	ctx := context.Background()
	mgr := h.users[managerID]
	created, err := h.svc.SaveNote(ctx, mgr, recruitID, dto.CreateNoteRequest{Note: "hello"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := h.svc.DeleteNote(ctx, h.users[viewerID], created.Note.ID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("viewer delete: %v", err)
	}
	res, err := h.svc.DeleteNote(ctx, mgr, created.Note.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if res.Action != service.NoteDeleted {
		t.Fatalf("unexpected result: %+v", res)
	}
	if countNotes(t, h.st, recruitID) != 0 {
		t.Fatalf("note not deleted")
	}
	if got := historyActions(t, h, recruitID); got[0] != "deleted" {
		t.Fatalf("history = %v", got)
	}
	if _, err := h.svc.DeleteNote(ctx, mgr, created.Note.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
}

func TestUpdateNoteWithoutChangesWritesNothing(t *testing.T) {
	h := setup(t, service.Capabilities{})
	ctx := context.Background()
	mgr := h.users[managerID]
	created, err := h.svc.SaveNote(ctx, mgr, recruitID, dto.CreateNoteRequest{Note: "hello"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := created.Note.ID

	same := "hello"
	unpinned := false
	for name, req := range map[string]dto.UpdateNoteRequest{
		"empty":     {},
		"same text": {Note: &same},
		"same pin":  {Pinned: &unpinned},
	} {
		res, err := h.svc.UpdateNote(ctx, mgr, id, req)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if res.Changed || res.Action != "" || res.Note == nil || res.Note.Note != "hello" {
			t.Fatalf("%s: unexpected result %+v", name, res)
		}
		if !res.Note.UpdatedAt.Equal(created.Note.UpdatedAt) {
			t.Fatalf("%s: note was rewritten", name)
		}
	}
	if got := historyActions(t, h, recruitID); strings.Join(got, ",") != "created" {
		t.Fatalf("history = %v", got)
	}
	if _, err := h.svc.UpdateNote(ctx, mgr, id+100, dto.UpdateNoteRequest{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNoteByDeletedAuthorRendersWithoutAuthor(t *testing.T) {
	h := setup(t, service.Capabilities{})
	ctx := context.Background()
	created, err := h.svc.SaveNote(ctx, h.users[managerID], recruitID, dto.CreateNoteRequest{Note: "hello"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := h.st.DB.Delete(&domain.User{}, managerID).Error; err != nil {
		t.Fatalf("delete author: %v", err)
	}

	d, err := h.svc.UserDetail(ctx, h.users[viewerID], recruitID)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if d.Note == nil || d.Note.ID != created.Note.ID || d.Note.CreatedBy != nil {
		t.Fatalf("unexpected note: %+v", d.Note)
	}
}

func TestNoteAuthorLookupErrorsPropagate(t *testing.T) {
	h := setup(t, service.Capabilities{})
	ctx := context.Background()
	created, err := h.svc.SaveNote(ctx, h.users[managerID], recruitID, dto.CreateNoteRequest{Note: "hello"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := h.st.DB.Migrator().DropTable(&domain.User{}); err != nil {
		t.Fatalf("drop users: %v", err)
	}

	pinned := true
	res, err := h.svc.UpdateNote(ctx, h.users[managerID], created.Note.ID, dto.UpdateNoteRequest{Pinned: &pinned})
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected author lookup failure, got %v %+v", err, res)
	}
}
