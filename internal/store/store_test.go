package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Plugtour/plugconversa-pro-sub000/internal/apperr"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/database"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(context.Background(), database.Options{
		Driver: database.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func ptr[T any](v T) *T { return &v }

func requireCode(t *testing.T, err error, kind error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, kind), "kind: %v", err)
	e, ok := apperr.As(err)
	require.True(t, ok, "not an apperr: %v", err)
	assert.Equal(t, code, e.Code)
}

func TestContacts_TenantIsolation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := &models.Contact{ClientID: 1, Name: "Ana", Phone: "5511999990000"}
	require.NoError(t, s.CreateContact(ctx, c, nil))

	_, err := s.GetContact(ctx, 2, c.ID)
	requireCode(t, err, apperr.ErrNotFound, "contact_not_found")

	err = s.DeleteContact(ctx, 2, c.ID)
	requireCode(t, err, apperr.ErrNotFound, "contact_not_found")

	items, total, err := s.ListContacts(ctx, 2, "", Page{})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, items)

	items, total, err = s.ListContacts(ctx, 1, "an", Page{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Ana", items[0].Name)
}

func TestContacts_PhoneConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateContact(ctx, &models.Contact{ClientID: 1, Name: "A", Phone: "551100"}, nil))
	err := s.CreateContact(ctx, &models.Contact{ClientID: 1, Name: "B", Phone: "551100"}, nil)
	requireCode(t, err, apperr.ErrConflict, "contact_phone_conflict")

	// Same phone under another tenant is fine.
	require.NoError(t, s.CreateContact(ctx, &models.Contact{ClientID: 2, Name: "B", Phone: "551100"}, nil))
}

func TestContacts_SetTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := &models.Contact{ClientID: 1, Name: "Ana"}
	require.NoError(t, s.CreateContact(ctx, c, nil))
	vip := &models.Tag{ClientID: 1, Name: "vip"}
	require.NoError(t, s.CreateTag(ctx, vip))
	foreign := &models.Tag{ClientID: 2, Name: "other"}
	require.NoError(t, s.CreateTag(ctx, foreign))

	got, err := s.SetContactTags(ctx, 1, c.ID, []int64{vip.ID, vip.ID})
	require.NoError(t, err)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "vip", got.Tags[0].Name)

	_, err = s.SetContactTags(ctx, 1, c.ID, []int64{foreign.ID})
	requireCode(t, err, apperr.ErrNotFound, "tag_not_found")

	require.NoError(t, s.DeleteTag(ctx, 1, vip.ID))
	got, err = s.GetContact(ctx, 1, c.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)
}

func TestTags_NameConflictIsCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTag(ctx, &models.Tag{ClientID: 1, Name: "Lead"}))
	err := s.CreateTag(ctx, &models.Tag{ClientID: 1, Name: "lead"})
	requireCode(t, err, apperr.ErrConflict, "tag_name_conflict")
}

func TestFolders_DeleteNonEmpty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	folder, err := s.CreateFolder(ctx, 1, "Sales")
	require.NoError(t, err)
	flow, err := s.CreateFlow(ctx, 1, &folder.ID, "Welcome")
	require.NoError(t, err)

	err = s.DeleteFolder(ctx, 1, folder.ID)
	requireCode(t, err, apperr.ErrConflict, "folder_not_empty")

	require.NoError(t, s.DeleteFlow(ctx, 1, flow.ID))
	require.NoError(t, s.DeleteFolder(ctx, 1, folder.ID))
}

func TestSteps_References(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	flow, err := s.CreateFlow(ctx, 1, nil, "A")
	require.NoError(t, err)
	other, err := s.CreateFlow(ctx, 1, nil, "B")
	require.NoError(t, err)

	foreign := &models.FlowStep{ClientID: 1, FlowID: other.ID, Title: "x", Type: models.StepMessage}
	require.NoError(t, s.CreateStep(ctx, foreign))

	first := &models.FlowStep{ClientID: 1, FlowID: flow.ID, Title: "first", Type: models.StepMessage}
	require.NoError(t, s.CreateStep(ctx, first))

	bad := &models.FlowStep{ClientID: 1, FlowID: flow.ID, Title: "bad", Type: models.StepMessage, NextStepID: &foreign.ID}
	err = s.CreateStep(ctx, bad)
	requireCode(t, err, apperr.ErrValidation, "invalid_step_reference")

	second := &models.FlowStep{ClientID: 1, FlowID: flow.ID, Title: "second", Type: models.StepMessage, NextStepID: &first.ID, Position: 1}
	require.NoError(t, s.CreateStep(ctx, second))

	// Deleting a step clears references to it.
	require.NoError(t, s.DeleteStep(ctx, 1, first.ID))
	got, err := s.GetStep(ctx, 1, second.ID)
	require.NoError(t, err)
	assert.Nil(t, got.NextStepID)

	_, err = s.GetStep(ctx, 2, second.ID)
	requireCode(t, err, apperr.ErrNotFound, "step_not_found")
}

func TestCopyFlow_RemapsReferences(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	src, err := s.CreateFlow(ctx, 1, nil, "Onboarding")
	require.NoError(t, err)

	a := &models.FlowStep{ClientID: 1, FlowID: src.ID, Title: "a", Type: models.StepCondition, Position: 0}
	require.NoError(t, s.CreateStep(ctx, a))
	b := &models.FlowStep{ClientID: 1, FlowID: src.ID, Title: "b", Type: models.StepMessage, Position: 1}
	require.NoError(t, s.CreateStep(ctx, b))
	c := &models.FlowStep{ClientID: 1, FlowID: src.ID, Title: "c", Type: models.StepMessage, Position: 2}
	require.NoError(t, s.CreateStep(ctx, c))

	// a branches forward to b and c, c loops back to a.
	a.ConditionTrueID, a.ConditionFalseID = &b.ID, &c.ID
	require.NoError(t, s.UpdateStep(ctx, a))
	c.NextStepID = &a.ID
	require.NoError(t, s.UpdateStep(ctx, c))

	dst, err := s.CopyFlow(ctx, 1, src.ID, "", false, nil)
	require.NoError(t, err)
	assert.Equal(t, "Onboarding (copy)", dst.Name)
	assert.NotEqual(t, src.ID, dst.ID)
	require.Len(t, dst.Steps, 3)

	byTitle := map[string]models.FlowStep{}
	ids := map[int64]bool{}
	for _, st := range dst.Steps {
		byTitle[st.Title] = st
		ids[st.ID] = true
		assert.Equal(t, dst.ID, st.FlowID)
	}
	na, nb, nc := byTitle["a"], byTitle["b"], byTitle["c"]
	require.NotNil(t, na.ConditionTrueID)
	require.NotNil(t, na.ConditionFalseID)
	require.NotNil(t, nc.NextStepID)
	assert.Equal(t, nb.ID, *na.ConditionTrueID)
	assert.Equal(t, nc.ID, *na.ConditionFalseID)
	assert.Equal(t, na.ID, *nc.NextStepID)
	assert.Nil(t, nb.NextStepID)
	assert.False(t, ids[a.ID] || ids[b.ID] || ids[c.ID], "copy must not reuse source ids")

	// Source untouched.
	orig, err := s.GetFlow(ctx, 1, src.ID)
	require.NoError(t, err)
	require.Len(t, orig.Steps, 3)
	assert.Equal(t, b.ID, *orig.Steps[0].ConditionTrueID)
}

func TestCopyFlow_IntoFolder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	src, err := s.CreateFlow(ctx, 1, nil, "F")
	require.NoError(t, err)
	folder, err := s.CreateFolder(ctx, 1, "Target")
	require.NoError(t, err)
	foreign, err := s.CreateFolder(ctx, 2, "Other")
	require.NoError(t, err)

	dst, err := s.CopyFlow(ctx, 1, src.ID, "Named", true, &folder.ID)
	require.NoError(t, err)
	assert.Equal(t, "Named", dst.Name)
	require.NotNil(t, dst.FolderID)
	assert.Equal(t, folder.ID, *dst.FolderID)

	_, err = s.CopyFlow(ctx, 1, src.ID, "", true, &foreign.ID)
	requireCode(t, err, apperr.ErrNotFound, "folder_not_found")

	_, err = s.CopyFlow(ctx, 2, src.ID, "", false, nil)
	requireCode(t, err, apperr.ErrNotFound, "flow_not_found")
}

func TestCopyFolder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	folder, err := s.CreateFolder(ctx, 1, "Campaigns")
	require.NoError(t, err)
	for _, name := range []string{"one", "two"} {
		f, err := s.CreateFlow(ctx, 1, &folder.ID, name)
		require.NoError(t, err)
		st := &models.FlowStep{ClientID: 1, FlowID: f.ID, Title: name, Type: models.StepMessage}
		require.NoError(t, s.CreateStep(ctx, st))
		st.NextStepID = &st.ID
		require.NoError(t, s.UpdateStep(ctx, st))
	}

	dst, err := s.CopyFolder(ctx, 1, folder.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "Campaigns (copy)", dst.Name)
	assert.Equal(t, 2, dst.FlowCount)

	flows, err := s.ListFlows(ctx, 1, FlowFilter{FolderID: &dst.ID})
	require.NoError(t, err)
	require.Len(t, flows, 2)
	for _, f := range flows {
		full, err := s.GetFlow(ctx, 1, f.ID)
		require.NoError(t, err)
		require.Len(t, full.Steps, 1)
		require.NotNil(t, full.Steps[0].NextStepID)
		assert.Equal(t, full.Steps[0].ID, *full.Steps[0].NextStepID)
	}

	_, err = s.CopyFolder(ctx, 2, folder.ID, "")
	requireCode(t, err, apperr.ErrNotFound, "folder_not_found")
}

func TestCopyFolder_FailureLeavesNothingBehind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	folder, err := s.CreateFolder(ctx, 1, "Campaigns")
	require.NoError(t, err)
	for _, name := range []string{"one", "two"} {
		f, err := s.CreateFlow(ctx, 1, &folder.ID, name)
		require.NoError(t, err)
		require.NoError(t, s.CreateStep(ctx, &models.FlowStep{ClientID: 1, FlowID: f.ID, Title: name, Type: models.StepMessage}))
	}

	// Any second "two" step aborts, so the copy fails after the folder and
	// at least one flow were written.
	_, err = s.db.ExecContext(ctx, `
		CREATE TRIGGER fail_copy BEFORE INSERT ON flow_steps
		WHEN NEW.title = 'two' AND (SELECT count(*) FROM flow_steps WHERE title = 'two') > 0
		BEGIN SELECT RAISE(ABORT, 'copy failed'); END`)
	require.NoError(t, err)

	_, err = s.CopyFolder(ctx, 1, folder.ID, "")
	require.Error(t, err)

	folders, err := s.ListFolders(ctx, 1)
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, folder.ID, folders[0].ID)

	flows, err := s.ListFlows(ctx, 1, FlowFilter{})
	require.NoError(t, err)
	assert.Len(t, flows, 2)

	var steps int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT count(*) FROM flow_steps`).Scan(&steps))
	assert.Equal(t, 2, steps)
}

func TestImportFlow_UnknownKeysBecomeNull(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	flow, err := s.ImportFlow(ctx, 1, nil, "Imported", []GraphNode{
		{Key: "end", Title: "end", Type: models.StepMessage, Position: 1, Next: "missing"},
		{Key: "start", Title: "start", Type: models.StepMessage, Position: 0, Next: "end"},
	})
	require.NoError(t, err)
	require.Len(t, flow.Steps, 2)
	assert.Equal(t, "start", flow.Steps[0].Title)
	require.NotNil(t, flow.Steps[0].NextStepID)
	assert.Equal(t, flow.Steps[1].ID, *flow.Steps[0].NextStepID)
	assert.Nil(t, flow.Steps[1].NextStepID)
}

func TestKanban_MoveCard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	board, err := s.CreateBoard(ctx, 1, "Pipeline", []string{"New", "Won"})
	require.NoError(t, err)
	require.Len(t, board.Columns, 2)
	todo, won := board.Columns[0], board.Columns[1]

	cards := make([]*models.KanbanCard, 3)
	for i, title := range []string{"a", "b", "c"} {
		cards[i] = &models.KanbanCard{ColumnID: todo.ID, Title: title}
		require.NoError(t, s.CreateCard(ctx, 1, cards[i]))
		assert.Equal(t, i, cards[i].Position)
	}

	// Within a column: move "a" to the end.
	moved, err := s.MoveCard(ctx, 1, cards[0].ID, todo.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, moved.Position)
	assertOrder(t, s, 1, board.ID, todo.ID, "b", "c", "a")

	// Across columns: move "c" to the top of Won.
	moved, err = s.MoveCard(ctx, 1, cards[2].ID, won.ID, -3)
	require.NoError(t, err)
	assert.Equal(t, won.ID, moved.ColumnID)
	assert.Equal(t, 0, moved.Position)
	assertOrder(t, s, 1, board.ID, todo.ID, "b", "a")
	assertOrder(t, s, 1, board.ID, won.ID, "c")

	other, err := s.CreateBoard(ctx, 1, "Other", []string{"X"})
	require.NoError(t, err)
	_, err = s.MoveCard(ctx, 1, cards[1].ID, other.Columns[0].ID, 0)
	requireCode(t, err, apperr.ErrValidation, "invalid_card_move")

	_, err = s.MoveCard(ctx, 2, cards[1].ID, won.ID, 0)
	requireCode(t, err, apperr.ErrNotFound, "card_not_found")

	require.NoError(t, s.DeleteCard(ctx, 1, cards[1].ID))
	assertOrder(t, s, 1, board.ID, todo.ID, "a")
}

func assertOrder(t *testing.T, s *Store, clientID, boardID, columnID int64, titles ...string) {
	t.Helper()
	b, err := s.GetBoard(context.Background(), clientID, boardID)
	require.NoError(t, err)
	for _, col := range b.Columns {
		if col.ID != columnID {
			continue
		}
		got := make([]string, len(col.Cards))
		for i, c := range col.Cards {
			got[i] = c.Title
			assert.Equal(t, i, c.Position, "positions must be dense")
		}
		assert.Equal(t, titles, got)
		return
	}
	t.Fatalf("column %d not on board %d", columnID, boardID)
}

func TestKanban_ColumnReorderAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	board, err := s.CreateBoard(ctx, 1, "P", []string{"a", "b", "c"})
	require.NoError(t, err)
	c := board.Columns[2]

	_, err = s.UpdateColumn(ctx, 1, c.ID, "c", "", ptr(0))
	require.NoError(t, err)
	board, err = s.GetBoard(ctx, 1, board.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, columnTitles(board))

	require.NoError(t, s.DeleteColumn(ctx, 1, board.Columns[1].ID))
	board, err = s.GetBoard(ctx, 1, board.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, columnTitles(board))
	assert.Equal(t, 1, board.Columns[1].Position)

	_, err = s.GetBoard(ctx, 2, board.ID)
	requireCode(t, err, apperr.ErrNotFound, "board_not_found")
	require.NoError(t, s.DeleteBoard(ctx, 1, board.ID))
	_, err = s.GetBoard(ctx, 1, board.ID)
	requireCode(t, err, apperr.ErrNotFound, "board_not_found")
}

func columnTitles(b *models.KanbanBoard) []string {
	out := make([]string, len(b.Columns))
	for i, c := range b.Columns {
		out[i] = c.Title
	}
	return out
}

func TestInbox_UpdateRecordsEvents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	conv := &models.Conversation{ClientID: 1, LeadName: "Bia", LeadPhone: "5511"}
	events, err := s.CreateConversation(ctx, conv, "agent")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventCreated, events[0].Type)
	assert.Equal(t, models.StatusOpen, conv.Status)

	got, events, err := s.UpdateConversation(ctx, 1, conv.ID, ConversationPatch{
		Status:     ptr(models.StatusPending),
		IsPinned:   ptr(true),
		AssignedTo: ptr("joao"),
	}, "agent")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.True(t, got.IsPinned)
	require.Len(t, events, 3)
	assert.Equal(t, models.EventStatusChanged, events[0].Type)
	assert.Equal(t, "open -> pending", events[0].Body)

	// No-op patch records nothing.
	_, events, err = s.UpdateConversation(ctx, 1, conv.ID, ConversationPatch{Status: ptr(models.StatusPending)}, "agent")
	require.NoError(t, err)
	assert.Empty(t, events)

	all, err := s.ListEvents(ctx, 1, conv.ID)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, err = s.ListEvents(ctx, 2, conv.ID)
	requireCode(t, err, apperr.ErrNotFound, "conversation_not_found")
}

func TestInbox_ListOrderAndFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mk := func(name string) *models.Conversation {
		c := &models.Conversation{ClientID: 1, LeadName: name, LeadPhone: name}
		_, err := s.CreateConversation(ctx, c, "")
		require.NoError(t, err)
		return c
	}
	old, recent, pinned := mk("old"), mk("recent"), mk("pinned")

	_, err := s.RecordMessage(ctx, &models.ConversationEvent{ClientID: 1, ConversationID: old.ID, Type: models.EventMessageIn, Body: "hi", CreatedAt: base})
	require.NoError(t, err)
	_, err = s.RecordMessage(ctx, &models.ConversationEvent{ClientID: 1, ConversationID: recent.ID, Type: models.EventMessageOut, Body: "yo", CreatedAt: base.Add(time.Hour)})
	require.NoError(t, err)
	_, _, err = s.UpdateConversation(ctx, 1, pinned.ID, ConversationPatch{IsPinned: ptr(true)}, "")
	require.NoError(t, err)

	items, total, err := s.ListConversations(ctx, 1, ConversationFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 3)
	assert.Equal(t, "pinned", items[0].LeadName)

	items, _, err = s.ListConversations(ctx, 1, ConversationFilter{Unread: ptr(true)})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "old", items[0].LeadName)

	items, _, err = s.ListConversations(ctx, 1, ConversationFilter{Query: "REC"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "recent", items[0].LeadName)

	stats, err := s.InboxStats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Open)
	assert.Equal(t, 1, stats.Unread)
}

func TestInbox_ReceiveMessage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	contact := &models.Contact{ClientID: 1, Name: "Caio", Phone: "5511988887777"}
	require.NoError(t, s.CreateContact(ctx, contact, nil))

	msg := InboundMessage{Phone: contact.Phone, Text: "oi", ExternalID: "ABC"}
	res, err := s.ReceiveMessage(ctx, 1, msg)
	require.NoError(t, err)
	assert.True(t, res.Created)
	require.NotNil(t, res.Conversation.ContactID)
	assert.Equal(t, contact.ID, *res.Conversation.ContactID)
	assert.Equal(t, "Caio", res.Conversation.LeadName)
	assert.True(t, res.Conversation.IsUnread)
	assert.Equal(t, "oi", res.Conversation.LastMessage)

	dup, err := s.ReceiveMessage(ctx, 1, msg)
	require.NoError(t, err)
	assert.True(t, dup.Duplicate)

	next, err := s.ReceiveMessage(ctx, 1, InboundMessage{Phone: contact.Phone, Text: "again", ExternalID: "DEF"})
	require.NoError(t, err)
	assert.False(t, next.Created)
	assert.Equal(t, res.Conversation.ID, next.Conversation.ID)

	events, err := s.ListEvents(ctx, 1, res.Conversation.ID)
	require.NoError(t, err)
	assert.Len(t, events, 3) // created + two messages

	// Another tenant gets its own conversation.
	other, err := s.ReceiveMessage(ctx, 2, InboundMessage{Phone: contact.Phone, Text: "x", ExternalID: "ABC"})
	require.NoError(t, err)
	assert.True(t, other.Created)
	assert.Nil(t, other.Conversation.ContactID)
}

func TestInbox_ExternalIDIsUniquePerTenant(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	res, err := s.ReceiveMessage(ctx, 1, InboundMessage{Phone: "5511977776666", Text: "oi", ExternalID: "WAMID"})
	require.NoError(t, err)

	// A racing delivery that slipped past the lookup hits the index.
	err = s.insertEvent(ctx, s.db, &models.ConversationEvent{
		ClientID: 1, ConversationID: res.Conversation.ID, Type: models.EventMessageIn, ExternalID: "WAMID",
	})
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err), "got %v", err)

	// Empty external ids never collide.
	for range 2 {
		require.NoError(t, s.insertEvent(ctx, s.db, &models.ConversationEvent{
			ClientID: 1, ConversationID: res.Conversation.ID, Type: models.EventNote,
		}))
	}

	events, err := s.ListEvents(ctx, 1, res.Conversation.ID)
	require.NoError(t, err)
	var withID int
	for _, e := range events {
		if e.ExternalID == "WAMID" {
			withID++
		}
	}
	assert.Equal(t, 1, withID)
}

func TestContacts_SearchFoldsUnicode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateContact(ctx, &models.Contact{ClientID: 1, Name: "ÉRICA Souza"}, nil))
	require.NoError(t, s.CreateContact(ctx, &models.Contact{ClientID: 1, Name: "Bruno"}, nil))

	for _, q := range []string{"érica", "ÉRICA", "Érica"} {
		list, total, err := s.ListContacts(ctx, 1, q, Page{})
		require.NoError(t, err)
		assert.Equal(t, 1, total, q)
		require.Len(t, list, 1, q)
		assert.Equal(t, "ÉRICA Souza", list[0].Name)
	}
}
