package crmservice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Plugtour/plugconversa-pro-sub000/internal/apperr"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/testutil"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(testutil.TestStore(t))
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	e, ok := apperr.As(err)
	require.True(t, ok, "not an apperr: %v", err)
	assert.Equal(t, code, e.Code)
}

func TestCreateContactNormalisesPhoneAndTags(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tag, err := svc.CreateTag(ctx, 1, TagInput{Name: "vip", Color: "#f80"})
	require.NoError(t, err)

	c, err := svc.CreateContact(ctx, 1, ContactInput{Name: " Ana ", Phone: "+55 (11) 99999-0000", TagIDs: []int64{tag.ID}})
	require.NoError(t, err)
	assert.Equal(t, "Ana", c.Name)
	assert.Equal(t, "5511999990000", c.Phone)
	require.Len(t, c.Tags, 1)

	// Same number written differently still conflicts.
	_, err = svc.CreateContact(ctx, 1, ContactInput{Name: "Other", Phone: "5511999990000"})
	requireCode(t, err, "contact_phone_conflict")

	// Update without tag_ids keeps the tags.
	c, err = svc.UpdateContact(ctx, 1, c.ID, ContactInput{Name: "Ana S", Phone: c.Phone})
	require.NoError(t, err)
	assert.Len(t, c.Tags, 1)
}

func TestContactWriteRollsBackOnUnknownTag(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	foreign, err := svc.CreateTag(ctx, 2, TagInput{Name: "other", Color: "#000"})
	require.NoError(t, err)

	for _, ids := range [][]int64{{999}, {foreign.ID}} {
		_, err = svc.CreateContact(ctx, 1, ContactInput{Name: "Ana", Phone: "5511999990000", TagIDs: ids})
		requireCode(t, err, "tag_not_found")
	}
	_, total, err := svc.ListContacts(ctx, 1, "", 0, 0)
	require.NoError(t, err)
	assert.Zero(t, total)

	// A retry with valid tags succeeds instead of hitting a phone conflict.
	c, err := svc.CreateContact(ctx, 1, ContactInput{Name: "Ana", Phone: "5511999990000"})
	require.NoError(t, err)

	_, err = svc.UpdateContact(ctx, 1, c.ID, ContactInput{Name: "Renamed", Phone: "5511888880000", TagIDs: []int64{999}})
	requireCode(t, err, "tag_not_found")
	got, err := svc.GetContact(ctx, 1, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Name)
	assert.Equal(t, "5511999990000", got.Phone)

	_, err = svc.CreateContact(ctx, 1, ContactInput{Name: "Bad", TagIDs: []int64{0}})
	requireCode(t, err, apperr.CodeValidation)
}

func TestValidationErrors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateContact(ctx, 1, ContactInput{Phone: "abc"})
	requireCode(t, err, apperr.CodeValidation)
	e, _ := apperr.As(err)
	assert.Error(t, e.Details)

	_, err = svc.CreateTag(ctx, 1, TagInput{Name: "x", Color: "red"})
	requireCode(t, err, apperr.CodeValidation)

	_, err = svc.SetContactTags(ctx, 1, 1, TagsInput{})
	requireCode(t, err, apperr.CodeValidation)

	_, err = svc.MoveCard(ctx, 1, 1, MoveInput{})
	requireCode(t, err, apperr.CodeValidation)
}

func TestKanbanFlow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	contact, err := svc.CreateContact(ctx, 1, ContactInput{Name: "Lead"})
	require.NoError(t, err)
	foreign, err := svc.CreateContact(ctx, 2, ContactInput{Name: "Other"})
	require.NoError(t, err)

	board, err := svc.CreateBoard(ctx, 1, BoardInput{Title: "Pipeline", Columns: []string{"New", "Won"}})
	require.NoError(t, err)
	require.Len(t, board.Columns, 2)

	card, err := svc.CreateCard(ctx, 1, board.Columns[0].ID, CardInput{Title: "Deal", ContactID: &contact.ID})
	require.NoError(t, err)

	_, err = svc.CreateCard(ctx, 1, board.Columns[0].ID, CardInput{Title: "Bad", ContactID: &foreign.ID})
	requireCode(t, err, "contact_not_found")

	moved, err := svc.MoveCard(ctx, 1, card.ID, MoveInput{ColumnID: board.Columns[1].ID})
	require.NoError(t, err)
	assert.Equal(t, board.Columns[1].ID, moved.ColumnID)

	_, err = svc.CreateColumn(ctx, 2, board.ID, ColumnInput{Title: "X"})
	requireCode(t, err, "board_not_found")

	// Deleting the contact keeps the card but unlinks it.
	require.NoError(t, svc.DeleteContact(ctx, 1, contact.ID))
	board, err = svc.GetBoard(ctx, 1, board.ID)
	require.NoError(t, err)
	require.Len(t, board.Columns[1].Cards, 1)
	assert.Nil(t, board.Columns[1].Cards[0].ContactID)
}
