package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checklistapi/models"
)

func newTestService(t *testing.T) (*ChecklistService, *JSONStore) {
	t.Helper()
	store := newTestJSONStore(t, JSONStoreOptions{})
	return NewChecklistService(store), store
}

// failingStore wraps a store and fails the operations named in failOn.
type failingStore struct {
	ChecklistStore
	failOn       map[string]bool
	updateResult *bool
}

var errStoreDown = errors.New("store down")

func (f *failingStore) Create(ctx context.Context, c *models.Checklist) (string, error) {
	if f.failOn["create"] {
		return "", errStoreDown
	}
	return f.ChecklistStore.Create(ctx, c)
}

func (f *failingStore) Update(ctx context.Context, id string, p models.ChecklistPatch) (bool, error) {
	if f.failOn["update"] {
		return false, errStoreDown
	}
	if f.updateResult != nil {
		return *f.updateResult, nil
	}
	return f.ChecklistStore.Update(ctx, id, p)
}

func (f *failingStore) List(ctx context.Context, filter models.ListFilter) ([]models.Checklist, error) {
	if f.failOn["list"] {
		return nil, errStoreDown
	}
	return f.ChecklistStore.List(ctx, filter)
}

func TestChecklistService_CreateIgnoresClientID(t *testing.T) {
	svc, _ := newTestService(t)

	created, err := svc.CreateChecklist(context.Background(), models.Checklist{ID: "999", Name: "Trip"})
	require.NoError(t, err)
	assert.Equal(t, "1", created.ID)
	assert.Equal(t, fixedNow, created.CreatedAt)
	assert.NotNil(t, created.Categories)
}

func TestChecklistService_CreateStoreError(t *testing.T) {
	store := newTestJSONStore(t, JSONStoreOptions{})
	svc := NewChecklistService(&failingStore{ChecklistStore: store, failOn: map[string]bool{"create": true}})

	_, err := svc.CreateChecklist(context.Background(), models.Checklist{Name: "Trip"})
	assert.ErrorIs(t, err, errStoreDown)
}

func TestChecklistService_UpdateChecklist(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	created, err := svc.CreateChecklist(ctx, models.Checklist{Name: "Trip"})
	require.NoError(t, err)

	updated, err := svc.UpdateChecklist(ctx, created.ID, models.ChecklistPatch{Name: strPtr("Trip v2")})
	require.NoError(t, err)
	assert.Equal(t, "Trip v2", updated.Name)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	_, err = svc.UpdateChecklist(ctx, "42", models.ChecklistPatch{})
	assert.ErrorIs(t, err, ErrChecklistNotFound)
}

func TestChecklistService_UpdateVanishedChecklist(t *testing.T) {
	ctx := context.Background()
	store := newTestJSONStore(t, JSONStoreOptions{})
	id, err := store.Create(ctx, &models.Checklist{Name: "Trip"})
	require.NoError(t, err)

	notFound := false
	svc := NewChecklistService(&failingStore{ChecklistStore: store, updateResult: &notFound})
	_, err = svc.UpdateChecklist(ctx, id, models.ChecklistPatch{})
	assert.ErrorIs(t, err, ErrUpdateFailed)
}

func TestChecklistService_DeleteChecklist(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	created, err := svc.CreateChecklist(ctx, models.Checklist{Name: "Trip"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteChecklist(ctx, created.ID))
	_, err = svc.GetChecklist(ctx, created.ID)
	assert.ErrorIs(t, err, ErrChecklistNotFound)

	assert.ErrorIs(t, svc.DeleteChecklist(ctx, created.ID), ErrChecklistNotFound)
}

func TestChecklistService_CloneChecklist(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	source, err := svc.CreateChecklist(ctx, models.Checklist{
		Name:       "Trip",
		Categories: []models.Category{{ID: "c1", Name: "Docs", Items: []models.FileItem{{ID: "i1", Name: "Passport"}}}},
		UserEmail:  strPtr("a@example.com"),
	})
	require.NoError(t, err)

	t.Run("default name", func(t *testing.T) {
		clone, err := svc.CloneChecklist(ctx, source.ID, "")
		require.NoError(t, err)
		assert.Equal(t, "Trip (Copy)", clone.Name)
		assert.NotEqual(t, source.ID, clone.ID)
		require.NotNil(t, clone.IsCloned)
		assert.True(t, *clone.IsCloned)
		assert.Equal(t, source.ID, *clone.ClonedFrom)
		assert.Equal(t, source.Categories, clone.Categories)
		assert.Equal(t, "a@example.com", *clone.UserEmail)

		stored, err := svc.GetChecklist(ctx, clone.ID)
		require.NoError(t, err)
		assert.Equal(t, clone, stored)
	})

	t.Run("explicit name is trimmed", func(t *testing.T) {
		clone, err := svc.CloneChecklist(ctx, source.ID, "  Winter trip ")
		require.NoError(t, err)
		assert.Equal(t, "Winter trip", clone.Name)
	})

	t.Run("invalid name", func(t *testing.T) {
		_, err := svc.CloneChecklist(ctx, source.ID, "bad\x00name")
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("missing source", func(t *testing.T) {
		_, err := svc.CloneChecklist(ctx, "404", "")
		assert.ErrorIs(t, err, ErrChecklistNotFound)
	})

	t.Run("source is untouched", func(t *testing.T) {
		got, err := svc.GetChecklist(ctx, source.ID)
		require.NoError(t, err)
		assert.Equal(t, source, got)
	})
}

func TestChecklistService_AssignEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	for _, c := range []models.Checklist{
		{Name: "orphan"},
		{Name: "blank", UserEmail: strPtr("")},
		{Name: "owned", UserEmail: strPtr("a@example.com")},
	} {
		_, err := svc.CreateChecklist(ctx, c)
		require.NoError(t, err)
	}

	n, err := svc.AssignEmail(ctx, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	owned, err := svc.ListChecklists(ctx, models.ListFilter{"userEmail": "new@example.com"})
	require.NoError(t, err)
	assert.Len(t, owned, 2)

	_, err = svc.AssignEmail(ctx, "not-an-email")
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestChecklistService_ReplaceEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	for _, email := range []string{"anonymous@example.com", "anonymous@example.com", "b@example.com"} {
		_, err := svc.CreateChecklist(ctx, models.Checklist{Name: "x", UserEmail: strPtr(email)})
		require.NoError(t, err)
	}

	n, err := svc.ReplaceEmail(ctx, "anonymous@example.com", "me@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	left, err := svc.ListChecklists(ctx, models.ListFilter{"userEmail": "anonymous@example.com"})
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestChecklistService_RewriteEmailsStoreErrors(t *testing.T) {
	ctx := context.Background()
	store := newTestJSONStore(t, JSONStoreOptions{})
	_, err := store.Create(ctx, &models.Checklist{Name: "orphan"})
	require.NoError(t, err)

	svc := NewChecklistService(&failingStore{ChecklistStore: store, failOn: map[string]bool{"list": true}})
	_, err = svc.AssignEmail(ctx, "a@example.com")
	assert.ErrorIs(t, err, errStoreDown)

	svc = NewChecklistService(&failingStore{ChecklistStore: store, failOn: map[string]bool{"update": true}})
	n, err := svc.AssignEmail(ctx, "a@example.com")
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, 0, n)
}
