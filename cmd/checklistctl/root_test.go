package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checklistapi/models"
	"checklistapi/services"
)

// run executes checklistctl with args and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// seedDocument writes checklists to a fresh JSON document and returns its path.
func seedDocument(t *testing.T, checklists ...models.Checklist) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "checklists.json")
	store, err := services.NewJSONStore(services.JSONStoreOptions{Path: path})
	require.NoError(t, err)
	for i := range checklists {
		_, err := store.Create(context.Background(), &checklists[i])
		require.NoError(t, err)
	}
	return path
}

func strPtr(s string) *string { return &s }

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "checklistctl dev\n", out)
}

func TestList(t *testing.T) {
	path := seedDocument(t,
		models.Checklist{Name: "Trip", UserEmail: strPtr(defaultPlaceholderEmail)},
		models.Checklist{Name: "Groceries"},
		models.Checklist{Name: "Trip", UserEmail: strPtr("b@example.com")},
	)

	t.Run("json", func(t *testing.T) {
		out, err := run(t, "list", "--db-file", path, "--json")
		require.NoError(t, err)
		var list []models.Checklist
		require.NoError(t, json.Unmarshal([]byte(out), &list))
		require.Len(t, list, 3)
		assert.Equal(t, "1", list[0].ID)
	})

	t.Run("filters", func(t *testing.T) {
		out, err := run(t, "list", "--db-file", path, "--json", "--name", "Trip", "--email", "b@example.com")
		require.NoError(t, err)
		var list []models.Checklist
		require.NoError(t, json.Unmarshal([]byte(out), &list))
		require.Len(t, list, 1)
		assert.Equal(t, "3", list[0].ID)
	})

	t.Run("table", func(t *testing.T) {
		out, err := run(t, "list", "--db-file", path)
		require.NoError(t, err)
		assert.Contains(t, out, "CLONED FROM")
		assert.Contains(t, out, "Groceries")
		assert.Contains(t, out, "b@example.com")
	})
}

func TestList_ConfigFile(t *testing.T) {
	path := seedDocument(t, models.Checklist{Name: "From config"})
	cfg := filepath.Join(t.TempDir(), "checklistctl.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("db_file: "+path+"\n"), 0o644))

	out, err := run(t, "list", "--config", cfg, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, "From config")

	_, err = run(t, "list", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestList_CorruptDocumentIsNotReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checklists.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	_, err := run(t, "list", "--db-file", path)
	assert.ErrorIs(t, err, services.ErrDocumentCorrupt)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{broken", string(data))
}

func TestUnknownBackend(t *testing.T) {
	_, err := run(t, "list", "--backend", "sqlite")
	assert.ErrorContains(t, err, `unknown backend "sqlite"`)
}

func TestAssignEmail(t *testing.T) {
	path := seedDocument(t,
		models.Checklist{Name: "orphan"},
		models.Checklist{Name: "owned", UserEmail: strPtr("a@example.com")},
	)

	out, err := run(t, "assign-email", "me@example.com", "--db-file", path)
	require.NoError(t, err)
	assert.Equal(t, "Assigned me@example.com to 1 checklist(s)\n", out)

	_, err = run(t, "assign-email", "not-an-email", "--db-file", path)
	assert.Error(t, err)
}

func TestReplaceEmail(t *testing.T) {
	path := seedDocument(t,
		models.Checklist{Name: "a", UserEmail: strPtr(defaultPlaceholderEmail)},
		models.Checklist{Name: "b", UserEmail: strPtr(defaultPlaceholderEmail)},
		models.Checklist{Name: "c", UserEmail: strPtr("x@example.com")},
	)

	out, err := run(t, "replace-email", "me@example.com", "--db-file", path)
	require.NoError(t, err)
	assert.Equal(t, "Moved 2 checklist(s) from anonymous@example.com to me@example.com\n", out)

	out, err = run(t, "replace-email", "y@example.com", "--from", "x@example.com", "--db-file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Moved 1 checklist(s)")
}

func TestBackupRequiresCredentials(t *testing.T) {
	for _, key := range []string{"CHECKLIST_B2_KEY_ID", "B2_APPLICATION_KEY_ID", "CHECKLIST_B2_KEY", "B2_APPLICATION_KEY", "CHECKLIST_B2_BUCKET", "B2_BUCKET_NAME"} {
		t.Setenv(key, "")
	}
	path := seedDocument(t)

	_, err := run(t, "backup", "--db-file", path)
	assert.ErrorContains(t, err, "backup needs")
}

func TestList_ClonedFlag(t *testing.T) {
	yes, no := true, false
	path := seedDocument(t,
		models.Checklist{Name: "never set"},
		models.Checklist{Name: "explicit original", IsCloned: &no},
		models.Checklist{Name: "copy", IsCloned: &yes, ClonedFrom: strPtr("1")},
	)

	names := func(out string) []string {
		var list []models.Checklist
		require.NoError(t, json.Unmarshal([]byte(out), &list))
		var got []string
		for _, c := range list {
			got = append(got, c.Name)
		}
		return got
	}

	out, err := run(t, "list", "--db-file", path, "--json", "--cloned=false")
	require.NoError(t, err)
	assert.Equal(t, []string{"never set", "explicit original"}, names(out))

	out, err = run(t, "list", "--db-file", path, "--json", "--cloned")
	require.NoError(t, err)
	assert.Equal(t, []string{"copy"}, names(out))
}
