package services

import (
	"context"
	"errors"
	"time"

	"checklistapi/models"
)

var (
	// ErrChecklistNotFound is returned when the requested id is not in the collection.
	ErrChecklistNotFound = errors.New("checklist not found")
	// ErrDocumentCorrupt is returned by Load when the persisted document cannot be
	// read and the store is configured not to reset it.
	ErrDocumentCorrupt = errors.New("checklist document is corrupt")
)

// ChecklistStore persists the checklist collection. Each call is a complete
// load, edit and save of the collection.
type ChecklistStore interface {
	EnsureExists(ctx context.Context) error
	Load(ctx context.Context) (*models.Document, error)
	Save(ctx context.Context, doc *models.Document) error
	Create(ctx context.Context, checklist *models.Checklist) (string, error)
	Get(ctx context.Context, id string) (*models.Checklist, error)
	Update(ctx context.Context, id string, patch models.ChecklistPatch) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter models.ListFilter) ([]models.Checklist, error)
}

// nextTimestamp returns now truncated to resolution, moved past prev when the
// clock has not advanced beyond it.
func nextTimestamp(prev, now time.Time, resolution time.Duration) time.Time {
	ts := now.UTC().Truncate(resolution)
	if !prev.IsZero() && !ts.After(prev) {
		ts = prev.UTC().Truncate(resolution).Add(resolution)
	}
	return ts
}
