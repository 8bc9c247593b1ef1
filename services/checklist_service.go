package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"checklistapi/models"
	"checklistapi/utils"
)

// ErrUpdateFailed is returned when a checklist disappears between the
// existence check and the write.
var ErrUpdateFailed = errors.New("failed to update checklist")

// ChecklistService implements the request-level operations on top of a
// ChecklistStore.
type ChecklistService struct {
	store ChecklistStore
}

func NewChecklistService(store ChecklistStore) *ChecklistService {
	return &ChecklistService{store: store}
}

// CreateChecklist persists checklist and returns the stored value.
func (s *ChecklistService) CreateChecklist(ctx context.Context, checklist models.Checklist) (*models.Checklist, error) {
	checklist.ID = ""
	if _, err := s.store.Create(ctx, &checklist); err != nil {
		return nil, fmt.Errorf("failed to create checklist: %w", err)
	}
	return &checklist, nil
}

func (s *ChecklistService) ListChecklists(ctx context.Context, filter models.ListFilter) ([]models.Checklist, error) {
	list, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list checklists: %w", err)
	}
	return list, nil
}

func (s *ChecklistService) GetChecklist(ctx context.Context, id string) (*models.Checklist, error) {
	return s.store.Get(ctx, id)
}

// UpdateChecklist applies patch to an existing checklist and returns the
// result.
func (s *ChecklistService) UpdateChecklist(ctx context.Context, id string, patch models.ChecklistPatch) (*models.Checklist, error) {
	if _, err := s.store.Get(ctx, id); err != nil {
		return nil, err
	}

	ok, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update checklist: %w", err)
	}
	if !ok {
		return nil, ErrUpdateFailed
	}

	return s.store.Get(ctx, id)
}

func (s *ChecklistService) DeleteChecklist(ctx context.Context, id string) error {
	if _, err := s.store.Get(ctx, id); err != nil {
		return err
	}

	ok, err := s.store.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete checklist: %w", err)
	}
	if !ok {
		return ErrChecklistNotFound
	}
	return nil
}

// CloneChecklist copies the checklist id under a fresh identity. An empty
// newName yields "<source name> (Copy)".
func (s *ChecklistService) CloneChecklist(ctx context.Context, id, newName string) (*models.Checklist, error) {
	source, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(newName)
	if name != "" {
		if err := utils.ValidateChecklistName(name); err != nil {
			return nil, &ValidationError{Err: err}
		}
	} else {
		name = source.Name + " (Copy)"
	}

	clone := source.Copy()
	clone.ID = ""
	clone.Name = name
	clone.CreatedAt = time.Time{}
	clone.UpdatedAt = time.Time{}
	cloned := true
	clone.IsCloned = &cloned
	sourceID := source.ID
	clone.ClonedFrom = &sourceID

	if _, err := s.store.Create(ctx, &clone); err != nil {
		return nil, fmt.Errorf("failed to clone checklist: %w", err)
	}
	return &clone, nil
}

// AssignEmail sets email on every checklist that has none and returns the
// number changed.
func (s *ChecklistService) AssignEmail(ctx context.Context, email string) (int, error) {
	return s.rewriteEmails(ctx, func(c models.Checklist) bool {
		return c.UserEmail == nil || *c.UserEmail == ""
	}, email)
}

// ReplaceEmail moves every checklist owned by from to to and returns the
// number changed.
func (s *ChecklistService) ReplaceEmail(ctx context.Context, from, to string) (int, error) {
	return s.rewriteEmails(ctx, func(c models.Checklist) bool {
		return c.UserEmail != nil && *c.UserEmail == from
	}, to)
}

func (s *ChecklistService) rewriteEmails(ctx context.Context, match func(models.Checklist) bool, email string) (int, error) {
	if err := utils.ValidateEmail(email); err != nil {
		return 0, &ValidationError{Err: err}
	}

	list, err := s.store.List(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to list checklists: %w", err)
	}

	changed := 0
	for _, c := range list {
		if !match(c) {
			continue
		}
		value := email
		ok, err := s.store.Update(ctx, c.ID, models.ChecklistPatch{UserEmail: &value})
		if err != nil {
			return changed, fmt.Errorf("failed to update checklist %s: %w", c.ID, err)
		}
		if ok {
			changed++
		}
	}
	return changed, nil
}

// ValidationError marks caller input rejected before reaching the store.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
