package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"checklistapi/config"
	"checklistapi/models"
	"checklistapi/utils"
)

const jsonBackend = "json"

// jsonTimestampResolution is the granularity of stamped timestamps.
const jsonTimestampResolution = time.Microsecond

// JSONStoreOptions configures a JSONStore.
type JSONStoreOptions struct {
	Path string
	// CorruptionPolicy is config.CorruptionPolicyReset or config.CorruptionPolicyFail.
	CorruptionPolicy string
	// IDStrategy is config.IDStrategyCounter or config.IDStrategyUUID.
	IDStrategy string
	// Now overrides the clock, used by tests.
	Now func() time.Time
}

// JSONStore keeps the whole collection in one JSON file. A single mutex is
// held across every load, edit and save sequence.
type JSONStore struct {
	mu        sync.Mutex
	path      string
	policy    string
	idStrat   string
	now       func() time.Time
	validator *DocumentValidator
	logger    *log.Logger
}

func NewJSONStore(opts JSONStoreOptions) (*JSONStore, error) {
	if opts.Path == "" {
		return nil, errors.New("json store path is required")
	}
	if opts.CorruptionPolicy == "" {
		opts.CorruptionPolicy = config.CorruptionPolicyReset
	}
	if opts.IDStrategy == "" {
		opts.IDStrategy = config.IDStrategyCounter
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	validator, err := NewDocumentValidator()
	if err != nil {
		return nil, err
	}

	return &JSONStore{
		path:      opts.Path,
		policy:    opts.CorruptionPolicy,
		idStrat:   opts.IDStrategy,
		now:       opts.Now,
		validator: validator,
		logger:    utils.Logger().WithPrefix("json-store"),
	}, nil
}

// Path returns the document location.
func (s *JSONStore) Path() string {
	return s.path
}

// EnsureExists creates the document, and its directory, holding an empty
// collection when it is missing.
func (s *JSONStore) EnsureExists(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("create document directory: %w", err)
	}

	_, err := os.Stat(s.path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat checklist document: %w", err)
	}

	s.logger.Info("Creating empty checklist document", "path", s.path)
	return s.save(models.NewDocument())
}

func (s *JSONStore) Load(ctx context.Context) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	observeStoreOp(jsonBackend, "load", err)
	return doc, err
}

func (s *JSONStore) Save(ctx context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.save(doc)
	observeStoreOp(jsonBackend, "save", err)
	return err
}

// Create assigns an id when the checklist has none, stamps missing
// timestamps, and persists it. The checklist is updated in place.
func (s *JSONStore) Create(ctx context.Context, checklist *models.Checklist) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.create(checklist)
	observeStoreOp(jsonBackend, "create", err)
	return id, err
}

func (s *JSONStore) create(checklist *models.Checklist) (string, error) {
	doc, err := s.load()
	if err != nil {
		return "", err
	}

	if checklist.ID == "" {
		id, err := s.assignID(doc)
		if err != nil {
			return "", err
		}
		checklist.ID = id
	}

	now := nextTimestamp(time.Time{}, s.now(), jsonTimestampResolution)
	if checklist.CreatedAt.IsZero() {
		checklist.CreatedAt = now
	}
	if checklist.UpdatedAt.IsZero() {
		checklist.UpdatedAt = now
	}
	checklist.Normalize()

	doc.Checklists[checklist.ID] = checklist.Copy()
	if err := s.save(doc); err != nil {
		return "", err
	}
	return checklist.ID, nil
}

// assignID returns a fresh id and advances the persisted counter.
func (s *JSONStore) assignID(doc *models.Document) (string, error) {
	if s.idStrat == config.IDStrategyUUID {
		id, err := uuid.NewV7()
		if err != nil {
			return "", fmt.Errorf("generate checklist id: %w", err)
		}
		return id.String(), nil
	}

	next := doc.NextID
	if max := doc.MaxNumericID() + 1; max > next {
		next = max
	}
	for {
		id := strconv.FormatInt(next, 10)
		if _, taken := doc.Checklists[id]; !taken {
			doc.NextID = next + 1
			return id, nil
		}
		next++
	}
}

func (s *JSONStore) Get(ctx context.Context, id string) (*models.Checklist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	observeStoreOp(jsonBackend, "get", err)
	if err != nil {
		return nil, err
	}

	c, ok := doc.Checklists[id]
	if !ok {
		return nil, ErrChecklistNotFound
	}
	out := c.Copy()
	return &out, nil
}

// Update merges patch over the stored checklist. It returns false, without
// writing, when id is absent.
func (s *JSONStore) Update(ctx context.Context, id string, patch models.ChecklistPatch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.update(id, patch)
	observeStoreOp(jsonBackend, "update", err)
	return ok, err
}

func (s *JSONStore) update(id string, patch models.ChecklistPatch) (bool, error) {
	doc, err := s.load()
	if err != nil {
		return false, err
	}

	current, ok := doc.Checklists[id]
	if !ok {
		return false, nil
	}

	patch.ApplyTo(&current)
	current.Normalize()
	current.UpdatedAt = nextTimestamp(current.UpdatedAt, s.now(), jsonTimestampResolution)
	doc.Checklists[id] = current

	if err := s.save(doc); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes id and persists. Deleting an absent id returns false.
func (s *JSONStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.delete(id)
	observeStoreOp(jsonBackend, "delete", err)
	return ok, err
}

func (s *JSONStore) delete(id string) (bool, error) {
	doc, err := s.load()
	if err != nil {
		return false, err
	}

	if _, ok := doc.Checklists[id]; !ok {
		return false, nil
	}
	delete(doc.Checklists, id)

	if err := s.save(doc); err != nil {
		return false, err
	}
	return true, nil
}

// List returns every checklist matching filter, ordered by id.
func (s *JSONStore) List(ctx context.Context, filter models.ListFilter) ([]models.Checklist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	observeStoreOp(jsonBackend, "list", err)
	if err != nil {
		return nil, err
	}

	result := []models.Checklist{}
	for _, c := range doc.Sorted() {
		if len(filter) == 0 || filter.Match(c) {
			result = append(result, c.Copy())
		}
	}
	return result, nil
}

// load reads the document. A missing file is recreated empty; an unreadable
// one is handled according to the corruption policy.
func (s *JSONStore) load() (*models.Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		doc := models.NewDocument()
		if err := s.save(doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checklist document: %w", err)
	}

	doc, decodeErr := s.validator.Decode(data)
	if decodeErr != nil {
		return s.recoverCorrupt(data, decodeErr)
	}

	checklistsTotal.WithLabelValues(jsonBackend).Set(float64(len(doc.Checklists)))
	return doc, nil
}

func (s *JSONStore) recoverCorrupt(data []byte, cause error) (*models.Document, error) {
	if s.policy == config.CorruptionPolicyFail {
		s.logger.Error("Checklist document is unreadable", "path", s.path, "err", cause)
		return nil, fmt.Errorf("%w: %v", ErrDocumentCorrupt, cause)
	}

	auditPath := ""
	if len(data) > 0 {
		auditPath = fmt.Sprintf("%s.corrupt-%s", s.path, s.now().UTC().Format("20060102T150405.000000000Z"))
		if err := os.WriteFile(auditPath, data, 0o600); err != nil {
			return nil, fmt.Errorf("preserve corrupt document: %w", err)
		}
	}

	s.logger.Warn("Resetting unreadable checklist document",
		"path", s.path,
		"audit_copy", auditPath,
		"err", cause,
	)
	documentResetsTotal.Inc()

	doc := models.NewDocument()
	if err := s.save(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// save writes the document atomically: temp file, fsync, rename.
func (s *JSONStore) save(doc *models.Document) error {
	if doc.Checklists == nil {
		doc.Checklists = map[string]models.Checklist{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode checklist document: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".checklists-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write checklist document: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace checklist document: %w", err)
	}

	checklistsTotal.WithLabelValues(jsonBackend).Set(float64(len(doc.Checklists)))
	return nil
}
