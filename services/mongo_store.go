package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"checklistapi/config"
	"checklistapi/models"
	"checklistapi/utils"
)

const (
	mongoBackend = "mongo"

	checklistCollection = "checklists"
	counterCollection   = "counters"
	counterKey          = "checklists"
)

// BSON dates carry milliseconds.
const mongoTimestampResolution = time.Millisecond

// NewMongoClientOptions returns client options that decode embedded documents
// as maps, so opaque file metadata round-trips as plain JSON objects.
func NewMongoClientOptions(uri string) *options.ClientOptions {
	return options.Client().
		ApplyURI(uri).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})
}

// MongoStore keeps one MongoDB document per checklist. Ids come from an
// atomic counter document.
type MongoStore struct {
	checklists *mongo.Collection
	counters   *mongo.Collection
	idStrat    string
	now        func() time.Time
	logger     *log.Logger
}

func NewMongoStore(db *mongo.Database, idStrategy string) *MongoStore {
	if idStrategy == "" {
		idStrategy = config.IDStrategyCounter
	}
	return &MongoStore{
		checklists: db.Collection(checklistCollection),
		counters:   db.Collection(counterCollection),
		idStrat:    idStrategy,
		now:        time.Now,
		logger:     utils.Logger().WithPrefix("mongo-store"),
	}
}

type counterDoc struct {
	Seq int64 `bson:"seq"`
}

// EnsureExists creates the indexes and raises the id counter to at least the
// largest numeric id already stored.
func (s *MongoStore) EnsureExists(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "userEmail", Value: 1}}},
		{Keys: bson.D{{Key: "name", Value: 1}}},
	}
	if _, err := s.checklists.Indexes().CreateMany(ctx, indexes); err != nil {
		s.logger.Warn("Failed to create indexes", "err", err)
	}

	maxID, err := s.maxNumericID(ctx)
	if err != nil {
		return err
	}
	return s.raiseCounter(ctx, maxID)
}

func (s *MongoStore) maxNumericID(ctx context.Context) (int64, error) {
	cursor, err := s.checklists.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return 0, fmt.Errorf("failed to list checklist ids: %w", err)
	}
	defer cursor.Close(ctx)

	var max int64
	for cursor.Next(ctx) {
		var row struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&row); err != nil {
			return 0, fmt.Errorf("failed to decode checklist id: %w", err)
		}
		if n, err := strconv.ParseInt(row.ID, 10, 64); err == nil && n > max {
			max = n
		}
	}
	return max, cursor.Err()
}

func (s *MongoStore) raiseCounter(ctx context.Context, seq int64) error {
	_, err := s.counters.UpdateOne(ctx,
		bson.M{"_id": counterKey},
		bson.M{"$max": bson.M{"seq": seq}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to update id counter: %w", err)
	}
	return nil
}

// Load reads the whole collection into a Document.
func (s *MongoStore) Load(ctx context.Context) (*models.Document, error) {
	doc, err := s.load(ctx)
	observeStoreOp(mongoBackend, "load", err)
	return doc, err
}

func (s *MongoStore) load(ctx context.Context) (*models.Document, error) {
	list, err := s.find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}

	doc := models.NewDocument()
	for _, c := range list {
		doc.Checklists[c.ID] = c
	}

	var counter counterDoc
	err = s.counters.FindOne(ctx, bson.M{"_id": counterKey}).Decode(&counter)
	switch {
	case err == nil:
		doc.NextID = counter.Seq + 1
	case !errors.Is(err, mongo.ErrNoDocuments):
		return nil, fmt.Errorf("failed to read id counter: %w", err)
	}
	return doc, nil
}

// Save replaces the whole collection with doc in one transaction.
func (s *MongoStore) Save(ctx context.Context, doc *models.Document) error {
	err := s.save(ctx, doc)
	observeStoreOp(mongoBackend, "save", err)
	return err
}

func (s *MongoStore) save(ctx context.Context, doc *models.Document) error {
	session, err := s.checklists.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	seq := doc.MaxNumericID()
	if doc.NextID-1 > seq {
		seq = doc.NextID - 1
	}

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := s.checklists.DeleteMany(sc, bson.M{}); err != nil {
			return nil, fmt.Errorf("failed to clear checklists: %w", err)
		}

		if len(doc.Checklists) > 0 {
			rows := make([]interface{}, 0, len(doc.Checklists))
			for id, c := range doc.Checklists {
				c.ID = id
				c.Normalize()
				rows = append(rows, c)
			}
			if _, err := s.checklists.InsertMany(sc, rows); err != nil {
				return nil, fmt.Errorf("failed to insert checklists: %w", err)
			}
		}

		if err := s.raiseCounter(sc, seq); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	checklistsTotal.WithLabelValues(mongoBackend).Set(float64(len(doc.Checklists)))
	return nil
}

// Create assigns an id when the checklist has none and upserts it. The
// checklist is updated in place.
func (s *MongoStore) Create(ctx context.Context, checklist *models.Checklist) (string, error) {
	id, err := s.create(ctx, checklist)
	observeStoreOp(mongoBackend, "create", err)
	return id, err
}

func (s *MongoStore) create(ctx context.Context, checklist *models.Checklist) (string, error) {
	if checklist.ID == "" {
		id, err := s.assignID(ctx)
		if err != nil {
			return "", err
		}
		checklist.ID = id
	}

	now := nextTimestamp(time.Time{}, s.now(), mongoTimestampResolution)
	if checklist.CreatedAt.IsZero() {
		checklist.CreatedAt = now
	} else {
		checklist.CreatedAt = checklist.CreatedAt.UTC().Truncate(mongoTimestampResolution)
	}
	if checklist.UpdatedAt.IsZero() {
		checklist.UpdatedAt = now
	} else {
		checklist.UpdatedAt = checklist.UpdatedAt.UTC().Truncate(mongoTimestampResolution)
	}
	checklist.Normalize()

	_, err := s.checklists.ReplaceOne(ctx,
		bson.M{"_id": checklist.ID},
		checklist,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return "", fmt.Errorf("failed to store checklist: %w", err)
	}
	return checklist.ID, nil
}

func (s *MongoStore) assignID(ctx context.Context) (string, error) {
	if s.idStrat == config.IDStrategyUUID {
		id, err := uuid.NewV7()
		if err != nil {
			return "", fmt.Errorf("generate checklist id: %w", err)
		}
		return id.String(), nil
	}

	for {
		var counter counterDoc
		err := s.counters.FindOneAndUpdate(ctx,
			bson.M{"_id": counterKey},
			bson.M{"$inc": bson.M{"seq": 1}},
			options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
		).Decode(&counter)
		if err != nil {
			return "", fmt.Errorf("failed to advance id counter: %w", err)
		}

		id := strconv.FormatInt(counter.Seq, 10)
		taken, err := s.checklists.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
		if err != nil {
			return "", fmt.Errorf("failed to check checklist id: %w", err)
		}
		if taken == 0 {
			return id, nil
		}
	}
}

func (s *MongoStore) Get(ctx context.Context, id string) (*models.Checklist, error) {
	c, err := s.get(ctx, id)
	if errors.Is(err, ErrChecklistNotFound) {
		observeStoreOp(mongoBackend, "get", nil)
	} else {
		observeStoreOp(mongoBackend, "get", err)
	}
	return c, err
}

func (s *MongoStore) get(ctx context.Context, id string) (*models.Checklist, error) {
	var c models.Checklist
	err := s.checklists.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrChecklistNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checklist: %w", err)
	}
	plainChecklist(&c)
	return &c, nil
}

// Update merges patch over the stored checklist. It returns false when id is
// absent.
func (s *MongoStore) Update(ctx context.Context, id string, patch models.ChecklistPatch) (bool, error) {
	ok, err := s.update(ctx, id, patch)
	observeStoreOp(mongoBackend, "update", err)
	return ok, err
}

func (s *MongoStore) update(ctx context.Context, id string, patch models.ChecklistPatch) (bool, error) {
	current, err := s.get(ctx, id)
	if errors.Is(err, ErrChecklistNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	patch.ApplyTo(current)
	current.Normalize()
	current.UpdatedAt = nextTimestamp(current.UpdatedAt, s.now(), mongoTimestampResolution)

	result, err := s.checklists.ReplaceOne(ctx, bson.M{"_id": id}, current)
	if err != nil {
		return false, fmt.Errorf("failed to update checklist: %w", err)
	}
	return result.MatchedCount > 0, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) (bool, error) {
	result, err := s.checklists.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		err = fmt.Errorf("failed to delete checklist: %w", err)
		observeStoreOp(mongoBackend, "delete", err)
		return false, err
	}
	observeStoreOp(mongoBackend, "delete", nil)
	return result.DeletedCount > 0, nil
}

// List returns the checklists matching filter, ordered by id.
func (s *MongoStore) List(ctx context.Context, filter models.ListFilter) ([]models.Checklist, error) {
	query, ok := filterToBSON(filter)
	if !ok {
		observeStoreOp(mongoBackend, "list", nil)
		return []models.Checklist{}, nil
	}

	list, err := s.find(ctx, query)
	observeStoreOp(mongoBackend, "list", err)
	if err != nil {
		return nil, err
	}
	if len(filter) == 0 {
		checklistsTotal.WithLabelValues(mongoBackend).Set(float64(len(list)))
	}
	return list, nil
}

func (s *MongoStore) find(ctx context.Context, query bson.M) ([]models.Checklist, error) {
	cursor, err := s.checklists.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to find checklists: %w", err)
	}
	defer cursor.Close(ctx)

	list := []models.Checklist{}
	if err := cursor.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("failed to decode checklists: %w", err)
	}
	for i := range list {
		plainChecklist(&list[i])
	}
	models.SortByID(list)
	return list, nil
}

// filterToBSON translates a ListFilter into a query. It reports false when
// the filter names a field no checklist has, which matches nothing.
func filterToBSON(filter models.ListFilter) (bson.M, bool) {
	query := bson.M{}
	for key, value := range filter {
		switch key {
		case "id":
			query["_id"] = value
		case "name", "isCloned", "clonedFrom", "userEmail":
			query[key] = value
		case "created_at", "updated_at":
			if s, ok := value.(string); ok {
				t, err := time.Parse(time.RFC3339Nano, s)
				if err != nil {
					return nil, false
				}
				value = t
			}
			query[key] = value
		default:
			return nil, false
		}
	}
	return query, true
}

// plainChecklist converts decoded BSON containers inside file metadata back
// into plain maps and slices, and normalizes timestamps to UTC.
func plainChecklist(c *models.Checklist) {
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	for i := range c.Categories {
		for j := range c.Categories[i].Items {
			for k, f := range c.Categories[i].Items[j].Files {
				for key, v := range f {
					f[key] = plainValue(v)
				}
				c.Categories[i].Items[j].Files[k] = f
			}
		}
	}
	c.Normalize()
}

func plainValue(v interface{}) interface{} {
	switch t := v.(type) {
	case primitive.M:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = plainValue(e)
		}
		return out
	case primitive.D:
		out := make(map[string]interface{}, len(t))
		for _, e := range t {
			out[e.Key] = plainValue(e.Value)
		}
		return out
	case primitive.A:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = plainValue(e)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	default:
		return v
	}
}
