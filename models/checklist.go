package models

import (
	"encoding/json"
	"time"
)

// Checklist is the top-level entity persisted in the checklist document.
// Extra holds fields written by other clients; they survive a decode and
// re-encode unchanged.
type Checklist struct {
	ID         string     `json:"id" bson:"_id"`
	Name       string     `json:"name" bson:"name"`
	Categories []Category `json:"categories" bson:"categories"`
	IsCloned   *bool      `json:"isCloned,omitempty" bson:"isCloned,omitempty"`
	ClonedFrom *string    `json:"clonedFrom,omitempty" bson:"clonedFrom,omitempty"`
	UserEmail  *string    `json:"userEmail,omitempty" bson:"userEmail,omitempty"`
	CreatedAt  time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" bson:"updated_at"`

	Extra map[string]json.RawMessage `json:"-" bson:"-"`
}

// checklistFields are the JSON keys owned by Checklist's typed fields.
var checklistFields = map[string]bool{
	"id": true, "name": true, "categories": true, "isCloned": true,
	"clonedFrom": true, "userEmail": true, "created_at": true, "updated_at": true,
}

// checklistJSON has Checklist's fields without its JSON methods.
type checklistJSON Checklist

func (c Checklist) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(checklistJSON(c))
	if err != nil || len(c.Extra) == 0 {
		return data, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for key, value := range c.Extra {
		if !checklistFields[key] {
			fields[key] = value
		}
	}
	return json.Marshal(fields)
}

func (c *Checklist) UnmarshalJSON(data []byte) error {
	var typed checklistJSON
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for key := range fields {
		if checklistFields[key] {
			delete(fields, key)
		}
	}
	typed.Extra = nil
	if len(fields) > 0 {
		typed.Extra = fields
	}

	*c = Checklist(typed)
	return nil
}

// Category groups file items inside a checklist.
type Category struct {
	ID    string     `json:"id" bson:"id" binding:"required"`
	Name  string     `json:"name" bson:"name" binding:"required"`
	Items []FileItem `json:"items" bson:"items" binding:"dive"`
}

// FileItem is a named leaf entry. Files holds opaque upload metadata.
type FileItem struct {
	ID    string           `json:"id" bson:"id" binding:"required"`
	Name  string           `json:"name" bson:"name" binding:"required"`
	Files []map[string]any `json:"files" bson:"files"`
}

// ChecklistPatch is a partial update. A nil field is not present and is
// never written over the stored value.
type ChecklistPatch struct {
	Name       *string
	Categories *[]Category
	IsCloned   *bool
	ClonedFrom *string
	UserEmail  *string
}

// IsEmpty reports whether the patch carries no fields.
func (p ChecklistPatch) IsEmpty() bool {
	return p.Name == nil && p.Categories == nil && p.IsCloned == nil &&
		p.ClonedFrom == nil && p.UserEmail == nil
}

// ApplyTo merges the present fields of p over c.
func (p ChecklistPatch) ApplyTo(c *Checklist) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Categories != nil {
		c.Categories = copyCategories(*p.Categories)
	}
	if p.IsCloned != nil {
		v := *p.IsCloned
		c.IsCloned = &v
	}
	if p.ClonedFrom != nil {
		v := *p.ClonedFrom
		c.ClonedFrom = &v
	}
	if p.UserEmail != nil {
		v := *p.UserEmail
		c.UserEmail = &v
	}
}

// Normalize replaces nil slices with empty ones so the document always
// serializes "categories", "items" and "files" as arrays.
func (c *Checklist) Normalize() {
	if c.Categories == nil {
		c.Categories = []Category{}
	}
	for i := range c.Categories {
		if c.Categories[i].Items == nil {
			c.Categories[i].Items = []FileItem{}
		}
		for j := range c.Categories[i].Items {
			if c.Categories[i].Items[j].Files == nil {
				c.Categories[i].Items[j].Files = []map[string]any{}
			}
		}
	}
}

// Copy returns a deep copy of c, including the nested file metadata.
func (c Checklist) Copy() Checklist {
	out := c
	out.Categories = copyCategories(c.Categories)
	if c.IsCloned != nil {
		v := *c.IsCloned
		out.IsCloned = &v
	}
	if c.ClonedFrom != nil {
		v := *c.ClonedFrom
		out.ClonedFrom = &v
	}
	if c.UserEmail != nil {
		v := *c.UserEmail
		out.UserEmail = &v
	}
	if c.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(c.Extra))
		for k, v := range c.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

func copyCategories(in []Category) []Category {
	if in == nil {
		return nil
	}
	out := make([]Category, len(in))
	for i, cat := range in {
		out[i] = Category{ID: cat.ID, Name: cat.Name}
		if cat.Items == nil {
			continue
		}
		out[i].Items = make([]FileItem, len(cat.Items))
		for j, item := range cat.Items {
			out[i].Items[j] = FileItem{ID: item.ID, Name: item.Name}
			if item.Files == nil {
				continue
			}
			out[i].Items[j].Files = make([]map[string]any, len(item.Files))
			for k, f := range item.Files {
				out[i].Items[j].Files[k] = copyMap(f)
			}
		}
	}
	return out
}

func copyMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}
