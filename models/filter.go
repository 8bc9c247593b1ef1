package models

import "time"

// ListFilter maps checklist field names to required values. Matching is exact
// equality on top-level fields only.
type ListFilter map[string]any

// Match reports whether c satisfies every entry of f. An empty filter
// matches everything; an unsupported key matches nothing.
func (f ListFilter) Match(c Checklist) bool {
	for key, want := range f {
		got, ok := fieldValue(c, key)
		if !ok || !equalValue(got, want) {
			return false
		}
	}
	return true
}

// fieldValue returns the value of a filterable field. Absent optional fields
// are reported as nil.
func fieldValue(c Checklist, key string) (any, bool) {
	switch key {
	case "id":
		return c.ID, true
	case "name":
		return c.Name, true
	case "isCloned":
		if c.IsCloned == nil {
			return nil, true
		}
		return *c.IsCloned, true
	case "clonedFrom":
		if c.ClonedFrom == nil {
			return nil, true
		}
		return *c.ClonedFrom, true
	case "userEmail":
		if c.UserEmail == nil {
			return nil, true
		}
		return *c.UserEmail, true
	case "created_at":
		return c.CreatedAt, true
	case "updated_at":
		return c.UpdatedAt, true
	}
	return nil, false
}

func equalValue(got, want any) bool {
	switch g := got.(type) {
	case nil:
		return want == nil
	case string:
		w, ok := want.(string)
		return ok && g == w
	case bool:
		w, ok := want.(bool)
		return ok && g == w
	case time.Time:
		switch w := want.(type) {
		case time.Time:
			return g.Equal(w)
		case string:
			t, err := time.Parse(time.RFC3339Nano, w)
			return err == nil && g.Equal(t)
		}
	}
	return false
}
