package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func docWithIDs(ids ...string) *Document {
	d := NewDocument()
	for _, id := range ids {
		d.Checklists[id] = Checklist{ID: id, Name: "n" + id}
	}
	return d
}

func TestDocument_MaxNumericID(t *testing.T) {
	assert.Equal(t, int64(0), NewDocument().MaxNumericID())
	assert.Equal(t, int64(12), docWithIDs("2", "12", "abc", "3").MaxNumericID())
	assert.Equal(t, int64(0), docWithIDs("abc", "0190c3e4-uuid").MaxNumericID())
}

func TestDocument_Sorted(t *testing.T) {
	d := docWithIDs("10", "b", "2", "a", "1")

	var ids []string
	for _, c := range d.Sorted() {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"1", "2", "10", "a", "b"}, ids)
}

func TestListFilter_Match(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	foo := Checklist{ID: "1", Name: "Foo", IsCloned: boolPtr(true), ClonedFrom: strPtr("9"), UserEmail: strPtr("a@example.com"), CreatedAt: created}
	bare := Checklist{ID: "2", Name: "foo"}

	tests := []struct {
		name   string
		filter ListFilter
		c      Checklist
		want   bool
	}{
		{"empty filter", ListFilter{}, bare, true},
		{"exact name", ListFilter{"name": "Foo"}, foo, true},
		{"name is case-sensitive", ListFilter{"name": "Foo"}, bare, false},
		{"id", ListFilter{"id": "2"}, bare, true},
		{"bool", ListFilter{"isCloned": true}, foo, true},
		{"bool mismatch type", ListFilter{"isCloned": "true"}, foo, false},
		{"nil matches absent field", ListFilter{"userEmail": nil}, bare, true},
		{"nil does not match present field", ListFilter{"userEmail": nil}, foo, false},
		{"all keys must match", ListFilter{"name": "Foo", "clonedFrom": "8"}, foo, false},
		{"timestamp as string", ListFilter{"created_at": "2024-05-01T12:00:00Z"}, foo, true},
		{"timestamp as time", ListFilter{"created_at": created}, foo, true},
		{"nested field unsupported", ListFilter{"categories": []any{}}, foo, false},
		{"unknown key", ListFilter{"owner": "x"}, foo, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(tt.c))
		})
	}
}
