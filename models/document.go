package models

import (
	"sort"
	"strconv"
)

// Document is the persisted form of the whole checklist collection.
// NextID is the id counter; documents written before it existed omit it.
type Document struct {
	Checklists map[string]Checklist `json:"checklists"`
	NextID     int64                `json:"next_id,omitempty"`
}

// NewDocument returns an empty collection.
func NewDocument() *Document {
	return &Document{Checklists: map[string]Checklist{}}
}

// MaxNumericID returns the largest id that parses as a base-10 integer, or 0.
func (d *Document) MaxNumericID() int64 {
	var max int64
	for id := range d.Checklists {
		n, err := strconv.ParseInt(id, 10, 64)
		if err == nil && n > max {
			max = n
		}
	}
	return max
}

// Sorted returns the checklists ordered by id: numeric ids first in numeric
// order, then the rest lexicographically.
func (d *Document) Sorted() []Checklist {
	out := make([]Checklist, 0, len(d.Checklists))
	for _, c := range d.Checklists {
		out = append(out, c)
	}
	SortByID(out)
	return out
}

// SortByID orders checklists the same way Document.Sorted does.
func SortByID(list []Checklist) {
	sort.SliceStable(list, func(i, j int) bool {
		return idLess(list[i].ID, list[j].ID)
	})
}

func idLess(a, b string) bool {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
