package builder

import (
	"cmp"
	"slices"

	"github.com/zjrosen/clsforge/internal/types"
)

// Entry is a combinator with its type.
type Entry struct {
	Part Part
	Type types.Type
}

// Repository maps combinator identities to types. It only grows: an entry
// is never replaced once inserted. A Repository is not safe for concurrent
// use; parallel builds fill private repositories and Merge them.
type Repository struct {
	entries map[string]Entry
}

// NewRepository returns an empty repository.
func NewRepository() *Repository {
	return &Repository{entries: make(map[string]Entry)}
}

// Add inserts part with type t. It returns false, leaving the repository
// unchanged, when an entry with the same key already exists.
func (r *Repository) Add(part Part, t types.Type) bool {
	if _, exists := r.entries[part.Key()]; exists {
		return false
	}
	r.entries[part.Key()] = Entry{Part: part, Type: t}
	return true
}

// Get returns the type stored for part.
func (r *Repository) Get(part Part) (types.Type, bool) {
	e, ok := r.entries[part.Key()]
	return e.Type, ok
}

// Lookup returns the entry stored under key.
func (r *Repository) Lookup(key string) (Entry, bool) {
	e, ok := r.entries[key]
	return e, ok
}

// Len returns the number of entries.
func (r *Repository) Len() int { return len(r.entries) }

// Entries returns all entries ordered by part name, provided joint origin
// and key.
func (r *Repository) Entries() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Entry) int {
		return cmp.Or(
			cmp.Compare(a.Part.meta.Name, b.Part.meta.Name),
			cmp.Compare(a.Part.provides, b.Part.provides),
			cmp.Compare(a.Part.key, b.Part.key),
		)
	})
	return out
}

// Merge adds every entry of other and returns the entries that were new.
func (r *Repository) Merge(other *Repository) []Entry {
	var added []Entry
	for _, e := range other.Entries() {
		if r.Add(e.Part, e.Type) {
			added = append(added, e)
		}
	}
	return added
}

// Equal reports whether both repositories hold the same keys with equal
// types.
func (r *Repository) Equal(other *Repository) bool {
	if r.Len() != other.Len() {
		return false
	}
	for key, e := range r.entries {
		o, ok := other.entries[key]
		if !ok || !types.Equal(e.Type, o.Type) {
			return false
		}
	}
	return true
}
