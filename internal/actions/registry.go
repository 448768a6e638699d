package actions

import (
	"fmt"
	"strings"
)

// Registry is an ordered, immutable catalog. Insertion order is the display
// order.
type Registry struct {
	entries []Entry
	index   map[string]int
}

// New builds a registry, rejecting empty or duplicate identifiers and
// entries without a behavior.
func New(entries ...Entry) (*Registry, error) {
	r := &Registry{entries: make([]Entry, 0, len(entries)), index: make(map[string]int, len(entries))}
	for _, e := range entries {
		id := strings.TrimSpace(e.ID)
		if id == "" || id != e.ID {
			return nil, fmt.Errorf("ACT_REGISTRY: invalid identifier %q", e.ID)
		}
		if _, dup := r.index[id]; dup {
			return nil, fmt.Errorf("ACT_REGISTRY: duplicate identifier %q", id)
		}
		if e.Behavior == nil {
			return nil, fmt.Errorf("ACT_REGISTRY: %q has no behavior", id)
		}
		r.index[id] = len(r.entries)
		r.entries = append(r.entries, e)
	}
	return r, nil
}

// MustNew is New for the built-in catalog; a bad catalog is a programming
// error caught at startup.
func MustNew(entries ...Entry) *Registry {
	r, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) Lookup(id string) (Entry, bool) {
	i, ok := r.index[id]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Resolve is Lookup returning ErrUnknownAction.
func (r *Registry) Resolve(id string) (Entry, error) {
	e, ok := r.Lookup(id)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownAction, id)
	}
	return e, nil
}

func (r *Registry) List() []Entry {
	return append([]Entry(nil), r.entries...)
}

func (r *Registry) IDs() []string {
	ids := make([]string, len(r.entries))
	for i, e := range r.entries {
		ids[i] = e.ID
	}
	return ids
}

func (r *Registry) Len() int { return len(r.entries) }

// Unknown returns the identifiers of ids that are not registered, in order.
func (r *Registry) Unknown(ids []string) []string {
	out := []string{}
	for _, id := range ids {
		if _, ok := r.index[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
