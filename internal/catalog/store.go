// Package catalog holds the preloaded, read-only set of seismic channels for
// every planetary body together with their catalogued arrival times.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/quiver-seismic/quiver/internal/waveform"
)

var (
	// ErrUnknownBody is returned when a lookup names a body that was never
	// configured.
	ErrUnknownBody = errors.New("unknown body")

	// ErrUnknownChannel is returned when a body has no channel with the
	// requested id.
	ErrUnknownChannel = errors.New("unknown channel")
)

// Split tells whether a channel came from the labelled training set or the
// unlabelled test set.
type Split string

const (
	Train Split = "train"
	Test  Split = "test"
)

// Entry is one channel and its ground truth. Arrival is the catalogued
// arrival in seconds from channel start and is nil for unlabelled channels.
type Entry struct {
	ID      string
	Body    string
	Split   Split
	Path    string
	Channel *waveform.Channel
	Arrival *float64
}

// HasArrival reports whether the entry carries a catalogued arrival time.
func (e *Entry) HasArrival() bool {
	return e.Arrival != nil
}

type bodyIndex struct {
	entries []*Entry
	byID    map[string]*Entry
}

// Store is an immutable index of entries by body and channel id. It is built
// once and may be shared by any number of concurrent readers.
type Store struct {
	bodies map[string]*bodyIndex
}

// NewStore indexes entries. Every name in bodies is known to the store even
// if it has no entries. Duplicate ids within a body are rejected.
func NewStore(bodies []string, entries []*Entry) (*Store, error) {
	s := &Store{bodies: make(map[string]*bodyIndex)}
	for _, b := range bodies {
		s.index(b)
	}

	for _, e := range entries {
		if e == nil || e.Channel == nil {
			return nil, fmt.Errorf("entry without a channel")
		}
		idx := s.index(e.Body)
		if _, dup := idx.byID[e.ID]; dup {
			return nil, fmt.Errorf("duplicate channel %q for body %q", e.ID, e.Body)
		}
		idx.byID[e.ID] = e
		idx.entries = append(idx.entries, e)
	}

	for _, idx := range s.bodies {
		sort.Slice(idx.entries, func(i, j int) bool {
			return idx.entries[i].ID < idx.entries[j].ID
		})
	}
	return s, nil
}

func (s *Store) index(body string) *bodyIndex {
	idx, ok := s.bodies[body]
	if !ok {
		idx = &bodyIndex{byID: make(map[string]*Entry)}
		s.bodies[body] = idx
	}
	return idx
}

// Bodies returns the known body names in lexical order.
func (s *Store) Bodies() []string {
	names := make([]string, 0, len(s.bodies))
	for name := range s.bodies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries returns the entries of body ordered by id. The returned slice is a
// copy; the entries themselves must be treated as read-only.
func (s *Store) Entries(body string) ([]*Entry, error) {
	idx, ok := s.bodies[body]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBody, body)
	}
	return append([]*Entry(nil), idx.entries...), nil
}

// Len returns the number of entries stored for body, or 0 if it is unknown.
func (s *Store) Len(body string) int {
	if idx, ok := s.bodies[body]; ok {
		return len(idx.entries)
	}
	return 0
}

// Lookup finds a channel by id. A trailing ".json" or ".csv" on id is
// ignored so file names can be passed directly.
func (s *Store) Lookup(body, id string) (*Entry, error) {
	idx, ok := s.bodies[body]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBody, body)
	}
	e, ok := idx.byID[StemID(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %q on %s", ErrUnknownChannel, id, body)
	}
	return e, nil
}

// StemID strips a known data or request suffix from a file name.
func StemID(name string) string {
	for _, ext := range []string{".json", ".csv", ".mseed"} {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}
