// Package core holds the notes domain: the Note entity, the Notes store value,
// the storage contracts it is persisted through, and the service that applies
// edits to it.
package core

import (
	"slices"
	"strconv"
	"time"
)

// NoteID identifies a note. It is the creation time in milliseconds since the
// Unix epoch, so it also carries the note's creation timestamp.
type NoteID int64

// Created returns the creation time encoded in the id.
func (id NoteID) Created() time.Time {
	return time.UnixMilli(int64(id))
}

// Note is the central entity of the domain: one user document.
type Note struct {
	Title            string `json:"title"`
	Markdown         string `json:"markdown"`
	TimeLastModified int64  `json:"timeLastModified"`
}

// Modified returns the last modification time.
func (n Note) Modified() time.Time {
	return time.UnixMilli(n.TimeLastModified)
}

// Notes is the whole notes store, persisted as one unit.
//
// A Notes value is treated as an immutable snapshot: mutations go through With,
// which returns a new map and leaves the receiver untouched.
type Notes map[NoteID]Note

// IDs returns the note ids in display order (ascending, oldest first).
func (n Notes) IDs() []NoteID {
	ids := make([]NoteID, 0, len(n))
	for id := range n {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// First returns the first id in display order.
func (n Notes) First() (NoteID, bool) {
	ids := n.IDs()
	if len(ids) == 0 {
		return 0, false
	}
	return ids[0], true
}

// Has reports whether id is present.
func (n Notes) Has(id NoteID) bool {
	_, ok := n[id]
	return ok
}

// Clone returns a shallow copy. Note is a value type, so the copy is independent.
func (n Notes) Clone() Notes {
	out := make(Notes, len(n))
	for id, note := range n {
		out[id] = note
	}
	return out
}

// With returns a copy of the store with id set to note.
func (n Notes) With(id NoteID, note Note) Notes {
	out := make(Notes, len(n)+1)
	for k, v := range n {
		out[k] = v
	}
	out[id] = note
	return out
}

// Equal reports whether both stores hold the same notes.
func (n Notes) Equal(other Notes) bool {
	if len(n) != len(other) {
		return false
	}
	for id, note := range n {
		if o, ok := other[id]; !ok || o != note {
			return false
		}
	}
	return true
}

// Patch carries the fields of a note edit. Nil fields are left untouched.
type Patch struct {
	Title    *string
	Markdown *string
}

// TitlePatch is shorthand for a patch that only changes the title.
func TitlePatch(title string) Patch {
	return Patch{Title: &title}
}

// MarkdownPatch is shorthand for a patch that only changes the markdown body.
func MarkdownPatch(markdown string) Patch {
	return Patch{Markdown: &markdown}
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Markdown == nil
}

// Apply overlays the patch on note.
func (p Patch) Apply(note Note) Note {
	if p.Title != nil {
		note.Title = *p.Title
	}
	if p.Markdown != nil {
		note.Markdown = *p.Markdown
	}
	return note
}

// EventType represents the kind of change observed on a store.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
)

// Event describes one note that differs between two snapshots of the store.
type Event struct {
	Type      EventType
	ID        NoteID
	Timestamp int64 // Unix milliseconds
}

// String implements fmt.Stringer.
func (e Event) String() string {
	return string(e.Type) + " " + strconv.FormatInt(int64(e.ID), 10)
}

// Diff lists the notes created or modified going from old to new, in display order.
// Deletions are not reported: the domain has no delete operation.
func Diff(oldStore, newStore Notes) []Event {
	var events []Event
	for _, id := range newStore.IDs() {
		note := newStore[id]
		prev, existed := oldStore[id]
		switch {
		case !existed:
			events = append(events, Event{Type: EventCreate, ID: id, Timestamp: note.TimeLastModified})
		case prev != note:
			events = append(events, Event{Type: EventModify, ID: id, Timestamp: note.TimeLastModified})
		}
	}
	return events
}
