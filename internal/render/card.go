package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/tabnotes/pkg/core"
)

// UntitledLabel is shown for notes without a title.
const UntitledLabel = "Untitled"

// Card is the display form of one note in the list.
type Card struct {
	ID       core.NoteID
	Title    string
	Preview  string
	Created  string
	Modified string
}

// NewCard builds the card of a note. now anchors the relative timestamps.
func NewCard(id core.NoteID, note core.Note, now time.Time, previewLength int) Card {
	return Card{
		ID:       id,
		Title:    Title(note),
		Preview:  Preview(note.Markdown, previewLength),
		Created:  RelativeTime(id.Created(), now),
		Modified: RelativeTime(note.Modified(), now),
	}
}

// Cards returns the cards of a store in display order.
func Cards(notes core.Notes, now time.Time, previewLength int) []Card {
	ids := notes.IDs()
	cards := make([]Card, 0, len(ids))
	for _, id := range ids {
		cards = append(cards, NewCard(id, notes[id], now, previewLength))
	}
	return cards
}

// Title is the note title, the frontmatter title, or UntitledLabel.
func Title(note core.Note) string {
	if t := strings.TrimSpace(note.Title); t != "" {
		return t
	}
	if fm, _, err := SplitFrontmatter(note.Markdown); err == nil {
		if t := fm.Title(); t != "" {
			return t
		}
	}
	return UntitledLabel
}

// RelativeTime formats t relative to now when it is less than a day old and as
// a calendar date otherwise. The year is omitted for dates in now's year.
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	}

	t = t.In(now.Location())
	if t.Year() == now.Year() {
		return t.Format("Jan 2")
	}
	return t.Format("Jan 2, 2006")
}
