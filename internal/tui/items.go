package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/list"

	"github.com/aretw0/tabnotes/internal/render"
	"github.com/aretw0/tabnotes/pkg/core"
)

// noteItem adapts a card to list.DefaultItem.
type noteItem struct {
	card render.Card
}

func (i noteItem) Title() string { return i.card.Title }

func (i noteItem) Description() string {
	if i.card.Preview == "" {
		return i.card.Created
	}
	return i.card.Created + " · " + i.card.Preview
}

func (i noteItem) FilterValue() string { return i.card.Title + " " + i.card.Preview }

func noteItems(notes core.Notes, now time.Time, previewLength int) []list.Item {
	cards := render.Cards(notes, now, previewLength)
	items := make([]list.Item, 0, len(cards))
	for _, c := range cards {
		items = append(items, noteItem{card: c})
	}
	return items
}

func indexOf(items []list.Item, id core.NoteID) int {
	for i, it := range items {
		if ni, ok := it.(noteItem); ok && ni.card.ID == id {
			return i
		}
	}
	return -1
}
