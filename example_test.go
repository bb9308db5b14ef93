package tabnotes_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aretw0/tabnotes"
	"github.com/aretw0/tabnotes/pkg/core"
)

// Example_basic opens a store, creates a note, edits it and reads it back.
func Example_basic() {
	tmpDir, err := os.MkdirTemp("", "tabnotes-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	frozen := core.ClockFunc(func() time.Time { return time.UnixMilli(1_700_000_000_000) })
	app, err := tabnotes.Open(tmpDir, tabnotes.WithClock(frozen))
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	ctx := context.Background()
	svc := app.Service()

	id, store, err := svc.NewNote(ctx, core.Notes{})
	if err != nil {
		log.Fatal(err)
	}
	if _, err := svc.Edit(ctx, store, id, core.TitlePatch("Groceries")); err != nil {
		log.Fatal(err)
	}

	loaded, err := app.Store().Load(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%d: %s\n", id, loaded[id].Title)
	// Output:
	// 1700000000000: Groceries
}

// Example_watch shows a second app on the same store observing a write.
func Example_watch() {
	tmpDir, err := os.MkdirTemp("", "tabnotes-watch-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	reader, err := tabnotes.Open(tmpDir, tabnotes.WithEventBuffer(10*time.Millisecond))
	if err != nil {
		log.Fatal(err)
	}
	defer reader.Close()
	writer, err := tabnotes.Open(tmpDir)
	if err != nil {
		log.Fatal(err)
	}
	defer writer.Close()

	changed := make(chan []core.Event, 1)
	unsubscribe, err := reader.Store().Subscribe(func(newStore, oldStore core.Notes) {
		select {
		case changed <- core.Diff(oldStore, newStore):
		default:
		}
	})
	if err != nil {
		log.Fatal(err)
	}
	defer unsubscribe()

	if _, _, err := writer.Service().NewNote(context.Background(), core.Notes{}); err != nil {
		log.Fatal(err)
	}

	select {
	case events := <-changed:
		fmt.Println(len(events), events[0].Type)
	case <-time.After(5 * time.Second):
		fmt.Println("timeout")
	}
	// Output:
	// 1 CREATE
}
