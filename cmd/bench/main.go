// Command bench measures how the whole-store write scales with the number of
// notes, for each persistent backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aretw0/tabnotes"
	"github.com/aretw0/tabnotes/pkg/core"
)

func main() {
	count := flag.Int("count", 1000, "Number of notes in the store")
	edits := flag.Int("edits", 100, "Number of title edits to time")
	backends := flag.String("backends", "fs,sqlite", "Comma separated backends to run")
	keep := flag.Bool("keep", false, "Keep the benchmark stores after running")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	for _, name := range strings.Split(*backends, ",") {
		res, err := run(strings.TrimSpace(name), *count, *edits, *keep, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
			os.Exit(1)
		}
		fmt.Printf("--------------------------------------------------\n")
		fmt.Printf("Benchmark Result (%s, %d notes):\n", name, *count)
		fmt.Printf("  Seed:       %v\n", res.seed)
		fmt.Printf("  Cold load:  %v\n", res.cold)
		fmt.Printf("  Edit (avg): %v\n", res.edit)
	}
	fmt.Printf("--------------------------------------------------\n")
}

type result struct {
	seed, cold, edit time.Duration
}

func run(backend string, count, edits int, keep bool, logger *slog.Logger) (result, error) {
	var res result

	dir, err := os.MkdirTemp("", "tabnotes_bench_")
	if err != nil {
		return res, err
	}
	if keep {
		fmt.Printf("Keeping bench store: %s\n", dir)
	} else {
		defer os.RemoveAll(dir)
	}

	ctx := context.Background()

	// Seed the store in one write; building it note by note would be quadratic.
	seed := make(core.Notes, count)
	base := time.Now().UnixMilli()
	for i := 0; i < count; i++ {
		seed[core.NoteID(base+int64(i))] = core.Note{
			Title:            fmt.Sprintf("Note %d", i),
			Markdown:         fmt.Sprintf("# Benchmark Note %d\nThis is a test note.", i),
			TimeLastModified: base,
		}
	}

	app, err := tabnotes.Open(dir, tabnotes.WithAdapter(backend), tabnotes.WithLogger(logger))
	if err != nil {
		return res, err
	}
	start := time.Now()
	if err := app.Store().Replace(ctx, seed); err != nil {
		app.Close()
		return res, err
	}
	res.seed = time.Since(start)
	app.Close()

	// Re-open to simulate a new window on the same store.
	app, err = tabnotes.Open(dir, tabnotes.WithAdapter(backend), tabnotes.WithLogger(logger))
	if err != nil {
		return res, err
	}
	defer app.Close()

	start = time.Now()
	current, err := app.Store().Load(ctx)
	if err != nil {
		return res, err
	}
	res.cold = time.Since(start)

	if edits <= 0 {
		return res, nil
	}
	ids := current.IDs()
	start = time.Now()
	for i := 0; i < edits; i++ {
		id := ids[i%len(ids)]
		current, err = app.Service().Edit(ctx, current, id, core.TitlePatch(fmt.Sprintf("Edited %d", i)))
		if err != nil {
			return res, err
		}
	}
	res.edit = time.Since(start) / time.Duration(edits)
	return res, nil
}
