// Package tabnotes is the composition root of the tabnotes application.
//
// It opens a notes store on disk and wires the storage backend, the notes
// repository and the notes service together.
//
// A store is a directory containing a .tabnotes/ system directory. The whole
// collection of notes lives under one storage key ("local:notes" by default)
// and is written as a single JSON value, so every process opened on the same
// store sees the others' writes through Watch.
//
// Usage:
//
//	app, err := tabnotes.Open("./notes", tabnotes.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer app.Close()
//
//	id, store, err := app.Service().NewNote(ctx, core.Notes{})
package tabnotes
