// Package studio composes the pieces of one pipeline editing session: the
// pipeline Store, the metadata editor, the importer, draft persistence and
// the preview coordinator.
//
// A Session is the unit a front end (CLI, terminal watcher or control API)
// holds for the lifetime of one open pipeline. Dispose tears all of it down.
package studio
