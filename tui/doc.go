// Package tui is a terminal watcher for a preview run. It renders the
// coordinator's published snapshot (state, elapsed time, run status) and
// the latest notifications, and can stop the run from the keyboard.
package tui
