// Package component manages the lifecycle of the long-lived parts of a
// studio process.
//
// Components are registered with a Registry, started in registration order
// and stopped in reverse order. Func adapts plain start/stop functions.
package component
