// Package poll provides cancellable repeating tasks and a status poller
// built on them.
//
// A Task runs a function on its own goroutine at a fixed interval. Stop is
// synchronous with respect to future ticks: once it returns no new tick
// starts, and the context handed to an in-flight tick is cancelled. Stop may
// be called from inside the tick function itself.
//
// Poller fetches a resource path on every tick and hands the decoded result
// to a callback. A fetch error is delivered once to the error callback and
// ends that poll.
package poll
