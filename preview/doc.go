// Package preview runs ad-hoc preview executions of a pipeline against the
// backend and tracks them until they finish.
//
// A Coordinator owns at most one run. Its lifecycle is
//
//	Idle -> Submitting -> Running -> (terminal status) -> Idle
//	                      Running -> Stopping -> Idle
//
// Submit derives the preview section from the pipeline, posts it and starts
// two repeating tasks: a duration timer feeding DurationDisplay and a status
// poll. Any status other than RUNNING, STARTED or PENDING ends the run and
// produces a notification. Stop and Dispose invalidate both tasks before the
// backend is contacted, so a poll response that is already in flight can no
// longer change the run.
//
// All transitions happen under one mutex. Notifications and snapshot
// subscribers are called after it is released.
package preview
