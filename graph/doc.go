// Package graph models a pipeline document: its stages, the connections
// between them and the artifact it runs on.
//
// Documents round-trip through JSON without losing fields this package does
// not model (schedules, engine settings, stage schemas); those are kept in
// Extra maps and written back on export.
//
// Stages are classified into roles through a RoleMap keyed by plugin type.
// Levels orders stages with Kahn's algorithm and reports unknown endpoints
// and cycles.
package graph
