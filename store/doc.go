// Package store persists client-local studio state: pipeline drafts and the
// last draft/preview ids used to resume a preview after a restart.
//
// Three backends implement ContextStore: an in-memory map, JSON files on the
// local filesystem and Redis (go-redis v9). Open picks one from
// config.StateConfig.
package store
