// Package api serves the control API of a studio session over HTTP.
//
// Shells that do not embed the studio packages read the preview
// coordinator's published snapshot, drive previews, import pipelines and
// save drafts through it. Reads are open; mutating routes are rate limited
// per client, and when an auth secret is configured every /api route
// requires an HS256 bearer token.
package api
