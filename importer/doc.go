// Package importer turns an uploaded pipeline document into a pipeline the
// studio can edit.
//
// Import runs four checks in order and stops at the first failure:
//
//  1. the text is JSON (MALFORMED_INPUT)
//  2. the document has the shape of a pipeline (INVALID_SCHEMA)
//  3. connections are synthesized as a linear chain when absent
//  4. the artifact matches one the backend knows (UNKNOWN_ARTIFACT)
package importer
