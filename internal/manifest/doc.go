// Package manifest parses and queries project manifests — the serialized
// description of a remote project's file set, name, namespace, and version
// that the sync service exchanges with clients.
//
// Parsing is deliberately forgiving: a malformed document yields an empty
// manifest plus an advisory error, never a hard failure, so callers always
// have a usable (possibly empty) view of the project. Schema validation is
// available separately for diagnostics.
package manifest
