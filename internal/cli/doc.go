// Package cli implements the fieldsync command tree: workspace lifecycle
// (init, clone), sync flows (status, pull, push, watch), project discovery,
// and local diagnostics.
package cli
