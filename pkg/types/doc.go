// Package types defines the row, relation and model declarations, the
// configuration, and the standard errors shared by the tablekit engine,
// its query builder and the CLI.
package types
