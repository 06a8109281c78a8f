// Package rows holds the row-level helpers of the engine: uniform access
// over row shapes, write-field filtering, primary-value extraction and
// result flattening. Everything here is pure; nothing touches a database.
package rows
