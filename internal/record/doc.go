// Package record implements the per-table record engine: uniform get,
// insert, update and delete verbs over a query builder, declared relations
// between tables, per-call inclusion of those relations, the before/after
// hook pipeline and the per-table query audit log.
//
// A call selects relations with With, then runs a verb. The verb fires its
// before hook, executes the local statement, cascades the same verb to every
// included relation's engine, optionally flattens the result, resets the
// builder and fires its after hook. A before hook returning ErrAbort skips
// everything but the reset.
//
// Engines carry per-call builder state and are not safe for concurrent use.
// Build one Registry per concurrent caller.
package record
