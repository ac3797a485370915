// Package session owns the lifecycle of the transcript output root for one
// batch run: plan a dated directory without touching disk, create it lazily on
// first write, roll it back when the run produced nothing, and look up prior
// output for duplicate detection across sessions.
package session
