// Package textutil provides filename sanitization and stem derivation helpers
// shared by the pipeline, session, and download packages.
package textutil
