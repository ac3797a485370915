// Package logging builds the slog loggers used across Scribe.
//
// It provides a console (pretty) handler and a JSON handler selected through
// configuration, attribute helper constructors, standardized field constants,
// and context-derived logger enrichment so pipeline components emit uniform
// structured output.
package logging
