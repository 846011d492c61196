// Package logging builds the application's slog loggers. It provides a
// console handler for interactive use, a JSON handler for files and
// machine consumption, an in-memory stream hub that feeds the log API,
// and retention helpers for pruning old log files.
package logging
