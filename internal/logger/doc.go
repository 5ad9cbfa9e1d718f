// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a console encoder writing to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level configuration and parsing utilities,
//   - convenience functions (Infof, ErrorKV, etc.).
//
// Every pipeline stage accepts a context and extracts the logger from it,
// so messages carry the stage name they were emitted from while command
// stdout stays clean for the host's own output.
package logger
