// Package model contains the shared domain types for devstrap:
// bootstrap steps and their results, dev service specifications,
// tool-check reports, and the CLIError/ExitCode error contract
// used by every command.
package model
