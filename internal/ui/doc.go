// Package ui provides styled terminal output for the mc6-cfg and mc6-relay CLIs.
//
// Components follow a "render once and print" pattern using Lipgloss:
//
//   - Header: command banner showing operation name and parameters
//   - Result: success, failure and warning boxes with ordered details
//   - RenderTable: bordered tables for MIDI ports and discovered relays
//
// Print helpers write to Output, which defaults to stdout. Commands that emit
// hex dumps or YAML on stdout set it to stderr so the data stays pipeable.
//
// # Logging Integration
//
// This package expects logging to be controlled via the MC6_LOG_LEVEL
// environment variable. When unset or empty, zap logging is silent, allowing
// the curated UI output to be displayed cleanly.
package ui
