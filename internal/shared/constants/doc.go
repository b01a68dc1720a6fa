// Package constants centralizes defaults shared across the CLI.
//
// File permissions, default data file names and the persisted format version
// live here so cmd/ and internal/ can reference them without import cycles.
package constants
