package cmd

import "fmt"

// AnalyzerNotConfiguredError indicates analyze was asked to run without any
// configured analyzers.
type AnalyzerNotConfiguredError struct {
	ConfigFile string
}

func (e *AnalyzerNotConfiguredError) Error() string {
	if e.ConfigFile == "" {
		return "no analyzers configured (no config file found; set traffic.analyzers.names in config.toml)"
	}
	return fmt.Sprintf("no analyzers configured in %s (set traffic.analyzers.names)", e.ConfigFile)
}

// DataFileError signals that a data file a command depends on is missing or
// unusable.
type DataFileError struct {
	Path string
	// Hint names the command that writes the file.
	Hint string
	Err  error
}

func (e *DataFileError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("data file %s unavailable, run %q first: %v", e.Path, e.Hint, e.Err)
	}
	return fmt.Sprintf("data file %s unavailable: %v", e.Path, e.Err)
}

func (e *DataFileError) Unwrap() error {
	return e.Err
}
