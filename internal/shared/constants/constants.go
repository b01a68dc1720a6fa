package constants

import (
	"io/fs"
	"time"
)

const (
	// DefaultDirPerm is the default permission used when creating directories.
	DefaultDirPerm fs.FileMode = 0o755
	// DefaultFilePerm is the default permission used when creating files.
	DefaultFilePerm fs.FileMode = 0o644
)

const (
	// DefaultTimelineDataFile is where slurp stores the merged timeline.
	DefaultTimelineDataFile = ".seca-traffic.timeline.json"
	// DefaultAnalysisDataFile is where analyze stores per-analyzer results.
	DefaultAnalysisDataFile = ".seca-traffic.analysis.json"
	// DefaultConfigFile is read when --config is not given.
	DefaultConfigFile = "config.toml"
)

const (
	// DataFormatVersion is written into every persisted data file. Files with
	// a different major version are rejected on load.
	DataFormatVersion = "1.0.0"
	// SkipLogInterval throttles repeated per-event skip warnings.
	SkipLogInterval = 2 * time.Second
	// SkipLogBurst is how many skip warnings are always logged before throttling.
	SkipLogBurst = 5
)
