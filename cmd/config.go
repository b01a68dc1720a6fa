package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"unicode"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/khanhnv2901/seca-traffic/internal/infrastructure/analyzers"
	consts "github.com/khanhnv2901/seca-traffic/internal/shared/constants"
)

const (
	envPrefix = "SECA_TRAFFIC"

	keyInputFiles       = "traffic.input_files"
	keyTimelineDataFile = "traffic.timeline_data_file"
	keyAnalysisDataFile = "traffic.analysis_data_file"
	keyParallelism      = "traffic.parallelism"
	keyAnalyzerNames    = "traffic.analyzers.names"
)

// CLIConfig captures runtime configuration shared across commands.
type CLIConfig struct {
	// ConfigFile is the file that was read, empty when running on defaults.
	ConfigFile string
	Traffic    TrafficConfig
}

// TrafficConfig is the [traffic] table.
type TrafficConfig struct {
	InputFiles       []string
	TimelineDataFile string
	AnalysisDataFile string
	Parallelism      int
	AnalyzerNames    []string
	// Sections holds each configured analyzer's own table, keyed by name.
	Sections map[string]analyzers.Section
}

func newCLIConfig() *CLIConfig {
	return &CLIConfig{
		Traffic: TrafficConfig{
			TimelineDataFile: consts.DefaultTimelineDataFile,
			AnalysisDataFile: consts.DefaultAnalysisDataFile,
			Parallelism:      1,
			Sections:         map[string]analyzers.Section{},
		},
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(keyTimelineDataFile, consts.DefaultTimelineDataFile)
	v.SetDefault(keyAnalysisDataFile, consts.DefaultAnalysisDataFile)
	v.SetDefault(keyParallelism, 1)

	// SECA_TRAFFIC_PARALLELISM rather than SECA_TRAFFIC_TRAFFIC_PARALLELISM
	for _, key := range []string{keyInputFiles, keyTimelineDataFile, keyAnalysisDataFile, keyParallelism} {
		_ = v.BindEnv(key, envPrefix+"_"+strings.ToUpper(strings.TrimPrefix(key, "traffic.")))
	}
	_ = v.BindEnv(keyAnalyzerNames, envPrefix+"_ANALYZERS")
	return v
}

// loadCLIConfig reads path into a CLIConfig. A missing file is only an error
// when the user named it explicitly.
func loadCLIConfig(path string, explicit bool) (*CLIConfig, error) {
	v := newViper()
	v.SetConfigFile(path)

	cfg := newCLIConfig()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
		if explicit || !missing {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		cfg.ConfigFile = v.ConfigFileUsed()
	}

	cfg.Traffic.InputFiles = v.GetStringSlice(keyInputFiles)
	cfg.Traffic.TimelineDataFile = v.GetString(keyTimelineDataFile)
	cfg.Traffic.AnalysisDataFile = v.GetString(keyAnalysisDataFile)
	cfg.Traffic.Parallelism = v.GetInt(keyParallelism)
	cfg.Traffic.AnalyzerNames = splitNames(v.GetStringSlice(keyAnalyzerNames))

	if cfg.Traffic.TimelineDataFile == "" || cfg.Traffic.AnalysisDataFile == "" {
		return nil, errors.New("traffic.timeline_data_file and traffic.analysis_data_file must not be empty")
	}
	if cfg.Traffic.Parallelism < 1 {
		return nil, fmt.Errorf("traffic.parallelism must be at least 1, got %d", cfg.Traffic.Parallelism)
	}

	for _, name := range cfg.Traffic.AnalyzerNames {
		key := "traffic." + name
		if !v.IsSet(key) {
			continue
		}
		cfg.Traffic.Sections[name] = analyzers.Section(v.GetStringMap(key))
	}
	return cfg, nil
}

// splitNames splits every entry on commas and whitespace, dropping empties.
func splitNames(entries []string) []string {
	var names []string
	for _, entry := range entries {
		names = append(names, strings.FieldsFunc(entry, func(r rune) bool {
			return r == ',' || unicode.IsSpace(r)
		})...)
	}
	return names
}

func applyIntDefault(flags *pflag.FlagSet, name string, value int, setter func(int)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyStringDefault(flags *pflag.FlagSet, name, value string, setter func(string)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}
