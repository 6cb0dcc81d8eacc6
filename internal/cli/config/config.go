// Package config merges the docfmt configuration sources into validated run
// settings. Precedence, lowest first: built-in defaults, .docfmt.yaml,
// pyproject.toml [tool.docfmt], DOCFMT_* environment variables, command-line
// flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/stackvity/docfmt/pkg/formatter"
)

const (
	// DefaultConfigName is the stem of the YAML config file.
	DefaultConfigName = ".docfmt"

	// EnvPrefix namespaces environment variable overrides, e.g.
	// DOCFMT_LINE_LENGTH=100.
	EnvPrefix = "DOCFMT"

	// PyprojectFile is the project config probed in the working directory.
	PyprojectFile = "pyproject.toml"

	// pyprojectTable is the TOML table read from pyproject files.
	pyprojectTable = "docfmt"
)

// Output formats for the final run report.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Settings is everything the CLI layer needs for one invocation.
type Settings struct {
	Options      formatter.Options
	OutputFormat string
	NoProgress   bool
	ClearCache   bool
}

// flagBindings maps viper keys to the flag names that override them.
var flagBindings = map[string]string{
	"check":                   "check",
	"raw_output":              "raw-output",
	"docstring_trailing_line": "docstring-trailing-line",
	"line_length":             "line-length",
	"file_type":               "file-type",
	"include_txt":             "include-txt",
	"ignore_cache":            "ignore-cache",
	"exclude":                 "exclude",
	"extend_exclude":          "extend-exclude",
	"concurrency":             "concurrency",
	"cache_dir":               "cache-dir",
	"verbose":                 "verbose",
	"quiet":                   "quiet",
}

// LoadAndValidate resolves the full configuration for one run. args are the
// positional path arguments. The returned logger is already leveled according
// to the quiet/verbose settings.
func LoadAndValidate(cfgFile, pyprojectPath, appVersion string, flags *pflag.FlagSet, args []string) (*Settings, *slog.Logger, error) {
	v := viper.New()
	setDefaults(v)

	if err := readConfigFile(v, cfgFile); err != nil {
		return nil, nil, err
	}
	if err := mergePyproject(v, pyprojectPath); err != nil {
		return nil, nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, flagName := range flagBindings {
		if flag := flags.Lookup(flagName); flag != nil {
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, nil, fmt.Errorf("%w: binding flag %q: %w", formatter.ErrConfigValidation, flagName, err)
			}
		}
	}

	var opts formatter.Options
	if err := v.Unmarshal(&opts); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", formatter.ErrConfigValidation, err)
	}

	// The negative flag wins over every other source.
	if noTrail, err := flags.GetBool("no-docstring-trailing-line"); err == nil && noTrail {
		opts.DocstringTrailingLine = false
	}
	opts.Paths = args
	opts.ToolVersion = appVersion
	if raw, err := flags.GetString("raw-input"); err == nil {
		opts.RawInput = raw
	}

	logger := newLogger(opts.Quiet, opts.Verbosity)
	opts.Logger = logger.Handler()

	if err := opts.Validate(); err != nil {
		return nil, logger, err
	}

	settings := &Settings{
		Options:      opts,
		OutputFormat: v.GetString("output_format"),
		NoProgress:   v.GetBool("no_progress"),
		ClearCache:   v.GetBool("clear_cache"),
	}
	if f := flags.Lookup("output-format"); f != nil && f.Changed {
		settings.OutputFormat = f.Value.String()
	}
	if noProgress, err := flags.GetBool("no-progress"); err == nil && noProgress {
		settings.NoProgress = true
	}
	if clear, err := flags.GetBool("clear-cache"); err == nil && clear {
		settings.ClearCache = true
	}

	switch settings.OutputFormat {
	case OutputText, OutputJSON, OutputYAML:
	default:
		return nil, logger, fmt.Errorf("%w: unknown output format %q", formatter.ErrConfigValidation, settings.OutputFormat)
	}

	return settings, logger, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("check", false)
	v.SetDefault("raw_output", false)
	v.SetDefault("docstring_trailing_line", true)
	v.SetDefault("line_length", formatter.DefaultLineLength)
	v.SetDefault("file_type", formatter.FileTypeMarkdown)
	v.SetDefault("include_txt", false)
	v.SetDefault("ignore_cache", false)
	v.SetDefault("exclude", formatter.DefaultExcludes)
	v.SetDefault("extend_exclude", []string{})
	v.SetDefault("concurrency", 0)
	v.SetDefault("cache_dir", "")
	v.SetDefault("verbose", 0)
	v.SetDefault("quiet", false)
	v.SetDefault("output_format", OutputText)
	v.SetDefault("no_progress", false)
	v.SetDefault("clear_cache", false)
}

// readConfigFile loads the YAML config. A missing file is only an error when
// the user named it explicitly.
func readConfigFile(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("%w: reading config file %q: %w", formatter.ErrConfigValidation, cfgFile, err)
		}
		return nil
	}

	v.SetConfigName(DefaultConfigName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "docfmt"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("%w: reading config file: %w", formatter.ErrConfigValidation, err)
	}
	return nil
}

// mergePyproject overlays the [tool.docfmt] table of a pyproject.toml. With
// no explicit path, ./pyproject.toml is probed and silently skipped when
// absent.
func mergePyproject(v *viper.Viper, path string) error {
	explicit := path != ""
	if !explicit {
		path = PyprojectFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: reading %q: %w", formatter.ErrConfigValidation, path, err)
	}

	var doc struct {
		Tool map[string]map[string]any `toml:"tool"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: parsing %q: %w", formatter.ErrConfigValidation, path, err)
	}
	table, ok := doc.Tool[pyprojectTable]
	if !ok {
		return nil
	}
	if err := v.MergeConfigMap(table); err != nil {
		return fmt.Errorf("%w: merging %q: %w", formatter.ErrConfigValidation, path, err)
	}
	return nil
}

// newLogger builds the leveled stderr logger: quiet shows errors only,
// verbosity over zero enables debug, the default keeps warnings and up.
func newLogger(quiet bool, verbosity int) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case quiet:
		level = slog.LevelError
	case verbosity >= 2:
		level = slog.LevelDebug
	case verbosity == 1:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
