package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stackvity/docfmt/internal/cli"
	"github.com/stackvity/docfmt/internal/cli/config"
	"github.com/stackvity/docfmt/pkg/formatter"
)

var (
	// Set at build time via -ldflags.
	version = "dev"
	commit  = "none"
	date    = "unknown"

	cfgFile       string
	pyprojectFile string

	exitCode int
)

var rootCmd = &cobra.Command{
	Use:   "docfmt [flags] [FILES or DIRECTORIES...]",
	Short: "Formats Python docstrings and Markdown documents.",
	Long:  `docfmt rewrites the triple-quoted docstrings inside Python source files and
the content of standalone Markdown files to a canonical width, leaving every
byte outside the documentation blocks untouched.

Pass file paths, directory paths, or glob patterns. A single "-" reads from
standard input and writes the result to standard output. Repeated runs are
fast: unchanged files are skipped via a per-user fingerprint cache.`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		settings, logger, err := config.LoadAndValidate(cfgFile, pyprojectFile, version, cmd.Flags(), args)
		if err != nil {
			if errors.Is(err, formatter.ErrConfigValidation) {
				exitCode = cli.ExitUsage
			} else {
				exitCode = cli.ExitDirty
			}
			return err
		}

		exitCode, err = cli.Run(ctx, settings, logger)
		return err
	},
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	rootCmd.SetVersionTemplate(`{{.Name}} version {{.Version}}` + "\n")
	if err := rootCmd.Execute(); err != nil {
		if exitCode == 0 {
			// The error came from flag parsing, before RunE ran.
			return cli.ExitUsage
		}
		return exitCode
	}
	return exitCode
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Configuration file path (default is to search . and $HOME/.config/docfmt/)")
	rootCmd.PersistentFlags().StringVarP(&pyprojectFile, "pyproject-config", "p", "", "Path to a pyproject.toml with a [tool.docfmt] table (default ./pyproject.toml)")

	rootCmd.Flags().BoolP("check", "c", false, "Report files that would change without writing anything")
	rootCmd.Flags().Bool("docstring-trailing-line", true, "Require a blank line before the closing quotes of multi-line docstrings")
	rootCmd.Flags().Bool("no-docstring-trailing-line", false, "Disable the trailing blank line in multi-line docstrings")
	rootCmd.Flags().StringArrayP("exclude", "e", nil, "Glob patterns to exclude, replacing the default set (repeatable)")
	rootCmd.Flags().StringArrayP("extend-exclude", "x", nil, "Glob patterns to exclude in addition to the active set (repeatable)")
	rootCmd.Flags().StringP("file-type", "t", formatter.FileTypeMarkdown, `Kind assumed for stdin and raw input ("py" or "md")`)
	rootCmd.Flags().BoolP("ignore-cache", "i", false, "Skip cache reads and reprocess every file (the cache is still updated)")
	rootCmd.Flags().BoolP("include-txt", "T", false, "Treat .txt files as Markdown during directory discovery")
	rootCmd.Flags().IntP("line-length", "l", formatter.DefaultLineLength, "Target line width in columns")
	rootCmd.Flags().StringP("raw-input", "r", "", "Format the given string directly and print the result")
	rootCmd.Flags().BoolP("raw-output", "o", false, "Print formatted content to stdout instead of rewriting files")
	rootCmd.Flags().CountP("verbose", "v", "Increase log detail (repeatable)")
	rootCmd.Flags().BoolP("quiet", "q", false, "Suppress everything except errors")
	rootCmd.Flags().Bool("no-progress", false, "Disable the progress bar even on a terminal")
	rootCmd.Flags().Int("concurrency", 0, "Number of parallel workers (0 for auto-detect)")
	rootCmd.Flags().String("cache-dir", "", "Override the per-user cache directory")
	rootCmd.Flags().Bool("clear-cache", false, "Delete the cache files before starting")
	rootCmd.Flags().String("output-format", config.OutputText, `Final report format ("text", "json", "yaml")`)
}
