package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	photosort "github.com/user/photo-sorter/cmd/photosort/lib"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code:
// 0 on success, 1 when the run failed, 2 on usage errors.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("photosort", flag.ContinueOnError)
	fs.SetOutput(stderr)

	recursive := fs.Bool("recursive", true, "Descend into subdirectories of SRC (false scans only SRC itself)")
	mode := fs.String("mode", "flat", "Placement mode: flat (DST/<date>) or tree (DST/<source subdir>/<date>)")
	workers := fs.Int("workers", runtime.NumCPU(), "Number of photos copied concurrently")
	collision := fs.String("collision", "overwrite", "Name collision policy: overwrite or suffix (keep both, hash suffix)")
	fallbackMTime := fs.Bool("fallback-mtime", false, "Use modification time when the filesystem has no creation time")
	report := fs.String("report", "", "Write a text report of the run to this path")
	configPath := fs.String("config", "", "YAML configuration file")
	verbose := fs.Bool("verbose", false, "Log every file")
	jsonLog := fs.Bool("json-log", false, "Log as JSON")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "photosort - copy photos into folders named after their capture date\n\n")
		fmt.Fprintf(stderr, "Usage:\n  photosort [options] SRC DST\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  photosort ~/Pictures/card /mnt/archive\n")
		fmt.Fprintf(stderr, "  photosort -mode tree -collision suffix ~/Pictures/trips /mnt/archive\n")
	}

	// Flags may appear before, between or after the two operands.
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return 0
			}
			return 2
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
	if len(positional) != 2 {
		fmt.Fprintf(stderr, "Error: expected SRC and DST, got %d argument(s)\n\n", len(positional))
		fs.Usage()
		return 2
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	opts, err := photosort.LoadOptions(photosort.CLIArgs{
		SourceDir:          positional[0],
		OutputDir:          positional[1],
		ConfigPath:         *configPath,
		Recursive:          *recursive,
		RecursiveSet:       set["recursive"],
		Mode:               *mode,
		ModeSet:            set["mode"],
		Workers:            *workers,
		WorkersSet:         set["workers"],
		Collision:          *collision,
		CollisionSet:       set["collision"],
		FallbackToMTime:    *fallbackMTime,
		FallbackToMTimeSet: set["fallback-mtime"],
		ReportPath:         *report,
		ReportSet:          set["report"],
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	logger := newLogger(stderr, *verbose, *jsonLog)
	slog.SetDefault(logger)
	logger.Info("photo sorter initializing",
		"source", opts.SourceDir,
		"output", opts.OutputDir,
		"recursive", opts.Recursive,
		"mode", opts.Mode.String(),
		"collision", opts.Collision.String(),
		"workers", opts.Workers,
	)

	summary, err := photosort.Run(opts, newProgressLogger(logger))
	if err != nil {
		fmt.Fprintf(stderr, "Photo sorting failed: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Photo sorting completed. Copied: %d, Already in place: %d, Skipped: %d\n",
		summary.Placed, summary.Unchanged, summary.Skipped)
	return 0
}

func newLogger(w io.Writer, verbose, jsonLog bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if jsonLog {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
