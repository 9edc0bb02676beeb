package photosort

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/user/photo-sorter/pkg"
)

// ErrInvalidConfig marks configuration problems the user has to fix.
var ErrInvalidConfig = errors.New("invalid configuration")

// FileConfig mirrors the optional YAML configuration file.
// Pointers distinguish an absent key from a false value.
type FileConfig struct {
	Recursive       *bool  `yaml:"recursive"`
	Mode            string `yaml:"mode"`
	Workers         int    `yaml:"workers"`
	Collision       string `yaml:"collision"`
	FallbackToMTime *bool  `yaml:"fallback_to_mtime"`
	Report          string `yaml:"report"`
}

// CLIArgs holds the command-line values and whether each flag was given
// explicitly, so an explicit flag can override the file even when it
// carries the default value.
type CLIArgs struct {
	SourceDir  string
	OutputDir  string
	ConfigPath string

	Recursive    bool
	RecursiveSet bool

	Mode    string
	ModeSet bool

	Workers    int
	WorkersSet bool

	Collision    string
	CollisionSet bool

	FallbackToMTime    bool
	FallbackToMTimeSet bool

	ReportPath string
	ReportSet  bool
}

// LoadConfigFile reads a YAML configuration file. Unknown keys are rejected.
func LoadConfigFile(path string) (FileConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	defer f.Close()
	return parseConfig(f, path)
}

func parseConfig(r io.Reader, name string) (FileConfig, error) {
	var fc FileConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return FileConfig{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
	}
	return fc, nil
}

// LoadOptions reads args.ConfigPath when set and merges it with args.
func LoadOptions(args CLIArgs) (Options, error) {
	var fc FileConfig
	if args.ConfigPath != "" {
		var err error
		if fc, err = LoadConfigFile(args.ConfigPath); err != nil {
			return Options{}, err
		}
	}
	return MergeOptions(args, fc)
}

// MergeOptions applies the precedence explicit flag > config file > default.
func MergeOptions(args CLIArgs, fc FileConfig) (Options, error) {
	if args.SourceDir == "" || args.OutputDir == "" {
		return Options{}, fmt.Errorf("%w: source and output directories are required", ErrInvalidConfig)
	}
	opts := DefaultOptions(args.SourceDir, args.OutputDir)

	switch {
	case args.RecursiveSet:
		opts.Recursive = args.Recursive
	case fc.Recursive != nil:
		opts.Recursive = *fc.Recursive
	}

	mode := fc.Mode
	if args.ModeSet {
		mode = args.Mode
	}
	m, err := pkg.ParsePlacementMode(mode)
	if err != nil {
		return Options{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	opts.Mode = m

	collision := fc.Collision
	if args.CollisionSet {
		collision = args.Collision
	}
	c, err := pkg.ParseCollisionPolicy(collision)
	if err != nil {
		return Options{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	opts.Collision = c

	switch {
	case args.WorkersSet:
		opts.Workers = args.Workers
	case fc.Workers != 0:
		opts.Workers = fc.Workers
	}
	if opts.Workers < 1 {
		return Options{}, fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, opts.Workers)
	}

	switch {
	case args.FallbackToMTimeSet:
		opts.AllowModTime = args.FallbackToMTime
	case fc.FallbackToMTime != nil:
		opts.AllowModTime = *fc.FallbackToMTime
	}

	opts.ReportPath = fc.Report
	if args.ReportSet {
		opts.ReportPath = args.ReportPath
	}
	return opts, nil
}
