package photosort

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/photo-sorter/pkg"
)

func boolPtr(b bool) *bool { return &b }

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    FileConfig
		wantErr bool
	}{
		{
			name: "all keys",
			input: `
recursive: false
mode: tree
workers: 3
collision: suffix
fallback_to_mtime: true
report: /tmp/report.txt
`,
			want: FileConfig{
				Recursive:       boolPtr(false),
				Mode:            "tree",
				Workers:         3,
				Collision:       "suffix",
				FallbackToMTime: boolPtr(true),
				Report:          "/tmp/report.txt",
			},
		},
		{name: "empty file", input: ""},
		{name: "unknown key", input: "dedupe: true\n", wantErr: true},
		{name: "wrong type", input: "workers: many\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseConfig(strings.NewReader(tt.input), "test.yaml")
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMergeOptions(t *testing.T) {
	base := CLIArgs{SourceDir: "/in", OutputDir: "/out", Recursive: true, Mode: "flat", Workers: 2, Collision: "overwrite"}

	tests := []struct {
		name   string
		args   func(CLIArgs) CLIArgs
		file   FileConfig
		check  func(t *testing.T, o Options)
		errSub string
	}{
		{
			name: "defaults",
			check: func(t *testing.T, o Options) {
				assert.True(t, o.Recursive)
				assert.Equal(t, pkg.ModeFlat, o.Mode)
				assert.Equal(t, pkg.CollisionOverwrite, o.Collision)
				assert.Equal(t, runtime.NumCPU(), o.Workers)
				assert.False(t, o.AllowModTime)
				assert.Empty(t, o.ReportPath)
			},
		},
		{
			name: "file overrides defaults",
			file: FileConfig{Recursive: boolPtr(false), Mode: "tree", Workers: 7, Collision: "suffix", FallbackToMTime: boolPtr(true), Report: "r.txt"},
			check: func(t *testing.T, o Options) {
				assert.False(t, o.Recursive)
				assert.Equal(t, pkg.ModeTree, o.Mode)
				assert.Equal(t, pkg.CollisionSuffix, o.Collision)
				assert.Equal(t, 7, o.Workers)
				assert.True(t, o.AllowModTime)
				assert.Equal(t, "r.txt", o.ReportPath)
			},
		},
		{
			name: "unset flags do not override file",
			args: func(a CLIArgs) CLIArgs { a.Mode = "flat"; return a },
			file: FileConfig{Mode: "tree"},
			check: func(t *testing.T, o Options) {
				assert.Equal(t, pkg.ModeTree, o.Mode)
			},
		},
		{
			name: "explicit flags override file",
			args: func(a CLIArgs) CLIArgs {
				a.Recursive, a.RecursiveSet = true, true
				a.Mode, a.ModeSet = "flat", true
				a.Workers, a.WorkersSet = 1, true
				a.FallbackToMTime, a.FallbackToMTimeSet = false, true
				a.ReportPath, a.ReportSet = "", true
				return a
			},
			file: FileConfig{Recursive: boolPtr(false), Mode: "tree", Workers: 9, FallbackToMTime: boolPtr(true), Report: "r.txt"},
			check: func(t *testing.T, o Options) {
				assert.True(t, o.Recursive)
				assert.Equal(t, pkg.ModeFlat, o.Mode)
				assert.Equal(t, 1, o.Workers)
				assert.False(t, o.AllowModTime)
				assert.Empty(t, o.ReportPath)
			},
		},
		{
			name:   "bad mode",
			args:   func(a CLIArgs) CLIArgs { a.Mode, a.ModeSet = "nested", true; return a },
			errSub: "unknown placement mode",
		},
		{
			name:   "bad collision in file",
			file:   FileConfig{Collision: "skip"},
			errSub: "unknown collision policy",
		},
		{
			name:   "zero workers",
			args:   func(a CLIArgs) CLIArgs { a.Workers, a.WorkersSet = 0, true; return a },
			errSub: "workers must be at least 1",
		},
		{
			name:   "missing output",
			args:   func(a CLIArgs) CLIArgs { a.OutputDir = ""; return a },
			errSub: "source and output directories are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := base
			if tt.args != nil {
				args = tt.args(args)
			}
			o, err := MergeOptions(args, tt.file)
			if tt.errSub != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
				assert.Contains(t, err.Error(), tt.errSub)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "/in", o.SourceDir)
			assert.Equal(t, "/out", o.OutputDir)
			tt.check(t, o)
		})
	}
}

func TestLoadOptions(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "photosort.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("mode: tree\nworkers: 2\n"), 0o644))

	o, err := LoadOptions(CLIArgs{SourceDir: "/in", OutputDir: "/out", ConfigPath: cfg})
	require.NoError(t, err)
	assert.Equal(t, pkg.ModeTree, o.Mode)
	assert.Equal(t, 2, o.Workers)

	_, err = LoadOptions(CLIArgs{SourceDir: "/in", OutputDir: "/out", ConfigPath: filepath.Join(dir, "missing.yaml")})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
