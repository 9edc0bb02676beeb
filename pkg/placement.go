package pkg

import (
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// PlacementMode selects how destination directories are built.
type PlacementMode int

const (
	// ModeFlat groups photos under OutputRoot/<date>.
	ModeFlat PlacementMode = iota
	// ModeTree mirrors the source tree: OutputRoot/<relative dir>/<date>.
	ModeTree
)

func (m PlacementMode) String() string {
	switch m {
	case ModeFlat:
		return "flat"
	case ModeTree:
		return "tree"
	default:
		return fmt.Sprintf("PlacementMode(%d)", int(m))
	}
}

// ParsePlacementMode parses "flat" or "tree".
func ParsePlacementMode(s string) (PlacementMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flat", "":
		return ModeFlat, nil
	case "tree":
		return ModeTree, nil
	default:
		return ModeFlat, fmt.Errorf("unknown placement mode %q (want flat or tree)", s)
	}
}

// CollisionPolicy decides what happens when the destination name is taken
// by a file with different content.
type CollisionPolicy int

const (
	// CollisionOverwrite replaces the existing file.
	CollisionOverwrite CollisionPolicy = iota
	// CollisionSuffix keeps the existing file and writes the new one as
	// name_<hash prefix>.ext.
	CollisionSuffix
)

func (c CollisionPolicy) String() string {
	switch c {
	case CollisionOverwrite:
		return "overwrite"
	case CollisionSuffix:
		return "suffix"
	default:
		return fmt.Sprintf("CollisionPolicy(%d)", int(c))
	}
}

// ParseCollisionPolicy parses "overwrite" or "suffix".
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "overwrite", "":
		return CollisionOverwrite, nil
	case "suffix":
		return CollisionSuffix, nil
	default:
		return CollisionOverwrite, fmt.Errorf("unknown collision policy %q (want overwrite or suffix)", s)
	}
}

const suffixHashLen = 8

const nameLockStripes = 64

// Placer copies cataloged photos into the output tree.
// It is safe for concurrent use and must not be copied after first use.
type Placer struct {
	OutputRoot string
	Mode       PlacementMode
	Collision  CollisionPolicy

	// names serializes placements that target the same file name.
	names [nameLockStripes]sync.Mutex
}

func (p *Placer) lockName(path string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(path))
	mu := &p.names[h.Sum32()%nameLockStripes]
	mu.Lock()
	return mu.Unlock
}

// DestinationPath returns the path rec is copied to before any collision suffix.
func (p *Placer) DestinationPath(rec PhotoRecord) (string, error) {
	dir, err := p.DestinationDir(rec)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filepath.Base(rec.SourcePath)), nil
}

// DestinationDir returns the directory rec is copied into.
func (p *Placer) DestinationDir(rec PhotoRecord) (string, error) {
	if rec.ResolvedDate == "" {
		return "", newError(KindProcess, "destination", rec.SourcePath, fmt.Errorf("empty resolved date"))
	}
	date := filepath.FromSlash(rec.ResolvedDate)

	if p.Mode == ModeTree && rec.RelativeSubdir != "" {
		rel := filepath.Clean(rec.RelativeSubdir)
		if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", newError(KindProcess, "destination", rec.SourcePath, fmt.Errorf("relative directory %q escapes the output root", rec.RelativeSubdir))
		}
		if rel != "." {
			return filepath.Join(p.OutputRoot, rel, date), nil
		}
	}
	return filepath.Join(p.OutputRoot, date), nil
}

// Place copies rec into its destination directory under its original name
// and returns the written path. changed is false when the destination
// already held byte-identical content and nothing was written.
// The source file is never modified.
func (p *Placer) Place(rec PhotoRecord) (dest string, changed bool, err error) {
	dir, err := p.DestinationDir(rec)
	if err != nil {
		return "", false, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, newError(KindIO, "mkdir", dir, err)
	}

	dest = filepath.Join(dir, filepath.Base(rec.SourcePath))
	defer p.lockName(dest)()

	exists, same, err := compareExisting(rec.SourcePath, dest)
	if err != nil {
		return "", false, err
	}
	if same {
		return dest, false, nil
	}

	if exists && p.Collision == CollisionSuffix {
		hash, err := CalculateFileHash(rec.SourcePath)
		if err != nil {
			return "", false, newError(KindIO, "hash", rec.SourcePath, err)
		}
		dest = suffixedPath(dest, hash[:suffixHashLen])
		if _, same, err = compareExisting(rec.SourcePath, dest); err != nil {
			return "", false, err
		}
		if same {
			return dest, false, nil
		}
	}

	if err := CopyFile(rec.SourcePath, dest); err != nil {
		return "", false, err
	}
	return dest, true, nil
}

// compareExisting reports whether dest exists and whether it matches src byte for byte.
func compareExisting(src, dest string) (exists, same bool, err error) {
	if _, err := os.Lstat(dest); err != nil {
		if os.IsNotExist(err) {
			return false, false, nil
		}
		return false, false, newError(KindIO, "stat destination", dest, err)
	}
	same, err = SameContent(src, dest)
	if err != nil {
		return true, false, newError(KindIO, "compare", dest, err)
	}
	return true, same, nil
}

func suffixedPath(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + suffix + ext
}

// CopyFile copies a file from srcPath to destPath, replacing destPath if it exists.
// The bytes go to a temporary file next to destPath which is then renamed
// into place, so concurrent copies to one name never interleave.
// The source permission bits are carried over.
func CopyFile(srcPath, destPath string) error {
	destDir := filepath.Dir(destPath)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return newError(KindIO, "mkdir", destDir, err)
	}

	sourceFile, err := os.Open(srcPath)
	if err != nil {
		return newError(KindIO, "open source", srcPath, err)
	}
	defer sourceFile.Close()

	info, err := sourceFile.Stat()
	if err != nil {
		return newError(KindIO, "stat source", srcPath, err)
	}

	tmp, err := os.CreateTemp(destDir, "."+filepath.Base(destPath)+".tmp-*")
	if err != nil {
		return newError(KindIO, "create temp", destDir, err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := io.Copy(tmp, sourceFile); err != nil {
		return newError(KindIO, "copy", destPath, err)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		return newError(KindIO, "chmod", destPath, err)
	}
	if err := tmp.Sync(); err != nil {
		return newError(KindIO, "sync", destPath, err)
	}
	if err := tmp.Close(); err != nil {
		return newError(KindIO, "close", destPath, err)
	}
	if err := os.Rename(tmpName, destPath); err != nil {
		return newError(KindIO, "rename", destPath, err)
	}
	return nil
}
