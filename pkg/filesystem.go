package pkg

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// imageExtensions maps the supported photo extensions (lowercase, with dot) to true.
// Used by IsSupported and BuildCatalog.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".tiff": true,
	".arw":  true, // Sony
	".cr2":  true, // Canon
	".cr3":  true, // Canon
	".nef":  true, // Nikon
	".orf":  true, // Olympus
	".rw2":  true, // Panasonic
	".pef":  true, // Pentax
	".raf":  true, // Fujifilm
	".raw":  true,
	".dng":  true,
}

func extensionOf(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// IsSupported checks if the given path has a known photo extension
// by comparing its lowercased extension against the imageExtensions map.
func IsSupported(path string) bool {
	return imageExtensions[extensionOf(path)]
}

// PhotoRecord is a cataloged photo ready for placement.
type PhotoRecord struct {
	SourcePath   string
	ResolvedDate string
	// RelativeSubdir is the directory of SourcePath relative to the
	// source root; empty for files directly in the root or in flat scans.
	RelativeSubdir string
	// DateSource tells which timestamp produced ResolvedDate.
	DateSource DateSource
}

// CatalogOptions controls BuildCatalog.
type CatalogOptions struct {
	Recursive bool
	Resolver  *DateResolver
	Observer  Observer
	// Exclude lists directories that are never descended into. Entries
	// that are not strictly below the root are ignored.
	Exclude []string
}

// BuildCatalog scans root for photos and resolves a date for each of them.
//
// Only a failure to read root itself is returned as an error. Unsupported
// files, unreadable subdirectories and files without a usable date are
// reported to the observer and left out of the result.
func BuildCatalog(root string, opts CatalogOptions) ([]PhotoRecord, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, newError(KindIO, "stat source", root, err)
	}
	if !info.IsDir() {
		return nil, newError(KindIO, "stat source", root, fmt.Errorf("not a directory"))
	}

	b := &catalogBuilder{
		root:     filepath.Clean(root),
		resolver: opts.Resolver,
		obs:      observerOrNop(opts.Observer),
		excluded: strictlyInside(root, cleanPaths(opts.Exclude)),
	}
	if b.resolver == nil {
		b.resolver = &DateResolver{}
	}

	if opts.Recursive {
		err = b.walk()
	} else {
		err = b.list()
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(b.records, func(i, j int) bool {
		if b.records[i].ResolvedDate != b.records[j].ResolvedDate {
			return b.records[i].ResolvedDate < b.records[j].ResolvedDate
		}
		return b.records[i].SourcePath < b.records[j].SourcePath
	})
	if b.records == nil {
		return []PhotoRecord{}, nil
	}
	return b.records, nil
}

type catalogBuilder struct {
	root     string
	resolver *DateResolver
	obs      Observer
	excluded []string
	records  []PhotoRecord
}

func (b *catalogBuilder) list() error {
	entries, err := os.ReadDir(b.root)
	if err != nil {
		return newError(KindIO, "read source", b.root, err)
	}
	for _, entry := range entries {
		path := filepath.Join(b.root, entry.Name())
		if b.isDir(path, entry) {
			continue
		}
		b.add(path, "")
	}
	return nil
}

func (b *catalogBuilder) walk() error {
	return filepath.WalkDir(b.root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == b.root {
				return newError(KindIO, "read source", path, walkErr)
			}
			b.obs.OnSkipped(path, newError(KindIO, "read", path, walkErr))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != b.root && isExcluded(path, b.excluded) {
				return filepath.SkipDir
			}
			return nil
		}
		if b.isDir(path, d) {
			return nil
		}

		rel, err := filepath.Rel(b.root, filepath.Dir(path))
		if err != nil {
			b.obs.OnSkipped(path, newError(KindProcess, "relativize", path, err))
			return nil
		}
		if rel == "." {
			rel = ""
		}
		b.add(path, rel)
		return nil
	})
}

// isDir reports whether entry is a directory, following symlinks.
func (b *catalogBuilder) isDir(path string, entry fs.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err != nil || info.IsDir()
}

func (b *catalogBuilder) add(path, rel string) {
	if !IsSupported(path) {
		b.obs.OnSkipped(path, newError(KindUnsupported, "classify", path, fmt.Errorf("extension %q", extensionOf(path))))
		return
	}
	date, source, err := b.resolver.ResolveWithSource(path)
	if err != nil {
		b.obs.OnSkipped(path, err)
		return
	}
	b.records = append(b.records, PhotoRecord{
		SourcePath:     path,
		ResolvedDate:   date,
		RelativeSubdir: rel,
		DateSource:     source,
	})
}

func cleanPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		out = append(out, filepath.Clean(p))
	}
	return out
}

// strictlyInside keeps the paths that lie below root. An excluded path
// equal to root or above it would prune every subdirectory.
func strictlyInside(root string, paths []string) []string {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	root = filepath.Clean(root)
	var out []string
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func isExcluded(path string, excluded []string) bool {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	for _, base := range excluded {
		if path == base || strings.HasPrefix(path, base+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
