package photosort

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/user/photo-sorter/pkg"
)

// Options is the fully resolved configuration of one run.
type Options struct {
	SourceDir string
	OutputDir string

	Recursive bool
	Mode      pkg.PlacementMode
	Collision pkg.CollisionPolicy
	// Workers bounds concurrent placements; values below 1 mean one.
	Workers int
	// AllowModTime lets files without EXIF date or creation time fall
	// back to their modification time.
	AllowModTime bool
	// ReportPath, when set, receives a text report of the run.
	ReportPath string

	// Resolver overrides the date resolver built from AllowModTime.
	Resolver *pkg.DateResolver
}

// DefaultOptions returns the built-in defaults for a run from src to dst.
func DefaultOptions(src, dst string) Options {
	return Options{
		SourceDir: src,
		OutputDir: dst,
		Recursive: true,
		Mode:      pkg.ModeFlat,
		Collision: pkg.CollisionOverwrite,
		Workers:   runtime.NumCPU(),
	}
}

// skipCounter counts catalog skips before forwarding them.
// The catalog is built on a single goroutine.
type skipCounter struct {
	pkg.Observer
	n int
}

func (c *skipCounter) OnSkipped(path string, err error) {
	c.n++
	c.Observer.OnSkipped(path, err)
}

// ensureSourceDirectory checks the source root is an existing directory.
func ensureSourceDirectory(sourceDir string) error {
	info, err := os.Stat(sourceDir)
	if err != nil {
		return &pkg.Error{Kind: pkg.KindIO, Op: "stat source", Path: sourceDir, Err: err}
	}
	if !info.IsDir() {
		return &pkg.Error{Kind: pkg.KindIO, Op: "stat source", Path: sourceDir, Err: fmt.Errorf("not a directory")}
	}
	return nil
}

// ensureTargetDirectory ensures the output root exists, creating it if necessary.
func ensureTargetDirectory(targetDir string) error {
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return &pkg.Error{Kind: pkg.KindIO, Op: "create output", Path: targetDir, Err: err}
	}
	info, err := os.Stat(targetDir)
	if err != nil {
		return &pkg.Error{Kind: pkg.KindIO, Op: "stat output", Path: targetDir, Err: err}
	}
	if !info.IsDir() {
		return &pkg.Error{Kind: pkg.KindIO, Op: "stat output", Path: targetDir, Err: fmt.Errorf("not a directory")}
	}
	return nil
}

// Run catalogs the photos under opts.SourceDir and copies them into
// opts.OutputDir.
//
// Setup failures (unreadable source, uncreatable output) abort the run and
// are returned as-is. A failed placement does not stop the others; if any
// failed, the returned error wraps the first one by source path. The
// summary is returned in every case.
func Run(opts Options, obs pkg.Observer) (pkg.RunSummary, error) {
	if obs == nil {
		obs = pkg.NopObserver{}
	}
	summary := pkg.RunSummary{
		RunID:     uuid.New().String(),
		SourceDir: opts.SourceDir,
		OutputDir: opts.OutputDir,
		Mode:      opts.Mode,
		StartedAt: time.Now(),
	}

	if err := ensureSourceDirectory(opts.SourceDir); err != nil {
		return summary, err
	}

	resolver := opts.Resolver
	if resolver == nil {
		resolver = &pkg.DateResolver{AllowModTime: opts.AllowModTime}
	}
	skips := &skipCounter{Observer: obs}
	records, err := pkg.BuildCatalog(opts.SourceDir, pkg.CatalogOptions{
		Recursive: opts.Recursive,
		Resolver:  resolver,
		Observer:  skips,
		Exclude:   []string{opts.OutputDir},
	})
	if err != nil {
		return summary, err
	}
	summary.Cataloged = len(records)
	summary.Skipped = skips.n
	obs.OnCataloged(len(records))

	// The output root must exist before the first placement.
	if err := ensureTargetDirectory(opts.OutputDir); err != nil {
		return summary, err
	}

	placer := &pkg.Placer{
		OutputRoot: opts.OutputDir,
		Mode:       opts.Mode,
		Collision:  opts.Collision,
	}
	placeAll(placer, records, opts.Workers, obs, &summary)

	summary.FinishedAt = time.Now()
	obs.OnFinished(summary)

	if opts.ReportPath != "" {
		if err := pkg.GenerateReport(opts.ReportPath, summary); err != nil {
			return summary, fmt.Errorf("failed to generate final report: %w", err)
		}
	}

	if summary.Failed > 0 {
		first := summary.Failures[0]
		return summary, fmt.Errorf("%d of %d photos could not be placed; first failure %s: %w",
			summary.Failed, summary.Cataloged, first.SourcePath, first.Err)
	}
	return summary, nil
}

// placeAll places every record on a pool of at most workers goroutines.
// Records that share a destination name are placed by one goroutine in
// source path order, so the file that keeps the bare name under
// CollisionSuffix does not depend on scheduling.
func placeAll(placer *pkg.Placer, records []pkg.PhotoRecord, workers int, obs pkg.Observer, summary *pkg.RunSummary) {
	if workers < 1 {
		workers = 1
	}

	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	g.SetLimit(workers)

	for _, group := range groupByDestination(placer, records) {
		g.Go(func() error {
			for _, rec := range group {
				dest, changed, err := placer.Place(rec)

				mu.Lock()
				switch {
				case err != nil:
					summary.Failed++
					summary.Failures = append(summary.Failures, pkg.PlacementFailure{SourcePath: rec.SourcePath, Err: err})
				case changed:
					summary.Placed++
				default:
					summary.Unchanged++
				}
				mu.Unlock()

				if err != nil {
					obs.OnFailed(rec, err)
				} else {
					obs.OnPlaced(rec, dest, changed)
				}
			}
			// Failures live in summary, never in the group.
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(summary.Failures, func(i, j int) bool {
		return summary.Failures[i].SourcePath < summary.Failures[j].SourcePath
	})
}

// groupByDestination buckets records by destination path, keeping the
// first-seen order of buckets. Each bucket is sorted by source path.
// A record without a valid destination gets a bucket of its own.
func groupByDestination(placer *pkg.Placer, records []pkg.PhotoRecord) [][]pkg.PhotoRecord {
	var groups [][]pkg.PhotoRecord
	index := make(map[string]int, len(records))
	for _, rec := range records {
		dest, err := placer.DestinationPath(rec)
		if err != nil {
			groups = append(groups, []pkg.PhotoRecord{rec})
			continue
		}
		i, ok := index[dest]
		if !ok {
			i = len(groups)
			index[dest] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], rec)
	}
	for _, group := range groups {
		sort.Slice(group, func(i, j int) bool { return group[i].SourcePath < group[j].SourcePath })
	}
	return groups
}
