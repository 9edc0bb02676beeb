package main

import (
	"log/slog"
	"sync"

	"github.com/user/photo-sorter/pkg"
)

var _ pkg.Observer = (*progressLogger)(nil)

// progressLogger turns run events into log lines. Placement events come
// from several workers, so counters are guarded by mu.
type progressLogger struct {
	log *slog.Logger

	mu       sync.Mutex
	total    int
	done     int
	interval int
}

func newProgressLogger(log *slog.Logger) *progressLogger {
	return &progressLogger{log: log, interval: 1}
}

func (p *progressLogger) OnCataloged(total int) {
	p.mu.Lock()
	p.total = total
	p.interval = total / 10
	if p.interval < 1 {
		p.interval = 1
	}
	p.mu.Unlock()

	if total == 0 {
		p.log.Info("no photos found in source directory")
		return
	}
	p.log.Info("catalog built", "photos", total)
}

func (p *progressLogger) OnSkipped(path string, err error) {
	if pkg.IsKind(err, pkg.KindUnsupported) {
		p.log.Debug("skipping unsupported file", "path", path)
		return
	}
	p.log.Warn("skipping file", "path", path, "kind", pkg.KindOf(err).String(), "error", err)
}

func (p *progressLogger) OnPlaced(rec pkg.PhotoRecord, dest string, changed bool) {
	msg := "copied photo"
	if !changed {
		msg = "photo already in place"
	}
	p.log.Debug(msg, "src", rec.SourcePath, "dest", dest, "date_source", rec.DateSource.String())
	p.advance()
}

func (p *progressLogger) OnFailed(rec pkg.PhotoRecord, err error) {
	p.log.Error("failed to place photo", "src", rec.SourcePath, "date", rec.ResolvedDate, "error", err)
	p.advance()
}

func (p *progressLogger) advance() {
	p.mu.Lock()
	p.done++
	done, total := p.done, p.total
	report := done%p.interval == 0 || done == total
	p.mu.Unlock()

	if report && total > 0 {
		p.log.Info("progress", "done", done, "total", total, "percent", done*100/total)
	}
}

func (p *progressLogger) OnFinished(s pkg.RunSummary) {
	p.log.Info("run finished",
		"run_id", s.RunID,
		"cataloged", s.Cataloged,
		"copied", s.Placed,
		"unchanged", s.Unchanged,
		"skipped", s.Skipped,
		"failed", s.Failed,
		"elapsed", s.FinishedAt.Sub(s.StartedAt).Round(1e6).String(),
	)
}
