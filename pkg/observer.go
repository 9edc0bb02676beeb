package pkg

import "time"

// Observer receives progress events from a run. Events may arrive from
// several goroutines at once, so implementations must be safe for
// concurrent use and must not block for long.
type Observer interface {
	// OnCataloged is called once the catalog is built, before any placement.
	OnCataloged(total int)
	// OnSkipped is called for every file left out of the catalog.
	OnSkipped(path string, err error)
	// OnPlaced is called after a record reached dest. changed is false
	// when dest already held identical content.
	OnPlaced(rec PhotoRecord, dest string, changed bool)
	// OnFailed is called when a record could not be placed.
	OnFailed(rec PhotoRecord, err error)
	// OnFinished is called once at the end of a run.
	OnFinished(summary RunSummary)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) OnCataloged(int)                    {}
func (NopObserver) OnSkipped(string, error)            {}
func (NopObserver) OnPlaced(PhotoRecord, string, bool) {}
func (NopObserver) OnFailed(PhotoRecord, error)        {}
func (NopObserver) OnFinished(RunSummary)              {}

func observerOrNop(obs Observer) Observer {
	if obs == nil {
		return NopObserver{}
	}
	return obs
}

// PlacementFailure pairs a source file with the error that stopped its placement.
type PlacementFailure struct {
	SourcePath string
	Err        error
}

// RunSummary aggregates the outcome of one run.
type RunSummary struct {
	RunID      string
	SourceDir  string
	OutputDir  string
	Mode       PlacementMode
	StartedAt  time.Time
	FinishedAt time.Time

	Cataloged int
	Skipped   int
	Placed    int
	Unchanged int
	Failed    int

	Failures []PlacementFailure
}
