package pkg

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// GenerateReport writes a text report summarizing a run to reportPath.
func GenerateReport(reportPath string, s RunSummary) error {
	// Ensure the directory for the report exists
	reportDir := filepath.Dir(reportPath)
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory for report '%s': %w", reportDir, err)
	}

	var b strings.Builder
	b.WriteString("Photo Sorting Report\n")
	b.WriteString("====================\n\n")
	fmt.Fprintf(&b, "Run ID: %s\n", s.RunID)
	fmt.Fprintf(&b, "Source: %s\n", s.SourceDir)
	fmt.Fprintf(&b, "Output: %s\n", s.OutputDir)
	fmt.Fprintf(&b, "Mode: %s\n", s.Mode)
	if !s.StartedAt.IsZero() {
		fmt.Fprintf(&b, "Started: %s\n", s.StartedAt.Format(time.RFC3339))
	}
	if !s.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "Finished: %s\n", s.FinishedAt.Format(time.RFC3339))
	}

	b.WriteString("\nSummary:\n")
	fmt.Fprintf(&b, "  - Photos cataloged: %d\n", s.Cataloged)
	fmt.Fprintf(&b, "  - Files skipped: %d\n", s.Skipped)
	fmt.Fprintf(&b, "  - Photos copied: %d\n", s.Placed)
	fmt.Fprintf(&b, "  - Photos already in place: %d\n", s.Unchanged)
	fmt.Fprintf(&b, "  - Photos failed: %d\n", s.Failed)

	if len(s.Failures) > 0 {
		b.WriteString("\nFailure Details:\n")
		for _, f := range s.Failures {
			fmt.Fprintf(&b, "  - File: %s\n", f.SourcePath)
			fmt.Fprintf(&b, "    Error: %v\n\n", f.Err)
		}
	}

	if err := os.WriteFile(reportPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write report file '%s': %w", reportPath, err)
	}
	return nil
}
