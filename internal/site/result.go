package site

import "time"

// Status represents the outcome of a build pass.
type Status string

const (
	// StatusSuccess indicates the pass completed and wrote its output.
	StatusSuccess Status = "success"

	// StatusWarning indicates the pass completed but some pages were
	// skipped or rendered with recoverable problems.
	StatusWarning Status = "warning"

	// StatusFailed indicates the pass aborted before writing output.
	StatusFailed Status = "failed"
)

// Result contains the outcome of one build pass.
type Result struct {
	// ID uniquely identifies the pass, for logs and build history.
	ID string

	Status      Status
	Incremental bool

	// PagesTotal is the size of the collection index for this pass.
	PagesTotal int

	// PagesRendered counts pages actually rendered and written.
	PagesRendered int

	// ChangedURLs lists the output URLs this pass (re)wrote, for the
	// live-reload collaborator.
	ChangedURLs []string

	// Warnings holds recoverable problems: extraction fallbacks, excluded
	// pages, isolated incremental render failures.
	Warnings []string

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
