package watch

import (
	"time"

	"git.home.luguber.info/inful/sitegen/internal/site"
)

// BuildRequested signals that source paths changed and a rebuild is wanted.
// Bursts of these are coalesced by the debouncer.
type BuildRequested struct {
	// Paths are changed paths relative to the project root.
	Paths       []string
	Reason      string
	RequestedAt time.Time
}

// BuildNow is emitted by the debouncer once a burst has settled. Full
// requests carry no path set and force a complete rebuild.
type BuildNow struct {
	TriggeredAt  time.Time
	Paths        []string
	Full         bool
	RequestCount int
	Cause        string
}

// BuildCompleted is published after every build pass, carrying the changed
// URL set for the live-reload collaborator.
type BuildCompleted struct {
	Result      *site.Result
	CompletedAt time.Time
}
