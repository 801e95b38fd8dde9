// Package events carries experiment lifecycle notifications from the
// orchestrator to console and report consumers.
package events

import "time"

// EventType represents the type of event
type EventType string

const (
	// EventPhaseStarted is emitted when a lifecycle phase begins (setup, start, stop, ...)
	EventPhaseStarted EventType = "phase_started"
	// EventPhaseFinished is emitted when a phase completes, possibly with tolerated errors
	EventPhaseFinished EventType = "phase_finished"
	// EventPhaseFailed is emitted when a phase aborts the experiment
	EventPhaseFailed EventType = "phase_failed"
	// EventVariantStarted is emitted before a variant's roles are started
	EventVariantStarted EventType = "variant_started"
	// EventVariantFinished is emitted after a variant's roles are stopped and purged
	EventVariantFinished EventType = "variant_finished"
	// EventVariantSkipped is emitted for variants already collected by a previous run
	EventVariantSkipped EventType = "variant_skipped"
	// EventArtifactCollected is emitted when measurements were downloaded
	EventArtifactCollected EventType = "artifact_collected"
	// EventArtifactMissing is emitted when measurements could not be downloaded
	EventArtifactMissing EventType = "artifact_missing"
)

// Event represents a lifecycle event
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Phase     string    `json:"phase,omitempty"`
	Role      string    `json:"role,omitempty"`
	Variant   string    `json:"variant,omitempty"`
	Data      EventData `json:"data,omitempty"`
}

// EventData contains event-specific data
type EventData struct {
	Index    int           `json:"index,omitempty"`
	Total    int           `json:"total,omitempty"`
	Path     string        `json:"path,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Error    string        `json:"error,omitempty"`
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// NewPhaseStartedEvent creates a phase started event
func NewPhaseStartedEvent(phase, role string) Event {
	return Event{Type: EventPhaseStarted, Timestamp: time.Now(), Phase: phase, Role: role}
}

// NewPhaseFinishedEvent creates a phase finished event; err holds tolerated failures
func NewPhaseFinishedEvent(phase, role string, err error) Event {
	return Event{
		Type:      EventPhaseFinished,
		Timestamp: time.Now(),
		Phase:     phase,
		Role:      role,
		Data:      EventData{Error: errString(err)},
	}
}

// NewPhaseFailedEvent creates a phase failed event
func NewPhaseFailedEvent(phase, role string, err error) Event {
	return Event{
		Type:      EventPhaseFailed,
		Timestamp: time.Now(),
		Phase:     phase,
		Role:      role,
		Data:      EventData{Error: errString(err)},
	}
}

// NewVariantStartedEvent creates a variant started event
func NewVariantStartedEvent(label string, index, total int) Event {
	return Event{
		Type:      EventVariantStarted,
		Timestamp: time.Now(),
		Variant:   label,
		Data:      EventData{Index: index, Total: total},
	}
}

// NewVariantFinishedEvent creates a variant finished event
func NewVariantFinishedEvent(label string, d time.Duration, err error) Event {
	return Event{
		Type:      EventVariantFinished,
		Timestamp: time.Now(),
		Variant:   label,
		Data:      EventData{Duration: d, Error: errString(err)},
	}
}

// NewVariantSkippedEvent creates a variant skipped event
func NewVariantSkippedEvent(label string) Event {
	return Event{Type: EventVariantSkipped, Timestamp: time.Now(), Variant: label}
}

// NewArtifactCollectedEvent creates an artifact collected event
func NewArtifactCollectedEvent(label, path string) Event {
	return Event{
		Type:      EventArtifactCollected,
		Timestamp: time.Now(),
		Variant:   label,
		Data:      EventData{Path: path},
	}
}

// NewArtifactMissingEvent creates an artifact missing event
func NewArtifactMissingEvent(label string, err error) Event {
	return Event{
		Type:      EventArtifactMissing,
		Timestamp: time.Now(),
		Variant:   label,
		Data:      EventData{Error: errString(err)},
	}
}
