package model

import "time"

// Severity of a system alert.
type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
)

// Alert titles raised by the indexer.
const (
	AlertPollError     = "Indexer Poll Error"
	AlertEventSkipped  = "Indexer Event Skipped"
	AlertSnapshotError = "Snapshot Error"
)

// SystemAlert is an operational failure surfaced to the health report.
// Only Resolved ever changes after creation.
type SystemAlert struct {
	ID          int64
	Severity    Severity
	Title       string
	Description string
	Source      string
	CreatedAt   time.Time
	Resolved    bool
}
