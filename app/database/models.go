package database

import (
	"time"
)

// Team is a tracked team row, a persisted snapshot of its configuration.
type Team struct {
	ID            string // Database UUID
	Name          string // Configuration identifier derived from filename
	TeamID        string // Upstream team id
	League        string
	Sport         string
	ChannelID     string
	Enabled       bool
	LookaheadDays int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FingerprintKey identifies one programme slot across runs.
type FingerprintKey struct {
	ChannelID string
	Start     string // UTC instant, RFC 3339
}

// Run status values.
const (
	RunStatusQueued    = "queued"
	RunStatusFetching  = "fetching"
	RunStatusResolving = "resolving"
	RunStatusRendering = "rendering"
	RunStatusDiffing   = "diffing"
	RunStatusWriting   = "writing"
	RunStatusComplete  = "complete"
	RunStatusFailed    = "failed"
	RunStatusCancelled = "cancelled"
)

// Unit outcome status values.
const (
	OutcomeSuccess = "success"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// UnitOutcome records the result of processing one team within a run.
type UnitOutcome struct {
	Unit    string         `json:"unit"`
	Status  string         `json:"status"`
	Entries int            `json:"entries"`
	Detail  string         `json:"detail,omitempty"`
	Reasons map[string]int `json:"reasons,omitempty"`
}

// GenerationRun is the persisted summary of one EPG generation run.
type GenerationRun struct {
	ID            string
	Status        string
	LookaheadDays int
	StartedAt     time.Time
	FinishedAt    *time.Time
	TotalUnits    int
	Succeeded     int
	Skipped       int
	Failed        int
	Message       string
	Outcomes      []UnitOutcome
}
