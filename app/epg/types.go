package epg

import (
	"context"
	"time"

	"github.com/bittles/teamarr/app/database"
	"github.com/bittles/teamarr/app/sports"
)

// TemplateContext is the resolved variable mapping for one (event, perspective)
// pair. Every recognized variable name is present; missing upstream data
// resolves to a fallback value, never to an absent key.
type TemplateContext map[string]string

// Freshness marker for a programme entry.
const (
	FreshnessNew    = "new"
	FreshnessRepeat = "repeat"
)

// Channel is one XMLTV channel declaration.
type Channel struct {
	ID          string
	DisplayName string
	IconURL     string
}

// ProgrammeEntry is one rendered unit of XMLTV output.
type ProgrammeEntry struct {
	ChannelID   string
	Start       time.Time // UTC
	Stop        time.Time // UTC, strictly after Start
	Title       string
	Subtitle    string
	Description string
	Categories  []string
	Freshness   string
}

// Key returns the fingerprint key identifying this entry's slot across runs.
func (p ProgrammeEntry) Key() database.FingerprintKey {
	return database.FingerprintKey{
		ChannelID: p.ChannelID,
		Start:     p.Start.UTC().Format(time.RFC3339),
	}
}

// DiffResult partitions a run's entries against the previous fingerprint
// snapshot. Unchanged entries are still emitted to the output document;
// change detection optimizes work, not output completeness.
type DiffResult struct {
	Unchanged []ProgrammeEntry
	Changed   []ProgrammeEntry
	Added     []ProgrammeEntry
	Removed   []database.FingerprintKey
}

// ScheduleSource supplies upstream schedule and statistics data. Implemented
// by sports.Client; faked in tests.
type ScheduleSource interface {
	BuildSnapshot(ctx context.Context, sport, league, teamID string, from, to time.Time) (*sports.Snapshot, error)
}

// FingerprintStore persists content fingerprints between runs.
type FingerprintStore interface {
	GetAll() (map[database.FingerprintKey]string, error)
	ReplaceAll(fingerprints map[database.FingerprintKey]string) error
}

// RunStore persists generation run history.
type RunStore interface {
	InsertRun(run *database.GenerationRun) error
	FinalizeRun(run *database.GenerationRun) error
}

var _ ScheduleSource = (*sports.Client)(nil)
var _ FingerprintStore = (*database.FingerprintRepository)(nil)
var _ RunStore = (*database.RunRepository)(nil)
