package api

import (
	"context"

	"github.com/bittles/teamarr/app/database"
	"github.com/bittles/teamarr/app/epg"
	"github.com/bittles/teamarr/app/tasks"
	"github.com/bittles/teamarr/app/teams"
)

// GeneratorInterface is the slice of the generation orchestrator the HTTP
// layer needs: trigger, cancel, observe.
type GeneratorInterface interface {
	Generate(ctx context.Context) (*database.GenerationRun, error)
	Cancel() bool
	Active() (string, bool)
	Subscribe() (<-chan epg.ProgressEvent, func())
}

var _ GeneratorInterface = (*epg.Orchestrator)(nil)

type Handler struct {
	configCache     *teams.ConfigCache
	teamRepo        *database.TeamRepository
	runRepo         *database.RunRepository
	fingerprintRepo *database.FingerprintRepository
	generator       GeneratorInterface
	scheduler       tasks.TaskSchedulerInterface
	outputPath      string
}

// runResponse is the JSON shape of a generation run.
type runResponse struct {
	ID            string                 `json:"id"`
	Status        string                 `json:"status"`
	LookaheadDays int                    `json:"lookahead_days"`
	StartedAt     string                 `json:"started_at"`
	FinishedAt    string                 `json:"finished_at,omitempty"`
	TotalUnits    int                    `json:"total_units"`
	Succeeded     int                    `json:"succeeded"`
	Skipped       int                    `json:"skipped"`
	Failed        int                    `json:"failed"`
	Message       string                 `json:"message,omitempty"`
	Outcomes      []database.UnitOutcome `json:"outcomes,omitempty"`
}
