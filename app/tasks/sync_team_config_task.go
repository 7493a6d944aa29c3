package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bittles/teamarr/app/database"
	"github.com/bittles/teamarr/app/teams"
)

// SyncTeamConfigTask mirrors one team configuration file into the database so
// API consumers and run history can reference a stable row.
type SyncTeamConfigTask struct {
	Task
	TeamConfig *teams.Config
	teamRepo   *database.TeamRepository
}

func NewSyncTeamConfigTask(teamName string, teamConfig *teams.Config, teamRepo *database.TeamRepository) *SyncTeamConfigTask {
	return &SyncTeamConfigTask{
		Task:       NewTask(TaskTypeSyncTeamConfig, teamName),
		TeamConfig: teamConfig,
		teamRepo:   teamRepo,
	}
}

func (t *SyncTeamConfigTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	_, err := t.teamRepo.UpsertTeam(database.Team{
		Name:          t.TeamConfig.Name,
		TeamID:        t.TeamConfig.TeamID,
		League:        t.TeamConfig.League,
		Sport:         t.TeamConfig.Sport,
		ChannelID:     t.TeamConfig.ChannelID,
		Enabled:       t.TeamConfig.Settings.Enabled,
		LookaheadDays: t.TeamConfig.Settings.LookaheadDays,
	})
	if err != nil {
		slog.Error("Task failed", "type", "SyncTeamConfig", "team", t.TeamName, "error", err)
		return fmt.Errorf("failed to sync team config to database: %w", err)
	}

	slog.Info("Task completed",
		"type", "SyncTeamConfig",
		"team", t.TeamName,
		"duration", t.GetDuration())

	return nil
}
