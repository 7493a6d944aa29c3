package api

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bittles/teamarr/app/cfg"
	"github.com/bittles/teamarr/app/database"
	"github.com/bittles/teamarr/app/tasks"
	"github.com/bittles/teamarr/app/teams"
)

func NewHandler(configCache *teams.ConfigCache, teamRepo *database.TeamRepository,
	runRepo *database.RunRepository, fingerprintRepo *database.FingerprintRepository,
	generator GeneratorInterface, scheduler tasks.TaskSchedulerInterface,
	outputPath string) *Handler {
	return &Handler{
		configCache:     configCache,
		teamRepo:        teamRepo,
		runRepo:         runRepo,
		fingerprintRepo: fingerprintRepo,
		generator:       generator,
		scheduler:       scheduler,
		outputPath:      outputPath,
	}
}

// GetEPG serves the last generated XMLTV document. The file is written
// atomically by the orchestrator, so a read never observes a partial document.
func (h *Handler) GetEPG(c *gin.Context) {
	data, err := os.ReadFile(h.outputPath)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "EPG not generated yet"})
			return
		}
		slog.Error("Failed to read EPG output", "path", h.outputPath, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	if info, err := os.Stat(h.outputPath); err == nil {
		c.Header("X-Last-Generated", info.ModTime().UTC().Format(time.RFC3339))
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", data)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if teamCount, err := h.teamRepo.GetTeamCount(); err == nil {
		health["teams"] = teamCount
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	if runID, active := h.generator.Active(); active {
		health["active_run"] = runID
	}
	if lastRun, err := h.runRepo.GetLastRun(); err == nil && lastRun != nil {
		health["last_run_status"] = lastRun.Status
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"loaded_configurations": h.configCache.GetConfigCount(),
	}

	if base := cfg.Get().BaseUrl; base != "" {
		stats["epg_url"] = strings.TrimRight(base, "/") + "/epg.xml"
	}

	if teamCount, err := h.teamRepo.GetTeamCount(); err == nil {
		stats["teams"] = teamCount
	}
	if fingerprintCount, err := h.fingerprintRepo.GetFingerprintCount(); err == nil {
		stats["fingerprints"] = fingerprintCount
	}
	if lastRun, err := h.runRepo.GetLastRun(); err == nil && lastRun != nil {
		stats["last_run"] = runToResponse(lastRun, false)
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIListTeams(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	teamList := make([]map[string]interface{}, 0, len(configs))

	for _, teamConfig := range configs {
		teamInfo := map[string]interface{}{
			"name":       teamConfig.Name,
			"team_id":    teamConfig.TeamID,
			"league":     teamConfig.League,
			"sport":      teamConfig.Sport,
			"channel_id": teamConfig.ChannelID,
			"enabled":    teamConfig.Settings.Enabled,
			"rules":      len(teamConfig.Rules),
		}

		if team, err := h.teamRepo.GetTeam(teamConfig.Name); err == nil && team != nil {
			teamInfo["updated_at"] = team.UpdatedAt
		}

		teamList = append(teamList, teamInfo)
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(teamList),
		"teams": teamList,
	})
}

func (h *Handler) APIGetTeamDetails(c *gin.Context) {
	name := c.Param("name")

	teamConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Team configuration not found"})
		return
	}

	details := map[string]interface{}{
		"name":       teamConfig.Name,
		"team_id":    teamConfig.TeamID,
		"league":     teamConfig.League,
		"sport":      teamConfig.Sport,
		"channel_id": teamConfig.ChannelID,
		"settings": map[string]interface{}{
			"enabled":        teamConfig.Settings.Enabled,
			"lookahead_days": teamConfig.Settings.LookaheadDays,
			"exclude_final":  teamConfig.Settings.ExcludeFinal,
			"exclude_regex":  teamConfig.Settings.ExcludeRegex,
			"idle_enabled":   teamConfig.Settings.Idle.Enabled,
		},
		"templates": map[string]string{
			"title":       teamConfig.DefaultTemplate(teams.SlotTitle),
			"subtitle":    teamConfig.DefaultTemplate(teams.SlotSubtitle),
			"description": teamConfig.DefaultTemplate(teams.SlotDescription),
		},
		"rules": len(teamConfig.Rules),
	}

	if team, err := h.teamRepo.GetTeam(name); err == nil && team != nil {
		details["created_at"] = team.CreatedAt
		details["updated_at"] = team.UpdatedAt
	}

	c.JSON(http.StatusOK, details)
}

// APIGenerate triggers a generation run in the background. A run already in
// flight yields 409; the caller retries later rather than queueing.
func (h *Handler) APIGenerate(c *gin.Context) {
	if runID, active := h.generator.Active(); active {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "A generation run is already active",
			"run_id": runID,
		})
		return
	}

	task := tasks.NewGenerateEPGTask(h.generator)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Failed to enqueue generation task", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Task queue is full"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "queued", "task_id": task.GetID()})
}

func (h *Handler) APICancelGenerate(c *gin.Context) {
	if !h.generator.Cancel() {
		c.JSON(http.StatusConflict, gin.H{"error": "No generation run is active"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelling"})
}

// APIGenerateStream streams progress events as server-sent events until the
// client disconnects.
func (h *Handler) APIGenerateStream(c *gin.Context) {
	events, cancel := h.generator.Subscribe()
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("progress", event)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *Handler) APIListRuns(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	runs, err := h.runRepo.ListRuns(limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_runs", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	responses := make([]runResponse, 0, len(runs))
	for i := range runs {
		responses = append(responses, runToResponse(&runs[i], false))
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(responses),
		"runs":  responses,
	})
}

func (h *Handler) APIGetRun(c *gin.Context) {
	run, err := h.runRepo.GetRun(c.Param("id"))
	if err != nil {
		slog.Error("Database error", "operation", "get_run", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}

	c.JSON(http.StatusOK, runToResponse(run, true))
}

func runToResponse(run *database.GenerationRun, includeOutcomes bool) runResponse {
	response := runResponse{
		ID:            run.ID,
		Status:        run.Status,
		LookaheadDays: run.LookaheadDays,
		StartedAt:     run.StartedAt.Format(time.RFC3339),
		TotalUnits:    run.TotalUnits,
		Succeeded:     run.Succeeded,
		Skipped:       run.Skipped,
		Failed:        run.Failed,
		Message:       run.Message,
	}
	if run.FinishedAt != nil {
		response.FinishedAt = run.FinishedAt.Format(time.RFC3339)
	}
	if includeOutcomes {
		response.Outcomes = run.Outcomes
	}
	return response
}
