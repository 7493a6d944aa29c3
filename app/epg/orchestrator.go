package epg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bittles/teamarr/app/database"
	"github.com/bittles/teamarr/app/sports"
	"github.com/bittles/teamarr/app/teams"
)

// ErrRunActive is returned when a generation run is requested while another
// one is still in flight.
var ErrRunActive = errors.New("a generation run is already active")

// ConfigSource supplies the team configurations a run operates on.
// Implemented by teams.ConfigCache.
type ConfigSource interface {
	GetEnabledConfigs() map[string]*teams.Config
}

var _ ConfigSource = (*teams.ConfigCache)(nil)

// OrchestratorOpts wires the orchestrator's collaborators and tuning knobs.
type OrchestratorOpts struct {
	Source           ScheduleSource
	Configs          ConfigSource
	Fingerprints     FingerprintStore
	Runs             RunStore
	Location         *time.Location
	OutputPath       string
	WorkerCount      int
	LookaheadDays    int
	MaxLookaheadDays int
}

// Orchestrator drives one EPG generation run end to end: fetch, resolve,
// render per team under bounded concurrency, then diff and write the output
// document in a single-writer section. At most one run is active at a time.
type Orchestrator struct {
	source        ScheduleSource
	configs       ConfigSource
	fingerprints  FingerprintStore
	runs          RunStore
	resolver      *Resolver
	evaluator     *Evaluator
	renderer      *Renderer
	serializer    *Serializer
	fingerprinter *Fingerprinter
	broadcaster   *progressBroadcaster

	outputPath       string
	workerCount      int
	lookaheadDays    int
	maxLookaheadDays int

	mu       sync.Mutex
	activeID string
	cancelFn context.CancelFunc
}

func NewOrchestrator(opts OrchestratorOpts) *Orchestrator {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	workerCount := opts.WorkerCount
	if workerCount < 1 {
		workerCount = 1
	}
	lookahead := opts.LookaheadDays
	if lookahead < 1 {
		lookahead = 7
	}
	maxLookahead := opts.MaxLookaheadDays
	if maxLookahead < lookahead {
		maxLookahead = lookahead
	}

	return &Orchestrator{
		source:           opts.Source,
		configs:          opts.Configs,
		fingerprints:     opts.Fingerprints,
		runs:             opts.Runs,
		resolver:         NewResolver(loc),
		evaluator:        NewEvaluator(),
		renderer:         NewRenderer(),
		serializer:       NewSerializer(loc),
		fingerprinter:    NewFingerprinter(),
		broadcaster:      newProgressBroadcaster(),
		outputPath:       opts.OutputPath,
		workerCount:      workerCount,
		lookaheadDays:    lookahead,
		maxLookaheadDays: maxLookahead,
	}
}

// Subscribe attaches a progress listener. The cancel function must be called
// to release it.
func (o *Orchestrator) Subscribe() (<-chan ProgressEvent, func()) {
	return o.broadcaster.Subscribe()
}

// Active returns the id of the in-flight run, if any.
func (o *Orchestrator) Active() (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.activeID, o.activeID != ""
}

// Cancel requests cancellation of the active run. Cancellation takes effect
// at the next unit boundary; the run finalizes as cancelled. Returns false
// when no run is active.
func (o *Orchestrator) Cancel() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancelFn == nil {
		return false
	}
	o.cancelFn()
	return true
}

type unitResult struct {
	outcome database.UnitOutcome
	channel Channel
	entries []ProgrammeEntry
}

// Generate executes one full generation run synchronously. A second call
// while a run is active fails fast with ErrRunActive; callers retry later
// rather than queueing.
func (o *Orchestrator) Generate(ctx context.Context) (*database.GenerationRun, error) {
	run := &database.GenerationRun{
		ID:            uuid.NewString(),
		Status:        database.RunStatusQueued,
		LookaheadDays: o.lookaheadDays,
		StartedAt:     time.Now().UTC(),
	}

	o.mu.Lock()
	if o.activeID != "" {
		o.mu.Unlock()
		return nil, ErrRunActive
	}
	runCtx, cancel := context.WithCancel(ctx)
	o.activeID = run.ID
	o.cancelFn = cancel
	o.mu.Unlock()

	defer func() {
		cancel()
		o.mu.Lock()
		o.activeID = ""
		o.cancelFn = nil
		o.mu.Unlock()
	}()

	if err := o.runs.InsertRun(run); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	o.publish(run, 0, "", "run queued")

	configs := o.configs.GetEnabledConfigs()
	run.TotalUnits = len(configs)

	slog.Info("Generation run started", "run_id", run.ID, "teams", len(configs))

	results := o.processUnits(runCtx, run, configs)

	var channels []Channel
	var entries []ProgrammeEntry
	for _, result := range results {
		run.Outcomes = append(run.Outcomes, result.outcome)
		switch result.outcome.Status {
		case database.OutcomeSuccess:
			run.Succeeded++
			channels = append(channels, result.channel)
			entries = append(entries, result.entries...)
		case database.OutcomeSkipped:
			run.Skipped++
		case database.OutcomeFailed:
			run.Failed++
		}
	}
	sort.Slice(run.Outcomes, func(i, j int) bool {
		return run.Outcomes[i].Unit < run.Outcomes[j].Unit
	})

	if runCtx.Err() != nil {
		return o.finalize(run, database.RunStatusCancelled, "run cancelled"), context.Canceled
	}
	if run.TotalUnits > 0 && run.Succeeded == 0 {
		return o.finalize(run, database.RunStatusFailed, "all units failed"),
			errors.New("all units failed")
	}
	// An empty guide must never replace the previous output, so a run that
	// produced no entries at all aborts before the write section.
	if run.TotalUnits > 0 && len(entries) == 0 {
		return o.finalize(run, database.RunStatusFailed, "no programme entries produced"),
			errors.New("no programme entries produced")
	}

	run.Status = database.RunStatusDiffing
	o.publish(run, 80, "", "diffing against previous run")

	previous, err := o.fingerprints.GetAll()
	if err != nil {
		o.finalize(run, database.RunStatusFailed, err.Error())
		return run, fmt.Errorf("failed to load fingerprints: %w", err)
	}
	diff, current := o.fingerprinter.Diff(previous, entries)

	run.Status = database.RunStatusWriting
	o.publish(run, 90, "", "writing output")

	allEntries := make([]ProgrammeEntry, 0, len(entries))
	allEntries = append(allEntries, diff.Unchanged...)
	allEntries = append(allEntries, diff.Changed...)
	allEntries = append(allEntries, diff.Added...)

	output := o.serializer.Run(channels, allEntries)
	if err := WriteAtomic(o.outputPath, output); err != nil {
		o.finalize(run, database.RunStatusFailed, err.Error())
		return run, err
	}
	if err := o.fingerprints.ReplaceAll(current); err != nil {
		o.finalize(run, database.RunStatusFailed, err.Error())
		return run, fmt.Errorf("failed to store fingerprints: %w", err)
	}

	message := fmt.Sprintf("%d entries (%d added, %d changed, %d removed)",
		len(allEntries), len(diff.Added), len(diff.Changed), len(diff.Removed))
	o.finalize(run, database.RunStatusComplete, message)

	slog.Info("Generation run complete", "run_id", run.ID, "entries", len(allEntries),
		"added", len(diff.Added), "changed", len(diff.Changed), "removed", len(diff.Removed),
		"failed_units", run.Failed)

	return run, nil
}

// processUnits fans team units out to a bounded worker pool. Each unit is
// isolated: a failing team yields a failed outcome, never a failed run.
func (o *Orchestrator) processUnits(ctx context.Context, run *database.GenerationRun, configs map[string]*teams.Config) []unitResult {
	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	units := make(chan *teams.Config, len(names))
	results := make(chan unitResult, len(names))
	var wg sync.WaitGroup
	var done int
	var doneMu sync.Mutex

	run.Status = database.RunStatusFetching
	o.publish(run, 0, "", "fetching schedules")

	for i := 0; i < o.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for unit := range units {
				var result unitResult
				if ctx.Err() != nil {
					result = unitResult{outcome: database.UnitOutcome{
						Unit:   unit.Name,
						Status: database.OutcomeSkipped,
						Detail: "run cancelled",
					}}
				} else {
					result = o.processUnit(ctx, run.ID, unit)
				}
				results <- result

				doneMu.Lock()
				done++
				index := done
				doneMu.Unlock()
				percent := 100
				if len(names) > 0 {
					percent = 100 * index / len(names)
				}
				o.broadcaster.Publish(ProgressEvent{
					RunID:   run.ID,
					Status:  run.Status,
					Percent: percent,
					Unit:    unit.Name,
					Index:   index,
					Total:   len(names),
				})
			}
		}()
	}

	for _, name := range names {
		units <- configs[name]
	}
	close(units)
	wg.Wait()
	close(results)

	collected := make([]unitResult, 0, len(names))
	for result := range results {
		collected = append(collected, result)
	}
	return collected
}

// processUnit runs the fetch, resolve and render phases for one team.
func (o *Orchestrator) processUnit(ctx context.Context, runID string, unit *teams.Config) unitResult {
	outcome := database.UnitOutcome{Unit: unit.Name, Status: database.OutcomeSuccess}

	now := time.Now().UTC()
	from := now.Truncate(24 * time.Hour)
	to := from.AddDate(0, 0, o.unitLookahead(unit))

	snapshot, err := o.source.BuildSnapshot(ctx, unit.Sport, unit.League, unit.TeamID, from, to)
	if err != nil {
		slog.Error("Failed to fetch schedule", "team", unit.Name, "error", err)
		outcome.Status = database.OutcomeFailed
		outcome.Detail = err.Error()
		return unitResult{outcome: outcome}
	}

	perspective := Perspective{
		TeamID:    unit.TeamID,
		ChannelID: unit.ChannelID,
		League:    unit.League,
		Sport:     unit.Sport,
	}

	filtered := sports.FilterGames(snapshot.Events, unit.Settings.ExcludeRegex)

	o.publishUnitPhase(runID, database.RunStatusResolving, unit.Name)

	type resolvedEvent struct {
		event sports.Event
		ctx   TemplateContext
	}
	reasons := filtered.Reasons
	if snapshot.OutsideWindow > 0 {
		reasons[sports.ReasonOutsideLookahead] += snapshot.OutsideWindow
	}

	var resolved []resolvedEvent
	for _, event := range filtered.Games {
		if event.End.Before(now) {
			reasons[sports.ReasonGamePast]++
			continue
		}
		if unit.Settings.ExcludeFinal && event.Status == sports.GameFinal {
			reasons[sports.ReasonGameFinal]++
			continue
		}

		templateCtx, err := o.resolver.Resolve(event, perspective, snapshot)
		if err != nil {
			slog.Warn("Skipping unresolvable event", "team", unit.Name, "event", event.ID, "error", err)
			continue
		}
		resolved = append(resolved, resolvedEvent{event: event, ctx: templateCtx})
	}

	o.publishUnitPhase(runID, database.RunStatusRendering, unit.Name)

	var entries []ProgrammeEntry
	for _, item := range resolved {
		entries = append(entries, ProgrammeEntry{
			ChannelID:   unit.ChannelID,
			Start:       item.event.Start.UTC(),
			Stop:        item.event.End.UTC(),
			Title:       o.renderSlot(unit, teams.SlotTitle, item.ctx),
			Subtitle:    o.renderSlot(unit, teams.SlotSubtitle, item.ctx),
			Description: o.renderSlot(unit, teams.SlotDescription, item.ctx),
			Categories:  unitCategories(unit),
		})
	}

	if unit.Settings.Idle.Enabled {
		entries = append(entries, o.idleEntries(unit, perspective, snapshot, from, to, entries)...)
	}

	channel := Channel{ID: unit.ChannelID, DisplayName: teamDisplayName(unit, snapshot)}

	outcome.Entries = len(entries)
	outcome.Detail = sports.FilterSummary(len(snapshot.Events), len(filtered.Games), len(entries))
	if len(reasons) > 0 {
		outcome.Reasons = reasons
	}
	return unitResult{outcome: outcome, channel: channel, entries: entries}
}

func (o *Orchestrator) renderSlot(unit *teams.Config, slot string, ctx TemplateContext) string {
	return o.renderer.Render(o.evaluator.SelectTemplate(unit, slot, ctx), ctx)
}

// idleEntries fills gameless days in the window with placeholder programming
// so downstream guides never show an empty channel.
func (o *Orchestrator) idleEntries(unit *teams.Config, p Perspective, snapshot *sports.Snapshot, from, to time.Time, gameEntries []ProgrammeEntry) []ProgrammeEntry {
	loc := o.serializer.loc

	gameDays := make(map[string]bool, len(gameEntries))
	for _, entry := range gameEntries {
		gameDays[entry.Start.In(loc).Format("2006-01-02")] = true
	}

	var entries []ProgrammeEntry
	for day := from; day.Before(to); day = day.AddDate(0, 0, 1) {
		local := day.In(loc)
		dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		if gameDays[dayStart.Format("2006-01-02")] {
			continue
		}

		next := nextEventAfter(snapshot, dayStart)
		ctx := o.resolver.ResolveIdle(dayStart, next, p, snapshot)

		title := unit.Settings.Idle.Title
		if title == "" {
			title = "{team_name} Programming"
		}
		description := unit.Settings.Idle.Description
		if description == "" {
			description = "Next game: {next_date} at {next_time} vs {next_opponent}"
		}

		entries = append(entries, ProgrammeEntry{
			ChannelID:   unit.ChannelID,
			Start:       dayStart.UTC(),
			Stop:        dayStart.AddDate(0, 0, 1).UTC(),
			Title:       o.renderer.Render(title, ctx),
			Description: o.renderer.Render(description, ctx),
			Categories:  unitCategories(unit),
		})
	}
	return entries
}

func (o *Orchestrator) unitLookahead(unit *teams.Config) int {
	days := unit.Settings.LookaheadDays
	if days < 1 {
		return o.lookaheadDays
	}
	if o.maxLookaheadDays > 0 && days > o.maxLookaheadDays {
		return o.maxLookaheadDays
	}
	return days
}

func (o *Orchestrator) finalize(run *database.GenerationRun, status, message string) *database.GenerationRun {
	now := time.Now().UTC()
	run.Status = status
	run.Message = message
	run.FinishedAt = &now

	if err := o.runs.FinalizeRun(run); err != nil {
		slog.Error("Failed to finalize run record", "run_id", run.ID, "error", err)
	}

	percent := 100
	if status != database.RunStatusComplete {
		percent = 0 // clamped up to the last published value by the broadcaster
	}
	o.publish(run, percent, "", message)
	return run
}

// publishUnitPhase emits an advisory per-unit phase event. It carries no new
// percent; the broadcaster holds the value at its high-water mark.
func (o *Orchestrator) publishUnitPhase(runID, status, unit string) {
	o.broadcaster.Publish(ProgressEvent{
		RunID:  runID,
		Status: status,
		Unit:   unit,
	})
}

func (o *Orchestrator) publish(run *database.GenerationRun, percent int, unit, message string) {
	o.broadcaster.Publish(ProgressEvent{
		RunID:   run.ID,
		Status:  run.Status,
		Percent: percent,
		Unit:    unit,
		Message: message,
	})
}

func nextEventAfter(snapshot *sports.Snapshot, after time.Time) *sports.Event {
	if snapshot == nil {
		return nil
	}
	var next *sports.Event
	for i := range snapshot.Events {
		event := &snapshot.Events[i]
		if event.Start.After(after) && (next == nil || event.Start.Before(next.Start)) {
			next = event
		}
	}
	return next
}

func teamDisplayName(unit *teams.Config, snapshot *sports.Snapshot) string {
	if snapshot != nil && snapshot.Team != nil && snapshot.Team.DisplayName != "" {
		return snapshot.Team.DisplayName
	}
	return unit.Name
}

var categoryTitler = cases.Title(language.AmericanEnglish)

func unitCategories(unit *teams.Config) []string {
	return []string{"Sports", categoryTitler.String(unit.Sport)}
}
