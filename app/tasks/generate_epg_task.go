package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bittles/teamarr/app/epg"
)

// GenerateEPGTask runs one full EPG generation across all enabled teams. The
// orchestrator enforces the one-run-at-a-time policy; a rejected task is a
// no-op, not a failure, so it never enters the retry loop.
type GenerateEPGTask struct {
	Task
	generator EPGGeneratorInterface
}

func NewGenerateEPGTask(generator EPGGeneratorInterface) *GenerateEPGTask {
	task := NewTask(TaskTypeGenerateEPG, "")
	task.MaxRetries = 0
	return &GenerateEPGTask{
		Task:      task,
		generator: generator,
	}
}

func (t *GenerateEPGTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	run, err := t.generator.Generate(ctx)
	if err != nil {
		if errors.Is(err, epg.ErrRunActive) {
			slog.Debug("Task skipped, generation already running", "type", "GenerateEPG")
			return nil
		}
		if errors.Is(err, context.Canceled) {
			slog.Info("Task cancelled", "type", "GenerateEPG", "duration", t.GetDuration())
			return nil
		}
		slog.Error("Task failed", "type", "GenerateEPG", "error", err)
		return fmt.Errorf("failed to generate EPG: %w", err)
	}

	slog.Info("Task completed",
		"type", "GenerateEPG",
		"run_id", run.ID,
		"succeeded", run.Succeeded,
		"failed", run.Failed,
		"duration", t.GetDuration())

	return nil
}
