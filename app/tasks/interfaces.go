package tasks

import (
	"context"

	"github.com/bittles/teamarr/app/database"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application to manage background task processing.
// Example usage:
//
//	scheduler := NewScheduler(configCache, teamRepo, generator)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewGenerateEPGTask(generator))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// EPGGeneratorInterface is the slice of the generation orchestrator the task
// layer needs.
type EPGGeneratorInterface interface {
	Generate(ctx context.Context) (*database.GenerationRun, error)
}
