package updater

import (
	"context"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"m3u-curator/logger"
)

const defaultSchedule = "0 0 * * *"

// Job is one scheduled unit of work, typically a pipeline run.
type Job func(ctx context.Context) error

type Updater struct {
	sync.Mutex
	job    Job
	logger logger.Logger
	Cron   *cron.Cron
}

// Initialize schedules job on cronSched and, when onBoot is set, starts one
// run right away. Runs never overlap: a tick that fires while a run is in
// progress is skipped.
func Initialize(ctx context.Context, cronSched string, onBoot bool, job Job, log logger.Logger) (*Updater, error) {
	if log == nil {
		log = logger.Default
	}

	if len(strings.TrimSpace(cronSched)) == 0 {
		log.Log("SYNC_CRON not initialized. Defaulting to 0 0 * * * (12am every day).")
		cronSched = defaultSchedule
	}

	updateInstance := &Updater{
		job:    job,
		logger: log,
	}

	c := cron.New()
	_, err := c.AddFunc(cronSched, func() {
		go updateInstance.Run(ctx)
	})
	if err != nil {
		log.Errorf("Error initializing background processes: %v", err)
		return nil, err
	}
	c.Start()
	updateInstance.Cron = c

	if onBoot {
		log.Log("SYNC_ON_BOOT enabled. Starting initial curation run.")
		go updateInstance.Run(ctx)
	}

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()

	return updateInstance, nil
}

// Run executes the job unless another run holds the lock. It reports whether
// the job ran.
func (instance *Updater) Run(ctx context.Context) bool {
	if !instance.TryLock() {
		instance.logger.Warn("Background process: previous run still in progress, skipping.")
		return false
	}
	defer instance.Unlock()

	select {
	case <-ctx.Done():
		return false
	default:
	}

	instance.logger.Log("Background process: Starting curation run...")
	if err := instance.job(ctx); err != nil {
		instance.logger.Errorf("Background process: Run failed: %v", err)
		return true
	}
	instance.logger.Log("Background process: Curation run complete.")
	return true
}
