package queue

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/avatarstudio/avatarstudio/internal/config"
)

// Scheduler enqueues periodic tasks. Only one scheduler should run per
// redis instance.
type Scheduler struct {
	scheduler *asynq.Scheduler
	logger    *slog.Logger
}

// PeriodicTask is a cron-scheduled task registered with the scheduler.
type PeriodicTask struct {
	Cronspec string
	TaskType string
	Opts     []asynq.Option
}

func PeriodicTasks() []PeriodicTask {
	return []PeriodicTask{
		{
			Cronspec: config.GENERATION_SWEEP_CRONSPEC,
			TaskType: config.TASK_GENERATION_EXPIRE,
			// a sweep that misses its slot is replaced by the next one
			Opts: []asynq.Option{asynq.MaxRetry(0), asynq.Timeout(50 * time.Second), asynq.Unique(time.Minute)},
		},
	}
}

func NewScheduler(logger *slog.Logger) (*Scheduler, error) {
	s := asynq.NewScheduler(RedisClientOpt(), &asynq.SchedulerOpts{
		Location: time.UTC,
		Logger:   newAsynqLogger(logger),
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				logger.Warn("periodic enqueue failed", slog.String("err", err.Error()))
				return
			}
			logger.Debug("periodic task enqueued", slog.String("type", info.Type), slog.String("task_id", info.ID))
		},
	})

	for _, pt := range PeriodicTasks() {
		id, err := s.Register(pt.Cronspec, asynq.NewTask(pt.TaskType, nil, pt.Opts...))
		if err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", pt.TaskType, err)
		}
		logger.Info("registered periodic task",
			slog.String("type", pt.TaskType),
			slog.String("cronspec", pt.Cronspec),
			slog.String("entry_id", id))
	}

	return &Scheduler{scheduler: s, logger: logger}, nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Start()
}

func (s *Scheduler) Stop() {
	s.scheduler.Shutdown()
}
