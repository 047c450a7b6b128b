package service

import (
	"time"

	"github.com/carolus/cryptoannapi/pkg/utils/zaplogger"
	"github.com/robfig/cron/v3"
)

// CronService owns the background jobs, currently just the expired
// session sweep.
type CronService struct {
	c        *cron.Cron
	registry *SessionRegistry
}

// NewCronService creates a new CronService
func NewCronService(registry *SessionRegistry) *CronService {
	return &CronService{
		c:        cron.New(),
		registry: registry,
	}
}

// Start starts the cron service
func (cs *CronService) Start() {
	zaplogger.Info("Initializing CronService")

	cs.addScheduledJob("Expired Sessions SWEEP Job", cs.expiredSessionsSweepJob, "* * * * *") // Every minute
	cs.addStartupJob("Expired Sessions SWEEP Job", cs.expiredSessionsSweepJob, 10*time.Second)

	cs.c.Start()
}

// Stop stops the scheduler; running jobs finish on their own.
func (cs *CronService) Stop() {
	cs.c.Stop()
}

// addStartupJob adds a startup job to the cron service
func (cs *CronService) addStartupJob(name string, job func(), delay time.Duration) {
	go func() {
		time.Sleep(delay)
		zaplogger.Info("STARTED STARTUP job", zaplogger.Fields{
			"job": name,
		})
		job()
		zaplogger.Info("COMPLETED STARTUP job", zaplogger.Fields{
			"job": name,
		})
	}()
	zaplogger.Info("QUEUED STARTUP job", zaplogger.Fields{
		"job": name,
	})
}

// addScheduledJob adds a scheduled job to the cron service
func (cs *CronService) addScheduledJob(name string, job func(), schedule string) {
	_, err := cs.c.AddFunc(schedule, func() {
		job()
	})
	if err != nil {
		zaplogger.Error("FAILED TO QUEUE SCHEDULED JOB", zaplogger.Fields{
			"job":   name,
			"error": err.Error(),
		})
		return
	}
	zaplogger.Info("QUEUED SCHEDULED job", zaplogger.Fields{
		"job": name,
	})
}

// expiredSessionsSweepJob removes every session whose expiry has passed
func (cs *CronService) expiredSessionsSweepJob() {
	removed := cs.registry.SweepExpired()
	if removed > 0 {
		zaplogger.Info("swept expired sessions", zaplogger.Fields{
			"removed": removed,
		})
	}
}
