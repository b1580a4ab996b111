package scheduler

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"estate_admin/config"
	"estate_admin/logging"
)

// Triggerable allows workers to be triggered manually
type Triggerable interface {
	Trigger()
}

// Scheduler fires background workers on their configured schedules.
type Scheduler struct {
	cfg  *config.Config
	cron *cron.Cron

	backupWorker  Triggerable
	listingWorker Triggerable

	stopOnce sync.Once
}

func New(cfg *config.Config) *Scheduler {
	return &Scheduler{
		cfg:  cfg,
		cron: cron.New(),
	}
}

// SetWorkers registers background workers for scheduled and manual triggering
func (s *Scheduler) SetWorkers(backup, watcher Triggerable) {
	s.backupWorker = backup
	s.listingWorker = watcher
}

func (s *Scheduler) Start() error {
	if s.cfg.Backup.Cron == "" {
		logging.Infof("No backup schedule configured, backups run only on demand")
		return nil
	}
	if s.backupWorker == nil {
		return fmt.Errorf("backup schedule %q set but no backup worker registered", s.cfg.Backup.Cron)
	}

	logging.Infof("Starting scheduler with backup cron: %s", s.cfg.Backup.Cron)
	_, err := s.cron.AddFunc(s.cfg.Backup.Cron, func() {
		logging.Debugf("Scheduled backup triggered")
		s.backupWorker.Trigger()
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		<-s.cron.Stop().Done()
	})
}

// TriggerBackup runs a backup now, outside the schedule. It reports false
// when there is no worker or nowhere for the backup to go.
func (s *Scheduler) TriggerBackup() bool {
	if s.backupWorker == nil || !s.cfg.Backup.Enabled() {
		return false
	}
	s.backupWorker.Trigger()
	logging.Infof("Backup worker triggered manually")
	return true
}

// TriggerRefresh makes the listing watcher poll now.
func (s *Scheduler) TriggerRefresh() bool {
	if s.listingWorker == nil {
		return false
	}
	s.listingWorker.Trigger()
	return true
}
