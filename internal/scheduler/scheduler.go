package scheduler

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Rodrigocheo/Logistica-Inversa/internal/config"
	"github.com/Rodrigocheo/Logistica-Inversa/internal/repository/ledger"
)

// Scheduler manages scheduled tasks. The only job today snapshots the ledger
// file into the backup directory, since every append rewrites it in place.
type Scheduler struct {
	cron   *cron.Cron
	ledger *ledger.Repository
	cfg    config.Backup
	logger *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.Backup, ledgerRepo *ledger.Repository, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cron:   cron.New(),
		ledger: ledgerRepo,
		cfg:    cfg,
		logger: logger,
	}
}

// Start schedules the backup job. An empty cron expression disables it.
func (s *Scheduler) Start() {
	if s.cfg.CronSchedule == "" {
		s.logger.Info("ledger backups disabled")
		return
	}

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.backupLedger); err != nil {
		s.logger.Error("failed to schedule ledger backup", zap.Error(err))
		return
	}

	s.logger.Info("ledger backups scheduled", zap.String("schedule", s.cfg.CronSchedule), zap.String("dir", s.cfg.Dir))
	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// BackupLedger copies the current ledger file into the backup directory under
// a timestamped name. Exported so an operator endpoint or test can trigger it
// outside the schedule.
func (s *Scheduler) BackupLedger() error {
	if !s.ledger.Exists() {
		s.logger.Debug("no ledger to back up yet")
		return nil
	}

	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	name := fmt.Sprintf("Registro_Escaneos_%s.xlsx", time.Now().Format("20060102_150405"))
	dst := filepath.Join(s.cfg.Dir, name)
	if err := copyFile(s.ledger.Path(), dst); err != nil {
		return fmt.Errorf("snapshot ledger: %w", err)
	}

	s.logger.Info("ledger backed up", zap.String("path", dst))
	return nil
}

func (s *Scheduler) backupLedger() {
	if err := s.BackupLedger(); err != nil {
		s.logger.Error("ledger backup failed", zap.Error(err))
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
