package services

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// overdueScanSpec fires every morning at 08:30
const overdueScanSpec = "30 8 * * *"

// CronService runs the daily overdue-loan scan
type CronService struct {
	loans  *LoanService
	cron   *cron.Cron
	logger *slog.Logger
}

// NewCronService creates a new cron service
func NewCronService(loans *LoanService) *CronService {
	return &CronService{
		loans:  loans,
		cron:   cron.New(),
		logger: slog.Default().With("component", "overdue_cron"),
	}
}

// Start schedules and launches the background jobs
func (s *CronService) Start() {
	if _, err := s.cron.AddFunc(overdueScanSpec, s.ScanOverdue); err != nil {
		log.Printf("❌ Failed to schedule overdue scan: %v", err)
		return
	}
	s.cron.Start()
	log.Println("✅ Overdue reminder cron started (daily 08:30)")
}

// Stop stops the scheduler, waiting for a running scan to finish
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("🛑 Overdue reminder cron stopped")
}

// ScanOverdue pages through overdue loans and logs a reminder for each.
// Notification delivery (mail, push) would hang off this scan.
func (s *CronService) ScanOverdue() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	const pageSize = 50

	for offset := 0; ; offset += pageSize {
		loans, err := s.loans.ListOverdue(ctx, offset, pageSize)
		if err != nil {
			s.logger.Error("overdue scan failed", "offset", offset, "error", err)
			return
		}

		for _, loan := range loans {
			s.logger.Warn("loan overdue",
				"loan_id", loan.ID,
				"user_id", loan.UserID,
				"copy_id", loan.CopyID,
				"due_to", loan.DueTo,
			)
		}

		if len(loans) < pageSize {
			return
		}
	}
}
