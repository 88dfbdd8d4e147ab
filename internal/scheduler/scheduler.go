// Package scheduler triggers periodic interest recomputation and monthly
// statements. The ledger itself never owns a timer.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/loan-ledger/internal/accrual"
	"github.com/Dan9191/loan-ledger/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Ledger is the part of the service the scheduler drives
type Ledger interface {
	RecomputeAll(ctx context.Context, referenceDate time.Time) []models.AccrualResult
	ListLoanViews(ctx context.Context, referenceDate time.Time) []models.LoanView
}

// StatementSender delivers the monthly statement
type StatementSender interface {
	SendStatement(freeze time.Time, views []models.LoanView) error
}

// Scheduler wraps a cron runner
type Scheduler struct {
	cron   *cron.Cron
	ledger Ledger
	sender StatementSender
	log    *logrus.Logger
	now    func() time.Time
}

// New creates a scheduler. sender may be nil to disable statements.
func New(ledger Ledger, sender StatementSender, log *logrus.Logger) *Scheduler {
	cronLog := cron.PrintfLogger(log)
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLog),
			cron.SkipIfStillRunning(cronLog),
		)),
		ledger: ledger,
		sender: sender,
		log:    log,
		now:    time.Now,
	}
}

// Schedule registers the recompute job and, when a sender is set, the statement job
func (s *Scheduler) Schedule(recomputeSpec, statementSpec string) error {
	if _, err := s.cron.AddFunc(recomputeSpec, s.Recompute); err != nil {
		return fmt.Errorf("failed to schedule recompute %q: %w", recomputeSpec, err)
	}
	s.log.Infof("Interest recompute scheduled: %s", recomputeSpec)

	if s.sender == nil {
		return nil
	}
	if _, err := s.cron.AddFunc(statementSpec, func() {
		if err := s.SendStatement(); err != nil {
			s.log.Errorf("Statement job failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule statement %q: %w", statementSpec, err)
	}
	s.log.Infof("Monthly statement scheduled: %s", statementSpec)
	return nil
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and returns a context done when running jobs finish
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Recompute re-derives interest due for every loan as of now
func (s *Scheduler) Recompute() {
	s.ledger.RecomputeAll(context.Background(), s.now())
}

// SendStatement mails interest due for every loan as of the current freeze date
func (s *Scheduler) SendStatement() error {
	if s.sender == nil {
		return nil
	}
	now := s.now()
	views := s.ledger.ListLoanViews(context.Background(), now)
	return s.sender.SendStatement(accrual.FreezeDate(now), views)
}
