package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Dan9191/loan-ledger/internal/models"
	"github.com/sirupsen/logrus/hooks/test"
)

type fakeLedger struct {
	mu         sync.Mutex
	recomputes []time.Time
	views      []models.LoanView
}

func (f *fakeLedger) RecomputeAll(ctx context.Context, referenceDate time.Time) []models.AccrualResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recomputes = append(f.recomputes, referenceDate)
	return nil
}

func (f *fakeLedger) ListLoanViews(ctx context.Context, referenceDate time.Time) []models.LoanView {
	return f.views
}

func (f *fakeLedger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.recomputes)
}

type fakeSender struct {
	freeze time.Time
	views  []models.LoanView
	err    error
}

func (f *fakeSender) SendStatement(freeze time.Time, views []models.LoanView) error {
	f.freeze = freeze
	f.views = views
	return f.err
}

func TestRecompute_UsesCurrentTime(t *testing.T) {
	logger, _ := test.NewNullLogger()
	ledger := &fakeLedger{}
	s := New(ledger, nil, logger)
	now := time.Date(2024, time.May, 17, 13, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Recompute()
	s.Recompute()

	if len(ledger.recomputes) != 2 {
		t.Fatalf("recomputes = %d, want 2", len(ledger.recomputes))
	}
	if !ledger.recomputes[0].Equal(now) {
		t.Errorf("reference date = %v, want %v", ledger.recomputes[0], now)
	}
}

func TestSchedule_InvalidSpec(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := New(&fakeLedger{}, &fakeSender{}, logger)

	if err := s.Schedule("not a spec", "0 8 1 * *"); err == nil {
		t.Error("expected error for invalid recompute spec")
	}
	if err := s.Schedule("@hourly", "bogus"); err == nil {
		t.Error("expected error for invalid statement spec")
	}
}

func TestSchedule_RunsRecompute(t *testing.T) {
	logger, _ := test.NewNullLogger()
	ledger := &fakeLedger{}
	s := New(ledger, nil, logger)

	if err := s.Schedule("@every 1s", ""); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	s.Start()
	defer func() { <-s.Stop().Done() }()

	deadline := time.Now().Add(5 * time.Second)
	for ledger.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("recompute job never ran")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestSendStatement(t *testing.T) {
	logger, _ := test.NewNullLogger()
	ledger := &fakeLedger{views: []models.LoanView{{LoanID: 1, Borrower: "Alice"}}}
	sender := &fakeSender{}
	s := New(ledger, sender, logger)
	s.now = func() time.Time { return time.Date(2024, time.May, 1, 8, 0, 0, 0, time.UTC) }

	if err := s.SendStatement(); err != nil {
		t.Fatalf("SendStatement() error = %v", err)
	}
	if !sender.freeze.Equal(time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("freeze = %v, want 2024-05-01", sender.freeze)
	}
	if len(sender.views) != 1 || sender.views[0].Borrower != "Alice" {
		t.Errorf("views = %+v", sender.views)
	}

	sender.err = errors.New("smtp down")
	if err := s.SendStatement(); err == nil {
		t.Error("expected sender error to propagate")
	}
}

func TestSendStatement_NoSender(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := New(&fakeLedger{}, nil, logger)
	if err := s.SendStatement(); err != nil {
		t.Errorf("SendStatement() error = %v, want nil", err)
	}
}
