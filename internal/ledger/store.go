// Package ledger holds the authoritative list of loans and payments.
package ledger

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Dan9191/loan-ledger/internal/accrual"
	"github.com/Dan9191/loan-ledger/internal/models"
)

// LoanRequest carries loan terms as entered by the caller
type LoanRequest struct {
	BorrowerName      string `json:"borrower_name"`
	Principal         Amount `json:"principal"`
	AnnualRatePercent Amount `json:"annual_rate_percent"`
	LoanDate          string `json:"loan_date"`
}

// Store is an in-memory, append-only ledger of loans and payments.
// It caches the last accrual result for every loan.
type Store struct {
	mu       sync.RWMutex
	loans    []models.Loan
	payments []models.Payment
	results  map[models.LoanID]models.AccrualResult
	now      func() time.Time
}

// Option configures a Store
type Option func(*Store)

// WithClock sets the clock used as the reference date for recomputation
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore initializes an empty ledger
func NewStore(opts ...Option) *Store {
	s := &Store{
		results: make(map[models.LoanID]models.AccrualResult),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddLoan validates req and appends a new loan.
// Nothing is stored when validation fails.
func (s *Store) AddLoan(req LoanRequest) (models.LoanID, error) {
	name := strings.TrimSpace(req.BorrowerName)
	if name == "" {
		return 0, invalid("borrowerName", "is required")
	}

	principal, err := parseAmount(string(req.Principal))
	if err != nil {
		return 0, invalid("principal", err.Error())
	}
	if !principal.IsPositive() {
		return 0, invalid("principal", "must be positive")
	}

	rate, err := parseAmount(string(req.AnnualRatePercent))
	if err != nil {
		return 0, invalid("annualInterestRatePercent", err.Error())
	}
	if rate.IsNegative() {
		return 0, invalid("annualInterestRatePercent", "must not be negative")
	}

	loanDate, err := ParseDate(req.LoanDate)
	if err != nil {
		return 0, invalid("loanDate", err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	loan := models.Loan{
		ID:                models.LoanID(len(s.loans) + 1),
		BorrowerName:      name,
		Principal:         principal,
		AnnualRatePercent: rate,
		LoanDate:          loanDate,
		CreatedAt:         now,
	}
	s.loans = append(s.loans, loan)
	s.results[loan.ID] = s.compute(loan, nil, now)

	return loan.ID, nil
}

// RecordPayment appends a payment against an existing loan and recomputes
// its interest due. A missing or malformed amount or date is ignored and
// reported as recorded == false with a nil error.
func (s *Store) RecordPayment(id models.LoanID, amount, date string) (recorded bool, err error) {
	value, err := parseAmount(amount)
	if err != nil || !value.IsPositive() {
		return false, nil
	}
	paymentDate, err := ParseDate(date)
	if err != nil {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loan, ok := s.loanLocked(id)
	if !ok {
		return false, fmt.Errorf("failed to record payment for loan %d: %w", id, ErrLoanNotFound)
	}

	now := s.now()
	s.payments = append(s.payments, models.Payment{
		ID:          int64(len(s.payments) + 1),
		LoanID:      id,
		Amount:      value,
		PaymentDate: paymentDate,
		CreatedAt:   now,
	})
	s.results[id] = s.compute(loan, s.paymentsForLocked(id), now)

	return true, nil
}

// Loan returns the loan with the given ID
func (s *Store) Loan(id models.LoanID) (models.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loan, ok := s.loanLocked(id)
	if !ok {
		return models.Loan{}, fmt.Errorf("loan %d: %w", id, ErrLoanNotFound)
	}
	return loan, nil
}

// Loans returns all loans in creation order
func (s *Store) Loans() []models.Loan {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Loan, len(s.loans))
	copy(out, s.loans)
	return out
}

// PaymentsFor returns the payments recorded against a loan in insertion order
func (s *Store) PaymentsFor(id models.LoanID) []models.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paymentsForLocked(id)
}

// Result returns the cached accrual result for a loan
func (s *Store) Result(id models.LoanID) (models.AccrualResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.results[id]
	return r, ok
}

// RecomputeAll re-derives interest due for every loan as of asOf and
// replaces the cached results. Calling it repeatedly is harmless.
func (s *Store) RecomputeAll(asOf time.Time) []models.AccrualResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.AccrualResult, 0, len(s.loans))
	for _, loan := range s.loans {
		r := s.compute(loan, s.paymentsForLocked(loan.ID), asOf)
		s.results[loan.ID] = r
		out = append(out, r)
	}
	return out
}

func (s *Store) compute(loan models.Loan, payments []models.Payment, asOf time.Time) models.AccrualResult {
	return models.AccrualResult{
		LoanID:        loan.ID,
		ReferenceDate: accrual.Date(asOf),
		FreezeDate:    accrual.FreezeDate(asOf),
		InterestDue:   accrual.ComputeInterestDue(loan, payments, asOf),
		ComputedAt:    s.now(),
	}
}

// loanLocked relies on IDs being 1-based positions in the append-only slice
func (s *Store) loanLocked(id models.LoanID) (models.Loan, bool) {
	if id < 1 || int(id) > len(s.loans) {
		return models.Loan{}, false
	}
	return s.loans[id-1], true
}

func (s *Store) paymentsForLocked(id models.LoanID) []models.Payment {
	var out []models.Payment
	for _, p := range s.payments {
		if p.LoanID == id {
			out = append(out, p)
		}
	}
	return out
}
