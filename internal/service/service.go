package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/loan-ledger/internal/accrual"
	"github.com/Dan9191/loan-ledger/internal/config"
	"github.com/Dan9191/loan-ledger/internal/ledger"
	"github.com/Dan9191/loan-ledger/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by Login for a wrong or unset password
var ErrInvalidCredentials = errors.New("invalid credentials")

// LenderSubject is the JWT subject issued to the lender
const LenderSubject = "lender"

// SnapshotWriter exports recomputed accrual results
type SnapshotWriter interface {
	SaveSnapshots(ctx context.Context, results []models.AccrualResult) error
}

// Service handles business logic
type Service struct {
	ledger    *ledger.Store
	snapshots SnapshotWriter
	log       *logrus.Logger
	config    *config.Config
}

// NewService initializes a new service. snapshots may be nil.
func NewService(store *ledger.Store, snapshots SnapshotWriter, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{ledger: store, snapshots: snapshots, log: log, config: cfg}
}

// Login checks the lender password and returns a JWT token
func (s *Service) Login(password string) (string, error) {
	if s.config.LenderPasswordHash == "" {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.config.LenderPasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   LenderSubject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Info("Lender logged in")
	return tokenString, nil
}

// CreateLoan validates and records a new loan
func (s *Service) CreateLoan(ctx context.Context, req ledger.LoanRequest) (models.LoanID, error) {
	id, err := s.ledger.AddLoan(req)
	if err != nil {
		s.log.Warnf("Loan rejected: %v", err)
		return 0, err
	}

	s.log.Infof("Loan %d created for %s", id, req.BorrowerName)
	return id, nil
}

// RecordPayment records a payment against a loan.
// Malformed amount or date is ignored without error.
func (s *Service) RecordPayment(ctx context.Context, id models.LoanID, amount, date string) error {
	recorded, err := s.ledger.RecordPayment(id, amount, date)
	if err != nil {
		s.log.Warnf("Payment rejected: %v", err)
		return err
	}

	fields := logrus.Fields{
		"loan_id": id,
		"amount":  amount,
		"date":    date,
	}
	if !recorded {
		s.log.WithFields(fields).Debug("Malformed payment ignored")
		return nil
	}
	s.log.WithFields(fields).Info("Payment processed")
	return nil
}

// GetLoanView returns the display projection of a loan as of referenceDate
func (s *Service) GetLoanView(ctx context.Context, id models.LoanID, referenceDate time.Time) (models.LoanView, error) {
	loan, err := s.ledger.Loan(id)
	if err != nil {
		return models.LoanView{}, err
	}
	return s.view(loan, referenceDate), nil
}

// ListLoanViews returns display projections of every loan in creation order
func (s *Service) ListLoanViews(ctx context.Context, referenceDate time.Time) []models.LoanView {
	loans := s.ledger.Loans()
	views := make([]models.LoanView, 0, len(loans))
	for _, loan := range loans {
		views = append(views, s.view(loan, referenceDate))
	}
	return views
}

// RecomputeAll refreshes interest due for every loan and exports the results.
// Export failures are logged and do not affect the ledger.
func (s *Service) RecomputeAll(ctx context.Context, referenceDate time.Time) []models.AccrualResult {
	results := s.ledger.RecomputeAll(referenceDate)
	s.log.Infof("Recomputed interest for %d loans as of %s", len(results), accrual.FreezeDate(referenceDate).Format(ledger.DateLayout))

	if s.snapshots != nil {
		if err := s.snapshots.SaveSnapshots(ctx, results); err != nil {
			s.log.Errorf("Failed to export accrual snapshots: %v", err)
		}
	}
	return results
}

func (s *Service) view(loan models.Loan, referenceDate time.Time) models.LoanView {
	payments := s.ledger.PaymentsFor(loan.ID)
	return models.LoanView{
		LoanID:            loan.ID,
		Borrower:          loan.BorrowerName,
		Principal:         loan.Principal,
		AnnualRatePercent: loan.AnnualRatePercent,
		LoanDate:          loan.LoanDate.Format(ledger.DateLayout),
		MonthlyInterest:   accrual.MonthlyInterest(loan.Principal, loan.AnnualRatePercent),
		InterestDue:       accrual.ComputeInterestDue(loan, payments, referenceDate),
		TotalPaid:         accrual.TotalPaid(payments),
		PaymentCount:      len(payments),
	}
}
