package email

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/Dan9191/loan-ledger/internal/config"
	"github.com/Dan9191/loan-ledger/internal/models"
	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// BuildStatement formats the monthly interest statement body
func BuildStatement(freeze time.Time, views []models.LoanView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Interest statement as of %s\n\n", freeze.Format("2006-01-02"))

	if len(views) == 0 {
		b.WriteString("No loans are recorded.\n")
		return b.String()
	}

	total := decimal.Zero
	for _, v := range views {
		fmt.Fprintf(&b, "#%d %s: principal %s at %s%%, paid %s, interest due %s\n",
			v.LoanID, v.Borrower,
			v.Principal.StringFixed(2), v.AnnualRatePercent.String(),
			v.TotalPaid.StringFixed(2), v.InterestDue.StringFixed(2))
		total = total.Add(v.InterestDue)
	}
	fmt.Fprintf(&b, "\nTotal interest due: %s\n", total.StringFixed(2))
	return b.String()
}

// SendStatement e-mails the monthly interest statement to the lender
func (s *Sender) SendStatement(freeze time.Time, views []models.LoanView) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{s.cfg.LenderEmail}
	e.Subject = fmt.Sprintf("Interest statement for %s", freeze.Format("January 2006"))
	e.Text = []byte(BuildStatement(freeze, views))

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send statement to %s: %v", s.cfg.LenderEmail, err)
		return fmt.Errorf("failed to send statement: %w", err)
	}

	s.logger.Infof("Statement sent to %s: %s", s.cfg.LenderEmail, e.Subject)
	return nil
}
