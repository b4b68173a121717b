// Package email delivers best-effort SMTP notifications about committed
// card operations and request decisions. Send failures are logged and
// never propagate to the operation that triggered them.
package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/cardvault/card-service/internal/config"
	"github.com/cardvault/card-service/internal/models"
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

// OperationCommitted notifies the acting user about a committed ledger
// operation.
func (s *Sender) OperationCommitted(user *models.User, tx *models.Transaction) {
	var subject, action string
	switch tx.Type {
	case models.TransactionTransfer:
		subject = "Transfer Notification"
		action = fmt.Sprintf("A transfer of %s has been made between your cards.", tx.Amount.StringFixed(2))
	case models.TransactionDebit:
		subject = "Withdrawal Notification"
		action = fmt.Sprintf("An amount of %s has been withdrawn from your card.", tx.Amount.StringFixed(2))
	case models.TransactionCredit:
		subject = "Deposit Notification"
		action = fmt.Sprintf("Your card has been credited with %s.", tx.Amount.StringFixed(2))
	}

	body := fmt.Sprintf(
		"Dear %s,\n\n%s\nTransaction time: %s\n\nBest regards,\nCard Service",
		user.Username, action, time.Now().Format("2006-01-02 15:04:05"),
	)
	s.send(user.Email, subject, body)
}

// RequestDecided notifies the requesting user about an administrator's
// decision on a card request.
func (s *Sender) RequestDecided(user *models.User, req *models.CardRequest) {
	var what string
	switch req.Type {
	case models.RequestCreateCard:
		what = "card issuance"
	case models.RequestBlockCard:
		what = "card block"
	}

	subject := fmt.Sprintf("Card Request %s", req.Status)
	body := fmt.Sprintf(
		"Dear %s,\n\nYour %s request from %s has been %s.\n\nBest regards,\nCard Service",
		user.Username, what, req.CreatedAt.Format("2006-01-02"), req.Status,
	)
	s.send(user.Email, subject, body)
}

func (s *Sender) send(to, subject, body string) {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return
	}
	s.logger.Infof("Email sent to %s: %s", to, subject)
}
