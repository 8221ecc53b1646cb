package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type sendGridEmailService struct {
	apiKey    string
	fromEmail string
	fromName  string
}

func NewSendGridEmailService(apiKey, fromEmail, fromName string) EmailService {
	return &sendGridEmailService{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *sendGridEmailService) SendLoanDecision(ctx context.Context, email, name, status, detail string) error {
	var subject, body string
	switch status {
	case "APPROVED":
		subject = "Your loan application has been approved"
		body = fmt.Sprintf("Hello %s,\n\nGood news! Your loan application has been approved.\nYour loan number is %s and the funds have been disbursed.\n\nThe LendHub Team", name, detail)
	case "REJECTED":
		subject = "Your loan application has been rejected"
		body = fmt.Sprintf("Hello %s,\n\nUnfortunately your loan application was not approved.\nReason: %s\n\nThe LendHub Team", name, detail)
	default:
		subject = "Your loan application has been cancelled"
		body = fmt.Sprintf("Hello %s,\n\nYour loan application has been cancelled.\n\nThe LendHub Team", name)
	}
	return s.send(email, name, subject, body)
}

func (s *sendGridEmailService) SendPaymentConfirmation(ctx context.Context, email, name, reference, amount string) error {
	subject := fmt.Sprintf("Payment %s confirmed", reference)
	body := fmt.Sprintf("Hello %s,\n\nYour payment %s of %s has been processed successfully.\n\nThe LendHub Team", name, reference, amount)
	return s.send(email, name, subject, body)
}

func (s *sendGridEmailService) SendPaymentReminder(ctx context.Context, email, name, amount string, dueDate time.Time) error {
	subject := "Upcoming payment reminder"
	body := fmt.Sprintf("Hello %s,\n\nThis is a reminder that a payment of %s is due on %s.\n\nThe LendHub Team", name, amount, dueDate.Format("2 January 2006"))
	return s.send(email, name, subject, body)
}

func (s *sendGridEmailService) send(to, toName, subject, plainText string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail(toName, to)
	message := mail.NewSingleEmail(from, subject, recipient, plainText, "")

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}
