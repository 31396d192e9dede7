package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/leadforgehq/intake-platform/pkg/logging"
)

// IntakeNotification summarizes a completed client intake for the team.
type IntakeNotification struct {
	PortalKey    string
	CompanyName  string
	BillingEmail string
	BillingModel string
	StripeStatus string
	CheckoutURL  string
}

// QuizLeadNotification summarizes a completed marketing quiz.
type QuizLeadNotification struct {
	BusinessName string
	ContactName  string
	Email        string
	Phone        string
	Website      string
	City         string
	State        string
	Score        int
}

// Service sends internal notifications to the agency team. Every send is best
// effort: a notification failure never affects the caller's outcome.
type Service struct {
	email     EmailSender
	teamEmail string
	logger    *logging.Logger
	timeout   time.Duration
}

// NewService creates a notification service. email may be nil; sends then
// become no-ops.
func NewService(email EmailSender, teamEmail string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:     email,
		teamEmail: teamEmail,
		logger:    logger,
		timeout:   10 * time.Second,
	}
}

// IntakeSubmitted notifies the team of a new client intake. Fire and forget.
func (s *Service) IntakeSubmitted(n IntakeNotification) {
	subject := fmt.Sprintf("New client intake: %s", n.CompanyName)
	var b strings.Builder
	fmt.Fprintf(&b, "A new client completed onboarding.\n\n")
	fmt.Fprintf(&b, "Company: %s\n", n.CompanyName)
	fmt.Fprintf(&b, "Portal key: %s\n", n.PortalKey)
	fmt.Fprintf(&b, "Billing email: %s\n", n.BillingEmail)
	fmt.Fprintf(&b, "Billing model: %s\n", n.BillingModel)
	fmt.Fprintf(&b, "Stripe provisioning: %s\n", n.StripeStatus)
	if n.CheckoutURL != "" {
		fmt.Fprintf(&b, "Checkout link: %s\n", n.CheckoutURL)
	}
	s.sendAsync(subject, b.String())
}

// QuizLead notifies the team of a new marketing quiz lead. Fire and forget.
func (s *Service) QuizLead(n QuizLeadNotification) {
	subject := fmt.Sprintf("New quiz lead: %s", n.BusinessName)
	var b strings.Builder
	fmt.Fprintf(&b, "A prospect finished the marketing quiz.\n\n")
	fmt.Fprintf(&b, "Business: %s\n", n.BusinessName)
	fmt.Fprintf(&b, "Contact: %s\n", n.ContactName)
	fmt.Fprintf(&b, "Email: %s\n", n.Email)
	if n.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", n.Phone)
	}
	if n.Website != "" {
		fmt.Fprintf(&b, "Website: %s\n", n.Website)
	}
	if n.City != "" || n.State != "" {
		fmt.Fprintf(&b, "Location: %s, %s\n", n.City, n.State)
	}
	fmt.Fprintf(&b, "Score: %d\n", n.Score)
	s.sendAsync(subject, b.String())
}

// sendAsync dispatches in a goroutine so the HTTP response never waits on the
// email provider. Errors are logged and swallowed.
func (s *Service) sendAsync(subject, body string) {
	if s == nil || s.email == nil || s.teamEmail == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.email.Send(ctx, EmailMessage{
			To:      s.teamEmail,
			Subject: subject,
			Body:    body,
		}); err != nil {
			s.logger.Error("team notification failed", "subject", subject, "error", err)
		}
	}()
}
