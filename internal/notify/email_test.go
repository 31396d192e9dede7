package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadforgehq/intake-platform/pkg/logging"
)

func TestSendGridSender_UnconfiguredReportsErrorNotPanic(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{}, logging.New("error"))
	require.NotNil(t, sender, "an unconfigured sender must still be constructable")

	// Callers hold the sender behind the interface; a missing API key must
	// surface as an error from Send, never a nil dereference.
	var iface EmailSender = sender
	err := iface.Send(context.Background(), EmailMessage{
		To:      "team@leadforge.io",
		Subject: "New client intake: Doe Roofing",
		Body:    "body",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestService_UnconfiguredSendGridNeverFailsCaller(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{}, logging.New("error"))
	svc := NewService(sender, "team@leadforge.io", logging.New("error"))

	// Fire-and-forget: the send fails inside its goroutine and is logged,
	// and the submission path carries on.
	svc.IntakeSubmitted(IntakeNotification{CompanyName: "Doe Roofing", PortalKey: "doe-roofing"})
	svc.QuizLead(QuizLeadNotification{BusinessName: "Doe Roofing", Email: "jane@doeroofing.com"})
}

func TestStubEmailSender_Sends(t *testing.T) {
	sender := NewStubEmailSender(logging.New("error"))
	err := sender.Send(context.Background(), EmailMessage{To: "team@leadforge.io", Subject: "x", Body: "y"})
	require.NoError(t, err)
}
