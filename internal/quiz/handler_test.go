package quiz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadforgehq/intake-platform/internal/notify"
	"github.com/leadforgehq/intake-platform/internal/verify"
	"github.com/leadforgehq/intake-platform/pkg/logging"
)

type countingSender struct {
	sent chan notify.EmailMessage
	err  error
}

func (c *countingSender) Send(_ context.Context, msg notify.EmailMessage) error {
	c.sent <- msg
	return c.err
}

const validLeadJSON = `{
	"businessName": "Doe Roofing",
	"contactName": "Jane Doe",
	"phone": "(512) 555-0147",
	"email": "jane@doeroofing.com",
	"answers": {"monthly_leads": "under_10", "has_website": "yes"}
}`

func postLead(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/quiz/submit", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Submit(rec, req)
	return rec
}

func TestSubmitLead_OK(t *testing.T) {
	store := NewInMemoryLeadStore()
	h := NewHandler(store, &scriptedVerifier{}, nil, nil, logging.New("error"))

	rec := postLead(h, validLeadJSON)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)

	leads := store.Leads()
	require.Len(t, leads, 1)
	assert.Equal(t, "Doe Roofing", leads[0].BusinessName)
}

func TestSubmitLead_NotificationIsFireAndForget(t *testing.T) {
	sender := &countingSender{sent: make(chan notify.EmailMessage, 1), err: assert.AnError}
	notifier := notify.NewService(sender, "team@leadforge.io", logging.New("error"))
	h := NewHandler(NewInMemoryLeadStore(), &scriptedVerifier{}, notifier, nil, logging.New("error"))

	rec := postLead(h, validLeadJSON)
	// The failing email never affects the response.
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case msg := <-sender.sent:
		assert.Contains(t, msg.Subject, "Doe Roofing")
	case <-time.After(2 * time.Second):
		t.Fatal("notification was never attempted")
	}
}

func TestSubmitLead_RejectsInvalid(t *testing.T) {
	h := NewHandler(NewInMemoryLeadStore(), &scriptedVerifier{}, nil, nil, logging.New("error"))

	cases := map[string]string{
		"malformed":    `{nope`,
		"no business":  `{"contactName":"Jane","phone":"5125550147","email":"jane@co.com"}`,
		"no contact":   `{"businessName":"Doe Roofing","phone":"5125550147","email":"jane@co.com"}`,
		"short phone":  `{"businessName":"Doe Roofing","contactName":"Jane","phone":"555","email":"jane@co.com"}`,
	}
	for name, body := range cases {
		rec := postLead(h, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "case %s", name)
	}
}

func TestSubmitLead_UnverifiableEmailRejected(t *testing.T) {
	verifier := &scriptedVerifier{results: map[string]*verify.EmailResult{
		"jane@doeroofing.com": {Valid: false, Reason: "mailbox_not_found"},
	}}
	h := NewHandler(NewInMemoryLeadStore(), verifier, nil, nil, logging.New("error"))

	rec := postLead(h, validLeadJSON)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitLead_VerifierDownFallsBackToSyntax(t *testing.T) {
	verifier := &scriptedVerifier{err: assert.AnError}
	h := NewHandler(NewInMemoryLeadStore(), verifier, nil, nil, logging.New("error"))

	rec := postLead(h, validLeadJSON)
	assert.Equal(t, http.StatusOK, rec.Code, "a down verifier must not lose the lead")
}

func TestScore(t *testing.T) {
	base := Score(Lead{})
	withAnswers := Score(Lead{Answers: map[string]string{"a": "x", "b": "y"}})
	assert.Greater(t, withAnswers, base)
	assert.LessOrEqual(t, Score(Lead{
		PlaceID: "pl", Website: "https://x",
		Answers: map[string]string{"a": "1", "b": "2", "c": "3", "d": "4", "e": "5", "f": "6", "g": "7"},
	}), 100)
}
