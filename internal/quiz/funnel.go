// Package quiz implements the marketing quiz funnel: a linear sequence of
// gated steps (business lookup, contact details, email verification) ending
// in a submission with a best-effort team notification.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/leadforgehq/intake-platform/internal/intake"
	"github.com/leadforgehq/intake-platform/internal/verify"
	"github.com/leadforgehq/intake-platform/pkg/logging"
)

// Funnel steps, in order.
const (
	StepBusiness = iota
	StepContact
	StepEmail
	StepDone
)

// Email verification states.
const (
	EmailUnverified = "unverified"
	EmailVerified   = "verified"
	EmailRejected   = "rejected"
	EmailSuggested  = "suggested"
)

var (
	ErrNotSubmittable = errors.New("quiz: funnel is not ready to submit")
	ErrAlreadyDone    = errors.New("quiz: funnel already submitted")
	ErrNoSuggestion   = errors.New("quiz: no suggestion to accept")
)

// Lead is the completed funnel payload.
type Lead struct {
	BusinessName string            `json:"businessName"`
	PlaceID      string            `json:"placeId,omitempty"`
	Website      string            `json:"website,omitempty"`
	City         string            `json:"city,omitempty"`
	State        string            `json:"state,omitempty"`
	ContactName  string            `json:"contactName"`
	Phone        string            `json:"phone"`
	Email        string            `json:"email"`
	Answers      map[string]string `json:"answers,omitempty"`
}

// Submitter receives a completed lead, e.g. the analysis collaborator or the
// hosted quiz handler's store.
type Submitter interface {
	SubmitLead(ctx context.Context, lead Lead) error
}

// Funnel is the linear quiz state machine. Unlike the intake wizard there is
// no draft persistence: abandoning the quiz loses the answers.
type Funnel struct {
	step        int
	submitted   bool
	lead        Lead
	emailState  string
	suggestion  string
	fieldErrors map[string]string

	verifier  verify.EmailVerifier
	places    verify.PlacesLookup
	submitter Submitter
	logger    *logging.Logger
}

// NewFunnel creates a funnel at the business step.
func NewFunnel(verifier verify.EmailVerifier, places verify.PlacesLookup, submitter Submitter, logger *logging.Logger) *Funnel {
	if logger == nil {
		logger = logging.Default()
	}
	return &Funnel{
		step:        StepBusiness,
		emailState:  EmailUnverified,
		fieldErrors: map[string]string{},
		verifier:    verifier,
		places:      places,
		submitter:   submitter,
		logger:      logger,
	}
}

// Step returns the current step index.
func (f *Funnel) Step() int { return f.step }

// Submitted reports whether the funnel reached the terminal state.
func (f *Funnel) Submitted() bool { return f.submitted }

// EmailState returns the verification state of the current email.
func (f *Funnel) EmailState() string { return f.emailState }

// Suggestion returns the pending typo correction, if any.
func (f *Funnel) Suggestion() string { return f.suggestion }

// Lead returns a copy of the collected answers.
func (f *Funnel) Lead() Lead {
	cp := f.lead
	if f.lead.Answers != nil {
		cp.Answers = make(map[string]string, len(f.lead.Answers))
		for k, v := range f.lead.Answers {
			cp.Answers[k] = v
		}
	}
	return cp
}

// Errors returns a copy of the current field errors.
func (f *Funnel) Errors() map[string]string {
	out := make(map[string]string, len(f.fieldErrors))
	for k, v := range f.fieldErrors {
		out[k] = v
	}
	return out
}

// SelectBusiness resolves a place ID and fills the business fields.
func (f *Funnel) SelectBusiness(ctx context.Context, placeID string) error {
	if f.places == nil {
		return fmt.Errorf("quiz: business lookup not configured")
	}
	details, err := f.places.Details(ctx, placeID)
	if err != nil {
		return err
	}
	f.lead.PlaceID = details.PlaceID
	f.lead.BusinessName = details.Name
	f.lead.City = details.City
	f.lead.State = details.State
	delete(f.fieldErrors, "businessName")
	return nil
}

// SetBusinessName fills the business name manually, for prospects the lookup
// cannot find.
func (f *Funnel) SetBusinessName(name string) {
	f.lead.PlaceID = ""
	f.lead.BusinessName = strings.TrimSpace(name)
	if f.lead.BusinessName != "" {
		delete(f.fieldErrors, "businessName")
	}
}

// SetWebsite records the prospect's website.
func (f *Funnel) SetWebsite(site string) {
	f.lead.Website = strings.TrimSpace(site)
}

// SetContact fills the contact step.
func (f *Funnel) SetContact(name, phone string) {
	f.lead.ContactName = strings.TrimSpace(name)
	f.lead.Phone = intake.FormatPhone(phone)
	if f.lead.ContactName != "" {
		delete(f.fieldErrors, "contactName")
	}
	if intake.PlausiblePhone(f.lead.Phone) {
		delete(f.fieldErrors, "phone")
	}
}

// SetAnswer records one quiz answer.
func (f *Funnel) SetAnswer(key, value string) {
	if f.lead.Answers == nil {
		f.lead.Answers = map[string]string{}
	}
	f.lead.Answers[key] = value
}

// SetEmail records the email and resets any prior verification: a changed
// address must be re-verified before the funnel can advance.
func (f *Funnel) SetEmail(email string) {
	email = strings.TrimSpace(email)
	if email == f.lead.Email {
		return
	}
	f.lead.Email = email
	f.emailState = EmailUnverified
	f.suggestion = ""
	delete(f.fieldErrors, "email")
}

// VerifyEmail runs the deliverability check on the current address. A typo
// suggestion parks the funnel in the suggested state until the prospect
// accepts or rejects it.
func (f *Funnel) VerifyEmail(ctx context.Context) error {
	if f.verifier == nil {
		f.emailState = EmailVerified
		return nil
	}
	result, err := f.verifier.VerifyEmail(ctx, f.lead.Email)
	if err != nil {
		return err
	}
	switch {
	case result.Valid:
		f.emailState = EmailVerified
		f.suggestion = ""
		delete(f.fieldErrors, "email")
	case result.Suggestion != "":
		f.emailState = EmailSuggested
		f.suggestion = result.Suggestion
		f.fieldErrors["email"] = fmt.Sprintf("Did you mean %s?", result.Suggestion)
	default:
		f.emailState = EmailRejected
		f.suggestion = ""
		msg := "This email address could not be verified"
		if result.Reason != "" {
			msg = fmt.Sprintf("This email address could not be verified (%s)", result.Reason)
		}
		f.fieldErrors["email"] = msg
	}
	return nil
}

// AcceptSuggestion swaps in the suggested correction and re-verifies it.
func (f *Funnel) AcceptSuggestion(ctx context.Context) error {
	if f.suggestion == "" {
		return ErrNoSuggestion
	}
	f.SetEmail(f.suggestion)
	return f.VerifyEmail(ctx)
}

// Advance validates the current step and moves forward. The email step only
// passes with a verified address.
func (f *Funnel) Advance() bool {
	if f.submitted {
		return false
	}
	errs := f.validateStep(f.step)
	f.fieldErrors = errs
	if len(errs) > 0 {
		return false
	}
	if f.step < StepDone {
		f.step++
	}
	return true
}

// Retreat moves one step back without validating.
func (f *Funnel) Retreat() {
	if f.step > StepBusiness {
		f.step--
	}
	f.fieldErrors = map[string]string{}
}

// Submit delivers the lead. All steps must have passed their gates.
func (f *Funnel) Submit(ctx context.Context) error {
	if f.submitted {
		return ErrAlreadyDone
	}
	for step := StepBusiness; step <= StepEmail; step++ {
		if errs := f.validateStep(step); len(errs) > 0 {
			f.fieldErrors = errs
			return ErrNotSubmittable
		}
	}
	if f.submitter != nil {
		if err := f.submitter.SubmitLead(ctx, f.Lead()); err != nil {
			return err
		}
	}
	f.submitted = true
	f.step = StepDone
	return nil
}

func (f *Funnel) validateStep(step int) map[string]string {
	errs := map[string]string{}
	switch step {
	case StepBusiness:
		if f.lead.BusinessName == "" {
			errs["businessName"] = "Select or enter your business"
		}
	case StepContact:
		if f.lead.ContactName == "" {
			errs["contactName"] = "Your name is required"
		}
		if !intake.PlausiblePhone(f.lead.Phone) {
			errs["phone"] = "Enter a phone number with at least 10 digits"
		}
	case StepEmail:
		if f.emailState != EmailVerified {
			if _, ok := f.fieldErrors["email"]; ok {
				errs["email"] = f.fieldErrors["email"]
			} else {
				errs["email"] = "Verify your email to continue"
			}
		}
	}
	return errs
}
