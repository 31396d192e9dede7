package onboarding

import (
	"errors"
	"strings"
	"time"

	"github.com/leadforgehq/intake-platform/internal/intake"
)

var (
	ErrNotFound     = errors.New("onboarding: submission not found")
	ErrInvalidForm  = errors.New("onboarding: submission failed validation")
	ErrMissingIdent = errors.New("onboarding: company name and billing email are required")
)

// Submission is the persisted record of one client intake.
type Submission struct {
	ID                  string    `json:"id"`
	PortalKey           string    `json:"portal_key"`
	CompanyName         string    `json:"company_name"`
	BillingEmail        string    `json:"billing_email"`
	BillingName         string    `json:"billing_name"`
	BillingModel        string    `json:"billing_model"`
	LeadChargeThreshold int       `json:"lead_charge_threshold"`
	LeadUnitPriceCents  int       `json:"lead_unit_price_cents"`
	Payload             []byte    `json:"-"`
	StripeStatus        string    `json:"stripe_status"`
	StripeCheckoutURL   string    `json:"stripe_checkout_url"`
	ActivationStatus    string    `json:"activation_status"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// StripeProvisioningDetails is the nested detail block in the submission
// response.
type StripeProvisioningDetails struct {
	StripeCustomerID           string `json:"stripeCustomerId,omitempty"`
	StripeSubscriptionID       string `json:"stripeSubscriptionId,omitempty"`
	StripeSubscriptionItemID   string `json:"stripeSubscriptionItemId,omitempty"`
	InitialCheckoutURL         string `json:"initialCheckoutUrl,omitempty"`
	InitialCheckoutAmountCents int    `json:"initialCheckoutAmountCents,omitempty"`
}

// StripeProvisioning reports the billing provisioning outcome.
type StripeProvisioning struct {
	Status  string                     `json:"status"`
	Error   string                     `json:"error,omitempty"`
	Reason  string                     `json:"reason,omitempty"`
	Details *StripeProvisioningDetails `json:"details,omitempty"`
}

// SubmitResponse is the wire response for an intake submission.
type SubmitResponse struct {
	Success            bool                `json:"success"`
	PortalKey          string              `json:"portalKey,omitempty"`
	StripeProvisioning *StripeProvisioning `json:"stripeProvisioning,omitempty"`
	Error              string              `json:"error,omitempty"`
}

// CheckoutResponse is the wire response for checkout regeneration.
type CheckoutResponse struct {
	Success                    bool   `json:"success"`
	InitialCheckoutURL         string `json:"initialCheckoutUrl,omitempty"`
	InitialCheckoutAmountCents int    `json:"initialCheckoutAmountCents,omitempty"`
	Error                      string `json:"error,omitempty"`
}

// ActivationResponse is the wire response for activation finalize.
type ActivationResponse struct {
	Success    bool   `json:"success"`
	Activation *struct {
		Status       string `json:"status"`
		Reason       string `json:"reason,omitempty"`
		InvitationID string `json:"invitationId,omitempty"`
	} `json:"activation,omitempty"`
	Error string `json:"error,omitempty"`
}

// PortalKey derives the slug identifier from a company name: lowercase,
// alphanumerics kept, runs of everything else collapsed to single hyphens.
func PortalKey(companyName string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(companyName)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// formFromSubmission reconstructs the wizard form so the server re-runs the
// same step gate the client used. Unit price arrives in cents on the wire.
func formFromSubmission(sub intake.Submission) intake.Form {
	return intake.Form{
		FirstName:            sub.FirstName,
		LastName:             sub.LastName,
		AccountLoginEmail:    sub.AccountLoginEmail,
		CompanyName:          sub.CompanyName,
		BusinessPhone:        sub.BusinessPhone,
		BusinessAddress:      sub.BusinessAddress,
		NotificationPhone:    sub.NotificationPhone,
		NotificationEmail:    sub.NotificationEmail,
		ProspectEmail:        sub.ProspectEmail,
		RoutingPhones:        sub.RoutingPhones,
		RoutingEmails:        sub.RoutingEmails,
		TargetZipCodes:       sub.TargetZipCodes,
		ServiceAreas:         sub.ServiceAreas,
		DailyLeadVolume:      sub.DailyLeadVolume,
		ServiceTypes:         sub.ServiceTypes,
		HoursOpen:            sub.HoursOpen,
		HoursClose:           sub.HoursClose,
		BillingModel:         intake.BillingModel(sub.BillingModel),
		LeadChargeThreshold:  sub.LeadChargeThreshold,
		LeadUnitPriceDollars: sub.LeadUnitPriceCents / 100,
		Notes:                sub.Notes,
	}
}

// validateSubmission runs every step gate against the reconstructed form and
// returns the merged error set.
func validateSubmission(sub intake.Submission) intake.FieldErrors {
	form := formFromSubmission(sub)
	merged := intake.FieldErrors{}
	for step := intake.StepIdentity; step <= intake.FinalStep; step++ {
		for field, msg := range intake.ValidateStep(&form, step) {
			merged[field] = msg
		}
	}
	return merged
}
