package intake

import (
	"context"
	"fmt"
	"time"
)

// StripeStatus reports the provisioning outcome attached to a submission.
const (
	StripeProvisioned = "provisioned"
	StripeFailed      = "failed"
	StripeSkipped     = "skipped"
)

// Draft is the persisted snapshot of in-progress edits. It survives a reload
// and is cleared on successful submission or explicit reset.
type Draft struct {
	SavedAt time.Time `json:"savedAt"`
	Step    int       `json:"step"`
	Form    Form      `json:"form"`
}

// Snapshot records the last successful submission (or checkout
// regeneration). It is read on mount to offer "resume" and cleared only by
// explicit user action.
type Snapshot struct {
	SavedAt             time.Time `json:"savedAt"`
	PortalKey           string    `json:"portalKey"`
	StripeStatus        string    `json:"stripeStatus"`
	StripeMessage       string    `json:"stripeMessage"`
	StripeCheckoutURL   string    `json:"stripeCheckoutUrl"`
	CompanyName         string    `json:"companyName"`
	BillingEmail        string    `json:"billingEmail"`
	BillingName         string    `json:"billingName"`
	BillingModel        string    `json:"billingModel"`
	LeadChargeThreshold int       `json:"leadChargeThreshold"`
	LeadUnitPriceCents  int       `json:"leadUnitPriceCents"`
}

// SubmissionResult is the in-memory provisioning outcome held by the wizard
// after a successful submit.
type SubmissionResult struct {
	PortalKey           string
	StripeStatus        string
	StripeMessage       string
	StripeCheckoutURL   string
	CheckoutAmountCents int
}

// Submission is the flattened form posted to the onboarding collaborator,
// with derived billing fields attached.
type Submission struct {
	FirstName         string   `json:"firstName"`
	LastName          string   `json:"lastName"`
	AccountLoginEmail string   `json:"accountLoginEmail"`
	CompanyName       string   `json:"companyName"`
	BusinessPhone     string   `json:"businessPhone"`
	BusinessAddress   string   `json:"businessAddress"`
	NotificationPhone string   `json:"notificationPhone"`
	NotificationEmail string   `json:"notificationEmail"`
	ProspectEmail     string   `json:"prospectEmail"`
	RoutingPhones     []string `json:"routingPhones"`
	RoutingEmails     []string `json:"routingEmails"`
	TargetZipCodes    []string `json:"targetZipCodes"`
	ServiceAreas      []string `json:"serviceAreas"`
	DailyLeadVolume   int      `json:"dailyLeadVolume"`
	ServiceTypes      []string `json:"serviceTypes"`
	HoursOpen         string   `json:"hoursOpen"`
	HoursClose        string   `json:"hoursClose"`
	BillingModel      string   `json:"billingModel"`
	Notes             string   `json:"notes,omitempty"`

	// Derived billing fields.
	BillingContactName  string `json:"billingContactName"`
	BillingContactEmail string `json:"billingContactEmail"`
	LeadChargeThreshold int    `json:"leadChargeThreshold"`
	LeadUnitPriceCents  int    `json:"leadUnitPriceCents"`
}

// BuildSubmission flattens the form for the onboarding collaborator. The
// billing contact is derived from the account identity and the unit price is
// converted from dollars to cents.
func BuildSubmission(f *Form) Submission {
	c := f.Clone()
	return Submission{
		FirstName:         c.FirstName,
		LastName:          c.LastName,
		AccountLoginEmail: c.AccountLoginEmail,
		CompanyName:       c.CompanyName,
		BusinessPhone:     c.BusinessPhone,
		BusinessAddress:   c.BusinessAddress,
		NotificationPhone: c.NotificationPhone,
		NotificationEmail: c.NotificationEmail,
		ProspectEmail:     c.ProspectEmail,
		RoutingPhones:     c.RoutingPhones,
		RoutingEmails:     c.RoutingEmails,
		TargetZipCodes:    c.TargetZipCodes,
		ServiceAreas:      c.ServiceAreas,
		DailyLeadVolume:   c.DailyLeadVolume,
		ServiceTypes:      c.ServiceTypes,
		HoursOpen:         c.HoursOpen,
		HoursClose:        c.HoursClose,
		BillingModel:      string(c.BillingModel),
		Notes:             c.Notes,

		BillingContactName:  joinName(c.FirstName, c.LastName),
		BillingContactEmail: c.AccountLoginEmail,
		LeadChargeThreshold: c.LeadChargeThreshold,
		LeadUnitPriceCents:  c.LeadUnitPriceDollars * 100,
	}
}

func joinName(first, last string) string {
	switch {
	case first == "" && last == "":
		return ""
	case first == "":
		return last
	case last == "":
		return first
	}
	return first + " " + last
}

// CheckoutMessage renders the user-facing provisioning message, including
// the first invoice amount in dollars when known.
func CheckoutMessage(amountCents int) string {
	if amountCents <= 0 {
		return "Checkout link ready"
	}
	return fmt.Sprintf("Checkout link ready. First invoice: $%.2f", float64(amountCents)/100)
}

// CheckoutRequest is what the checkout regeneration collaborator accepts.
type CheckoutRequest struct {
	PortalKey           string `json:"portalKey"`
	CompanyName         string `json:"companyName"`
	BillingEmail        string `json:"billingEmail"`
	BillingName         string `json:"billingName,omitempty"`
	BillingModel        string `json:"billingModel"`
	LeadChargeThreshold int    `json:"leadChargeThreshold"`
	LeadUnitPriceCents  int    `json:"leadUnitPriceCents"`
}

// CheckoutResult is the regeneration outcome.
type CheckoutResult struct {
	CheckoutURL string
	AmountCents int
}

// Provisioner is the onboarding collaborator reached over JSON/HTTPS (or in
// process for the hosted service). Implementations map 429 and 5xx responses
// to ErrRateLimited and ErrServer.
type Provisioner interface {
	SubmitIntake(ctx context.Context, token string, sub Submission) (*SubmissionResult, error)
	RegenerateCheckout(ctx context.Context, token string, req CheckoutRequest) (*CheckoutResult, error)
}

// DraftStore persists in-progress edits. Save and Clear are best-effort;
// Load returns nil on any missing, malformed, or unreadable record.
type DraftStore interface {
	Save(ctx context.Context, d *Draft)
	Load(ctx context.Context) *Draft
	Clear(ctx context.Context)
}

// SnapshotStore persists the last successful submission with strict
// read-back validation.
type SnapshotStore interface {
	Save(ctx context.Context, s *Snapshot)
	Load(ctx context.Context) *Snapshot
	Clear(ctx context.Context)
}

// WriteScheduler coalesces draft writes: a single-slot timer with
// cancel-on-next-write semantics.
type WriteScheduler interface {
	Schedule(write func())
	FlushNow()
	Stop()
}
