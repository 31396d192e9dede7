package intake

import "strings"

// Wizard step indexes.
const (
	StepIdentity = iota
	StepNotifications
	StepTargeting
	StepPreferences
	StepReview

	// FinalStep is the review step; advancing past it submits.
	FinalStep = StepReview
)

// FieldErrors maps a field key to a human-readable message. An empty set
// means the step may advance.
type FieldErrors map[string]string

// ValidateStep recomputes the full error set for one step. It is a pure
// function of the form: re-running it with unchanged data yields the same
// result, and the returned set fully replaces any prior errors for the step.
func ValidateStep(f *Form, step int) FieldErrors {
	errs := FieldErrors{}
	switch step {
	case StepIdentity:
		if strings.TrimSpace(f.FirstName) == "" {
			errs[FieldFirstName] = "First name is required"
		}
		if strings.TrimSpace(f.LastName) == "" {
			errs[FieldLastName] = "Last name is required"
		}
		if !ValidEmail(f.AccountLoginEmail) {
			errs[FieldAccountLoginEmail] = "Enter a valid login email"
		}
		if strings.TrimSpace(f.CompanyName) == "" {
			errs[FieldCompanyName] = "Company name is required"
		}
		if !PlausiblePhone(f.BusinessPhone) {
			errs[FieldBusinessPhone] = "Enter a phone number with at least 10 digits"
		}
		if strings.TrimSpace(f.BusinessAddress) == "" {
			errs[FieldBusinessAddress] = "Business address is required"
		}
	case StepNotifications:
		if !PlausiblePhone(f.NotificationPhone) {
			errs[FieldNotificationPhone] = "Enter a phone number with at least 10 digits"
		}
		if !ValidEmail(f.NotificationEmail) {
			errs[FieldNotificationEmail] = "Enter a valid notification email"
		}
		if !ValidEmail(f.ProspectEmail) {
			errs[FieldProspectEmail] = "Enter a valid prospect-facing email"
		}
		// The routing lists are an OR constraint: one phone or one email.
		if len(f.RoutingPhones) == 0 && len(f.RoutingEmails) == 0 {
			errs[FieldRoutingContacts] = "Add at least one routing phone or routing email"
		}
	case StepTargeting:
		if len(f.TargetZipCodes) < MinTargetZips {
			errs[FieldTargetZipCodes] = "Add at least 5 target ZIP codes"
		}
		if len(f.ServiceAreas) == 0 {
			errs[FieldServiceAreas] = "Add at least one service area"
		}
	case StepPreferences:
		validatePreferences(f, errs)
	case StepReview:
		// Submission re-checks the numeric billing constraints.
		validatePreferences(f, errs)
	}
	if len(errs) == 0 {
		return FieldErrors{}
	}
	return errs
}

func validatePreferences(f *Form, errs FieldErrors) {
	if len(f.ServiceTypes) == 0 {
		errs[FieldServiceTypes] = "Select at least one service type"
	}
	if strings.TrimSpace(f.HoursOpen) == "" || strings.TrimSpace(f.HoursClose) == "" {
		errs[FieldOperatingHours] = "Set both opening and closing hours"
	}
	if f.LeadChargeThreshold < 1 {
		errs[FieldChargeThreshold] = "Charge threshold must be at least 1"
	}
	if f.LeadUnitPriceDollars < 1 {
		errs[FieldUnitPrice] = "Lead price must be at least $1"
	}
}
