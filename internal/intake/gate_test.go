package intake

import "testing"

func identityForm() Form {
	f := NewForm()
	f.FirstName = "Jane"
	f.LastName = "Doe"
	f.AccountLoginEmail = "jane@co.com"
	f.CompanyName = "Doe Roofing"
	f.BusinessPhone = "5551234567"
	f.BusinessAddress = "1 Main St"
	return f
}

func TestValidateStep_Identity(t *testing.T) {
	f := identityForm()
	if errs := ValidateStep(&f, StepIdentity); len(errs) != 0 {
		t.Fatalf("expected clean gate, got %v", errs)
	}

	// Login email without a domain TLD blocks the step.
	f.AccountLoginEmail = "jane@co"
	errs := ValidateStep(&f, StepIdentity)
	if _, ok := errs[FieldAccountLoginEmail]; !ok {
		t.Fatalf("expected accountLoginEmail error, got %v", errs)
	}
}

func TestValidateStep_Pure(t *testing.T) {
	f := identityForm()
	first := ValidateStep(&f, StepIdentity)
	second := ValidateStep(&f, StepIdentity)
	if len(first) != 0 || len(second) != 0 {
		t.Fatalf("gate must be pure: %v then %v", first, second)
	}
}

func TestValidateStep_RoutingOrConstraint(t *testing.T) {
	f := NewForm()
	f.NotificationPhone = "5551234567"
	f.NotificationEmail = "alerts@doe.com"
	f.ProspectEmail = "hello@doe.com"

	errs := ValidateStep(&f, StepNotifications)
	if _, ok := errs[FieldRoutingContacts]; !ok {
		t.Fatalf("expected routing contacts error with both lists empty, got %v", errs)
	}

	// One routing email alone satisfies the OR constraint.
	f.RoutingEmails = []string{"dispatch@doe.com"}
	if errs := ValidateStep(&f, StepNotifications); len(errs) != 0 {
		t.Fatalf("expected clean gate with one routing email, got %v", errs)
	}

	// So does one routing phone alone.
	f.RoutingEmails = nil
	f.RoutingPhones = []string{"(555) 123-4567"}
	if errs := ValidateStep(&f, StepNotifications); len(errs) != 0 {
		t.Fatalf("expected clean gate with one routing phone, got %v", errs)
	}
}

func TestValidateStep_TargetingMinimums(t *testing.T) {
	f := NewForm()
	for _, zip := range []string{"78701", "78702", "78703", "78704"} {
		if msg := f.addTargetZip(zip); msg != "" {
			t.Fatalf("unexpected error: %s", msg)
		}
	}
	f.addServiceArea("Austin")

	errs := ValidateStep(&f, StepTargeting)
	if errs[FieldTargetZipCodes] != "Add at least 5 target ZIP codes" {
		t.Fatalf("expected zip minimum error, got %v", errs)
	}

	f.addTargetZip("78705")
	if errs := ValidateStep(&f, StepTargeting); len(errs) != 0 {
		t.Fatalf("expected clean gate after 5th zip, got %v", errs)
	}
}

func TestValidateStep_PreferencesAndReview(t *testing.T) {
	f := NewForm()
	errs := ValidateStep(&f, StepPreferences)
	if _, ok := errs[FieldServiceTypes]; !ok {
		t.Errorf("expected service types error, got %v", errs)
	}
	if _, ok := errs[FieldOperatingHours]; !ok {
		t.Errorf("expected operating hours error, got %v", errs)
	}

	f.toggleServiceType("roof_repair")
	f.HoursOpen = "08:00"
	f.HoursClose = "18:00"
	f.LeadChargeThreshold = 0
	f.LeadUnitPriceDollars = 0

	// Review re-checks the numeric constraints.
	errs = ValidateStep(&f, StepReview)
	if _, ok := errs[FieldChargeThreshold]; !ok {
		t.Errorf("expected threshold error at review, got %v", errs)
	}
	if _, ok := errs[FieldUnitPrice]; !ok {
		t.Errorf("expected unit price error at review, got %v", errs)
	}

	f.LeadChargeThreshold = 1
	f.LeadUnitPriceDollars = 40
	if errs := ValidateStep(&f, StepReview); len(errs) != 0 {
		t.Fatalf("expected clean review gate, got %v", errs)
	}
}
