package intake

import "strings"

// BillingModel selects how lead charges are billed.
type BillingModel string

const (
	BillingPayPerLeadPerpetual BillingModel = "pay_per_lead_perpetual"
	BillingCommitmentUpfront   BillingModel = "commitment_upfront"
	BillingPackagePaidFull     BillingModel = "package_paid_full"
)

// Valid reports whether m is one of the closed set of billing models.
func (m BillingModel) Valid() bool {
	switch m {
	case BillingPayPerLeadPerpetual, BillingCommitmentUpfront, BillingPackagePaidFull:
		return true
	}
	return false
}

const (
	// MinTargetZips is the minimum number of target ZIP codes required to
	// pass the targeting step.
	MinTargetZips = 5
	// MaxTargetZips is the hard cap, enforced at add time.
	MaxTargetZips = 10

	// DefaultChargeThreshold applies to every billing model except
	// pay-per-lead-perpetual, which forces the threshold to 1.
	DefaultChargeThreshold = 10
	// DefaultUnitPriceDollars is the starting per-lead price.
	DefaultUnitPriceDollars = 40
)

// Field keys used for field-scoped validation errors. They match the wire
// names the onboarding endpoints accept.
const (
	FieldFirstName         = "firstName"
	FieldLastName          = "lastName"
	FieldAccountLoginEmail = "accountLoginEmail"
	FieldCompanyName       = "companyName"
	FieldBusinessPhone     = "businessPhone"
	FieldBusinessAddress   = "businessAddress"
	FieldNotificationPhone = "notificationPhone"
	FieldNotificationEmail = "notificationEmail"
	FieldProspectEmail     = "prospectEmail"
	FieldRoutingContacts   = "routingContacts"
	FieldRoutingPhones     = "routingPhones"
	FieldRoutingEmails     = "routingEmails"
	FieldTargetZipCodes    = "targetZipCodes"
	FieldServiceAreas      = "serviceAreas"
	FieldDailyLeadVolume   = "dailyLeadVolume"
	FieldServiceTypes      = "serviceTypes"
	FieldOperatingHours    = "operatingHours"
	FieldBillingModel      = "billingModel"
	FieldChargeThreshold   = "leadChargeThreshold"
	FieldUnitPrice         = "leadUnitPrice"
	FieldNotes             = "notes"
)

// Form is the mutable aggregate for one onboarding session. Fields partition
// into the five wizard steps. Nothing outside the wizard mutates a Form.
type Form struct {
	// Step 0: account identity.
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	AccountLoginEmail string `json:"accountLoginEmail"`
	CompanyName       string `json:"companyName"`
	BusinessPhone     string `json:"businessPhone"`
	BusinessAddress   string `json:"businessAddress"`

	// Step 1: notification routing. Routing lists preserve insertion order
	// and never contain duplicates.
	NotificationPhone string   `json:"notificationPhone"`
	NotificationEmail string   `json:"notificationEmail"`
	ProspectEmail     string   `json:"prospectEmail"`
	RoutingPhones     []string `json:"routingPhones"`
	RoutingEmails     []string `json:"routingEmails"`

	// Step 2: targeting.
	TargetZipCodes []string `json:"targetZipCodes"`
	ServiceAreas   []string `json:"serviceAreas"`

	// Step 3: lead preferences.
	DailyLeadVolume      int          `json:"dailyLeadVolume"`
	ServiceTypes         []string     `json:"serviceTypes"`
	HoursOpen            string       `json:"hoursOpen"`
	HoursClose           string       `json:"hoursClose"`
	BillingModel         BillingModel `json:"billingModel"`
	LeadChargeThreshold  int          `json:"leadChargeThreshold"`
	LeadUnitPriceDollars int          `json:"leadUnitPriceDollars"`

	// Step 4: review / free-text notes.
	Notes string `json:"notes"`
}

// NewForm returns the initial form with billing defaults applied.
func NewForm() Form {
	return Form{
		DailyLeadVolume:      5,
		BillingModel:         BillingCommitmentUpfront,
		LeadChargeThreshold:  DefaultChargeThreshold,
		LeadUnitPriceDollars: DefaultUnitPriceDollars,
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

// addTargetZip enforces shape, the hard cap, and dedup. A duplicate add is a
// silent no-op; cap and shape violations return a field error message.
func (f *Form) addTargetZip(zip string) string {
	zip = strings.TrimSpace(zip)
	if !ValidZip(zip) {
		return "ZIP must be 5 digits"
	}
	if containsString(f.TargetZipCodes, zip) {
		return ""
	}
	if len(f.TargetZipCodes) >= MaxTargetZips {
		return "Maximum of 10 target ZIP codes"
	}
	f.TargetZipCodes = append(f.TargetZipCodes, zip)
	return ""
}

func (f *Form) removeTargetZip(zip string) {
	f.TargetZipCodes = removeString(f.TargetZipCodes, zip)
}

func (f *Form) addServiceArea(area string) string {
	area = strings.TrimSpace(area)
	if area == "" {
		return "Service area name is required"
	}
	if !containsString(f.ServiceAreas, area) {
		f.ServiceAreas = append(f.ServiceAreas, area)
	}
	return ""
}

func (f *Form) removeServiceArea(area string) {
	f.ServiceAreas = removeString(f.ServiceAreas, area)
}

func (f *Form) addRoutingPhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if !PlausiblePhone(phone) {
		return "Enter a phone number with at least 10 digits"
	}
	formatted := FormatPhone(phone)
	if !containsString(f.RoutingPhones, formatted) {
		f.RoutingPhones = append(f.RoutingPhones, formatted)
	}
	return ""
}

func (f *Form) removeRoutingPhone(phone string) {
	f.RoutingPhones = removeString(f.RoutingPhones, phone)
}

func (f *Form) addRoutingEmail(email string) string {
	email = strings.TrimSpace(email)
	if !ValidEmail(email) {
		return "Enter a valid email address"
	}
	if !containsString(f.RoutingEmails, email) {
		f.RoutingEmails = append(f.RoutingEmails, email)
	}
	return ""
}

func (f *Form) removeRoutingEmail(email string) {
	f.RoutingEmails = removeString(f.RoutingEmails, email)
}

func (f *Form) toggleServiceType(serviceType string) {
	serviceType = strings.TrimSpace(serviceType)
	if serviceType == "" {
		return
	}
	if containsString(f.ServiceTypes, serviceType) {
		f.ServiceTypes = removeString(f.ServiceTypes, serviceType)
		return
	}
	f.ServiceTypes = append(f.ServiceTypes, serviceType)
}

// setBillingModel applies the model/threshold coupling at selection time:
// pay-per-lead-perpetual forces the threshold to exactly 1, every other model
// resets it to the default of 10.
func (f *Form) setBillingModel(m BillingModel) string {
	if !m.Valid() {
		return "Choose a billing model"
	}
	f.BillingModel = m
	if m == BillingPayPerLeadPerpetual {
		f.LeadChargeThreshold = 1
	} else {
		f.LeadChargeThreshold = DefaultChargeThreshold
	}
	return ""
}

// setField merges a scalar field value into the form. Unknown keys report
// false so callers can reject them instead of silently dropping input.
func (f *Form) setField(key string, value any) bool {
	switch key {
	case FieldFirstName:
		f.FirstName, _ = value.(string)
	case FieldLastName:
		f.LastName, _ = value.(string)
	case FieldAccountLoginEmail:
		f.AccountLoginEmail, _ = value.(string)
	case FieldCompanyName:
		f.CompanyName, _ = value.(string)
	case FieldBusinessPhone:
		if s, ok := value.(string); ok {
			f.BusinessPhone = FormatPhone(s)
		}
	case FieldBusinessAddress:
		f.BusinessAddress, _ = value.(string)
	case FieldNotificationPhone:
		if s, ok := value.(string); ok {
			f.NotificationPhone = FormatPhone(s)
		}
	case FieldNotificationEmail:
		f.NotificationEmail, _ = value.(string)
	case FieldProspectEmail:
		f.ProspectEmail, _ = value.(string)
	case FieldDailyLeadVolume:
		if n, ok := asInt(value); ok {
			f.DailyLeadVolume = n
		}
	case FieldOperatingHours:
		// Hours are set as a pair via "open|close".
		if s, ok := value.(string); ok {
			open, close, found := strings.Cut(s, "|")
			if found {
				f.HoursOpen, f.HoursClose = open, close
			}
		}
	case FieldChargeThreshold:
		if n, ok := asInt(value); ok {
			f.LeadChargeThreshold = n
		}
	case FieldUnitPrice:
		if n, ok := asInt(value); ok {
			f.LeadUnitPriceDollars = n
		}
	case FieldNotes:
		f.Notes, _ = value.(string)
	default:
		return false
	}
	return true
}

func asInt(value any) (int, bool) {
	switch n := value.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// Clone returns a deep copy of the form so persisted drafts never alias the
// live slices.
func (f Form) Clone() Form {
	out := f
	out.RoutingPhones = append([]string(nil), f.RoutingPhones...)
	out.RoutingEmails = append([]string(nil), f.RoutingEmails...)
	out.TargetZipCodes = append([]string(nil), f.TargetZipCodes...)
	out.ServiceAreas = append([]string(nil), f.ServiceAreas...)
	out.ServiceTypes = append([]string(nil), f.ServiceTypes...)
	return out
}
