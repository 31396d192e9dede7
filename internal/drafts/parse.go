package drafts

import (
	"encoding/json"
	"time"

	"github.com/leadforgehq/intake-platform/internal/intake"
)

// ParseDraft decodes a persisted draft. Malformed data of any kind yields
// nil, never an error: a bad draft is treated as absent.
func ParseDraft(data []byte) *intake.Draft {
	if len(data) == 0 {
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	if _, ok := raw["form"]; !ok {
		return nil
	}
	var d intake.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil
	}
	return &d
}

// ParseSnapshot decodes a persisted submission snapshot with strict
// per-field type checking. A missing or mistyped required field means the
// whole record is treated as absent; a partially valid snapshot is never
// returned.
func ParseSnapshot(data []byte) *intake.Snapshot {
	if len(data) == 0 {
		return nil
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return nil
	}

	s := &intake.Snapshot{}
	var ok bool
	if s.PortalKey, ok = stringField(raw, "portalKey"); !ok {
		return nil
	}
	if s.StripeStatus, ok = stringField(raw, "stripeStatus"); !ok {
		return nil
	}
	if s.StripeMessage, ok = stringField(raw, "stripeMessage"); !ok {
		return nil
	}
	if s.StripeCheckoutURL, ok = optionalString(raw, "stripeCheckoutUrl"); !ok {
		return nil
	}
	if s.CompanyName, ok = optionalString(raw, "companyName"); !ok {
		return nil
	}
	if s.BillingEmail, ok = optionalString(raw, "billingEmail"); !ok {
		return nil
	}
	if s.BillingName, ok = optionalString(raw, "billingName"); !ok {
		return nil
	}
	if s.BillingModel, ok = optionalString(raw, "billingModel"); !ok {
		return nil
	}
	if s.LeadChargeThreshold, ok = optionalInt(raw, "leadChargeThreshold"); !ok {
		return nil
	}
	if s.LeadUnitPriceCents, ok = optionalInt(raw, "leadUnitPriceCents"); !ok {
		return nil
	}

	// savedAt rides along on best effort; a bad timestamp does not void the
	// record.
	var withTime struct {
		SavedAt time.Time `json:"savedAt"`
	}
	if json.Unmarshal(data, &withTime) == nil {
		s.SavedAt = withTime.SavedAt
	}
	return s
}

// stringField requires the key to exist and be a string.
func stringField(raw map[string]any, key string) (string, bool) {
	v, present := raw[key]
	if !present {
		return "", false
	}
	s, isString := v.(string)
	return s, isString
}

// optionalString allows the key to be absent but rejects a mistyped value.
func optionalString(raw map[string]any, key string) (string, bool) {
	v, present := raw[key]
	if !present || v == nil {
		return "", true
	}
	s, isString := v.(string)
	return s, isString
}

// optionalInt allows the key to be absent but rejects non-numeric values.
func optionalInt(raw map[string]any, key string) (int, bool) {
	v, present := raw[key]
	if !present || v == nil {
		return 0, true
	}
	f, isNumber := v.(float64)
	return int(f), isNumber
}
