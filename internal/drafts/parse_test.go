package drafts

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadforgehq/intake-platform/internal/intake"
)

func TestParseDraft_RoundTrip(t *testing.T) {
	form := intake.NewForm()
	form.CompanyName = "Doe Roofing"
	form.TargetZipCodes = []string{"78701", "78702"}
	in := &intake.Draft{SavedAt: time.Now().UTC().Truncate(time.Second), Step: 2, Form: form}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	out := ParseDraft(data)
	require.NotNil(t, out)
	assert.Equal(t, in.Step, out.Step)
	assert.Equal(t, in.Form.CompanyName, out.Form.CompanyName)
	assert.Equal(t, in.Form.TargetZipCodes, out.Form.TargetZipCodes)
	assert.Equal(t, in.Form.LeadChargeThreshold, out.Form.LeadChargeThreshold)
}

func TestParseDraft_Malformed(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty":      nil,
		"not json":   []byte("{nope"),
		"wrong type": []byte(`"a string"`),
		"no form":    []byte(`{"step": 1}`),
		"bad step":   []byte(`{"step": "one", "form": {}}`),
	} {
		assert.Nil(t, ParseDraft(data), "case %s", name)
	}
}

func TestParseSnapshot_RoundTrip(t *testing.T) {
	in := &intake.Snapshot{
		SavedAt:             time.Now().UTC().Truncate(time.Second),
		PortalKey:           "doe-roofing",
		StripeStatus:        intake.StripeProvisioned,
		StripeMessage:       "Checkout link ready",
		StripeCheckoutURL:   "https://pay/abc",
		CompanyName:         "Doe Roofing",
		BillingEmail:        "jane@co.com",
		BillingName:         "Jane Doe",
		BillingModel:        "commitment_upfront",
		LeadChargeThreshold: 10,
		LeadUnitPriceCents:  4000,
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	out := ParseSnapshot(data)
	require.NotNil(t, out)
	assert.Equal(t, in, out)
}

func TestParseSnapshot_Defensive(t *testing.T) {
	for name, data := range map[string][]byte{
		"nil":                  nil,
		"null":                 []byte("null"),
		"empty object":         []byte("{}"),
		"not json":             []byte("{oops"),
		"missing stripeStatus": []byte(`{"portalKey":"k","stripeMessage":"m"}`),
		"missing stripeMessage": []byte(
			`{"portalKey":"k","stripeStatus":"provisioned"}`),
		"mistyped portalKey": []byte(
			`{"portalKey":7,"stripeStatus":"provisioned","stripeMessage":"m"}`),
		"mistyped threshold": []byte(
			`{"portalKey":"k","stripeStatus":"provisioned","stripeMessage":"m","leadChargeThreshold":"ten"}`),
	} {
		assert.Nil(t, ParseSnapshot(data), "case %s", name)
	}
}

func TestParseSnapshot_OptionalFieldsAbsent(t *testing.T) {
	out := ParseSnapshot([]byte(`{"portalKey":"k","stripeStatus":"failed","stripeMessage":"card declined"}`))
	require.NotNil(t, out)
	assert.Equal(t, "k", out.PortalKey)
	assert.Equal(t, "card declined", out.StripeMessage)
	assert.Empty(t, out.StripeCheckoutURL)
	assert.Zero(t, out.LeadChargeThreshold)
}

func TestParseSnapshot_BadSavedAtTolerated(t *testing.T) {
	out := ParseSnapshot([]byte(`{"portalKey":"k","stripeStatus":"provisioned","stripeMessage":"m","savedAt":"yesterday"}`))
	require.NotNil(t, out)
	assert.True(t, out.SavedAt.IsZero())
}
