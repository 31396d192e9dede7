package intake

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadforgehq/intake-platform/pkg/logging"
)

func TestHTTPProvisioner_SubmitIntake(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/onboarding/intake", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		w.Write([]byte(`{
			"success": true,
			"portalKey": "doe-roofing",
			"stripeProvisioning": {
				"status": "provisioned",
				"details": {"initialCheckoutUrl": "https://pay/abc", "initialCheckoutAmountCents": 40000}
			}
		}`))
	}))
	defer srv.Close()

	p := NewHTTPProvisioner(srv.URL, logging.New("error"))
	res, err := p.SubmitIntake(context.Background(), "tok-1", Submission{CompanyName: "Doe Roofing"})
	require.NoError(t, err)
	assert.Equal(t, "doe-roofing", res.PortalKey)
	assert.Equal(t, StripeProvisioned, res.StripeStatus)
	assert.Equal(t, "https://pay/abc", res.StripeCheckoutURL)
	assert.Equal(t, "Checkout link ready. First invoice: $400.00", res.StripeMessage)
}

func TestHTTPProvisioner_SubmitIntake_FailedProvisioning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"success": true,
			"portalKey": "doe-roofing",
			"stripeProvisioning": {"status": "failed", "error": "card setup rejected"}
		}`))
	}))
	defer srv.Close()

	p := NewHTTPProvisioner(srv.URL, logging.New("error"))
	res, err := p.SubmitIntake(context.Background(), "tok-1", Submission{})
	require.NoError(t, err)
	assert.Equal(t, StripeFailed, res.StripeStatus)
	assert.Equal(t, "card setup rejected", res.StripeMessage)
	assert.Empty(t, res.StripeCheckoutURL)
}

func TestHTTPProvisioner_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"success":false,"error":"rate limit exceeded"}`))
	}))
	defer srv.Close()

	p := NewHTTPProvisioner(srv.URL, logging.New("error"))
	_, err := p.SubmitIntake(context.Background(), "tok-1", Submission{})

	var ce *CollaboratorError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusTooManyRequests, ce.Status)
	assert.Equal(t, "rate limit exceeded", ce.Message)
}

func TestHTTPProvisioner_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewHTTPProvisioner(srv.URL, logging.New("error"))
	_, err := p.RegenerateCheckout(context.Background(), "tok-1", CheckoutRequest{})

	var ce *CollaboratorError
	require.ErrorAs(t, err, &ce)
	assert.GreaterOrEqual(t, ce.Status, 500)
}

func TestHTTPProvisioner_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{this is not json`))
	}))
	defer srv.Close()

	p := NewHTTPProvisioner(srv.URL, logging.New("error"))
	_, err := p.SubmitIntake(context.Background(), "tok-1", Submission{})
	require.ErrorIs(t, err, ErrSubmitFailed)
}

func TestHTTPProvisioner_TransportError(t *testing.T) {
	p := NewHTTPProvisioner("http://127.0.0.1:1", logging.New("error"))
	_, err := p.SubmitIntake(context.Background(), "tok-1", Submission{})
	require.ErrorIs(t, err, ErrSubmitFailed)

	var ce *CollaboratorError
	assert.False(t, errors.As(err, &ce), "transport failures are not collaborator errors")
}

func TestHTTPProvisioner_RegenerateCheckout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/onboarding/checkout", r.URL.Path)
		w.Write([]byte(`{"success":true,"initialCheckoutUrl":"https://pay/new","initialCheckoutAmountCents":40000}`))
	}))
	defer srv.Close()

	p := NewHTTPProvisioner(srv.URL, logging.New("error"))
	res, err := p.RegenerateCheckout(context.Background(), "tok-1", CheckoutRequest{
		CompanyName: "Doe Roofing", BillingEmail: "jane@co.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay/new", res.CheckoutURL)
	assert.Equal(t, 40000, res.AmountCents)
}

func TestHTTPProvisioner_RegenerateCheckout_MissingURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	p := NewHTTPProvisioner(srv.URL, logging.New("error"))
	_, err := p.RegenerateCheckout(context.Background(), "tok-1", CheckoutRequest{})

	var ce *CollaboratorError
	require.ErrorAs(t, err, &ce)
}
