package intake

import "errors"

var (
	// ErrSessionExpired is returned when a guarded call is attempted without a
	// live auth session. No network call is made in that case.
	ErrSessionExpired = errors.New("intake: session expired, sign in again")

	// ErrRateLimited maps a 429 from a collaborator.
	ErrRateLimited = errors.New("intake: too many attempts, wait a moment and retry")

	// ErrServer maps a 5xx from a collaborator.
	ErrServer = errors.New("intake: server error, try again shortly")

	// ErrSubmitFailed is the generic submission failure when no more specific
	// cause is known (offline, malformed response body).
	ErrSubmitFailed = errors.New("intake: unable to submit, check your connection and retry")

	// ErrMissingBillingIdentity is returned by checkout regeneration when
	// neither the live form nor the last submission snapshot can supply a
	// company name and billing email.
	ErrMissingBillingIdentity = errors.New("intake: company name and billing email are required, go back and verify step 1")

	// ErrNotEditing is returned by navigation ops outside the editing phase.
	ErrNotEditing = errors.New("intake: wizard is not in the editing phase")
)
