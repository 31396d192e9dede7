package intake

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/leadforgehq/intake-platform/internal/auth"
	"github.com/leadforgehq/intake-platform/pkg/logging"
)

// Phase is the wizard's top-level state.
type Phase int

const (
	PhaseCheckingAuth Phase = iota
	PhaseUnauthenticated
	PhaseEditing
	PhaseSubmitting
	PhaseSubmitted
)

func (p Phase) String() string {
	switch p {
	case PhaseCheckingAuth:
		return "checking-auth"
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseEditing:
		return "editing"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSubmitted:
		return "submitted"
	}
	return "unknown"
}

// CollaboratorError carries the HTTP status and server-supplied message from
// a failed collaborator call, so the wizard can distinguish rate limiting and
// server errors from plain rejection.
type CollaboratorError struct {
	Status  int
	Message string
}

func (e *CollaboratorError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Status)
}

// SessionVerifier resolves passwords and previously issued tokens into
// sessions. *auth.Gate satisfies it.
type SessionVerifier interface {
	VerifyPassword(ctx context.Context, password string) (*auth.Session, error)
	VerifyToken(ctx context.Context, token string) (*auth.Session, error)
}

// WizardConfig wires the wizard's collaborators. I/O happens only through
// these; the transition logic itself is synchronous and single-writer.
type WizardConfig struct {
	Drafts      DraftStore
	Snapshots   SnapshotStore
	Scheduler   WriteScheduler
	Provisioner Provisioner
	Verifier    SessionVerifier
	Logger      *logging.Logger
	Clock       func() time.Time
}

// Wizard drives one onboarding session through the five steps, draft
// persistence, submission, and the resumable submitted state.
type Wizard struct {
	drafts      DraftStore
	snapshots   SnapshotStore
	scheduler   WriteScheduler
	provisioner Provisioner
	verifier    SessionVerifier
	logger      *logging.Logger
	clock       func() time.Time

	phase           Phase
	step            int
	form            Form
	errors          FieldErrors
	topError        string
	result          *SubmissionResult
	session         *auth.Session
	suppressRestore bool
}

// NewWizard creates a wizard in the checking-auth phase.
func NewWizard(cfg WizardConfig) *Wizard {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Wizard{
		drafts:      cfg.Drafts,
		snapshots:   cfg.Snapshots,
		scheduler:   cfg.Scheduler,
		provisioner: cfg.Provisioner,
		verifier:    cfg.Verifier,
		logger:      cfg.Logger,
		clock:       cfg.Clock,
		phase:       PhaseCheckingAuth,
		form:        NewForm(),
		errors:      FieldErrors{},
	}
}

// Phase returns the wizard's current phase.
func (w *Wizard) Phase() Phase { return w.phase }

// Step returns the current step index.
func (w *Wizard) Step() int { return w.step }

// Form returns a copy of the current form.
func (w *Wizard) Form() Form { return w.form.Clone() }

// Errors returns a copy of the current field error set.
func (w *Wizard) Errors() FieldErrors {
	out := FieldErrors{}
	for k, v := range w.errors {
		out[k] = v
	}
	return out
}

// TopError returns the current top-level error message, if any.
func (w *Wizard) TopError() string { return w.topError }

// Result returns the submission result once the wizard is submitted.
func (w *Wizard) Result() *SubmissionResult { return w.result }

// Mount resolves the auth token and restores prior state: a resumable
// snapshot short-circuits straight to submitted, otherwise a persisted draft
// rehydrates the form and step. Malformed persisted data is treated as
// absent.
func (w *Wizard) Mount(ctx context.Context, token string) {
	w.phase = PhaseCheckingAuth
	w.topError = ""
	// A mount is the reload boundary: the one-shot restore suppression does
	// not survive it.
	w.suppressRestore = false

	if token == "" {
		w.phase = PhaseUnauthenticated
		return
	}
	sess, err := w.verifier.VerifyToken(ctx, token)
	if err != nil || !sess.Valid(w.clock()) {
		w.phase = PhaseUnauthenticated
		return
	}
	w.session = sess

	if snap := w.loadSnapshot(ctx); snap != nil && snap.StripeCheckoutURL != "" {
		w.result = resultFromSnapshot(snap)
		w.phase = PhaseSubmitted
		return
	}

	w.form = NewForm()
	w.step = 0
	if d := w.loadDraft(ctx); d != nil {
		w.form = d.Form.Clone()
		w.step = clampStep(d.Step)
	}
	w.phase = PhaseEditing
}

// Authenticate exchanges the shared password for a session and enters
// editing at step 0. Rate-limited and server errors are reported distinctly
// from a wrong password.
func (w *Wizard) Authenticate(ctx context.Context, password string) error {
	sess, err := w.verifier.VerifyPassword(ctx, password)
	if err != nil {
		w.topError = authErrorMessage(err)
		return err
	}
	w.session = sess
	w.topError = ""
	w.form = NewForm()
	w.step = 0
	if d := w.loadDraft(ctx); d != nil {
		w.form = d.Form.Clone()
		w.step = clampStep(d.Step)
	}
	w.phase = PhaseEditing
	return nil
}

// Advance runs the step gate for the current step. On a pass it moves
// forward, or begins submission from the review step. Gate failures leave
// the step unchanged with the recomputed error set.
func (w *Wizard) Advance(ctx context.Context) error {
	if w.phase != PhaseEditing {
		return ErrNotEditing
	}
	errs := ValidateStep(&w.form, w.step)
	w.errors = errs
	if len(errs) > 0 {
		return nil
	}
	if w.step < FinalStep {
		w.step++
		w.scheduleDraftWrite()
		return nil
	}
	return w.submit(ctx)
}

// Retreat clears errors and moves back one step. It never re-validates.
func (w *Wizard) Retreat() {
	if w.phase != PhaseEditing {
		return
	}
	w.errors = FieldErrors{}
	if w.step > 0 {
		w.step--
		w.scheduleDraftWrite()
	}
}

// UpdateField merges a scalar value into the form, clears any existing error
// for that field, and schedules a debounced draft write.
func (w *Wizard) UpdateField(key string, value any) {
	if w.phase != PhaseEditing {
		return
	}
	if key == FieldBillingModel {
		if s, ok := value.(string); ok {
			w.SetBillingModel(BillingModel(s))
		}
		return
	}
	if !w.form.setField(key, value) {
		return
	}
	delete(w.errors, key)
	w.scheduleDraftWrite()
}

// SetBillingModel selects a billing model, applying the threshold coupling
// at selection time.
func (w *Wizard) SetBillingModel(m BillingModel) {
	if w.phase != PhaseEditing {
		return
	}
	if msg := w.form.setBillingModel(m); msg != "" {
		w.errors[FieldBillingModel] = msg
		return
	}
	delete(w.errors, FieldBillingModel)
	delete(w.errors, FieldChargeThreshold)
	w.scheduleDraftWrite()
}

// AddTargetZip adds a ZIP code, surfacing cap and shape violations as field
// errors. Duplicates are silent no-ops.
func (w *Wizard) AddTargetZip(zip string) {
	w.applyListOp(FieldTargetZipCodes, func() string { return w.form.addTargetZip(zip) })
}

// RemoveTargetZip removes a ZIP code.
func (w *Wizard) RemoveTargetZip(zip string) {
	w.applyListOp(FieldTargetZipCodes, func() string { w.form.removeTargetZip(zip); return "" })
}

// AddServiceArea adds a unique service area name.
func (w *Wizard) AddServiceArea(area string) {
	w.applyListOp(FieldServiceAreas, func() string { return w.form.addServiceArea(area) })
}

// RemoveServiceArea removes a service area.
func (w *Wizard) RemoveServiceArea(area string) {
	w.applyListOp(FieldServiceAreas, func() string { w.form.removeServiceArea(area); return "" })
}

// AddRoutingPhone validates and adds a routing phone.
func (w *Wizard) AddRoutingPhone(phone string) {
	w.applyListOp(FieldRoutingPhones, func() string {
		msg := w.form.addRoutingPhone(phone)
		if msg == "" {
			delete(w.errors, FieldRoutingContacts)
		}
		return msg
	})
}

// RemoveRoutingPhone removes a routing phone.
func (w *Wizard) RemoveRoutingPhone(phone string) {
	w.applyListOp(FieldRoutingPhones, func() string { w.form.removeRoutingPhone(phone); return "" })
}

// AddRoutingEmail validates and adds a routing email.
func (w *Wizard) AddRoutingEmail(email string) {
	w.applyListOp(FieldRoutingEmails, func() string {
		msg := w.form.addRoutingEmail(email)
		if msg == "" {
			delete(w.errors, FieldRoutingContacts)
		}
		return msg
	})
}

// RemoveRoutingEmail removes a routing email.
func (w *Wizard) RemoveRoutingEmail(email string) {
	w.applyListOp(FieldRoutingEmails, func() string { w.form.removeRoutingEmail(email); return "" })
}

// ToggleServiceType toggles a service type selection.
func (w *Wizard) ToggleServiceType(serviceType string) {
	w.applyListOp(FieldServiceTypes, func() string { w.form.toggleServiceType(serviceType); return "" })
}

func (w *Wizard) applyListOp(field string, op func() string) {
	if w.phase != PhaseEditing {
		return
	}
	if msg := op(); msg != "" {
		w.errors[field] = msg
		return
	}
	delete(w.errors, field)
	w.scheduleDraftWrite()
}

func (w *Wizard) submit(ctx context.Context) error {
	if w.phase == PhaseSubmitting {
		return nil
	}
	if !w.session.Valid(w.clock()) {
		w.topError = ErrSessionExpired.Error()
		return ErrSessionExpired
	}

	w.phase = PhaseSubmitting
	w.topError = ""
	res, err := w.provisioner.SubmitIntake(ctx, w.session.Token, BuildSubmission(&w.form))
	if err != nil {
		w.phase = PhaseEditing
		w.step = FinalStep
		w.topError = submitErrorMessage(err)
		return err
	}

	w.result = res
	now := w.clock()
	w.saveSnapshot(ctx, w.snapshotFromResult(res, now))
	if w.scheduler != nil {
		w.scheduler.Stop()
	}
	if w.drafts != nil {
		w.drafts.Clear(ctx)
	}
	w.phase = PhaseSubmitted
	w.logger.Info("intake submitted", "portal_key", res.PortalKey, "stripe_status", res.StripeStatus)
	return nil
}

// RegenerateCheckout re-issues the payment checkout link. Each input resolves
// through live form value, then last snapshot value, then a hardcoded
// default. The call is best-effort and repeatable; it is not transactionally
// linked to the original submission.
func (w *Wizard) RegenerateCheckout(ctx context.Context) error {
	if !w.session.Valid(w.clock()) {
		w.topError = ErrSessionExpired.Error()
		return ErrSessionExpired
	}
	snap := w.readSnapshot(ctx)
	req, err := w.resolveCheckoutRequest(snap)
	if err != nil {
		w.topError = err.Error()
		return err
	}

	res, err := w.provisioner.RegenerateCheckout(ctx, w.session.Token, req)
	if err != nil {
		w.topError = submitErrorMessage(err)
		return err
	}

	w.topError = ""
	if w.result == nil {
		w.result = &SubmissionResult{PortalKey: req.PortalKey}
	}
	w.result.StripeStatus = StripeProvisioned
	w.result.StripeCheckoutURL = res.CheckoutURL
	w.result.CheckoutAmountCents = res.AmountCents
	w.result.StripeMessage = CheckoutMessage(res.AmountCents)

	now := w.clock()
	w.saveSnapshot(ctx, &Snapshot{
		SavedAt:             now,
		PortalKey:           req.PortalKey,
		StripeStatus:        StripeProvisioned,
		StripeMessage:       w.result.StripeMessage,
		StripeCheckoutURL:   res.CheckoutURL,
		CompanyName:         req.CompanyName,
		BillingEmail:        req.BillingEmail,
		BillingName:         req.BillingName,
		BillingModel:        req.BillingModel,
		LeadChargeThreshold: req.LeadChargeThreshold,
		LeadUnitPriceCents:  req.LeadUnitPriceCents,
	})
	return nil
}

// resolveCheckoutRequest applies the three-tier fallback: live form value,
// then snapshot value, then hardcoded default. Company name and a valid
// billing email must be resolvable or no network call is attempted.
func (w *Wizard) resolveCheckoutRequest(snap *Snapshot) (CheckoutRequest, error) {
	req := CheckoutRequest{
		LeadChargeThreshold: DefaultChargeThreshold,
		LeadUnitPriceCents:  DefaultUnitPriceDollars * 100,
		BillingModel:        string(BillingCommitmentUpfront),
	}

	req.CompanyName = firstNonEmpty(w.form.CompanyName, snapString(snap, func(s *Snapshot) string { return s.CompanyName }))
	if ValidEmail(w.form.AccountLoginEmail) {
		req.BillingEmail = w.form.AccountLoginEmail
	} else if snap != nil && ValidEmail(snap.BillingEmail) {
		req.BillingEmail = snap.BillingEmail
	}
	req.BillingName = firstNonEmpty(joinName(w.form.FirstName, w.form.LastName), snapString(snap, func(s *Snapshot) string { return s.BillingName }))

	if w.form.BillingModel.Valid() {
		req.BillingModel = string(w.form.BillingModel)
	} else if snap != nil && BillingModel(snap.BillingModel).Valid() {
		req.BillingModel = snap.BillingModel
	}
	if w.form.LeadChargeThreshold >= 1 {
		req.LeadChargeThreshold = w.form.LeadChargeThreshold
	} else if snap != nil && snap.LeadChargeThreshold >= 1 {
		req.LeadChargeThreshold = snap.LeadChargeThreshold
	}
	if w.form.LeadUnitPriceDollars >= 1 {
		req.LeadUnitPriceCents = w.form.LeadUnitPriceDollars * 100
	} else if snap != nil && snap.LeadUnitPriceCents >= 100 {
		req.LeadUnitPriceCents = snap.LeadUnitPriceCents
	}

	if w.result != nil && w.result.PortalKey != "" {
		req.PortalKey = w.result.PortalKey
	} else if snap != nil {
		req.PortalKey = snap.PortalKey
	}

	if req.CompanyName == "" || !ValidEmail(req.BillingEmail) {
		return CheckoutRequest{}, ErrMissingBillingIdentity
	}
	return req, nil
}

// CreateAnother starts a fresh intake. The last snapshot is retained but
// auto-restore is suppressed for this session.
func (w *Wizard) CreateAnother() {
	if w.phase != PhaseSubmitted {
		return
	}
	w.suppressRestore = true
	w.form = NewForm()
	w.step = 0
	w.errors = FieldErrors{}
	w.topError = ""
	w.result = nil
	w.phase = PhaseEditing
}

// ClearLastSubmission deletes the snapshot and starts over.
func (w *Wizard) ClearLastSubmission(ctx context.Context) {
	if w.snapshots != nil {
		w.snapshots.Clear(ctx)
	}
	w.form = NewForm()
	w.step = 0
	w.errors = FieldErrors{}
	w.topError = ""
	w.result = nil
	w.phase = PhaseEditing
}

// Resume re-enters the submitted view from the last snapshot and clears the
// restore suppression.
func (w *Wizard) Resume(ctx context.Context) bool {
	w.suppressRestore = false
	snap := w.loadSnapshot(ctx)
	if snap == nil || snap.StripeCheckoutURL == "" {
		return false
	}
	w.result = resultFromSnapshot(snap)
	w.phase = PhaseSubmitted
	return true
}

func (w *Wizard) scheduleDraftWrite() {
	if w.drafts == nil {
		return
	}
	d := &Draft{SavedAt: w.clock(), Step: w.step, Form: w.form.Clone()}
	write := func() { w.drafts.Save(context.Background(), d) }
	if w.scheduler == nil {
		write()
		return
	}
	w.scheduler.Schedule(write)
}

func (w *Wizard) loadDraft(ctx context.Context) *Draft {
	if w.drafts == nil {
		return nil
	}
	return w.drafts.Load(ctx)
}

// loadSnapshot honors the one-shot restore suppression; it gates
// auto-restore on mount and resume only.
func (w *Wizard) loadSnapshot(ctx context.Context) *Snapshot {
	if w.suppressRestore {
		return nil
	}
	return w.readSnapshot(ctx)
}

// readSnapshot always consults the store. Checkout regeneration falls back
// to snapshot values even right after "create another intake".
func (w *Wizard) readSnapshot(ctx context.Context) *Snapshot {
	if w.snapshots == nil {
		return nil
	}
	return w.snapshots.Load(ctx)
}

func (w *Wizard) saveSnapshot(ctx context.Context, s *Snapshot) {
	if w.snapshots == nil {
		return
	}
	w.snapshots.Save(ctx, s)
}

func (w *Wizard) snapshotFromResult(res *SubmissionResult, now time.Time) *Snapshot {
	return &Snapshot{
		SavedAt:             now,
		PortalKey:           res.PortalKey,
		StripeStatus:        res.StripeStatus,
		StripeMessage:       res.StripeMessage,
		StripeCheckoutURL:   res.StripeCheckoutURL,
		CompanyName:         w.form.CompanyName,
		BillingEmail:        w.form.AccountLoginEmail,
		BillingName:         joinName(w.form.FirstName, w.form.LastName),
		BillingModel:        string(w.form.BillingModel),
		LeadChargeThreshold: w.form.LeadChargeThreshold,
		LeadUnitPriceCents:  w.form.LeadUnitPriceDollars * 100,
	}
}

func resultFromSnapshot(s *Snapshot) *SubmissionResult {
	return &SubmissionResult{
		PortalKey:         s.PortalKey,
		StripeStatus:      s.StripeStatus,
		StripeMessage:     s.StripeMessage,
		StripeCheckoutURL: s.StripeCheckoutURL,
	}
}

func clampStep(step int) int {
	if step < 0 {
		return 0
	}
	if step > FinalStep {
		return FinalStep
	}
	return step
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func snapString(s *Snapshot, pick func(*Snapshot) string) string {
	if s == nil {
		return ""
	}
	return pick(s)
}

func submitErrorMessage(err error) string {
	var ce *CollaboratorError
	if errors.As(err, &ce) {
		switch {
		case ce.Status == http.StatusTooManyRequests:
			return ErrRateLimited.Error()
		case ce.Status >= http.StatusInternalServerError:
			return ErrServer.Error()
		case ce.Message != "":
			return ce.Message
		}
	}
	if errors.Is(err, ErrSessionExpired) {
		return ErrSessionExpired.Error()
	}
	return ErrSubmitFailed.Error()
}

func authErrorMessage(err error) string {
	var ce *CollaboratorError
	if errors.As(err, &ce) {
		switch {
		case ce.Status == http.StatusTooManyRequests:
			return ErrRateLimited.Error()
		case ce.Status >= http.StatusInternalServerError:
			return ErrServer.Error()
		}
	}
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return "Incorrect password"
	}
	return "Unable to verify access, try again"
}
