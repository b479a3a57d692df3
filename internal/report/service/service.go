// Package service orchestrates the contravention lifecycle: filing, the
// confirmation flow with recidive pricing, and dismissal.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"contraventions/internal/audit"
	invoicemodels "contraventions/internal/invoice/models"
	"contraventions/internal/invoice/render"
	motifmodels "contraventions/internal/motif/models"
	"contraventions/internal/pricing"
	"contraventions/internal/recidive"
	"contraventions/internal/report/metrics"
	"contraventions/internal/report/models"
	"contraventions/internal/residency"
	id "contraventions/pkg/domain"
	dErrors "contraventions/pkg/domain-errors"
	"contraventions/pkg/keylock"
	"contraventions/pkg/platform/sentinel"
	txcontext "contraventions/pkg/platform/tx"
	"contraventions/pkg/requestcontext"
)

// Store is the report persistence the service depends on.
type Store interface {
	recidive.ConfirmedCounter

	Create(ctx context.Context, r *models.Report) error
	FindByRef(ctx context.Context, ref id.ReportRef) (*models.Report, error)
	ListByAuthor(ctx context.Context, author id.AgentID) ([]*models.Report, error)
	ListByResident(ctx context.Context, resident id.ResidentID) ([]*models.Report, error)
	CountByAuthorBetween(ctx context.Context, author id.AgentID, from, to time.Time) (int, error)
	MarkConfirmed(ctx context.Context, ref id.ReportRef, invoiceRef id.InvoiceRef, loc models.Location) error
	MarkDismissed(ctx context.Context, ref id.ReportRef, description string) error
}

// MotifCatalog resolves motif labels to their tier amounts.
type MotifCatalog interface {
	FindByLabel(ctx context.Context, label id.MotifLabel) (*motifmodels.Motif, error)
}

// Issuer creates the invoice record for a confirmation.
type Issuer interface {
	NewRef(ctx context.Context, reportRef id.ReportRef) (id.InvoiceRef, error)
	Issue(ctx context.Context, ref id.InvoiceRef, reportRef id.ReportRef, amount int64, documentRef string) (*invoicemodels.Invoice, error)
}

// RecidiveLocker serializes confirmations per recidive key at the database
// level. SQL deployments provide one backed by advisory locks; memory
// deployments rely on the in-process key lock alone and leave this nil.
type RecidiveLocker interface {
	AcquireRecidiveLock(ctx context.Context, key recidive.Key) error
}

// Service is the confirmation engine.
type Service struct {
	store     Store
	motifs    MotifCatalog
	issuer    Issuer
	renderer  render.Renderer
	runner    txcontext.Runner
	counter   *recidive.Counter
	locks     *keylock.KeyedMutex
	locker    RecidiveLocker
	directory residency.Directory
	recorder  *audit.Recorder
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithDirectory attaches the residency directory used to resolve the billed
// party's display identity on invoices.
func WithDirectory(d residency.Directory) Option {
	return func(s *Service) { s.directory = d }
}

// WithRecorder attaches the audit recorder. Events are appended inside the
// mutation's transaction.
func WithRecorder(r *audit.Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithRecidiveLocker attaches database-level confirmation serialization.
func WithRecidiveLocker(l RecidiveLocker) Option {
	return func(s *Service) { s.locker = l }
}

func NewService(store Store, motifs MotifCatalog, issuer Issuer, renderer render.Renderer, runner txcontext.Runner, opts ...Option) (*Service, error) {
	if store == nil || motifs == nil || issuer == nil || renderer == nil || runner == nil {
		return nil, errors.New("store, motifs, issuer, renderer and runner are required")
	}
	s := &Service{
		store:     store,
		motifs:    motifs,
		issuer:    issuer,
		renderer:  renderer,
		runner:    runner,
		counter:   recidive.NewCounter(store),
		locks:     keylock.New(),
		directory: residency.Empty(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.recorder == nil {
		s.recorder = audit.NewRecorder(auditDiscard{}, s.logger)
	}
	return s, nil
}

// auditDiscard satisfies audit.Store for deployments without an outbox.
type auditDiscard struct{}

func (auditDiscard) Append(context.Context, audit.Event) error { return nil }
func (auditDiscard) ListUnpublished(context.Context, int) ([]audit.Event, error) {
	return nil, nil
}
func (auditDiscard) MarkPublished(context.Context, []uuid.UUID, time.Time) error { return nil }

// CreateInput carries a new filing. ResidentID, Room and Building are all
// optional; reports with none of them are still valid and simply never group
// with anything for recidive purposes.
type CreateInput struct {
	Motif       string
	Description string
	ResidentID  string
	Room        string
	Building    string
}

// Create files a new PENDING report.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Report, error) {
	author := requestcontext.AgentID(ctx)
	if author == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "acting agent identity is required")
	}

	label, err := id.ParseMotifLabel(in.Motif)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid motif label")
	}
	if _, err := s.motifs.FindByLabel(ctx, label); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown motif %s", label)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to resolve motif")
	}

	var residentID *id.ResidentID
	if trimmed := strings.TrimSpace(in.ResidentID); trimmed != "" {
		rid := id.ResidentID(trimmed)
		residentID = &rid
	}

	report, err := models.NewReport(
		newReportRef(),
		label,
		author,
		in.Description,
		residentID,
		models.Location{Room: in.Room, Building: in.Building},
		requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}

	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, report); err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to persist report")
		}
		return s.recorder.Record(ctx, audit.Event{
			Action:  audit.ActionReportCreated,
			Subject: report.Ref.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("report filed",
		"ref", report.Ref.String(),
		"motif", label.String(),
		"author", author.String(),
	)
	return report, nil
}

// GetByRef returns a single report.
func (s *Service) GetByRef(ctx context.Context, ref id.ReportRef) (*models.Report, error) {
	report, err := s.store.FindByRef(ctx, ref)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "report %s not found", ref)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load report")
	}
	return report, nil
}

// ConfirmResult is everything a confirmation produced.
type ConfirmResult struct {
	Report     *models.Report
	Invoice    *invoicemodels.Invoice
	Occurrence int
}

// Confirm accepts a pending report, prices it by recidive occurrence and
// issues its invoice. The optional location override replaces the report's
// location tag for this decision and is persisted with it.
//
// Counting and mutation are serialized per recidive key: an in-process key
// lock covers the memory deployment, and the database locker extends the
// guarantee across processes. The rendered document is produced before any
// state changes, so a rendering failure aborts with the report untouched.
func (s *Service) Confirm(ctx context.Context, ref id.ReportRef, override models.Location) (*ConfirmResult, error) {
	started := time.Now()

	report, err := s.GetByRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := report.CanTransition(); err != nil {
		return nil, err
	}

	// Overrides merge field by field: correcting the room must not discard
	// the building on file, and vice versa.
	if room := strings.TrimSpace(override.Room); room != "" {
		report.Location.Room = room
	}
	if building := strings.TrimSpace(override.Building); building != "" {
		report.Location.Building = building
	}
	key := recidive.ResolveKey(report)

	motif, err := s.motifs.FindByLabel(ctx, report.MotifLabel)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeDataIntegrity,
				"report %s references unknown motif %s", ref, report.MotifLabel)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to resolve motif")
	}

	unlock := s.locks.Lock(key.String())
	defer unlock()
	unlockRef := s.locks.Lock(decisionLock(ref))
	defer unlockRef()

	var result *ConfirmResult
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if s.locker != nil {
			if err := s.locker.AcquireRecidiveLock(ctx, key); err != nil {
				return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to serialize confirmation")
			}
		}

		// Re-check under the lock: a concurrent decision may have landed
		// between the initial read and here.
		fresh, err := s.store.FindByRef(ctx, ref)
		if err != nil {
			return translateTransition(err, ref)
		}
		if err := fresh.CanTransition(); err != nil {
			return err
		}

		prior, err := s.counter.CountPrior(ctx, key, report.MotifLabel, ref)
		if err != nil {
			return err
		}
		occurrence := prior + 1

		amount, err := pricing.SelectTier(motif, occurrence)
		if err != nil {
			return err
		}

		invoiceRef, err := s.issuer.NewRef(ctx, ref)
		if err != nil {
			return err
		}

		documentRef, err := s.renderer.Render(ctx, render.Input{
			InvoiceRef:  invoiceRef.String(),
			ReportRef:   ref.String(),
			MotifLabel:  report.MotifLabel.String(),
			Description: report.Description,
			Occurrence:  occurrence,
			Amount:      amount,
			IssuedAt:    requestcontext.Now(ctx),
			Identity:    s.displayIdentity(report),
		})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to render invoice document")
		}

		invoice, err := s.issuer.Issue(ctx, invoiceRef, ref, amount, documentRef)
		if err != nil {
			return err
		}

		if err := s.store.MarkConfirmed(ctx, ref, invoiceRef, report.Location); err != nil {
			return translateTransition(err, ref)
		}
		report.Status = models.StatusConfirmed
		report.InvoiceRef = &invoiceRef

		if err := s.recordConfirmed(ctx, report, invoice, occurrence); err != nil {
			return err
		}

		result = &ConfirmResult{Report: report, Invoice: invoice, Occurrence: occurrence}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementDecision("confirmed", report.MotifLabel.String())
	s.metrics.AddInvoicedAmount(tierLabel(result.Occurrence), result.Invoice.Amount)
	s.metrics.ObserveConfirmLatency(time.Since(started))

	s.logger.Info("report confirmed",
		"ref", ref.String(),
		"key", key.String(),
		"occurrence", result.Occurrence,
		"amount", result.Invoice.Amount,
		"invoice_ref", result.Invoice.Ref.String(),
	)
	return result, nil
}

func (s *Service) recordConfirmed(ctx context.Context, report *models.Report, invoice *invoicemodels.Invoice, occurrence int) error {
	amount := invoice.Amount
	occ := occurrence
	err := s.recorder.Record(ctx, audit.Event{
		Action:     audit.ActionReportConfirmed,
		Subject:    report.Ref.String(),
		Amount:     &amount,
		Occurrence: &occ,
	})
	if err != nil {
		return err
	}
	return s.recorder.Record(ctx, audit.Event{
		Action:  audit.ActionInvoiceIssued,
		Subject: invoice.Ref.String(),
		Amount:  &amount,
	})
}

// Dismiss closes a pending report without billing. Dismissing an already
// dismissed report succeeds without changes; a confirmed report cannot be
// dismissed.
func (s *Service) Dismiss(ctx context.Context, ref id.ReportRef, note string) (*models.Report, error) {
	// Both decisions serialize on the report so a dismissal cannot slip in
	// between a confirmation's status check and its mutation. Without this,
	// the memory deployment (no transaction rollback) could keep an invoice
	// issued for a report that ends up dismissed.
	unlock := s.locks.Lock(decisionLock(ref))
	defer unlock()

	report, err := s.GetByRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	if report.Status == models.StatusDismissed {
		return report, nil
	}
	if err := report.CanTransition(); err != nil {
		return nil, err
	}

	report.AppendNote(note)
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.MarkDismissed(ctx, ref, report.Description); err != nil {
			return translateTransition(err, ref)
		}
		return s.recorder.Record(ctx, audit.Event{
			Action:  audit.ActionReportDismissed,
			Subject: ref.String(),
			Reason:  strings.TrimSpace(note),
		})
	})
	if err != nil {
		return nil, err
	}
	report.Status = models.StatusDismissed

	s.metrics.IncrementDecision("dismissed", report.MotifLabel.String())
	s.logger.Info("report dismissed", "ref", ref.String())
	return report, nil
}

// displayIdentity resolves who the invoice is addressed to: the residency
// directory entry for the report's location when one exists, otherwise a
// generic label built from what the report carries.
func (s *Service) displayIdentity(report *models.Report) render.IdentityView {
	if report.Location.Complete() {
		if entry, ok := s.directory.Lookup(report.Location.Room, report.Location.Building); ok {
			return render.IdentityView{DisplayName: entry.DisplayName, Address: entry.Address}
		}
	}
	if report.ResidentID != nil {
		return render.IdentityView{DisplayName: "Resident " + report.ResidentID.String()}
	}
	if !report.Location.IsZero() {
		return render.IdentityView{
			DisplayName: "Occupant",
			Address:     locationAddress(report.Location),
		}
	}
	return render.IdentityView{DisplayName: "Unidentified party"}
}

func locationAddress(loc models.Location) string {
	switch {
	case loc.Room == "":
		return "Building " + loc.Building
	case loc.Building == "":
		return "Room " + loc.Room
	default:
		return "Room " + loc.Room + ", Building " + loc.Building
	}
}

// decisionLock names the per-report lock shared by Confirm and Dismiss. The
// "report:" prefix keeps it disjoint from recidive key lock names.
func decisionLock(ref id.ReportRef) string {
	return "report:" + ref.String()
}

func translateTransition(err error, ref id.ReportRef) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Newf(dErrors.CodeNotFound, "report %s not found", ref)
	}
	if errors.Is(err, sentinel.ErrInvalidState) {
		return dErrors.Newf(dErrors.CodeInvalidState, "report %s is no longer pending", ref)
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to update report")
}

func tierLabel(occurrence int) string {
	switch {
	case occurrence <= 1:
		return "1"
	case occurrence == 2:
		return "2"
	case occurrence == 3:
		return "3"
	default:
		return "4"
	}
}

func newReportRef() id.ReportRef {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return id.ReportRef("CTR-" + suffix)
}
