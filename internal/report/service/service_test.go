package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"contraventions/internal/audit"
	auditstore "contraventions/internal/audit/store"
	invoiceservice "contraventions/internal/invoice/service"
	invoicestore "contraventions/internal/invoice/store"
	motifmodels "contraventions/internal/motif/models"
	motifstore "contraventions/internal/motif/store"
	"contraventions/internal/invoice/render"
	"contraventions/internal/report/models"
	"contraventions/internal/report/service"
	reportstore "contraventions/internal/report/store"
	"contraventions/internal/residency"
	id "contraventions/pkg/domain"
	dErrors "contraventions/pkg/domain-errors"
	txcontext "contraventions/pkg/platform/tx"
	"contraventions/pkg/requestcontext"
	"contraventions/pkg/testutil"
)

// =============================================================================
// Confirmation Engine Test Suite
// =============================================================================
// The engine owns the ordering guarantees of the confirmation flow: count
// before price, price before render, render before any mutation. These are
// exercised here against memory stores with a real issuer and a capturing
// renderer.

type ServiceSuite struct {
	suite.Suite
	reports   *reportstore.InMemory
	motifs    *motifstore.InMemory
	invoices  *invoicestore.InMemory
	auditLog  *auditstore.InMemory
	renderer  *fakeRenderer
	directory *fakeDirectory
	service   *service.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.reports = reportstore.NewInMemory()
	s.motifs = motifstore.NewInMemory()
	s.invoices = invoicestore.NewInMemory()
	s.auditLog = auditstore.NewInMemory()
	s.renderer = &fakeRenderer{}
	s.directory = &fakeDirectory{entries: map[string]residency.Entry{}}

	ctx := context.Background()
	s.Require().NoError(s.motifs.Upsert(ctx, motifWithTiers("TAPAGE_NOCTURNE", 5000, 10000, 20000, 30000)))
	s.Require().NoError(s.motifs.Upsert(ctx, motifWithTiers("DEGRADATION", 10000, 20000, 40000, 80000)))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	issuer, err := invoiceservice.NewIssuer(s.invoices)
	s.Require().NoError(err)

	s.service, err = service.NewService(
		s.reports, s.motifs, issuer, s.renderer, txcontext.PassthroughRunner{},
		service.WithLogger(logger),
		service.WithDirectory(s.directory),
		service.WithRecorder(audit.NewRecorder(s.auditLog, logger)),
	)
	s.Require().NoError(err)
}

func (s *ServiceSuite) ctx() context.Context {
	ctx := requestcontext.WithAgentID(context.Background(), "agent-1")
	return requestcontext.WithTime(ctx, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
}

func (s *ServiceSuite) file(in service.CreateInput) *models.Report {
	if in.Motif == "" {
		in.Motif = "TAPAGE_NOCTURNE"
	}
	report, err := s.service.Create(s.ctx(), in)
	s.Require().NoError(err)
	return report
}

// =============================================================================
// Fakes
// =============================================================================

type fakeRenderer struct {
	mu     sync.Mutex
	inputs []render.Input
	err    error
}

func (r *fakeRenderer) Render(_ context.Context, in render.Input) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	r.inputs = append(r.inputs, in)
	return "uploads/" + in.InvoiceRef + ".html", nil
}

func (r *fakeRenderer) last() render.Input {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inputs[len(r.inputs)-1]
}

// gatedRenderer parks the first render until released so tests can interleave
// a second decision with an in-flight confirmation.
type gatedRenderer struct {
	entered chan struct{}
	release chan struct{}
}

func (r *gatedRenderer) Render(_ context.Context, in render.Input) (string, error) {
	close(r.entered)
	<-r.release
	return "uploads/" + in.InvoiceRef + ".html", nil
}

type fakeDirectory struct {
	entries map[string]residency.Entry
}

func (d *fakeDirectory) Lookup(room, building string) (residency.Entry, bool) {
	entry, ok := d.entries[room+"/"+building]
	return entry, ok
}

func motifWithTiers(label string, t1, t2, t3, t4 int64) *motifmodels.Motif {
	return &motifmodels.Motif{
		Label: id.MotifLabel(label),
		Tier1: &t1, Tier2: &t2, Tier3: &t3, Tier4: &t4,
	}
}

// =============================================================================
// Filing
// =============================================================================

func (s *ServiceSuite) TestCreate() {
	s.Run("files a pending report and audits it", func() {
		report := s.file(service.CreateInput{
			Description: "noise after curfew",
			ResidentID:  "R-172",
		})

		s.Equal(models.StatusPending, report.Status)
		s.Regexp(`^CTR-[0-9A-F]{8}$`, report.Ref.String())
		s.Equal(id.AgentID("agent-1"), report.AuthorID)

		stored, err := s.reports.FindByRef(context.Background(), report.Ref)
		s.Require().NoError(err)
		s.Equal(id.ResidentID("R-172"), *stored.ResidentID)

		events := s.auditLog.All()
		s.Require().Len(events, 1)
		s.Equal(audit.ActionReportCreated, events[0].Action)
		s.Equal(report.Ref.String(), events[0].Subject)
		s.Equal("agent-1", events[0].ActorID)
	})

	s.Run("rejects an unknown motif", func() {
		_, err := s.service.Create(s.ctx(), service.CreateInput{Motif: "JAYWALKING"})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("rejects an empty motif", func() {
		_, err := s.service.Create(s.ctx(), service.CreateInput{Motif: "   "})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("rejects a missing agent identity", func() {
		_, err := s.service.Create(context.Background(), service.CreateInput{Motif: "TAPAGE_NOCTURNE"})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

// =============================================================================
// Confirmation: pricing and grouping
// =============================================================================

func (s *ServiceSuite) TestConfirmFirstOccurrence() {
	report := s.file(service.CreateInput{Description: "noise after curfew", ResidentID: "R-172"})

	result, err := s.service.Confirm(s.ctx(), report.Ref, models.Location{})
	s.Require().NoError(err)

	s.Equal(1, result.Occurrence)
	s.Equal(int64(5000), result.Invoice.Amount)
	s.Equal(models.StatusConfirmed, result.Report.Status)
	s.Require().NotNil(result.Report.InvoiceRef)
	s.Equal(result.Invoice.Ref, *result.Report.InvoiceRef)
	s.Equal("uploads/"+result.Invoice.Ref.String()+".html", result.Invoice.DocumentRef)

	in := s.renderer.last()
	s.Equal(report.Ref.String(), in.ReportRef)
	s.Equal(1, in.Occurrence)
	s.Equal(int64(5000), in.Amount)
	s.Equal("Resident R-172", in.Identity.DisplayName)

	var actions []audit.Action
	for _, e := range s.auditLog.All() {
		actions = append(actions, e.Action)
	}
	s.Contains(actions, audit.ActionReportConfirmed)
	s.Contains(actions, audit.ActionInvoiceIssued)
}

func (s *ServiceSuite) TestConfirmEscalatesAndSaturates() {
	amounts := []int64{5000, 10000, 20000, 30000, 30000, 30000}
	for i, want := range amounts {
		report := s.file(service.CreateInput{ResidentID: "R-172"})
		result, err := s.service.Confirm(s.ctx(), report.Ref, models.Location{})
		s.Require().NoError(err)
		s.Equal(i+1, result.Occurrence)
		s.Equal(want, result.Invoice.Amount, "occurrence %d", i+1)
	}
}

func (s *ServiceSuite) TestConfirmGroupsPerMotif() {
	first := s.file(service.CreateInput{ResidentID: "R-172"})
	_, err := s.service.Confirm(s.ctx(), first.Ref, models.Location{})
	s.Require().NoError(err)

	other := s.file(service.CreateInput{Motif: "DEGRADATION", ResidentID: "R-172"})
	result, err := s.service.Confirm(s.ctx(), other.Ref, models.Location{})
	s.Require().NoError(err)
	s.Equal(1, result.Occurrence, "a different motif starts its own ladder")
	s.Equal(int64(10000), result.Invoice.Amount)
}

func (s *ServiceSuite) TestConfirmGroupsByNormalizedLocation() {
	variants := []models.Location{
		{Room: "101", Building: "Building A"},
		{Room: "  101 ", Building: "Bâtiment A"},
		{Room: "101", Building: "A"},
	}
	for i, loc := range variants {
		report := s.file(service.CreateInput{Room: loc.Room, Building: loc.Building})
		result, err := s.service.Confirm(s.ctx(), report.Ref, models.Location{})
		s.Require().NoError(err)
		s.Equal(i+1, result.Occurrence, "variant %q should join the same group", loc)
	}

	s.Run("a different room is a different group", func() {
		report := s.file(service.CreateInput{Room: "102", Building: "A"})
		result, err := s.service.Confirm(s.ctx(), report.Ref, models.Location{})
		s.Require().NoError(err)
		s.Equal(1, result.Occurrence)
	})
}

func (s *ServiceSuite) TestConfirmResidentTakesPriorityOverLocation() {
	anchor := s.file(service.CreateInput{Room: "101", Building: "A"})
	_, err := s.service.Confirm(s.ctx(), anchor.Ref, models.Location{})
	s.Require().NoError(err)

	// Same location, but a resident id is present: grouped by resident.
	report := s.file(service.CreateInput{ResidentID: "R-172", Room: "101", Building: "A"})
	result, err := s.service.Confirm(s.ctx(), report.Ref, models.Location{})
	s.Require().NoError(err)
	s.Equal(1, result.Occurrence)
}

func (s *ServiceSuite) TestConfirmWithoutIdentityNeverEscalates() {
	for i := 0; i < 3; i++ {
		report := s.file(service.CreateInput{Description: "unattributed"})
		result, err := s.service.Confirm(s.ctx(), report.Ref, models.Location{})
		s.Require().NoError(err)
		s.Equal(1, result.Occurrence)
		s.Equal(int64(5000), result.Invoice.Amount)
	}
}

func (s *ServiceSuite) TestConfirmLocationOverride() {
	anchor := s.file(service.CreateInput{Room: "205", Building: "B"})
	_, err := s.service.Confirm(s.ctx(), anchor.Ref, models.Location{})
	s.Require().NoError(err)

	// Filed against 101/A but corrected to 205/B at decision time.
	report := s.file(service.CreateInput{Room: "101", Building: "A"})
	result, err := s.service.Confirm(s.ctx(), report.Ref, models.Location{Room: "205", Building: "B"})
	s.Require().NoError(err)

	s.Equal(2, result.Occurrence, "override relocates the report into the 205/B group")

	stored, err := s.reports.FindByRef(context.Background(), report.Ref)
	s.Require().NoError(err)
	s.Equal(models.Location{Room: "205", Building: "B"}, stored.Location)
}

func (s *ServiceSuite) TestConfirmPartialOverrideKeepsOtherHalf() {
	anchor := s.file(service.CreateInput{Room: "101", Building: "B"})
	_, err := s.service.Confirm(s.ctx(), anchor.Ref, models.Location{})
	s.Require().NoError(err)

	// Correcting only the building must keep the room on file, landing the
	// report in the 101/B group rather than degrading it to no identity.
	report := s.file(service.CreateInput{Room: "101", Building: "A"})
	result, err := s.service.Confirm(s.ctx(), report.Ref, models.Location{Building: "B"})
	s.Require().NoError(err)
	s.Equal(2, result.Occurrence)

	stored, err := s.reports.FindByRef(context.Background(), report.Ref)
	s.Require().NoError(err)
	s.Equal(models.Location{Room: "101", Building: "B"}, stored.Location)

	// Room-only correction, same rule.
	third := s.file(service.CreateInput{Room: "999", Building: "B"})
	result, err = s.service.Confirm(s.ctx(), third.Ref, models.Location{Room: "101"})
	s.Require().NoError(err)
	s.Equal(3, result.Occurrence)
}

// =============================================================================
// Confirmation: failure modes
// =============================================================================

func (s *ServiceSuite) TestConfirmRenderFailureLeavesNoTrace() {
	report := s.file(service.CreateInput{ResidentID: "R-172"})

	s.renderer.err = errors.New("disk full")
	_, err := s.service.Confirm(s.ctx(), report.Ref, models.Location{})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	stored, storeErr := s.reports.FindByRef(context.Background(), report.Ref)
	s.Require().NoError(storeErr)
	s.Equal(models.StatusPending, stored.Status, "a rendering failure must not change state")
	s.Nil(stored.InvoiceRef)

	_, invErr := s.invoices.FindByReportRef(context.Background(), report.Ref)
	s.Error(invErr, "no invoice may exist")

	s.Run("the report remains confirmable", func() {
		s.renderer.err = nil
		result, err := s.service.Confirm(s.ctx(), report.Ref, models.Location{})
		s.Require().NoError(err)
		s.Equal(1, result.Occurrence)
	})
}

func (s *ServiceSuite) TestConfirmTerminalStates() {
	confirmed := s.file(service.CreateInput{ResidentID: "R-172"})
	_, err := s.service.Confirm(s.ctx(), confirmed.Ref, models.Location{})
	s.Require().NoError(err)

	dismissed := s.file(service.CreateInput{ResidentID: "R-172"})
	_, err = s.service.Dismiss(s.ctx(), dismissed.Ref, "")
	s.Require().NoError(err)

	s.Run("confirming a confirmed report fails", func() {
		_, err := s.service.Confirm(s.ctx(), confirmed.Ref, models.Location{})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
	s.Run("confirming a dismissed report fails", func() {
		_, err := s.service.Confirm(s.ctx(), dismissed.Ref, models.Location{})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
	s.Run("confirming an unknown report fails", func() {
		_, err := s.service.Confirm(s.ctx(), id.ReportRef("CTR-MISSING"), models.Location{})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestConfirmMissingTierAmount() {
	broken := &motifmodels.Motif{Label: id.MotifLabel("BROKEN_MOTIF")}
	t1 := int64(5000)
	broken.Tier1 = &t1
	s.Require().NoError(s.motifs.Upsert(context.Background(), broken))

	first := s.file(service.CreateInput{Motif: "BROKEN_MOTIF", ResidentID: "R-9"})
	_, err := s.service.Confirm(s.ctx(), first.Ref, models.Location{})
	s.Require().NoError(err)

	second := s.file(service.CreateInput{Motif: "BROKEN_MOTIF", ResidentID: "R-9"})
	_, err = s.service.Confirm(s.ctx(), second.Ref, models.Location{})
	s.True(dErrors.HasCode(err, dErrors.CodeDataIntegrity))

	stored, storeErr := s.reports.FindByRef(context.Background(), second.Ref)
	s.Require().NoError(storeErr)
	s.Equal(models.StatusPending, stored.Status)
}

// =============================================================================
// Concurrency
// =============================================================================

func (s *ServiceSuite) TestConcurrentConfirmsAreCountedOnce() {
	const n = 8
	refs := make([]id.ReportRef, n)
	for i := range refs {
		refs[i] = s.file(service.CreateInput{ResidentID: "R-172"}).Ref
	}

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		occurrences = make(map[int]bool)
		amounts     = make(map[int64]int)
	)
	for _, ref := range refs {
		wg.Add(1)
		go func(ref id.ReportRef) {
			defer wg.Done()
			result, err := s.service.Confirm(s.ctx(), ref, models.Location{})
			if err != nil {
				return
			}
			mu.Lock()
			occurrences[result.Occurrence] = true
			amounts[result.Invoice.Amount]++
			mu.Unlock()
		}(ref)
	}
	wg.Wait()

	s.Len(occurrences, n, "every confirmation should observe a distinct occurrence")
	for i := 1; i <= n; i++ {
		s.True(occurrences[i], "occurrence %d missing", i)
	}
	s.Equal(1, amounts[5000])
	s.Equal(1, amounts[10000])
	s.Equal(1, amounts[20000])
	s.Equal(n-3, amounts[30000], "everything past the fourth occurrence bills tier 4")
}

// =============================================================================
// Dismissal
// =============================================================================

func (s *ServiceSuite) TestDismiss() {
	s.Run("dismisses with a note appended to the description", func() {
		report := s.file(service.CreateInput{Description: "noise after curfew"})

		got, err := s.service.Dismiss(s.ctx(), report.Ref, "duplicate filing")
		s.Require().NoError(err)
		s.Equal(models.StatusDismissed, got.Status)
		s.Equal("noise after curfew\nDismissal note: duplicate filing", got.Description)

		events := s.auditLog.All()
		last := events[len(events)-1]
		s.Equal(audit.ActionReportDismissed, last.Action)
		s.Equal("duplicate filing", last.Reason)
	})

	s.Run("a repeat dismissal succeeds without duplicating the note", func() {
		report := s.file(service.CreateInput{Description: "noise"})
		_, err := s.service.Dismiss(s.ctx(), report.Ref, "duplicate")
		s.Require().NoError(err)

		got, err := s.service.Dismiss(s.ctx(), report.Ref, "duplicate again")
		s.Require().NoError(err)
		s.Equal(models.StatusDismissed, got.Status)
		s.Equal("noise\nDismissal note: duplicate", got.Description)
	})

	s.Run("a confirmed report cannot be dismissed", func() {
		report := s.file(service.CreateInput{ResidentID: "R-300"})
		_, err := s.service.Confirm(s.ctx(), report.Ref, models.Location{})
		s.Require().NoError(err)

		_, err = s.service.Dismiss(s.ctx(), report.Ref, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("dismissed reports never count toward recidive", func() {
		first := s.file(service.CreateInput{ResidentID: "R-400"})
		_, err := s.service.Dismiss(s.ctx(), first.Ref, "")
		s.Require().NoError(err)

		second := s.file(service.CreateInput{ResidentID: "R-400"})
		result, err := s.service.Confirm(s.ctx(), second.Ref, models.Location{})
		s.Require().NoError(err)
		s.Equal(1, result.Occurrence)
	})
}

// A dismissal arriving while a confirmation is mid-flight must wait for it.
// Without the shared per-report lock the memory deployment can persist an
// invoice for a report that ends up dismissed.
func (s *ServiceSuite) TestDismissWaitsForInFlightConfirmation() {
	report := s.file(service.CreateInput{Description: "noise after curfew", ResidentID: "R-172"})

	gate := &gatedRenderer{entered: make(chan struct{}), release: make(chan struct{})}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	issuer, err := invoiceservice.NewIssuer(s.invoices)
	s.Require().NoError(err)
	svc, err := service.NewService(
		s.reports, s.motifs, issuer, gate, txcontext.PassthroughRunner{},
		service.WithLogger(logger),
	)
	s.Require().NoError(err)

	confirmDone := make(chan error, 1)
	go func() {
		_, err := svc.Confirm(s.ctx(), report.Ref, models.Location{})
		confirmDone <- err
	}()
	<-gate.entered

	dismissDone := make(chan error, 1)
	go func() {
		_, err := svc.Dismiss(s.ctx(), report.Ref, "duplicate filing")
		dismissDone <- err
	}()

	select {
	case err := <-dismissDone:
		s.FailNowf("dismissal completed during an in-flight confirmation", "err: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(gate.release)
	s.Require().NoError(<-confirmDone)
	s.True(dErrors.HasCode(<-dismissDone, dErrors.CodeInvalidState))

	stored, err := s.reports.FindByRef(context.Background(), report.Ref)
	s.Require().NoError(err)
	s.Equal(models.StatusConfirmed, stored.Status)

	invoice, err := s.invoices.FindByReportRef(context.Background(), report.Ref)
	s.Require().NoError(err)
	s.Equal(report.Ref, invoice.ReportRef)
}

// =============================================================================
// Identity resolution
// =============================================================================

func (s *ServiceSuite) TestInvoiceIdentity() {
	s.Run("directory entry wins for a known location", func() {
		s.directory.entries["101/A"] = residency.Entry{
			DisplayName: "Famille Diallo",
			Address:     "Room 101, Building A",
		}
		report := s.file(service.CreateInput{Room: "101", Building: "A"})
		_, err := s.service.Confirm(s.ctx(), report.Ref, models.Location{})
		s.Require().NoError(err)
		s.Equal("Famille Diallo", s.renderer.last().Identity.DisplayName)
	})

	s.Run("falls back to the location when the directory has no entry", func() {
		report := s.file(service.CreateInput{Room: "707", Building: "C"})
		_, err := s.service.Confirm(s.ctx(), report.Ref, models.Location{})
		s.Require().NoError(err)
		identity := s.renderer.last().Identity
		s.Equal("Occupant", identity.DisplayName)
		s.Equal("Room 707, Building C", identity.Address)
	})

	s.Run("an unattributed report gets a generic label", func() {
		report := s.file(service.CreateInput{Description: "no party"})
		_, err := s.service.Confirm(s.ctx(), report.Ref, models.Location{})
		s.Require().NoError(err)
		s.Equal("Unidentified party", s.renderer.last().Identity.DisplayName)
	})
}

// =============================================================================
// Queries
// =============================================================================

func (s *ServiceSuite) TestPreviewRecidive() {
	for i := 0; i < 2; i++ {
		report := s.file(service.CreateInput{ResidentID: "R-172"})
		_, err := s.service.Confirm(s.ctx(), report.Ref, models.Location{})
		s.Require().NoError(err)
	}

	s.Run("reports standing and next amount", func() {
		preview, err := s.service.PreviewRecidive(s.ctx(), service.PreviewInput{
			Motif:      "TAPAGE_NOCTURNE",
			ResidentID: "R-172",
		})
		s.Require().NoError(err)
		s.Equal(2, preview.PreviousCount)
		s.Equal(3, preview.NextOccurrence)
		s.Require().NotNil(preview.NextAmount)
		s.Equal(int64(20000), *preview.NextAmount)
	})

	s.Run("an unknown party previews a first occurrence", func() {
		preview, err := s.service.PreviewRecidive(s.ctx(), service.PreviewInput{
			Motif:      "TAPAGE_NOCTURNE",
			ResidentID: "R-NEW",
		})
		s.Require().NoError(err)
		s.Equal(0, preview.PreviousCount)
		s.Equal(1, preview.NextOccurrence)
		s.Equal(int64(5000), *preview.NextAmount)
	})

	s.Run("no identity previews without matching anything", func() {
		preview, err := s.service.PreviewRecidive(s.ctx(), service.PreviewInput{Motif: "TAPAGE_NOCTURNE"})
		s.Require().NoError(err)
		s.Equal(0, preview.PreviousCount)
	})

	s.Run("an unknown motif is rejected", func() {
		_, err := s.service.PreviewRecidive(s.ctx(), service.PreviewInput{Motif: "JAYWALKING"})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *ServiceSuite) TestAgentQueries() {
	now := time.Date(2026, 3, 11, 15, 0, 0, 0, time.UTC) // a Wednesday
	at := func(t time.Time) context.Context {
		ctx := requestcontext.WithAgentID(context.Background(), "agent-1")
		return requestcontext.WithTime(ctx, t)
	}

	_, err := s.service.Create(at(now), service.CreateInput{Motif: "TAPAGE_NOCTURNE"})
	s.Require().NoError(err)
	_, err = s.service.Create(at(now.AddDate(0, 0, -1)), service.CreateInput{Motif: "TAPAGE_NOCTURNE"})
	s.Require().NoError(err)
	_, err = s.service.Create(at(now.AddDate(0, 0, -4)), service.CreateInput{Motif: "TAPAGE_NOCTURNE"}) // previous week
	s.Require().NoError(err)

	stats, err := s.service.AgentStats(at(now), id.AgentID("agent-1"))
	s.Require().NoError(err)
	s.Equal(1, stats.Today)
	s.Equal(2, stats.ThisWeek, "Monday is the week boundary")

	list, err := s.service.ListByAuthor(at(now), id.AgentID("agent-1"))
	s.Require().NoError(err)
	s.Len(list, 3)
}

func (s *ServiceSuite) TestListByResident() {
	s.file(service.CreateInput{ResidentID: "R-172"})
	s.file(service.CreateInput{ResidentID: "R-172"})
	s.file(service.CreateInput{ResidentID: "R-500"})

	list, err := s.service.ListByResident(s.ctx(), id.ResidentID("R-172"))
	s.Require().NoError(err)
	s.Len(list, 2)

	_, err = s.service.ListByResident(s.ctx(), id.ResidentID(""))
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

// =============================================================================
// End-to-end flow
// =============================================================================

// TestRepeatOffenderFlow walks the full lifecycle the way a supervisor would
// see it, in plain scenario form.
func TestRepeatOffenderFlow(t *testing.T) {
	ctx := requestcontext.WithAgentID(context.Background(), "agent-1")

	reports := reportstore.NewInMemory()
	motifs := motifstore.NewInMemory()
	invoices := invoicestore.NewInMemory()
	require.NoError(t, motifs.Upsert(ctx, motifWithTiers("TAPAGE_NOCTURNE", 5000, 10000, 20000, 30000)))

	issuer, err := invoiceservice.NewIssuer(invoices)
	require.NoError(t, err)
	svc, err := service.NewService(reports, motifs, issuer, &fakeRenderer{}, txcontext.PassthroughRunner{})
	require.NoError(t, err)

	var refs []id.ReportRef

	testutil.Given(t, "three filings against the same resident", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			report, err := svc.Create(ctx, service.CreateInput{
				Motif:       "TAPAGE_NOCTURNE",
				Description: fmt.Sprintf("incident %d", i+1),
				ResidentID:  "R-172",
			})
			require.NoError(t, err)
			refs = append(refs, report.Ref)
		}
	})

	testutil.When(t, "the first is dismissed and the rest confirmed", func(t *testing.T) {
		_, err := svc.Dismiss(ctx, refs[0], "insufficient evidence")
		require.NoError(t, err)
		for _, ref := range refs[1:] {
			_, err := svc.Confirm(ctx, ref, models.Location{})
			require.NoError(t, err)
		}
	})

	testutil.Then(t, "only confirmations escalate the price", func(t *testing.T) {
		first, err := invoices.FindByReportRef(ctx, refs[1])
		require.NoError(t, err)
		require.Equal(t, int64(5000), first.Amount)

		second, err := invoices.FindByReportRef(ctx, refs[2])
		require.NoError(t, err)
		require.Equal(t, int64(10000), second.Amount)
	})
}
